// Copyright (C) 2025 WisprNet, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package ingest

import "context"

// Gateway is the capability boundary to the relational backend. One gateway
// wraps one connection, used sequentially: at most one transaction is open at
// any instant.
type Gateway interface {
	// Begin opens a transaction scoped to exactly one spool file.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one backend transaction. It ends in exactly one of Commit or
// Rollback. Insert must bind values as parameters, never interpolate them.
type Tx interface {
	// Insert executes one parameterized insert. The row carries one value per
	// configured destination column, in sorted column order.
	Insert(ctx context.Context, row []string) error
	Commit(ctx context.Context) error
	// Rollback after a failed or completed commit must be a no-op, not an
	// error, so callers can always issue it on the failure path.
	Rollback(ctx context.Context) error
}

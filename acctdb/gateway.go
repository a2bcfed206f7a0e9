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

package acctdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/wisprnet/radspool/internal/ingest"
	"github.com/wisprnet/radspool/internal/mapping"
)

// Store implements ingest.Gateway over one pgx connection. The insert
// statement is built once per run: the column list is the full configured
// mapping in sorted order, so every row binds the same fixed set of
// placeholders. Values travel only as bind parameters; identifiers come from
// trusted static config and are quoted.
type Store struct {
	conn      *pgx.Conn
	insertSQL string
}

// NewStore wraps conn for inserts into table with the given mapping.
func NewStore(conn *pgx.Conn, table string, m *mapping.Mapping) *Store {
	return &Store{
		conn:      conn,
		insertSQL: insertStatement(table, m.Columns()),
	}
}

func insertStatement(table string, columns []string) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = pgx.Identifier{col}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "))
}

// Begin opens one transaction. The coordinator never holds two at once.
func (s *Store) Begin(ctx context.Context) (ingest.Tx, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &storeTx{tx: tx, insertSQL: s.insertSQL}, nil
}

// Close releases the connection after the run.
func (s *Store) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

type storeTx struct {
	tx        pgx.Tx
	insertSQL string
}

func (t *storeTx) Insert(ctx context.Context, row []string) error {
	args := make([]any, len(row))
	for i, v := range row {
		args[i] = v
	}
	_, err := t.tx.Exec(ctx, t.insertSQL, args...)
	return err
}

func (t *storeTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *storeTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

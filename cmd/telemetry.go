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

package cmd

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/wisprnet/radspool/internal/ingest"
)

var (
	meter = otel.Meter("github.com/wisprnet/radspool")

	rotationsCounter    metric.Int64Counter
	filesCommittedTotal metric.Int64Counter
	filesRetainedTotal  metric.Int64Counter
	rowsCommittedTotal  metric.Int64Counter
	deleteFailuresTotal metric.Int64Counter
)

// setupGlobalMetrics creates the counters every run records into. Without a
// configured meter provider these are no-ops.
func setupGlobalMetrics() {
	var err error

	rotationsCounter, err = meter.Int64Counter(
		"radspool.rotations",
		metric.WithDescription("Number of active logs rotated into the spool"),
	)
	if err != nil {
		slog.Warn("failed to create rotations counter", slog.Any("error", err))
	}

	filesCommittedTotal, err = meter.Int64Counter(
		"radspool.files.committed",
		metric.WithDescription("Spool files fully committed to the backend"),
	)
	if err != nil {
		slog.Warn("failed to create files committed counter", slog.Any("error", err))
	}

	filesRetainedTotal, err = meter.Int64Counter(
		"radspool.files.retained",
		metric.WithDescription("Spool files retained for a later retry"),
	)
	if err != nil {
		slog.Warn("failed to create files retained counter", slog.Any("error", err))
	}

	rowsCommittedTotal, err = meter.Int64Counter(
		"radspool.rows.committed",
		metric.WithDescription("Accounting rows committed to the backend"),
	)
	if err != nil {
		slog.Warn("failed to create rows committed counter", slog.Any("error", err))
	}

	deleteFailuresTotal, err = meter.Int64Counter(
		"radspool.files.delete_failures",
		metric.WithDescription("Committed spool files that could not be removed"),
	)
	if err != nil {
		slog.Warn("failed to create delete failures counter", slog.Any("error", err))
	}
}

func recordRunMetrics(ctx context.Context, summary ingest.Summary) {
	if filesCommittedTotal == nil {
		return
	}
	filesCommittedTotal.Add(ctx, int64(summary.Committed))
	filesRetainedTotal.Add(ctx, int64(summary.Retained))
	rowsCommittedTotal.Add(ctx, summary.RowsCommitted)
	deleteFailuresTotal.Add(ctx, int64(summary.DeleteFailed))
}

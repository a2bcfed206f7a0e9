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
	"time"

	"github.com/spf13/cobra"

	"github.com/wisprnet/radspool/acctdb"
	"github.com/wisprnet/radspool/config"
	"github.com/wisprnet/radspool/internal/ingest"
	"github.com/wisprnet/radspool/internal/mapping"
	"github.com/wisprnet/radspool/internal/runlock"
	"github.com/wisprnet/radspool/internal/spool"
)

var dryRun bool

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and map spool files without touching the backend or deleting anything")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Rotate the accounting log and apply all spooled files",
	Long: `Run one pipeline pass: take the single-instance lock, rotate the active
accounting log into the spool, and apply every spool file to the backend in
its own transaction. Files that fail stay in the spool for the next run.`,
	RunE: run,
}

func run(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	setupGlobalMetrics()

	ctx, cancel := handleSignals(context.Background())
	defer cancel()

	// Fail fast before any side effects when another run is still going.
	lock, err := runlock.Acquire(cfg.LockFile)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	m, err := loadMapping(cfg)
	if err != nil {
		return err
	}

	start := time.Now()

	dest, err := spool.Rotate(cfg.ActiveLog, cfg.SpoolDir, time.Now())
	switch {
	case err != nil:
		// Soft: the spool may still hold files from earlier runs.
		slog.Warn("rotation failed, continuing with existing spool contents", slog.Any("error", err))
	case dest == "":
		slog.Debug("no active accounting log to rotate")
	default:
		slog.Info("rotated active accounting log", slog.String("file", dest))
		if rotationsCounter != nil {
			rotationsCounter.Add(ctx, 1)
		}
	}

	files, err := spool.List(cfg.SpoolDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		slog.Info("spool is empty, nothing to do")
		return nil
	}

	coordinator, cleanup, err := newCoordinator(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer cleanup()

	summary := coordinator.ProcessFiles(ctx, files)
	recordRunMetrics(ctx, summary)

	slog.Info("run complete",
		slog.Int("filesSeen", summary.FilesSeen),
		slog.Int("committed", summary.Committed),
		slog.Int("retained", summary.Retained),
		slog.Int("deleteFailed", summary.DeleteFailed),
		slog.Int64("rowsCommitted", summary.RowsCommitted),
		slog.Duration("elapsed", time.Since(start)))

	// Per-file failures never fail the run; the retained files are the
	// durable signal and will be retried on the next invocation.
	if err := summary.Errors.ErrorOrNil(); err != nil {
		slog.Warn("some spool files were not applied", slog.Any("errors", err))
	}
	return nil
}

// newCoordinator wires the coordinator to the backend, or to nothing at all
// for a dry run. The backend connection is opened once here and closed by the
// returned cleanup after all files are processed.
func newCoordinator(ctx context.Context, cfg *config.Config, m *mapping.Mapping) (*ingest.Coordinator, func(), error) {
	if dryRun {
		c := ingest.NewCoordinator(nil, m, slog.Default())
		c.DryRun = true
		return c, func() {}, nil
	}

	conn, err := acctdb.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	store := acctdb.NewStore(conn, cfg.Table, m)
	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			slog.Warn("failed to close backend connection", slog.Any("error", err))
		}
	}
	return ingest.NewCoordinator(store, m, slog.Default()), cleanup, nil
}

func loadMapping(cfg *config.Config) (*mapping.Mapping, error) {
	if cfg.MappingFile == "" {
		return mapping.Default(), nil
	}
	return mapping.LoadFile(cfg.MappingFile)
}

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

// Package ingest applies spool files to the relational backend, one
// transaction per file.
//
// Each file is either fully committed and then removed, or left byte-for-byte
// untouched for the next run. Failures on one file never stop the rest of the
// batch.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/wisprnet/radspool/internal/acctlog"
	"github.com/wisprnet/radspool/internal/mapping"
)

// Outcome is the terminal state of one spool file's state machine.
type Outcome int

const (
	// OutcomeCommitted means every row was committed and the file removed.
	OutcomeCommitted Outcome = iota
	// OutcomeRetained means the file was left untouched for the next run and
	// none of its rows are visible in the backend.
	OutcomeRetained
	// OutcomeCommittedDeleteFailed means the rows were committed but the file
	// could not be removed. The backend is correct, but the file will be
	// reprocessed next run and its rows duplicated. This is the documented
	// at-least-once boundary and is surfaced louder than a plain rollback.
	OutcomeCommittedDeleteFailed
	// OutcomeValidated is the dry-run terminal state: the file parsed and
	// mapped cleanly, and neither the backend nor the filesystem was touched.
	OutcomeValidated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeRetained:
		return "retained"
	case OutcomeCommittedDeleteFailed:
		return "committed-delete-failed"
	case OutcomeValidated:
		return "validated"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// FileResult is the explicit per-file result the coordinator folds into the
// run summary. Err is set for every outcome other than a clean commit.
type FileResult struct {
	Path    string
	Outcome Outcome
	Rows    int
	Err     error
}

// Summary aggregates one run over the spool directory.
type Summary struct {
	FilesSeen     int
	Committed     int
	Retained      int
	DeleteFailed  int
	RowsCommitted int64

	// Errors collects every per-file failure. The run itself still succeeds;
	// retained files are the durable signal and will be retried next run.
	Errors *multierror.Error
}

// Coordinator drives the per-file parse, transact, commit-or-retain state
// machine. It owns the deletion decision for every spool file and uses the
// gateway strictly sequentially.
type Coordinator struct {
	gw      Gateway
	mapping *mapping.Mapping
	logger  *slog.Logger

	// DryRun parses and maps every file but opens no transaction and deletes
	// nothing.
	DryRun bool

	removeFile func(string) error
}

// NewCoordinator returns a coordinator inserting rows through gw using the
// given attribute mapping.
func NewCoordinator(gw Gateway, m *mapping.Mapping, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		gw:         gw,
		mapping:    m,
		logger:     logger,
		removeFile: os.Remove,
	}
}

// ProcessFiles runs the state machine over every file, sequentially, and
// returns the run summary. A failure on one file degrades to "retry later";
// it never aborts the batch, so ProcessFiles itself does not return an error.
func (c *Coordinator) ProcessFiles(ctx context.Context, files []string) Summary {
	summary := Summary{FilesSeen: len(files)}

	for _, path := range files {
		res := c.processFile(ctx, path)

		switch res.Outcome {
		case OutcomeCommitted:
			summary.Committed++
			summary.RowsCommitted += int64(res.Rows)
			c.logger.Info("spool file committed",
				slog.String("file", res.Path),
				slog.Int("rows", res.Rows))
		case OutcomeValidated:
			summary.Committed++
			c.logger.Info("spool file validated (dry run)",
				slog.String("file", res.Path),
				slog.Int("rows", res.Rows))
		case OutcomeRetained:
			summary.Retained++
			summary.Errors = multierror.Append(summary.Errors,
				fmt.Errorf("%s retained: %w", res.Path, res.Err))
			c.logger.Warn("spool file retained for next run",
				slog.String("file", res.Path),
				slog.Any("error", res.Err))
		case OutcomeCommittedDeleteFailed:
			summary.Committed++
			summary.DeleteFailed++
			summary.RowsCommitted += int64(res.Rows)
			summary.Errors = multierror.Append(summary.Errors,
				fmt.Errorf("%s committed but not removed, rows will be duplicated on next run: %w", res.Path, res.Err))
			c.logger.Error("spool file committed but could not be removed; its rows WILL be reinserted on the next run",
				slog.String("file", res.Path),
				slog.Int("rows", res.Rows),
				slog.Any("error", res.Err))
		}
	}

	return summary
}

// processFile runs one file through
// OPENED -> PARSED -> TRANSACTION_BEGUN -> (INSERTING)* ->
// COMMITTED|ROLLED_BACK -> (DELETED | RETAINED).
func (c *Coordinator) processFile(ctx context.Context, path string) FileResult {
	f, err := os.Open(path)
	if err != nil {
		// Nothing was attempted against the backend; the file stays put.
		return FileResult{Path: path, Outcome: OutcomeRetained,
			Err: fmt.Errorf("failed to open: %w", err)}
	}

	// Parse the whole file before touching the backend. A malformed line
	// anywhere means no transaction is ever opened for this file: skipping
	// bad lines would break the all-or-nothing file invariant.
	records, err := acctlog.ReadAll(f)
	_ = f.Close()
	if err != nil {
		return FileResult{Path: path, Outcome: OutcomeRetained,
			Err: fmt.Errorf("failed to parse: %w", err)}
	}

	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = c.mapping.MapRecord(rec)
	}

	if c.DryRun {
		return FileResult{Path: path, Outcome: OutcomeValidated, Rows: len(rows)}
	}

	if err := c.applyRows(ctx, rows); err != nil {
		return FileResult{Path: path, Outcome: OutcomeRetained, Rows: len(rows), Err: err}
	}

	// Deletion happens strictly after commit. Failure here is the one place
	// where at-most-once-per-commit breaks.
	if err := c.removeFile(path); err != nil {
		return FileResult{Path: path, Outcome: OutcomeCommittedDeleteFailed, Rows: len(rows),
			Err: fmt.Errorf("failed to remove after commit: %w", err)}
	}

	return FileResult{Path: path, Outcome: OutcomeCommitted, Rows: len(rows)}
}

// applyRows inserts all rows in one transaction. On any failure the
// transaction is rolled back and the error returned; on success it is
// committed.
func (c *Coordinator) applyRows(ctx context.Context, rows [][]string) (err error) {
	tx, err := c.gw.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// Never use the caller ctx for cleanup as it may be cancelled.
		rbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if rbErr := tx.Rollback(rbCtx); rbErr != nil {
			err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
	}()

	for i, row := range rows {
		if err := tx.Insert(ctx, row); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	committed = true
	return nil
}

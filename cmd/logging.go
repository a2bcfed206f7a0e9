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
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	slogmulti "github.com/samber/slog-multi"
)

// setupLogging installs the default logger: text on stdout, plus a JSON copy
// fanned out to logFile when one is configured. Every record carries the
// service name and a per-run id so overlapping scheduler invocations can be
// told apart in shared logs. The returned closer flushes the file log.
func setupLogging(logFile string) (func() error, error) {
	var opts *slog.HandlerOptions
	if os.Getenv("DEBUG") != "" || os.Getenv("RADSPOOL_DEBUG") != "" {
		opts = &slog.HandlerOptions{Level: slog.LevelDebug}
	}

	runID := uuid.NewString()
	closer := func() error { return nil }

	handler := slog.Handler(slog.NewTextHandler(os.Stdout, opts))
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", logFile, err)
		}
		handler = slogmulti.Fanout(
			handler,
			slog.NewJSONHandler(f, opts),
		)
		closer = f.Close
	}

	slog.SetDefault(slog.New(handler).With(
		slog.String("service", "radspool"),
		slog.String("runID", runID),
	))

	return closer, nil
}

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
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/wisprnet/radspool/config"
	"github.com/wisprnet/radspool/internal/runlock"
	"github.com/wisprnet/radspool/internal/spool"
)

func init() {
	rootCmd.AddCommand(rotateCmd)
}

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Rotate the accounting log into the spool without ingesting",
	Long: `Atomically move the active accounting log into the spool directory. Useful
while the backend is down: the spool keeps accumulating immutable capture
files that a later run will apply.`,
	RunE: rotate,
}

func rotate(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	// Same lock as the full run, so rotation never races an active ingest.
	lock, err := runlock.Acquire(cfg.LockFile)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	dest, err := spool.Rotate(cfg.ActiveLog, cfg.SpoolDir, time.Now())
	if err != nil {
		return err
	}
	if dest == "" {
		slog.Info("no active accounting log to rotate")
		return nil
	}
	slog.Info("rotated active accounting log", slog.String("file", dest))
	return nil
}

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

// Package spool manages the durable staging area for accounting files.
//
// Rotation moves the live accounting log into the spool directory with a
// single atomic rename, so a concurrently writing producer is never observed
// mid-write by the ingestion path. Files stay in the spool until a run commits
// every row they contain.
package spool

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Prefix is the leading component of every rotated spool filename. The suffix
// is the capture timestamp: 14 digits of wall clock plus 3 of milliseconds.
const Prefix = "acctlog.json."

const timestampLayout = "20060102150405"

// FileName returns the spool filename for a capture time.
func FileName(now time.Time) string {
	return fmt.Sprintf("%s%s%03d", Prefix, now.Format(timestampLayout), now.Nanosecond()/1e6)
}

// Rotate atomically renames activePath into spoolDir under a timestamp-derived
// name and returns the destination path. If activePath does not exist, Rotate
// returns ("", nil): no new traffic since the last run is a normal outcome.
// Any other failure is returned for the caller to log; rotation failures are
// never fatal to a run.
func Rotate(activePath, spoolDir string, now time.Time) (string, error) {
	if _, err := os.Lstat(activePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat active log %s: %w", activePath, err)
	}

	// Never clobber an unprocessed spool file on a timestamp collision; walk
	// the millisecond component forward until a free name is found.
	dest := filepath.Join(spoolDir, FileName(now))
	for {
		if _, err := os.Lstat(dest); errors.Is(err, fs.ErrNotExist) {
			break
		}
		now = now.Add(time.Millisecond)
		dest = filepath.Join(spoolDir, FileName(now))
	}

	if err := os.Rename(activePath, dest); err != nil {
		return "", fmt.Errorf("failed to rotate %s into spool: %w", activePath, err)
	}
	return dest, nil
}

// List returns the full paths of all regular files directly inside spoolDir,
// in filesystem enumeration order. No recursion: anything that is not a plain
// file is ignored. An unreadable spool directory is an error; an empty one is
// an empty, nil-error result.
func List(spoolDir string) ([]string, error) {
	entries, err := os.ReadDir(spoolDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read spool directory %s: %w", spoolDir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(spoolDir, entry.Name()))
	}
	return files, nil
}

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

package spool

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	ts := time.Date(2025, 8, 25, 13, 4, 5, 42*int(time.Millisecond), time.UTC)
	assert.Equal(t, "acctlog.json.20250825130405042", FileName(ts))
}

func TestRotate(t *testing.T) {
	dir := t.TempDir()
	spoolDir := filepath.Join(dir, "spool")
	require.NoError(t, os.Mkdir(spoolDir, 0o755))

	active := filepath.Join(dir, "acctlog.json")
	require.NoError(t, os.WriteFile(active, []byte("{\"username\":\"alice\"}\n"), 0o644))

	dest, err := Rotate(active, spoolDir, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, dest)

	// Active file is gone, exactly one spool file exists with the expected name.
	_, err = os.Stat(active)
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(spoolDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, regexp.MustCompile(`^acctlog\.json\.\d{17}$`), entries[0].Name())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "{\"username\":\"alice\"}\n", string(data))
}

func TestRotateNoActiveFile(t *testing.T) {
	dir := t.TempDir()
	spoolDir := filepath.Join(dir, "spool")
	require.NoError(t, os.Mkdir(spoolDir, 0o755))

	dest, err := Rotate(filepath.Join(dir, "acctlog.json"), spoolDir, time.Now())
	require.NoError(t, err)
	assert.Empty(t, dest)

	entries, err := os.ReadDir(spoolDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRotateTimestampCollision(t *testing.T) {
	dir := t.TempDir()
	spoolDir := filepath.Join(dir, "spool")
	require.NoError(t, os.Mkdir(spoolDir, 0o755))

	now := time.Date(2025, 8, 25, 13, 4, 5, 0, time.UTC)
	taken := filepath.Join(spoolDir, FileName(now))
	require.NoError(t, os.WriteFile(taken, []byte("earlier capture\n"), 0o644))

	active := filepath.Join(dir, "acctlog.json")
	require.NoError(t, os.WriteFile(active, []byte("new capture\n"), 0o644))

	dest, err := Rotate(active, spoolDir, now)
	require.NoError(t, err)
	assert.NotEqual(t, taken, dest)

	// The earlier capture is untouched.
	data, err := os.ReadFile(taken)
	require.NoError(t, err)
	assert.Equal(t, "earlier capture\n", string(data))

	entries, err := os.ReadDir(spoolDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRotateMissingSpoolDir(t *testing.T) {
	dir := t.TempDir()
	active := filepath.Join(dir, "acctlog.json")
	require.NoError(t, os.WriteFile(active, []byte("x\n"), 0o644))

	_, err := Rotate(active, filepath.Join(dir, "missing"), time.Now())
	require.Error(t, err)

	// Soft failure leaves the active log in place.
	_, err = os.Stat(active)
	assert.NoError(t, err)
}

func TestList(t *testing.T) {
	spoolDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(spoolDir, "acctlog.json.20250825130405042"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(spoolDir, "acctlog.json.20250825140000000"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(spoolDir, "subdir"), 0o755))

	files, err := List(spoolDir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
	for _, f := range files {
		assert.Equal(t, spoolDir, filepath.Dir(f))
	}
}

func TestListEmpty(t *testing.T) {
	files, err := List(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestListMissingDir(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

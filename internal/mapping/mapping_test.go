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

package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisprnet/radspool/internal/acctlog"
)

func TestMapRecordSortedColumns(t *testing.T) {
	m, err := New(map[string]string{
		"username":        "USERNAME",
		"acct_session_id": "ACCTSESSIONID",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"ACCTSESSIONID", "USERNAME"}, m.Columns())

	row := m.MapRecord(acctlog.Record{"username": "alice", "acct_session_id": "S1"})
	assert.Equal(t, []string{"S1", "alice"}, row)
}

func TestMapRecordMissingAttributeIsEmptyString(t *testing.T) {
	m, err := New(map[string]string{
		"username":        "USERNAME",
		"acct_session_id": "ACCTSESSIONID",
	})
	require.NoError(t, err)

	row := m.MapRecord(acctlog.Record{"username": "bob"})
	assert.Equal(t, []string{"", "bob"}, row)
}

func TestMapRecordIgnoresUnmappedAttributes(t *testing.T) {
	m, err := New(map[string]string{"username": "username"})
	require.NoError(t, err)

	row := m.MapRecord(acctlog.Record{"username": "carol", "unknown_attr": "x"})
	assert.Equal(t, []string{"carol"}, row)
}

func TestNewRejectsBadTables(t *testing.T) {
	tests := []struct {
		name  string
		table map[string]string
	}{
		{"empty", map[string]string{}},
		{"bad identifier", map[string]string{"username": "user name"}},
		{"injection attempt", map[string]string{"username": `u"; DROP TABLE accounting; --`}},
		{"duplicate column", map[string]string{"a": "col", "b": "col"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.table)
			assert.Error(t, err)
		})
	}
}

func TestDefault(t *testing.T) {
	m := Default()
	assert.Contains(t, m.Columns(), "username")
	assert.Contains(t, m.Columns(), "acctsessionid")
	assert.IsIncreasing(t, m.Columns())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte("username: USERNAME\nacct_session_id: ACCTSESSIONID\n"), 0o644))

	m, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ACCTSESSIONID", "USERNAME"}, m.Columns())
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(":\n  - not a table\n"), 0o644))
	_, err = LoadFile(bad)
	assert.Error(t, err)
}

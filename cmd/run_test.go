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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisprnet/radspool/config"
)

func TestLoadMappingDefault(t *testing.T) {
	m, err := loadMapping(&config.Config{})
	require.NoError(t, err)
	assert.Contains(t, m.Columns(), "acctsessionid")
}

func TestLoadMappingFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte("username: USERNAME\n"), 0o644))

	m, err := loadMapping(&config.Config{MappingFile: path})
	require.NoError(t, err)
	assert.Equal(t, []string{"USERNAME"}, m.Columns())
}

func TestLoadMappingMissingFile(t *testing.T) {
	_, err := loadMapping(&config.Config{MappingFile: "/nonexistent/mapping.yaml"})
	assert.Error(t, err)
}

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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/log/radius/acctlog.json", cfg.ActiveLog)
	assert.Equal(t, "/var/spool/radspool", cfg.SpoolDir)
	assert.Equal(t, "/var/run/radspool.lock", cfg.LockFile)
	assert.Equal(t, "accounting", cfg.Table)
	assert.Empty(t, cfg.MappingFile)
	assert.Empty(t, cfg.LogFile)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RADSPOOL_SPOOL_DIR", "/tmp/spool")
	t.Setenv("RADSPOOL_ACTIVE_LOG", "/tmp/acctlog.json")
	t.Setenv("RADSPOOL_TABLE", "radacct")
	t.Setenv("RADSPOOL_MAPPING_FILE", "/etc/radspool/mapping.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/spool", cfg.SpoolDir)
	assert.Equal(t, "/tmp/acctlog.json", cfg.ActiveLog)
	assert.Equal(t, "radacct", cfg.Table)
	assert.Equal(t, "/etc/radspool/mapping.yaml", cfg.MappingFile)
}

func TestLoadEmptyEnvKeepsDefault(t *testing.T) {
	// viper ignores empty environment values unless AllowEmptyEnv is set, so
	// a blanked variable falls back to the default rather than failing
	// validation.
	t.Setenv("RADSPOOL_TABLE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "accounting", cfg.Table)
}

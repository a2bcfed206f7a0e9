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
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

// Config aggregates configuration for one run. It is constructed once at
// startup and passed explicitly; nothing reads it from ambient globals during
// processing. Backend credentials come from the ACCTDB_* environment, not
// from here.
type Config struct {
	// ActiveLog is the accounting log the RADIUS server appends to.
	ActiveLog string `mapstructure:"active_log"`
	// SpoolDir holds rotated, not-yet-committed accounting files.
	SpoolDir string `mapstructure:"spool_dir"`
	// LockFile is the single-instance lock. It must live outside SpoolDir,
	// since everything in the spool directory is treated as ingestible.
	LockFile string `mapstructure:"lock_file"`
	// MappingFile optionally overrides the compiled-in attribute-to-column
	// table (YAML, attribute: column).
	MappingFile string `mapstructure:"mapping_file"`
	// Table is the destination accounting table.
	Table string `mapstructure:"table"`
	// LogFile, when set, receives a JSON copy of the run's log output.
	LogFile string `mapstructure:"log_file"`
}

// Load reads configuration from config.yaml and environment variables.
// Environment variables use the prefix "RADSPOOL" and the dot character in
// keys is replaced by an underscore, e.g. "spool_dir" becomes
// "RADSPOOL_SPOOL_DIR".
func Load() (*Config, error) {
	cfg := &Config{
		ActiveLog: "/var/log/radius/acctlog.json",
		SpoolDir:  "/var/spool/radspool",
		LockFile:  "/var/run/radspool.lock",
		Table:     "accounting",
	}

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("RADSPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.ReadInConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.ActiveLog == "" || c.SpoolDir == "" || c.LockFile == "" || c.Table == "" {
		return fmt.Errorf("active_log, spool_dir, lock_file, and table must all be set")
	}
	return nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}

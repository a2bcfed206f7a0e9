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

// Package mapping translates accounting records into backend rows using a
// static attribute-to-column table.
package mapping

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wisprnet/radspool/internal/acctlog"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Mapping is the immutable attribute-to-column table for a run. Destination
// columns are held in sorted order so the generated insert statement, and the
// value order of every mapped row, is deterministic.
type Mapping struct {
	columns []string // sorted destination column names
	attrs   []string // source attribute for each column, parallel to columns
}

// New builds a Mapping from an attribute-to-column table. Column names must be
// plain SQL identifiers (they are interpolated into the insert statement), and
// no two attributes may share a destination column.
func New(table map[string]string) (*Mapping, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("attribute mapping is empty")
	}

	byColumn := make(map[string]string, len(table))
	for attr, column := range table {
		if !identPattern.MatchString(column) {
			return nil, fmt.Errorf("invalid destination column %q for attribute %q", column, attr)
		}
		if prev, ok := byColumn[column]; ok {
			return nil, fmt.Errorf("attributes %q and %q both map to column %q", prev, attr, column)
		}
		byColumn[column] = attr
	}

	columns := make([]string, 0, len(byColumn))
	for column := range byColumn {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	attrs := make([]string, len(columns))
	for i, column := range columns {
		attrs[i] = byColumn[column]
	}
	return &Mapping{columns: columns, attrs: attrs}, nil
}

// LoadFile reads an attribute-to-column table from a YAML file of the form
//
//	username: username
//	acct_session_id: acctsessionid
func LoadFile(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}
	var table map[string]string
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file %s: %w", path, err)
	}
	m, err := New(table)
	if err != nil {
		return nil, fmt.Errorf("mapping file %s: %w", path, err)
	}
	return m, nil
}

// Default returns the compiled-in table covering the standard RADIUS
// accounting attributes the collector emits.
func Default() *Mapping {
	m, err := New(map[string]string{
		"username":             "username",
		"realm":                "realm",
		"nas_ip_address":       "nasipaddress",
		"nas_port_id":          "nasportid",
		"acct_status_type":     "acctstatustype",
		"acct_session_id":      "acctsessionid",
		"acct_session_time":    "acctsessiontime",
		"acct_input_octets":    "acctinputoctets",
		"acct_output_octets":   "acctoutputoctets",
		"acct_terminate_cause": "acctterminatecause",
		"called_station_id":    "calledstationid",
		"calling_station_id":   "callingstationid",
		"framed_ip_address":    "framedipaddress",
		"event_timestamp":      "eventtimestamp",
	})
	if err != nil {
		panic(err)
	}
	return m
}

// Columns returns the destination column names, sorted. Callers must not
// modify the returned slice.
func (m *Mapping) Columns() []string {
	return m.columns
}

// MapRecord translates one record into a row of values, one per destination
// column in Columns() order. Every configured column is always present: an
// absent source attribute yields an empty string, never a dropped column.
func (m *Mapping) MapRecord(rec acctlog.Record) []string {
	row := make([]string, len(m.columns))
	for i, attr := range m.attrs {
		row[i] = rec[attr]
	}
	return row
}

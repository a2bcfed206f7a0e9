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

// Package acctlog decodes newline-delimited JSON accounting records.
package acctlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxLineSizeBytes bounds a single accounting record line.
const MaxLineSizeBytes = 1024 * 1024

// ErrMalformedRecord is wrapped into every decode failure.
var ErrMalformedRecord = errors.New("malformed accounting record")

// Record is one decoded accounting record: attribute name to raw value.
// Values are always strings; a missing attribute is a missing key.
type Record map[string]string

// ParseLine decodes one line into a Record. Attribute values must be JSON
// scalars: strings are taken verbatim, numbers keep their literal form,
// booleans become "true"/"false", and null is treated as an absent attribute.
// Nested arrays or objects make the record malformed.
func ParseLine(line []byte) (Record, error) {
	dec := json.NewDecoder(strings.NewReader(string(line)))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedRecord, err)
	}

	// Decode stops at the end of the first JSON value; anything after it on
	// the line (glued records, trailing junk) would otherwise be silently
	// dropped instead of retaining the file.
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing content after record", ErrMalformedRecord)
	}

	rec := make(Record, len(raw))
	for attr, v := range raw {
		switch val := v.(type) {
		case string:
			rec[attr] = val
		case json.Number:
			rec[attr] = val.String()
		case bool:
			if val {
				rec[attr] = "true"
			} else {
				rec[attr] = "false"
			}
		case nil:
			// null is absence, not a value
		default:
			return nil, fmt.Errorf("%w: attribute %q has non-scalar value", ErrMalformedRecord, attr)
		}
	}
	return rec, nil
}

// ReadAll decodes every record in a spool file stream, in file order. Empty
// lines are skipped. Any malformed line fails the whole read: partial
// application of a file is forbidden, so a bad line must retain the file
// rather than silently dropping the line.
func ReadAll(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSizeBytes)

	var records []Record
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rec, err := ParseLine([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read error at line %d: %w", lineno+1, err)
	}
	return records, nil
}

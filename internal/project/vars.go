// Copyright 2026 The Databind Authors
// This file is part of the databind library.
//
// The databind library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The databind library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the databind library. If not, see <http://www.gnu.org/licenses/>.

package project

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// VarsFileName is the name of the global variables file.
const VarsFileName = "vars.toml"

// ReadVars reads a vars.toml file into a mapping from &KEY tokens to
// replacement strings. Booleans render as 1/0; numbers and datetimes
// use their canonical string form.
func ReadVars(fsys afero.Fs, path string) (map[string]string, error) {
	content, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	raw := make(map[string]any)
	if err := toml.Unmarshal(content, &raw); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	vars := make(map[string]string, len(raw))
	for key, value := range raw {
		var repl string
		switch value := value.(type) {
		case string:
			repl = value
		case bool:
			if value {
				repl = "1"
			} else {
				repl = "0"
			}
		case int64:
			repl = strconv.FormatInt(value, 10)
		case float64:
			repl = strconv.FormatFloat(value, 'g', -1, 64)
		case time.Time:
			repl = value.Format(time.RFC3339)
		case fmt.Stringer:
			// go-toml's local date/time types
			repl = value.String()
		default:
			return nil, errors.Errorf("unsupported type in %s (key %s, value %v)", path, key, value)
		}
		vars["&"+key] = repl
	}
	return vars, nil
}

// Substitute applies the variable mapping to source text. Longer keys
// substitute first so &KEY is never clobbered by a shorter &K.
func Substitute(text string, vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if len(keys[a]) != len(keys[b]) {
			return len(keys[a]) > len(keys[b])
		}
		return keys[a] < keys[b]
	})
	for _, k := range keys {
		text = strings.ReplaceAll(text, k, vars[k])
	}
	return text
}

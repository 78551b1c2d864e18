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
	"encoding/json"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// tagFile is the JSON schema of a function tag.
type tagFile struct {
	Values []string `json:"values"`
}

// tagsSubdir is the tag directory below a datapack root.
var tagsSubdir = filepath.Join("data", "minecraft", "tags", "functions")

// WriteTagFiles serializes the project tag map below the target
// directory. A pre-existing tag file on the source side is merged in:
// Databind-added functions come first, source-provided values after,
// duplicates dropped keeping the first occurrence.
func WriteTagFiles(fsys afero.Fs, srcDir, target string, tagMap map[string][]string) error {
	if len(tagMap) == 0 {
		return nil
	}
	tagsDir := filepath.Join(target, tagsSubdir)
	if err := fsys.MkdirAll(tagsDir, 0755); err != nil {
		return errors.Wrap(err, "creating tags directory")
	}

	tags := make([]string, 0, len(tagMap))
	for tag := range tagMap {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		values := append([]string(nil), tagMap[tag]...)

		srcPath := filepath.Join(srcDir, tagsSubdir, tag+".json")
		if info, err := fsys.Stat(srcPath); err == nil && !info.IsDir() {
			content, err := afero.ReadFile(fsys, srcPath)
			if err != nil {
				return errors.Wrapf(err, "reading existing tag file %s", srcPath)
			}
			var existing tagFile
			if err := json.Unmarshal(content, &existing); err != nil {
				return errors.Wrapf(err, "parsing existing tag file %s", srcPath)
			}
			values = append(values, existing.Values...)
		}

		out, err := json.Marshal(tagFile{Values: dedup(values)})
		if err != nil {
			return err
		}
		path := filepath.Join(tagsDir, tag+".json")
		if err := afero.WriteFile(fsys, path, out, 0644); err != nil {
			return errors.Wrapf(err, "writing tag file %s", path)
		}
	}
	return nil
}

// dedup removes duplicates, keeping the first occurrence of each value.
func dedup(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

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

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// CreateOptions configure project scaffolding.
type CreateOptions struct {
	Name        string
	Path        string // destination, defaults to Name
	Description string
	PackFormat  uint8
}

const starterSource = `func main
tag load
tellraw @a "Hello, World!"
end
`

const defaultConfig = `inclusions = ["**/*.databind"]
exclusions = []
output = "out"
`

type packMeta struct {
	Pack packMetaInner `json:"pack"`
}

type packMetaInner struct {
	PackFormat  uint8  `json:"pack_format"`
	Description string `json:"description"`
}

// CreateProject scaffolds a new Databind project and returns the
// directory it was created in. The destination must not exist yet, or
// be an empty directory.
func CreateProject(fsys afero.Fs, opts CreateOptions) (string, error) {
	base := opts.Path
	if base == "" {
		base = opts.Name
	}

	if info, err := fsys.Stat(base); err == nil {
		if !info.IsDir() {
			return "", errors.Errorf("path %s is an already existing file", base)
		}
		entries, err := afero.ReadDir(fsys, base)
		if err != nil {
			return "", errors.Wrapf(err, "reading %s", base)
		}
		if len(entries) > 0 {
			return "", errors.Errorf("path %s is a non-empty directory", base)
		}
	}

	funcsDir := filepath.Join(base, "data", opts.Name, "functions")
	if err := fsys.MkdirAll(funcsDir, 0755); err != nil {
		return "", errors.Wrap(err, "creating project directories")
	}
	if err := afero.WriteFile(fsys, filepath.Join(funcsDir, "main.databind"), []byte(starterSource), 0644); err != nil {
		return "", errors.Wrap(err, "writing main.databind")
	}

	meta, err := json.Marshal(packMeta{Pack: packMetaInner{
		PackFormat:  opts.PackFormat,
		Description: opts.Description,
	}})
	if err != nil {
		return "", err
	}
	if err := afero.WriteFile(fsys, filepath.Join(base, "pack.mcmeta"), meta, 0644); err != nil {
		return "", errors.Wrap(err, "writing pack.mcmeta")
	}

	if err := afero.WriteFile(fsys, filepath.Join(base, ConfigFileName), []byte(defaultConfig), 0644); err != nil {
		return "", errors.Wrap(err, "writing "+ConfigFileName)
	}
	return base, nil
}

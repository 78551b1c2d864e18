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

// Package project implements the Databind project driver: source
// discovery, configuration, per-file compilation, tag writeout and
// project scaffolding.
package project

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// ConfigFileName is the name of the project configuration file.
const ConfigFileName = "databind.toml"

// Settings holds the project configuration.
type Settings struct {
	Inclusions []string `mapstructure:"inclusions"`
	Exclusions []string `mapstructure:"exclusions"`
	Output     string   `mapstructure:"output"`
}

// DefaultSettings returns the settings used when no config file is
// present or the config is ignored.
func DefaultSettings() *Settings {
	return &Settings{
		Inclusions: []string{"**/*.databind"},
		Exclusions: []string{},
		Output:     "out",
	}
}

// LoadSettings reads a databind.toml file. Missing keys take their
// default values.
func LoadSettings(fsys afero.Fs, path string) (*Settings, error) {
	v := viper.New()
	v.SetFs(fsys)
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetDefault("inclusions", []string{"**/*.databind"})
	v.SetDefault("exclusions", []string{})
	v.SetDefault("output", "out")

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading config file %s", path)
	}
	settings := new(Settings)
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.Wrapf(err, "parsing config file %s", path)
	}
	return settings, nil
}

// FindConfigInParents walks upward from start looking for a
// databind.toml and returns its path.
func FindConfigInParents(fsys afero.Fs, start string) (string, error) {
	dir := filepath.Clean(start)
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if info, err := fsys.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.Errorf("did not find %s in parents of %s", ConfigFileName, start)
		}
		dir = parent
	}
}

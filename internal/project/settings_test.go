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
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings(t *testing.T) {
	fsys := newProject(t, map[string]string{
		"proj/databind.toml": `inclusions = ["**/*.databind", "extra/*.db"]
exclusions = ["**/skip/**"]
output = "build"
`,
	})
	settings, err := LoadSettings(fsys, "proj/databind.toml")
	require.NoError(t, err)
	assert.Equal(t, []string{"**/*.databind", "extra/*.db"}, settings.Inclusions)
	assert.Equal(t, []string{"**/skip/**"}, settings.Exclusions)
	assert.Equal(t, "build", settings.Output)
}

func TestLoadSettingsDefaults(t *testing.T) {
	fsys := newProject(t, map[string]string{
		"proj/databind.toml": "output = \"elsewhere\"\n",
	})
	settings, err := LoadSettings(fsys, "proj/databind.toml")
	require.NoError(t, err)
	assert.Equal(t, []string{"**/*.databind"}, settings.Inclusions)
	assert.Empty(t, settings.Exclusions)
	assert.Equal(t, "elsewhere", settings.Output)
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := LoadSettings(afero.NewMemMapFs(), "nope/databind.toml")
	require.Error(t, err)
}

func TestFindConfigInParents(t *testing.T) {
	fsys := newProject(t, map[string]string{
		"a/databind.toml": "output = \"out\"\n",
		"a/b/c/file.txt":  "x",
	})
	path, err := FindConfigInParents(fsys, "a/b/c")
	require.NoError(t, err)
	assert.Equal(t, "a/databind.toml", path)

	_, err = FindConfigInParents(afero.NewMemMapFs(), "x/y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "databind.toml")
}

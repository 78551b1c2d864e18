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
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/databind-lang/databind/compiler"
	"github.com/databind-lang/databind/internal/ast"
)

// Driver compiles a whole Databind project: it discovers sources,
// routes each one through the compiler, copies everything else, and
// writes the merged tag files.
type Driver struct {
	fs         afero.Fs
	root       string
	settings   *Settings
	configPath string // may be empty

	comp   *compiler.Compiler
	tagMap map[string][]string
}

// NewDriver creates a driver for the project at root. configPath, if
// not empty, names the loaded config file so it is never copied into
// the output.
func NewDriver(fsys afero.Fs, root string, settings *Settings, configPath string) *Driver {
	return &Driver{
		fs:         fsys,
		root:       root,
		settings:   settings,
		configPath: configPath,
		comp:       compiler.New(),
		tagMap:     make(map[string][]string),
	}
}

// SetSeed seeds the compiler's nonce generator.
func (d *Driver) SetSeed(seed int64) {
	d.comp.SetSeed(seed)
}

// Run compiles the project into the configured output directory.
func (d *Driver) Run() error {
	out := d.settings.Output
	if exists, _ := afero.DirExists(d.fs, out); exists {
		glog.V(1).Infof("removing old output directory %s", out)
		if err := d.fs.RemoveAll(out); err != nil {
			return errors.Wrapf(err, "cleaning output directory %s", out)
		}
	}

	srcDir := d.root
	if isDir, _ := afero.DirExists(d.fs, filepath.Join(d.root, "src")); isDir {
		srcDir = filepath.Join(d.root, "src")
	}

	vars, err := d.loadVars()
	if err != nil {
		return err
	}

	paths, err := d.enumerateSources(srcDir, out)
	if err != nil {
		return err
	}

	for _, path := range paths {
		if err := d.processFile(srcDir, out, path, vars); err != nil {
			return err
		}
	}

	return WriteTagFiles(d.fs, srcDir, out, d.tagMap)
}

// loadVars reads the project's vars.toml if present.
func (d *Driver) loadVars() (map[string]string, error) {
	path := filepath.Join(d.root, VarsFileName)
	if info, err := d.fs.Stat(path); err != nil || info.IsDir() {
		return nil, nil
	}
	glog.V(1).Infof("loading global variables from %s", path)
	return ReadVars(d.fs, path)
}

// enumerateSources walks the source tree and returns all files to
// process, global-macro files (basename starting with !) first. Each
// partition is sorted for a deterministic compile order.
func (d *Driver) enumerateSources(srcDir, out string) ([]string, error) {
	var globals, normal []string
	err := afero.Walk(d.fs, srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			// Never descend into the output directory.
			if clean(path) == clean(out) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.configPath != "" && clean(path) == clean(d.configPath) {
			return nil
		}
		if strings.HasPrefix(filepath.Base(path), "!") {
			globals = append(globals, path)
		} else {
			normal = append(normal, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", srcDir)
	}
	slices.Sort(globals)
	slices.Sort(normal)
	return append(globals, normal...), nil
}

// processFile routes one source file: compile it if the inclusion
// globs select it, copy it verbatim otherwise.
func (d *Driver) processFile(srcDir, out, path string, vars map[string]string) error {
	rel, err := filepath.Rel(srcDir, path)
	if err != nil {
		return err
	}
	rel = filepath.ToSlash(rel)

	if !d.included(rel) {
		return d.copyFile(out, path, rel)
	}
	return d.compileFile(out, path, rel, vars)
}

// included applies the inclusion and exclusion globs to a relative
// slash path.
func (d *Driver) included(rel string) bool {
	match := func(patterns []string) bool {
		for _, pattern := range patterns {
			if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
				return true
			}
		}
		return false
	}
	return match(d.settings.Inclusions) && !match(d.settings.Exclusions)
}

func (d *Driver) compileFile(out, path, rel string, vars map[string]string) error {
	glog.V(1).Infof("compiling %s", path)

	content, err := afero.ReadFile(d.fs, path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	text := Substitute(string(content), vars)

	namespace, subfolder := splitFunctionsPath(rel)
	glog.V(2).Infof("%s: namespace=%q subfolder=%q", path, namespace, subfolder)

	global := strings.HasPrefix(filepath.Base(path), "!")
	result := d.comp.CompileSource(path, []byte(text), compiler.Options{
		Namespace: namespace,
		Subfolder: subfolder,
		Global:    global,
	})
	if result == nil {
		return compileError(d.comp.Errors())
	}

	targetDir := filepath.Join(out, filepath.FromSlash(filepath.Dir(rel)))
	names := make([]string, 0, len(result.Files))
	for name := range result.Files {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		text := result.Files[name]
		if text == "" {
			continue
		}
		target := filepath.Join(targetDir, filepath.FromSlash(name)+".mcfunction")
		if err := d.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return errors.Wrapf(err, "creating %s", filepath.Dir(target))
		}
		if err := afero.WriteFile(d.fs, target, []byte(text+"\n"), 0644); err != nil {
			return errors.Wrapf(err, "writing %s", target)
		}
	}

	for tag, funcs := range result.Tags {
		d.tagMap[tag] = append(d.tagMap[tag], funcs...)
	}
	return nil
}

// copyFile copies a non-included file into the output tree, unless a
// file of the same name was already produced there. This preserves
// tag JSONs that the tag writer merges later.
func (d *Driver) copyFile(out, path, rel string) error {
	target := filepath.Join(out, filepath.FromSlash(rel))
	if exists, _ := afero.Exists(d.fs, target); exists {
		return nil
	}
	glog.V(1).Infof("copying %s", path)
	content, err := afero.ReadFile(d.fs, path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	if err := d.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(target))
	}
	if err := afero.WriteFile(d.fs, target, content, 0644); err != nil {
		return errors.Wrapf(err, "copying to %s", target)
	}
	return nil
}

// splitFunctionsPath derives the namespace and subfolder prefix from
// a source path relative to the project root. The namespace is the
// directory above the first functions segment; the subfolder is the
// path below the last one, with a trailing slash.
func splitFunctionsPath(rel string) (namespace, subfolder string) {
	segs := strings.Split(rel, "/")
	first := slices.Index(segs, "functions")
	if first > 0 {
		namespace = segs[first-1]
	}
	last := -1
	for i, seg := range segs {
		if seg == "functions" {
			last = i
		}
	}
	if last >= 0 && last < len(segs)-1 {
		if mid := segs[last+1 : len(segs)-1]; len(mid) > 0 {
			subfolder = strings.Join(mid, "/") + "/"
		}
	}
	return namespace, subfolder
}

func clean(path string) string {
	return filepath.Clean(path)
}

// compileError converts the compiler's error list into one error with
// full diagnostics. Parse errors render their offending line and
// caret. A single non-parse error passes through unchanged so the CLI
// can distinguish internal invariant violations.
func compileError(errs []error) error {
	switch len(errs) {
	case 0:
		return errors.New("compilation failed")
	case 1:
		var parseErr *ast.ParseError
		if !errors.As(errs[0], &parseErr) {
			return errs[0]
		}
	}
	var msgs []string
	for _, err := range errs {
		var parseErr *ast.ParseError
		if errors.As(err, &parseErr) {
			msgs = append(msgs, parseErr.Verbose())
		} else {
			msgs = append(msgs, "error: "+err.Error())
		}
	}
	return errors.New(strings.Join(msgs, "\n"))
}

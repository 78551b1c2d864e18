// Copyright 2025 The Databind Authors
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

// Package compiler implements the Databind compiler. It turns Databind
// source text into per-function mcfunction text plus a mapping from
// function tags to fully-qualified function names.
//
// A single Compiler is used for a whole project: it owns the global
// macro table, the nonce generator for synthesized function names, and
// the one-shot if_init emission.
package compiler

import (
	"math/rand"

	"github.com/databind-lang/databind/internal/ast"
)

// Compiler performs the compilation of Databind sources.
type Compiler struct {
	lexDebug       bool
	maxExpandIters int

	globals       macroTable
	rng           *rand.Rand
	usedNonces    map[string]struct{}
	ifInitEmitted bool

	errors []error
}

// Options configure the compilation of a single source file.
type Options struct {
	// Namespace qualifies function calls and tag entries. Empty means
	// unqualified calls are an error.
	Namespace string

	// Subfolder is the path of the file below the namespace's
	// functions directory, with a trailing "/", or empty.
	Subfolder string

	// Global marks a global-macro file: macro definitions leak into
	// the project-wide table used by later files.
	Global bool
}

// Result holds the output of compiling one source file.
type Result struct {
	// Files maps function names to their mcfunction text. Top-level
	// glue outside any function is discarded and has no entry.
	Files map[string]string

	// Tags maps tag names to qualified function names. Without a
	// namespace the entries stay bare function names.
	Tags map[string][]string
}

// New creates a compiler.
func New() *Compiler {
	return &Compiler{
		globals:        make(macroTable),
		usedNonces:     make(map[string]struct{}),
		rng:            rand.New(rand.NewSource(1)),
		maxExpandIters: 64,
	}
}

// SetDebugLexer enables/disables printing of the token stream to stderr.
func (c *Compiler) SetDebugLexer(on bool) {
	c.lexDebug = on
}

// SetSeed seeds the nonce generator. Synthesized helper-function names
// derive from it, so a fixed seed makes output reproducible.
func (c *Compiler) SetSeed(seed int64) {
	c.rng = rand.New(rand.NewSource(seed))
}

// Errors returns errors that have accumulated during compilation.
func (c *Compiler) Errors() []error {
	return c.errors
}

// Failed reports whether any error has occurred.
func (c *Compiler) Failed() bool {
	return len(c.errors) > 0
}

func (c *Compiler) addError(err error) {
	c.errors = append(c.errors, err)
}

// CompileString compiles source text. See CompileSource.
func (c *Compiler) CompileString(input string, opts Options) *Result {
	return c.CompileSource("", []byte(input), opts)
}

// CompileSource compiles one source file. If compilation fails, the
// returned result is nil and the Errors method reports what happened.
func (c *Compiler) CompileSource(filename string, src []byte, opts Options) *Result {
	p := ast.NewParser(filename, src, c.lexDebug)
	nodes, perrs := p.Parse()
	if len(perrs) > 0 {
		for _, err := range perrs {
			c.addError(err)
		}
		return nil
	}
	return c.compile(nodes, opts)
}

// compile runs the expansion, lowering and emission passes over a
// parsed file.
func (c *Compiler) compile(nodes []ast.Node, opts Options) *Result {
	nodes, err := c.expandMacros(nodes, opts)
	if err != nil {
		c.addError(err)
		return nil
	}
	nodes = c.lowerControl(nodes, opts.Subfolder)
	res, err := c.emit(nodes, opts)
	if err != nil {
		c.addError(err)
		return nil
	}
	return res
}

const nonceChars = "0123456789abcdefghijklmnopqrstuvwxyz"

// nonce returns a fresh 4-character lowercase alphanumeric string,
// retrying on collision with previously generated ones.
func (c *Compiler) nonce() string {
	for {
		b := make([]byte, 4)
		for i := range b {
			b[i] = nonceChars[c.rng.Intn(len(nonceChars))]
		}
		s := string(b)
		if _, used := c.usedNonces[s]; !used {
			c.usedNonces[s] = struct{}{}
			return s
		}
	}
}

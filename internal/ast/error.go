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

package ast

import (
	"fmt"
	"strings"
)

// Position represents a location in a source file.
type Position struct {
	File string
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// ParseError is an error that happened during parsing.
type ParseError struct {
	tok        token
	file       string
	srcLine    string // the offending source line, for diagnostics
	err        error
	missingEnd bool // set when the block was never closed
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %v", e.Position(), e.err)
}

func (e *ParseError) Position() Position {
	return Position{File: e.file, Line: e.tok.line, Col: e.tok.col}
}

func (e *ParseError) Unwrap() error {
	return e.err
}

// Verbose renders the error with the offending line and a caret
// pointing at the problem token. Unclosed blocks get a hint instead.
func (e *ParseError) Verbose() string {
	var b strings.Builder
	fmt.Fprintf(&b, "error: %v", e)
	if line := strings.TrimRight(e.srcLine, "\r\n"); line != "" {
		width := len(e.tok.text)
		if width == 0 {
			width = 1
		}
		fmt.Fprintf(&b, "\n%s\n%s%s", line, strings.Repeat(" ", e.tok.col-1), strings.Repeat("^", width))
	}
	if e.missingEnd {
		b.WriteString("\nMaybe there's a missing `end`?")
	}
	return b.String()
}

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

package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/databind-lang/databind/internal/ast"
)

// emitter walks a fully expanded and lowered AST and renders the text
// of each function. A stack tracks the function whose buffer receives
// output; the empty name is the top-level glue buffer, which is
// discarded after emission.
type emitter struct {
	namespace string
	subfolder string

	files map[string]*strings.Builder
	tags  map[string][]string
	stack []string
}

func (c *Compiler) emit(nodes []ast.Node, opts Options) (*Result, error) {
	e := &emitter{
		namespace: opts.Namespace,
		subfolder: opts.Subfolder,
		files:     map[string]*strings.Builder{"": new(strings.Builder)},
		tags:      make(map[string][]string),
	}
	if err := e.emitNodes(nodes); err != nil {
		return nil, err
	}

	res := &Result{Files: make(map[string]string, len(e.files)), Tags: e.tags}
	for name, buf := range e.files {
		if name == "" {
			continue // top-level glue is not a function
		}
		res.Files[name] = postprocess(buf.String())
	}
	return res, nil
}

func (e *emitter) current() *strings.Builder {
	if len(e.stack) == 0 {
		return e.files[""]
	}
	return e.files[e.stack[len(e.stack)-1]]
}

func (e *emitter) printf(format string, args ...any) {
	fmt.Fprintf(e.current(), format, args...)
}

func (e *emitter) emitNodes(nodes []ast.Node) error {
	for _, n := range nodes {
		if err := e.emitNode(n); err != nil {
			return err
		}
	}
	return nil
}

func (e *emitter) emitNode(n ast.Node) error {
	switch n := n.(type) {
	case *ast.NewVar:
		e.printf("scoreboard objectives add %s dummy\n", n.Name)
		e.printf("scoreboard players set --databind %s %d\n", n.Name, n.Value)

	case *ast.SetVar:
		e.printf("scoreboard players %s --databind %s %d\n", n.Op.Action(), n.Name, n.Value)

	case *ast.DeleteVar:
		e.printf("scoreboard objectives remove %s\n", n.Name)

	case *ast.TestVar:
		e.printf(" score --databind %s", n.Name)
		if n.Test != "" {
			e.printf(" %s", n.Test)
		}
		e.printf(" ")

	case *ast.GetVar:
		e.printf("--databind %s ", n.Name)

	case *ast.NewObjective:
		e.printf("scoreboard objectives add %s %s\n", n.Name, n.Kind)

	case *ast.SetObjective:
		e.printf("scoreboard players %s %s %s %d\n", n.Op.Action(), n.Target, n.Name, n.Value)

	case *ast.Function:
		e.stack = append(e.stack, n.Name)
		if _, ok := e.files[n.Name]; !ok {
			e.files[n.Name] = new(strings.Builder)
		}
		if err := e.emitNodes(n.Body); err != nil {
			return err
		}
		e.stack = e.stack[:len(e.stack)-1]
		e.qualifyTags(n.Name)

	case *ast.CallFunction:
		name, err := e.qualify(n.Name)
		if err != nil {
			return err
		}
		e.printf("function %s\n", name)

	case *ast.Tag:
		if len(e.stack) == 0 {
			return fmt.Errorf("%w: tag %s", ecTagOutsideFunction, n.Name)
		}
		e.tags[n.Name] = append(e.tags[n.Name], e.stack[len(e.stack)-1])

	case *ast.MinecraftCommand:
		e.printf("%s", n.Name)
		for _, arg := range n.Args {
			if err := e.emitInline(arg); err != nil {
				return err
			}
		}
		e.printf("\n")

	case *ast.CommandArg:
		e.printf(" %s", n.Text)

	case *ast.Passthrough:
		e.printf("%s\n", n.Text)

	case *ast.IfStatement, *ast.WhileLoop:
		return fmt.Errorf("%w", ecUnloweredNode)

	case *ast.MacroDefinition, *ast.MacroCall:
		return fmt.Errorf("%w", ecUnexpandedMacro)

	default:
		panic(fmt.Sprintf("BUG: unhandled node type %T", n))
	}
	return nil
}

// emitInline renders a node in command-argument position. Every inline
// node owns its single leading space.
func (e *emitter) emitInline(n ast.Node) error {
	switch n := n.(type) {
	case *ast.CommandArg:
		e.printf(" %s", n.Text)

	case *ast.GetVar:
		e.printf(" --databind %s", n.Name)

	case *ast.TestVar:
		e.printf(" score --databind %s", n.Name)
		if n.Test != "" {
			e.printf(" %s", n.Test)
		}

	case *ast.SetObjective:
		e.printf(" scoreboard players %s %s %s %d", n.Op.Action(), n.Target, n.Name, n.Value)

	case *ast.CallFunction:
		name, err := e.qualify(n.Name)
		if err != nil {
			return err
		}
		e.printf(" function %s", name)

	case *ast.Passthrough:
		e.printf(" %s", n.Text)

	default:
		return fmt.Errorf("%w in command arguments", ecUnloweredNode)
	}
	return nil
}

// qualify resolves a function reference against the namespace. Names
// that already carry a namespace pass through.
func (e *emitter) qualify(name string) (string, error) {
	if strings.Contains(name, ":") {
		return name, nil
	}
	if e.namespace == "" {
		return "", fmt.Errorf("%w: %s", ecCallWithoutNamespace, name)
	}
	return e.namespace + ":" + name, nil
}

// qualifyTags rewrites tag entries recorded under a bare function
// name to the fully-qualified form once the function has finished.
func (e *emitter) qualifyTags(name string) {
	if e.namespace == "" {
		return
	}
	qualified := fmt.Sprintf("%s:%s%s", e.namespace, e.subfolder, name)
	for tag, funcs := range e.tags {
		for i, fn := range funcs {
			if fn == name {
				e.tags[tag][i] = qualified
			}
		}
	}
}

var blankLines = regexp.MustCompile(`\n\s*\n`)

// postprocess trims the file and collapses runs of blank lines.
func postprocess(text string) string {
	text = strings.TrimSpace(text)
	for {
		collapsed := blankLines.ReplaceAllString(text, "\n")
		if collapsed == text {
			return text
		}
		text = collapsed
	}
}

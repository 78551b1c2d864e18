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
	"maps"
	"sort"
	"strings"

	"github.com/databind-lang/databind/internal/ast"
)

// Macro is a registered macro definition. The template is raw source
// text; expansion substitutes parameters and re-parses the result.
type Macro struct {
	Params   []string
	Template string
}

type macroTable map[string]*Macro

// expand substitutes the call arguments into the template. Longer
// parameter names are substituted first so that $ab is not clobbered
// by a parameter named a.
func (m *Macro) expand(args []string) string {
	order := make([]int, len(m.Params))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		pa, pb := m.Params[order[a]], m.Params[order[b]]
		if len(pa) != len(pb) {
			return len(pa) > len(pb)
		}
		return pa < pb
	})

	text := m.Template
	for _, i := range order {
		text = strings.ReplaceAll(text, "$"+m.Params[i], args[i])
	}
	return text
}

// expandMacros replaces macro calls until none are left. Definitions
// are registered into the working table and dropped from the output;
// calls splice in the re-parsed expansion. Calls whose definition
// appears later in the file are deferred to the next iteration.
func (c *Compiler) expandMacros(nodes []ast.Node, opts Options) ([]ast.Node, error) {
	working := make(macroTable)
	maps.Copy(working, c.globals)

	for iter := 0; ast.AnyOf(nodes, isMacroNode); iter++ {
		if iter >= c.maxExpandIters {
			return nil, fmt.Errorf("%w after %d iterations", ecExpansionOverflow, iter)
		}
		// Names defined anywhere in the current forest may still be
		// forward references; calls to them wait for the next round.
		pending := definedNames(nodes)

		var expandErr error
		nodes = ast.MapAll(nodes, func(list []ast.Node) []ast.Node {
			if expandErr != nil {
				return list
			}
			var out []ast.Node
			out, expandErr = c.expandList(list, working, pending)
			return out
		})
		if expandErr != nil {
			return nil, expandErr
		}
	}

	if opts.Global {
		maps.Copy(c.globals, working)
	}
	return nodes, nil
}

func (c *Compiler) expandList(list []ast.Node, table macroTable, pending map[string]bool) ([]ast.Node, error) {
	var out []ast.Node
	for _, n := range list {
		switch n := n.(type) {
		case *ast.MacroDefinition:
			table[n.Name] = &Macro{Params: n.Params, Template: n.Template}

		case *ast.MacroCall:
			def, ok := table[n.Name]
			if !ok {
				if pending[n.Name] {
					out = append(out, n) // forward reference, retry next round
					continue
				}
				return nil, fmt.Errorf("%w %s", ecUnknownMacro, n.Name)
			}
			if len(n.Args) != len(def.Params) {
				return nil, fmt.Errorf("%w: macro %s takes %d, got %d",
					ecInvalidArgumentCount, n.Name, len(def.Params), len(n.Args))
			}
			expanded, err := c.reparse(n.Name, def.expand(n.Args))
			if err != nil {
				return nil, err
			}
			// Definitions inside the expansion extend the working
			// table right away, so calls elsewhere in this pass can
			// already resolve them. The nodes themselves are dropped
			// when their list is processed.
			registerDefinitions(expanded, table)
			out = append(out, expanded...)

		default:
			out = append(out, n)
		}
	}
	return out, nil
}

// reparse runs the parser over expanded macro text. The expansion
// observes the same grammar as the call site.
func (c *Compiler) reparse(name, text string) ([]ast.Node, error) {
	p := ast.NewParser(fmt.Sprintf("macro %s", name), []byte(text), c.lexDebug)
	nodes, errs := p.Parse()
	if len(errs) > 0 {
		return nil, fmt.Errorf("in expansion of macro %s: %w", name, errs[0])
	}
	return nodes, nil
}

func isMacroNode(n ast.Node) bool {
	switch n.(type) {
	case *ast.MacroDefinition, *ast.MacroCall:
		return true
	}
	return false
}

// registerDefinitions adds every macro definition in the forest to
// the table.
func registerDefinitions(nodes []ast.Node, table macroTable) {
	ast.AnyOf(nodes, func(n ast.Node) bool {
		if def, ok := n.(*ast.MacroDefinition); ok {
			table[def.Name] = &Macro{Params: def.Params, Template: def.Template}
		}
		return false
	})
}

// definedNames collects the macro names defined anywhere in the forest.
func definedNames(nodes []ast.Node) map[string]bool {
	defs := make(map[string]bool)
	ast.AnyOf(nodes, func(n ast.Node) bool {
		if def, ok := n.(*ast.MacroDefinition); ok {
			defs[def.Name] = true
		}
		return false
	})
	return defs
}

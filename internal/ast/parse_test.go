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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func parseText(t *testing.T, src string) []Node {
	t.Helper()
	nodes, errs := NewParser("test.databind", []byte(src), false).Parse()
	for _, err := range errs {
		t.Errorf("parse error: %v", err)
	}
	return nodes
}

func TestParseStatements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Node
	}{
		{
			name: "function",
			src:  "func main\n  say hi\nend\n",
			want: []Node{
				&Function{Name: "main", Body: []Node{&Passthrough{Text: "say hi"}}},
			},
		},
		{
			name: "variables",
			src:  "func main\nvar x := 5\nvar x += 3\nvar x -= 1\nvar x = 2\ndelvar x\nend",
			want: []Node{
				&Function{Name: "main", Body: []Node{
					&NewVar{Name: "x", Value: 5},
					&SetVar{Name: "x", Op: OpAdd, Value: 3},
					&SetVar{Name: "x", Op: OpSubtract, Value: 1},
					&SetVar{Name: "x", Op: OpSet, Value: 2},
					&DeleteVar{Name: "x"},
				}},
			},
		},
		{
			name: "objectives",
			src:  "func main\nobj deaths deathCount\nsobj @a deaths = 0\ndelobj deaths\nend",
			want: []Node{
				&Function{Name: "main", Body: []Node{
					&NewObjective{Name: "deaths", Kind: "deathCount"},
					&SetObjective{Target: "@a", Name: "deaths", Op: OpSet, Value: 0},
					&DeleteVar{Name: "deaths"},
				}},
			},
		},
		{
			name: "tag and call",
			src:  "func loader\ntag load\ncall other\nend",
			want: []Node{
				&Function{Name: "loader", Body: []Node{
					&Tag{Name: "load"},
					&CallFunction{Name: "other"},
				}},
			},
		},
		{
			name: "if else",
			src:  "func main\nif score @s obj matches 1..\nsay yes\nelse\nsay no\nend\nend",
			want: []Node{
				&Function{Name: "main", Body: []Node{
					&IfStatement{
						Condition: []Node{
							&CommandArg{Text: "score"}, &CommandArg{Text: "@s"},
							&CommandArg{Text: "obj"}, &CommandArg{Text: "matches"},
							&CommandArg{Text: "1.."},
						},
						IfBlock:   []Node{&Passthrough{Text: "say yes"}},
						ElseBlock: []Node{&Passthrough{Text: "say no"}},
					},
				}},
			},
		},
		{
			name: "while",
			src:  "func main\nwhile tvar x matches 1..\nsay tick\nend\nend",
			want: []Node{
				&Function{Name: "main", Body: []Node{
					&WhileLoop{
						Condition: []Node{
							&TestVar{Name: "x"},
							&CommandArg{Text: "matches"}, &CommandArg{Text: "1.."},
						},
						Body: []Node{&Passthrough{Text: "say tick"}},
					},
				}},
			},
		},
		{
			name: "macro definition and call",
			src:  "def greet(name)\nsay Hello, $name!\nend\ngreet!(World)\n",
			want: []Node{
				&MacroDefinition{Name: "greet", Params: []string{"name"}, Template: "say Hello, $name!"},
				&MacroCall{Name: "greet", Args: []string{"World"}},
			},
		},
		{
			name: "macro call with escapes",
			src:  `m!(say \"hi\", a\nb)` + "\n",
			want: []Node{
				&MacroCall{Name: "m", Args: []string{`say "hi"`, "a\nb"}},
			},
		},
		{
			name: "escape line",
			src:  "func main\n%call foo\nend",
			want: []Node{
				&Function{Name: "main", Body: []Node{&Passthrough{Text: "call foo"}}},
			},
		},
		{
			name: "comment discarded",
			src:  "func main\n# a comment\nsay kill @e[type=#test:tag]\nend",
			want: []Node{
				&Function{Name: "main", Body: []Node{
					&Passthrough{Text: "say kill @e[type=#test:tag]"},
				}},
			},
		},
		{
			name: "inline gvar",
			src:  "func main\nexecute if score gvar x matches 1 run say hi\nend",
			want: []Node{
				&Function{Name: "main", Body: []Node{
					&MinecraftCommand{Name: "execute", Args: []Node{
						&CommandArg{Text: "if"}, &CommandArg{Text: "score"},
						&GetVar{Name: "x"},
						&CommandArg{Text: "matches"}, &CommandArg{Text: "1"},
						&CommandArg{Text: "run"}, &CommandArg{Text: "say"}, &CommandArg{Text: "hi"},
					}},
				}},
			},
		},
		{
			name: "sbop shorthand",
			src:  "func main\nsbop gvar x = gvar y\nend",
			want: []Node{
				&Function{Name: "main", Body: []Node{
					&MinecraftCommand{Name: "scoreboard", Args: []Node{
						&CommandArg{Text: "players"}, &CommandArg{Text: "operation"},
						&GetVar{Name: "x"}, &CommandArg{Text: "="}, &GetVar{Name: "y"},
					}},
				}},
			},
		},
		{
			name: "trustme",
			src:  "func main\ntrustme var this passes through\nend",
			want: []Node{
				&Function{Name: "main", Body: []Node{
					&Passthrough{Text: "var this passes through"},
				}},
			},
		},
		{
			name: "percent name kept",
			src:  "func %percent_prefix\nsay hi\nend\nfunc main\ncall %percent_prefix\nend",
			want: []Node{
				&Function{Name: "%percent_prefix", Body: []Node{&Passthrough{Text: "say hi"}}},
				&Function{Name: "main", Body: []Node{&CallFunction{Name: "%percent_prefix"}}},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			nodes := parseText(t, test.src)
			if diff := cmp.Diff(test.want, nodes); diff != "" {
				t.Errorf("wrong AST (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		errPart string
	}{
		{"unterminated func", "func main\nsay hi\n", "unterminated \"func\" block"},
		{"bad operator", "func f\nvar x <- 5\nend", "invalid assignment operator"},
		{"non-integer value", "func f\nvar x := abc\nend", "integers"},
		{"sobj initial set", "func f\nsobj @a obj := 1\nend", "`:=` invalid for objective"},
		{"stray end", "end\n", "unexpected \"end\""},
		{"stray else", "func f\nsay hi\nend\nelse\n", "unexpected \"else\""},
		{"bad macro escape", `m!(\q)` + "\n", "invalid escape sequence"},
		{"unterminated macro call", "m!(a\n", "unterminated macro call"},
		{"missing condition", "func f\nwhile\nsay hi\nend\nend", "missing condition"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, errs := NewParser("test.databind", []byte(test.src), false).Parse()
			if len(errs) == 0 {
				t.Fatal("expected a parse error")
			}
			if !strings.Contains(errs[0].Error(), test.errPart) {
				t.Errorf("error %q does not contain %q", errs[0].Error(), test.errPart)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, errs := NewParser("test.databind", []byte("func f\n  var x <- 5\nend\n"), false).Parse()
	if len(errs) == 0 {
		t.Fatal("expected a parse error")
	}
	pos := errs[0].Position()
	if pos.File != "test.databind" || pos.Line != 2 {
		t.Errorf("wrong position %v", pos)
	}
	verbose := errs[0].Verbose()
	if !strings.Contains(verbose, "var x <- 5") || !strings.Contains(verbose, "^") {
		t.Errorf("verbose output missing line or caret:\n%s", verbose)
	}
}

func TestMissingEndHint(t *testing.T) {
	_, errs := NewParser("test.databind", []byte("func main\nsay hi\n"), false).Parse()
	if len(errs) == 0 {
		t.Fatal("expected a parse error")
	}
	if !strings.Contains(errs[0].Verbose(), "missing `end`") {
		t.Errorf("missing end hint not present:\n%s", errs[0].Verbose())
	}
}

func TestTraversals(t *testing.T) {
	nodes := parseText(t, "func outer\nwhile score p o matches 1..\nm!(x)\nend\nend")

	isCall := func(n Node) bool { _, ok := n.(*MacroCall); return ok }
	if !AnyOf(nodes, isCall) {
		t.Error("AnyOf did not find the nested macro call")
	}

	// Drop macro calls from every list, then check they are gone.
	nodes = MapAll(nodes, func(list []Node) []Node {
		out := list[:0]
		for _, n := range list {
			if !isCall(n) {
				out = append(out, n)
			}
		}
		return out
	})
	if AnyOf(nodes, isCall) {
		t.Error("MapAll did not rewrite the nested list")
	}
}

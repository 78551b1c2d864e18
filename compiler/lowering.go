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
	"slices"
	"strconv"

	"github.com/databind-lang/databind/internal/ast"
)

// lowerControl replaces if statements and while loops with helper
// function definitions and flat command sequences. It runs until no
// control node is left, so nested constructs lower across rounds.
func (c *Compiler) lowerControl(nodes []ast.Node, subfolder string) []ast.Node {
	for ast.AnyOf(nodes, isIfOrWhile) {
		nodes = ast.MapAll(nodes, func(list []ast.Node) []ast.Node {
			return c.lowerList(list, subfolder)
		})
	}
	return nodes
}

func (c *Compiler) lowerList(list []ast.Node, subfolder string) []ast.Node {
	var out []ast.Node
	for _, n := range list {
		switch n := n.(type) {
		case *ast.WhileLoop:
			out = append(out, c.lowerWhile(n, subfolder)...)
		case *ast.IfStatement:
			out = append(out, c.lowerIf(n, subfolder)...)
		default:
			out = append(out, n)
		}
	}
	return out
}

// lowerWhile produces the loop entry function, the condition body
// function, and a call at the original site.
//
//	while_NNNN:     execute if COND run function SUB/condition_NNNN
//	condition_NNNN: BODY; function SUB/while_NNNN
func (c *Compiler) lowerWhile(loop *ast.WhileLoop, subfolder string) []ast.Node {
	nonce := c.nonce()
	mainName := "while_" + nonce
	condName := "condition_" + nonce

	execArgs := []ast.Node{&ast.CommandArg{Text: "if"}}
	execArgs = append(execArgs, loop.Condition...)
	execArgs = append(execArgs,
		&ast.CommandArg{Text: "run"},
		&ast.CallFunction{Name: subfolder + condName},
	)
	loopMain := &ast.Function{
		Name: mainName,
		Body: []ast.Node{&ast.MinecraftCommand{Name: "execute", Args: execArgs}},
	}

	condBody := slices.Clone(loop.Body)
	condBody = append(condBody, &ast.CallFunction{Name: subfolder + mainName})
	loopCond := &ast.Function{Name: condName, Body: condBody}

	call := &ast.CallFunction{Name: subfolder + mainName}
	return []ast.Node{loopMain, loopCond, call}
}

// lowerIf produces two execute commands storing the condition result
// into the db_if_res scratch objective, helper functions for the two
// arms, and two execute commands dispatching on the stored result.
// The objective itself is created by the once-per-project if_init
// function, tagged load.
func (c *Compiler) lowerIf(st *ast.IfStatement, subfolder string) []ast.Node {
	nonce := c.nonce()
	holder := "--databind-" + nonce

	var out []ast.Node
	if !c.ifInitEmitted {
		c.ifInitEmitted = true
		out = append(out, &ast.Function{
			Name: "if_init",
			Body: []ast.Node{
				&ast.Tag{Name: "load"},
				&ast.NewObjective{Name: "db_if_res", Kind: "dummy"},
			},
		})
	}

	store := func(result bool) ast.Node {
		guard, value := "if", 1
		if !result {
			guard, value = "unless", 0
		}
		args := []ast.Node{&ast.CommandArg{Text: guard}}
		args = append(args, slices.Clone(st.Condition)...)
		args = append(args,
			&ast.CommandArg{Text: "run"},
			&ast.SetObjective{Target: holder, Name: "db_if_res", Op: ast.OpSet, Value: value},
		)
		return &ast.MinecraftCommand{Name: "execute", Args: args}
	}

	dispatch := func(result bool) ast.Node {
		value, arm := 1, "if_true_"
		if !result {
			value, arm = 0, "if_false_"
		}
		return &ast.MinecraftCommand{Name: "execute", Args: []ast.Node{
			&ast.CommandArg{Text: "if"},
			&ast.CommandArg{Text: "score"},
			&ast.CommandArg{Text: holder},
			&ast.CommandArg{Text: "db_if_res"},
			&ast.CommandArg{Text: "matches"},
			&ast.CommandArg{Text: strconv.Itoa(value)},
			&ast.CommandArg{Text: "run"},
			&ast.CallFunction{Name: subfolder + arm + nonce},
		}}
	}

	out = append(out, store(true), store(false))
	out = append(out, &ast.Function{Name: "if_true_" + nonce, Body: st.IfBlock})
	out = append(out, dispatch(true))
	if len(st.ElseBlock) > 0 {
		out = append(out, &ast.Function{Name: "if_false_" + nonce, Body: st.ElseBlock})
		out = append(out, dispatch(false))
	}
	return out
}

func isIfOrWhile(n ast.Node) bool {
	switch n.(type) {
	case *ast.IfStatement, *ast.WhileLoop:
		return true
	}
	return false
}

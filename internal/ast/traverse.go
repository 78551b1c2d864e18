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

// childLists returns the nested node lists owned by a node.
func childLists(n Node) [][]Node {
	switch n := n.(type) {
	case *Function:
		return [][]Node{n.Body}
	case *IfStatement:
		return [][]Node{n.Condition, n.IfBlock, n.ElseBlock}
	case *WhileLoop:
		return [][]Node{n.Condition, n.Body}
	case *MinecraftCommand:
		return [][]Node{n.Args}
	default:
		return nil
	}
}

// AnyOf reports whether pred holds for any node in the forest,
// including nodes in nested lists.
func AnyOf(nodes []Node, pred func(Node) bool) bool {
	for _, n := range nodes {
		if pred(n) {
			return true
		}
		for _, list := range childLists(n) {
			if AnyOf(list, pred) {
				return true
			}
		}
	}
	return false
}

// MapAll applies fn to the given node list and to every nested list
// in the forest, replacing each list with the result. Passes use it
// to rewrite bodies without recursing manually.
func MapAll(nodes []Node, fn func([]Node) []Node) []Node {
	nodes = fn(nodes)
	for _, n := range nodes {
		switch n := n.(type) {
		case *Function:
			n.Body = MapAll(n.Body, fn)
		case *IfStatement:
			n.Condition = MapAll(n.Condition, fn)
			n.IfBlock = MapAll(n.IfBlock, fn)
			n.ElseBlock = MapAll(n.ElseBlock, fn)
		case *WhileLoop:
			n.Condition = MapAll(n.Condition, fn)
			n.Body = MapAll(n.Body, fn)
		case *MinecraftCommand:
			n.Args = MapAll(n.Args, fn)
		}
	}
	return nodes
}

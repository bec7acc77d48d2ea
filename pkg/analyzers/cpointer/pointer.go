// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cpointer emits Pointer/FunctionPointer nodes and their
// POINTS_TO/ASSIGNS_FP/INVOKES_FP edges for C and C++ sources.
// Declarator shapes are recognized by regexp rather than a
// dedicated tree-sitter query: pointer and function-pointer
// declarators nest arbitrarily deeply in the C grammar (parenthesized
// declarators, abstract declarators), and a handwritten query risks a
// silent miss or a grammar-field mismatch that would only surface at
// scan time. A textual scan trades some precision for a pattern that
// is easy to verify by inspection, matching the same tradeoff already
// made for Gherkin parsing.
package cpointer

import (
	"regexp"

	"github.com/kraklabs/graphupdater/pkg/graphmodel"
)

var (
	addrOfRe = regexp.MustCompile(`(\*{1,3})\s*(\w+)\s*=\s*&\s*(\w+)\s*;`)
	ptrChainRe = regexp.MustCompile(`(\*{1,3})\s*(\w+)\s*=\s*(\w+)\s*;`)
	fpDeclRe   = regexp.MustCompile(`\(\s*\*\s*(\w+)\s*\)\s*\([^;=()]*\)\s*=\s*(\w+)\s*;`)
)

// Resolver looks up a bare identifier against the project's Definition
// Registry, returning its QN and label if known. Pointer/function
// targets that aren't registry entries (locals, constants) are simply
// not linked.
type Resolver func(name string) (qn string, label graphmodel.Label, ok bool)

// Analyze scans one C/C++ file's content for pointer declarations,
// pointer-to-pointer chains, and function-pointer assignments,
// emitting POINTS_TO and indirection-tracking nodes/edges.
func Analyze(moduleQN string, content []byte, resolve Resolver) ([]graphmodel.Node, []graphmodel.Edge) {
	text := string(content)
	indirection := make(map[string]int)

	var nodes []graphmodel.Node
	var edges []graphmodel.Edge

	for _, m := range addrOfRe.FindAllStringSubmatch(text, -1) {
		stars, name, target := m[1], m[2], m[3]
		if _, seen := indirection[name]; seen {
			continue
		}
		qn := graphmodel.QN(moduleQN, name)
		nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelPointer, qn, map[string]any{
			"name": name, "indirection": len(stars),
		}))
		indirection[name] = len(stars)
		if targetQN, label, ok := resolve(target); ok && isPointsToTarget(label) {
			edges = append(edges, graphmodel.NewEdge(graphmodel.EdgePointsTo, graphmodel.LabelPointer, qn, label, targetQN, nil))
		}
	}

	for _, m := range ptrChainRe.FindAllStringSubmatch(text, -1) {
		stars, name, target := m[1], m[2], m[3]
		if _, seen := indirection[name]; seen {
			continue
		}
		if _, targetIsPointer := indirection[target]; !targetIsPointer {
			continue
		}
		qn := graphmodel.QN(moduleQN, name)
		nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelPointer, qn, map[string]any{
			"name": name, "indirection": len(stars),
		}))
		indirection[name] = len(stars)
		edges = append(edges, graphmodel.NewEdge(graphmodel.EdgePointsTo, graphmodel.LabelPointer, qn,
			graphmodel.LabelPointer, graphmodel.QN(moduleQN, target), nil))
	}

	for _, m := range fpDeclRe.FindAllStringSubmatch(text, -1) {
		fpName, targetName := m[1], m[2]
		qn := graphmodel.QN(moduleQN, fpName)
		nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelFunctionPointer, qn, map[string]any{"name": fpName}))

		if targetQN, label, ok := resolve(targetName); ok && label == graphmodel.LabelFunction {
			edges = append(edges, graphmodel.NewEdge(graphmodel.EdgeAssignsFP, graphmodel.LabelFunctionPointer, qn, graphmodel.LabelFunction, targetQN, nil))
		}

		if invoked(text, fpName) {
			edges = append(edges, graphmodel.NewEdge(graphmodel.EdgeInvokesFP, graphmodel.LabelModule, moduleQN, graphmodel.LabelFunctionPointer, qn, nil))
		}
	}

	return nodes, edges
}

// invoked reports whether name is called elsewhere in text as a bare
// function-pointer invocation (`name(...)`), distinct from its
// declaration form `(*name)(...)` which never matches this pattern.
func invoked(text, name string) bool {
	callRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*\(`)
	return callRe.MatchString(text)
}

func isPointsToTarget(l graphmodel.Label) bool {
	return l == graphmodel.LabelGlobalVariable || l == graphmodel.LabelFunction || l == graphmodel.LabelPointer
}

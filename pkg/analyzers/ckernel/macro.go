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

package ckernel

import (
	"regexp"

	"github.com/kraklabs/graphupdater/pkg/graphmodel"
)

var macroDefRe = regexp.MustCompile(`(?m)^\s*#\s*define\s+(\w+)`)

// identifierRe finds every bare identifier in a file, used to spot
// macro-name occurrences outside their own "#define NAME" head.
var identifierRe = regexp.MustCompile(`\b[A-Za-z_]\w*\b`)

// MacroDef is one #define found in a file
type MacroDef struct {
	Name string
	QN   string
}

// ExtractMacroDefs returns a Macro node and a MacroDef record for
// every #define in content.
func ExtractMacroDefs(moduleQN string, content []byte) ([]graphmodel.Node, []MacroDef) {
	var nodes []graphmodel.Node
	var defs []MacroDef
	seen := make(map[string]bool)
	for _, m := range macroDefRe.FindAllStringSubmatch(string(content), -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		qn := graphmodel.QN(moduleQN, name)
		nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelMacro, qn, map[string]any{"name": name}))
		defs = append(defs, MacroDef{Name: name, QN: qn})
	}
	return nodes, defs
}

// ExtractMacroUsages returns every distinct identifier in content seen
// outside a "#define NAME" head, as candidate macro-expansion sites. An
// identifier whose only occurrence is the name of its own #define is
// not a usage; later occurrences of the same name elsewhere in the file
// are. Identifiers in a macro's replacement text, after the defined
// name on the same line, are counted as usages.
func ExtractMacroUsages(content []byte) []string {
	text := string(content)
	definedSpans := macroDefRe.FindAllStringIndex(text, -1)

	inDefineLine := func(pos int) bool {
		for _, span := range definedSpans {
			if pos >= span[0] && pos < span[1] {
				return true
			}
		}
		return false
	}

	seen := make(map[string]bool)
	var out []string
	for _, loc := range identifierRe.FindAllStringIndex(text, -1) {
		if inDefineLine(loc[0]) {
			continue
		}
		word := text[loc[0]:loc[1]]
		if seen[word] {
			continue
		}
		seen[word] = true
		out = append(out, word)
	}
	return out
}

// ResolveExpandsTo matches a file's macro usages against a macro
// table scoped by MacroExpansionMode: same-file only for
// MacroExpansionTranslationUnit, or every macro defined anywhere in
// the project for MacroExpansionIncludeClosure (the caller builds the
// table accordingly; #include edges are not followed and no depth
// limit applies), emitting one EXPANDS_TO edge per match, attributed to
// the using file's Module since byte-accurate enclosing-function
// attribution isn't available from a textual scan.
func ResolveExpandsTo(moduleQN string, usages []string, table map[string]string) []graphmodel.Edge {
	var edges []graphmodel.Edge
	for _, name := range usages {
		macroQN, ok := table[name]
		if !ok {
			continue
		}
		edges = append(edges, graphmodel.NewEdge(graphmodel.EdgeExpandsTo, graphmodel.LabelModule, moduleQN, graphmodel.LabelMacro, macroQN, nil))
	}
	return edges
}

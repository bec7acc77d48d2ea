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

package resolver

import (
	"sort"

	"github.com/kraklabs/graphupdater/pkg/definer"
	"github.com/kraklabs/graphupdater/pkg/graphmodel"
)

// ResolveInheritance turns every class's raw base-name references into
// INHERITS_FROM edges, matching same-module first, then same-package,
// then the project-wide FQN table by simple name, longest-suffix then
// lexicographic tie-break on ambiguity
func (r *Resolver) ResolveInheritance(files []*definer.FileDefinitions) []graphmodel.Edge {
	var edges []graphmodel.Edge
	seen := make(map[[3]string]bool)

	for _, fd := range files {
		bases := append([]definer.UnresolvedBase(nil), fd.Bases...)
		sort.Slice(bases, func(i, j int) bool { return bases[i].Order < bases[j].Order })

		for _, b := range bases {
			target, ok := r.resolveBaseName(fd.ModuleQN, b.BaseName)
			if !ok {
				continue
			}
			e := graphmodel.NewEdge(graphmodel.EdgeInheritsFrom, graphmodel.LabelClass, b.ClassQN, graphmodel.LabelClass, target, map[string]any{"order": b.Order})
			if !seen[e.Key()] {
				seen[e.Key()] = true
				edges = append(edges, e)
			}
		}
	}
	return edges
}

func (r *Resolver) resolveBaseName(callerModule, baseName string) (string, bool) {
	if d, ok := r.reg.Lookup(graphmodel.QN(callerModule, baseName)); ok && isType(d.Node.Label) {
		return d.Node.QualifiedName, true
	}

	pkg := r.packageOf[callerModule]
	var candidates []string
	for qn, p := range r.packageOf {
		if p != pkg {
			continue
		}
		if d, ok := r.reg.Lookup(graphmodel.QN(qn, baseName)); ok && isType(d.Node.Label) {
			candidates = append(candidates, d.Node.QualifiedName)
		}
	}
	if len(candidates) > 0 {
		sort.Strings(candidates)
		return candidates[0], true
	}

	for _, d := range r.reg.All() {
		if !isType(d.Node.Label) {
			continue
		}
		if lastSegmentEquals(d.Node.QualifiedName, baseName) {
			candidates = append(candidates, d.Node.QualifiedName)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Strings(candidates)
	return candidates[0], true
}

func isType(l graphmodel.Label) bool {
	return l == graphmodel.LabelClass || l == graphmodel.LabelStruct
}

func lastSegmentEquals(qn, name string) bool {
	for i := len(qn) - 1; i >= 0; i-- {
		if qn[i] == '.' {
			return qn[i+1:] == name
		}
	}
	return qn == name
}

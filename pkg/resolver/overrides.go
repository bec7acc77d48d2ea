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

	"github.com/kraklabs/graphupdater/pkg/graphmodel"
)

// ResolveOverrides emits OVERRIDES edges for every method whose owning
// class has an ancestor (via INHERITS_FROM) defining a method of the
// same simple name. Ambiguity between multiple ancestor candidates is
// broken by a declaration-order walk of each class's INHERITS_FROM
// parents: every direct parent is checked first, in base-list order,
// and the first one defining the method wins; only if none does is
// each parent's own ancestry searched, in that same order and by the
// same rule.
func (r *Resolver) ResolveOverrides(inheritsEdges []graphmodel.Edge, methods []graphmodel.Node) []graphmodel.Edge {
	parentsOf := make(map[string][]string)
	for _, e := range inheritsEdges {
		parentsOf[e.SourceQN] = append(parentsOf[e.SourceQN], e.TargetQN)
	}

	methodsByClass := make(map[string]map[string]string) // classQN -> methodName -> methodQN
	for _, m := range methods {
		owner, ok := m.Properties["parent_class"].(string)
		if !ok {
			continue
		}
		name, _ := m.Properties["name"].(string)
		if name == "" {
			continue
		}
		if methodsByClass[owner] == nil {
			methodsByClass[owner] = make(map[string]string)
		}
		methodsByClass[owner][name] = m.QualifiedName
	}

	var edges []graphmodel.Edge
	seen := make(map[[3]string]bool)

	for classQN, byName := range methodsByClass {
		for name, methodQN := range byName {
			ancestor, ancestorMethodQN, ok := findOverride(classQN, name, parentsOf, methodsByClass, make(map[string]bool))
			if !ok {
				continue
			}
			_ = ancestor
			e := graphmodel.NewEdge(graphmodel.EdgeOverrides, graphmodel.LabelMethod, methodQN, graphmodel.LabelMethod, ancestorMethodQN, nil)
			if !seen[e.Key()] {
				seen[e.Key()] = true
				edges = append(edges, e)
			}
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].SourceQN != edges[j].SourceQN {
			return edges[i].SourceQN < edges[j].SourceQN
		}
		return edges[i].TargetQN < edges[j].TargetQN
	})
	return edges
}

// findOverride checks classQN's direct INHERITS_FROM parents in
// declaration order (parentsOf preserves the base-list's Order since
// ResolveInheritance appends in that order), then recurses into each
// parent in that same order, returning the first ancestor found
// defining a method named name.
func findOverride(classQN, name string, parentsOf map[string][]string, methodsByClass map[string]map[string]string, visited map[string]bool) (string, string, bool) {
	if visited[classQN] {
		return "", "", false
	}
	visited[classQN] = true

	for _, parent := range parentsOf[classQN] {
		if byName, ok := methodsByClass[parent]; ok {
			if mQN, ok := byName[name]; ok {
				return parent, mQN, true
			}
		}
	}
	for _, parent := range parentsOf[classQN] {
		if ancestor, mQN, ok := findOverride(parent, name, parentsOf, methodsByClass, visited); ok {
			return ancestor, mQN, true
		}
	}
	return "", "", false
}

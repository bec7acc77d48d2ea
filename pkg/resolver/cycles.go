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

// sccState holds Tarjan's algorithm state for a single node, grounded
// on the prior interproc.DetectSCCs.
type sccState struct {
	index   int
	lowlink int
	onStack bool
}

// detectSCCs runs Tarjan's algorithm over a directed graph given as an
// adjacency list and returns every strongly connected component with
// more than one member, or a single node with a self-loop.
func detectSCCs(nodes []string, edges map[string][]string) [][]string {
	var (
		index int
		stack []string
		state = make(map[string]*sccState, len(nodes))
		sccs  [][]string
	)

	var strongConnect func(v string)
	strongConnect = func(v string) {
		state[v] = &sccState{index: index, lowlink: index, onStack: true}
		index++
		stack = append(stack, v)

		for _, w := range edges[v] {
			ws, ok := state[w]
			if !ok {
				strongConnect(w)
				if state[w].lowlink < state[v].lowlink {
					state[v].lowlink = state[w].lowlink
				}
			} else if ws.onStack {
				if ws.index < state[v].lowlink {
					state[v].lowlink = ws.index
				}
			}
		}

		if state[v].lowlink == state[v].index {
			var component []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				state[w].onStack = false
				component = append(component, w)
				if w == v {
					break
				}
			}
			if len(component) > 1 || hasSelfLoop(edges, component[0]) {
				sort.Strings(component)
				sccs = append(sccs, component)
			}
		}
	}

	for _, n := range nodes {
		if _, visited := state[n]; !visited {
			strongConnect(n)
		}
	}
	return sccs
}

func hasSelfLoop(edges map[string][]string, node string) bool {
	for _, w := range edges[node] {
		if w == node {
			return true
		}
	}
	return false
}

// DetectCircularDependencies runs cycle detection over INHERITS_FROM
// and IMPORTS edges and emits one CIRCULAR_DEPENDENCY edge between
// each adjacent pair of a strongly connected component's members in
// sorted QN order, wrapping from the last member to the first
// (inheritance acyclicity / containment soundness), not between every
// pair of members. The sorted order need not follow the order of the
// input edges around the cycle.
func DetectCircularDependencies(edges []graphmodel.Edge) []graphmodel.Edge {
	adj := make(map[string][]string)
	nodeSet := make(map[string]bool)
	labelOf := make(map[string]graphmodel.Label)

	for _, e := range edges {
		if e.Type != graphmodel.EdgeInheritsFrom && e.Type != graphmodel.EdgeImports {
			continue
		}
		adj[e.SourceQN] = append(adj[e.SourceQN], e.TargetQN)
		nodeSet[e.SourceQN] = true
		nodeSet[e.TargetQN] = true
		labelOf[e.SourceQN] = e.SourceLbl
		labelOf[e.TargetQN] = e.TargetLbl
	}

	nodes := make([]string, 0, len(nodeSet))
	for n := range nodeSet {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	var out []graphmodel.Edge
	for _, comp := range detectSCCs(nodes, adj) {
		seen := make(map[[2]string]bool, len(comp))
		for i, src := range comp {
			dst := comp[(i+1)%len(comp)]
			if src == dst {
				continue
			}
			key := [2]string{src, dst}
			if src > dst {
				key = [2]string{dst, src}
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, graphmodel.NewEdge(graphmodel.EdgeCircularDependency, labelOf[src], src, labelOf[dst], dst, map[string]any{"scc_size": len(comp)}))
		}
	}
	return out
}

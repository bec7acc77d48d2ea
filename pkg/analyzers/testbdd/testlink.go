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

package testbdd

import "github.com/kraklabs/graphupdater/pkg/graphmodel"

// LinkTestsToCalls derives TESTS edges from a test function's own
// already-resolved CALLS edges, so any CALLS edge whose
// source is a known TestCase is also a TESTS edge to the same
// resolved, in-project target.
func LinkTestsToCalls(testCaseQNs map[string]bool, callEdges []graphmodel.Edge) []graphmodel.Edge {
	var edges []graphmodel.Edge
	for _, e := range callEdges {
		if !testCaseQNs[e.SourceQN] {
			continue
		}
		edges = append(edges, graphmodel.NewEdge(graphmodel.EdgeTests, graphmodel.LabelTestCase, e.SourceQN, e.TargetLbl, e.TargetQN, nil))
	}
	return edges
}

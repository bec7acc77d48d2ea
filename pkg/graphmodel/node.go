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

package graphmodel

// Node is a single labeled graph node, identified by QualifiedName within
// its Label. Properties are immutable after Emit.
type Node struct {
	Label         Label
	QualifiedName string
	Properties    map[string]any
}

// NewNode builds a Node, copying props so the caller's map can be reused.
func NewNode(label Label, qn string, props map[string]any) Node {
	cp := make(map[string]any, len(props))
	for k, v := range props {
		cp[k] = v
	}
	return Node{Label: label, QualifiedName: qn, Properties: cp}
}

// Edge is a directed, typed relationship between two nodes, MERGEd by the
// (SourceQN, Type, TargetQN) triple
type Edge struct {
	Type       EdgeType
	SourceQN   string
	SourceLbl  Label
	TargetQN   string
	TargetLbl  Label
	Properties map[string]any
}

// NewEdge builds an Edge, copying props so the caller's map can be reused.
func NewEdge(typ EdgeType, srcLbl Label, srcQN string, dstLbl Label, dstQN string, props map[string]any) Edge {
	cp := make(map[string]any, len(props))
	for k, v := range props {
		cp[k] = v
	}
	return Edge{
		Type: typ, SourceQN: srcQN, SourceLbl: srcLbl,
		TargetQN: dstQN, TargetLbl: dstLbl, Properties: cp,
	}
}

// Key returns the (label, QN) identity defines node equality over.
func (n Node) Key() [2]string { return [2]string{string(n.Label), n.QualifiedName} }

// Key returns the (src-QN, type, dst-QN) identity defines edge
// equality over.
func (e Edge) Key() [3]string { return [3]string{e.SourceQN, string(e.Type), e.TargetQN} }

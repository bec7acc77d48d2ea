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

// DefaultBatchRows is the default UNWIND row count per batch.
const DefaultBatchRows = 1000

// Batcher groups nodes and edges into typed batches, one per label or
// edge-type, splitting on row count rather than statement text size.
// The encoded size of each batch is checked separately by pkg/graph's
// writer against internal/contract.SoftLimitBytes.
type Batcher struct {
	targetRows int
	nodes      map[Label][]Node
	edges      map[EdgeType][]Edge
	// order preserves first-seen label/type order so flush order is
	// deterministic across runs given the same input.
	nodeOrder []Label
	edgeOrder []EdgeType
}

// NewBatcher creates a Batcher with the given target row count per batch.
// A non-positive value falls back to DefaultBatchRows.
func NewBatcher(targetRows int) *Batcher {
	if targetRows <= 0 {
		targetRows = DefaultBatchRows
	}
	return &Batcher{
		targetRows: targetRows,
		nodes:      make(map[Label][]Node),
		edges:      make(map[EdgeType][]Edge),
	}
}

// AddNode appends a node to its label's pending batch.
func (b *Batcher) AddNode(n Node) {
	if _, ok := b.nodes[n.Label]; !ok {
		b.nodeOrder = append(b.nodeOrder, n.Label)
	}
	b.nodes[n.Label] = append(b.nodes[n.Label], n)
}

// AddEdge appends an edge to its type's pending batch.
func (b *Batcher) AddEdge(e Edge) {
	if _, ok := b.edges[e.Type]; !ok {
		b.edgeOrder = append(b.edgeOrder, e.Type)
	}
	b.edges[e.Type] = append(b.edges[e.Type], e)
}

// NodeBatch is one (label) batch of rows ready to UNWIND-write.
type NodeBatch struct {
	Label Label
	Rows  []Node
}

// EdgeBatch is one (edge-type) batch of rows ready to UNWIND-write.
type EdgeBatch struct {
	Type EdgeType
	Rows []Edge
}

// DrainNodes splits every pending node label group into row-count-bounded
// batches, in first-seen label order, and clears the pending nodes.
func (b *Batcher) DrainNodes() []NodeBatch {
	var out []NodeBatch
	for _, label := range b.nodeOrder {
		rows := b.nodes[label]
		for len(rows) > 0 {
			n := b.targetRows
			if n > len(rows) {
				n = len(rows)
			}
			out = append(out, NodeBatch{Label: label, Rows: rows[:n]})
			rows = rows[n:]
		}
	}
	b.nodes = make(map[Label][]Node)
	b.nodeOrder = nil
	return out
}

// DrainEdges splits every pending edge type group into row-count-bounded
// batches, in first-seen type order, and clears the pending edges.
func (b *Batcher) DrainEdges() []EdgeBatch {
	var out []EdgeBatch
	for _, typ := range b.edgeOrder {
		rows := b.edges[typ]
		for len(rows) > 0 {
			n := b.targetRows
			if n > len(rows) {
				n = len(rows)
			}
			out = append(out, EdgeBatch{Type: typ, Rows: rows[:n]})
			rows = rows[n:]
		}
	}
	b.edges = make(map[EdgeType][]Edge)
	b.edgeOrder = nil
	return out
}

// Empty reports whether there is nothing pending to drain.
func (b *Batcher) Empty() bool {
	return len(b.nodeOrder) == 0 && len(b.edgeOrder) == 0
}

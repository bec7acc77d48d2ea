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

package testing

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"testing"

	"github.com/kraklabs/graphupdater/pkg/graph"
	"github.com/kraklabs/graphupdater/pkg/graphmodel"
)

// nodeCypherRe and edgeCypherRe match the two fixed Cypher shapes
// pkg/graph/writer.go ever emits, letting FakeBackend interpret writes
// without a live Bolt connection or an embeddable Cypher engine.
var (
	nodeCypherRe = regexp.MustCompile(`MERGE \(n:(\w+) \{qualified_name: row\.qn\}\)`)
	edgeCypherRe = regexp.MustCompile(`MATCH \(a:(\w+) \{qualified_name: row\.src\}\) MATCH \(b:(\w+) \{qualified_name: row\.dst\}\) MERGE \(a\)-\[r:(\w+)\]->\(b\)`)
)

// storedEdge is one MERGEd edge row, keyed by its full identity triple.
type storedEdge struct {
	SourceLbl, TargetLbl graphmodel.Label
	SourceQN, TargetQN   string
	Properties           map[string]any
}

// FakeBackend is an in-memory graph.Backend for fast unit tests. It
// does not parse arbitrary Cypher: it recognizes only the two
// UNWIND/MERGE statement shapes Writer generates and stores their rows
// in plain Go maps, keyed the same way the real MERGE would dedupe
// them (label+qualified_name for nodes, the (src, type, dst) triple
// for edges).
type FakeBackend struct {
	mu    sync.Mutex
	nodes map[graphmodel.Label]map[string]map[string]any
	edges map[graphmodel.EdgeType]map[string]storedEdge
}

// NewFakeBackend returns an empty FakeBackend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		nodes: make(map[graphmodel.Label]map[string]map[string]any),
		edges: make(map[graphmodel.EdgeType]map[string]storedEdge),
	}
}

// Execute interprets a Writer-generated MERGE/MATCH statement and
// applies its $rows param to the in-memory store.
func (f *FakeBackend) Execute(ctx context.Context, cypher string, params map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rows, _ := params["rows"].([]map[string]any)

	if m := edgeCypherRe.FindStringSubmatch(cypher); m != nil {
		srcLbl, dstLbl, edgeType := graphmodel.Label(m[1]), graphmodel.Label(m[2]), graphmodel.EdgeType(m[3])
		if f.edges[edgeType] == nil {
			f.edges[edgeType] = make(map[string]storedEdge)
		}
		for _, row := range rows {
			src, _ := row["src"].(string)
			dst, _ := row["dst"].(string)
			props, _ := row["props"].(map[string]any)
			key := fmt.Sprintf("%s|%s|%s", src, edgeType, dst)
			f.edges[edgeType][key] = storedEdge{
				SourceLbl: srcLbl, TargetLbl: dstLbl,
				SourceQN: src, TargetQN: dst,
				Properties: props,
			}
		}
		return nil
	}

	if m := nodeCypherRe.FindStringSubmatch(cypher); m != nil {
		label := graphmodel.Label(m[1])
		if f.nodes[label] == nil {
			f.nodes[label] = make(map[string]map[string]any)
		}
		for _, row := range rows {
			qn, _ := row["qn"].(string)
			props, _ := row["props"].(map[string]any)
			f.nodes[label][qn] = props
		}
		return nil
	}

	return fmt.Errorf("fakebackend: unrecognized cypher shape: %s", cypher)
}

// Query is unsupported on FakeBackend; tests read state back through
// NodesByLabel/EdgesByType instead of round-tripping Cypher text.
func (f *FakeBackend) Query(ctx context.Context, cypher string, params map[string]any) ([]graph.Row, error) {
	return nil, fmt.Errorf("fakebackend: Query not supported, use NodesByLabel/EdgesByType")
}

// Close is a no-op; FakeBackend holds no external resources.
func (f *FakeBackend) Close(ctx context.Context) error {
	return nil
}

// NodeRow is one stored node, returned by NodesByLabel.
type NodeRow struct {
	QualifiedName string
	Properties    map[string]any
}

// NodesByLabel returns every node merged under label, sorted by
// qualified name for deterministic assertions.
func (f *FakeBackend) NodesByLabel(label graphmodel.Label) []NodeRow {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []NodeRow
	for qn, props := range f.nodes[label] {
		out = append(out, NodeRow{QualifiedName: qn, Properties: props})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QualifiedName < out[j].QualifiedName })
	return out
}

// EdgeRow is one stored edge, returned by EdgesByType.
type EdgeRow struct {
	SourceLbl, TargetLbl graphmodel.Label
	SourceQN, TargetQN   string
	Properties           map[string]any
}

// EdgesByType returns every edge merged under typ, sorted by
// (source qn, target qn) for deterministic assertions.
func (f *FakeBackend) EdgesByType(typ graphmodel.EdgeType) []EdgeRow {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []EdgeRow
	for _, e := range f.edges[typ] {
		out = append(out, EdgeRow{
			SourceLbl: e.SourceLbl, TargetLbl: e.TargetLbl,
			SourceQN: e.SourceQN, TargetQN: e.TargetQN,
			Properties: e.Properties,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceQN != out[j].SourceQN {
			return out[i].SourceQN < out[j].SourceQN
		}
		return out[i].TargetQN < out[j].TargetQN
	})
	return out
}

// SetupTestWriter builds a graph.Writer over a fresh FakeBackend. The
// writer is ready to Flush a graphmodel.Batcher with no live database.
//
// Example:
//
//	func TestMyFeature(t *testing.T) {
//	    writer, backend := testing.SetupTestWriter(t)
//	    batcher := graphmodel.NewBatcher(graphmodel.DefaultBatchRows)
//	    batcher.AddNode(graphmodel.NewNode(graphmodel.LabelFunction, "proj.a.f", nil))
//	    require.NoError(t, writer.Flush(context.Background(), batcher))
//	    require.Len(t, backend.NodesByLabel(graphmodel.LabelFunction), 1)
//	}
func SetupTestWriter(t *testing.T) (*graph.Writer, *FakeBackend) {
	t.Helper()
	backend := NewFakeBackend()
	return graph.NewWriter(backend, nil), backend
}

// InsertTestNode seeds backend directly with a node, bypassing the
// writer, for tests that only need pre-existing graph state.
func InsertTestNode(t *testing.T, backend *FakeBackend, label graphmodel.Label, qn string, props map[string]any) {
	t.Helper()
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.nodes[label] == nil {
		backend.nodes[label] = make(map[string]map[string]any)
	}
	backend.nodes[label][qn] = props
}

// InsertTestEdge seeds backend directly with an edge, bypassing the
// writer, for tests that only need pre-existing graph state.
func InsertTestEdge(t *testing.T, backend *FakeBackend, typ graphmodel.EdgeType, srcLabel, dstLabel graphmodel.Label, src, dst string, props map[string]any) {
	t.Helper()
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.edges[typ] == nil {
		backend.edges[typ] = make(map[string]storedEdge)
	}
	key := fmt.Sprintf("%s|%s|%s", src, typ, dst)
	backend.edges[typ][key] = storedEdge{
		SourceLbl: srcLabel, TargetLbl: dstLabel,
		SourceQN: src, TargetQN: dst,
		Properties: props,
	}
}

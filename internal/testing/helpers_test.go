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
	"testing"

	"github.com/kraklabs/graphupdater/pkg/graphmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSetupTestWriter_EmptyBatcherFlushesCleanly verifies Flush is a
// no-op over an empty batcher.
func TestSetupTestWriter_EmptyBatcherFlushesCleanly(t *testing.T) {
	writer, backend := SetupTestWriter(t)
	require.NotNil(t, writer)

	batcher := graphmodel.NewBatcher(graphmodel.DefaultBatchRows)
	require.NoError(t, writer.Flush(context.Background(), batcher))
	assert.Empty(t, backend.NodesByLabel(graphmodel.LabelFunction))
}

// TestSetupTestWriter_FlushesNodesAndEdges verifies a real Writer
// writing through FakeBackend produces rows retrievable by
// NodesByLabel/EdgesByType.
func TestSetupTestWriter_FlushesNodesAndEdges(t *testing.T) {
	writer, backend := SetupTestWriter(t)

	batcher := graphmodel.NewBatcher(graphmodel.DefaultBatchRows)
	batcher.AddNode(graphmodel.NewNode(graphmodel.LabelFunction, "proj.a.f", map[string]any{"name": "f"}))
	batcher.AddNode(graphmodel.NewNode(graphmodel.LabelFunction, "proj.a.g", map[string]any{"name": "g"}))
	batcher.AddEdge(graphmodel.NewEdge(graphmodel.EdgeCalls, graphmodel.LabelFunction, "proj.a.f", graphmodel.LabelFunction, "proj.a.g", nil))

	require.NoError(t, writer.Flush(context.Background(), batcher))

	nodes := backend.NodesByLabel(graphmodel.LabelFunction)
	require.Len(t, nodes, 2)
	assert.Equal(t, "proj.a.f", nodes[0].QualifiedName)
	assert.Equal(t, "proj.a.g", nodes[1].QualifiedName)

	edges := backend.EdgesByType(graphmodel.EdgeCalls)
	require.Len(t, edges, 1)
	assert.Equal(t, "proj.a.f", edges[0].SourceQN)
	assert.Equal(t, "proj.a.g", edges[0].TargetQN)
}

// TestSetupTestWriter_ReflushingSameNodeMerges verifies the MERGE
// semantics: writing a node twice (e.g. across two flushes) updates
// the same stored row rather than duplicating it.
func TestSetupTestWriter_ReflushingSameNodeMerges(t *testing.T) {
	writer, backend := SetupTestWriter(t)
	ctx := context.Background()

	first := graphmodel.NewBatcher(graphmodel.DefaultBatchRows)
	first.AddNode(graphmodel.NewNode(graphmodel.LabelFunction, "proj.a.f", map[string]any{"name": "f", "line_count": 1}))
	require.NoError(t, writer.Flush(ctx, first))

	second := graphmodel.NewBatcher(graphmodel.DefaultBatchRows)
	second.AddNode(graphmodel.NewNode(graphmodel.LabelFunction, "proj.a.f", map[string]any{"name": "f", "line_count": 2}))
	require.NoError(t, writer.Flush(ctx, second))

	nodes := backend.NodesByLabel(graphmodel.LabelFunction)
	require.Len(t, nodes, 1)
	assert.Equal(t, 2, nodes[0].Properties["line_count"])
}

// TestInsertTestNode_SeedsWithoutWriter verifies direct seeding for
// tests that need pre-existing graph state.
func TestInsertTestNode_SeedsWithoutWriter(t *testing.T) {
	backend := NewFakeBackend()
	InsertTestNode(t, backend, graphmodel.LabelModule, "proj.a", map[string]any{"path": "a"})

	nodes := backend.NodesByLabel(graphmodel.LabelModule)
	require.Len(t, nodes, 1)
	assert.Equal(t, "proj.a", nodes[0].QualifiedName)
}

// TestInsertTestEdge_SeedsWithoutWriter verifies direct edge seeding.
func TestInsertTestEdge_SeedsWithoutWriter(t *testing.T) {
	backend := NewFakeBackend()
	InsertTestEdge(t, backend, graphmodel.EdgeDefines, graphmodel.LabelModule, graphmodel.LabelFunction, "proj.a", "proj.a.f", nil)

	edges := backend.EdgesByType(graphmodel.EdgeDefines)
	require.Len(t, edges, 1)
	assert.Equal(t, graphmodel.LabelModule, edges[0].SourceLbl)
	assert.Equal(t, graphmodel.LabelFunction, edges[0].TargetLbl)
}

// TestBackendIsolation verifies each FakeBackend is independent.
func TestBackendIsolation(t *testing.T) {
	backend1 := NewFakeBackend()
	InsertTestNode(t, backend1, graphmodel.LabelFunction, "proj.a.f", nil)

	backend2 := NewFakeBackend()
	assert.Empty(t, backend2.NodesByLabel(graphmodel.LabelFunction), "second backend should be isolated from first")
	assert.Len(t, backend1.NodesByLabel(graphmodel.LabelFunction), 1)
}

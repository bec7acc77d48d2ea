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

// Package testing provides an in-memory graph.Backend fake plus
// seeding helpers, so pkg/graph and pkg/ingest tests can exercise a
// real Writer/Batcher without a live Bolt connection.
//
// # Quick Start
//
//	func TestMyFeature(t *testing.T) {
//	    writer, backend := testing.SetupTestWriter(t)
//
//	    batcher := graphmodel.NewBatcher(graphmodel.DefaultBatchRows)
//	    batcher.AddNode(graphmodel.NewNode(graphmodel.LabelFunction, "proj.a.f", nil))
//	    require.NoError(t, writer.Flush(context.Background(), batcher))
//
//	    require.Len(t, backend.NodesByLabel(graphmodel.LabelFunction), 1)
//	}
//
// # Seeding Pre-Existing Graph State
//
// InsertTestNode and InsertTestEdge write directly into a FakeBackend,
// for tests that need graph state to already exist before the code
// under test runs (e.g. a resolver step that MATCHes an existing
// node).
//
// # Reading Back Written State
//
// NodesByLabel and EdgesByType return every row a Writer has flushed
// into a FakeBackend, sorted for deterministic assertions.
package testing

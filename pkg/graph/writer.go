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

package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kraklabs/graphupdater/internal/contract"
	"github.com/kraklabs/graphupdater/pkg/graphmodel"
)

// Writer drains a Batcher's node/edge groups into MERGE statements,
// retrying transient transport failures per RetryPolicy. Indexes,
// containment, modules, definitions, edges, and analyzer output all
// flow through the same writer; ordering between them is the caller's
// responsibility, enforced by call order.
type Writer struct {
	client Backend
	policy RetryPolicy
	logger *slog.Logger
}

// NewWriter builds a Writer over any Backend (an already-connected
// Client in production, an in-memory fake in tests).
func NewWriter(client Backend, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{client: client, policy: DefaultRetryPolicy, logger: logger}
}

// WriteNodeBatch MERGEs every row in batch by (label, qualified_name),
// setting properties on both create and match.
func (w *Writer) WriteNodeBatch(ctx context.Context, batch graphmodel.NodeBatch) error {
	if len(batch.Rows) == 0 {
		return nil
	}
	rows := make([]map[string]any, len(batch.Rows))
	for i, n := range batch.Rows {
		rows[i] = map[string]any{"qn": n.QualifiedName, "props": n.Properties}
	}
	cypher := fmt.Sprintf(
		"UNWIND $rows AS row MERGE (n:%s {qualified_name: row.qn}) SET n += row.props",
		cypherIdent(string(batch.Label)),
	)
	params := map[string]any{"rows": rows}
	if err := w.validateBatchSize(cypher, params); err != nil {
		return err
	}
	return withRetry(ctx, w.policy, func() error {
		return w.client.Execute(ctx, cypher, params)
	})
}

// WriteEdgeBatch MERGEs every row in batch by (src-qn, type, dst-qn).
// Rows are grouped by (source label, target label) since a single edge
// type can connect different label pairs (e.g. DEFINES from Module or
// from Function), and Cypher labels cannot be parameterized.
func (w *Writer) WriteEdgeBatch(ctx context.Context, batch graphmodel.EdgeBatch) error {
	groups := make(map[[2]graphmodel.Label][]graphmodel.Edge)
	var order [][2]graphmodel.Label
	for _, e := range batch.Rows {
		key := [2]graphmodel.Label{e.SourceLbl, e.TargetLbl}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], e)
	}

	for _, key := range order {
		rows := make([]map[string]any, len(groups[key]))
		for i, e := range groups[key] {
			rows[i] = map[string]any{"src": e.SourceQN, "dst": e.TargetQN, "props": e.Properties}
		}
		cypher := fmt.Sprintf(
			"UNWIND $rows AS row MATCH (a:%s {qualified_name: row.src}) MATCH (b:%s {qualified_name: row.dst}) MERGE (a)-[r:%s]->(b) SET r += row.props",
			cypherIdent(string(key[0])), cypherIdent(string(key[1])), cypherIdent(string(batch.Type)),
		)
		params := map[string]any{"rows": rows}
		if err := w.validateBatchSize(cypher, params); err != nil {
			return err
		}
		if err := withRetry(ctx, w.policy, func() error {
			return w.client.Execute(ctx, cypher, params)
		}); err != nil {
			return err
		}
	}
	return nil
}

// Flush drains every pending node and edge batch from b, writing nodes
// before edges so every edge's endpoints already exist by the time the
// edge row is written.
func (w *Writer) Flush(ctx context.Context, b *graphmodel.Batcher) error {
	for _, nb := range b.DrainNodes() {
		if err := w.WriteNodeBatch(ctx, nb); err != nil {
			w.logger.Error("graph.writer.node_batch_failed", "label", nb.Label, "rows", len(nb.Rows), "err", err)
			return err
		}
	}
	for _, eb := range b.DrainEdges() {
		if err := w.WriteEdgeBatch(ctx, eb); err != nil {
			w.logger.Error("graph.writer.edge_batch_failed", "type", eb.Type, "rows", len(eb.Rows), "err", err)
			return err
		}
	}
	return nil
}

// validateBatchSize rejects a batch whose encoded Cypher statement and
// parameters exceed internal/contract's soft limit, before it is ever
// sent to the backend.
func (w *Writer) validateBatchSize(cypher string, params map[string]any) error {
	encoded, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("graph: encoding batch params: %w", err)
	}
	result := contract.ValidateBatchScript(cypher + string(encoded))
	if !result.OK {
		return fmt.Errorf("graph: %s", result.Message)
	}
	return nil
}

// cypherIdent is a defense-in-depth guard against malformed labels
// reaching string-formatted Cypher: every Label/EdgeType in
// pkg/graphmodel is a fixed enum value, never user input, but this
// still rejects anything that isn't a bare identifier before it is
// interpolated into a query.
func cypherIdent(s string) string {
	for _, r := range s {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
			panic(fmt.Sprintf("graph: invalid Cypher identifier %q", s))
		}
	}
	return s
}

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
	"fmt"

	"github.com/kraklabs/graphupdater/pkg/graphmodel"
)

// EnsureIndexes creates the uniqueness constraint on qualified_name for
// every label in graphmodel.UniqueLabels, plus a property index for
// every entry in graphmodel.IndexedProperties on every label in
// allLabels, whether or not that label carries the property. Index creation runs first, before any node or edge batch.
func (w *Writer) EnsureIndexes(ctx context.Context, allLabels []graphmodel.Label) error {
	for _, label := range graphmodel.UniqueLabels {
		name := fmt.Sprintf("unique_%s_qn", label)
		cypher := fmt.Sprintf(
			"CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.qualified_name IS UNIQUE",
			cypherIdent(name), cypherIdent(string(label)),
		)
		if err := withRetry(ctx, w.policy, func() error {
			return w.client.Execute(ctx, cypher, nil)
		}); err != nil {
			return fmt.Errorf("graph: ensure unique constraint for %s: %w", label, err)
		}
	}

	for _, label := range allLabels {
		for _, prop := range graphmodel.IndexedProperties {
			name := fmt.Sprintf("idx_%s_%s", label, prop)
			cypher := fmt.Sprintf(
				"CREATE INDEX %s IF NOT EXISTS FOR (n:%s) ON (n.%s)",
				cypherIdent(name), cypherIdent(string(label)), cypherIdent(prop),
			)
			if err := withRetry(ctx, w.policy, func() error {
				return w.client.Execute(ctx, cypher, nil)
			}); err != nil {
				return fmt.Errorf("graph: ensure index for %s.%s: %w", label, prop, err)
			}
		}
	}
	return nil
}

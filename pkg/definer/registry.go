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

// Package definer implements Pass-1 of the extraction pipeline: walking
// a single file's parse tree and emitting definition nodes into the
// process-wide Definition Registry (a capture → entity → name-keyed
// table), plus per-file unresolved reference buffers for Pass-2.
package definer

import (
	"log/slog"
	"sync"

	"github.com/kraklabs/graphupdater/pkg/graphmodel"
)

// Descriptor is what the registry stores for one defined entity.
type Descriptor struct {
	Node     graphmodel.Node
	FilePath string
	Language string
}

// Registry is the process-wide, append-only (for one run) FQN→Descriptor
// table, mutated only by the aggregator under lock. It is created fresh
// per run and discarded at teardown.
type Registry struct {
	mu   sync.Mutex
	byQN map[string]Descriptor
	// order preserves first-insertion order, needed so edge emission
	// stays deterministic given the fixed lexicographic file order even
	// though pass-1 ran in parallel.
	order []string
	logger *slog.Logger
}

// NewRegistry builds an empty Registry for one run.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{byQN: make(map[string]Descriptor), logger: logger}
}

// Insert records a definition under its QN. If the QN was already
// defined (duplicate within or across files), the first definition wins
// and the duplicate is dropped with a warning.
func (r *Registry) Insert(d Descriptor) (inserted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	qn := d.Node.QualifiedName
	if _, exists := r.byQN[qn]; exists {
		r.logger.Warn("definer.registry.duplicate_qn", "qn", qn, "file", d.FilePath)
		return false
	}
	r.byQN[qn] = d
	r.order = append(r.order, qn)
	return true
}

// Lookup returns the descriptor for an exact QN.
func (r *Registry) Lookup(qn string) (Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byQN[qn]
	return d, ok
}

// All returns every descriptor in first-insertion order. The returned
// slice is a snapshot; callers must not mutate Registry state from it.
func (r *Registry) All() []Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, qn := range r.order {
		out = append(out, r.byQN[qn])
	}
	return out
}

// Len reports how many definitions the registry currently holds.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byQN)
}

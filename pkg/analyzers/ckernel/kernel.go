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

// Package ckernel recognizes Linux kernel idioms by macro name —
// SYSCALL_DEFINE{N}, EXPORT_SYMBOL*, the spin/mutex lock family, and
// module_init/module_exit — Like pkg/analyzers/cpointer,
// recognition is regexp-driven over raw source text rather than a
// dedicated tree-sitter query, for the same reason: these are
// preprocessor macro invocations, which tree-sitter's C grammar parses
// as a single opaque token sequence, not a structured call expression
// with a stable field name to query against.
package ckernel

import (
	"regexp"

	"github.com/kraklabs/graphupdater/pkg/graphmodel"
)

var (
	syscallRe     = regexp.MustCompile(`\bSYSCALL_DEFINE\d\(\s*(\w+)`)
	exportRe      = regexp.MustCompile(`\bEXPORT_SYMBOL(?:_GPL)?\(\s*(\w+)\s*\)`)
	lockRe        = regexp.MustCompile(`\b(spin_lock\w*|mutex_lock\w*)\(\s*&?\s*(\w+)`)
	unlockRe      = regexp.MustCompile(`\b(spin_unlock\w*|mutex_unlock\w*)\(\s*&?\s*(\w+)`)
	moduleInitRe  = regexp.MustCompile(`\bmodule_init\(\s*(\w+)\s*\)`)
	moduleExitRe  = regexp.MustCompile(`\bmodule_exit\(\s*(\w+)\s*\)`)
)

// Resolver looks up a bare function identifier's QN in the project's
// Definition Registry, used to attach the module_init/module_exit
// attribute flag to the already-emitted Function node.
type Resolver func(name string) (qn string, ok bool)

// Analyze scans one C file for kernel-specific macro markers, emitting
// Syscall/KernelExport nodes, LOCKS/UNLOCKS edges (attributed to the
// file's Module, since recovering the precise enclosing function from
// regexp matches alone isn't reliable), and a property-only Function
// node update for module_init/module_exit targets.
func Analyze(moduleQN string, content []byte, resolve Resolver) ([]graphmodel.Node, []graphmodel.Edge) {
	text := string(content)
	var nodes []graphmodel.Node
	var edges []graphmodel.Edge

	for _, m := range syscallRe.FindAllStringSubmatch(text, -1) {
		name := m[1]
		qn := graphmodel.QN(moduleQN, name)
		nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelSyscall, qn, map[string]any{"name": name}))
		edges = append(edges, graphmodel.NewEdge(graphmodel.EdgeDefines, graphmodel.LabelModule, moduleQN, graphmodel.LabelSyscall, qn, nil))
	}

	for _, m := range exportRe.FindAllStringSubmatch(text, -1) {
		name := m[1]
		qn := graphmodel.QN(moduleQN, name)
		nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelKernelExport, qn, map[string]any{"name": name}))
		edges = append(edges, graphmodel.NewEdge(graphmodel.EdgeDefines, graphmodel.LabelModule, moduleQN, graphmodel.LabelKernelExport, qn, nil))
	}

	for _, m := range lockRe.FindAllStringSubmatch(text, -1) {
		lockVar := m[2]
		lockQN := graphmodel.QN(moduleQN, "lock", lockVar)
		nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelGlobalVariable, lockQN, map[string]any{"name": lockVar, "kind": "lock"}))
		edges = append(edges, graphmodel.NewEdge(graphmodel.EdgeLocks, graphmodel.LabelModule, moduleQN, graphmodel.LabelGlobalVariable, lockQN, nil))
	}
	for _, m := range unlockRe.FindAllStringSubmatch(text, -1) {
		lockVar := m[2]
		lockQN := graphmodel.QN(moduleQN, "lock", lockVar)
		nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelGlobalVariable, lockQN, map[string]any{"name": lockVar, "kind": "lock"}))
		edges = append(edges, graphmodel.NewEdge(graphmodel.EdgeUnlocks, graphmodel.LabelModule, moduleQN, graphmodel.LabelGlobalVariable, lockQN, nil))
	}

	for _, m := range moduleInitRe.FindAllStringSubmatch(text, -1) {
		if qn, ok := resolve(m[1]); ok {
			nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelFunction, qn, map[string]any{"module_entry": "init"}))
		}
	}
	for _, m := range moduleExitRe.FindAllStringSubmatch(text, -1) {
		if qn, ok := resolve(m[1]); ok {
			nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelFunction, qn, map[string]any{"module_entry": "exit"}))
		}
	}

	return nodes, edges
}

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

// Package resolver implements Pass-2: after every file in a batch
// completes Pass-1, it resolves the unresolved import/call/inheritance
// references left behind against the Definition Registry, using a
// local > imported > same-package > external tie-break over a package
// index, a global function table, and a file-imports table, switching
// from sequential to parallel lookups at 1,000 calls or more. Import
// resolution is a language-agnostic suffix-matching scheme rather than
// a Go-only path match.
package resolver

import (
	"path"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/kraklabs/graphupdater/pkg/definer"
	"github.com/kraklabs/graphupdater/pkg/graphmodel"
)

// Resolver holds the read-only-after-BuildIndex indices used to resolve
// imports, calls, and inheritance for one run.
type Resolver struct {
	reg *definer.Registry

	// moduleQNs is every Module QN seen this run, for import-target
	// suffix matching.
	moduleQNs []string
	// packageOf maps a Module QN to its "package" grouping key (the
	// parent path one level up), used for the same-package tie-break.
	packageOf map[string]string
	// importTable maps callerModuleQN -> alias/raw -> resolved target
	// Module QN.
	importTable map[string]map[string]string

	externalRoots map[string]bool
}

// New builds a Resolver over reg. Call BuildIndex once every file has
// completed Pass-1
func New(reg *definer.Registry, externalRoots []string) *Resolver {
	r := &Resolver{
		reg:           reg,
		packageOf:     make(map[string]string),
		importTable:   make(map[string]map[string]string),
		externalRoots: make(map[string]bool, len(externalRoots)),
	}
	for _, root := range externalRoots {
		r.externalRoots[root] = true
	}
	return r
}

// BuildIndex populates the package/import indices from every file's
// Pass-1 output. Must run after all files in the batch complete
// Pass-1
func (r *Resolver) BuildIndex(files []*definer.FileDefinitions) {
	for _, fd := range files {
		r.moduleQNs = append(r.moduleQNs, fd.ModuleQN)
		r.packageOf[fd.ModuleQN] = packageKey(fd.ModuleQN)
	}
	sort.Strings(r.moduleQNs)

	for _, fd := range files {
		table := make(map[string]string)
		for _, imp := range fd.Imports {
			target, ok := r.resolveImportTarget(imp.Raw)
			if !ok {
				continue
			}
			alias := imp.Alias
			if alias == "" {
				alias = lastPathComponent(imp.Raw)
			}
			table[alias] = target
		}
		r.importTable[fd.ModuleQN] = table
	}
}

// packageKey returns the QN's parent (one dotted segment up), the unit
// "same-package" resolution groups by.
func packageKey(moduleQN string) string {
	idx := strings.LastIndex(moduleQN, ".")
	if idx < 0 {
		return moduleQN
	}
	return moduleQN[:idx]
}

func lastPathComponent(raw string) string {
	raw = strings.Trim(raw, `"'`)
	raw = strings.TrimSuffix(raw, "/")
	return path.Base(raw)
}

// resolveImportTarget maps a raw import string to an existing Module
// QN using longest-suffix matching, falling back to lexicographic
// smallest on ties.
func (r *Resolver) resolveImportTarget(raw string) (string, bool) {
	clean := strings.Trim(raw, `"'`)
	clean = strings.TrimPrefix(clean, "./")
	clean = strings.TrimSuffix(clean, "/index")
	clean = strings.TrimSuffix(clean, ".ts")
	clean = strings.TrimSuffix(clean, ".js")
	dotted := strings.ReplaceAll(strings.Trim(clean, "/"), "/", ".")

	return longestSuffixMatch(r.moduleQNs, dotted)
}

// longestSuffixMatch finds the candidate whose QN has the longest
// dotted-segment suffix match against target, breaking ties
// lexicographically smallest
func longestSuffixMatch(candidates []string, target string) (string, bool) {
	best := ""
	bestLen := -1
	for _, c := range candidates {
		n := suffixSegmentMatchLen(c, target)
		if n == 0 {
			continue
		}
		if n > bestLen || (n == bestLen && c < best) {
			best, bestLen = c, n
		}
	}
	if bestLen <= 0 {
		return "", false
	}
	return best, true
}

// suffixSegmentMatchLen returns how many trailing dotted segments of
// qn and target agree, 0 if the last segment doesn't even match.
func suffixSegmentMatchLen(qn, target string) int {
	qp := strings.Split(qn, ".")
	tp := strings.Split(target, ".")
	n := 0
	for i, j := len(qp)-1, len(tp)-1; i >= 0 && j >= 0; i, j = i-1, j-1 {
		if qp[i] != tp[j] {
			break
		}
		n++
	}
	return n
}

// externalRootOf returns the root identifier of a raw import, the
// lookup key against a dependency manifest for ExternalPackage
// emission
func externalRootOf(raw string) string {
	clean := strings.Trim(raw, `"'`)
	clean = strings.TrimPrefix(clean, "./")
	if clean == "" {
		return ""
	}
	// Slash-separated imports (Go modules, JS/TS packages, C includes)
	// use their first path segment as the dependency manifest root
	// (e.g. "github.com" in "github.com/x/y"). Pure dotted imports
	// (Python, Java, Scala) use their first dotted segment instead.
	if idx := strings.Index(clean, "/"); idx >= 0 {
		return clean[:idx]
	}
	parts := strings.Split(clean, ".")
	return parts[0]
}

// ResolveImports emits IMPORTS edges for every file's import table
// entries that resolved to a known module, and DEPENDS_ON_EXTERNAL +
// ExternalPackage for roots found in the dependency manifest.
func (r *Resolver) ResolveImports(project string, files []*definer.FileDefinitions) ([]graphmodel.Edge, []graphmodel.Node) {
	var edges []graphmodel.Edge
	seenExternal := make(map[string]bool)
	var externalNodes []graphmodel.Node

	for _, fd := range files {
		for _, imp := range fd.Imports {
			if target, ok := r.resolveImportTarget(imp.Raw); ok {
				edges = append(edges, graphmodel.NewEdge(graphmodel.EdgeImports, graphmodel.LabelModule, fd.ModuleQN, graphmodel.LabelModule, target, nil))
				continue
			}
			root := externalRootOf(imp.Raw)
			if root == "" || !r.externalRoots[root] {
				continue
			}
			extQN := "ext:" + root
			if !seenExternal[extQN] {
				seenExternal[extQN] = true
				externalNodes = append(externalNodes, graphmodel.NewNode(graphmodel.LabelExternalPackage, extQN, map[string]any{"name": root}))
				edges = append(edges, graphmodel.NewEdge(graphmodel.EdgeDependsOnExternal, graphmodel.LabelProject, project, graphmodel.LabelExternalPackage, extQN, nil))
			}
		}
	}
	return edges, externalNodes
}

// ResolveCalls resolves every unresolved call against local, imported,
// same-package, then drops as a builtin Sequential for
// small sets, parallel (read-only indices) at 1,000 calls or more, matching
// the prior CallResolver split point.
func (r *Resolver) ResolveCalls(files []*definer.FileDefinitions) []graphmodel.Edge {
	var calls []definer.UnresolvedCall
	for _, fd := range files {
		calls = append(calls, fd.Calls...)
	}
	if len(calls) < 1000 {
		return r.resolveSequential(calls)
	}
	return r.resolveParallel(calls)
}

func (r *Resolver) resolveSequential(calls []definer.UnresolvedCall) []graphmodel.Edge {
	var edges []graphmodel.Edge
	seen := make(map[[3]string]bool)
	for _, call := range calls {
		if target, ok := r.resolveCall(call); ok {
			e := graphmodel.NewEdge(graphmodel.EdgeCalls, graphmodel.LabelFunction, call.CallerQN, graphmodel.LabelFunction, target, nil)
			if !seen[e.Key()] {
				seen[e.Key()] = true
				edges = append(edges, e)
			}
		}
	}
	return edges
}

func (r *Resolver) resolveParallel(calls []definer.UnresolvedCall) []graphmodel.Edge {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	jobs := make(chan int, len(calls))
	results := make(chan graphmodel.Edge, len(calls))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				call := calls[i]
				if target, ok := r.resolveCall(call); ok {
					results <- graphmodel.NewEdge(graphmodel.EdgeCalls, graphmodel.LabelFunction, call.CallerQN, graphmodel.LabelFunction, target, nil)
				}
			}
		}()
	}
	for i := range calls {
		jobs <- i
	}
	close(jobs)
	go func() { wg.Wait(); close(results) }()

	seen := make(map[[3]string]bool)
	var edges []graphmodel.Edge
	for e := range results {
		if !seen[e.Key()] {
			seen[e.Key()] = true
			edges = append(edges, e)
		}
	}
	return edges
}

// resolveCall implements the local > imported > same-package > external
// (drop) ordering.
func (r *Resolver) resolveCall(call definer.UnresolvedCall) (string, bool) {
	callerModule := packageKey(call.CallerQN)
	if call.CallerQN == "" {
		return "", false
	}
	// find the owning module for this caller QN: walk up dotted
	// segments until a known Module QN is found.
	ownerModule := nearestKnownModule(r.moduleQNs, call.CallerQN)
	if ownerModule != "" {
		callerModule = ownerModule
	}

	if call.Kind == definer.CallQualified {
		return r.resolveQualifiedCall(call, callerModule)
	}
	return r.resolveFreeCall(call, callerModule)
}

func nearestKnownModule(modules []string, qn string) string {
	best := ""
	for _, m := range modules {
		if (qn == m || strings.HasPrefix(qn, m+".")) && len(m) > len(best) {
			best = m
		}
	}
	return best
}

func (r *Resolver) resolveFreeCall(call definer.UnresolvedCall, callerModule string) (string, bool) {
	// 1. local: same module.
	if d, ok := r.reg.Lookup(graphmodel.QN(callerModule, call.Name)); ok && isCallable(d.Node.Label) {
		return d.Node.QualifiedName, true
	}
	// 2. imported: not applicable to an unqualified call.
	// 3. same-package: any sibling module under the same package key.
	pkg := r.packageOf[callerModule]
	var candidates []string
	for qn, p := range r.packageOf {
		if p != pkg {
			continue
		}
		if d, ok := r.reg.Lookup(graphmodel.QN(qn, call.Name)); ok && isCallable(d.Node.Label) {
			candidates = append(candidates, d.Node.QualifiedName)
		}
	}
	if len(candidates) > 0 {
		sort.Strings(candidates)
		return candidates[0], true
	}
	// 4. builtin: drop.
	return "", false
}

func (r *Resolver) resolveQualifiedCall(call definer.UnresolvedCall, callerModule string) (string, bool) {
	lastDot := strings.LastIndex(call.Name, ".")
	alias := call.Name[:lastDot]
	if strings.Contains(alias, ".") {
		alias = alias[strings.LastIndex(alias, ".")+1:]
	}
	funcName := call.Name[lastDot+1:]

	if table, ok := r.importTable[callerModule]; ok {
		if target, ok := table[alias]; ok {
			if d, ok := r.reg.Lookup(graphmodel.QN(target, funcName)); ok && isCallable(d.Node.Label) {
				return d.Node.QualifiedName, true
			}
		}
	}

	// Walk the project FQN table for a suffix match on ".funcName",
	// ("walk the import table then project FQN table").
	var candidates []string
	for _, d := range r.reg.All() {
		if !isCallable(d.Node.Label) {
			continue
		}
		if strings.HasSuffix(d.Node.QualifiedName, "."+funcName) {
			candidates = append(candidates, d.Node.QualifiedName)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Strings(candidates)
	return candidates[0], true
}

func isCallable(l graphmodel.Label) bool {
	return l == graphmodel.LabelFunction || l == graphmodel.LabelMethod
}

// ResolveIdentifier resolves a bare identifier against the same
// local-module-then-same-package order as resolveFreeCall, filtered to
// an allowed label set. Used by analyzers (cpointer, ckernel) that
// need the same scoping rule for non-callable targets like
// GlobalVariable/Pointer rather than Function/Method.
func (r *Resolver) ResolveIdentifier(moduleQN, name string, allowed []graphmodel.Label) (string, graphmodel.Label, bool) {
	if d, ok := r.reg.Lookup(graphmodel.QN(moduleQN, name)); ok && labelAllowed(d.Node.Label, allowed) {
		return d.Node.QualifiedName, d.Node.Label, true
	}

	pkg := r.packageOf[moduleQN]
	var candidates []definer.Descriptor
	for qn, p := range r.packageOf {
		if p != pkg {
			continue
		}
		if d, ok := r.reg.Lookup(graphmodel.QN(qn, name)); ok && labelAllowed(d.Node.Label, allowed) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return "", "", false
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Node.QualifiedName < candidates[j].Node.QualifiedName
	})
	return candidates[0].Node.QualifiedName, candidates[0].Node.Label, true
}

func labelAllowed(l graphmodel.Label, allowed []graphmodel.Label) bool {
	for _, a := range allowed {
		if a == l {
			return true
		}
	}
	return false
}

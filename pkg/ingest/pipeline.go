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

package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	graphupdatererrors "github.com/kraklabs/graphupdater/internal/errors"
	"github.com/kraklabs/graphupdater/pkg/analyzers/ckernel"
	"github.com/kraklabs/graphupdater/pkg/analyzers/cpointer"
	"github.com/kraklabs/graphupdater/pkg/analyzers/testbdd"
	"github.com/kraklabs/graphupdater/pkg/definer"
	"github.com/kraklabs/graphupdater/pkg/discovery"
	"github.com/kraklabs/graphupdater/pkg/graph"
	"github.com/kraklabs/graphupdater/pkg/graphmodel"
	"github.com/kraklabs/graphupdater/pkg/langregistry"
	"github.com/kraklabs/graphupdater/pkg/metrics"
	"github.com/kraklabs/graphupdater/pkg/parser"
	"github.com/kraklabs/graphupdater/pkg/resolver"
	"github.com/kraklabs/graphupdater/pkg/workerpool"
)

// cFamily identifies the languages pkg/analyzers/cpointer and
// pkg/analyzers/ckernel apply to.
var cFamily = map[string]bool{"c": true, "cpp": true}

// Pipeline owns one run's process-wide state (definition registry,
// language registry, graph connection) and exposes two operations,
// Run (ingest) and EnsureIndexes, driving discovery through
// cross-file resolution and analyzer dispatch. It has no export
// operation.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
	langs  *langregistry.Registry
	client *graph.Client
	writer *graph.Writer
}

// Result summarizes one ingest run.
type Result struct {
	RunID    string
	Project  string
	Duration time.Duration

	FilesDiscovered int
	FilesParsed     int
	FilesSkipped    int

	NodesByLabel map[graphmodel.Label]int
	EdgesByType  map[graphmodel.EdgeType]int

	Errors *graphupdatererrors.Report
}

// New builds a Pipeline, populating the language registry and
// connecting to the configured graph backend.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	langs := langregistry.New()
	if err := langs.Populate(); err != nil {
		return nil, graphupdatererrors.NewConfigurationError(
			"failed to load language grammars", err.Error(),
			"check that the bundled tree-sitter grammars are intact", err)
	}

	client, err := graph.Connect(ctx, cfg.Graph)
	if err != nil {
		return nil, graphupdatererrors.NewConfigurationError(
			"failed to connect to the graph backend", err.Error(),
			"check --graph-uri/--graph-user/--graph-password and that the backend is reachable", err)
	}

	return &Pipeline{
		cfg:    cfg,
		logger: logger,
		langs:  langs,
		client: client,
		writer: graph.NewWriter(client, logger),
	}, nil
}

// Close releases the graph connection.
func (p *Pipeline) Close(ctx context.Context) error {
	return p.client.Close(ctx)
}

// EnsureIndexes creates the uniqueness constraints and secondary
// indexes every node label needs. Safe to call repeatedly: constraint
// and index creation is idempotent.
func (p *Pipeline) EnsureIndexes(ctx context.Context) error {
	return p.writer.EnsureIndexes(ctx, graphmodel.AllLabels)
}

// Run executes one full ingest: discovery, parallel pass-1 definition,
// single-aggregator pass-2 resolution, analyzer dispatch, and graph
// writes, in that order.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	report := graphupdatererrors.NewReport()

	loader := discovery.NewLoader(p.logger)
	defer loader.Close()

	root, err := loader.Resolve(p.cfg.Source)
	if err != nil {
		return nil, graphupdatererrors.NewConfigurationError(
			"failed to resolve the ingest source", err.Error(),
			"check the --path or --git-url value", err)
	}

	runID := generateRunID(p.cfg.ProjectName)

	discoverStart := time.Now()
	walkResult, err := discovery.Walk(root, discovery.Options{
		FolderFilter: p.cfg.FolderFilter,
		FilePatterns: p.cfg.FilePatterns,
		SkipTests:    p.cfg.SkipTests,
		MaxFileSize:  p.cfg.MaxFileSize,
	}, p.langs, isTestFile, p.logger)
	if err != nil {
		return nil, graphupdatererrors.NewConfigurationError(
			"failed to walk the source tree", err.Error(), "check read permissions on the source path", err)
	}
	metrics.ObserveDiscover(time.Since(discoverStart))
	metrics.RecordFilesDiscovered(len(walkResult.Files))
	for reason, n := range walkResult.SkipReasons {
		report.Record(graphupdatererrors.KindDiscovery, fmt.Sprintf("%d files skipped: %s", n, reason))
	}

	reg := definer.NewRegistry(p.logger)

	containNodes, containEdges := buildContainment(p.cfg.ProjectName, walkResult.Files)

	parseStart := time.Now()
	fileDefs, testNodes, testEdges, parsedCount := p.definePass1(ctx, walkResult.Files, reg, report)
	metrics.ObserveParse(time.Since(parseStart))
	metrics.RecordFilesParsed(parsedCount)
	metrics.RecordFilesSkipped(len(walkResult.Files) - parsedCount)

	resolveStart := time.Now()
	res := resolver.New(reg, p.cfg.ExternalRoots)
	res.BuildIndex(fileDefs)

	importEdges, externalNodes := res.ResolveImports(p.cfg.ProjectName, fileDefs)
	callEdges := res.ResolveCalls(fileDefs)
	inheritEdges := res.ResolveInheritance(fileDefs)
	cycleEdges := resolver.DetectCircularDependencies(importEdges)
	cycleEdges = append(cycleEdges, resolver.DetectCircularDependencies(inheritEdges)...)
	overrideEdges := res.ResolveOverrides(inheritEdges, methodNodes(reg))

	cNodes, cEdges := p.runCAnalyzers(walkResult.Files, res, report)
	bddNodes, bddEdges := p.runTestBDD(walkResult.Files, testNodes, callEdges, report)
	metrics.ObserveResolve(time.Since(resolveStart))

	batcher := graphmodel.NewBatcher(p.cfg.BatchRows)
	addNodes(batcher, containNodes)
	for _, d := range reg.All() {
		batcher.AddNode(d.Node)
	}
	addNodes(batcher, externalNodes)
	addNodes(batcher, testNodes)
	addNodes(batcher, cNodes)
	addNodes(batcher, bddNodes)

	addEdges(batcher, containEdges)
	for _, fd := range fileDefs {
		addEdges(batcher, fd.Edges)
	}
	addEdges(batcher, importEdges)
	addEdges(batcher, callEdges)
	addEdges(batcher, inheritEdges)
	addEdges(batcher, cycleEdges)
	addEdges(batcher, overrideEdges)
	addEdges(batcher, testEdges)
	addEdges(batcher, cEdges)
	addEdges(batcher, bddEdges)

	writeStart := time.Now()
	if err := p.writer.Flush(ctx, batcher); err != nil {
		writeErr := graphupdatererrors.NewWriterError(
			"failed to write the graph", err.Error(),
			"check the graph backend's availability and retry", err)
		report.Record(graphupdatererrors.KindWriter, writeErr.Error())
		metrics.RecordError(graphupdatererrors.KindWriter)
		return nil, writeErr
	}
	metrics.ObserveWrite(time.Since(writeStart))

	nodesByLabel := countNodesByLabel(reg, containNodes, externalNodes, testNodes, cNodes, bddNodes)
	edgesByType := countEdgesByType(
		containEdges, fileDefs, importEdges, callEdges, inheritEdges, cycleEdges, overrideEdges,
		testEdges, cEdges, bddEdges,
	)
	for label, n := range nodesByLabel {
		metrics.RecordNodesWritten(string(label), n)
	}
	for edgeType, n := range edgesByType {
		metrics.RecordEdgesWritten(string(edgeType), n)
	}
	for _, kind := range []graphupdatererrors.Kind{
		graphupdatererrors.KindDiscovery, graphupdatererrors.KindParse,
		graphupdatererrors.KindResolve, graphupdatererrors.KindAnalyzer,
	} {
		if n := report.Count(kind); n > 0 {
			metrics.RecordErrorCount(kind, n)
		}
	}

	total := time.Since(start)
	metrics.ObserveTotal(total)

	result := &Result{
		RunID:           runID,
		Project:         p.cfg.ProjectName,
		Duration:        total,
		FilesDiscovered: len(walkResult.Files),
		FilesParsed:     parsedCount,
		FilesSkipped:    len(walkResult.Files) - parsedCount,
		NodesByLabel:    nodesByLabel,
		EdgesByType:     edgesByType,
		Errors:          report,
	}
	return result, nil
}

// pass1Output is one file's full Pass-1 result: the definer output Pass-2
// consumes, plus the test/assertion nodes that must be derived while the
// parse tree is still open (pkg/analyzers/testbdd.AnalyzeTestCaptures
// reads capture node byte ranges, which become invalid once the tree is
// closed at the end of the worker closure below).
type pass1Output struct {
	defs      *definer.FileDefinitions
	testNodes []graphmodel.Node
	testEdges []graphmodel.Edge
}

// definePass1 runs Pass-1 definition extraction across files in
// parallel via pkg/workerpool, so results return in
// original (lexicographic) order for the aggregator to consume
// deterministically.
func (p *Pipeline) definePass1(ctx context.Context, files []discovery.File, reg *definer.Registry, report *graphupdatererrors.Report) ([]*definer.FileDefinitions, []graphmodel.Node, []graphmodel.Edge, int) {
	tasks := make([]workerpool.Task, 0, len(files))
	for i, f := range files {
		if f.Language == "" {
			continue
		}
		tasks = append(tasks, workerpool.Task{Index: i, Value: f})
	}

	workers := p.cfg.ParseWorkers
	if workers <= 0 {
		workers = workerpool.DefaultWorkers()
	}

	results, _ := workerpool.Run(ctx, tasks, workers, func(ctx context.Context, v any) (any, error) {
		f := v.(discovery.File)
		entry, ok := p.langs.Lookup(f.Language)
		if !ok {
			return nil, nil
		}
		content, err := parser.ReadContent(f.AbsPath, f.Size)
		if err != nil {
			return nil, err
		}
		parsed, err := parser.Parse(ctx, entry, f.AbsPath, content)
		if err != nil {
			return nil, err
		}
		defer parsed.Close()

		defs := definer.DefineFile(reg, p.cfg.ProjectName, f.RelPath, f.Language, entry, parsed)
		testNodes, testEdges := testbdd.AnalyzeTestCaptures(defs.ModuleQN, parsed, defs.Classes)
		return pass1Output{defs: defs, testNodes: testNodes, testEdges: testEdges}, nil
	})

	fileDefs := make([]*definer.FileDefinitions, 0, len(results))
	var testNodes []graphmodel.Node
	var testEdges []graphmodel.Edge
	parsed := 0
	for _, r := range results {
		if r.Err != nil {
			report.Record(graphupdatererrors.KindParse, r.Err.Error())
			continue
		}
		if r.Value == nil {
			continue
		}
		out := r.Value.(pass1Output)
		fileDefs = append(fileDefs, out.defs)
		testNodes = append(testNodes, out.testNodes...)
		testEdges = append(testEdges, out.testEdges...)
		parsed++
	}
	return fileDefs, testNodes, testEdges, parsed
}

// runCAnalyzers applies pkg/analyzers/cpointer and pkg/analyzers/ckernel
// to every C/C++ file, sequentially and after res.BuildIndex so pointer
// and module_init/exit targets can resolve against the full project
// index rather than only what a single file's own Pass-1 saw.
func (p *Pipeline) runCAnalyzers(files []discovery.File, res *resolver.Resolver, report *graphupdatererrors.Report) ([]graphmodel.Node, []graphmodel.Edge) {
	var nodes []graphmodel.Node
	var edges []graphmodel.Edge

	macroTables := make(map[string]map[string]string) // moduleQN -> macro name -> QN
	var cFiles []discovery.File
	for _, f := range files {
		if !cFamily[f.Language] {
			continue
		}
		cFiles = append(cFiles, f)
	}

	// Pre-scan every C/C++ file's #defines so usage resolution (below)
	// can see macros defined in other files under
	// MacroExpansionIncludeClosure. The #include graph itself isn't
	// tracked, so include-closure mode is approximated as "every macro
	// defined anywhere in the project"; depth-limited reasoning from
	// MacroExpansionMaxDepth does not apply without that graph.
	// Translation-unit mode stays file-local.
	globalMacros := make(map[string]string)
	perFileMacros := make(map[string]map[string]string)
	for _, f := range cFiles {
		content, err := parser.ReadContent(f.AbsPath, f.Size)
		if err != nil {
			report.Record(graphupdatererrors.KindAnalyzer, err.Error())
			continue
		}
		moduleQN := definer.ModuleQN(p.cfg.ProjectName, f.RelPath)
		macroNodes, defs := ckernel.ExtractMacroDefs(moduleQN, content)
		nodes = append(nodes, macroNodes...)
		table := make(map[string]string, len(defs))
		for _, d := range defs {
			table[d.Name] = d.QN
			if _, exists := globalMacros[d.Name]; !exists {
				globalMacros[d.Name] = d.QN
			}
		}
		perFileMacros[f.RelPath] = table
	}
	for relPath, table := range perFileMacros {
		moduleQN := definer.ModuleQN(p.cfg.ProjectName, relPath)
		if p.cfg.MacroExpansion == MacroExpansionIncludeClosure {
			macroTables[moduleQN] = globalMacros
		} else {
			macroTables[moduleQN] = table
		}
	}

	for _, f := range cFiles {
		content, err := parser.ReadContent(f.AbsPath, f.Size)
		if err != nil {
			report.Record(graphupdatererrors.KindAnalyzer, err.Error())
			continue
		}
		moduleQN := definer.ModuleQN(p.cfg.ProjectName, f.RelPath)

		ptrResolve := func(name string) (string, graphmodel.Label, bool) {
			return res.ResolveIdentifier(moduleQN, name, []graphmodel.Label{
				graphmodel.LabelGlobalVariable, graphmodel.LabelFunction, graphmodel.LabelPointer,
			})
		}
		pNodes, pEdges := cpointer.Analyze(moduleQN, content, ptrResolve)
		nodes = append(nodes, pNodes...)
		edges = append(edges, pEdges...)

		fnResolve := func(name string) (string, bool) {
			qn, _, ok := res.ResolveIdentifier(moduleQN, name, []graphmodel.Label{graphmodel.LabelFunction})
			return qn, ok
		}
		kNodes, kEdges := ckernel.Analyze(moduleQN, content, fnResolve)
		nodes = append(nodes, kNodes...)
		edges = append(edges, kEdges...)

		usages := ckernel.ExtractMacroUsages(content)
		edges = append(edges, ckernel.ResolveExpandsTo(moduleQN, usages, macroTables[moduleQN])...)
	}

	return nodes, edges
}

// runTestBDD parses every .feature file and links Gherkin steps to
// step-definition registrations found anywhere in the project, then
// derives TESTS edges from the already-resolved CALLS edges whose
// source is a known TestCase
func (p *Pipeline) runTestBDD(files []discovery.File, testNodes []graphmodel.Node, callEdges []graphmodel.Edge, report *graphupdatererrors.Report) ([]graphmodel.Node, []graphmodel.Edge) {
	var nodes []graphmodel.Node
	var edges []graphmodel.Edge
	var steps []testbdd.Step
	var bindings []testbdd.StepBinding

	for _, f := range files {
		content, err := parser.ReadContent(f.AbsPath, f.Size)
		if err != nil {
			report.Record(graphupdatererrors.KindAnalyzer, err.Error())
			continue
		}
		moduleQN := definer.ModuleQN(p.cfg.ProjectName, f.RelPath)

		if f.Language == "gherkin" {
			fNodes, fEdges, fSteps := testbdd.ParseFeature(moduleQN, content)
			nodes = append(nodes, fNodes...)
			edges = append(edges, fEdges...)
			steps = append(steps, fSteps...)
			continue
		}

		bindings = append(bindings, testbdd.ExtractStepBindings(moduleQN, content)...)
	}

	edges = append(edges, testbdd.LinkSteps(steps, bindings)...)

	testCaseQNs := make(map[string]bool)
	for _, n := range testNodes {
		if n.Label == graphmodel.LabelTestCase {
			testCaseQNs[n.QualifiedName] = true
		}
	}
	edges = append(edges, testbdd.LinkTestsToCalls(testCaseQNs, callEdges)...)

	return nodes, edges
}

func addNodes(b *graphmodel.Batcher, nodes []graphmodel.Node) {
	for _, n := range nodes {
		b.AddNode(n)
	}
}

func addEdges(b *graphmodel.Batcher, edges []graphmodel.Edge) {
	for _, e := range edges {
		b.AddEdge(e)
	}
}

func methodNodes(reg *definer.Registry) []graphmodel.Node {
	var methods []graphmodel.Node
	for _, d := range reg.All() {
		if d.Node.Label == graphmodel.LabelMethod {
			methods = append(methods, d.Node)
		}
	}
	return methods
}

func countNodesByLabel(reg *definer.Registry, extra ...[]graphmodel.Node) map[graphmodel.Label]int {
	counts := make(map[graphmodel.Label]int)
	for _, d := range reg.All() {
		counts[d.Node.Label]++
	}
	for _, group := range extra {
		for _, n := range group {
			counts[n.Label]++
		}
	}
	return counts
}

func countEdgesByType(containEdges []graphmodel.Edge, fileDefs []*definer.FileDefinitions, rest ...[]graphmodel.Edge) map[graphmodel.EdgeType]int {
	counts := make(map[graphmodel.EdgeType]int)
	for _, e := range containEdges {
		counts[e.Type]++
	}
	for _, fd := range fileDefs {
		for _, e := range fd.Edges {
			counts[e.Type]++
		}
	}
	for _, group := range rest {
		for _, e := range group {
			counts[e.Type]++
		}
	}
	return counts
}

// isTestFile recognizes common cross-language test-file naming
// conventions, so --skip-tests can exclude them at discovery time
// without a language-specific parser pass.
func isTestFile(relPath, _ string) bool {
	base := path.Base(relPath)
	lower := strings.ToLower(base)
	switch {
	case strings.HasPrefix(lower, "test_"):
		return true
	case strings.HasSuffix(lower, "_test.go"), strings.HasSuffix(lower, "_test.py"):
		return true
	case strings.Contains(lower, ".test."), strings.Contains(lower, ".spec."):
		return true
	case strings.HasSuffix(lower, "test.java"), strings.HasSuffix(lower, "tests.java"):
		return true
	}
	for _, seg := range strings.Split(relPath, "/") {
		s := strings.ToLower(seg)
		if s == "test" || s == "tests" || s == "__tests__" || s == "spec" {
			return true
		}
	}
	return false
}

// generateRunID derives a stable per-project, per-minute run identifier
// by hashing a rounded timestamp and truncating to 16 hex characters.
func generateRunID(project string) string {
	rounded := time.Now().Truncate(time.Minute).Unix()
	sum := sha256.Sum256([]byte(fmt.Sprintf("run-%s-%d", project, rounded)))
	return hex.EncodeToString(sum[:])[:16]
}

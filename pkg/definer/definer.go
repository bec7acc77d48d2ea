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

package definer

import (
	"strings"

	"github.com/kraklabs/graphupdater/pkg/graphmodel"
	"github.com/kraklabs/graphupdater/pkg/langregistry"
	"github.com/kraklabs/graphupdater/pkg/parser"
)

// CallKind classifies an unresolved call site
type CallKind string

const (
	CallFree      CallKind = "free"
	CallMethod    CallKind = "method"
	CallQualified CallKind = "qualified"
)

// UnresolvedImport is a raw import target recorded for Pass-2.
type UnresolvedImport struct {
	ModuleQN string
	Raw      string
	Alias    string
}

// UnresolvedBase is a raw inheritance base-name reference.
type UnresolvedBase struct {
	ClassQN  string
	BaseName string
	// Order is the base's position in the source's own base-list,
	// needed for the declaration-order override tie-break.
	Order int
}

// UnresolvedCall is a raw call-site textual identifier.
type UnresolvedCall struct {
	CallerQN string
	Name     string
	Kind     CallKind
}

// scope is an enclosing definition's byte range, used to find the
// lexical/structural parent of a nested capture.
type scope struct {
	qn         string
	label      graphmodel.Label
	startByte  uint32
	endByte    uint32
}

// ClassScope exposes one class/struct definition's byte range within
// its file, for analyzers that need to tell whether a test case sits
// inside a test-suite-shaped class (e.g. unittest.TestCase, JUnit).
type ClassScope struct {
	QN        string
	Label     graphmodel.Label
	StartByte uint32
	EndByte   uint32
}

// FileDefinitions is one file's Pass-1 output: registry insertions
// already applied, plus the unresolved buffers Pass-2 consumes.
// DefineFile leaves Bases empty: it extracts no base-class names, so
// Pass-2 inheritance resolution finds no INHERITS_FROM edges for the
// files it defines.
type FileDefinitions struct {
	FilePath    string
	Language    string
	ModuleQN    string
	Edges       []graphmodel.Edge
	Imports     []UnresolvedImport
	Bases       []UnresolvedBase
	Calls       []UnresolvedCall
	Classes     []ClassScope
}

// ModuleQN builds the project-rooted dotted QN for a relative file path:
// the extension is dropped and every directory becomes a segment
// (`a/b.py` in project `proj` gives `proj.a.b`). The containing folder
// chain is the prefix for every language, since folders and packages
// share a QN shape here.
func ModuleQN(project, relPath string) string {
	trimmed := relPath
	if idx := strings.LastIndex(trimmed, "."); idx > strings.LastIndex(trimmed, "/") {
		trimmed = trimmed[:idx]
	}
	parts := strings.Split(trimmed, "/")
	return graphmodel.QN(append([]string{project}, parts...)...)
}

// DefineFile walks one file's parse captures and inserts every
// definition into reg, returning the unresolved buffers for Pass-2.
// Duplicate QNs within the file are merged into the first emitted
// definition (Registry.Insert already enforces this); the entity is
// skipped with no edge recorded.
func DefineFile(reg *Registry, project, relPath, language string, entry *langregistry.Entry, parsed *parser.Result) *FileDefinitions {
	fd := &FileDefinitions{FilePath: relPath, Language: language, ModuleQN: ModuleQN(project, relPath)}

	reg.Insert(Descriptor{
		Node:     graphmodel.NewNode(graphmodel.LabelModule, fd.ModuleQN, map[string]any{"name": lastSegment(fd.ModuleQN), "path": relPath, "language": language}),
		FilePath: relPath, Language: language,
	})

	var classScopes []scope
	var funcScopes []scope

	// Classes/structs first, so function captures can test containment
	// against class ranges to decide Function vs Method.
	for _, cap := range groupByOuterCapture(parsed.Captures[langregistry.QueryClasses], parsed.Content) {
		name := cap.name
		if name == "" {
			continue
		}
		qn := graphmodel.QN(fd.ModuleQN, name)
		label := graphmodel.LabelClass
		if entry != nil {
			if cat, ok := entry.NodeKinds[cap.outerType]; ok && cat == langregistry.CategoryStruct {
				label = graphmodel.LabelStruct
			}
		}
		if reg.Insert(Descriptor{
			Node:     graphmodel.NewNode(label, qn, map[string]any{"name": name, "language": language}),
			FilePath: relPath, Language: language,
		}) {
			fd.Edges = append(fd.Edges, graphmodel.NewEdge(graphmodel.EdgeDefines, graphmodel.LabelModule, fd.ModuleQN, label, qn, nil))
		}
		classScopes = append(classScopes, scope{qn: qn, label: label, startByte: cap.startByte, endByte: cap.endByte})
		fd.Classes = append(fd.Classes, ClassScope{QN: qn, Label: label, StartByte: cap.startByte, EndByte: cap.endByte})
	}

	for _, cap := range groupByOuterCapture(parsed.Captures[langregistry.QueryFunctions], parsed.Content) {
		name := cap.name
		if name == "" {
			continue
		}

		if owner, ok := innermostContaining(classScopes, cap.startByte); ok {
			qn := graphmodel.QN(owner.qn, name)
			if reg.Insert(Descriptor{
				Node:     graphmodel.NewNode(graphmodel.LabelMethod, qn, map[string]any{"name": name, "language": language, "parent_class": owner.qn}),
				FilePath: relPath, Language: language,
			}) {
				fd.Edges = append(fd.Edges, graphmodel.NewEdge(graphmodel.EdgeDefinesMethod, owner.label, owner.qn, graphmodel.LabelMethod, qn, nil))
			}
			funcScopes = append(funcScopes, scope{qn: qn, label: graphmodel.LabelMethod, startByte: cap.startByte, endByte: cap.endByte})
			continue
		}

		if parentFn, ok := innermostContaining(funcScopes, cap.startByte); ok {
			qn := graphmodel.QN(parentFn.qn, name)
			if reg.Insert(Descriptor{
				Node:     graphmodel.NewNode(graphmodel.LabelFunction, qn, map[string]any{"name": name, "language": language}),
				FilePath: relPath, Language: language,
			}) {
				fd.Edges = append(fd.Edges, graphmodel.NewEdge(graphmodel.EdgeDefines, parentFn.label, parentFn.qn, graphmodel.LabelFunction, qn, nil))
			}
			funcScopes = append(funcScopes, scope{qn: qn, label: graphmodel.LabelFunction, startByte: cap.startByte, endByte: cap.endByte})
			continue
		}

		qn := graphmodel.QN(fd.ModuleQN, name)
		if reg.Insert(Descriptor{
			Node:     graphmodel.NewNode(graphmodel.LabelFunction, qn, map[string]any{"name": name, "language": language}),
			FilePath: relPath, Language: language,
		}) {
			fd.Edges = append(fd.Edges, graphmodel.NewEdge(graphmodel.EdgeDefines, graphmodel.LabelModule, fd.ModuleQN, graphmodel.LabelFunction, qn, nil))
		}
		funcScopes = append(funcScopes, scope{qn: qn, label: graphmodel.LabelFunction, startByte: cap.startByte, endByte: cap.endByte})
	}

	for _, c := range parsed.Captures[langregistry.QueryImports] {
		if c.Name != "path" {
			continue
		}
		raw := strings.Trim(c.Node.Content(parsed.Content), `"'`)
		if raw == "" {
			continue
		}
		fd.Imports = append(fd.Imports, UnresolvedImport{ModuleQN: fd.ModuleQN, Raw: raw})
	}

	for _, cap := range groupByOuterCapture(parsed.Captures[langregistry.QueryCalls], parsed.Content) {
		callee := cap.name
		if callee == "" {
			continue
		}
		caller, ok := innermostContaining(funcScopes, cap.startByte)
		callerQN := fd.ModuleQN
		if ok {
			callerQN = caller.qn
		}
		kind := CallFree
		if strings.Contains(callee, ".") {
			kind = CallQualified
		}
		fd.Calls = append(fd.Calls, UnresolvedCall{CallerQN: callerQN, Name: callee, Kind: kind})
	}

	return fd
}

func lastSegment(qn string) string {
	idx := strings.LastIndex(qn, ".")
	if idx < 0 {
		return qn
	}
	return qn[idx+1:]
}

// capturedEntity pairs an outer capture's byte range with its @name
// child's text, since a capture query yields separate Capture values
// for the outer node and its name child.
type capturedEntity struct {
	name      string
	outerType string
	startByte uint32
	endByte   uint32
}

// groupByOuterCapture folds a flat capture list (alternating outer-node
// and "name"/"callee"/"fn" captures from the same match) into one
// entry per outer node.
func groupByOuterCapture(caps []parser.Capture, content []byte) []capturedEntity {
	var out []capturedEntity
	var pending *capturedEntity
	for _, c := range caps {
		switch c.Name {
		case "function", "class", "struct", "call", "test":
			if pending != nil {
				out = append(out, *pending)
			}
			pending = &capturedEntity{outerType: c.Node.Type(), startByte: c.Node.StartByte(), endByte: c.Node.EndByte()}
		case "name", "callee", "fn":
			if pending != nil {
				pending.name = c.Node.Content(content)
			}
		}
	}
	if pending != nil {
		out = append(out, *pending)
	}
	return out
}

// innermostContaining returns the smallest-range scope containing pos,
// i.e. the nearest lexical/structural parent.
func innermostContaining(scopes []scope, pos uint32) (scope, bool) {
	var best scope
	found := false
	for _, s := range scopes {
		if pos >= s.startByte && pos < s.endByte {
			if !found || (s.endByte-s.startByte) < (best.endByte-best.startByte) {
				best = s
				found = true
			}
		}
	}
	return best, found
}

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
	"strings"

	"github.com/kraklabs/graphupdater/pkg/definer"
	"github.com/kraklabs/graphupdater/pkg/discovery"
	"github.com/kraklabs/graphupdater/pkg/graphmodel"
)

// buildContainment derives the Project→Folder→File forest from the
// discovered file list and emits a File node plus CONTAINS_MODULE edge
// to each file's Module, giving every node exactly one containment
// path to the Project root without needing language-specific package
// resolution. Directory levels double as both Folder nodes here: this
// implementation does not emit a separate Package node using the
// Package label, since package grouping is language-specific (Go
// directory packages, Python __init__.py packages, Java/Scala
// package declarations differ enough that a single generic rule would
// either over- or under-group) — DESIGN.md records this simplification.
func buildContainment(project string, files []discovery.File) (nodes []graphmodel.Node, edges []graphmodel.Edge) {
	nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelProject, project, map[string]any{"name": project}))

	seenFolders := make(map[string]bool)

	for _, f := range files {
		dir := parentDir(f.RelPath)
		ensureFolderChain(project, dir, seenFolders, &nodes, &edges)

		fileQN := graphmodel.QN(project, strings.ReplaceAll(f.RelPath, "/", "."))
		nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelFile, fileQN, map[string]any{
			"name": baseName(f.RelPath), "path": f.RelPath, "language": f.Language, "size": f.Size,
		}))

		parentQN, parentLbl := project, graphmodel.LabelProject
		if dir != "" {
			parentQN = graphmodel.QN(project, strings.ReplaceAll(dir, "/", "."))
			parentLbl = graphmodel.LabelFolder
		}
		edges = append(edges, graphmodel.NewEdge(graphmodel.EdgeContainsFile, parentLbl, parentQN, graphmodel.LabelFile, fileQN, nil))

		moduleQN := definer.ModuleQN(project, f.RelPath)
		edges = append(edges, graphmodel.NewEdge(graphmodel.EdgeContainsModule, graphmodel.LabelFile, fileQN, graphmodel.LabelModule, moduleQN, nil))
	}

	return nodes, edges
}

// ensureFolderChain walks dir's ancestor chain, emitting a Folder node
// and CONTAINS_FOLDER edge from its parent (Folder or Project root) for
// every level not already seen this run.
func ensureFolderChain(project, dir string, seen map[string]bool, nodes *[]graphmodel.Node, edges *[]graphmodel.Edge) {
	if dir == "" || seen[dir] {
		return
	}
	parent := parentDir(dir)
	ensureFolderChain(project, parent, seen, nodes, edges)
	seen[dir] = true

	folderQN := graphmodel.QN(project, strings.ReplaceAll(dir, "/", "."))
	*nodes = append(*nodes, graphmodel.NewNode(graphmodel.LabelFolder, folderQN, map[string]any{"name": baseName(dir), "path": dir}))

	parentQN, parentLbl := project, graphmodel.LabelProject
	if parent != "" {
		parentQN = graphmodel.QN(project, strings.ReplaceAll(parent, "/", "."))
		parentLbl = graphmodel.LabelFolder
	}
	*edges = append(*edges, graphmodel.NewEdge(graphmodel.EdgeContainsFolder, parentLbl, parentQN, graphmodel.LabelFolder, folderQN, nil))
}

func parentDir(relPath string) string {
	idx := strings.LastIndex(relPath, "/")
	if idx < 0 {
		return ""
	}
	return relPath[:idx]
}

func baseName(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

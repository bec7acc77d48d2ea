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

// Package ingest wires every pipeline stage (discovery, parsing,
// definition, resolution, analyzers, graph writing) into two
// operations: Pipeline.Run (ingest), which produces a run-scoped
// summary, and Pipeline.EnsureIndexes. The package has no export
// operation.
package ingest

import (
	"github.com/kraklabs/graphupdater/pkg/discovery"
	"github.com/kraklabs/graphupdater/pkg/graph"
)

// MacroExpansionMode controls which macro table the pipeline hands
// pkg/analyzers/ckernel when resolving EXPANDS_TO: the using file's own
// macros, or every macro defined in the project. The #include graph
// is not tracked, so neither mode follows #include edges.
type MacroExpansionMode string

const (
	// MacroExpansionTranslationUnit expands macros only within the
	// file that invokes them (the default — matches the narrower,
	// safer reading of the source behavior).
	MacroExpansionTranslationUnit MacroExpansionMode = "translation_unit"
	// MacroExpansionIncludeClosure matches usages against every macro
	// defined anywhere in the project, whether or not the using file
	// includes the defining file; MacroExpansionMaxDepth is not applied.
	MacroExpansionIncludeClosure MacroExpansionMode = "include_closure"
)

// MacroExpansionMaxDepth is the #include hop bound for
// MacroExpansionIncludeClosure. The pipeline does not read it, since
// it follows no #include edges.
const MacroExpansionMaxDepth = 3

// Config is the full option set for one ingest run.
type Config struct {
	ProjectName string
	Source      discovery.Source

	FolderFilter []string
	FilePatterns []string
	SkipTests    bool
	MaxFileSize  int64

	ExternalRoots []string

	MacroExpansion MacroExpansionMode

	ParseWorkers int
	BatchRows    int

	Graph graph.Config

	Quiet      bool
	JSONOutput bool
	NoColor    bool
}

// DefaultConfig returns the zero-value-safe defaults applied when a
// field is left unset
func DefaultConfig() Config {
	return Config{
		MaxFileSize:    50 << 20,
		MacroExpansion: MacroExpansionTranslationUnit,
		BatchRows:      1000,
	}
}

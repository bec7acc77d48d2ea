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

// Package parser drives the tree-sitter grammar registered for a file's
// language over its contents and returns a concrete syntax tree plus
// pre-computed capture sets, tolerating ERROR nodes in the root
// (tree.RootNode().HasError() + countErrors) so a single malformed
// construct doesn't abort extraction for the rest of the file, for any
// langregistry entry instead of only Go.
package parser

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/exp/mmap"

	"github.com/kraklabs/graphupdater/pkg/langregistry"
)

// MmapThreshold is the file size above which reads go through a
// memory-mapped view instead of a full os.ReadFile
const MmapThreshold = 10 << 20 // 10 MB

// HardSkipCap is the file size above which a file is skipped entirely
// with a FileTooLarge warning
const HardSkipCap = 50 << 20 // 50 MB

// ErrFileTooLarge is returned (wrapped with the path) when a file
// exceeds HardSkipCap.
var ErrFileTooLarge = fmt.Errorf("file exceeds hard size cap")

// ParseError wraps a genuine grammar-level failure — never a syntax
// error in the parsed file, which is tolerated
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Path, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Result is one file's parse output: the tree (caller must Close it),
// whether the grammar reported any ERROR node, and captures for every
// named query the language defines.
type Result struct {
	Tree         *sitter.Tree
	Content      []byte
	HasErrors    bool
	ErrorCount   int
	Captures     map[langregistry.QueryName][]Capture
}

// Capture is one matched node from a named capture query.
type Capture struct {
	Name string
	Node *sitter.Node
}

// Close releases the underlying tree. Safe to call on a nil Result.
func (r *Result) Close() {
	if r != nil && r.Tree != nil {
		r.Tree.Close()
	}
}

// ReadContent loads a file's bytes, memory-mapping files at or above
// MmapThreshold and skipping (ErrFileTooLarge) files at or above
// HardSkipCap
func ReadContent(path string, size int64) ([]byte, error) {
	if size >= HardSkipCap {
		return nil, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, path, size)
	}
	if size < MmapThreshold {
		return os.ReadFile(path)
	}

	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap open %s: %w", path, err)
	}
	defer r.Close()

	buf := make([]byte, r.Len())
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("mmap read %s: %w", path, err)
	}
	return buf, nil
}

// Parse runs entry's grammar over content and returns the resulting
// tree plus every named capture query's matches. A grammar panic
// surfaces as *ParseError; an ERROR-root tree is still returned with
// HasErrors set.
func Parse(ctx context.Context, entry *langregistry.Entry, path string, content []byte) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ParseError{Path: path, Err: fmt.Errorf("grammar panic: %v", r)}
		}
	}()

	p := sitter.NewParser()
	p.SetLanguage(entry.Grammar)

	tree, perr := p.ParseCtx(ctx, nil, content)
	if perr != nil {
		return nil, &ParseError{Path: path, Err: perr}
	}

	root := tree.RootNode()
	hasErrors := root.HasError()
	errCount := 0
	if hasErrors {
		errCount = countErrors(root)
	}

	captures := make(map[langregistry.QueryName][]Capture)
	for _, qn := range []langregistry.QueryName{
		langregistry.QueryFunctions, langregistry.QueryClasses,
		langregistry.QueryCalls, langregistry.QueryImports, langregistry.QueryTests,
	} {
		q := entry.Query(qn)
		if q == nil {
			continue
		}
		captures[qn] = runQuery(q, entry.Grammar, root, content)
	}

	return &Result{
		Tree: tree, Content: content, HasErrors: hasErrors,
		ErrorCount: errCount, Captures: captures,
	}, nil
}

func runQuery(q *sitter.Query, lang *sitter.Language, root *sitter.Node, content []byte) []Capture {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	var out []Capture
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range match.Captures {
			name := q.CaptureNameForId(c.Index)
			out = append(out, Capture{Name: name, Node: c.Node})
		}
	}
	return out
}

// countErrors walks the tree counting ERROR nodes, used only for
// diagnostics/logging — best-effort extraction proceeds regardless.
func countErrors(n *sitter.Node) int {
	count := 0
	if n.Type() == "ERROR" {
		count++
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		count += countErrors(n.Child(i))
	}
	return count
}

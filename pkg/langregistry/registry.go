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

// Package langregistry is the single process-wide table of supported
// languages: grammar handle, extension set, node-kind→entity-category
// map, and named capture queries, populated once at startup as a
// table-driven registry covering every supported language.
package langregistry

import (
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/scala"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// EntityCategory is what a grammar node-kind maps to for Pass-1 purposes.
type EntityCategory string

const (
	CategoryFunction EntityCategory = "function"
	CategoryMethod   EntityCategory = "method"
	CategoryClass    EntityCategory = "class"
	CategoryStruct   EntityCategory = "struct"
	CategoryImport   EntityCategory = "import"
	CategoryCall     EntityCategory = "call"
	CategoryTest     EntityCategory = "test"
)

// QueryName identifies one of the named capture queries a language entry
// exposes ("functions, classes, calls, imports, tests").
type QueryName string

const (
	QueryFunctions QueryName = "functions"
	QueryClasses   QueryName = "classes"
	QueryCalls     QueryName = "calls"
	QueryImports   QueryName = "imports"
	QueryTests     QueryName = "tests"
)

// Entry is one language's registry row.
type Entry struct {
	Name       string
	Grammar    *sitter.Language
	Extensions map[string]bool
	NodeKinds  map[string]EntityCategory
	// queries holds compiled *sitter.Query objects, built once at
	// Populate time so capture results stay deterministic for identical
	// bytes — never recompiled per file.
	queries map[QueryName]*sitter.Query
}

// Query returns the compiled capture query for name, or nil if this
// language doesn't define one.
func (e *Entry) Query(name QueryName) *sitter.Query { return e.queries[name] }

// Registry is the process-wide, read-only-after-Populate language table.
type Registry struct {
	mu        sync.RWMutex
	byName    map[string]*Entry
	byExt     map[string]*Entry
	populated bool
}

// New constructs an empty Registry; call Populate before use.
func New() *Registry {
	return &Registry{byName: make(map[string]*Entry), byExt: make(map[string]*Entry)}
}

// specLanguage groups a language's grammar + extensions + query source,
// so Populate can build all nine entries from one table.
type specLanguage struct {
	name       string
	grammar    *sitter.Language
	extensions []string
	nodeKinds  map[string]EntityCategory
	queries    map[QueryName]string
}

// Populate builds and compiles every registry entry. It is idempotent
// and safe to call once at process startup; Query/Lookup calls after
// that only read.
func (r *Registry) Populate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.populated {
		return nil
	}

	for _, sl := range specLanguages() {
		entry := &Entry{
			Name:       sl.name,
			Grammar:    sl.grammar,
			Extensions: toSet(sl.extensions),
			NodeKinds:  sl.nodeKinds,
			queries:    make(map[QueryName]*sitter.Query),
		}
		for qn, src := range sl.queries {
			if src == "" {
				continue
			}
			q, err := sitter.NewQuery([]byte(src), sl.grammar)
			if err != nil {
				return fmt.Errorf("langregistry: compile %s/%s query: %w", sl.name, qn, err)
			}
			entry.queries[qn] = q
		}
		r.byName[sl.name] = entry
		for ext := range entry.Extensions {
			r.byExt[ext] = entry
		}
	}
	r.populated = true
	return nil
}

// Lookup returns the entry for a language name ("go", "python", ...).
func (r *Registry) Lookup(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[name]
	return e, ok
}

// ByExtension returns the entry whose extension set contains ext
// (including the leading dot, e.g. ".go").
func (r *Registry) ByExtension(ext string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byExt[ext]
	return e, ok
}

// ByExtensionName returns the language name for an extension (including
// the leading dot), satisfying discovery.Languager without that package
// needing to import tree-sitter types.
func (r *Registry) ByExtensionName(ext string) (string, bool) {
	e, ok := r.ByExtension(ext)
	if !ok {
		return "", false
	}
	return e.Name, true
}

// Languages returns every populated language name, for diagnostics.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	return names
}

func toSet(exts []string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[e] = true
	}
	return m
}

func specLanguages() []specLanguage {
	return []specLanguage{
		{
			name: "go", grammar: golang.GetLanguage(), extensions: []string{".go"},
			nodeKinds: map[string]EntityCategory{
				"function_declaration": CategoryFunction,
				"method_declaration":   CategoryMethod,
				"type_declaration":     CategoryStruct,
				"import_declaration":   CategoryImport,
				"call_expression":      CategoryCall,
			},
			queries: map[QueryName]string{
				QueryFunctions: `(function_declaration name: (identifier) @name) @function`,
				QueryClasses:   `(type_spec name: (type_identifier) @name type: (struct_type)) @struct`,
				QueryCalls:     `(call_expression function: (_) @callee) @call`,
				QueryImports:   `(import_spec path: (interpreted_string_literal) @path) @import`,
				QueryTests:     `(function_declaration name: (identifier) @name (#match? @name "^Test")) @test`,
			},
		},
		{
			name: "python", grammar: python.GetLanguage(), extensions: []string{".py", ".pyi"},
			nodeKinds: map[string]EntityCategory{
				"function_definition": CategoryFunction,
				"class_definition":    CategoryClass,
				"import_statement":    CategoryImport,
				"import_from_statement": CategoryImport,
				"call":                CategoryCall,
			},
			queries: map[QueryName]string{
				QueryFunctions: `(function_definition name: (identifier) @name) @function`,
				QueryClasses:   `(class_definition name: (identifier) @name) @class`,
				QueryCalls:     `(call function: (_) @callee) @call`,
				QueryImports:   `(import_statement) @import`,
				QueryTests:     `(function_definition name: (identifier) @name (#match? @name "^test_")) @test`,
			},
		},
		{
			name: "javascript", grammar: javascript.GetLanguage(), extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
			nodeKinds: map[string]EntityCategory{
				"function_declaration": CategoryFunction,
				"method_definition":    CategoryMethod,
				"class_declaration":    CategoryClass,
				"import_statement":     CategoryImport,
				"call_expression":      CategoryCall,
			},
			queries: map[QueryName]string{
				QueryFunctions: `(function_declaration name: (identifier) @name) @function`,
				QueryClasses:   `(class_declaration name: (identifier) @name) @class`,
				QueryCalls:     `(call_expression function: (_) @callee) @call`,
				QueryImports:   `(import_statement source: (string) @path) @import`,
				QueryTests:     `(call_expression function: (identifier) @fn (#match? @fn "^(it|test)$")) @test`,
			},
		},
		{
			name: "typescript", grammar: typescript.GetLanguage(), extensions: []string{".ts", ".tsx"},
			nodeKinds: map[string]EntityCategory{
				"function_declaration": CategoryFunction,
				"method_definition":    CategoryMethod,
				"class_declaration":    CategoryClass,
				"import_statement":     CategoryImport,
				"call_expression":      CategoryCall,
			},
			queries: map[QueryName]string{
				QueryFunctions: `(function_declaration name: (identifier) @name) @function`,
				QueryClasses:   `(class_declaration name: (type_identifier) @name) @class`,
				QueryCalls:     `(call_expression function: (_) @callee) @call`,
				QueryImports:   `(import_statement source: (string) @path) @import`,
				QueryTests:     `(call_expression function: (identifier) @fn (#match? @fn "^(it|test|describe)$")) @test`,
			},
		},
		{
			name: "rust", grammar: rust.GetLanguage(), extensions: []string{".rs"},
			nodeKinds: map[string]EntityCategory{
				"function_item": CategoryFunction,
				"struct_item":   CategoryStruct,
				"impl_item":     CategoryClass,
				"use_declaration": CategoryImport,
				"call_expression": CategoryCall,
			},
			queries: map[QueryName]string{
				QueryFunctions: `(function_item name: (identifier) @name) @function`,
				QueryClasses:   `(struct_item name: (type_identifier) @name) @struct`,
				QueryCalls:     `(call_expression function: (_) @callee) @call`,
				QueryImports:   `(use_declaration argument: (_) @path) @import`,
				QueryTests:     `(attribute_item (attribute (identifier) @attr) (#eq? @attr "test")) @test`,
			},
		},
		{
			name: "java", grammar: java.GetLanguage(), extensions: []string{".java"},
			nodeKinds: map[string]EntityCategory{
				"method_declaration": CategoryMethod,
				"class_declaration":  CategoryClass,
				"import_declaration": CategoryImport,
				"method_invocation":  CategoryCall,
			},
			queries: map[QueryName]string{
				QueryFunctions: `(method_declaration name: (identifier) @name) @function`,
				QueryClasses:   `(class_declaration name: (identifier) @name) @class`,
				QueryCalls:     `(method_invocation name: (identifier) @callee) @call`,
				QueryImports:   `(import_declaration (scoped_identifier) @path) @import`,
				QueryTests:     `(marker_annotation name: (identifier) @ann (#eq? @ann "Test")) @test`,
			},
		},
		{
			name: "scala", grammar: scala.GetLanguage(), extensions: []string{".scala"},
			nodeKinds: map[string]EntityCategory{
				"function_definition": CategoryFunction,
				"class_definition":    CategoryClass,
				"object_definition":   CategoryClass,
				"import_declaration":  CategoryImport,
				"call_expression":     CategoryCall,
			},
			queries: map[QueryName]string{
				QueryFunctions: `(function_definition name: (identifier) @name) @function`,
				QueryClasses:   `(class_definition name: (identifier) @name) @class`,
				QueryCalls:     `(call_expression function: (_) @callee) @call`,
				QueryImports:   `(import_declaration) @import`,
			},
		},
		{
			name: "cpp", grammar: cpp.GetLanguage(), extensions: []string{".cpp", ".cc", ".cxx", ".hpp", ".hh"},
			nodeKinds: map[string]EntityCategory{
				"function_definition": CategoryFunction,
				"class_specifier":     CategoryClass,
				"struct_specifier":    CategoryStruct,
				"preproc_include":     CategoryImport,
				"call_expression":     CategoryCall,
			},
			queries: map[QueryName]string{
				QueryFunctions: `(function_definition declarator: (function_declarator declarator: (identifier) @name)) @function`,
				QueryClasses:   `(class_specifier name: (type_identifier) @name) @class`,
				QueryCalls:     `(call_expression function: (identifier) @callee) @call`,
				QueryImports:   `(preproc_include path: (_) @path) @import`,
			},
		},
		{
			name: "c", grammar: c.GetLanguage(), extensions: []string{".c", ".h"},
			nodeKinds: map[string]EntityCategory{
				"function_definition": CategoryFunction,
				"struct_specifier":    CategoryStruct,
				"preproc_include":     CategoryImport,
				"preproc_def":         CategoryClass,
				"call_expression":     CategoryCall,
				"preproc_function_def": CategoryClass,
			},
			queries: map[QueryName]string{
				QueryFunctions: `(function_definition declarator: (function_declarator declarator: (identifier) @name)) @function`,
				QueryCalls:     `(call_expression function: (identifier) @callee) @call`,
				QueryImports:   `(preproc_include path: (_) @path) @import`,
			},
		},
	}
}

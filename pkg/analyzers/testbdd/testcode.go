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

// Package testbdd detects test code and Gherkin behavior
// specifications: TestSuite/TestCase/Assertion nodes
// from source files already flagged as tests, plus BDDFeature/
// BDDScenario/BDDStep from .feature files, plus the step-definition
// linker that connects a step's text to the function implementing it.
package testbdd

import (
	"regexp"
	"strings"

	"github.com/kraklabs/graphupdater/pkg/definer"
	"github.com/kraklabs/graphupdater/pkg/graphmodel"
	"github.com/kraklabs/graphupdater/pkg/langregistry"
	"github.com/kraklabs/graphupdater/pkg/parser"
)

// suiteNameRe matches class/struct names shaped like a test suite:
// unittest's TestFoo/FooTest, JUnit/Go convention Foo(Test|Tests|Suite).
var suiteNameRe = regexp.MustCompile(`(?i)^(test_?\w*|\w*_?(test|tests|suite|testcase))$`)

// assertionRe matches common cross-framework assertion call shapes:
// pytest/unittest (bare assert statements, self.assertX), JS (expect(...), assert(...)),
// Go testing (t.Error*/t.Fatal*), Java/JUnit (assertX(...)), C++ (XCTAssert*).
var assertionRe = regexp.MustCompile(`\b(?:(?:assert\w*|self\.assert\w+|expect|require\.\w+|t\.(?:Error|Fatal)\w*|XCTAssert\w*)\s*\(|assert\s)`)

// testEntity pairs a QueryTests capture's name with its node's byte
// range, mirroring definer's own capturedEntity since that type is
// unexported.
type testEntity struct {
	name      string
	startByte uint32
	endByte   uint32
}

// AnalyzeTestCaptures builds TestCase/TestSuite/Assertion nodes and
// IN_TEST/IN_SUITE edges from a file's already-computed QueryTests
// captures. moduleQN ties each TestCase's QN to the same file the
// definer package used; classes is that same file's class/struct
// scopes (definer.FileDefinitions.Classes), used to detect when a test
// case lives inside a suite-shaped class (unittest.TestCase, JUnit).
func AnalyzeTestCaptures(moduleQN string, parsed *parser.Result, classes []definer.ClassScope) ([]graphmodel.Node, []graphmodel.Edge) {
	tests := groupTests(parsed.Captures[langregistry.QueryTests], parsed.Content)
	if len(tests) == 0 {
		return nil, nil
	}

	var nodes []graphmodel.Node
	var edges []graphmodel.Edge
	emittedSuites := make(map[string]bool)

	for _, tc := range tests {
		if tc.name == "" {
			continue
		}
		qn := graphmodel.QN(moduleQN, tc.name)
		nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelTestCase, qn, map[string]any{"name": tc.name}))

		if suite, ok := enclosingSuite(classes, tc.startByte); ok {
			if !emittedSuites[suite.QN] {
				emittedSuites[suite.QN] = true
				nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelTestSuite, suite.QN, map[string]any{"name": lastPart(suite.QN)}))
			}
			edges = append(edges, graphmodel.NewEdge(graphmodel.EdgeInSuite, graphmodel.LabelTestCase, qn, graphmodel.LabelTestSuite, suite.QN, nil))
		}

		body := string(parsed.Content[tc.startByte:tc.endByte])
		for i, m := range assertionRe.FindAllStringIndex(body, -1) {
			assertQN := graphmodel.QN(qn, "assert", itoa(i))
			nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelAssertion, assertQN, map[string]any{
				"call": body[m[0]:m[1]],
			}))
			edges = append(edges, graphmodel.NewEdge(graphmodel.EdgeInTest, graphmodel.LabelAssertion, assertQN, graphmodel.LabelTestCase, qn, nil))
		}
	}
	return nodes, edges
}

// enclosingSuite finds the smallest suite-shaped class/struct scope
// containing pos, if any.
func enclosingSuite(classes []definer.ClassScope, pos uint32) (definer.ClassScope, bool) {
	var best definer.ClassScope
	found := false
	for _, c := range classes {
		if pos < c.StartByte || pos >= c.EndByte {
			continue
		}
		if !suiteNameRe.MatchString(lastPart(c.QN)) {
			continue
		}
		if !found || (c.EndByte-c.StartByte) < (best.EndByte-best.StartByte) {
			best = c
			found = true
		}
	}
	return best, found
}

func lastPart(qn string) string {
	idx := strings.LastIndex(qn, ".")
	if idx < 0 {
		return qn
	}
	return qn[idx+1:]
}

func groupTests(caps []parser.Capture, content []byte) []testEntity {
	var out []testEntity
	var pending *testEntity
	for _, c := range caps {
		switch c.Name {
		case "test":
			if pending != nil {
				out = append(out, *pending)
			}
			pending = &testEntity{startByte: c.Node.StartByte(), endByte: c.Node.EndByte()}
		case "name", "fn":
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

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

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

package testbdd

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/kraklabs/graphupdater/pkg/graphmodel"
)

// Gherkin has no tree-sitter grammar in the shared language registry,
// so .feature files are scanned line by line instead, the same
// tradeoff already made for C macro idioms in pkg/analyzers/ckernel:
// a hand-written query against a grammar this module can never build
// and verify is a worse bet than a small, readable line scanner.
var (
	featureRe  = regexp.MustCompile(`(?i)^\s*Feature:\s*(.+)$`)
	scenarioRe = regexp.MustCompile(`(?i)^\s*Scenario(?:\s+Outline)?:\s*(.+)$`)
	stepRe     = regexp.MustCompile(`(?i)^\s*(Given|When|Then|And|But)\s+(.+)$`)
)

// Step is one Gherkin step line, with And/But resolved to the keyword
// of the step they continue.
type Step struct {
	QN      string
	Keyword string
	Text    string
}

// ParseFeature reads a .feature file's content and emits
// BDDFeature/BDDScenario/BDDStep nodes plus IN_FEATURE/IN_SCENARIO
// edges. featureQN roots the QNs, typically the file's module QN.
// The returned steps are handed to LinkSteps for step-definition
// matching.
func ParseFeature(featureQN string, content []byte) ([]graphmodel.Node, []graphmodel.Edge, []Step) {
	var nodes []graphmodel.Node
	var edges []graphmodel.Edge
	var steps []Step

	scanner := bufio.NewScanner(bytes.NewReader(content))
	var currentFeatureQN string
	var currentScenarioQN string
	var lastKeyword string
	scenarioIndex := 0
	stepIndex := 0

	for scanner.Scan() {
		line := scanner.Text()

		if m := featureRe.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[1])
			currentFeatureQN = graphmodel.QN(featureQN, "feature")
			nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelBDDFeature, currentFeatureQN, map[string]any{"name": name}))
			continue
		}

		if m := scenarioRe.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[1])
			scenarioIndex++
			currentScenarioQN = graphmodel.QN(featureQN, "scenario", itoa(scenarioIndex))
			stepIndex = 0
			lastKeyword = ""
			nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelBDDScenario, currentScenarioQN, map[string]any{"name": name}))
			if currentFeatureQN != "" {
				edges = append(edges, graphmodel.NewEdge(graphmodel.EdgeInFeature, graphmodel.LabelBDDScenario, currentScenarioQN, graphmodel.LabelBDDFeature, currentFeatureQN, nil))
			}
			continue
		}

		if m := stepRe.FindStringSubmatch(line); m != nil && currentScenarioQN != "" {
			keyword := strings.Title(strings.ToLower(m[1]))
			text := strings.TrimSpace(m[2])
			if keyword == "And" || keyword == "But" {
				if lastKeyword == "" {
					continue
				}
				keyword = lastKeyword
			} else {
				lastKeyword = keyword
			}
			stepIndex++
			stepQN := graphmodel.QN(currentScenarioQN, "step", itoa(stepIndex))
			nodes = append(nodes, graphmodel.NewNode(graphmodel.LabelBDDStep, stepQN, map[string]any{
				"keyword": keyword,
				"text":    text,
			}))
			edges = append(edges, graphmodel.NewEdge(graphmodel.EdgeInScenario, graphmodel.LabelBDDStep, stepQN, graphmodel.LabelBDDScenario, currentScenarioQN, nil))
			steps = append(steps, Step{QN: stepQN, Keyword: keyword, Text: text})
		}
	}

	return nodes, edges, steps
}

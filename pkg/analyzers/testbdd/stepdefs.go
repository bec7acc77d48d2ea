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
	"regexp"
	"strings"

	"github.com/kraklabs/graphupdater/pkg/graphmodel"
)

// StepBinding is a registered step-definition: a keyword, the pattern
// it matches, and the QN of the function implementing it. Patterns
// come from three conventions seen across the ecosystem: Python behave
// decorators, JS/Cucumber step registrations, and Go godog's ctx.Step.
type StepBinding struct {
	Keyword  string
	Pattern  string
	Regexp   *regexp.Regexp
	TargetQN string
}

var (
	behaveStepRe = regexp.MustCompile(`(?m)^\s*@(given|when|then)\(\s*['"]([^'"]*)['"]\s*\)\s*\n\s*def\s+(\w+)`)
	jsStepRe     = regexp.MustCompile(`(?m)\b(Given|When|Then)\(\s*['"]([^'"]*)['"]\s*,\s*(?:function\s*\w*|(?:async\s+)?\([^)]*\)\s*=>|(\w+))`)
	goStepRe     = regexp.MustCompile("(?m)\\.Step\\(\\s*`([^`]*)`\\s*,\\s*(\\w+)")
)

// cucumberPlaceholderRe finds Cucumber-expression placeholders like
// {string}, {int}, {float}, {word} in a step-definition pattern.
var cucumberPlaceholderRe = regexp.MustCompile(`\{(string|int|float|word|double)\}`)

// ExtractStepBindings scans one project file's raw content for
// step-definition registrations, regardless of the file's detected
// language, since Cucumber/behave/godog step files don't always carry
// a distinct extension-based signal and the patterns themselves are
// the more reliable marker.
func ExtractStepBindings(moduleQN string, content []byte) []StepBinding {
	text := string(content)
	var out []StepBinding

	for _, m := range behaveStepRe.FindAllStringSubmatch(text, -1) {
		out = append(out, newBinding(strings.Title(strings.ToLower(m[1])), m[2], graphmodel.QN(moduleQN, m[3])))
	}
	for _, m := range jsStepRe.FindAllStringSubmatch(text, -1) {
		name := m[3]
		if name == "" {
			continue
		}
		out = append(out, newBinding(m[1], m[2], graphmodel.QN(moduleQN, name)))
	}
	for _, m := range goStepRe.FindAllStringSubmatch(text, -1) {
		out = append(out, newBinding("", m[1], graphmodel.QN(moduleQN, m[2])))
	}

	return out
}

func newBinding(keyword, pattern, targetQN string) StepBinding {
	return StepBinding{
		Keyword:  keyword,
		Pattern:  pattern,
		Regexp:   compileStepPattern(pattern),
		TargetQN: targetQN,
	}
}

// compileStepPattern turns a Cucumber-expression step pattern into a Go
// regexp: literal text is escaped first, then each {string}/{int}/...
// placeholder is substituted with a permissive submatch, so escaping
// never touches the regex metacharacters this function itself inserts.
func compileStepPattern(pattern string) *regexp.Regexp {
	var b strings.Builder
	last := 0
	for _, loc := range cucumberPlaceholderRe.FindAllStringIndex(pattern, -1) {
		b.WriteString(regexp.QuoteMeta(pattern[last:loc[0]]))
		b.WriteString(`.+?`)
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(pattern[last:]))

	re, err := regexp.Compile("^" + b.String() + "$")
	if err != nil {
		return nil
	}
	return re
}

// LinkSteps matches each Gherkin step against the project's known
// step-definition bindings, emitting IMPLEMENTS_STEP plus a
// keyword-specific GIVEN_LINKS_TO/WHEN_LINKS_TO/THEN_LINKS_TO edge. A
// step with no matching binding is dropped, same as an unresolved call
// (spec invariant I4's reasoning applied to steps).
func LinkSteps(steps []Step, bindings []StepBinding) []graphmodel.Edge {
	var edges []graphmodel.Edge
	for _, s := range steps {
		binding, ok := matchStep(s, bindings)
		if !ok {
			continue
		}
		edges = append(edges, graphmodel.NewEdge(graphmodel.EdgeImplementsStep, graphmodel.LabelBDDStep, s.QN, graphmodel.LabelFunction, binding.TargetQN, nil))

		var keywordEdge graphmodel.EdgeType
		switch s.Keyword {
		case "Given":
			keywordEdge = graphmodel.EdgeGivenLinksTo
		case "When":
			keywordEdge = graphmodel.EdgeWhenLinksTo
		case "Then":
			keywordEdge = graphmodel.EdgeThenLinksTo
		default:
			continue
		}
		edges = append(edges, graphmodel.NewEdge(keywordEdge, graphmodel.LabelBDDStep, s.QN, graphmodel.LabelFunction, binding.TargetQN, nil))
	}
	return edges
}

func matchStep(s Step, bindings []StepBinding) (StepBinding, bool) {
	for _, b := range bindings {
		if b.Regexp == nil {
			continue
		}
		if b.Keyword != "" && !strings.EqualFold(b.Keyword, s.Keyword) {
			continue
		}
		if b.Regexp.MatchString(s.Text) {
			return b, true
		}
	}
	return StepBinding{}, false
}

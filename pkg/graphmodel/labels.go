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

// Package graphmodel holds the node/edge vocabulary of the code knowledge
// graph: one Go type per label family, QN helpers, and deterministic ID
// generation shared by every package that emits graph entities.
package graphmodel

// Label identifies a node's graph label.
type Label string

const (
	LabelProject          Label = "Project"
	LabelPackage          Label = "Package"
	LabelFolder           Label = "Folder"
	LabelFile             Label = "File"
	LabelModule           Label = "Module"
	LabelClass            Label = "Class"
	LabelStruct           Label = "Struct"
	LabelUnion            Label = "Union"
	LabelEnum             Label = "Enum"
	LabelFunction         Label = "Function"
	LabelMethod           Label = "Method"
	LabelMacro            Label = "Macro"
	LabelGlobalVariable   Label = "GlobalVariable"
	LabelTypedef          Label = "Typedef"
	LabelPointer          Label = "Pointer"
	LabelFunctionPointer  Label = "FunctionPointer"
	LabelSyscall          Label = "Syscall"
	LabelKernelExport     Label = "KernelExport"
	LabelTestSuite        Label = "TestSuite"
	LabelTestCase         Label = "TestCase"
	LabelAssertion        Label = "Assertion"
	LabelBDDFeature       Label = "BDDFeature"
	LabelBDDScenario      Label = "BDDScenario"
	LabelBDDStep          Label = "BDDStep"
	LabelExternalPackage  Label = "ExternalPackage"
	LabelVulnerability    Label = "Vulnerability"
	LabelConfigSetting    Label = "ConfigSetting"
	LabelContributor      Label = "Contributor"
	LabelCommit           Label = "Commit"
)

// EdgeType identifies a relationship's graph type.
type EdgeType string

const (
	EdgeContainsPackage    EdgeType = "CONTAINS_PACKAGE"
	EdgeContainsFolder     EdgeType = "CONTAINS_FOLDER"
	EdgeContainsFile       EdgeType = "CONTAINS_FILE"
	EdgeContainsModule     EdgeType = "CONTAINS_MODULE"
	EdgeDefines            EdgeType = "DEFINES"
	EdgeDefinesMethod      EdgeType = "DEFINES_METHOD"
	EdgeImports            EdgeType = "IMPORTS"
	EdgeExports            EdgeType = "EXPORTS"
	EdgeCircularDependency EdgeType = "CIRCULAR_DEPENDENCY"
	EdgeCalls              EdgeType = "CALLS"
	EdgeInheritsFrom       EdgeType = "INHERITS_FROM"
	EdgeImplements         EdgeType = "IMPLEMENTS"
	EdgeOverrides          EdgeType = "OVERRIDES"
	EdgePointsTo           EdgeType = "POINTS_TO"
	EdgeAssignsFP          EdgeType = "ASSIGNS_FP"
	EdgeInvokesFP          EdgeType = "INVOKES_FP"
	EdgeLocks              EdgeType = "LOCKS"
	EdgeUnlocks            EdgeType = "UNLOCKS"
	EdgeExpandsTo          EdgeType = "EXPANDS_TO"
	EdgeTests              EdgeType = "TESTS"
	EdgeAsserts            EdgeType = "ASSERTS"
	EdgeInSuite            EdgeType = "IN_SUITE"
	EdgeInTest             EdgeType = "IN_TEST"
	EdgeInFeature          EdgeType = "IN_FEATURE"
	EdgeInScenario         EdgeType = "IN_SCENARIO"
	EdgeImplementsStep     EdgeType = "IMPLEMENTS_STEP"
	EdgeGivenLinksTo       EdgeType = "GIVEN_LINKS_TO"
	EdgeWhenLinksTo        EdgeType = "WHEN_LINKS_TO"
	EdgeThenLinksTo        EdgeType = "THEN_LINKS_TO"
	EdgeHasVulnerability   EdgeType = "HAS_VULNERABILITY"
	EdgeFlowsTo            EdgeType = "FLOWS_TO"
	EdgeModifies           EdgeType = "MODIFIES"
	EdgeDependsOnExternal  EdgeType = "DEPENDS_ON_EXTERNAL"
	EdgeModifiedIn         EdgeType = "MODIFIED_IN"
	EdgeAuthored           EdgeType = "AUTHORED"
)

// AllLabels lists every node label in the vocabulary, for index setup
// and property-index fan-out over all 29 label families.
var AllLabels = []Label{
	LabelProject, LabelPackage, LabelFolder, LabelFile, LabelModule,
	LabelClass, LabelStruct, LabelUnion, LabelEnum, LabelFunction, LabelMethod,
	LabelMacro, LabelGlobalVariable, LabelTypedef, LabelPointer, LabelFunctionPointer,
	LabelSyscall, LabelKernelExport, LabelTestSuite, LabelTestCase, LabelAssertion,
	LabelBDDFeature, LabelBDDScenario, LabelBDDStep, LabelExternalPackage,
	LabelVulnerability, LabelConfigSetting, LabelContributor, LabelCommit,
}

// UniqueLabels lists the labels the Index Manager enforces a uniqueness
// constraint on (qualified_name)
var UniqueLabels = []Label{
	LabelProject, LabelModule, LabelClass, LabelFunction, LabelMethod,
}

// IndexedProperties lists the non-uniqueness property indexes the Index
// Manager ensures
var IndexedProperties = []string{"name", "path", "language", "framework", "severity"}

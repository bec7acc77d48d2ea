package testbdd

import (
	"context"
	"testing"

	"github.com/kraklabs/graphupdater/pkg/definer"
	"github.com/kraklabs/graphupdater/pkg/graphmodel"
	"github.com/kraklabs/graphupdater/pkg/langregistry"
	"github.com/kraklabs/graphupdater/pkg/parser"
	"github.com/stretchr/testify/require"
)

func parsePython(t *testing.T, src string) *parser.Result {
	t.Helper()
	reg := langregistry.New()
	require.NoError(t, reg.Populate())
	entry, ok := reg.Lookup("python")
	require.True(t, ok)
	result, err := parser.Parse(context.Background(), entry, "sample.py", []byte(src))
	require.NoError(t, err)
	return result
}

func TestAnalyzeTestCaptures_FreeFunctionWithAssertion(t *testing.T) {
	src := "def test_add():\n    assert 1 + 1 == 2\n"
	parsed := parsePython(t, src)
	defer parsed.Close()

	nodes, edges := AnalyzeTestCaptures("proj.sample", parsed, nil)

	var sawTestCase, sawAssertion bool
	for _, n := range nodes {
		if n.Label == graphmodel.LabelTestCase && n.Properties["name"] == "test_add" {
			sawTestCase = true
		}
		if n.Label == graphmodel.LabelAssertion {
			sawAssertion = true
		}
	}
	require.True(t, sawTestCase)
	require.True(t, sawAssertion)

	var sawInTest bool
	for _, e := range edges {
		if e.Type == graphmodel.EdgeInTest {
			sawInTest = true
		}
	}
	require.True(t, sawInTest)
}

func TestAnalyzeTestCaptures_ClassBasedSuite(t *testing.T) {
	src := "class TestWidget:\n    def test_create(self):\n        assert True\n"
	parsed := parsePython(t, src)
	defer parsed.Close()

	classes := []definer.ClassScope{
		{QN: "proj.sample.TestWidget", Label: graphmodel.LabelClass, StartByte: 0, EndByte: uint32(len(src))},
	}
	nodes, edges := AnalyzeTestCaptures("proj.sample", parsed, classes)

	var sawSuite bool
	for _, n := range nodes {
		if n.Label == graphmodel.LabelTestSuite {
			sawSuite = true
		}
	}
	require.True(t, sawSuite)

	var sawInSuite bool
	for _, e := range edges {
		if e.Type == graphmodel.EdgeInSuite {
			sawInSuite = true
		}
	}
	require.True(t, sawInSuite)
}

func TestAnalyzeTestCaptures_NoTestsReturnsNil(t *testing.T) {
	src := "def add(a, b):\n    return a + b\n"
	parsed := parsePython(t, src)
	defer parsed.Close()

	nodes, edges := AnalyzeTestCaptures("proj.sample", parsed, nil)
	require.Nil(t, nodes)
	require.Nil(t, edges)
}

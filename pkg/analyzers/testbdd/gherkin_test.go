package testbdd

import (
	"testing"

	"github.com/kraklabs/graphupdater/pkg/graphmodel"
	"github.com/stretchr/testify/require"
)

func TestParseFeature_FeatureScenarioSteps(t *testing.T) {
	src := []byte(`Feature: Shopping cart

  Scenario: Add item to cart
    Given an empty cart
    When I add a widget
    Then the cart has 1 item
    And the total is updated
`)
	nodes, edges, steps := ParseFeature("proj.cart", src)

	var sawFeature, sawScenario int
	for _, n := range nodes {
		switch n.Label {
		case graphmodel.LabelBDDFeature:
			sawFeature++
		case graphmodel.LabelBDDScenario:
			sawScenario++
		}
	}
	require.Equal(t, 1, sawFeature)
	require.Equal(t, 1, sawScenario)

	require.Len(t, steps, 4)
	require.Equal(t, "Given", steps[0].Keyword)
	require.Equal(t, "When", steps[1].Keyword)
	require.Equal(t, "Then", steps[2].Keyword)
	require.Equal(t, "Then", steps[3].Keyword, "And inherits the preceding Then")

	var sawInScenario, sawInFeature int
	for _, e := range edges {
		if e.Type == graphmodel.EdgeInScenario {
			sawInScenario++
		}
		if e.Type == graphmodel.EdgeInFeature {
			sawInFeature++
		}
	}
	require.Equal(t, 4, sawInScenario)
	require.Equal(t, 1, sawInFeature)
}

func TestParseFeature_LeadingAndIsIgnored(t *testing.T) {
	src := []byte(`Feature: Orphan
  Scenario: No preceding keyword
    And this has no Given/When/Then before it
`)
	_, _, steps := ParseFeature("proj.orphan", src)
	require.Len(t, steps, 0)
}

package testbdd

import (
	"testing"

	"github.com/kraklabs/graphupdater/pkg/graphmodel"
	"github.com/stretchr/testify/require"
)

func TestExtractStepBindings_Behave(t *testing.T) {
	src := []byte(`
@given('an empty cart')
def step_empty_cart(context):
    context.cart = []
`)
	bindings := ExtractStepBindings("proj.steps", src)
	require.Len(t, bindings, 1)
	require.Equal(t, "Given", bindings[0].Keyword)
	require.Equal(t, graphmodel.QN("proj.steps", "step_empty_cart"), bindings[0].TargetQN)
}

func TestExtractStepBindings_JSCucumber(t *testing.T) {
	src := []byte(`Given('an empty cart', stepEmptyCart);`)
	bindings := ExtractStepBindings("proj.steps", src)
	require.Len(t, bindings, 1)
	require.Equal(t, "Given", bindings[0].Keyword)
	require.Equal(t, graphmodel.QN("proj.steps", "stepEmptyCart"), bindings[0].TargetQN)
}

func TestExtractStepBindings_GoGodog(t *testing.T) {
	src := []byte("ctx.Step(`an empty cart`, anEmptyCart)")
	bindings := ExtractStepBindings("proj.steps", src)
	require.Len(t, bindings, 1)
	require.Equal(t, graphmodel.QN("proj.steps", "anEmptyCart"), bindings[0].TargetQN)
}

func TestLinkSteps_MatchesPlaceholderPattern(t *testing.T) {
	steps := []Step{
		{QN: "proj.feat.scenario.1.step.1", Keyword: "Given", Text: "a cart with 3 items"},
	}
	bindings := []StepBinding{
		newBinding("Given", "a cart with {int} items", "proj.steps.cartWithItems"),
	}
	edges := LinkSteps(steps, bindings)

	var sawImplements, sawGiven bool
	for _, e := range edges {
		if e.Type == graphmodel.EdgeImplementsStep {
			sawImplements = true
		}
		if e.Type == graphmodel.EdgeGivenLinksTo {
			sawGiven = true
		}
	}
	require.True(t, sawImplements)
	require.True(t, sawGiven)
}

func TestLinkSteps_NoMatchDropsStep(t *testing.T) {
	steps := []Step{{QN: "proj.feat.scenario.1.step.1", Keyword: "Given", Text: "something unregistered"}}
	edges := LinkSteps(steps, nil)
	require.Len(t, edges, 0)
}

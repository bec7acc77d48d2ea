package testbdd

import (
	"testing"

	"github.com/kraklabs/graphupdater/pkg/graphmodel"
	"github.com/stretchr/testify/require"
)

func TestLinkTestsToCalls_OnlyKnownTestCases(t *testing.T) {
	callEdges := []graphmodel.Edge{
		graphmodel.NewEdge(graphmodel.EdgeCalls, graphmodel.LabelFunction, "proj.test_widget.test_create", graphmodel.LabelFunction, "proj.widget.create", nil),
		graphmodel.NewEdge(graphmodel.EdgeCalls, graphmodel.LabelFunction, "proj.widget.helper", graphmodel.LabelFunction, "proj.widget.create", nil),
	}
	testCases := map[string]bool{"proj.test_widget.test_create": true}

	edges := LinkTestsToCalls(testCases, callEdges)
	require.Len(t, edges, 1)
	require.Equal(t, graphmodel.EdgeTests, edges[0].Type)
	require.Equal(t, "proj.test_widget.test_create", edges[0].SourceQN)
	require.Equal(t, "proj.widget.create", edges[0].TargetQN)
}

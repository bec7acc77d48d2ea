package cpointer

import (
	"testing"

	"github.com/kraklabs/graphupdater/pkg/graphmodel"
	"github.com/stretchr/testify/require"
)

func resolverFor(names map[string]graphmodel.Label, moduleQN string) Resolver {
	return func(name string) (string, graphmodel.Label, bool) {
		l, ok := names[name]
		if !ok {
			return "", "", false
		}
		return graphmodel.QN(moduleQN, name), l, true
	}
}

func TestAnalyze_AddressOfEmitsPointsTo(t *testing.T) {
	src := []byte(`
int counter;
int main(void) {
	int *p = &counter;
	return 0;
}
`)
	resolve := resolverFor(map[string]graphmodel.Label{"counter": graphmodel.LabelGlobalVariable}, "proj.m")
	nodes, edges := Analyze("proj.m", src, resolve)

	require.Len(t, nodes, 1)
	require.Equal(t, graphmodel.LabelPointer, nodes[0].Label)
	require.Equal(t, 1, nodes[0].Properties["indirection"])

	require.Len(t, edges, 1)
	require.Equal(t, graphmodel.EdgePointsTo, edges[0].Type)
	require.Equal(t, graphmodel.QN("proj.m", "counter"), edges[0].TargetQN)
}

func TestAnalyze_FunctionPointerAssignAndInvoke(t *testing.T) {
	src := []byte(`
int add(int a, int b);
int (*op)(int, int) = add;
int main(void) {
	return op(1, 2);
}
`)
	resolve := resolverFor(map[string]graphmodel.Label{"add": graphmodel.LabelFunction}, "proj.m")
	nodes, edges := Analyze("proj.m", src, resolve)

	require.Len(t, nodes, 1)
	require.Equal(t, graphmodel.LabelFunctionPointer, nodes[0].Label)

	var sawAssign, sawInvoke bool
	for _, e := range edges {
		if e.Type == graphmodel.EdgeAssignsFP {
			sawAssign = true
		}
		if e.Type == graphmodel.EdgeInvokesFP {
			sawInvoke = true
		}
	}
	require.True(t, sawAssign)
	require.True(t, sawInvoke)
}

func TestAnalyze_NoFunctionPointerUseSkipsInvokes(t *testing.T) {
	src := []byte(`int (*op)(int, int) = add;`)
	resolve := resolverFor(map[string]graphmodel.Label{"add": graphmodel.LabelFunction}, "proj.m")
	_, edges := Analyze("proj.m", src, resolve)
	for _, e := range edges {
		require.NotEqual(t, graphmodel.EdgeInvokesFP, e.Type)
	}
}

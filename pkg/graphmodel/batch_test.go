package graphmodel

import "testing"

import "github.com/stretchr/testify/require"

func TestBatcherSplitsByRowCount(t *testing.T) {
	b := NewBatcher(2)
	for i := 0; i < 5; i++ {
		b.AddNode(NewNode(LabelFunction, QN("proj", "m", "f"), nil))
	}
	batches := b.DrainNodes()
	require.Len(t, batches, 3)
	require.Len(t, batches[0].Rows, 2)
	require.Len(t, batches[1].Rows, 2)
	require.Len(t, batches[2].Rows, 1)
	require.True(t, b.Empty())
}

func TestBatcherPreservesFirstSeenOrder(t *testing.T) {
	b := NewBatcher(10)
	b.AddEdge(NewEdge(EdgeCalls, LabelFunction, "a", LabelFunction, "b", nil))
	b.AddEdge(NewEdge(EdgeImports, LabelModule, "a", LabelModule, "b", nil))
	b.AddEdge(NewEdge(EdgeCalls, LabelFunction, "c", LabelFunction, "d", nil))

	batches := b.DrainEdges()
	require.Len(t, batches, 2)
	require.Equal(t, EdgeCalls, batches[0].Type)
	require.Len(t, batches[0].Rows, 2)
	require.Equal(t, EdgeImports, batches[1].Type)
}

func TestQNSkipsEmptySegments(t *testing.T) {
	require.Equal(t, "proj.pkg.mod", QN("proj", "", "pkg", "mod"))
	require.Equal(t, "proj", QN("proj"))
}

func TestNodeIDHashesLongQN(t *testing.T) {
	short := NodeID(LabelFunction, "proj.a.f")
	require.Contains(t, short, "Function:proj.a.f")

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	longID := NodeID(LabelFunction, string(long))
	require.NotContains(t, longID, string(long))
}

package workerpool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PreservesOrderAcrossWorkers(t *testing.T) {
	tasks := make([]Task, 40)
	for i := range tasks {
		tasks[i] = Task{Index: i, Value: i}
	}

	results, errCount := Run(context.Background(), tasks, 4, func(_ context.Context, v any) (any, error) {
		return v.(int) * 2, nil
	})

	require.Equal(t, 0, errCount)
	require.Len(t, results, 40)
	for i, r := range results {
		require.Equal(t, i, r.Index)
		require.Equal(t, i*2, r.Value)
	}
}

func TestRun_SequentialFallbackBelowThreshold(t *testing.T) {
	tasks := []Task{{Index: 0, Value: 1}, {Index: 1, Value: 2}}
	results, errCount := Run(context.Background(), tasks, 8, func(_ context.Context, v any) (any, error) {
		return v, nil
	})
	require.Equal(t, 0, errCount)
	require.Len(t, results, 2)
}

func TestRun_CountsErrors(t *testing.T) {
	tasks := make([]Task, 20)
	for i := range tasks {
		tasks[i] = Task{Index: i, Value: i}
	}
	_, errCount := Run(context.Background(), tasks, 4, func(_ context.Context, v any) (any, error) {
		if v.(int)%2 == 0 {
			return nil, errors.New("boom")
		}
		return v, nil
	})
	require.Equal(t, 10, errCount)
}

func TestDefaultWorkers_AtLeastOne(t *testing.T) {
	require.GreaterOrEqual(t, DefaultWorkers(), 1)
}

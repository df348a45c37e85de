package framework

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreProcessorRunsInOrder(t *testing.T) {
	var steps []string

	pre := NewPreProcessor([]Stage{
		{Name: "a", Fn: func(ctx context.Context) error { steps = append(steps, "a"); return nil }},
		{Name: "b", Fn: func(ctx context.Context) error { steps = append(steps, "b"); return nil }},
		{Name: "c", Fn: func(ctx context.Context) error { steps = append(steps, "c"); return nil }},
	})

	require.NoError(t, pre.Run(context.Background()))
	require.Equal(t, []string{"a", "b", "c"}, steps)
}

func TestPreProcessorStopsOnError(t *testing.T) {
	var steps []string
	boom := errors.New("boom")

	pre := NewPreProcessor([]Stage{
		{Name: "load", Fn: func(ctx context.Context) error { steps = append(steps, "load"); return nil }},
		{Name: "validate", Fn: func(ctx context.Context) error { steps = append(steps, "validate"); return boom }},
		{Name: "execute", Fn: func(ctx context.Context) error { steps = append(steps, "execute"); return nil }},
	})

	err := pre.Run(context.Background())
	require.Error(t, err)
	// 原始错误保留在错误链上，错误信息带出失败阶段名
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "stage validate failed")
	require.Equal(t, []string{"load", "validate"}, steps)
}

func TestPreProcessorEmptyChain(t *testing.T) {
	pre := NewPreProcessor(nil)
	require.NoError(t, pre.Run(context.Background()))
}

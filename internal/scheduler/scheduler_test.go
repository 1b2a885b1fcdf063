package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsBadSpec(t *testing.T) {
	_, err := New(Job{Name: "bad", Spec: "every now and then", Run: func(context.Context) {}})
	assert.Error(t, err)

	_, err = New(Job{Name: "nil", Spec: "@every 1m"})
	assert.Error(t, err)
}

func TestRun_ExecutesJobsUntilCancelled(t *testing.T) {
	var calls atomic.Int32
	s, err := New(Job{Name: "tick", Spec: "@every 1s", Run: func(context.Context) { calls.Add(1) }})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	assert.Equal(t, 1, s.Entries())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

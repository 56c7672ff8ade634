package tasks

import (
	"context"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestPool_RunsSubmittedTasks(t *testing.T) {
	t.Parallel()
	p := NewPool(2, 8, zap.NewNop())

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		p.Submit(func(context.Context) { ran.Add(1) })
	}
	p.Close()

	if got := ran.Load(); got != 5 {
		t.Fatalf("ran %d of 5 tasks", got)
	}
}

func TestPool_SubmitAfterCloseIsDropped(t *testing.T) {
	t.Parallel()
	p := NewPool(1, 1, zap.NewNop())
	p.Close()

	// Must not panic on the closed queue.
	p.Submit(func(context.Context) { t.Error("task ran after close") })
	p.Close() // double close is safe
}

func TestPool_RecoversFromPanic(t *testing.T) {
	t.Parallel()
	p := NewPool(1, 4, zap.NewNop())

	var ran atomic.Bool
	p.Submit(func(context.Context) { panic("boom") })
	p.Submit(func(context.Context) { ran.Store(true) })
	p.Close()

	if !ran.Load() {
		t.Fatalf("worker died after a task panic")
	}
}

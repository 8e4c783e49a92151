package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestTaskRunsTicksUntilStopped(t *testing.T) {
	var count int32
	task := NewTask("test", 5*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&count, 1)
		return nil
	})

	if err := task.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	stopCtx, cancel := WithGracePeriod(context.Background(), time.Second)
	defer cancel()
	if err := task.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if atomic.LoadInt32(&count) == 0 {
		t.Fatal("expected at least one tick to have run")
	}
}

func TestTaskStopIsIdempotent(t *testing.T) {
	task := NewTask("test", time.Hour, func(ctx context.Context) error { return nil })
	if err := task.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	stopCtx, cancel := WithGracePeriod(context.Background(), time.Second)
	defer cancel()
	if err := task.Stop(stopCtx); err != nil {
		t.Fatalf("first stop: %v", err)
	}
	if err := task.Stop(stopCtx); err != nil {
		t.Fatalf("second stop should be a no-op: %v", err)
	}
}

func TestTaskStopTimesOutWhenTickHangs(t *testing.T) {
	release := make(chan struct{})
	task := NewTask("hang", time.Millisecond, func(ctx context.Context) error {
		<-release
		return nil
	})
	if err := task.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	stopCtx, cancel := WithGracePeriod(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := task.Stop(stopCtx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	close(release)
}

func TestTaskContextCancellationStopsLoop(t *testing.T) {
	var count int32
	ctx, cancel := context.WithCancel(context.Background())
	task := NewTask("cancel", 5*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&count, 1)
		return nil
	})
	if err := task.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(15 * time.Millisecond)
	cancel()
	time.Sleep(15 * time.Millisecond)
	seen := atomic.LoadInt32(&count)
	time.Sleep(15 * time.Millisecond)
	if atomic.LoadInt32(&count) != seen {
		t.Fatal("tick kept running after context cancellation")
	}
}

// Package service provides the cancellable long-running task scaffolding
// shared by the tree builder, proof client, and relay driver: a ticking
// loop that finishes its current unit of work before honoring
// cancellation, bounded by a grace period. Grounded on
// pkg/anchor/scheduler.go's ctx+ticker+stopChan shape.
package service

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Service is the uniform lifecycle every long-running task implements.
type Service interface {
	// Start begins the task's loop in the background and returns
	// immediately.
	Start(ctx context.Context) error
	// Stop signals the task to finish its in-flight tick and exit,
	// blocking until it does or ctx's deadline (the grace period)
	// elapses, whichever comes first.
	Stop(ctx context.Context) error
}

// Tick is one iteration of a task's loop body. It must not panic; a
// returned error is logged and does not stop the loop.
type Tick func(ctx context.Context) error

// Metrics are the per-task Prometheus counters the teacher instruments
// every long-running service with (pkg/anchor/scheduler.go's own
// SchedulerMetrics, generalized to a registered collector here since the
// distilled spec names no metrics system but ambient concerns are still
// carried forward).
type Metrics struct {
	Ticks    prometheus.Counter
	Failures prometheus.Counter
}

// NewMetrics registers and returns a Metrics set labeled by task name.
func NewMetrics(registry prometheus.Registerer, task string) *Metrics {
	m := &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "sequencer_task_ticks_total",
			Help:        "Total ticks run by a long-running task.",
			ConstLabels: prometheus.Labels{"task": task},
		}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "sequencer_task_tick_failures_total",
			Help:        "Total tick failures for a long-running task.",
			ConstLabels: prometheus.Labels{"task": task},
		}),
	}
	registry.MustRegister(m.Ticks, m.Failures)
	return m
}

// Task is the concrete Service implementation: tick runs every interval
// until stopped.
type Task struct {
	Name     string
	Interval time.Duration
	Tick     Tick
	Logger   *log.Logger
	Metrics  *Metrics

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewTask returns a Task that calls tick every interval once started.
func NewTask(name string, interval time.Duration, tick Tick) *Task {
	return &Task{
		Name:     name,
		Interval: interval,
		Tick:     tick,
		Logger:   log.New(os.Stderr, "["+name+"] ", log.LstdFlags),
	}
}

// Start begins the loop in a background goroutine.
func (t *Task) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return nil
	}
	t.running = true
	t.stopChan = make(chan struct{})
	t.doneChan = make(chan struct{})

	go t.loop(ctx)
	return nil
}

func (t *Task) loop(ctx context.Context) {
	defer close(t.doneChan)

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopChan:
			return
		case <-ticker.C:
			t.runTick(ctx)
		}
	}
}

func (t *Task) runTick(ctx context.Context) {
	if t.Metrics != nil {
		t.Metrics.Ticks.Inc()
	}
	if err := t.Tick(ctx); err != nil {
		if t.Metrics != nil {
			t.Metrics.Failures.Inc()
		}
		t.Logger.Printf("tick failed: %v", err)
	}
}

// Stop signals the loop to exit after its current tick finishes and
// waits for it, bounded by ctx's deadline.
func (t *Task) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	close(t.stopChan)
	done := t.doneChan
	t.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		t.Logger.Printf("grace period elapsed before tick finished; abandoning")
		return ctx.Err()
	}
}

// WithGracePeriod derives a context bounded by d from parent, suitable
// for passing to Stop.
func WithGracePeriod(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}

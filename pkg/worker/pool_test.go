package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_RunsAllJobs(t *testing.T) {
	p := NewPool(4)

	var n atomic.Int64
	for i := 0; i < 50; i++ {
		if !p.Submit(func(context.Context) error {
			n.Add(1)
			return nil
		}) {
			t.Fatal("Submit refused a job")
		}
	}

	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if n.Load() != 50 {
		t.Errorf("ran %d jobs, want 50", n.Load())
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const workers = 3
	p := NewPool(workers)

	var (
		cur, peak atomic.Int64
		wg        sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		p.Submit(func(context.Context) error {
			defer wg.Done()
			c := cur.Add(1)
			for {
				old := peak.Load()
				if c <= old || peak.CompareAndSwap(old, c) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			cur.Add(-1)
			return nil
		})
	}
	wg.Wait()
	_ = p.Stop(context.Background())

	if peak.Load() > workers {
		t.Errorf("peak concurrency %d exceeds %d workers", peak.Load(), workers)
	}
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := NewPool(1)
	_ = p.Stop(context.Background())
	if p.Submit(func(context.Context) error { return nil }) {
		t.Error("Submit after Stop should be refused")
	}
}

func TestPool_StopDeadlineCancelsJobs(t *testing.T) {
	p := NewPool(1)
	started := make(chan struct{})
	p.Submit(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started

	if p.Active() != 1 {
		t.Errorf("Active = %d, want 1", p.Active())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Stop = %v, want deadline exceeded", err)
	}
}

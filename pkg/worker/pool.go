package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pavelc4/aether-dl-bot/pkg/logger"
)

type Job func(ctx context.Context) error

// Pool runs jobs on a fixed number of goroutines. Submit blocks while the
// queue is full.
type Pool struct {
	maxWorkers int
	jobs       chan Job
	wg         sync.WaitGroup
	mu         sync.RWMutex
	stopped    bool
	active     atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
}

func NewPool(maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		maxWorkers: maxWorkers,
		jobs:       make(chan Job, maxWorkers*2),
		ctx:        ctx,
		cancel:     cancel,
	}
	p.start()
	return p
}

func (p *Pool) start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.active.Add(1)
		if err := job(p.ctx); err != nil {
			logger.Debug("Job failed", "worker", id, "error", err)
		}
		p.active.Add(-1)
	}
}

// Submit queues job. It returns false once the pool is stopping.
func (p *Pool) Submit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return false
	}

	select {
	case p.jobs <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

func (p *Pool) Active() int64 {
	return p.active.Load()
}

// Stop refuses new jobs and waits for queued ones. If ctx ends first the
// running jobs are cancelled and Stop returns ctx.Err() once they exit.
func (p *Pool) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.mu.Lock()
		if !p.stopped {
			p.stopped = true
			close(p.jobs)
		}
		p.mu.Unlock()
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}

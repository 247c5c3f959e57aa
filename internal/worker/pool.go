package worker

import (
	"errors"
	"sync"

	"github.com/baharkarakas/point-service/internal/metrics"
	"github.com/rs/zerolog"
)

var ErrStopped = errors.New("worker pool stopped")

type Task func()

// Pool runs submitted tasks on a fixed set of goroutines. Stop drains the
// queue before returning.
type Pool struct {
	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	jobs    chan Task
	log     zerolog.Logger
}

func NewPool(n, queue int, log zerolog.Logger) *Pool {
	if n < 1 {
		n = 1
	}
	if queue < 1 {
		queue = 1024
	}
	p := &Pool{jobs: make(chan Task, queue), log: log}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				metrics.WorkerQueueDepth.Set(float64(len(p.jobs)))
				p.run(job)
			}
		}()
	}
	return p
}

// Submit blocks while the queue is full.
func (p *Pool) Submit(f Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}
	p.jobs <- f
	metrics.WorkerQueueDepth.Set(float64(len(p.jobs)))
	return nil
}

func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) run(job Task) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error().Interface("panic", rec).Msg("worker task panicked")
		}
	}()
	job()
}

// Package pool manages reusable script workers, each backed by its own
// isolate and context, so callers can run untrusted scripts with a deadline
// without paying isolate startup cost per run.
package pool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/isojs/isojs"
	"github.com/isojs/isojs/internal/logging"
)

var (
	ErrPoolClosed = errors.New("worker pool is closed")
	ErrTimeout    = errors.New("worker acquisition timeout")
)

// Config defines pool configuration.
type Config struct {
	Size           int           // number of workers to pre-create
	ExecTimeout    time.Duration // per-run deadline, 0 disables
	AcquireTimeout time.Duration // wait bound for a free worker
	Logger         *logging.Logger
}

// DefaultConfig returns a pool configuration suitable for serving untrusted
// scripts.
func DefaultConfig() Config {
	return Config{
		Size:           4,
		ExecTimeout:    5 * time.Second,
		AcquireTimeout: 5 * time.Second,
	}
}

// Worker is one isolate with a long-lived context, driven by at most one
// run at a time.
type Worker struct {
	ID  string
	iso *isojs.Isolate
	ctx *isojs.Context

	runs int64
}

func newWorker() *Worker {
	iso := isojs.NewIsolate()
	return &Worker{
		ID:  uuid.NewString(),
		iso: iso,
		ctx: isojs.NewContext(iso),
	}
}

// Context exposes the worker's execution sandbox for callers that need to
// plant globals before running.
func (w *Worker) Context() *isojs.Context { return w.ctx }

// Runs reports how many scripts the worker has executed.
func (w *Worker) Runs() int64 { return w.runs }

func (w *Worker) close() {
	w.ctx.Close()
	w.iso.Dispose()
}

// run executes source with ctx's deadline enforced through forced
// termination.
func (w *Worker) run(ctx context.Context, source, origin string) (*isojs.Value, error) {
	if w.iso.Disposed() {
		return nil, isojs.ErrIsolateDisposed
	}
	w.runs++

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			w.iso.TerminateExecution()
		case <-done:
		}
	}()

	val, err := w.ctx.RunScript(source, origin)
	close(done)
	wg.Wait()

	if err != nil && ctx.Err() != nil {
		// The run was cut short by the deadline, not by the script itself.
		return nil, ctx.Err()
	}
	if err == nil {
		w.iso.PerformMicrotaskCheckpoint()
	}
	return val, err
}

// Result holds one pool execution outcome.
type Result struct {
	Value    *isojs.Value
	JSON     string
	Duration time.Duration
	WorkerID string
}

// Pool manages a fixed set of workers.
type Pool struct {
	config  Config
	workers chan *Worker
	log     *logging.Logger

	mu     sync.RWMutex
	closed bool
}

// New creates a pool and pre-creates its workers.
func New(config Config) (*Pool, error) {
	if config.Size <= 0 {
		config.Size = DefaultConfig().Size
	}
	if config.AcquireTimeout <= 0 {
		config.AcquireTimeout = DefaultConfig().AcquireTimeout
	}
	log := config.Logger
	if log == nil {
		log = logging.NewNop()
	}

	pool := &Pool{
		config:  config,
		workers: make(chan *Worker, config.Size),
		log:     log,
	}
	for i := 0; i < config.Size; i++ {
		w := newWorker()
		log.WithWorker(w.ID).Debug("worker created")
		pool.workers <- w
	}
	return pool, nil
}

// Acquire gets a worker, waiting up to the acquire timeout.
func (p *Pool) Acquire(ctx context.Context) (*Worker, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	select {
	case w := <-p.workers:
		return w, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(p.config.AcquireTimeout):
		return nil, ErrTimeout
	}
}

// Release returns a worker to the pool. A worker whose isolate was burned
// by a forced termination is replaced rather than reused.
func (p *Pool) Release(w *Worker) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		w.close()
		return
	}
	if w.iso.Disposed() || w.iso.IsExecutionTerminating() {
		p.log.WithWorker(w.ID).Warn("replacing terminated worker")
		w.close()
		w = newWorker()
	}

	select {
	case p.workers <- w:
	default:
		w.close()
	}
}

// Run executes source on any free worker, enforcing the pool's execution
// timeout, and serializes the result to JSON.
func (p *Pool) Run(ctx context.Context, source, origin string) (*Result, error) {
	w, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(w)

	if p.config.ExecTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.ExecTimeout)
		defer cancel()
	}

	start := time.Now()
	val, err := w.run(ctx, source, origin)
	elapsed := time.Since(start)
	if err != nil {
		p.log.WithWorker(w.ID).WithScript(origin).Debug("script failed", zap.Error(err))
		return nil, err
	}

	out, err := isojs.JSONStringify(nil, val)
	if err != nil {
		out = val.String()
	}
	return &Result{
		Value:    val,
		JSON:     out,
		Duration: elapsed,
		WorkerID: w.ID,
	}, nil
}

// Stats returns pool statistics.
func (p *Pool) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"size":      p.config.Size,
		"available": len(p.workers),
		"in_use":    p.config.Size - len(p.workers),
		"closed":    p.closed,
	}
}

// Close closes the pool and disposes all workers.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.workers)
	for w := range p.workers {
		w.close()
	}
	return nil
}

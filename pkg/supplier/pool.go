package supplier

import (
	"context"
	"sync"

	"github.com/matzehuels/partscout/pkg/errors"
)

// DefaultPoolSize is the number of supplier searches run at once.
const DefaultPoolSize = 8

// Pool runs jobs on a fixed number of workers. Submit never blocks: jobs
// queue until a worker is free. Workers start on the first Submit.
type Pool struct {
	size int

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*job
	started bool
	closed  bool
	wg      sync.WaitGroup
}

type job struct {
	fn     func() (*Result, error)
	future *Future
}

// NewPool creates a pool with size workers. size <= 0 means DefaultPoolSize.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	p := &Pool{size: size}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Submit queues fn and returns its Future. After Close the Future fails
// immediately with NOT_READY.
func (p *Pool) Submit(fn func() (*Result, error)) *Future {
	f := newFuture()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		f.resolve(nil, errors.New(errors.ErrCodeNotReady, "pool is closed"))
		return f
	}
	if !p.started {
		p.started = true
		p.wg.Add(p.size)
		for range p.size {
			go p.worker()
		}
	}
	p.queue = append(p.queue, &job{fn: fn, future: f})
	p.mu.Unlock()
	p.cond.Signal()
	return f
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		j := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		j.future.resolve(j.fn())
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}

// Future is the pending outcome of a submitted job.
type Future struct {
	done   chan struct{}
	once   sync.Once
	result *Result
	err    error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(res *Result, err error) {
	f.once.Do(func() {
		f.result, f.err = res, err
		close(f.done)
	})
}

// Wait blocks until the job finishes or ctx is done. Giving up on ctx does
// not stop the job.
func (f *Future) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed when the job has finished.
func (f *Future) Done() <-chan struct{} { return f.done }

// Ready reports whether the job has finished.
func (f *Future) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

package geoparquet

import (
	"sync"
	"sync/atomic"
)

// Pool is a reusable fixed-size worker pool for per-row geometry transforms.
// Create one pool, share it across encode and decode calls through
// Options.Pool, and Close it when done. A Pool must not be used after Close.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool starts a pool with the given number of workers. Sizes below one are
// raised to one.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{tasks: make(chan func(), workers)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Close stops the workers after all submitted work has drained. Calling Close
// more than once is a no-op.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

// mapRows runs fn for every row index in [0, n), fanning out across the
// pool's workers and blocking until all rows settle. Each fn invocation must
// be a pure function of its index; results land wherever fn writes them,
// keyed by that index, so output order never depends on completion order. The
// first error wins and rows not yet started are skipped. A nil pool runs the
// rows sequentially on the calling goroutine.
func mapRows(p *Pool, n int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	if p == nil {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		wg       sync.WaitGroup
		failed   atomic.Bool
		errOnce  sync.Once
		firstErr error
	)
	for i := 0; i < n; i++ {
		if failed.Load() {
			break
		}
		i := i
		wg.Add(1)
		p.tasks <- func() {
			defer wg.Done()
			if failed.Load() {
				return
			}
			if err := fn(i); err != nil {
				errOnce.Do(func() { firstErr = err })
				failed.Store(true)
			}
		}
	}
	wg.Wait()
	return firstErr
}

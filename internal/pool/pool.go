// Package pool provides the worker pools used to process files concurrently.
package pool

import (
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
)

// ErrClosed is returned when submitting a task to a released pool.
var ErrClosed = ants.ErrPoolClosed

// Pool executes submitted tasks.
type Pool interface {
	// Submit queues fn for execution. It blocks while every worker is busy.
	Submit(fn func()) error

	// Wait blocks until every submitted task has returned.
	Wait()

	// Release frees pool resources. Subsequent submits fail with ErrClosed.
	Release()
}

// New returns a pool running up to size tasks at once. A size of one or
// less yields a synchronous pool that runs tasks in the caller's goroutine.
func New(size int) (Pool, error) {
	if size <= 1 {
		return &syncPool{}, nil
	}
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &antsPool{pool: p}, nil
}

type antsPool struct {
	pool *ants.Pool
	wg   sync.WaitGroup
}

func (p *antsPool) Submit(fn func()) error {
	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		fn()
	})
	if err != nil {
		p.wg.Done()
	}
	return err
}

func (p *antsPool) Wait() {
	p.wg.Wait()
}

func (p *antsPool) Release() {
	p.pool.Release()
}

// syncPool runs each task immediately.
type syncPool struct {
	closed atomic.Bool
}

func (p *syncPool) Submit(fn func()) error {
	if p.closed.Load() {
		return ErrClosed
	}
	fn()
	return nil
}

func (p *syncPool) Wait() {}

func (p *syncPool) Release() {
	p.closed.Store(true)
}

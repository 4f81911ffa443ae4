// Package compute runs data-parallel kernels on a persistent worker pool.
// Every Dispatch is a full barrier: it returns only after all work items have run.
package compute

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// WorkgroupSize is the default number of work items executed by one pool task.
const WorkgroupSize = 64

// Kernel is the body of a data-parallel pass, invoked once per work item index.
// Invocations run concurrently with no ordering guarantee.
type Kernel func(i int)

// Dispatcher launches kernels over a bounded set of reusable goroutines.
type Dispatcher interface {
	// Dispatch runs kernel for every index in [0, count) and blocks until all have completed.
	// A panic inside the kernel is re-raised on the calling goroutine after the barrier.
	// Dispatch must not be called from inside a kernel.
	//
	// Parameters:
	//   - label: pass name used in panic messages
	//   - count: number of work items
	//   - kernel: the per-item function
	Dispatch(label string, count int, kernel Kernel)

	// Workers returns the maximum number of concurrently executing tasks.
	//
	// Returns:
	//   - int: the worker count
	Workers() int

	// WorkgroupSize returns the number of work items grouped into one task.
	//
	// Returns:
	//   - int: items per task
	WorkgroupSize() int

	// Dispatches returns the number of completed Dispatch calls.
	//
	// Returns:
	//   - uint64: the dispatch count
	Dispatches() uint64

	// Close stops the underlying pool. The dispatcher must not be used afterwards.
	Close()
}

type dispatcherImpl struct {
	pool          worker.DynamicWorkerPool
	workers       int
	workgroupSize int
	queueSize     int

	taskID     atomic.Int64
	dispatches atomic.Uint64
	closeOnce  sync.Once
}

var _ Dispatcher = &dispatcherImpl{}

// NewDispatcher creates a Dispatcher backed by a worker.DynamicWorkerPool.
// Defaults to runtime.NumCPU() workers and WorkgroupSize items per task.
//
// Parameters:
//   - options: functional options to configure the dispatcher
//
// Returns:
//   - Dispatcher: the newly created dispatcher
func NewDispatcher(options ...DispatcherBuilderOption) Dispatcher {
	d := &dispatcherImpl{
		workers:       runtime.NumCPU(),
		workgroupSize: WorkgroupSize,
		queueSize:     256,
	}
	for _, option := range options {
		option(d)
	}
	d.pool = worker.NewDynamicWorkerPool(d.workers, d.queueSize, 1*time.Second)
	return d
}

var defaultDispatcher = sync.OnceValue(func() Dispatcher {
	return NewDispatcher()
})

// Default returns a process-wide dispatcher shared by components that were not given one.
//
// Returns:
//   - Dispatcher: the shared dispatcher
func Default() Dispatcher {
	return defaultDispatcher()
}

func (d *dispatcherImpl) Dispatch(label string, count int, kernel Kernel) {
	if count <= 0 {
		d.dispatches.Add(1)
		return
	}

	// Small passes run inline, saving the queue round trip.
	if count <= d.workgroupSize {
		for i := 0; i < count; i++ {
			kernel(i)
		}
		d.dispatches.Add(1)
		return
	}

	// A WaitGroup provides the per-pass barrier; pool.Wait() only returns once
	// workers idle-exit, which is unsuitable for frame-rate workloads.
	var wg sync.WaitGroup
	var fault atomic.Pointer[string]
	for start := 0; start < count; start += d.workgroupSize {
		end := min(start+d.workgroupSize, count)
		wg.Add(1)
		d.pool.SubmitTask(worker.Task{
			ID: int(d.taskID.Add(1)),
			Do: func() (any, error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						msg := fmt.Sprintf("compute: %s: work item panic: %v", label, r)
						fault.CompareAndSwap(nil, &msg)
					}
				}()
				for i := start; i < end; i++ {
					kernel(i)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	d.dispatches.Add(1)

	if msg := fault.Load(); msg != nil {
		panic(*msg)
	}
}

func (d *dispatcherImpl) Workers() int {
	return d.workers
}

func (d *dispatcherImpl) WorkgroupSize() int {
	return d.workgroupSize
}

func (d *dispatcherImpl) Dispatches() uint64 {
	return d.dispatches.Load()
}

func (d *dispatcherImpl) Close() {
	d.closeOnce.Do(d.pool.Stop)
}

// Package device models the parallel compute device the simulation runs on:
// an in-order pass queue fanned out over a persistent worker pool, plus the
// barrier batching and buffer rotation the passes synchronize through.
package device

import (
	"runtime"
	"sync"
)

// Kernel is the body of one compute pass, invoked once per lane. Lanes of a
// single pass run concurrently with no ordering guarantee; kernels must
// coordinate through atomics only.
type Kernel func(lane int)

// laneChunk is the number of lanes handed to a worker at a time.
const laneChunk = 256

// inlineThreshold is the lane count below which a pass runs on the queue
// goroutine itself; fan-out overhead dominates for tiny dispatches.
const inlineThreshold = 64

type pass struct {
	name   string
	lanes  int
	kernel Kernel
}

type chunk struct {
	start, end int
	kernel     Kernel
	done       *sync.WaitGroup
}

// Dispatcher executes passes in submission order. Dispatch returns
// immediately; consecutive passes never overlap, and Sync blocks until every
// submitted pass has completed. This mirrors a single device command queue:
// the host thread sequences work and only waits at explicit sync points.
type Dispatcher struct {
	workers int

	queue    chan pass
	pending  sync.WaitGroup
	workChan chan chunk

	closeOnce sync.Once
}

// NewDispatcher creates a dispatcher with the given worker count.
// workers <= 0 uses GOMAXPROCS.
func NewDispatcher(workers int) *Dispatcher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	d := &Dispatcher{
		workers:  workers,
		queue:    make(chan pass, 64),
		workChan: make(chan chunk, workers*2),
	}

	for i := 0; i < workers; i++ {
		go d.worker()
	}
	go d.run()

	return d
}

// Dispatch submits a pass over lanes [0, lanes). It returns immediately;
// the pass runs after every previously submitted pass has finished.
func (d *Dispatcher) Dispatch(name string, lanes int, kernel Kernel) {
	if lanes <= 0 {
		return
	}
	d.pending.Add(1)
	d.queue <- pass{name: name, lanes: lanes, kernel: kernel}
}

// Sync blocks until the queue is empty and all lanes have completed.
func (d *Dispatcher) Sync() {
	d.pending.Wait()
}

// Close drains outstanding work and stops the workers. The dispatcher must
// not be used afterwards.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.Sync()
		close(d.queue)
		close(d.workChan)
	})
}

// run is the command-queue goroutine: one pass at a time, in order.
func (d *Dispatcher) run() {
	for p := range d.queue {
		d.execute(p)
		d.pending.Done()
	}
}

func (d *Dispatcher) execute(p pass) {
	if p.lanes <= inlineThreshold {
		for i := 0; i < p.lanes; i++ {
			p.kernel(i)
		}
		return
	}

	var done sync.WaitGroup
	for start := 0; start < p.lanes; start += laneChunk {
		end := start + laneChunk
		if end > p.lanes {
			end = p.lanes
		}
		done.Add(1)
		d.workChan <- chunk{start: start, end: end, kernel: p.kernel, done: &done}
	}
	done.Wait()
}

func (d *Dispatcher) worker() {
	for c := range d.workChan {
		for i := c.start; i < c.end; i++ {
			c.kernel(i)
		}
		c.done.Done()
	}
}

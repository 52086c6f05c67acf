package skill

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// TaskGroup runs named background tasks and tracks them until they finish.
// A panicking task is recovered and logged; it never takes the process
// down. Safe for concurrent use. It satisfies curtain.TaskRunner.
type TaskGroup struct {
	wg     sync.WaitGroup
	active atomic.Int64
	panics atomic.Uint64
	logger Logger
}

// NewTaskGroup creates a TaskGroup. logger may be nil.
func NewTaskGroup(logger Logger) *TaskGroup {
	if logger == nil {
		logger = noopLogger{}
	}
	return &TaskGroup{logger: logger}
}

// Go starts fn on its own goroutine.
func (g *TaskGroup) Go(name string, fn func()) {
	g.wg.Add(1)
	g.active.Add(1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				g.panics.Add(1)
				g.logger.Error("background task panicked",
					"task", name,
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()),
				)
			}
			g.active.Add(-1)
			g.wg.Done()
		}()
		fn()
	}()
}

// Wait blocks until every task has finished or timeout elapses. It
// reports whether all tasks finished. A non-positive timeout waits forever.
func (g *TaskGroup) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	if timeout <= 0 {
		<-done
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// Active returns the number of running tasks.
func (g *TaskGroup) Active() int {
	return int(g.active.Load())
}

// Panics returns how many tasks have panicked.
func (g *TaskGroup) Panics() uint64 {
	return g.panics.Load()
}

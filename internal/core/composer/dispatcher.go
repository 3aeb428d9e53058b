package composer

import (
	"log/slog"
	"sync"
)

// Dispatcher runs continuations on the context that owns the observer.
// Implementations must run functions in the order they were dispatched.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to the Dispatcher interface
type DispatcherFunc func(fn func())

func (f DispatcherFunc) Dispatch(fn func()) { f(fn) }

// Inline runs continuations directly on the goroutine that completed the request.
var Inline Dispatcher = DispatcherFunc(func(fn func()) { fn() })

// MainQueue is a serial executor: one goroutine draining a FIFO of functions.
// Everything dispatched to it runs one at a time, never concurrently.
type MainQueue struct {
	tasks chan func()
	quit  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// NewMainQueue starts a queue that buffers up to size pending functions
// before Dispatch blocks.
func NewMainQueue(size int) *MainQueue {
	if size < 1 {
		size = 1
	}
	q := &MainQueue{
		tasks: make(chan func(), size),
		quit:  make(chan struct{}),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// Dispatch enqueues fn. After Close it is dropped.
func (q *MainQueue) Dispatch(fn func()) {
	select {
	case <-q.quit:
		return
	default:
	}

	select {
	case q.tasks <- fn:
	case <-q.quit:
	}
}

// Close stops accepting work, runs what is already queued and waits for the
// queue goroutine to exit.
func (q *MainQueue) Close() {
	q.once.Do(func() {
		close(q.quit)
	})
	q.wg.Wait()
}

func (q *MainQueue) run() {
	defer q.wg.Done()
	for {
		select {
		case fn := <-q.tasks:
			q.exec(fn)
		case <-q.quit:
			for {
				select {
				case fn := <-q.tasks:
					q.exec(fn)
				default:
					return
				}
			}
		}
	}
}

func (q *MainQueue) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[COMPOSER] continuation panicked", "panic", r)
		}
	}()
	fn()
}

package composer

import (
	"sync"
	"sync/atomic"
)

// Barrier joins a known number of independent tasks. Each task calls Leave
// exactly once when it settles; Done is closed when the last one does.
type Barrier struct {
	done    chan struct{}
	pending atomic.Int64
	once    sync.Once
}

// NewBarrier returns a barrier waiting for n tasks. A barrier for zero tasks
// is already complete.
func NewBarrier(n int) *Barrier {
	b := &Barrier{done: make(chan struct{})}
	b.pending.Store(int64(n))
	if n <= 0 {
		b.fire()
	}
	return b
}

// Leave marks one task as settled. Calling it more times than the barrier
// was sized for is a programming error and panics.
func (b *Barrier) Leave() {
	remaining := b.pending.Add(-1)
	switch {
	case remaining < 0:
		panic("composer: Barrier.Leave called more times than entered")
	case remaining == 0:
		b.fire()
	}
}

// Pending returns the number of tasks that have not settled yet
func (b *Barrier) Pending() int {
	if n := b.pending.Load(); n > 0 {
		return int(n)
	}
	return 0
}

// Done is closed once every task has settled
func (b *Barrier) Done() <-chan struct{} {
	return b.done
}

// Notify schedules fn on d once the barrier completes. fn runs exactly once.
func (b *Barrier) Notify(d Dispatcher, fn func()) {
	go func() {
		<-b.done
		d.Dispatch(fn)
	}()
}

func (b *Barrier) fire() {
	b.once.Do(func() {
		close(b.done)
	})
}

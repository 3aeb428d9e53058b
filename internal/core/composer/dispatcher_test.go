package composer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMainQueue_RunsInOrder(t *testing.T) {
	q := NewMainQueue(4)

	var mu sync.Mutex
	var order []int
	for i := 0; i < 100; i++ {
		i := i
		q.Dispatch(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	q.Close()

	assert.Len(t, order, 100)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestMainQueue_SurvivesPanic(t *testing.T) {
	q := NewMainQueue(2)

	ran := make(chan struct{})
	q.Dispatch(func() { panic("boom") })
	q.Dispatch(func() { close(ran) })
	q.Close()

	select {
	case <-ran:
	default:
		t.Fatal("queue stopped after a panicking continuation")
	}
}

func TestMainQueue_DropsAfterClose(t *testing.T) {
	q := NewMainQueue(1)
	q.Close()
	q.Close()

	called := false
	q.Dispatch(func() { called = true })
	assert.False(t, called)
}

func TestDispatcherFunc(t *testing.T) {
	var got []string
	d := DispatcherFunc(func(fn func()) {
		got = append(got, "before")
		fn()
	})
	d.Dispatch(func() { got = append(got, "fn") })
	assert.Equal(t, []string{"before", "fn"}, got)
}

package frames

import (
	"sync"
	"time"
)

// FrameID - идентификатор запрошенного кадра
type FrameID uint64

// Callback вызывается один раз на ближайшем кадре
type Callback func(now time.Time)

// Scheduler - аналог requestAnimationFrame: колбэк выполняется на следующем кадре один раз
type Scheduler interface {
	RequestFrame(cb Callback) FrameID
	CancelFrame(id FrameID)
}

// queue - общая очередь колбэков для обеих реализаций
type queue struct {
	mu      sync.Mutex
	nextID  FrameID
	pending map[FrameID]Callback
	order   []FrameID
}

func newQueue() queue {
	return queue{pending: make(map[FrameID]Callback)}
}

func (q *queue) add(cb Callback) FrameID {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextID++
	q.pending[q.nextID] = cb
	q.order = append(q.order, q.nextID)
	return q.nextID
}

func (q *queue) cancel(id FrameID) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}

// drain забирает колбэки, запрошенные до начала кадра.
// Колбэки, запрошенные во время кадра, попадут в следующий.
func (q *queue) drain() []Callback {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.order) == 0 {
		return nil
	}

	out := make([]Callback, 0, len(q.order))
	for _, id := range q.order {
		if cb, ok := q.pending[id]; ok {
			out = append(out, cb)
			delete(q.pending, id)
		}
	}
	q.order = q.order[:0]
	return out
}

func (q *queue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

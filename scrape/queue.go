package scrape

import (
	"sync"

	"github.com/fangraph/fangraph"
)

// queue is an unbounded FIFO of requests. Go channels are always bounded,
// and the input side must never block a submitter, so this is a
// cond-guarded slice instead.
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []fangraph.Request
	closed bool
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends a request. Pushes after close are dropped.
func (q *queue) push(req fangraph.Request) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, req)
	q.cond.Signal()
}

// pop blocks until a request is available or the queue is closed and
// drained. The bool result is false only when no more requests will come.
func (q *queue) pop() (fangraph.Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return fangraph.Request{}, false
	}
	req := q.items[0]
	q.items = q.items[1:]
	return req, true
}

// close wakes all waiters; queued requests remain poppable.
func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

package assoc

import "sync"

// Queue is the FIFO of user-submitted requests awaiting dispatch. It
// survives every state transition — only the Sending state pops from it,
// but every state (and any user goroutine) may append to it (SPEC_FULL.md
// §5 invariant 2).
type Queue struct {
	mu    sync.Mutex
	items []*Request
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends req to the tail. Safe to call from any goroutine.
func (q *Queue) Enqueue(req *Request) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, req)
}

// TryPop removes and returns the head request, or (nil, false) if empty.
// Only the driver goroutine calls this, and only while in the Sending
// state.
func (q *Queue) TryPop() (*Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	req := q.items[0]
	q.items = q.items[1:]
	return req, true
}

// Len reports the number of requests currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// IsEmpty reports whether the queue currently holds no requests.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

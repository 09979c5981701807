package pool

import "sync"

// compactAfter is the number of consumed slots after which the queue moves its pending
// jobs to the front of the backing array, so a queue that never fully drains doesn't
// grow forever
const compactAfter = 1024

// queue is an unbounded FIFO of jobs. Push never blocks, Pop blocks until a job is
// available or the queue is closed and drained. The mutex is the receive end: whoever
// holds it is the only one dequeuing
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []Job
	head   int
	closed bool
}

func newQueue() *queue {
	q := new(queue)
	q.cond = sync.NewCond(&q.mu)

	return q
}

func (q *queue) Push(job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrPoolClosed
	}

	q.jobs = append(q.jobs, job)
	q.mu.Unlock()
	q.cond.Signal()

	return nil
}

// Pop returns false only when the queue is closed and nothing is left in it
func (q *queue) Pop() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head == len(q.jobs) {
		if q.closed {
			return nil, false
		}

		q.cond.Wait()
	}

	job := q.jobs[q.head]
	q.jobs[q.head] = nil
	q.head++

	switch {
	case q.head == len(q.jobs):
		// everything is consumed, so the backing array can be reused from the start
		q.jobs, q.head = q.jobs[:0], 0
	case q.head >= compactAfter && q.head*2 >= len(q.jobs):
		n := copy(q.jobs, q.jobs[q.head:])
		clear(q.jobs[n:])
		q.jobs, q.head = q.jobs[:n], 0
	}

	return job, true
}

func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.jobs) - q.head
}

func (q *queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

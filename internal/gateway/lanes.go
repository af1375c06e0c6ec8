// ABOUTME: Per-identity FIFO execution lanes
// ABOUTME: One identity's events run in arrival order while other identities proceed in parallel

package gateway

import "sync"

type laneKey struct {
	endpoint string
	identity int64
}

// lanes runs queued jobs one at a time per key. A key's worker goroutine
// exists only while its queue is non-empty.
type lanes struct {
	mu     sync.Mutex
	queues map[laneKey][]func()
	closed bool
	wg     sync.WaitGroup
}

func newLanes() *lanes {
	return &lanes{queues: make(map[laneKey][]func())}
}

// enqueue appends job to key's lane. It reports false once the lanes are
// closed.
func (l *lanes) enqueue(key laneKey, job func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}

	q, running := l.queues[key]
	l.queues[key] = append(q, job)
	if !running {
		l.wg.Add(1)
		go l.drain(key)
	}
	return true
}

func (l *lanes) drain(key laneKey) {
	defer l.wg.Done()
	for {
		l.mu.Lock()
		q := l.queues[key]
		if len(q) == 0 {
			delete(l.queues, key)
			l.mu.Unlock()
			return
		}
		job := q[0]
		l.queues[key] = q[1:]
		l.mu.Unlock()

		job()
	}
}

// active is the number of lanes with queued or running work.
func (l *lanes) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queues)
}

// close refuses new jobs and waits for queued ones to finish.
func (l *lanes) close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wg.Wait()
}

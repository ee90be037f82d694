package redisserver

import (
	"container/heap"
	"sync"
	"time"
)

// TimerID identifies a scheduled timer.
type TimerID uint64

// NoMore, returned from a TimerFunc, deletes the timer. Any negative delay
// does the same.
const NoMore time.Duration = -1

// TimerFunc runs on the reactor goroutine. It returns the delay before its
// next run, or NoMore. A zero delay runs it again on the next loop pass.
type TimerFunc func(now time.Time) time.Duration

type timer struct {
	id    TimerID
	when  time.Time
	fn    TimerFunc
	index int
}

type timerHeap []*timer

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].when.Before(h[j].when) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// timerQueue holds the reactor's time events, earliest first.
type timerQueue struct {
	mu     sync.Mutex
	heap   timerHeap
	byID   map[TimerID]*timer
	nextID TimerID
}

func newTimerQueue() *timerQueue {
	return &timerQueue{byID: make(map[TimerID]*timer)}
}

func (q *timerQueue) add(now time.Time, delay time.Duration, fn TimerFunc) TimerID {
	if delay < 0 {
		delay = 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	t := &timer{id: q.nextID, when: now.Add(delay), fn: fn}
	heap.Push(&q.heap, t)
	q.byID[t.id] = t
	return t.id
}

func (q *timerQueue) cancel(id TimerID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	t, ok := q.byID[id]
	if !ok {
		return false
	}
	delete(q.byID, id)
	if t.index >= 0 {
		heap.Remove(&q.heap, t.index)
	}
	return true
}

func (q *timerQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.byID)
}

// until returns the time left before the earliest timer, and false when the
// queue is empty.
func (q *timerQueue) until(now time.Time) (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.heap) == 0 {
		return 0, false
	}
	d := q.heap[0].when.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

// run fires every timer due at now and returns how many ran. Timers are
// rescheduled relative to now, so one that returns 0 runs again on the next
// call, not in this one.
func (q *timerQueue) run(now time.Time) int {
	q.mu.Lock()
	var due []*timer
	for len(q.heap) > 0 && !q.heap[0].when.After(now) {
		due = append(due, heap.Pop(&q.heap).(*timer))
	}
	q.mu.Unlock()

	ran := 0
	for _, t := range due {
		q.mu.Lock()
		_, live := q.byID[t.id]
		q.mu.Unlock()
		if !live {
			continue
		}
		next := t.fn(now)
		ran++

		q.mu.Lock()
		if _, live := q.byID[t.id]; live {
			if next < 0 {
				delete(q.byID, t.id)
			} else {
				t.when = now.Add(next)
				heap.Push(&q.heap, t)
			}
		}
		q.mu.Unlock()
	}
	return ran
}

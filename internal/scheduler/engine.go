package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrNilJob        = errors.New("scheduler: job function is required")
	ErrEngineStopped = errors.New("scheduler: engine stopped")
)

// Job is a unit of work for the coordinating goroutine.
type Job struct {
	Seq   uint64
	RunAt time.Time
	Fn    func()
}

type queueItem struct {
	job Job
}

// priorityQueue orders by RunAt, then by submission order.
type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	a, b := pq[i].job, pq[j].job
	if a.RunAt.Equal(b.RunAt) {
		return a.Seq < b.Seq
	}
	return a.RunAt.Before(b.RunAt)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

// Engine hands jobs to whoever drains C, in due-time order. Any goroutine may
// submit; exactly one goroutine should drain C and run the jobs.
type Engine struct {
	mu      sync.Mutex
	queue   priorityQueue
	seq     uint64
	now     func() time.Time
	out     chan Job
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:  make(priorityQueue, 0),
		now:    time.Now,
		out:    make(chan Job, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (e *Engine) C() <-chan Job {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

// Stop ends delivery. Jobs still queued are counted as dropped.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh

	e.mu.Lock()
	atomic.AddUint64(&e.dropped, uint64(len(e.queue)))
	e.queue = e.queue[:0]
	e.mu.Unlock()
}

// Dispatch queues fn to run as soon as possible. Work submitted after Stop is
// dropped.
func (e *Engine) Dispatch(fn func()) {
	if err := e.schedule(fn, e.now()); err != nil {
		atomic.AddUint64(&e.dropped, 1)
	}
}

// After queues fn to run once d has elapsed.
func (e *Engine) After(d time.Duration, fn func()) error {
	return e.schedule(fn, e.now().Add(d))
}

func (e *Engine) schedule(fn func(), at time.Time) error {
	if fn == nil {
		return ErrNilJob
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrEngineStopped
	}

	e.seq++
	heap.Push(&e.queue, queueItem{job: Job{Seq: e.seq, RunAt: at, Fn: fn}})
	e.signalWakeup()
	return nil
}

func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := next.RunAt.Sub(e.now())
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, job := range e.popDue(e.now()) {
				// Delivery blocks: dispatched work is never discarded while running.
				select {
				case e.out <- job:
				case <-e.stopCh:
					atomic.AddUint64(&e.dropped, 1)
					return
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (Job, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return Job{}, false
	}
	return e.queue[0].job, true
}

func (e *Engine) popDue(now time.Time) []Job {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Job, 0)
	for len(e.queue) > 0 {
		next := e.queue[0].job
		if next.RunAt.After(now) {
			break
		}
		item := heap.Pop(&e.queue).(queueItem)
		out = append(out, item.job)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}

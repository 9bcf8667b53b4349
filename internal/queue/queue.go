// Package queue serializes detection work off the orchestration
// goroutine. Exactly one detection runs at a time: the detector
// capability is compute-heavy and not safely reentrant, and the single
// consumer bounds memory held by in-flight frame buffers.
package queue

import (
	"context"
	"sync"

	"github.com/natureobs/natureobs-analysis-service/internal/domain/entity"
	"github.com/natureobs/natureobs-analysis-service/internal/domain/port"
	"go.uber.org/zap"
)

type EventType string

const (
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
	EventError     EventType = "error"
)

// Event is one lifecycle notification. Per submitted item the queue
// emits started followed by exactly one of completed or error, in
// submission order.
type Event struct {
	Type       EventType
	FrameID    string
	Timestamp  float64
	Detections []entity.Detection
	Err        error

	// Processed counts items finished so far (the processing index).
	// Progress is Processed/Total*100 when the batch size is known,
	// and 0 otherwise.
	Processed int
	Total     int
	Progress  float64
}

type item struct {
	frameID   string
	timestamp float64
	imagePath string
}

// ProcessingQueue is a single-consumer FIFO of detection work.
type ProcessingQueue struct {
	detector port.Detector
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	cond      *sync.Cond
	pending   []item
	closed    bool
	processed int
	total     int

	events chan Event
	done   chan struct{}
}

// New starts the consumer goroutine. total is the known batch size, or
// zero for interactive on-demand submission. The caller must drain
// Events until it closes.
func New(detector port.Detector, total int, log *zap.Logger) *ProcessingQueue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &ProcessingQueue{
		detector: detector,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		total:    total,
		events:   make(chan Event),
		done:     make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Submit enqueues a unit of work. Non-blocking; work submitted while an
// item is in flight waits its turn. Submissions after Close are dropped.
func (q *ProcessingQueue) Submit(frameID string, timestamp float64, imagePath string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.pending = append(q.pending, item{frameID: frameID, timestamp: timestamp, imagePath: imagePath})
	q.cond.Signal()
}

// Events delivers lifecycle events in submission order. The channel is
// closed when the known batch completes or the queue is closed.
func (q *ProcessingQueue) Events() <-chan Event {
	return q.events
}

// Close tears the queue down: all pending work is dropped and no event
// fires for anything submitted before the close, including the item in
// flight. Safe to call more than once.
func (q *ProcessingQueue) Close() {
	q.cancel()
	q.mu.Lock()
	q.closed = true
	q.pending = nil
	q.cond.Signal()
	q.mu.Unlock()
	<-q.done
}

func (q *ProcessingQueue) run() {
	defer close(q.done)
	defer close(q.events)

	for {
		it, ok := q.next()
		if !ok {
			return
		}

		if !q.emit(Event{Type: EventStarted, FrameID: it.frameID, Timestamp: it.timestamp}) {
			return
		}

		detections, err := q.detector.Detect(q.ctx, it.imagePath)

		// A close while the detector was running invalidates the result.
		if q.ctx.Err() != nil {
			return
		}

		q.mu.Lock()
		q.processed++
		processed := q.processed
		q.mu.Unlock()

		ev := Event{
			FrameID:   it.frameID,
			Timestamp: it.timestamp,
			Processed: processed,
			Total:     q.total,
		}
		if q.total > 0 {
			ev.Progress = float64(processed) / float64(q.total) * 100
		}
		if err != nil {
			ev.Type = EventError
			ev.Err = err
			q.log.Warn("detection failed",
				zap.String("frame_id", it.frameID),
				zap.Float64("timestamp", it.timestamp),
				zap.Error(err),
			)
		} else {
			ev.Type = EventCompleted
			ev.Detections = detections
		}
		if !q.emit(ev) {
			return
		}

		if q.total > 0 && processed >= q.total {
			return
		}
	}
}

// next blocks until work is pending or the queue is closed.
func (q *ProcessingQueue) next() (item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.pending) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return item{}, false
	}
	it := q.pending[0]
	q.pending = q.pending[1:]
	return it, true
}

func (q *ProcessingQueue) emit(ev Event) bool {
	if q.ctx.Err() != nil {
		return false
	}
	select {
	case q.events <- ev:
		return true
	case <-q.ctx.Done():
		return false
	}
}

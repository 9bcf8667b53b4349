package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/natureobs/natureobs-analysis-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeDetector resolves with a per-image delay and tracks how many
// detections run concurrently.
type fakeDetector struct {
	delays     map[string]time.Duration
	errors     map[string]error
	inFlight   atomic.Int32
	maxSeen     atomic.Int32
	detections []entity.Detection
	block      chan struct{} // when set, Detect waits on it
}

func (f *fakeDetector) Detect(ctx context.Context, imagePath string) ([]entity.Detection, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxSeen.Load()
		if cur <= max || f.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d, ok := f.delays[imagePath]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := f.errors[imagePath]; ok {
		return nil, err
	}
	return f.detections, nil
}

func collect(t *testing.T, q *ProcessingQueue) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-q.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("timed out draining events, got %d so far", len(events))
		}
	}
}

func TestQueue_FIFOOrderDespiteVaryingLatency(t *testing.T) {
	// The last submitted frame is the fastest; submission order must
	// still win because the queue is strictly single-consumer.
	det := &fakeDetector{
		delays: map[string]time.Duration{
			"img-0": 30 * time.Millisecond,
			"img-1": 20 * time.Millisecond,
			"img-2": 10 * time.Millisecond,
		},
		detections: []entity.Detection{{Label: "bear", Confidence: 0.9}},
	}
	q := New(det, 3, zap.NewNop())
	defer q.Close()

	q.Submit("f0", 0, "img-0")
	q.Submit("f1", 0.1, "img-1")
	q.Submit("f2", 0.2, "img-2")

	events := collect(t, q)
	require.Len(t, events, 6)

	wantTypes := []EventType{EventStarted, EventCompleted, EventStarted, EventCompleted, EventStarted, EventCompleted}
	wantFrames := []string{"f0", "f0", "f1", "f1", "f2", "f2"}
	for i, ev := range events {
		assert.Equal(t, wantTypes[i], ev.Type, "event %d", i)
		assert.Equal(t, wantFrames[i], ev.FrameID, "event %d", i)
	}

	assert.Equal(t, int32(1), det.maxSeen.Load(), "detections must never overlap")
}

func TestQueue_ProgressOverKnownBatch(t *testing.T) {
	det := &fakeDetector{}
	q := New(det, 4, zap.NewNop())
	defer q.Close()

	for i := 0; i < 4; i++ {
		q.Submit("f", float64(i), "img")
	}

	var progress []float64
	for _, ev := range collect(t, q) {
		if ev.Type == EventCompleted {
			progress = append(progress, ev.Progress)
		}
	}
	assert.Equal(t, []float64{25, 50, 75, 100}, progress)
}

func TestQueue_ErrorEventIsolatedPerFrame(t *testing.T) {
	det := &fakeDetector{
		errors:     map[string]error{"img-1": errors.New("inference blew up")},
		detections: []entity.Detection{{Label: "deer", Confidence: 0.8}},
	}
	q := New(det, 3, zap.NewNop())
	defer q.Close()

	q.Submit("f0", 0, "img-0")
	q.Submit("f1", 0.1, "img-1")
	q.Submit("f2", 0.2, "img-2")

	var finished []EventType
	for _, ev := range collect(t, q) {
		if ev.Type != EventStarted {
			finished = append(finished, ev.Type)
		}
	}
	assert.Equal(t, []EventType{EventCompleted, EventError, EventCompleted}, finished)
}

func TestQueue_CloseDropsPendingAndInFlightSilently(t *testing.T) {
	det := &fakeDetector{block: make(chan struct{})}
	q := New(det, 0, zap.NewNop())

	for i := 0; i < 5; i++ {
		q.Submit("f", float64(i), "img")
	}

	// First item reaches the detector and blocks there.
	var started Event
	select {
	case started = <-q.Events():
	case <-time.After(2 * time.Second):
		t.Fatal("no started event")
	}
	require.Equal(t, EventStarted, started.Type)

	q.Close()

	// The events channel closes without any further event: nothing for
	// the in-flight item, nothing for the 4 pending ones.
	events := collect(t, q)
	assert.Empty(t, events)

	// Submissions after close are dropped too.
	q.Submit("late", 9, "img")
}

func TestQueue_CloseIdempotent(t *testing.T) {
	q := New(&fakeDetector{}, 0, zap.NewNop())
	q.Close()
	q.Close()
}

func TestQueue_UnknownTotalHasZeroProgress(t *testing.T) {
	det := &fakeDetector{}
	q := New(det, 0, zap.NewNop())

	q.Submit("f0", 0, "img")

	var completed Event
	timeout := time.After(5 * time.Second)
	for completed.Type != EventCompleted {
		select {
		case ev := <-q.Events():
			completed = ev
		case <-timeout:
			t.Fatal("no completed event")
		}
	}
	assert.Equal(t, 0.0, completed.Progress)
	assert.Equal(t, 1, completed.Processed)

	q.Close()
}

package server

import (
	"context"
	"sync"

	"github.com/bucamari/pos-backend/internal/tables"
)

// SSE event name for table change broadcasts.
const EventTableChanged = "table-change"

// TableChangeDispatcher fans table changes out to in-process subscribers.
// Delivery is best-effort within the process: a subscriber with a full
// buffer misses the message rather than blocking the mutating call chain.
type TableChangeDispatcher struct {
	mu          sync.RWMutex
	subscribers map[int64]chan tables.Change
	nextID      int64
	bufferSize  int
}

// NewTableChangeDispatcher constructs a dispatcher.
func NewTableChangeDispatcher() *TableChangeDispatcher {
	return &TableChangeDispatcher{
		subscribers: make(map[int64]chan tables.Change),
		bufferSize:  16,
	}
}

// Subscribe registers a listener for table changes. The stream closes when
// ctx is done; the returned cleanup may be called earlier.
func (d *TableChangeDispatcher) Subscribe(ctx context.Context) (<-chan tables.Change, func()) {
	stream := make(chan tables.Change, d.bufferSize)

	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.subscribers[id] = stream
	d.mu.Unlock()

	cleanup := func() {
		d.mu.Lock()
		delete(d.subscribers, id)
		d.mu.Unlock()
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return stream, cleanup
}

// Publish broadcasts a change to every subscriber without blocking.
func (d *TableChangeDispatcher) Publish(change tables.Change) {
	if change.TableID == "" {
		return
	}
	d.mu.RLock()
	streams := make([]chan tables.Change, 0, len(d.subscribers))
	for _, stream := range d.subscribers {
		streams = append(streams, stream)
	}
	d.mu.RUnlock()

	for _, stream := range streams {
		select {
		case stream <- change:
		default:
		}
	}
}

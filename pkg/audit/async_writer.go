package audit

import (
	"context"
	"sync"
	"time"
)

// AsyncOptions configures buffering and batching of the async writer.
type AsyncOptions struct {
	BufferSize     int           // max queued events before falling back to a direct write
	BatchSize      int           // events per batch
	BatchTimeout   time.Duration // max wait for a partial batch
	StorageTimeout time.Duration // per-batch storage timeout
}

// AsyncWriter batches Store calls into StoreBatch calls on the wrapped writer.
// Reads go straight to the underlying storage.
type AsyncWriter struct {
	storage   Storage
	batch     BatchWriter
	eventChan chan pendingEvent
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	options   AsyncOptions
}

type pendingEvent struct {
	event  Event
	result chan error
}

// NewAsyncWriter starts the batching worker. The returned function stops it
// and flushes queued events.
func NewAsyncWriter(storage Storage, bw BatchWriter, opts AsyncOptions) (*AsyncWriter, func(context.Context) error) {
	if storage == nil || bw == nil {
		panic("audit: storage and batch writer cannot be nil")
	}

	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 100 * time.Millisecond
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = 5 * time.Second
	}

	aw := &AsyncWriter{
		storage:   storage,
		batch:     bw,
		eventChan: make(chan pendingEvent, opts.BufferSize),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		options:   opts,
	}

	aw.wg.Add(1)
	go aw.worker()

	return aw, aw.Close
}

// Store queues the event and waits for the batch it lands in to be written.
func (aw *AsyncWriter) Store(ctx context.Context, event Event) error {
	select {
	case <-aw.done:
		return ErrStorageNotAvailable
	default:
	}

	result := make(chan error, 1)

	select {
	case aw.eventChan <- pendingEvent{event: event, result: result}:
		select {
		case err := <-result:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-aw.stopped:
			// the final drain may have raced the send; its result is buffered if so
			select {
			case err := <-result:
				return err
			default:
				return ErrStorageNotAvailable
			}
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-aw.done:
		return ErrStorageNotAvailable
	default:
		// buffer full: write through so the event is not lost
		return aw.batch.StoreBatch(ctx, []Event{event})
	}
}

// Query reads from the underlying storage. Events still queued are not visible.
func (aw *AsyncWriter) Query(ctx context.Context, criteria Criteria) ([]Event, error) {
	return aw.storage.Query(ctx, criteria)
}

func (aw *AsyncWriter) worker() {
	defer aw.wg.Done()
	defer close(aw.stopped)

	events := make([]Event, 0, aw.options.BatchSize)
	results := make([]chan error, 0, aw.options.BatchSize)
	ticker := time.NewTicker(aw.options.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(events) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), aw.options.StorageTimeout)
		err := aw.batch.StoreBatch(ctx, events)
		cancel()

		for _, ch := range results {
			ch <- err
		}

		clear(events)
		clear(results)
		events = events[:0]
		results = results[:0]
	}

	add := func(p pendingEvent) {
		events = append(events, p.event)
		results = append(results, p.result)
	}

	for {
		select {
		case p := <-aw.eventChan:
			add(p)
			if len(events) >= aw.options.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-aw.done:
			for {
				select {
				case p := <-aw.eventChan:
					add(p)
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close stops the worker after flushing queued events.
// It is safe to call more than once.
func (aw *AsyncWriter) Close(ctx context.Context) error {
	aw.closeOnce.Do(func() { close(aw.done) })

	finished := make(chan struct{})
	go func() {
		aw.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

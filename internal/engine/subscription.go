package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"statehold/internal/state"
)

// Backpressure selects what a full subscriber queue does with new events.
type Backpressure string

const (
	// BackpressureDropNewest discards the incoming event.
	BackpressureDropNewest Backpressure = "drop_newest"
	// BackpressureDropOldest evicts the oldest queued event first.
	BackpressureDropOldest Backpressure = "drop_oldest"
	// BackpressureBlock stalls the shard loop until there is room. With a
	// single worker this is the only policy that delivers every event in
	// per-shard order.
	BackpressureBlock Backpressure = "block"
)

// SubscriptionSpec configures one subscriber. Zero fields take engine
// defaults.
type SubscriptionSpec struct {
	Name         string
	Buffer       int
	Workers      int
	Backpressure Backpressure
}

// EventHandler consumes one cache event.
type EventHandler func(ctx context.Context, ev state.Event) error

// Subscription is the caller-facing handle for one registered consumer.
type Subscription struct {
	inner *subscription
}

// Name returns the stable subscription name.
func (s *Subscription) Name() string {
	return s.inner.spec.Name
}

// Close unregisters the subscription and waits for its workers.
func (s *Subscription) Close(ctx context.Context) error {
	return s.inner.engine.unsubscribe(ctx, s.inner.id)
}

// subscription owns queueing and worker lifecycle for a single subscriber.
// Queue closure is driven by context cancellation rather than channel close.
type subscription struct {
	id      int64
	spec    SubscriptionSpec
	handler EventHandler
	queue   chan state.Event
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	closed  atomic.Bool
	once    sync.Once
	engine  *Engine
}

func newSubscription(subID int64, spec SubscriptionSpec, handler EventHandler, e *Engine) *subscription {
	subCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		id:      subID,
		spec:    spec,
		handler: handler,
		queue:   make(chan state.Event, spec.Buffer),
		ctx:     subCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		engine:  e,
	}

	sub.startWorkers()

	return sub
}

// enqueue applies the configured backpressure policy for the subscriber
// queue.
func (s *subscription) enqueue(ctx context.Context, ev state.Event) error {
	if s.closed.Load() {
		return fmt.Errorf("enqueue %s: %w", s.spec.Name, ErrClosed)
	}

	switch s.spec.Backpressure {
	case BackpressureDropNewest:
		return s.enqueueDropNewest(ev)
	case BackpressureDropOldest:
		return s.enqueueDropOldest(ev)
	case BackpressureBlock:
		return s.enqueueBlock(ctx, ev)
	default:
		return fmt.Errorf("enqueue %s: unknown backpressure %q", s.spec.Name, s.spec.Backpressure)
	}
}

func (s *subscription) enqueueDropNewest(ev state.Event) error {
	select {
	case s.queue <- ev:
		return nil
	default:
		return fmt.Errorf("enqueue %s: %w", s.spec.Name, ErrEventDropped)
	}
}

// enqueueDropOldest evicts one queued event before enqueueing the new one.
func (s *subscription) enqueueDropOldest(ev state.Event) error {
	select {
	case s.queue <- ev:
		return nil
	default:
	}

	select {
	case <-s.queue:
	default:
	}

	select {
	case s.queue <- ev:
		return nil
	default:
		return fmt.Errorf("enqueue %s: %w", s.spec.Name, ErrEventDropped)
	}
}

func (s *subscription) enqueueBlock(ctx context.Context, ev state.Event) error {
	select {
	case s.queue <- ev:
		return nil
	case <-s.ctx.Done():
		return fmt.Errorf("enqueue %s: %w", s.spec.Name, ErrClosed)
	case <-ctx.Done():
		return fmt.Errorf("enqueue %s: %w", s.spec.Name, ctx.Err())
	}
}

// startWorkers launches worker goroutines and closes done after all exit.
func (s *subscription) startWorkers() {
	workerWG := &sync.WaitGroup{}
	for idx := 0; idx < s.spec.Workers; idx++ {
		workerID := idx
		workerWG.Add(1)
		go s.runWorker(workerWG, workerID)
	}

	go func() {
		workerWG.Wait()
		close(s.done)
	}()
}

// runWorker drains the queue until subscription cancellation. Handler
// failures and panics are logged, never propagated.
func (s *subscription) runWorker(workerWG *sync.WaitGroup, workerID int) {
	defer workerWG.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case ev := <-s.queue:
			scope := fmt.Sprintf("subscription %s worker %d", s.spec.Name, workerID)
			if err := runSafely(scope, func() error {
				return s.handler(s.ctx, ev)
			}); err != nil {
				s.engine.log.Error("subscriber handler failed", "event", ev.Name(), "error", err)
			}
		}
	}
}

// signalClose marks the subscription closed exactly once and cancels workers.
func (s *subscription) signalClose() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.cancel()
	})
}

// shutdown waits for worker exit or returns when the supplied context
// expires.
func (s *subscription) shutdown(ctx context.Context) error {
	s.signalClose()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown subscription %s: %w", s.spec.Name, ctx.Err())
	}
}

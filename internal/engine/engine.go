// Package engine drives the cache core: one ordered ingest loop per shard
// feeding the dispatch router, and a bounded asynchronous fan-out delivering
// the produced events to subscribers. Ordering is preserved per shard from
// frame submission through handler execution to publish; what happens after a
// subscriber's queue depends on its backpressure policy.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"statehold/internal/state"
	"statehold/pkg/gateway"
)

var (
	// ErrClosed is returned for submissions and subscriptions after Close.
	ErrClosed = errors.New("engine closed")
	// ErrEventDropped reports a fan-out event discarded by a full
	// subscriber queue.
	ErrEventDropped = errors.New("event dropped")
	// ErrUnknownShard is returned when a frame names a shard index outside
	// the configured range.
	ErrUnknownShard = errors.New("unknown shard index")
)

// Engine owns the shard loops and the subscriber set.
type Engine struct {
	reg    *state.Registry
	router *state.Router
	log    *slog.Logger

	shards []*shardLoop

	mu     sync.RWMutex
	nextID int64
	subs   map[int64]*subscription
	closed bool

	cfg config
}

// New builds an engine over reg and router and starts one ingest loop per
// configured shard.
func New(reg *state.Registry, router *state.Router, opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine{
		reg:    reg,
		router: router,
		log:    cfg.log,
		subs:   make(map[int64]*subscription),
		cfg:    cfg,
	}

	e.shards = make([]*shardLoop, cfg.shardCount)
	for idx := range e.shards {
		loop := newShardLoop(e, state.ShardID{Index: idx, Count: cfg.shardCount}, cfg.frameBuffer)
		e.shards[idx] = loop
		go loop.run()
	}

	return e
}

// Submit enqueues one frame for its shard's loop. Frames submitted for the
// same shard are handled strictly in submission order; blocking here is the
// engine's only backpressure toward the transport.
func (e *Engine) Submit(ctx context.Context, shard int, frame gateway.Frame) error {
	if shard < 0 || shard >= len(e.shards) {
		return fmt.Errorf("submit shard %d: %w", shard, ErrUnknownShard)
	}

	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return fmt.Errorf("submit shard %d: %w", shard, ErrClosed)
	}

	select {
	case e.shards[shard].frames <- frame:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("submit shard %d: %w", shard, ctx.Err())
	case <-e.shards[shard].ctx.Done():
		return fmt.Errorf("submit shard %d: %w", shard, ErrClosed)
	}
}

// Subscribe registers a bounded asynchronous consumer of cache events.
func (e *Engine) Subscribe(ctx context.Context, spec SubscriptionSpec, handler EventHandler) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", spec.Name, err)
	}
	if handler == nil {
		return nil, fmt.Errorf("subscribe %s: nil handler", spec.Name)
	}

	subID := atomic.AddInt64(&e.nextID, 1)
	spec = e.normalizeSpec(spec, subID)
	sub := newSubscription(subID, spec, handler, e)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		sub.signalClose()
		return nil, fmt.Errorf("subscribe %s: %w", spec.Name, ErrClosed)
	}
	e.subs[subID] = sub

	return &Subscription{inner: sub}, nil
}

// Invalidate clears every store in the registry. Call it on resume failure,
// after draining the shard streams, so stale and fresh generations never mix.
func (e *Engine) Invalidate(ctx context.Context) error {
	if err := e.reg.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("invalidate: %w", err)
	}

	return nil
}

// Counts reports per-store entry counts.
func (e *Engine) Counts(ctx context.Context) (map[string]int64, error) {
	return e.reg.Counts(ctx)
}

// Close stops the shard loops, waits for in-flight dispatches, and shuts
// every subscription down.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	subs := make([]*subscription, 0, len(e.subs))
	for _, sub := range e.subs {
		subs = append(subs, sub)
	}
	e.subs = make(map[int64]*subscription)
	e.mu.Unlock()

	var closeErrs []error
	for _, loop := range e.shards {
		if err := loop.shutdown(ctx); err != nil {
			closeErrs = append(closeErrs, err)
		}
	}
	for _, sub := range subs {
		if err := sub.shutdown(ctx); err != nil {
			closeErrs = append(closeErrs, err)
		}
	}

	if len(closeErrs) > 0 {
		return fmt.Errorf("close engine: %w", errors.Join(closeErrs...))
	}

	return nil
}

// publish fans one event out to every live subscriber.
func (e *Engine) publish(ctx context.Context, ev state.Event) {
	e.mu.RLock()
	subs := make([]*subscription, 0, len(e.subs))
	for _, sub := range e.subs {
		subs = append(subs, sub)
	}
	e.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.enqueue(ctx, ev); err != nil {
			e.log.Warn("fan-out enqueue failed",
				"subscription", sub.spec.Name,
				"event", ev.Name(),
				"error", err,
			)
		}
	}
}

// unsubscribe removes and shuts down a subscription by id.
func (e *Engine) unsubscribe(ctx context.Context, subID int64) error {
	e.mu.Lock()
	sub, found := e.subs[subID]
	if found {
		delete(e.subs, subID)
	}
	e.mu.Unlock()

	if !found {
		return nil
	}

	if err := sub.shutdown(ctx); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", sub.spec.Name, err)
	}

	return nil
}

// normalizeSpec applies engine defaults when callers omit optional fields.
func (e *Engine) normalizeSpec(spec SubscriptionSpec, subID int64) SubscriptionSpec {
	if spec.Name == "" {
		spec.Name = fmt.Sprintf("subscription-%d", subID)
	}
	if spec.Buffer <= 0 {
		spec.Buffer = e.cfg.defaultBuffer
	}
	if spec.Workers <= 0 {
		spec.Workers = e.cfg.defaultWorkers
	}
	if spec.Backpressure == "" {
		spec.Backpressure = BackpressureDropNewest
	}

	return spec
}

// shardLoop consumes one shard's frame stream strictly in order.
type shardLoop struct {
	engine *Engine
	shard  state.ShardID
	frames chan gateway.Frame
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newShardLoop(e *Engine, shard state.ShardID, buffer int) *shardLoop {
	ctx, cancel := context.WithCancel(context.Background())

	return &shardLoop{
		engine: e,
		shard:  shard,
		frames: make(chan gateway.Frame, buffer),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// run dispatches frames until cancellation. Handler outcomes never stop the
// loop: unknown events were already logged by the router, other dispatch
// errors are logged here, and a nil event simply produces no fan-out.
func (s *shardLoop) run() {
	defer close(s.done)

	for {
		select {
		case <-s.ctx.Done():
			return
		case frame := <-s.frames:
			ev, err := s.engine.router.Dispatch(s.ctx, s.shard, frame)
			if err != nil {
				if !errors.Is(err, gateway.ErrUnknownEvent) {
					s.engine.log.Error("dispatch failed",
						"event", frame.Event,
						"shard", s.shard.Index,
						"error", err,
					)
				}
				continue
			}
			if ev == nil {
				continue
			}
			s.engine.publish(s.ctx, ev)
		}
	}
}

// shutdown stops the loop, then drains whatever was still queued so
// already-submitted frames are not silently lost. Draining happens after the
// loop goroutine has exited, keeping the per-shard order intact.
func (s *shardLoop) shutdown(ctx context.Context) error {
	s.cancel()

	select {
	case <-s.done:
	case <-ctx.Done():
		return fmt.Errorf("shutdown shard %d: %w", s.shard.Index, ctx.Err())
	}

	for {
		select {
		case frame := <-s.frames:
			ev, err := s.engine.router.Dispatch(ctx, s.shard, frame)
			if err != nil || ev == nil {
				continue
			}
			s.engine.publish(ctx, ev)
		default:
			return nil
		}
	}
}

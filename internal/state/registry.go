// Package state is the event-to-cache consistency core: a registry of keyed
// stores mirroring the remote object graph, the entity handlers that apply
// dispatch payloads to it, and the router that selects a handler per
// dispatch. Handlers run strictly in arrival order within a shard; their
// store calls are sequential, not transactional, so ordering is the only
// consistency mechanism between the stores a single handler touches.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"statehold/internal/store"
	"statehold/internal/store/memory"
	"statehold/pkg/gateway"
	"statehold/pkg/snowflake"
)

// Registry owns one typed store per entity kind plus the self-user id cell.
// Nothing in here survives Invalidate; handlers must never assume store
// contents outlive a reconnect.
type Registry struct {
	Channels            store.Store[snowflake.ID, gateway.Channel]
	Guilds              store.Store[snowflake.ID, gateway.Guild]
	Emojis              store.Store[snowflake.ID, gateway.Emoji]
	Stickers            store.Store[snowflake.ID, gateway.Sticker]
	Members             store.Store[snowflake.Pair, gateway.Member]
	Messages            store.Store[snowflake.ID, gateway.Message]
	Presences           store.Store[snowflake.Pair, gateway.Presence]
	Roles               store.Store[snowflake.ID, gateway.Role]
	Users               store.Store[snowflake.ID, gateway.User]
	VoiceStates         store.Store[snowflake.Pair, gateway.VoiceState]
	StageInstances      store.Store[snowflake.ID, gateway.StageInstance]
	ScheduledEvents     store.Store[snowflake.Pair, gateway.ScheduledEvent]
	ScheduledEventUsers store.Store[snowflake.Pair, []snowflake.ID]
	ThreadMembers       store.Store[snowflake.Pair, gateway.ThreadMember]

	selfID atomic.Uint64
}

// RegistryOption configures NewRegistry.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	messageCap int
}

// WithMessageCap bounds the message store to n entries with silent LRU
// eviction. Messages are the only store with unbounded natural growth, so the
// cap applies to them alone.
func WithMessageCap(n int) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.messageCap = n
	}
}

// NewRegistry wires in-memory stores for every entity kind.
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := registryConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var messageOpts []memory.Option[snowflake.ID, gateway.Message]
	if cfg.messageCap > 0 {
		messageOpts = append(messageOpts, memory.WithMaxEntries[snowflake.ID, gateway.Message](cfg.messageCap))
	}

	return &Registry{
		Channels:            memory.New[snowflake.ID, gateway.Channel](snowflake.LessID),
		Guilds:              memory.New[snowflake.ID, gateway.Guild](snowflake.LessID),
		Emojis:              memory.New[snowflake.ID, gateway.Emoji](snowflake.LessID),
		Stickers:            memory.New[snowflake.ID, gateway.Sticker](snowflake.LessID),
		Members:             memory.New[snowflake.Pair, gateway.Member](snowflake.LessPair),
		Messages:            memory.New[snowflake.ID, gateway.Message](snowflake.LessID, messageOpts...),
		Presences:           memory.New[snowflake.Pair, gateway.Presence](snowflake.LessPair),
		Roles:               memory.New[snowflake.ID, gateway.Role](snowflake.LessID),
		Users:               memory.New[snowflake.ID, gateway.User](snowflake.LessID),
		VoiceStates:         memory.New[snowflake.Pair, gateway.VoiceState](snowflake.LessPair),
		StageInstances:      memory.New[snowflake.ID, gateway.StageInstance](snowflake.LessID),
		ScheduledEvents:     memory.New[snowflake.Pair, gateway.ScheduledEvent](snowflake.LessPair),
		ScheduledEventUsers: memory.New[snowflake.Pair, []snowflake.ID](snowflake.LessPair),
		ThreadMembers:       memory.New[snowflake.Pair, gateway.ThreadMember](snowflake.LessPair),
	}
}

// SetSelfID records the bot's own user id from the bootstrap dispatch. The
// first write wins; later bootstraps on other shards carry the same user.
func (r *Registry) SetSelfID(id snowflake.ID) {
	r.selfID.CompareAndSwap(0, uint64(id))
}

// SelfID returns the recorded self user id, if any bootstrap completed yet.
func (r *Registry) SelfID() (snowflake.ID, bool) {
	id := r.selfID.Load()
	return snowflake.ID(id), id != 0
}

// InvalidateAll clears every store. It must complete before a fresh bootstrap
// dispatch is processed so stale and fresh generations never mix.
func (r *Registry) InvalidateAll(ctx context.Context) error {
	var errs []error
	invalidate := func(name string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("invalidate %s: %w", name, err))
		}
	}

	invalidate("channels", r.Channels.Invalidate(ctx))
	invalidate("guilds", r.Guilds.Invalidate(ctx))
	invalidate("emojis", r.Emojis.Invalidate(ctx))
	invalidate("stickers", r.Stickers.Invalidate(ctx))
	invalidate("members", r.Members.Invalidate(ctx))
	invalidate("messages", r.Messages.Invalidate(ctx))
	invalidate("presences", r.Presences.Invalidate(ctx))
	invalidate("roles", r.Roles.Invalidate(ctx))
	invalidate("users", r.Users.Invalidate(ctx))
	invalidate("voice states", r.VoiceStates.Invalidate(ctx))
	invalidate("stage instances", r.StageInstances.Invalidate(ctx))
	invalidate("scheduled events", r.ScheduledEvents.Invalidate(ctx))
	invalidate("scheduled event users", r.ScheduledEventUsers.Invalidate(ctx))
	invalidate("thread members", r.ThreadMembers.Invalidate(ctx))

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Counts reports per-store entry counts, keyed by store name.
func (r *Registry) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	count := func(name string, n int64, err error) error {
		if err != nil {
			return fmt.Errorf("count %s: %w", name, err)
		}
		counts[name] = n
		return nil
	}

	steps := []error{}
	n, err := r.Channels.Count(ctx)
	steps = append(steps, count("channels", n, err))
	n, err = r.Guilds.Count(ctx)
	steps = append(steps, count("guilds", n, err))
	n, err = r.Emojis.Count(ctx)
	steps = append(steps, count("emojis", n, err))
	n, err = r.Stickers.Count(ctx)
	steps = append(steps, count("stickers", n, err))
	n, err = r.Members.Count(ctx)
	steps = append(steps, count("members", n, err))
	n, err = r.Messages.Count(ctx)
	steps = append(steps, count("messages", n, err))
	n, err = r.Presences.Count(ctx)
	steps = append(steps, count("presences", n, err))
	n, err = r.Roles.Count(ctx)
	steps = append(steps, count("roles", n, err))
	n, err = r.Users.Count(ctx)
	steps = append(steps, count("users", n, err))
	n, err = r.VoiceStates.Count(ctx)
	steps = append(steps, count("voice_states", n, err))
	n, err = r.StageInstances.Count(ctx)
	steps = append(steps, count("stage_instances", n, err))
	n, err = r.ScheduledEvents.Count(ctx)
	steps = append(steps, count("scheduled_events", n, err))
	n, err = r.ScheduledEventUsers.Count(ctx)
	steps = append(steps, count("scheduled_event_users", n, err))
	n, err = r.ThreadMembers.Count(ctx)
	steps = append(steps, count("thread_members", n, err))

	for _, stepErr := range steps {
		if stepErr != nil {
			return nil, stepErr
		}
	}

	return counts, nil
}

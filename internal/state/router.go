package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"statehold/pkg/gateway"
)

// Handler applies one decoded dispatch payload against the registry.
type Handler func(ctx context.Context, shard ShardID, payload json.RawMessage) (Event, error)

// Router is the immutable dispatch table built once at startup: event name to
// handler. It is passed by reference into each shard loop; there is no global
// registry.
type Router struct {
	handlers map[string]Handler
	log      *slog.Logger
}

// NewRouter builds the full dispatch table over u.
func NewRouter(u *Updater, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	r := &Router{handlers: make(map[string]Handler), log: log}

	register(r, gateway.EventReady, u.Ready)

	register(r, gateway.EventChannelCreate, u.ChannelCreate)
	register(r, gateway.EventChannelUpdate, u.ChannelUpdate)
	register(r, gateway.EventChannelDelete, u.ChannelDelete)

	register(r, gateway.EventGuildCreate, u.GuildCreate)
	register(r, gateway.EventGuildUpdate, u.GuildUpdate)
	register(r, gateway.EventGuildDelete, u.GuildDelete)
	register(r, gateway.EventGuildEmojisUpdate, u.GuildEmojisUpdate)
	register(r, gateway.EventGuildStickersUpdate, u.GuildStickersUpdate)

	register(r, gateway.EventGuildMemberAdd, u.GuildMemberAdd)
	register(r, gateway.EventGuildMemberRemove, u.GuildMemberRemove)
	register(r, gateway.EventGuildMemberUpdate, u.GuildMemberUpdate)
	register(r, gateway.EventGuildMembersChunk, u.GuildMembersChunk)

	register(r, gateway.EventGuildRoleCreate, u.GuildRoleCreate)
	register(r, gateway.EventGuildRoleUpdate, u.GuildRoleUpdate)
	register(r, gateway.EventGuildRoleDelete, u.GuildRoleDelete)

	register(r, gateway.EventGuildScheduledEventCreate, u.GuildScheduledEventCreate)
	register(r, gateway.EventGuildScheduledEventUpdate, u.GuildScheduledEventUpdate)
	register(r, gateway.EventGuildScheduledEventDelete, u.GuildScheduledEventDelete)
	register(r, gateway.EventGuildScheduledEventUserAdd, u.GuildScheduledEventUserAdd)
	register(r, gateway.EventGuildScheduledEventUserRemove, u.GuildScheduledEventUserRemove)

	register(r, gateway.EventMessageCreate, u.MessageCreate)
	register(r, gateway.EventMessageUpdate, u.MessageUpdate)
	register(r, gateway.EventMessageDelete, u.MessageDelete)
	register(r, gateway.EventMessageDeleteBulk, u.MessageDeleteBulk)
	register(r, gateway.EventMessageReactionAdd, u.MessageReactionAdd)
	register(r, gateway.EventMessageReactionRemove, u.MessageReactionRemove)
	register(r, gateway.EventMessageReactionRemoveAll, u.MessageReactionRemoveAll)
	register(r, gateway.EventMessageReactionRemoveEmoji, u.MessageReactionRemoveEmoji)

	register(r, gateway.EventPresenceUpdate, u.PresenceUpdate)
	register(r, gateway.EventUserUpdate, u.UserUpdate)
	register(r, gateway.EventVoiceStateUpdate, u.VoiceStateUpdate)

	register(r, gateway.EventStageInstanceCreate, u.StageInstanceCreate)
	register(r, gateway.EventStageInstanceUpdate, u.StageInstanceUpdate)
	register(r, gateway.EventStageInstanceDelete, u.StageInstanceDelete)

	register(r, gateway.EventThreadCreate, u.ThreadCreate)
	register(r, gateway.EventThreadUpdate, u.ThreadUpdate)
	register(r, gateway.EventThreadDelete, u.ThreadDelete)
	register(r, gateway.EventThreadListSync, u.ThreadListSync)
	register(r, gateway.EventThreadMemberUpdate, u.ThreadMemberUpdate)
	register(r, gateway.EventThreadMembersUpdate, u.ThreadMembersUpdate)

	return r
}

// register wraps a typed handler behind payload decoding. GuildCreate routes
// through the bare data struct so the helper stays uniform.
func register[T any](r *Router, name string, handle func(context.Context, ShardID, T) (Event, error)) {
	r.handlers[name] = func(ctx context.Context, shard ShardID, payload json.RawMessage) (Event, error) {
		var d T
		if err := json.Unmarshal(payload, &d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}

		return handle(ctx, shard, d)
	}
}

// Dispatch routes one frame to its handler. Unknown event names are logged at
// warn and reported with ErrUnknownEvent so the caller can keep the stream
// going. A handler panic is recovered here, logged, and yields no event;
// nothing propagates past the router.
func (r *Router) Dispatch(ctx context.Context, shard ShardID, frame gateway.Frame) (ev Event, err error) {
	handler, found := r.handlers[frame.Event]
	if !found {
		r.log.Warn("dropping unknown dispatch", "event", frame.Event, "shard", shard.Index)
		return nil, fmt.Errorf("dispatch %s: %w", frame.Event, gateway.ErrUnknownEvent)
	}

	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		r.log.Error("handler panic recovered",
			"event", frame.Event,
			"shard", shard.Index,
			"panic", fmt.Sprint(recovered),
			"stack", string(debug.Stack()),
		)
		ev, err = nil, nil
	}()

	ev, err = handler(ctx, shard, frame.Payload)
	if err != nil {
		return nil, fmt.Errorf("dispatch %s: %w", frame.Event, err)
	}

	return ev, nil
}

// Known reports whether a handler is registered for the event name.
func (r *Router) Known(event string) bool {
	_, found := r.handlers[event]
	return found
}

package state

import (
	"context"
	"fmt"

	"github.com/samber/mo"

	"statehold/pkg/gateway"
)

// ChannelCreate caches guild-scoped channels and appends the channel id to
// the parent guild's list. Direct-message kinds produce the event without any
// store write. A duplicate create appends the id to the parent list a second
// time; saves themselves stay idempotent.
func (u *Updater) ChannelCreate(ctx context.Context, shard ShardID, d gateway.ChannelCreate) (Event, error) {
	ch := d.Channel
	ev := ChannelCreated{Base: base(gateway.EventChannelCreate, shard), Channel: ch}

	switch {
	case ch.Type.IsDirectKind():
		return ev, nil
	case ch.Type.IsGuildKind() || ch.Type.IsThreadKind():
		if err := u.reg.Channels.Save(ctx, ch.ID, ch); err != nil {
			return nil, fmt.Errorf("save channel %s: %w", ch.ID, err)
		}
		if guildID, ok := ch.GuildID.Get(); ok {
			err := u.updateGuild(ctx, guildID, func(g gateway.Guild) gateway.Guild {
				g.Channels = addID(g.Channels, ch.ID)
				return g
			})
			if err != nil {
				return nil, err
			}
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("channel create %s: %w: %d", ch.ID, gateway.ErrUnknownChannelType, ch.Type)
	}
}

// ChannelUpdate overwrites the cached channel and carries the prior row on
// the event when one existed.
func (u *Updater) ChannelUpdate(ctx context.Context, shard ShardID, d gateway.ChannelUpdate) (Event, error) {
	ch := d.Channel
	ev := ChannelUpdated{Base: base(gateway.EventChannelUpdate, shard), Channel: ch, Old: mo.None[gateway.Channel]()}

	switch {
	case ch.Type.IsDirectKind():
		return ev, nil
	case ch.Type.IsGuildKind() || ch.Type.IsThreadKind():
		old, err := u.reg.Channels.Find(ctx, ch.ID)
		if err != nil {
			return nil, fmt.Errorf("find channel %s: %w", ch.ID, err)
		}
		if err := u.reg.Channels.Save(ctx, ch.ID, ch); err != nil {
			return nil, fmt.Errorf("save channel %s: %w", ch.ID, err)
		}
		ev.Old = old
		return ev, nil
	default:
		return nil, fmt.Errorf("channel update %s: %w: %d", ch.ID, gateway.ErrUnknownChannelType, ch.Type)
	}
}

// ChannelDelete removes the channel row and its id from the parent guild's
// list. Deleting an already-absent channel is not an error.
func (u *Updater) ChannelDelete(ctx context.Context, shard ShardID, d gateway.ChannelDelete) (Event, error) {
	ch := d.Channel
	ev := ChannelDeleted{Base: base(gateway.EventChannelDelete, shard), Channel: ch}

	switch {
	case ch.Type.IsDirectKind():
		return ev, nil
	case ch.Type.IsGuildKind() || ch.Type.IsThreadKind():
		if guildID, ok := ch.GuildID.Get(); ok {
			err := u.updateGuild(ctx, guildID, func(g gateway.Guild) gateway.Guild {
				g.Channels = removeID(g.Channels, ch.ID)
				return g
			})
			if err != nil {
				return nil, err
			}
		}
		if err := u.reg.Channels.Delete(ctx, ch.ID); err != nil {
			return nil, fmt.Errorf("delete channel %s: %w", ch.ID, err)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("channel delete %s: %w: %d", ch.ID, gateway.ErrUnknownChannelType, ch.Type)
	}
}

package state

import (
	"context"
	"fmt"

	"statehold/pkg/gateway"
	"statehold/pkg/snowflake"
)

// GuildScheduledEventCreate caches a new scheduled event under its
// (guild, event) key.
func (u *Updater) GuildScheduledEventCreate(ctx context.Context, shard ShardID, d gateway.GuildScheduledEventCreate) (Event, error) {
	key := snowflake.PairOf(d.ScheduledEvent.GuildID, d.ScheduledEvent.ID)
	if err := u.reg.ScheduledEvents.Save(ctx, key, d.ScheduledEvent); err != nil {
		return nil, fmt.Errorf("save scheduled event %s: %w", key, err)
	}

	return ScheduledEventCreated{Base: base(gateway.EventGuildScheduledEventCreate, shard), Event: d.ScheduledEvent}, nil
}

// GuildScheduledEventUpdate overwrites the cached scheduled event.
func (u *Updater) GuildScheduledEventUpdate(ctx context.Context, shard ShardID, d gateway.GuildScheduledEventUpdate) (Event, error) {
	key := snowflake.PairOf(d.ScheduledEvent.GuildID, d.ScheduledEvent.ID)
	old, err := u.reg.ScheduledEvents.Find(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find scheduled event %s: %w", key, err)
	}
	if err := u.reg.ScheduledEvents.Save(ctx, key, d.ScheduledEvent); err != nil {
		return nil, fmt.Errorf("save scheduled event %s: %w", key, err)
	}

	return ScheduledEventUpdated{Base: base(gateway.EventGuildScheduledEventUpdate, shard), Event: d.ScheduledEvent, Old: old}, nil
}

// GuildScheduledEventDelete removes the scheduled event and its subscriber
// set.
func (u *Updater) GuildScheduledEventDelete(ctx context.Context, shard ShardID, d gateway.GuildScheduledEventDelete) (Event, error) {
	key := snowflake.PairOf(d.ScheduledEvent.GuildID, d.ScheduledEvent.ID)
	old, err := u.reg.ScheduledEvents.Find(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find scheduled event %s: %w", key, err)
	}
	if err := u.reg.ScheduledEvents.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("delete scheduled event %s: %w", key, err)
	}
	if err := u.reg.ScheduledEventUsers.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("delete scheduled event %s users: %w", key, err)
	}

	return ScheduledEventDeleted{Base: base(gateway.EventGuildScheduledEventDelete, shard), Event: d.ScheduledEvent, Old: old}, nil
}

// GuildScheduledEventUserAdd adds the user to the event's subscriber set,
// find-or-default on first subscription.
func (u *Updater) GuildScheduledEventUserAdd(ctx context.Context, shard ShardID, d gateway.GuildScheduledEventUserAdd) (Event, error) {
	key := snowflake.PairOf(d.GuildID, d.ScheduledEventID)
	found, err := u.reg.ScheduledEventUsers.Find(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find scheduled event %s users: %w", key, err)
	}

	users, _ := found.Get()
	users = addDistinctID(users, d.UserID)
	if err := u.reg.ScheduledEventUsers.Save(ctx, key, users); err != nil {
		return nil, fmt.Errorf("save scheduled event %s users: %w", key, err)
	}

	return ScheduledEventUserAdded{
		Base:    base(gateway.EventGuildScheduledEventUserAdd, shard),
		GuildID: d.GuildID,
		EventID: d.ScheduledEventID,
		UserID:  d.UserID,
	}, nil
}

// GuildScheduledEventUserRemove drops the user from the event's subscriber
// set.
func (u *Updater) GuildScheduledEventUserRemove(ctx context.Context, shard ShardID, d gateway.GuildScheduledEventUserRemove) (Event, error) {
	key := snowflake.PairOf(d.GuildID, d.ScheduledEventID)
	found, err := u.reg.ScheduledEventUsers.Find(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find scheduled event %s users: %w", key, err)
	}

	if users, ok := found.Get(); ok {
		if err := u.reg.ScheduledEventUsers.Save(ctx, key, removeID(users, d.UserID)); err != nil {
			return nil, fmt.Errorf("save scheduled event %s users: %w", key, err)
		}
	}

	return ScheduledEventUserRemoved{
		Base:    base(gateway.EventGuildScheduledEventUserRemove, shard),
		GuildID: d.GuildID,
		EventID: d.ScheduledEventID,
		UserID:  d.UserID,
	}, nil
}

package state

import (
	"context"
	"fmt"

	"statehold/internal/store"
	"statehold/pkg/gateway"
	"statehold/pkg/snowflake"
)

// ThreadCreate caches the thread as a channel row. Threads do not join the
// parent guild's channel id list.
func (u *Updater) ThreadCreate(ctx context.Context, shard ShardID, d gateway.ThreadCreate) (Event, error) {
	if err := u.reg.Channels.Save(ctx, d.Channel.ID, d.Channel); err != nil {
		return nil, fmt.Errorf("save thread %s: %w", d.Channel.ID, err)
	}

	return ThreadCreated{Base: base(gateway.EventThreadCreate, shard), Thread: d.Channel}, nil
}

// ThreadUpdate overwrites the cached thread.
func (u *Updater) ThreadUpdate(ctx context.Context, shard ShardID, d gateway.ThreadUpdate) (Event, error) {
	old, err := u.reg.Channels.Find(ctx, d.Channel.ID)
	if err != nil {
		return nil, fmt.Errorf("find thread %s: %w", d.Channel.ID, err)
	}
	if err := u.reg.Channels.Save(ctx, d.Channel.ID, d.Channel); err != nil {
		return nil, fmt.Errorf("save thread %s: %w", d.Channel.ID, err)
	}

	return ThreadUpdated{Base: base(gateway.EventThreadUpdate, shard), Thread: d.Channel, Old: old}, nil
}

// ThreadDelete removes the thread row and range-deletes every thread member
// keyed under it.
func (u *Updater) ThreadDelete(ctx context.Context, shard ShardID, d gateway.ThreadDelete) (Event, error) {
	old, err := u.reg.Channels.Find(ctx, d.Channel.ID)
	if err != nil {
		return nil, fmt.Errorf("find thread %s: %w", d.Channel.ID, err)
	}
	if err := u.reg.Channels.Delete(ctx, d.Channel.ID); err != nil {
		return nil, fmt.Errorf("delete thread %s: %w", d.Channel.ID, err)
	}

	lo, hi := snowflake.RangeOf(d.Channel.ID)
	if err := u.reg.ThreadMembers.DeleteInRange(ctx, lo, hi); err != nil {
		return nil, fmt.Errorf("delete thread %s members: %w", d.Channel.ID, err)
	}

	return ThreadDeleted{Base: base(gateway.EventThreadDelete, shard), ThreadID: d.Channel.ID, Old: old}, nil
}

// ThreadListSync bulk-saves the threads visible to the session plus the
// session user's memberships of them.
func (u *Updater) ThreadListSync(ctx context.Context, shard ShardID, d gateway.ThreadListSync) (Event, error) {
	threads := make([]store.Entry[snowflake.ID, gateway.Channel], 0, len(d.Threads))
	for _, thread := range d.Threads {
		threads = append(threads, store.Entry[snowflake.ID, gateway.Channel]{Key: thread.ID, Value: thread})
	}
	if err := u.reg.Channels.SaveMany(ctx, threads); err != nil {
		return nil, fmt.Errorf("save guild %s threads: %w", d.GuildID, err)
	}

	members := make([]store.Entry[snowflake.Pair, gateway.ThreadMember], 0, len(d.Members))
	for _, member := range d.Members {
		threadID, ok := member.ID.Get()
		if !ok {
			continue
		}
		members = append(members, store.Entry[snowflake.Pair, gateway.ThreadMember]{
			Key:   snowflake.PairOf(threadID, member.UserID.OrElse(0)),
			Value: member,
		})
	}
	if err := u.reg.ThreadMembers.SaveMany(ctx, members); err != nil {
		return nil, fmt.Errorf("save guild %s thread members: %w", d.GuildID, err)
	}

	return ThreadListSynced{Base: base(gateway.EventThreadListSync, shard), GuildID: d.GuildID, Threads: d.Threads}, nil
}

// ThreadMemberUpdate refreshes one membership row. Payloads missing the
// thread id cannot be keyed and are skipped without an event.
func (u *Updater) ThreadMemberUpdate(ctx context.Context, shard ShardID, d gateway.ThreadMemberUpdate) (Event, error) {
	threadID, ok := d.ID.Get()
	if !ok {
		u.log.Debug("thread member without thread id, skipping")
		return nil, nil
	}

	key := snowflake.PairOf(threadID, d.UserID.OrElse(0))
	old, err := u.reg.ThreadMembers.Find(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find thread member %s: %w", key, err)
	}
	if err := u.reg.ThreadMembers.Save(ctx, key, d.ThreadMember); err != nil {
		return nil, fmt.Errorf("save thread member %s: %w", key, err)
	}

	return ThreadMemberUpdated{Base: base(gateway.EventThreadMemberUpdate, shard), Member: d.ThreadMember, Old: old}, nil
}

// ThreadMembersUpdate applies one batch of membership joins and leaves for a
// thread.
func (u *Updater) ThreadMembersUpdate(ctx context.Context, shard ShardID, d gateway.ThreadMembersUpdate) (Event, error) {
	added := make([]store.Entry[snowflake.Pair, gateway.ThreadMember], 0, len(d.AddedMembers))
	for _, member := range d.AddedMembers {
		userID, ok := member.UserID.Get()
		if !ok {
			continue
		}
		added = append(added, store.Entry[snowflake.Pair, gateway.ThreadMember]{
			Key:   snowflake.PairOf(d.ID, userID),
			Value: member,
		})
	}
	if err := u.reg.ThreadMembers.SaveMany(ctx, added); err != nil {
		return nil, fmt.Errorf("save thread %s members: %w", d.ID, err)
	}

	removed := make([]snowflake.Pair, 0, len(d.RemovedMemberIDs))
	for _, userID := range d.RemovedMemberIDs {
		removed = append(removed, snowflake.PairOf(d.ID, userID))
	}
	if err := u.reg.ThreadMembers.DeleteMany(ctx, removed); err != nil {
		return nil, fmt.Errorf("delete thread %s members: %w", d.ID, err)
	}

	return ThreadMembersUpdated{
		Base:     base(gateway.EventThreadMembersUpdate, shard),
		ThreadID: d.ID,
		Added:    d.AddedMembers,
		Removed:  d.RemovedMemberIDs,
	}, nil
}

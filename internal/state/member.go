package state

import (
	"context"
	"fmt"

	"github.com/samber/mo"

	"statehold/internal/store"
	"statehold/pkg/gateway"
	"statehold/pkg/snowflake"
)

// GuildMemberAdd saves the member and user rows and maintains the guild's
// member list and count. The count is a plain signed increment.
func (u *Updater) GuildMemberAdd(ctx context.Context, shard ShardID, d gateway.GuildMemberAdd) (Event, error) {
	key := snowflake.PairOf(d.GuildID, d.User.ID)
	if err := u.reg.Members.Save(ctx, key, d.Member); err != nil {
		return nil, fmt.Errorf("save member %s: %w", key, err)
	}
	if err := u.reg.Users.Save(ctx, d.User.ID, d.User); err != nil {
		return nil, fmt.Errorf("save user %s: %w", d.User.ID, err)
	}

	err := u.updateGuild(ctx, d.GuildID, func(g gateway.Guild) gateway.Guild {
		g.Members = addID(g.Members, d.User.ID)
		g.MemberCount++
		return g
	})
	if err != nil {
		return nil, err
	}

	return MemberAdded{Base: base(gateway.EventGuildMemberAdd, shard), GuildID: d.GuildID, Member: d.Member}, nil
}

// GuildMemberRemove deletes the member and presence rows, decrements the
// member count without a floor, and garbage-collects the user row when no
// membership in any guild references it anymore.
func (u *Updater) GuildMemberRemove(ctx context.Context, shard ShardID, d gateway.GuildMemberRemove) (Event, error) {
	key := snowflake.PairOf(d.GuildID, d.User.ID)
	old, err := u.reg.Members.Find(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find member %s: %w", key, err)
	}

	err = u.updateGuild(ctx, d.GuildID, func(g gateway.Guild) gateway.Guild {
		g.Members = removeID(g.Members, d.User.ID)
		g.MemberCount--
		return g
	})
	if err != nil {
		return nil, err
	}

	if err := u.reg.Members.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("delete member %s: %w", key, err)
	}
	if err := u.reg.Presences.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("delete presence %s: %w", key, err)
	}
	if err := u.collectOrphanUser(ctx, d.User.ID); err != nil {
		return nil, err
	}

	return MemberRemoved{
		Base:    base(gateway.EventGuildMemberRemove, shard),
		GuildID: d.GuildID,
		User:    d.User,
		Old:     old,
	}, nil
}

// collectOrphanUser deletes the user row when no member key in any guild
// still carries this user id. The scan covers the whole member keyspace; the
// cost is accepted in exchange for not maintaining per-user membership
// counters.
func (u *Updater) collectOrphanUser(ctx context.Context, userID snowflake.ID) error {
	keys, err := u.reg.Members.Keys(ctx)
	if err != nil {
		return fmt.Errorf("scan member keys: %w", err)
	}

	for _, key := range keys {
		if key.B == userID {
			return nil
		}
	}

	if err := u.reg.Users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user %s: %w", userID, err)
	}

	return nil
}

// GuildMemberUpdate merges the partial payload onto the cached member. Roles
// are a full replacement while nick, avatar and premium status follow the
// tri-state merge rule. Without a cached row there is nothing to merge onto
// and no store write happens; the event still fires from the incoming fields.
func (u *Updater) GuildMemberUpdate(ctx context.Context, shard ShardID, d gateway.GuildMemberUpdate) (Event, error) {
	key := snowflake.PairOf(d.GuildID, d.User.ID)
	found, err := u.reg.Members.Find(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find member %s: %w", key, err)
	}

	ev := MemberUpdated{Base: base(gateway.EventGuildMemberUpdate, shard), GuildID: d.GuildID, Old: found}

	if old, ok := found.Get(); ok {
		member := old
		member.User = d.User
		member.Roles = d.Roles
		member.Nick = d.Nick.OrKeep(old.Nick)
		member.Avatar = d.Avatar.OrKeep(old.Avatar)
		member.PremiumSince = d.PremiumSince.OrKeep(old.PremiumSince)
		member.Pending = d.Pending.OrKeep(old.Pending)
		if d.JoinedAt != "" {
			member.JoinedAt = d.JoinedAt
		}

		if err := u.reg.Members.Save(ctx, key, member); err != nil {
			return nil, fmt.Errorf("save member %s: %w", key, err)
		}

		ev.Member = member
		for _, id := range d.Roles {
			if !containsID(old.Roles, id) {
				ev.AddedRoles = append(ev.AddedRoles, id)
			}
		}
		for _, id := range old.Roles {
			if !containsID(d.Roles, id) {
				ev.RemovedRoles = append(ev.RemovedRoles, id)
			}
		}
		return ev, nil
	}

	ev.Member = gateway.Member{
		User:         d.User,
		Roles:        d.Roles,
		Nick:         d.Nick,
		Avatar:       d.Avatar,
		JoinedAt:     d.JoinedAt,
		PremiumSince: d.PremiumSince,
		Pending:      d.Pending,
	}
	ev.Old = mo.None[gateway.Member]()
	return ev, nil
}

// GuildMembersChunk batch-saves one page of a large guild's member list. The
// guild's member id list grows by distinct union and the count is left alone;
// it was already carried by the bootstrap payload.
func (u *Updater) GuildMembersChunk(ctx context.Context, shard ShardID, d gateway.GuildMembersChunk) (Event, error) {
	members := make([]store.Entry[snowflake.Pair, gateway.Member], 0, len(d.Members))
	users := make([]store.Entry[snowflake.ID, gateway.User], 0, len(d.Members))
	ids := make([]snowflake.ID, 0, len(d.Members))
	for _, member := range d.Members {
		members = append(members, store.Entry[snowflake.Pair, gateway.Member]{
			Key:   snowflake.PairOf(d.GuildID, member.User.ID),
			Value: member,
		})
		users = append(users, store.Entry[snowflake.ID, gateway.User]{Key: member.User.ID, Value: member.User})
		ids = append(ids, member.User.ID)
	}

	if err := u.reg.Members.SaveMany(ctx, members); err != nil {
		return nil, fmt.Errorf("save guild %s member chunk: %w", d.GuildID, err)
	}
	if err := u.reg.Users.SaveMany(ctx, users); err != nil {
		return nil, fmt.Errorf("save guild %s chunk users: %w", d.GuildID, err)
	}

	err := u.updateGuild(ctx, d.GuildID, func(g gateway.Guild) gateway.Guild {
		g.Members = addAllDistinctIDs(g.Members, ids)
		return g
	})
	if err != nil {
		return nil, err
	}

	if err := u.synthesizeOfflinePresences(ctx, d.GuildID, d.Members); err != nil {
		return nil, err
	}

	return MembersChunked{Base: base(gateway.EventGuildMembersChunk, shard), GuildID: d.GuildID, Members: d.Members}, nil
}

package state

import (
	"context"
	"fmt"

	"statehold/pkg/gateway"
	"statehold/pkg/snowflake"
)

// GuildRoleCreate saves the role and appends its id to the parent guild's
// role list.
func (u *Updater) GuildRoleCreate(ctx context.Context, shard ShardID, d gateway.GuildRoleCreate) (Event, error) {
	if err := u.reg.Roles.Save(ctx, d.Role.ID, d.Role); err != nil {
		return nil, fmt.Errorf("save role %s: %w", d.Role.ID, err)
	}

	err := u.updateGuild(ctx, d.GuildID, func(g gateway.Guild) gateway.Guild {
		g.Roles = addID(g.Roles, d.Role.ID)
		return g
	})
	if err != nil {
		return nil, err
	}

	return RoleCreated{Base: base(gateway.EventGuildRoleCreate, shard), GuildID: d.GuildID, Role: d.Role}, nil
}

// GuildRoleUpdate overwrites the role row.
func (u *Updater) GuildRoleUpdate(ctx context.Context, shard ShardID, d gateway.GuildRoleUpdate) (Event, error) {
	old, err := u.reg.Roles.Find(ctx, d.Role.ID)
	if err != nil {
		return nil, fmt.Errorf("find role %s: %w", d.Role.ID, err)
	}

	if err := u.reg.Roles.Save(ctx, d.Role.ID, d.Role); err != nil {
		return nil, fmt.Errorf("save role %s: %w", d.Role.ID, err)
	}

	return RoleUpdated{Base: base(gateway.EventGuildRoleUpdate, shard), GuildID: d.GuildID, Role: d.Role, Old: old}, nil
}

// GuildRoleDelete removes the role from the guild's list, deletes the row,
// then strips the role id from every member of the guild still carrying it.
// The steps are independent store calls, not one transaction.
func (u *Updater) GuildRoleDelete(ctx context.Context, shard ShardID, d gateway.GuildRoleDelete) (Event, error) {
	old, err := u.reg.Roles.Find(ctx, d.RoleID)
	if err != nil {
		return nil, fmt.Errorf("find role %s: %w", d.RoleID, err)
	}

	err = u.updateGuild(ctx, d.GuildID, func(g gateway.Guild) gateway.Guild {
		g.Roles = removeID(g.Roles, d.RoleID)
		return g
	})
	if err != nil {
		return nil, err
	}

	if err := u.reg.Roles.Delete(ctx, d.RoleID); err != nil {
		return nil, fmt.Errorf("delete role %s: %w", d.RoleID, err)
	}
	if err := u.stripRoleFromMembers(ctx, d.GuildID, d.RoleID); err != nil {
		return nil, err
	}

	return RoleDeleted{Base: base(gateway.EventGuildRoleDelete, shard), GuildID: d.GuildID, RoleID: d.RoleID, Old: old}, nil
}

func (u *Updater) stripRoleFromMembers(ctx context.Context, guildID, roleID snowflake.ID) error {
	lo, hi := snowflake.RangeOf(guildID)
	members, err := u.reg.Members.FindInRange(ctx, lo, hi)
	if err != nil {
		return fmt.Errorf("scan guild %s members: %w", guildID, err)
	}

	for _, member := range members {
		if !containsID(member.Roles, roleID) {
			continue
		}
		member.Roles = removeID(member.Roles, roleID)
		key := snowflake.PairOf(guildID, member.User.ID)
		if err := u.reg.Members.Save(ctx, key, member); err != nil {
			return fmt.Errorf("save member %s: %w", key, err)
		}
	}

	return nil
}

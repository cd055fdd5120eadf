package state

import (
	"context"
	"fmt"

	"statehold/pkg/gateway"
	"statehold/pkg/snowflake"
)

// PresenceUpdate saves the new presence and folds the partial user fields the
// payload carries onto the cached user row. Absent-on-wire keeps the cached
// value; present, even as an explicit null, overwrites it.
func (u *Updater) PresenceUpdate(ctx context.Context, shard ShardID, d gateway.PresenceUpdate) (Event, error) {
	key := snowflake.PairOf(d.GuildID, d.User.ID)
	oldPresence, err := u.reg.Presences.Find(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find presence %s: %w", key, err)
	}
	if err := u.reg.Presences.Save(ctx, key, d.Presence); err != nil {
		return nil, fmt.Errorf("save presence %s: %w", key, err)
	}

	oldUser, err := u.reg.Users.Find(ctx, d.User.ID)
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", d.User.ID, err)
	}
	if user, ok := oldUser.Get(); ok {
		if username, ok := d.User.Username.Get(); ok {
			user.Username = username
		}
		if discriminator, ok := d.User.Discriminator.Get(); ok {
			user.Discriminator = discriminator
		}
		user.GlobalName = d.User.GlobalName.OrKeep(user.GlobalName)
		user.Avatar = d.User.Avatar.OrKeep(user.Avatar)
		user.Bot = d.User.Bot.OrKeep(user.Bot)

		if err := u.reg.Users.Save(ctx, d.User.ID, user); err != nil {
			return nil, fmt.Errorf("save user %s: %w", d.User.ID, err)
		}
	}

	return PresenceUpdated{
		Base:     base(gateway.EventPresenceUpdate, shard),
		GuildID:  d.GuildID,
		Presence: d.Presence,
		Old:      oldPresence,
		OldUser:  oldUser,
	}, nil
}

// UserUpdate is a whole-value overwrite of the user row, normally the self
// user.
func (u *Updater) UserUpdate(ctx context.Context, shard ShardID, d gateway.UserUpdate) (Event, error) {
	old, err := u.reg.Users.Find(ctx, d.User.ID)
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", d.User.ID, err)
	}
	if err := u.reg.Users.Save(ctx, d.User.ID, d.User); err != nil {
		return nil, fmt.Errorf("save user %s: %w", d.User.ID, err)
	}

	return UserUpdated{Base: base(gateway.EventUserUpdate, shard), User: d.User, Old: old}, nil
}

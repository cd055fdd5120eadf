package state

import (
	"context"
	"fmt"

	"statehold/internal/store"
	"statehold/pkg/gateway"
	"statehold/pkg/possible"
	"statehold/pkg/snowflake"
)

// GuildCreate bootstraps a guild: the row itself plus every inlined child
// entity, each saved to its own store. Large guilds elide the member id list
// on the row; membership arrives later in chunks. Member rows themselves are
// still saved from whatever the payload carries.
func (u *Updater) GuildCreate(ctx context.Context, shard ShardID, d gateway.GuildCreateData) (Event, error) {
	guild := gateway.Guild{
		ID:          d.ID,
		Name:        d.Name,
		OwnerID:     d.OwnerID,
		MemberCount: d.MemberCount,
		Large:       d.Large,
	}

	for _, role := range d.Roles {
		guild.Roles = append(guild.Roles, role.ID)
	}
	for _, emoji := range d.Emojis {
		if id, ok := emoji.ID.Get(); ok {
			guild.Emojis = append(guild.Emojis, id)
		}
	}
	for _, sticker := range d.Stickers {
		guild.Stickers = append(guild.Stickers, sticker.ID)
	}
	for _, ch := range d.Channels {
		guild.Channels = append(guild.Channels, ch.ID)
	}
	if !d.Large {
		for _, member := range d.Members {
			guild.Members = append(guild.Members, member.User.ID)
		}
	}

	if err := u.reg.Guilds.Save(ctx, d.ID, guild); err != nil {
		return nil, fmt.Errorf("save guild %s: %w", d.ID, err)
	}
	if err := u.saveGuildChildren(ctx, d); err != nil {
		return nil, err
	}

	return GuildCreated{Base: base(gateway.EventGuildCreate, shard), Guild: guild}, nil
}

func (u *Updater) saveGuildChildren(ctx context.Context, d gateway.GuildCreateData) error {
	roles := make([]store.Entry[snowflake.ID, gateway.Role], 0, len(d.Roles))
	for _, role := range d.Roles {
		roles = append(roles, store.Entry[snowflake.ID, gateway.Role]{Key: role.ID, Value: role})
	}
	if err := u.reg.Roles.SaveMany(ctx, roles); err != nil {
		return fmt.Errorf("save guild %s roles: %w", d.ID, err)
	}

	emojis := make([]store.Entry[snowflake.ID, gateway.Emoji], 0, len(d.Emojis))
	for _, emoji := range d.Emojis {
		if id, ok := emoji.ID.Get(); ok {
			emojis = append(emojis, store.Entry[snowflake.ID, gateway.Emoji]{Key: id, Value: emoji})
		}
	}
	if err := u.reg.Emojis.SaveMany(ctx, emojis); err != nil {
		return fmt.Errorf("save guild %s emojis: %w", d.ID, err)
	}

	stickers := make([]store.Entry[snowflake.ID, gateway.Sticker], 0, len(d.Stickers))
	for _, sticker := range d.Stickers {
		stickers = append(stickers, store.Entry[snowflake.ID, gateway.Sticker]{Key: sticker.ID, Value: sticker})
	}
	if err := u.reg.Stickers.SaveMany(ctx, stickers); err != nil {
		return fmt.Errorf("save guild %s stickers: %w", d.ID, err)
	}

	channels := make([]store.Entry[snowflake.ID, gateway.Channel], 0, len(d.Channels)+len(d.Threads))
	for _, ch := range append(append([]gateway.Channel{}, d.Channels...), d.Threads...) {
		// Bootstrap channel objects omit their own guild id.
		if ch.GuildID.IsAbsent() {
			ch.GuildID = possible.Of(d.ID)
		}
		channels = append(channels, store.Entry[snowflake.ID, gateway.Channel]{Key: ch.ID, Value: ch})
	}
	if err := u.reg.Channels.SaveMany(ctx, channels); err != nil {
		return fmt.Errorf("save guild %s channels: %w", d.ID, err)
	}

	members := make([]store.Entry[snowflake.Pair, gateway.Member], 0, len(d.Members))
	users := make([]store.Entry[snowflake.ID, gateway.User], 0, len(d.Members))
	for _, member := range d.Members {
		members = append(members, store.Entry[snowflake.Pair, gateway.Member]{
			Key:   snowflake.PairOf(d.ID, member.User.ID),
			Value: member,
		})
		users = append(users, store.Entry[snowflake.ID, gateway.User]{Key: member.User.ID, Value: member.User})
	}
	if err := u.reg.Members.SaveMany(ctx, members); err != nil {
		return fmt.Errorf("save guild %s members: %w", d.ID, err)
	}
	if err := u.reg.Users.SaveMany(ctx, users); err != nil {
		return fmt.Errorf("save guild %s users: %w", d.ID, err)
	}

	voice := make([]store.Entry[snowflake.Pair, gateway.VoiceState], 0, len(d.VoiceStates))
	for _, vs := range d.VoiceStates {
		if vs.GuildID.IsAbsent() {
			vs.GuildID = possible.Of(d.ID)
		}
		voice = append(voice, store.Entry[snowflake.Pair, gateway.VoiceState]{
			Key:   snowflake.PairOf(d.ID, vs.UserID),
			Value: vs,
		})
	}
	if err := u.reg.VoiceStates.SaveMany(ctx, voice); err != nil {
		return fmt.Errorf("save guild %s voice states: %w", d.ID, err)
	}

	presences := make([]store.Entry[snowflake.Pair, gateway.Presence], 0, len(d.Presences))
	for _, presence := range d.Presences {
		presences = append(presences, store.Entry[snowflake.Pair, gateway.Presence]{
			Key:   snowflake.PairOf(d.ID, presence.User.ID),
			Value: presence,
		})
	}
	if err := u.reg.Presences.SaveMany(ctx, presences); err != nil {
		return fmt.Errorf("save guild %s presences: %w", d.ID, err)
	}

	// Members arriving without a presence get a synthetic offline one, but
	// never at the cost of a richer presence already cached.
	if err := u.synthesizeOfflinePresences(ctx, d.ID, d.Members); err != nil {
		return err
	}

	return nil
}

// synthesizeOfflinePresences saves an offline presence for each member that
// has none cached yet.
func (u *Updater) synthesizeOfflinePresences(ctx context.Context, guildID snowflake.ID, members []gateway.Member) error {
	for _, member := range members {
		key := snowflake.PairOf(guildID, member.User.ID)
		found, err := u.reg.Presences.Find(ctx, key)
		if err != nil {
			return fmt.Errorf("find presence %s: %w", key, err)
		}
		if found.IsPresent() {
			continue
		}
		if err := u.reg.Presences.Save(ctx, key, gateway.OfflinePresence(member)); err != nil {
			return fmt.Errorf("save presence %s: %w", key, err)
		}
	}

	return nil
}

// GuildUpdate replaces the mutable guild attributes. Role and emoji id lists
// are recomputed from the full arrays in the payload; channel and member
// lists carry over from the cached row. An uncached guild yields an event
// built from the payload alone, with no write.
func (u *Updater) GuildUpdate(ctx context.Context, shard ShardID, d gateway.GuildUpdateData) (Event, error) {
	found, err := u.reg.Guilds.Find(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("find guild %s: %w", d.ID, err)
	}

	guild, cached := found.Get()
	guild.ID = d.ID
	guild.Name = d.Name
	guild.OwnerID = d.OwnerID
	guild.Roles = nil
	for _, role := range d.Roles {
		guild.Roles = append(guild.Roles, role.ID)
	}
	guild.Emojis = nil
	for _, emoji := range d.Emojis {
		if id, ok := emoji.ID.Get(); ok {
			guild.Emojis = append(guild.Emojis, id)
		}
	}

	// Without a cached row there is nothing to merge onto; emit the
	// best-effort event but leave the store untouched.
	if cached {
		if err := u.reg.Guilds.Save(ctx, d.ID, guild); err != nil {
			return nil, fmt.Errorf("save guild %s: %w", d.ID, err)
		}
	}

	return GuildUpdated{Base: base(gateway.EventGuildUpdate, shard), Guild: guild, Old: found}, nil
}

// GuildDelete removes the guild row and cascades over everything scoped to
// it. The cascade runs only when the guild was cached; without a cached row
// there are no id lists to cascade from.
func (u *Updater) GuildDelete(ctx context.Context, shard ShardID, d gateway.GuildDelete) (Event, error) {
	found, err := u.reg.Guilds.Find(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("find guild %s: %w", d.ID, err)
	}

	if err := u.reg.Guilds.Delete(ctx, d.ID); err != nil {
		return nil, fmt.Errorf("delete guild %s: %w", d.ID, err)
	}

	if guild, ok := found.Get(); ok {
		if err := u.cascadeGuildDelete(ctx, guild); err != nil {
			return nil, err
		}
	}

	return GuildDeleted{
		Base:        base(gateway.EventGuildDelete, shard),
		GuildID:     d.ID,
		Unavailable: d.Unavailable.OrElse(false),
		Old:         found,
	}, nil
}

func (u *Updater) cascadeGuildDelete(ctx context.Context, guild gateway.Guild) error {
	if err := u.reg.Channels.DeleteMany(ctx, guild.Channels); err != nil {
		return fmt.Errorf("delete guild %s channels: %w", guild.ID, err)
	}
	if err := u.reg.Roles.DeleteMany(ctx, guild.Roles); err != nil {
		return fmt.Errorf("delete guild %s roles: %w", guild.ID, err)
	}
	if err := u.reg.Emojis.DeleteMany(ctx, guild.Emojis); err != nil {
		return fmt.Errorf("delete guild %s emojis: %w", guild.ID, err)
	}
	if err := u.reg.Stickers.DeleteMany(ctx, guild.Stickers); err != nil {
		return fmt.Errorf("delete guild %s stickers: %w", guild.ID, err)
	}

	lo, hi := snowflake.RangeOf(guild.ID)
	if err := u.reg.Members.DeleteInRange(ctx, lo, hi); err != nil {
		return fmt.Errorf("delete guild %s members: %w", guild.ID, err)
	}
	if err := u.reg.VoiceStates.DeleteInRange(ctx, lo, hi); err != nil {
		return fmt.Errorf("delete guild %s voice states: %w", guild.ID, err)
	}
	if err := u.reg.Presences.DeleteInRange(ctx, lo, hi); err != nil {
		return fmt.Errorf("delete guild %s presences: %w", guild.ID, err)
	}
	if err := u.reg.ScheduledEvents.DeleteInRange(ctx, lo, hi); err != nil {
		return fmt.Errorf("delete guild %s scheduled events: %w", guild.ID, err)
	}
	if err := u.reg.ScheduledEventUsers.DeleteInRange(ctx, lo, hi); err != nil {
		return fmt.Errorf("delete guild %s scheduled event users: %w", guild.ID, err)
	}

	return nil
}

// GuildEmojisUpdate replaces the guild's emoji set wholesale: rows no longer
// listed are dropped, the new rows are saved, and the guild row's id list is
// rebuilt from the payload.
func (u *Updater) GuildEmojisUpdate(ctx context.Context, shard ShardID, d gateway.GuildEmojisUpdate) (Event, error) {
	newIDs := make([]snowflake.ID, 0, len(d.Emojis))
	entries := make([]store.Entry[snowflake.ID, gateway.Emoji], 0, len(d.Emojis))
	for _, emoji := range d.Emojis {
		if id, ok := emoji.ID.Get(); ok {
			newIDs = append(newIDs, id)
			entries = append(entries, store.Entry[snowflake.ID, gateway.Emoji]{Key: id, Value: emoji})
		}
	}

	var old []gateway.Emoji
	found, err := u.reg.Guilds.Find(ctx, d.GuildID)
	if err != nil {
		return nil, fmt.Errorf("find guild %s: %w", d.GuildID, err)
	}
	if guild, ok := found.Get(); ok {
		var dropped []snowflake.ID
		for _, id := range guild.Emojis {
			prior, err := u.reg.Emojis.Find(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("find emoji %s: %w", id, err)
			}
			if emoji, ok := prior.Get(); ok {
				old = append(old, emoji)
			}
			if !containsID(newIDs, id) {
				dropped = append(dropped, id)
			}
		}
		if err := u.reg.Emojis.DeleteMany(ctx, dropped); err != nil {
			return nil, fmt.Errorf("delete guild %s emojis: %w", d.GuildID, err)
		}

		guild.Emojis = newIDs
		if err := u.reg.Guilds.Save(ctx, d.GuildID, guild); err != nil {
			return nil, fmt.Errorf("save guild %s: %w", d.GuildID, err)
		}
	}

	if err := u.reg.Emojis.SaveMany(ctx, entries); err != nil {
		return nil, fmt.Errorf("save guild %s emojis: %w", d.GuildID, err)
	}

	return EmojisUpdated{
		Base:    base(gateway.EventGuildEmojisUpdate, shard),
		GuildID: d.GuildID,
		Emojis:  d.Emojis,
		Old:     old,
	}, nil
}

// GuildStickersUpdate replaces the guild's sticker set wholesale, mirroring
// the emoji bulk update.
func (u *Updater) GuildStickersUpdate(ctx context.Context, shard ShardID, d gateway.GuildStickersUpdate) (Event, error) {
	newIDs := make([]snowflake.ID, 0, len(d.Stickers))
	entries := make([]store.Entry[snowflake.ID, gateway.Sticker], 0, len(d.Stickers))
	for _, sticker := range d.Stickers {
		newIDs = append(newIDs, sticker.ID)
		entries = append(entries, store.Entry[snowflake.ID, gateway.Sticker]{Key: sticker.ID, Value: sticker})
	}

	var old []gateway.Sticker
	found, err := u.reg.Guilds.Find(ctx, d.GuildID)
	if err != nil {
		return nil, fmt.Errorf("find guild %s: %w", d.GuildID, err)
	}
	if guild, ok := found.Get(); ok {
		var dropped []snowflake.ID
		for _, id := range guild.Stickers {
			prior, err := u.reg.Stickers.Find(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("find sticker %s: %w", id, err)
			}
			if sticker, ok := prior.Get(); ok {
				old = append(old, sticker)
			}
			if !containsID(newIDs, id) {
				dropped = append(dropped, id)
			}
		}
		if err := u.reg.Stickers.DeleteMany(ctx, dropped); err != nil {
			return nil, fmt.Errorf("delete guild %s stickers: %w", d.GuildID, err)
		}

		guild.Stickers = newIDs
		if err := u.reg.Guilds.Save(ctx, d.GuildID, guild); err != nil {
			return nil, fmt.Errorf("save guild %s: %w", d.GuildID, err)
		}
	}

	if err := u.reg.Stickers.SaveMany(ctx, entries); err != nil {
		return nil, fmt.Errorf("save guild %s stickers: %w", d.GuildID, err)
	}

	return StickersUpdated{
		Base:     base(gateway.EventGuildStickersUpdate, shard),
		GuildID:  d.GuildID,
		Stickers: d.Stickers,
		Old:      old,
	}, nil
}

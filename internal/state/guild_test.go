package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statehold/pkg/gateway"
	"statehold/pkg/possible"
	"statehold/pkg/snowflake"
)

func bootstrapGuild(guildID snowflake.ID, large bool) gateway.GuildCreateData {
	return gateway.GuildCreateData{
		ID:          guildID,
		Name:        "testing grounds",
		OwnerID:     snowflake.ID(50),
		MemberCount: 2,
		Large:       large,
		Roles: []gateway.Role{
			{ID: 100, Name: "admin"},
			{ID: 101, Name: "mod"},
		},
		Emojis: []gateway.Emoji{
			{ID: possible.Of(snowflake.ID(200)), Name: possible.Of("blob")},
		},
		Stickers: []gateway.Sticker{
			{ID: 300, Name: "wave"},
		},
		Channels: []gateway.Channel{
			{ID: 400, Type: gateway.ChannelTypeGuildText},
			{ID: 401, Type: gateway.ChannelTypeGuildVoice},
		},
		Threads: []gateway.Channel{
			{ID: 402, Type: gateway.ChannelTypePublicThread, GuildID: possible.Of(guildID)},
		},
		Members: []gateway.Member{
			testMember(50, "owner"),
			testMember(51, "regular"),
		},
		Presences: []gateway.Presence{
			{User: gateway.PartialUser{ID: 50}, Status: "online"},
		},
		VoiceStates: []gateway.VoiceState{
			{UserID: 51, ChannelID: possible.Of(snowflake.ID(401)), SessionID: "abc"},
		},
	}
}

func TestGuildCreateBootstrap(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	guildID := snowflake.ID(1)

	ev, err := u.GuildCreate(ctx, testShard(), bootstrapGuild(guildID, false))
	require.NoError(t, err)

	guild := ev.(GuildCreated).Guild
	assert.Equal(t, []snowflake.ID{100, 101}, guild.Roles)
	assert.Equal(t, []snowflake.ID{200}, guild.Emojis)
	assert.Equal(t, []snowflake.ID{300}, guild.Stickers)
	assert.Equal(t, []snowflake.ID{400, 401}, guild.Channels)
	assert.Equal(t, []snowflake.ID{50, 51}, guild.Members)
	assert.Equal(t, int64(2), guild.MemberCount)

	// Child rows land in their own stores; bootstrap channels inherit the
	// guild id they were inlined under.
	ch, err := reg.Channels.Find(ctx, snowflake.ID(400))
	require.NoError(t, err)
	gotGuildID, ok := ch.MustGet().GuildID.Get()
	require.True(t, ok)
	assert.Equal(t, guildID, gotGuildID)

	thread, err := reg.Channels.Find(ctx, snowflake.ID(402))
	require.NoError(t, err)
	assert.True(t, thread.IsPresent())

	member, err := reg.Members.Find(ctx, snowflake.PairOf(guildID, 51))
	require.NoError(t, err)
	assert.True(t, member.IsPresent())

	user, err := reg.Users.Find(ctx, snowflake.ID(51))
	require.NoError(t, err)
	assert.True(t, user.IsPresent())

	vs, err := reg.VoiceStates.Find(ctx, snowflake.PairOf(guildID, 51))
	require.NoError(t, err)
	assert.True(t, vs.IsPresent())
}

func TestGuildCreatePresenceSynthesis(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	guildID := snowflake.ID(1)

	_, err := u.GuildCreate(ctx, testShard(), bootstrapGuild(guildID, false))
	require.NoError(t, err)

	// Member 50 came with a real presence, member 51 did not.
	online, err := reg.Presences.Find(ctx, snowflake.PairOf(guildID, 50))
	require.NoError(t, err)
	assert.Equal(t, "online", online.MustGet().Status)

	synthesized, err := reg.Presences.Find(ctx, snowflake.PairOf(guildID, 51))
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusOffline, synthesized.MustGet().Status)
	assert.Equal(t, snowflake.ID(51), synthesized.MustGet().User.ID)
}

func TestGuildCreateLargeElidesMemberList(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	guildID := snowflake.ID(1)

	ev, err := u.GuildCreate(ctx, testShard(), bootstrapGuild(guildID, true))
	require.NoError(t, err)

	guild := ev.(GuildCreated).Guild
	assert.Empty(t, guild.Members)
	assert.True(t, guild.Large)

	// The member rows themselves still land; only the guild row's list is
	// elided until chunks arrive.
	member, err := reg.Members.Find(ctx, snowflake.PairOf(guildID, 50))
	require.NoError(t, err)
	assert.True(t, member.IsPresent())
}

func TestGuildUpdateRecomputesRoleListKeepsChannels(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	guildID := snowflake.ID(1)

	_, err := u.GuildCreate(ctx, testShard(), bootstrapGuild(guildID, false))
	require.NoError(t, err)

	ev, err := u.GuildUpdate(ctx, testShard(), gateway.GuildUpdateData{
		ID:      guildID,
		Name:    "renamed",
		OwnerID: snowflake.ID(51),
		Roles:   []gateway.Role{{ID: 100, Name: "admin"}},
	})
	require.NoError(t, err)

	got := ev.(GuildUpdated)
	assert.Equal(t, "renamed", got.Guild.Name)
	assert.Equal(t, []snowflake.ID{100}, got.Guild.Roles)
	assert.Empty(t, got.Guild.Emojis)
	assert.Equal(t, []snowflake.ID{400, 401}, got.Guild.Channels)
	assert.Equal(t, []snowflake.ID{50, 51}, got.Guild.Members)
	assert.Equal(t, "testing grounds", got.Old.MustGet().Name)

	stored, err := reg.Guilds.Find(ctx, guildID)
	require.NoError(t, err)
	assert.Equal(t, got.Guild, stored.MustGet())
}

func TestGuildUpdateUncachedDoesNotWrite(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()

	ev, err := u.GuildUpdate(ctx, testShard(), gateway.GuildUpdateData{
		ID:    snowflake.ID(9),
		Name:  "never seen",
		Roles: []gateway.Role{{ID: 100, Name: "admin"}},
	})
	require.NoError(t, err)

	got := ev.(GuildUpdated)
	assert.Equal(t, "never seen", got.Guild.Name)
	assert.Equal(t, []snowflake.ID{100}, got.Guild.Roles)
	assert.True(t, got.Old.IsAbsent())

	stored, err := reg.Guilds.Find(ctx, snowflake.ID(9))
	require.NoError(t, err)
	assert.True(t, stored.IsAbsent())
}

func TestGuildDeleteCascadeCompleteness(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	guildID := snowflake.ID(1)
	otherGuild := snowflake.ID(2)

	_, err := u.GuildCreate(ctx, testShard(), bootstrapGuild(guildID, false))
	require.NoError(t, err)
	require.NoError(t, reg.Members.Save(ctx, snowflake.PairOf(otherGuild, 51), testMember(51, "regular")))

	ev, err := u.GuildDelete(ctx, testShard(), gateway.GuildDelete{ID: guildID})
	require.NoError(t, err)
	assert.False(t, ev.(GuildDeleted).Unavailable)
	assert.True(t, ev.(GuildDeleted).Old.IsPresent())

	lo, hi := snowflake.RangeOf(guildID)
	members, err := reg.Members.FindInRange(ctx, lo, hi)
	require.NoError(t, err)
	assert.Empty(t, members)

	presences, err := reg.Presences.FindInRange(ctx, lo, hi)
	require.NoError(t, err)
	assert.Empty(t, presences)

	voice, err := reg.VoiceStates.FindInRange(ctx, lo, hi)
	require.NoError(t, err)
	assert.Empty(t, voice)

	for _, id := range []snowflake.ID{400, 401} {
		ch, err := reg.Channels.Find(ctx, id)
		require.NoError(t, err)
		assert.True(t, ch.IsAbsent())
	}
	role, err := reg.Roles.Find(ctx, snowflake.ID(100))
	require.NoError(t, err)
	assert.True(t, role.IsAbsent())
	emoji, err := reg.Emojis.Find(ctx, snowflake.ID(200))
	require.NoError(t, err)
	assert.True(t, emoji.IsAbsent())

	// Unrelated guilds stay untouched.
	other, err := reg.Members.Find(ctx, snowflake.PairOf(otherGuild, 51))
	require.NoError(t, err)
	assert.True(t, other.IsPresent())
}

func TestGuildDeleteUncachedSkipsCascade(t *testing.T) {
	t.Parallel()

	u, _ := newTestUpdater(t)

	ev, err := u.GuildDelete(context.Background(), testShard(), gateway.GuildDelete{
		ID:          snowflake.ID(404),
		Unavailable: possible.Of(true),
	})
	require.NoError(t, err)
	assert.True(t, ev.(GuildDeleted).Unavailable)
	assert.True(t, ev.(GuildDeleted).Old.IsAbsent())
}

func TestGuildEmojisUpdateReplacesSet(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	guildID := snowflake.ID(1)

	_, err := u.GuildCreate(ctx, testShard(), bootstrapGuild(guildID, false))
	require.NoError(t, err)

	ev, err := u.GuildEmojisUpdate(ctx, testShard(), gateway.GuildEmojisUpdate{
		GuildID: guildID,
		Emojis: []gateway.Emoji{
			{ID: possible.Of(snowflake.ID(201)), Name: possible.Of("newblob")},
		},
	})
	require.NoError(t, err)

	got := ev.(EmojisUpdated)
	require.Len(t, got.Old, 1)
	assert.Equal(t, "blob", got.Old[0].Name.OrElse(""))

	dropped, err := reg.Emojis.Find(ctx, snowflake.ID(200))
	require.NoError(t, err)
	assert.True(t, dropped.IsAbsent())

	kept, err := reg.Emojis.Find(ctx, snowflake.ID(201))
	require.NoError(t, err)
	assert.True(t, kept.IsPresent())

	guild, err := reg.Guilds.Find(ctx, guildID)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{201}, guild.MustGet().Emojis)
}

package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statehold/pkg/gateway"
	"statehold/pkg/snowflake"
)

func TestGuildRoleCreate(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	guildID := snowflake.ID(1)
	require.NoError(t, reg.Guilds.Save(ctx, guildID, gateway.Guild{ID: guildID, Roles: []snowflake.ID{100}}))

	_, err := u.GuildRoleCreate(ctx, testShard(), gateway.GuildRoleCreate{
		GuildID: guildID,
		Role:    gateway.Role{ID: 101, Name: "mod"},
	})
	require.NoError(t, err)

	guild, err := reg.Guilds.Find(ctx, guildID)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{100, 101}, guild.MustGet().Roles)

	role, err := reg.Roles.Find(ctx, snowflake.ID(101))
	require.NoError(t, err)
	assert.True(t, role.IsPresent())
}

func TestGuildRoleUpdate(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	require.NoError(t, reg.Roles.Save(ctx, snowflake.ID(100), gateway.Role{ID: 100, Name: "admin"}))

	ev, err := u.GuildRoleUpdate(ctx, testShard(), gateway.GuildRoleUpdate{
		GuildID: snowflake.ID(1),
		Role:    gateway.Role{ID: 100, Name: "administrator"},
	})
	require.NoError(t, err)

	got := ev.(RoleUpdated)
	assert.Equal(t, "admin", got.Old.MustGet().Name)
	assert.Equal(t, "administrator", got.Role.Name)
}

func TestGuildRoleDeleteCascade(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	guildID := snowflake.ID(1)
	roleID := snowflake.ID(100)

	require.NoError(t, reg.Guilds.Save(ctx, guildID, gateway.Guild{ID: guildID, Roles: []snowflake.ID{100, 101}}))
	require.NoError(t, reg.Roles.Save(ctx, roleID, gateway.Role{ID: roleID, Name: "doomed"}))
	require.NoError(t, reg.Members.Save(ctx, snowflake.PairOf(guildID, 50), testMember(50, "a", 100, 101)))
	require.NoError(t, reg.Members.Save(ctx, snowflake.PairOf(guildID, 51), testMember(51, "b", 101)))

	// A member of another guild carrying the same role id must stay intact.
	require.NoError(t, reg.Members.Save(ctx, snowflake.PairOf(2, 52), testMember(52, "c", 100)))

	ev, err := u.GuildRoleDelete(ctx, testShard(), gateway.GuildRoleDelete{GuildID: guildID, RoleID: roleID})
	require.NoError(t, err)
	assert.Equal(t, "doomed", ev.(RoleDeleted).Old.MustGet().Name)

	guild, err := reg.Guilds.Find(ctx, guildID)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{101}, guild.MustGet().Roles)

	role, err := reg.Roles.Find(ctx, roleID)
	require.NoError(t, err)
	assert.True(t, role.IsAbsent())

	stripped, err := reg.Members.Find(ctx, snowflake.PairOf(guildID, 50))
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{101}, stripped.MustGet().Roles)

	untouched, err := reg.Members.Find(ctx, snowflake.PairOf(guildID, 51))
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{101}, untouched.MustGet().Roles)

	foreign, err := reg.Members.Find(ctx, snowflake.PairOf(2, 52))
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{100}, foreign.MustGet().Roles)
}

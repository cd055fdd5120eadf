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

func TestPresenceUpdateSavesPresence(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	guildID := snowflake.ID(1)
	key := snowflake.PairOf(guildID, 51)
	require.NoError(t, reg.Presences.Save(ctx, key, gateway.Presence{User: gateway.PartialUser{ID: 51}, Status: "online"}))

	ev, err := u.PresenceUpdate(ctx, testShard(), gateway.PresenceUpdate{
		GuildID:  guildID,
		Presence: gateway.Presence{User: gateway.PartialUser{ID: 51}, Status: "idle"},
	})
	require.NoError(t, err)

	got := ev.(PresenceUpdated)
	assert.Equal(t, "online", got.Old.MustGet().Status)
	assert.Equal(t, "idle", got.Presence.Status)

	stored, err := reg.Presences.Find(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "idle", stored.MustGet().Status)
}

func TestPresenceUpdateUserTriStateMerge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		partial      gateway.PartialUser
		wantUsername string
		wantAvatar   possible.Value[string]
	}{
		{
			name:         "absent fields keep the cached user",
			partial:      gateway.PartialUser{ID: 51},
			wantUsername: "original",
			wantAvatar:   possible.Of("a1"),
		},
		{
			name: "present username overwrites even when identical",
			partial: gateway.PartialUser{
				ID:       51,
				Username: possible.Of("original"),
			},
			wantUsername: "original",
			wantAvatar:   possible.Of("a1"),
		},
		{
			name: "null avatar clears it",
			partial: gateway.PartialUser{
				ID:     51,
				Avatar: possible.Null[string](),
			},
			wantUsername: "original",
			wantAvatar:   possible.Null[string](),
		},
		{
			name: "new values overwrite",
			partial: gateway.PartialUser{
				ID:       51,
				Username: possible.Of("renamed"),
				Avatar:   possible.Of("a2"),
			},
			wantUsername: "renamed",
			wantAvatar:   possible.Of("a2"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u, reg := newTestUpdater(t)
			ctx := context.Background()

			cached := testUser(51, "original")
			cached.Avatar = possible.Of("a1")
			require.NoError(t, reg.Users.Save(ctx, cached.ID, cached))

			_, err := u.PresenceUpdate(ctx, testShard(), gateway.PresenceUpdate{
				GuildID:  snowflake.ID(1),
				Presence: gateway.Presence{User: tt.partial, Status: "online"},
			})
			require.NoError(t, err)

			stored, err := reg.Users.Find(ctx, cached.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUsername, stored.MustGet().Username)
			assert.Equal(t, tt.wantAvatar, stored.MustGet().Avatar)
		})
	}
}

func TestPresenceUpdateWithoutCachedUser(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()

	ev, err := u.PresenceUpdate(ctx, testShard(), gateway.PresenceUpdate{
		GuildID:  snowflake.ID(1),
		Presence: gateway.Presence{User: gateway.PartialUser{ID: 51}, Status: "online"},
	})
	require.NoError(t, err)

	got := ev.(PresenceUpdated)
	assert.True(t, got.Old.IsAbsent())
	assert.True(t, got.OldUser.IsAbsent())

	// A partial user cannot seed a full row; the presence itself still
	// lands.
	user, err := reg.Users.Find(ctx, snowflake.ID(51))
	require.NoError(t, err)
	assert.True(t, user.IsAbsent())

	presence, err := reg.Presences.Find(ctx, snowflake.PairOf(1, 51))
	require.NoError(t, err)
	assert.True(t, presence.IsPresent())
}

func TestUserUpdate(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	require.NoError(t, reg.Users.Save(ctx, snowflake.ID(42), testUser(42, "before")))

	ev, err := u.UserUpdate(ctx, testShard(), gateway.UserUpdate{User: testUser(42, "after")})
	require.NoError(t, err)

	got := ev.(UserUpdated)
	assert.Equal(t, "before", got.Old.MustGet().Username)
	assert.Equal(t, "after", got.User.Username)

	stored, err := reg.Users.Find(ctx, snowflake.ID(42))
	require.NoError(t, err)
	assert.Equal(t, "after", stored.MustGet().Username)
}

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

func TestVoiceStateUpdate(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	guildID := snowflake.ID(1)
	key := snowflake.PairOf(guildID, 51)

	// Join voice.
	ev, err := u.VoiceStateUpdate(ctx, testShard(), gateway.VoiceStateUpdateDispatch{VoiceState: gateway.VoiceState{
		GuildID:   possible.Of(guildID),
		ChannelID: possible.Of(snowflake.ID(401)),
		UserID:    snowflake.ID(51),
		SessionID: "s1",
	}})
	require.NoError(t, err)
	assert.True(t, ev.(VoiceStateUpdated).Old.IsAbsent())

	stored, err := reg.VoiceStates.Find(ctx, key)
	require.NoError(t, err)
	assert.True(t, stored.IsPresent())

	// Leave voice: no channel id means the row goes away.
	ev, err = u.VoiceStateUpdate(ctx, testShard(), gateway.VoiceStateUpdateDispatch{VoiceState: gateway.VoiceState{
		GuildID:   possible.Of(guildID),
		ChannelID: possible.Null[snowflake.ID](),
		UserID:    snowflake.ID(51),
		SessionID: "s1",
	}})
	require.NoError(t, err)
	assert.True(t, ev.(VoiceStateUpdated).Old.IsPresent())

	stored, err = reg.VoiceStates.Find(ctx, key)
	require.NoError(t, err)
	assert.True(t, stored.IsAbsent())
}

func TestVoiceStateUpdateWithoutGuildSkips(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()

	ev, err := u.VoiceStateUpdate(ctx, testShard(), gateway.VoiceStateUpdateDispatch{VoiceState: gateway.VoiceState{
		ChannelID: possible.Of(snowflake.ID(401)),
		UserID:    snowflake.ID(51),
	}})
	require.NoError(t, err)
	assert.Nil(t, ev)

	count, err := reg.VoiceStates.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

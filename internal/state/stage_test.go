package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statehold/pkg/gateway"
)

func TestStageInstanceLifecycle(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	instance := gateway.StageInstance{ID: 800, GuildID: 1, ChannelID: 401, Topic: "launch"}

	ev, err := u.StageInstanceCreate(ctx, testShard(), gateway.StageInstanceCreate{StageInstance: instance})
	require.NoError(t, err)
	assert.Equal(t, gateway.EventStageInstanceCreate, ev.Name())

	instance.Topic = "postmortem"
	ev, err = u.StageInstanceUpdate(ctx, testShard(), gateway.StageInstanceUpdate{StageInstance: instance})
	require.NoError(t, err)
	old, ok := ev.(StageInstanceUpdated).Old.Get()
	require.True(t, ok)
	assert.Equal(t, "launch", old.Topic)

	ev, err = u.StageInstanceDelete(ctx, testShard(), gateway.StageInstanceDelete{StageInstance: instance})
	require.NoError(t, err)
	old, ok = ev.(StageInstanceDeleted).Old.Get()
	require.True(t, ok)
	assert.Equal(t, "postmortem", old.Topic)

	stored, err := reg.StageInstances.Find(ctx, 800)
	require.NoError(t, err)
	assert.True(t, stored.IsAbsent())
}

func TestStageInstanceUpdateUncached(t *testing.T) {
	t.Parallel()

	u, _ := newTestUpdater(t)
	ctx := context.Background()

	ev, err := u.StageInstanceUpdate(ctx, testShard(), gateway.StageInstanceUpdate{
		StageInstance: gateway.StageInstance{ID: 801, GuildID: 1},
	})
	require.NoError(t, err)
	assert.True(t, ev.(StageInstanceUpdated).Old.IsAbsent())
}

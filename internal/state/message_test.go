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

func seedMessage(t *testing.T, reg *Registry, id, channelID snowflake.ID) gateway.Message {
	t.Helper()

	msg := gateway.Message{
		ID:        id,
		ChannelID: channelID,
		Author:    testUser(50, "author"),
		Content:   "hello",
		Timestamp: "2026-02-01T09:00:00Z",
	}
	require.NoError(t, reg.Messages.Save(context.Background(), id, msg))

	return msg
}

func unicodeEmoji(name string) gateway.Emoji {
	return gateway.Emoji{ID: possible.Null[snowflake.ID](), Name: possible.Of(name)}
}

func reactionAdd(msgID, userID snowflake.ID, emoji gateway.Emoji, burst bool) gateway.MessageReactionAdd {
	return gateway.MessageReactionAdd{
		UserID:    userID,
		ChannelID: snowflake.ID(20),
		MessageID: msgID,
		Emoji:     emoji,
		Burst:     burst,
	}
}

func reactionRemove(msgID, userID snowflake.ID, emoji gateway.Emoji, burst bool) gateway.MessageReactionRemove {
	return gateway.MessageReactionRemove{
		UserID:    userID,
		ChannelID: snowflake.ID(20),
		MessageID: msgID,
		Emoji:     emoji,
		Burst:     burst,
	}
}

func messageReactions(t *testing.T, reg *Registry, id snowflake.ID) ([]gateway.Reaction, bool) {
	t.Helper()

	found, err := reg.Messages.Find(context.Background(), id)
	require.NoError(t, err)

	return found.MustGet().Reactions.Get()
}

func TestMessageCreateAdvancesLastMessageID(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	ch := guildChannel(20, 1)
	require.NoError(t, reg.Channels.Save(ctx, ch.ID, ch))

	msg := gateway.Message{ID: 500, ChannelID: 20, Author: testUser(50, "author"), Content: "hi"}
	_, err := u.MessageCreate(ctx, testShard(), gateway.MessageCreate{Message: msg})
	require.NoError(t, err)

	stored, err := reg.Channels.Find(ctx, ch.ID)
	require.NoError(t, err)
	last, ok := stored.MustGet().LastMessageID.Get()
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(500), last)
}

func TestMessageUpdateMerge(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	seedMessage(t, reg, 500, 20)

	ev, err := u.MessageUpdate(ctx, testShard(), gateway.MessageUpdate{
		ID:              snowflake.ID(500),
		ChannelID:       snowflake.ID(20),
		Content:         possible.Of("edited"),
		EditedTimestamp: possible.Of("2026-02-01T09:05:00Z"),
	})
	require.NoError(t, err)

	got := ev.(MessageUpdated)
	assert.Equal(t, "hello", got.Old.MustGet().Content)
	assert.Equal(t, "edited", got.Message.Content)
	assert.Equal(t, "2026-02-01T09:00:00Z", got.Message.Timestamp)

	edited, ok := got.Message.EditedTimestamp.Get()
	require.True(t, ok)
	assert.Equal(t, "2026-02-01T09:05:00Z", edited)
}

func TestMessageUpdateUncachedDoesNotWrite(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()

	ev, err := u.MessageUpdate(ctx, testShard(), gateway.MessageUpdate{
		ID:        snowflake.ID(500),
		ChannelID: snowflake.ID(20),
		Content:   possible.Of("edited"),
	})
	require.NoError(t, err)
	assert.True(t, ev.(MessageUpdated).Old.IsAbsent())
	assert.Equal(t, "edited", ev.(MessageUpdated).Message.Content)

	found, err := reg.Messages.Find(ctx, snowflake.ID(500))
	require.NoError(t, err)
	assert.True(t, found.IsAbsent())
}

func TestMessageDeleteBulk(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	seedMessage(t, reg, 500, 20)
	seedMessage(t, reg, 501, 20)

	ev, err := u.MessageDeleteBulk(ctx, testShard(), gateway.MessageDeleteBulk{
		IDs:       []snowflake.ID{500, 501, 502},
		ChannelID: snowflake.ID(20),
	})
	require.NoError(t, err)

	// Id 502 was never cached: no snapshot, no error.
	assert.Len(t, ev.(MessagesBulkDeleted).Old, 2)

	count, err := reg.Messages.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestReactionAggregateArithmetic(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	seedMessage(t, reg, 500, 20)
	emoji := unicodeEmoji("😀")

	_, err := u.MessageReactionAdd(ctx, testShard(), reactionAdd(500, 60, emoji, false))
	require.NoError(t, err)
	_, err = u.MessageReactionAdd(ctx, testShard(), reactionAdd(500, 61, emoji, false))
	require.NoError(t, err)

	reactions, ok := messageReactions(t, reg, 500)
	require.True(t, ok)
	require.Len(t, reactions, 1)
	assert.Equal(t, 2, reactions[0].Count)
	assert.Equal(t, 2, reactions[0].CountDetails.Normal)
	assert.Equal(t, 0, reactions[0].CountDetails.Burst)

	_, err = u.MessageReactionRemove(ctx, testShard(), reactionRemove(500, 60, emoji, false))
	require.NoError(t, err)

	reactions, ok = messageReactions(t, reg, 500)
	require.True(t, ok)
	require.Len(t, reactions, 1)
	assert.Equal(t, 1, reactions[0].Count)

	_, err = u.MessageReactionRemove(ctx, testShard(), reactionRemove(500, 61, emoji, false))
	require.NoError(t, err)

	reactions, ok = messageReactions(t, reg, 500)
	require.True(t, ok)
	assert.Empty(t, reactions)
}

func TestReactionIdentityByIDThenName(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	seedMessage(t, reg, 500, 20)

	custom := gateway.Emoji{ID: possible.Of(snowflake.ID(700)), Name: possible.Of("blob")}
	sameNameOtherID := gateway.Emoji{ID: possible.Of(snowflake.ID(701)), Name: possible.Of("blob")}

	_, err := u.MessageReactionAdd(ctx, testShard(), reactionAdd(500, 60, custom, false))
	require.NoError(t, err)

	// Incoming emoji carries an id, so identity is by id and the matching
	// name does not merge the two aggregates.
	_, err = u.MessageReactionAdd(ctx, testShard(), reactionAdd(500, 61, sameNameOtherID, false))
	require.NoError(t, err)

	reactions, ok := messageReactions(t, reg, 500)
	require.True(t, ok)
	require.Len(t, reactions, 2)

	// Without an id the fallback is the name, which does match here.
	_, err = u.MessageReactionAdd(ctx, testShard(), reactionAdd(500, 62, unicodeEmoji("blob"), false))
	require.NoError(t, err)

	reactions, ok = messageReactions(t, reg, 500)
	require.True(t, ok)
	require.Len(t, reactions, 2)
	assert.Equal(t, 2, reactions[0].Count)
	assert.Equal(t, 1, reactions[1].Count)
}

func TestReactionBurstBuckets(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	seedMessage(t, reg, 500, 20)
	emoji := unicodeEmoji("🔥")

	_, err := u.MessageReactionAdd(ctx, testShard(), reactionAdd(500, 60, emoji, false))
	require.NoError(t, err)
	_, err = u.MessageReactionAdd(ctx, testShard(), reactionAdd(500, 61, emoji, true))
	require.NoError(t, err)

	reactions, ok := messageReactions(t, reg, 500)
	require.True(t, ok)
	require.Len(t, reactions, 1)
	assert.Equal(t, 2, reactions[0].Count)
	assert.Equal(t, 1, reactions[0].CountDetails.Normal)
	assert.Equal(t, 1, reactions[0].CountDetails.Burst)
}

func TestReactionSelfFlags(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	reg.SetSelfID(snowflake.ID(42))
	seedMessage(t, reg, 500, 20)
	emoji := unicodeEmoji("⭐")

	_, err := u.MessageReactionAdd(ctx, testShard(), reactionAdd(500, 60, emoji, false))
	require.NoError(t, err)

	reactions, ok := messageReactions(t, reg, 500)
	require.True(t, ok)
	assert.False(t, reactions[0].Me)

	_, err = u.MessageReactionAdd(ctx, testShard(), reactionAdd(500, 42, emoji, false))
	require.NoError(t, err)

	reactions, ok = messageReactions(t, reg, 500)
	require.True(t, ok)
	assert.True(t, reactions[0].Me)

	// The self user un-reacting drops the flag while the count survives.
	_, err = u.MessageReactionRemove(ctx, testShard(), reactionRemove(500, 42, emoji, false))
	require.NoError(t, err)

	reactions, ok = messageReactions(t, reg, 500)
	require.True(t, ok)
	assert.Equal(t, 1, reactions[0].Count)
	assert.False(t, reactions[0].Me)
}

func TestReactionRemoveKeepsMeBurstForOtherUsers(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	reg.SetSelfID(snowflake.ID(42))
	seedMessage(t, reg, 500, 20)
	emoji := unicodeEmoji("🔥")

	_, err := u.MessageReactionAdd(ctx, testShard(), reactionAdd(500, 60, emoji, false))
	require.NoError(t, err)
	_, err = u.MessageReactionAdd(ctx, testShard(), reactionAdd(500, 42, emoji, true))
	require.NoError(t, err)

	reactions, ok := messageReactions(t, reg, 500)
	require.True(t, ok)
	require.True(t, reactions[0].MeBurst)

	// Another user withdrawing their reaction leaves the self flags alone.
	_, err = u.MessageReactionRemove(ctx, testShard(), reactionRemove(500, 60, emoji, false))
	require.NoError(t, err)

	reactions, ok = messageReactions(t, reg, 500)
	require.True(t, ok)
	assert.Equal(t, 1, reactions[0].Count)
	assert.True(t, reactions[0].Me)
	assert.True(t, reactions[0].MeBurst)
}

func TestReactionRemoveAllSetsAbsent(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	seedMessage(t, reg, 500, 20)

	_, err := u.MessageReactionAdd(ctx, testShard(), reactionAdd(500, 60, unicodeEmoji("😀"), false))
	require.NoError(t, err)

	_, err = u.MessageReactionRemoveAll(ctx, testShard(), gateway.MessageReactionRemoveAll{
		ChannelID: snowflake.ID(20),
		MessageID: snowflake.ID(500),
	})
	require.NoError(t, err)

	found, err := reg.Messages.Find(ctx, snowflake.ID(500))
	require.NoError(t, err)
	assert.True(t, found.MustGet().Reactions.IsAbsent())
}

func TestReactionRemoveEmoji(t *testing.T) {
	t.Parallel()

	u, reg := newTestUpdater(t)
	ctx := context.Background()
	seedMessage(t, reg, 500, 20)

	_, err := u.MessageReactionAdd(ctx, testShard(), reactionAdd(500, 60, unicodeEmoji("😀"), false))
	require.NoError(t, err)
	_, err = u.MessageReactionAdd(ctx, testShard(), reactionAdd(500, 60, unicodeEmoji("🔥"), false))
	require.NoError(t, err)

	_, err = u.MessageReactionRemoveEmoji(ctx, testShard(), gateway.MessageReactionRemoveEmoji{
		ChannelID: snowflake.ID(20),
		MessageID: snowflake.ID(500),
		Emoji:     unicodeEmoji("😀"),
	})
	require.NoError(t, err)

	reactions, ok := messageReactions(t, reg, 500)
	require.True(t, ok)
	require.Len(t, reactions, 1)
	assert.Equal(t, "🔥", reactions[0].Emoji.Name.OrElse(""))
}

func TestReactionOnUncachedMessage(t *testing.T) {
	t.Parallel()

	u, _ := newTestUpdater(t)

	ev, err := u.MessageReactionAdd(context.Background(), testShard(), reactionAdd(500, 60, unicodeEmoji("😀"), false))
	require.NoError(t, err)
	assert.True(t, ev.(ReactionAdded).Message.IsAbsent())
}

package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samber/mo"

	"statehold/pkg/gateway"
	"statehold/pkg/possible"
	"statehold/pkg/snowflake"
)

// MessageCreate saves the message and advances the parent channel's last
// message id when the channel is cached.
func (u *Updater) MessageCreate(ctx context.Context, shard ShardID, d gateway.MessageCreate) (Event, error) {
	msg := d.Message
	if err := u.reg.Messages.Save(ctx, msg.ID, msg); err != nil {
		return nil, fmt.Errorf("save message %s: %w", msg.ID, err)
	}

	found, err := u.reg.Channels.Find(ctx, msg.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("find channel %s: %w", msg.ChannelID, err)
	}
	if channel, ok := found.Get(); ok {
		channel.LastMessageID = possible.Of(msg.ID)
		if err := u.reg.Channels.Save(ctx, channel.ID, channel); err != nil {
			return nil, fmt.Errorf("save channel %s: %w", channel.ID, err)
		}
	}

	return MessageCreated{Base: base(gateway.EventMessageCreate, shard), Message: msg}, nil
}

// MessageUpdate merges the partial edit onto the cached row using the
// tri-state rule per field. Without a cached row nothing is written and the
// event carries the incoming fields alone.
func (u *Updater) MessageUpdate(ctx context.Context, shard ShardID, d gateway.MessageUpdate) (Event, error) {
	found, err := u.reg.Messages.Find(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("find message %s: %w", d.ID, err)
	}

	ev := MessageUpdated{Base: base(gateway.EventMessageUpdate, shard), Old: found}

	old, ok := found.Get()
	if !ok {
		ev.Message = gateway.Message{
			ID:              d.ID,
			ChannelID:       d.ChannelID,
			GuildID:         d.GuildID,
			Content:         d.Content.OrElse(""),
			EditedTimestamp: d.EditedTimestamp,
			MentionEveryone: d.MentionEveryone.OrElse(false),
			Mentions:        d.Mentions,
			MentionRoles:    d.MentionRoles,
			Pinned:          d.Pinned.OrElse(false),
			Flags:           d.Flags,
			Reactions:       d.Reactions,
		}
		if embeds, ok := d.Embeds.Get(); ok {
			ev.Message.Embeds = json.RawMessage(embeds)
		}
		return ev, nil
	}

	msg := old
	if content, ok := d.Content.Get(); ok {
		msg.Content = content
	}
	msg.EditedTimestamp = d.EditedTimestamp.OrKeep(old.EditedTimestamp)
	if mentionEveryone, ok := d.MentionEveryone.Get(); ok {
		msg.MentionEveryone = mentionEveryone
	}
	if d.Mentions != nil {
		msg.Mentions = d.Mentions
	}
	if d.MentionRoles != nil {
		msg.MentionRoles = d.MentionRoles
	}
	if embeds, ok := d.Embeds.Get(); ok {
		msg.Embeds = json.RawMessage(embeds)
	} else if d.Embeds.IsNull() {
		msg.Embeds = nil
	}
	if pinned, ok := d.Pinned.Get(); ok {
		msg.Pinned = pinned
	}
	msg.Flags = d.Flags.OrKeep(old.Flags)
	msg.Reactions = d.Reactions.OrKeep(old.Reactions)

	if err := u.reg.Messages.Save(ctx, d.ID, msg); err != nil {
		return nil, fmt.Errorf("save message %s: %w", d.ID, err)
	}

	ev.Message = msg
	return ev, nil
}

// MessageDelete removes the message row, tolerating an already-absent key.
func (u *Updater) MessageDelete(ctx context.Context, shard ShardID, d gateway.MessageDelete) (Event, error) {
	found, err := u.reg.Messages.Find(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("find message %s: %w", d.ID, err)
	}
	if err := u.reg.Messages.Delete(ctx, d.ID); err != nil {
		return nil, fmt.Errorf("delete message %s: %w", d.ID, err)
	}

	return MessageDeleted{
		Base:      base(gateway.EventMessageDelete, shard),
		MessageID: d.ID,
		ChannelID: d.ChannelID,
		Old:       found,
	}, nil
}

// MessageDeleteBulk snapshots and deletes each listed message. Ids absent
// from cache contribute nothing to the snapshot set and are not errors.
func (u *Updater) MessageDeleteBulk(ctx context.Context, shard ShardID, d gateway.MessageDeleteBulk) (Event, error) {
	var old []gateway.Message
	for _, id := range d.IDs {
		found, err := u.reg.Messages.Find(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("find message %s: %w", id, err)
		}
		if msg, ok := found.Get(); ok {
			old = append(old, msg)
		}
	}
	if err := u.reg.Messages.DeleteMany(ctx, d.IDs); err != nil {
		return nil, fmt.Errorf("delete messages: %w", err)
	}

	return MessagesBulkDeleted{
		Base:       base(gateway.EventMessageDeleteBulk, shard),
		ChannelID:  d.ChannelID,
		GuildID:    d.GuildID.OrElse(0),
		MessageIDs: d.IDs,
		Old:        old,
	}, nil
}

// matchesEmoji implements reaction identity: by id when the incoming emoji
// has one, by name otherwise. Default unicode emoji have no id, which is why
// the name fallback is load-bearing.
func matchesEmoji(agg gateway.Reaction, emoji gateway.Emoji) bool {
	if id, ok := emoji.ID.Get(); ok {
		aggID, aggOK := agg.Emoji.ID.Get()
		return aggOK && aggID == id
	}

	name, _ := emoji.Name.Get()
	aggName, aggOK := agg.Emoji.Name.Get()
	return aggOK && aggName == name
}

func (u *Updater) isSelf(userID snowflake.ID) bool {
	self, ok := u.reg.SelfID()
	return ok && self == userID
}

// MessageReactionAdd increments the matching per-emoji aggregate or appends a
// fresh singleton. The normal and burst buckets are tracked separately and
// always sum to the total count.
func (u *Updater) MessageReactionAdd(ctx context.Context, shard ShardID, d gateway.MessageReactionAdd) (Event, error) {
	isMe := u.isSelf(d.UserID)
	msg, found, err := u.updateMessage(ctx, d.MessageID, func(msg gateway.Message) gateway.Message {
		reactions, hasReactions := msg.Reactions.Get()
		if !hasReactions {
			msg.Reactions = possible.Of([]gateway.Reaction{newAggregate(d, isMe)})
			return msg
		}

		for i, agg := range reactions {
			if !matchesEmoji(agg, d.Emoji) {
				continue
			}
			agg.Count++
			if d.Burst {
				agg.CountDetails.Burst++
			} else {
				agg.CountDetails.Normal++
			}
			agg.MeBurst = !agg.Me && isMe && d.Burst
			agg.Me = agg.Me || isMe
			msg.Reactions = possible.Of(replaceAt(reactions, i, agg))
			return msg
		}

		msg.Reactions = possible.Of(append(append([]gateway.Reaction{}, reactions...), newAggregate(d, isMe)))
		return msg
	})
	if err != nil {
		return nil, err
	}

	ev := ReactionAdded{
		Base:      base(gateway.EventMessageReactionAdd, shard),
		UserID:    d.UserID,
		ChannelID: d.ChannelID,
		MessageID: d.MessageID,
		Emoji:     d.Emoji,
		Message:   mo.None[gateway.Message](),
	}
	if found {
		ev.Message = mo.Some(msg)
	}
	return ev, nil
}

func newAggregate(d gateway.MessageReactionAdd, isMe bool) gateway.Reaction {
	agg := gateway.Reaction{
		Count:       1,
		Me:          isMe,
		MeBurst:     isMe && d.Burst,
		Emoji:       d.Emoji,
		BurstColors: d.BurstColors,
	}
	if d.Burst {
		agg.CountDetails.Burst = 1
	} else {
		agg.CountDetails.Normal = 1
	}
	return agg
}

// MessageReactionRemove decrements the matching aggregate, removing it
// entirely when the count reaches zero.
func (u *Updater) MessageReactionRemove(ctx context.Context, shard ShardID, d gateway.MessageReactionRemove) (Event, error) {
	isMe := u.isSelf(d.UserID)
	msg, found, err := u.updateMessage(ctx, d.MessageID, func(msg gateway.Message) gateway.Message {
		reactions, hasReactions := msg.Reactions.Get()
		if !hasReactions {
			return msg
		}

		for i, agg := range reactions {
			if !matchesEmoji(agg, d.Emoji) {
				continue
			}
			if agg.Count-1 <= 0 {
				msg.Reactions = possible.Of(removeAt(reactions, i))
				return msg
			}
			agg.Count--
			if d.Burst {
				agg.CountDetails.Burst--
			} else {
				agg.CountDetails.Normal--
			}
			agg.Me = !isMe && agg.Me
			agg.MeBurst = agg.MeBurst && !isMe
			msg.Reactions = possible.Of(replaceAt(reactions, i, agg))
			return msg
		}

		return msg
	})
	if err != nil {
		return nil, err
	}

	ev := ReactionRemoved{
		Base:      base(gateway.EventMessageReactionRemove, shard),
		UserID:    d.UserID,
		ChannelID: d.ChannelID,
		MessageID: d.MessageID,
		Emoji:     d.Emoji,
		Message:   mo.None[gateway.Message](),
	}
	if found {
		ev.Message = mo.Some(msg)
	}
	return ev, nil
}

// MessageReactionRemoveAll clears the reaction list back to the absent state,
// which is how a message that never had reactions looks on the wire.
func (u *Updater) MessageReactionRemoveAll(ctx context.Context, shard ShardID, d gateway.MessageReactionRemoveAll) (Event, error) {
	msg, found, err := u.updateMessage(ctx, d.MessageID, func(msg gateway.Message) gateway.Message {
		msg.Reactions = possible.Absent[[]gateway.Reaction]()
		return msg
	})
	if err != nil {
		return nil, err
	}

	ev := ReactionsCleared{
		Base:      base(gateway.EventMessageReactionRemoveAll, shard),
		ChannelID: d.ChannelID,
		MessageID: d.MessageID,
		Message:   mo.None[gateway.Message](),
	}
	if found {
		ev.Message = mo.Some(msg)
	}
	return ev, nil
}

// MessageReactionRemoveEmoji drops exactly the matching aggregate, leaving
// the others untouched.
func (u *Updater) MessageReactionRemoveEmoji(ctx context.Context, shard ShardID, d gateway.MessageReactionRemoveEmoji) (Event, error) {
	msg, found, err := u.updateMessage(ctx, d.MessageID, func(msg gateway.Message) gateway.Message {
		reactions, hasReactions := msg.Reactions.Get()
		if !hasReactions {
			return msg
		}
		for i, agg := range reactions {
			if matchesEmoji(agg, d.Emoji) {
				msg.Reactions = possible.Of(removeAt(reactions, i))
				return msg
			}
		}
		return msg
	})
	if err != nil {
		return nil, err
	}

	ev := ReactionEmojiCleared{
		Base:      base(gateway.EventMessageReactionRemoveEmoji, shard),
		ChannelID: d.ChannelID,
		MessageID: d.MessageID,
		Emoji:     d.Emoji,
		Message:   mo.None[gateway.Message](),
	}
	if found {
		ev.Message = mo.Some(msg)
	}
	return ev, nil
}

package state

import (
	"github.com/samber/mo"

	"statehold/pkg/gateway"
	"statehold/pkg/snowflake"
)

// ShardID identifies the gateway connection an event arrived on.
type ShardID struct {
	Index int
	Count int
}

// Event is a cache-update notification produced after a dispatch has been
// applied. Old snapshots, where carried, are the store contents from before
// the update; mo.None means the cache had no prior row.
type Event interface {
	// Name returns the dispatch name that produced this event.
	Name() string
	// Shard returns the originating connection.
	Shard() ShardID
}

// Base carries the fields common to every event.
type Base struct {
	Dispatch string
	ShardID  ShardID
}

func (b Base) Name() string   { return b.Dispatch }
func (b Base) Shard() ShardID { return b.ShardID }

// Ready signals a completed bootstrap on one shard.
type Ready struct {
	Base
	Self     gateway.User
	GuildIDs []snowflake.ID
}

// ChannelCreated, ChannelUpdated and ChannelDeleted cover the life cycle of
// both guild channels and direct channels. Direct kinds are never stored, so
// their events carry no old snapshot.
type ChannelCreated struct {
	Base
	Channel gateway.Channel
}

type ChannelUpdated struct {
	Base
	Channel gateway.Channel
	Old     mo.Option[gateway.Channel]
}

type ChannelDeleted struct {
	Base
	Channel gateway.Channel
}

type GuildCreated struct {
	Base
	Guild gateway.Guild
}

type GuildUpdated struct {
	Base
	Guild gateway.Guild
	Old   mo.Option[gateway.Guild]
}

type GuildDeleted struct {
	Base
	GuildID     snowflake.ID
	Unavailable bool
	Old         mo.Option[gateway.Guild]
}

type EmojisUpdated struct {
	Base
	GuildID snowflake.ID
	Emojis  []gateway.Emoji
	Old     []gateway.Emoji
}

type StickersUpdated struct {
	Base
	GuildID  snowflake.ID
	Stickers []gateway.Sticker
	Old      []gateway.Sticker
}

type MemberAdded struct {
	Base
	GuildID snowflake.ID
	Member  gateway.Member
}

type MemberRemoved struct {
	Base
	GuildID snowflake.ID
	User    gateway.User
	Old     mo.Option[gateway.Member]
}

// MemberUpdated carries the role-list delta alongside the snapshots.
type MemberUpdated struct {
	Base
	GuildID      snowflake.ID
	Member       gateway.Member
	Old          mo.Option[gateway.Member]
	AddedRoles   []snowflake.ID
	RemovedRoles []snowflake.ID
}

type MembersChunked struct {
	Base
	GuildID snowflake.ID
	Members []gateway.Member
}

type RoleCreated struct {
	Base
	GuildID snowflake.ID
	Role    gateway.Role
}

type RoleUpdated struct {
	Base
	GuildID snowflake.ID
	Role    gateway.Role
	Old     mo.Option[gateway.Role]
}

type RoleDeleted struct {
	Base
	GuildID snowflake.ID
	RoleID  snowflake.ID
	Old     mo.Option[gateway.Role]
}

type MessageCreated struct {
	Base
	Message gateway.Message
}

type MessageUpdated struct {
	Base
	Message gateway.Message
	Old     mo.Option[gateway.Message]
}

type MessageDeleted struct {
	Base
	MessageID snowflake.ID
	ChannelID snowflake.ID
	Old       mo.Option[gateway.Message]
}

type MessagesBulkDeleted struct {
	Base
	ChannelID  snowflake.ID
	GuildID    snowflake.ID
	MessageIDs []snowflake.ID
	Old        []gateway.Message
}

type ReactionAdded struct {
	Base
	UserID    snowflake.ID
	ChannelID snowflake.ID
	MessageID snowflake.ID
	Emoji     gateway.Emoji
	Message   mo.Option[gateway.Message]
}

type ReactionRemoved struct {
	Base
	UserID    snowflake.ID
	ChannelID snowflake.ID
	MessageID snowflake.ID
	Emoji     gateway.Emoji
	Message   mo.Option[gateway.Message]
}

type ReactionsCleared struct {
	Base
	ChannelID snowflake.ID
	MessageID snowflake.ID
	Message   mo.Option[gateway.Message]
}

type ReactionEmojiCleared struct {
	Base
	ChannelID snowflake.ID
	MessageID snowflake.ID
	Emoji     gateway.Emoji
	Message   mo.Option[gateway.Message]
}

type PresenceUpdated struct {
	Base
	GuildID  snowflake.ID
	Presence gateway.Presence
	Old      mo.Option[gateway.Presence]
	OldUser  mo.Option[gateway.User]
}

type UserUpdated struct {
	Base
	User gateway.User
	Old  mo.Option[gateway.User]
}

type VoiceStateUpdated struct {
	Base
	State gateway.VoiceState
	Old   mo.Option[gateway.VoiceState]
}

type StageInstanceCreated struct {
	Base
	Instance gateway.StageInstance
}

type StageInstanceUpdated struct {
	Base
	Instance gateway.StageInstance
	Old      mo.Option[gateway.StageInstance]
}

type StageInstanceDeleted struct {
	Base
	Instance gateway.StageInstance
	Old      mo.Option[gateway.StageInstance]
}

type ScheduledEventCreated struct {
	Base
	Event gateway.ScheduledEvent
}

type ScheduledEventUpdated struct {
	Base
	Event gateway.ScheduledEvent
	Old   mo.Option[gateway.ScheduledEvent]
}

type ScheduledEventDeleted struct {
	Base
	Event gateway.ScheduledEvent
	Old   mo.Option[gateway.ScheduledEvent]
}

type ScheduledEventUserAdded struct {
	Base
	GuildID snowflake.ID
	EventID snowflake.ID
	UserID  snowflake.ID
}

type ScheduledEventUserRemoved struct {
	Base
	GuildID snowflake.ID
	EventID snowflake.ID
	UserID  snowflake.ID
}

type ThreadCreated struct {
	Base
	Thread gateway.Channel
}

type ThreadUpdated struct {
	Base
	Thread gateway.Channel
	Old    mo.Option[gateway.Channel]
}

type ThreadDeleted struct {
	Base
	ThreadID snowflake.ID
	Old      mo.Option[gateway.Channel]
}

type ThreadListSynced struct {
	Base
	GuildID snowflake.ID
	Threads []gateway.Channel
}

type ThreadMemberUpdated struct {
	Base
	Member gateway.ThreadMember
	Old    mo.Option[gateway.ThreadMember]
}

type ThreadMembersUpdated struct {
	Base
	ThreadID snowflake.ID
	Added    []gateway.ThreadMember
	Removed  []snowflake.ID
}

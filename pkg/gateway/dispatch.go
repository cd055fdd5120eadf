package gateway

import (
	"statehold/pkg/possible"
	"statehold/pkg/snowflake"
)

// Dispatch event names as they appear in the frame envelope's t field.
const (
	EventReady = "READY"

	EventChannelCreate = "CHANNEL_CREATE"
	EventChannelUpdate = "CHANNEL_UPDATE"
	EventChannelDelete = "CHANNEL_DELETE"

	EventGuildCreate         = "GUILD_CREATE"
	EventGuildUpdate         = "GUILD_UPDATE"
	EventGuildDelete         = "GUILD_DELETE"
	EventGuildEmojisUpdate   = "GUILD_EMOJIS_UPDATE"
	EventGuildStickersUpdate = "GUILD_STICKERS_UPDATE"

	EventGuildMemberAdd    = "GUILD_MEMBER_ADD"
	EventGuildMemberRemove = "GUILD_MEMBER_REMOVE"
	EventGuildMemberUpdate = "GUILD_MEMBER_UPDATE"
	EventGuildMembersChunk = "GUILD_MEMBERS_CHUNK"

	EventGuildRoleCreate = "GUILD_ROLE_CREATE"
	EventGuildRoleUpdate = "GUILD_ROLE_UPDATE"
	EventGuildRoleDelete = "GUILD_ROLE_DELETE"

	EventGuildScheduledEventCreate     = "GUILD_SCHEDULED_EVENT_CREATE"
	EventGuildScheduledEventUpdate     = "GUILD_SCHEDULED_EVENT_UPDATE"
	EventGuildScheduledEventDelete     = "GUILD_SCHEDULED_EVENT_DELETE"
	EventGuildScheduledEventUserAdd    = "GUILD_SCHEDULED_EVENT_USER_ADD"
	EventGuildScheduledEventUserRemove = "GUILD_SCHEDULED_EVENT_USER_REMOVE"

	EventMessageCreate              = "MESSAGE_CREATE"
	EventMessageUpdate              = "MESSAGE_UPDATE"
	EventMessageDelete              = "MESSAGE_DELETE"
	EventMessageDeleteBulk          = "MESSAGE_DELETE_BULK"
	EventMessageReactionAdd         = "MESSAGE_REACTION_ADD"
	EventMessageReactionRemove      = "MESSAGE_REACTION_REMOVE"
	EventMessageReactionRemoveAll   = "MESSAGE_REACTION_REMOVE_ALL"
	EventMessageReactionRemoveEmoji = "MESSAGE_REACTION_REMOVE_EMOJI"

	EventPresenceUpdate   = "PRESENCE_UPDATE"
	EventUserUpdate       = "USER_UPDATE"
	EventVoiceStateUpdate = "VOICE_STATE_UPDATE"

	EventStageInstanceCreate = "STAGE_INSTANCE_CREATE"
	EventStageInstanceUpdate = "STAGE_INSTANCE_UPDATE"
	EventStageInstanceDelete = "STAGE_INSTANCE_DELETE"

	EventThreadCreate        = "THREAD_CREATE"
	EventThreadUpdate        = "THREAD_UPDATE"
	EventThreadDelete        = "THREAD_DELETE"
	EventThreadListSync      = "THREAD_LIST_SYNC"
	EventThreadMemberUpdate  = "THREAD_MEMBER_UPDATE"
	EventThreadMembersUpdate = "THREAD_MEMBERS_UPDATE"
)

// Ready is the bootstrap dispatch opening a shard session.
type Ready struct {
	Version   int                `json:"v"`
	User      User               `json:"user"`
	SessionID string             `json:"session_id"`
	Shard     []int              `json:"shard,omitempty"`
	Guilds    []UnavailableGuild `json:"guilds"`
}

// UnavailableGuild is a guild stub listed at bootstrap; the full guild
// arrives later via its own bootstrap dispatch.
type UnavailableGuild struct {
	ID          snowflake.ID `json:"id"`
	Unavailable bool         `json:"unavailable"`
}

// ChannelCreate carries the full channel object as its payload.
type ChannelCreate struct {
	Channel
}

// ChannelUpdate carries the full replacement channel object.
type ChannelUpdate struct {
	Channel
}

// ChannelDelete carries the channel as it existed at deletion time.
type ChannelDelete struct {
	Channel
}

// GuildCreateData is the bootstrap guild object: unlike the stored Guild row
// it inlines the full child entity arrays.
type GuildCreateData struct {
	ID          snowflake.ID `json:"id"`
	Name        string       `json:"name"`
	OwnerID     snowflake.ID `json:"owner_id"`
	MemberCount int64        `json:"member_count"`
	Large       bool         `json:"large"`
	Unavailable bool         `json:"unavailable"`
	Roles       []Role       `json:"roles"`
	Emojis      []Emoji      `json:"emojis"`
	Stickers    []Sticker    `json:"stickers"`
	Members     []Member     `json:"members"`
	Channels    []Channel    `json:"channels"`
	Threads     []Channel    `json:"threads"`
	Presences   []Presence   `json:"presences"`
	VoiceStates []VoiceState `json:"voice_states"`
}

// GuildCreate is the guild bootstrap dispatch.
type GuildCreate struct {
	GuildCreateData
}

// GuildUpdateData is the partial guild object carried by GUILD_UPDATE; role
// and emoji arrays are always full replacements.
type GuildUpdateData struct {
	ID      snowflake.ID `json:"id"`
	Name    string       `json:"name"`
	OwnerID snowflake.ID `json:"owner_id"`
	Roles   []Role       `json:"roles"`
	Emojis  []Emoji      `json:"emojis"`
}

// GuildUpdate replaces mutable guild attributes in place.
type GuildUpdate struct {
	GuildUpdateData
}

// GuildDelete signals removal or temporary unavailability of a guild.
type GuildDelete struct {
	ID          snowflake.ID         `json:"id"`
	Unavailable possible.Value[bool] `json:"unavailable,omitzero"`
}

// GuildEmojisUpdate replaces a guild's emoji set wholesale.
type GuildEmojisUpdate struct {
	GuildID snowflake.ID `json:"guild_id"`
	Emojis  []Emoji      `json:"emojis"`
}

// GuildStickersUpdate replaces a guild's sticker set wholesale.
type GuildStickersUpdate struct {
	GuildID  snowflake.ID `json:"guild_id"`
	Stickers []Sticker    `json:"stickers"`
}

// GuildMemberAdd carries the new member inline plus the owning guild id.
type GuildMemberAdd struct {
	GuildID snowflake.ID `json:"guild_id"`
	Member
}

// GuildMemberRemove identifies the departing user.
type GuildMemberRemove struct {
	GuildID snowflake.ID `json:"guild_id"`
	User    User         `json:"user"`
}

// GuildMemberUpdate is a partial member refresh; roles are always a full
// replacement while nick and premium status are tri-state.
type GuildMemberUpdate struct {
	GuildID      snowflake.ID           `json:"guild_id"`
	User         User                   `json:"user"`
	Roles        []snowflake.ID         `json:"roles"`
	Nick         possible.Value[string] `json:"nick,omitzero"`
	Avatar       possible.Value[string] `json:"avatar,omitzero"`
	JoinedAt     string                 `json:"joined_at"`
	PremiumSince possible.Value[string] `json:"premium_since,omitzero"`
	Pending      possible.Value[bool]   `json:"pending,omitzero"`
}

// GuildMembersChunk is one page of the member list requested after a large
// guild bootstrap.
type GuildMembersChunk struct {
	GuildID    snowflake.ID `json:"guild_id"`
	Members    []Member     `json:"members"`
	ChunkIndex int          `json:"chunk_index"`
	ChunkCount int          `json:"chunk_count"`
}

// GuildRoleCreate carries the new role.
type GuildRoleCreate struct {
	GuildID snowflake.ID `json:"guild_id"`
	Role    Role         `json:"role"`
}

// GuildRoleUpdate carries the full replacement role.
type GuildRoleUpdate struct {
	GuildID snowflake.ID `json:"guild_id"`
	Role    Role         `json:"role"`
}

// GuildRoleDelete identifies the removed role by id only.
type GuildRoleDelete struct {
	GuildID snowflake.ID `json:"guild_id"`
	RoleID  snowflake.ID `json:"role_id"`
}

// GuildScheduledEventCreate carries the new scheduled event.
type GuildScheduledEventCreate struct {
	ScheduledEvent
}

// GuildScheduledEventUpdate carries the replacement scheduled event.
type GuildScheduledEventUpdate struct {
	ScheduledEvent
}

// GuildScheduledEventDelete carries the event as it existed at deletion.
type GuildScheduledEventDelete struct {
	ScheduledEvent
}

// GuildScheduledEventUserAdd subscribes a user to a scheduled event.
type GuildScheduledEventUserAdd struct {
	GuildID          snowflake.ID `json:"guild_id"`
	ScheduledEventID snowflake.ID `json:"guild_scheduled_event_id"`
	UserID           snowflake.ID `json:"user_id"`
}

// GuildScheduledEventUserRemove unsubscribes a user from a scheduled event.
type GuildScheduledEventUserRemove struct {
	GuildID          snowflake.ID `json:"guild_id"`
	ScheduledEventID snowflake.ID `json:"guild_scheduled_event_id"`
	UserID           snowflake.ID `json:"user_id"`
}

// MessageCreate carries the full message object.
type MessageCreate struct {
	Message
}

// MessageUpdate is a partial message edit. Every optional field is tri-state
// so the merge can tell "not sent" apart from "cleared".
type MessageUpdate struct {
	ID              snowflake.ID                 `json:"id"`
	ChannelID       snowflake.ID                 `json:"channel_id"`
	GuildID         possible.Value[snowflake.ID] `json:"guild_id,omitzero"`
	Content         possible.Value[string]       `json:"content,omitzero"`
	EditedTimestamp possible.Value[string]       `json:"edited_timestamp,omitzero"`
	MentionEveryone possible.Value[bool]         `json:"mention_everyone,omitzero"`
	Mentions        []User                       `json:"mentions,omitempty"`
	MentionRoles    []snowflake.ID               `json:"mention_roles,omitempty"`
	Embeds          possible.Value[rawJSON]      `json:"embeds,omitzero"`
	Pinned          possible.Value[bool]         `json:"pinned,omitzero"`
	Flags           possible.Value[int]          `json:"flags,omitzero"`
	Reactions       possible.Value[[]Reaction]   `json:"reactions,omitzero"`
}

// rawJSON keeps an opaque JSON fragment inside a tri-state wrapper.
type rawJSON []byte

func (r *rawJSON) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

func (r rawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// MessageDelete identifies one removed message.
type MessageDelete struct {
	ID        snowflake.ID                 `json:"id"`
	ChannelID snowflake.ID                 `json:"channel_id"`
	GuildID   possible.Value[snowflake.ID] `json:"guild_id,omitzero"`
}

// MessageDeleteBulk identifies a batch of removed messages in one channel.
type MessageDeleteBulk struct {
	IDs       []snowflake.ID               `json:"ids"`
	ChannelID snowflake.ID                 `json:"channel_id"`
	GuildID   possible.Value[snowflake.ID] `json:"guild_id,omitzero"`
}

// MessageReactionAdd records one user reacting with one emoji.
type MessageReactionAdd struct {
	UserID      snowflake.ID                 `json:"user_id"`
	ChannelID   snowflake.ID                 `json:"channel_id"`
	MessageID   snowflake.ID                 `json:"message_id"`
	GuildID     possible.Value[snowflake.ID] `json:"guild_id,omitzero"`
	Emoji       Emoji                        `json:"emoji"`
	Burst       bool                         `json:"burst"`
	BurstColors possible.Value[[]string]     `json:"burst_colors,omitzero"`
}

// MessageReactionRemove records one user removing one reaction.
type MessageReactionRemove struct {
	UserID    snowflake.ID                 `json:"user_id"`
	ChannelID snowflake.ID                 `json:"channel_id"`
	MessageID snowflake.ID                 `json:"message_id"`
	GuildID   possible.Value[snowflake.ID] `json:"guild_id,omitzero"`
	Emoji     Emoji                        `json:"emoji"`
	Burst     bool                         `json:"burst"`
}

// MessageReactionRemoveAll clears every reaction from a message.
type MessageReactionRemoveAll struct {
	ChannelID snowflake.ID `json:"channel_id"`
	MessageID snowflake.ID `json:"message_id"`
}

// MessageReactionRemoveEmoji clears one emoji's aggregate from a message.
type MessageReactionRemoveEmoji struct {
	ChannelID snowflake.ID `json:"channel_id"`
	MessageID snowflake.ID `json:"message_id"`
	Emoji     Emoji        `json:"emoji"`
}

// PresenceUpdate carries the presence object plus the owning guild id.
type PresenceUpdate struct {
	GuildID snowflake.ID `json:"guild_id"`
	Presence
}

// UserUpdate carries the full replacement user, normally the self user.
type UserUpdate struct {
	User
}

// VoiceStateUpdateDispatch carries the full voice state object.
type VoiceStateUpdateDispatch struct {
	VoiceState
}

// StageInstanceCreate carries the new stage instance.
type StageInstanceCreate struct {
	StageInstance
}

// StageInstanceUpdate carries the replacement stage instance.
type StageInstanceUpdate struct {
	StageInstance
}

// StageInstanceDelete carries the stage instance as it existed at deletion.
type StageInstanceDelete struct {
	StageInstance
}

// ThreadCreate carries the new thread as a channel object.
type ThreadCreate struct {
	Channel
}

// ThreadUpdate carries the replacement thread.
type ThreadUpdate struct {
	Channel
}

// ThreadDelete carries the deleted thread.
type ThreadDelete struct {
	Channel
}

// ThreadListSync resynchronizes the threads visible to the current session.
type ThreadListSync struct {
	GuildID snowflake.ID   `json:"guild_id"`
	Threads []Channel      `json:"threads"`
	Members []ThreadMember `json:"members"`
}

// ThreadMemberUpdate refreshes the current user's membership of one thread.
type ThreadMemberUpdate struct {
	ThreadMember
}

// ThreadMembersUpdate batches membership changes for one thread.
type ThreadMembersUpdate struct {
	ID               snowflake.ID   `json:"id"`
	GuildID          snowflake.ID   `json:"guild_id"`
	MemberCount      int            `json:"member_count"`
	AddedMembers     []ThreadMember `json:"added_members,omitempty"`
	RemovedMemberIDs []snowflake.ID `json:"removed_member_ids,omitempty"`
}

// Package gateway defines the wire contract consumed by the state engine:
// entity records as they appear in dispatch payloads, the dispatch payload
// structs themselves, and the frame envelope that carries them. Decoding a
// transport frame into these types is the only JSON-aware step; everything
// downstream works on typed values.
package gateway

import (
	"encoding/json"

	"statehold/pkg/possible"
	"statehold/pkg/snowflake"
)

// User is the globally keyed user record, shared across guilds.
type User struct {
	ID            snowflake.ID            `json:"id"`
	Username      string                  `json:"username"`
	Discriminator string                  `json:"discriminator"`
	GlobalName    possible.Value[string]  `json:"global_name,omitzero"`
	Avatar        possible.Value[string]  `json:"avatar,omitzero"`
	Bot           possible.Value[bool]    `json:"bot,omitzero"`
	Flags         possible.Value[int]     `json:"flags,omitzero"`
	PremiumType   possible.Value[int]     `json:"premium_type,omitzero"`
}

// PartialUser is the subset of user fields a presence payload may carry.
// Every field except the id is tri-state.
type PartialUser struct {
	ID            snowflake.ID           `json:"id"`
	Username      possible.Value[string] `json:"username,omitzero"`
	Discriminator possible.Value[string] `json:"discriminator,omitzero"`
	GlobalName    possible.Value[string] `json:"global_name,omitzero"`
	Avatar        possible.Value[string] `json:"avatar,omitzero"`
	Bot           possible.Value[bool]   `json:"bot,omitzero"`
}

// Guild is the stored guild row. Child entities live in their own stores;
// the row keeps only their id lists, which the handlers maintain alongside
// the child stores.
type Guild struct {
	ID          snowflake.ID   `json:"id"`
	Name        string         `json:"name"`
	OwnerID     snowflake.ID   `json:"owner_id"`
	Roles       []snowflake.ID `json:"roles"`
	Emojis      []snowflake.ID `json:"emojis"`
	Stickers    []snowflake.ID `json:"stickers"`
	Channels    []snowflake.ID `json:"channels"`
	Members     []snowflake.ID `json:"members"`
	MemberCount int64          `json:"member_count"`
	Large       bool           `json:"large"`
}

// Channel covers guild channels, direct messages and threads; Type selects
// which of those this record is.
type Channel struct {
	ID            snowflake.ID                 `json:"id"`
	Type          ChannelType                  `json:"type"`
	GuildID       possible.Value[snowflake.ID] `json:"guild_id,omitzero"`
	Name          possible.Value[string]       `json:"name,omitzero"`
	Position      possible.Value[int]          `json:"position,omitzero"`
	ParentID      possible.Value[snowflake.ID] `json:"parent_id,omitzero"`
	LastMessageID possible.Value[snowflake.ID] `json:"last_message_id,omitzero"`
	OwnerID       possible.Value[snowflake.ID] `json:"owner_id,omitzero"`
}

// Role is a guild role. Permissions stay in their string wire form.
type Role struct {
	ID          snowflake.ID `json:"id"`
	Name        string       `json:"name"`
	Permissions string       `json:"permissions"`
	Position    int          `json:"position"`
	Color       int          `json:"color"`
	Hoist       bool         `json:"hoist"`
	Managed     bool         `json:"managed"`
	Mentionable bool         `json:"mentionable"`
}

// Member is keyed (guildId, userId); the user record itself is stored
// separately under its global key.
type Member struct {
	User         User                   `json:"user"`
	Roles        []snowflake.ID         `json:"roles"`
	Nick         possible.Value[string] `json:"nick,omitzero"`
	Avatar       possible.Value[string] `json:"avatar,omitzero"`
	JoinedAt     string                 `json:"joined_at"`
	PremiumSince possible.Value[string] `json:"premium_since,omitzero"`
	Pending      possible.Value[bool]   `json:"pending,omitzero"`
	Deaf         bool                   `json:"deaf"`
	Mute         bool                   `json:"mute"`
}

// Emoji is a guild emoji. Default unicode emoji have no id, which is why the
// id is optional and why reaction identity falls back to the name.
type Emoji struct {
	ID       possible.Value[snowflake.ID] `json:"id,omitzero"`
	Name     possible.Value[string]       `json:"name,omitzero"`
	Roles    []snowflake.ID               `json:"roles,omitempty"`
	User     possible.Value[User]         `json:"user,omitzero"`
	Animated possible.Value[bool]         `json:"animated,omitzero"`
}

// Sticker is a guild sticker.
type Sticker struct {
	ID         snowflake.ID           `json:"id"`
	Name       string                 `json:"name"`
	FormatType int                    `json:"format_type"`
	Tags       possible.Value[string] `json:"tags,omitzero"`
}

// ReactionCountDetails splits a reaction aggregate into its normal and burst
// buckets. The total count always equals Normal + Burst.
type ReactionCountDetails struct {
	Normal int `json:"normal"`
	Burst  int `json:"burst"`
}

// Reaction is one per-emoji aggregate counter on a message.
type Reaction struct {
	Count        int                      `json:"count"`
	CountDetails ReactionCountDetails     `json:"count_details"`
	Me           bool                     `json:"me"`
	MeBurst      bool                     `json:"me_burst"`
	Emoji        Emoji                    `json:"emoji"`
	BurstColors  possible.Value[[]string] `json:"burst_colors,omitzero"`
}

// Message is the stored message row. Reactions is tri-state on purpose: a
// message that never had reactions carries an absent list, which is distinct
// from an empty one at the wire level.
type Message struct {
	ID              snowflake.ID                 `json:"id"`
	ChannelID       snowflake.ID                 `json:"channel_id"`
	GuildID         possible.Value[snowflake.ID] `json:"guild_id,omitzero"`
	Author          User                         `json:"author"`
	Content         string                       `json:"content"`
	Timestamp       string                       `json:"timestamp"`
	EditedTimestamp possible.Value[string]       `json:"edited_timestamp,omitzero"`
	MentionEveryone bool                         `json:"mention_everyone"`
	Mentions        []User                       `json:"mentions"`
	MentionRoles    []snowflake.ID               `json:"mention_roles"`
	Embeds          json.RawMessage              `json:"embeds,omitempty"`
	Reactions       possible.Value[[]Reaction]   `json:"reactions,omitzero"`
	Pinned          bool                         `json:"pinned"`
	Flags           possible.Value[int]          `json:"flags,omitzero"`
}

// ClientStatus is the per-platform presence breakdown.
type ClientStatus struct {
	Desktop possible.Value[string] `json:"desktop,omitzero"`
	Mobile  possible.Value[string] `json:"mobile,omitzero"`
	Web     possible.Value[string] `json:"web,omitzero"`
}

// Presence is keyed (guildId, userId). Activities stay opaque; the engine
// never inspects them.
type Presence struct {
	User         PartialUser     `json:"user"`
	Status       string          `json:"status"`
	Activities   json.RawMessage `json:"activities,omitempty"`
	ClientStatus ClientStatus    `json:"client_status"`
}

// StatusOffline is the synthetic status assigned to members that arrive in a
// bulk load without a presence of their own.
const StatusOffline = "offline"

// OfflinePresence synthesizes the minimal offline presence for a member, used
// during guild bootstrap and member chunks so presence bootstrap never
// regresses an already-known richer presence.
func OfflinePresence(member Member) Presence {
	return Presence{
		User: PartialUser{
			ID:            member.User.ID,
			Username:      possible.Of(member.User.Username),
			Discriminator: possible.Of(member.User.Discriminator),
			GlobalName:    member.User.GlobalName,
			Avatar:        member.User.Avatar,
			Bot:           member.User.Bot,
		},
		Status: StatusOffline,
	}
}

// VoiceState is keyed (guildId, userId). A null or absent channel id means
// the user left voice entirely; handlers delete the row instead of storing
// it.
type VoiceState struct {
	GuildID   possible.Value[snowflake.ID] `json:"guild_id,omitzero"`
	ChannelID possible.Value[snowflake.ID] `json:"channel_id,omitzero"`
	UserID    snowflake.ID                 `json:"user_id"`
	SessionID string                       `json:"session_id"`
	Deaf      bool                         `json:"deaf"`
	Mute      bool                         `json:"mute"`
	SelfDeaf  bool                         `json:"self_deaf"`
	SelfMute  bool                         `json:"self_mute"`
}

// StageInstance is a live stage in a stage channel.
type StageInstance struct {
	ID           snowflake.ID `json:"id"`
	GuildID      snowflake.ID `json:"guild_id"`
	ChannelID    snowflake.ID `json:"channel_id"`
	Topic        string       `json:"topic"`
	PrivacyLevel int          `json:"privacy_level"`
}

// ScheduledEvent is keyed (guildId, eventId).
type ScheduledEvent struct {
	ID                 snowflake.ID                 `json:"id"`
	GuildID            snowflake.ID                 `json:"guild_id"`
	ChannelID          possible.Value[snowflake.ID] `json:"channel_id,omitzero"`
	Name               string                       `json:"name"`
	Status             int                          `json:"status"`
	ScheduledStartTime string                       `json:"scheduled_start_time"`
	ScheduledEndTime   possible.Value[string]       `json:"scheduled_end_time,omitzero"`
}

// ThreadMember is keyed (threadId, userId). Both ids are optional on the wire
// because the current user's own record elides them in some payloads.
type ThreadMember struct {
	ID            possible.Value[snowflake.ID] `json:"id,omitzero"`
	UserID        possible.Value[snowflake.ID] `json:"user_id,omitzero"`
	JoinTimestamp string                       `json:"join_timestamp"`
	Flags         int                          `json:"flags"`
}

package gateway

import "errors"

// ErrUnknownChannelType is returned when a channel dispatch carries a type
// outside the known numeric mapping.
var ErrUnknownChannelType = errors.New("unknown channel type")

// ChannelType is the wire-level channel kind discriminator. The numeric
// mapping matches the protocol exactly and must not be renumbered.
type ChannelType int

const (
	ChannelTypeGuildText     ChannelType = 0
	ChannelTypeDM            ChannelType = 1
	ChannelTypeGuildVoice    ChannelType = 2
	ChannelTypeGroupDM       ChannelType = 3
	ChannelTypeGuildCategory ChannelType = 4
	ChannelTypeGuildNews     ChannelType = 5
	ChannelTypeGuildStore    ChannelType = 6
	ChannelTypeNewsThread    ChannelType = 10
	ChannelTypePublicThread  ChannelType = 11
	ChannelTypePrivateThread ChannelType = 12
	ChannelTypeGuildStage    ChannelType = 13
)

// IsGuildKind reports whether channels of this type are cached under a parent
// guild. Direct-message kinds have no guild to index by and are intentionally
// not cached.
func (t ChannelType) IsGuildKind() bool {
	switch t {
	case ChannelTypeGuildText, ChannelTypeGuildVoice, ChannelTypeGuildCategory,
		ChannelTypeGuildNews, ChannelTypeGuildStore, ChannelTypeGuildStage:
		return true
	default:
		return false
	}
}

// IsDirectKind reports whether this is a direct-message kind.
func (t ChannelType) IsDirectKind() bool {
	return t == ChannelTypeDM || t == ChannelTypeGroupDM
}

// IsThreadKind reports whether this is a thread kind.
func (t ChannelType) IsThreadKind() bool {
	switch t {
	case ChannelTypeNewsThread, ChannelTypePublicThread, ChannelTypePrivateThread:
		return true
	default:
		return false
	}
}

// String returns the symbolic name for logs.
func (t ChannelType) String() string {
	switch t {
	case ChannelTypeGuildText:
		return "guild_text"
	case ChannelTypeDM:
		return "dm"
	case ChannelTypeGuildVoice:
		return "guild_voice"
	case ChannelTypeGroupDM:
		return "group_dm"
	case ChannelTypeGuildCategory:
		return "guild_category"
	case ChannelTypeGuildNews:
		return "guild_news"
	case ChannelTypeGuildStore:
		return "guild_store"
	case ChannelTypeNewsThread:
		return "news_thread"
	case ChannelTypePublicThread:
		return "public_thread"
	case ChannelTypePrivateThread:
		return "private_thread"
	case ChannelTypeGuildStage:
		return "guild_stage"
	default:
		return "unknown"
	}
}

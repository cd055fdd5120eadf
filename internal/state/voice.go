package state

import (
	"context"
	"fmt"

	"statehold/pkg/gateway"
	"statehold/pkg/snowflake"
)

// VoiceStateUpdate saves the row when a channel id is carried and deletes it
// otherwise, since a missing channel means the user left voice entirely. A
// payload without a guild id cannot be keyed and is skipped without an event.
func (u *Updater) VoiceStateUpdate(ctx context.Context, shard ShardID, d gateway.VoiceStateUpdateDispatch) (Event, error) {
	guildID, ok := d.GuildID.Get()
	if !ok {
		u.log.Debug("voice state without guild id, skipping", "user_id", d.UserID.String())
		return nil, nil
	}

	key := snowflake.PairOf(guildID, d.UserID)
	old, err := u.reg.VoiceStates.Find(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find voice state %s: %w", key, err)
	}

	if _, ok := d.ChannelID.Get(); ok {
		if err := u.reg.VoiceStates.Save(ctx, key, d.VoiceState); err != nil {
			return nil, fmt.Errorf("save voice state %s: %w", key, err)
		}
	} else {
		if err := u.reg.VoiceStates.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("delete voice state %s: %w", key, err)
		}
	}

	return VoiceStateUpdated{Base: base(gateway.EventVoiceStateUpdate, shard), State: d.VoiceState, Old: old}, nil
}

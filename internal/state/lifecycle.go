package state

import (
	"context"
	"fmt"

	"statehold/pkg/gateway"
	"statehold/pkg/snowflake"
)

// Ready records the self user id and caches the self user row. The first
// Ready across all shards wins the id cell; every shard's Ready still saves
// the user, which is a harmless overwrite of the same value.
func (u *Updater) Ready(ctx context.Context, shard ShardID, d gateway.Ready) (Event, error) {
	u.reg.SetSelfID(d.User.ID)
	if err := u.reg.Users.Save(ctx, d.User.ID, d.User); err != nil {
		return nil, fmt.Errorf("save self user %s: %w", d.User.ID, err)
	}

	guildIDs := make([]snowflake.ID, 0, len(d.Guilds))
	for _, stub := range d.Guilds {
		guildIDs = append(guildIDs, stub.ID)
	}

	return Ready{Base: base(gateway.EventReady, shard), Self: d.User, GuildIDs: guildIDs}, nil
}

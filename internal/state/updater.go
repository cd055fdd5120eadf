package state

import (
	"context"
	"fmt"
	"log/slog"

	"statehold/pkg/gateway"
	"statehold/pkg/snowflake"
)

// Updater applies dispatch payloads to the registry. One Updater serves every
// shard; it holds no per-dispatch state, so concurrent calls from different
// shard loops are safe as long as each shard's calls stay in order.
type Updater struct {
	reg *Registry
	log *slog.Logger
}

// NewUpdater returns an Updater over reg. A nil logger falls back to the
// default logger.
func NewUpdater(reg *Registry, log *slog.Logger) *Updater {
	if log == nil {
		log = slog.Default()
	}

	return &Updater{reg: reg, log: log}
}

// updateGuild applies mutate to the stored guild row, if one exists. A
// missing parent guild is a tolerable ordering gap: the child write already
// happened and the parent list is skipped silently.
func (u *Updater) updateGuild(ctx context.Context, id snowflake.ID, mutate func(gateway.Guild) gateway.Guild) error {
	found, err := u.reg.Guilds.Find(ctx, id)
	if err != nil {
		return fmt.Errorf("find guild %s: %w", id, err)
	}

	guild, ok := found.Get()
	if !ok {
		u.log.Debug("parent guild not cached, skipping list update", "guild_id", id.String())
		return nil
	}

	if err := u.reg.Guilds.Save(ctx, id, mutate(guild)); err != nil {
		return fmt.Errorf("save guild %s: %w", id, err)
	}

	return nil
}

// updateMessage applies mutate to the stored message row, if one exists, and
// returns the updated row. Reaction handlers all reduce to this shape.
func (u *Updater) updateMessage(ctx context.Context, id snowflake.ID, mutate func(gateway.Message) gateway.Message) (gateway.Message, bool, error) {
	found, err := u.reg.Messages.Find(ctx, id)
	if err != nil {
		return gateway.Message{}, false, fmt.Errorf("find message %s: %w", id, err)
	}

	msg, ok := found.Get()
	if !ok {
		return gateway.Message{}, false, nil
	}

	updated := mutate(msg)
	if err := u.reg.Messages.Save(ctx, id, updated); err != nil {
		return gateway.Message{}, false, fmt.Errorf("save message %s: %w", id, err)
	}

	return updated, true, nil
}

func base(dispatch string, shard ShardID) Base {
	return Base{Dispatch: dispatch, ShardID: shard}
}

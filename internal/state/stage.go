package state

import (
	"context"
	"fmt"

	"statehold/pkg/gateway"
)

// StageInstanceCreate caches a newly opened stage.
func (u *Updater) StageInstanceCreate(ctx context.Context, shard ShardID, d gateway.StageInstanceCreate) (Event, error) {
	if err := u.reg.StageInstances.Save(ctx, d.StageInstance.ID, d.StageInstance); err != nil {
		return nil, fmt.Errorf("save stage instance %s: %w", d.StageInstance.ID, err)
	}

	return StageInstanceCreated{Base: base(gateway.EventStageInstanceCreate, shard), Instance: d.StageInstance}, nil
}

// StageInstanceUpdate overwrites the cached stage instance.
func (u *Updater) StageInstanceUpdate(ctx context.Context, shard ShardID, d gateway.StageInstanceUpdate) (Event, error) {
	old, err := u.reg.StageInstances.Find(ctx, d.StageInstance.ID)
	if err != nil {
		return nil, fmt.Errorf("find stage instance %s: %w", d.StageInstance.ID, err)
	}
	if err := u.reg.StageInstances.Save(ctx, d.StageInstance.ID, d.StageInstance); err != nil {
		return nil, fmt.Errorf("save stage instance %s: %w", d.StageInstance.ID, err)
	}

	return StageInstanceUpdated{Base: base(gateway.EventStageInstanceUpdate, shard), Instance: d.StageInstance, Old: old}, nil
}

// StageInstanceDelete removes the cached stage instance.
func (u *Updater) StageInstanceDelete(ctx context.Context, shard ShardID, d gateway.StageInstanceDelete) (Event, error) {
	old, err := u.reg.StageInstances.Find(ctx, d.StageInstance.ID)
	if err != nil {
		return nil, fmt.Errorf("find stage instance %s: %w", d.StageInstance.ID, err)
	}
	if err := u.reg.StageInstances.Delete(ctx, d.StageInstance.ID); err != nil {
		return nil, fmt.Errorf("delete stage instance %s: %w", d.StageInstance.ID, err)
	}

	return StageInstanceDeleted{Base: base(gateway.EventStageInstanceDelete, shard), Instance: d.StageInstance, Old: old}, nil
}

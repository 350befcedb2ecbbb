package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/entity"
)

var bridgeStateColumns = []string{"active_guardian_set_index", "message_fee", "collected_fees", "paused", "authority", "created_at", "updated_at"}

type bridgeStateRepo basePostgresRepo

func NewBridgeStateRepo(table string, db db.Querier) entity.BridgeStateRepo {
	return (*bridgeStateRepo)(newBasePostgresRepo(table, db))
}

func (r *bridgeStateRepo) Create(ctx context.Context, state *entity.BridgeState) error {
	q, args, err := sq.Insert(r.table).
		Columns("active_guardian_set_index", "message_fee", "collected_fees", "paused", "authority").
		Values(state.ActiveGuardianSetIndex, state.MessageFee, state.CollectedFees, state.Paused, state.Authority).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert bridge state: %w", err)
	}
	return nil
}

func (r *bridgeStateRepo) Get(ctx context.Context) (*entity.BridgeState, error) {
	q, args, err := sq.Select(bridgeStateColumns...).
		From(r.table).
		Where(sq.Eq{"id": 1}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	state := new(entity.BridgeState)
	err = r.db.GetContext(ctx, state, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get bridge state: %w", err)
	}
	return state, nil
}

func (r *bridgeStateRepo) Update(ctx context.Context, state *entity.BridgeState) error {
	q, args, err := sq.Update(r.table).
		Set("active_guardian_set_index", state.ActiveGuardianSetIndex).
		Set("message_fee", state.MessageFee).
		Set("collected_fees", state.CollectedFees).
		Set("paused", state.Paused).
		Set("authority", state.Authority).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": 1}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't update bridge state: %w", err)
	}
	return expectAffected(res, "bridge state")
}

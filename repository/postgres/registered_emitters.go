package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/entity"
)

type registeredEmittersRepo basePostgresRepo

func NewRegisteredEmittersRepo(table string, db db.Querier) entity.RegisteredEmittersRepo {
	return (*registeredEmittersRepo)(newBasePostgresRepo(table, db))
}

func (r *registeredEmittersRepo) Create(ctx context.Context, emitter *entity.RegisteredEmitter) error {
	q, args, err := sq.Insert(r.table).
		Columns("chain", "address").
		Values(emitter.Chain, emitter.Address).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert registered emitter: %w", err)
	}
	return nil
}

func (r *registeredEmittersRepo) GetByChain(ctx context.Context, chain uint16) (*entity.RegisteredEmitter, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"chain": chain}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	emitter := new(entity.RegisteredEmitter)
	err = r.db.GetContext(ctx, emitter, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get registered emitter for chain %d: %w", chain, err)
	}
	return emitter, nil
}

func (r *registeredEmittersRepo) FindAll(ctx context.Context) ([]*entity.RegisteredEmitter, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		OrderBy("chain").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	emitters := make([]*entity.RegisteredEmitter, 0, 4)
	err = r.db.SelectContext(ctx, &emitters, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select registered emitters: %w", err)
	}
	return emitters, nil
}

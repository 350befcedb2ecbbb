package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/entity"
)

// messageSequencesRepo stores the sequence the emitter's next message receives.
type messageSequencesRepo basePostgresRepo

func NewMessageSequencesRepo(table string, db db.Querier) entity.MessageSequencesRepo {
	return (*messageSequencesRepo)(newBasePostgresRepo(table, db))
}

func (r *messageSequencesRepo) Next(ctx context.Context, emitter common.Hash) (uint64, error) {
	q, args, err := sq.Insert(r.table).
		Columns("emitter_address", "sequence").
		Values(emitter, 1).
		Suffix(fmt.Sprintf("ON CONFLICT (emitter_address) DO UPDATE SET sequence = %s.sequence + 1, updated_at = NOW() RETURNING sequence - 1", r.table)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("can't build query: %w", err)
	}
	var seq uint64
	err = r.db.GetContext(ctx, &seq, q, args...)
	if err != nil {
		return 0, fmt.Errorf("can't advance emitter sequence: %w", err)
	}
	return seq, nil
}

func (r *messageSequencesRepo) Peek(ctx context.Context, emitter common.Hash) (uint64, error) {
	q, args, err := sq.Select("sequence").
		From(r.table).
		Where(sq.Eq{"emitter_address": emitter}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("can't build query: %w", err)
	}
	var seq uint64
	err = db.IgnoreErrNotFound(r.db.GetContext(ctx, &seq, q, args...))
	if err != nil {
		return 0, fmt.Errorf("can't get emitter sequence: %w", err)
	}
	return seq, nil
}

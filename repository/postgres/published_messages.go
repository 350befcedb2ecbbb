package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/entity"
)

type publishedMessagesRepo basePostgresRepo

func NewPublishedMessagesRepo(table string, db db.Querier) entity.PublishedMessagesRepo {
	return (*publishedMessagesRepo)(newBasePostgresRepo(table, db))
}

func (r *publishedMessagesRepo) Create(ctx context.Context, msg *entity.PublishedMessage) error {
	q, args, err := sq.Insert(r.table).
		Columns("emitter_address", "sequence", "nonce", "payload", "consistency_level", "timestamp").
		Values(msg.EmitterAddress, msg.Sequence, msg.Nonce, msg.Payload, msg.ConsistencyLevel, msg.Timestamp).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert published message: %w", err)
	}
	return nil
}

func (r *publishedMessagesRepo) Get(ctx context.Context, emitter common.Hash, sequence uint64) (*entity.PublishedMessage, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"emitter_address": emitter, "sequence": sequence}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	msg := new(entity.PublishedMessage)
	err = r.db.GetContext(ctx, msg, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get published message: %w", err)
	}
	return msg, nil
}

func (r *publishedMessagesRepo) FindByEmitter(ctx context.Context, emitter common.Hash, fromSequence uint64, limit uint64) ([]*entity.PublishedMessage, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"emitter_address": emitter}).
		Where(sq.GtOrEq{"sequence": fromSequence}).
		OrderBy("sequence").
		Limit(limit).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	msgs := make([]*entity.PublishedMessage, 0, 16)
	err = r.db.SelectContext(ctx, &msgs, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select published messages: %w", err)
	}
	return msgs, nil
}

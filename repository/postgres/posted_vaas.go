package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/entity"
)

type postedVAAsRepo basePostgresRepo

func NewPostedVAAsRepo(table string, db db.Querier) entity.PostedVAAsRepo {
	return (*postedVAAsRepo)(newBasePostgresRepo(table, db))
}

func keyEq(key entity.VAAKey) sq.Eq {
	return sq.Eq{
		"emitter_chain":   key.EmitterChain,
		"emitter_address": key.EmitterAddress,
		"sequence":        key.Sequence,
	}
}

func (r *postedVAAsRepo) Create(ctx context.Context, vaa *entity.PostedVAA) error {
	q, args, err := sq.Insert(r.table).
		Columns("emitter_chain", "emitter_address", "sequence", "version", "guardian_set_index", "timestamp", "nonce", "consistency_level", "payload", "digest", "consumed").
		Values(vaa.EmitterChain, vaa.EmitterAddress, vaa.Sequence, vaa.Version, vaa.GuardianSetIndex, vaa.Timestamp, vaa.Nonce, vaa.ConsistencyLevel, vaa.Payload, vaa.Digest, vaa.Consumed).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert posted vaa %s: %w", vaa.VAAKey, err)
	}
	return nil
}

func (r *postedVAAsRepo) Get(ctx context.Context, key entity.VAAKey) (*entity.PostedVAA, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(keyEq(key)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	vaa := new(entity.PostedVAA)
	err = r.db.GetContext(ctx, vaa, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get posted vaa %s: %w", key, err)
	}
	return vaa, nil
}

func (r *postedVAAsRepo) MarkConsumed(ctx context.Context, key entity.VAAKey) error {
	q, args, err := sq.Update(r.table).
		Set("consumed", true).
		Set("updated_at", sq.Expr("NOW()")).
		Where(keyEq(key)).
		Where(sq.Eq{"consumed": false}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't mark vaa %s consumed: %w", key, err)
	}
	err = expectAffected(res, "unconsumed vaa")
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}
	if _, err = r.Get(ctx, key); err != nil {
		return err
	}
	return fmt.Errorf("vaa %s: %w", key, db.ErrAlreadyConsumed)
}

func (r *postedVAAsRepo) FindUnconsumed(ctx context.Context, postedBefore time.Time, limit uint64) ([]*entity.PostedVAA, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"consumed": false}).
		Where(sq.Lt{"created_at": postedBefore}).
		OrderBy("created_at").
		Limit(limit).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	vaas := make([]*entity.PostedVAA, 0, 10)
	err = r.db.SelectContext(ctx, &vaas, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select unconsumed vaas: %w", err)
	}
	return vaas, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"

	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/entity"
)

type guardianSetRow struct {
	entity.GuardianSet
	RawKeys pq.ByteaArray `db:"keys"`
}

func packKeys(keys []common.Address) pq.ByteaArray {
	res := make(pq.ByteaArray, len(keys))
	for i, key := range keys {
		res[i] = key.Bytes()
	}
	return res
}

func (r *guardianSetRow) unpack() (*entity.GuardianSet, error) {
	set := r.GuardianSet
	set.Keys = make([]common.Address, len(r.RawKeys))
	for i, key := range r.RawKeys {
		if len(key) != common.AddressLength {
			return nil, fmt.Errorf("guardian set %d has a %d byte key at position %d", r.Index, len(key), i)
		}
		set.Keys[i] = common.BytesToAddress(key)
	}
	return &set, nil
}

type guardianSetsRepo basePostgresRepo

func NewGuardianSetsRepo(table string, db db.Querier) entity.GuardianSetsRepo {
	return (*guardianSetsRepo)(newBasePostgresRepo(table, db))
}

func (r *guardianSetsRepo) Create(ctx context.Context, set *entity.GuardianSet) error {
	q, args, err := sq.Insert(r.table).
		Columns("index", "keys", "creation_time", "expiration_time").
		Values(set.Index, packKeys(set.Keys), set.CreationTime, set.ExpirationTime).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert guardian set: %w", err)
	}
	return nil
}

func (r *guardianSetsRepo) GetByIndex(ctx context.Context, index uint32) (*entity.GuardianSet, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"index": index}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	row := new(guardianSetRow)
	err = r.db.GetContext(ctx, row, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get guardian set: %w", err)
	}
	return row.unpack()
}

func (r *guardianSetsRepo) SetExpiration(ctx context.Context, index uint32, expiration time.Time) error {
	q, args, err := sq.Update(r.table).
		Set("expiration_time", expiration).
		Where(sq.Eq{"index": index, "expiration_time": nil}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't set guardian set expiration: %w", err)
	}
	return expectAffected(res, "active guardian set")
}

func (r *guardianSetsRepo) FindAll(ctx context.Context) ([]*entity.GuardianSet, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		OrderBy("index").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	rows := make([]*guardianSetRow, 0, 4)
	err = r.db.SelectContext(ctx, &rows, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select guardian sets: %w", err)
	}
	sets := make([]*entity.GuardianSet, len(rows))
	for i, row := range rows {
		if sets[i], err = row.unpack(); err != nil {
			return nil, err
		}
	}
	return sets, nil
}

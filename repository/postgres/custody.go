package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/entity"
)

type custodyVaultsRepo basePostgresRepo

func NewCustodyVaultsRepo(table string, db db.Querier) entity.CustodyVaultsRepo {
	return (*custodyVaultsRepo)(newBasePostgresRepo(table, db))
}

func (r *custodyVaultsRepo) Get(ctx context.Context, token common.Hash) (*entity.CustodyVault, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"token": token}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	vault := new(entity.CustodyVault)
	err = r.db.GetContext(ctx, vault, q, args...)
	if errors.Is(err, db.ErrNotFound) {
		return &entity.CustodyVault{Token: token}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("can't get custody vault: %w", err)
	}
	return vault, nil
}

func (r *custodyVaultsRepo) Credit(ctx context.Context, token common.Hash, amount uint64) error {
	return credit(ctx, r.db, r.table, []string{"token"}, []interface{}{token}, amount)
}

func (r *custodyVaultsRepo) Debit(ctx context.Context, token common.Hash, amount uint64) error {
	return debit(ctx, r.db, r.table, sq.Eq{"token": token}, amount)
}

type balancesRepo basePostgresRepo

func NewBalancesRepo(table string, db db.Querier) entity.BalancesRepo {
	return (*balancesRepo)(newBasePostgresRepo(table, db))
}

func (r *balancesRepo) Get(ctx context.Context, token, owner common.Hash) (*entity.Balance, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"token": token, "owner": owner}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	balance := new(entity.Balance)
	err = r.db.GetContext(ctx, balance, q, args...)
	if errors.Is(err, db.ErrNotFound) {
		return &entity.Balance{Token: token, Owner: owner}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("can't get balance: %w", err)
	}
	return balance, nil
}

func (r *balancesRepo) Credit(ctx context.Context, token, owner common.Hash, amount uint64) error {
	return credit(ctx, r.db, r.table, []string{"token", "owner"}, []interface{}{token, owner}, amount)
}

func (r *balancesRepo) Debit(ctx context.Context, token, owner common.Hash, amount uint64) error {
	return debit(ctx, r.db, r.table, sq.Eq{"token": token, "owner": owner}, amount)
}

// credit upserts the row identified by keyColumns. Exceeding 2^64-1 violates
// the amount check constraint and surfaces as db.ErrOverflow.
func credit(ctx context.Context, q db.Querier, table string, keyColumns []string, keyValues []interface{}, amount uint64) error {
	columns := append(append([]string{}, keyColumns...), "amount")
	values := append(append([]interface{}{}, keyValues...), amount)
	query, args, err := sq.Insert(table).
		Columns(columns...).
		Values(values...).
		Suffix(fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET amount = %s.amount + EXCLUDED.amount, updated_at = NOW()", strings.Join(keyColumns, ", "), table)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("can't credit %s: %w", table, err)
	}
	return nil
}

func debit(ctx context.Context, q db.Querier, table string, key sq.Eq, amount uint64) error {
	query, args, err := sq.Update(table).
		Set("amount", sq.Expr("amount - ?", amount)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(key).
		Where(sq.GtOrEq{"amount": amount}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("can't debit %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("can't debit %d from %s: %w", amount, table, db.ErrInsufficientFunds)
	}
	return nil
}

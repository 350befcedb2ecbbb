package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/entity"
)

type tokenBindingsRepo basePostgresRepo

func NewTokenBindingsRepo(table string, db db.Querier) entity.TokenBindingsRepo {
	return (*tokenBindingsRepo)(newBasePostgresRepo(table, db))
}

func bindingEq(key entity.TokenBindingKey) sq.Eq {
	return sq.Eq{
		"source_chain": key.SourceChain,
		"source_token": key.SourceToken,
		"target_chain": key.TargetChain,
		"target_token": key.TargetToken,
	}
}

func (r *tokenBindingsRepo) Create(ctx context.Context, binding *entity.TokenBinding) error {
	q, args, err := sq.Insert(r.table).
		Columns("source_chain", "source_token", "target_chain", "target_token", "rate_numerator", "rate_denominator",
			"enabled", "use_external_price", "external_price_provider", "created_at", "updated_at").
		Values(binding.SourceChain, binding.SourceToken, binding.TargetChain, binding.TargetToken, binding.RateNumerator, binding.RateDenominator,
			binding.Enabled, binding.UseExternalPrice, binding.ExternalPriceProvider, binding.CreatedAt, binding.UpdatedAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert token binding %s: %w", binding.TokenBindingKey, err)
	}
	return nil
}

func (r *tokenBindingsRepo) Get(ctx context.Context, key entity.TokenBindingKey) (*entity.TokenBinding, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(bindingEq(key)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	binding := new(entity.TokenBinding)
	err = r.db.GetContext(ctx, binding, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get token binding %s: %w", key, err)
	}
	return binding, nil
}

func (r *tokenBindingsRepo) Update(ctx context.Context, binding *entity.TokenBinding) error {
	q, args, err := sq.Update(r.table).
		Set("rate_numerator", binding.RateNumerator).
		Set("rate_denominator", binding.RateDenominator).
		Set("enabled", binding.Enabled).
		Set("use_external_price", binding.UseExternalPrice).
		Set("external_price_provider", binding.ExternalPriceProvider).
		Set("updated_at", binding.UpdatedAt).
		Where(bindingEq(binding.TokenBindingKey)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't update token binding %s: %w", binding.TokenBindingKey, err)
	}
	return expectAffected(res, "token binding")
}

func (r *tokenBindingsRepo) FindBySource(ctx context.Context, sourceChain uint16, sourceToken common.Hash, targetChain uint16) ([]*entity.TokenBinding, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"source_chain": sourceChain, "source_token": sourceToken, "target_chain": targetChain}).
		OrderBy("target_token").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	bindings := make([]*entity.TokenBinding, 0, 2)
	err = r.db.SelectContext(ctx, &bindings, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select token bindings: %w", err)
	}
	return bindings, nil
}

func (r *tokenBindingsRepo) FindAll(ctx context.Context) ([]*entity.TokenBinding, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		OrderBy("source_chain", "source_token", "target_chain", "target_token").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	bindings := make([]*entity.TokenBinding, 0, 10)
	err = r.db.SelectContext(ctx, &bindings, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select token bindings: %w", err)
	}
	return bindings, nil
}

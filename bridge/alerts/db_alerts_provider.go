package alerts

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/omni/vaa-bridge/db"
)

type DBAlertsProvider struct {
	db db.Querier
}

func NewDBAlertsProvider(db db.Querier) *DBAlertsProvider {
	return &DBAlertsProvider{
		db: db,
	}
}

// FindUnconsumedTransfers lists posted VAAs of registered emitters, matched on
// both chain and address, that nobody completed within params.MinAge.
func (p *DBAlertsProvider) FindUnconsumedTransfers(ctx context.Context, params *AlertJobParams) (interface{}, error) {
	q, args, err := sq.Select("v.emitter_chain", "v.emitter_address", "v.sequence", "EXTRACT(EPOCH FROM now() - v.created_at)::bigint AS age").
		From("posted_vaas v").
		Join("registered_emitters e ON e.chain = v.emitter_chain AND e.address = v.emitter_address").
		Where(sq.Eq{"v.consumed": false}).
		Where("v.created_at <= now() - make_interval(secs => ?)", seconds(params.MinAge)).
		OrderBy("v.created_at").
		Limit(params.Limit).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	res := make([]UnconsumedTransfer, 0, 5)
	err = p.db.SelectContext(ctx, &res, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select alerts: %w", err)
	}
	return res, nil
}

func (p *DBAlertsProvider) FindExpiringGuardianSets(ctx context.Context, _ *AlertJobParams) (interface{}, error) {
	q, args, err := sq.Select("index", "EXTRACT(EPOCH FROM expiration_time - now())::bigint AS expires_in").
		From("guardian_sets").
		Where("expiration_time > now()").
		OrderBy("index").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	res := make([]ExpiringGuardianSet, 0, 2)
	err = p.db.SelectContext(ctx, &res, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select alerts: %w", err)
	}
	return res, nil
}

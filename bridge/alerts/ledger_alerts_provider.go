package alerts

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/vaa-bridge/repository"
)

// LedgerAlertsProvider evaluates alerts through the repository interfaces,
// it serves deployments that keep the ledger in memory.
type LedgerAlertsProvider struct {
	ledger repository.Ledger
	now    func() time.Time
}

func NewLedgerAlertsProvider(ledger repository.Ledger, now func() time.Time) *LedgerAlertsProvider {
	if now == nil {
		now = time.Now
	}
	return &LedgerAlertsProvider{
		ledger: ledger,
		now:    now,
	}
}

func (p *LedgerAlertsProvider) FindUnconsumedTransfers(ctx context.Context, params *AlertJobParams) (interface{}, error) {
	res := make([]UnconsumedTransfer, 0, 5)
	now := p.now()
	err := p.ledger.View(ctx, func(ctx context.Context, repo *repository.Repo) error {
		emitters, err := repo.Emitters.FindAll(ctx)
		if err != nil {
			return err
		}
		registered := make(map[uint16]common.Hash, len(emitters))
		for _, e := range emitters {
			registered[e.Chain] = e.Address
		}
		vaas, err := repo.PostedVAAs.FindUnconsumed(ctx, now.Add(-params.MinAge), params.Limit)
		if err != nil {
			return err
		}
		for _, v := range vaas {
			if addr, ok := registered[v.EmitterChain]; !ok || addr != v.EmitterAddress {
				continue
			}
			res = append(res, UnconsumedTransfer{
				EmitterChain:   v.EmitterChain,
				EmitterAddress: v.EmitterAddress,
				Sequence:       v.Sequence,
				Age:            seconds(now.Sub(*v.CreatedAt)),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (p *LedgerAlertsProvider) FindExpiringGuardianSets(ctx context.Context, _ *AlertJobParams) (interface{}, error) {
	res := make([]ExpiringGuardianSet, 0, 2)
	now := p.now()
	err := p.ledger.View(ctx, func(ctx context.Context, repo *repository.Repo) error {
		sets, err := repo.GuardianSets.FindAll(ctx)
		if err != nil {
			return err
		}
		for _, set := range sets {
			if set.ExpirationTime == nil || !set.ExpirationTime.After(now) {
				continue
			}
			res = append(res, ExpiringGuardianSet{
				Index:     set.Index,
				ExpiresIn: seconds(set.ExpirationTime.Sub(now)),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

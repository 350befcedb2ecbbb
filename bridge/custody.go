package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/entity"
	"github.com/omni/vaa-bridge/price"
	"github.com/omni/vaa-bridge/repository"
	"github.com/omni/vaa-bridge/vaa"
)

type TransferRequest struct {
	SourceToken      common.Hash
	Amount           uint64
	TargetChain      uint16
	TargetToken      common.Hash
	Recipient        common.Hash
	Payer            common.Hash
	Nonce            uint32
	ConsistencyLevel uint8
	Fee              uint64
}

func (r *TransferRequest) bindingKey(localChain uint16) entity.TokenBindingKey {
	return entity.TokenBindingKey{
		SourceChain: localChain,
		SourceToken: r.SourceToken,
		TargetChain: r.TargetChain,
		TargetToken: r.TargetToken,
	}
}

// Settlement describes the value released by a completed transfer.
type Settlement struct {
	VAAKey    entity.VAAKey `json:"vaa"`
	Token     common.Hash   `json:"token"`
	Recipient common.Hash   `json:"recipient"`
	Amount    uint64        `json:"amount,string"`
}

func enabledBinding(ctx context.Context, repo *repository.Repo, key entity.TokenBindingKey) (*entity.TokenBinding, error) {
	binding, err := getBinding(ctx, repo, key)
	if err != nil {
		return nil, err
	}
	if !binding.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrTokenBindingNotEnabled, key)
	}
	return binding, nil
}

// quote returns the rate an outbound transfer over the binding is priced at.
// Provider quotes are fetched outside of the unit of work that uses them.
func (b *Bridge) quote(ctx context.Context, key entity.TokenBindingKey) (*entity.TokenBinding, *price.Quote, error) {
	var binding *entity.TokenBinding
	err := b.view(ctx, func(ctx context.Context, repo *repository.Repo) (err error) {
		binding, err = enabledBinding(ctx, repo, key)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if !binding.UseExternalPrice {
		return binding, &price.Quote{Numerator: binding.RateNumerator, Denominator: binding.RateDenominator}, nil
	}
	q, err := b.prices.Quote(ctx, binding.ExternalPriceProvider, key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrPriceProvider, err)
	}
	if err = q.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrPriceProvider, err)
	}
	return binding, q, nil
}

// LockAndTransfer moves the amount from the payer into custody and publishes
// a transfer message for the target chain under the token bridge emitter.
func (b *Bridge) LockAndTransfer(ctx context.Context, req *TransferRequest) (uint64, error) {
	seq, err := b.lockAndTransfer(ctx, req)
	Transfers.WithLabelValues(directionOutbound, ErrorCode(err)).Inc()
	if err != nil {
		return 0, err
	}
	b.logger.WithFields(logrus.Fields{
		"source_token": req.SourceToken,
		"target_chain": req.TargetChain,
		"amount":       req.Amount,
		"sequence":     seq,
	}).Info("locked tokens for transfer")
	b.observeVault(ctx, req.SourceToken)
	return seq, nil
}

func (b *Bridge) lockAndTransfer(ctx context.Context, req *TransferRequest) (uint64, error) {
	if req.Amount == 0 {
		return 0, fmt.Errorf("%w: zero amount", ErrInvalidAmount)
	}
	if req.TargetChain == 0 || req.TargetChain == b.cfg.ChainID {
		return 0, fmt.Errorf("%w: can't transfer to chain %d", ErrInvalidTargetChain, req.TargetChain)
	}
	key := req.bindingKey(b.cfg.ChainID)
	quoted, q, err := b.quote(ctx, key)
	if err != nil {
		return 0, err
	}
	targetAmount, err := ApplyRate(req.Amount, q.Numerator, q.Denominator)
	if err != nil {
		return 0, err
	}
	emitter := b.TokenBridgeEmitter()

	var seq uint64
	err = b.atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		binding, err := enabledBinding(ctx, repo, key)
		if err != nil {
			return err
		}
		if binding.UseExternalPrice != quoted.UseExternalPrice ||
			binding.RateNumerator != quoted.RateNumerator ||
			binding.RateDenominator != quoted.RateDenominator ||
			binding.ExternalPriceProvider != quoted.ExternalPriceProvider {
			return fmt.Errorf("%w: binding %s changed while quoting", ErrConflict, key)
		}

		err = repo.Balances.Debit(ctx, req.SourceToken, req.Payer, req.Amount)
		if errors.Is(err, db.ErrInsufficientFunds) {
			return fmt.Errorf("%w: payer %s can't pay %d", ErrInsufficientBalance, req.Payer, req.Amount)
		}
		if err != nil {
			return err
		}
		err = repo.Vaults.Credit(ctx, req.SourceToken, req.Amount)
		if errors.Is(err, db.ErrOverflow) {
			return fmt.Errorf("%w: custody vault of %s", ErrAmountOverflow, req.SourceToken)
		}
		if err != nil {
			return err
		}

		payload := &vaa.TransferPayload{
			Amount:          req.Amount,
			TokenAddress:    req.SourceToken,
			TokenChain:      vaa.ChainID(b.cfg.ChainID),
			Recipient:       req.Recipient,
			RecipientChain:  vaa.ChainID(req.TargetChain),
			TargetToken:     req.TargetToken,
			TargetAmount:    targetAmount,
			RateNumerator:   q.Numerator,
			RateDenominator: q.Denominator,
		}
		seq, err = b.publish(ctx, repo, emitter, &PublishRequest{
			Nonce:            req.Nonce,
			Payload:          payload.Marshal(),
			ConsistencyLevel: req.ConsistencyLevel,
			Fee:              req.Fee,
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	MessagesPublished.Inc()
	return seq, nil
}

// CompleteTransfer releases custody to the recipient of a posted transfer VAA
// and consumes the VAA in the same unit of work.
func (b *Bridge) CompleteTransfer(ctx context.Context, key entity.VAAKey) (*Settlement, error) {
	settlement, err := b.completeTransfer(ctx, key)
	Transfers.WithLabelValues(directionInbound, ErrorCode(err)).Inc()
	if err != nil {
		return nil, err
	}
	b.logger.WithFields(logrus.Fields{
		"vaa":       key.String(),
		"token":     settlement.Token,
		"recipient": settlement.Recipient,
		"amount":    settlement.Amount,
	}).Info("completed transfer")
	b.observeVault(ctx, settlement.Token)
	return settlement, nil
}

func (b *Bridge) completeTransfer(ctx context.Context, key entity.VAAKey) (*Settlement, error) {
	var settlement *Settlement
	err := b.atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		posted, err := getUnconsumedVAA(ctx, repo, key)
		if err != nil {
			return err
		}
		emitter, err := repo.Emitters.GetByChain(ctx, key.EmitterChain)
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: no emitter registered for chain %d", ErrUnknownEmitter, key.EmitterChain)
		}
		if err != nil {
			return err
		}
		if emitter.Address != key.EmitterAddress {
			return fmt.Errorf("%w: %s is not the emitter of chain %d", ErrUnknownEmitter, key.EmitterAddress, key.EmitterChain)
		}
		payload, err := vaa.ParseTransferPayload(posted.Payload)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidPayload, err)
		}

		candidates, err := repo.TokenBindings.FindBySource(ctx, uint16(payload.TokenChain), payload.TokenAddress, b.cfg.ChainID)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return fmt.Errorf("%w: no binding of %d:%s to chain %d", ErrTokenBindingNotFound, payload.TokenChain, payload.TokenAddress.Hex(), b.cfg.ChainID)
		}
		if payload.RecipientChain != vaa.ChainID(b.cfg.ChainID) {
			return fmt.Errorf("%w: transfer is addressed to chain %d", ErrInvalidTargetChain, payload.RecipientChain)
		}
		var binding *entity.TokenBinding
		for _, c := range candidates {
			if c.TargetToken == payload.TargetToken {
				binding = c
				break
			}
		}
		if binding == nil {
			return fmt.Errorf("%w: %s is not bound to %d:%s", ErrTargetTokenMismatch, payload.TargetToken.Hex(), payload.TokenChain, payload.TokenAddress.Hex())
		}
		if !binding.Enabled {
			return fmt.Errorf("%w: %s", ErrTokenBindingNotEnabled, binding.TokenBindingKey)
		}

		// the payload rate is informational, only the stored rate of the local binding is trusted
		num, denom := binding.RateNumerator, binding.RateDenominator
		if denom == 0 {
			return fmt.Errorf("%w: zero denominator", ErrInvalidExchangeRate)
		}
		expected, err := ApplyRate(payload.Amount, num, denom)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidExchangeRate, err)
		}
		if expected != payload.TargetAmount {
			return fmt.Errorf("%w: rate %d/%d gives %d, vaa claims %d", ErrInvalidExchangeRate, num, denom, expected, payload.TargetAmount)
		}

		if payload.TargetAmount > 0 {
			err = repo.Vaults.Debit(ctx, payload.TargetToken, payload.TargetAmount)
			if errors.Is(err, db.ErrInsufficientFunds) {
				return fmt.Errorf("%w: vault of %s can't release %d", ErrInsufficientCustodyBalance, payload.TargetToken, payload.TargetAmount)
			}
			if err != nil {
				return err
			}
			err = repo.Balances.Credit(ctx, payload.TargetToken, payload.Recipient, payload.TargetAmount)
			if errors.Is(err, db.ErrOverflow) {
				return fmt.Errorf("%w: balance of %s", ErrAmountOverflow, payload.Recipient)
			}
			if err != nil {
				return err
			}
		}
		if err = markConsumed(ctx, repo, key); err != nil {
			return err
		}
		settlement = &Settlement{
			VAAKey:    key,
			Token:     payload.TargetToken,
			Recipient: payload.Recipient,
			Amount:    payload.TargetAmount,
		}
		return nil
	})
	return settlement, err
}

// Mint credits a local balance out of thin air. It funds accounts on chains
// where the bridge is the token's issuer and bootstraps test deployments.
func (b *Bridge) Mint(ctx context.Context, caller common.Address, token, owner common.Hash, amount uint64) error {
	if amount == 0 {
		return fmt.Errorf("%w: zero amount", ErrInvalidAmount)
	}
	err := b.atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		if _, err := authorize(ctx, repo, caller); err != nil {
			return err
		}
		err := repo.Balances.Credit(ctx, token, owner, amount)
		if errors.Is(err, db.ErrOverflow) {
			return fmt.Errorf("%w: balance of %s", ErrAmountOverflow, owner)
		}
		return err
	})
	if err != nil {
		return err
	}
	b.logger.WithFields(logrus.Fields{
		"token":  token,
		"owner":  owner,
		"amount": amount,
	}).Info("minted tokens")
	return nil
}

// FundVault credits the custody vault directly, it provides the liquidity
// released by transfers of tokens that were never locked on this chain.
func (b *Bridge) FundVault(ctx context.Context, caller common.Address, token common.Hash, amount uint64) error {
	if amount == 0 {
		return fmt.Errorf("%w: zero amount", ErrInvalidAmount)
	}
	err := b.atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		if _, err := authorize(ctx, repo, caller); err != nil {
			return err
		}
		err := repo.Vaults.Credit(ctx, token, amount)
		if errors.Is(err, db.ErrOverflow) {
			return fmt.Errorf("%w: custody vault of %s", ErrAmountOverflow, token)
		}
		return err
	})
	if err != nil {
		return err
	}
	b.logger.WithFields(logrus.Fields{
		"token":  token,
		"amount": amount,
	}).Info("funded custody vault")
	b.observeVault(ctx, token)
	return nil
}

func (b *Bridge) Vault(ctx context.Context, token common.Hash) (*entity.CustodyVault, error) {
	var vault *entity.CustodyVault
	err := b.view(ctx, func(ctx context.Context, repo *repository.Repo) (err error) {
		vault, err = repo.Vaults.Get(ctx, token)
		return err
	})
	return vault, err
}

func (b *Bridge) Balance(ctx context.Context, token, owner common.Hash) (*entity.Balance, error) {
	var balance *entity.Balance
	err := b.view(ctx, func(ctx context.Context, repo *repository.Repo) (err error) {
		balance, err = repo.Balances.Get(ctx, token, owner)
		return err
	})
	return balance, err
}

func (b *Bridge) observeVault(ctx context.Context, token common.Hash) {
	vault, err := b.Vault(ctx, token)
	if err != nil {
		b.logger.WithError(err).WithField("token", token).Warn("can't read custody vault")
		return
	}
	CustodyLocked.WithLabelValues(token.Hex()).Set(float64(vault.Amount))
}

package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/entity"
	"github.com/omni/vaa-bridge/repository"
)

func validateBindingKey(key entity.TokenBindingKey) error {
	if key.SourceChain == 0 || key.TargetChain == 0 {
		return fmt.Errorf("%w: zero chain id in binding %s", ErrInvalidTargetChain, key)
	}
	return nil
}

func (b *Bridge) newBinding(key entity.TokenBindingKey, num, denom uint64) (*entity.TokenBinding, error) {
	if denom == 0 {
		return nil, fmt.Errorf("%w: binding %s", ErrZeroDenominator, key)
	}
	now := b.now().UTC()
	return &entity.TokenBinding{
		TokenBindingKey: key,
		RateNumerator:   num,
		RateDenominator: denom,
		Enabled:         true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func createBinding(ctx context.Context, repo *repository.Repo, binding *entity.TokenBinding) error {
	err := repo.TokenBindings.Create(ctx, binding)
	if errors.Is(err, db.ErrAlreadyExists) {
		return fmt.Errorf("%w: %s", ErrTokenBindingExists, binding.TokenBindingKey)
	}
	return err
}

// RegisterUnidirectional creates an enabled binding for one direction with a 1/1 rate.
func (b *Bridge) RegisterUnidirectional(ctx context.Context, caller common.Address, key entity.TokenBindingKey) (*entity.TokenBinding, error) {
	if err := validateBindingKey(key); err != nil {
		return nil, err
	}
	binding, err := b.newBinding(key, 1, 1)
	if err != nil {
		return nil, err
	}
	err = b.atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		if _, err := authorize(ctx, repo, caller); err != nil {
			return err
		}
		return createBinding(ctx, repo, binding)
	})
	if err != nil {
		return nil, err
	}
	b.logger.WithField("binding", key.String()).Info("registered token binding")
	return binding, nil
}

// RegisterBidirectional creates the binding and its reverse in one unit of work,
// neither is created if the other one can't be.
func (b *Bridge) RegisterBidirectional(
	ctx context.Context,
	caller common.Address,
	key entity.TokenBindingKey,
	outboundNum, outboundDenom, inboundNum, inboundDenom uint64,
) (*entity.TokenBinding, *entity.TokenBinding, error) {
	if err := validateBindingKey(key); err != nil {
		return nil, nil, err
	}
	outbound, err := b.newBinding(key, outboundNum, outboundDenom)
	if err != nil {
		return nil, nil, err
	}
	inbound, err := b.newBinding(key.Reverse(), inboundNum, inboundDenom)
	if err != nil {
		return nil, nil, err
	}
	err = b.atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		if _, err := authorize(ctx, repo, caller); err != nil {
			return err
		}
		if err := createBinding(ctx, repo, outbound); err != nil {
			return err
		}
		return createBinding(ctx, repo, inbound)
	})
	if err != nil {
		return nil, nil, err
	}
	b.logger.WithFields(logrus.Fields{
		"binding": key.String(),
		"reverse": key.Reverse().String(),
	}).Info("registered bidirectional token binding")
	return outbound, inbound, nil
}

func (b *Bridge) updateBinding(ctx context.Context, caller common.Address, key entity.TokenBindingKey, mutate func(binding *entity.TokenBinding) error) (*entity.TokenBinding, error) {
	var res *entity.TokenBinding
	err := b.atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		if _, err := authorize(ctx, repo, caller); err != nil {
			return err
		}
		binding, err := getBinding(ctx, repo, key)
		if err != nil {
			return err
		}
		if err = mutate(binding); err != nil {
			return err
		}
		binding.UpdatedAt = b.now().UTC()
		if err = repo.TokenBindings.Update(ctx, binding); err != nil {
			return err
		}
		res = binding
		return nil
	})
	return res, err
}

func getBinding(ctx context.Context, repo *repository.Repo, key entity.TokenBindingKey) (*entity.TokenBinding, error) {
	binding, err := repo.TokenBindings.Get(ctx, key)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTokenBindingNotFound, key)
	}
	return binding, err
}

func (b *Bridge) SetExchangeRate(ctx context.Context, caller common.Address, key entity.TokenBindingKey, num, denom uint64) (*entity.TokenBinding, error) {
	if denom == 0 {
		return nil, fmt.Errorf("%w: binding %s", ErrZeroDenominator, key)
	}
	binding, err := b.updateBinding(ctx, caller, key, func(binding *entity.TokenBinding) error {
		binding.RateNumerator = num
		binding.RateDenominator = denom
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.logger.WithFields(logrus.Fields{
		"binding":          key.String(),
		"rate_numerator":   num,
		"rate_denominator": denom,
	}).Info("updated exchange rate")
	return binding, nil
}

func (b *Bridge) SetBindingEnabled(ctx context.Context, caller common.Address, key entity.TokenBindingKey, enabled bool) (*entity.TokenBinding, error) {
	binding, err := b.updateBinding(ctx, caller, key, func(binding *entity.TokenBinding) error {
		binding.Enabled = enabled
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.logger.WithFields(logrus.Fields{
		"binding": key.String(),
		"enabled": enabled,
	}).Info("updated token binding status")
	return binding, nil
}

// SetAmmConfig switches the binding between its stored rate and quotes of an external provider.
func (b *Bridge) SetAmmConfig(ctx context.Context, caller common.Address, key entity.TokenBindingKey, provider common.Address, useExternalPrice bool) (*entity.TokenBinding, error) {
	binding, err := b.updateBinding(ctx, caller, key, func(binding *entity.TokenBinding) error {
		if useExternalPrice && provider == (common.Address{}) {
			return fmt.Errorf("%w: external price requires a provider address", ErrPriceProvider)
		}
		binding.ExternalPriceProvider = provider
		binding.UseExternalPrice = useExternalPrice
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.logger.WithFields(logrus.Fields{
		"binding":            key.String(),
		"price_provider":     provider,
		"use_external_price": useExternalPrice,
	}).Info("updated amm config")
	return binding, nil
}

func (b *Bridge) TokenBinding(ctx context.Context, key entity.TokenBindingKey) (*entity.TokenBinding, error) {
	var binding *entity.TokenBinding
	err := b.view(ctx, func(ctx context.Context, repo *repository.Repo) (err error) {
		binding, err = getBinding(ctx, repo, key)
		return err
	})
	return binding, err
}

func (b *Bridge) TokenBindings(ctx context.Context) ([]*entity.TokenBinding, error) {
	var bindings []*entity.TokenBinding
	err := b.view(ctx, func(ctx context.Context, repo *repository.Repo) (err error) {
		bindings, err = repo.TokenBindings.FindAll(ctx)
		return err
	})
	return bindings, err
}

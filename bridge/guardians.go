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
	"github.com/omni/vaa-bridge/vaa"
)

func getGuardianSet(ctx context.Context, repo *repository.Repo, index uint32) (*entity.GuardianSet, error) {
	set, err := repo.GuardianSets.GetByIndex(ctx, index)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: guardian set %d", ErrNotFound, index)
	}
	return set, err
}

func (b *Bridge) GuardianSet(ctx context.Context, index uint32) (*entity.GuardianSet, error) {
	var set *entity.GuardianSet
	err := b.view(ctx, func(ctx context.Context, repo *repository.Repo) (err error) {
		set, err = getGuardianSet(ctx, repo, index)
		return err
	})
	return set, err
}

func (b *Bridge) CurrentGuardianSet(ctx context.Context) (*entity.GuardianSet, error) {
	var set *entity.GuardianSet
	err := b.view(ctx, func(ctx context.Context, repo *repository.Repo) error {
		state, err := loadState(ctx, repo)
		if err != nil {
			return err
		}
		set, err = getGuardianSet(ctx, repo, state.ActiveGuardianSetIndex)
		return err
	})
	return set, err
}

func (b *Bridge) GuardianSets(ctx context.Context) ([]*entity.GuardianSet, error) {
	var sets []*entity.GuardianSet
	err := b.view(ctx, func(ctx context.Context, repo *repository.Repo) (err error) {
		sets, err = repo.GuardianSets.FindAll(ctx)
		return err
	})
	return sets, err
}

// IsValidForVerification reports whether signatures of the set are acceptable
// now: the set exists and is either active or still inside its transition window.
func (b *Bridge) IsValidForVerification(ctx context.Context, index uint32) (bool, error) {
	set, err := b.GuardianSet(ctx, index)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return set.ValidAt(b.now()), nil
}

// UpgradeGuardianSet applies a posted governance VAA that rotates the guardian set.
// The old set keeps verifying for the configured expiry window.
func (b *Bridge) UpgradeGuardianSet(ctx context.Context, key entity.VAAKey) (*entity.GuardianSet, error) {
	var newSet *entity.GuardianSet
	var oldIndex uint32
	err := b.atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		posted, err := getUnconsumedVAA(ctx, repo, key)
		if err != nil {
			return err
		}
		gov := b.cfg.Governance
		if posted.EmitterChain != gov.ChainID || posted.EmitterAddress != gov.Emitter {
			return fmt.Errorf("%w: vaa %s is not from the governance emitter", ErrInvalidGovernancePayload, key)
		}
		state, err := loadState(ctx, repo)
		if err != nil {
			return err
		}
		if posted.GuardianSetIndex != state.ActiveGuardianSetIndex {
			return fmt.Errorf("%w: upgrade signed by set %d, active set is %d", ErrInvalidGuardianSet, posted.GuardianSetIndex, state.ActiveGuardianSetIndex)
		}
		upgrade, err := vaa.ParseGuardianSetUpgrade(posted.Payload)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidGovernancePayload, err)
		}
		if upgrade.TargetChain != 0 && uint16(upgrade.TargetChain) != b.cfg.ChainID {
			return fmt.Errorf("%w: upgrade targets chain %d", ErrInvalidGovernancePayload, upgrade.TargetChain)
		}
		if upgrade.NewIndex != state.ActiveGuardianSetIndex+1 {
			return fmt.Errorf("%w: new index %d must follow active index %d", ErrInvalidGovernancePayload, upgrade.NewIndex, state.ActiveGuardianSetIndex)
		}
		if err = validateGuardianKeys(upgrade.Keys); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidGovernancePayload, err)
		}

		now := b.now().UTC()
		oldIndex = state.ActiveGuardianSetIndex
		if err = repo.GuardianSets.SetExpiration(ctx, oldIndex, now.Add(b.cfg.GuardianSetExpiry)); err != nil {
			return err
		}
		newSet = &entity.GuardianSet{
			Index:        upgrade.NewIndex,
			Keys:         append([]common.Address{}, upgrade.Keys...),
			CreationTime: now,
		}
		if err = repo.GuardianSets.Create(ctx, newSet); err != nil {
			return err
		}
		state.ActiveGuardianSetIndex = upgrade.NewIndex
		if err = repo.BridgeState.Update(ctx, state); err != nil {
			return err
		}
		return markConsumed(ctx, repo, key)
	})
	if err != nil {
		return nil, err
	}
	ActiveGuardianSetIndex.Set(float64(newSet.Index))
	b.logger.WithFields(logrus.Fields{
		"old_index": oldIndex,
		"new_index": newSet.Index,
		"guardians": len(newSet.Keys),
		"vaa":       key.String(),
	}).Info("upgraded guardian set")
	return newSet, nil
}

package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/entity"
	"github.com/omni/vaa-bridge/repository"
	"github.com/omni/vaa-bridge/vaa"
)

// PostVAA verifies a signed VAA against the guardian set it names and records it.
// The (emitter chain, emitter address, sequence) key can be recorded only once.
func (b *Bridge) PostVAA(ctx context.Context, raw []byte) (*entity.PostedVAA, error) {
	posted, err := b.postVAA(ctx, raw)
	VAAsPosted.WithLabelValues(ErrorCode(err)).Inc()
	if err != nil {
		return nil, err
	}
	b.logger.WithFields(logrus.Fields{
		"emitter_chain":      posted.EmitterChain,
		"emitter_address":    posted.EmitterAddress,
		"sequence":           posted.Sequence,
		"guardian_set_index": posted.GuardianSetIndex,
	}).Info("posted vaa")
	return posted, nil
}

func (b *Bridge) postVAA(ctx context.Context, raw []byte) (*entity.PostedVAA, error) {
	v, err := vaa.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidVaa, err)
	}
	digest := v.SigningDigest()
	record := &entity.PostedVAA{
		VAAKey: entity.VAAKey{
			EmitterChain:   uint16(v.EmitterChain),
			EmitterAddress: v.EmitterAddress,
			Sequence:       v.Sequence,
		},
		Version:          v.Version,
		GuardianSetIndex: v.GuardianSetIndex,
		Timestamp:        v.Timestamp,
		Nonce:            v.Nonce,
		ConsistencyLevel: v.ConsistencyLevel,
		Payload:          v.Payload,
		Digest:           digest,
	}

	err = b.atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		set, err := repo.GuardianSets.GetByIndex(ctx, v.GuardianSetIndex)
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: guardian set %d does not exist", ErrInvalidGuardianSet, v.GuardianSetIndex)
		}
		if err != nil {
			return err
		}
		now := b.now()
		if b.cfg.Policy.ShouldEnforceGuardianSetExpiry() && !set.ValidAt(now) {
			return fmt.Errorf("%w: guardian set %d expired at %s", ErrGuardianSetExpired, set.Index, set.ExpirationTime)
		}
		if maxAge := b.cfg.Policy.MaxVAAAge; maxAge > 0 {
			if age := now.Sub(v.Timestamp); age > maxAge || -age > maxAge {
				return fmt.Errorf("%w: vaa timestamp %s is %s away from now", ErrStaleVaa, v.Timestamp, age)
			}
		}
		if err = b.verifier.VerifySignatures(digest, v.Signatures, set.Keys); err != nil {
			return err
		}
		err = repo.PostedVAAs.Create(ctx, record)
		if errors.Is(err, db.ErrAlreadyExists) {
			return fmt.Errorf("%w: %s", ErrVaaAlreadyPosted, record.VAAKey)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (b *Bridge) PostedVAA(ctx context.Context, key entity.VAAKey) (*entity.PostedVAA, error) {
	var posted *entity.PostedVAA
	err := b.view(ctx, func(ctx context.Context, repo *repository.Repo) error {
		var err error
		posted, err = repo.PostedVAAs.Get(ctx, key)
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrVaaNotPosted, key)
		}
		return err
	})
	return posted, err
}

func getUnconsumedVAA(ctx context.Context, repo *repository.Repo, key entity.VAAKey) (*entity.PostedVAA, error) {
	posted, err := repo.PostedVAAs.Get(ctx, key)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrVaaNotPosted, key)
	}
	if err != nil {
		return nil, err
	}
	if posted.Consumed {
		return nil, fmt.Errorf("%w: %s", ErrVaaAlreadyConsumed, key)
	}
	return posted, nil
}

func markConsumed(ctx context.Context, repo *repository.Repo, key entity.VAAKey) error {
	err := repo.PostedVAAs.MarkConsumed(ctx, key)
	if errors.Is(err, db.ErrAlreadyConsumed) {
		return fmt.Errorf("%w: %s", ErrVaaAlreadyConsumed, key)
	}
	return err
}

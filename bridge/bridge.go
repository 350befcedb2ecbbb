// Package bridge implements the verification and settlement protocol: the
// guardian set store, the message bus, VAA posting with replay protection,
// the token binding registry, custody and settlement, and governance.
//
// Every operation runs as a single unit of work on a repository.Ledger and
// either commits all of its writes or none of them.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/vaa-bridge/config"
	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/entity"
	"github.com/omni/vaa-bridge/logging"
	"github.com/omni/vaa-bridge/price"
	"github.com/omni/vaa-bridge/repository"
	"github.com/omni/vaa-bridge/vaa"
)

const signerCacheSize = 4096

type Bridge struct {
	cfg      *config.BridgeConfig
	logger   logging.Logger
	ledger   repository.Ledger
	verifier *vaa.Verifier
	prices   price.Provider
	now      func() time.Time
}

type Option func(*Bridge)

func WithClock(now func() time.Time) Option {
	return func(b *Bridge) {
		b.now = now
	}
}

func WithPriceProvider(p price.Provider) Option {
	return func(b *Bridge) {
		b.prices = p
	}
}

func NewBridge(logger logging.Logger, ledger repository.Ledger, cfg *config.BridgeConfig, opts ...Option) (*Bridge, error) {
	verifier, err := vaa.NewVerifier(signerCacheSize)
	if err != nil {
		return nil, err
	}
	b := &Bridge{
		cfg:      cfg,
		logger:   logger.WithField("chain_id", cfg.ChainID),
		ledger:   ledger,
		verifier: verifier,
		prices:   price.Unavailable{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Bridge) ChainID() uint16 {
	return b.cfg.ChainID
}

// TokenBridgeEmitter is the emitter address transfer messages of this chain are published under.
func (b *Bridge) TokenBridgeEmitter() common.Hash {
	emitter, _ := b.tokenBridgeOrigin().Emitter()
	return emitter
}

func (b *Bridge) tokenBridgeOrigin() ProgramOrigin {
	return ProgramOrigin{Program: ProgramID(b.cfg.ChainID), Seed: b.cfg.TokenBridgeEmitterSeed}
}

// atomic runs fn as one unit of work. Serialization conflicts that survive the
// ledger's own retries are reported as ErrConflict.
func (b *Bridge) atomic(ctx context.Context, fn func(ctx context.Context, repo *repository.Repo) error) error {
	err := b.ledger.Atomic(ctx, fn)
	if errors.Is(err, db.ErrConflict) {
		return fmt.Errorf("%w: %s", ErrConflict, err)
	}
	return err
}

func (b *Bridge) view(ctx context.Context, fn func(ctx context.Context, repo *repository.Repo) error) error {
	return b.ledger.View(ctx, fn)
}

func loadState(ctx context.Context, repo *repository.Repo) (*entity.BridgeState, error) {
	state, err := repo.BridgeState.Get(ctx)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// authorize must precede any write of an admin operation.
func authorize(ctx context.Context, repo *repository.Repo, caller common.Address) (*entity.BridgeState, error) {
	state, err := loadState(ctx, repo)
	if err != nil {
		return nil, err
	}
	if caller != state.Authority {
		return nil, fmt.Errorf("%w: %s is not the bridge authority", ErrUnauthorized, caller)
	}
	return state, nil
}

func validateGuardianKeys(keys []common.Address) error {
	if len(keys) == 0 {
		return errors.New("empty guardian set")
	}
	if len(keys) > vaa.MaxSignatures {
		return fmt.Errorf("%d guardians exceed the maximum of %d", len(keys), vaa.MaxSignatures)
	}
	seen := make(map[common.Address]bool, len(keys))
	for i, key := range keys {
		if key == (common.Address{}) {
			return fmt.Errorf("guardian %d has zero address", i)
		}
		if seen[key] {
			return fmt.Errorf("guardian %s is listed twice", key)
		}
		seen[key] = true
	}
	return nil
}

// Initialize creates the bridge state and guardian set 0. It can succeed only once.
func (b *Bridge) Initialize(ctx context.Context, authority common.Address, guardians []common.Address, messageFee uint64) error {
	if err := validateGuardianKeys(guardians); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidGuardianSet, err)
	}
	err := b.atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		_, err := repo.BridgeState.Get(ctx)
		if err == nil {
			return ErrAlreadyInitialized
		}
		if !errors.Is(err, db.ErrNotFound) {
			return err
		}
		err = repo.BridgeState.Create(ctx, &entity.BridgeState{
			ActiveGuardianSetIndex: 0,
			MessageFee:             messageFee,
			Authority:              authority,
		})
		if errors.Is(err, db.ErrAlreadyExists) {
			return ErrAlreadyInitialized
		}
		if err != nil {
			return err
		}
		return repo.GuardianSets.Create(ctx, &entity.GuardianSet{
			Index:        0,
			Keys:         guardians,
			CreationTime: b.now().UTC(),
		})
	})
	if err != nil {
		return err
	}
	ActiveGuardianSetIndex.Set(0)
	b.logger.WithFields(logrus.Fields{
		"authority": authority,
		"guardians": len(guardians),
	}).Info("initialized bridge")
	return nil
}

// InitializeFromConfig initializes the bridge from the configured authority and
// initial guardian set, an already initialized bridge is left untouched.
func (b *Bridge) InitializeFromConfig(ctx context.Context) error {
	if len(b.cfg.InitialGuardianSet) == 0 {
		return nil
	}
	err := b.Initialize(ctx, b.cfg.Authority, b.cfg.InitialGuardianSet, b.cfg.MessageFee)
	if errors.Is(err, ErrAlreadyInitialized) {
		b.logger.Debug("bridge is already initialized")
		return b.refreshGauges(ctx)
	}
	return err
}

func (b *Bridge) refreshGauges(ctx context.Context) error {
	return b.view(ctx, func(ctx context.Context, repo *repository.Repo) error {
		state, err := loadState(ctx, repo)
		if err != nil {
			return err
		}
		ActiveGuardianSetIndex.Set(float64(state.ActiveGuardianSetIndex))
		return nil
	})
}

func (b *Bridge) State(ctx context.Context) (*entity.BridgeState, error) {
	var state *entity.BridgeState
	err := b.view(ctx, func(ctx context.Context, repo *repository.Repo) (err error) {
		state, err = loadState(ctx, repo)
		return err
	})
	return state, err
}

func (b *Bridge) updateState(ctx context.Context, caller common.Address, mutate func(state *entity.BridgeState)) error {
	return b.atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		state, err := authorize(ctx, repo, caller)
		if err != nil {
			return err
		}
		mutate(state)
		return repo.BridgeState.Update(ctx, state)
	})
}

func (b *Bridge) SetPaused(ctx context.Context, caller common.Address, paused bool) error {
	err := b.updateState(ctx, caller, func(state *entity.BridgeState) {
		state.Paused = paused
	})
	if err != nil {
		return err
	}
	b.logger.WithField("paused", paused).Info("updated bridge pause flag")
	return nil
}

func (b *Bridge) SetMessageFee(ctx context.Context, caller common.Address, fee uint64) error {
	err := b.updateState(ctx, caller, func(state *entity.BridgeState) {
		state.MessageFee = fee
	})
	if err != nil {
		return err
	}
	b.logger.WithField("message_fee", fee).Info("updated message fee")
	return nil
}

// RegisterEmitter trusts address as the token bridge emitter of a foreign chain.
func (b *Bridge) RegisterEmitter(ctx context.Context, caller common.Address, chain uint16, address common.Hash) error {
	err := b.atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		if _, err := authorize(ctx, repo, caller); err != nil {
			return err
		}
		if chain == 0 || chain == b.cfg.ChainID {
			return fmt.Errorf("%w: chain %d can't have a foreign emitter", ErrInvalidEmitter, chain)
		}
		if address == (common.Hash{}) {
			return fmt.Errorf("%w: zero emitter address", ErrInvalidEmitter)
		}
		err := repo.Emitters.Create(ctx, &entity.RegisteredEmitter{Chain: chain, Address: address})
		if errors.Is(err, db.ErrAlreadyExists) {
			return fmt.Errorf("%w: chain %d", ErrEmitterExists, chain)
		}
		return err
	})
	if err != nil {
		return err
	}
	b.logger.WithFields(logrus.Fields{
		"emitter_chain":   chain,
		"emitter_address": address,
	}).Info("registered foreign emitter")
	return nil
}

func (b *Bridge) RegisteredEmitters(ctx context.Context) ([]*entity.RegisteredEmitter, error) {
	var res []*entity.RegisteredEmitter
	err := b.view(ctx, func(ctx context.Context, repo *repository.Repo) (err error) {
		res, err = repo.Emitters.FindAll(ctx)
		return err
	})
	return res, err
}

package bridge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/entity"
	"github.com/omni/vaa-bridge/repository"
)

const DefaultMessagesLimit = 100

type PublishRequest struct {
	Origin           Origin
	Nonce            uint32
	Payload          []byte
	ConsistencyLevel uint8
	Fee              uint64
}

// Publish records a message for guardians to observe and returns the sequence
// assigned to it. Sequences of an emitter start at 0 and are never reused.
func (b *Bridge) Publish(ctx context.Context, req *PublishRequest) (uint64, error) {
	if req.Origin == nil {
		return 0, fmt.Errorf("%w: missing origin", ErrInvalidEmitter)
	}
	emitter, err := req.Origin.Emitter()
	if err != nil {
		return 0, err
	}
	var seq uint64
	err = b.atomic(ctx, func(ctx context.Context, repo *repository.Repo) (err error) {
		seq, err = b.publish(ctx, repo, emitter, req)
		return err
	})
	if err != nil {
		return 0, err
	}
	MessagesPublished.Inc()
	b.logger.WithFields(logrus.Fields{
		"emitter_address": emitter,
		"sequence":        seq,
		"payload_size":    len(req.Payload),
	}).Info("published message")
	return seq, nil
}

func (b *Bridge) publish(ctx context.Context, repo *repository.Repo, emitter common.Hash, req *PublishRequest) (uint64, error) {
	state, err := loadState(ctx, repo)
	if err != nil {
		return 0, err
	}
	if state.Paused {
		return 0, ErrBridgePaused
	}
	if req.Fee < state.MessageFee {
		return 0, fmt.Errorf("%w: paid %d, required %d", ErrInsufficientFee, req.Fee, state.MessageFee)
	}
	if len(req.Payload) > b.cfg.MaxPayloadSize {
		return 0, fmt.Errorf("%w: %d bytes exceed the limit of %d", ErrPayloadTooLarge, len(req.Payload), b.cfg.MaxPayloadSize)
	}

	seq, err := repo.Sequences.Next(ctx, emitter)
	if errors.Is(err, db.ErrOverflow) {
		return 0, fmt.Errorf("%w: sequence of emitter %s exhausted", ErrAmountOverflow, emitter)
	}
	if err != nil {
		return 0, err
	}
	err = repo.Messages.Create(ctx, &entity.PublishedMessage{
		EmitterAddress:   emitter,
		Sequence:         seq,
		Nonce:            req.Nonce,
		Payload:          req.Payload,
		ConsistencyLevel: req.ConsistencyLevel,
		Timestamp:        b.now().UTC().Truncate(time.Second),
	})
	if err != nil {
		return 0, err
	}
	if req.Fee > 0 {
		if state.CollectedFees > math.MaxUint64-req.Fee {
			return 0, fmt.Errorf("%w: collected fees", ErrAmountOverflow)
		}
		state.CollectedFees += req.Fee
		if err = repo.BridgeState.Update(ctx, state); err != nil {
			return 0, err
		}
	}
	return seq, nil
}

func (b *Bridge) Message(ctx context.Context, emitter common.Hash, sequence uint64) (*entity.PublishedMessage, error) {
	var msg *entity.PublishedMessage
	err := b.view(ctx, func(ctx context.Context, repo *repository.Repo) error {
		var err error
		msg, err = repo.Messages.Get(ctx, emitter, sequence)
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: message %s/%d", ErrNotFound, emitter, sequence)
		}
		return err
	})
	return msg, err
}

// Messages lists messages of the emitter in sequence order starting at fromSequence.
func (b *Bridge) Messages(ctx context.Context, emitter common.Hash, fromSequence, limit uint64) ([]*entity.PublishedMessage, error) {
	if limit == 0 || limit > DefaultMessagesLimit {
		limit = DefaultMessagesLimit
	}
	var msgs []*entity.PublishedMessage
	err := b.view(ctx, func(ctx context.Context, repo *repository.Repo) (err error) {
		msgs, err = repo.Messages.FindByEmitter(ctx, emitter, fromSequence, limit)
		return err
	})
	return msgs, err
}

// NextSequence returns the sequence the emitter's next message would be assigned.
func (b *Bridge) NextSequence(ctx context.Context, emitter common.Hash) (uint64, error) {
	var seq uint64
	err := b.view(ctx, func(ctx context.Context, repo *repository.Repo) (err error) {
		seq, err = repo.Sequences.Peek(ctx, emitter)
		return err
	})
	return seq, err
}

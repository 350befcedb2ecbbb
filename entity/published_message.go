package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type PublishedMessage struct {
	EmitterAddress   common.Hash `db:"emitter_address"`
	Sequence         uint64      `db:"sequence"`
	Nonce            uint32      `db:"nonce"`
	Payload          []byte      `db:"payload"`
	ConsistencyLevel uint8       `db:"consistency_level"`
	Timestamp        time.Time   `db:"timestamp"`
	CreatedAt        *time.Time  `db:"created_at"`
}

type MessageSequencesRepo interface {
	// Next returns the sequence to assign to the emitter's next message and
	// advances the counter.
	Next(ctx context.Context, emitter common.Hash) (uint64, error)
	// Peek returns the sequence the next publish would receive.
	Peek(ctx context.Context, emitter common.Hash) (uint64, error)
}

type PublishedMessagesRepo interface {
	Create(ctx context.Context, msg *PublishedMessage) error
	Get(ctx context.Context, emitter common.Hash, sequence uint64) (*PublishedMessage, error)
	FindByEmitter(ctx context.Context, emitter common.Hash, fromSequence uint64, limit uint64) ([]*PublishedMessage, error)
}

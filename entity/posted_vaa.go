package entity

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// VAAKey is the replay-protection identity of a posted VAA.
type VAAKey struct {
	EmitterChain   uint16      `db:"emitter_chain" json:"emitterChain"`
	EmitterAddress common.Hash `db:"emitter_address" json:"emitterAddress"`
	Sequence       uint64      `db:"sequence" json:"sequence,string"`
}

func (k VAAKey) String() string {
	return fmt.Sprintf("%d/%s/%d", k.EmitterChain, k.EmitterAddress.Hex(), k.Sequence)
}

type PostedVAA struct {
	VAAKey
	Version          uint8       `db:"version"`
	GuardianSetIndex uint32      `db:"guardian_set_index"`
	Timestamp        time.Time   `db:"timestamp"`
	Nonce            uint32      `db:"nonce"`
	ConsistencyLevel uint8       `db:"consistency_level"`
	Payload          []byte      `db:"payload"`
	Digest           common.Hash `db:"digest"`
	Consumed         bool        `db:"consumed"`
	CreatedAt        *time.Time  `db:"created_at"`
	UpdatedAt        *time.Time  `db:"updated_at"`
}

type PostedVAAsRepo interface {
	// Create fails with db.ErrAlreadyExists if a VAA with the same key was already posted.
	Create(ctx context.Context, vaa *PostedVAA) error
	Get(ctx context.Context, key VAAKey) (*PostedVAA, error)
	// MarkConsumed fails with db.ErrAlreadyConsumed if the VAA was consumed before.
	MarkConsumed(ctx context.Context, key VAAKey) error
	FindUnconsumed(ctx context.Context, postedBefore time.Time, limit uint64) ([]*PostedVAA, error)
}

package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RegisteredEmitter is the token bridge emitter trusted for a foreign chain.
type RegisteredEmitter struct {
	Chain     uint16      `db:"chain"`
	Address   common.Hash `db:"address"`
	CreatedAt *time.Time  `db:"created_at"`
}

type RegisteredEmittersRepo interface {
	Create(ctx context.Context, emitter *RegisteredEmitter) error
	GetByChain(ctx context.Context, chain uint16) (*RegisteredEmitter, error)
	FindAll(ctx context.Context) ([]*RegisteredEmitter, error)
}

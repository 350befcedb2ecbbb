package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type BridgeState struct {
	ActiveGuardianSetIndex uint32         `db:"active_guardian_set_index"`
	MessageFee             uint64         `db:"message_fee"`
	CollectedFees          uint64         `db:"collected_fees"`
	Paused                 bool           `db:"paused"`
	Authority              common.Address `db:"authority"`
	CreatedAt              *time.Time     `db:"created_at"`
	UpdatedAt              *time.Time     `db:"updated_at"`
}

type BridgeStateRepo interface {
	Create(ctx context.Context, state *BridgeState) error
	Get(ctx context.Context) (*BridgeState, error)
	Update(ctx context.Context, state *BridgeState) error
}

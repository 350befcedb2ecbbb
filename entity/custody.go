package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type CustodyVault struct {
	Token     common.Hash `db:"token"`
	Amount    uint64      `db:"amount"`
	UpdatedAt *time.Time  `db:"updated_at"`
}

type Balance struct {
	Token     common.Hash `db:"token"`
	Owner     common.Hash `db:"owner"`
	Amount    uint64      `db:"amount"`
	UpdatedAt *time.Time  `db:"updated_at"`
}

// CustodyVaultsRepo returns a zero vault for tokens never locked.
// Debit fails with db.ErrInsufficientFunds, Credit with db.ErrOverflow.
type CustodyVaultsRepo interface {
	Get(ctx context.Context, token common.Hash) (*CustodyVault, error)
	Credit(ctx context.Context, token common.Hash, amount uint64) error
	Debit(ctx context.Context, token common.Hash, amount uint64) error
}

type BalancesRepo interface {
	Get(ctx context.Context, token, owner common.Hash) (*Balance, error)
	Credit(ctx context.Context, token, owner common.Hash, amount uint64) error
	Debit(ctx context.Context, token, owner common.Hash, amount uint64) error
}

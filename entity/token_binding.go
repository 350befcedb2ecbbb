package entity

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type TokenBindingKey struct {
	SourceChain uint16      `db:"source_chain" json:"sourceChain"`
	SourceToken common.Hash `db:"source_token" json:"sourceToken"`
	TargetChain uint16      `db:"target_chain" json:"targetChain"`
	TargetToken common.Hash `db:"target_token" json:"targetToken"`
}

func (k TokenBindingKey) String() string {
	return fmt.Sprintf("%d:%s->%d:%s", k.SourceChain, k.SourceToken.Hex(), k.TargetChain, k.TargetToken.Hex())
}

// Reverse returns the key of the binding for the opposite direction.
func (k TokenBindingKey) Reverse() TokenBindingKey {
	return TokenBindingKey{
		SourceChain: k.TargetChain,
		SourceToken: k.TargetToken,
		TargetChain: k.SourceChain,
		TargetToken: k.SourceToken,
	}
}

type TokenBinding struct {
	TokenBindingKey
	RateNumerator         uint64         `db:"rate_numerator"`
	RateDenominator       uint64         `db:"rate_denominator"`
	Enabled               bool           `db:"enabled"`
	UseExternalPrice      bool           `db:"use_external_price"`
	ExternalPriceProvider common.Address `db:"external_price_provider"`
	CreatedAt             time.Time      `db:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at"`
}

type TokenBindingsRepo interface {
	Create(ctx context.Context, binding *TokenBinding) error
	Get(ctx context.Context, key TokenBindingKey) (*TokenBinding, error)
	Update(ctx context.Context, binding *TokenBinding) error
	FindBySource(ctx context.Context, sourceChain uint16, sourceToken common.Hash, targetChain uint16) ([]*TokenBinding, error)
	FindAll(ctx context.Context) ([]*TokenBinding, error)
}

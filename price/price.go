// Package price supplies exchange rates for token bindings that defer to an
// external price source instead of the rate stored with the binding.
package price

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/vaa-bridge/entity"
)

var (
	ErrUnavailable  = errors.New("price provider unavailable")
	ErrInvalidQuote = errors.New("invalid price quote")
)

type Quote struct {
	Numerator   uint64
	Denominator uint64
}

func (q *Quote) Validate() error {
	if q.Denominator == 0 {
		return fmt.Errorf("%w: zero denominator", ErrInvalidQuote)
	}
	return nil
}

// Provider returns the rate quoted by the provider contract for the binding.
type Provider interface {
	Quote(ctx context.Context, provider common.Address, key entity.TokenBindingKey) (*Quote, error)
}

// Unavailable fails every request, it serves deployments without a price oracle.
type Unavailable struct{}

func (Unavailable) Quote(_ context.Context, provider common.Address, key entity.TokenBindingKey) (*Quote, error) {
	return nil, fmt.Errorf("%w: no oracle configured for provider %s, binding %s", ErrUnavailable, provider, key)
}

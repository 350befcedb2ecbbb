package price

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/vaa-bridge/contract"
	"github.com/omni/vaa-bridge/entity"
	"github.com/omni/vaa-bridge/ethclient"
	"github.com/omni/vaa-bridge/logging"
)

// OracleProvider reads rates from price oracle contracts on an EVM chain.
// The provider address of a binding is the oracle contract address.
type OracleProvider struct {
	logger logging.Logger
	client ethclient.Client
}

func NewOracleProvider(logger logging.Logger, client ethclient.Client) *OracleProvider {
	return &OracleProvider{
		logger: logger,
		client: client,
	}
}

func (p *OracleProvider) Quote(ctx context.Context, provider common.Address, key entity.TokenBindingKey) (*Quote, error) {
	if provider == (common.Address{}) {
		return nil, fmt.Errorf("%w: binding %s has no provider", ErrUnavailable, key)
	}
	oracle := contract.NewPriceOracleContract(p.client, provider)
	num, denom, err := oracle.GetRate(ctx, key.SourceChain, key.SourceToken, key.TargetChain, key.TargetToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	quote := &Quote{Numerator: num, Denominator: denom}
	if err = quote.Validate(); err != nil {
		return nil, err
	}
	p.logger.WithFields(logrus.Fields{
		"provider":    provider,
		"binding":     key.String(),
		"numerator":   num,
		"denominator": denom,
	}).Debug("received external price quote")
	return quote, nil
}

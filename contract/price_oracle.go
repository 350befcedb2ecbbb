package contract

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/vaa-bridge/contract/abi"
	"github.com/omni/vaa-bridge/ethclient"
)

type PriceOracleContract struct {
	*Contract
}

func NewPriceOracleContract(client ethclient.Client, addr common.Address) *PriceOracleContract {
	return &PriceOracleContract{NewContract(client, addr, abi.PriceOracleABI)}
}

// GetRate returns the numerator and denominator the oracle currently quotes
// for converting sourceToken on sourceChain into targetToken on targetChain.
func (c *PriceOracleContract) GetRate(ctx context.Context, sourceChain uint16, sourceToken common.Hash, targetChain uint16, targetToken common.Hash) (uint64, uint64, error) {
	res, err := c.Call(ctx, abi.GetRate, sourceChain, sourceToken, targetChain, targetToken)
	if err != nil {
		return 0, 0, fmt.Errorf("cannot obtain rate from oracle %s: %w", c.Address(), err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("unexpected number of %s outputs: %d", abi.GetRate, len(res))
	}
	num, ok1 := res[0].(uint64)
	denom, ok2 := res[1].(uint64)
	if !ok1 || !ok2 {
		return 0, 0, fmt.Errorf("unexpected %s output types %T, %T", abi.GetRate, res[0], res[1])
	}
	return num, denom, nil
}

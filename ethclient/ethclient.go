package ethclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

var ErrIncompatibleChainID = errors.New("rpc url returned incompatible chainID")

// Client is the read-only JSON-RPC surface used for oracle calls.
type Client interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	Close()
}

type rpcClient struct {
	chainID string
	url     string
	timeout time.Duration
	client  *ethclient.Client
}

func NewClient(url string, timeout time.Duration, chainID string) (Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	rawClient, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("can't dial JSON rpc url: %w", err)
	}
	client := &rpcClient{
		chainID: chainID,
		url:     url,
		timeout: timeout,
		client:  ethclient.NewClient(rawClient),
	}
	rpcChainID, err := client.client.ChainID(ctx)
	if err != nil {
		rawClient.Close()
		return nil, fmt.Errorf("can't get chainID: %w", err)
	}
	if rpcChainID.String() != chainID {
		rawClient.Close()
		return nil, fmt.Errorf("received chainID %s != expected %s: %w", rpcChainID, chainID, ErrIncompatibleChainID)
	}
	return client, nil
}

func (c *rpcClient) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	defer ObserveDuration(c.chainID, c.url, "eth_call")()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.client.CallContract(ctx, msg, nil)
	ObserveError(c.chainID, c.url, "eth_call", err)
	return res, err
}

func (c *rpcClient) Close() {
	c.client.Close()
}

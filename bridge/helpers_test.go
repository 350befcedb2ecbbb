package bridge_test

import (
	"context"
	"crypto/ecdsa"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/omni/vaa-bridge/bridge"
	"github.com/omni/vaa-bridge/config"
	"github.com/omni/vaa-bridge/entity"
	"github.com/omni/vaa-bridge/price"
	"github.com/omni/vaa-bridge/repository"
	"github.com/omni/vaa-bridge/repository/memory"
	"github.com/omni/vaa-bridge/vaa"
	"github.com/omni/vaa-bridge/vaa/vaatest"
)

const (
	chainA       uint16 = 2
	chainB       uint16 = 4
	numGuardians        = 19
	quorum              = 13
)

var (
	ctx = context.Background()

	authority = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	stranger  = common.HexToAddress("0x0000000000000000000000000000000000000bad")
	oracle    = common.HexToAddress("0x000000000000000000000000000000000000f00d")
	tokenA    = common.HexToHash("0xaa")
	tokenB    = common.HexToHash("0xbb")
	payer     = common.HexToHash("0x01")
	recipient = common.HexToHash("0x02")
	genesis   = time.Unix(1_700_000_000, 0).UTC()
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testBridge struct {
	*bridge.Bridge
	clock *clock
	keys  []*ecdsa.PrivateKey
}

func newTestConfig(chainID uint16) *config.BridgeConfig {
	return &config.BridgeConfig{
		ChainID:           chainID,
		Authority:         authority,
		MaxPayloadSize:    1024,
		GuardianSetExpiry: 24 * time.Hour,
		Governance: &config.GovernanceConfig{
			ChainID: config.DefaultGovernanceChainID,
			Emitter: config.DefaultGovernanceEmitter,
		},
		TokenBridgeEmitterSeed: "token_bridge",
		Policy:                 &config.PolicyConfig{},
	}
}

func setupBridge(t *testing.T, cfg *config.BridgeConfig, opts ...bridge.Option) *testBridge {
	t.Helper()
	return setupBridgeOn(t, func(now func() time.Time) repository.Ledger {
		return memory.NewLedger(memory.WithClock(now))
	}, cfg, opts...)
}

func setupBridgeOn(t *testing.T, newLedger func(now func() time.Time) repository.Ledger, cfg *config.BridgeConfig, opts ...bridge.Option) *testBridge {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	clk := &clock{now: genesis}
	opts = append([]bridge.Option{bridge.WithClock(clk.Now)}, opts...)
	b, err := bridge.NewBridge(logger, newLedger(clk.Now), cfg, opts...)
	require.NoError(t, err)
	return &testBridge{
		Bridge: b,
		clock:  clk,
		keys:   vaatest.GuardianKeys(t, 1, numGuardians),
	}
}

func newTestBridge(t *testing.T, cfg *config.BridgeConfig, opts ...bridge.Option) *testBridge {
	t.Helper()
	tb := setupBridge(t, cfg, opts...)
	require.NoError(t, tb.Initialize(ctx, authority, vaatest.Addresses(tb.keys), 0))
	return tb
}

// signMessage turns a message published on tb into a VAA signed by the given guardians.
func (tb *testBridge) signMessage(t *testing.T, msg *entity.PublishedMessage, setIndex uint32, keys []*ecdsa.PrivateKey, signers []int) []byte {
	t.Helper()
	body := vaa.Body{
		Timestamp:        msg.Timestamp,
		Nonce:            msg.Nonce,
		EmitterChain:     vaa.ChainID(tb.ChainID()),
		EmitterAddress:   msg.EmitterAddress,
		Sequence:         msg.Sequence,
		ConsistencyLevel: msg.ConsistencyLevel,
		Payload:          msg.Payload,
	}
	return vaatest.SignBytes(t, body, setIndex, keys, signers)
}

// post signs the body with a quorum of tb's initial guardians and posts it.
func (tb *testBridge) post(t *testing.T, body vaa.Body) entity.VAAKey {
	t.Helper()
	posted, err := tb.PostVAA(ctx, vaatest.SignBytes(t, body, 0, tb.keys, vaatest.Range(0, quorum)))
	require.NoError(t, err)
	return posted.VAAKey
}

func bindingKey() entity.TokenBindingKey {
	return entity.TokenBindingKey{
		SourceChain: chainA,
		SourceToken: tokenA,
		TargetChain: chainB,
		TargetToken: tokenB,
	}
}

func lockRequest(amount uint64) *bridge.TransferRequest {
	return &bridge.TransferRequest{
		SourceToken:      tokenA,
		Amount:           amount,
		TargetChain:      chainB,
		TargetToken:      tokenB,
		Recipient:        recipient,
		Payer:            payer,
		Nonce:            7,
		ConsistencyLevel: 1,
	}
}

func transferPayload(amount, targetAmount uint64) *vaa.TransferPayload {
	return &vaa.TransferPayload{
		Amount:          amount,
		TokenAddress:    tokenA,
		TokenChain:      vaa.ChainID(chainA),
		Recipient:       recipient,
		RecipientChain:  vaa.ChainID(chainB),
		TargetToken:     tokenB,
		TargetAmount:    targetAmount,
		RateNumerator:   998,
		RateDenominator: 1000,
	}
}

// transferPair returns a source bridge on chainA and a destination bridge on
// chainB that both bind tokenA to tokenB at 998/1000. The payer holds 1e9 of
// tokenA and the destination vault holds 1e9 of tokenB.
func transferPair(t *testing.T, srcOpts ...bridge.Option) (src, dst *testBridge) {
	t.Helper()
	src = newTestBridge(t, newTestConfig(chainA), srcOpts...)
	dst = newTestBridge(t, newTestConfig(chainB))
	bindPair(t, src, dst)
	return src, dst
}

func bindPair(t *testing.T, src, dst *testBridge) {
	t.Helper()
	for _, b := range []*testBridge{src, dst} {
		_, err := b.RegisterUnidirectional(ctx, authority, bindingKey())
		require.NoError(t, err)
		_, err = b.SetExchangeRate(ctx, authority, bindingKey(), 998, 1000)
		require.NoError(t, err)
	}
	require.NoError(t, src.Mint(ctx, authority, tokenA, payer, 1_000_000_000))
	require.NoError(t, dst.RegisterEmitter(ctx, authority, chainA, src.TokenBridgeEmitter()))
	require.NoError(t, dst.FundVault(ctx, authority, tokenB, 1_000_000_000))
}

// relay carries the transfer message src published under sequence to dst.
func relay(t *testing.T, src, dst *testBridge, sequence uint64) entity.VAAKey {
	t.Helper()
	msg, err := src.Message(ctx, src.TokenBridgeEmitter(), sequence)
	require.NoError(t, err)
	posted, err := dst.PostVAA(ctx, src.signMessage(t, msg, 0, src.keys, vaatest.Range(0, quorum)))
	require.NoError(t, err)
	return posted.VAAKey
}

type fakeProvider struct {
	quote *price.Quote
	err   error
}

func (f *fakeProvider) Quote(_ context.Context, provider common.Address, _ entity.TokenBindingKey) (*price.Quote, error) {
	if provider != oracle {
		return nil, price.ErrUnavailable
	}
	return f.quote, f.err
}

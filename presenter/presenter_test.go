package presenter_test

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/omni/vaa-bridge/bridge"
	"github.com/omni/vaa-bridge/config"
	"github.com/omni/vaa-bridge/entity"
	"github.com/omni/vaa-bridge/presenter"
	"github.com/omni/vaa-bridge/repository/memory"
	"github.com/omni/vaa-bridge/vaa"
	"github.com/omni/vaa-bridge/vaa/vaatest"
)

const (
	chainA uint16 = 2
	chainB uint16 = 4
)

var (
	ctx       = context.Background()
	authority = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	tokenA    = common.HexToHash("0xaa")
	tokenB    = common.HexToHash("0xbb")
	payer     = common.HexToHash("0x01")
	recipient = common.HexToHash("0x02")
)

type env struct {
	bridge  *bridge.Bridge
	keys    []*ecdsa.PrivateKey
	handler http.Handler
}

func newEnv(t *testing.T, chainID uint16) *env {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	cfg := &config.BridgeConfig{
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
	b, err := bridge.NewBridge(logger, memory.NewLedger(), cfg)
	require.NoError(t, err)
	keys := vaatest.GuardianKeys(t, 1, 4)
	require.NoError(t, b.Initialize(ctx, authority, vaatest.Addresses(keys), 0))
	return &env{
		bridge:  b,
		keys:    keys,
		handler: presenter.NewPresenter(logger, b).Handler(),
	}
}

func (e *env) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reqBody)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res map[string]interface{}
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	}
	return rec.Code, res
}

func (e *env) list(t *testing.T, path string) []interface{} {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res []interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func bindingKeyPath() string {
	return fmt.Sprintf("/bindings/%d/%s/%d/%s", chainA, tokenA.Hex(), chainB, tokenB.Hex())
}

func TestPresenter_State(t *testing.T) {
	t.Parallel()
	e := newEnv(t, chainB)

	status, res := e.do(t, http.MethodGet, "/state", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, chainB, res["chainId"])
	require.EqualValues(t, 0, res["activeGuardianSetIndex"])
	require.Equal(t, "0", res["messageFee"])
	require.Equal(t, false, res["paused"])
	require.Equal(t, e.bridge.TokenBridgeEmitter().Hex(), res["tokenBridgeEmitter"])
}

func TestPresenter_GuardianSets(t *testing.T) {
	t.Parallel()
	e := newEnv(t, chainB)

	status, res := e.do(t, http.MethodGet, "/guardian-sets/current", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 3, res["quorum"])
	require.Len(t, res["keys"], 4)
	require.NotContains(t, res, "expirationTime")

	require.Len(t, e.list(t, "/guardian-sets"), 1)

	status, res = e.do(t, http.MethodGet, "/guardian-sets/7", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "not_found", res["error"])

	status, res = e.do(t, http.MethodGet, "/guardian-sets/99999999999", nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalid_request", res["error"])
}

func TestPresenter_Messages(t *testing.T) {
	t.Parallel()
	e := newEnv(t, chainA)
	origin := bridge.SignerOrigin{Address: common.HexToAddress("0x1234")}
	emitter, err := origin.Emitter()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := e.bridge.Publish(ctx, &bridge.PublishRequest{Origin: origin, Nonce: uint32(i), Payload: []byte{byte(i)}})
		require.NoError(t, err)
	}

	msgs := e.list(t, "/emitters/"+emitter.Hex()+"/messages?from=1&limit=2")
	require.Len(t, msgs, 2)
	require.Equal(t, "1", msgs[0].(map[string]interface{})["sequence"])
	require.Equal(t, "2", msgs[1].(map[string]interface{})["sequence"])

	status, res := e.do(t, http.MethodGet, "/emitters/"+emitter.Hex()+"/messages/4", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, hexutil.Encode([]byte{4}), res["payload"])

	status, res = e.do(t, http.MethodGet, "/emitters/"+emitter.Hex()+"/sequence", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "5", res["nextSequence"])

	status, res = e.do(t, http.MethodGet, "/emitters/"+emitter.Hex()+"/messages/5", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "not_found", res["error"])

	status, res = e.do(t, http.MethodGet, "/emitters/"+emitter.Hex()+"/messages?limit=101", nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalid_request", res["error"])
}

func TestPresenter_PostVAA(t *testing.T) {
	t.Parallel()
	e := newEnv(t, chainB)
	emitter := common.HexToHash("0xe1")
	raw := vaatest.SignBytes(t, vaatest.Body(vaa.ChainID(chainA), emitter, 9, []byte("hello")), 0, e.keys, vaatest.Range(0, 3))

	status, res := e.do(t, http.MethodPost, "/vaas", &presenter.PostVAARequest{VAA: raw})
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "9", res["sequence"])
	require.Equal(t, false, res["consumed"])

	status, res = e.do(t, http.MethodPost, "/vaas", &presenter.PostVAARequest{VAA: raw})
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "vaa_already_posted", res["error"])

	path := fmt.Sprintf("/vaas/%d/%s/9", chainA, emitter.Hex())
	status, res = e.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, hexutil.Encode([]byte("hello")), res["payload"])

	status, res = e.do(t, http.MethodGet, fmt.Sprintf("/vaas/%d/%s/10", chainA, emitter.Hex()), nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "vaa_not_posted", res["error"])

	underSigned := vaatest.SignBytes(t, vaatest.Body(vaa.ChainID(chainA), emitter, 10, nil), 0, e.keys, vaatest.Range(0, 2))
	status, res = e.do(t, http.MethodPost, "/vaas", &presenter.PostVAARequest{VAA: underSigned})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "insufficient_signatures", res["error"])

	status, res = e.do(t, http.MethodPost, "/vaas", map[string]string{"raw": "0x00"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalid_request", res["error"])
}

func TestPresenter_Transfer(t *testing.T) {
	t.Parallel()
	src := newEnv(t, chainA)
	dst := newEnv(t, chainB)
	key := bridgeKey()
	for _, e := range []*env{src, dst} {
		_, err := e.bridge.RegisterUnidirectional(ctx, authority, key)
		require.NoError(t, err)
		_, err = e.bridge.SetExchangeRate(ctx, authority, key, 998, 1000)
		require.NoError(t, err)
	}
	require.NoError(t, src.bridge.Mint(ctx, authority, tokenA, payer, 1_000_000))
	require.NoError(t, dst.bridge.RegisterEmitter(ctx, authority, chainA, src.bridge.TokenBridgeEmitter()))
	require.NoError(t, dst.bridge.FundVault(ctx, authority, tokenB, 1_000_000))

	seq, err := src.bridge.LockAndTransfer(ctx, &bridge.TransferRequest{
		SourceToken: tokenA,
		Amount:      1_000_000,
		TargetChain: chainB,
		TargetToken: tokenB,
		Recipient:   recipient,
		Payer:       payer,
	})
	require.NoError(t, err)

	status, res := src.do(t, http.MethodGet, "/vaults/"+tokenA.Hex(), nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "1000000", res["amount"])

	status, res = src.do(t, http.MethodGet, bindingKeyPath(), nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "998", res["rateNumerator"])
	require.Equal(t, true, res["enabled"])
	require.Len(t, src.list(t, "/bindings"), 1)

	msg, err := src.bridge.Message(ctx, src.bridge.TokenBridgeEmitter(), seq)
	require.NoError(t, err)
	raw := vaatest.SignBytes(t, vaa.Body{
		Timestamp:        msg.Timestamp,
		Nonce:            msg.Nonce,
		EmitterChain:     vaa.ChainID(chainA),
		EmitterAddress:   msg.EmitterAddress,
		Sequence:         msg.Sequence,
		ConsistencyLevel: msg.ConsistencyLevel,
		Payload:          msg.Payload,
	}, 0, src.keys, vaatest.Range(0, 3))
	status, _ = dst.do(t, http.MethodPost, "/vaas", &presenter.PostVAARequest{VAA: raw})
	require.Equal(t, http.StatusCreated, status)

	vaaKey := map[string]interface{}{
		"emitterChain":   chainA,
		"emitterAddress": src.bridge.TokenBridgeEmitter(),
		"sequence":       fmt.Sprint(seq),
	}
	status, res = dst.do(t, http.MethodPost, "/transfers/complete", vaaKey)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "998000", res["amount"])
	require.Equal(t, recipient.Hex(), res["recipient"])

	status, res = dst.do(t, http.MethodPost, "/transfers/complete", vaaKey)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "vaa_already_consumed", res["error"])

	status, res = dst.do(t, http.MethodGet, "/balances/"+tokenB.Hex()+"/"+recipient.Hex(), nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "998000", res["amount"])

	require.Len(t, dst.list(t, "/emitters"), 1)
}

func TestPresenter_Errors(t *testing.T) {
	t.Parallel()
	e := newEnv(t, chainB)

	status, res := e.do(t, http.MethodGet, bindingKeyPath(), nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "token_binding_not_found", res["error"])

	status, res = e.do(t, http.MethodPost, "/governance/guardian-set-upgrade", map[string]interface{}{
		"emitterChain":   1,
		"emitterAddress": common.HexToHash("0x04"),
		"sequence":       "1",
	})
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "vaa_not_posted", res["error"])

	logger, _ := logtest.NewNullLogger()
	uninitialized, err := bridge.NewBridge(logger, memory.NewLedger(), &config.BridgeConfig{ChainID: chainB, Policy: &config.PolicyConfig{}})
	require.NoError(t, err)
	e = &env{handler: presenter.NewPresenter(logger, uninitialized).Handler()}
	status, res = e.do(t, http.MethodGet, "/state", nil)
	require.Equal(t, http.StatusServiceUnavailable, status)
	require.Equal(t, "not_initialized", res["error"])
	require.Equal(t, http.StatusText(http.StatusServiceUnavailable), res["message"])
}

func bridgeKey() entity.TokenBindingKey {
	return entity.TokenBindingKey{SourceChain: chainA, SourceToken: tokenA, TargetChain: chainB, TargetToken: tokenB}
}

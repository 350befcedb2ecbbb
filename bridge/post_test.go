package bridge_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/vaa-bridge/bridge"
	"github.com/omni/vaa-bridge/entity"
	"github.com/omni/vaa-bridge/vaa"
	"github.com/omni/vaa-bridge/vaa/vaatest"
)

var foreignEmitter = common.HexToHash("0xe1")

func TestPostVAA_Quorum(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t, newTestConfig(chainB))
	body := vaatest.Body(vaa.ChainID(chainA), foreignEmitter, 1, []byte("payload"))
	key := entity.VAAKey{EmitterChain: chainA, EmitterAddress: foreignEmitter, Sequence: 1}

	_, err := b.PostVAA(ctx, vaatest.SignBytes(t, body, 0, b.keys, vaatest.Range(0, quorum-1)))
	require.ErrorIs(t, err, bridge.ErrInsufficientSignatures)
	_, err = b.PostedVAA(ctx, key)
	require.ErrorIs(t, err, bridge.ErrVaaNotPosted)

	posted, err := b.PostVAA(ctx, vaatest.SignBytes(t, body, 0, b.keys, vaatest.Range(numGuardians-quorum, numGuardians)))
	require.NoError(t, err)
	require.Equal(t, key, posted.VAAKey)
	require.Equal(t, body.SigningDigest(), posted.Digest)
	require.False(t, posted.Consumed)

	stored, err := b.PostedVAA(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), stored.Payload)
	require.Equal(t, uint32(42), stored.Nonce)
	require.True(t, body.Timestamp.Equal(stored.Timestamp))
}

func TestPostVAA_Replay(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t, newTestConfig(chainB))
	body := vaatest.Body(vaa.ChainID(chainA), foreignEmitter, 1, []byte("payload"))
	b.post(t, body)

	_, err := b.PostVAA(ctx, vaatest.SignBytes(t, body, 0, b.keys, vaatest.Range(0, quorum)))
	require.ErrorIs(t, err, bridge.ErrVaaAlreadyPosted)

	// a different signer subset or payload does not change the replay key
	body.Payload = []byte("other payload")
	_, err = b.PostVAA(ctx, vaatest.SignBytes(t, body, 0, b.keys, vaatest.Range(numGuardians-quorum, numGuardians)))
	require.ErrorIs(t, err, bridge.ErrVaaAlreadyPosted)
}

func TestPostVAA_Rejects(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t, newTestConfig(chainB))
	body := vaatest.Body(vaa.ChainID(chainA), foreignEmitter, 1, []byte("payload"))
	valid := vaatest.SignBytes(t, body, 0, b.keys, vaatest.Range(0, quorum))

	tampered := append([]byte{}, valid...)
	tampered[len(tampered)-1] ^= 0xff

	outsiders := vaatest.GuardianKeys(t, 99, numGuardians)
	unsorted := vaatest.Sign(t, body, 0, b.keys, vaatest.Range(0, quorum))
	unsorted.Signatures[0], unsorted.Signatures[1] = unsorted.Signatures[1], unsorted.Signatures[0]
	unsortedRaw, err := unsorted.Marshal()
	require.NoError(t, err)

	for _, tc := range []struct {
		name string
		raw  []byte
		err  error
	}{
		{"empty", nil, bridge.ErrInvalidVaa},
		{"truncated", valid[:20], bridge.ErrInvalidVaa},
		{"unknown guardian set", vaatest.SignBytes(t, body, 1, b.keys, vaatest.Range(0, quorum)), bridge.ErrInvalidGuardianSet},
		{"tampered payload", tampered, bridge.ErrInvalidSignature},
		{"foreign guardians", vaatest.SignBytes(t, body, 0, outsiders, vaatest.Range(0, quorum)), bridge.ErrInvalidSignature},
		{"unsorted signatures", unsortedRaw, bridge.ErrInvalidSignature},
	} {
		_, err := b.PostVAA(ctx, tc.raw)
		require.ErrorIs(t, err, tc.err, tc.name)
	}

	_, err = b.PostedVAA(ctx, entity.VAAKey{EmitterChain: chainA, EmitterAddress: foreignEmitter, Sequence: 1})
	require.ErrorIs(t, err, bridge.ErrVaaNotPosted)

	_, err = b.PostVAA(ctx, valid)
	require.NoError(t, err)
}

func TestPostVAA_MaxAge(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(chainB)
	cfg.Policy.MaxVAAAge = time.Hour
	b := newTestBridge(t, cfg)

	body := vaatest.Body(vaa.ChainID(chainA), foreignEmitter, 1, nil)
	b.post(t, body)

	body.Sequence = 2
	body.Timestamp = genesis.Add(2 * time.Hour)
	_, err := b.PostVAA(ctx, vaatest.SignBytes(t, body, 0, b.keys, vaatest.Range(0, quorum)))
	require.ErrorIs(t, err, bridge.ErrStaleVaa)

	b.clock.Advance(90 * time.Minute)
	b.post(t, body)

	body.Sequence = 3
	body.Timestamp = genesis
	_, err = b.PostVAA(ctx, vaatest.SignBytes(t, body, 0, b.keys, vaatest.Range(0, quorum)))
	require.ErrorIs(t, err, bridge.ErrStaleVaa)
}

package bridge_test

import (
	"bytes"
	"sort"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/vaa-bridge/bridge"
)

func publishRequest(origin bridge.Origin, payload []byte) *bridge.PublishRequest {
	return &bridge.PublishRequest{
		Origin:           origin,
		Nonce:            1,
		Payload:          payload,
		ConsistencyLevel: 1,
	}
}

func TestPublish_SequencesAreMonotonic(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t, newTestConfig(chainA))
	alice := bridge.SignerOrigin{Address: common.HexToAddress("0x0a")}
	program := bridge.ProgramOrigin{Program: bridge.ProgramID(chainA), Seed: "app"}
	aliceEmitter, err := alice.Emitter()
	require.NoError(t, err)

	for i := uint64(0); i < 3; i++ {
		seq, err := b.Publish(ctx, publishRequest(alice, []byte{byte(i)}))
		require.NoError(t, err)
		require.Equal(t, i, seq)
	}

	_, err = b.Publish(ctx, publishRequest(alice, bytes.Repeat([]byte{1}, 1025)))
	require.ErrorIs(t, err, bridge.ErrPayloadTooLarge)

	next, err := b.NextSequence(ctx, aliceEmitter)
	require.NoError(t, err)
	require.Equal(t, uint64(3), next)

	seq, err := b.Publish(ctx, publishRequest(alice, bytes.Repeat([]byte{1}, 1024)))
	require.NoError(t, err)
	require.Equal(t, uint64(3), seq)

	seq, err = b.Publish(ctx, publishRequest(program, nil))
	require.NoError(t, err)
	require.Zero(t, seq, "every emitter has its own counter")

	msg, err := b.Message(ctx, aliceEmitter, 1)
	require.NoError(t, err)
	require.Equal(t, []byte{1}, msg.Payload)
	require.Equal(t, uint32(1), msg.Nonce)
	require.Equal(t, genesis, msg.Timestamp)

	msgs, err := b.Messages(ctx, aliceEmitter, 1, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, uint64(1), msgs[0].Sequence)
	require.Equal(t, uint64(2), msgs[1].Sequence)

	_, err = b.Message(ctx, aliceEmitter, 4)
	require.ErrorIs(t, err, bridge.ErrNotFound)
}

func TestPublish_ConcurrentCallersGetDistinctSequences(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t, newTestConfig(chainA))
	origin := bridge.SignerOrigin{Address: common.HexToAddress("0x0a")}

	const n = 32
	var wg sync.WaitGroup
	seqs := make([]uint64, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seqs[i], errs[i] = b.Publish(ctx, publishRequest(origin, []byte{byte(i)}))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	for i, seq := range seqs {
		require.Equal(t, uint64(i), seq)
	}
}

func TestPublish_FeesAndPause(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t, newTestConfig(chainA))
	origin := bridge.SignerOrigin{Address: common.HexToAddress("0x0a")}
	emitter, err := origin.Emitter()
	require.NoError(t, err)
	require.NoError(t, b.SetMessageFee(ctx, authority, 10))

	req := publishRequest(origin, []byte("hello"))
	req.Fee = 9
	_, err = b.Publish(ctx, req)
	require.ErrorIs(t, err, bridge.ErrInsufficientFee)

	req.Fee = 15
	seq, err := b.Publish(ctx, req)
	require.NoError(t, err)
	require.Zero(t, seq)

	state, err := b.State(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(15), state.CollectedFees)

	require.NoError(t, b.SetPaused(ctx, authority, true))
	_, err = b.Publish(ctx, req)
	require.ErrorIs(t, err, bridge.ErrBridgePaused)

	require.NoError(t, b.SetPaused(ctx, authority, false))
	seq, err = b.Publish(ctx, req)
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq)

	next, err := b.NextSequence(ctx, emitter)
	require.NoError(t, err)
	require.Equal(t, uint64(2), next)
}

func TestPublish_InvalidOrigin(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t, newTestConfig(chainA))
	_, err := b.Publish(ctx, publishRequest(nil, nil))
	require.ErrorIs(t, err, bridge.ErrInvalidEmitter)
	_, err = b.Publish(ctx, publishRequest(bridge.SignerOrigin{}, nil))
	require.ErrorIs(t, err, bridge.ErrInvalidEmitter)
}

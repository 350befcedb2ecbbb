// Package vaatest provides deterministic guardian keys and signed VAAs for tests.
package vaatest

import (
	"crypto/ecdsa"
	"encoding/binary"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/omni/vaa-bridge/vaa"
)

// GuardianKeys derives n private keys from a fixed seed so that the same
// guardian set can be rebuilt across tests.
func GuardianKeys(t testing.TB, seed uint64, n int) []*ecdsa.PrivateKey {
	t.Helper()
	keys := make([]*ecdsa.PrivateKey, n)
	for i := range keys {
		var buf [16]byte
		binary.BigEndian.PutUint64(buf[:8], seed)
		binary.BigEndian.PutUint64(buf[8:], uint64(i))
		key, err := crypto.ToECDSA(crypto.Keccak256(buf[:]))
		require.NoError(t, err)
		keys[i] = key
	}
	return keys
}

func Addresses(keys []*ecdsa.PrivateKey) []common.Address {
	addrs := make([]common.Address, len(keys))
	for i, key := range keys {
		addrs[i] = crypto.PubkeyToAddress(key.PublicKey)
	}
	return addrs
}

// Range returns the guardian indices [from, to).
func Range(from, to int) []int {
	res := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		res = append(res, i)
	}
	return res
}

// Sign builds a VAA over body signed by keys[i] for each i in signers, in the given order.
func Sign(t testing.TB, body vaa.Body, guardianSetIndex uint32, keys []*ecdsa.PrivateKey, signers []int) *vaa.VAA {
	t.Helper()
	v := &vaa.VAA{
		Version:          vaa.SupportedVAAVersion,
		GuardianSetIndex: guardianSetIndex,
		Body:             body,
	}
	for _, i := range signers {
		require.NoError(t, v.AddSignature(keys[i], uint8(i)))
	}
	return v
}

func SignBytes(t testing.TB, body vaa.Body, guardianSetIndex uint32, keys []*ecdsa.PrivateKey, signers []int) []byte {
	t.Helper()
	raw, err := Sign(t, body, guardianSetIndex, keys, signers).Marshal()
	require.NoError(t, err)
	return raw
}

func Body(chain vaa.ChainID, emitter common.Hash, sequence uint64, payload []byte) vaa.Body {
	return vaa.Body{
		Timestamp:        time.Unix(1_700_000_000, 0).UTC(),
		Nonce:            42,
		EmitterChain:     chain,
		EmitterAddress:   emitter,
		Sequence:         sequence,
		ConsistencyLevel: 1,
		Payload:          payload,
	}
}

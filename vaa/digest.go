package vaa

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Marshal serializes the body: a 51 byte big-endian header followed by the payload.
func (b *Body) Marshal() []byte {
	buf := make([]byte, BodyHeaderLength+len(b.Payload))
	binary.BigEndian.PutUint32(buf[0:4], uint32(b.Timestamp.Unix()))
	binary.BigEndian.PutUint32(buf[4:8], b.Nonce)
	binary.BigEndian.PutUint16(buf[8:10], uint16(b.EmitterChain))
	copy(buf[10:42], b.EmitterAddress[:])
	binary.BigEndian.PutUint64(buf[42:50], b.Sequence)
	buf[50] = b.ConsistencyLevel
	copy(buf[BodyHeaderLength:], b.Payload)
	return buf
}

// SigningDigest is keccak256(keccak256(body)), the value guardians sign.
func SigningDigest(body []byte) common.Hash {
	return crypto.Keccak256Hash(crypto.Keccak256(body))
}

func (b *Body) SigningDigest() common.Hash {
	return SigningDigest(b.Marshal())
}

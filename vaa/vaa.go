// Package vaa implements the byte-exact VAA wire format: body serialization,
// the double keccak256 signing digest, guardian quorum verification and the
// payload formats carried by bridge messages.
package vaa

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	SupportedVAAVersion = 1

	headerLength = 6
	// SignatureLength is guardian index (1) followed by r (32), s (32) and v (1).
	SignatureLength = 66
	// BodyHeaderLength is the fixed part of the body preceding the payload.
	BodyHeaderLength = 51

	// MaxSignatures is bounded by the single byte signature count.
	MaxSignatures = 255
)

var ErrMalformed = errors.New("malformed vaa")

type ChainID uint16

type Signature struct {
	Index     uint8
	Signature [65]byte
}

type Body struct {
	Timestamp        time.Time
	Nonce            uint32
	EmitterChain     ChainID
	EmitterAddress   common.Hash
	Sequence         uint64
	ConsistencyLevel uint8
	Payload          []byte
}

type VAA struct {
	Version          uint8
	GuardianSetIndex uint32
	Signatures       []*Signature
	Body
}

package vaa

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
)

// Parse decodes a signed VAA. It only validates structure, signatures are
// checked separately against a guardian set.
func Parse(data []byte) (*VAA, error) {
	if len(data) < headerLength {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrMalformed, len(data))
	}
	v := &VAA{
		Version:          data[0],
		GuardianSetIndex: binary.BigEndian.Uint32(data[1:5]),
	}
	if v.Version != SupportedVAAVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, v.Version)
	}

	count := int(data[5])
	bodyStart := headerLength + count*SignatureLength
	if len(data) < bodyStart {
		return nil, fmt.Errorf("%w: %d signatures declared but buffer holds %d bytes", ErrMalformed, count, len(data))
	}
	v.Signatures = make([]*Signature, count)
	for i := 0; i < count; i++ {
		offset := headerLength + i*SignatureLength
		sig := &Signature{Index: data[offset]}
		copy(sig.Signature[:], data[offset+1:offset+SignatureLength])
		v.Signatures[i] = sig
	}

	body, err := ParseBody(data[bodyStart:])
	if err != nil {
		return nil, err
	}
	v.Body = *body
	return v, nil
}

func ParseBody(data []byte) (*Body, error) {
	if len(data) < BodyHeaderLength {
		return nil, fmt.Errorf("%w: body of %d bytes is shorter than %d", ErrMalformed, len(data), BodyHeaderLength)
	}
	b := &Body{
		Timestamp:        time.Unix(int64(binary.BigEndian.Uint32(data[0:4])), 0).UTC(),
		Nonce:            binary.BigEndian.Uint32(data[4:8]),
		EmitterChain:     ChainID(binary.BigEndian.Uint16(data[8:10])),
		Sequence:         binary.BigEndian.Uint64(data[42:50]),
		ConsistencyLevel: data[50],
		Payload:          append([]byte{}, data[BodyHeaderLength:]...),
	}
	copy(b.EmitterAddress[:], data[10:42])
	return b, nil
}

func (v *VAA) Marshal() ([]byte, error) {
	if len(v.Signatures) > MaxSignatures {
		return nil, fmt.Errorf("%w: %d signatures exceed the maximum of %d", ErrMalformed, len(v.Signatures), MaxSignatures)
	}
	body := v.Body.Marshal()
	buf := make([]byte, headerLength, headerLength+len(v.Signatures)*SignatureLength+len(body))
	buf[0] = v.Version
	binary.BigEndian.PutUint32(buf[1:5], v.GuardianSetIndex)
	buf[5] = uint8(len(v.Signatures))
	for _, sig := range v.Signatures {
		buf = append(buf, sig.Index)
		buf = append(buf, sig.Signature[:]...)
	}
	return append(buf, body...), nil
}

// AddSignature signs the body digest with key on behalf of guardian index.
// Guardians do this off-chain; the helper serves tooling and tests.
func (v *VAA) AddSignature(key *ecdsa.PrivateKey, index uint8) error {
	digest := v.SigningDigest()
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return fmt.Errorf("can't sign vaa digest: %w", err)
	}
	s := &Signature{Index: index}
	copy(s.Signature[:], sig)
	v.Signatures = append(v.Signatures, s)
	return nil
}

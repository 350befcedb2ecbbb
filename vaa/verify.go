package vaa

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru"
)

var (
	ErrInsufficientSignatures = errors.New("insufficient signatures")
	ErrInvalidSignature       = errors.New("invalid signature")
)

// CalculateQuorum returns the number of signatures required for a guardian
// set of the given size: more than two thirds.
func CalculateQuorum(numGuardians int) int {
	return numGuardians*2/3 + 1
}

// RecoverSigner returns the address of the key that produced sig over digest.
// Only recovery ids 0 and 1 are accepted.
func RecoverSigner(digest common.Hash, sig [65]byte) (common.Address, error) {
	if sig[64] > 1 {
		return common.Address{}, fmt.Errorf("invalid recovery id %d", sig[64])
	}
	pub, err := crypto.Ecrecover(digest.Bytes(), sig[:])
	if err != nil {
		return common.Address{}, fmt.Errorf("can't recover ecdsa signer: %w", err)
	}
	return common.BytesToAddress(crypto.Keccak256(pub[1:])[12:]), nil
}

// Verifier checks guardian signatures, memoizing recovered signers so that
// resubmitted VAAs do not pay for ecrecover twice.
type Verifier struct {
	signers *lru.Cache
}

func NewVerifier(cacheSize int) (*Verifier, error) {
	if cacheSize <= 0 {
		return &Verifier{}, nil
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("can't create signer cache: %w", err)
	}
	return &Verifier{signers: cache}, nil
}

func (v *Verifier) recover(digest common.Hash, sig [65]byte) (common.Address, error) {
	if v == nil || v.signers == nil {
		return RecoverSigner(digest, sig)
	}
	key := string(digest[:]) + string(sig[:])
	if addr, ok := v.signers.Get(key); ok {
		return addr.(common.Address), nil
	}
	addr, err := RecoverSigner(digest, sig)
	if err != nil {
		return common.Address{}, err
	}
	v.signers.Add(key, addr)
	return addr, nil
}

// VerifySignatures succeeds iff sigs reach quorum for the guardian keys, guardian
// indices are strictly increasing and every signature recovers to the key at its index.
// A single bad signature fails the whole set.
func (v *Verifier) VerifySignatures(digest common.Hash, sigs []*Signature, keys []common.Address) error {
	required := CalculateQuorum(len(keys))
	if len(sigs) < required {
		return fmt.Errorf("%w: got %d, need %d of %d", ErrInsufficientSignatures, len(sigs), required, len(keys))
	}
	last := -1
	for i, sig := range sigs {
		index := int(sig.Index)
		if index <= last {
			return fmt.Errorf("%w: guardian index %d at position %d is not strictly increasing", ErrInvalidSignature, index, i)
		}
		if index >= len(keys) {
			return fmt.Errorf("%w: guardian index %d out of range for set of %d", ErrInvalidSignature, index, len(keys))
		}
		addr, err := v.recover(digest, sig.Signature)
		if err != nil {
			return fmt.Errorf("%w: guardian %d: %s", ErrInvalidSignature, index, err)
		}
		if addr != keys[index] {
			return fmt.Errorf("%w: guardian %d signature recovers to %s, expected %s", ErrInvalidSignature, index, addr.Hex(), keys[index].Hex())
		}
		last = index
	}
	return nil
}

func VerifySignatures(digest common.Hash, sigs []*Signature, keys []common.Address) error {
	return (*Verifier)(nil).VerifySignatures(digest, sigs, keys)
}

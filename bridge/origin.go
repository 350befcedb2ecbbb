package bridge

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Origin authenticates the emitter of a published message. The set of
// variants is closed: a wallet signer or an address derived for a program.
type Origin interface {
	Emitter() (common.Hash, error)
	origin()
}

// SignerOrigin is a signer-authenticated caller, its 20-byte address is left-padded to 32 bytes.
type SignerOrigin struct {
	Address common.Address
}

func (o SignerOrigin) Emitter() (common.Hash, error) {
	if o.Address == (common.Address{}) {
		return common.Hash{}, fmt.Errorf("%w: zero signer address", ErrInvalidEmitter)
	}
	return common.BytesToHash(o.Address.Bytes()), nil
}

func (SignerOrigin) origin() {}

// ProgramOrigin is an address derived as keccak256(program || seed).
type ProgramOrigin struct {
	Program common.Hash
	Seed    string
}

func (o ProgramOrigin) Emitter() (common.Hash, error) {
	if o.Seed == "" {
		return common.Hash{}, fmt.Errorf("%w: empty program seed", ErrInvalidEmitter)
	}
	return crypto.Keccak256Hash(o.Program.Bytes(), []byte(o.Seed)), nil
}

func (ProgramOrigin) origin() {}

// ProgramID identifies the bridge program of a chain when deriving its emitters.
func ProgramID(chainID uint16) common.Hash {
	return common.BytesToHash(crypto.Keccak256([]byte("bridge"), []byte{byte(chainID >> 8), byte(chainID)}))
}

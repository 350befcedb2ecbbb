package vaa

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	TransferPayloadID     uint8 = 1
	TransferPayloadLength       = 1 + 32 + 32 + 2 + 32 + 2 + 32 + 32 + 8 + 8
)

var ErrMalformedPayload = errors.New("malformed payload")

// TransferPayload is published by the custody side of a lock. The rate used
// to derive TargetAmount travels with it so the completing side can check it.
type TransferPayload struct {
	Amount          uint64
	TokenAddress    common.Hash
	TokenChain      ChainID
	Recipient       common.Hash
	RecipientChain  ChainID
	TargetToken     common.Hash
	TargetAmount    uint64
	RateNumerator   uint64
	RateDenominator uint64
}

func putAmount(buf []byte, amount uint64) {
	binary.BigEndian.PutUint64(buf[24:32], amount)
}

func readAmount(buf []byte) (uint64, error) {
	for _, b := range buf[:24] {
		if b != 0 {
			return 0, fmt.Errorf("%w: amount exceeds 64 bits", ErrMalformedPayload)
		}
	}
	return binary.BigEndian.Uint64(buf[24:32]), nil
}

func (p *TransferPayload) Marshal() []byte {
	buf := make([]byte, TransferPayloadLength)
	buf[0] = TransferPayloadID
	putAmount(buf[1:33], p.Amount)
	copy(buf[33:65], p.TokenAddress[:])
	binary.BigEndian.PutUint16(buf[65:67], uint16(p.TokenChain))
	copy(buf[67:99], p.Recipient[:])
	binary.BigEndian.PutUint16(buf[99:101], uint16(p.RecipientChain))
	copy(buf[101:133], p.TargetToken[:])
	putAmount(buf[133:165], p.TargetAmount)
	binary.BigEndian.PutUint64(buf[165:173], p.RateNumerator)
	binary.BigEndian.PutUint64(buf[173:181], p.RateDenominator)
	return buf
}

func ParseTransferPayload(data []byte) (*TransferPayload, error) {
	if len(data) != TransferPayloadLength {
		return nil, fmt.Errorf("%w: transfer payload must be %d bytes, got %d", ErrMalformedPayload, TransferPayloadLength, len(data))
	}
	if data[0] != TransferPayloadID {
		return nil, fmt.Errorf("%w: unexpected payload id %d", ErrMalformedPayload, data[0])
	}
	amount, err := readAmount(data[1:33])
	if err != nil {
		return nil, err
	}
	targetAmount, err := readAmount(data[133:165])
	if err != nil {
		return nil, err
	}
	p := &TransferPayload{
		Amount:          amount,
		TokenAddress:    common.BytesToHash(data[33:65]),
		TokenChain:      ChainID(binary.BigEndian.Uint16(data[65:67])),
		Recipient:       common.BytesToHash(data[67:99]),
		RecipientChain:  ChainID(binary.BigEndian.Uint16(data[99:101])),
		TargetToken:     common.BytesToHash(data[101:133]),
		TargetAmount:    targetAmount,
		RateNumerator:   binary.BigEndian.Uint64(data[165:173]),
		RateDenominator: binary.BigEndian.Uint64(data[173:181]),
	}
	return p, nil
}

package vaa

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const ActionGuardianSetUpgrade uint8 = 2

// CoreModule is "Core" left-padded to 32 bytes.
var CoreModule = common.LeftPadBytes([]byte("Core"), 32)

type GuardianSetUpgrade struct {
	// TargetChain 0 applies the upgrade on every chain.
	TargetChain ChainID
	NewIndex    uint32
	Keys        []common.Address
}

func (u *GuardianSetUpgrade) Marshal() ([]byte, error) {
	if len(u.Keys) > 255 {
		return nil, fmt.Errorf("%w: %d guardian keys exceed the maximum of 255", ErrMalformedPayload, len(u.Keys))
	}
	buf := make([]byte, 0, 32+1+2+4+1+len(u.Keys)*common.AddressLength)
	buf = append(buf, CoreModule...)
	buf = append(buf, ActionGuardianSetUpgrade)
	buf = binary.BigEndian.AppendUint16(buf, uint16(u.TargetChain))
	buf = binary.BigEndian.AppendUint32(buf, u.NewIndex)
	buf = append(buf, uint8(len(u.Keys)))
	for _, key := range u.Keys {
		buf = append(buf, key.Bytes()...)
	}
	return buf, nil
}

func ParseGuardianSetUpgrade(data []byte) (*GuardianSetUpgrade, error) {
	const fixed = 32 + 1 + 2 + 4 + 1
	if len(data) < fixed {
		return nil, fmt.Errorf("%w: governance payload of %d bytes is too short", ErrMalformedPayload, len(data))
	}
	if !bytes.Equal(data[:32], CoreModule) {
		return nil, fmt.Errorf("%w: governance payload is not for the core module", ErrMalformedPayload)
	}
	if data[32] != ActionGuardianSetUpgrade {
		return nil, fmt.Errorf("%w: unexpected governance action %d", ErrMalformedPayload, data[32])
	}
	u := &GuardianSetUpgrade{
		TargetChain: ChainID(binary.BigEndian.Uint16(data[33:35])),
		NewIndex:    binary.BigEndian.Uint32(data[35:39]),
	}
	count := int(data[39])
	if len(data) != fixed+count*common.AddressLength {
		return nil, fmt.Errorf("%w: %d keys declared but payload holds %d bytes", ErrMalformedPayload, count, len(data))
	}
	u.Keys = make([]common.Address, count)
	for i := range u.Keys {
		offset := fixed + i*common.AddressLength
		u.Keys[i] = common.BytesToAddress(data[offset : offset+common.AddressLength])
	}
	return u, nil
}

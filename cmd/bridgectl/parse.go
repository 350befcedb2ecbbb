package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/omni/vaa-bridge/entity"
)

var ErrInvalidArgument = errors.New("invalid argument")

func parseChain(raw string) (uint16, error) {
	chain, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: chain id %q: %s", ErrInvalidArgument, raw, err)
	}
	return uint16(chain), nil
}

func parseAmount(raw string) (uint64, error) {
	amount, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q: %s", ErrInvalidArgument, raw, err)
	}
	return amount, nil
}

func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%w: address %q", ErrInvalidArgument, raw)
	}
	return common.HexToAddress(raw), nil
}

// parseHash accepts 32-byte values, shorter hex values are left-padded.
func parseHash(raw string) (common.Hash, error) {
	b, err := hexutil.Decode(raw)
	if err != nil || len(b) > common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: 32-byte value %q", ErrInvalidArgument, raw)
	}
	return common.BytesToHash(b), nil
}

// parseRate reads a "numerator/denominator" pair.
func parseRate(raw string) (num, denom uint64, err error) {
	parts := strings.Split(raw, "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: rate %q must look like 998/1000", ErrInvalidArgument, raw)
	}
	if num, err = parseAmount(parts[0]); err != nil {
		return 0, 0, err
	}
	if denom, err = parseAmount(parts[1]); err != nil {
		return 0, 0, err
	}
	return num, denom, nil
}

func parseBindingKey(args []string) (entity.TokenBindingKey, error) {
	var key entity.TokenBindingKey
	if len(args) != 4 {
		return key, fmt.Errorf("%w: binding key needs source chain, source token, target chain and target token", ErrInvalidArgument)
	}
	var err error
	if key.SourceChain, err = parseChain(args[0]); err != nil {
		return key, err
	}
	if key.SourceToken, err = parseHash(args[1]); err != nil {
		return key, err
	}
	if key.TargetChain, err = parseChain(args[2]); err != nil {
		return key, err
	}
	if key.TargetToken, err = parseHash(args[3]); err != nil {
		return key, err
	}
	return key, nil
}

func parseVAAKey(args []string) (entity.VAAKey, error) {
	var key entity.VAAKey
	if len(args) != 3 {
		return key, fmt.Errorf("%w: vaa key needs emitter chain, emitter address and sequence", ErrInvalidArgument)
	}
	var err error
	if key.EmitterChain, err = parseChain(args[0]); err != nil {
		return key, err
	}
	if key.EmitterAddress, err = parseHash(args[1]); err != nil {
		return key, err
	}
	if key.Sequence, err = strconv.ParseUint(args[2], 10, 64); err != nil {
		return key, fmt.Errorf("%w: sequence %q: %s", ErrInvalidArgument, args[2], err)
	}
	return key, nil
}

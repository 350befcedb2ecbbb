package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/vaa-bridge/entity"
)

func TestParseBindingKey(t *testing.T) {
	t.Parallel()

	key, err := parseBindingKey([]string{"2", "0xaa", "4", "0x00000000000000000000000000000000000000000000000000000000000000bb"})
	require.NoError(t, err)
	require.Equal(t, entity.TokenBindingKey{
		SourceChain: 2,
		SourceToken: common.HexToHash("0xaa"),
		TargetChain: 4,
		TargetToken: common.HexToHash("0xbb"),
	}, key)

	for _, args := range [][]string{
		{"2", "0xaa", "4"},
		{"70000", "0xaa", "4", "0xbb"},
		{"2", "aa", "4", "0xbb"},
		{"2", "0x00000000000000000000000000000000000000000000000000000000000000aa00", "4", "0xbb"},
	} {
		_, err = parseBindingKey(args)
		require.ErrorIs(t, err, ErrInvalidArgument, args)
	}
}

func TestParseRate(t *testing.T) {
	t.Parallel()

	num, denom, err := parseRate("998/1000")
	require.NoError(t, err)
	require.EqualValues(t, 998, num)
	require.EqualValues(t, 1000, denom)

	for _, raw := range []string{"998", "1/2/3", "a/1", "1/-1"} {
		_, _, err = parseRate(raw)
		require.ErrorIs(t, err, ErrInvalidArgument, raw)
	}
}

func TestParseVAAKey(t *testing.T) {
	t.Parallel()

	key, err := parseVAAKey([]string{"1", "0x04", "18446744073709551615"})
	require.NoError(t, err)
	require.Equal(t, entity.VAAKey{
		EmitterChain:   1,
		EmitterAddress: common.HexToHash("0x04"),
		Sequence:       ^uint64(0),
	}, key)

	_, err = parseVAAKey([]string{"1", "0x04", "-1"})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestReadVAA(t *testing.T) {
	t.Parallel()

	raw, err := readVAA("0x0100")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0}, raw)

	path := filepath.Join(t.TempDir(), "vaa.hex")
	require.NoError(t, os.WriteFile(path, []byte("0x0102\n"), 0o600))
	raw, err = readVAA("@" + path)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, raw)

	_, err = readVAA("0xzz")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

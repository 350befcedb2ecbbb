package bridge_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/vaa-bridge/bridge"
	"github.com/omni/vaa-bridge/entity"
)

func TestRegisterUnidirectional(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t, newTestConfig(chainA))
	binding, err := b.RegisterUnidirectional(ctx, authority, bindingKey())
	require.NoError(t, err)
	require.Equal(t, uint64(1), binding.RateNumerator)
	require.Equal(t, uint64(1), binding.RateDenominator)
	require.True(t, binding.Enabled)
	require.False(t, binding.UseExternalPrice)

	_, err = b.RegisterUnidirectional(ctx, authority, bindingKey())
	require.ErrorIs(t, err, bridge.ErrTokenBindingExists)

	_, err = b.TokenBinding(ctx, bindingKey().Reverse())
	require.ErrorIs(t, err, bridge.ErrTokenBindingNotFound)

	invalid := bindingKey()
	invalid.TargetChain = 0
	_, err = b.RegisterUnidirectional(ctx, authority, invalid)
	require.ErrorIs(t, err, bridge.ErrInvalidTargetChain)
}

func TestRegisterBidirectional(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t, newTestConfig(chainA))
	outbound, inbound, err := b.RegisterBidirectional(ctx, authority, bindingKey(), 998, 1000, 1000, 997)
	require.NoError(t, err)
	require.Equal(t, bindingKey(), outbound.TokenBindingKey)
	require.Equal(t, bindingKey().Reverse(), inbound.TokenBindingKey)

	stored, err := b.TokenBinding(ctx, bindingKey().Reverse())
	require.NoError(t, err)
	require.Equal(t, uint64(1000), stored.RateNumerator)
	require.Equal(t, uint64(997), stored.RateDenominator)

	// rates of the two directions are independent
	_, err = b.SetExchangeRate(ctx, authority, bindingKey(), 1, 2)
	require.NoError(t, err)
	stored, err = b.TokenBinding(ctx, bindingKey().Reverse())
	require.NoError(t, err)
	require.Equal(t, uint64(1000), stored.RateNumerator)

	_, _, err = b.RegisterBidirectional(ctx, authority, bindingKey(), 1, 0, 1, 1)
	require.ErrorIs(t, err, bridge.ErrZeroDenominator)
	_, _, err = b.RegisterBidirectional(ctx, authority, bindingKey(), 1, 1, 1, 0)
	require.ErrorIs(t, err, bridge.ErrZeroDenominator)
}

func TestRegisterBidirectional_IsAtomic(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t, newTestConfig(chainA))
	key := entity.TokenBindingKey{SourceChain: chainA, SourceToken: tokenB, TargetChain: chainB, TargetToken: common.HexToHash("0xcc")}
	_, err := b.RegisterUnidirectional(ctx, authority, key.Reverse())
	require.NoError(t, err)

	_, _, err = b.RegisterBidirectional(ctx, authority, key, 1, 1, 1, 1)
	require.ErrorIs(t, err, bridge.ErrTokenBindingExists)

	_, err = b.TokenBinding(ctx, key)
	require.ErrorIs(t, err, bridge.ErrTokenBindingNotFound)
	bindings, err := b.TokenBindings(ctx)
	require.NoError(t, err)
	require.Len(t, bindings, 1)
}

func TestUpdateBinding(t *testing.T) {
	t.Parallel()

	b := newTestBridge(t, newTestConfig(chainA))
	_, err := b.RegisterUnidirectional(ctx, authority, bindingKey())
	require.NoError(t, err)

	b.clock.Advance(time.Minute)
	binding, err := b.SetExchangeRate(ctx, authority, bindingKey(), 998, 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(998), binding.RateNumerator)
	require.Equal(t, uint64(1000), binding.RateDenominator)
	require.True(t, binding.UpdatedAt.After(binding.CreatedAt))

	_, err = b.SetExchangeRate(ctx, authority, bindingKey(), 1, 0)
	require.ErrorIs(t, err, bridge.ErrZeroDenominator)
	stored, err := b.TokenBinding(ctx, bindingKey())
	require.NoError(t, err)
	require.Equal(t, uint64(1000), stored.RateDenominator)

	binding, err = b.SetBindingEnabled(ctx, authority, bindingKey(), false)
	require.NoError(t, err)
	require.False(t, binding.Enabled)

	binding, err = b.SetAmmConfig(ctx, authority, bindingKey(), oracle, true)
	require.NoError(t, err)
	require.True(t, binding.UseExternalPrice)
	require.Equal(t, oracle, binding.ExternalPriceProvider)

	missing := bindingKey().Reverse()
	_, err = b.SetExchangeRate(ctx, authority, missing, 1, 1)
	require.ErrorIs(t, err, bridge.ErrTokenBindingNotFound)
	_, err = b.SetBindingEnabled(ctx, authority, missing, true)
	require.ErrorIs(t, err, bridge.ErrTokenBindingNotFound)
	_, err = b.SetAmmConfig(ctx, authority, missing, oracle, false)
	require.ErrorIs(t, err, bridge.ErrTokenBindingNotFound)
}

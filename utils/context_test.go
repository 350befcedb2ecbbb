package utils_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omni/vaa-bridge/utils"
)

func TestBackoff(t *testing.T) {
	t.Parallel()

	base := 5 * time.Millisecond
	st := time.Now()
	require.NoError(t, utils.Backoff(context.Background(), 2, base))
	require.GreaterOrEqual(t, time.Since(st), 4*base)
}

func TestBackoffCancel(t *testing.T) {
	t.Parallel()

	dur := 10 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), dur)
	defer cancel()

	st := time.Now()
	err := utils.Backoff(ctx, 0, time.Minute)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(st), time.Second)
}

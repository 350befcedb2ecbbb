package repository_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/db/dbtest"
	"github.com/omni/vaa-bridge/entity"
	"github.com/omni/vaa-bridge/repository"
)

var (
	token   = common.HexToHash("0xaa")
	owner   = common.HexToHash("0x0a")
	emitter = common.HexToHash("0xe1")
)

func TestPostgresLedger_Sequences(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := repository.NewPostgresLedger(dbtest.Connect(t))

	for want := uint64(0); want < 3; want++ {
		require.NoError(t, l.Atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
			seq, err := repo.Sequences.Next(ctx, emitter)
			require.NoError(t, err)
			require.Equal(t, want, seq)
			return nil
		}))
	}
	require.NoError(t, l.View(ctx, func(ctx context.Context, repo *repository.Repo) error {
		next, err := repo.Sequences.Peek(ctx, emitter)
		require.NoError(t, err)
		require.Equal(t, uint64(3), next)

		next, err = repo.Sequences.Peek(ctx, common.HexToHash("0xe2"))
		require.NoError(t, err)
		require.Zero(t, next)
		return nil
	}))
}

func TestPostgresLedger_PostedVAAs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := repository.NewPostgresLedger(dbtest.Connect(t))
	key := entity.VAAKey{EmitterChain: 2, EmitterAddress: emitter, Sequence: math.MaxUint64 - 1}
	posted := &entity.PostedVAA{
		VAAKey:           key,
		Version:          1,
		GuardianSetIndex: 3,
		Timestamp:        time.Unix(1_700_000_000, 0).UTC(),
		Nonce:            math.MaxUint32,
		ConsistencyLevel: 200,
		Payload:          []byte("hello"),
		Digest:           common.HexToHash("0xd1"),
	}

	require.NoError(t, l.Atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		return repo.PostedVAAs.Create(ctx, posted)
	}))
	err := l.Atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		return repo.PostedVAAs.Create(ctx, posted)
	})
	require.ErrorIs(t, err, db.ErrAlreadyExists)

	require.NoError(t, l.Atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		return repo.PostedVAAs.MarkConsumed(ctx, key)
	}))
	err = l.Atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		return repo.PostedVAAs.MarkConsumed(ctx, key)
	})
	require.ErrorIs(t, err, db.ErrAlreadyConsumed)

	require.NoError(t, l.View(ctx, func(ctx context.Context, repo *repository.Repo) error {
		got, err := repo.PostedVAAs.Get(ctx, key)
		require.NoError(t, err)
		require.Equal(t, key, got.VAAKey)
		require.Equal(t, uint32(math.MaxUint32), got.Nonce)
		require.Equal(t, []byte("hello"), got.Payload)
		require.True(t, got.Timestamp.Equal(posted.Timestamp))
		require.True(t, got.Consumed)

		_, err = repo.PostedVAAs.Get(ctx, entity.VAAKey{EmitterChain: 2, EmitterAddress: emitter, Sequence: 1})
		require.ErrorIs(t, err, db.ErrNotFound)
		return nil
	}))
}

func TestPostgresLedger_Amounts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := repository.NewPostgresLedger(dbtest.Connect(t))

	require.NoError(t, l.Atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		return repo.Balances.Credit(ctx, token, owner, math.MaxUint64)
	}))
	err := l.Atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		return repo.Balances.Credit(ctx, token, owner, 1)
	})
	require.ErrorIs(t, err, db.ErrOverflow)

	err = l.Atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		require.NoError(t, repo.Balances.Debit(ctx, token, owner, 1<<63))
		return repo.Vaults.Debit(ctx, token, 1)
	})
	require.ErrorIs(t, err, db.ErrInsufficientFunds)

	require.NoError(t, l.View(ctx, func(ctx context.Context, repo *repository.Repo) error {
		balance, err := repo.Balances.Get(ctx, token, owner)
		require.NoError(t, err)
		require.Equal(t, uint64(math.MaxUint64), balance.Amount)
		return nil
	}))
}

func TestPostgresLedger_GuardianSets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := repository.NewPostgresLedger(dbtest.Connect(t))
	keys := []common.Address{common.HexToAddress("0x01"), common.HexToAddress("0x02"), common.HexToAddress("0x03")}
	created := time.Unix(1_700_000_000, 0).UTC()

	require.NoError(t, l.Atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		return repo.GuardianSets.Create(ctx, &entity.GuardianSet{Index: 0, Keys: keys, CreationTime: created})
	}))
	require.NoError(t, l.Atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		return repo.GuardianSets.SetExpiration(ctx, 0, created.Add(time.Hour))
	}))
	err := l.Atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		return repo.GuardianSets.SetExpiration(ctx, 0, created.Add(2*time.Hour))
	})
	require.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, l.View(ctx, func(ctx context.Context, repo *repository.Repo) error {
		set, err := repo.GuardianSets.GetByIndex(ctx, 0)
		require.NoError(t, err)
		require.Equal(t, keys, set.Keys)
		require.NotNil(t, set.ExpirationTime)
		require.True(t, set.ExpirationTime.Equal(created.Add(time.Hour)))
		return nil
	}))
}

func TestPostgresLedger_SerializationConflict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	conn := dbtest.Connect(t)
	l := repository.NewPostgresLedger(conn)
	require.NoError(t, l.Atomic(ctx, func(ctx context.Context, repo *repository.Repo) error {
		return repo.Balances.Credit(ctx, token, owner, 10)
	}))

	// both transactions read the balance before either of them writes it
	readThenCredit := func(run func(fn func(ctx context.Context, repo *repository.Repo) error) error) []error {
		var ready, done sync.WaitGroup
		ready.Add(2)
		done.Add(2)
		errs := make([]error, 2)
		for i := range errs {
			var once sync.Once
			go func(i int) {
				defer done.Done()
				errs[i] = run(func(ctx context.Context, repo *repository.Repo) error {
					if _, err := repo.Balances.Get(ctx, token, owner); err != nil {
						return err
					}
					once.Do(ready.Done)
					ready.Wait()
					return repo.Balances.Credit(ctx, token, owner, 1)
				})
			}(i)
		}
		done.Wait()
		return errs
	}

	errs := readThenCredit(func(fn func(ctx context.Context, repo *repository.Repo) error) error {
		return conn.RunInTx(ctx, false, func(ctx context.Context, q db.Querier) error {
			return fn(ctx, repository.NewRepo(q))
		})
	})
	conflicts := 0
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, db.ErrConflict)
			conflicts++
		}
	}
	require.Equal(t, 1, conflicts)

	errs = readThenCredit(func(fn func(ctx context.Context, repo *repository.Repo) error) error {
		return l.Atomic(ctx, fn)
	})
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	require.NoError(t, l.View(ctx, func(ctx context.Context, repo *repository.Repo) error {
		balance, err := repo.Balances.Get(ctx, token, owner)
		require.NoError(t, err)
		require.Equal(t, uint64(13), balance.Amount)
		return nil
	}))
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/entity"
	"github.com/omni/vaa-bridge/repository/postgres"
	"github.com/omni/vaa-bridge/utils"
)

type Repo struct {
	BridgeState   entity.BridgeStateRepo
	GuardianSets  entity.GuardianSetsRepo
	Sequences     entity.MessageSequencesRepo
	Messages      entity.PublishedMessagesRepo
	PostedVAAs    entity.PostedVAAsRepo
	TokenBindings entity.TokenBindingsRepo
	Vaults        entity.CustodyVaultsRepo
	Balances      entity.BalancesRepo
	Emitters      entity.RegisteredEmittersRepo
}

func NewRepo(q db.Querier) *Repo {
	return &Repo{
		BridgeState:   postgres.NewBridgeStateRepo("bridge_state", q),
		GuardianSets:  postgres.NewGuardianSetsRepo("guardian_sets", q),
		Sequences:     postgres.NewMessageSequencesRepo("message_sequences", q),
		Messages:      postgres.NewPublishedMessagesRepo("published_messages", q),
		PostedVAAs:    postgres.NewPostedVAAsRepo("posted_vaas", q),
		TokenBindings: postgres.NewTokenBindingsRepo("token_bindings", q),
		Vaults:        postgres.NewCustodyVaultsRepo("custody_vaults", q),
		Balances:      postgres.NewBalancesRepo("balances", q),
		Emitters:      postgres.NewRegisteredEmittersRepo("registered_emitters", q),
	}
}

// Ledger runs a unit of work against a consistent view of the bridge state.
// Everything fn writes through repo inside Atomic becomes visible at once when
// fn returns nil, and is discarded otherwise.
type Ledger interface {
	Atomic(ctx context.Context, fn func(ctx context.Context, repo *Repo) error) error
	View(ctx context.Context, fn func(ctx context.Context, repo *Repo) error) error
}

const (
	maxTxAttempts = 3
	txRetryDelay  = 10 * time.Millisecond
)

type postgresLedger struct {
	db *db.DB
}

func NewPostgresLedger(db *db.DB) Ledger {
	return &postgresLedger{db: db}
}

// Atomic retries serialization failures, fn must not have side effects outside repo.
func (l *postgresLedger) Atomic(ctx context.Context, fn func(ctx context.Context, repo *Repo) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = l.db.RunInTx(ctx, false, func(ctx context.Context, q db.Querier) error {
			return fn(ctx, NewRepo(q))
		})
		if !errors.Is(err, db.ErrConflict) {
			return err
		}
		db.TxConflicts.Inc()
		if attempt+1 < maxTxAttempts {
			if err2 := utils.Backoff(ctx, attempt, txRetryDelay); err2 != nil {
				return err2
			}
		}
	}
	return err
}

func (l *postgresLedger) View(ctx context.Context, fn func(ctx context.Context, repo *Repo) error) error {
	return l.db.RunInTx(ctx, true, func(ctx context.Context, q db.Querier) error {
		return fn(ctx, NewRepo(q))
	})
}

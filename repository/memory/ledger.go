// Package memory keeps the bridge ledger in process. Every table is an ordered
// google/btree; a unit of work mutates a copy-on-write clone of all trees that
// replaces the committed state only when the unit succeeds.
package memory

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/btree"

	"github.com/omni/vaa-bridge/entity"
	"github.com/omni/vaa-bridge/repository"
)

const degree = 16

type state struct {
	bridge    *entity.BridgeState
	sets      *btree.BTreeG[entity.GuardianSet]
	sequences *btree.BTreeG[sequence]
	messages  *btree.BTreeG[entity.PublishedMessage]
	vaas      *btree.BTreeG[entity.PostedVAA]
	bindings  *btree.BTreeG[entity.TokenBinding]
	vaults    *btree.BTreeG[entity.CustodyVault]
	balances  *btree.BTreeG[entity.Balance]
	emitters  *btree.BTreeG[entity.RegisteredEmitter]
	now       func() time.Time
}

type sequence struct {
	emitter common.Hash
	next    uint64
}

func newState(now func() time.Time) *state {
	return &state{
		sets: btree.NewG(degree, func(a, b entity.GuardianSet) bool {
			return a.Index < b.Index
		}),
		sequences: btree.NewG(degree, func(a, b sequence) bool {
			return bytes.Compare(a.emitter[:], b.emitter[:]) < 0
		}),
		messages: btree.NewG(degree, func(a, b entity.PublishedMessage) bool {
			if c := bytes.Compare(a.EmitterAddress[:], b.EmitterAddress[:]); c != 0 {
				return c < 0
			}
			return a.Sequence < b.Sequence
		}),
		vaas: btree.NewG(degree, func(a, b entity.PostedVAA) bool {
			return lessVAAKey(a.VAAKey, b.VAAKey)
		}),
		bindings: btree.NewG(degree, func(a, b entity.TokenBinding) bool {
			return lessBindingKey(a.TokenBindingKey, b.TokenBindingKey)
		}),
		vaults: btree.NewG(degree, func(a, b entity.CustodyVault) bool {
			return bytes.Compare(a.Token[:], b.Token[:]) < 0
		}),
		balances: btree.NewG(degree, func(a, b entity.Balance) bool {
			if c := bytes.Compare(a.Token[:], b.Token[:]); c != 0 {
				return c < 0
			}
			return bytes.Compare(a.Owner[:], b.Owner[:]) < 0
		}),
		emitters: btree.NewG(degree, func(a, b entity.RegisteredEmitter) bool {
			return a.Chain < b.Chain
		}),
		now: now,
	}
}

func lessVAAKey(a, b entity.VAAKey) bool {
	if a.EmitterChain != b.EmitterChain {
		return a.EmitterChain < b.EmitterChain
	}
	if c := bytes.Compare(a.EmitterAddress[:], b.EmitterAddress[:]); c != 0 {
		return c < 0
	}
	return a.Sequence < b.Sequence
}

func lessBindingKey(a, b entity.TokenBindingKey) bool {
	if a.SourceChain != b.SourceChain {
		return a.SourceChain < b.SourceChain
	}
	if c := bytes.Compare(a.SourceToken[:], b.SourceToken[:]); c != 0 {
		return c < 0
	}
	if a.TargetChain != b.TargetChain {
		return a.TargetChain < b.TargetChain
	}
	return bytes.Compare(a.TargetToken[:], b.TargetToken[:]) < 0
}

func (s *state) clone() *state {
	res := *s
	if s.bridge != nil {
		bridge := *s.bridge
		res.bridge = &bridge
	}
	res.sets = s.sets.Clone()
	res.sequences = s.sequences.Clone()
	res.messages = s.messages.Clone()
	res.vaas = s.vaas.Clone()
	res.bindings = s.bindings.Clone()
	res.vaults = s.vaults.Clone()
	res.balances = s.balances.Clone()
	res.emitters = s.emitters.Clone()
	return &res
}

func (s *state) repo() *repository.Repo {
	return &repository.Repo{
		BridgeState:   (*bridgeStateRepo)(s),
		GuardianSets:  (*guardianSetsRepo)(s),
		Sequences:     (*sequencesRepo)(s),
		Messages:      (*messagesRepo)(s),
		PostedVAAs:    (*postedVAAsRepo)(s),
		TokenBindings: (*tokenBindingsRepo)(s),
		Vaults:        (*vaultsRepo)(s),
		Balances:      (*balancesRepo)(s),
		Emitters:      (*emittersRepo)(s),
	}
}

// Ledger serializes units of work with a mutex, so Atomic never reports a conflict.
// Cloning a tree marks it copy-on-write, hence readers take the exclusive lock too.
type Ledger struct {
	mu    sync.Mutex
	state *state
}

type Option func(*state)

// WithClock overrides the time source used for created_at style columns.
func WithClock(now func() time.Time) Option {
	return func(s *state) {
		s.now = now
	}
}

func NewLedger(opts ...Option) *Ledger {
	s := newState(time.Now)
	for _, opt := range opts {
		opt(s)
	}
	return &Ledger{state: s}
}

func (l *Ledger) Atomic(ctx context.Context, fn func(ctx context.Context, repo *repository.Repo) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	draft := l.state.clone()
	if err := fn(ctx, draft.repo()); err != nil {
		return err
	}
	l.state = draft
	return nil
}

// View works on a throwaway clone, writes made by fn are dropped.
func (l *Ledger) View(ctx context.Context, fn func(ctx context.Context, repo *repository.Repo) error) error {
	l.mu.Lock()
	snapshot := l.state.clone()
	l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, snapshot.repo())
}

var _ repository.Ledger = (*Ledger)(nil)

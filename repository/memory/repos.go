package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/entity"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

type bridgeStateRepo state

func (s *bridgeStateRepo) Create(_ context.Context, bs *entity.BridgeState) error {
	if s.bridge != nil {
		return fmt.Errorf("bridge state: %w", db.ErrAlreadyExists)
	}
	res := *bs
	res.CreatedAt = timePtr(s.now())
	res.UpdatedAt = res.CreatedAt
	s.bridge = &res
	return nil
}

func (s *bridgeStateRepo) Get(_ context.Context) (*entity.BridgeState, error) {
	if s.bridge == nil {
		return nil, fmt.Errorf("bridge state: %w", db.ErrNotFound)
	}
	res := *s.bridge
	return &res, nil
}

func (s *bridgeStateRepo) Update(_ context.Context, bs *entity.BridgeState) error {
	if s.bridge == nil {
		return fmt.Errorf("bridge state: %w", db.ErrNotFound)
	}
	res := *bs
	res.CreatedAt = s.bridge.CreatedAt
	res.UpdatedAt = timePtr(s.now())
	s.bridge = &res
	return nil
}

type guardianSetsRepo state

func copyGuardianSet(set entity.GuardianSet) *entity.GuardianSet {
	set.Keys = append([]common.Address{}, set.Keys...)
	return &set
}

func (s *guardianSetsRepo) Create(_ context.Context, set *entity.GuardianSet) error {
	if s.sets.Has(*set) {
		return fmt.Errorf("guardian set %d: %w", set.Index, db.ErrAlreadyExists)
	}
	s.sets.ReplaceOrInsert(*copyGuardianSet(*set))
	return nil
}

func (s *guardianSetsRepo) GetByIndex(_ context.Context, index uint32) (*entity.GuardianSet, error) {
	set, ok := s.sets.Get(entity.GuardianSet{Index: index})
	if !ok {
		return nil, fmt.Errorf("guardian set %d: %w", index, db.ErrNotFound)
	}
	return copyGuardianSet(set), nil
}

func (s *guardianSetsRepo) SetExpiration(_ context.Context, index uint32, expiration time.Time) error {
	set, ok := s.sets.Get(entity.GuardianSet{Index: index})
	if !ok || set.ExpirationTime != nil {
		return fmt.Errorf("active guardian set %d: %w", index, db.ErrNotFound)
	}
	set.ExpirationTime = timePtr(expiration)
	s.sets.ReplaceOrInsert(set)
	return nil
}

func (s *guardianSetsRepo) FindAll(_ context.Context) ([]*entity.GuardianSet, error) {
	res := make([]*entity.GuardianSet, 0, s.sets.Len())
	s.sets.Ascend(func(set entity.GuardianSet) bool {
		res = append(res, copyGuardianSet(set))
		return true
	})
	return res, nil
}

type sequencesRepo state

func (s *sequencesRepo) Next(_ context.Context, emitter common.Hash) (uint64, error) {
	seq, _ := s.sequences.Get(sequence{emitter: emitter})
	if seq.next == math.MaxUint64 {
		return 0, fmt.Errorf("sequence of emitter %s: %w", emitter, db.ErrOverflow)
	}
	s.sequences.ReplaceOrInsert(sequence{emitter: emitter, next: seq.next + 1})
	return seq.next, nil
}

func (s *sequencesRepo) Peek(_ context.Context, emitter common.Hash) (uint64, error) {
	seq, _ := s.sequences.Get(sequence{emitter: emitter})
	return seq.next, nil
}

type messagesRepo state

func copyMessage(msg entity.PublishedMessage) *entity.PublishedMessage {
	msg.Payload = append([]byte{}, msg.Payload...)
	return &msg
}

func (s *messagesRepo) Create(_ context.Context, msg *entity.PublishedMessage) error {
	if s.messages.Has(*msg) {
		return fmt.Errorf("message %s/%d: %w", msg.EmitterAddress, msg.Sequence, db.ErrAlreadyExists)
	}
	res := copyMessage(*msg)
	res.CreatedAt = timePtr(s.now())
	s.messages.ReplaceOrInsert(*res)
	return nil
}

func (s *messagesRepo) Get(_ context.Context, emitter common.Hash, sequence uint64) (*entity.PublishedMessage, error) {
	msg, ok := s.messages.Get(entity.PublishedMessage{EmitterAddress: emitter, Sequence: sequence})
	if !ok {
		return nil, fmt.Errorf("message %s/%d: %w", emitter, sequence, db.ErrNotFound)
	}
	return copyMessage(msg), nil
}

func (s *messagesRepo) FindByEmitter(_ context.Context, emitter common.Hash, fromSequence uint64, limit uint64) ([]*entity.PublishedMessage, error) {
	res := make([]*entity.PublishedMessage, 0, 16)
	pivot := entity.PublishedMessage{EmitterAddress: emitter, Sequence: fromSequence}
	s.messages.AscendGreaterOrEqual(pivot, func(msg entity.PublishedMessage) bool {
		if msg.EmitterAddress != emitter || uint64(len(res)) >= limit {
			return false
		}
		res = append(res, copyMessage(msg))
		return true
	})
	return res, nil
}

type postedVAAsRepo state

func copyVAA(v entity.PostedVAA) *entity.PostedVAA {
	v.Payload = append([]byte{}, v.Payload...)
	return &v
}

func (s *postedVAAsRepo) Create(_ context.Context, v *entity.PostedVAA) error {
	if s.vaas.Has(*v) {
		return fmt.Errorf("posted vaa %s: %w", v.VAAKey, db.ErrAlreadyExists)
	}
	res := copyVAA(*v)
	res.CreatedAt = timePtr(s.now())
	res.UpdatedAt = res.CreatedAt
	s.vaas.ReplaceOrInsert(*res)
	return nil
}

func (s *postedVAAsRepo) Get(_ context.Context, key entity.VAAKey) (*entity.PostedVAA, error) {
	v, ok := s.vaas.Get(entity.PostedVAA{VAAKey: key})
	if !ok {
		return nil, fmt.Errorf("posted vaa %s: %w", key, db.ErrNotFound)
	}
	return copyVAA(v), nil
}

func (s *postedVAAsRepo) MarkConsumed(_ context.Context, key entity.VAAKey) error {
	v, ok := s.vaas.Get(entity.PostedVAA{VAAKey: key})
	if !ok {
		return fmt.Errorf("posted vaa %s: %w", key, db.ErrNotFound)
	}
	if v.Consumed {
		return fmt.Errorf("vaa %s: %w", key, db.ErrAlreadyConsumed)
	}
	v.Consumed = true
	v.UpdatedAt = timePtr(s.now())
	s.vaas.ReplaceOrInsert(v)
	return nil
}

func (s *postedVAAsRepo) FindUnconsumed(_ context.Context, postedBefore time.Time, limit uint64) ([]*entity.PostedVAA, error) {
	res := make([]*entity.PostedVAA, 0, 10)
	s.vaas.Ascend(func(v entity.PostedVAA) bool {
		if !v.Consumed && v.CreatedAt.Before(postedBefore) {
			res = append(res, copyVAA(v))
		}
		return true
	})
	sortByCreation(res)
	if uint64(len(res)) > limit {
		res = res[:limit]
	}
	return res, nil
}

func sortByCreation(vaas []*entity.PostedVAA) {
	sort.SliceStable(vaas, func(i, j int) bool {
		return vaas[i].CreatedAt.Before(*vaas[j].CreatedAt)
	})
}

type tokenBindingsRepo state

func (s *tokenBindingsRepo) Create(_ context.Context, binding *entity.TokenBinding) error {
	if s.bindings.Has(*binding) {
		return fmt.Errorf("token binding %s: %w", binding.TokenBindingKey, db.ErrAlreadyExists)
	}
	s.bindings.ReplaceOrInsert(*binding)
	return nil
}

func (s *tokenBindingsRepo) Get(_ context.Context, key entity.TokenBindingKey) (*entity.TokenBinding, error) {
	binding, ok := s.bindings.Get(entity.TokenBinding{TokenBindingKey: key})
	if !ok {
		return nil, fmt.Errorf("token binding %s: %w", key, db.ErrNotFound)
	}
	return &binding, nil
}

func (s *tokenBindingsRepo) Update(_ context.Context, binding *entity.TokenBinding) error {
	old, ok := s.bindings.Get(*binding)
	if !ok {
		return fmt.Errorf("token binding %s: %w", binding.TokenBindingKey, db.ErrNotFound)
	}
	res := *binding
	res.CreatedAt = old.CreatedAt
	s.bindings.ReplaceOrInsert(res)
	return nil
}

func (s *tokenBindingsRepo) FindBySource(_ context.Context, sourceChain uint16, sourceToken common.Hash, targetChain uint16) ([]*entity.TokenBinding, error) {
	res := make([]*entity.TokenBinding, 0, 2)
	pivot := entity.TokenBinding{TokenBindingKey: entity.TokenBindingKey{
		SourceChain: sourceChain,
		SourceToken: sourceToken,
		TargetChain: targetChain,
	}}
	s.bindings.AscendGreaterOrEqual(pivot, func(binding entity.TokenBinding) bool {
		if binding.SourceChain != sourceChain || binding.SourceToken != sourceToken || binding.TargetChain != targetChain {
			return false
		}
		res = append(res, &binding)
		return true
	})
	return res, nil
}

func (s *tokenBindingsRepo) FindAll(_ context.Context) ([]*entity.TokenBinding, error) {
	res := make([]*entity.TokenBinding, 0, s.bindings.Len())
	s.bindings.Ascend(func(binding entity.TokenBinding) bool {
		res = append(res, &binding)
		return true
	})
	return res, nil
}

type vaultsRepo state

func (s *vaultsRepo) Get(_ context.Context, token common.Hash) (*entity.CustodyVault, error) {
	vault, _ := s.vaults.Get(entity.CustodyVault{Token: token})
	vault.Token = token
	return &vault, nil
}

func (s *vaultsRepo) Credit(_ context.Context, token common.Hash, amount uint64) error {
	vault, _ := s.vaults.Get(entity.CustodyVault{Token: token})
	if vault.Amount > math.MaxUint64-amount {
		return fmt.Errorf("custody vault %s: %w", token, db.ErrOverflow)
	}
	s.vaults.ReplaceOrInsert(entity.CustodyVault{Token: token, Amount: vault.Amount + amount, UpdatedAt: timePtr(s.now())})
	return nil
}

func (s *vaultsRepo) Debit(_ context.Context, token common.Hash, amount uint64) error {
	vault, ok := s.vaults.Get(entity.CustodyVault{Token: token})
	if !ok || vault.Amount < amount {
		return fmt.Errorf("can't debit %d from custody vault %s: %w", amount, token, db.ErrInsufficientFunds)
	}
	s.vaults.ReplaceOrInsert(entity.CustodyVault{Token: token, Amount: vault.Amount - amount, UpdatedAt: timePtr(s.now())})
	return nil
}

type balancesRepo state

func (s *balancesRepo) Get(_ context.Context, token, owner common.Hash) (*entity.Balance, error) {
	balance, _ := s.balances.Get(entity.Balance{Token: token, Owner: owner})
	balance.Token, balance.Owner = token, owner
	return &balance, nil
}

func (s *balancesRepo) Credit(_ context.Context, token, owner common.Hash, amount uint64) error {
	balance, _ := s.balances.Get(entity.Balance{Token: token, Owner: owner})
	if balance.Amount > math.MaxUint64-amount {
		return fmt.Errorf("balance of %s in %s: %w", owner, token, db.ErrOverflow)
	}
	s.balances.ReplaceOrInsert(entity.Balance{Token: token, Owner: owner, Amount: balance.Amount + amount, UpdatedAt: timePtr(s.now())})
	return nil
}

func (s *balancesRepo) Debit(_ context.Context, token, owner common.Hash, amount uint64) error {
	balance, ok := s.balances.Get(entity.Balance{Token: token, Owner: owner})
	if !ok || balance.Amount < amount {
		return fmt.Errorf("can't debit %d from balance of %s in %s: %w", amount, owner, token, db.ErrInsufficientFunds)
	}
	s.balances.ReplaceOrInsert(entity.Balance{Token: token, Owner: owner, Amount: balance.Amount - amount, UpdatedAt: timePtr(s.now())})
	return nil
}

type emittersRepo state

func (s *emittersRepo) Create(_ context.Context, emitter *entity.RegisteredEmitter) error {
	if s.emitters.Has(*emitter) {
		return fmt.Errorf("emitter for chain %d: %w", emitter.Chain, db.ErrAlreadyExists)
	}
	res := *emitter
	res.CreatedAt = timePtr(s.now())
	s.emitters.ReplaceOrInsert(res)
	return nil
}

func (s *emittersRepo) GetByChain(_ context.Context, chain uint16) (*entity.RegisteredEmitter, error) {
	emitter, ok := s.emitters.Get(entity.RegisteredEmitter{Chain: chain})
	if !ok {
		return nil, fmt.Errorf("emitter for chain %d: %w", chain, db.ErrNotFound)
	}
	return &emitter, nil
}

func (s *emittersRepo) FindAll(_ context.Context) ([]*entity.RegisteredEmitter, error) {
	res := make([]*entity.RegisteredEmitter, 0, s.emitters.Len())
	s.emitters.Ascend(func(emitter entity.RegisteredEmitter) bool {
		res = append(res, &emitter)
		return true
	})
	return res, nil
}

package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// GuardianSet is immutable once created, except for ExpirationTime which is
// set exactly once when the set is superseded.
type GuardianSet struct {
	Index          uint32           `db:"index"`
	Keys           []common.Address `db:"-"`
	CreationTime   time.Time        `db:"creation_time"`
	ExpirationTime *time.Time       `db:"expiration_time"`
}

func (s *GuardianSet) IsActive() bool {
	return s.ExpirationTime == nil
}

// ValidAt reports whether signatures made by the set are still acceptable at now.
func (s *GuardianSet) ValidAt(now time.Time) bool {
	return s.ExpirationTime == nil || now.Before(*s.ExpirationTime)
}

type GuardianSetsRepo interface {
	Create(ctx context.Context, set *GuardianSet) error
	GetByIndex(ctx context.Context, index uint32) (*GuardianSet, error)
	SetExpiration(ctx context.Context, index uint32, expiration time.Time) error
	FindAll(ctx context.Context) ([]*GuardianSet, error)
}

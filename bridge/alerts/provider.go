package alerts

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type UnconsumedTransfer struct {
	EmitterChain   uint16      `db:"emitter_chain" json:"emitter_chain,string"`
	EmitterAddress common.Hash `db:"emitter_address" json:"emitter_address"`
	Sequence       uint64      `db:"sequence" json:"sequence,string"`
	Age            int64       `db:"age" json:"_value,string"`
}

type ExpiringGuardianSet struct {
	Index     uint32 `db:"index" json:"guardian_set_index,string"`
	ExpiresIn int64  `db:"expires_in" json:"_value,string"`
}

// Provider evaluates alert conditions over the bridge ledger.
type Provider interface {
	// FindUnconsumedTransfers returns VAAs of registered token bridge emitters
	// that were posted at least params.MinAge ago and never completed.
	FindUnconsumedTransfers(ctx context.Context, params *AlertJobParams) (interface{}, error)
	// FindExpiringGuardianSets returns superseded guardian sets whose expiration is still ahead.
	FindExpiringGuardianSets(ctx context.Context, params *AlertJobParams) (interface{}, error)
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

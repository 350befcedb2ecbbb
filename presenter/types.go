package presenter

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/omni/vaa-bridge/entity"
)

type StateResult struct {
	ChainID                uint16         `json:"chainId"`
	TokenBridgeEmitter     common.Hash    `json:"tokenBridgeEmitter"`
	ActiveGuardianSetIndex uint32         `json:"activeGuardianSetIndex"`
	MessageFee             uint64         `json:"messageFee,string"`
	CollectedFees          uint64         `json:"collectedFees,string"`
	Paused                 bool           `json:"paused"`
	Authority              common.Address `json:"authority"`
}

type GuardianSetResult struct {
	Index          uint32           `json:"index"`
	Keys           []common.Address `json:"keys"`
	Quorum         int              `json:"quorum"`
	CreationTime   time.Time        `json:"creationTime"`
	ExpirationTime *time.Time       `json:"expirationTime,omitempty"`
}

type EmitterResult struct {
	Chain   uint16      `json:"chain"`
	Address common.Hash `json:"address"`
}

type MessageResult struct {
	EmitterAddress   common.Hash   `json:"emitterAddress"`
	Sequence         uint64        `json:"sequence,string"`
	Nonce            uint32        `json:"nonce"`
	Payload          hexutil.Bytes `json:"payload"`
	ConsistencyLevel uint8         `json:"consistencyLevel"`
	Timestamp        time.Time     `json:"timestamp"`
}

type SequenceResult struct {
	EmitterAddress common.Hash `json:"emitterAddress"`
	NextSequence   uint64      `json:"nextSequence,string"`
}

type PostedVAAResult struct {
	entity.VAAKey
	Version          uint8         `json:"version"`
	GuardianSetIndex uint32        `json:"guardianSetIndex"`
	Timestamp        time.Time     `json:"timestamp"`
	Nonce            uint32        `json:"nonce"`
	ConsistencyLevel uint8         `json:"consistencyLevel"`
	Payload          hexutil.Bytes `json:"payload"`
	Digest           common.Hash   `json:"digest"`
	Consumed         bool          `json:"consumed"`
}

type TokenBindingResult struct {
	entity.TokenBindingKey
	RateNumerator         uint64          `json:"rateNumerator,string"`
	RateDenominator       uint64          `json:"rateDenominator,string"`
	Enabled               bool            `json:"enabled"`
	UseExternalPrice      bool            `json:"useExternalPrice"`
	ExternalPriceProvider *common.Address `json:"externalPriceProvider,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

type VaultResult struct {
	Token  common.Hash `json:"token"`
	Amount uint64      `json:"amount,string"`
}

type BalanceResult struct {
	Token  common.Hash `json:"token"`
	Owner  common.Hash `json:"owner"`
	Amount uint64      `json:"amount,string"`
}

type PostVAARequest struct {
	VAA hexutil.Bytes `json:"vaa"`
}

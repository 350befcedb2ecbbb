package presenter

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/vaa-bridge/entity"
	"github.com/omni/vaa-bridge/vaa"
)

func guardianSetToResult(set *entity.GuardianSet) *GuardianSetResult {
	return &GuardianSetResult{
		Index:          set.Index,
		Keys:           set.Keys,
		Quorum:         vaa.CalculateQuorum(len(set.Keys)),
		CreationTime:   set.CreationTime,
		ExpirationTime: set.ExpirationTime,
	}
}

func messageToResult(msg *entity.PublishedMessage) *MessageResult {
	return &MessageResult{
		EmitterAddress:   msg.EmitterAddress,
		Sequence:         msg.Sequence,
		Nonce:            msg.Nonce,
		Payload:          msg.Payload,
		ConsistencyLevel: msg.ConsistencyLevel,
		Timestamp:        msg.Timestamp,
	}
}

func postedVAAToResult(v *entity.PostedVAA) *PostedVAAResult {
	return &PostedVAAResult{
		VAAKey:           v.VAAKey,
		Version:          v.Version,
		GuardianSetIndex: v.GuardianSetIndex,
		Timestamp:        v.Timestamp,
		Nonce:            v.Nonce,
		ConsistencyLevel: v.ConsistencyLevel,
		Payload:          v.Payload,
		Digest:           v.Digest,
		Consumed:         v.Consumed,
	}
}

func tokenBindingToResult(b *entity.TokenBinding) *TokenBindingResult {
	res := &TokenBindingResult{
		TokenBindingKey:  b.TokenBindingKey,
		RateNumerator:    b.RateNumerator,
		RateDenominator:  b.RateDenominator,
		Enabled:          b.Enabled,
		UseExternalPrice: b.UseExternalPrice,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
	if b.ExternalPriceProvider != (common.Address{}) {
		provider := b.ExternalPriceProvider
		res.ExternalPriceProvider = &provider
	}
	return res
}

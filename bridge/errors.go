package bridge

import (
	"errors"

	"github.com/omni/vaa-bridge/vaa"
)

var (
	ErrInvalidVaa                 = errors.New("invalid vaa")
	ErrInsufficientSignatures     = vaa.ErrInsufficientSignatures
	ErrInvalidSignature           = vaa.ErrInvalidSignature
	ErrInvalidGuardianSet         = errors.New("invalid guardian set")
	ErrGuardianSetExpired         = errors.New("guardian set expired")
	ErrStaleVaa                   = errors.New("vaa timestamp outside of accepted window")
	ErrVaaAlreadyPosted           = errors.New("vaa already posted")
	ErrVaaNotPosted               = errors.New("vaa not posted")
	ErrVaaAlreadyConsumed         = errors.New("vaa already consumed")
	ErrBridgePaused               = errors.New("bridge paused")
	ErrInsufficientFee            = errors.New("insufficient fee")
	ErrPayloadTooLarge            = errors.New("payload too large")
	ErrInvalidEmitter             = errors.New("invalid emitter")
	ErrUnknownEmitter             = errors.New("unknown emitter")
	ErrEmitterExists              = errors.New("emitter already registered")
	ErrTokenBindingNotFound       = errors.New("token binding not found")
	ErrTokenBindingNotEnabled     = errors.New("token binding not enabled")
	ErrTokenBindingExists         = errors.New("token binding already exists")
	ErrZeroDenominator            = errors.New("zero denominator")
	ErrInvalidExchangeRate        = errors.New("invalid exchange rate")
	ErrTargetTokenMismatch        = errors.New("target token mismatch")
	ErrInvalidTargetChain         = errors.New("invalid target chain")
	ErrInsufficientCustodyBalance = errors.New("insufficient custody balance")
	ErrInsufficientBalance        = errors.New("insufficient balance")
	ErrInvalidAmount              = errors.New("invalid amount")
	ErrAmountOverflow             = errors.New("amount overflow")
	ErrInvalidPayload             = errors.New("invalid payload")
	ErrInvalidGovernancePayload   = errors.New("invalid governance payload")
	ErrPriceProvider              = errors.New("price provider failure")
	ErrUnauthorized               = errors.New("unauthorized")
	ErrAlreadyInitialized         = errors.New("bridge already initialized")
	ErrNotInitialized             = errors.New("bridge not initialized")
	ErrNotFound                   = errors.New("not found")
	ErrConflict                   = errors.New("conflicting concurrent operation")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidVaa, "invalid_vaa"},
	{ErrInsufficientSignatures, "insufficient_signatures"},
	{ErrInvalidSignature, "invalid_signature"},
	{ErrInvalidGuardianSet, "invalid_guardian_set"},
	{ErrGuardianSetExpired, "guardian_set_expired"},
	{ErrStaleVaa, "stale_vaa"},
	{ErrVaaAlreadyPosted, "vaa_already_posted"},
	{ErrVaaNotPosted, "vaa_not_posted"},
	{ErrVaaAlreadyConsumed, "vaa_already_consumed"},
	{ErrBridgePaused, "bridge_paused"},
	{ErrInsufficientFee, "insufficient_fee"},
	{ErrPayloadTooLarge, "payload_too_large"},
	{ErrInvalidEmitter, "invalid_emitter"},
	{ErrUnknownEmitter, "unknown_emitter"},
	{ErrEmitterExists, "emitter_exists"},
	{ErrTokenBindingNotFound, "token_binding_not_found"},
	{ErrTokenBindingNotEnabled, "token_binding_not_enabled"},
	{ErrTokenBindingExists, "token_binding_exists"},
	{ErrZeroDenominator, "zero_denominator"},
	{ErrInvalidExchangeRate, "invalid_exchange_rate"},
	{ErrTargetTokenMismatch, "target_token_mismatch"},
	{ErrInvalidTargetChain, "invalid_target_chain"},
	{ErrInsufficientCustodyBalance, "insufficient_custody_balance"},
	{ErrInsufficientBalance, "insufficient_balance"},
	{ErrInvalidAmount, "invalid_amount"},
	{ErrAmountOverflow, "amount_overflow"},
	{ErrInvalidPayload, "invalid_payload"},
	{ErrInvalidGovernancePayload, "invalid_governance_payload"},
	{ErrPriceProvider, "price_provider"},
	{ErrUnauthorized, "unauthorized"},
	{ErrAlreadyInitialized, "already_initialized"},
	{ErrNotInitialized, "not_initialized"},
	{ErrNotFound, "not_found"},
	{ErrConflict, "conflict"},
}

// ErrorCode returns a stable snake_case identifier of a bridge failure,
// "ok" for nil and "internal" for anything unrecognised.
func ErrorCode(err error) string {
	if err == nil {
		return "ok"
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}

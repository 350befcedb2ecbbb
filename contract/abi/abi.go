package abi

//nolint:golint
import (
	_ "embed"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed price_oracle.json
var priceOracleJSONABI string

const (
	GetRate = "getRate"

	RateUpdated = "event RateUpdated(uint16 indexed sourceChain, bytes32 indexed sourceToken, uint16 targetChain, bytes32 targetToken, uint64 numerator, uint64 denominator)"
)

var PriceOracleABI = MustReadABI(priceOracleJSONABI)

func MustReadABI(rawJSON string) abi.ABI {
	res, err := abi.JSON(strings.NewReader(rawJSON))
	if err != nil {
		panic(err)
	}
	return res
}

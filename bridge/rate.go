package bridge

import (
	"fmt"

	"github.com/holiman/uint256"
)

// ApplyRate returns floor(amount * num / denom). The product is computed in
// 256 bits, only a result that does not fit 64 bits is an overflow.
func ApplyRate(amount, num, denom uint64) (uint64, error) {
	if denom == 0 {
		return 0, ErrZeroDenominator
	}
	res := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(num))
	res.Div(res, uint256.NewInt(denom))
	if !res.IsUint64() {
		return 0, fmt.Errorf("%w: %d * %d / %d", ErrAmountOverflow, amount, num, denom)
	}
	return res.Uint64(), nil
}

package crowdsale

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// MaxAmount 金额上限 2^256-1
var MaxAmount = decimal.NewFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)), 0)

var hundred = decimal.NewFromInt(100)

// ValidAmount 金额必须为非负整数且不超过 MaxAmount
func ValidAmount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Truncate(0)) && d.LessThanOrEqual(MaxAmount)
}

func checkAmount(name string, d decimal.Decimal) error {
	if !ValidAmount(d) {
		return fmt.Errorf("%w: %s must be a non-negative integer not above 2^256-1", ErrInvalidParameter, name)
	}
	return nil
}

func checkedAdd(a, b decimal.Decimal) (decimal.Decimal, error) {
	sum := a.Add(b)
	if sum.GreaterThan(MaxAmount) {
		return decimal.Zero, ErrArithmeticOverflow
	}
	return sum, nil
}

func checkedMul(a, b decimal.Decimal) (decimal.Decimal, error) {
	product := a.Mul(b)
	if product.GreaterThan(MaxAmount) {
		return decimal.Zero, ErrArithmeticOverflow
	}
	return product, nil
}

// percentOf 返回 amount*rate/100, 向零截断
func percentOf(amount decimal.Decimal, rate uint8) decimal.Decimal {
	q, _ := amount.Mul(decimal.NewFromInt(int64(rate))).QuoRem(hundred, 0)
	return q
}

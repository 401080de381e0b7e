package fixedpoint

import "github.com/holiman/uint256"

// MulDivFloor returns floor(a×b÷c) using a 256-bit intermediate so the
// product never wraps.
func MulDivFloor(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, ErrDivideByZero
	}
	product, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(a), uint256.NewInt(b))
	if overflow {
		return 0, ErrArithmeticOverflow
	}
	quotient := new(uint256.Int).Div(product, uint256.NewInt(c))
	if !quotient.IsUint64() {
		return 0, ErrArithmeticOverflow
	}
	return quotient.Uint64(), nil
}

// MulChecked returns a×b or ErrArithmeticOverflow.
func MulChecked(a, b uint64) (uint64, error) {
	product, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(a), uint256.NewInt(b))
	if overflow || !product.IsUint64() {
		return 0, ErrArithmeticOverflow
	}
	return product.Uint64(), nil
}

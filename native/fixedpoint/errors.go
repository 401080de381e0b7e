package fixedpoint

import "errors"

var (
	// ErrArithmeticOverflow is returned when a result does not fit the
	// 64-bit magnitude of the target type.
	ErrArithmeticOverflow = errors.New("fixedpoint: arithmetic overflow")
	// ErrArithmeticUnderflow is returned when a result would be negative.
	ErrArithmeticUnderflow = errors.New("fixedpoint: arithmetic underflow")
	// ErrDivideByZero is returned by every division with a zero divisor.
	ErrDivideByZero = errors.New("fixedpoint: divide by zero")
	// ErrPrecisionLoss is returned by exact parsers when the input carries
	// more fractional digits than the target scale.
	ErrPrecisionLoss = errors.New("fixedpoint: precision loss")
)

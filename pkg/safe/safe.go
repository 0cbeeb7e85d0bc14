package safe

import (
	"fmt"
	"math"
)

// SafeAdd adds two int64 values. Panics on overflow.
func SafeAdd(a, b int64) int64 {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		panic(fmt.Sprintf("INT64_OVERFLOW_ADD: %d + %d", a, b))
	}
	return a + b
}

// SafeSub subtracts b from a. Panics on overflow.
func SafeSub(a, b int64) int64 {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		panic(fmt.Sprintf("INT64_OVERFLOW_SUB: %d - %d", a, b))
	}
	return a - b
}

// SafeMul multiplies two int64 values. Panics on overflow.
func SafeMul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	result := a * b
	if result/b != a {
		panic(fmt.Sprintf("INT64_OVERFLOW_MUL: %d * %d", a, b))
	}
	return result
}

package pb

import (
	"math/big"
	"math/bits"
)

// u128 is an unsigned 128-bit integer built from a pair of uint64 words.
// Conflict analysis occasionally needs to multiply two 64-bit coefficients
// (spec.md §3, "the engine must support both a 64-bit working width and a
// 128-bit width... used transiently during conflict analysis to avoid
// overflow"). math/bits.Mul64/Add64 give exact, allocation-free 128-bit
// products and sums. A 128-bit value is narrowed back to uint64 through
// divFloor/divCeil (by Flatten in analyze.go and by toConstraint), which
// panic rather than truncate when the quotient does not fit; several
// analysis helpers also read the low word directly.
type u128 struct {
	hi, lo uint64
}

func u128FromUint64(v uint64) u128 {
	return u128{lo: v}
}

// mulU64 returns a*b as an exact 128-bit product.
func mulU64(a, b uint64) u128 {
	hi, lo := bits.Mul64(a, b)
	return u128{hi: hi, lo: lo}
}

// add returns a+b as an exact 128-bit sum. Coefficients are bounded well
// below 2^127 by Flatten, so this never needs to carry out of 128 bits.
func (a u128) add(b u128) u128 {
	lo, carry := bits.Add64(a.lo, b.lo, 0)
	hi, _ := bits.Add64(a.hi, b.hi, carry)
	return u128{hi: hi, lo: lo}
}

// sub returns a-b, assuming a >= b.
func (a u128) sub(b u128) u128 {
	lo, borrow := bits.Sub64(a.lo, b.lo, 0)
	hi, _ := bits.Sub64(a.hi, b.hi, borrow)
	return u128{hi: hi, lo: lo}
}

func (a u128) isZero() bool {
	return a.hi == 0 && a.lo == 0
}

// cmp returns -1, 0, or 1 as a is less than, equal to, or greater than b.
func (a u128) cmp(b u128) int {
	if a.hi != b.hi {
		if a.hi < b.hi {
			return -1
		}
		return 1
	}
	switch {
	case a.lo < b.lo:
		return -1
	case a.lo > b.lo:
		return 1
	default:
		return 0
	}
}

func (a u128) big() *big.Int {
	x := new(big.Int).SetUint64(a.hi)
	x.Lsh(x, 64)
	x.Or(x, new(big.Int).SetUint64(a.lo))
	return x
}

// divFloor returns floor(a/d) as a uint64. It panics if the true quotient
// does not fit in 64 bits; Flatten's divisor selection guarantees it does.
func (a u128) divFloor(d uint64) uint64 {
	if a.hi == 0 {
		return a.lo / d
	}
	q, _ := new(big.Int).QuoRem(a.big(), new(big.Int).SetUint64(d), new(big.Int))
	if !q.IsUint64() {
		panic("pb: u128 quotient overflows uint64")
	}
	return q.Uint64()
}

// divCeil returns ceil(a/d) as a uint64, with the same overflow contract as
// divFloor.
func (a u128) divCeil(d uint64) uint64 {
	if a.hi == 0 {
		q := a.lo / d
		if a.lo%d != 0 {
			q++
		}
		return q
	}
	q, r := new(big.Int).QuoRem(a.big(), new(big.Int).SetUint64(d), new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	if !q.IsUint64() {
		panic("pb: u128 quotient overflows uint64")
	}
	return q.Uint64()
}

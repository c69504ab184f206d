package pb

import "fmt"

// Literal represents a Boolean literal: a variable or its negation. A
// literal is encoded as the variable index shifted left by one bit, with
// the low bit carrying the polarity (0 = positive, 1 = negative). This
// keeps literals hashable by a single small integer and lets them key
// directly into dense slices sized 2*N.
type Literal int

// PositiveLiteral returns the positive literal of variable v.
func PositiveLiteral(v int) Literal {
	return Literal(v * 2)
}

// NegativeLiteral returns the negative literal of variable v.
func NegativeLiteral(v int) Literal {
	return Literal(v*2 + 1)
}

// VarID returns the id of the literal's variable.
func (l Literal) VarID() int {
	return int(l) / 2
}

// IsPositive reports whether l represents the variable's value directly,
// as opposed to its negation.
func (l Literal) IsPositive() bool {
	return l&1 == 0
}

// Opposite returns the negation of l.
func (l Literal) Opposite() Literal {
	return l ^ 1
}

func (l Literal) String() string {
	if l.IsPositive() {
		return fmt.Sprintf("x%d", l.VarID())
	}
	return fmt.Sprintf("!x%d", l.VarID())
}

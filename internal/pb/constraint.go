package pb

// Term is a single (literal, coefficient) pair of a linear constraint.
// Coefficients are always >= 1.
type Term struct {
	Lit   Literal
	Coeff uint64
}

// Constraint is a linear pseudo-Boolean constraint Σ aᵢ·[ℓᵢ=true] >= rhs
// (spec.md §3). Unit constraints have a single term and rhs 1; cardinality
// constraints have every coefficient equal to 1 and at least two terms;
// general constraints have at least one coefficient > 1.
type Constraint struct {
	Terms []Term
	RHS   uint64
}

// Shape classifies a strengthened constraint for dispatch (spec.md §4.5).
type Shape int

const (
	ShapeTautological Shape = iota // no terms survive, or rhs == 0
	ShapeUnit                     // single term, rhs == 1
	ShapeCardinality               // every coefficient == 1
	ShapeLinear                    // some coefficient > 1
)

// Shape classifies c. c must already be strengthened.
func (c Constraint) Shape() Shape {
	if len(c.Terms) == 0 || c.RHS == 0 {
		return ShapeTautological
	}
	if len(c.Terms) == 1 && c.RHS == 1 {
		return ShapeUnit
	}
	for _, t := range c.Terms {
		if t.Coeff != 1 {
			return ShapeLinear
		}
	}
	return ShapeCardinality
}

// Clone returns a deep copy of c.
func (c Constraint) Clone() Constraint {
	terms := make([]Term, len(c.Terms))
	copy(terms, c.Terms)
	return Constraint{Terms: terms, RHS: c.RHS}
}

func gcdU64(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Strengthen tightens c on the value of the trail's level-0 assignments and
// returns the result as a new constraint, leaving c unchanged (spec.md §4.4):
//
//  1. drop terms fixed at decision level 0 (subtracting from rhs the ones
//     fixed true);
//  2. saturate coefficients larger than rhs down to rhs;
//  3. divide every coefficient by their gcd, rounding rhs up;
//  4. collapse to a cardinality constraint (rhs 1) if every surviving
//     coefficient must equal rhs.
//
// The result is logically equivalent to c modulo the eliminated
// level-0-fixed part: it is entailed by c and entails whatever c entails up
// to that elimination. An empty result (no terms) is returned both when the
// level-0 true literals already reach rhs and when the remaining terms can
// no longer reach it; Engine.AddConstraint tells the two apart.
func Strengthen(c Constraint, trail *Trail) Constraint {
	// Step 1: drop fixed-at-level-0 literals.
	terms := make([]Term, 0, len(c.Terms))
	rhs := c.RHS
	for _, t := range c.Terms {
		v := t.Lit.VarID()
		if trail.IsAssigned(v) && trail.GetDecisionLevel(v) == 0 {
			if trail.IsTrue(t.Lit) {
				if t.Coeff >= rhs {
					rhs = 0
				} else {
					rhs -= t.Coeff
				}
			}
			continue // fixed false, or fixed true and accounted for: drop either way
		}
		terms = append(terms, t)
	}
	if rhs == 0 {
		return Constraint{} // tautological
	}

	// Step 2: saturate.
	for i := range terms {
		if terms[i].Coeff > rhs {
			terms[i].Coeff = rhs
		}
	}

	// Step 3: divide by the coefficients' gcd, rounding rhs up.
	var g uint64
	for _, t := range terms {
		g = gcdU64(g, t.Coeff)
		if g == 1 {
			break
		}
	}
	if g > 1 {
		for i := range terms {
			terms[i].Coeff /= g
		}
		rhs = (rhs + g - 1) / g // the left-hand side is now a whole number, so rhs/g rounds up
	}

	// Step 4: collapse to cardinality if every coefficient below rhs can be
	// rounded to 0 without making the constraint weaker than intended.
	var sumBelow uint64
	for _, t := range terms {
		if t.Coeff < rhs {
			sumBelow += t.Coeff
		}
	}
	if sumBelow < rhs {
		collapsed := terms[:0]
		for _, t := range terms {
			if t.Coeff == rhs {
				collapsed = append(collapsed, Term{Lit: t.Lit, Coeff: 1})
			}
		}
		terms = collapsed
		rhs = 1
	}

	if len(terms) == 0 {
		return Constraint{}
	}
	return Constraint{Terms: terms, RHS: rhs}
}

// raEntry is the value stored per literal in a randomAccessConstraint.
type raEntry struct {
	coeff u128
	index int // position in ra.lits, or -1 if the term has been zeroed out
}

// randomAccessConstraint is the mutable, term-indexed constraint used
// exclusively inside conflict analysis (spec.md §4, "Random-access
// constraint"). It supports Get(literal) and a pointwise scaled add with
// another constraint in expected O(k) over the operand's terms, using
// 128-bit accumulators so that scaling by a large multiplier never
// silently overflows before Flatten brings coefficients back within range.
type randomAccessConstraint struct {
	byLit map[Literal]*raEntry
	lits  []Literal // literals with a (possibly now-zero) entry
	rhs   u128
}

func newRandomAccessConstraint() *randomAccessConstraint {
	return &randomAccessConstraint{byLit: map[Literal]*raEntry{}}
}

// reset loads ra with c, discarding whatever it held before.
func (ra *randomAccessConstraint) reset(c Constraint) {
	for k := range ra.byLit {
		delete(ra.byLit, k)
	}
	ra.lits = ra.lits[:0]
	ra.rhs = u128FromUint64(c.RHS)

	for _, t := range c.Terms {
		ra.set(t.Lit, u128FromUint64(t.Coeff))
	}
}

func (ra *randomAccessConstraint) get(lit Literal) u128 {
	if e, ok := ra.byLit[lit]; ok {
		return e.coeff
	}
	return u128{}
}

func (ra *randomAccessConstraint) set(lit Literal, coeff u128) {
	if e, ok := ra.byLit[lit]; ok {
		e.coeff = coeff
		return
	}
	e := &raEntry{coeff: coeff, index: len(ra.lits)}
	ra.byLit[lit] = e
	ra.lits = append(ra.lits, lit)
}

// addTermScaled adds mult*coeff to the coefficient of lit, resolving
// against any opposite-polarity term of the same variable by literal
// consensus: a·l + s·¬l == s + (a-s)·l when a >= s (and symmetrically
// otherwise), so the smaller side cancels into the right-hand side.
func (ra *randomAccessConstraint) addTermScaled(lit Literal, mult u128, coeff uint64) {
	delta := mulU64(mult.lo, coeff)
	if mult.hi != 0 {
		// mult itself already exceeds 64 bits: this only happens deep
		// inside a pathological un-flattened chain; fall back to scaling
		// via big.Int precision is unnecessary in practice because Flatten
		// runs after every resolve step, so mult.hi is always 0 in normal
		// operation. Guard defensively rather than silently truncate.
		panic("pb: multiplier exceeds 64 bits; Flatten should have run")
	}

	opp := lit.Opposite()
	if e, ok := ra.byLit[opp]; ok && !e.coeff.isZero() {
		switch e.coeff.cmp(delta) {
		case 0:
			ra.rhs = ra.rhs.sub(e.coeff)
			e.coeff = u128{}
		case 1: // e.coeff > delta
			ra.rhs = ra.rhs.sub(delta)
			e.coeff = e.coeff.sub(delta)
		default: // e.coeff < delta
			ra.rhs = ra.rhs.sub(e.coeff)
			remainder := delta.sub(e.coeff)
			e.coeff = u128{}
			ra.set(lit, ra.get(lit).add(remainder))
		}
		return
	}

	ra.set(lit, ra.get(lit).add(delta))
}

// combineScaled computes ra := ra*selfMult + other*otherMult, the integer
// linear combination at the heart of Resolve (spec.md §4.6).
func (ra *randomAccessConstraint) combineScaled(selfMult uint64, other Constraint, otherMult uint64) {
	if selfMult != 1 {
		for _, l := range ra.lits {
			e := ra.byLit[l]
			if !e.coeff.isZero() {
				e.coeff = mulU64(e.coeff.lo, selfMult) // selfMult chosen small (<= r_alpha/g) by Resolve
				if e.coeff.hi != 0 {
					panic("pb: self-multiplier overflowed during combine")
				}
			}
		}
		ra.rhs = mulU64(ra.rhs.lo, selfMult)
	}

	mult := u128FromUint64(otherMult)
	ra.rhs = ra.rhs.add(mulU64(other.RHS, otherMult))
	for _, t := range other.Terms {
		ra.addTermScaled(t.Lit, mult, t.Coeff)
	}
}

// toConstraint flattens the random-access constraint back into a plain
// Constraint, dividing every coefficient (and the rhs, rounding up) by d.
// d must be chosen so that every resulting coefficient fits in 64 bits
// (Flatten in analyze.go is responsible for that).
func (ra *randomAccessConstraint) toConstraint(d uint64, roundUp func(lit Literal) bool) Constraint {
	terms := make([]Term, 0, len(ra.lits))
	for _, l := range ra.lits {
		e := ra.byLit[l]
		if e.coeff.isZero() {
			continue
		}
		var coeff uint64
		if d == 1 {
			coeff = e.coeff.divFloor(1)
		} else if roundUp != nil && roundUp(l) {
			coeff = e.coeff.divCeil(d)
		} else {
			coeff = e.coeff.divFloor(d)
		}
		if coeff == 0 {
			continue
		}
		terms = append(terms, Term{Lit: l, Coeff: coeff})
	}

	var rhs uint64
	if d == 1 {
		rhs = ra.rhs.divCeil(1)
	} else {
		rhs = ra.rhs.divCeil(d)
	}

	return Constraint{Terms: terms, RHS: rhs}
}

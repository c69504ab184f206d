package pb

// rowKind tags which propagation discipline owns a row. spec.md §9 invites
// exactly this simplification over the original's fully generic nested
// engine stack: "a single tagged sum over {Unit, Cardinality, Linear} and
// dispatch statically".
type rowKind int

const (
	kindUnit rowKind = iota
	kindCardinality
	kindLinear
)

// row is the engine-owned representation of a constraint (spec.md §3,
// "Row"). Rows are stored in Engine.rows indexed by their RowID and are
// never reordered or reused: the id keeps meaning even across deletion
// (spec.md §9, "Constraint identity vs contents").
type row struct {
	id       RowID
	kind     rowKind
	terms    []Term // mutated in place by watched-literal swapping
	rhs      uint64
	isLearnt bool
	deleted  bool

	activity float64
	minPLBD  int // smallest PLBD ever observed when this row fired, or -1

	// Cardinality-specific: terms[0:k+1] are the watched literals; k == rhs.
	k int

	// Weighted-linear-specific.
	sup                uint64
	maxUnassignedCoeff uint64
}

func (r *row) locked(trail *Trail) bool {
	for _, t := range r.terms {
		v := t.Lit.VarID()
		if trail.IsAssigned(v) && trail.GetReason(v) == r.id {
			return true
		}
	}
	return false
}

// toConstraint reconstructs the plain Constraint a row currently
// represents, used by Explain and conflict analysis.
func (r *row) toConstraint() Constraint {
	terms := make([]Term, len(r.terms))
	copy(terms, r.terms)
	return Constraint{Terms: terms, RHS: r.rhs}
}

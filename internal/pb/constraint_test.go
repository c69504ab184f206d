package pb

import "testing"

func TestConstraintShape(t *testing.T) {
	tests := []struct {
		name string
		c    Constraint
		want Shape
	}{
		{"empty", Constraint{}, ShapeTautological},
		{"zero rhs", Constraint{Terms: []Term{{Lit: PositiveLiteral(0), Coeff: 1}}}, ShapeTautological},
		{"unit", Constraint{Terms: []Term{{Lit: PositiveLiteral(0), Coeff: 1}}, RHS: 1}, ShapeUnit},
		{
			"cardinality",
			Constraint{Terms: []Term{
				{Lit: PositiveLiteral(0), Coeff: 1},
				{Lit: PositiveLiteral(1), Coeff: 1},
			}, RHS: 2},
			ShapeCardinality,
		},
		{
			"linear",
			Constraint{Terms: []Term{
				{Lit: PositiveLiteral(0), Coeff: 2},
				{Lit: PositiveLiteral(1), Coeff: 1},
			}, RHS: 2},
			ShapeLinear,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Shape(); got != tt.want {
				t.Errorf("Shape() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStrengthenDropsFixedLiterals(t *testing.T) {
	trail := NewTrail()
	x0 := trail.AddVariable()
	x1 := trail.AddVariable()
	trail.AddVariable()

	if err := trail.Assign(PositiveLiteral(x0), NoReason); err != nil {
		t.Fatal(err)
	}
	if err := trail.Assign(NegativeLiteral(x1), NoReason); err != nil {
		t.Fatal(err)
	}

	c := Constraint{Terms: []Term{
		{Lit: PositiveLiteral(0), Coeff: 1}, // fixed true, drops out, rhs -= 1
		{Lit: PositiveLiteral(1), Coeff: 1}, // fixed false, drops out
		{Lit: PositiveLiteral(2), Coeff: 1},
	}, RHS: 2}

	got := Strengthen(c, trail)
	want := Constraint{Terms: []Term{{Lit: PositiveLiteral(2), Coeff: 1}}, RHS: 1}
	if got.RHS != want.RHS || len(got.Terms) != 1 || got.Terms[0] != want.Terms[0] {
		t.Fatalf("Strengthen = %+v, want %+v", got, want)
	}
}

func TestStrengthenSaturatesAndDividesByGCD(t *testing.T) {
	trail := NewTrail()
	trail.AddVariable()
	trail.AddVariable()

	c := Constraint{Terms: []Term{
		{Lit: PositiveLiteral(0), Coeff: 10}, // saturates to rhs=4, then /2 = 2
		{Lit: PositiveLiteral(1), Coeff: 2},
	}, RHS: 4}

	got := Strengthen(c, trail)
	if got.RHS != 2 {
		t.Fatalf("RHS = %d, want 2", got.RHS)
	}
	for _, term := range got.Terms {
		if term.Coeff != 1 && term.Coeff != 2 {
			t.Fatalf("unexpected coefficient %d in %+v", term.Coeff, got)
		}
	}
}

func TestStrengthenCollapsesToCardinality(t *testing.T) {
	trail := NewTrail()
	trail.AddVariable()
	trail.AddVariable()
	trail.AddVariable()

	// 3*a + 3*b + 1*c >= 3: c alone can never satisfy it, so it collapses to
	// a plain cardinality constraint over a and b.
	c := Constraint{Terms: []Term{
		{Lit: PositiveLiteral(0), Coeff: 3},
		{Lit: PositiveLiteral(1), Coeff: 3},
		{Lit: PositiveLiteral(2), Coeff: 1},
	}, RHS: 3}

	got := Strengthen(c, trail)
	if got.RHS != 1 {
		t.Fatalf("RHS = %d, want 1", got.RHS)
	}
	if len(got.Terms) != 2 {
		t.Fatalf("Terms = %+v, want 2 terms", got.Terms)
	}
}

func TestDecomposeSATEncoded(t *testing.T) {
	// 3*a + 1*b + 2*c >= 3 <=> a OR (b AND c) <=> (a OR b) AND (a OR c)
	c := Constraint{Terms: []Term{
		{Lit: PositiveLiteral(0), Coeff: 3},
		{Lit: PositiveLiteral(1), Coeff: 1},
		{Lit: PositiveLiteral(2), Coeff: 2},
	}, RHS: 3}

	got, ok := decomposeSATEncoded(c)
	if !ok {
		t.Fatalf("decomposeSATEncoded() returned ok=false, want true")
	}
	if len(got) != 2 {
		t.Fatalf("got %d constraints, want 2: %+v", len(got), got)
	}
	for _, cc := range got {
		if cc.RHS != 1 || len(cc.Terms) != 2 {
			t.Errorf("unexpected decomposed constraint %+v", cc)
		}
		if cc.Terms[0].Lit != PositiveLiteral(0) {
			t.Errorf("decomposed constraint %+v should pair with the full-coefficient literal", cc)
		}
	}
}

func TestDecomposeSATEncodedRejectsNonMatching(t *testing.T) {
	// 2*a + 2*b >= 3: no single term equals rhs, shortcut does not apply.
	c := Constraint{Terms: []Term{
		{Lit: PositiveLiteral(0), Coeff: 2},
		{Lit: PositiveLiteral(1), Coeff: 2},
	}, RHS: 3}

	if _, ok := decomposeSATEncoded(c); ok {
		t.Fatalf("decomposeSATEncoded() returned ok=true for a non-SAT-encoded constraint")
	}
}

package opb

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pbsolve/pbsolve/internal/pb"
)

// fakeBuilder records what it was given without running any actual solving,
// so these tests exercise only the parser, not internal/pb.
type fakeBuilder struct {
	numVars     int
	constraints []pb.Constraint
	reject      bool // makes AddConstraint return false, to test RootUnsat
}

func (b *fakeBuilder) AddVariable() int {
	v := b.numVars
	b.numVars++
	return v
}

func (b *fakeBuilder) AddConstraint(c pb.Constraint) bool {
	b.constraints = append(b.constraints, c)
	return !b.reject
}

func TestParseSimpleGreaterEqual(t *testing.T) {
	b := &fakeBuilder{}
	res := Parse(strings.NewReader("1 x1 1 x2 >= 1;\n"), b)

	if res.Err != nil {
		t.Fatalf("Parse error: %v", res.Err)
	}
	if res.RootUnsat {
		t.Fatalf("Parse reported RootUnsat")
	}
	if b.numVars != 2 {
		t.Fatalf("numVars = %d, want 2", b.numVars)
	}
	if len(b.constraints) != 1 {
		t.Fatalf("got %d constraints, want 1", len(b.constraints))
	}
	want := pb.Constraint{Terms: []pb.Term{
		{Lit: pb.PositiveLiteral(0), Coeff: 1},
		{Lit: pb.PositiveLiteral(1), Coeff: 1},
	}, RHS: 1}
	if diff := cmp.Diff(want, b.constraints[0]); diff != "" {
		t.Fatalf("constraint mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEqualityEmitsTwoConstraints(t *testing.T) {
	b := &fakeBuilder{}
	res := Parse(strings.NewReader("1 x1 1 x2 = 1;\n"), b)

	if res.Err != nil {
		t.Fatalf("Parse error: %v", res.Err)
	}
	if len(b.constraints) != 2 {
		t.Fatalf("got %d constraints, want 2 (>= and <=)", len(b.constraints))
	}
}

func TestParseNegativeCoefficientNormalized(t *testing.T) {
	b := &fakeBuilder{}
	// -1 x1 >= 0  <=>  1*!x1 >= 1
	res := Parse(strings.NewReader("-1 x1 >= 0;\n"), b)

	if res.Err != nil {
		t.Fatalf("Parse error: %v", res.Err)
	}
	if len(b.constraints) != 1 {
		t.Fatalf("got %d constraints, want 1", len(b.constraints))
	}
	c := b.constraints[0]
	if c.RHS != 1 || len(c.Terms) != 1 {
		t.Fatalf("constraint = %+v, want rhs=1 with 1 term", c)
	}
	if c.Terms[0].Lit.IsPositive() {
		t.Errorf("expected negated literal, got positive")
	}
}

func TestParseSkipsCommentsAndBlankLines(t *testing.T) {
	b := &fakeBuilder{}
	res := Parse(strings.NewReader("* comment\n\n1 x1 >= 1;\n"), b)

	if res.Err != nil {
		t.Fatalf("Parse error: %v", res.Err)
	}
	if len(b.constraints) != 1 {
		t.Fatalf("got %d constraints, want 1", len(b.constraints))
	}
}

func TestParseReusesVariables(t *testing.T) {
	b := &fakeBuilder{}
	res := Parse(strings.NewReader("1 x1 1 x2 >= 1;\n1 x1 1 x3 >= 1;\n"), b)

	if res.Err != nil {
		t.Fatalf("Parse error: %v", res.Err)
	}
	if b.numVars != 3 {
		t.Fatalf("numVars = %d, want 3 (x1 shared across both lines)", b.numVars)
	}
}

func TestParseRejectsMalformedLine(t *testing.T) {
	b := &fakeBuilder{}
	res := Parse(strings.NewReader("1 x1 banana 1;\n"), b)

	if res.Err == nil {
		t.Fatalf("Parse() returned no error for malformed input")
	}
}

func TestParseRootUnsat(t *testing.T) {
	b := &fakeBuilder{reject: true}
	res := Parse(strings.NewReader("1 x1 >= 1;\n"), b)

	if res.Err != nil {
		t.Fatalf("Parse error: %v", res.Err)
	}
	if !res.RootUnsat {
		t.Fatalf("Parse() did not report RootUnsat when the builder rejected the constraint")
	}
}

func TestParseTautologyDropped(t *testing.T) {
	b := &fakeBuilder{}
	// 1 x1 >= 0 is always true: no constraint should be emitted, but x1
	// still needs to be registered since it appeared in the input.
	res := Parse(strings.NewReader("1 x1 >= 0;\n"), b)

	if res.Err != nil {
		t.Fatalf("Parse error: %v", res.Err)
	}
	if len(b.constraints) != 0 {
		t.Fatalf("got %d constraints, want 0 for a tautological line", len(b.constraints))
	}
}

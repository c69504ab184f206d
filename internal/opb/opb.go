// Package opb parses the OPB pseudo-Boolean instance format (spec.md §6):
// a line-oriented grammar of weighted-literal constraints terminated by
// ';', fed to a Builder one constraint at a time as the teacher's
// parsers.go fed clauses to a Builder wrapping a dimacs.ReadBuilder.
package opb

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pbsolve/pbsolve/internal/pb"
)

// Builder receives the variables and constraints parsed from an OPB
// instance. pb.Solver implements this interface directly.
type Builder interface {
	AddVariable() int
	AddConstraint(c pb.Constraint) bool
}

// Result reports how parsing ended: Err non-nil means the input did not
// conform to the grammar (the driver should emit "s UNSUPPORTED");
// RootUnsat means the input parsed fine but a constraint was infeasible
// before any decisions were made (the driver should emit
// "s UNSATISFIABLE" immediately, without calling Solve).
type Result struct {
	Err       error
	RootUnsat bool
}

type rawTerm struct {
	varNum int
	coeff  int64
}

type parseCtx struct {
	b         Builder
	varMap    map[int]int
	rootUnsat bool
}

func (ctx *parseCtx) ensureVar(n int) int {
	if id, ok := ctx.varMap[n]; ok {
		return id
	}
	id := ctx.b.AddVariable()
	ctx.varMap[n] = id
	return id
}

// emit normalizes a raw (possibly negative-coefficient) term list into a
// pb.Constraint with non-negative coefficients: a negative-weight term
// -a*x is rewritten as a*!x with a added to rhs (spec.md §6's weighted
// terms are signed; pb.Constraint's are not).
func (ctx *parseCtx) emit(raw []rawTerm, rhs int64) {
	terms := make([]pb.Term, 0, len(raw))
	for _, t := range raw {
		if t.coeff == 0 {
			continue
		}
		v := ctx.ensureVar(t.varNum)
		if t.coeff > 0 {
			terms = append(terms, pb.Term{Lit: pb.PositiveLiteral(v), Coeff: uint64(t.coeff)})
			continue
		}
		a := uint64(-t.coeff)
		terms = append(terms, pb.Term{Lit: pb.NegativeLiteral(v), Coeff: a})
		rhs += int64(a)
	}
	if rhs <= 0 {
		return // tautological: every assignment satisfies it
	}
	if !ctx.b.AddConstraint(pb.Constraint{Terms: terms, RHS: uint64(rhs)}) {
		ctx.rootUnsat = true
	}
}

// Parse reads an OPB instance from r, feeding every variable and
// constraint it encounters to b.
func Parse(r io.Reader, b Builder) Result {
	ctx := &parseCtx{b: b, varMap: map[int]int{}}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := parseLine(sc.Text(), ctx); err != nil {
			return Result{Err: fmt.Errorf("opb: line %d: %w", lineNo, err)}
		}
		if ctx.rootUnsat {
			return Result{RootUnsat: true}
		}
	}
	if err := sc.Err(); err != nil {
		return Result{Err: err}
	}
	return Result{}
}

func parseLine(line string, ctx *parseCtx) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "*") {
		return nil
	}

	fields := strings.Fields(line)
	var terms []rawTerm

	i := 0
	for i < len(fields) && fields[i] != ">=" && fields[i] != "=" {
		if i+1 >= len(fields) {
			return fmt.Errorf("truncated term in %q", line)
		}
		coeffTok, varTok := fields[i], fields[i+1]
		if !strings.HasPrefix(varTok, "x") {
			return fmt.Errorf("expected variable token, got %q", varTok)
		}
		varNum, err := strconv.Atoi(varTok[1:])
		if err != nil || varNum < 1 {
			return fmt.Errorf("invalid variable index %q", varTok)
		}
		coeff, err := strconv.ParseInt(coeffTok, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid coefficient %q", coeffTok)
		}
		terms = append(terms, rawTerm{varNum: varNum, coeff: coeff})
		i += 2
	}
	if i >= len(fields) {
		return fmt.Errorf("missing relational operator in %q", line)
	}
	op := fields[i]
	i++

	if i >= len(fields) {
		return fmt.Errorf("missing right-hand side in %q", line)
	}
	rhsTok := fields[i]
	rhsTok = strings.TrimSuffix(rhsTok, ";")
	rhs, err := strconv.ParseInt(rhsTok, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid right-hand side %q", fields[i])
	}
	if rhsTok == fields[i] {
		// the ';' wasn't attached to the rhs token: it must be the next one
		i++
		if i >= len(fields) || fields[i] != ";" {
			return fmt.Errorf("missing terminating ';' in %q", line)
		}
	}

	switch op {
	case ">=":
		ctx.emit(terms, rhs)
	case "=":
		ctx.emit(terms, rhs)
		if ctx.rootUnsat {
			return nil
		}
		neg := make([]rawTerm, len(terms))
		for j, t := range terms {
			neg[j] = rawTerm{varNum: t.varNum, coeff: -t.coeff}
		}
		ctx.emit(neg, -rhs)
	default:
		return fmt.Errorf("unknown relational operator %q", op)
	}
	return nil
}

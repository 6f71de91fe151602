package problem

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/blocktower/pkg/errors"
)

// VarType is the integrality class of a variable.
type VarType int

const (
	Continuous VarType = iota
	Integer
	Binary
	ImplInt
)

var varTypeNames = [...]string{"continuous", "integer", "binary", "implint"}

// String returns the lower-case name used in problem files.
func (t VarType) String() string {
	if int(t) < len(varTypeNames) && t >= 0 {
		return varTypeNames[t]
	}
	return fmt.Sprintf("vartype(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t VarType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Accepts full names and
// the single-letter shorthands c, i, b.
func (t *VarType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "", "continuous", "c":
		*t = Continuous
	case "integer", "int", "i":
		*t = Integer
	case "binary", "bin", "b":
		*t = Binary
	case "implint", "implicit":
		*t = ImplInt
	default:
		return errors.New(errors.ErrCodeInvalidProblem, "unknown variable type %q", string(b))
	}
	return nil
}

// IsIntegral reports whether values of this type are restricted to integers.
func (t VarType) IsIntegral() bool { return t != Continuous }

// Variable is a column of the constraint matrix.
type Variable struct {
	Name string
	// Ref identifies the originating object across transformed formulations.
	// Two variables in different problems with equal non-empty Ref are the
	// same object. Defaults to Name.
	Ref  string
	Lb   float64
	Ub   float64
	Obj  float64
	Type VarType
}

// FixedToZero reports whether both bounds are zero, which removes the
// variable from the structure entirely.
func (v Variable) FixedToZero() bool { return v.Lb == 0 && v.Ub == 0 }

// Term is one nonzero of a constraint row.
type Term struct {
	Var  int // position in Problem.Vars
	Coef float64
}

// Constraint is a ranged linear row Lhs <= sum(Coef*x) <= Rhs.
type Constraint struct {
	Name    string
	Ref     string
	Lhs     float64
	Rhs     float64
	Terms   []Term
	Removed bool // deleted by a transformation; kept for name stability
}

// IsEquality reports whether Lhs == Rhs.
func (c Constraint) IsEquality() bool { return c.Lhs == c.Rhs }

// Problem is a sparse mixed-integer constraint system. Positions in Vars and
// Conss are stable; indexing for decomposition happens in package decomp.
//
// The zero value is not usable - use New.
type Problem struct {
	Name      string
	Presolved bool
	Vars      []Variable
	Conss     []Constraint

	varByName  map[string]int
	consByName map[string]int
}

// New creates an empty problem.
func New(name string) *Problem {
	return &Problem{
		Name:       name,
		varByName:  make(map[string]int),
		consByName: make(map[string]int),
	}
}

// NVars returns the number of variables, including fixed ones.
func (p *Problem) NVars() int { return len(p.Vars) }

// NConss returns the number of constraints, including removed ones.
func (p *Problem) NConss() int { return len(p.Conss) }

// AddVar appends a variable and returns its position. Ref defaults to Name.
func (p *Problem) AddVar(v Variable) (int, error) {
	if err := errors.ValidateName("variable", v.Name); err != nil {
		return -1, err
	}
	if _, dup := p.varByName[v.Name]; dup {
		return -1, errors.New(errors.ErrCodeInvalidProblem, "duplicate variable %q", v.Name)
	}
	if v.Lb > v.Ub {
		return -1, errors.New(errors.ErrCodeInvalidProblem, "variable %q has lb %g > ub %g", v.Name, v.Lb, v.Ub)
	}
	if v.Ref == "" {
		v.Ref = v.Name
	}
	p.Vars = append(p.Vars, v)
	p.varByName[v.Name] = len(p.Vars) - 1
	return len(p.Vars) - 1, nil
}

// AddCons appends a constraint and returns its position. Terms on the same
// variable are merged and zero coefficients dropped.
func (p *Problem) AddCons(c Constraint) (int, error) {
	if err := errors.ValidateName("constraint", c.Name); err != nil {
		return -1, err
	}
	if _, dup := p.consByName[c.Name]; dup {
		return -1, errors.New(errors.ErrCodeInvalidProblem, "duplicate constraint %q", c.Name)
	}
	if c.Lhs > c.Rhs {
		return -1, errors.New(errors.ErrCodeInvalidProblem, "constraint %q has lhs %g > rhs %g", c.Name, c.Lhs, c.Rhs)
	}
	merged := make(map[int]int, len(c.Terms))
	terms := make([]Term, 0, len(c.Terms))
	for _, t := range c.Terms {
		if t.Var < 0 || t.Var >= len(p.Vars) {
			return -1, errors.New(errors.ErrCodeInvalidProblem, "constraint %q references unknown variable position %d", c.Name, t.Var)
		}
		if pos, ok := merged[t.Var]; ok {
			terms[pos].Coef += t.Coef
			continue
		}
		merged[t.Var] = len(terms)
		terms = append(terms, t)
	}
	c.Terms = terms[:0]
	for _, t := range terms {
		if t.Coef != 0 {
			c.Terms = append(c.Terms, t)
		}
	}
	if c.Ref == "" {
		c.Ref = c.Name
	}
	p.Conss = append(p.Conss, c)
	p.consByName[c.Name] = len(p.Conss) - 1
	return len(p.Conss) - 1, nil
}

// VarIndex returns the position of the named variable.
func (p *Problem) VarIndex(name string) (int, bool) {
	i, ok := p.varByName[name]
	return i, ok
}

// ConsIndex returns the position of the named constraint.
func (p *Problem) ConsIndex(name string) (int, bool) {
	i, ok := p.consByName[name]
	return i, ok
}

// NNonzeros counts the nonzeros of all non-removed constraints.
func (p *Problem) NNonzeros() int {
	n := 0
	for _, c := range p.Conss {
		if !c.Removed {
			n += len(c.Terms)
		}
	}
	return n
}

// Validate re-checks the structural rules AddVar and AddCons enforce. It is
// meant for problems assembled by hand rather than through the Add methods.
func (p *Problem) Validate() error {
	if len(p.Vars) == 0 {
		return errors.New(errors.ErrCodeInvalidProblem, "problem %q has no variables", p.Name)
	}
	seen := make(map[string]bool, len(p.Vars))
	for _, v := range p.Vars {
		if err := errors.ValidateName("variable", v.Name); err != nil {
			return err
		}
		if seen[v.Name] {
			return errors.New(errors.ErrCodeInvalidProblem, "duplicate variable %q", v.Name)
		}
		seen[v.Name] = true
		if v.Lb > v.Ub || math.IsNaN(v.Lb) || math.IsNaN(v.Ub) {
			return errors.New(errors.ErrCodeInvalidProblem, "variable %q has invalid bounds [%g, %g]", v.Name, v.Lb, v.Ub)
		}
	}
	seen = make(map[string]bool, len(p.Conss))
	for _, c := range p.Conss {
		if err := errors.ValidateName("constraint", c.Name); err != nil {
			return err
		}
		if seen[c.Name] {
			return errors.New(errors.ErrCodeInvalidProblem, "duplicate constraint %q", c.Name)
		}
		seen[c.Name] = true
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= len(p.Vars) {
				return errors.New(errors.ErrCodeInvalidProblem, "constraint %q references unknown variable position %d", c.Name, t.Var)
			}
		}
	}
	return nil
}

// Clone returns a deep copy. Presolve-style transformations in tests and
// in the translation workflow start from a clone.
func (p *Problem) Clone() *Problem {
	q := New(p.Name)
	q.Presolved = p.Presolved
	q.Vars = append([]Variable(nil), p.Vars...)
	q.Conss = make([]Constraint, len(p.Conss))
	for i, c := range p.Conss {
		c.Terms = append([]Term(nil), c.Terms...)
		q.Conss[i] = c
	}
	for i, v := range q.Vars {
		q.varByName[v.Name] = i
	}
	for i, c := range q.Conss {
		q.consByName[c.Name] = i
	}
	return q
}

// ConsType classifies constraint i by its algebraic structure.
func (p *Problem) ConsType(i int) ConsType {
	return classifyCons(p, p.Conss[i])
}

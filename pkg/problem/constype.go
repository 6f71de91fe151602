package problem

import (
	"math"
	"strings"

	"github.com/matzehuels/blocktower/pkg/errors"
)

// ConsType is the algebraic class of a linear constraint, in the spirit of
// the MIPLIB constraint classification.
type ConsType int

const (
	ConsEmpty ConsType = iota
	ConsSingleton
	ConsAggregation
	ConsVarbound
	ConsSetpartitioning
	ConsSetpacking
	ConsSetcovering
	ConsCardinality
	ConsInvknapsack
	ConsEquknapsack
	ConsBinpacking
	ConsKnapsack
	ConsIntKnapsack
	ConsGeneral
	nConsTypes
)

// NConsTypes is the number of distinct constraint types.
const NConsTypes = int(nConsTypes)

var consTypeNames = [...]string{
	"empty", "singleton", "aggregation", "varbound",
	"setpartitioning", "setpacking", "setcovering", "cardinality",
	"invknapsack", "equknapsack", "binpacking", "knapsack", "intknapsack", "general",
}

func (t ConsType) String() string {
	if t >= 0 && t < nConsTypes {
		return consTypeNames[t]
	}
	return "unknown"
}

// ParseConsType is the inverse of String.
func ParseConsType(s string) (ConsType, error) {
	for i, n := range consTypeNames {
		if strings.EqualFold(n, s) {
			return ConsType(i), nil
		}
	}
	return ConsGeneral, errors.New(errors.ErrCodeInvalidInput, "unknown constraint type %q", s)
}

// IsSetppc reports set partitioning, packing or covering.
func (t ConsType) IsSetppc() bool {
	return t == ConsSetpartitioning || t == ConsSetpacking || t == ConsSetcovering
}

// IsCardinality reports a cardinality row (sum of binaries equal to k).
func (t ConsType) IsCardinality() bool { return t == ConsCardinality }

func isIntegral(x float64) bool { return !math.IsInf(x, 0) && x == math.Trunc(x) }

func classifyCons(p *Problem, c Constraint) ConsType {
	n := len(c.Terms)
	switch {
	case n == 0:
		return ConsEmpty
	case n == 1:
		return ConsSingleton
	case n == 2 && c.IsEquality():
		return ConsAggregation
	case n == 2:
		t0, t1 := p.Vars[c.Terms[0].Var].Type, p.Vars[c.Terms[1].Var].Type
		if t0 == Continuous && t1.IsIntegral() || t1 == Continuous && t0.IsIntegral() {
			return ConsVarbound
		}
	}

	lhs, rhs := c.Lhs, c.Rhs
	allBinary, allIntegral := true, true
	allUnit, allNegUnit := true, true
	allNonneg, allNonpos, coefsIntegral := true, true, true
	for _, t := range c.Terms {
		vt := p.Vars[t.Var].Type
		if vt != Binary {
			allBinary = false
		}
		if !vt.IsIntegral() {
			allIntegral = false
		}
		if t.Coef != 1 {
			allUnit = false
		}
		if t.Coef != -1 {
			allNegUnit = false
		}
		if t.Coef < 0 {
			allNonneg = false
		}
		if t.Coef > 0 {
			allNonpos = false
		}
		if !isIntegral(t.Coef) {
			coefsIntegral = false
		}
	}

	// Normalise rows with all-negative coefficients to a nonnegative form.
	if allNegUnit || (allNonpos && !allNonneg) {
		lhs, rhs = -rhs, -lhs
		allUnit = allUnit || allNegUnit
		allNonneg = true
	}

	if allBinary && allUnit {
		switch {
		case lhs == 1 && rhs == 1:
			return ConsSetpartitioning
		case lhs <= 0 && rhs == 1:
			return ConsSetpacking
		case lhs == 1 && math.IsInf(rhs, 1):
			return ConsSetcovering
		case lhs == rhs && isIntegral(rhs) && rhs > 1:
			return ConsCardinality
		case isIntegral(rhs) && rhs > 1 && (math.IsInf(lhs, -1) || lhs <= 0):
			return ConsInvknapsack
		}
	}
	if allBinary && coefsIntegral {
		if allNonneg && lhs == rhs && isIntegral(rhs) {
			return ConsEquknapsack
		}
		if allNonneg && isIntegral(rhs) && (math.IsInf(lhs, -1) || lhs <= 0) {
			return ConsKnapsack
		}
		if isBinpacking(c, rhs, lhs) {
			return ConsBinpacking
		}
	}
	if allIntegral && coefsIntegral && allNonneg && isIntegral(rhs) && math.IsInf(lhs, -1) {
		return ConsIntKnapsack
	}
	return ConsGeneral
}

// isBinpacking matches sum(a_i x_i) - b*y <= 0 with a_i >= 0 and a single
// negative coefficient -b on the capacity indicator.
func isBinpacking(c Constraint, rhs, lhs float64) bool {
	if rhs != 0 || !math.IsInf(lhs, -1) {
		return false
	}
	neg := 0
	for _, t := range c.Terms {
		if t.Coef < 0 {
			neg++
		}
	}
	return neg == 1
}

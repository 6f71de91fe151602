// Package problem provides the sparse constraint system that blocktower
// decomposes.
//
// # Overview
//
// A [Problem] is a list of [Variable] columns and ranged linear [Constraint]
// rows, Lhs <= sum(Coef*x) <= Rhs. Positions in Problem.Vars and
// Problem.Conss are stable identifiers; package decomp builds a dense index
// over the structurally relevant subset of them.
//
// Two kinds of items are kept out of the decomposition structure but remain
// part of the problem: constraints marked Removed, and variables whose bounds
// are both zero ([Variable.FixedToZero]). Exports reattach them to the border.
//
// # File Formats
//
// Problems are read from TOML or JSON with [ReadFile]:
//
//	name = "bin-packing"
//
//	[[vars]]
//	name = "x_1_1"
//	type = "binary"
//
//	[[conss]]
//	name = "assign_1"
//	lhs = 1.0
//	rhs = 1.0
//	terms = [{ var = "x_1_1", coef = 1.0 }, { var = "x_1_2", coef = 1.0 }]
//
// Omitted bounds default to [0, +inf) for variables ([0, 1] for binaries) and
// (-inf, +inf) for constraints.
//
// # Constraint Types
//
// [Problem.ConsType] classifies each row into a [ConsType] such as set
// partitioning or knapsack. Scores and detectors only consume a handful of
// yes/no predicates derived from it ([ConsType.IsSetppc],
// [ConsType.IsCardinality]).
//
// # Cross-formulation Identity
//
// Variable.Ref and Constraint.Ref name the originating object. When a problem
// is transformed (for example presolved) the surviving items keep their Ref,
// which lets a decomposition found on one formulation be translated to the
// other.
package problem

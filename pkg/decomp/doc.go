// Package decomp holds the partial decomposition model: the incidence
// [Index] of a problem, the [Partial] assignment of constraints and variables
// to blocks and border, and the algorithms that refine, complete, reorder,
// compare and score such assignments.
//
// # Categories
//
// Every constraint is open, a master constraint, or a constraint of exactly
// one block. Every variable is open, a master variable (only in master
// constraints), a linking variable, a block variable of one block, or a
// stairlinking variable shared by blocks b and b+1.
//
// # Mutation
//
// Detectors stage moves with the BookAs* methods and commit them with
// [Partial.FlushBooked], or use the direct Set* methods. Refinement methods
// such as [Partial.RefineToBlocks] and [Partial.CompleteByConnected] report
// whether they changed anything so callers can iterate to a fixed point.
// Booking an item that is not open panics.
//
// # Comparison
//
// [Partial.Hash] is invariant under block renumbering and serves as a
// pre-filter; [Partial.IsEqual] is authoritative.
//
// # Scores
//
// [Partial.Score] evaluates a [ScoreType] and caches the result until the
// next mutation. Scores assume a complete decomposition; incomplete ones
// return the max-white upper bound.
package decomp

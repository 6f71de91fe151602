// Package pool drives the multi-round search for decompositions of one
// problem.
//
// A [Pool] indexes the problem, classifies its constraints and variables,
// mines block-number candidates, and owns every decomposition created during
// the search. Detection collaborators plug in through three interfaces:
//
//   - [Propagator] refines incomplete decompositions round by round within
//     the window its configuration grants;
//   - [Finisher] forces a clone of each state to completion;
//   - [Postprocessor] derives variants of finished decompositions.
//
// Rounds run in parallel over the current states, each collaborator
// receiving a private clone. Results are deduplicated with [InsertIfNew],
// first arrival winning, and finished decompositions end up ranked by the
// configured score.
//
// [Pool.Translate] carries decompositions between pools of two related
// formulations, matching items by reference and then by name.
package pool

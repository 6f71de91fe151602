// Package detectors provides the built-in detection collaborators of a
// [pool.Pool].
//
// Finishers complete a state in one step:
//
//   - [Connected] turns every connected component of open items into a block
//   - [Greedy] grows blocks constraint by constraint and sends conflicts to
//     the master
//
// Propagators derive new states from class information:
//
//   - [ConsClass] moves subsets of constraint classes to the master
//   - [VarClass] declares subsets of variable classes linking
//   - [SetPartMaster] moves open set partitioning, packing and covering
//     rows to the master
//
// The [Stairlinking] postprocessor reorders finished decompositions into
// staircase form where linking variables allow it.
//
// Each detector is registered under the name its configuration section
// uses; [All] returns one of each.
package detectors

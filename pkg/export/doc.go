// Package export writes decompositions for other tools and for people.
//
// Three formats are supported:
//
//   - [NewRecord] and [WriteJSON] produce a structured record with item
//     names, scores, the detector chain and aggregation classes.
//   - [WriteDec] writes the line-oriented .dec format read by
//     branch-and-price solvers.
//   - [ToDOT] draws the block structure as a Graphviz graph, which
//     [RenderSVG] turns into SVG in process.
//
// Constraints and variables the index excluded (removed rows and variables
// fixed to zero) are listed with the master in .dec output so a reader sees
// every item of the problem.
package export

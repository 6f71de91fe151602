// Package classify partitions the constraints or variables of an indexed
// problem into named classes.
//
// A [Classifier] is a tagged variant: its [Kind] says whether ClassOf ranges
// over constraints or variables, so consumers switch on the tag instead of
// inspecting types. Each class carries a [Role] hint telling detectors where
// its members may end up.
//
// Built-in constraint classifiers group by algebraic type, row length, name
// with digits stripped, and name similarity. Built-in variable classifiers
// group by type, objective sign, and objective value. [Builtin] runs all of
// them and reduces each to the configured class cap with
// [Classifier.Reduce].
package classify

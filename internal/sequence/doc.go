// Package sequence implements the incremental single-resource sequencing
// engine: a doubly linked chain of tasks per resource, with lazily recomputed
// timing caches, structural mutation operators, a copy-on-write branch/merge
// mechanism for speculative reordering, and a greedy lateness improver.
//
// # Timing model
//
// All times are integer days. Each task carries a duration, a target start
// day, and a minimum margin that must elapse between its predecessor's end
// and its own start. Two derived values are cached per task:
//
//   - earliest start: the soonest the task could begin given only its
//     predecessor's end and its margin. Propagates forward (head to tail).
//   - start: the scheduled begin day, pulled toward the target but clamped
//     to the earliest start and to the room its successor leaves. Propagates
//     backward (tail to head).
//
// Each cache has its own dirty flag. Mutations mark flags; reads resolve them
// iteratively (never recursively), so propagation depth is independent of the
// Go stack.
//
// # Branches
//
// Branch() forks a private, lazily copied view of a chain. A branch node's
// links may point at committed (root) nodes; crossing such a link through
// NextInBranch/PreviousInBranch materializes a same-branch copy and rewrites
// the link, so forking costs O(touched nodes). Mutations never write into a
// node of a different branch. Merge() splices a branch back into the
// committed chain, replacing the segment it was forked from.
//
// # Concurrency
//
// A Resource's chain is single-threaded state: callers must not mutate one
// chain concurrently. Distinct Resources share nothing and may be processed
// in parallel.
package sequence

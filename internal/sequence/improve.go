package sequence

import (
	logx "schedd/pkg/logx"
)

// ImprovementMoveIn evaluates swapping t2 with its predecessor t1. The
// returned delta is candidate cost minus current cost over the pair;
// negative means the swap reduces lateness. The candidate cost is estimated
// from earliest starts, which is exact whenever the pair is under schedule
// pressure (the interesting case) and conservative otherwise.
//
// With execute set, an improving swap is performed and start times are
// repropagated backward from the swap point, stopping as soon as they
// stabilize.
func ImprovementMoveIn(t2 *Task, execute bool) int {
	// The branch-aware read matters: evaluating a pair that straddles a
	// branch boundary must see (and therefore fork) the branch's own view of
	// the predecessor, not the committed one.
	t1 := t2.PreviousInBranch()
	if t1 == nil {
		return 0
	}

	current := max(0, t1.Start()-t1.target) + max(0, t2.Start()-t2.target)

	es1 := t1.EarliestStart()
	candidate := max(0, es1+t2.marginBefore+t2.duration-t1.target) +
		max(0, es1-t1.marginBefore+t2.marginBefore-t2.target)

	improvement := candidate - current
	if !execute || improvement >= 0 {
		return improvement
	}

	// Capture the successor bound before relinking: the outer-right start
	// does not depend on its predecessor, so it is still valid afterwards.
	outer := t2.next
	hasOuter := outer != nil
	var bound int
	if hasOuter {
		bound = outer.Start() - outer.marginBefore
	}

	t2.MoveIn()
	trace.Trace("swap executed", logx.String("task", t2.id), logx.Int("improvement", improvement))

	// Evaluating the pair resolved every start from t2 to the tail, and an
	// adjacent swap preserves the duration+margin sum ahead of outer, so the
	// forward marks MoveIn just made are spurious. Clear them: the surgical
	// repair below leaves the pair clean, and stale-start runs behind a clean
	// pair would no longer extend to the head, letting a later backward
	// invalidation stop short of the pair.
	for n := outer; n != nil && n.tag == t2.tag && n.dirtyStart; n = n.next {
		n.dirtyStart = false
	}

	// Pair order is now t2 → t1. Fix the pair's starts against the known
	// bound, then let the backward repropagation short-circuit.
	t1.applyStart(bound, hasOuter)
	t2.applyStart(t1.start-t1.marginBefore, true)
	if p := t2.previous; p != nil && p.tag == t2.tag {
		p.invalidateStart(t2.start - t2.marginBefore)
	}

	return improvement
}

// applyStart recomputes the start directly from a known successor bound
// (or as a tail when there is none) and clears the flag.
func (t *Task) applyStart(bound int, bounded bool) {
	es := t.EarliestStart()
	if bounded {
		t.start = max(es, min(t.target, bound-t.duration))
	} else {
		t.start = max(es, t.target)
	}
	t.dirtyStart = false
}

// Improve runs the greedy lateness pass over the committed chain: walk from
// the tail, swap a task before its predecessor whenever that reduces the
// pair's lateness, stay put after a successful swap (the task moved one slot
// earlier) and step backward otherwise. Returns the accumulated
// (non-positive) improvement.
func (r *Resource) Improve() int {
	improvement := 0
	t := r.tail
	for t != nil {
		if step := ImprovementMoveIn(t, true); step < 0 {
			improvement += step
		} else {
			t = t.previous
		}
	}
	return improvement
}

// ImproveBranch runs the same pass on a fresh branch forked at the tail, so
// the committed chain stays untouched. It returns the accumulated
// improvement and the branch head, ready for inspection or Merge.
func (r *Resource) ImproveBranch() (int, *Task) {
	if r.tail == nil {
		return 0, nil
	}
	improvement := 0
	t := r.tail.Branch()
	head := t
	for t != nil {
		if step := ImprovementMoveIn(t, true); step < 0 {
			improvement += step
		} else {
			head = t
			t = t.PreviousInBranch()
		}
	}
	return improvement, head
}

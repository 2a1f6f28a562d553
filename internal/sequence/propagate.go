package sequence

import (
	logx "schedd/pkg/logx"
)

// Invalidation marks; resolution clears. Two invariants keep the marking
// walks cheap without losing soundness:
//
//   - a node with a stale earliest start implies every same-branch node after
//     it is stale in both caches (suffix-closed), so forward marking may stop
//     at the first node already stale in both;
//   - every run of stale start flags extends to the head of its branch, so
//     backward marking may stop at the first node already stale.
//
// Structural mutators maintain these by always pairing a forward walk (both
// flags) with a backward walk (start flag) around the mutation point, after
// explicitly marking the nodes whose neighbors changed.

// invalidateForward marks from and everything after it (same branch) stale in
// both caches.
func invalidateForward(from *Task, tag string) {
	for n := from; n != nil && n.tag == tag; n = n.next {
		if n.dirty && n.dirtyStart {
			return
		}
		n.dirty = true
		n.dirtyStart = true
	}
}

// invalidateBackward marks from and everything before it (same branch) with a
// stale start.
func invalidateBackward(from *Task, tag string) {
	for n := from; n != nil && n.tag == tag; n = n.previous {
		if n.dirtyStart {
			return
		}
		n.dirtyStart = true
	}
}

// EarliestStart returns the soonest day t could begin given only its
// predecessors. Stale caches along the backward path are resolved first,
// using an explicit work list so resolution depth does not grow the stack.
func (t *Task) EarliestStart() int {
	if !t.dirty {
		return t.earliestStart
	}
	stack := []*Task{t}
	for n := t.previous; n != nil && n.dirty; n = n.previous {
		stack = append(stack, n)
	}
	for i := len(stack) - 1; i >= 0; i-- {
		stack[i].recomputeEarliest()
	}
	return t.earliestStart
}

// EarliestEnd is the soonest day t could finish.
func (t *Task) EarliestEnd() int { return t.EarliestStart() + t.duration }

func (t *Task) recomputeEarliest() {
	if p := t.previous; p != nil {
		t.earliestStart = p.earliestStart + p.duration + t.marginBefore
	} else {
		t.earliestStart = 0
	}
	t.dirty = false
	trace.Trace("earliest start recomputed", logx.String("task", t.id), logx.Int("value", t.earliestStart))
}

// Start returns the scheduled begin day: pulled toward the target, but never
// before the earliest start and never so late that the successor's margin is
// violated. Stale successors are resolved first (tail inward), iteratively.
//
// Resolution follows raw next links. A branch node whose forward link is
// still unmaterialized therefore bounds itself against the committed
// successor's start, the bound the branch inherited at fork time. Merge marks
// the whole merged run stale, so committed read-out never sees such a value.
func (t *Task) Start() int {
	if !t.dirtyStart {
		return t.start
	}
	stack := []*Task{t}
	for n := t.next; n != nil && n.dirtyStart; n = n.next {
		stack = append(stack, n)
	}
	for i := len(stack) - 1; i >= 0; i-- {
		stack[i].recomputeStart()
	}
	return t.start
}

// End is the scheduled finish day.
func (t *Task) End() int { return t.Start() + t.duration }

func (t *Task) recomputeStart() {
	es := t.EarliestStart()
	if n := t.next; n != nil {
		t.start = max(es, min(t.target, n.start-n.marginBefore-t.duration))
	} else {
		t.start = max(es, t.target)
	}
	t.dirtyStart = false
	trace.Trace("start recomputed", logx.String("task", t.id), logx.Int("value", t.start))
}

// invalidateStart recomputes t's start directly against nextNeeded (the
// latest end the successor allows t) and keeps walking backward only while
// recomputed values actually change. Once a start stabilizes, everything
// before it is untouched by the mutation that triggered the call, so the
// walk short-circuits. Used by the improver, where the successor bound is
// known at the mutation site.
func (t *Task) invalidateStart(nextNeeded int) {
	bound := nextNeeded
	for n := t; n != nil; {
		es := n.EarliestStart()
		s := max(es, min(n.target, bound-n.duration))
		if s == n.start {
			n.dirtyStart = false
			return
		}
		n.start = s
		n.dirtyStart = false
		trace.Trace("start repropagated", logx.String("task", n.id), logx.Int("value", s))
		bound = s - n.marginBefore
		p := n.previous
		if p == nil || p.tag != n.tag {
			return
		}
		n = p
	}
}

// Slack is the headroom between a task's earliest and scheduled start: room
// available before the task without delaying it.
func (t *Task) Slack() int { return t.Start() - t.EarliestStart() }

// Lateness is the signed distance from target; positive means the task is
// scheduled after its target day.
func (t *Task) Lateness() int { return t.Start() - t.target }

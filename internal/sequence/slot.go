package sequence

import (
	logx "schedd/pkg/logx"
)

// findAfter locates the earliest committed task still scheduled after the
// given day, scanning backward from the tail. Returns nil when every task
// starts on or before it.
func (r *Resource) findAfter(after int) *Task {
	var found *Task
	for t := r.tail; t != nil && t.Start() > after; t = t.previous {
		found = t
	}
	return found
}

// findSlack walks forward from findAfter(after) to the first task with
// enough headroom before it to absorb `amount` days of new work.
func (r *Resource) findSlack(after, amount int) *Task {
	t := r.findAfter(after)
	for t != nil && t.Slack() < amount {
		t = t.next
	}
	return t
}

// bestSlot finds the committed task the new work should be inserted before:
// the first task with slack for it whose target is later than the new task's,
// so target-date order is preserved as a secondary key. Nil means append.
func (r *Resource) bestSlot(t *Task) *Task {
	needed := t.marginBefore + t.duration
	cand := r.findSlack(0, needed)
	for cand != nil && (cand.target <= t.target || cand.Slack() < needed) {
		cand = cand.next
	}
	return cand
}

// InsertBest grafts a new task into the committed chain at the slot that
// best preserves existing lateness: before the first task with enough slack
// and a later target, or at the tail when no slot qualifies. The successor is
// then swapped backward past the new task while that keeps improving, which
// settles the local order.
func (r *Resource) InsertBest(t *Task) error {
	if !t.isRoot() {
		return ErrBranchedTask
	}
	slot := r.bestSlot(t)
	if slot == nil {
		return r.AddTail(t)
	}
	t.Insert(slot)
	settleSuccessor(t)
	trace.Debug("task inserted", logx.String("resource", r.id), logx.String("task", t.id))
	return nil
}

// InsertBestBranch is InsertBest against a speculative branch: the chosen
// slot is forked first and the new task joins the fork, so the committed
// chain is untouched until the returned branch node is merged. When no slot
// qualifies the task itself becomes a branch root linked after the current
// tail.
func (r *Resource) InsertBestBranch(t *Task) (*Task, error) {
	if !t.isRoot() {
		return nil, ErrBranchedTask
	}
	slot := r.bestSlot(t)
	if slot == nil {
		t.tag = newBranchTag()
		t.resource = r
		t.previous = r.tail
		t.next = nil
		t.dirty, t.dirtyStart = true, true
		return t, nil
	}
	fork := slot.Branch()
	t.Insert(fork)
	settleSuccessor(t)
	return t, nil
}

// settleSuccessor repeatedly swaps the task after t in front of it while the
// swap keeps reducing lateness.
func settleSuccessor(t *Task) {
	for {
		next := t.NextInBranch()
		if next == nil {
			return
		}
		if ImprovementMoveIn(next, true) >= 0 {
			return
		}
	}
}

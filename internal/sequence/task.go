package sequence

import (
	"fmt"

	logx "schedd/pkg/logx"
)

// rootTag marks a node as part of the committed chain owned by a Resource.
const rootTag = ""

// Task is the atomic schedulable unit. It participates in an intrusive
// doubly linked chain and owns its own timing caches.
//
// A Task is constructed detached. It becomes attached via Resource.AddHead,
// Resource.AddTail or Insert, and detached again via Drop. Exactly one of
// "attached to a Resource's committed chain", "part of a branch" or
// "detached" holds at any time.
type Task struct {
	id           string
	duration     int
	target       int
	marginBefore int

	// Cached recurrence results, each gated by its own dirty flag.
	earliestStart int
	start         int
	dirty         bool // earliestStart is stale
	dirtyStart    bool // start is stale

	next     *Task
	previous *Task

	// tag is the branch identifier; rootTag means the committed chain.
	// Links may cross tags: reading such a link through NextInBranch or
	// PreviousInBranch materializes a same-tag copy on first touch.
	tag string

	// resource is carried by root nodes and by branch nodes forked from
	// them, so a branch can find its way home on Merge.
	resource *Resource
}

// NewTask validates the construction boundary: the engine itself assumes
// validated inputs and does not re-check on every read.
func NewTask(id string, duration, target, marginBefore int) (*Task, error) {
	if duration < 1 {
		return nil, fmt.Errorf("task %q: duration must be >= 1, got %d", id, duration)
	}
	if target < 0 {
		return nil, fmt.Errorf("task %q: target must be >= 0, got %d", id, target)
	}
	if marginBefore < 0 {
		return nil, fmt.Errorf("task %q: margin must be >= 0, got %d", id, marginBefore)
	}
	return &Task{
		id:           id,
		duration:     duration,
		target:       target,
		marginBefore: marginBefore,
		start:        target,
		dirty:        true,
		dirtyStart:   true,
	}, nil
}

func (t *Task) ID() string        { return t.id }
func (t *Task) Duration() int     { return t.duration }
func (t *Task) Target() int       { return t.target }
func (t *Task) MarginBefore() int { return t.marginBefore }

// Next and Previous expose the raw links. Within a branch these may point at
// committed nodes; use NextInBranch/PreviousInBranch to stay inside the
// branch view.
func (t *Task) Next() *Task         { return t.next }
func (t *Task) Previous() *Task     { return t.previous }
func (t *Task) Resource() *Resource { return t.resource }

func (t *Task) isRoot() bool { return t.tag == rootTag }

// Branched reports whether the node belongs to a branch rather than a
// committed chain.
func (t *Task) Branched() bool { return !t.isRoot() }

// SetTarget moves the task's target day. Start times depend on what follows,
// so only the backward direction needs invalidating.
func (t *Task) SetTarget(target int) {
	if target == t.target {
		return
	}
	t.target = target
	t.dirtyStart = true
	invalidateBackward(t.previous, t.tag)
}

func (t *Task) String() string {
	if t.dirty || t.dirtyStart {
		return fmt.Sprintf("%s[d=%d+%d, t=%d, s=...]", t.id, t.marginBefore, t.duration, t.target)
	}
	return fmt.Sprintf("%s[d=%d+%d, t=%d, s=%d]", t.id, t.marginBefore, t.duration, t.target, t.start)
}

// clone returns a field-wise copy carrying the given branch tag. The copy's
// links still point at the original's neighbors until they are crossed.
func (t *Task) clone(tag string) *Task {
	c := *t
	c.tag = tag
	return &c
}

// NextInBranch returns the successor as seen from t's branch. Crossing into
// a different branch materializes a same-tag copy of the successor, marks its
// earliest-start cache stale (its effective predecessor changed view), and
// rewrites the link so the fork happens once.
func (t *Task) NextInBranch() *Task {
	n := t.next
	if n == nil || n.tag == t.tag {
		return n
	}
	c := n.clone(t.tag)
	c.previous = t
	c.dirty = true
	t.next = c
	trace.Trace("forked successor", logx.String("task", n.id), logx.String("tag", t.tag))
	return c
}

// PreviousInBranch is the backward counterpart of NextInBranch. The copy's
// start cache is marked stale because its effective successor changed view.
func (t *Task) PreviousInBranch() *Task {
	p := t.previous
	if p == nil || p.tag == t.tag {
		return p
	}
	c := p.clone(t.tag)
	c.next = t
	c.dirtyStart = true
	t.previous = c
	trace.Trace("forked predecessor", logx.String("task", p.id), logx.String("tag", t.tag))
	return c
}

// Insert detaches t from wherever it is and links it immediately before
// anchor, adopting anchor's branch and resource. A nil anchor is a no-op.
func (t *Task) Insert(anchor *Task) {
	if anchor == nil || anchor == t {
		return
	}
	t.Drop()

	prev := anchor.PreviousInBranch()
	t.tag = anchor.tag
	t.resource = anchor.resource
	t.previous = prev
	t.next = anchor
	if prev != nil {
		prev.next = t
	} else if t.isRoot() && t.resource != nil {
		t.resource.head = t
	}
	anchor.previous = t

	t.dirty = true
	t.dirtyStart = true
	invalidateForward(anchor, t.tag)
	invalidateBackward(prev, t.tag)
}

// Drop removes t from its chain, reconnecting its neighbors directly to each
// other. Neighbors in a different branch are treated as not linked: a drop
// only relinks within the dropping node's own branch. The dropped node keeps
// its branch tag but loses its links and resource.
func (t *Task) Drop() {
	prev, next := t.previous, t.next

	if prev != nil {
		if prev.tag == t.tag {
			prev.next = next
		}
	} else if t.isRoot() && t.resource != nil {
		t.resource.head = next
	}
	if next != nil {
		if next.tag == t.tag {
			next.previous = prev
		}
	} else if t.isRoot() && t.resource != nil {
		t.resource.tail = prev
	}

	invalidateForward(next, t.tag)
	invalidateBackward(prev, t.tag)

	t.previous = nil
	t.next = nil
	t.resource = nil
}

// MoveOut swaps t with its successor, so the pair t→next reads next→t in
// place. The successor is materialized into t's branch if needed; links into
// other branches are read but never written.
func (t *Task) MoveOut() {
	nxt := t.NextInBranch()
	if nxt == nil {
		return
	}

	// Left side.
	prev := t.previous
	nxt.previous = prev
	if prev != nil {
		if prev.tag == t.tag {
			prev.next = nxt
		}
	} else if t.isRoot() && t.resource != nil {
		t.resource.head = nxt
	}
	t.previous = nxt

	// Right side.
	t.next = nxt.next
	if t.next != nil {
		if t.next.tag == t.tag {
			t.next.previous = t
		}
	} else if t.isRoot() && t.resource != nil {
		t.resource.tail = t
	}
	nxt.next = t

	t.dirty, t.dirtyStart = true, true
	nxt.dirty, nxt.dirtyStart = true, true
	invalidateForward(t.next, t.tag)
	invalidateBackward(nxt.previous, t.tag)
}

// MoveIn swaps t with its predecessor: the symmetric inverse of MoveOut.
func (t *Task) MoveIn() {
	prev := t.PreviousInBranch()
	if prev == nil {
		return
	}

	// Right side.
	prev.next = t.next
	if t.next != nil {
		if t.next.tag == t.tag {
			t.next.previous = prev
		}
	} else if t.isRoot() && t.resource != nil {
		t.resource.tail = prev
	}
	t.next = prev

	// Left side.
	t.previous = prev.previous
	if t.previous != nil {
		if t.previous.tag == t.tag {
			t.previous.next = t
		}
	} else if t.isRoot() && t.resource != nil {
		t.resource.head = t
	}
	prev.previous = t

	t.dirty, t.dirtyStart = true, true
	prev.dirty, prev.dirtyStart = true, true
	invalidateForward(prev.next, t.tag)
	invalidateBackward(t.previous, t.tag)
}

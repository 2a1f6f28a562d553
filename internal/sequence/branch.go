package sequence

import (
	"github.com/google/uuid"

	logx "schedd/pkg/logx"
)

func newBranchTag() string { return uuid.NewString() }

// Branch returns a private copy of t carrying a freshly minted branch tag.
// Neither t, its resource, nor its neighbors are touched: the copy's links
// still point at the original chain and fork lazily as they are crossed, so
// starting a speculative reordering costs O(1).
func (t *Task) Branch() *Task {
	c := t.clone(newBranchTag())
	trace.Trace("branched", logx.String("task", t.id), logx.String("tag", c.tag))
	return c
}

// Merge commits t's branch back into its resource's chain. The contiguous
// branch-tagged run around t is collapsed to the root tag and spliced in
// place of the committed segment it was forked from; the first root-tagged
// neighbor on each side anchors the splice, and the resource's head/tail move
// if the branch run reaches either end.
//
// Merging an already committed node is a no-op. A branch forked from a node
// that was never attached has nowhere to go and is rejected.
func (t *Task) Merge() error {
	if t.isRoot() {
		return nil
	}
	if t.resource == nil {
		return ErrNoResource
	}
	r := t.resource
	tag := t.tag

	first := t
	for p := first.previous; p != nil && p.tag == tag; p = first.previous {
		first = p
	}
	last := t
	for n := last.next; n != nil && n.tag == tag; n = last.next {
		last = n
	}

	// Retag the run, and mark it stale unconditionally: its flags predate the
	// splice, so the usual early-exit marking walks cannot be trusted across
	// the old branch boundary.
	for n := first; ; n = n.next {
		n.tag = rootTag
		n.resource = r
		n.dirty = true
		n.dirtyStart = true
		if n == last {
			break
		}
	}

	linkHead := first.previous
	linkTail := last.next
	if linkHead != nil {
		linkHead.next = first
	} else {
		r.head = first
	}
	if linkTail != nil {
		linkTail.previous = last
	} else {
		r.tail = last
	}

	// Caches on both sides of the seam were computed against the displaced
	// segment.
	invalidateForward(linkTail, rootTag)
	invalidateBackward(linkHead, rootTag)

	trace.Debug("branch merged", logx.String("resource", r.id), logx.String("tag", tag))
	return nil
}

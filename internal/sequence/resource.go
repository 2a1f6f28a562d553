package sequence

import (
	"fmt"
	"iter"
	"strings"
)

// Resource owns the head and tail of one committed chain of tasks. It is the
// addressable entry point for iteration and attachment; all timing state
// lives on the nodes.
type Resource struct {
	id   string
	head *Task
	tail *Task
}

func NewResource(id string) *Resource { return &Resource{id: id} }

func (r *Resource) ID() string { return r.id }

// Head and Tail are nil for an empty resource and always root-tagged
// otherwise.
func (r *Resource) Head() *Task { return r.head }
func (r *Resource) Tail() *Task { return r.tail }

// AddTail appends a detached task to the committed chain. Branch-tagged
// nodes are rejected before any state changes.
func (r *Resource) AddTail(t *Task) error {
	if !t.isRoot() {
		return ErrBranchedTask
	}
	t.resource = r
	t.next = nil
	t.previous = r.tail
	if r.tail != nil {
		r.tail.next = t
	}
	r.tail = t
	if r.head == nil {
		r.head = t
	}
	t.dirty, t.dirtyStart = true, true
	invalidateBackward(t.previous, rootTag)
	return nil
}

// AddHead prepends a detached task to the committed chain.
func (r *Resource) AddHead(t *Task) error {
	if !t.isRoot() {
		return ErrBranchedTask
	}
	t.resource = r
	t.previous = nil
	t.next = r.head
	if r.head != nil {
		r.head.previous = t
	}
	r.head = t
	if r.tail == nil {
		r.tail = t
	}
	t.dirty, t.dirtyStart = true, true
	invalidateForward(t.next, rootTag)
	return nil
}

// Tasks iterates the committed chain in order. The sequence is lazy, finite
// and restartable; two iterations without an intervening mutation yield the
// same tasks.
func (r *Resource) Tasks() iter.Seq[*Task] {
	return func(yield func(*Task) bool) {
		for t := r.head; t != nil; t = t.next {
			if !yield(t) {
				return
			}
		}
	}
}

// Len counts the committed chain.
func (r *Resource) Len() int {
	n := 0
	for t := r.head; t != nil; t = t.next {
		n++
	}
	return n
}

// Score is the aggregate positive lateness of the committed chain.
func (r *Resource) Score() int {
	if r.head == nil {
		return 0
	}
	return ChainScore(r.head)
}

// ChainScore sums positive lateness over the full chain containing t, in
// both directions, without rewriting any links.
func ChainScore(t *Task) int {
	score := 0
	for n := t; n != nil; n = n.next {
		score += max(0, n.Lateness())
	}
	for n := t.previous; n != nil; n = n.previous {
		score += max(0, n.Lateness())
	}
	return score
}

func (r *Resource) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[", r.id)
	first := true
	for t := r.head; t != nil; t = t.next {
		if !first {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
		first = false
	}
	b.WriteString("]")
	return b.String()
}

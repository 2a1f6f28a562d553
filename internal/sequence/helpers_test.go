package sequence

import (
	"testing"
)

func mustTask(t *testing.T, id string, duration, target, margin int) *Task {
	t.Helper()
	task, err := NewTask(id, duration, target, margin)
	if err != nil {
		t.Fatalf("NewTask(%s): %v", id, err)
	}
	return task
}

// buildChain appends tasks in order and returns them for direct inspection.
func buildChain(t *testing.T, r *Resource, tasks ...*Task) {
	t.Helper()
	for _, task := range tasks {
		if err := r.AddTail(task); err != nil {
			t.Fatalf("AddTail(%s): %v", task.ID(), err)
		}
	}
}

func chainIDs(r *Resource) []string {
	var ids []string
	for task := range r.Tasks() {
		ids = append(ids, task.ID())
	}
	return ids
}

// branchIDs walks a branch view forward from its head.
func branchIDs(head *Task) []string {
	var ids []string
	for t := head; t != nil; t = t.NextInBranch() {
		ids = append(ids, t.ID())
	}
	return ids
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

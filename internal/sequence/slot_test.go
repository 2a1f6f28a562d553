package sequence

import (
	"testing"
)

func TestInsertBestUsesSlack(t *testing.T) {
	t.Parallel()
	r := NewResource("mill")
	t1 := mustTask(t, "t1", 5, 0, 0)
	t3 := mustTask(t, "t3", 4, 20, 0)
	buildChain(t, r, t1, t3)

	t2 := mustTask(t, "t2", 3, 8, 0)
	if err := r.InsertBest(t2); err != nil {
		t.Fatalf("InsertBest: %v", err)
	}

	if !sameIDs(chainIDs(r), []string{"t1", "t2", "t3"}) {
		t.Fatalf("order = %v", chainIDs(r))
	}
	if got := t1.Start(); got != 0 {
		t.Fatalf("t1 start = %d, want 0", got)
	}
	if got := t2.Start(); got != 8 {
		t.Fatalf("t2 start = %d, want 8", got)
	}
	if got := t3.Start(); got != 20 {
		t.Fatalf("t3 start = %d, want 20", got)
	}
	// Margins hold on both seams.
	if t1.End() > t2.Start() || t2.End() > t3.Start() {
		t.Fatal("insertion violated end-to-start ordering")
	}
}

func TestInsertBestAppendsWithoutSlot(t *testing.T) {
	t.Parallel()
	r := NewResource("mill")
	t1 := mustTask(t, "t1", 5, 0, 0)
	buildChain(t, r, t1)

	late := mustTask(t, "late", 2, 0, 0)
	if err := r.InsertBest(late); err != nil {
		t.Fatalf("InsertBest: %v", err)
	}
	if r.Tail() != late {
		t.Fatalf("tail = %v, want the appended task", r.Tail())
	}
	if got := late.Start(); got != 5 {
		t.Fatalf("appended start = %d, want 5", got)
	}
}

func TestInsertBestSkipsEarlierTargets(t *testing.T) {
	t.Parallel()
	r := NewResource("mill")
	t1 := mustTask(t, "t1", 2, 10, 0)
	buildChain(t, r, t1)

	// t1 has plenty of slack but an earlier target than the new task, so the
	// new task must land after it, not before.
	t2 := mustTask(t, "t2", 2, 15, 0)
	if err := r.InsertBest(t2); err != nil {
		t.Fatalf("InsertBest: %v", err)
	}
	if !sameIDs(chainIDs(r), []string{"t1", "t2"}) {
		t.Fatalf("order = %v", chainIDs(r))
	}
}

func TestInsertBestRejectsBranched(t *testing.T) {
	t.Parallel()
	r := NewResource("mill")
	t1 := mustTask(t, "t1", 5, 10, 0)
	buildChain(t, r, t1)
	if err := r.InsertBest(t1.Branch()); err != ErrBranchedTask {
		t.Fatalf("InsertBest(branched) = %v, want ErrBranchedTask", err)
	}
}

func TestInsertBestLeavesSuccessorUndelayed(t *testing.T) {
	t.Parallel()
	r := NewResource("mill")
	a := mustTask(t, "a", 2, 0, 0)
	b := mustTask(t, "b", 2, 10, 0)
	buildChain(t, r, a, b)

	// b has 8 days of slack; the newcomer fits without moving it.
	c := mustTask(t, "c", 3, 5, 0)
	if err := r.InsertBest(c); err != nil {
		t.Fatalf("InsertBest: %v", err)
	}
	if !sameIDs(chainIDs(r), []string{"a", "c", "b"}) {
		t.Fatalf("order = %v", chainIDs(r))
	}
	if got := b.Start(); got != 10 {
		t.Fatalf("b start = %d, want 10", got)
	}
	if got := c.Start(); got != 5 {
		t.Fatalf("c start = %d, want 5", got)
	}
	if got := r.Score(); got != 0 {
		t.Fatalf("score = %d, want 0", got)
	}
}

func TestInsertBestBranchStaysSpeculative(t *testing.T) {
	t.Parallel()
	r := NewResource("mill")
	t1 := mustTask(t, "t1", 5, 0, 0)
	t3 := mustTask(t, "t3", 4, 20, 0)
	buildChain(t, r, t1, t3)

	t2 := mustTask(t, "t2", 3, 8, 0)
	node, err := r.InsertBestBranch(t2)
	if err != nil {
		t.Fatalf("InsertBestBranch: %v", err)
	}
	if node == nil || !node.Branched() {
		t.Fatal("expected a branch node")
	}
	if !sameIDs(chainIDs(r), []string{"t1", "t3"}) {
		t.Fatalf("committed chain changed: %v", chainIDs(r))
	}

	if err := node.Merge(); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !sameIDs(chainIDs(r), []string{"t1", "t2", "t3"}) {
		t.Fatalf("order after merge = %v", chainIDs(r))
	}
	if got := r.Score(); got != 0 {
		t.Fatalf("score after merge = %d, want 0", got)
	}
}

func TestInsertBestBranchAppendsWithoutSlot(t *testing.T) {
	t.Parallel()
	r := NewResource("mill")
	t1 := mustTask(t, "t1", 5, 0, 0)
	buildChain(t, r, t1)

	late := mustTask(t, "late", 2, 0, 0)
	node, err := r.InsertBestBranch(late)
	if err != nil {
		t.Fatalf("InsertBestBranch: %v", err)
	}
	if !node.Branched() {
		t.Fatal("expected a branch node")
	}
	if r.Tail() != t1 {
		t.Fatal("committed tail changed before merge")
	}

	if err := node.Merge(); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if r.Tail() != node {
		t.Fatal("tail not moved after merge")
	}
	if got := node.Start(); got != 5 {
		t.Fatalf("appended start = %d, want 5", got)
	}
}

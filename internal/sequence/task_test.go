package sequence

import (
	"testing"
)

func TestNewTaskValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name                       string
		duration, target, margin   int
		wantErr                    bool
	}{
		{name: "ok", duration: 1, target: 0, margin: 0},
		{name: "ok with margin", duration: 5, target: 10, margin: 2},
		{name: "zero duration", duration: 0, target: 0, margin: 0, wantErr: true},
		{name: "negative target", duration: 1, target: -1, margin: 0, wantErr: true},
		{name: "negative margin", duration: 1, target: 0, margin: -1, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewTask("t", tt.duration, tt.target, tt.margin)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTask error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddTailLinks(t *testing.T) {
	t.Parallel()
	r := NewResource("mill")
	t1 := mustTask(t, "t1", 5, 10, 0)
	t2 := mustTask(t, "t2", 3, 15, 0)
	t3 := mustTask(t, "t3", 4, 20, 0)
	buildChain(t, r, t1, t2, t3)

	if r.Head() != t1 || r.Tail() != t3 {
		t.Fatalf("head/tail = %v/%v, want t1/t3", r.Head(), r.Tail())
	}
	if t1.Next() != t2 || t2.Next() != t3 || t3.Next() != nil {
		t.Fatal("forward links broken")
	}
	if t3.Previous() != t2 || t2.Previous() != t1 || t1.Previous() != nil {
		t.Fatal("backward links broken")
	}
	if r.Len() != 3 {
		t.Fatalf("Len = %d, want 3", r.Len())
	}
}

func TestAddHeadLinks(t *testing.T) {
	t.Parallel()
	r := NewResource("mill")
	t2 := mustTask(t, "t2", 3, 15, 0)
	t1 := mustTask(t, "t1", 5, 10, 0)
	buildChain(t, r, t2)
	if err := r.AddHead(t1); err != nil {
		t.Fatalf("AddHead: %v", err)
	}
	if !sameIDs(chainIDs(r), []string{"t1", "t2"}) {
		t.Fatalf("order = %v", chainIDs(r))
	}
	if t2.EarliestStart() != 5 {
		t.Fatalf("t2 earliest start = %d, want 5", t2.EarliestStart())
	}
}

func TestAddRejectsBranched(t *testing.T) {
	t.Parallel()
	r := NewResource("mill")
	t1 := mustTask(t, "t1", 5, 10, 0)
	buildChain(t, r, t1)

	b := t1.Branch()
	if err := r.AddTail(b); err != ErrBranchedTask {
		t.Fatalf("AddTail(branched) = %v, want ErrBranchedTask", err)
	}
	if err := r.AddHead(b); err != ErrBranchedTask {
		t.Fatalf("AddHead(branched) = %v, want ErrBranchedTask", err)
	}
}

func TestDropMiddleRelinksAndReflows(t *testing.T) {
	t.Parallel()
	r := NewResource("mill")
	t1 := mustTask(t, "t1", 5, 0, 0)
	t2 := mustTask(t, "t2", 2, 0, 0)
	t3 := mustTask(t, "t3", 3, 20, 0)
	buildChain(t, r, t1, t2, t3)

	if got := t3.EarliestStart(); got != 7 {
		t.Fatalf("t3 earliest start before drop = %d, want 7", got)
	}

	t2.Drop()

	if !sameIDs(chainIDs(r), []string{"t1", "t3"}) {
		t.Fatalf("order after drop = %v", chainIDs(r))
	}
	if t2.Next() != nil || t2.Previous() != nil || t2.Resource() != nil {
		t.Fatal("dropped task still linked")
	}
	if got := t3.EarliestStart(); got != 5 {
		t.Fatalf("t3 earliest start after drop = %d, want 5", got)
	}
	if got := t3.Start(); got != 20 {
		t.Fatalf("t3 start after drop = %d, want 20", got)
	}
}

func TestDropEndsUpdateHeadTail(t *testing.T) {
	t.Parallel()
	r := NewResource("mill")
	t1 := mustTask(t, "t1", 5, 0, 0)
	t2 := mustTask(t, "t2", 2, 10, 0)
	buildChain(t, r, t1, t2)

	t1.Drop()
	if r.Head() != t2 || r.Tail() != t2 {
		t.Fatal("head not moved after dropping head")
	}
	if got := t2.EarliestStart(); got != 0 {
		t.Fatalf("new head earliest start = %d, want 0", got)
	}

	t2.Drop()
	if r.Head() != nil || r.Tail() != nil || r.Len() != 0 {
		t.Fatal("resource not empty after dropping last task")
	}
}

func TestInsertBeforeAnchor(t *testing.T) {
	t.Parallel()
	r := NewResource("mill")
	t1 := mustTask(t, "t1", 5, 0, 0)
	t3 := mustTask(t, "t3", 4, 20, 0)
	buildChain(t, r, t1, t3)

	t2 := mustTask(t, "t2", 3, 8, 0)
	t2.Insert(t3)

	if !sameIDs(chainIDs(r), []string{"t1", "t2", "t3"}) {
		t.Fatalf("order = %v", chainIDs(r))
	}
	if got := t2.EarliestStart(); got != 5 {
		t.Fatalf("t2 earliest start = %d, want 5", got)
	}
	if got := t3.EarliestStart(); got != 8 {
		t.Fatalf("t3 earliest start = %d, want 8", got)
	}
}

func TestInsertBeforeHeadMovesHead(t *testing.T) {
	t.Parallel()
	r := NewResource("mill")
	t2 := mustTask(t, "t2", 3, 15, 0)
	buildChain(t, r, t2)

	t1 := mustTask(t, "t1", 5, 10, 0)
	t1.Insert(t2)
	if r.Head() != t1 {
		t.Fatal("head not updated on insert before head")
	}
	if got := t2.EarliestStart(); got != 5 {
		t.Fatalf("t2 earliest start = %d, want 5", got)
	}
}

func TestSetTargetRepropagatesBackward(t *testing.T) {
	t.Parallel()
	r := NewResource("mill")
	t1 := mustTask(t, "t1", 5, 10, 0)
	t2 := mustTask(t, "t2", 3, 15, 0)
	buildChain(t, r, t1, t2)

	if t1.Start() != 10 || t2.Start() != 15 {
		t.Fatalf("starts = %d/%d, want 10/15", t1.Start(), t2.Start())
	}

	// Pulling the successor earlier compresses the predecessor.
	t2.SetTarget(8)
	if got := t2.Start(); got != 8 {
		t.Fatalf("t2 start = %d, want 8", got)
	}
	if got := t1.Start(); got != 3 {
		t.Fatalf("t1 start = %d, want 3", got)
	}
}

func TestMoveOutMoveInAreInverse(t *testing.T) {
	t.Parallel()
	r := NewResource("mill")
	a := mustTask(t, "a", 2, 0, 0)
	b := mustTask(t, "b", 2, 5, 0)
	c := mustTask(t, "c", 2, 10, 0)
	buildChain(t, r, a, b, c)

	b.MoveOut()
	if !sameIDs(chainIDs(r), []string{"a", "c", "b"}) {
		t.Fatalf("order after MoveOut = %v", chainIDs(r))
	}
	b.MoveIn()
	if !sameIDs(chainIDs(r), []string{"a", "b", "c"}) {
		t.Fatalf("order after MoveIn = %v", chainIDs(r))
	}
	if r.Head() != a || r.Tail() != c {
		t.Fatal("head/tail drifted across swaps")
	}
}

func TestMoveOutAtTailUpdatesTail(t *testing.T) {
	t.Parallel()
	r := NewResource("mill")
	a := mustTask(t, "a", 2, 0, 0)
	b := mustTask(t, "b", 2, 5, 0)
	buildChain(t, r, a, b)

	a.MoveOut()
	if r.Head() != b || r.Tail() != a {
		t.Fatalf("head/tail = %s/%s, want b/a", r.Head().ID(), r.Tail().ID())
	}
	if got := a.EarliestStart(); got != 2 {
		t.Fatalf("a earliest start = %d, want 2", got)
	}
}

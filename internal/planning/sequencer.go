package planning

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"schedd/internal/sequence"
	logx "schedd/pkg/logx"
)

// Solver turns a Request into a Response. The greedy Sequencer below is the
// in-process implementation; an exact portfolio solver would satisfy the same
// contract.
type Solver interface {
	Solve(ctx context.Context, req Request) (Response, error)
}

// Sequencer solves requests by greedy insertion: every task is grafted into
// its resource's chain at the slot that best preserves existing lateness,
// then bounded improvement passes swap adjacent pairs until the total
// lateness stops dropping.
type Sequencer struct {
	log logx.Logger

	mu sync.Mutex
	// maxImprovePasses bounds the post-insertion improvement loop. Each pass
	// is monotone, so the loop also stops early once a pass yields nothing.
	maxImprovePasses int
}

const defaultImprovePasses = 4

func NewSequencer(log logx.Logger) *Sequencer {
	return &Sequencer{log: log, maxImprovePasses: defaultImprovePasses}
}

// SetMaxImprovePasses updates the improvement pass bound. Safe to call while
// solves are running; in-flight solves keep the bound they started with.
func (s *Sequencer) SetMaxImprovePasses(n int) {
	s.mu.Lock()
	if n <= 0 {
		n = defaultImprovePasses
	}
	s.maxImprovePasses = n
	s.mu.Unlock()
}

func (s *Sequencer) maxPasses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxImprovePasses
}

// flatTask is one task joined with its project context and resolved knobs.
type flatTask struct {
	projectID string
	taskID    string
	duration  int
	target    int
	margin    int
	resource  int
}

func flatten(req Request) []flatTask {
	var out []flatTask
	for _, p := range req.Projects {
		for key, t := range p.Tasks {
			ft := flatTask{
				projectID: p.ID,
				taskID:    key,
				duration:  t.Duration,
				target:    t.Target,
				margin:    t.MarginBefore,
				resource:  t.AlternativeResources[0],
			}
			if ft.target == 0 {
				ft.target = p.TargetDate
			}
			if ft.margin == 0 {
				for _, pre := range t.Predecessors {
					if pre.MinGap > ft.margin {
						ft.margin = pre.MinGap
					}
				}
			}
			out = append(out, ft)
		}
	}
	// Earliest targets first so insertion sees the chain it will have to
	// share a deadline with; ties broken by id for a deterministic solve.
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.target != b.target {
			return a.target < b.target
		}
		if a.projectID != b.projectID {
			return a.projectID < b.projectID
		}
		return a.taskID < b.taskID
	})
	return out
}

func (s *Sequencer) Solve(ctx context.Context, req Request) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{SolverStatus: SolverStatus{
			StatusCode: StatusModelInvalid,
			StatusText: err.Error(),
		}}, fmt.Errorf("invalid request: %w", err)
	}

	chains := make(map[int]*sequence.Resource, len(req.Resources))
	names := make(map[int]string, len(req.Resources))
	order := make([]int, 0, len(req.Resources))
	for _, res := range req.Resources {
		chains[res.ID] = sequence.NewResource(res.Name)
		names[res.ID] = res.Name
		order = append(order, res.ID)
	}
	sort.Ints(order)

	tasks := flatten(req)
	owner := make(map[*sequence.Task]flatTask, len(tasks))
	for _, ft := range tasks {
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}
		t, err := sequence.NewTask(ft.taskID, ft.duration, ft.target, ft.margin)
		if err != nil {
			return Response{SolverStatus: SolverStatus{
				StatusCode: StatusModelInvalid,
				StatusText: err.Error(),
			}}, err
		}
		if err := chains[ft.resource].InsertBest(t); err != nil {
			return Response{}, fmt.Errorf("insert %s/%s: %w", ft.projectID, ft.taskID, err)
		}
		owner[t] = ft
	}

	passes := s.maxPasses()
	for pass := 0; pass < passes; pass++ {
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}
		improved := 0
		for _, id := range order {
			improved += chains[id].Improve()
		}
		s.log.Debug("improvement pass done", logx.Int("pass", pass), logx.Int("delta", improved))
		if improved == 0 {
			break
		}
	}

	var solution []TaskSolution
	lateness := 0
	horizonOK := true
	for _, id := range order {
		r := chains[id]
		lateness += r.Score()
		for t := range r.Tasks() {
			ft := owner[t]
			sol := TaskSolution{
				ProjectID:        ft.projectID,
				TaskID:           ft.taskID,
				Start:            t.Start(),
				End:              t.End(),
				ResourceAssigned: names[id],
			}
			if req.Horizon > 0 && sol.End > req.Horizon {
				horizonOK = false
			}
			solution = append(solution, sol)
		}
	}

	obj := float64(lateness)
	status := SolverStatus{StatusCode: StatusFeasible, StatusText: "FEASIBLE", ObjectiveValue: &obj}
	switch {
	case !horizonOK:
		status.StatusCode = StatusInfeasible
		status.StatusText = "INFEASIBLE: horizon exceeded"
	case lateness == 0:
		status.StatusCode = StatusOptimal
		status.StatusText = "OPTIMAL"
	}

	s.log.Info("solve finished",
		logx.Int("tasks", len(solution)),
		logx.Int("lateness", lateness),
		logx.String("status", status.StatusText))
	return Response{SolverStatus: status, Solution: solution}, nil
}

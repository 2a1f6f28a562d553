package planning

// Wire model of the scheduling service. JSON tags are the contract; YAML
// scenario files are accepted by coercing YAML to JSON first (see
// internal/config).

// ResourceSpec describes one schedulable resource.
type ResourceSpec struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	CapacityPerDay int    `json:"capacity_per_day,omitempty"`
}

// Predecessor is a precedence edge with gap bounds, kept for model
// compatibility with the full portfolio solver. The sequencer uses the
// largest MinGap as the task's chain margin when none is given explicitly.
type Predecessor struct {
	TaskID string `json:"task_id"`
	MinGap int    `json:"min_gap,omitempty"`
	MaxGap *int   `json:"max_gap,omitempty"`
}

// Task is one unit of work inside a project.
//
// Target is the day the task should ideally start; 0 means "derive from the
// project's target date". MarginBefore is the minimum gap after the
// preceding task on the same resource.
type Task struct {
	ID                   string        `json:"id"`
	Duration             int           `json:"duration"`
	Load                 int           `json:"load,omitempty"`
	Target               int           `json:"target,omitempty"`
	MarginBefore         int           `json:"margin_before,omitempty"`
	Predecessors         []Predecessor `json:"predecessors,omitempty"`
	AlternativeResources []int         `json:"alternative_resources"`
}

// Project groups tasks under a common target date and lateness weights.
type Project struct {
	ID             string          `json:"id"`
	ProductType    string          `json:"product_type,omitempty"`
	TargetDate     int             `json:"target_date"`
	LatestDate     *int            `json:"latest_date,omitempty"`
	WeightPositive int             `json:"weight_positive,omitempty"`
	WeightNegative int             `json:"weight_negative,omitempty"`
	WeightLate     int             `json:"weight_late,omitempty"`
	FinishTaskID   string          `json:"finish_task_id,omitempty"`
	Tasks          map[string]Task `json:"tasks"`
}

// PeriodConstraint caps how many projects of a product type may finish in a
// period. Enforced by the portfolio solver, carried here so requests
// round-trip unchanged.
type PeriodConstraint struct {
	StartDate   int    `json:"start_date"`
	EndDate     int    `json:"end_date"`
	ProductType string `json:"product_type"`
	MaxProjects int    `json:"max_projects"`
}

// Solver status codes, mirroring the portfolio solver's convention.
const (
	StatusUnknown      = 0
	StatusModelInvalid = 1
	StatusFeasible     = 2
	StatusInfeasible   = 3
	StatusOptimal      = 4
)

type SolverStatus struct {
	StatusCode     int      `json:"status_code"`
	StatusText     string   `json:"status_text"`
	ObjectiveValue *float64 `json:"objective_value,omitempty"`
}

// TaskSolution is the per-task read-out record assembled from a solved
// chain: project, task, start, end and the resource the task landed on.
type TaskSolution struct {
	ProjectID        string `json:"project_id"`
	TaskID           string `json:"task_id"`
	Start            int    `json:"start"`
	End              int    `json:"end"`
	ResourceAssigned string `json:"resource_assigned,omitempty"`
}

// Request is a full sequencing request.
type Request struct {
	Projects          []Project          `json:"projects"`
	Resources         []ResourceSpec     `json:"resources"`
	PeriodConstraints []PeriodConstraint `json:"period_constraints,omitempty"`
	Horizon           int                `json:"horizon,omitempty"`
	TimeLimit         int                `json:"time_limit,omitempty"` // seconds
}

// Response carries the solver outcome and one solution record per task.
type Response struct {
	SolverStatus SolverStatus   `json:"solver_status"`
	Solution     []TaskSolution `json:"solution"`
}

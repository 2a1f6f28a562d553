package planning

import (
	"fmt"
)

// Validate checks a request for the mistakes the solver would otherwise turn
// into silent nonsense: dangling resource references, impossible durations,
// duplicate identifiers. It returns the first problem found.
func (r Request) Validate() error {
	if len(r.Resources) == 0 {
		return fmt.Errorf("request has no resources")
	}
	resources := make(map[int]string, len(r.Resources))
	for _, res := range r.Resources {
		if res.Name == "" {
			return fmt.Errorf("resource %d has no name", res.ID)
		}
		if _, dup := resources[res.ID]; dup {
			return fmt.Errorf("duplicate resource id %d", res.ID)
		}
		resources[res.ID] = res.Name
	}

	projects := make(map[string]struct{}, len(r.Projects))
	// Task ids must stay unique on every resource chain they can land on;
	// map keys only guarantee that within one project.
	owners := make(map[string]map[int]string)
	for _, p := range r.Projects {
		if p.ID == "" {
			return fmt.Errorf("project with empty id")
		}
		if _, dup := projects[p.ID]; dup {
			return fmt.Errorf("duplicate project id %q", p.ID)
		}
		projects[p.ID] = struct{}{}
		if p.TargetDate < 0 {
			return fmt.Errorf("project %q: target date must be >= 0, got %d", p.ID, p.TargetDate)
		}
		if p.FinishTaskID != "" {
			if _, ok := p.Tasks[p.FinishTaskID]; !ok {
				return fmt.Errorf("project %q: finish task %q not found", p.ID, p.FinishTaskID)
			}
		}
		for key, t := range p.Tasks {
			if t.ID != "" && t.ID != key {
				return fmt.Errorf("project %q: task key %q does not match task id %q", p.ID, key, t.ID)
			}
			if t.Duration < 1 {
				return fmt.Errorf("project %q task %q: duration must be >= 1, got %d", p.ID, key, t.Duration)
			}
			if t.Target < 0 || t.MarginBefore < 0 {
				return fmt.Errorf("project %q task %q: target and margin must be >= 0", p.ID, key)
			}
			if len(t.AlternativeResources) == 0 {
				return fmt.Errorf("project %q task %q: no alternative resources", p.ID, key)
			}
			for _, id := range t.AlternativeResources {
				if _, ok := resources[id]; !ok {
					return fmt.Errorf("project %q task %q: unknown resource %d", p.ID, key, id)
				}
				if other, clash := owners[key][id]; clash {
					return fmt.Errorf("project %q task %q: id already used by project %q on resource %d", p.ID, key, other, id)
				}
			}
			if owners[key] == nil {
				owners[key] = make(map[int]string, len(t.AlternativeResources))
			}
			for _, id := range t.AlternativeResources {
				owners[key][id] = p.ID
			}
			for _, pre := range t.Predecessors {
				if _, ok := p.Tasks[pre.TaskID]; !ok {
					return fmt.Errorf("project %q task %q: unknown predecessor %q", p.ID, key, pre.TaskID)
				}
				if pre.MinGap < 0 {
					return fmt.Errorf("project %q task %q: predecessor %q min gap must be >= 0", p.ID, key, pre.TaskID)
				}
			}
		}
	}

	for _, pc := range r.PeriodConstraints {
		if pc.EndDate < pc.StartDate {
			return fmt.Errorf("period constraint for %q ends before it starts", pc.ProductType)
		}
		if pc.MaxProjects < 0 {
			return fmt.Errorf("period constraint for %q: max projects must be >= 0", pc.ProductType)
		}
	}
	return nil
}

package enums

import "slices"

// PlanStatus tracks the lifecycle state of a daily dispatch plan.
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "DRAFT"
	PlanStatusPublished PlanStatus = "PUBLISHED"
	PlanStatusCompleted PlanStatus = "COMPLETED"
	PlanStatusCancelled PlanStatus = "CANCELLED"
)

var validPlanStatuses = []PlanStatus{
	PlanStatusDraft,
	PlanStatusPublished,
	PlanStatusCompleted,
	PlanStatusCancelled,
}

// String implements fmt.Stringer.
func (p PlanStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PlanStatus.
func (p PlanStatus) IsValid() bool {
	return slices.Contains(validPlanStatuses, p)
}

// ParsePlanStatus converts raw input into a PlanStatus.
func ParsePlanStatus(value string) (PlanStatus, error) {
	return parse(value, validPlanStatuses, "plan status")
}

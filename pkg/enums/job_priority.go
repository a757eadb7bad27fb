package enums

import "slices"

// JobPriority orders pending work for auto-assignment.
type JobPriority string

const (
	JobPriorityHigh   JobPriority = "HIGH"
	JobPriorityMedium JobPriority = "MEDIUM"
	JobPriorityLow    JobPriority = "LOW"
)

var validJobPriorities = []JobPriority{
	JobPriorityHigh,
	JobPriorityMedium,
	JobPriorityLow,
}

func (j JobPriority) String() string {
	return string(j)
}

// IsValid reports whether the value is a known JobPriority.
func (j JobPriority) IsValid() bool {
	return slices.Contains(validJobPriorities, j)
}

// ParseJobPriority converts raw input into a JobPriority.
func ParseJobPriority(value string) (JobPriority, error) {
	return parse(value, validJobPriorities, "job priority")
}

// Rank orders priorities for dispatch; lower ranks are served first.
func (j JobPriority) Rank() int {
	switch j {
	case JobPriorityHigh:
		return 0
	case JobPriorityMedium:
		return 1
	case JobPriorityLow:
		return 2
	default:
		return 3
	}
}

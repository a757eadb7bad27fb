package enums

import "slices"

type ExecutionStatus string

const (
	ExecutionStatusInProgress ExecutionStatus = "IN_PROGRESS"
	ExecutionStatusCompleted  ExecutionStatus = "COMPLETED"
	ExecutionStatusCancelled  ExecutionStatus = "CANCELLED"
)

var validExecutionStatuses = []ExecutionStatus{
	ExecutionStatusInProgress,
	ExecutionStatusCompleted,
	ExecutionStatusCancelled,
}

func (e ExecutionStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known ExecutionStatus.
func (e ExecutionStatus) IsValid() bool {
	return slices.Contains(validExecutionStatuses, e)
}

// ParseExecutionStatus converts raw input into a ExecutionStatus.
func ParseExecutionStatus(value string) (ExecutionStatus, error) {
	return parse(value, validExecutionStatuses, "execution status")
}

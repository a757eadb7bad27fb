package enums

import "slices"

// JobStatus tracks a transport job through dispatch.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusPlanned    JobStatus = "PLANNED"
	JobStatusBlocked    JobStatus = "BLOCKED"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusCancelled  JobStatus = "CANCELLED"
)

var validJobStatuses = []JobStatus{
	JobStatusPending,
	JobStatusPlanned,
	JobStatusBlocked,
	JobStatusInProgress,
	JobStatusCompleted,
	JobStatusCancelled,
}

// String implements fmt.Stringer.
func (j JobStatus) String() string {
	return string(j)
}

// IsValid reports whether the value is a known JobStatus.
func (j JobStatus) IsValid() bool {
	return slices.Contains(validJobStatuses, j)
}

// ParseJobStatus converts raw input into a JobStatus.
func ParseJobStatus(value string) (JobStatus, error) {
	return parse(value, validJobStatuses, "job status")
}

package enums

import "slices"

// JobType names the kind of collection requested.
type JobType string

const (
	JobTypeCollectInternalSands JobType = "COLLECT_INTERNAL_SANDS"
	JobTypeCollectExternalSands JobType = "COLLECT_EXTERNAL_SANDS"
	JobTypeCollectInternalOres  JobType = "COLLECT_INTERNAL_ORES"
	JobTypeCollectExternalOres  JobType = "COLLECT_EXTERNAL_ORES"
)

var validJobTypes = []JobType{
	JobTypeCollectInternalSands,
	JobTypeCollectExternalSands,
	JobTypeCollectInternalOres,
	JobTypeCollectExternalOres,
}

func (j JobType) String() string {
	return string(j)
}

// IsValid reports whether the value is a known JobType.
func (j JobType) IsValid() bool {
	return slices.Contains(validJobTypes, j)
}

// ParseJobType converts raw input into a JobType.
func ParseJobType(value string) (JobType, error) {
	return parse(value, validJobTypes, "job type")
}

package enums

import "slices"

// ProcedureType groups checklists by when they are run.
type ProcedureType string

const (
	ProcedureTypeStandard   ProcedureType = "STANDARD"
	ProcedureTypeStartOfDay ProcedureType = "START_OF_DAY"
	ProcedureTypeEndOfDay   ProcedureType = "END_OF_DAY"
	ProcedureTypeException  ProcedureType = "EXCEPTION"
)

var validProcedureTypes = []ProcedureType{
	ProcedureTypeStandard,
	ProcedureTypeStartOfDay,
	ProcedureTypeEndOfDay,
	ProcedureTypeException,
}

func (p ProcedureType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProcedureType.
func (p ProcedureType) IsValid() bool {
	return slices.Contains(validProcedureTypes, p)
}

// ParseProcedureType converts raw input into a ProcedureType.
func ParseProcedureType(value string) (ProcedureType, error) {
	return parse(value, validProcedureTypes, "procedure type")
}

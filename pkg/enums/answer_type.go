package enums

import "slices"

type AnswerType string

const (
	AnswerTypeText       AnswerType = "TEXT"
	AnswerTypeBoolean    AnswerType = "BOOLEAN"
	AnswerTypeChoice     AnswerType = "CHOICE"
	AnswerTypeFileUpload AnswerType = "FILE_UPLOAD"
)

var validAnswerTypes = []AnswerType{
	AnswerTypeText,
	AnswerTypeBoolean,
	AnswerTypeChoice,
	AnswerTypeFileUpload,
}

func (a AnswerType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AnswerType.
func (a AnswerType) IsValid() bool {
	return slices.Contains(validAnswerTypes, a)
}

// ParseAnswerType converts raw input into a AnswerType.
func ParseAnswerType(value string) (AnswerType, error) {
	return parse(value, validAnswerTypes, "answer type")
}

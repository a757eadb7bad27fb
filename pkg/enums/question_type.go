package enums

import "slices"

// QuestionType selects the input widget rendered for a question.
type QuestionType string

const (
	QuestionTypeText           QuestionType = "TEXT"
	QuestionTypeTextArea       QuestionType = "TEXT_AREA"
	QuestionTypeBoolean        QuestionType = "BOOLEAN"
	QuestionTypeRadio          QuestionType = "RADIO"
	QuestionTypeRadioGroup     QuestionType = "RADIO_GROUP"
	QuestionTypeImagePicker    QuestionType = "IMAGE_PICKER"
	QuestionTypeSignature      QuestionType = "SIGNATURE"
	QuestionTypeDatePicker     QuestionType = "DATE_PICKER"
	QuestionTypeDateTimePicker QuestionType = "DATE_TIME_PICKER"
)

var validQuestionTypes = []QuestionType{
	QuestionTypeText,
	QuestionTypeTextArea,
	QuestionTypeBoolean,
	QuestionTypeRadio,
	QuestionTypeRadioGroup,
	QuestionTypeImagePicker,
	QuestionTypeSignature,
	QuestionTypeDatePicker,
	QuestionTypeDateTimePicker,
}

func (q QuestionType) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuestionType.
func (q QuestionType) IsValid() bool {
	return slices.Contains(validQuestionTypes, q)
}

// ParseQuestionType converts raw input into a QuestionType.
func ParseQuestionType(value string) (QuestionType, error) {
	return parse(value, validQuestionTypes, "question type")
}

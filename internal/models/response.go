package models

import "time"

type Choice string

const (
	ChoiceA    Choice = "A"
	ChoiceB    Choice = "B"
	ChoiceNone Choice = "None"
)

// Choices lists the accepted answers.
var Choices = []Choice{ChoiceA, ChoiceB, ChoiceNone}

func (c Choice) Valid() bool {
	return c == ChoiceA || c == ChoiceB || c == ChoiceNone
}

// ResponseRecord is one answered question. OrderIndex is the 1-based
// presentation position, not the question id.
type ResponseRecord struct {
	QuestionID int         `json:"questionId"`
	OrderIndex int         `json:"orderIndex"`
	Choice     Choice      `json:"choice"`
	Set        QuestionSet `json:"set"`
	AnsweredAt time.Time   `json:"timestamp"`
}

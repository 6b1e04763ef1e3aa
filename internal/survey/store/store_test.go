package store

import (
	"time"

	"rumble-survey/internal/models"
	"rumble-survey/internal/survey/bank"
)

func sampleSubmission() models.SessionSubmission {
	answeredAt := time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC)
	var responses []models.ResponseRecord
	for i, q := range bank.Default().All() {
		responses = append(responses, models.ResponseRecord{
			QuestionID: q.ID,
			OrderIndex: i + 1,
			Choice:     models.ChoiceA,
			Set:        q,
			AnsweredAt: answeredAt,
		})
	}
	return models.SessionSubmission{
		SubmissionID: "5b0e7f0c-8f5e-4a57-9c43-1b7f6f0c2a11",
		UserID:       "anon-1",
		Demographics: models.Demographics{
			Location:  models.LocationMontclair,
			AgeRange:  models.Age26to35,
			Frequency: models.FrequencyWeekly,
		},
		Responses:      responses,
		DeviceType:     models.DeviceDesktop,
		ValidationCode: "K7Q2ZD",
	}
}

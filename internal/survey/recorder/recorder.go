// Package recorder builds the append-only log of a session's answers.
package recorder

import (
	"fmt"
	"slices"
	"time"

	"rumble-survey/internal/common/errors"
	"rumble-survey/internal/models"
)

// Clock supplies answer timestamps.
type Clock func() time.Time

// Record snapshots current and stamps it. position is the 0-based queue index.
func Record(current models.QuestionSet, position int, choice models.Choice, now Clock) (models.ResponseRecord, error) {
	if !choice.Valid() {
		return models.ResponseRecord{}, errors.NewInvariantViolationError(fmt.Sprintf("unknown choice %q", choice))
	}
	if position < 0 {
		return models.ResponseRecord{}, errors.NewInvariantViolationError(fmt.Sprintf("negative position %d", position))
	}
	return models.ResponseRecord{
		QuestionID: current.ID,
		OrderIndex: position + 1,
		Choice:     choice,
		Set:        current,
		AnsweredAt: now(),
	}, nil
}

// Log is an ordered, append-only list of records. The zero value is ready to use.
type Log struct {
	records []models.ResponseRecord
}

// Append adds rec. OrderIndex must continue the sequence and a question may
// only be answered once.
func (l *Log) Append(rec models.ResponseRecord) error {
	if want := len(l.records) + 1; rec.OrderIndex != want {
		return errors.NewInvariantViolationError(fmt.Sprintf("orderIndex %d, expected %d", rec.OrderIndex, want))
	}
	if slices.ContainsFunc(l.records, func(r models.ResponseRecord) bool { return r.QuestionID == rec.QuestionID }) {
		return errors.NewInvariantViolationError(fmt.Sprintf("question %d already answered", rec.QuestionID))
	}
	l.records = append(l.records, rec)
	return nil
}

func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.records)
}

// Clone returns an independent copy; appending to it leaves l unchanged.
func (l *Log) Clone() *Log {
	if l == nil {
		return &Log{}
	}
	return &Log{records: slices.Clone(l.records)}
}

// Records returns a copy of the log in answer order.
func (l *Log) Records() []models.ResponseRecord {
	if l == nil {
		return nil
	}
	return slices.Clone(l.records)
}

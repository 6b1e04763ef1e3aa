// internal/survey/submission/models.go
package submission

import (
	"time"

	"rumble-survey/internal/models"
	"rumble-survey/internal/survey/recorder"
	"rumble-survey/internal/survey/sequencer"
)

// Keys identify one completed session. They are drawn once when the session
// starts and reused by every submit attempt.
type Keys struct {
	SubmissionID   string
	ValidationCode string
}

// Input is everything Build reads.
type Input struct {
	Keys         Keys
	Demographics models.Demographics
	Session      *sequencer.Session
	Log          *recorder.Log
	UserID       string
	Device       models.DeviceInfo
}

// Outcome describes a finished submit call that did not fail.
type Outcome struct {
	Persisted bool
	Degraded  bool
	Backend   string
	Duration  time.Duration
}

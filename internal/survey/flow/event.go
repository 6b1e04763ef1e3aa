package flow

import (
	"time"

	"rumble-survey/internal/models"
	"rumble-survey/internal/survey/submission"
)

// Event is an input to the machine: a respondent action, a collaborator
// result or an elapsed timer.
type Event interface {
	event()
}

type SelectLocation struct{ Location models.Location }
type SelectAge struct{ AgeRange models.AgeRange }
type SelectFrequency struct{ Frequency models.Frequency }

// IdentityChanged carries the collaborator's current identity.
type IdentityChanged struct {
	UserID  string
	Present bool
}

// IdentityUnavailable reports a failed anonymous sign-in.
type IdentityUnavailable struct{ Message string }

// IdentityTimedOut reports that the bounded identity wait expired.
type IdentityTimedOut struct{ Message string }

// RetryIdentity asks for another sign-in attempt after a failure.
type RetryIdentity struct{}

type Start struct{}

type Choose struct{ Choice models.Choice }

// ConfirmElapsed ends the short pause that shows the selected answer.
type ConfirmElapsed struct{}

type SubmitSucceeded struct {
	Outcome submission.Outcome
	At      time.Time
}

type SubmitFailed struct{ Message string }

type Retry struct{}

type Reset struct{}

func (SelectLocation) event()      {}
func (SelectAge) event()           {}
func (SelectFrequency) event()     {}
func (IdentityChanged) event()     {}
func (IdentityUnavailable) event() {}
func (IdentityTimedOut) event()    {}
func (RetryIdentity) event()       {}
func (Start) event()               {}
func (Choose) event()              {}
func (ConfirmElapsed) event()      {}
func (SubmitSucceeded) event()     {}
func (SubmitFailed) event()        {}
func (Retry) event()               {}
func (Reset) event()               {}

// Effect is work the caller must perform after a transition.
type Effect interface {
	effect()
}

// ScheduleConfirm asks for a ConfirmElapsed event after Delay.
type ScheduleConfirm struct{ Delay time.Duration }

// RunSubmit asks for Submission to be written; the result comes back as
// SubmitSucceeded or SubmitFailed.
type RunSubmit struct{ Submission models.SessionSubmission }

// InitIdentity asks for a new bounded sign-in attempt.
type InitIdentity struct{}

// SessionStarted and AnswerRecorded are reported for telemetry.
type SessionStarted struct{ SubmissionID string }
type AnswerRecorded struct{ Record models.ResponseRecord }

func (ScheduleConfirm) effect() {}
func (RunSubmit) effect()       {}
func (InitIdentity) effect()    {}
func (SessionStarted) effect()  {}
func (AnswerRecorded) effect()  {}

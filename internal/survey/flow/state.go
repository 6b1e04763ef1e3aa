// Package flow is the kiosk's screen controller: an explicit state machine
// whose transitions are plain functions of (State, Event).
package flow

import (
	"time"

	"rumble-survey/internal/models"
	"rumble-survey/internal/survey/recorder"
	"rumble-survey/internal/survey/sequencer"
	"rumble-survey/internal/survey/submission"
)

// IdentityStatus tracks the identity collaborator.
type IdentityStatus int

const (
	IdentityPending IdentityStatus = iota
	IdentityReady
	IdentityFailed
)

// Conn is the identity state carried through every screen.
type Conn struct {
	// Required is true when a store is configured; only then does the intake
	// gate wait for an identity.
	Required bool
	Status   IdentityStatus
	UserID   string
	Err      string
}

// Ready reports whether the intake gate is open on the identity side.
func (c Conn) Ready() bool {
	return !c.Required || c.Status == IdentityReady
}

// State is one screen. The variants below are the only implementations.
type State interface {
	conn() Conn
	withConn(Conn) State
}

// Intake collects demographics.
type Intake struct {
	Conn   Conn
	Form   models.Demographics
	Notice string
}

// CanStart reports whether the start action is enabled.
func (s Intake) CanStart() bool {
	return s.Form.Complete() && s.Conn.Ready()
}

// Phase is the survey sub-state.
type Phase int

const (
	Presenting Phase = iota
	Confirming
)

// Survey presents the shuffled questions one at a time.
type Survey struct {
	Conn         Conn
	Demographics models.Demographics
	Keys         submission.Keys
	Session      *sequencer.Session
	Log          *recorder.Log
	Phase        Phase
	// Selected is the choice being confirmed while Phase == Confirming.
	Selected models.Choice
}

// Current returns the question on screen.
func (s Survey) Current() models.QuestionSet {
	q, _ := s.Session.Current()
	return q
}

// Progress returns the question number and rounded percentage.
func (s Survey) Progress() (number, total, percent int) {
	number, percent = s.Session.Progress()
	return number, s.Session.Len(), percent
}

// Submitting waits for the single in-flight store write.
type Submitting struct {
	Conn       Conn
	Submission models.SessionSubmission
	Attempt    int
}

// SubmissionError shows the store's message and offers a retry.
type SubmissionError struct {
	Conn       Conn
	Submission models.SessionSubmission
	Attempt    int
	Message    string
}

// Results shows the validation code.
type Results struct {
	Conn        Conn
	Submission  models.SessionSubmission
	Persisted   bool
	Degraded    bool
	CompletedAt time.Time
}

func (s Intake) conn() Conn          { return s.Conn }
func (s Survey) conn() Conn          { return s.Conn }
func (s Submitting) conn() Conn      { return s.Conn }
func (s SubmissionError) conn() Conn { return s.Conn }
func (s Results) conn() Conn         { return s.Conn }

func (s Intake) withConn(c Conn) State          { s.Conn = c; return s }
func (s Survey) withConn(c Conn) State          { s.Conn = c; return s }
func (s Submitting) withConn(c Conn) State      { s.Conn = c; return s }
func (s SubmissionError) withConn(c Conn) State { s.Conn = c; return s }
func (s Results) withConn(c Conn) State         { s.Conn = c; return s }

// ConnOf returns the identity state of any screen.
func ConnOf(s State) Conn {
	return s.conn()
}

package flow

import (
	"time"

	"rumble-survey/internal/models"
	"rumble-survey/internal/survey/recorder"
	"rumble-survey/internal/survey/sequencer"
	"rumble-survey/internal/survey/submission"
)

// Machine holds the collaborators transitions draw on. With a seeded Rand, a
// fixed Clock and fixed Keys, Transition is deterministic.
type Machine struct {
	Questions       func() []models.QuestionSet
	Rand            sequencer.Source
	Clock           func() time.Time
	Keys            func() (submission.Keys, error)
	Device          models.DeviceInfo
	ConfirmDelay    time.Duration
	RequireIdentity bool
}

// Initial returns the intake screen for a fresh kiosk.
func (m *Machine) Initial() State {
	return Intake{Conn: Conn{Required: m.RequireIdentity}}
}

// Transition applies e to s. Events that do not apply to s return s unchanged
// and no effects.
func (m *Machine) Transition(s State, e Event) (State, []Effect) {
	switch ev := e.(type) {
	case IdentityChanged:
		c := s.conn()
		switch {
		case ev.Present && ev.UserID != "":
			c.Status, c.UserID, c.Err = IdentityReady, ev.UserID, ""
		case c.Status == IdentityFailed:
			// a failed sign-in stays failed until RetryIdentity
			c.UserID = ""
		default:
			c.Status, c.UserID = IdentityPending, ""
		}
		return s.withConn(c), nil
	case IdentityUnavailable:
		return failIdentity(s, ev.Message), nil
	case IdentityTimedOut:
		return failIdentity(s, ev.Message), nil
	case RetryIdentity:
		c := s.conn()
		if c.Status != IdentityFailed {
			return s, nil
		}
		c.Status, c.Err = IdentityPending, ""
		return s.withConn(c), []Effect{InitIdentity{}}
	}

	switch st := s.(type) {
	case Intake:
		return m.intake(st, e)
	case Survey:
		return m.survey(st, e)
	case Submitting:
		return m.submitting(st, e)
	case SubmissionError:
		return m.submissionError(st, e)
	case Results:
		if _, ok := e.(Reset); ok {
			return Intake{Conn: st.Conn}, nil
		}
	}
	return s, nil
}

func failIdentity(s State, msg string) State {
	c := s.conn()
	if c.Status == IdentityReady {
		return s
	}
	c.Status, c.Err = IdentityFailed, msg
	return s.withConn(c)
}

func (m *Machine) intake(s Intake, e Event) (State, []Effect) {
	switch ev := e.(type) {
	case SelectLocation:
		if ev.Location.Valid() {
			s.Form.Location = ev.Location
		}
		return s, nil
	case SelectAge:
		if ev.AgeRange.Valid() {
			s.Form.AgeRange = ev.AgeRange
		}
		return s, nil
	case SelectFrequency:
		if ev.Frequency.Valid() {
			s.Form.Frequency = ev.Frequency
		}
		return s, nil
	case Start:
		if !s.CanStart() {
			return s, nil
		}
		keys, err := m.Keys()
		if err != nil {
			s.Notice = "Could not start the survey. Please try again."
			return s, nil
		}
		next := Survey{
			Conn:         s.Conn,
			Demographics: s.Form,
			Keys:         keys,
			Session:      sequencer.NewSession(m.Questions(), m.Rand),
			Log:          &recorder.Log{},
			Phase:        Presenting,
		}
		return next, []Effect{SessionStarted{SubmissionID: keys.SubmissionID}}
	}
	return s, nil
}

func (m *Machine) survey(s Survey, e Event) (State, []Effect) {
	switch ev := e.(type) {
	case Choose:
		if s.Phase != Presenting || !ev.Choice.Valid() {
			return s, nil
		}
		current, ok := s.Session.Current()
		if !ok {
			return s, nil
		}
		rec, err := recorder.Record(current, s.Session.Position, ev.Choice, m.Clock)
		if err != nil {
			panic(err)
		}
		log := s.Log.Clone()
		if err := log.Append(rec); err != nil {
			panic(err)
		}
		s.Log = log
		s.Phase = Confirming
		s.Selected = ev.Choice
		return s, []Effect{AnswerRecorded{Record: rec}, ScheduleConfirm{Delay: m.ConfirmDelay}}

	case ConfirmElapsed:
		if s.Phase != Confirming {
			return s, nil
		}
		session := *s.Session
		session.Advance()
		s.Session = &session
		s.Phase = Presenting
		s.Selected = ""
		if !session.Done() {
			return s, nil
		}

		sub, err := submission.Build(submission.Input{
			Keys:         s.Keys,
			Demographics: s.Demographics,
			Session:      s.Session,
			Log:          s.Log,
			UserID:       s.Conn.UserID,
			Device:       m.Device,
		})
		if err != nil {
			panic(err)
		}
		return Submitting{Conn: s.Conn, Submission: sub, Attempt: 1}, []Effect{RunSubmit{Submission: sub}}
	}
	return s, nil
}

func (m *Machine) submitting(s Submitting, e Event) (State, []Effect) {
	switch ev := e.(type) {
	case SubmitSucceeded:
		return Results{
			Conn:        s.Conn,
			Submission:  s.Submission,
			Persisted:   ev.Outcome.Persisted,
			Degraded:    ev.Outcome.Degraded,
			CompletedAt: ev.At,
		}, nil
	case SubmitFailed:
		return SubmissionError{Conn: s.Conn, Submission: s.Submission, Attempt: s.Attempt, Message: ev.Message}, nil
	}
	return s, nil
}

func (m *Machine) submissionError(s SubmissionError, e Event) (State, []Effect) {
	if _, ok := e.(Retry); !ok {
		return s, nil
	}
	sub := s.Submission
	// a session finished while identity was missing picks it up on retry;
	// nothing else in the submission changes
	if sub.UserID == "" && s.Conn.UserID != "" {
		sub.UserID = s.Conn.UserID
	}
	return Submitting{Conn: s.Conn, Submission: sub, Attempt: s.Attempt + 1}, []Effect{RunSubmit{Submission: sub}}
}

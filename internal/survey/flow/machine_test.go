package flow

import (
	"encoding/json"
	"testing"
	"time"

	"rumble-survey/internal/models"
	"rumble-survey/internal/survey/bank"
	"rumble-survey/internal/survey/sequencer"
	"rumble-survey/internal/survey/submission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

func newMachine(seed uint64, requireIdentity bool) *Machine {
	return &Machine{
		Questions: bank.Default().All,
		Rand:      sequencer.NewRand(seed),
		Clock:     func() time.Time { return testNow },
		Keys: func() (submission.Keys, error) {
			return submission.Keys{SubmissionID: "sub-1", ValidationCode: "ABC123"}, nil
		},
		Device:          submission.DescribeDevice("survey-kiosk/test (linux; amd64)"),
		ConfirmDelay:    250 * time.Millisecond,
		RequireIdentity: requireIdentity,
	}
}

func apply(t *testing.T, m *Machine, s State, events ...Event) (State, []Effect) {
	t.Helper()
	var all []Effect
	for _, e := range events {
		var effects []Effect
		s, effects = m.Transition(s, e)
		all = append(all, effects...)
	}
	return s, all
}

func fillIntake() []Event {
	return []Event{
		SelectLocation{models.LocationMontclair},
		SelectAge{models.Age26to35},
		SelectFrequency{models.FrequencyWeekly},
	}
}

func answer(c models.Choice) []Event {
	return []Event{Choose{c}, ConfirmElapsed{}}
}

func startedSurvey(t *testing.T, m *Machine) Survey {
	t.Helper()
	s, _ := apply(t, m, m.Initial(), append(fillIntake(), IdentityChanged{UserID: "anon-1", Present: true}, Start{})...)
	survey, ok := s.(Survey)
	require.True(t, ok, "expected Survey, got %T", s)
	return survey
}

func TestScenario_AllA(t *testing.T) {
	m := newMachine(99, true)
	s, _ := apply(t, m, m.Initial(), fillIntake()...)

	intake := s.(Intake)
	assert.False(t, intake.CanStart(), "identity not ready yet")

	s, _ = apply(t, m, s, IdentityChanged{UserID: "anon-1", Present: true})
	require.True(t, s.(Intake).CanStart())

	s, effects := apply(t, m, s, Start{})
	survey := s.(Survey)
	assert.Equal(t, []Effect{SessionStarted{SubmissionID: "sub-1"}}, effects)

	var order []int
	for _, q := range survey.Session.Queue {
		order = append(order, q.ID)
	}
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, order)
	assert.NotEqual(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, order)

	var events []Event
	for range 8 {
		events = append(events, answer(models.ChoiceA)...)
	}
	s, effects = apply(t, m, s, events...)

	sub, ok := s.(Submitting)
	require.True(t, ok, "got %T", s)
	assert.Equal(t, 1, sub.Attempt)
	require.Len(t, sub.Submission.Responses, 8)
	for i, r := range sub.Submission.Responses {
		assert.Equal(t, models.ChoiceA, r.Choice)
		assert.Equal(t, i+1, r.OrderIndex)
		assert.Equal(t, order[i], r.QuestionID)
	}
	assert.Equal(t, "anon-1", sub.Submission.UserID)
	assert.Equal(t, models.Demographics{Location: "Montclair", AgeRange: "26-35", Frequency: "1-2x Week"}, sub.Submission.Demographics)

	var runs []RunSubmit
	for _, e := range effects {
		if r, ok := e.(RunSubmit); ok {
			runs = append(runs, r)
		}
	}
	require.Len(t, runs, 1)
	assert.Equal(t, sub.Submission, runs[0].Submission)
}

func TestScenario_RejectedThenRetried(t *testing.T) {
	m := newMachine(5, true)
	s := State(startedSurvey(t, m))
	for range 8 {
		s, _ = apply(t, m, s, answer(models.ChoiceB)...)
	}
	built := s.(Submitting).Submission

	s, _ = apply(t, m, s, SubmitFailed{Message: "The postgres response store rejected the submission: permission denied"})
	errState, ok := s.(SubmissionError)
	require.True(t, ok)
	assert.Equal(t, "The postgres response store rejected the submission: permission denied", errState.Message)

	s, effects := apply(t, m, s, Retry{})
	retrying := s.(Submitting)
	assert.Equal(t, 2, retrying.Attempt)
	assert.Equal(t, built, retrying.Submission)
	assert.Equal(t, []Effect{RunSubmit{Submission: built}}, effects)

	s, _ = apply(t, m, s, SubmitSucceeded{Outcome: submission.Outcome{Persisted: true}, At: testNow})
	results := s.(Results)
	assert.True(t, results.Persisted)
	assert.Equal(t, "ABC123", results.Submission.ValidationCode)
}

func TestScenario_NoStoreCompletes(t *testing.T) {
	m := newMachine(8, false)
	s, _ := apply(t, m, m.Initial(), fillIntake()...)
	require.True(t, s.(Intake).CanStart(), "no identity needed without a store")

	s, _ = apply(t, m, s, Start{})
	for range 8 {
		s, _ = apply(t, m, s, answer(models.ChoiceA)...)
	}
	sub := s.(Submitting)
	assert.Empty(t, sub.Submission.UserID)

	s, _ = apply(t, m, s, SubmitSucceeded{Outcome: submission.Outcome{Degraded: true}, At: testNow})
	results := s.(Results)
	assert.True(t, results.Degraded)
	assert.False(t, results.Persisted)
}

func TestScenario_SkipThirdQuestion(t *testing.T) {
	m := newMachine(3, true)
	survey := startedSurvey(t, m)
	third := survey.Session.Queue[2]

	s := State(survey)
	s, _ = apply(t, m, s, answer(models.ChoiceA)...)
	s, _ = apply(t, m, s, answer(models.ChoiceB)...)
	s, _ = apply(t, m, s, answer(models.ChoiceNone)...)

	recs := s.(Survey).Log.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, models.ChoiceNone, recs[2].Choice)
	assert.Equal(t, third.ID, recs[2].QuestionID)
	assert.Equal(t, 3, recs[2].OrderIndex)
	assert.Equal(t, third, recs[2].Set)
	assert.Equal(t, 3, s.(Survey).Session.Position)
}

func TestSkipOnLastQuestionSubmits(t *testing.T) {
	m := newMachine(4, true)
	s := State(startedSurvey(t, m))
	for range 7 {
		s, _ = apply(t, m, s, answer(models.ChoiceA)...)
	}
	s, _ = apply(t, m, s, answer(models.ChoiceNone)...)

	sub, ok := s.(Submitting)
	require.True(t, ok)
	assert.Equal(t, models.ChoiceNone, sub.Submission.Responses[7].Choice)
}

func TestConfirmingPhase(t *testing.T) {
	m := newMachine(1, true)
	s := State(startedSurvey(t, m))

	s, effects := apply(t, m, s, Choose{models.ChoiceB})
	survey := s.(Survey)
	assert.Equal(t, Confirming, survey.Phase)
	assert.Equal(t, models.ChoiceB, survey.Selected)
	require.Len(t, effects, 2)
	assert.Equal(t, ScheduleConfirm{Delay: 250 * time.Millisecond}, effects[1])

	again, effects := apply(t, m, s, Choose{models.ChoiceA})
	assert.Equal(t, s, again, "second tap while confirming is ignored")
	assert.Empty(t, effects)

	s, _ = apply(t, m, s, ConfirmElapsed{})
	assert.Equal(t, Presenting, s.(Survey).Phase)
	assert.Equal(t, 1, s.(Survey).Session.Position)

	stray, effects := apply(t, m, s, ConfirmElapsed{})
	assert.Equal(t, s, stray, "elapsed timer without a selection is ignored")
	assert.Empty(t, effects)
}

func TestTransitionsDoNotMutatePriorState(t *testing.T) {
	m := newMachine(12, true)
	before := startedSurvey(t, m)

	a, _ := m.Transition(before, Choose{models.ChoiceA})
	b, _ := m.Transition(before, Choose{models.ChoiceB})

	assert.Equal(t, 0, before.Log.Len())
	assert.Equal(t, models.ChoiceA, a.(Survey).Log.Records()[0].Choice)
	assert.Equal(t, models.ChoiceB, b.(Survey).Log.Records()[0].Choice)

	c, _ := m.Transition(a, ConfirmElapsed{})
	assert.Equal(t, 0, a.(Survey).Session.Position)
	assert.Equal(t, 1, c.(Survey).Session.Position)
}

func TestSameSeedSameSession(t *testing.T) {
	s1 := startedSurvey(t, newMachine(77, true))
	s2 := startedSurvey(t, newMachine(77, true))
	assert.Equal(t, s1, s2)
}

func TestResetClearsSession(t *testing.T) {
	m := newMachine(6, true)
	s := State(startedSurvey(t, m))
	for range 8 {
		s, _ = apply(t, m, s, answer(models.ChoiceA)...)
	}
	s, _ = apply(t, m, s, SubmitSucceeded{Outcome: submission.Outcome{Persisted: true}, At: testNow})
	s, effects := apply(t, m, s, Reset{})

	intake, ok := s.(Intake)
	require.True(t, ok)
	assert.Empty(t, effects)
	assert.Equal(t, models.Demographics{}, intake.Form)
	assert.Equal(t, Intake{Conn: Conn{Required: true, Status: IdentityReady, UserID: "anon-1"}}, intake)
	assert.False(t, intake.CanStart())

	s, _ = apply(t, m, s, append(fillIntake(), Start{})...)
	fresh := s.(Survey)
	assert.Equal(t, 0, fresh.Session.Position)
	assert.Equal(t, 0, fresh.Log.Len())
}

func TestIgnoredEvents(t *testing.T) {
	m := newMachine(2, true)

	tests := []struct {
		name  string
		state State
		event Event
	}{
		{"start with incomplete form", Intake{Conn: Conn{Required: true, Status: IdentityReady, UserID: "u"}}, Start{}},
		{"choose on intake", m.Initial(), Choose{models.ChoiceA}},
		{"retry on intake", m.Initial(), Retry{}},
		{"reset while submitting", Submitting{Attempt: 1}, Reset{}},
		{"retry while submitting", Submitting{Attempt: 1}, Retry{}},
		{"choose while submitting", Submitting{Attempt: 1}, Choose{models.ChoiceA}},
		{"reset on error screen", SubmissionError{Message: "x"}, Reset{}},
		{"retry on results", Results{}, Retry{}},
		{"invalid location", m.Initial(), SelectLocation{"Hoboken"}},
		{"retry identity while pending", m.Initial(), RetryIdentity{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, effects := m.Transition(tt.state, tt.event)
			assert.Equal(t, tt.state, next)
			assert.Empty(t, effects)
		})
	}
}

func TestInvalidChoiceIgnored(t *testing.T) {
	m := newMachine(2, true)
	s := startedSurvey(t, m)
	next, effects := m.Transition(s, Choose{"Maybe"})
	assert.Equal(t, State(s), next)
	assert.Empty(t, effects)
}

func TestIdentityTimeoutAndRetry(t *testing.T) {
	m := newMachine(2, true)
	s, _ := apply(t, m, m.Initial(), fillIntake()...)

	s, _ = apply(t, m, s, IdentityTimedOut{Message: "Could not reach the secure server"})
	intake := s.(Intake)
	assert.Equal(t, IdentityFailed, intake.Conn.Status)
	assert.Equal(t, "Could not reach the secure server", intake.Conn.Err)
	assert.False(t, intake.CanStart())

	locked, _ := apply(t, m, s, Start{})
	assert.IsType(t, Intake{}, locked)

	s, effects := apply(t, m, s, RetryIdentity{})
	assert.Equal(t, []Effect{InitIdentity{}}, effects)
	assert.Equal(t, IdentityPending, s.(Intake).Conn.Status)
	assert.Empty(t, s.(Intake).Conn.Err)

	s, _ = apply(t, m, s, IdentityChanged{UserID: "late", Present: true})
	assert.True(t, s.(Intake).CanStart())

	s, _ = apply(t, m, s, IdentityUnavailable{Message: "stale failure"})
	assert.Equal(t, IdentityReady, s.(Intake).Conn.Status, "a late failure does not undo a ready identity")
}

func TestIdentityFailureSurvivesInitialAbsentCallback(t *testing.T) {
	m := newMachine(4, true)
	s, _ := apply(t, m, m.Initial(), fillIntake()...)

	// the sign-in result can beat the subscription's initial "no identity" call
	s, _ = apply(t, m, s, IdentityUnavailable{Message: "Could not connect to the secure server"}, IdentityChanged{Present: false})
	intake := s.(Intake)
	assert.Equal(t, IdentityFailed, intake.Conn.Status)
	assert.Equal(t, "Could not connect to the secure server", intake.Conn.Err)

	s, effects := apply(t, m, s, RetryIdentity{})
	assert.Equal(t, []Effect{InitIdentity{}}, effects)
	assert.Equal(t, IdentityPending, s.(Intake).Conn.Status)

	s, _ = apply(t, m, s, IdentityChanged{UserID: "anon-3", Present: true}, Start{})
	assert.IsType(t, Survey{}, s)
}

func TestFullSessionLeavesBankUntouched(t *testing.T) {
	before, err := json.Marshal(bank.Default().All())
	require.NoError(t, err)

	m := newMachine(11, true)
	s := State(startedSurvey(t, m))
	for i := range 8 {
		choice := []models.Choice{models.ChoiceA, models.ChoiceB, models.ChoiceNone}[i%3]
		s, _ = apply(t, m, s, answer(choice)...)
	}
	s, _ = apply(t, m, s, SubmitSucceeded{Outcome: submission.Outcome{Persisted: true}, At: testNow}, Reset{})
	require.IsType(t, Intake{}, s)

	after, err := json.Marshal(bank.Default().All())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestIdentityLostMidSurveyIsFilledOnRetry(t *testing.T) {
	m := newMachine(9, true)
	s := State(startedSurvey(t, m))
	s, _ = apply(t, m, s, IdentityChanged{Present: false})
	for range 8 {
		s, _ = apply(t, m, s, answer(models.ChoiceA)...)
	}
	built := s.(Submitting).Submission
	assert.Empty(t, built.UserID)

	s, _ = apply(t, m, s, SubmitFailed{Message: "Not connected to the secure server"})
	s, _ = apply(t, m, s, IdentityChanged{UserID: "anon-2", Present: true})
	s, effects := apply(t, m, s, Retry{})

	retried := effects[0].(RunSubmit).Submission
	assert.Equal(t, "anon-2", retried.UserID)
	retried.UserID = ""
	assert.Equal(t, built, retried)
	assert.Equal(t, 2, s.(Submitting).Attempt)
}

func TestRetryKeepsExistingUserID(t *testing.T) {
	m := newMachine(6, true)
	s := State(startedSurvey(t, m))
	for range 8 {
		s, _ = apply(t, m, s, answer(models.ChoiceB)...)
	}
	built := s.(Submitting).Submission
	require.Equal(t, "anon-1", built.UserID)

	s, _ = apply(t, m, s, SubmitFailed{Message: "timeout"}, IdentityChanged{UserID: "anon-9", Present: true})
	_, effects := apply(t, m, s, Retry{})
	assert.Equal(t, []Effect{RunSubmit{Submission: built}}, effects)
}

func TestKeysFailureKeepsIntake(t *testing.T) {
	m := newMachine(1, false)
	m.Keys = func() (submission.Keys, error) { return submission.Keys{}, assert.AnError }

	s, effects := apply(t, m, m.Initial(), append(fillIntake(), Start{})...)
	intake := s.(Intake)
	assert.NotEmpty(t, intake.Notice)
	assert.Empty(t, effects)
}

func TestProgress(t *testing.T) {
	m := newMachine(1, false)
	s, _ := apply(t, m, m.Initial(), append(fillIntake(), Start{})...)
	s, _ = apply(t, m, s, answer(models.ChoiceA)...)
	s, _ = apply(t, m, s, answer(models.ChoiceA)...)

	n, total, pct := s.(Survey).Progress()
	assert.Equal(t, 3, n)
	assert.Equal(t, 8, total)
	assert.Equal(t, 38, pct)
	assert.Equal(t, s.(Survey).Session.Queue[2], s.(Survey).Current())
}

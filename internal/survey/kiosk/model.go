// Package kiosk is the terminal front end: a bubbletea model that turns key
// presses and collaborator results into flow events and runs the effects the
// flow machine returns.
package kiosk

import (
	"context"
	"time"

	"rumble-survey/internal/common/errors"
	"rumble-survey/internal/common/logger"
	"rumble-survey/internal/common/metrics"
	"rumble-survey/internal/models"
	"rumble-survey/internal/survey/flow"
	"rumble-survey/internal/survey/identity"
	"rumble-survey/internal/survey/submission"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	msgIdentityTimeout = "Could not reach the secure server"
	msgIdentityFailed  = "Could not connect to the secure server"
)

// Submitter writes a finished session.
type Submitter interface {
	Submit(ctx context.Context, sub models.SessionSubmission) (submission.Outcome, error)
}

// Options wires a Model.
type Options struct {
	Machine   *flow.Machine
	Submitter Submitter
	Identity  identity.Provider
	// ReadyTimeout bounds each anonymous sign-in attempt.
	ReadyTimeout time.Duration
	Clock        func() time.Time
	Log          logger.Logger
}

// identityMsg carries a listener callback into the event loop.
type identityMsg struct{ event flow.Event }

// Model is the kiosk's tea.Model.
type Model struct {
	machine      *flow.Machine
	state        flow.State
	submitter    Submitter
	provider     identity.Provider
	readyTimeout time.Duration
	clock        func() time.Time
	log          logger.Logger

	identityCh  chan flow.Event
	done        chan struct{}
	unsubscribe func()

	total   int
	focus   int
	styles  Styles
	spinner spinner.Model
	bar     progress.Model
	width   int
}

// New builds the model and subscribes to identity changes. Call Close when the
// program exits.
func New(opts Options) Model {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Log == nil {
		opts.Log = logger.NewNoOpLogger()
	}
	if opts.Identity == nil {
		opts.Identity = identity.Absent{}
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 20 * time.Second
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	styles := DefaultStyles()
	sp.Style = styles.Spinner

	m := Model{
		machine:      opts.Machine,
		state:        opts.Machine.Initial(),
		submitter:    opts.Submitter,
		provider:     opts.Identity,
		readyTimeout: opts.ReadyTimeout,
		clock:        opts.Clock,
		log:          opts.Log.WithFields(map[string]interface{}{"component": "kiosk"}),
		identityCh:   make(chan flow.Event, 8),
		done:         make(chan struct{}),
		total:        len(opts.Machine.Questions()),
		styles:       styles,
		spinner:      sp,
		bar:          progress.New(progress.WithSolidFill(string(Red)), progress.WithoutPercentage(), progress.WithWidth(60)),
	}

	ch, done := m.identityCh, m.done
	m.unsubscribe = opts.Identity.OnIdentityChange(func(id identity.Identity, present bool) {
		select {
		case ch <- flow.IdentityChanged{UserID: id.ID, Present: present}:
		case <-done:
		}
	})
	return m
}

// Close stops the identity subscription.
func (m Model) Close() {
	m.unsubscribe()
	select {
	case <-m.done:
	default:
		close(m.done)
	}
}

// State returns the current flow state.
func (m Model) State() flow.State {
	return m.state
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.listenIdentity()}
	if m.machine.RequireIdentity {
		cmds = append(cmds, m.signIn())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		ev, ok := m.keyEvent(msg)
		if !ok {
			return m, nil
		}
		return m.dispatch(ev)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case identityMsg:
		next, cmd := m.dispatch(msg.event)
		return next, tea.Batch(cmd, m.listenIdentity())

	case flow.Event:
		return m.dispatch(msg)
	}
	return m, nil
}

// dispatch applies ev and turns the returned effects into commands.
func (m Model) dispatch(ev flow.Event) (Model, tea.Cmd) {
	prev := m.state
	next, effects := m.machine.Transition(m.state, ev)
	m.state = next

	if _, wasResults := prev.(flow.Results); wasResults {
		if _, isIntake := next.(flow.Intake); isIntake {
			m.focus = 0
		}
	}
	if flow.ConnOf(next).Status == flow.IdentityReady {
		metrics.IdentityReady.Set(1)
	} else {
		metrics.IdentityReady.Set(0)
	}

	var cmds []tea.Cmd
	for _, effect := range effects {
		if cmd := m.run(effect); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) run(effect flow.Effect) tea.Cmd {
	switch e := effect.(type) {
	case flow.ScheduleConfirm:
		return tea.Tick(e.Delay, func(time.Time) tea.Msg { return flow.ConfirmElapsed{} })

	case flow.RunSubmit:
		return m.submit(e.Submission)

	case flow.InitIdentity:
		return m.signIn()

	case flow.SessionStarted:
		metrics.SessionsStarted.Inc()
		m.log.Info("survey session started", map[string]interface{}{"submission_id": e.SubmissionID})

	case flow.AnswerRecorded:
		metrics.AnswersRecorded.WithLabelValues(string(e.Record.Choice)).Inc()
		m.log.Debug("answer recorded", map[string]interface{}{
			"question_id": e.Record.QuestionID,
			"order_index": e.Record.OrderIndex,
			"choice":      string(e.Record.Choice),
		})
	}
	return nil
}

// listenIdentity waits for the next identity callback.
func (m Model) listenIdentity() tea.Cmd {
	ch, done := m.identityCh, m.done
	return func() tea.Msg {
		select {
		case ev := <-ch:
			return identityMsg{event: ev}
		case <-done:
			return nil
		}
	}
}

// signIn runs one bounded sign-in attempt. A successful sign-in also reaches
// the model through the identity listener.
func (m Model) signIn() tea.Cmd {
	provider, timeout, log := m.provider, m.readyTimeout, m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		id, err := provider.SignInAnonymous(ctx)
		if err == nil {
			return flow.IdentityChanged{UserID: id.ID, Present: true}
		}
		report := errors.NewReporter(log)
		fields := map[string]interface{}{"provider": provider.Name()}
		if ctx.Err() == context.DeadlineExceeded {
			report.Report("identity wait timed out", errors.NewIdentityTimeoutError(timeout), fields)
			return flow.IdentityTimedOut{Message: msgIdentityTimeout}
		}
		if _, ok := errors.As(err); !ok {
			err = errors.NewIdentityUnavailableError(provider.Name(), err)
		}
		report.Report("anonymous sign-in failed", err, fields)
		return flow.IdentityUnavailable{Message: msgIdentityFailed}
	}
}

// submit runs the single in-flight write. There is no timeout; the respondent
// retries manually after a failure.
func (m Model) submit(sub models.SessionSubmission) tea.Cmd {
	submitter, clock := m.submitter, m.clock
	return func() tea.Msg {
		out, err := submitter.Submit(context.Background(), sub)
		if err != nil {
			return flow.SubmitFailed{Message: err.Error()}
		}
		return flow.SubmitSucceeded{Outcome: out, At: clock()}
	}
}

package kiosk

import (
	"fmt"
	"strings"
	"time"

	"rumble-survey/internal/models"
	"rumble-survey/internal/survey/flow"

	"github.com/charmbracelet/lipgloss"
)

// CompletedAtLayout is the results screen timestamp format.
const CompletedAtLayout = "Jan 2, 3:04 PM"

func (m Model) View() string {
	var body string
	switch st := m.state.(type) {
	case flow.Intake:
		body = m.intakeView(st)
	case flow.Survey:
		body = m.surveyView(st)
	case flow.Submitting:
		body = m.submittingView()
	case flow.SubmissionError:
		body = m.errorView(st)
	case flow.Results:
		body = m.resultsView(st)
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(body)
}

func (m Model) intakeView(st flow.Intake) string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.Brand.Render("RUMBLE") + "\n")
	b.WriteString(s.Title.Render("Membership Survey") + "\n")
	b.WriteString(s.Subtitle.Render(fmt.Sprintf("Complete these %d comparisons to unlock your reward", m.total)) + "\n\n")

	fields := []struct {
		label, value, placeholder string
	}{
		{"PRIMARY LOCATION", string(st.Form.Location), "Select Location"},
		{"AGE GROUP", string(st.Form.AgeRange), "Select Age"},
		{"CURRENT WORKOUT FREQUENCY", string(st.Form.Frequency), "Select Frequency"},
	}
	for i, f := range fields {
		cursor := "  "
		label := s.Label.Render(f.label)
		if i == m.focus {
			cursor = s.Focused.Render("> ")
			label = s.Focused.Render(f.label)
		}
		value := s.Muted.Render(f.placeholder)
		if f.value != "" {
			value = s.Value.Render("< " + f.value + " >")
		}
		b.WriteString(cursor + label + "\n    " + value + "\n\n")
	}

	if st.CanStart() {
		b.WriteString(s.Button.Render("START SURVEY") + "\n")
	} else {
		b.WriteString(s.ButtonOff.Render("START SURVEY") + "\n")
	}

	conn := st.Conn
	switch {
	case conn.Required && conn.Status == flow.IdentityPending:
		b.WriteString("\n" + m.spinner.View() + " " + s.Muted.Render("Connecting to secure server...") + "\n")
	case conn.Required && conn.Status == flow.IdentityFailed:
		b.WriteString("\n" + s.Error.Render(conn.Err+". Press r to try again.") + "\n")
	}
	if st.Notice != "" {
		b.WriteString("\n" + s.Error.Render(st.Notice) + "\n")
	}

	b.WriteString("\n" + s.Help.Render("up/down: field  left/right: choose  enter: start"))
	return b.String()
}

func (m Model) surveyView(st flow.Survey) string {
	s := m.styles
	number, total, percent := st.Progress()
	set := st.Current()

	var b strings.Builder
	header := s.Progress.Render(fmt.Sprintf("Question %d of %d", number, total))
	b.WriteString(header + "  " + s.Muted.Render(fmt.Sprintf("%d%%", percent)) + "\n")
	b.WriteString(m.bar.ViewAs(float64(number)/float64(total)) + "\n\n")

	b.WriteString(s.Title.Render("Which option is better?") + "\n")
	b.WriteString(s.Subtitle.Render("Pick the plan that offers the best value for your lifestyle.") + "\n\n")

	selected := models.Choice("")
	if st.Phase == flow.Confirming {
		selected = st.Selected
	}
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		m.card("A", set.OptionA, selected == models.ChoiceA),
		"  ",
		m.card("B", set.OptionB, selected == models.ChoiceB),
	)
	b.WriteString(cards + "\n\n")

	none := "[N] I wouldn't choose either"
	if selected == models.ChoiceNone {
		b.WriteString(s.Focused.Render(none) + "\n")
	} else {
		b.WriteString(s.Muted.Render(none) + "\n")
	}
	b.WriteString("\n" + s.Help.Render("a: option A  b: option B  n: neither"))
	return b.String()
}

func (m Model) card(option string, bundle models.AttributeBundle, active bool) string {
	s := m.styles
	var b strings.Builder
	b.WriteString(s.Label.Render("OPTION "+option) + "\n")
	b.WriteString(s.Price.Render(bundle.MonthlyPrice) + s.Muted.Render(" / mo") + "\n\n")

	rows := []struct {
		label, value string
		perk         bool
	}{
		{"ACCESS", bundle.ClassCount, false},
		{"COMMITMENT", bundle.Commitment, false},
		{"RECOVERY", bundle.Recovery, false},
		{"STRATEGIC PERK", bundle.StrategicPerk, true},
	}
	for _, r := range rows {
		if r.perk {
			b.WriteString(s.Perk.Render(r.label) + "\n")
		} else {
			b.WriteString(s.Label.Render(r.label) + "\n")
		}
		b.WriteString(s.Value.Render(r.value) + "\n")
	}

	style := s.Card
	if active {
		b.WriteString("\n" + s.Focused.Render("SELECTED"))
		style = s.CardActive
	}
	return style.Render(b.String())
}

func (m Model) submittingView() string {
	s := m.styles
	return m.spinner.View() + " " + s.Title.Render("Saving Responses...") + "\n" +
		s.Muted.Render("Connecting to headquarters")
}

func (m Model) errorView(st flow.SubmissionError) string {
	s := m.styles
	var b strings.Builder
	b.WriteString(s.Error.Render("Error saving responses") + "\n\n")
	b.WriteString(s.Value.Render(st.Message) + "\n\n")
	b.WriteString(s.Help.Render("r: try again"))
	return b.String()
}

func (m Model) resultsView(st flow.Results) string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.Success.Render("Survey Complete") + "\n")
	b.WriteString(s.Subtitle.Render("Thanks for your feedback!") + "\n\n")
	b.WriteString(s.Reward.Render("Reward Unlocked") + "\n\n")
	b.WriteString(s.Label.Render("Validation Code") + "\n")
	b.WriteString(s.Code.Render(st.Submission.ValidationCode) + "\n\n")
	b.WriteString(s.Value.Render(st.CompletedAt.In(time.Local).Format(CompletedAtLayout)) + "\n\n")
	b.WriteString(s.Muted.Render("Show this screen to the front desk staff to redeem your free class or retail credit.") + "\n\n")

	if st.Persisted {
		b.WriteString(s.Muted.Render("Responses have been securely saved to the Rumble database.") + "\n")
	} else {
		b.WriteString(s.Muted.Render("This kiosk is not connected to a response store; responses were not saved.") + "\n")
	}
	b.WriteString("\n" + s.Help.Render("enter: Close / New Survey"))
	return b.String()
}

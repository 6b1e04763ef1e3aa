package kiosk

import (
	"rumble-survey/internal/models"
	"rumble-survey/internal/survey/flow"

	tea "github.com/charmbracelet/bubbletea"
)

// Intake fields in focus order.
const (
	fieldLocation = iota
	fieldAge
	fieldFrequency
	fieldCount
)

// keyEvent maps a key press to the event it means on the current screen.
func (m *Model) keyEvent(msg tea.KeyMsg) (flow.Event, bool) {
	key := msg.String()

	switch st := m.state.(type) {
	case flow.Intake:
		switch key {
		case "up", "k", "shift+tab":
			m.focus = (m.focus + fieldCount - 1) % fieldCount
		case "down", "j", "tab":
			m.focus = (m.focus + 1) % fieldCount
		case "left", "h":
			return m.cycle(st.Form, -1), true
		case "right", "l", " ":
			return m.cycle(st.Form, 1), true
		case "enter":
			return flow.Start{}, true
		case "r":
			return flow.RetryIdentity{}, true
		}

	case flow.Survey:
		switch key {
		case "a", "A", "left", "1":
			return flow.Choose{Choice: models.ChoiceA}, true
		case "b", "B", "right", "2":
			return flow.Choose{Choice: models.ChoiceB}, true
		case "n", "N", "0":
			return flow.Choose{Choice: models.ChoiceNone}, true
		}

	case flow.SubmissionError:
		switch key {
		case "r", "R", "enter":
			return flow.Retry{}, true
		}

	case flow.Results:
		if key == "enter" {
			return flow.Reset{}, true
		}
	}
	return nil, false
}

// cycle moves the focused field's selection by step through its options. An
// unset field starts at the first option going right and the last going left.
func (m *Model) cycle(form models.Demographics, step int) flow.Event {
	switch m.focus {
	case fieldLocation:
		return flow.SelectLocation{Location: nextOption(models.Locations(), form.Location, step)}
	case fieldAge:
		return flow.SelectAge{AgeRange: nextOption(models.AgeRanges(), form.AgeRange, step)}
	default:
		return flow.SelectFrequency{Frequency: nextOption(models.Frequencies(), form.Frequency, step)}
	}
}

func nextOption[T comparable](options []T, current T, step int) T {
	n := len(options)
	for i, o := range options {
		if o == current {
			return options[((i+step)%n+n)%n]
		}
	}
	if step < 0 {
		return options[n-1]
	}
	return options[0]
}

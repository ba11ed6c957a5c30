// Package tui runs the calculator questionnaire in a terminal on top of
// wizard.Controller.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DukeRupert/greenmarine/internal/domain"
	"github.com/DukeRupert/greenmarine/internal/wizard"
)

const (
	// pollInterval is how often a pending auto-advance is checked.
	pollInterval  = 25 * time.Millisecond
	submitTimeout = 15 * time.Second

	sendingMessage = "Bezig met versturen..."
	checkFields    = "Controleer de gemarkeerde velden."
)

const (
	actionQuote       = "quote"
	actionRecalculate = "recalculate"
	actionQuit        = "quit"
)

var contactFields = []struct {
	key         string
	label       string
	placeholder string
}{
	{"firstName", "Voornaam", "Jan"},
	{"lastName", "Achternaam", "de Vries"},
	{"email", "E-mailadres", "jan@voorbeeld.nl"},
	{"phone", "Telefoonnummer", "06 12345678"},
}

type screen struct {
	phase wizard.Phase
	step  int
}

type advanceMsg struct{}

type submitResultMsg struct {
	snap wizard.Snapshot
	err  error
}

// Model is the bubbletea model for the questionnaire. Widgets are rebuilt
// whenever the controller moves to another screen.
type Model struct {
	ctrl *wizard.Controller
	sink wizard.LeadSink

	snap   wizard.Snapshot
	screen screen
	list   list.Model
	inputs []textinput.Model
	focus  int

	status      string
	sending     bool
	submissions int
	quitting    bool
	width       int
	height      int
}

// New returns a model showing the controller's current state.
func New(ctrl *wizard.Controller, sink wizard.LeadSink) Model {
	m := Model{
		ctrl:   ctrl,
		sink:   sink,
		screen: screen{step: -1},
	}
	m.sync(ctrl.Snapshot())
	return m
}

// Run starts the terminal wizard and blocks until the user quits. It
// returns the number of leads handed to sink.
func Run(ctrl *wizard.Controller, sink wizard.LeadSink) (int, error) {
	prog := tea.NewProgram(New(ctrl, sink), tea.WithAltScreen())
	result, err := prog.Run()
	if err != nil {
		return 0, err
	}
	final, ok := result.(Model)
	if !ok {
		return 0, fmt.Errorf("wizard returned unexpected model %T", result)
	}
	return final.submissions, nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.usesInputs() {
			m.list.SetSize(m.listSize())
		}
		return m, nil

	case advanceMsg:
		m.sync(m.ctrl.Snapshot())
		if m.snap.PendingAdvance {
			return m, waitForAdvance()
		}
		return m, nil

	case submitResultMsg:
		m.sending = false
		m.apply(msg.snap, msg.err)
		if msg.err == nil {
			m.submissions++
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "esc":
			m.apply(m.ctrl.Back(), nil)
			return m, nil
		}
	}

	if m.usesInputs() {
		return m.updateInputs(msg)
	}
	return m.updateList(msg)
}

func (m Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		s := key.String()
		switch {
		case s == "q":
			m.quitting = true
			return m, tea.Quit
		case s == "enter":
			item, ok := m.list.SelectedItem().(optionItem)
			if !ok {
				return m, nil
			}
			return m.choose(item.value)
		case len(s) == 1 && s[0] >= '1' && s[0] <= '9':
			items := m.list.Items()
			i := int(s[0] - '1')
			if i >= len(items) {
				return m, nil
			}
			m.list.Select(i)
			return m.choose(items[i].(optionItem).value)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) choose(value string) (tea.Model, tea.Cmd) {
	if m.snap.Phase == wizard.PhaseCollecting {
		snap, err := m.ctrl.Select(value)
		m.apply(snap, err)
		if err == nil && snap.PendingAdvance {
			return m, waitForAdvance()
		}
		return m, nil
	}

	switch value {
	case actionQuote:
		m.apply(m.ctrl.RequestQuote())
	case actionRecalculate:
		m.apply(m.ctrl.Recalculate())
	case actionQuit:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			cmd := m.setFocus(m.focus + 1)
			return m, cmd
		case "shift+tab", "up":
			cmd := m.setFocus(m.focus - 1)
			return m, cmd
		case "enter":
			if m.focus < len(m.inputs)-1 {
				cmd := m.setFocus(m.focus + 1)
				return m, cmd
			}
			return m.confirmInputs()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) confirmInputs() (tea.Model, tea.Cmd) {
	switch m.snap.Phase {
	case wizard.PhaseCollecting:
		p := domain.ParseBoatParameters(m.inputs[0].Value(), m.inputs[1].Value(), "")
		if p.LengthMeters <= 0 {
			p.LengthMeters = m.snap.Dimensions.LengthMeters
		}
		if p.WeightKg <= 0 {
			p.WeightKg = m.snap.Dimensions.WeightKg
		}
		if snap, err := m.ctrl.SetDimensions(p.LengthMeters, p.WeightKg); err != nil {
			m.apply(snap, err)
			return m, nil
		}
		m.apply(m.ctrl.ConfirmDimensions())
		return m, nil

	case wizard.PhaseContactForm:
		if m.sending {
			return m, nil
		}
		snap, err := m.ctrl.SetContact(m.contact())
		m.apply(snap, err)
		if err != nil {
			return m, nil
		}
		m.sending = true
		m.status = sendingMessage
		return m, m.submit()
	}
	return m, nil
}

// submit runs the lead hand-off off the UI loop.
func (m Model) submit() tea.Cmd {
	ctrl, sink := m.ctrl, m.sink
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		snap, err := ctrl.Submit(ctx, sink)
		return submitResultMsg{snap: snap, err: err}
	}
}

func waitForAdvance() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return advanceMsg{}
	})
}

// apply shows snap and the outcome of the action that produced it.
func (m *Model) apply(snap wizard.Snapshot, err error) {
	m.sync(snap)
	m.status = statusFor(err)
}

func statusFor(err error) string {
	if err == nil {
		return ""
	}
	if len(domain.FieldErrors(err)) > 0 {
		return checkFields
	}
	return domain.ErrorMessage(err)
}

// sync stores snap and rebuilds the widgets when the screen changed.
func (m *Model) sync(snap wizard.Snapshot) {
	m.snap = snap
	next := screen{phase: snap.Phase, step: snap.StepIndex}
	if next == m.screen {
		return
	}
	m.screen = next
	m.status = ""
	m.inputs = nil
	m.focus = 0
	w, h := m.listSize()

	switch snap.Phase {
	case wizard.PhaseCollecting:
		step := *snap.Step
		if step.Kind == wizard.KindDimensions {
			m.inputs = dimensionInputs(step, snap.Dimensions)
			break
		}
		items := make([]list.Item, len(step.Options))
		selected := 0
		current := answerFor(step.ID, snap.Answers)
		for i, o := range step.Options {
			items[i] = optionItem{title: o.Label, desc: fmt.Sprintf("toets %d", i+1), value: o.Value}
			if o.Value == current {
				selected = i
			}
		}
		m.list = newList(step.Title, items, w, h)
		m.list.Select(selected)

	case wizard.PhaseResults:
		m.list = newList("Wat wilt u doen?", []list.Item{
			optionItem{title: "Offerte aanvragen", desc: "Laat uw gegevens achter voor een vrijblijvende offerte", value: actionQuote},
			optionItem{title: "Opnieuw berekenen", desc: "Begin opnieuw met andere gegevens", value: actionRecalculate},
		}, w, h)

	case wizard.PhaseContactForm:
		m.inputs = contactInputs(snap.Contact)

	case wizard.PhaseSubmitted:
		m.list = newList("Wat wilt u doen?", []list.Item{
			optionItem{title: "Opnieuw berekenen", desc: "Begin opnieuw met andere gegevens", value: actionRecalculate},
			optionItem{title: "Afsluiten", desc: "Sluit de calculator", value: actionQuit},
		}, w, h)
	}

	if len(m.inputs) > 0 {
		m.inputs[0].Focus()
	}
}

func (m *Model) setFocus(i int) tea.Cmd {
	n := len(m.inputs)
	if n == 0 {
		return nil
	}
	m.inputs[m.focus].Blur()
	m.focus = ((i % n) + n) % n
	return m.inputs[m.focus].Focus()
}

func (m Model) usesInputs() bool {
	return len(m.inputs) > 0
}

func (m Model) listSize() (int, int) {
	w, h := defaultWidth, defaultHeight
	if m.width > 0 {
		w = m.width - 4
	}
	if m.height > 0 {
		h = m.height - 8
	}
	return w, h
}

func (m Model) contact() domain.ContactDetails {
	values := make(map[string]string, len(m.inputs))
	for i, f := range contactFields {
		values[f.key] = m.inputs[i].Value()
	}
	return domain.ContactDetails{
		FirstName: values["firstName"],
		LastName:  values["lastName"],
		Email:     values["email"],
		Phone:     values["phone"],
	}
}

func answerFor(id wizard.StepID, a domain.BoatAnswers) string {
	switch id {
	case wizard.StepCustomerType:
		return string(a.CustomerType)
	case wizard.StepBoatType:
		return string(a.BoatType)
	case wizard.StepCurrentDrive:
		return string(a.CurrentDrive)
	case wizard.StepWaterType:
		return string(a.WaterType)
	case wizard.StepTripDuration:
		return string(a.TripDuration)
	}
	return ""
}

func dimensionInputs(step wizard.Step, d wizard.Dimensions) []textinput.Model {
	values := []float64{d.LengthMeters, d.WeightKg}
	inputs := make([]textinput.Model, 0, len(step.Sliders))
	for i, s := range step.Sliders {
		ti := textinput.New()
		ti.Prompt = fmt.Sprintf("%-10s", s.Label)
		ti.Placeholder = fmt.Sprintf("%s-%s %s", formatNumber(s.Min), formatNumber(s.Max), s.Unit)
		ti.CharLimit = 8
		ti.Width = 12
		if i < len(values) {
			ti.SetValue(formatNumber(values[i]))
		}
		inputs = append(inputs, ti)
	}
	return inputs
}

func contactInputs(c domain.ContactDetails) []textinput.Model {
	values := map[string]string{
		"firstName": c.FirstName,
		"lastName":  c.LastName,
		"email":     c.Email,
		"phone":     c.Phone,
	}
	inputs := make([]textinput.Model, len(contactFields))
	for i, f := range contactFields {
		ti := textinput.New()
		ti.Prompt = fmt.Sprintf("%-16s", f.label)
		ti.Placeholder = f.placeholder
		ti.CharLimit = 120
		ti.Width = 40
		ti.SetValue(values[f.key])
		inputs[i] = ti
	}
	return inputs
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render("Green Marine motorcalculator"))
	b.WriteString("\n\n")

	switch m.snap.Phase {
	case wizard.PhaseCollecting:
		b.WriteString(styleSubtitle.Render(m.snap.Progress.Label))
		b.WriteString("  ")
		b.WriteString(progressBar(m.snap.Progress.Percent))
		b.WriteString("\n\n")
		if m.usesInputs() {
			b.WriteString(styleTitle.Render(m.snap.Step.Title))
			b.WriteString("\n")
			b.WriteString(styleSubtitle.Render(m.snap.Step.Subtitle))
			b.WriteString("\n\n")
			for i := range m.inputs {
				b.WriteString(m.inputs[i].View())
				b.WriteString("  ")
				b.WriteString(styleSubtitle.Render(m.snap.Step.Sliders[i].Unit))
				b.WriteString("\n")
			}
		} else {
			b.WriteString(styleSubtitle.Render(m.snap.Step.Subtitle))
			b.WriteString("\n")
			b.WriteString(m.list.View())
		}

	case wizard.PhaseResults:
		b.WriteString(m.resultsView())
		b.WriteString("\n")
		b.WriteString(m.list.View())

	case wizard.PhaseContactForm:
		b.WriteString(styleSubtitle.Render("Vul uw gegevens in voor een vrijblijvende offerte."))
		b.WriteString("\n\n")
		for i, f := range contactFields {
			b.WriteString(m.inputs[i].View())
			b.WriteString("\n")
			if msg, ok := m.snap.FieldErrors[f.key]; ok {
				b.WriteString(styleError.Render("  " + msg))
				b.WriteString("\n")
			}
		}

	case wizard.PhaseSubmitted:
		b.WriteString(styleHighlight.Render(m.snap.Confirmation))
		b.WriteString("\n\n")
		b.WriteString(m.list.View())
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(styleError.Render(m.status))
	}
	b.WriteString("\n\n")
	b.WriteString(stylePrompt.Render(m.help()))
	return b.String()
}

func (m Model) resultsView() string {
	if m.snap.Display == nil {
		return ""
	}
	d := m.snap.Display
	lines := []string{
		styleHighlight.Render("Ons advies"),
		"",
		row("Aanbevolen motor", fmt.Sprintf("%s (%s kW)", d.MotorName, d.MotorPowerKw)),
		row("Accupakket", d.BatteryKwh+" kWh"),
		row("Kruissnelheid", d.CruisingSpeedKmh+" km/u"),
		row("Vaartijd op kruissnelheid", d.EstimatedCruisingHours+" uur"),
		row("Vaartijd volgas", d.VolgasHours+" uur"),
		row("Rompsnelheid", d.MaxHullSpeedKmh+" km/u"),
		row("Vermogen kruissnelheid", d.RequiredPowerCruisingKw+" kW"),
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m Model) help() string {
	switch {
	case m.usesInputs() && m.snap.Phase == wizard.PhaseContactForm:
		return "tab volgend veld • enter versturen • esc terug • ctrl+c stoppen"
	case m.usesInputs():
		return "tab volgend veld • enter bevestigen • esc terug • ctrl+c stoppen"
	case m.snap.Phase == wizard.PhaseCollecting && m.snap.CanGoBack:
		return "↑/↓ kiezen • enter of 1-9 bevestigen • esc terug • q stoppen"
	default:
		return "↑/↓ kiezen • enter bevestigen • q stoppen"
	}
}

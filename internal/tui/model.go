// Package tui runs a workout session in the terminal.
//
// The bubbletea event loop is the single thread the session controller
// needs: key presses and one-second ticks arrive as messages and are
// applied to the controller one at a time.
package tui

import (
	"alcyxob/workout-engine/internal/client"
	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/session"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const submitTimeout = 15 * time.Second

// Submitter sends a finished session to the server.
type Submitter interface {
	SubmitLog(ctx context.Context, req client.SubmitLogRequest) (primitive.ObjectID, error)
}

// TickMsg is one second of countdown for the timer with the given id.
type TickMsg struct {
	ID int
}

type submittedMsg struct {
	id  primitive.ObjectID
	err error
}

type stage int

const (
	stageRunning stage = iota
	stageLogging
	stageSubmitting
	stageDone
)

// Model is the bubbletea model of one session.
type Model struct {
	plan   *domain.Plan
	ctrl   *session.Controller
	submit Submitter

	keys     keyMap
	help     help.Model
	progress progress.Model

	stage   stage
	drafts  []*draft
	form    *huh.Form
	pending *client.SubmitLogRequest
	logID   primitive.ObjectID
	err     error

	tick func(id int) tea.Cmd
}

// NewModel starts a session on plan. The plan's exercises must be resolved
// so each set can be logged under its category.
func NewModel(plan *domain.Plan, ctrl *session.Controller, submit Submitter) (*Model, error) {
	if err := ctrl.PushInitial(plan.Exercises); err != nil {
		return nil, err
	}
	return &Model{
		plan:     plan,
		ctrl:     ctrl,
		submit:   submit,
		keys:     defaultKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		tick:     tickEvery,
	}, nil
}

func tickEvery(id int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return TickMsg{ID: id}
	})
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.scheduleTick(-1)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.progress.Width = max(min(msg.Width-8, 60), 10)
		return m, nil
	case TickMsg:
		return m, m.onTick(msg)
	case submittedMsg:
		return m, m.onSubmitted(msg)
	}

	if m.stage == stageLogging {
		return m, m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m, m.onKey(msg)
	}
	return m, nil
}

func (m *Model) onKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		if m.stage == stageRunning {
			log.Info("session abandoned before the end")
		}
		return tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return nil
	}

	switch m.stage {
	case stageRunning:
		prevID := m.ctrl.TimerID()
		switch {
		case key.Matches(msg, m.keys.Next):
			m.ctrl.Next()
		case key.Matches(msg, m.keys.Prev):
			m.ctrl.Prev()
		case key.Matches(msg, m.keys.Pause):
			m.ctrl.Pause()
		case key.Matches(msg, m.keys.End):
			m.ctrl.End()
		default:
			return nil
		}
		if m.ctrl.HasEnded() {
			return m.startLogging()
		}
		return m.scheduleTick(prevID)
	case stageDone:
		if m.err != nil && m.pending != nil && key.Matches(msg, m.keys.Retry) {
			return m.sendPending()
		}
	}
	return nil
}

// onTick applies a countdown second. A tick for a superseded timer id is
// dropped, which ends that tick chain.
func (m *Model) onTick(msg TickMsg) tea.Cmd {
	if m.stage != stageRunning || msg.ID != m.ctrl.TimerID() {
		return nil
	}
	m.ctrl.Tick(msg.ID)
	if m.ctrl.HasEnded() {
		return m.startLogging()
	}
	if m.ctrl.IsTimerRunning() && m.ctrl.TimerID() == msg.ID {
		return m.tick(msg.ID)
	}
	return m.scheduleTick(msg.ID)
}

// scheduleTick starts a tick chain when a countdown with a new id is running.
func (m *Model) scheduleTick(prevID int) tea.Cmd {
	if m.ctrl.IsTimerRunning() && m.ctrl.TimerID() != prevID {
		return m.tick(m.ctrl.TimerID())
	}
	return nil
}

func (m *Model) startLogging() tea.Cmd {
	m.drafts = newDrafts(m.ctrl.Completed())
	if len(m.drafts) == 0 {
		return m.finishLogging()
	}

	groups := make([]*huh.Group, 0, len(m.drafts))
	for _, d := range m.drafts {
		fields := make([]huh.Field, 0, len(d.inputs))
		for _, in := range d.inputs {
			fields = append(fields, huh.NewInput().
				Title(string(in.field)).
				Value(&in.value).
				Validate(validateNumber))
		}
		groups = append(groups, huh.NewGroup(fields...).Title(d.title()))
	}

	m.stage = stageLogging
	m.form = huh.NewForm(groups...).WithShowHelp(true)
	return m.form.Init()
}

func (m *Model) updateForm(msg tea.Msg) tea.Cmd {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.finishLogging()
	case huh.StateAborted:
		log.Warn("workout log form aborted, nothing submitted")
		return tea.Quit
	}
	return cmd
}

func (m *Model) finishLogging() tea.Cmd {
	entries, err := collectEntries(m.drafts)
	if err != nil {
		m.stage = stageDone
		m.err = err
		return nil
	}
	m.pending = &client.SubmitLogRequest{
		PlanID:   m.plan.ID.Hex(),
		Duration: int(m.ctrl.Elapsed().Seconds()),
		Entries:  entries,
	}
	return m.sendPending()
}

func (m *Model) sendPending() tea.Cmd {
	m.stage = stageSubmitting
	m.err = nil
	req := *m.pending
	submit := m.submit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		id, err := submit.SubmitLog(ctx, req)
		return submittedMsg{id: id, err: err}
	}
}

func (m *Model) onSubmitted(msg submittedMsg) tea.Cmd {
	m.stage = stageDone
	if msg.err != nil {
		log.WithError(msg.err).Error("submit workout log")
		m.err = msg.err
		return nil
	}
	m.logID = msg.id
	log.WithField("logId", msg.id.Hex()).Info("workout log saved")
	return nil
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.plan.Name))
	b.WriteString("\n")

	switch m.stage {
	case stageRunning:
		b.WriteString(boxStyle.Render(m.sessionView()))
	case stageLogging:
		b.WriteString(m.form.View())
		return b.String()
	case stageSubmitting:
		b.WriteString(dimStyle.Render("Saving workout..."))
	case stageDone:
		if m.err != nil {
			b.WriteString(errorStyle.Render("Could not save workout: " + m.err.Error()))
			if m.pending != nil {
				b.WriteString("\n" + dimStyle.Render("press r to retry, q to quit"))
			}
		} else {
			b.WriteString(workStyle.Render(fmt.Sprintf("Workout saved (%s). Nice work!", m.logID.Hex())))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) sessionView() string {
	item, ok := m.ctrl.CurrentItem()
	if !ok {
		return ""
	}

	name := "Exercise"
	if item.Exercise.Exercise != nil {
		name = item.Exercise.Exercise.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", name, dimStyle.Render(fmt.Sprintf("(%d/%d)", m.ctrl.ExerciseIndex()+1, len(m.ctrl.Plan()))))
	fmt.Fprintf(&b, "Set %d of %d\n\n", item.Values.Set, item.Exercise.Sets)

	if item.Phase == session.PhaseRest {
		b.WriteString(restStyle.Render("REST"))
	} else {
		b.WriteString(workStyle.Render("WORK"))
		if item.Values.Reps > 0 {
			fmt.Fprintf(&b, "  %d reps", item.Values.Reps)
		}
		if item.Values.Distance > 0 {
			fmt.Fprintf(&b, "  %g", item.Values.Distance)
		}
	}
	b.WriteString("\n")

	total := item.Values.Time
	if item.Phase == session.PhaseRest {
		total = item.Exercise.Rest
	}
	if m.ctrl.TimerState() != session.TimerIdle && total > 0 {
		b.WriteString("\n")
		b.WriteString(m.progress.ViewAs(float64(total-m.ctrl.TimeRemaining()) / float64(total)))
		fmt.Fprintf(&b, " %s", formatSeconds(m.ctrl.TimeRemaining()))
		if m.ctrl.IsPaused() {
			b.WriteString(" " + pausedStyle.Render("paused"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + dimStyle.Render("elapsed "+m.ctrl.Elapsed().Truncate(time.Second).String()))
	return b.String()
}

func formatSeconds(s int) string {
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// LogID returns the id of the saved log, or NilObjectID.
func (m *Model) LogID() primitive.ObjectID {
	return m.logID
}

// Err returns the last submit or form error.
func (m *Model) Err() error {
	return m.err
}

// Run drives the session until the user quits.
func Run(ctx context.Context, m *Model, opts ...tea.ProgramOption) (*Model, error) {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return m, err
	}
	if fm, ok := final.(*Model); ok {
		return fm, nil
	}
	return m, nil
}

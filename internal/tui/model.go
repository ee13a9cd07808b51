// Package tui provides the Bubble Tea shot chart editor.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/catstats/internal/chart"
	"github.com/verte-zerg/catstats/internal/model"
	"github.com/verte-zerg/catstats/internal/shots"
	"github.com/verte-zerg/catstats/internal/state"
	"github.com/verte-zerg/catstats/internal/store"
)

const (
	colFrequency = iota
	colPercentile
	colCount
)

const (
	inputWidth     = 6
	inputCharLimit = 12
	wideLayout     = 90
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	modalStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// Options configures the editor.
type Options struct {
	Chart   model.ChartConfig
	Profile string
	Color   bool
}

type exportDoneMsg struct {
	path string
	err  error
}

type saveDoneMsg struct {
	profile model.Profile
	err     error
}

// Model implements the Bubble Tea editor UI. The input table writes through
// the state owner; the chart view reads the snapshots the owner publishes.
type Model struct {
	owner *state.Owner
	store *store.Store
	opts  Options

	categories []model.Category
	inputs     [][colCount]textinput.Model
	focusRow   int
	focusCol   int

	chart       chartView
	unsubscribe func()
	dirty       bool

	width  int
	height int

	status    string
	statusErr bool

	namePrompt bool
	nameInput  textinput.Model
}

// NewModel constructs the editor. st may be nil, which disables saving.
func NewModel(owner *state.Owner, st *store.Store, opts Options) *Model {
	m := &Model{
		owner:      owner,
		store:      st,
		opts:       opts,
		categories: model.Categories(),
	}
	m.chart = newChartView(opts.Chart, opts.Color)
	m.chart.refresh(owner.Snapshot())
	m.unsubscribe = owner.Subscribe(func(s shots.Store) {
		m.chart.refresh(s)
		m.dirty = true
	})
	m.initInputs()
	m.syncInputs(owner.Snapshot())
	m.nameInput = textinput.New()
	m.nameInput.Prompt = "Profile: "
	m.nameInput.Placeholder = "player name"
	m.focusInput()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case exportDoneMsg:
		m.handleExportDone(msg)
		return m, nil
	case saveDoneMsg:
		m.handleSaveDone(msg)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.close()
			return m, tea.Quit
		}
		if m.namePrompt {
			return m.updateNamePrompt(msg)
		}
		switch msg.Type {
		case tea.KeyEsc:
			m.close()
			return m, tea.Quit
		case tea.KeyTab, tea.KeyEnter:
			return m, m.moveFocus(1)
		case tea.KeyShiftTab:
			return m, m.moveFocus(-1)
		case tea.KeyDown:
			return m, m.moveRow(1)
		case tea.KeyUp:
			return m, m.moveRow(-1)
		case tea.KeyCtrlE:
			return m, m.exportCmd()
		case tea.KeyCtrlS:
			return m.startSave()
		case tea.KeyCtrlR:
			m.reset()
			return m, nil
		}
		return m, m.updateFocusedInput(msg)
	}
	return m, m.updateFocusedInput(msg)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.namePrompt {
		return m.renderNamePrompt()
	}
	table := m.renderTable()
	chartBlock := m.chart.view(m.chartRows())
	var body string
	if m.width == 0 || m.width >= wideLayout {
		body = lipgloss.JoinHorizontal(lipgloss.Top, table, "    ", chartBlock)
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, table, "", chartBlock)
	}
	parts := []string{m.renderTitle(), "", body, "", m.renderFooter()}
	out := strings.Join(parts, "\n")
	if m.width > 0 && m.height > 0 {
		return fitLines(out, m.width, m.height)
	}
	return out
}

func (m *Model) initInputs() {
	m.inputs = make([][colCount]textinput.Model, len(m.categories))
	for i := range m.inputs {
		for col := 0; col < colCount; col++ {
			input := textinput.New()
			input.Prompt = ""
			input.Placeholder = "%"
			input.CharLimit = inputCharLimit
			input.Width = inputWidth
			m.inputs[i][col] = input
		}
	}
}

// syncInputs rewrites the input text from a snapshot, used when the whole
// snapshot is replaced rather than edited through the inputs.
func (m *Model) syncInputs(s shots.Store) {
	for i, e := range s.Entries() {
		m.inputs[i][colFrequency].SetValue(displayValue(e.Entry.Frequency))
		m.inputs[i][colPercentile].SetValue(displayValue(e.Entry.Percentile))
	}
}

// displayValue leaves zero inputs empty so the placeholder shows.
func displayValue(v float64) string {
	if v == 0 {
		return ""
	}
	return shots.FormatValue(v)
}

func (m *Model) focusInput() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.inputs {
		for col := 0; col < colCount; col++ {
			if i == m.focusRow && col == m.focusCol {
				cmd = m.inputs[i][col].Focus()
			} else {
				m.inputs[i][col].Blur()
			}
		}
	}
	return cmd
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	total := len(m.inputs) * colCount
	if total == 0 {
		return nil
	}
	idx := m.focusRow*colCount + m.focusCol + delta
	idx = ((idx % total) + total) % total
	m.focusRow = idx / colCount
	m.focusCol = idx % colCount
	return m.focusInput()
}

func (m *Model) moveRow(delta int) tea.Cmd {
	count := len(m.inputs)
	if count == 0 {
		return nil
	}
	m.focusRow = ((m.focusRow+delta)%count + count) % count
	return m.focusInput()
}

func (m *Model) updateFocusedInput(msg tea.Msg) tea.Cmd {
	if len(m.inputs) == 0 {
		return nil
	}
	input := &m.inputs[m.focusRow][m.focusCol]
	before := input.Value()
	var cmd tea.Cmd
	*input, cmd = input.Update(msg)
	if input.Value() == before {
		return cmd
	}
	m.applyInput(m.focusRow, m.focusCol, input.Value())
	return cmd
}

// applyInput pushes edited text into the owner. Unparseable text is stored as NaN.
func (m *Model) applyInput(row, col int, text string) {
	c := m.categories[row]
	v := shots.ParseValue(text)
	var err error
	if col == colFrequency {
		err = m.owner.UpdateFrequency(c, v)
	} else {
		err = m.owner.UpdatePercentile(c, v)
	}
	if err != nil {
		m.setStatus(err.Error(), true)
	}
}

func (m *Model) reset() {
	m.owner.Replace(shots.New())
	m.syncInputs(m.owner.Snapshot())
	m.setStatus("Reset all values.", false)
}

func (m *Model) exportCmd() tea.Cmd {
	visual := m.chart.visual()
	dir := m.opts.Chart.ExportDir
	return func() tea.Msg {
		data, err := chart.ExportPNG(visual)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		path, err := chart.WriteFile(dir, data)
		return exportDoneMsg{path: path, err: err}
	}
}

func (m *Model) handleExportDone(msg exportDoneMsg) {
	switch {
	case errors.Is(msg.err, chart.ErrNoVisual):
		// Nothing rendered yet; export is a no-op.
		m.setStatus("", false)
	case msg.err != nil:
		logErrf("export failed: %v\n", msg.err)
		m.setStatus("Export failed.", true)
	default:
		m.setStatus(fmt.Sprintf("Saved %s", msg.path), false)
	}
}

func (m *Model) startSave() (tea.Model, tea.Cmd) {
	if m.store == nil {
		m.setStatus("Profile storage unavailable.", true)
		return m, nil
	}
	if m.opts.Profile != "" {
		return m, m.saveCmd(m.opts.Profile)
	}
	m.namePrompt = true
	m.nameInput.SetValue("")
	return m, m.nameInput.Focus()
}

func (m *Model) updateNamePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.namePrompt = false
		m.nameInput.Blur()
		return m, m.focusInput()
	case tea.KeyEnter:
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			return m, nil
		}
		m.namePrompt = false
		m.nameInput.Blur()
		return m, tea.Batch(m.saveCmd(name), m.focusInput())
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m *Model) saveCmd(name string) tea.Cmd {
	st := m.store
	snapshot := m.owner.Snapshot()
	return func() tea.Msg {
		profile, err := st.SaveProfile(context.Background(), name, snapshot)
		return saveDoneMsg{profile: profile, err: err}
	}
}

func (m *Model) handleSaveDone(msg saveDoneMsg) {
	if msg.err != nil {
		logErrf("failed to save profile: %v\n", msg.err)
		m.setStatus("Save failed.", true)
		return
	}
	m.opts.Profile = msg.profile.Name
	m.dirty = false
	m.setStatus(fmt.Sprintf("Saved profile %q", msg.profile.Name), false)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *Model) chartRows() int {
	if m.height <= 0 {
		return 0
	}
	rows := m.height - 8 - m.chart.legendLen()
	if m.width > 0 && m.width < wideLayout {
		rows -= len(m.categories) + 4
	}
	return min(max(rows, chart.MinDonutRows), 16)
}

func (m *Model) renderTitle() string {
	title := m.opts.Chart.Title
	if m.opts.Profile != "" {
		marker := ""
		if m.dirty {
			marker = "*"
		}
		title = fmt.Sprintf("%s  [%s%s]", title, m.opts.Profile, marker)
	}
	return titleStyle.Render(title)
}

func (m *Model) renderFooter() string {
	help := footerStyle.Render("Move: tab/shift+tab/up/down  Export: ctrl+e  Save: ctrl+s  Reset: ctrl+r  Quit: esc")
	if m.status == "" {
		return help
	}
	style := statusStyle
	if m.statusErr {
		style = warningStyle
	}
	return help + "\n" + style.Render(m.status)
}

func (m *Model) renderNamePrompt() string {
	body := []string{
		titleStyle.Render("Save Profile"),
		m.nameInput.View(),
		headerStyle.Render("Enter to save / Esc to cancel"),
	}
	box := modalStyle.Render(strings.Join(body, "\n"))
	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

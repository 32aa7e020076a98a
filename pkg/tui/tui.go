// Package tui provides a terminal user interface for melodyevolve
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/james-see/melodyevolve/pkg/config"
	"github.com/james-see/melodyevolve/pkg/evolve"
	"github.com/james-see/melodyevolve/pkg/fitness"
	"github.com/james-see/melodyevolve/pkg/genome"
	"github.com/james-see/melodyevolve/pkg/scale"
	"github.com/james-see/melodyevolve/pkg/store"
)

// Acid-inspired color scheme
var (
	acidGreen  = lipgloss.Color("#39FF14")
	acidYellow = lipgloss.Color("#FFFF00")
	silverGray = lipgloss.Color("#C0C0C0")
	darkGray   = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(acidGreen).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(acidGreen).
			Bold(true).
			PaddingLeft(2)

	descStyle = lipgloss.NewStyle().
			Foreground(acidYellow).
			PaddingLeft(4)

	statusStyle = lipgloss.NewStyle().
			Foreground(acidYellow).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(acidGreen).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(acidGreen).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateScaleMenu State = iota
	StatePresetMenu
	StateRunning
	StateResult
)

// presetConfigured keeps the loaded configuration untouched
const presetConfigured = "configured"

// Options configures the TUI
type Options struct {
	Base     config.File
	Registry fitness.Registry
	// Store is optional; finished runs are saved when set
	Store  store.Store
	Logger *slog.Logger
}

// progressMsg carries one generation's stats from the engine observer
type progressMsg evolve.GenerationStats

// runDoneMsg signals the end of a run
type runDoneMsg struct {
	run  store.Run
	path string
	err  error
}

// session is shared by every copy of the model
type session struct {
	program *tea.Program
	cancel  context.CancelFunc
}

func (s *session) send(msg tea.Msg) {
	if s.program != nil {
		s.program.Send(msg)
	}
}

// Model represents the TUI model
type Model struct {
	opts        Options
	session     *session
	state       State
	scales      []scale.Definition
	presets     []string
	scaleIndex  int
	presetIndex int
	spinner     spinner.Model
	progress    progress.Model
	latest      evolve.GenerationStats
	generations int
	run         store.Run
	outputFile  string
	err         error
	width       int
	height      int
}

// New creates a new TUI model
func New(opts Options) Model {
	if opts.Base.Scale == "" {
		opts.Base = config.Default()
	}
	if len(opts.Registry.Rhythm().Entries) == 0 {
		opts.Registry = fitness.DefaultRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(acidGreen)

	scales := scale.Definitions()
	scaleIndex := 0
	for i, d := range scales {
		if d.Name == opts.Base.Scale {
			scaleIndex = i
		}
	}

	return Model{
		opts:       opts,
		session:    &session{},
		state:      StateScaleMenu,
		scales:     scales,
		presets:    append([]string{presetConfigured}, config.Presets()...),
		scaleIndex: scaleIndex,
		spinner:    s,
		progress:   progress.New(progress.WithDefaultGradient()),
	}
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// State returns the current state
func (m Model) State() State {
	return m.state
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, min(60, msg.Width-10))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || (msg.String() == "q" && m.state != StateRunning) {
			m.stop()
			return m, tea.Quit
		}
		switch m.state {
		case StateScaleMenu:
			return m.updateScaleMenu(msg)
		case StatePresetMenu:
			return m.updatePresetMenu(msg)
		case StateRunning:
			if msg.String() == "esc" || msg.String() == "q" {
				m.stop()
			}
			return m, nil
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressMsg:
		m.latest = evolve.GenerationStats(msg)
		return m, nil

	case runDoneMsg:
		m.stop()
		m.state = StateResult
		m.run = msg.run
		m.outputFile = msg.path
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateScaleMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.scaleIndex > 0 {
			m.scaleIndex--
		}
	case "down", "j":
		if m.scaleIndex < len(m.scales)-1 {
			m.scaleIndex++
		}
	case "enter":
		m.state = StatePresetMenu
	case "esc":
		m.stop()
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updatePresetMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.presetIndex > 0 {
			m.presetIndex--
		}
	case "down", "j":
		if m.presetIndex < len(m.presets)-1 {
			m.presetIndex++
		}
	case "esc":
		m.state = StateScaleMenu
	case "enter":
		f, err := m.selected()
		if err != nil {
			m.state = StateResult
			m.err = err
			return m, nil
		}
		m.state = StateRunning
		m.latest = evolve.GenerationStats{}
		m.generations = f.Generations
		m.err = nil
		return m, tea.Batch(m.spinner.Tick, m.startRun(f))
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateScaleMenu
		m.err = nil
		m.run = store.Run{}
		m.outputFile = ""
	}
	return m, nil
}

// selected layers the chosen scale and preset over the base configuration
func (m Model) selected() (config.File, error) {
	f := m.opts.Base
	f.Scale = m.scales[m.scaleIndex].Name
	if p := m.presets[m.presetIndex]; p != presetConfigured {
		if err := f.ApplyPreset(p); err != nil {
			return config.File{}, err
		}
	}
	if err := f.Validate(m.opts.Registry); err != nil {
		return config.File{}, err
	}
	return f, nil
}

func (m *Model) stop() {
	if m.session.cancel != nil {
		m.session.cancel()
		m.session.cancel = nil
	}
}

func (m Model) startRun(f config.File) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.session.cancel = cancel
	sess := m.session
	opts := m.opts

	return func() tea.Msg {
		defer cancel()
		run, path, err := evolveOnce(ctx, opts, f, func(s evolve.GenerationStats) {
			sess.send(progressMsg(s))
		})
		return runDoneMsg{run: run, path: path, err: err}
	}
}

func evolveOnce(ctx context.Context, opts Options, f config.File, observe evolve.Observer) (store.Run, string, error) {
	sc, err := f.ResolveScale()
	if err != nil {
		return store.Run{}, "", err
	}
	rw, pw := f.Weights()
	rhythmFn, err := opts.Registry.Rhythm().Compose(rw)
	if err != nil {
		return store.Run{}, "", err
	}
	pitchFn, err := opts.Registry.Pitch().Compose(pw)
	if err != nil {
		return store.Run{}, "", err
	}

	engine, err := evolve.New(f.Evolve(), sc, rhythmFn, pitchFn,
		evolve.WithLogger(opts.Logger), evolve.WithObserver(observe))
	if err != nil {
		return store.Run{}, "", err
	}
	res, err := engine.Run(ctx)
	if err != nil {
		return store.Run{}, "", err
	}

	path := filepath.Join(f.Output.Dir, fmt.Sprintf("output_%s.mid", f.Scale))
	if err := f.Writer().WriteFile(path, res.Notes); err != nil {
		return store.Run{}, "", err
	}

	run := store.NewRun("tui", f.Scale, res, engine.Config(), rw.Map(), pw.Map())
	run.MIDIPath = path
	if opts.Store != nil {
		if err := opts.Store.Put(ctx, run); err != nil {
			return store.Run{}, "", fmt.Errorf("store run: %w", err)
		}
	}
	return run, path, nil
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateScaleMenu:
		s.WriteString(m.viewScaleMenu())
	case StatePresetMenu:
		s.WriteString(m.viewPresetMenu())
	case StateRunning:
		s.WriteString(m.viewRunning())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • esc: back • q: quit"))

	return s.String()
}

func (m Model) viewScaleMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT SCALE "))
	s.WriteString("\n\n")

	for i, d := range m.scales {
		if i == m.scaleIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", d.Name)))
			s.WriteString("\n")
			s.WriteString(descStyle.Render(fmt.Sprintf("%d notes: %v", d.Scale().Size(), []int(d.Scale()))))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", d.Name)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewPresetMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" %s: SELECT PRESET ", m.scales[m.scaleIndex].Name)))
	s.WriteString("\n\n")

	for i, name := range m.presets {
		if i == m.presetIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", name)))
			s.WriteString("\n")
			s.WriteString(descStyle.Render(m.presetDescription(name)))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", name)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) presetDescription(name string) string {
	if name == presetConfigured {
		return fmt.Sprintf("population %d, %d generations", m.opts.Base.PopulationSize, m.opts.Base.Generations)
	}
	p, err := config.LookupPreset(name)
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("population %d, %d generations", p.PopulationSize, p.Generations)
}

func (m Model) viewRunning() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" EVOLVING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Evolving %s...\n\n", m.spinner.View(), m.scales[m.scaleIndex].Name))

	percent := 0.0
	if m.generations > 0 {
		percent = float64(m.latest.Generation+1) / float64(m.generations)
	}
	s.WriteString(m.progress.ViewAs(percent))
	s.WriteString(statusStyle.Render(fmt.Sprintf("  generation %d/%d  best %.3f  mean %.3f",
		m.latest.Generation+1, m.generations, m.latest.Best, m.latest.Mean)))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Evolution failed: %s", m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render(fmt.Sprintf("✓ Best fitness %.3f (rhythm %.3f, pitch %.3f)",
			m.run.BestFitness, m.run.RhythmFitness, m.run.PitchFitness)))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Rhythm: %s\n", rhythmString(m.run.Rhythm)))
		s.WriteString(fmt.Sprintf("Pitch:  %v\n", m.run.Pitch))
		s.WriteString(fmt.Sprintf("Notes:  %d\n", len(m.run.Notes)))
		for _, n := range m.run.Notes {
			s.WriteString(fmt.Sprintf("  %3d  @%5.1f  %.1f beats\n", n.Pitch, n.Start, n.Duration))
		}
		s.WriteString(fmt.Sprintf("\nOutput: %s", m.outputFile))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func rhythmString(slots []genome.Slot) string {
	var b strings.Builder
	for _, s := range slots {
		switch s {
		case genome.Note:
			b.WriteByte('N')
		case genome.Hold:
			b.WriteByte('-')
		default:
			b.WriteByte('.')
		}
	}
	return b.String()
}

func asciiLogo() string {
	logo := `
   __  __ _____ _     ___  ______   __  _____     _____  _ __     _______
  |  \/  | ____| |   / _ \|  _ \ \ / / | ____\   / / _ \| |\ \   / / ____|
  | |\/| |  _| | |  | | | | | | \ V /  |  _|  \ / / | | | | \ \ / /|  _|
  | |  | | |___| |__| |_| | |_| || |   | |___  V /| |_| | |__\ V / | |___
  |_|  |_|_____|_____\___/|____/ |_|   |_____|  \_/ \___/|_____\_/  |_____|
`
	return lipgloss.NewStyle().Foreground(acidGreen).Render(logo)
}

// Run starts the TUI application
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.session.program = p
	_, err := p.Run()
	m.stop()
	return err
}

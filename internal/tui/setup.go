// ABOUTME: Interactive TUI wizard for configuring daybook storage and sync.
// ABOUTME: 3-step bubbletea model collecting backend, data directory and charm database.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Step represents the current wizard step.
type Step int

const (
	StepBackend Step = iota
	StepDataDir
	StepRemote
	StepDone
)

const stepCount = 3

// SetupModel is the bubbletea model for the setup wizard.
type SetupModel struct {
	step     Step
	inputs   [stepCount]textinput.Model
	quitting bool
}

// Result holds the values collected by the wizard.
type Result struct {
	Backend string
	DataDir string
	// DBName is the charm kv database; empty means remote sync is off.
	DBName string
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	brandStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var validBackends = map[string]bool{"diskv": true, "sqlite": true}

// defaultDataDir returns the default XDG data directory for daybook.
func defaultDataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "daybook")
}

// NewSetupModel creates a new setup wizard model, pre-filled from existing config.
func NewSetupModel(existing Result) SetupModel {
	backendInput := textinput.New()
	backendInput.Placeholder = "diskv"
	backendInput.Focus()
	backendInput.Width = 50
	if existing.Backend != "" {
		backendInput.SetValue(existing.Backend)
	}

	dataDirInput := textinput.New()
	dataDirInput.Placeholder = defaultDataDir()
	dataDirInput.Width = 50
	if existing.DataDir != "" {
		dataDirInput.SetValue(existing.DataDir)
	}

	remoteInput := textinput.New()
	remoteInput.Placeholder = "daybook"
	remoteInput.Width = 50
	if existing.DBName != "" {
		remoteInput.SetValue(existing.DBName)
	}

	return SetupModel{
		step:   StepBackend,
		inputs: [stepCount]textinput.Model{backendInput, dataDirInput, remoteInput},
	}
}

// Init implements tea.Model.
func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SetupModel) editing() bool {
	return m.step < StepDone
}

// Update implements tea.Model.
func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEscape:
			m.quitting = true
			return m, tea.Quit
		}

		if m.editing() {
			return m.updateInput(msg)
		}
	default:
		// Forward other messages (e.g. cursor blink) to the active input
		if m.editing() {
			idx := int(m.step)
			var cmd tea.Cmd
			m.inputs[idx], cmd = m.inputs[idx].Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m SetupModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		return m.handleEnter()
	}

	idx := int(m.step)
	var cmd tea.Cmd
	m.inputs[idx], cmd = m.inputs[idx].Update(msg)
	return m, cmd
}

func (m SetupModel) handleEnter() (tea.Model, tea.Cmd) {
	idx := int(m.step)

	switch m.step {
	case StepBackend:
		val := strings.ToLower(strings.TrimSpace(m.inputs[0].Value()))
		if val == "" {
			val = "diskv"
		}
		if !validBackends[val] {
			return m, nil
		}
		m.inputs[0].SetValue(val)
	case StepDataDir:
		if strings.TrimSpace(m.inputs[1].Value()) == "" {
			m.inputs[1].SetValue(defaultDataDir())
		}
	case StepRemote:
		m.inputs[2].SetValue(strings.TrimSpace(m.inputs[2].Value()))
	}

	m.inputs[idx].Blur()
	m.step++
	if m.step == StepDone {
		return m, tea.Quit
	}
	m.inputs[int(m.step)].Focus()
	return m, textinput.Blink
}

// View implements tea.Model.
func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(brandStyle.Render("   DAYBOOK"))
	b.WriteString(titleStyle.Render(" - Setup"))
	b.WriteString("\n\n")
	b.WriteString("Configure local storage and remote sync.\n\n")

	switch m.step {
	case StepBackend:
		b.WriteString(stepStyle.Render("Step 1 of 3: Local Cache Backend"))
		b.WriteString("\n")
		b.WriteString(promptStyle.Render("(diskv or sqlite, press Enter for default)"))
		b.WriteString("\n")
		b.WriteString(m.inputs[0].View())
		b.WriteString("\n")

	case StepDataDir:
		b.WriteString(fmt.Sprintf("  Backend: %s\n\n", m.inputs[0].Value()))
		b.WriteString(stepStyle.Render("Step 2 of 3: Data Directory"))
		b.WriteString("\n")
		b.WriteString(promptStyle.Render(fmt.Sprintf("(press Enter for default: %s)", defaultDataDir())))
		b.WriteString("\n")
		b.WriteString(m.inputs[1].View())
		b.WriteString("\n")

	case StepRemote:
		b.WriteString(fmt.Sprintf("  Backend: %s\n", m.inputs[0].Value()))
		b.WriteString(fmt.Sprintf("  Data directory: %s\n\n", m.inputs[1].Value()))
		b.WriteString(stepStyle.Render("Step 3 of 3: Charm Sync Database"))
		b.WriteString("\n")
		b.WriteString(promptStyle.Render("(database name, leave empty to keep items on this machine only)"))
		b.WriteString("\n")
		b.WriteString(m.inputs[2].View())
		b.WriteString("\n")

	case StepDone:
		b.WriteString(successStyle.Render("Setup complete!"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("  Backend:         %s\n", m.inputs[0].Value()))
		b.WriteString(fmt.Sprintf("  Data directory:  %s\n", m.inputs[1].Value()))
		remote := m.inputs[2].Value()
		if remote == "" {
			remote = "off"
		}
		b.WriteString(fmt.Sprintf("  Remote sync:     %s\n", remote))
		b.WriteString("\n")
	}

	return b.String()
}

// Result returns the entered values.
func (m SetupModel) Result() Result {
	return Result{
		Backend: m.inputs[0].Value(),
		DataDir: m.inputs[1].Value(),
		DBName:  m.inputs[2].Value(),
	}
}

// ShouldSave returns true if the wizard completed and the user did not cancel.
func (m SetupModel) ShouldSave() bool {
	return m.step == StepDone && !m.quitting
}

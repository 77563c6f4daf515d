// ABOUTME: Unit tests for the daybook setup TUI wizard bubbletea model.
// ABOUTME: Uses synthetic tea.Msg values to test state machine transitions.
package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func enter(t *testing.T, m SetupModel) SetupModel {
	t.Helper()
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(SetupModel)
}

func TestNewSetupModel_DefaultValues(t *testing.T) {
	m := NewSetupModel(Result{})
	if m.step != StepBackend {
		t.Errorf("expected initial step StepBackend, got %d", m.step)
	}
	for i, in := range m.inputs {
		if in.Value() != "" {
			t.Errorf("expected empty input %d for new config, got %q", i, in.Value())
		}
	}
}

func TestNewSetupModel_ExistingConfig(t *testing.T) {
	m := NewSetupModel(Result{Backend: "sqlite", DataDir: "/custom/path", DBName: "journal"})
	if m.inputs[0].Value() != "sqlite" {
		t.Errorf("expected pre-filled backend, got %q", m.inputs[0].Value())
	}
	if m.inputs[1].Value() != "/custom/path" {
		t.Errorf("expected pre-filled data dir, got %q", m.inputs[1].Value())
	}
	if m.inputs[2].Value() != "journal" {
		t.Errorf("expected pre-filled db name, got %q", m.inputs[2].Value())
	}
}

func TestSetupModel_StepTransitions(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg")
	m := NewSetupModel(Result{})

	m = enter(t, m)
	if m.step != StepDataDir {
		t.Errorf("expected StepDataDir after Enter on backend, got %d", m.step)
	}
	if m.inputs[0].Value() != "diskv" {
		t.Errorf("expected default backend 'diskv', got %q", m.inputs[0].Value())
	}

	m = enter(t, m)
	if m.step != StepRemote {
		t.Errorf("expected StepRemote after Enter on data dir, got %d", m.step)
	}
	if m.inputs[1].Value() != "/xdg/daybook" {
		t.Errorf("expected default data dir, got %q", m.inputs[1].Value())
	}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(SetupModel)
	if m.step != StepDone {
		t.Errorf("expected StepDone after Enter on remote, got %d", m.step)
	}
	if cmd == nil {
		t.Error("expected quit cmd when done")
	}
	if m.Result().DBName != "" {
		t.Errorf("expected sync off by default, got %q", m.Result().DBName)
	}
}

func TestSetupModel_InvalidBackend(t *testing.T) {
	m := NewSetupModel(Result{})
	m.inputs[0].SetValue("markdown")

	m = enter(t, m)
	if m.step != StepBackend {
		t.Errorf("expected to stay on StepBackend with invalid backend, got %d", m.step)
	}
}

func TestSetupModel_BackendCaseInsensitive(t *testing.T) {
	m := NewSetupModel(Result{})
	m.inputs[0].SetValue("SQLite")

	m = enter(t, m)
	if m.inputs[0].Value() != "sqlite" {
		t.Errorf("expected lowercased backend, got %q", m.inputs[0].Value())
	}
}

func TestSetupModel_QuitOnCtrlC(t *testing.T) {
	m := NewSetupModel(Result{})
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(SetupModel)
	if cmd == nil {
		t.Error("expected quit cmd on ctrl+c")
	}
	if !m.quitting {
		t.Error("expected quitting to be true")
	}
	if m.ShouldSave() {
		t.Error("expected ShouldSave false after ctrl+c")
	}
}

func TestSetupModel_QuitOnEsc(t *testing.T) {
	m := NewSetupModel(Result{})
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	m = updated.(SetupModel)
	if cmd == nil {
		t.Error("expected quit cmd on escape")
	}
	if !m.quitting {
		t.Error("expected quitting to be true")
	}
}

func TestSetupModel_Result(t *testing.T) {
	m := NewSetupModel(Result{})
	m.inputs[0].SetValue("sqlite")
	m.inputs[1].SetValue("/data/daybook")
	m.inputs[2].SetValue("journal")
	m.step = StepDone

	got := m.Result()
	want := Result{Backend: "sqlite", DataDir: "/data/daybook", DBName: "journal"}
	if got != want {
		t.Errorf("Result() = %+v, want %+v", got, want)
	}
}

func TestSetupModel_ViewShowsCurrentStep(t *testing.T) {
	m := NewSetupModel(Result{})
	if !strings.Contains(m.View(), "DAYBOOK") {
		t.Error("expected view to contain branding")
	}

	steps := map[Step]string{
		StepBackend: "Local Cache Backend",
		StepDataDir: "Data Directory",
		StepRemote:  "Charm Sync Database",
		StepDone:    "Setup complete!",
	}
	for step, want := range steps {
		m.step = step
		if !strings.Contains(m.View(), want) {
			t.Errorf("expected step %d view to mention %q", step, want)
		}
	}
}

func TestSetupModel_ViewDoneShowsSyncOff(t *testing.T) {
	m := NewSetupModel(Result{Backend: "diskv", DataDir: "/data"})
	m.step = StepDone
	if !strings.Contains(m.View(), "Remote sync:     off") {
		t.Errorf("expected sync off in summary:\n%s", m.View())
	}
}

func TestSetupModel_FullPrefilledFlow(t *testing.T) {
	m := NewSetupModel(Result{Backend: "sqlite", DataDir: "/data/daybook", DBName: "journal"})

	for i := 0; i < stepCount; i++ {
		m = enter(t, m)
	}
	if m.step != StepDone {
		t.Fatalf("expected StepDone, got %d", m.step)
	}
	if !m.ShouldSave() {
		t.Error("expected ShouldSave true after completing flow")
	}
	if m.Result().DBName != "journal" {
		t.Errorf("expected db name kept, got %q", m.Result().DBName)
	}
}

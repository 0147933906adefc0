package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/shed/pkg/deps/languages"
	"github.com/matzehuels/shed/pkg/detect"
)

func candidates() []detect.Candidate {
	return []detect.Candidate{
		{Language: "python", Confidence: 0.70, Files: 40},
		{Language: "go", Confidence: 0.20, Files: 12},
		{Language: "javascript", Confidence: 0.08, Files: 3},
		{Language: "ruby", Confidence: 0.02, Files: 1},
	}
}

func press(m LanguagePickerModel, keys ...tea.KeyMsg) (LanguagePickerModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(LanguagePickerModel)
	}
	return m, cmd
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyQuit  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
)

func TestLanguagePicker_Preselects(t *testing.T) {
	m := NewLanguagePickerModel(candidates(), languages.Default, 0.15)
	if diff := cmp.Diff([]string{"python"}, m.Selected()); diff != "" {
		t.Errorf("Selected() (-want +got):\n%s", diff)
	}
}

func TestLanguagePicker_Toggle(t *testing.T) {
	m := NewLanguagePickerModel(candidates(), languages.Default, 0.15)

	// go is unsupported and cannot be checked
	m, _ = press(m, keyDown, keySpace)
	if m.Checked["go"] {
		t.Error("unsupported language was checked")
	}

	m, _ = press(m, keyDown, keySpace)
	m, cmd := press(m, keyEnter)
	if !m.Confirmed || cmd == nil {
		t.Fatal("enter did not confirm")
	}
	if diff := cmp.Diff([]string{"python", "javascript"}, m.Selected()); diff != "" {
		t.Errorf("Selected() (-want +got):\n%s", diff)
	}
}

func TestLanguagePicker_EnterNeedsSelection(t *testing.T) {
	m := NewLanguagePickerModel(candidates(), languages.Default, 0.15)
	m, _ = press(m, keySpace)
	m, cmd := press(m, keyEnter)
	if m.Confirmed || cmd != nil {
		t.Error("confirmed with nothing selected")
	}
}

func TestLanguagePicker_Quit(t *testing.T) {
	m := NewLanguagePickerModel(candidates(), languages.Default, 0.15)
	m, cmd := press(m, keyQuit)
	if m.Confirmed || cmd == nil {
		t.Error("q should quit without confirming")
	}
}

func TestLanguagePicker_View(t *testing.T) {
	view := NewLanguagePickerModel(candidates(), languages.Default, 0.15).View()
	for _, want := range []string{"Select Languages", "python", "(unsupported)", "1 selected"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

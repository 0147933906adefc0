package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/shed/pkg/deps"
	"github.com/matzehuels/shed/pkg/detect"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// LanguagePickerModel - Interactive language selection
// =============================================================================

// LanguagePickerModel is the bubbletea model for choosing which detected
// languages to extract. Unsupported languages are shown but cannot be
// checked.
type LanguagePickerModel struct {
	Candidates []detect.Candidate
	Registry   *deps.Registry
	Cursor     int
	Checked    map[string]bool
	Confirmed  bool
}

// NewLanguagePickerModel preselects the languages a run would choose on
// its own: the top candidate and every one at or above minConfidence.
func NewLanguagePickerModel(cands []detect.Candidate, reg *deps.Registry, minConfidence float64) LanguagePickerModel {
	m := LanguagePickerModel{Candidates: cands, Registry: reg, Checked: map[string]bool{}}
	for i, c := range cands {
		if !m.supported(c.Language) {
			continue
		}
		if i == 0 || c.Confidence >= minConfidence {
			m.Checked[c.Language] = true
		}
	}
	return m
}

func (m LanguagePickerModel) supported(lang string) bool {
	_, ok := m.Registry.Lookup(lang)
	return ok
}

// Selected returns the checked languages in detection order.
func (m LanguagePickerModel) Selected() []string {
	var out []string
	for _, c := range m.Candidates {
		if m.Checked[c.Language] {
			out = append(out, c.Language)
		}
	}
	return out
}

func (m LanguagePickerModel) Init() tea.Cmd {
	return nil
}

func (m LanguagePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Candidates)-1 {
			m.Cursor++
		}
	case " ", "x":
		if len(m.Candidates) == 0 {
			return m, nil
		}
		lang := m.Candidates[m.Cursor].Language
		if m.supported(lang) {
			checked := make(map[string]bool, len(m.Checked)+1)
			for k, v := range m.Checked {
				checked[k] = v
			}
			checked[lang] = !checked[lang]
			m.Checked = checked
		}
	case "enter":
		if len(m.Selected()) == 0 {
			return m, nil
		}
		m.Confirmed = true
		return m, tea.Quit
	}
	return m, nil
}

func (m LanguagePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Languages"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  ⏎ run  q quit"))
	b.WriteString("\n\n")

	for i, c := range m.Candidates {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		box := "[ ]"
		if m.Checked[c.Language] {
			box = "[x]"
		}
		supported := m.supported(c.Language)
		if !supported {
			box = " - "
		}

		line := fmt.Sprintf("%s%s %-12s %5.1f%%  %d files", cursor, box, c.Language, c.Confidence*100, c.Files)
		switch {
		case !supported:
			b.WriteString(listDimStyle.Render(line + "  (unsupported)"))
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d selected", len(m.Selected()))))
	return b.String()
}

// pickLanguages runs the picker and returns the chosen languages, or nil
// when the user quit.
func pickLanguages(cands []detect.Candidate, reg *deps.Registry, minConfidence float64) ([]string, error) {
	final, err := tea.NewProgram(NewLanguagePickerModel(cands, reg, minConfidence)).Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(LanguagePickerModel)
	if !ok || !m.Confirmed {
		return nil, nil
	}
	return m.Selected(), nil
}

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/shed/pkg/deps"
	"github.com/matzehuels/shed/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for failures.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(22)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}

// =============================================================================
// Tables
// =============================================================================

// newTable returns a rounded table in the CLI palette.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// statusStyle colors an open-source status.
func statusStyle(s deps.Status) lipgloss.Style {
	switch s {
	case deps.StatusOpen:
		return StyleSuccess
	case deps.StatusProprietary:
		return StyleError
	default:
		return StyleWarning
	}
}

// renderEcosystems summarizes records per ecosystem and status.
func renderEcosystems(records []deps.Record) string {
	type counts struct{ open, proprietary, unknown int }
	byEco := map[deps.Ecosystem]*counts{}
	var order []deps.Ecosystem
	for _, r := range records {
		c, ok := byEco[r.Ecosystem]
		if !ok {
			c = &counts{}
			byEco[r.Ecosystem] = c
			order = append(order, r.Ecosystem)
		}
		switch r.Status {
		case deps.StatusOpen:
			c.open++
		case deps.StatusProprietary:
			c.proprietary++
		default:
			c.unknown++
		}
	}

	t := newTable("Ecosystem", "Records", "Open", "Proprietary", "Unknown")
	for _, eco := range order {
		c := byEco[eco]
		t.Row(string(eco),
			strconv.Itoa(c.open+c.proprietary+c.unknown),
			StyleSuccess.Render(strconv.Itoa(c.open)),
			StyleError.Render(strconv.Itoa(c.proprietary)),
			StyleWarning.Render(strconv.Itoa(c.unknown)))
	}
	return t.Render()
}

// printSummary prints the outcome of a run.
func printSummary(s *pipeline.Summary, verbose bool) {
	d := s.Diagnostics
	langs := make([]string, len(s.Languages))
	for i, l := range s.Languages {
		langs[i] = fmt.Sprintf("%s (%.0f%%)", l.Language, l.Confidence*100)
	}

	printKeyValue("Run", s.RunID)
	printKeyValue("Languages", orDash(strings.Join(langs, ", ")))
	printKeyValue("Records", StyleNumber.Render(strconv.Itoa(len(s.Records))))
	printKeyValue("License queries", fmt.Sprintf("%d (%d cached)", d.LicenseQueries, d.CacheHits))
	if len(d.UnsupportedLanguages) > 0 {
		printKeyValue("Unsupported languages", StyleWarning.Render(strings.Join(d.UnsupportedLanguages, ", ")))
	}
	if d.ExtractionTimeouts > 0 {
		printKeyValue("Extraction timeouts", StyleWarning.Render(strconv.Itoa(d.ExtractionTimeouts)))
	}
	if d.ExtractionFailures > 0 {
		printKeyValue("Extraction failures", StyleWarning.Render(strconv.Itoa(d.ExtractionFailures)))
	}
	if d.SkippedEntries > 0 {
		printKeyValue("Skipped entries", StyleWarning.Render(strconv.Itoa(d.SkippedEntries)))
	}
	if d.UnresolvedLicenses > 0 {
		printKeyValue("Unresolved licenses", StyleWarning.Render(strconv.Itoa(d.UnresolvedLicenses)))
	}

	if len(s.Records) > 0 {
		printNewline()
		fmt.Println(renderEcosystems(s.Records))
	}

	if verbose && len(s.Errors) > 0 {
		printNewline()
		for _, e := range s.Errors {
			subject := ""
			if e.Subject != "" {
				subject = " " + e.Subject
			}
			printDetail("[%s] %s%s: %s", e.Stage, e.Code, subject, e.Message)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

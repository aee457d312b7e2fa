package report

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

var (
	errorStyle   = pterm.NewStyle(pterm.FgRed, pterm.Bold)
	warningStyle = pterm.NewStyle(pterm.FgYellow, pterm.Bold)
	noteStyle    = pterm.NewStyle(pterm.FgCyan)
	remarkStyle  = pterm.NewStyle(pterm.FgLightBlue)
	locStyle     = pterm.NewStyle(pterm.Bold)
	caretStyle   = pterm.NewStyle(pterm.FgLightGreen, pterm.Bold)
)

// displayICE displays an internal compiler error message.
func displayICE(message string) {
	errorStyle.Print("internal compiler error: ")
	fmt.Println(message)
	fmt.Print("This error was not supposed to happen: please report it upstream with the input that produced it.\n\n")
}

// displayFatal displays a fatal error message.
func displayFatal(message string) {
	errorStyle.Print("fatal error: ")
	fmt.Printf("%s\n\n", message)
}

// display renders a diagnostic and its attached notes.
func (e *Engine) display(d *Diagnostic) {
	e.displayOne(d)

	for _, note := range d.Notes {
		e.displayOne(note)
	}

	fmt.Println()
}

// displayOne renders a single diagnostic record without its notes.
func (e *Engine) displayOne(d *Diagnostic) {
	if d.Loc.IsValid() {
		locStyle.Printf("%s: ", e.sm.Decode(d.Loc))
	}

	severityStyleOf(d.Severity).Printf("%s: ", d.Severity.Label())
	fmt.Printf("%s [%s]\n", d.Message, d.ID)

	if d.Loc.IsValid() {
		e.displaySourceText(d)
	}

	for _, fix := range d.FixIts {
		noteStyle.Print("  fix-it: ")
		fmt.Printf("replace with `%s`\n", fix.Insert)
	}
}

// severityStyleOf returns the pterm style for a severity label.
func severityStyleOf(sev Severity) *pterm.Style {
	switch sev {
	case SevNote:
		return noteStyle
	case SevRemark:
		return remarkStyle
	case SevWarning:
		return warningStyle
	default:
		return errorStyle
	}
}

// displaySourceText displays the source line containing the diagnostic's
// primary location with a caret marking the column, plus underlining for any
// highlighted ranges that fall on the same line.
func (e *Engine) displaySourceText(d *Diagnostic) {
	line := e.sm.SourceLine(d.Loc)
	if line == "" {
		return
	}

	pos := e.sm.Decode(d.Loc)
	fmt.Printf("  %s\n", strings.ReplaceAll(line, "\t", "    "))

	// Tabs were expanded above, so the caret column must account for any tabs
	// before the marked column.
	col := pos.Col
	for _, c := range line[:min(pos.Col-1, len(line))] {
		if c == '\t' {
			col += 3
		}
	}

	caretStyle.Printf("  %s^\n", strings.Repeat(" ", col-1))
}

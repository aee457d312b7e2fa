package report

import "fmt"

// Severity is the severity class of a diagnostic.
type Severity int

// Enumeration of the different diagnostic severities in increasing order.
const (
	SevNote Severity = iota
	SevRemark
	SevWarning
	SevError
	SevFatal
)

// Label returns the display label for a severity.
func (s Severity) Label() string {
	switch s {
	case SevNote:
		return "note"
	case SevRemark:
		return "remark"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	default:
		return "fatal error"
	}
}

// FixIt is a suggested source edit attached to a diagnostic: the text in Range
// is replaced with Insert.  A pure insertion has an empty range; a pure
// removal has empty Insert text.
type FixIt struct {
	Range  SourceRange
	Insert string
}

// Diagnostic is one structured record produced by semantic analysis.
type Diagnostic struct {
	// The stable identifier of the diagnostic, eg. `err-undeclared-ident`.
	ID string

	// The severity after any per-id remapping has been applied.
	Severity Severity

	// The primary location of the diagnostic.
	Loc SourceLoc

	// Additional highlighted source ranges.
	Ranges []SourceRange

	// The rendered message text.
	Message string

	// Attached notes (eg. the instantiation backtrace).  Notes always have
	// severity SevNote.
	Notes []*Diagnostic

	// Suggested edits, if any.
	FixIts []FixIt
}

// Note creates a note diagnostic suitable for attachment.
func Note(loc SourceLoc, id, msg string, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		ID:       id,
		Severity: SevNote,
		Loc:      loc,
		Message:  fmt.Sprintf(msg, args...),
	}
}

// WithNote attaches a note to the diagnostic and returns it for chaining.
func (d *Diagnostic) WithNote(note *Diagnostic) *Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// WithRange attaches a highlighted range to the diagnostic and returns it.
func (d *Diagnostic) WithRange(rng SourceRange) *Diagnostic {
	d.Ranges = append(d.Ranges, rng)
	return d
}

// WithFixIt attaches a suggested edit to the diagnostic and returns it.
func (d *Diagnostic) WithFixIt(rng SourceRange, insert string) *Diagnostic {
	d.FixIts = append(d.FixIts, FixIt{Range: rng, Insert: insert})
	return d
}

package report

import "fmt"

// Enumeration of the engine log levels.
const (
	LogLevelSilent  = iota // Displays no output.
	LogLevelError          // Displays only errors to the user.
	LogLevelWarn           // Displays warnings and errors to the user.
	LogLevelVerbose        // Displays all diagnostics (default).
)

// Engine is the diagnostic sink for one translation unit.  All diagnostics
// produced during semantic analysis funnel through an engine, which applies
// severity remapping, handles SFINAE buffering, records the emitted set, and
// renders output according to its log level.
type Engine struct {
	sm *SourceManager

	// The selected log level.  Must be one of the enumerated log levels.
	logLevel int

	// Per-id severity remapping: "error", "warning", or "ignore".
	remap map[string]string

	// Whether all warnings are promoted to errors.
	warningsAsErrors bool

	// The stack of active SFINAE probes.  While non-empty, diagnostics are
	// captured by the innermost probe instead of being emitted.
	probes []*Probe

	// All diagnostics emitted so far, in order.
	emitted []*Diagnostic

	// The number of emitted error-or-worse diagnostics.
	errorCount int
}

// NewEngine creates a diagnostic engine rendering through the given source
// manager at the given log level.
func NewEngine(sm *SourceManager, logLevel int) *Engine {
	return &Engine{
		sm:       sm,
		logLevel: logLevel,
		remap:    make(map[string]string),
	}
}

// MapSeverity configures a per-id severity remapping.  The disposition must
// be "error", "warning", or "ignore".
func (e *Engine) MapSeverity(id, disposition string) {
	e.remap[id] = disposition
}

// SetWarningsAsErrors configures global promotion of warnings to errors.
func (e *Engine) SetWarningsAsErrors(on bool) {
	e.warningsAsErrors = on
}

// ErrorCount returns the number of error-severity diagnostics emitted.
func (e *Engine) ErrorCount() int {
	return e.errorCount
}

// AnyErrors returns whether any error-severity diagnostic has been emitted.
// The translation unit as a whole is rejected iff this returns true at end of
// analysis.
func (e *Engine) AnyErrors() bool {
	return e.errorCount > 0
}

// Emitted returns all emitted diagnostics in emission order.
func (e *Engine) Emitted() []*Diagnostic {
	return e.emitted
}

// -----------------------------------------------------------------------------

// Report applies severity remapping to the diagnostic and either captures it
// in the active SFINAE probe or emits it.  It returns the diagnostic so
// callers can attach notes before it is displayed (notes attached after
// Report returns are not rendered).
func (e *Engine) Report(d *Diagnostic) *Diagnostic {
	switch e.remap[d.ID] {
	case "error":
		if d.Severity == SevWarning {
			d.Severity = SevError
		}
	case "warning":
		if d.Severity == SevError {
			d.Severity = SevWarning
		}
	case "ignore":
		if d.Severity == SevWarning || d.Severity == SevRemark {
			return d
		}
	default:
		if e.warningsAsErrors && d.Severity == SevWarning {
			d.Severity = SevError
		}
	}

	if len(e.probes) > 0 {
		probe := e.probes[len(e.probes)-1]
		probe.captured = append(probe.captured, d)
		return d
	}

	e.emit(d)
	return d
}

// Error reports an error diagnostic at the given location.
func (e *Engine) Error(loc SourceLoc, id, msg string, args ...interface{}) *Diagnostic {
	return e.Report(&Diagnostic{
		ID:       id,
		Severity: SevError,
		Loc:      loc,
		Message:  fmt.Sprintf(msg, args...),
	})
}

// Warn reports a warning diagnostic at the given location.
func (e *Engine) Warn(loc SourceLoc, id, msg string, args ...interface{}) *Diagnostic {
	return e.Report(&Diagnostic{
		ID:       id,
		Severity: SevWarning,
		Loc:      loc,
		Message:  fmt.Sprintf(msg, args...),
	})
}

// emit records and displays a diagnostic.
func (e *Engine) emit(d *Diagnostic) {
	e.emitted = append(e.emitted, d)

	if d.Severity >= SevError {
		e.errorCount++
	}

	switch d.Severity {
	case SevError, SevFatal:
		if e.logLevel >= LogLevelError {
			e.display(d)
		}
	case SevWarning:
		if e.logLevel >= LogLevelWarn {
			e.display(d)
		}
	default:
		if e.logLevel >= LogLevelVerbose {
			e.display(d)
		}
	}
}

// -----------------------------------------------------------------------------

// Probe is a SFINAE diagnostic filter.  While a probe is active, diagnostics
// are captured instead of emitted; on substitution failure the probe is
// discarded along with its captures, and on success the captures are
// re-played into the engine.
type Probe struct {
	engine   *Engine
	captured []*Diagnostic
}

// PushProbe activates a new SFINAE probe.  Every PushProbe must be paired
// with exactly one Discard or Commit call.
func (e *Engine) PushProbe() *Probe {
	p := &Probe{engine: e}
	e.probes = append(e.probes, p)
	return p
}

// pop removes the probe from the engine's stack.
func (p *Probe) pop() {
	probes := p.engine.probes
	p.engine.probes = probes[:len(probes)-1]
}

// Discard deactivates the probe and throws away everything it captured.  Used
// when the probed substitution failed: the failure is SFINAE, not an error.
func (p *Probe) Discard() {
	p.pop()
	p.captured = nil
}

// Commit deactivates the probe and re-reports everything it captured.  Used
// when the probed substitution succeeded and its diagnostics are real.
func (p *Probe) Commit() {
	p.pop()

	for _, d := range p.captured {
		if len(p.engine.probes) > 0 {
			outer := p.engine.probes[len(p.engine.probes)-1]
			outer.captured = append(outer.captured, d)
		} else {
			p.engine.emit(d)
		}
	}

	p.captured = nil
}

// Captured returns the diagnostics captured so far, most recent last.
func (p *Probe) Captured() []*Diagnostic {
	return p.captured
}

package report

// InstantiationKind discriminates the kinds of template activity recorded on
// the instantiation stack.
type InstantiationKind int

// Enumeration of the different instantiation frame kinds.
const (
	InstTemplate          InstantiationKind = iota // instantiating a class or function template
	InstDefaultArg                                 // instantiating a default argument expression
	InstDeducedReturn                              // deducing a templated return type
	InstMemberFunction                             // instantiating a deferred member function body
	InstPartialOrdering                            // checking partial ordering between templates
	InstExceptionSpec                              // instantiating an exception specification
)

// InstantiationFrame is one template activation recorded for diagnostic
// backtraces and recursion bounding.
type InstantiationFrame struct {
	Kind InstantiationKind

	// A rendered description of the entity being instantiated, eg. `V<int>`.
	Entity string

	// The point of instantiation.
	POI SourceLoc

	// The source range of the entity's pattern.
	Range SourceRange
}

// InstantiationStack is the stack of template activations for one translation
// unit.  It is single-threaded: each translation unit instance owns its own
// stack.  Frames are pushed and popped under scoped guards so every exit path
// unwinds correctly.
type InstantiationStack struct {
	frames []InstantiationFrame

	// The maximum permitted depth before instantiation is cut off.
	maxDepth int

	// The number of innermost frames rendered in a backtrace before the
	// remainder is elided.
	noteWindow int
}

// defaultNoteWindow is how many innermost frames a backtrace renders before
// eliding the middle.
const defaultNoteWindow = 10

// NewInstantiationStack creates an instantiation stack with the given depth
// budget.
func NewInstantiationStack(maxDepth int) *InstantiationStack {
	if maxDepth <= 0 {
		maxDepth = 512
	}

	return &InstantiationStack{maxDepth: maxDepth, noteWindow: defaultNoteWindow}
}

// Depth returns the current instantiation depth.
func (is *InstantiationStack) Depth() int {
	return len(is.frames)
}

// Push records a new activation.  It returns false if the depth budget is
// exhausted, in which case no frame is pushed and the caller must fail the
// instantiation.
func (is *InstantiationStack) Push(frame InstantiationFrame) bool {
	if len(is.frames) >= is.maxDepth {
		return false
	}

	is.frames = append(is.frames, frame)
	return true
}

// Pop removes the innermost activation.
func (is *InstantiationStack) Pop() {
	is.frames = is.frames[:len(is.frames)-1]
}

// Frames returns the active frames, outermost first.
func (is *InstantiationStack) Frames() []InstantiationFrame {
	return is.frames
}

// AttachNotes renders the instantiation backtrace onto the given diagnostic
// as a sequence of notes, innermost activation first.  If the stack is deeper
// than the note window, the middle of the trace is elided with a note saying
// how many frames were skipped.
func (is *InstantiationStack) AttachNotes(d *Diagnostic) *Diagnostic {
	n := len(is.frames)
	if n == 0 {
		return d
	}

	skipFrom, skipped := n, 0
	if n > is.noteWindow {
		// Keep the innermost window and the entry-point frame.
		skipFrom = n - is.noteWindow
		skipped = skipFrom - 1
	}

	for i := n - 1; i >= 0; i-- {
		if skipped > 0 && i < skipFrom && i > 0 {
			continue
		}

		frame := is.frames[i]
		if skipped > 0 && i == 0 {
			d.WithNote(Note(frame.POI, "note-inst-elided",
				"(skipping %d contexts in backtrace; use -ftemplate-backtrace-limit=0 to see all)", skipped))
		}

		d.WithNote(Note(frame.POI, "note-in-instantiation",
			"in instantiation of %s requested here", frame.Entity).WithRange(frame.Range))
	}

	return d
}

// Snapshot returns a copy of the active frames, outermost first.  Errors that
// outlive their activations carry a snapshot so the backtrace can still be
// rendered after the stack unwinds.
func (is *InstantiationStack) Snapshot() []InstantiationFrame {
	snap := make([]InstantiationFrame, len(is.frames))
	copy(snap, is.frames)
	return snap
}

// AttachBacktrace renders a snapshotted backtrace onto the given diagnostic,
// using the same innermost-first ordering and elision window as a live stack.
func AttachBacktrace(d *Diagnostic, frames []InstantiationFrame) *Diagnostic {
	snap := InstantiationStack{frames: frames, maxDepth: len(frames), noteWindow: defaultNoteWindow}
	return snap.AttachNotes(d)
}

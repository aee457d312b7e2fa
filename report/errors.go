package report

import (
	"fmt"
	"os"
)

// SemaError is a semantic error raised from deep inside an act in a context
// where normal recovery is not possible.  It is thrown with panic and caught
// at the act boundary, where it is reported and converted into an invalid
// result.
type SemaError struct {
	// The stable diagnostic id.
	ID string

	// The error message.
	Message string

	// The primary location of the error.
	Loc SourceLoc

	// Additional highlighted ranges.
	Ranges []SourceRange
}

func (se *SemaError) Error() string {
	return se.Message
}

// Raise creates a new sema error for throwing with panic.
func Raise(loc SourceLoc, id, msg string, args ...interface{}) *SemaError {
	return &SemaError{ID: id, Message: fmt.Sprintf(msg, args...), Loc: loc}
}

// CatchErrors catches any sema errors thrown by a panic during an act and
// reports them through the given engine.  Non-sema panics represent internal
// inconsistencies and are re-raised as ICEs.
// NB: This function must ALWAYS be deferred.
func CatchErrors(e *Engine) {
	if x := recover(); x != nil {
		if serr, ok := x.(*SemaError); ok {
			d := e.Error(serr.Loc, serr.ID, "%s", serr.Message)
			d.Ranges = append(d.Ranges, serr.Ranges...)
		} else {
			ReportICE("%v", x)
		}
	}
}

// ReportICE reports an internal compiler error.  These result from a bug or
// unexpected condition inside the frontend itself: they are not program
// defects and are never recoverable.
func ReportICE(message string, args ...interface{}) {
	displayICE(fmt.Sprintf(message, args...))
	os.Exit(-1)
}

// ReportFatal reports a fatal configuration error: missing option files,
// unreadable targets, and the like.  All analysis stops immediately.
func ReportFatal(message string, args ...interface{}) {
	displayFatal(fmt.Sprintf(message, args...))
	os.Exit(1)
}

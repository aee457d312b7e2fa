package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceManagerDecode(t *testing.T) {
	sm := NewSourceManager()
	base := sm.AddFile("main.cc", "int x;\nint y;\n", 0)

	pos := sm.Decode(base)
	assert.Equal(t, "main.cc", pos.File)
	assert.Equal(t, 1, pos.Line)
	assert.Equal(t, 1, pos.Col)

	// "y" on line two.
	pos = sm.Decode(sm.LocAt(base, 11))
	assert.Equal(t, 2, pos.Line)
	assert.Equal(t, 5, pos.Col)

	assert.Equal(t, "int y;", sm.SourceLine(sm.LocAt(base, 11)))
}

func TestSourceManagerExpansionTrail(t *testing.T) {
	sm := NewSourceManager()
	base := sm.AddFile("main.cc", "USE(1)\n", 0)
	exp := sm.AddFile("<expansion>", "use_impl(1)", sm.LocAt(base, 0))

	trail := sm.ExpansionTrail(sm.LocAt(exp, 0))
	require.Len(t, trail, 2)
	assert.Equal(t, "<expansion>", trail[0].File)
	assert.Equal(t, "main.cc", trail[1].File)
}

func TestEngineCountsAndOrder(t *testing.T) {
	sm := NewSourceManager()
	e := NewEngine(sm, LogLevelSilent)

	e.Error(0, "err-a", "first")
	e.Warn(0, "warn-b", "second")
	e.Error(0, "err-c", "third")

	assert.Equal(t, 2, e.ErrorCount())
	assert.True(t, e.AnyErrors())

	emitted := e.Emitted()
	require.Len(t, emitted, 3)
	assert.Equal(t, "err-a", emitted[0].ID)
	assert.Equal(t, "warn-b", emitted[1].ID)
	assert.Equal(t, "err-c", emitted[2].ID)
}

func TestSeverityRemapping(t *testing.T) {
	e := NewEngine(NewSourceManager(), LogLevelSilent)
	e.MapSeverity("warn-x", "error")
	e.MapSeverity("warn-y", "ignore")

	e.Warn(0, "warn-x", "promoted")
	assert.Equal(t, 1, e.ErrorCount())

	e.Warn(0, "warn-y", "dropped")
	assert.Len(t, e.Emitted(), 1)
}

func TestWarningsAsErrors(t *testing.T) {
	e := NewEngine(NewSourceManager(), LogLevelSilent)
	e.SetWarningsAsErrors(true)

	e.Warn(0, "warn-x", "now an error")
	assert.Equal(t, 1, e.ErrorCount())
}

func TestProbeDiscard(t *testing.T) {
	e := NewEngine(NewSourceManager(), LogLevelSilent)

	p := e.PushProbe()
	e.Error(0, "err-sfinae", "inside probe")
	require.Len(t, p.Captured(), 1)

	p.Discard()
	assert.Zero(t, e.ErrorCount())
	assert.Empty(t, e.Emitted())
}

func TestProbeCommit(t *testing.T) {
	e := NewEngine(NewSourceManager(), LogLevelSilent)

	p := e.PushProbe()
	e.Error(0, "err-real", "inside probe")
	p.Commit()

	assert.Equal(t, 1, e.ErrorCount())
	require.Len(t, e.Emitted(), 1)
	assert.Equal(t, "err-real", e.Emitted()[0].ID)
}

func TestNestedProbes(t *testing.T) {
	e := NewEngine(NewSourceManager(), LogLevelSilent)

	outer := e.PushProbe()
	inner := e.PushProbe()
	e.Error(0, "err-inner", "deep")

	// Committing the inner probe hands its captures to the outer one.
	inner.Commit()
	assert.Empty(t, e.Emitted())
	require.Len(t, outer.Captured(), 1)

	outer.Discard()
	assert.Empty(t, e.Emitted())
}

func TestInstantiationStackBacktrace(t *testing.T) {
	e := NewEngine(NewSourceManager(), LogLevelSilent)
	stack := NewInstantiationStack(4)

	require.True(t, stack.Push(InstantiationFrame{Kind: InstTemplate, Entity: "V<int>"}))
	require.True(t, stack.Push(InstantiationFrame{Kind: InstMemberFunction, Entity: "V<int>::f"}))

	d := e.Error(0, "err-inst", "failure")
	stack.AttachNotes(d)

	require.GreaterOrEqual(t, len(d.Notes), 2)
	// Innermost frame first.
	assert.Contains(t, d.Notes[0].Message, "V<int>::f")
	assert.Contains(t, d.Notes[1].Message, "V<int>")

	stack.Pop()
	stack.Pop()
	assert.Equal(t, 0, stack.Depth())
}

func TestInstantiationStackDepthLimit(t *testing.T) {
	stack := NewInstantiationStack(2)

	assert.True(t, stack.Push(InstantiationFrame{Entity: "a"}))
	assert.True(t, stack.Push(InstantiationFrame{Entity: "b"}))
	assert.False(t, stack.Push(InstantiationFrame{Entity: "c"}), "push beyond the depth limit must fail")
}

package sema

import (
	"testing"

	"cfront/ast"
	"cfront/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactMatchBeatsConversion(t *testing.T) {
	f := newFixture(t)

	fInt := f.declareFn("f", f.voidTy(), f.intTy())
	fDbl := f.declareFn("f", f.voidTy(), f.dblTy())

	ce := requireCall(t, f.callNamed("f", f.lit(1)))
	assert.Same(t, fInt, ce.Fn, "an int argument must pick the int overload")

	ce = requireCall(t, f.callNamed("f", f.s.ActOnFloatingLiteral(1.5, span0())))
	assert.Same(t, fDbl, ce.Fn, "a double argument must pick the double overload")

	assert.Zero(t, f.eng.ErrorCount())
}

func TestSingleViableCandidateSelected(t *testing.T) {
	f := newFixture(t)

	fn := f.declareFn("widen", f.voidTy(), f.tctx.GetBuiltin(types.Long))

	// The only candidate needs an integral conversion, but a lone viable
	// candidate is always selected.
	ce := requireCall(t, f.callNamed("widen", f.lit(1)))
	assert.Same(t, fn, ce.Fn)
	assert.Zero(t, f.eng.ErrorCount())
}

func TestAmbiguousCallDiagnosed(t *testing.T) {
	f := newFixture(t)

	// int converts to long and to float with equal rank.
	f.declareFn("m", f.voidTy(), f.tctx.GetBuiltin(types.Long))
	f.declareFn("m", f.voidTy(), f.tctx.GetBuiltin(types.Float))

	e := f.callNamed("m", f.lit(1))
	assert.True(t, e.Invalid())

	d := f.lastDiagnostic("err-ambiguous-call")
	require.NotNil(t, d)
	assert.GreaterOrEqual(t, len(d.Notes), 2, "both candidates must be noted")
}

func TestArityMismatchNotViable(t *testing.T) {
	f := newFixture(t)
	f.declareFn("f", f.voidTy(), f.intTy())

	e := f.callNamed("f")
	assert.True(t, e.Invalid())

	d := f.lastDiagnostic("err-no-viable-call")
	require.NotNil(t, d)
	require.Len(t, d.Notes, 1)
	assert.Equal(t, "note-cand-arity", d.Notes[0].ID)
}

func TestDeletedOverloadDiagnosed(t *testing.T) {
	f := newFixture(t)

	del := f.declareFn("take", f.voidTy(), f.intTy())
	del.Deleted = true
	f.declareFn("take", f.voidTy(), f.dblTy())

	// The deleted function is the best match and selecting it is an error.
	e := f.callNamed("take", f.lit(1))
	assert.True(t, e.Invalid())
	assert.NotNil(t, f.lastDiagnostic("err-deleted-call"))
}

func TestNonTemplatePreferredOverTemplate(t *testing.T) {
	f := newFixture(t)

	ftd := f.declareFuncTemplate("g")
	plain := f.declareFn("g", f.voidTy(), f.intTy())

	ce := requireCall(t, f.callNamed("g", f.lit(1)))
	assert.Same(t, plain, ce.Fn, "a non-template tie-breaks against a template specialization")
	assert.Nil(t, ce.Fn.InstantiatedFrom)

	// With no exact non-template match the template still wins viability.
	ce = requireCall(t, f.callNamed("g", f.s.ActOnFloatingLiteral(2.5, span0())))
	assert.Same(t, ast.Decl(ftd.Canonical()), ce.Fn.InstantiatedFrom)
	assert.Zero(t, f.eng.ErrorCount())
}

func TestConvertingConstructorMakesCallViable(t *testing.T) {
	f := newFixture(t)

	rd := f.s.ActOnTagDecl(ast.Ident("A"), ast.TagStruct, 0)
	f.s.ActOnStartClass(rd)
	ctorTy := f.tctx.GetFunction(f.voidTy(), []types.Type{f.intTy()}, types.FunctionInfo{})
	ctorParams := []*ast.ParamDecl{ast.NewParamDecl(ast.Ident("v"), 0, f.intTy(), 0)}
	f.s.ActOnMethod(rd, ast.ConstructorName(), 0, ctorTy, ctorParams, 0, false, false)
	f.s.ActOnFinishClass(rd)

	h := f.declareFn("h", f.voidTy(), f.tctx.GetRecord(rd))

	// h(1) is viable through the user-defined conversion A(int).
	ce := requireCall(t, f.callNamed("h", f.lit(1)))
	assert.Same(t, h, ce.Fn)
	assert.Zero(t, f.eng.ErrorCount())
}

func TestExplicitConstructorNotUsedImplicitly(t *testing.T) {
	f := newFixture(t)

	rd := f.s.ActOnTagDecl(ast.Ident("A"), ast.TagStruct, 0)
	f.s.ActOnStartClass(rd)
	ctorTy := f.tctx.GetFunction(f.voidTy(), []types.Type{f.intTy()}, types.FunctionInfo{})
	ctorParams := []*ast.ParamDecl{ast.NewParamDecl(ast.Ident("v"), 0, f.intTy(), 0)}
	ctor := f.s.ActOnMethod(rd, ast.ConstructorName(), 0, ctorTy, ctorParams, 0, false, false)
	ctor.Explicit = true
	f.s.ActOnFinishClass(rd)

	f.declareFn("h", f.voidTy(), f.tctx.GetRecord(rd))

	e := f.callNamed("h", f.lit(1))
	assert.True(t, e.Invalid())
	assert.NotNil(t, f.lastDiagnostic("err-no-viable-call"))
}

func TestArgumentDependentCall(t *testing.T) {
	f := newFixture(t)

	f.s.ActOnNamespace(ast.Ident("N"), 0, false)
	srec := f.s.ActOnTagDecl(ast.Ident("S"), ast.TagStruct, 0)
	f.s.ActOnStartClass(srec)
	f.s.ActOnFinishClass(srec)
	sTy := f.tctx.GetRecord(srec)
	k := f.declareFn("k", f.voidTy(), sTy)
	f.s.PopScope()

	f.s.ActOnVariableDecl(ast.Ident("sv"), 0, sTy, ast.SCNone, false)
	arg := f.s.ActOnIdExpr(ast.Ident("sv"), span0())

	// Unqualified lookup from the translation unit cannot see N::k; the
	// argument's namespace supplies it.
	ce := requireCall(t, f.callNamed("k", arg))
	assert.Same(t, k, ce.Fn)
	assert.Zero(t, f.eng.ErrorCount())
}

func TestUndeclaredIdentifier(t *testing.T) {
	f := newFixture(t)

	e := f.s.ActOnIdExpr(ast.Ident("missing"), span0())
	assert.True(t, e.Invalid())
	assert.NotNil(t, f.lastDiagnostic("err-undeclared"))
}

func TestNarrowingWarnsInCopyInitialization(t *testing.T) {
	f := newFixture(t)

	vd := f.s.ActOnVariableDecl(ast.Ident("n"), 0, f.intTy(), ast.SCNone, false)
	f.s.ActOnVariableInit(vd, f.s.ActOnFloatingLiteral(2.5, span0()))
	f.s.ActOnFinishVariable(vd)

	assert.NotNil(t, f.lastDiagnostic("warn-narrowing"))
	assert.Zero(t, f.eng.ErrorCount(), "outside braces narrowing is only a warning")
}

func TestNarrowingErrorInBracedInitialization(t *testing.T) {
	f := newFixture(t)

	list := ast.NewInitListExpr([]ast.Expr{f.s.ActOnFloatingLiteral(2.5, span0())}, f.intTy(), span0())
	vd := f.s.ActOnVariableDecl(ast.Ident("n"), 0, f.intTy(), ast.SCNone, false)
	f.s.ActOnVariableInit(vd, list)

	assert.NotNil(t, f.lastDiagnostic("err-narrowing"))
	assert.True(t, vd.Invalid())
}

func TestWideningBracedInitializationAccepted(t *testing.T) {
	f := newFixture(t)

	list := ast.NewInitListExpr([]ast.Expr{f.lit(3)}, f.dblTy(), span0())
	vd := f.s.ActOnVariableDecl(ast.Ident("d"), 0, f.dblTy(), ast.SCNone, false)
	f.s.ActOnVariableInit(vd, list)
	f.s.ActOnFinishVariable(vd)

	assert.Zero(t, f.eng.ErrorCount())
}

package sema

import (
	"strings"
	"testing"

	"cfront/ast"
	"cfront/report"
	"cfront/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// declareFuncTemplate declares `template<class T> void name(T x);` in the
// current scope and returns the template.
func (f *fixture) declareFuncTemplate(name string) *ast.FunctionTemplateDecl {
	f.s.ActOnStartTemplateParams(0)
	tp := f.s.ActOnTemplateTypeParam(ast.Ident("T"), 0, 0, false, nil)

	ty := f.tctx.GetFunction(f.voidTy(), []types.Type{tp.Ty}, types.FunctionInfo{})
	params := []*ast.ParamDecl{ast.NewParamDecl(ast.Ident("x"), 0, tp.Ty, 0)}
	fd := f.s.ActOnFunctionDecl(ast.Ident(name), 0, ty, params)

	ftd := f.s.ActOnFunctionTemplate(ast.Ident(name), 0, []ast.Decl{tp}, fd)
	f.s.ActOnFinishTemplateParams()
	return ftd
}

// declareClassTemplate declares `template<class T> struct name { ... };`,
// letting the callback populate the member list from the open definition.
func (f *fixture) declareClassTemplate(name string, members func(tp *ast.TemplateTypeParamDecl, rd *ast.RecordDecl)) *ast.ClassTemplateDecl {
	f.s.ActOnStartTemplateParams(0)
	tp := f.s.ActOnTemplateTypeParam(ast.Ident("T"), 0, 0, false, nil)

	rd := f.s.ActOnTagDecl(ast.Ident(name), ast.TagStruct, 0)
	f.s.ActOnStartClass(rd)
	if members != nil {
		members(tp, rd)
	}
	f.s.ActOnFinishClass(rd)

	ctd := f.s.ActOnClassTemplate(ast.Ident(name), 0, []ast.Decl{tp}, rd)
	f.s.ActOnFinishTemplateParams()
	return ctd
}

func specRecord(t *testing.T, ty types.Type) *ast.RecordDecl {
	t.Helper()
	rt := types.AsRecord(ty.Canonical())
	require.NotNil(t, rt, "expected a record specialization, got %s", ty.Repr())
	rd, ok := rt.Decl.CanonicalTag().(*ast.RecordDecl)
	require.True(t, ok)
	return rd
}

func TestFunctionTemplateDeduction(t *testing.T) {
	f := newFixture(t)
	ftd := f.declareFuncTemplate("g")

	ce := requireCall(t, f.callNamed("g", f.lit(1)))
	require.NotNil(t, ce.Fn)
	assert.Same(t, ast.Decl(ftd.Canonical()), ce.Fn.InstantiatedFrom)
	require.Len(t, ce.Fn.TemplateArgs, 1)
	assert.True(t, types.Same(ce.Fn.TemplateArgs[0].Type, f.intTy()))

	// The same argument list memoizes to the same specialization.
	ce2 := requireCall(t, f.callNamed("g", f.lit(7)))
	assert.Same(t, ce.Fn, ce2.Fn)
	assert.Zero(t, f.eng.ErrorCount())
}

func TestDeductionDecaysArrayArgument(t *testing.T) {
	f := newFixture(t)
	f.declareFuncTemplate("g")

	arrTy := f.tctx.GetConstantArray(f.intTy(), 4)
	f.s.ActOnVariableDecl(ast.Ident("buf"), 0, arrTy, ast.SCNone, false)
	arg := f.s.ActOnIdExpr(ast.Ident("buf"), span0())

	ce := requireCall(t, f.callNamed("g", arg))
	require.NotNil(t, ce.Fn)
	require.Len(t, ce.Fn.TemplateArgs, 1)
	assert.True(t, types.Same(ce.Fn.TemplateArgs[0].Type, f.tctx.GetPointer(f.intTy())),
		"deduction binds T to the decayed argument type")
}

func TestExplicitFunctionSpecializationSelected(t *testing.T) {
	f := newFixture(t)
	ftd := f.declareFuncTemplate("g")

	specTy := f.tctx.GetFunction(f.voidTy(), []types.Type{f.intTy()}, types.FunctionInfo{})
	spec := ast.NewFunctionDecl(ast.Ident("g"), 0, specTy, f.s.TU.AsDeclContext())
	spec.Params = []*ast.ParamDecl{ast.NewParamDecl(ast.Ident("x"), 0, f.intTy(), 0)}
	f.s.ActOnExplicitFunctionSpecialization(ftd, []types.TemplateArg{types.TypeArg(f.intTy())}, spec, 0)

	// g(1) deduces T=int and lands on the user-written specialization.
	ce := requireCall(t, f.callNamed("g", f.lit(1)))
	assert.Same(t, spec, ce.Fn)
	assert.True(t, ce.Fn.ExplicitSpec)

	// g(1.0) deduces T=double and instantiates the primary.
	ce2 := requireCall(t, f.callNamed("g", f.s.ActOnFloatingLiteral(1.0, span0())))
	require.NotNil(t, ce2.Fn)
	assert.NotSame(t, spec, ce2.Fn)
	assert.Same(t, ast.Decl(ftd.Canonical()), ce2.Fn.InstantiatedFrom)
	require.Len(t, ce2.Fn.TemplateArgs, 1)
	assert.True(t, types.Same(ce2.Fn.TemplateArgs[0].Type, f.dblTy()))

	assert.Zero(t, f.eng.ErrorCount())
}

func TestClassTemplateInstantiation(t *testing.T) {
	f := newFixture(t)
	ctd := f.declareClassTemplate("Box", func(tp *ast.TemplateTypeParamDecl, rd *ast.RecordDecl) {
		f.s.ActOnField(rd, ast.Ident("value"), 0, tp.Ty, false)
	})

	ty := f.s.ActOnTemplateId(ctd, []types.TemplateArg{types.TypeArg(f.intTy())}, 0)
	spec := specRecord(t, ty)
	assert.Equal(t, ast.ClassComplete, spec.State)

	flds := spec.AsDeclContext().Lookup(ast.Ident("value"))
	require.Len(t, flds, 1)
	assert.True(t, types.Same(flds[0].(*ast.FieldDecl).Type, f.intTy()),
		"the member type is substituted with the argument")

	// Box<int> names the same specialization on every use.
	ty2 := f.s.ActOnTemplateId(ctd, []types.TemplateArg{types.TypeArg(f.intTy())}, 0)
	assert.Same(t, spec, specRecord(t, ty2))

	// Box<double> is a distinct specialization.
	ty3 := f.s.ActOnTemplateId(ctd, []types.TemplateArg{types.TypeArg(f.dblTy())}, 0)
	assert.NotSame(t, spec, specRecord(t, ty3))

	assert.Zero(t, f.eng.ErrorCount())
}

func TestPartialSpecializationSelected(t *testing.T) {
	f := newFixture(t)
	ctd := f.declareClassTemplate("V", func(tp *ast.TemplateTypeParamDecl, rd *ast.RecordDecl) {
		f.s.ActOnField(rd, ast.Ident("primary"), 0, tp.Ty, false)
	})

	// Partial specialization `template<class T> struct V<T*>`.
	f.s.ActOnStartTemplateParams(0)
	tp := f.s.ActOnTemplateTypeParam(ast.Ident("T"), 0, 0, false, nil)
	prd := f.s.ActOnTagDecl(ast.Ident("V"), ast.TagStruct, 0)
	f.s.ActOnStartClass(prd)
	f.s.ActOnField(prd, ast.Ident("pointee"), 0, tp.Ty, false)
	f.s.ActOnFinishClass(prd)
	psd := f.s.ActOnPartialSpecialization(ctd, []ast.Decl{tp},
		[]types.TemplateArg{types.TypeArg(f.tctx.GetPointer(tp.Ty))}, prd, 0)
	f.s.ActOnFinishTemplateParams()

	// V<int*> matches the partial specialization with T=int.
	ty := f.s.ActOnTemplateId(ctd,
		[]types.TemplateArg{types.TypeArg(f.tctx.GetPointer(f.intTy()))}, 0)
	spec := specRecord(t, ty)
	assert.Same(t, ast.Decl(psd), spec.InstantiatedFrom)

	flds := spec.AsDeclContext().Lookup(ast.Ident("pointee"))
	require.Len(t, flds, 1)
	assert.True(t, types.Same(flds[0].(*ast.FieldDecl).Type, f.intTy()))

	// V<int> still uses the primary.
	ty2 := f.s.ActOnTemplateId(ctd, []types.TemplateArg{types.TypeArg(f.intTy())}, 0)
	prim := specRecord(t, ty2)
	require.Len(t, prim.AsDeclContext().Lookup(ast.Ident("primary")), 1)

	assert.Zero(t, f.eng.ErrorCount())
}

func TestExplicitClassSpecializationWins(t *testing.T) {
	f := newFixture(t)
	ctd := f.declareClassTemplate("V", func(tp *ast.TemplateTypeParamDecl, rd *ast.RecordDecl) {
		f.s.ActOnField(rd, ast.Ident("primary"), 0, tp.Ty, false)
	})

	srd := f.s.ActOnTagDecl(ast.Ident("V"), ast.TagStruct, 0)
	f.s.ActOnStartClass(srd)
	f.s.ActOnField(srd, ast.Ident("special"), 0, f.intTy(), false)
	f.s.ActOnFinishClass(srd)
	f.s.ActOnExplicitSpecialization(ctd, []types.TemplateArg{types.TypeArg(f.intTy())}, srd, 0)

	ty := f.s.ActOnTemplateId(ctd, []types.TemplateArg{types.TypeArg(f.intTy())}, 0)
	assert.Same(t, srd, specRecord(t, ty))
	assert.Zero(t, f.eng.ErrorCount())
}

func TestDependentMemberTypeFailsAtInstantiation(t *testing.T) {
	f := newFixture(t)

	// template<class T> struct V { using U = typename T::type; };
	ctd := f.declareClassTemplate("V", func(tp *ast.TemplateTypeParamDecl, rd *ast.RecordDecl) {
		u := f.s.ActOnTypenameType(tp.Ty, "type", 0)
		f.s.ActOnTypedef(ast.Ident("U"), 0, u)
	})

	// V<int> is a hard error: int has no member type `type`.
	ty := f.s.ActOnTemplateId(ctd, []types.TemplateArg{types.TypeArg(f.intTy())}, 0)
	assert.True(t, types.Same(ty, f.tctx.ErrorType()))

	d := f.lastDiagnostic("err-instantiation")
	require.NotNil(t, d)

	var backtraced bool
	for _, n := range d.Notes {
		if n.ID == "note-in-instantiation" && strings.Contains(n.Message, "V<int>") {
			backtraced = true
		}
	}
	assert.True(t, backtraced, "the backtrace note must name V<int>")
}

func TestDependentTemplateIdStaysUnresolved(t *testing.T) {
	f := newFixture(t)
	ctd := f.declareClassTemplate("Box", nil)

	// Inside another template, Box<T> must not instantiate.
	f.s.ActOnStartTemplateParams(0)
	tp := f.s.ActOnTemplateTypeParam(ast.Ident("T"), 0, 0, false, nil)
	ty := f.s.ActOnTemplateId(ctd, []types.TemplateArg{types.TypeArg(tp.Ty)}, 0)
	assert.True(t, ty.Dependence().IsDependent())
	f.s.ActOnFinishTemplateParams()

	assert.Zero(t, f.eng.ErrorCount())
}

func TestTemplateArgumentCountChecked(t *testing.T) {
	f := newFixture(t)
	ctd := f.declareClassTemplate("Box", nil)

	ty := f.s.ActOnTemplateId(ctd,
		[]types.TemplateArg{types.TypeArg(f.intTy()), types.TypeArg(f.dblTy())}, 0)
	assert.True(t, types.Same(ty, f.tctx.ErrorType()))
	assert.True(t, f.eng.AnyErrors())
}

func TestInstantiationBacktraceUsesEngineNotes(t *testing.T) {
	// The analyzer's stack and the report package agree on note ids, so
	// downstream tooling can match on them.
	f := newFixture(t)
	ctd := f.declareClassTemplate("W", func(tp *ast.TemplateTypeParamDecl, rd *ast.RecordDecl) {
		u := f.s.ActOnTypenameType(tp.Ty, "missing", 0)
		f.s.ActOnTypedef(ast.Ident("U"), 0, u)
	})

	f.s.ActOnTemplateId(ctd, []types.TemplateArg{types.TypeArg(f.dblTy())}, report.SourceLoc(0))

	d := f.lastDiagnostic("err-instantiation")
	require.NotNil(t, d)
	require.NotEmpty(t, d.Notes)
	assert.Equal(t, "note-in-instantiation", d.Notes[0].ID)
}

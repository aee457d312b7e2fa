package template

import (
	"testing"

	"cfront/ast"
	"cfront/common"
	"cfront/report"
	"cfront/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInstantiator() (*Instantiator, *types.Context) {
	opts := common.DefaultLangOpts()
	tctx := types.NewContext(common.DefaultTarget(), opts)
	eng := report.NewEngine(report.NewSourceManager(), report.LogLevelSilent)
	return NewInstantiator(tctx, eng, report.NewInstantiationStack(opts.InstantiationDepth)), tctx
}

// makeTemplate builds `template<class T> void name(paramOf(T));` with the
// pattern living in the given context.
func makeTemplate(tctx *types.Context, tu *ast.TranslationUnit, name string, paramOf func(tp types.Type) types.Type) *ast.FunctionTemplateDecl {
	tpTy := tctx.GetTemplateParam(0, 0, "T", false)
	tpd := ast.NewTemplateTypeParamDecl(ast.Ident("T"), 0, tpTy, 0, 0, false)

	pTy := paramOf(tpTy)
	fnTy := tctx.GetFunction(tctx.GetBuiltin(types.Void), []types.Type{pTy}, types.FunctionInfo{})
	fd := ast.NewFunctionDecl(ast.Ident(name), 0, fnTy, tu.AsDeclContext())
	fd.Params = []*ast.ParamDecl{ast.NewParamDecl(ast.Ident("x"), 0, pTy, 0)}

	return ast.NewFunctionTemplateDecl(ast.Ident(name), 0, []ast.Decl{tpd}, fd)
}

func identity(tp types.Type) types.Type { return tp }

func intArg(tctx *types.Context) ast.Expr {
	return ast.NewIntegerLiteral(1, tctx.IntType(), report.SourceRange{})
}

func TestDeduceIdentity(t *testing.T) {
	it, tctx := newTestInstantiator()
	tu := ast.NewTranslationUnit()
	ftd := makeTemplate(tctx, tu, "g", identity)

	spec, targs, err := it.DeduceForCall(ftd, nil, []ast.Expr{intArg(tctx)})
	require.NoError(t, err)
	require.Len(t, targs, 1)
	assert.True(t, types.Same(targs[0].Type, tctx.IntType()))

	require.Len(t, spec.Params, 1)
	assert.True(t, types.Same(spec.Params[0].Type, tctx.IntType()))
	assert.Same(t, ast.Decl(ftd.Canonical()), spec.InstantiatedFrom)
}

func TestDeduceDecaysArray(t *testing.T) {
	it, tctx := newTestInstantiator()
	tu := ast.NewTranslationUnit()
	ftd := makeTemplate(tctx, tu, "g", identity)

	arrTy := tctx.GetConstantArray(tctx.IntType(), 8)
	vd := ast.NewVarDecl(ast.Ident("buf"), 0, arrTy, ast.SCNone)
	arg := ast.NewDeclRefExpr(vd, arrTy, ast.LValue, report.SourceRange{})

	_, targs, err := it.DeduceForCall(ftd, nil, []ast.Expr{arg})
	require.NoError(t, err)
	assert.True(t, types.Same(targs[0].Type, tctx.GetPointer(tctx.IntType())),
		"a by-value parameter sees the decayed argument")
}

func TestDeduceReferenceKeepsArray(t *testing.T) {
	it, tctx := newTestInstantiator()
	tu := ast.NewTranslationUnit()
	ftd := makeTemplate(tctx, tu, "g", func(tp types.Type) types.Type {
		return tctx.GetLValueRef(tp)
	})

	arrTy := tctx.GetConstantArray(tctx.IntType(), 8)
	vd := ast.NewVarDecl(ast.Ident("buf"), 0, arrTy, ast.SCNone)
	arg := ast.NewDeclRefExpr(vd, arrTy, ast.LValue, report.SourceRange{})

	_, targs, err := it.DeduceForCall(ftd, nil, []ast.Expr{arg})
	require.NoError(t, err)
	assert.NotNil(t, types.AsArray(targs[0].Type.Canonical()),
		"a reference parameter suppresses decay")
}

func TestDeduceReferenceKeepsQualifiers(t *testing.T) {
	it, tctx := newTestInstantiator()
	tu := ast.NewTranslationUnit()
	ftd := makeTemplate(tctx, tu, "g", func(tp types.Type) types.Type {
		return tctx.GetLValueRef(tp)
	})

	constInt := tctx.AddQualifiers(tctx.IntType(), types.QualConst)
	vd := ast.NewVarDecl(ast.Ident("c"), 0, constInt, ast.SCNone)
	arg := ast.NewDeclRefExpr(vd, constInt, ast.LValue, report.SourceRange{})

	spec, targs, err := it.DeduceForCall(ftd, nil, []ast.Expr{arg})
	require.NoError(t, err)
	assert.True(t, types.Same(targs[0].Type, constInt),
		"a reference parameter deduces from the argument as written, const included")

	ref := types.AsReference(spec.Params[0].Type.Canonical())
	require.NotNil(t, ref)
	q, _ := types.QualsOf(ref.Pointee)
	assert.True(t, q.HasConst())
}

func TestDeduceThroughPointer(t *testing.T) {
	it, tctx := newTestInstantiator()
	tu := ast.NewTranslationUnit()
	ftd := makeTemplate(tctx, tu, "g", func(tp types.Type) types.Type {
		return tctx.GetPointer(tp)
	})

	ptrTy := tctx.GetPointer(tctx.GetBuiltin(types.Double))
	vd := ast.NewVarDecl(ast.Ident("p"), 0, ptrTy, ast.SCNone)
	arg := ast.NewDeclRefExpr(vd, ptrTy, ast.LValue, report.SourceRange{})

	_, targs, err := it.DeduceForCall(ftd, nil, []ast.Expr{arg})
	require.NoError(t, err)
	assert.True(t, types.Same(targs[0].Type, tctx.GetBuiltin(types.Double)))
}

func TestDeduceConflictFails(t *testing.T) {
	it, tctx := newTestInstantiator()
	tu := ast.NewTranslationUnit()

	// template<class T> void g(T, T);
	tpTy := tctx.GetTemplateParam(0, 0, "T", false)
	tpd := ast.NewTemplateTypeParamDecl(ast.Ident("T"), 0, tpTy, 0, 0, false)
	fnTy := tctx.GetFunction(tctx.GetBuiltin(types.Void), []types.Type{tpTy, tpTy}, types.FunctionInfo{})
	fd := ast.NewFunctionDecl(ast.Ident("g"), 0, fnTy, tu.AsDeclContext())
	fd.Params = []*ast.ParamDecl{
		ast.NewParamDecl(ast.Ident("a"), 0, tpTy, 0),
		ast.NewParamDecl(ast.Ident("b"), 0, tpTy, 1),
	}
	ftd := ast.NewFunctionTemplateDecl(ast.Ident("g"), 0, []ast.Decl{tpd}, fd)

	dbl := ast.NewFloatingLiteral(1.0, tctx.GetBuiltin(types.Double), report.SourceRange{})
	_, _, err := it.DeduceForCall(ftd, nil, []ast.Expr{intArg(tctx), dbl})
	assert.Error(t, err, "T cannot bind to both int and double")
}

func TestExplicitArgumentsPreempt(t *testing.T) {
	it, tctx := newTestInstantiator()
	tu := ast.NewTranslationUnit()
	ftd := makeTemplate(tctx, tu, "g", identity)

	longTy := tctx.GetBuiltin(types.Long)
	spec, targs, err := it.DeduceForCall(ftd, []types.TemplateArg{types.TypeArg(longTy)}, []ast.Expr{intArg(tctx)})
	require.NoError(t, err)
	assert.True(t, types.Same(targs[0].Type, longTy))
	assert.True(t, types.Same(spec.Params[0].Type, longTy))
}

func TestSpecializeMemoized(t *testing.T) {
	it, tctx := newTestInstantiator()
	tu := ast.NewTranslationUnit()
	ftd := makeTemplate(tctx, tu, "g", identity)

	a, _, err := it.Specialize(ftd, []types.TemplateArg{types.TypeArg(tctx.IntType())}, nil)
	require.NoError(t, err)
	b, _, err := it.Specialize(ftd, []types.TemplateArg{types.TypeArg(tctx.IntType())}, nil)
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, _, err := it.Specialize(ftd, []types.TemplateArg{types.TypeArg(tctx.GetBuiltin(types.Double))}, nil)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestRegisteredSpecializationPreemptsInstantiation(t *testing.T) {
	it, tctx := newTestInstantiator()
	tu := ast.NewTranslationUnit()
	ftd := makeTemplate(tctx, tu, "g", identity)

	intFnTy := tctx.GetFunction(tctx.GetBuiltin(types.Void), []types.Type{tctx.IntType()}, types.FunctionInfo{})
	user := ast.NewFunctionDecl(ast.Ident("g"), 0, intFnTy, tu.AsDeclContext())
	it.AddFunctionSpecialization(ftd, []types.TemplateArg{types.TypeArg(tctx.IntType())}, user)

	spec, _, err := it.Specialize(ftd, []types.TemplateArg{types.TypeArg(tctx.IntType())}, nil)
	require.NoError(t, err)
	assert.Same(t, user, spec)
}

func TestPartialOrderingOfFunctionTemplates(t *testing.T) {
	it, tctx := newTestInstantiator()
	tu := ast.NewTranslationUnit()

	general := makeTemplate(tctx, tu, "g", identity)
	pointer := makeTemplate(tctx, tu, "g", func(tp types.Type) types.Type {
		return tctx.GetPointer(tp)
	})

	assert.Equal(t, -1, it.MoreSpecializedFunction(pointer, general))
	assert.Equal(t, 1, it.MoreSpecializedFunction(general, pointer))
	assert.Equal(t, 0, it.MoreSpecializedFunction(general, general))
}

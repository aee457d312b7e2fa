package sema

import (
	"strings"
	"testing"

	"cfront/ast"
	"cfront/eval"
	"cfront/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// declareFib declares `constexpr int fib(int n) { return n < 2 ? n : fib(n-1)
// + fib(n-2); }` through the act surface.
func (f *fixture) declareFib() *ast.FunctionDecl {
	intTy := f.intTy()
	fnTy := f.tctx.GetFunction(intTy, []types.Type{intTy}, types.FunctionInfo{})
	params := []*ast.ParamDecl{ast.NewParamDecl(ast.Ident("n"), 0, intTy, 0)}

	fib := f.s.ActOnFunctionDecl(ast.Ident("fib"), 0, fnTy, params)
	fib.Constexpr = true

	f.s.ActOnStartFunctionBody(fib)

	nRef := func() ast.Expr { return f.s.ActOnIdExpr(ast.Ident("n"), span0()) }
	recurse := func(k int64) ast.Expr {
		arg := f.s.ActOnBinaryOp(ast.BinSub, nRef(), f.lit(k), span0())
		callee := f.s.ActOnIdExpr(ast.Ident("fib"), span0())
		return f.s.ActOnCall(callee, []ast.Expr{arg}, span0())
	}

	cond := f.s.ActOnBinaryOp(ast.BinLT, nRef(), f.lit(2), span0())
	sum := f.s.ActOnBinaryOp(ast.BinAdd, recurse(1), recurse(2), span0())
	sel := f.s.ActOnConditional(cond, nRef(), sum, span0())
	ret := f.s.ActOnReturn(sel, span0())
	body := f.s.ActOnCompoundStmt([]ast.Stmt{ret}, span0())

	f.s.ActOnFinishFunctionBody(fib, body)
	return fib
}

func TestConstexprFunctionFolds(t *testing.T) {
	f := newFixture(t)
	f.declareFib()

	got, fail := f.s.FoldConstant(f.callNamed("fib", f.lit(10)))
	require.Nil(t, fail)
	assert.Equal(t, int64(55), got)
	assert.Zero(t, f.eng.ErrorCount())
}

func TestStaticAssertAcceptsTrueCondition(t *testing.T) {
	f := newFixture(t)
	f.declareFib()

	cond := f.s.ActOnBinaryOp(ast.BinEQ, f.callNamed("fib", f.lit(10)), f.lit(55), span0())
	sad := f.s.ActOnStaticAssert(cond, "", span0())
	require.NotNil(t, sad)
	assert.False(t, sad.Invalid())
	assert.Zero(t, f.eng.ErrorCount())
}

func TestStaticAssertFailureCarriesComputedValue(t *testing.T) {
	f := newFixture(t)
	f.declareFib()

	cond := f.s.ActOnBinaryOp(ast.BinEQ, f.callNamed("fib", f.lit(10)), f.lit(56), span0())
	f.s.ActOnStaticAssert(cond, "fib mismatch", span0())

	d := f.lastDiagnostic("err-static-assert")
	require.NotNil(t, d)
	assert.Contains(t, d.Message, "fib mismatch")

	// The note carries the value both sides actually evaluated to.
	var valued bool
	for _, n := range d.Notes {
		if n.ID == "note-assert-value" &&
			strings.Contains(n.Message, "55") && strings.Contains(n.Message, "56") {
			valued = true
		}
	}
	assert.True(t, valued, "the failure note must carry the computed value 55")
}

func TestStaticAssertRejectsNonConstant(t *testing.T) {
	f := newFixture(t)

	f.s.ActOnVariableDecl(ast.Ident("x"), 0, f.intTy(), ast.SCNone, false)
	cond := f.s.ActOnBinaryOp(ast.BinEQ,
		f.s.ActOnIdExpr(ast.Ident("x"), span0()), f.lit(0), span0())

	f.s.ActOnStaticAssert(cond, "", span0())
	assert.NotNil(t, f.lastDiagnostic("err-static-assert-nonconst"))
}

func TestConstexprVariableInitEvaluated(t *testing.T) {
	f := newFixture(t)
	f.declareFib()

	vd := f.s.ActOnVariableDecl(ast.Ident("six"), 0, f.intTy(), ast.SCNone, true)
	f.s.ActOnVariableInit(vd, f.callNamed("fib", f.lit(6)))
	f.s.ActOnFinishVariable(vd)

	require.NotNil(t, vd.ConstVal)
	val, ok := vd.ConstVal.(*eval.Value)
	require.True(t, ok)
	assert.Equal(t, int64(8), val.Int.Int64())
	assert.Zero(t, f.eng.ErrorCount())
}

func TestConstexprVariableRejectsNonConstantInit(t *testing.T) {
	f := newFixture(t)

	f.s.ActOnVariableDecl(ast.Ident("runtime"), 0, f.intTy(), ast.SCNone, false)
	init := f.s.ActOnIdExpr(ast.Ident("runtime"), span0())

	vd := f.s.ActOnVariableDecl(ast.Ident("bad"), 0, f.intTy(), ast.SCNone, true)
	f.s.ActOnVariableInit(vd, init)
	f.s.ActOnFinishVariable(vd)

	assert.NotNil(t, f.lastDiagnostic("err-constexpr-init"))
}

// declareClampUp declares `constexpr int clampUp(int n) { while (true) { if
// (n > 3) break; n = n + 1; } return n; }` through the act surface.
func (f *fixture) declareClampUp() *ast.FunctionDecl {
	intTy := f.intTy()
	fnTy := f.tctx.GetFunction(intTy, []types.Type{intTy}, types.FunctionInfo{})
	params := []*ast.ParamDecl{ast.NewParamDecl(ast.Ident("n"), 0, intTy, 0)}

	fd := f.s.ActOnFunctionDecl(ast.Ident("clampUp"), 0, fnTy, params)
	fd.Constexpr = true
	f.s.ActOnStartFunctionBody(fd)

	nRef := func() ast.Expr { return f.s.ActOnIdExpr(ast.Ident("n"), span0()) }

	f.s.ActOnStartWhile()
	brk := f.s.ActOnIf(
		f.s.ActOnBinaryOp(ast.BinGT, nRef(), f.lit(3), span0()),
		f.s.ActOnBreak(span0()), nil, span0())
	bump := f.s.ActOnExprStmt(
		f.s.ActOnBinaryOp(ast.BinAssign, nRef(),
			f.s.ActOnBinaryOp(ast.BinAdd, nRef(), f.lit(1), span0()), span0()), span0())
	loopBody := f.s.ActOnCompoundStmt([]ast.Stmt{brk, bump}, span0())
	loop := f.s.ActOnFinishWhile(f.s.ActOnBoolLiteral(true, span0()), loopBody, span0())

	ret := f.s.ActOnReturn(nRef(), span0())
	body := f.s.ActOnCompoundStmt([]ast.Stmt{loop, ret}, span0())
	f.s.ActOnFinishFunctionBody(fd, body)
	return fd
}

func TestConstexprLoopWithBreakFolds(t *testing.T) {
	f := newFixture(t)
	f.declareClampUp()

	got, fail := f.s.FoldConstant(f.callNamed("clampUp", f.lit(1)))
	require.Nil(t, fail)
	assert.Equal(t, int64(4), got)

	got, fail = f.s.FoldConstant(f.callNamed("clampUp", f.lit(9)))
	require.Nil(t, fail)
	assert.Equal(t, int64(9), got)
	assert.Zero(t, f.eng.ErrorCount())
}

func TestConstexprSwitchFolds(t *testing.T) {
	f := newFixture(t)

	intTy := f.intTy()
	fnTy := f.tctx.GetFunction(intTy, []types.Type{intTy}, types.FunctionInfo{})
	params := []*ast.ParamDecl{ast.NewParamDecl(ast.Ident("n"), 0, intTy, 0)}

	fd := f.s.ActOnFunctionDecl(ast.Ident("pick"), 0, fnTy, params)
	fd.Constexpr = true
	f.s.ActOnStartFunctionBody(fd)

	cond := f.s.ActOnIdExpr(ast.Ident("n"), span0())
	sw := f.s.ActOnStartSwitch(cond, span0())
	c1 := f.s.ActOnCase(sw, f.lit(1), f.s.ActOnReturn(f.lit(10), span0()), span0())
	c2 := f.s.ActOnCase(sw, f.lit(2), f.s.ActOnReturn(f.lit(20), span0()), span0())
	def := f.s.ActOnCase(sw, nil, f.s.ActOnReturn(f.lit(0), span0()), span0())
	swBody := f.s.ActOnCompoundStmt([]ast.Stmt{c1, c2, def}, span0())
	loop := f.s.ActOnFinishSwitch(sw, swBody)

	body := f.s.ActOnCompoundStmt([]ast.Stmt{loop}, span0())
	f.s.ActOnFinishFunctionBody(fd, body)

	got, fail := f.s.FoldConstant(f.callNamed("pick", f.lit(2)))
	require.Nil(t, fail)
	assert.Equal(t, int64(20), got)

	got, fail = f.s.FoldConstant(f.callNamed("pick", f.lit(7)))
	require.Nil(t, fail)
	assert.Equal(t, int64(0), got)
	assert.Zero(t, f.eng.ErrorCount())
}

func TestConstexprVoidFunctionRejected(t *testing.T) {
	f := newFixture(t)

	fnTy := f.tctx.GetFunction(f.voidTy(), nil, types.FunctionInfo{})
	fd := f.s.ActOnFunctionDecl(ast.Ident("noop"), 0, fnTy, nil)
	fd.Constexpr = true

	f.s.ActOnStartFunctionBody(fd)
	body := f.s.ActOnCompoundStmt(nil, span0())
	f.s.ActOnFinishFunctionBody(fd, body)

	assert.NotNil(t, f.lastDiagnostic("err-constexpr-void"))
}

package eval

import (
	"testing"

	"cfront/ast"
	"cfront/common"
	"cfront/report"
	"cfront/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func report0() report.SourceRange {
	return report.SourceRange{}
}

type evalFixture struct {
	tctx *types.Context
	opts *common.LangOpts
}

func newFixture() *evalFixture {
	opts := common.DefaultLangOpts()
	return &evalFixture{
		tctx: types.NewContext(common.DefaultTarget(), opts),
		opts: opts,
	}
}

func (f *evalFixture) intLit(v int64) ast.Expr {
	return ast.NewIntegerLiteral(v, f.tctx.IntType(), report0())
}

func (f *evalFixture) binary(op ast.BinaryOpKind, l, r ast.Expr) ast.Expr {
	return ast.NewBinaryExpr(op, l, r, f.tctx.IntType(), ast.PRValue, report0())
}

func (f *evalFixture) eval() *Evaluator {
	return NewEvaluator(f.tctx, f.opts)
}

func TestIntegerArithmetic(t *testing.T) {
	f := newFixture()

	cases := []struct {
		op       ast.BinaryOpKind
		l, r     int64
		expected int64
	}{
		{ast.BinAdd, 3, 4, 7},
		{ast.BinSub, 10, 4, 6},
		{ast.BinMul, 6, 7, 42},
		{ast.BinDiv, 9, 2, 4},
		{ast.BinRem, 9, 2, 1},
		{ast.BinShl, 1, 4, 16},
		{ast.BinXor, 6, 3, 5},
	}

	for _, c := range cases {
		got, fail := f.eval().EvaluateAsInt(f.binary(c.op, f.intLit(c.l), f.intLit(c.r)))
		require.Nil(t, fail, "%s", c.op.Spelling())
		assert.Equal(t, c.expected, got, "%d %s %d", c.l, c.op.Spelling(), c.r)
	}
}

func TestComparisonsYieldBool(t *testing.T) {
	f := newFixture()
	boolTy := f.tctx.GetBuiltin(types.Bool)

	lt := ast.NewBinaryExpr(ast.BinLT, f.intLit(1), f.intLit(2), boolTy, ast.PRValue, report0())
	got, fail := f.eval().EvaluateAsInt(lt)
	require.Nil(t, fail)
	assert.Equal(t, int64(1), got)

	ge := ast.NewBinaryExpr(ast.BinGE, f.intLit(1), f.intLit(2), boolTy, ast.PRValue, report0())
	got, fail = f.eval().EvaluateAsInt(ge)
	require.Nil(t, fail)
	assert.Equal(t, int64(0), got)
}

func TestDivisionByZeroFails(t *testing.T) {
	f := newFixture()

	_, fail := f.eval().EvaluateAsInt(f.binary(ast.BinDiv, f.intLit(1), f.intLit(0)))
	require.NotNil(t, fail)
	assert.Contains(t, fail.Msg, "zero")
}

func TestConditional(t *testing.T) {
	f := newFixture()

	cond := ast.NewBinaryExpr(ast.BinLT, f.intLit(1), f.intLit(2),
		f.tctx.GetBuiltin(types.Bool), ast.PRValue, report0())
	sel := ast.NewConditionalExpr(cond, f.intLit(10), f.intLit(20),
		f.tctx.IntType(), ast.PRValue, report0())

	got, fail := f.eval().EvaluateAsInt(sel)
	require.Nil(t, fail)
	assert.Equal(t, int64(10), got)
}

func TestShortCircuitSkipsUnevaluatedSide(t *testing.T) {
	f := newFixture()
	boolTy := f.tctx.GetBuiltin(types.Bool)

	// false && (1/0 == 0) never evaluates the division.
	divByZero := ast.NewBinaryExpr(ast.BinEQ,
		f.binary(ast.BinDiv, f.intLit(1), f.intLit(0)), f.intLit(0),
		boolTy, ast.PRValue, report0())
	land := ast.NewBinaryExpr(ast.BinLAnd,
		ast.NewBoolLiteral(false, boolTy, report0()), divByZero,
		boolTy, ast.PRValue, report0())

	got, fail := f.eval().EvaluateAsInt(land)
	require.Nil(t, fail)
	assert.Equal(t, int64(0), got)
}

func TestStepBudgetExhaustion(t *testing.T) {
	f := newFixture()
	f.opts.ConstexprSteps = 2

	wide := f.binary(ast.BinAdd,
		f.binary(ast.BinAdd, f.intLit(1), f.intLit(2)),
		f.binary(ast.BinAdd, f.intLit(3), f.intLit(4)))

	_, fail := f.eval().EvaluateAsInt(wide)
	require.NotNil(t, fail, "the evaluator must enforce its step budget")
}

func TestConstVariableReads(t *testing.T) {
	f := newFixture()

	constInt := f.tctx.AddQualifiers(f.tctx.IntType(), types.QualConst)
	vd := ast.NewVarDecl(ast.Ident("n"), 0, constInt, ast.SCNone)
	val := IntValue(12, f.tctx.IntType())
	vd.ConstVal = &val

	ref := ast.NewDeclRefExpr(vd, constInt, ast.LValue, report0())
	rv := ast.NewImplicitCastExpr(ast.CastLValueToRValue, ref, f.tctx.IntType(), ast.PRValue)

	got, fail := f.eval().EvaluateAsInt(rv)
	require.Nil(t, fail)
	assert.Equal(t, int64(12), got)
}

func TestNonConstVariableRejected(t *testing.T) {
	f := newFixture()

	vd := ast.NewVarDecl(ast.Ident("n"), 0, f.tctx.IntType(), ast.SCNone)
	ref := ast.NewDeclRefExpr(vd, f.tctx.IntType(), ast.LValue, report0())
	rv := ast.NewImplicitCastExpr(ast.CastLValueToRValue, ref, f.tctx.IntType(), ast.PRValue)

	_, fail := f.eval().EvaluateAsInt(rv)
	assert.NotNil(t, fail, "a mutable variable is not a constant expression")
}

// constArray declares `const int a[N]` with the given constant elements.
func (f *evalFixture) constArray(vals ...int64) (*ast.VarDecl, types.Type) {
	arrTy := f.tctx.GetConstantArray(f.tctx.IntType(), int64(len(vals)))
	vd := ast.NewVarDecl(ast.Ident("a"), 0, arrTy, ast.SCNone)

	agg := Value{Kind: ValAggregate, Ty: arrTy}
	for _, v := range vals {
		agg.Elems = append(agg.Elems, IntValue(v, f.tctx.IntType()))
	}

	vd.ConstVal = &agg
	return vd, arrTy
}

// decayed builds the array-to-pointer decay of a reference to the array.
func (f *evalFixture) decayed(vd *ast.VarDecl, arrTy types.Type) ast.Expr {
	ptrTy := f.tctx.GetPointer(f.tctx.IntType())
	ref := ast.NewDeclRefExpr(vd, arrTy, ast.LValue, report0())
	return ast.NewImplicitCastExpr(ast.CastArrayToPointer, ref, ptrTy, ast.PRValue)
}

func TestConstantArraySubscript(t *testing.T) {
	f := newFixture()
	vd, arrTy := f.constArray(12, 34)

	base := ast.NewDeclRefExpr(vd, arrTy, ast.LValue, report0())
	sub := ast.NewSubscriptExpr(base, f.intLit(1), f.tctx.IntType(), ast.LValue, report0())
	rv := ast.NewImplicitCastExpr(ast.CastLValueToRValue, sub, f.tctx.IntType(), ast.PRValue)

	got, fail := f.eval().EvaluateAsInt(rv)
	require.Nil(t, fail)
	assert.Equal(t, int64(34), got)
}

func TestSubscriptOutOfBoundsFails(t *testing.T) {
	f := newFixture()
	vd, arrTy := f.constArray(12, 34)

	base := ast.NewDeclRefExpr(vd, arrTy, ast.LValue, report0())
	sub := ast.NewSubscriptExpr(base, f.intLit(2), f.tctx.IntType(), ast.LValue, report0())

	_, fail := f.eval().EvaluateAsInt(sub)
	require.NotNil(t, fail)
	assert.Contains(t, fail.Msg, "bounds")
}

func TestMemberAccessOnConstantAggregate(t *testing.T) {
	f := newFixture()
	tu := ast.NewTranslationUnit()

	rd := ast.NewRecordDecl(ast.Ident("P"), 0, ast.TagStruct, tu.AsDeclContext())
	x := ast.NewFieldDecl(ast.Ident("x"), 0, f.tctx.IntType())
	y := ast.NewFieldDecl(ast.Ident("y"), 0, f.tctx.IntType())
	rd.Add(x)
	rd.Add(y)
	rd.State = ast.ClassComplete

	recTy := f.tctx.GetRecord(rd)
	vd := ast.NewVarDecl(ast.Ident("p"), 0, recTy, ast.SCNone)
	agg := Value{Kind: ValAggregate, Ty: recTy, Elems: []Value{
		IntValue(7, f.tctx.IntType()),
		IntValue(9, f.tctx.IntType()),
	}}
	vd.ConstVal = &agg

	base := ast.NewDeclRefExpr(vd, recTy, ast.LValue, report0())
	me := ast.NewMemberExpr(base, false, y, f.tctx.IntType(), ast.LValue, report0())
	rv := ast.NewImplicitCastExpr(ast.CastLValueToRValue, me, f.tctx.IntType(), ast.PRValue)

	got, fail := f.eval().EvaluateAsInt(rv)
	require.Nil(t, fail)
	assert.Equal(t, int64(9), got)
}

func TestPointerArithmeticWithinArray(t *testing.T) {
	f := newFixture()
	vd, arrTy := f.constArray(12, 34)
	ptrTy := f.tctx.GetPointer(f.tctx.IntType())

	one := ast.NewBinaryExpr(ast.BinAdd, f.decayed(vd, arrTy), f.intLit(1), ptrTy, ast.PRValue, report0())
	deref := ast.NewUnaryExpr(ast.UnDeref, one, f.tctx.IntType(), ast.LValue, report0())

	got, fail := f.eval().EvaluateAsInt(deref)
	require.Nil(t, fail)
	assert.Equal(t, int64(34), got)
}

func TestOnePastEndIsAddressOnly(t *testing.T) {
	f := newFixture()
	vd, arrTy := f.constArray(12, 34)
	ptrTy := f.tctx.GetPointer(f.tctx.IntType())

	end := ast.NewBinaryExpr(ast.BinAdd, f.decayed(vd, arrTy), f.intLit(2), ptrTy, ast.PRValue, report0())

	v, fail := f.eval().Evaluate(end)
	require.Nil(t, fail, "the one-past-the-end address is a valid constant")
	assert.Equal(t, ValPointer, v.Kind)
	assert.False(t, v.PtrValid)

	deref := ast.NewUnaryExpr(ast.UnDeref, end, f.tctx.IntType(), ast.LValue, report0())
	_, fail = f.eval().EvaluateAsInt(deref)
	require.NotNil(t, fail)
	assert.Contains(t, fail.Msg, "one-past-the-end")

	past := ast.NewBinaryExpr(ast.BinAdd, f.decayed(vd, arrTy), f.intLit(3), ptrTy, ast.PRValue, report0())
	_, fail = f.eval().Evaluate(past)
	assert.NotNil(t, fail, "moving beyond one-past-the-end is not a constant")
}

func TestPointerDifference(t *testing.T) {
	f := newFixture()
	vd, arrTy := f.constArray(12, 34, 56)
	ptrTy := f.tctx.GetPointer(f.tctx.IntType())

	two := ast.NewBinaryExpr(ast.BinAdd, f.decayed(vd, arrTy), f.intLit(2), ptrTy, ast.PRValue, report0())
	diff := ast.NewBinaryExpr(ast.BinSub, two, f.decayed(vd, arrTy), f.tctx.IntType(), ast.PRValue, report0())

	got, fail := f.eval().EvaluateAsInt(diff)
	require.Nil(t, fail)
	assert.Equal(t, int64(2), got)
}

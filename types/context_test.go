package types

import (
	"testing"

	"cfront/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() *Context {
	return NewContext(common.DefaultTarget(), common.DefaultLangOpts())
}

func TestBuiltinInterning(t *testing.T) {
	ctx := newTestContext()

	a := ctx.GetBuiltin(Int)
	b := ctx.GetBuiltin(Int)
	assert.Same(t, a, b, "builtin types must be canonical singletons")
	assert.True(t, Same(a, b))

	assert.False(t, Same(ctx.GetBuiltin(Int), ctx.GetBuiltin(Long)))
}

func TestPointerInterning(t *testing.T) {
	ctx := newTestContext()
	intTy := ctx.GetBuiltin(Int)

	p1 := ctx.GetPointer(intTy)
	p2 := ctx.GetPointer(intTy)
	assert.Same(t, p1, p2)

	pp := ctx.GetPointer(p1)
	assert.NotSame(t, p1, pp)
	assert.Same(t, p1, AsPointer(pp).Pointee)
}

func TestCanonicalIdempotence(t *testing.T) {
	ctx := newTestContext()

	cases := []Type{
		ctx.GetBuiltin(Double),
		ctx.GetPointer(ctx.GetBuiltin(Char)),
		ctx.GetLValueRef(ctx.GetBuiltin(Int)),
		ctx.GetConstantArray(ctx.GetBuiltin(Int), 8),
		ctx.AddQualifiers(ctx.GetBuiltin(Int), QualConst),
	}

	for _, ty := range cases {
		c := ty.Canonical()
		assert.Same(t, c, c.Canonical(), "canonical must be idempotent for %s", ty.Repr())
	}
}

func TestQualifierRoundTrip(t *testing.T) {
	ctx := newTestContext()
	intTy := ctx.GetBuiltin(Int)

	qualified := ctx.AddQualifiers(intTy, QualConst|QualVolatile)
	q, _ := QualsOf(qualified)
	assert.True(t, q.HasConst())

	stripped := ctx.RemoveQualifiers(qualified, QualConst|QualVolatile)
	assert.Same(t, intTy.Canonical(), stripped.Canonical())

	// Adding the same qualifier twice is a no-op.
	again := ctx.AddQualifiers(qualified, QualConst)
	assert.Same(t, qualified.Canonical(), again.Canonical())
}

func TestFunctionTypeExceptionSpecNormalized(t *testing.T) {
	ctx := newTestContext()
	intTy := ctx.GetBuiltin(Int)
	dblTy := ctx.GetBuiltin(Double)
	voidTy := ctx.GetBuiltin(Void)

	a := ctx.GetFunction(voidTy, nil, FunctionInfo{Throws: []Type{intTy, dblTy}})
	b := ctx.GetFunction(voidTy, nil, FunctionInfo{Throws: []Type{dblTy, intTy}})
	assert.Same(t, a, b, "throw clause ordering must not affect identity")
}

func TestArrayTypes(t *testing.T) {
	ctx := newTestContext()
	intTy := ctx.GetBuiltin(Int)

	arr := ctx.GetConstantArray(intTy, 4)
	require.NotNil(t, AsArray(arr))
	assert.Same(t, arr, ctx.GetConstantArray(intTy, 4))
	assert.NotSame(t, arr, ctx.GetConstantArray(intTy, 5))

	inc := ctx.GetIncompleteArray(intTy)
	assert.False(t, IsComplete(inc))

	size, err := ctx.SizeOf(arr)
	require.NoError(t, err)
	assert.Equal(t, 4*ctx.BuiltinWidth(Int), size)

	_, err = ctx.SizeOf(inc)
	assert.Error(t, err, "sizeof an incomplete array must fail")
}

func TestReferenceCollapsing(t *testing.T) {
	ctx := newTestContext()
	intTy := ctx.GetBuiltin(Int)

	lref := ctx.GetLValueRef(intTy)
	require.NotNil(t, AsReference(lref))
	assert.False(t, AsReference(lref).RValue)

	rref := ctx.GetRValueRef(intTy)
	assert.True(t, AsReference(rref).RValue)
	assert.NotSame(t, lref, rref)
}

func TestTemplateParamIdentity(t *testing.T) {
	ctx := newTestContext()

	t00 := ctx.GetTemplateParam(0, 0, "T", false)
	assert.Same(t, t00, ctx.GetTemplateParam(0, 0, "T", false))
	assert.NotSame(t, t00, ctx.GetTemplateParam(0, 1, "U", false))
	assert.True(t, t00.Dependence().IsDependent())
}

func TestDependentNameType(t *testing.T) {
	ctx := newTestContext()

	qual := ctx.GetTemplateParam(0, 0, "T", false)
	dn := ctx.GetDependentName(qual, "type")
	assert.True(t, dn.Dependence().IsDependent())
	assert.Same(t, dn, ctx.GetDependentName(qual, "type"))
	assert.NotSame(t, dn, ctx.GetDependentName(qual, "other"))
}

func TestUsualArithmeticConversions(t *testing.T) {
	ctx := newTestContext()

	intTy := ctx.GetBuiltin(Int)
	dblTy := ctx.GetBuiltin(Double)
	longTy := ctx.GetBuiltin(Long)

	assert.Same(t, dblTy, ctx.UsualArithmetic(intTy, dblTy).Canonical())
	assert.Same(t, longTy, ctx.UsualArithmetic(intTy, longTy).Canonical())
	assert.Same(t, intTy, ctx.UsualArithmetic(ctx.GetBuiltin(Short), ctx.GetBuiltin(Char)).Canonical())
}

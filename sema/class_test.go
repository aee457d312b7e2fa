package sema

import (
	"testing"

	"cfront/ast"
	"cfront/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// defineRecord runs a complete class definition through the acts, letting
// the callback add members while the definition is open.
func (f *fixture) defineRecord(name string, tag ast.TagKind, members func(rd *ast.RecordDecl)) *ast.RecordDecl {
	rd := f.s.ActOnTagDecl(ast.Ident(name), tag, 0)
	f.s.ActOnStartClass(rd)
	if members != nil {
		members(rd)
	}
	f.s.ActOnFinishClass(rd)
	return rd
}

func (f *fixture) addMethod(rd *ast.RecordDecl, name string, virtual bool) *ast.FunctionDecl {
	ty := f.tctx.GetFunction(f.voidTy(), nil, types.FunctionInfo{})
	return f.s.ActOnMethod(rd, ast.Ident(name), 0, ty, nil, 0, false, virtual)
}

func TestStructLayout(t *testing.T) {
	f := newFixture(t)
	w := f.tctx.BuiltinWidth(types.Int)

	rd := f.defineRecord("P", ast.TagStruct, func(rd *ast.RecordDecl) {
		f.s.ActOnField(rd, ast.Ident("x"), 0, f.intTy(), false)
		f.s.ActOnField(rd, ast.Ident("y"), 0, f.intTy(), false)
	})

	assert.Equal(t, ast.ClassComplete, rd.State)
	assert.Equal(t, 2*w, rd.LayoutSize)
	assert.Equal(t, w, rd.LayoutAlign)
	assert.True(t, rd.Trivial)
	assert.Zero(t, f.eng.ErrorCount())
}

func TestUnionOverlaysFields(t *testing.T) {
	f := newFixture(t)
	w := f.tctx.BuiltinWidth(types.Int)

	rd := f.defineRecord("U", ast.TagUnion, func(rd *ast.RecordDecl) {
		f.s.ActOnField(rd, ast.Ident("i"), 0, f.intTy(), false)
		f.s.ActOnField(rd, ast.Ident("c"), 0, f.tctx.GetBuiltin(types.Char), false)
	})

	assert.Equal(t, w, rd.LayoutSize, "a union is as large as its widest member")
}

func TestBaseSubobjectInLayout(t *testing.T) {
	f := newFixture(t)
	w := f.tctx.BuiltinWidth(types.Int)

	base := f.defineRecord("B", ast.TagStruct, func(rd *ast.RecordDecl) {
		f.s.ActOnField(rd, ast.Ident("b"), 0, f.intTy(), false)
	})

	derived := f.s.ActOnTagDecl(ast.Ident("D"), ast.TagStruct, 0)
	f.s.ActOnStartClass(derived)
	f.s.ActOnBaseSpecifier(derived, base, ast.ASPublic, false, 0)
	f.s.ActOnField(derived, ast.Ident("d"), 0, f.intTy(), false)
	f.s.ActOnFinishClass(derived)

	assert.Equal(t, 2*w, derived.LayoutSize)
	assert.Zero(t, f.eng.ErrorCount())
}

func TestUserConstructorBreaksTriviality(t *testing.T) {
	f := newFixture(t)

	rd := f.defineRecord("A", ast.TagStruct, func(rd *ast.RecordDecl) {
		ctorTy := f.tctx.GetFunction(f.voidTy(), nil, types.FunctionInfo{})
		f.s.ActOnMethod(rd, ast.ConstructorName(), 0, ctorTy, nil, 0, false, false)
	})

	assert.True(t, rd.HasUserCtor)
	assert.False(t, rd.Trivial)
}

func TestVirtualMethodMakesPolymorphic(t *testing.T) {
	f := newFixture(t)

	rd := f.defineRecord("V", ast.TagStruct, func(rd *ast.RecordDecl) {
		f.addMethod(rd, "visit", true)
	})

	assert.True(t, rd.Polymorphic)
	assert.False(t, rd.Trivial)
	assert.GreaterOrEqual(t, rd.LayoutSize, f.tctx.Target.PointerWidth,
		"a polymorphic class carries a vtable pointer")
}

func TestOverrideLinkedWithoutKeyword(t *testing.T) {
	f := newFixture(t)

	var baseFn *ast.FunctionDecl
	base := f.defineRecord("B", ast.TagStruct, func(rd *ast.RecordDecl) {
		baseFn = f.addMethod(rd, "visit", true)
	})

	var derivedFn *ast.FunctionDecl
	derived := f.s.ActOnTagDecl(ast.Ident("D"), ast.TagStruct, 0)
	f.s.ActOnStartClass(derived)
	f.s.ActOnBaseSpecifier(derived, base, ast.ASPublic, false, 0)
	derivedFn = f.addMethod(derived, "visit", false)
	f.s.ActOnFinishClass(derived)

	// Matching a base virtual function is overriding even without `virtual`.
	assert.True(t, derivedFn.Virtual)
	assert.Same(t, baseFn, derivedFn.Overrides)
	assert.True(t, derived.Polymorphic)
}

func TestIncompleteBaseRejected(t *testing.T) {
	f := newFixture(t)

	fwd := f.s.ActOnTagDecl(ast.Ident("Fwd"), ast.TagStruct, 0)

	derived := f.s.ActOnTagDecl(ast.Ident("D"), ast.TagStruct, 0)
	f.s.ActOnStartClass(derived)
	f.s.ActOnBaseSpecifier(derived, fwd, ast.ASPublic, false, 0)
	f.s.ActOnFinishClass(derived)

	assert.NotNil(t, f.lastDiagnostic("err-incomplete-base"))
	assert.Empty(t, derived.Bases)
}

func TestDuplicateMemberRejected(t *testing.T) {
	f := newFixture(t)

	f.defineRecord("A", ast.TagStruct, func(rd *ast.RecordDecl) {
		f.s.ActOnField(rd, ast.Ident("m"), 0, f.intTy(), false)
		f.s.ActOnField(rd, ast.Ident("m"), 0, f.dblTy(), false)
	})

	assert.NotNil(t, f.lastDiagnostic("err-member-redecl"))
}

func TestPrivateMemberAccessDiagnosed(t *testing.T) {
	f := newFixture(t)

	rd := f.defineRecord("Locked", ast.TagClass, func(rd *ast.RecordDecl) {
		fd := f.s.ActOnField(rd, ast.Ident("secret"), 0, f.intTy(), false)
		fd.SetAccess(ast.ASPrivate)
	})

	f.s.ActOnVariableDecl(ast.Ident("l"), 0, f.tctx.GetRecord(rd), ast.SCNone, false)
	base := f.s.ActOnIdExpr(ast.Ident("l"), span0())

	f.s.ActOnMemberAccess(base, false, ast.Ident("secret"), span0())
	assert.NotNil(t, f.lastDiagnostic("err-access"))
}

func TestFriendFunctionBypassesAccess(t *testing.T) {
	f := newFixture(t)

	var rd *ast.RecordDecl
	fn := f.declareFn("peek", f.voidTy())

	rd = f.defineRecord("Locked", ast.TagClass, func(rd *ast.RecordDecl) {
		fd := f.s.ActOnField(rd, ast.Ident("secret"), 0, f.intTy(), false)
		fd.SetAccess(ast.ASPrivate)
		f.s.ActOnFriendFunction(rd, fn, 0)
	})

	f.s.ActOnVariableDecl(ast.Ident("l"), 0, f.tctx.GetRecord(rd), ast.SCNone, false)

	f.s.ActOnStartFunctionBody(fn)
	base := f.s.ActOnIdExpr(ast.Ident("l"), span0())
	e := f.s.ActOnMemberAccess(base, false, ast.Ident("secret"), span0())
	f.s.ActOnFinishFunctionBody(fn, f.s.ActOnCompoundStmt(nil, span0()))

	require.False(t, e.Invalid())
	assert.Zero(t, f.eng.ErrorCount(), "a friend reads private members freely")
}

func TestRedefinitionDiagnosed(t *testing.T) {
	f := newFixture(t)

	f.defineRecord("A", ast.TagStruct, nil)
	f.defineRecord("A", ast.TagStruct, nil)

	assert.NotNil(t, f.lastDiagnostic("err-redefinition"))
}

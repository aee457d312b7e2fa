package lookup

import (
	"testing"

	"cfront/ast"
	"cfront/common"
	"cfront/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTypes() *types.Context {
	return types.NewContext(common.DefaultTarget(), common.DefaultLangOpts())
}

func declareVar(tctx *types.Context, ctx *ast.DeclContext, name string) *ast.VarDecl {
	vd := ast.NewVarDecl(ast.Ident(name), 0, tctx.IntType(), ast.SCNone)
	ctx.Add(vd)
	return vd
}

func TestUnqualifiedFindsNearest(t *testing.T) {
	tctx := newTypes()
	tu := ast.NewTranslationUnit()

	outer := declareVar(tctx, tu.AsDeclContext(), "x")

	ns := ast.NewNamespaceDecl(ast.Ident("N"), 0, tu.AsDeclContext(), false)
	tu.AsDeclContext().Add(ns)
	inner := declareVar(tctx, ns.AsDeclContext(), "x")

	// From inside the namespace the inner declaration hides the outer one.
	res := Unqualified(ns.AsDeclContext(), ast.Ident("x"), Ordinary)
	require.False(t, res.Empty())
	assert.Same(t, ast.Decl(inner), res.Single())

	// From the translation unit the outer declaration is untouched.
	res = Unqualified(tu.AsDeclContext(), ast.Ident("x"), Ordinary)
	assert.Same(t, ast.Decl(outer), res.Single())
}

func TestUnqualifiedMissesUnrelatedName(t *testing.T) {
	tctx := newTypes()
	tu := ast.NewTranslationUnit()
	declareVar(tctx, tu.AsDeclContext(), "x")

	res := Unqualified(tu.AsDeclContext(), ast.Ident("y"), Ordinary)
	assert.True(t, res.Empty())
}

func TestOrdinaryNameHidesTag(t *testing.T) {
	tctx := newTypes()
	tu := ast.NewTranslationUnit()

	rd := ast.NewRecordDecl(ast.Ident("stat"), 0, ast.TagStruct, tu.AsDeclContext())
	tu.AsDeclContext().Add(rd)
	vd := declareVar(tctx, tu.AsDeclContext(), "stat")

	res := Unqualified(tu.AsDeclContext(), ast.Ident("stat"), Ordinary)
	assert.Same(t, ast.Decl(vd), res.Single(), "the ordinary name hides the tag")

	res = Unqualified(tu.AsDeclContext(), ast.Ident("stat"), TagOnly)
	assert.Same(t, ast.Decl(rd), res.Single(), "elaborated lookup reaches the hidden tag")
}

func TestUsingDirectiveClosure(t *testing.T) {
	tctx := newTypes()
	tu := ast.NewTranslationUnit()

	na := ast.NewNamespaceDecl(ast.Ident("A"), 0, tu.AsDeclContext(), false)
	tu.AsDeclContext().Add(na)
	nb := ast.NewNamespaceDecl(ast.Ident("B"), 0, tu.AsDeclContext(), false)
	tu.AsDeclContext().Add(nb)

	target := declareVar(tctx, nb.AsDeclContext(), "deep")

	// A nominates B; the TU nominates A.  Lookup from the TU must follow the
	// transitive closure down to B.
	na.AsDeclContext().Add(ast.NewUsingDirectiveDecl(0, nb))
	tu.AsDeclContext().Add(ast.NewUsingDirectiveDecl(0, na))

	res := Unqualified(tu.AsDeclContext(), ast.Ident("deep"), Ordinary)
	assert.Same(t, ast.Decl(target), res.Single())
}

func TestUsingDeclarationTransparency(t *testing.T) {
	tctx := newTypes()
	tu := ast.NewTranslationUnit()

	ns := ast.NewNamespaceDecl(ast.Ident("N"), 0, tu.AsDeclContext(), false)
	tu.AsDeclContext().Add(ns)
	target := declareVar(tctx, ns.AsDeclContext(), "v")

	tu.AsDeclContext().Add(ast.NewUsingShadowDecl(nil, target))

	res := Unqualified(tu.AsDeclContext(), ast.Ident("v"), Ordinary)
	assert.Same(t, ast.Decl(target), res.Single(), "shadows resolve to their targets")
}

func TestQualifiedLookup(t *testing.T) {
	tctx := newTypes()
	tu := ast.NewTranslationUnit()

	ns := ast.NewNamespaceDecl(ast.Ident("N"), 0, tu.AsDeclContext(), false)
	tu.AsDeclContext().Add(ns)
	target := declareVar(tctx, ns.AsDeclContext(), "v")
	declareVar(tctx, tu.AsDeclContext(), "v")

	res := Qualified(ns.AsDeclContext(), ast.Ident("v"), Ordinary)
	assert.Same(t, ast.Decl(target), res.Single(), "qualified lookup never leaves the nominated scope")
}

// -----------------------------------------------------------------------------

func completeRecord(name string, parent *ast.DeclContext) *ast.RecordDecl {
	rd := ast.NewRecordDecl(ast.Ident(name), 0, ast.TagStruct, parent)
	parent.Add(rd)
	rd.State = ast.ClassComplete
	return rd
}

func addField(tctx *types.Context, rd *ast.RecordDecl, name string) *ast.FieldDecl {
	fd := ast.NewFieldDecl(ast.Ident(name), 0, tctx.IntType())
	fd.SetAccess(ast.ASPublic)
	rd.AsDeclContext().Add(fd)
	return fd
}

func TestMemberLookupDerivedHidesBase(t *testing.T) {
	tctx := newTypes()
	tu := ast.NewTranslationUnit()

	base := completeRecord("B", tu.AsDeclContext())
	addField(tctx, base, "m")

	derived := completeRecord("D", tu.AsDeclContext())
	derived.Bases = []ast.BaseSpecifier{{Class: base, Access: ast.ASPublic}}
	own := addField(tctx, derived, "m")

	res := Member(derived, ast.Ident("m"), Ordinary)
	require.False(t, res.Empty())
	assert.Same(t, ast.Decl(own), res.Single())
	assert.Equal(t, 0, res.PathLength)
}

func TestMemberLookupFindsInBase(t *testing.T) {
	tctx := newTypes()
	tu := ast.NewTranslationUnit()

	base := completeRecord("B", tu.AsDeclContext())
	inherited := addField(tctx, base, "m")

	derived := completeRecord("D", tu.AsDeclContext())
	derived.Bases = []ast.BaseSpecifier{{Class: base, Access: ast.ASPublic}}

	res := Member(derived, ast.Ident("m"), Ordinary)
	assert.Same(t, ast.Decl(inherited), res.Single())
	assert.Same(t, base, res.FoundIn)
	assert.Equal(t, 1, res.PathLength)
}

func TestMemberLookupAmbiguousAcrossSubobjects(t *testing.T) {
	tctx := newTypes()
	tu := ast.NewTranslationUnit()

	b1 := completeRecord("B1", tu.AsDeclContext())
	addField(tctx, b1, "m")
	b2 := completeRecord("B2", tu.AsDeclContext())
	addField(tctx, b2, "m")

	derived := completeRecord("D", tu.AsDeclContext())
	derived.Bases = []ast.BaseSpecifier{
		{Class: b1, Access: ast.ASPublic},
		{Class: b2, Access: ast.ASPublic},
	}

	res := Member(derived, ast.Ident("m"), Ordinary)
	assert.True(t, res.Ambiguous, "distinct subobjects with distinct entities are ambiguous")
}

func TestMemberLookupStaticNotAmbiguous(t *testing.T) {
	tctx := newTypes()
	tu := ast.NewTranslationUnit()

	base := completeRecord("B", tu.AsDeclContext())
	sv := ast.NewVarDecl(ast.Ident("count"), 0, tctx.IntType(), ast.SCStatic)
	sv.SetAccess(ast.ASPublic)
	base.AsDeclContext().Add(sv)

	// Two paths to the same static member through distinct subobjects.
	mid1 := completeRecord("M1", tu.AsDeclContext())
	mid1.Bases = []ast.BaseSpecifier{{Class: base, Access: ast.ASPublic}}
	mid2 := completeRecord("M2", tu.AsDeclContext())
	mid2.Bases = []ast.BaseSpecifier{{Class: base, Access: ast.ASPublic}}

	derived := completeRecord("D", tu.AsDeclContext())
	derived.Bases = []ast.BaseSpecifier{
		{Class: mid1, Access: ast.ASPublic},
		{Class: mid2, Access: ast.ASPublic},
	}

	res := Member(derived, ast.Ident("count"), Ordinary)
	assert.False(t, res.Ambiguous, "a static member is detached from its subobject")
	assert.Same(t, ast.Decl(sv), res.Single())
}

func TestMemberLookupVirtualBaseShared(t *testing.T) {
	tctx := newTypes()
	tu := ast.NewTranslationUnit()

	base := completeRecord("B", tu.AsDeclContext())
	m := addField(tctx, base, "m")

	mid1 := completeRecord("M1", tu.AsDeclContext())
	mid1.Bases = []ast.BaseSpecifier{{Class: base, Access: ast.ASPublic, Virtual: true}}
	mid2 := completeRecord("M2", tu.AsDeclContext())
	mid2.Bases = []ast.BaseSpecifier{{Class: base, Access: ast.ASPublic, Virtual: true}}

	derived := completeRecord("D", tu.AsDeclContext())
	derived.Bases = []ast.BaseSpecifier{
		{Class: mid1, Access: ast.ASPublic},
		{Class: mid2, Access: ast.ASPublic},
	}

	res := Member(derived, ast.Ident("m"), Ordinary)
	assert.False(t, res.Ambiguous, "both paths reach the one shared virtual subobject")
	assert.Same(t, ast.Decl(m), res.Single())
}

func TestMemberLookupOverriddenVirtualNotAmbiguous(t *testing.T) {
	tctx := newTypes()
	tu := ast.NewTranslationUnit()

	fnTy := tctx.GetFunction(tctx.GetBuiltin(types.Void), nil, types.FunctionInfo{})

	base := completeRecord("B", tu.AsDeclContext())
	baseFn := ast.NewFunctionDecl(ast.Ident("visit"), 0, fnTy, base.AsDeclContext())
	baseFn.Virtual = true
	baseFn.SetAccess(ast.ASPublic)
	base.AsDeclContext().Add(baseFn)

	// One path holds the overrider of the declaration the other path sees.
	left := completeRecord("L", tu.AsDeclContext())
	left.Bases = []ast.BaseSpecifier{{Class: base, Access: ast.ASPublic}}
	overrider := ast.NewFunctionDecl(ast.Ident("visit"), 0, fnTy, left.AsDeclContext())
	overrider.Virtual = true
	overrider.Overrides = baseFn
	overrider.SetAccess(ast.ASPublic)
	left.AsDeclContext().Add(overrider)

	right := completeRecord("R", tu.AsDeclContext())
	right.Bases = []ast.BaseSpecifier{{Class: base, Access: ast.ASPublic}}

	derived := completeRecord("D", tu.AsDeclContext())
	derived.Bases = []ast.BaseSpecifier{
		{Class: left, Access: ast.ASPublic},
		{Class: right, Access: ast.ASPublic},
	}

	res := Member(derived, ast.Ident("visit"), Ordinary)
	assert.False(t, res.Ambiguous, "every path reaches the same final overrider")
	assert.Same(t, ast.Decl(overrider), res.Single())
}

// -----------------------------------------------------------------------------

func TestArgumentDependentLookup(t *testing.T) {
	tctx := newTypes()
	tu := ast.NewTranslationUnit()

	ns := ast.NewNamespaceDecl(ast.Ident("N"), 0, tu.AsDeclContext(), false)
	tu.AsDeclContext().Add(ns)

	srec := completeRecord("S", ns.AsDeclContext())
	sTy := tctx.GetRecord(srec)

	fnTy := tctx.GetFunction(tctx.GetBuiltin(types.Void), []types.Type{sTy}, types.FunctionInfo{})
	k := ast.NewFunctionDecl(ast.Ident("k"), 0, fnTy, ns.AsDeclContext())
	ns.AsDeclContext().Add(k)

	// Unqualified lookup from the TU finds nothing; ADL reaches N::k through
	// the argument's class.
	assert.True(t, Unqualified(tu.AsDeclContext(), ast.Ident("k"), Ordinary).Empty())

	found := ArgumentDependent(ast.Ident("k"), []types.Type{sTy})
	require.Len(t, found, 1)
	assert.Same(t, ast.Decl(k), found[0])
}

func TestADLFindsFriendInjected(t *testing.T) {
	tctx := newTypes()
	tu := ast.NewTranslationUnit()

	srec := completeRecord("S", tu.AsDeclContext())
	sTy := tctx.GetRecord(srec)

	fnTy := tctx.GetFunction(tctx.GetBuiltin(types.Void), []types.Type{sTy}, types.FunctionInfo{})
	fr := ast.NewFunctionDecl(ast.Ident("swap"), 0, fnTy, tu.AsDeclContext())
	fr.FriendInjected = true
	tu.AsDeclContext().Add(fr)

	// Ordinary lookup skips friend-injected declarations.
	assert.True(t, Unqualified(tu.AsDeclContext(), ast.Ident("swap"), Ordinary).Empty())

	found := ArgumentDependent(ast.Ident("swap"), []types.Type{sTy})
	require.Len(t, found, 1)
	assert.Same(t, ast.Decl(fr), found[0])
}

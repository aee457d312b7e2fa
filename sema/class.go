package sema

import (
	"cfront/ast"
	"cfront/lookup"
	"cfront/report"
	"cfront/types"
)

// ActOnTagDecl resolves a class-key declaration `struct S` / `class C` /
// `union U`: a prior tag of the same name is reused, otherwise a new
// incomplete record is declared in the current context.
func (s *Sema) ActOnTagDecl(name ast.DeclName, tag ast.TagKind, loc report.SourceLoc) *ast.RecordDecl {
	ctx := s.CurrentCtx()

	if prev := findPrevious(ctx, name, ast.DKRecord); prev != nil {
		prd := prev.(*ast.RecordDecl)
		if prd.Tag != tag {
			s.Reporter.Error(loc, "err-tag-mismatch",
				"use of %s with a tag type that does not match previous declaration", name.String()).
				WithNote(report.Note(prd.Loc(), "note-prev-decl", "previous declaration is here"))
		}

		rd := ast.NewRecordDecl(name, loc, tag, ctx)
		ast.LinkRedecl(rd, prd)
		ctx.Add(rd)
		return rd
	}

	rd := ast.NewRecordDecl(name, loc, tag, ctx)
	ctx.Add(rd)
	return rd
}

// ActOnStartClass opens a class definition, making the class a complete-type
// island for its own member declarations.
func (s *Sema) ActOnStartClass(rd *ast.RecordDecl) {
	if def := rd.CanonicalRecord().Definition(); def != nil && def != rd {
		s.Reporter.Error(rd.Loc(), "err-redefinition",
			"redefinition of %s", rd.DeclName().String()).
			WithNote(report.Note(def.Loc(), "note-prev-decl", "previous definition is here"))
		rd.SetInvalid()
	}

	rd.State = ast.ClassBeingDefined
	s.classStack = append(s.classStack, rd)
	s.PushScope(lookup.ScopeClass, rd.AsDeclContext())
}

// ActOnBaseSpecifier attaches one base class to a class being defined.
func (s *Sema) ActOnBaseSpecifier(rd *ast.RecordDecl, base *ast.RecordDecl, access ast.AccessSpecifier, virtual bool, loc report.SourceLoc) {
	if !base.DefinitionComplete() {
		s.Reporter.Error(loc, "err-incomplete-base",
			"base class %s is incomplete", base.DeclName().String())
		return
	}

	if base.CanonicalRecord().Definition().Tag == ast.TagUnion {
		s.Reporter.Error(loc, "err-union-base", "unions cannot be base classes")
		return
	}

	if access == ast.ASNone {
		// The default base access follows the class key.
		if rd.Tag == ast.TagClass {
			access = ast.ASPrivate
		} else {
			access = ast.ASPublic
		}
	}

	rd.Bases = append(rd.Bases, ast.BaseSpecifier{Class: base, Access: access, Virtual: virtual, Loc: loc})
}

// ActOnField declares a non-static data member of the class being defined.
func (s *Sema) ActOnField(rd *ast.RecordDecl, name ast.DeclName, loc report.SourceLoc, ty types.Type, mutable bool) *ast.FieldDecl {
	fd := ast.NewFieldDecl(name, loc, ty)
	fd.Mutable = mutable

	if !ty.Dependence().IsDependent() && !types.IsComplete(ty) && types.AsReference(ty.Canonical()) == nil {
		s.Reporter.Error(loc, "err-incomplete-field",
			"field %s has incomplete type %s", name.String(), ty.Repr())
		fd.SetInvalid()
	}

	if !name.Empty() {
		if prior := rd.Lookup(name); len(prior) > 0 {
			s.Reporter.Error(loc, "err-member-redecl",
				"duplicate member %s", name.String()).
				WithNote(report.Note(prior[0].Loc(), "note-prev-decl", "previous declaration is here"))
			fd.SetInvalid()
		}
	}

	rd.AsDeclContext().Add(fd)
	return fd
}

// ActOnMethod declares a member function of the class being defined.
func (s *Sema) ActOnMethod(rd *ast.RecordDecl, name ast.DeclName, loc report.SourceLoc, ty types.Type, params []*ast.ParamDecl, quals types.Qualifiers, static, virtual bool) *ast.FunctionDecl {
	fd := ast.NewFunctionDecl(name, loc, ty, rd.AsDeclContext())
	fd.Params = params
	fd.MethodQuals = quals
	fd.Static = static
	fd.Virtual = virtual

	for _, p := range params {
		fd.AsDeclContext().Add(p)
	}

	if static && quals != 0 {
		s.Reporter.Error(loc, "err-static-quals",
			"static member function %s cannot have cv-qualifiers", name.String())
		fd.SetInvalid()
	}

	for _, prior := range rd.Lookup(name) {
		pfd, ok := ast.ResolveShadow(prior).(*ast.FunctionDecl)
		if !ok {
			continue
		}

		if types.Same(pfd.Type, ty) && pfd.MethodQuals == quals {
			s.Reporter.Error(loc, "err-member-redecl",
				"class member %s cannot be redeclared", name.String()).
				WithNote(report.Note(pfd.Loc(), "note-prev-decl", "previous declaration is here"))
			fd.SetInvalid()
			break
		}
	}

	if fd.IsConstructor() {
		rd.HasUserCtor = true
	}

	if fd.IsDestructor() {
		rd.HasUserDtor = true
	}

	rd.AsDeclContext().Add(fd)
	return fd
}

// ActOnFriendFunction grants a namespace-scope function friendship.
func (s *Sema) ActOnFriendFunction(rd *ast.RecordDecl, fn *ast.FunctionDecl, loc report.SourceLoc) {
	rd.FriendFunctions = append(rd.FriendFunctions, fn)
	rd.AsDeclContext().Add(ast.NewFriendDecl(loc, fn))
}

// ActOnFriendClass grants another class friendship.
func (s *Sema) ActOnFriendClass(rd *ast.RecordDecl, friend *ast.RecordDecl, loc report.SourceLoc) {
	rd.FriendClasses = append(rd.FriendClasses, friend)
	rd.AsDeclContext().Add(ast.NewFriendDecl(loc, friend))
}

// ActOnFinishClass closes a class definition: the class completes, its layout
// is computed, virtual overrides are linked, and triviality is fixed.
func (s *Sema) ActOnFinishClass(rd *ast.RecordDecl) {
	s.PopScope()
	s.classStack = s.classStack[:len(s.classStack)-1]

	rd.State = ast.ClassComplete

	s.linkOverrides(rd)
	s.computeTriviality(rd)
	s.computeLayout(rd)
}

// linkOverrides connects each virtual member function to the base-class
// function it overrides, propagating virtualness to implicit overriders.
func (s *Sema) linkOverrides(rd *ast.RecordDecl) {
	for _, m := range rd.Methods() {
		if m.IsConstructor() || m.Static {
			continue
		}

		overridden := s.findOverridden(rd, m)
		if overridden == nil {
			continue
		}

		// A function matching a base virtual function is virtual even without
		// the keyword.
		m.Virtual = true
		m.Overrides = overridden
	}

	for _, m := range rd.Methods() {
		if m.Virtual {
			rd.Polymorphic = true
			break
		}
	}

	for _, b := range rd.Bases {
		if def := b.Class.CanonicalRecord().Definition(); def != nil && def.Polymorphic {
			rd.Polymorphic = true
		}
	}
}

// findOverridden searches the bases for a virtual function the method
// overrides: same name, same parameter types, same cv-qualification.
func (s *Sema) findOverridden(rd *ast.RecordDecl, m *ast.FunctionDecl) *ast.FunctionDecl {
	for _, b := range rd.Bases {
		def := b.Class.CanonicalRecord().Definition()
		if def == nil {
			continue
		}

		for _, bm := range def.Methods() {
			if bm.Virtual && bm.DeclName().Key() == m.DeclName().Key() &&
				sameMethodSignature(bm, m) {
				return bm
			}
		}

		if deeper := s.findOverridden(def, m); deeper != nil {
			return deeper
		}
	}

	return nil
}

// sameMethodSignature compares parameter lists and cv-qualifiers; the return
// types may differ covariantly and are not checked here.
func sameMethodSignature(a, b *ast.FunctionDecl) bool {
	af, bf := a.FuncType(), b.FuncType()
	if af == nil || bf == nil || len(af.Params) != len(bf.Params) {
		return false
	}

	if a.MethodQuals != b.MethodQuals {
		return false
	}

	for i := range af.Params {
		if !types.Same(af.Params[i], bf.Params[i]) {
			return false
		}
	}

	return true
}

// computeTriviality fixes the class's triviality at completion: user-provided
// constructors or destructors, virtual functions or bases, and non-trivial
// subobjects all make the class non-trivial.  A member defaulted outside the
// class body counts as user-provided.
func (s *Sema) computeTriviality(rd *ast.RecordDecl) {
	trivial := !rd.HasUserCtor && !rd.HasUserDtor && !rd.Polymorphic

	for _, b := range rd.Bases {
		if b.Virtual {
			trivial = false
			break
		}

		if def := b.Class.CanonicalRecord().Definition(); def != nil && !def.Trivial {
			trivial = false
			break
		}
	}

	if trivial {
		for _, f := range rd.Fields() {
			frec := types.AsRecord(types.Unqualified(f.Type.Canonical()))
			if frec == nil {
				continue
			}

			if fdef, ok := frec.Decl.CanonicalTag().(*ast.RecordDecl); ok {
				if d := fdef.CanonicalRecord().Definition(); d != nil && !d.Trivial {
					trivial = false
					break
				}
			}
		}
	}

	rd.Trivial = trivial
}

// computeLayout assigns field offsets and the record's size and alignment.
// Unions overlay all fields at offset zero.
func (s *Sema) computeLayout(rd *ast.RecordDecl) {
	size, align := 0, 1

	if rd.Polymorphic && !basePolymorphic(rd) {
		// Room for the vtable pointer.
		size = s.Types.Target.PointerWidth
		align = s.Types.Target.PointerAlign
	}

	for _, b := range rd.Bases {
		def := b.Class.CanonicalRecord().Definition()
		if def == nil {
			continue
		}

		bsize, balign := def.LayoutSize, def.LayoutAlign
		if balign > 0 {
			size = alignUp(size, balign)
			if balign > align {
				align = balign
			}
		}

		size += bsize
	}

	for _, f := range rd.Fields() {
		if f.Invalid() {
			continue
		}

		fty := f.Type
		if types.AsReference(fty.Canonical()) != nil {
			fsize := s.Types.Target.PointerWidth
			falign := s.Types.Target.PointerAlign
			size, align = placeField(rd, f, size, align, fsize, falign)
			continue
		}

		fsize, err := s.Types.SizeOf(fty)
		if err != nil {
			continue
		}

		falign, err := s.Types.AlignOf(fty)
		if err != nil || falign == 0 {
			falign = 1
		}

		size, align = placeField(rd, f, size, align, fsize, falign)
	}

	if size == 0 {
		// Objects of empty classes still have distinct addresses.
		size = 1
	}

	size = alignUp(size, align)

	rd.LayoutSize = size
	rd.LayoutAlign = align
}

func basePolymorphic(rd *ast.RecordDecl) bool {
	for _, b := range rd.Bases {
		if def := b.Class.CanonicalRecord().Definition(); def != nil && def.Polymorphic {
			return true
		}
	}

	return false
}

func placeField(rd *ast.RecordDecl, f *ast.FieldDecl, size, align, fsize, falign int) (int, int) {
	if falign > align {
		align = falign
	}

	if rd.Tag == ast.TagUnion {
		f.Offset = 0
		if fsize > size {
			size = fsize
		}

		return size, align
	}

	size = alignUp(size, falign)
	f.Offset = size
	return size + fsize, align
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}

	rem := n % align
	if rem == 0 {
		return n
	}

	return n + align - rem
}

// ActOnThis builds the `this` expression inside a member function.
func (s *Sema) ActOnThis(span report.SourceRange) ast.Expr {
	fnScope := s.Scopes.Function()
	if fnScope == nil || fnScope.Fn == nil || !fnScope.Fn.IsInstanceMember() {
		s.Reporter.Error(span.Begin, "err-this-outside",
			"'this' may only be used inside a non-static member function")
		return s.errorExpr(span)
	}

	fn := fnScope.Fn
	owner, ok := fn.Parent().Owner().(*ast.RecordDecl)
	if !ok {
		return s.errorExpr(span)
	}

	classTy := s.Types.GetRecord(owner)
	if fn.MethodQuals != 0 {
		classTy = s.Types.AddQualifiers(classTy, fn.MethodQuals)
	}

	return ast.NewThisExpr(s.Types.GetPointer(classTy), span)
}

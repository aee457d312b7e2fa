package sema

import (
	"cfront/ast"
	"cfront/lookup"
	"cfront/overload"
	"cfront/report"
	"cfront/types"
	"cfront/util"
)

// ActOnMemberAccess analyzes `base.name` or `base->name`.
func (s *Sema) ActOnMemberAccess(base ast.Expr, arrow bool, name ast.DeclName, span report.SourceRange) ast.Expr {
	if base.Invalid() {
		return s.errorExpr(span, base)
	}

	if base.Dependence().IsDependent() {
		dne := ast.NewDependentNameExpr(name, base.Type(), s.Types.DependentType(), span)
		return dne
	}

	objTy := base.Type()
	if arrow {
		b := s.rvalue(base)
		pt := types.AsPointer(b.Type().Canonical())
		if pt == nil {
			s.Reporter.Error(span.Begin, "err-arrow-nonpointer",
				"member reference type %s is not a pointer; did you mean to use '.'?", base.Type().Repr()).
				WithRange(base.Range())
			return s.errorExpr(span, base)
		}

		base = b
		objTy = pt.Pointee
	}

	objQuals, stripped := types.QualsOf(objTy.Canonical())
	rec := types.AsRecord(stripped)
	if rec == nil {
		s.Reporter.Error(span.Begin, "err-member-nonclass",
			"member reference base type %s is not a class", objTy.Repr()).
			WithRange(base.Range())
		return s.errorExpr(span, base)
	}

	rd, ok := rec.Decl.CanonicalTag().(*ast.RecordDecl)
	if !ok || !rd.DefinitionComplete() {
		s.Reporter.Error(span.Begin, "err-member-incomplete",
			"member access into incomplete type %s", objTy.Repr())
		return s.errorExpr(span, base)
	}

	mem := lookup.Member(rd, name, lookup.Ordinary)

	if mem.Ambiguous {
		d := s.Reporter.Error(span.Begin, "err-ambiguous-member",
			"member %s found in multiple base-class subobjects of %s", name.String(), objTy.Repr())
		for _, cand := range mem.Decls {
			d.WithNote(report.Note(cand.Loc(), "note-found-here", "member found here"))
		}

		return s.errorExpr(span, base)
	}

	if mem.Empty() {
		s.Reporter.Error(span.Begin, "err-no-member",
			"no member named %s in %s", name.String(), objTy.Repr())
		return s.errorExpr(span, base)
	}

	s.checkMemberAccess(mem, name, span)

	// A member found in a base class is accessed through the base subobject.
	if mem.PathLength > 0 {
		baseTy := s.Types.GetRecord(mem.FoundIn.CanonicalRecord())
		if objQuals != 0 {
			baseTy = s.Types.AddQualifiers(baseTy, objQuals)
		}

		cast := ast.NewImplicitCastExpr(ast.CastDerivedToBase, base, baseTy, base.Category())
		cast.BasePathLen = mem.PathLength
		base = cast
	}

	if mem.IsOverloadSet() {
		return ast.NewUnresolvedMemberExpr(base, arrow, name, mem.Decls, s.Types.DependentType(), span)
	}

	d := ast.ResolveShadow(mem.Decls[0])
	switch dd := d.(type) {
	case *ast.FieldDecl:
		// The field's type picks up the object's cv-qualifiers.
		fieldTy := dd.Type
		if objQuals != 0 && !dd.Mutable {
			fieldTy = s.Types.AddQualifiers(fieldTy, objQuals)
		}

		vc := ast.LValue
		if !arrow && !base.Category().IsGLValue() {
			vc = ast.XValue
		}

		return ast.NewMemberExpr(base, arrow, dd, fieldTy, vc, span)

	case *ast.VarDecl:
		// Static data member: the object expression is evaluated but the
		// result does not depend on it.
		return ast.NewDeclRefExpr(dd, dd.Type, ast.LValue, span)

	case *ast.FunctionDecl:
		if dd.Static {
			return ast.NewDeclRefExpr(dd, dd.Type, ast.LValue, span)
		}

		return ast.NewMemberExpr(base, arrow, dd, dd.Type, ast.PRValue, span)

	case *ast.FunctionTemplateDecl:
		return ast.NewUnresolvedMemberExpr(base, arrow, name, mem.Decls, s.Types.DependentType(), span)

	case *ast.EnumConstantDecl:
		return ast.NewDeclRefExpr(dd, dd.Type, ast.PRValue, span)

	default:
		s.Reporter.Error(span.Begin, "err-not-a-value",
			"member %s does not name a value", name.String())
		return s.errorExpr(span, base)
	}
}

// checkMemberAccess diagnoses access-control violations: a non-public member
// is accessible only from inside its class, from a derived class when
// protected, or from a friend.
func (s *Sema) checkMemberAccess(mem lookup.MemberResult, name ast.DeclName, span report.SourceRange) {
	switch mem.Access {
	case ast.ASNone, ast.ASPublic:
		return
	}

	owner := mem.FoundIn.CanonicalRecord()

	for _, open := range s.classStack {
		oc := open.CanonicalRecord()
		if oc == owner {
			return
		}

		// Protected members are accessible from derived classes.
		if mem.Access == ast.ASProtected && types.DerivedToBasePath(oc, owner) > 0 {
			return
		}
	}

	if s.currentFunctionIsFriendOf(owner) || s.currentClassIsFriendOf(owner) {
		return
	}

	word := "private"
	if mem.Access == ast.ASProtected {
		word = "protected"
	}

	s.Reporter.Error(span.Begin, "err-access", "%s is a %s member of %s",
		name.String(), word, owner.TagName()).
		WithNote(report.Note(declLoc(mem.Decls), "note-declared-here", "declared %s here", word))
}

func declLoc(decls []ast.Decl) report.SourceLoc {
	if len(decls) > 0 {
		return decls[0].Loc()
	}

	return 0
}

// currentFunctionIsFriendOf returns whether the function being analyzed was
// granted friendship by the given class.
func (s *Sema) currentFunctionIsFriendOf(owner *ast.RecordDecl) bool {
	fnScope := s.Scopes.Function()
	if fnScope == nil || fnScope.Fn == nil {
		return false
	}

	def := owner.Definition()
	if def == nil {
		return false
	}

	friends := util.Map(def.FriendFunctions, func(f *ast.FunctionDecl) ast.Decl { return f.Canonical() })
	return util.Contains(friends, fnScope.Fn.Canonical())
}

// currentClassIsFriendOf returns whether any enclosing open class was granted
// friendship by the given class.
func (s *Sema) currentClassIsFriendOf(owner *ast.RecordDecl) bool {
	def := owner.Definition()
	if def == nil {
		return false
	}

	for _, open := range s.classStack {
		for _, f := range def.FriendClasses {
			if f.CanonicalRecord() == open.CanonicalRecord() {
				return true
			}
		}
	}

	return false
}

// resolveMemberCall resolves a call through an unresolved member overload
// set.
func (s *Sema) resolveMemberCall(ume *ast.UnresolvedMemberExpr, args []ast.Expr, span report.SourceRange) ast.Expr {
	cs := overload.NewCandidateSet(s.Conv, s.Inst)

	for _, d := range ume.Decls {
		switch fd := ast.ResolveShadow(d).(type) {
		case *ast.FunctionDecl:
			cs.AddFunction(fd, args, ume.Base)
		case *ast.FunctionTemplateDecl:
			cs.AddTemplate(fd, nil, args, ume.Base)
		}
	}

	res := cs.BestViable()
	switch res.Outcome {
	case overload.OutcomeNoViable:
		d := s.Reporter.Error(span.Begin, "err-no-viable-call",
			"no matching member function for call to %s", ume.Name.String())
		s.noteNonViable(d, cs.Candidates)
		return s.errorExpr(span, args...)

	case overload.OutcomeAmbiguous:
		d := s.Reporter.Error(span.Begin, "err-ambiguous-call",
			"call to member function %s is ambiguous", ume.Name.String())
		s.noteCandidates(d, res.Ambiguous)
		return s.errorExpr(span, args...)

	case overload.OutcomeDeleted:
		s.Reporter.Error(span.Begin, "err-deleted-call",
			"call to deleted member function %s", ume.Name.String()).
			WithNote(report.Note(res.Best.Fn.Loc(), "note-deleted-here", "declared deleted here"))
		return s.errorExpr(span, args...)
	}

	fn := res.Best.Fn
	converted := make([]ast.Expr, len(args))
	for i, a := range args {
		if i < len(fn.Params) && i < len(res.Best.Conversions) {
			converted[i] = s.applyICS(a, res.Best.Conversions[i], fn.Params[i].Type)
		} else {
			converted[i] = s.promoted(a)
		}
	}

	for i := len(converted); i < len(fn.Params); i++ {
		if fn.Params[i].Default != nil {
			converted = append(converted, fn.Params[i].Default)
		}
	}

	if fn.InstantiatedFrom != nil {
		s.Inst.RequireFunctionBody(fn)
	}

	retTy, vc := callResultOf(fn)
	callee := ast.NewMemberExpr(ume.Base, ume.Arrow, fn, fn.Type, ast.PRValue, span)
	return ast.NewCallExpr(callee, fn, converted, retTy, vc, span)
}

package sema

import (
	"cfront/ast"
	"cfront/eval"
	"cfront/lookup"
	"cfront/report"
	"cfront/types"
)

// ActOnVariableDecl declares a variable in the current context, merging it
// with any previous declaration of the same name.
func (s *Sema) ActOnVariableDecl(name ast.DeclName, loc report.SourceLoc, ty types.Type, storage ast.StorageClass, constexpr bool) *ast.VarDecl {
	ctx := s.CurrentCtx()

	vd := ast.NewVarDecl(name, loc, ty, storage)
	vd.Constexpr = constexpr

	if types.IsVoid(ty) {
		s.Reporter.Error(loc, "err-void-var", "variable %s declared with void type", name.String())
		vd.SetInvalid()
		ctx.Add(vd)
		return vd
	}

	if prev := findPrevious(ctx, name, ast.DKVar); prev != nil {
		pvd := prev.(*ast.VarDecl)

		if ctx.IsNamespaceOrTU() {
			if !types.Same(pvd.Type, ty) && !mergeableArrayTypes(pvd.Type, ty) {
				s.Reporter.Error(loc, "err-redecl-type",
					"redeclaration of %s with a different type: %s vs %s",
					name.String(), ty.Repr(), pvd.Type.Repr()).
					WithNote(report.Note(pvd.Loc(), "note-prev-decl", "previous declaration is here"))
				vd.SetInvalid()
			} else {
				ast.LinkRedecl(vd, pvd)
			}
		} else {
			s.Reporter.Error(loc, "err-redefinition", "redefinition of %s", name.String()).
				WithNote(report.Note(pvd.Loc(), "note-prev-decl", "previous definition is here"))
			vd.SetInvalid()
		}
	}

	ctx.Add(vd)
	return vd
}

// mergeableArrayTypes reports whether two declarations of the same variable
// use compatible array types: one with a bound and one without.
func mergeableArrayTypes(a, b types.Type) bool {
	aa, ba := types.AsArray(a), types.AsArray(b)
	if aa == nil || ba == nil {
		return false
	}

	if !types.Same(aa.Elem, ba.Elem) {
		return false
	}

	return aa.AKind == types.ArrayIncomplete || ba.AKind == types.ArrayIncomplete
}

// findPrevious returns the most recent prior declaration of the name with the
// given kind in the context, or nil.
func findPrevious(ctx *ast.DeclContext, name ast.DeclName, kind ast.DeclKind) ast.Decl {
	found := ctx.Lookup(name)
	for i := len(found) - 1; i >= 0; i-- {
		if found[i].Kind() == kind {
			return found[i]
		}
	}

	return nil
}

// ActOnVariableInit attaches and checks a variable's initializer.  Constexpr
// variables and const integral variables get their value evaluated and
// recorded for constant folding.
func (s *Sema) ActOnVariableInit(vd *ast.VarDecl, init ast.Expr) {
	if vd.Invalid() || init == nil {
		return
	}

	vd.IsDefinition = true

	if init.Invalid() {
		vd.SetInvalid()
		return
	}

	// Deduce auto from the initializer.
	if at := autoIn(vd.Type); at != nil && at.Deduced == nil {
		deduced := s.rvalue(init).Type()
		vd.Type = s.Types.GetDeducedAuto(deduced)
	}

	if init.Dependence().IsDependent() || vd.Type.Dependence().IsDependent() {
		vd.Init = init
		return
	}

	target := vd.Type
	if types.AsArray(target.Canonical()) != nil {
		// Array initialization from braces or a string literal is checked
		// element-wise; scalar conversion does not apply.
		vd.Init = init
	} else if list, ok := ast.IgnoreParens(init).(*ast.InitListExpr); ok {
		conv, ok := s.ListInitScalar(list, target)
		if !ok {
			vd.SetInvalid()
			return
		}

		vd.Init = conv
	} else {
		conv, ok := s.PerformImplicitConversion(init, target, "initialization")
		if !ok {
			vd.SetInvalid()
			return
		}

		vd.Init = conv
	}

	if vd.Constexpr || isConstIntegral(vd.Type) {
		s.evaluateConstInit(vd)
	}
}

// autoIn returns the auto type node inside a declared type, or nil.
func autoIn(t types.Type) *types.AutoType {
	switch v := types.StripSugar(t).(type) {
	case *types.AutoType:
		return v
	case *types.QualifiedType:
		return autoIn(v.Inner)
	case *types.PointerType:
		return autoIn(v.Pointee)
	case *types.ReferenceType:
		return autoIn(v.Pointee)
	}

	return nil
}

// isConstIntegral reports whether the type is const-qualified integral or
// enumeration, whose initialized variables are usable in constant
// expressions.
func isConstIntegral(t types.Type) bool {
	q, inner := types.QualsOf(t.Canonical())
	if !q.HasConst() {
		return false
	}

	return types.IsIntegral(inner) || types.AsEnum(inner) != nil
}

// evaluateConstInit evaluates a constant initializer, storing the value on
// the declaration and diagnosing constexpr failures.
func (s *Sema) evaluateConstInit(vd *ast.VarDecl) {
	v, fail := s.evaluator().Evaluate(vd.Init)
	if fail != nil {
		if vd.Constexpr {
			d := s.Reporter.Error(vd.Loc(), "err-constexpr-init",
				"constexpr variable %s must be initialized by a constant expression: %s",
				vd.DeclName().String(), fail.Msg)
			for _, t := range fail.Trail {
				d.WithNote(report.Note(fail.Loc, "note-in-call", "in call to %s", t))
			}

			vd.SetInvalid()
		}

		return
	}

	vd.ConstVal = &v
}

// ActOnFinishVariable finalizes a variable declared without an initializer.
func (s *Sema) ActOnFinishVariable(vd *ast.VarDecl) {
	if vd.Invalid() || vd.Init != nil {
		return
	}

	if vd.Constexpr {
		s.Reporter.Error(vd.Loc(), "err-constexpr-no-init",
			"constexpr variable %s requires an initializer", vd.DeclName().String())
		vd.SetInvalid()
		return
	}

	if vd.Parent() != nil && vd.Parent().IsNamespaceOrTU() {
		if !s.Opts.Dialect.IsCPlusPlus() && vd.Storage != ast.SCExtern {
			// C tentative definition, merged at end of translation unit.
			vd.Tentative = true
			vd.IsDefinition = true
			return
		}

		if vd.Storage == ast.SCExtern {
			return
		}

		vd.IsDefinition = true
	} else {
		vd.IsDefinition = true
	}

	if s.Opts.Dialect.IsCPlusPlus() {
		q, _ := types.QualsOf(vd.Type.Canonical())
		if q.HasConst() && types.AsRecord(types.Unqualified(vd.Type.Canonical())) == nil {
			s.Reporter.Error(vd.Loc(), "err-const-no-init",
				"const variable %s requires an initializer", vd.DeclName().String())
			vd.SetInvalid()
		}
	}
}

// -----------------------------------------------------------------------------

// ActOnFunctionDecl declares a function in the current context.  A
// declaration with the same name and the same signature redeclares; a
// different signature overloads.
func (s *Sema) ActOnFunctionDecl(name ast.DeclName, loc report.SourceLoc, ty types.Type, params []*ast.ParamDecl) *ast.FunctionDecl {
	ctx := s.CurrentCtx()

	fd := ast.NewFunctionDecl(name, loc, ty, ctx)
	fd.Params = params
	for _, p := range params {
		fd.AsDeclContext().Add(p)
	}

	for _, prior := range ctx.Lookup(name) {
		pfd, ok := ast.ResolveShadow(prior).(*ast.FunctionDecl)
		if !ok {
			continue
		}

		if types.Same(pfd.Type, ty) {
			ast.LinkRedecl(fd, pfd)
			s.inheritDefaultArgs(fd, pfd)
			break
		}

		if !s.Opts.Dialect.IsCPlusPlus() {
			s.Reporter.Error(loc, "err-conflicting-types",
				"conflicting types for %s", name.String()).
				WithNote(report.Note(pfd.Loc(), "note-prev-decl", "previous declaration is here"))
			fd.SetInvalid()
			break
		}

		if sameSignatureDifferentReturn(pfd, fd) {
			s.Reporter.Error(loc, "err-overload-return",
				"functions that differ only in their return type cannot be overloaded").
				WithNote(report.Note(pfd.Loc(), "note-prev-decl", "previous declaration is here"))
			fd.SetInvalid()
			break
		}
	}

	ctx.Add(fd)
	return fd
}

// inheritDefaultArgs carries default arguments forward along a redeclaration
// chain: a redeclaration may add defaults but not repeat them.
func (s *Sema) inheritDefaultArgs(fd, prev *ast.FunctionDecl) {
	for i, p := range fd.Params {
		if i >= len(prev.Params) {
			break
		}

		pp := prev.Params[i]
		if pp.Default == nil {
			continue
		}

		if p.Default != nil {
			s.Reporter.Error(p.Loc(), "err-default-redef",
				"redefinition of default argument for parameter %d", i+1).
				WithNote(report.Note(pp.Loc(), "note-prev-decl", "previous default argument is here"))
			continue
		}

		p.Default = pp.Default
	}
}

// sameSignatureDifferentReturn reports whether two functions have identical
// parameter lists but differing return types.
func sameSignatureDifferentReturn(a, b *ast.FunctionDecl) bool {
	af, bf := a.FuncType(), b.FuncType()
	if af == nil || bf == nil {
		return false
	}

	if types.Same(af.Return, bf.Return) {
		return false
	}

	if len(af.Params) != len(bf.Params) || af.Variadic != bf.Variadic {
		return false
	}

	if !a.MethodQuals.Superset(b.MethodQuals) || !b.MethodQuals.Superset(a.MethodQuals) {
		return false
	}

	for i := range af.Params {
		if !types.Same(af.Params[i], bf.Params[i]) {
			return false
		}
	}

	return true
}

// ActOnStartFunctionBody opens the function definition's scopes.  The caller
// analyzes the body statements, then closes with ActOnFinishFunctionBody.
func (s *Sema) ActOnStartFunctionBody(fd *ast.FunctionDecl) {
	if hasDefinition(fd) {
		s.Reporter.Error(fd.Loc(), "err-redefinition",
			"redefinition of %s", fd.DeclName().String()).
			WithNote(report.Note(definitionOf(fd).Loc(), "note-prev-decl", "previous definition is here"))
		fd.SetInvalid()
	}

	sc := s.PushScope(lookup.ScopeFunction, fd.AsDeclContext())
	sc.Fn = fd
}

// ActOnFinishFunctionBody closes the function's scope and attaches the body.
func (s *Sema) ActOnFinishFunctionBody(fd *ast.FunctionDecl, body ast.Stmt) {
	s.PopScope()
	fd.Body = body

	if fd.Constexpr && body != nil {
		s.checkConstexprBody(fd, body)
	}
}

func hasDefinition(fd *ast.FunctionDecl) bool {
	return definitionOf(fd) != nil
}

func definitionOf(fd *ast.FunctionDecl) *ast.FunctionDecl {
	for _, d := range ast.RedeclChain(fd) {
		if dfd := d.(*ast.FunctionDecl); dfd != fd && dfd.IsDefinition() {
			return dfd
		}
	}

	return nil
}

// checkConstexprBody enforces the structural restrictions on constexpr
// function bodies.
func (s *Sema) checkConstexprBody(fd *ast.FunctionDecl, body ast.Stmt) {
	if ft := fd.FuncType(); ft != nil && types.IsVoid(ft.Return) && !fd.IsConstructor() {
		s.Reporter.Error(fd.Loc(), "err-constexpr-void",
			"constexpr function %s must return a value", fd.DeclName().String())
	}
}

// -----------------------------------------------------------------------------

// ActOnTypedef declares a typedef or alias in the current context.
func (s *Sema) ActOnTypedef(name ast.DeclName, loc report.SourceLoc, under types.Type) *ast.TypedefDecl {
	ctx := s.CurrentCtx()

	if prev := findPrevious(ctx, name, ast.DKTypedef); prev != nil {
		ptd := prev.(*ast.TypedefDecl)
		if !types.Same(ptd.Under, under) {
			s.Reporter.Error(loc, "err-typedef-redef",
				"typedef redefinition of %s with different type: %s vs %s",
				name.String(), under.Repr(), ptd.Under.Repr()).
				WithNote(report.Note(ptd.Loc(), "note-prev-decl", "previous declaration is here"))
		}
	}

	td := ast.NewTypedefDecl(name, loc, under)
	ctx.Add(td)
	return td
}

// ActOnNamespace opens a namespace, reopening the original on redeclaration.
// The returned namespace is pushed as a scope; the caller pops it when the
// namespace body closes.
func (s *Sema) ActOnNamespace(name ast.DeclName, loc report.SourceLoc, inline bool) *ast.NamespaceDecl {
	ctx := s.CurrentCtx()

	if prev := findPrevious(ctx, name, ast.DKNamespace); prev != nil {
		pnd := prev.(*ast.NamespaceDecl)
		s.PushScope(lookup.ScopeNamespace, pnd.AsDeclContext())
		return pnd
	}

	nd := ast.NewNamespaceDecl(name, loc, ctx, inline)
	ctx.Add(nd)
	s.PushScope(lookup.ScopeNamespace, nd.AsDeclContext())
	return nd
}

// ActOnUsingDirective records `using namespace N` in the current context.
func (s *Sema) ActOnUsingDirective(nominated *ast.NamespaceDecl, loc report.SourceLoc) {
	s.CurrentCtx().Add(ast.NewUsingDirectiveDecl(loc, nominated))
}

// ActOnUsingDecl introduces the declarations a qualified name refers to into
// the current context through shadow declarations.
func (s *Sema) ActOnUsingDecl(qualifier *ast.DeclContext, name ast.DeclName, loc report.SourceLoc) *ast.UsingDecl {
	ud := ast.NewUsingDecl(name, loc)

	result := lookup.Qualified(qualifier, name, lookup.Ordinary)
	if result.Empty() {
		s.Reporter.Error(loc, "err-no-member",
			"no member named %s to bring into scope", name.String())
		ud.SetInvalid()
		s.CurrentCtx().Add(ud)
		return ud
	}

	ctx := s.CurrentCtx()
	ctx.Add(ud)
	for _, target := range result.Decls {
		shadow := ast.NewUsingShadowDecl(ud, ast.ResolveShadow(target))
		ud.Shadows = append(ud.Shadows, shadow)
		ctx.Add(shadow)
	}

	return ud
}

// -----------------------------------------------------------------------------

// ActOnStartEnum opens an enumeration definition.
func (s *Sema) ActOnStartEnum(name ast.DeclName, loc report.SourceLoc, under types.Type, scoped bool) *ast.EnumDecl {
	ctx := s.CurrentCtx()

	if under == nil {
		under = s.Types.IntType()
	}

	ed := ast.NewEnumDecl(name, loc, under, scoped, ctx)
	ctx.Add(ed)
	s.PushScope(lookup.ScopeBlock, ed.AsDeclContext())
	return ed
}

// ActOnEnumConstant declares one enumerator.  Without an explicit value the
// enumerator takes the previous value plus one.
func (s *Sema) ActOnEnumConstant(ed *ast.EnumDecl, name ast.DeclName, loc report.SourceLoc, value ast.Expr, prev *ast.EnumConstantDecl) *ast.EnumConstantDecl {
	var val int64
	if value != nil {
		v, fail := s.evaluator().EvaluateAsInt(value)
		if fail != nil {
			s.Reporter.Error(loc, "err-enum-value",
				"enumerator value is not a constant expression: %s", fail.Msg)
		} else {
			val = v
		}
	} else if prev != nil {
		val = prev.Value + 1
	}

	// Scoped enumerators have the enumeration type; unscoped ones do too but
	// also convert implicitly to the underlying type.
	ecd := ast.NewEnumConstantDecl(name, loc, s.Types.GetEnum(ed, ed.Under), val)
	ed.AsDeclContext().Add(ecd)

	if !ed.Scoped {
		// Unscoped enumerators are also visible in the enclosing scope.
		ed.Parent().Add(ast.NewUsingShadowDecl(nil, ecd))
	}

	return ecd
}

// ActOnFinishEnum closes the enumeration definition.
func (s *Sema) ActOnFinishEnum(ed *ast.EnumDecl) {
	s.PopScope()
	ed.Complete = true
}

// -----------------------------------------------------------------------------

// ActOnStaticAssert checks a static assertion.  A dependent condition defers
// the check to instantiation time; a failing comparison renders the evaluated
// operand values in a note.
func (s *Sema) ActOnStaticAssert(cond ast.Expr, message string, span report.SourceRange) *ast.StaticAssertDecl {
	sad := ast.NewStaticAssertDecl(span.Begin, cond, message)

	if cond == nil || cond.Invalid() {
		sad.SetInvalid()
		s.CurrentCtx().Add(sad)
		return sad
	}

	if cond.Dependence().IsDependent() {
		s.CurrentCtx().Add(sad)
		return sad
	}

	val, fail := s.evaluator().EvaluateAsInt(cond)
	if fail != nil {
		s.Reporter.Error(span.Begin, "err-static-assert-nonconst",
			"static assertion condition is not a constant expression: %s", fail.Msg).
			WithRange(cond.Range())
		sad.SetInvalid()
	} else if val == 0 {
		d := s.Reporter.Error(span.Begin, "err-static-assert", "static assertion failed%s",
			assertMessageSuffix(message)).
			WithRange(cond.Range())

		// A failed comparison reports what the operands actually evaluated to.
		if be, ok := ast.IgnoreParenCasts(cond).(*ast.BinaryExpr); ok && be.Op.IsComparison() {
			lv, lerr := s.evaluator().EvaluateAsInt(be.LHS)
			rv, rerr := s.evaluator().EvaluateAsInt(be.RHS)
			if lerr == nil && rerr == nil {
				d.WithNote(report.Note(cond.Range().Begin, "note-assert-value",
					"expression evaluates to %d %s %d", lv, be.Op.Spelling(), rv))
			}
		}

		sad.SetInvalid()
	}

	s.CurrentCtx().Add(sad)
	return sad
}

// assertMessageSuffix formats the optional static_assert message for the
// failure diagnostic.
func assertMessageSuffix(message string) string {
	if message == "" {
		return ""
	}

	return ": " + message
}

// FoldConstant attempts to evaluate an expression as an integral constant,
// reporting failure through the returned Failure rather than a diagnostic.
func (s *Sema) FoldConstant(e ast.Expr) (int64, *eval.Failure) {
	return s.evaluator().EvaluateAsInt(e)
}

package sema

import (
	"cfront/ast"
	"cfront/lookup"
	"cfront/report"
	"cfront/types"
)

// ActOnCompoundStmt builds a braced block from its analyzed statements.
func (s *Sema) ActOnCompoundStmt(body []ast.Stmt, span report.SourceRange) *ast.CompoundStmt {
	return ast.NewCompoundStmt(body, span)
}

// ActOnExprStmt wraps an expression used as a statement.
func (s *Sema) ActOnExprStmt(e ast.Expr, span report.SourceRange) ast.Stmt {
	if e == nil {
		return ast.NewNullStmt(span)
	}

	return ast.NewExprStmt(e, span)
}

// ActOnDeclStmt wraps local declarations in a statement.
func (s *Sema) ActOnDeclStmt(decls []ast.Decl, span report.SourceRange) ast.Stmt {
	return ast.NewDeclStmt(decls, span)
}

// ActOnReturn analyzes a return statement against the enclosing function's
// return type and tags the named return-value-optimization candidate.
func (s *Sema) ActOnReturn(value ast.Expr, span report.SourceRange) ast.Stmt {
	fnScope := s.Scopes.Function()
	if fnScope == nil || fnScope.Fn == nil {
		s.Reporter.Error(span.Begin, "err-return-outside", "return statement outside of a function")
		return ast.NewRecoveryStmt(span)
	}

	fn := fnScope.Fn
	ft := fn.FuncType()
	if ft == nil {
		return ast.NewRecoveryStmt(span)
	}

	retTy := ft.Return

	if value == nil {
		if !types.IsVoid(retTy) && !retTy.Dependence().IsDependent() && !fn.IsConstructor() && !fn.IsDestructor() {
			s.Reporter.Error(span.Begin, "err-return-no-value",
				"non-void function %s must return a value", fn.DeclName().String())
		}

		return ast.NewReturnStmt(nil, span)
	}

	if value.Invalid() {
		return ast.NewReturnStmt(value, span)
	}

	if types.IsVoid(retTy) {
		s.Reporter.Error(span.Begin, "err-return-value",
			"void function %s should not return a value", fn.DeclName().String()).
			WithRange(value.Range())
		return ast.NewReturnStmt(value, span)
	}

	if value.Dependence().IsDependent() || retTy.Dependence().IsDependent() {
		return ast.NewReturnStmt(value, span)
	}

	converted, ok := s.PerformImplicitConversion(value, retTy, "return statement")
	if !ok {
		return ast.NewReturnStmt(value, span)
	}

	rs := ast.NewReturnStmt(converted, span)

	// A return of a plain local variable by value marks it as the NRVO
	// candidate; returning two different locals clears the candidacy.
	if types.AsReference(retTy.Canonical()) == nil {
		if vd := returnedLocal(value); vd != nil {
			vd.NRVOCandidate = true
			rs.NRVOCandidate = vd
		}
	}

	return rs
}

// returnedLocal returns the local variable a return expression names
// directly, or nil.
func returnedLocal(e ast.Expr) *ast.VarDecl {
	dre, ok := ast.IgnoreParenCasts(e).(*ast.DeclRefExpr)
	if !ok {
		return nil
	}

	vd, ok := dre.Decl.(*ast.VarDecl)
	if !ok || vd.Kind() != ast.DKVar {
		return nil
	}

	if vd.Parent() == nil || vd.Parent().IsNamespaceOrTU() {
		return nil
	}

	if vd.Storage != ast.SCNone && vd.Storage != ast.SCAuto {
		return nil
	}

	return vd
}

// ActOnIf analyzes an if statement.
func (s *Sema) ActOnIf(cond ast.Expr, then, els ast.Stmt, span report.SourceRange) ast.Stmt {
	c, _ := s.contextuallyConvertToBool(cond, "if condition")
	return ast.NewIfStmt(c, then, els, span)
}

// ActOnStartWhile opens a while loop's scope; the body may break or
// continue.
func (s *Sema) ActOnStartWhile() {
	sc := s.PushScope(lookup.ScopeControl, s.CurrentCtx())
	sc.BreakTarget = true
	sc.ContinueTarget = true
}

// ActOnFinishWhile closes the loop scope and builds the statement.
func (s *Sema) ActOnFinishWhile(cond ast.Expr, body ast.Stmt, span report.SourceRange) ast.Stmt {
	s.PopScope()

	c, _ := s.contextuallyConvertToBool(cond, "while condition")
	return ast.NewWhileStmt(c, body, span)
}

// ActOnStartFor opens a for loop's scope; init declarations live in it.
func (s *Sema) ActOnStartFor() {
	sc := s.PushScope(lookup.ScopeControl, s.CurrentCtx())
	sc.BreakTarget = true
	sc.ContinueTarget = true
}

// ActOnFinishFor closes the loop scope and builds the statement.
func (s *Sema) ActOnFinishFor(init ast.Stmt, cond, inc ast.Expr, body ast.Stmt, span report.SourceRange) ast.Stmt {
	s.PopScope()

	if cond != nil {
		cond, _ = s.contextuallyConvertToBool(cond, "for condition")
	}

	return ast.NewForStmt(init, cond, inc, body, span)
}

// ActOnBreak analyzes a break statement.
func (s *Sema) ActOnBreak(span report.SourceRange) ast.Stmt {
	if !s.Scopes.InBreakable() {
		s.Reporter.Error(span.Begin, "err-break-outside",
			"break statement not in a loop or switch")
		return ast.NewRecoveryStmt(span)
	}

	return ast.NewBreakStmt(span)
}

// ActOnContinue analyzes a continue statement.
func (s *Sema) ActOnContinue(span report.SourceRange) ast.Stmt {
	if !s.Scopes.InContinuable() {
		s.Reporter.Error(span.Begin, "err-continue-outside",
			"continue statement not in a loop")
		return ast.NewRecoveryStmt(span)
	}

	return ast.NewContinueStmt(span)
}

// ActOnStartSwitch checks the switch condition and opens the switch scope.
func (s *Sema) ActOnStartSwitch(cond ast.Expr, span report.SourceRange) *ast.SwitchStmt {
	if cond != nil && !cond.Invalid() && !cond.Dependence().IsDependent() {
		c := s.rvalue(cond)

		// The condition promotes; enums switch over their underlying type.
		if et := types.AsEnum(types.Unqualified(c.Type().Canonical())); et != nil {
			cond = c
		} else if types.IsIntegral(c.Type()) {
			cond = s.promoted(cond)
		} else {
			s.Reporter.Error(span.Begin, "err-switch-cond",
				"switch condition has non-integral type %s", cond.Type().Repr()).
				WithRange(cond.Range())
		}
	}

	sw := ast.NewSwitchStmt(cond, span)

	sc := s.PushScope(lookup.ScopeControl, s.CurrentCtx())
	sc.BreakTarget = true
	sc.SwitchScope = true

	return sw
}

// ActOnCase analyzes one case label, evaluating its value and diagnosing
// duplicates within the switch.
func (s *Sema) ActOnCase(sw *ast.SwitchStmt, value ast.Expr, body ast.Stmt, span report.SourceRange) ast.Stmt {
	var val int64
	if value != nil && !value.Invalid() {
		v, fail := s.evaluator().EvaluateAsInt(value)
		if fail != nil {
			s.Reporter.Error(span.Begin, "err-case-value",
				"case value is not a constant expression: %s", fail.Msg).
				WithRange(value.Range())
		} else {
			val = v
		}
	}

	cs := ast.NewCaseStmt(value, val, body, span)

	if value != nil {
		for _, prev := range sw.Cases {
			if prev.Value != nil && prev.ValueInt == val {
				s.Reporter.Error(span.Begin, "err-duplicate-case",
					"duplicate case value %d", val).
					WithNote(report.Note(prev.Loc(), "note-prev-case", "previous case is here"))
				break
			}
		}
	} else {
		for _, prev := range sw.Cases {
			if prev.Value == nil {
				s.Reporter.Error(span.Begin, "err-duplicate-default",
					"multiple default labels in one switch").
					WithNote(report.Note(prev.Loc(), "note-prev-case", "previous default is here"))
				break
			}
		}
	}

	sw.Cases = append(sw.Cases, cs)
	return cs
}

// ActOnFinishSwitch closes the switch scope and attaches the body.
func (s *Sema) ActOnFinishSwitch(sw *ast.SwitchStmt, body ast.Stmt) ast.Stmt {
	s.PopScope()
	sw.Body = body
	return sw
}

// ActOnThrow analyzes a throw expression statement.  A bare rethrow carries
// no value.
func (s *Sema) ActOnThrow(value ast.Expr, span report.SourceRange) ast.Stmt {
	if value != nil && !value.Invalid() && !value.Dependence().IsDependent() {
		value = s.rvalue(value)

		if types.IsVoid(value.Type()) {
			s.Reporter.Error(span.Begin, "err-throw-void", "cannot throw an expression of type void").
				WithRange(value.Range())
		}
	}

	return ast.NewThrowStmt(value, span)
}

// ActOnStartCatch opens a handler scope and declares the exception variable
// in it.
func (s *Sema) ActOnStartCatch(exception *ast.VarDecl) {
	s.PushScope(lookup.ScopeControl, s.CurrentCtx())

	if exception != nil {
		s.CurrentCtx().Add(exception)
	}
}

// ActOnFinishCatch closes the handler scope and builds the handler.
func (s *Sema) ActOnFinishCatch(exception *ast.VarDecl, handler *ast.CompoundStmt, span report.SourceRange) *ast.CatchStmt {
	s.PopScope()
	return ast.NewCatchStmt(exception, handler, span)
}

// ActOnTry builds a try statement from its block and handlers.
func (s *Sema) ActOnTry(body *ast.CompoundStmt, handlers []*ast.CatchStmt, span report.SourceRange) ast.Stmt {
	if len(handlers) == 0 {
		s.Reporter.Error(span.Begin, "err-try-no-handlers", "try statement requires at least one handler")
	}

	return ast.NewTryStmt(body, handlers, span)
}

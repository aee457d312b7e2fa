package sema

import (
	"cfront/ast"
	"cfront/eval"
	"cfront/lookup"
	"cfront/overload"
	"cfront/report"
	"cfront/types"
)

// ActOnIntegerLiteral builds an integer literal of type int.
func (s *Sema) ActOnIntegerLiteral(value int64, span report.SourceRange) ast.Expr {
	return ast.NewIntegerLiteral(value, s.Types.IntType(), span)
}

// ActOnBoolLiteral builds a boolean literal.
func (s *Sema) ActOnBoolLiteral(value bool, span report.SourceRange) ast.Expr {
	return ast.NewBoolLiteral(value, s.Types.GetBuiltin(types.Bool), span)
}

// ActOnFloatingLiteral builds a floating literal of type double.
func (s *Sema) ActOnFloatingLiteral(value float64, span report.SourceRange) ast.Expr {
	return ast.NewFloatingLiteral(value, s.Types.GetBuiltin(types.Double), span)
}

// ActOnStringLiteral builds a string literal of array-of-const-char type.
func (s *Sema) ActOnStringLiteral(value string, span report.SourceRange) ast.Expr {
	elem := s.Types.AddQualifiers(s.Types.GetBuiltin(types.Char), types.QualConst)
	ty := s.Types.GetConstantArray(elem, int64(len(value))+1)
	return ast.NewStringLiteral(value, ty, span)
}

// ActOnNullPtrLiteral builds a nullptr literal.
func (s *Sema) ActOnNullPtrLiteral(span report.SourceRange) ast.Expr {
	return ast.NewNullPtrLiteral(s.Types.GetBuiltin(types.NullPtr), span)
}

// -----------------------------------------------------------------------------

// ActOnIdExpr resolves an unqualified identifier in expression context.
func (s *Sema) ActOnIdExpr(name ast.DeclName, span report.SourceRange) ast.Expr {
	result := lookup.Unqualified(s.CurrentCtx(), name, lookup.Ordinary)

	if result.Ambiguous {
		d := s.Reporter.Error(span.Begin, "err-ambiguous-ref", "reference to %s is ambiguous", name.String())
		for _, cand := range result.Decls {
			d.WithNote(report.Note(cand.Loc(), "note-candidate", "candidate found by name lookup"))
		}

		return s.errorExpr(span)
	}

	if result.Empty() {
		if s.inTemplate() {
			// Resolution waits for instantiation.
			return ast.NewDependentNameExpr(name, nil, s.Types.DependentType(), span)
		}

		s.Reporter.Error(span.Begin, "err-undeclared", "use of undeclared identifier %s", name.String())
		return s.errorExpr(span)
	}

	return s.buildDeclRef(result, name, span, true)
}

// ActOnCalleeId resolves the callee of a call written as an unqualified
// name.  Unlike ActOnIdExpr an empty lookup is not an error here:
// argument-dependent lookup may still find the function once the arguments
// are known at the call site.
func (s *Sema) ActOnCalleeId(name ast.DeclName, span report.SourceRange) ast.Expr {
	result := lookup.Unqualified(s.CurrentCtx(), name, lookup.Ordinary)

	if result.Empty() && !result.Ambiguous {
		if s.inTemplate() {
			return ast.NewDependentNameExpr(name, nil, s.Types.DependentType(), span)
		}

		return ast.NewUnresolvedLookupExpr(name, nil, true, s.Types.DependentType(), span)
	}

	return s.ActOnIdExpr(name, span)
}

// ActOnQualifiedIdExpr resolves a qualified identifier `Q::name` in
// expression context.
func (s *Sema) ActOnQualifiedIdExpr(qualifier *ast.DeclContext, name ast.DeclName, span report.SourceRange) ast.Expr {
	result := lookup.Qualified(qualifier, name, lookup.Ordinary)

	if result.Ambiguous {
		d := s.Reporter.Error(span.Begin, "err-ambiguous-ref", "reference to %s is ambiguous", name.String())
		for _, cand := range result.Decls {
			d.WithNote(report.Note(cand.Loc(), "note-candidate", "candidate found by name lookup"))
		}

		return s.errorExpr(span)
	}

	if result.Empty() {
		s.Reporter.Error(span.Begin, "err-no-member", "no member named %s in this scope", name.String())
		return s.errorExpr(span)
	}

	// Qualified names never trigger argument-dependent lookup.
	return s.buildDeclRef(result, name, span, false)
}

// buildDeclRef turns a successful lookup into a reference expression.
func (s *Sema) buildDeclRef(result lookup.Result, name ast.DeclName, span report.SourceRange, wantsADL bool) ast.Expr {
	if result.IsOverloadSet() {
		return ast.NewUnresolvedLookupExpr(name, result.Decls, wantsADL, s.Types.DependentType(), span)
	}

	d := ast.ResolveShadow(result.Decls[0])

	switch dd := d.(type) {
	case *ast.VarDecl:
		return ast.NewDeclRefExpr(dd, dd.Type, ast.LValue, span)

	case *ast.ParamDecl:
		return ast.NewDeclRefExpr(dd, dd.Type, ast.LValue, span)

	case *ast.EnumConstantDecl:
		return ast.NewDeclRefExpr(dd, dd.Type, ast.PRValue, span)

	case *ast.FunctionDecl:
		return ast.NewDeclRefExpr(dd, dd.Type, ast.LValue, span)

	case *ast.FunctionTemplateDecl:
		return ast.NewUnresolvedLookupExpr(name, result.Decls, wantsADL, s.Types.DependentType(), span)

	case *ast.NonTypeTemplateParamDecl:
		ref := ast.NewDeclRefExpr(dd, dd.Type, ast.PRValue, span)
		ref.Dep |= types.DepValue | types.DepInstantiation
		return ref

	default:
		s.Reporter.Error(span.Begin, "err-not-a-value", "%s does not name a value", name.String())
		return s.errorExpr(span)
	}
}

// -----------------------------------------------------------------------------
// Standard conversions applied to operands.

// decay applies array-to-pointer and function-to-pointer decay.
func (s *Sema) decay(e ast.Expr) ast.Expr {
	c := types.Unqualified(e.Type().Canonical())

	if at := types.AsArray(c); at != nil {
		return ast.NewImplicitCastExpr(ast.CastArrayToPointer, e, s.Types.GetPointer(at.Elem), ast.PRValue)
	}

	if types.AsFunction(c) != nil {
		return ast.NewImplicitCastExpr(ast.CastFunctionToPointer, e, s.Types.GetPointer(c), ast.PRValue)
	}

	return e
}

// rvalue loads a glvalue, dropping top-level qualifiers.
func (s *Sema) rvalue(e ast.Expr) ast.Expr {
	e = s.decay(e)
	if !e.Category().IsGLValue() {
		return e
	}

	ty := types.Unqualified(e.Type().Canonical())
	return ast.NewImplicitCastExpr(ast.CastLValueToRValue, e, ty, ast.PRValue)
}

// promoted loads and integral-promotes an arithmetic operand.
func (s *Sema) promoted(e ast.Expr) ast.Expr {
	e = s.rvalue(e)

	pt := s.Types.Promote(e.Type())
	if !types.Same(pt, e.Type()) {
		e = ast.NewImplicitCastExpr(ast.CastIntegralPromotion, e, pt, ast.PRValue)
	}

	return e
}

// convertTo coerces an operand to a target arithmetic type.
func (s *Sema) convertTo(e ast.Expr, to types.Type) ast.Expr {
	if types.Same(e.Type(), to) {
		return e
	}

	sb := types.AsBuiltin(types.Unqualified(e.Type().Canonical()))
	db := types.AsBuiltin(to.Canonical())

	ck := ast.CastIntegralCast
	switch {
	case sb != nil && db != nil && sb.IsFloating() && db.IsFloating():
		ck = ast.CastFloatingCast
	case sb != nil && db != nil && sb.IsFloating():
		ck = ast.CastFloatingToIntegral
	case db != nil && db.IsFloating():
		ck = ast.CastIntegralToFloating
	}

	return ast.NewImplicitCastExpr(ck, e, to, ast.PRValue)
}

// contextuallyConvertToBool converts a condition operand to bool.
func (s *Sema) contextuallyConvertToBool(e ast.Expr, what string) (ast.Expr, bool) {
	if e.Invalid() {
		return e, false
	}

	if e.Dependence().IsDependent() {
		return e, true
	}

	boolTy := s.Types.GetBuiltin(types.Bool)
	converted, ok := s.PerformImplicitConversion(e, boolTy, what)
	return converted, ok
}

// PerformImplicitConversion converts an expression to a target type,
// diagnosing failure.  The what string names the conversion context in the
// diagnostic.
func (s *Sema) PerformImplicitConversion(e ast.Expr, to types.Type, what string) (ast.Expr, bool) {
	if e.Invalid() || types.IsError(to) {
		return e, false
	}

	if e.Dependence().IsDependent() || to.Dependence().IsDependent() {
		return e, true
	}

	ics := s.Conv.TryImplicitConversion(e, to, true)
	if !ics.Viable() {
		s.Reporter.Error(e.Loc(), "err-no-conversion",
			"no viable conversion from %s to %s in %s", e.Type().Repr(), to.Repr(), what).
			WithRange(e.Range())
		return e, false
	}

	// Narrowing is an error only in braced initialization, which has its own
	// path; here it warns.
	if ics.IsNarrowing() && !s.constantFitsExactly(e, to) {
		s.Reporter.Warn(e.Loc(), "warn-narrowing",
			"implicit conversion from %s to %s in %s may lose information",
			e.Type().Repr(), to.Repr(), what).
			WithRange(e.Range())
	}

	return s.applyICS(e, ics, to), true
}

// constantFitsExactly reports whether an expression is a constant the target
// type represents without change.
func (s *Sema) constantFitsExactly(e ast.Expr, to types.Type) bool {
	v, fail := s.evaluator().Evaluate(e)
	if fail != nil {
		return false
	}

	return eval.Representable(s.Types, v, to)
}

// ListInitScalar checks braced initialization of a scalar, `T x{v}`, where
// narrowing is an error rather than a warning.
func (s *Sema) ListInitScalar(list *ast.InitListExpr, to types.Type) (ast.Expr, bool) {
	if len(list.Inits) == 0 {
		// Value-initialization.
		return list, true
	}

	if len(list.Inits) > 1 {
		s.Reporter.Error(list.Loc(), "err-init-list-arity",
			"scalar initializer list must have at most one element").
			WithRange(list.Range())
		return list, false
	}

	e := list.Inits[0]
	ics := s.Conv.TryImplicitConversion(e, to, true)
	if !ics.Viable() {
		s.Reporter.Error(e.Loc(), "err-no-conversion",
			"no viable conversion from %s to %s in initialization", e.Type().Repr(), to.Repr()).
			WithRange(e.Range())
		return list, false
	}

	if ics.IsNarrowing() && !s.constantFitsExactly(e, to) {
		s.Reporter.Error(e.Loc(), "err-narrowing",
			"narrowing conversion from %s to %s in braced initialization",
			e.Type().Repr(), to.Repr()).
			WithRange(e.Range())
		return list, false
	}

	return s.applyICS(e, ics, to), true
}

// applyICS materializes a computed conversion sequence as cast nodes.
func (s *Sema) applyICS(e ast.Expr, ics overload.ICS, to types.Type) ast.Expr {
	switch ics.Kind {
	case overload.ICSUserDefined:
		e = s.applyStandard(e, ics.Before, nil)

		if ics.UserFn.IsConstructor() {
			e = ast.NewConstructExpr(ics.UserFn, []ast.Expr{e}, classOf(s, ics.UserFn), e.Range())
		} else {
			mem := ast.NewMemberExpr(e, false, ics.UserFn, ics.UserFn.Type, ast.PRValue, e.Range())
			ret, vc := callResultOf(ics.UserFn)
			call := ast.NewCallExpr(mem, ics.UserFn, nil, ret, vc, e.Range())
			cast := ast.NewImplicitCastExpr(ast.CastUserDefined, call, ret, vc)
			cast.ConvFunc = ics.UserFn
			e = cast
		}

		return s.applyStandard(e, ics.After, to)

	case overload.ICSStandard:
		return s.applyStandard(e, ics.Std, to)

	default:
		return e
	}
}

func classOf(s *Sema, ctor *ast.FunctionDecl) types.Type {
	if rd, ok := ctor.Parent().Owner().(*ast.RecordDecl); ok {
		return s.Types.GetRecord(rd)
	}

	return s.Types.ErrorType()
}

// applyStandard materializes a standard conversion sequence.  The target may
// be nil for the inner half of a user-defined conversion.
func (s *Sema) applyStandard(e ast.Expr, seq overload.StandardSeq, to types.Type) ast.Expr {
	if seq.RefBinding && seq.DirectBinding {
		// Direct reference bindings keep the glvalue as is; a base path is
		// recorded on a derived-to-base cast.
		if seq.DerivedToBase > 0 && to != nil {
			ref := types.AsReference(to.Canonical())
			cast := ast.NewImplicitCastExpr(ast.CastDerivedToBase, e, ref.Pointee, e.Category())
			cast.BasePathLen = seq.DerivedToBase
			return cast
		}

		return e
	}

	switch seq.LvalueCast {
	case ast.CastArrayToPointer, ast.CastFunctionToPointer:
		e = s.decay(e)
	case ast.CastLValueToRValue:
		e = s.rvalue(e)
	}

	if seq.SecondCast != ast.CastNoOp {
		target := to
		if target == nil || types.AsReference(target.Canonical()) != nil {
			target = seq.To
		}

		if target != nil {
			if ref := types.AsReference(target.Canonical()); ref != nil {
				target = ref.Pointee
			}

			cast := ast.NewImplicitCastExpr(seq.SecondCast, e, target, ast.PRValue)
			cast.BasePathLen = seq.DerivedToBase
			e = cast
		}
	}

	if seq.QualAdjust && to != nil && types.AsReference(to.Canonical()) == nil {
		e = ast.NewImplicitCastExpr(ast.CastQualification, e, to, ast.PRValue)
	}

	return e
}

// -----------------------------------------------------------------------------

// ActOnUnaryOp analyzes a unary operator application.
func (s *Sema) ActOnUnaryOp(op ast.UnaryOpKind, operand ast.Expr, span report.SourceRange) ast.Expr {
	if operand.Invalid() {
		return s.errorExpr(span, operand)
	}

	if operand.Dependence().IsDependent() {
		return ast.NewUnaryExpr(op, operand, s.Types.DependentType(), ast.PRValue, span)
	}

	switch op {
	case ast.UnPlus, ast.UnMinus:
		e := s.promoted(operand)
		if !types.IsArithmetic(e.Type()) {
			s.Reporter.Error(span.Begin, "err-bad-operand",
				"invalid operand of type %s to unary %s", operand.Type().Repr(), spellUnary(op)).
				WithRange(operand.Range())
			return s.errorExpr(span, operand)
		}

		return ast.NewUnaryExpr(op, e, e.Type(), ast.PRValue, span)

	case ast.UnNot:
		e := s.promoted(operand)
		if !types.IsIntegral(e.Type()) {
			s.Reporter.Error(span.Begin, "err-bad-operand",
				"invalid operand of type %s to unary ~", operand.Type().Repr()).
				WithRange(operand.Range())
			return s.errorExpr(span, operand)
		}

		return ast.NewUnaryExpr(op, e, e.Type(), ast.PRValue, span)

	case ast.UnLNot:
		e, ok := s.contextuallyConvertToBool(operand, "logical negation")
		if !ok {
			return s.errorExpr(span, operand)
		}

		return ast.NewUnaryExpr(op, e, s.Types.GetBuiltin(types.Bool), ast.PRValue, span)

	case ast.UnDeref:
		e := s.rvalue(operand)
		pt := types.AsPointer(e.Type().Canonical())
		if pt == nil {
			s.Reporter.Error(span.Begin, "err-bad-deref",
				"indirection requires pointer operand, got %s", operand.Type().Repr()).
				WithRange(operand.Range())
			return s.errorExpr(span, operand)
		}

		return ast.NewUnaryExpr(op, e, pt.Pointee, ast.LValue, span)

	case ast.UnAddrOf:
		if !operand.Category().IsGLValue() {
			s.Reporter.Error(span.Begin, "err-addrof-rvalue",
				"cannot take the address of an rvalue").
				WithRange(operand.Range())
			return s.errorExpr(span, operand)
		}

		return ast.NewUnaryExpr(op, operand, s.Types.GetPointer(operand.Type()), ast.PRValue, span)

	case ast.UnPreInc, ast.UnPreDec, ast.UnPostInc, ast.UnPostDec:
		return s.actOnIncDec(op, operand, span)

	default:
		return s.errorExpr(span, operand)
	}
}

func (s *Sema) actOnIncDec(op ast.UnaryOpKind, operand ast.Expr, span report.SourceRange) ast.Expr {
	if !s.requireModifiableLValue(operand, "increment operand") {
		return s.errorExpr(span, operand)
	}

	c := types.Unqualified(operand.Type().Canonical())
	if !types.IsArithmetic(c) && types.AsPointer(c) == nil {
		s.Reporter.Error(span.Begin, "err-bad-operand",
			"cannot increment value of type %s", operand.Type().Repr()).
			WithRange(operand.Range())
		return s.errorExpr(span, operand)
	}

	vc := ast.PRValue
	if op == ast.UnPreInc || op == ast.UnPreDec {
		vc = ast.LValue
	}

	return ast.NewUnaryExpr(op, operand, types.Unqualified(operand.Type().Canonical()), vc, span)
}

// requireModifiableLValue checks that an expression may be assigned through.
func (s *Sema) requireModifiableLValue(e ast.Expr, what string) bool {
	if e.Category() != ast.LValue {
		s.Reporter.Error(e.Loc(), "err-not-lvalue", "%s must be a modifiable lvalue", what).
			WithRange(e.Range())
		return false
	}

	q, _ := types.QualsOf(e.Type().Canonical())
	if q.HasConst() {
		s.Reporter.Error(e.Loc(), "err-const-assign",
			"cannot modify %s: type %s is const-qualified", what, e.Type().Repr()).
			WithRange(e.Range())
		return false
	}

	return true
}

func spellUnary(op ast.UnaryOpKind) string {
	switch op {
	case ast.UnPlus:
		return "+"
	case ast.UnMinus:
		return "-"
	case ast.UnNot:
		return "~"
	case ast.UnLNot:
		return "!"
	default:
		return "?"
	}
}

// -----------------------------------------------------------------------------

// ActOnBinaryOp analyzes a binary operator application, dispatching to
// operator overloading when an operand has class or enumeration type.
func (s *Sema) ActOnBinaryOp(op ast.BinaryOpKind, lhs, rhs ast.Expr, span report.SourceRange) ast.Expr {
	if lhs.Invalid() || rhs.Invalid() {
		return s.errorExpr(span, lhs, rhs)
	}

	if ast.AnyDependent(lhs, rhs) {
		return ast.NewBinaryExpr(op, lhs, rhs, s.Types.DependentType(), ast.PRValue, span)
	}

	if op != ast.BinAssign && (types.IsClassOrEnum(lhs.Type()) || types.IsClassOrEnum(rhs.Type())) {
		if e, handled := s.buildOverloadedBinOp(op, lhs, rhs, span); handled {
			return e
		}
	}

	switch op {
	case ast.BinAdd, ast.BinSub:
		return s.actOnAdditive(op, lhs, rhs, span)

	case ast.BinMul, ast.BinDiv, ast.BinRem, ast.BinAnd, ast.BinOr, ast.BinXor:
		return s.actOnArithmetic(op, lhs, rhs, span)

	case ast.BinShl, ast.BinShr:
		l, r := s.promoted(lhs), s.promoted(rhs)
		if !types.IsIntegral(l.Type()) || !types.IsIntegral(r.Type()) {
			return s.badBinaryOperands(op, lhs, rhs, span)
		}

		return ast.NewBinaryExpr(op, l, r, l.Type(), ast.PRValue, span)

	case ast.BinLT, ast.BinGT, ast.BinLE, ast.BinGE, ast.BinEQ, ast.BinNE:
		return s.actOnComparison(op, lhs, rhs, span)

	case ast.BinLAnd, ast.BinLOr:
		l, okL := s.contextuallyConvertToBool(lhs, "logical operator")
		r, okR := s.contextuallyConvertToBool(rhs, "logical operator")
		if !okL || !okR {
			return s.errorExpr(span, lhs, rhs)
		}

		return ast.NewBinaryExpr(op, l, r, s.Types.GetBuiltin(types.Bool), ast.PRValue, span)

	case ast.BinAssign:
		return s.actOnAssignment(lhs, rhs, span)

	case ast.BinComma:
		// The comma result is the right operand itself, category preserved.
		return ast.NewBinaryExpr(op, lhs, rhs, rhs.Type(), rhs.Category(), span)

	default:
		return s.errorExpr(span, lhs, rhs)
	}
}

func (s *Sema) actOnArithmetic(op ast.BinaryOpKind, lhs, rhs ast.Expr, span report.SourceRange) ast.Expr {
	l, r := s.rvalue(lhs), s.rvalue(rhs)

	integralOnly := op == ast.BinRem || op == ast.BinAnd || op == ast.BinOr || op == ast.BinXor
	if integralOnly {
		if !types.IsIntegral(l.Type()) || !types.IsIntegral(r.Type()) {
			return s.badBinaryOperands(op, lhs, rhs, span)
		}
	} else if !types.IsArithmetic(l.Type()) || !types.IsArithmetic(r.Type()) {
		return s.badBinaryOperands(op, lhs, rhs, span)
	}

	common := s.Types.UsualArithmetic(l.Type(), r.Type())
	l, r = s.convertTo(l, common), s.convertTo(r, common)
	return ast.NewBinaryExpr(op, l, r, common, ast.PRValue, span)
}

func (s *Sema) actOnAdditive(op ast.BinaryOpKind, lhs, rhs ast.Expr, span report.SourceRange) ast.Expr {
	l, r := s.rvalue(lhs), s.rvalue(rhs)

	lp, rp := types.AsPointer(l.Type().Canonical()), types.AsPointer(r.Type().Canonical())

	switch {
	case lp == nil && rp == nil:
		return s.actOnArithmetic(op, lhs, rhs, span)

	case lp != nil && rp == nil && types.IsIntegral(r.Type()):
		return ast.NewBinaryExpr(op, l, r, l.Type(), ast.PRValue, span)

	case lp == nil && rp != nil && types.IsIntegral(l.Type()) && op == ast.BinAdd:
		return ast.NewBinaryExpr(op, l, r, r.Type(), ast.PRValue, span)

	case lp != nil && rp != nil && op == ast.BinSub && types.Same(lp.Pointee, rp.Pointee):
		// Pointer difference yields the target's ptrdiff type.
		return ast.NewBinaryExpr(op, l, r, s.Types.GetBuiltin(types.Long), ast.PRValue, span)

	default:
		return s.badBinaryOperands(op, lhs, rhs, span)
	}
}

func (s *Sema) actOnComparison(op ast.BinaryOpKind, lhs, rhs ast.Expr, span report.SourceRange) ast.Expr {
	l, r := s.rvalue(lhs), s.rvalue(rhs)
	boolTy := s.Types.GetBuiltin(types.Bool)

	lp, rp := types.AsPointer(l.Type().Canonical()), types.AsPointer(r.Type().Canonical())

	switch {
	case types.IsArithmetic(l.Type()) && types.IsArithmetic(r.Type()):
		common := s.Types.UsualArithmetic(l.Type(), r.Type())
		return ast.NewBinaryExpr(op, s.convertTo(l, common), s.convertTo(r, common), boolTy, ast.PRValue, span)

	case lp != nil && rp != nil:
		return ast.NewBinaryExpr(op, l, r, boolTy, ast.PRValue, span)

	case lp != nil && ast.IsNullPointerConstant(rhs):
		r = ast.NewImplicitCastExpr(ast.CastNullToPointer, r, l.Type(), ast.PRValue)
		return ast.NewBinaryExpr(op, l, r, boolTy, ast.PRValue, span)

	case rp != nil && ast.IsNullPointerConstant(lhs):
		l = ast.NewImplicitCastExpr(ast.CastNullToPointer, l, r.Type(), ast.PRValue)
		return ast.NewBinaryExpr(op, l, r, boolTy, ast.PRValue, span)

	default:
		return s.badBinaryOperands(op, lhs, rhs, span)
	}
}

func (s *Sema) actOnAssignment(lhs, rhs ast.Expr, span report.SourceRange) ast.Expr {
	if !s.requireModifiableLValue(lhs, "assignment target") {
		return s.errorExpr(span, lhs, rhs)
	}

	converted, ok := s.PerformImplicitConversion(rhs, types.Unqualified(lhs.Type().Canonical()), "assignment")
	if !ok {
		return s.errorExpr(span, lhs, rhs)
	}

	return ast.NewBinaryExpr(ast.BinAssign, lhs, converted, lhs.Type(), ast.LValue, span)
}

func (s *Sema) badBinaryOperands(op ast.BinaryOpKind, lhs, rhs ast.Expr, span report.SourceRange) ast.Expr {
	s.Reporter.Error(span.Begin, "err-bad-operands",
		"invalid operands to binary %s (%s and %s)", op.Spelling(), lhs.Type().Repr(), rhs.Type().Repr()).
		WithRange(lhs.Range()).WithRange(rhs.Range())
	return s.errorExpr(span, lhs, rhs)
}

// -----------------------------------------------------------------------------

// buildOverloadedBinOp resolves `lhs op rhs` via operator overloading.  The
// second result is false when no operator functions exist at all, in which
// case the caller falls through to the builtin semantics.
func (s *Sema) buildOverloadedBinOp(op ast.BinaryOpKind, lhs, rhs ast.Expr, span report.SourceRange) (ast.Expr, bool) {
	opName := operatorNameFor(op)
	if opName.Empty() {
		return nil, false
	}

	args := []ast.Expr{lhs, rhs}
	cs := overload.NewCandidateSet(s.Conv, s.Inst)

	// Member operator candidates of the left operand's class.
	if lrec := types.AsRecord(types.Unqualified(lhs.Type().Canonical())); lrec != nil {
		if rd, ok := lrec.Decl.CanonicalTag().(*ast.RecordDecl); ok && rd.DefinitionComplete() {
			mem := lookup.Member(rd.Definition(), opName, lookup.Ordinary)
			for _, d := range mem.Decls {
				if fd, ok := ast.ResolveShadow(d).(*ast.FunctionDecl); ok {
					cs.AddFunction(fd, []ast.Expr{rhs}, lhs)
				}
			}
		}
	}

	// Non-member candidates: ordinary lookup plus argument-dependent lookup.
	seen := make(map[ast.Decl]bool)
	addNonMember := func(d ast.Decl) {
		d = ast.ResolveShadow(d)
		if seen[d.Canonical()] {
			return
		}
		seen[d.Canonical()] = true

		switch fd := d.(type) {
		case *ast.FunctionDecl:
			cs.AddFunction(fd, args, nil)
		case *ast.FunctionTemplateDecl:
			cs.AddTemplate(fd, nil, args, nil)
		}
	}

	for _, d := range lookup.Unqualified(s.CurrentCtx(), opName, lookup.Ordinary).Decls {
		addNonMember(d)
	}

	for _, d := range lookup.ArgumentDependent(opName, []types.Type{lhs.Type(), rhs.Type()}) {
		addNonMember(d)
	}

	if len(cs.Candidates) == 0 {
		return nil, false
	}

	// Builtin candidates compete once user-declared operators exist.
	s.addBuiltinBinaryCandidates(cs, op, args)

	res := cs.BestViable()
	switch res.Outcome {
	case overload.OutcomeNoViable:
		s.Reporter.Error(span.Begin, "err-no-viable-op",
			"no viable overloaded operator%s for operands %s and %s",
			op.Spelling(), lhs.Type().Repr(), rhs.Type().Repr())
		return s.errorExpr(span, lhs, rhs), true

	case overload.OutcomeAmbiguous:
		d := s.Reporter.Error(span.Begin, "err-ambiguous-op",
			"use of overloaded operator%s is ambiguous", op.Spelling())
		s.noteCandidates(d, res.Ambiguous)
		return s.errorExpr(span, lhs, rhs), true

	case overload.OutcomeDeleted:
		s.Reporter.Error(span.Begin, "err-deleted-op",
			"use of deleted operator%s", op.Spelling()).
			WithNote(report.Note(res.Best.Fn.Loc(), "note-deleted-here", "candidate declared deleted here"))
		return s.errorExpr(span, lhs, rhs), true
	}

	best := res.Best
	if best.Builtin {
		// The builtin interpretation won: convert and fall through.
		return nil, false
	}

	return s.buildResolvedCall(best, args, span, lhs), true
}

// addBuiltinBinaryCandidates adds the builtin operator interpretations that
// could apply once operands convert to arithmetic or pointer types.
func (s *Sema) addBuiltinBinaryCandidates(cs *overload.CandidateSet, op ast.BinaryOpKind, args []ast.Expr) {
	intTy := s.Types.IntType()
	boolTy := s.Types.GetBuiltin(types.Bool)
	doubleTy := s.Types.GetBuiltin(types.Double)

	switch op {
	case ast.BinAdd, ast.BinSub, ast.BinMul, ast.BinDiv:
		cs.AddBuiltin([]types.Type{intTy, intTy}, intTy, args)
		cs.AddBuiltin([]types.Type{doubleTy, doubleTy}, doubleTy, args)

	case ast.BinRem, ast.BinAnd, ast.BinOr, ast.BinXor, ast.BinShl, ast.BinShr:
		cs.AddBuiltin([]types.Type{intTy, intTy}, intTy, args)

	case ast.BinLT, ast.BinGT, ast.BinLE, ast.BinGE, ast.BinEQ, ast.BinNE:
		cs.AddBuiltin([]types.Type{intTy, intTy}, boolTy, args)
		cs.AddBuiltin([]types.Type{doubleTy, doubleTy}, boolTy, args)

	case ast.BinLAnd, ast.BinLOr:
		cs.AddBuiltin([]types.Type{boolTy, boolTy}, boolTy, args)
	}
}

// operatorNameFor maps a binary operator to its overloadable name.
func operatorNameFor(op ast.BinaryOpKind) ast.DeclName {
	oo, ok := binaryToOverloaded[op]
	if !ok {
		return ast.DeclName{}
	}

	return ast.OperatorName(oo)
}

var binaryToOverloaded = map[ast.BinaryOpKind]ast.OverloadedOperator{
	ast.BinAdd: ast.OpPlus,
	ast.BinSub: ast.OpMinus,
	ast.BinMul: ast.OpStar,
	ast.BinDiv: ast.OpSlash,
	ast.BinRem: ast.OpPercent,
	ast.BinAnd: ast.OpAmp,
	ast.BinOr:  ast.OpPipe,
	ast.BinXor: ast.OpCaret,
	ast.BinShl: ast.OpLessLess,
	ast.BinShr: ast.OpGreaterGreater,
	ast.BinLT:  ast.OpLess,
	ast.BinGT:  ast.OpGreater,
	ast.BinLE:  ast.OpLessEqual,
	ast.BinGE:  ast.OpGreaterEqual,
	ast.BinEQ:  ast.OpEqualEqual,
	ast.BinNE:  ast.OpExclaimEqual,
}

// noteCandidates attaches one note per candidate to an ambiguity diagnostic,
// in candidate-set order.
func (s *Sema) noteCandidates(d *report.Diagnostic, cands []*overload.Candidate) {
	for _, c := range cands {
		if c.Fn != nil {
			d.WithNote(report.Note(c.Fn.Loc(), "note-candidate", "candidate function %s", c.Fn.Type.Repr()))
		} else if c.Builtin {
			d.WithNote(report.Note(0, "note-candidate", "built-in candidate"))
		}
	}
}

// buildResolvedCall converts the arguments per the winning candidate and
// builds the call node.
func (s *Sema) buildResolvedCall(best *overload.Candidate, args []ast.Expr, span report.SourceRange, object ast.Expr) ast.Expr {
	fn := best.Fn
	callArgs := args

	if best.HasObject && object != nil {
		callArgs = args[1:]
	}

	converted := make([]ast.Expr, len(callArgs))
	for i, a := range callArgs {
		if i < len(fn.Params) && i < len(best.Conversions) {
			converted[i] = s.applyICS(a, best.Conversions[i], fn.Params[i].Type)
		} else {
			converted[i] = s.rvalue(a)
		}
	}

	// Materialize defaulted trailing arguments.
	for i := len(converted); i < len(fn.Params); i++ {
		if fn.Params[i].Default != nil {
			converted = append(converted, fn.Params[i].Default)
		}
	}

	if fn.InstantiatedFrom != nil {
		s.Inst.RequireFunctionBody(fn)
	}

	retTy, vc := callResultOf(fn)

	var callee ast.Expr
	if best.HasObject && object != nil {
		callee = ast.NewMemberExpr(object, false, fn, fn.Type, ast.PRValue, span)
	} else {
		callee = ast.NewDeclRefExpr(fn, fn.Type, ast.LValue, span)
	}

	return ast.NewCallExpr(callee, fn, converted, retTy, vc, span)
}

// callResultOf derives a call's type and value category from the callee's
// return type.
func callResultOf(fn *ast.FunctionDecl) (types.Type, ast.ValueCategory) {
	ret := fn.FuncType().Return
	if ref := types.AsReference(ret.Canonical()); ref != nil {
		if ref.RValue {
			return ref.Pointee, ast.XValue
		}

		return ref.Pointee, ast.LValue
	}

	return ret, ast.PRValue
}

// -----------------------------------------------------------------------------

// ActOnConditional analyzes `cond ? then : else`.
func (s *Sema) ActOnConditional(cond, then, els ast.Expr, span report.SourceRange) ast.Expr {
	if ast.AnyInvalid(cond, then, els) {
		return s.errorExpr(span, cond, then, els)
	}

	if ast.AnyDependent(cond, then, els) {
		return ast.NewConditionalExpr(cond, then, els, s.Types.DependentType(), ast.PRValue, span)
	}

	c, ok := s.contextuallyConvertToBool(cond, "conditional expression")
	if !ok {
		return s.errorExpr(span, cond, then, els)
	}

	// Identical glvalue arms keep their category.
	if types.Same(then.Type(), els.Type()) && then.Category() == els.Category() && then.Category().IsGLValue() {
		return ast.NewConditionalExpr(c, then, els, then.Type(), then.Category(), span)
	}

	t, e := s.rvalue(then), s.rvalue(els)

	if types.Same(t.Type(), e.Type()) {
		return ast.NewConditionalExpr(c, t, e, t.Type(), ast.PRValue, span)
	}

	if types.IsArithmetic(t.Type()) && types.IsArithmetic(e.Type()) {
		common := s.Types.UsualArithmetic(t.Type(), e.Type())
		return ast.NewConditionalExpr(c, s.convertTo(t, common), s.convertTo(e, common), common, ast.PRValue, span)
	}

	s.Reporter.Error(span.Begin, "err-cond-mismatch",
		"incompatible operand types %s and %s in conditional expression", then.Type().Repr(), els.Type().Repr())
	return s.errorExpr(span, cond, then, els)
}

// ActOnParenExpr wraps an expression in parentheses.
func (s *Sema) ActOnParenExpr(inner ast.Expr, span report.SourceRange) ast.Expr {
	return ast.NewParenExpr(inner, span)
}

// ActOnSizeof analyzes sizeof or alignof applied to a type.
func (s *Sema) ActOnSizeof(queried types.Type, alignof bool, span report.SourceRange) ast.Expr {
	ulong := s.Types.GetBuiltin(types.ULong)

	if queried.Dependence().IsDependent() {
		return ast.NewSizeofExpr(queried, alignof, 0, ulong, span)
	}

	var result int
	var err error
	if alignof {
		result, err = s.Types.AlignOf(queried)
	} else {
		result, err = s.Types.SizeOf(queried)
	}

	if err != nil {
		s.Reporter.Error(span.Begin, "err-sizeof-incomplete",
			"invalid application of sizeof to type %s: %s", queried.Repr(), err.Error())
		return s.errorExpr(span)
	}

	return ast.NewSizeofExpr(queried, alignof, int64(result), ulong, span)
}

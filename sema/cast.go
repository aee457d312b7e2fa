package sema

import (
	"cfront/ast"
	"cfront/report"
	"cfront/types"
)

// ActOnExplicitCast analyzes an explicit cast of any written style.  A
// C-style cast is interpreted as the first of const_cast, static_cast, and
// reinterpret_cast that is legal.
func (s *Sema) ActOnExplicitCast(style ast.ExplicitCastStyle, written types.Type, operand ast.Expr, span report.SourceRange) ast.Expr {
	if operand.Invalid() || types.IsError(written) {
		return s.errorExpr(span, operand)
	}

	if operand.Dependence().IsDependent() || written.Dependence().IsDependent() {
		return ast.NewExplicitCastExpr(style, ast.CastNoOp, written, operand, ast.PRValue, span)
	}

	switch style {
	case ast.CastStyleStatic:
		if e, ok := s.tryStaticCast(style, written, operand, span); ok {
			return e
		}

		s.Reporter.Error(span.Begin, "err-bad-static-cast",
			"static_cast from %s to %s is not allowed", operand.Type().Repr(), written.Repr()).
			WithRange(operand.Range())
		return s.errorExpr(span, operand)

	case ast.CastStyleConst:
		if e, ok := s.tryConstCast(style, written, operand, span); ok {
			return e
		}

		s.Reporter.Error(span.Begin, "err-bad-const-cast",
			"const_cast from %s to %s is not allowed", operand.Type().Repr(), written.Repr()).
			WithRange(operand.Range())
		return s.errorExpr(span, operand)

	case ast.CastStyleReinterpret:
		if e, ok := s.tryReinterpretCast(style, written, operand, span); ok {
			return e
		}

		s.Reporter.Error(span.Begin, "err-bad-reinterpret-cast",
			"reinterpret_cast from %s to %s is not allowed", operand.Type().Repr(), written.Repr()).
			WithRange(operand.Range())
		return s.errorExpr(span, operand)

	default:
		if e, ok := s.tryConstCast(style, written, operand, span); ok {
			return e
		}

		if e, ok := s.tryStaticCast(style, written, operand, span); ok {
			return e
		}

		if e, ok := s.tryReinterpretCast(style, written, operand, span); ok {
			return e
		}

		s.Reporter.Error(span.Begin, "err-bad-cast",
			"cannot cast from %s to %s", operand.Type().Repr(), written.Repr()).
			WithRange(operand.Range())
		return s.errorExpr(span, operand)
	}
}

// tryStaticCast attempts the static_cast interpretation.
func (s *Sema) tryStaticCast(style ast.ExplicitCastStyle, written types.Type, operand ast.Expr, span report.SourceRange) (ast.Expr, bool) {
	dst := written.Canonical()

	// Casting to void discards the value.
	if types.IsVoid(dst) {
		e := s.rvalue(operand)
		return ast.NewExplicitCastExpr(style, ast.CastToVoid, written, e, ast.PRValue, span), true
	}

	// Anything an implicit conversion permits, static_cast permits.
	if ics := s.Conv.TryImplicitConversion(operand, written, true); ics.Viable() {
		inner := s.applyICS(operand, ics, written)
		vc := ast.PRValue
		if types.AsReference(dst) != nil {
			vc = inner.Category()
		}

		return ast.NewExplicitCastExpr(style, ast.CastNoOp, written, inner, vc, span), true
	}

	src := operand.Type().Canonical()

	// Arithmetic and scoped-enumeration casts in both directions.
	if sc, dc := types.IsScalar(src), types.IsScalar(dst); sc && dc {
		if enumArithCastOK(src, dst) {
			e := s.rvalue(operand)
			return ast.NewExplicitCastExpr(style, ast.CastIntegralCast, written, e, ast.PRValue, span), true
		}
	}

	// Base-to-derived pointer downcast.
	sp, dp := types.AsPointer(src), types.AsPointer(dst)
	if sp != nil && dp != nil {
		srec, drec := types.AsRecord(sp.Pointee), types.AsRecord(dp.Pointee)
		if srec != nil && drec != nil && types.DerivedToBasePath(drec.Decl, srec.Decl) > 0 {
			e := s.rvalue(operand)
			cast := ast.NewExplicitCastExpr(style, ast.CastBaseToDerived, written, e, ast.PRValue, span)
			return cast, true
		}
	}

	return nil, false
}

// enumArithCastOK permits static_casts between arithmetic types and
// enumerations, which implicit conversion rejects for scoped enums.
func enumArithCastOK(src, dst types.Type) bool {
	se, de := types.AsEnum(src), types.AsEnum(dst)
	sa, da := types.IsArithmetic(src), types.IsArithmetic(dst)

	switch {
	case se != nil && (da || de != nil):
		return true
	case sa && de != nil:
		return true
	}

	return false
}

// tryConstCast attempts the const_cast interpretation: the source and target
// must be the same type modulo cv-qualification at every level.
func (s *Sema) tryConstCast(style ast.ExplicitCastStyle, written types.Type, operand ast.Expr, span report.SourceRange) (ast.Expr, bool) {
	src := operand.Type().Canonical()
	dst := written.Canonical()

	if sref, dref := types.AsReference(src), types.AsReference(dst); dref != nil {
		inner := operand.Type().Canonical()
		if sref != nil {
			inner = sref.Pointee.Canonical()
		} else if !operand.Category().IsGLValue() {
			return nil, false
		}

		if !sameUnqualifiedLayers(inner, dref.Pointee.Canonical()) {
			return nil, false
		}

		vc := ast.LValue
		if dref.RValue {
			vc = ast.XValue
		}

		return ast.NewExplicitCastExpr(style, ast.CastNoOp, written, operand, vc, span), true
	}

	if !sameUnqualifiedLayers(src, dst) {
		return nil, false
	}

	e := s.rvalue(operand)
	return ast.NewExplicitCastExpr(style, ast.CastNoOp, written, e, ast.PRValue, span), true
}

// sameUnqualifiedLayers compares two canonical types ignoring cv-qualifiers
// at every pointer level.
func sameUnqualifiedLayers(a, b types.Type) bool {
	a, b = types.Unqualified(a.Canonical()), types.Unqualified(b.Canonical())

	ap, bp := types.AsPointer(a), types.AsPointer(b)
	if ap != nil && bp != nil {
		return sameUnqualifiedLayers(ap.Pointee, bp.Pointee)
	}

	if (ap == nil) != (bp == nil) {
		return false
	}

	return types.Same(a, b)
}

// tryReinterpretCast attempts the reinterpret_cast interpretation: pointer
// reinterpretation and pointer-integer round trips.
func (s *Sema) tryReinterpretCast(style ast.ExplicitCastStyle, written types.Type, operand ast.Expr, span report.SourceRange) (ast.Expr, bool) {
	src := operand.Type().Canonical()
	dst := written.Canonical()

	sp, dp := types.AsPointer(src), types.AsPointer(dst)

	switch {
	case sp != nil && dp != nil:
		e := s.rvalue(operand)
		return ast.NewExplicitCastExpr(style, ast.CastBitCast, written, e, ast.PRValue, span), true

	case sp != nil && types.IsIntegral(dst):
		if s.Types.BuiltinWidth(types.AsBuiltin(dst).BK) < s.Types.Target.PointerWidth {
			return nil, false
		}

		e := s.rvalue(operand)
		return ast.NewExplicitCastExpr(style, ast.CastPointerToIntegral, written, e, ast.PRValue, span), true

	case types.IsIntegral(src) && dp != nil:
		e := s.rvalue(operand)
		return ast.NewExplicitCastExpr(style, ast.CastIntegralToPointer, written, e, ast.PRValue, span), true
	}

	// Reference reinterpretation of a glvalue.
	if dref := types.AsReference(dst); dref != nil && operand.Category().IsGLValue() {
		vc := ast.LValue
		if dref.RValue {
			vc = ast.XValue
		}

		return ast.NewExplicitCastExpr(style, ast.CastBitCast, written, operand, vc, span), true
	}

	return nil, false
}

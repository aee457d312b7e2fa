package overload

import (
	"cfront/ast"
	"cfront/types"
)

// StandardRank orders standard conversion sequences by their worst step.
type StandardRank int

// Enumeration of the standard conversion ranks, best first.
const (
	RankExactMatch StandardRank = iota
	RankPromotion
	RankConversion
)

// StandardSeq is a standard conversion sequence: at most one lvalue
// transformation, one promotion or conversion, and one qualification
// adjustment.
type StandardSeq struct {
	From, To types.Type

	// The lvalue transformation step, 0 if none.
	LvalueCast ast.CastKind

	// The promotion or conversion step, 0 if none.
	SecondCast ast.CastKind

	// Whether a qualification adjustment follows.
	QualAdjust bool

	// The derived-to-base path length for pointer, reference, and object
	// conversions, 0 when no base step occurs.
	DerivedToBase int

	// Reference binding properties.
	RefBinding    bool
	DirectBinding bool
	BindsRValue   bool

	// Whether the arithmetic conversion is narrowing.  Only diagnosed in
	// braced initialization.
	Narrowing bool

	Rank StandardRank
}

// ICSKind discriminates implicit conversion sequence categories.  The zero
// value is the bad sequence, so an unset ICS is never viable.
type ICSKind int

// Enumeration of the sequence categories, worst first.
const (
	ICSBad ICSKind = iota
	ICSEllipsis
	ICSUserDefined
	ICSStandard
)

// ICS is an implicit conversion sequence from an argument to a parameter
// type.
type ICS struct {
	Kind ICSKind

	// The standard sequence, valid for ICSStandard.
	Std StandardSeq

	// The user-defined conversion: the converting constructor or conversion
	// function, the standard sequence into its parameter or object argument,
	// and the standard sequence from its result to the target.
	UserFn *ast.FunctionDecl
	Before StandardSeq
	After  StandardSeq
}

// Viable returns whether the sequence can convert at all.
func (ics ICS) Viable() bool { return ics.Kind != ICSBad }

// IsNarrowing reports whether any arithmetic step of the sequence can lose
// information.
func (ics ICS) IsNarrowing() bool {
	switch ics.Kind {
	case ICSStandard:
		return ics.Std.Narrowing
	case ICSUserDefined:
		return ics.Before.Narrowing || ics.After.Narrowing
	default:
		return false
	}
}

// Converter computes implicit conversion sequences against a type context.
type Converter struct {
	Types *types.Context
}

// TryImplicitConversion computes the implicit conversion sequence from an
// argument expression to a parameter type.  When allowUser is false only
// standard conversions are considered, which is how user-defined conversion
// steps avoid recursing into further user-defined conversions.
func (cv *Converter) TryImplicitConversion(arg ast.Expr, to types.Type, allowUser bool) ICS {
	if types.IsError(arg.Type()) || types.IsError(to) {
		// Error recovery: pretend the conversion works so one bad argument
		// does not cascade.
		return ICS{Kind: ICSStandard, Std: StandardSeq{From: arg.Type(), To: to, Rank: RankExactMatch}}
	}

	if ref := types.AsReference(to); ref != nil {
		return cv.tryReferenceBinding(arg, ref, to)
	}

	if std, ok := cv.tryStandard(arg.Type(), arg.Category(), ast.IsNullPointerConstant(arg), to); ok {
		return ICS{Kind: ICSStandard, Std: std}
	}

	if allowUser {
		if user, ok := cv.tryUserDefined(arg, to); ok {
			return user
		}
	}

	return ICS{}
}

// EllipsisICS is the sequence matching an argument against a variadic
// ellipsis.
func EllipsisICS(arg ast.Expr) ICS {
	return ICS{Kind: ICSEllipsis}
}

// -----------------------------------------------------------------------------

// tryStandard computes a standard conversion sequence between non-reference
// types.
func (cv *Converter) tryStandard(from types.Type, cat ast.ValueCategory, nullConst bool, to types.Type) (StandardSeq, bool) {
	seq := StandardSeq{From: from, To: to}

	src := from.Canonical()
	dst := types.Unqualified(to.Canonical())

	// Lvalue transformations.
	if at := types.AsArray(src); at != nil {
		seq.LvalueCast = ast.CastArrayToPointer
		src = cv.Types.GetPointer(at.Elem).Canonical()
	} else if types.AsFunction(src) != nil {
		seq.LvalueCast = ast.CastFunctionToPointer
		src = cv.Types.GetPointer(src).Canonical()
	} else if cat.IsGLValue() {
		seq.LvalueCast = ast.CastLValueToRValue
	}

	_, src = types.QualsOf(src)

	// Identity.
	if types.Same(src, dst) {
		seq.Rank = RankExactMatch
		return seq, true
	}

	// Promotions.
	if cv.Types.IsPromotion(src, dst) {
		seq.SecondCast = ast.CastIntegralPromotion
		seq.Rank = RankPromotion
		return seq, true
	}

	// Conversions.
	if ok := cv.trySecondConversion(&seq, src, dst, nullConst); ok {
		return seq, true
	}

	// Qualification conversion on pointers and member pointers.
	if cv.tryQualification(&seq, src, dst) {
		seq.Rank = RankExactMatch
		return seq, true
	}

	return StandardSeq{}, false
}

// trySecondConversion attempts the single promotion-or-conversion step of a
// standard sequence.
func (cv *Converter) trySecondConversion(seq *StandardSeq, src, dst types.Type, nullConst bool) bool {
	sb, db := types.AsBuiltin(src), types.AsBuiltin(dst)

	// Boolean conversions: any scalar converts to bool.
	if db != nil && db.BK == types.Bool && types.IsScalar(src) {
		seq.SecondCast = ast.CastToBoolean
		seq.Rank = RankConversion
		seq.Narrowing = types.IsFloating(src)
		return true
	}

	// Arithmetic and enumeration conversions.
	if db != nil && db.IsArithmetic() {
		if sb != nil && sb.IsArithmetic() {
			seq.SecondCast = arithmeticCast(sb, db)
			seq.Rank = RankConversion
			seq.Narrowing = cv.isNarrowing(sb, db)
			return true
		}

		if et := types.AsEnum(src); et != nil && !enumIsScoped(et) {
			seq.SecondCast = ast.CastIntegralCast
			seq.Rank = RankConversion
			return true
		}
	}

	// Null pointer constant to pointer or member pointer.
	if nullConst && (types.AsPointer(dst) != nil || types.AsMemberPointer(dst) != nil) {
		seq.SecondCast = ast.CastNullToPointer
		seq.Rank = RankConversion
		return true
	}

	// std::nullptr_t to pointer.
	if sb != nil && sb.BK == types.NullPtr && types.AsPointer(dst) != nil {
		seq.SecondCast = ast.CastNullToPointer
		seq.Rank = RankConversion
		return true
	}

	// Pointer conversions.
	sp, dp := types.AsPointer(src), types.AsPointer(dst)
	if sp != nil && dp != nil {
		if ok := cv.tryPointerConversion(seq, sp, dp); ok {
			return true
		}
	}

	// Member pointer conversions run the other way: pointer to member of
	// base converts to pointer to member of derived.
	smp, dmp := types.AsMemberPointer(src), types.AsMemberPointer(dst)
	if smp != nil && dmp != nil {
		if path := memberPointerPath(smp, dmp); path > 0 && types.Same(smp.Pointee, dmp.Pointee) {
			seq.SecondCast = ast.CastBaseToDerived
			seq.DerivedToBase = path
			seq.Rank = RankConversion
			return true
		}
	}

	return false
}

// tryPointerConversion handles object pointer conversions: to void pointer
// and derived-to-base.
func (cv *Converter) tryPointerConversion(seq *StandardSeq, sp, dp *types.PointerType) bool {
	sq, spu := types.QualsOf(sp.Pointee.Canonical())
	dq, dpu := types.QualsOf(dp.Pointee.Canonical())

	if !dq.Superset(sq) {
		return false
	}

	if types.IsVoid(dpu) && !types.IsVoid(spu) {
		seq.SecondCast = ast.CastBitCast
		seq.Rank = RankConversion
		return true
	}

	srec, drec := types.AsRecord(spu), types.AsRecord(dpu)
	if srec != nil && drec != nil {
		if path := types.DerivedToBasePath(srec.Decl, drec.Decl); path > 0 {
			seq.SecondCast = ast.CastDerivedToBase
			seq.DerivedToBase = path
			seq.Rank = RankConversion
			return true
		}
	}

	return false
}

// tryQualification attempts a qualification conversion between pointer types
// whose pointees differ only in cv-qualification, with the destination a
// superset at every level.
func (cv *Converter) tryQualification(seq *StandardSeq, src, dst types.Type) bool {
	for {
		sp, dp := types.AsPointer(src), types.AsPointer(dst)
		if sp == nil || dp == nil {
			return types.Same(types.Unqualified(src), types.Unqualified(dst))
		}

		sq, spu := types.QualsOf(sp.Pointee.Canonical())
		dq, dpu := types.QualsOf(dp.Pointee.Canonical())

		if sq != dq {
			if !dq.Superset(sq) {
				return false
			}

			seq.QualAdjust = true
		}

		src, dst = spu, dpu
	}
}

// arithmeticCast selects the cast kind for an arithmetic conversion.
func arithmeticCast(sb, db *types.BuiltinType) ast.CastKind {
	switch {
	case sb.IsFloating() && db.IsFloating():
		return ast.CastFloatingCast
	case sb.IsFloating():
		return ast.CastFloatingToIntegral
	case db.IsFloating():
		return ast.CastIntegralToFloating
	default:
		return ast.CastIntegralCast
	}
}

// isNarrowing reports whether an arithmetic conversion can lose information.
func (cv *Converter) isNarrowing(sb, db *types.BuiltinType) bool {
	switch {
	case sb.IsFloating() && db.IsInteger():
		return true
	case sb.IsInteger() && db.IsFloating():
		return true
	case sb.IsFloating() && db.IsFloating():
		return cv.Types.BuiltinWidth(db.BK) < cv.Types.BuiltinWidth(sb.BK)
	case sb.IsInteger() && db.IsInteger():
		if cv.Types.BuiltinWidth(db.BK) < cv.Types.BuiltinWidth(sb.BK) {
			return true
		}

		return sb.IsSignedInteger() != db.IsSignedInteger()
	default:
		return false
	}
}

func enumIsScoped(et *types.EnumType) bool {
	if ed, ok := et.Decl.CanonicalTag().(*ast.EnumDecl); ok {
		return ed.Scoped
	}

	return false
}

// memberPointerPath returns the base-to-derived path length between member
// pointer classes, or 0 when no conversion exists.
func memberPointerPath(smp, dmp *types.MemberPointerType) int {
	srec, drec := types.AsRecord(smp.Class), types.AsRecord(dmp.Class)
	if srec == nil || drec == nil {
		return 0
	}

	path := types.DerivedToBasePath(drec.Decl, srec.Decl)
	if path < 0 {
		return 0
	}

	return path
}

// -----------------------------------------------------------------------------

// tryReferenceBinding computes the sequence binding an argument to a
// reference parameter.
func (cv *Converter) tryReferenceBinding(arg ast.Expr, ref *types.ReferenceType, to types.Type) ICS {
	seq := StandardSeq{From: arg.Type(), To: to, RefBinding: true}

	pq, pointee := types.QualsOf(ref.Pointee.Canonical())
	aq, argTy := types.QualsOf(types.Unqualified(arg.Type().Canonical()))

	compatible, path := referenceCompatible(pointee, pq, argTy, aq)

	if !ref.RValue {
		// Lvalue reference.
		if arg.Category() == ast.LValue && compatible {
			seq.DirectBinding = true
			seq.DerivedToBase = path
			seq.QualAdjust = pq != aq
			seq.Rank = RankExactMatch
			if path > 0 {
				seq.Rank = RankConversion
			}

			return ICS{Kind: ICSStandard, Std: seq}
		}

		// A non-const lvalue reference binds only to compatible lvalues.
		if !pq.HasConst() || pq.HasVolatile() {
			return ICS{}
		}

		// A const lvalue reference binds to a temporary produced by any
		// implicit conversion.
		return cv.bindToTemporary(arg, pointee, seq)
	}

	// Rvalue reference: never binds to an lvalue.
	if arg.Category() == ast.LValue {
		return ICS{}
	}

	seq.BindsRValue = true

	if compatible {
		seq.DirectBinding = true
		seq.DerivedToBase = path
		seq.QualAdjust = pq != aq
		seq.Rank = RankExactMatch
		if path > 0 {
			seq.Rank = RankConversion
		}

		return ICS{Kind: ICSStandard, Std: seq}
	}

	return cv.bindToTemporary(arg, pointee, seq)
}

// referenceCompatible reports whether a reference to (cv1 pointee) can bind
// directly to a glvalue of (cv2 arg): same type or unambiguous base, with
// the reference at least as qualified.
func referenceCompatible(pointee types.Type, pq types.Qualifiers, argTy types.Type, aq types.Qualifiers) (bool, int) {
	if !pq.Superset(aq) {
		return false, 0
	}

	if types.Same(pointee, argTy) {
		return true, 0
	}

	prec, arec := types.AsRecord(pointee), types.AsRecord(argTy)
	if prec != nil && arec != nil {
		if path := types.DerivedToBasePath(arec.Decl, prec.Decl); path > 0 {
			return true, path
		}
	}

	return false, 0
}

// bindToTemporary binds a reference to a temporary converted from the
// argument.
func (cv *Converter) bindToTemporary(arg ast.Expr, pointee types.Type, seq StandardSeq) ICS {
	inner, ok := cv.tryStandard(arg.Type(), arg.Category(), ast.IsNullPointerConstant(arg), pointee)
	if ok {
		inner.From = seq.From
		inner.To = seq.To
		inner.RefBinding = true
		inner.BindsRValue = seq.BindsRValue
		return ICS{Kind: ICSStandard, Std: inner}
	}

	if user, ok := cv.tryUserDefined(arg, pointee); ok {
		user.After.RefBinding = true
		return user
	}

	return ICS{}
}

// -----------------------------------------------------------------------------

// tryUserDefined computes a user-defined conversion sequence: a converting
// constructor of the target class or a conversion function of the source
// class, bracketed by standard sequences.
func (cv *Converter) tryUserDefined(arg ast.Expr, to types.Type) (ICS, bool) {
	var candidates []ICS

	toUnqual := types.Unqualified(to.Canonical())

	// Converting constructors of the target class.
	if drec := types.AsRecord(toUnqual); drec != nil {
		if rd, ok := drec.Decl.CanonicalTag().(*ast.RecordDecl); ok && rd.DefinitionComplete() {
			for _, ctor := range rd.Definition().Constructors() {
				if ctor.Explicit || len(ctor.Params) < 1 || ctor.MinRequiredArgs() > 1 {
					continue
				}

				before := cv.TryImplicitConversion(arg, ctor.Params[0].Type, false)
				if before.Kind != ICSStandard {
					continue
				}

				candidates = append(candidates, ICS{
					Kind:   ICSUserDefined,
					UserFn: ctor,
					Before: before.Std,
					After:  StandardSeq{From: toUnqual, To: to, Rank: RankExactMatch},
				})
			}
		}
	}

	// Conversion functions of the source class.
	if srec := types.AsRecord(types.Unqualified(arg.Type().Canonical())); srec != nil {
		if rd, ok := srec.Decl.CanonicalTag().(*ast.RecordDecl); ok && rd.DefinitionComplete() {
			for _, conv := range rd.Definition().ConversionFunctions() {
				if conv.Explicit {
					continue
				}

				result := conv.FuncType().Return
				resultCat := ast.PRValue
				if types.AsReference(result) != nil {
					resultCat = ast.LValue
					result = types.AsReference(result).Pointee
				}

				after, ok := cv.tryStandard(result, resultCat, false, to)
				if !ok {
					continue
				}

				candidates = append(candidates, ICS{
					Kind:   ICSUserDefined,
					UserFn: conv,
					Before: StandardSeq{From: arg.Type(), To: cv.Types.GetRecord(srec.Decl), Rank: RankExactMatch},
					After:  after,
				})
			}
		}
	}

	if len(candidates) == 0 {
		return ICS{}, false
	}

	// Pick the best user-defined path; distinct functions with equal second
	// sequences make the sequence itself ambiguous, which we surface as the
	// first candidate so overload resolution can still rank it.
	best := candidates[0]
	for _, c := range candidates[1:] {
		if compareStandard(c.After, best.After) < 0 {
			best = c
		}
	}

	return best, true
}

package types

import "fmt"

// StripSugar removes all sugar wrappers (typedefs, elaboration, deduced auto,
// resolved specializations) from the type without touching qualifiers.
func StripSugar(t Type) Type {
	for {
		switch v := t.(type) {
		case *TypedefType:
			t = v.Under
		case *ElaboratedType:
			t = v.Named
		case *AutoType:
			if v.Deduced == nil {
				return v
			}

			t = v.Deduced
		case *TemplateSpecType:
			if v.Underlying == nil {
				return v
			}

			t = v.Underlying
		case *QualifiedType:
			inner := StripSugar(v.Inner)
			if inner == v.Inner {
				return v
			}

			// Re-attachment of the qualifiers is the caller's business; sugar
			// stripping on a qualified type only strips inside.
			return inner
		default:
			return t
		}
	}
}

// AsBuiltin returns the builtin form of the type's canonical unqualified
// form, or nil.
func AsBuiltin(t Type) *BuiltinType {
	bt, _ := Unqualified(t.Canonical()).(*BuiltinType)
	return bt
}

// AsPointer returns the pointer form of the type's canonical unqualified
// form, or nil.
func AsPointer(t Type) *PointerType {
	pt, _ := Unqualified(t.Canonical()).(*PointerType)
	return pt
}

// AsReference returns the reference form of the type's canonical form, or
// nil.  References are never qualified at the top level.
func AsReference(t Type) *ReferenceType {
	rt, _ := t.Canonical().(*ReferenceType)
	return rt
}

// AsArray returns the array form of the type's canonical unqualified form,
// or nil.
func AsArray(t Type) *ArrayType {
	at, _ := Unqualified(t.Canonical()).(*ArrayType)
	return at
}

// AsFunction returns the function form of the type's canonical unqualified
// form, or nil.
func AsFunction(t Type) *FunctionType {
	ft, _ := Unqualified(t.Canonical()).(*FunctionType)
	return ft
}

// AsRecord returns the record form of the type's canonical unqualified form,
// or nil.
func AsRecord(t Type) *RecordType {
	rt, _ := Unqualified(t.Canonical()).(*RecordType)
	return rt
}

// AsEnum returns the enum form of the type's canonical unqualified form, or
// nil.
func AsEnum(t Type) *EnumType {
	et, _ := Unqualified(t.Canonical()).(*EnumType)
	return et
}

// AsMemberPointer returns the member-pointer form of the type's canonical
// unqualified form, or nil.
func AsMemberPointer(t Type) *MemberPointerType {
	mpt, _ := Unqualified(t.Canonical()).(*MemberPointerType)
	return mpt
}

// -----------------------------------------------------------------------------

// IsVoid returns whether the type is (cv) void.
func IsVoid(t Type) bool {
	bt := AsBuiltin(t)
	return bt != nil && bt.BK == Void
}

// IsError returns whether the type is the recovery placeholder.
func IsError(t Type) bool {
	bt := AsBuiltin(t)
	return bt != nil && bt.BK == ErrorTy
}

// IsIntegral returns whether the type is an integral type (builtins only;
// enums are not integral but convert to their underlying type).
func IsIntegral(t Type) bool {
	bt := AsBuiltin(t)
	return bt != nil && bt.IsInteger()
}

// IsFloating returns whether the type is a floating-point type.
func IsFloating(t Type) bool {
	bt := AsBuiltin(t)
	return bt != nil && bt.IsFloating()
}

// IsArithmetic returns whether the type is an arithmetic type.
func IsArithmetic(t Type) bool {
	bt := AsBuiltin(t)
	return bt != nil && bt.IsArithmetic()
}

// IsScalar returns whether the type is a scalar type: arithmetic, enum,
// pointer, member pointer, or nullptr.
func IsScalar(t Type) bool {
	if IsArithmetic(t) {
		return true
	}

	if bt := AsBuiltin(t); bt != nil && bt.BK == NullPtr {
		return true
	}

	return AsEnum(t) != nil || AsPointer(t) != nil || AsMemberPointer(t) != nil
}

// IsClassOrEnum returns whether the type is a class or enumeration type:
// the condition under which operator and call resolution must consider
// user-defined candidates.
func IsClassOrEnum(t Type) bool {
	return AsRecord(t) != nil || AsEnum(t) != nil
}

// IsComplete returns whether the type is complete: usable for layout
// queries, member access, and derived-class conversions.
func IsComplete(t Type) bool {
	switch v := Unqualified(t.Canonical()).(type) {
	case *BuiltinType:
		return v.BK != Void && v.BK != ErrorTy
	case *ArrayType:
		return v.AKind == ArrayConstant && IsComplete(v.Elem)
	case *RecordType:
		return v.Decl.DefinitionComplete()
	case *EnumType:
		return v.Decl.DefinitionComplete()
	case *FunctionType:
		return false
	case *TemplateParamType, *DependentNameType, *TemplateSpecType, *PackExpansionType:
		return false
	}

	return true
}

// -----------------------------------------------------------------------------

// DerivedToBasePath returns the length of the shortest inheritance path from
// the derived tag to the base tag, or -1 if base is not a base class of
// derived.  A class is not its own base: the minimum path length is 1.
func DerivedToBasePath(derived, base TagDecl) int {
	base = base.CanonicalTag()

	type entry struct {
		tag  TagDecl
		dist int
	}

	seen := map[TagDecl]bool{derived.CanonicalTag(): true}
	worklist := []entry{{derived.CanonicalTag(), 0}}

	for len(worklist) > 0 {
		e := worklist[0]
		worklist = worklist[1:]

		for _, b := range e.tag.TagBases() {
			b = b.CanonicalTag()
			if b == base {
				return e.dist + 1
			}

			if !seen[b] {
				seen[b] = true
				worklist = append(worklist, entry{b, e.dist + 1})
			}
		}
	}

	return -1
}

// -----------------------------------------------------------------------------

// CharIsSigned returns whether plain char is signed on the context's target.
func (ctx *Context) CharIsSigned() bool {
	return ctx.Target.CharSigned
}

// builtinWidth returns the width in bytes of a builtin kind on the context's
// target.
// BuiltinWidth returns the bit width of a builtin kind on the current
// target.
func (ctx *Context) BuiltinWidth(bk BuiltinKind) int {
	return ctx.builtinWidth(bk)
}

func (ctx *Context) builtinWidth(bk BuiltinKind) int {
	switch bk {
	case Bool, Char, SChar, UChar:
		return 1
	case Char16:
		return 2
	case WChar, Char32:
		return 4
	case Short, UShort:
		return ctx.Target.ShortWidth
	case Int, UInt:
		return ctx.Target.IntWidth
	case Long, ULong:
		return ctx.Target.LongWidth
	case LongLong, ULongLong:
		return ctx.Target.LongLongWidth
	case Float:
		return ctx.Target.FloatWidth
	case Double:
		return ctx.Target.DoubleWidth
	case LongDouble:
		return ctx.Target.LongDoubleWidth
	case NullPtr:
		return ctx.Target.PointerWidth
	}

	return 0
}

// SizeOf returns the size in bytes of the type.  Querying an incomplete
// type, a function type, or a dependent type is an error, never UB.
func (ctx *Context) SizeOf(t Type) (int, error) {
	canon := Unqualified(t.Canonical())

	if canon.Dependence().IsDependent() {
		return 0, fmt.Errorf("cannot take the size of dependent type `%s`", t.Repr())
	}

	switch v := canon.(type) {
	case *BuiltinType:
		if v.BK == Void || v.BK == ErrorTy {
			return 0, fmt.Errorf("cannot take the size of incomplete type `%s`", t.Repr())
		}

		return ctx.builtinWidth(v.BK), nil
	case *PointerType:
		return ctx.Target.PointerWidth, nil
	case *MemberPointerType:
		return ctx.Target.MemberPointerWidth, nil
	case *ArrayType:
		if v.AKind != ArrayConstant {
			return 0, fmt.Errorf("cannot take the size of incomplete array type `%s`", t.Repr())
		}

		elemSize, err := ctx.SizeOf(v.Elem)
		if err != nil {
			return 0, err
		}

		return elemSize * int(v.Size), nil
	case *RecordType:
		if !v.Decl.DefinitionComplete() {
			return 0, fmt.Errorf("cannot take the size of incomplete type `%s`", t.Repr())
		}

		size, _ := v.Decl.TagLayout()
		return size, nil
	case *EnumType:
		if !v.Decl.DefinitionComplete() {
			return 0, fmt.Errorf("cannot take the size of incomplete enum `%s`", t.Repr())
		}

		return ctx.SizeOf(v.Under)
	case *FunctionType:
		return 0, fmt.Errorf("cannot take the size of function type `%s`", t.Repr())
	}

	return 0, fmt.Errorf("cannot take the size of type `%s`", t.Repr())
}

// AlignOf returns the alignment in bytes of the type, with the same failure
// behavior as SizeOf.
func (ctx *Context) AlignOf(t Type) (int, error) {
	canon := Unqualified(t.Canonical())

	switch v := canon.(type) {
	case *BuiltinType:
		if v.BK == LongDouble {
			return ctx.Target.LongDoubleAlign, nil
		}
	case *PointerType:
		return ctx.Target.PointerAlign, nil
	case *ArrayType:
		if v.AKind == ArrayConstant {
			return ctx.AlignOf(v.Elem)
		}
	case *RecordType:
		if v.Decl.DefinitionComplete() {
			_, align := v.Decl.TagLayout()
			return align, nil
		}
	}

	return ctx.SizeOf(t)
}

// -----------------------------------------------------------------------------

// integerRank returns the conversion rank of an integral builtin kind.
func integerRank(bk BuiltinKind) int {
	switch bk {
	case Bool:
		return 1
	case Char, SChar, UChar:
		return 2
	case Short, UShort, Char16:
		return 3
	case Int, UInt, WChar, Char32:
		return 4
	case Long, ULong:
		return 5
	default:
		return 6
	}
}

// isUnsignedKind returns whether the builtin kind is an unsigned integral
// kind.  Plain char counts as unsigned only on unsigned-char targets.
func (ctx *Context) isUnsignedKind(bk BuiltinKind) bool {
	switch bk {
	case Bool, UChar, UShort, UInt, ULong, ULongLong, Char16, Char32:
		return true
	case Char:
		return !ctx.Target.CharSigned
	}

	return false
}

// correspondingUnsigned returns the unsigned kind of the same rank.
func correspondingUnsigned(bk BuiltinKind) BuiltinKind {
	switch bk {
	case Char, SChar:
		return UChar
	case Short:
		return UShort
	case Int:
		return UInt
	case Long:
		return ULong
	case LongLong:
		return ULongLong
	}

	return bk
}

// Promote returns the integral or floating promotion of the type: bool,
// character, and short types promote to int; float promotes to double; enums
// promote to their underlying type's promotion.  Non-promotable types are
// returned unchanged.
func (ctx *Context) Promote(t Type) Type {
	if et := AsEnum(t); et != nil {
		return ctx.Promote(et.Under)
	}

	bt := AsBuiltin(t)
	if bt == nil {
		return t
	}

	switch {
	case bt.BK == Float:
		return ctx.GetBuiltin(Double)
	case bt.IsInteger() && integerRank(bt.BK) < integerRank(Int):
		// Types narrower than int always fit in int.
		return ctx.GetBuiltin(Int)
	case bt.BK == WChar || bt.BK == Char32:
		if ctx.builtinWidth(bt.BK) < ctx.Target.IntWidth {
			return ctx.GetBuiltin(Int)
		}

		return ctx.GetBuiltin(UInt)
	}

	return bt
}

// IsPromotion returns whether converting from builtin kind `from` to `to` is
// an integral or floating promotion on this context's target.
func (ctx *Context) IsPromotion(from, to Type) bool {
	return Same(ctx.Promote(from), to) && !Same(from, to)
}

// UsualArithmetic computes the usual arithmetic conversions' common type of
// two arithmetic (or enum) operand types.
func (ctx *Context) UsualArithmetic(a, b Type) Type {
	a, b = ctx.Promote(a), ctx.Promote(b)

	abt, bbt := AsBuiltin(a), AsBuiltin(b)
	if abt == nil || bbt == nil {
		return ctx.ErrorType()
	}

	// Floating types dominate, wider floating type wins.
	if abt.IsFloating() || bbt.IsFloating() {
		if !abt.IsFloating() {
			return bbt
		}

		if !bbt.IsFloating() {
			return abt
		}

		if ctx.builtinWidth(abt.BK) >= ctx.builtinWidth(bbt.BK) {
			return abt
		}

		return bbt
	}

	if abt.BK == bbt.BK {
		return abt
	}

	ar, br := integerRank(abt.BK), integerRank(bbt.BK)
	au, bu := ctx.isUnsignedKind(abt.BK), ctx.isUnsignedKind(bbt.BK)

	switch {
	case au == bu:
		if ar >= br {
			return abt
		}

		return bbt
	case au && ar >= br:
		return abt
	case bu && br >= ar:
		return bbt
	case !au && ctx.builtinWidth(abt.BK) > ctx.builtinWidth(bbt.BK):
		// The signed type can represent every value of the unsigned type.
		return abt
	case !bu && ctx.builtinWidth(bbt.BK) > ctx.builtinWidth(abt.BK):
		return bbt
	case !au:
		return ctx.GetBuiltin(correspondingUnsigned(abt.BK))
	default:
		return ctx.GetBuiltin(correspondingUnsigned(bbt.BK))
	}
}

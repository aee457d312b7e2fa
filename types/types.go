package types

import (
	"strconv"
	"strings"

	"cfront/util"
)

// Kind is the kind tag of a type node.
type Kind int

// Enumeration of the different type kinds.
const (
	KBuiltin Kind = iota
	KPointer
	KLValueRef
	KRValueRef
	KArray
	KFunction
	KRecord
	KEnum
	KMemberPointer
	KTemplateSpec
	KDependentName
	KTemplateParam
	KPackExpansion
	KAuto
	KQualified
	KTypedef
	KElaborated
)

// Dependence is the bitset of dependency properties of a type.
type Dependence uint8

// Enumeration of the dependency flags.
const (
	// The type syntactically refers to a template parameter.
	DepType Dependence = 1 << iota

	// An array bound or non-type argument of the type depends on a template
	// parameter.
	DepValue

	// Some component of the type mentions a template parameter, even if the
	// type itself is neither type- nor value-dependent.
	DepInstantiation

	// The type contains a template parameter pack that has not been expanded.
	DepUnexpandedPack
)

// normalizeDep enforces the monotonicity of the flags: type- or
// value-dependence implies instantiation-dependence.
func normalizeDep(d Dependence) Dependence {
	if d&(DepType|DepValue) != 0 {
		d |= DepInstantiation
	}

	return d
}

// IsDependent returns whether the type-dependent flag is set.
func (d Dependence) IsDependent() bool {
	return d&DepType != 0
}

// IsValueDependent returns whether the value-dependent flag is set.
func (d Dependence) IsValueDependent() bool {
	return d&DepValue != 0
}

// -----------------------------------------------------------------------------

// Type is a node in the type graph.  Types are created only through a Context
// and are uniqued: two structurally identical types created through the same
// context are the same pointer.  Every type links to its canonical
// (sugar-stripped, qualifier-normalized) form; type equality is pointer
// equality on canonical forms.
type Type interface {
	// Kind returns the kind tag of the type.
	Kind() Kind

	// Canonical returns the canonical form of the type.  Canonical types
	// return themselves.
	Canonical() Type

	// Dependence returns the dependency flags of the type.
	Dependence() Dependence

	// Repr returns the representative string for the type.
	Repr() string

	// base returns the shared type node state.  Restricts implementations to
	// this package.
	base() *typeBase
}

// typeBase is the state shared by all type nodes.
type typeBase struct {
	canon Type
	dep   Dependence

	// The uniquing key and sequential id assigned by the owning context.
	ukey string
	tid  uint64
}

func (tb *typeBase) Canonical() Type {
	return tb.canon
}

func (tb *typeBase) Dependence() Dependence {
	return tb.dep
}

func (tb *typeBase) base() *typeBase {
	return tb
}

// IsCanonical returns whether the type is its own canonical form.
func IsCanonical(t Type) bool {
	return t.Canonical() == t
}

// Same returns whether two types are semantically identical: ie. whether
// their canonical forms are the same pointer.
func Same(a, b Type) bool {
	return a.Canonical() == b.Canonical()
}

// -----------------------------------------------------------------------------

// BuiltinKind identifies a builtin type.
type BuiltinKind int

// Enumeration of the builtin types.
const (
	Void BuiltinKind = iota
	Bool
	Char
	SChar
	UChar
	WChar
	Char16
	Char32
	Short
	UShort
	Int
	UInt
	Long
	ULong
	LongLong
	ULongLong
	Float
	Double
	LongDouble
	NullPtr

	// ErrorTy is the recovery placeholder produced when an act fails and no
	// better guess is available.
	ErrorTy

	// DependentTy is the placeholder type of expressions whose type cannot
	// be known until template instantiation.
	DependentTy
)

// builtinNames maps builtin kinds to their representative spellings.
var builtinNames = map[BuiltinKind]string{
	Void:        "void",
	Bool:        "bool",
	Char:        "char",
	SChar:       "signed char",
	UChar:       "unsigned char",
	WChar:       "wchar_t",
	Char16:      "char16_t",
	Char32:      "char32_t",
	Short:       "short",
	UShort:      "unsigned short",
	Int:         "int",
	UInt:        "unsigned int",
	Long:        "long",
	ULong:       "unsigned long",
	LongLong:    "long long",
	ULongLong:   "unsigned long long",
	Float:       "float",
	Double:      "double",
	LongDouble:  "long double",
	NullPtr:     "std::nullptr_t",
	ErrorTy:     "<error>",
	DependentTy: "<dependent>",
}

// BuiltinType is a builtin type.  Builtin types are canonical singletons.
type BuiltinType struct {
	typeBase

	BK BuiltinKind
}

func (bt *BuiltinType) Kind() Kind {
	return KBuiltin
}

func (bt *BuiltinType) Repr() string {
	return builtinNames[bt.BK]
}

// IsInteger returns whether the builtin is an integral type (including bool
// and the character types).
func (bt *BuiltinType) IsInteger() bool {
	return Bool <= bt.BK && bt.BK <= ULongLong
}

// IsSignedInteger returns whether the builtin is a signed integral type.
func (bt *BuiltinType) IsSignedInteger() bool {
	switch bt.BK {
	case SChar, Short, Int, Long, LongLong:
		return true
	case Char:
		// Plain char's signedness is a target property; callers needing the
		// distinction go through Context.CharIsSigned.
		return false
	}

	return false
}

// IsFloating returns whether the builtin is a floating-point type.
func (bt *BuiltinType) IsFloating() bool {
	return bt.BK == Float || bt.BK == Double || bt.BK == LongDouble
}

// IsArithmetic returns whether the builtin is an arithmetic type.
func (bt *BuiltinType) IsArithmetic() bool {
	return bt.IsInteger() || bt.IsFloating()
}

// -----------------------------------------------------------------------------

// PointerType is a pointer type.
type PointerType struct {
	typeBase

	Pointee Type
}

func (pt *PointerType) Kind() Kind {
	return KPointer
}

func (pt *PointerType) Repr() string {
	return pt.Pointee.Repr() + "*"
}

// ReferenceType is an lvalue or rvalue reference type.
type ReferenceType struct {
	typeBase

	Pointee Type

	// Whether this is an rvalue reference.
	RValue bool
}

func (rt *ReferenceType) Kind() Kind {
	if rt.RValue {
		return KRValueRef
	}

	return KLValueRef
}

func (rt *ReferenceType) Repr() string {
	if rt.RValue {
		return rt.Pointee.Repr() + "&&"
	}

	return rt.Pointee.Repr() + "&"
}

// -----------------------------------------------------------------------------

// ArrayKind discriminates the forms an array type can take.
type ArrayKind int

// Enumeration of the array forms.
const (
	ArrayConstant ArrayKind = iota
	ArrayIncomplete
	ArrayVariable
	ArrayDependent
)

// ArrayType is an array type in any of its forms.
type ArrayType struct {
	typeBase

	Elem Type

	// The array form.
	AKind ArrayKind

	// The element count for constant arrays.
	Size int64

	// The size expression for variable and dependent arrays.  Held as an
	// opaque handle: the type system never evaluates it.
	SizeExpr interface{}
}

func (at *ArrayType) Kind() Kind {
	return KArray
}

func (at *ArrayType) Repr() string {
	switch at.AKind {
	case ArrayConstant:
		return at.Elem.Repr() + "[" + strconv.FormatInt(at.Size, 10) + "]"
	case ArrayIncomplete:
		return at.Elem.Repr() + "[]"
	default:
		return at.Elem.Repr() + "[*]"
	}
}

// -----------------------------------------------------------------------------

// FunctionType is a function type.  The exception specification is stored in
// a deterministic order so that equivalent specs canonicalize identically.
type FunctionType struct {
	typeBase

	Return Type
	Params []Type

	// Whether the function takes a trailing `...`.
	Variadic bool

	// Whether the function was declared without a prototype (C only).
	NoProto bool

	// Whether the function is declared noexcept.
	Noexcept bool

	// The types named in a dynamic exception specification, sorted by
	// canonical type id.
	Throws []Type
}

func (ft *FunctionType) Kind() Kind {
	return KFunction
}

func (ft *FunctionType) Repr() string {
	sb := strings.Builder{}
	sb.WriteString(ft.Return.Repr())
	sb.WriteString(" (")

	for i, param := range ft.Params {
		if i != 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(param.Repr())
	}

	if ft.Variadic {
		if len(ft.Params) > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString("...")
	}

	sb.WriteRune(')')

	if ft.Noexcept {
		sb.WriteString(" noexcept")
	}

	return sb.String()
}

// ParamReprs returns the representative strings of the parameter types.
func (ft *FunctionType) ParamReprs() []string {
	return util.Map(ft.Params, func(t Type) string { return t.Repr() })
}

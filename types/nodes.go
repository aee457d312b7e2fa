package types

import "strings"

// TagDecl is the view of a record or enum declaration that the type system
// needs.  The AST's record and enum declarations implement it; keeping it an
// interface here breaks the dependency cycle between the type graph and the
// declaration tree.
type TagDecl interface {
	// TagName returns the declared name of the tag, or "" for anonymous tags.
	TagName() string

	// DefinitionComplete returns whether the tag has a completed definition.
	DefinitionComplete() bool

	// TagLayout returns the computed size and alignment in bytes.  Only valid
	// once DefinitionComplete returns true.
	TagLayout() (size, align int)

	// CanonicalTag returns the canonical declaration of the redeclaration
	// chain.
	CanonicalTag() TagDecl

	// TagBases returns the canonical tag declarations of the direct bases.
	TagBases() []TagDecl
}

// TypedefName is the view of a typedef or alias declaration the type system
// needs for sugar nodes.
type TypedefName interface {
	TypedefName() string
}

// TemplateName is the view of a template declaration the type system needs
// for template-specialization type nodes.
type TemplateName interface {
	// TemplateName returns the declared name of the template.
	TemplateName() string

	// CanonicalTemplate returns the canonical declaration of the template's
	// redeclaration chain.
	CanonicalTemplate() TemplateName
}

// -----------------------------------------------------------------------------

// RecordType is the type of a class, struct, or union.
type RecordType struct {
	typeBase

	Decl TagDecl
}

func (rt *RecordType) Kind() Kind {
	return KRecord
}

func (rt *RecordType) Repr() string {
	if name := rt.Decl.TagName(); name != "" {
		return name
	}

	return "<anonymous record>"
}

// EnumType is the type of an enumeration.
type EnumType struct {
	typeBase

	Decl TagDecl

	// The underlying integral type.
	Under Type
}

func (et *EnumType) Kind() Kind {
	return KEnum
}

func (et *EnumType) Repr() string {
	if name := et.Decl.TagName(); name != "" {
		return name
	}

	return "<anonymous enum>"
}

// MemberPointerType is a pointer-to-member type `Pointee Class::*`.
type MemberPointerType struct {
	typeBase

	// The class type the member belongs to.
	Class Type

	// The type of the pointed-to member.
	Pointee Type
}

func (mpt *MemberPointerType) Kind() Kind {
	return KMemberPointer
}

func (mpt *MemberPointerType) Repr() string {
	return mpt.Pointee.Repr() + " " + mpt.Class.Repr() + "::*"
}

// -----------------------------------------------------------------------------

// Qualifiers is the bitset of type qualifiers.  The low bits carry the CVR
// qualifiers; the address space occupies bits 8-15 and the object-lifetime
// qualifier bits 16-18.
type Qualifiers uint32

// Enumeration of the CVR qualifier bits.
const (
	QualConst Qualifiers = 1 << iota
	QualVolatile
	QualRestrict
)

const (
	addrSpaceShift = 8
	addrSpaceMask  = Qualifiers(0xff) << addrSpaceShift
	lifetimeShift  = 16
	lifetimeMask   = Qualifiers(0x7) << lifetimeShift
)

// WithAddressSpace returns the qualifiers with the given address space set.
func (q Qualifiers) WithAddressSpace(as uint8) Qualifiers {
	return (q &^ addrSpaceMask) | Qualifiers(as)<<addrSpaceShift
}

// AddressSpace returns the address space number, 0 meaning default.
func (q Qualifiers) AddressSpace() uint8 {
	return uint8((q & addrSpaceMask) >> addrSpaceShift)
}

// WithLifetime returns the qualifiers with the given object-lifetime
// qualifier set.
func (q Qualifiers) WithLifetime(lt uint8) Qualifiers {
	return (q &^ lifetimeMask) | Qualifiers(lt)<<lifetimeShift
}

// HasConst returns whether the const bit is set.
func (q Qualifiers) HasConst() bool {
	return q&QualConst != 0
}

// HasVolatile returns whether the volatile bit is set.
func (q Qualifiers) HasVolatile() bool {
	return q&QualVolatile != 0
}

// Superset returns whether q includes every qualifier of other.
func (q Qualifiers) Superset(other Qualifiers) bool {
	return q|other == q
}

func (q Qualifiers) String() string {
	var parts []string

	if q.HasConst() {
		parts = append(parts, "const")
	}

	if q.HasVolatile() {
		parts = append(parts, "volatile")
	}

	if q&QualRestrict != 0 {
		parts = append(parts, "restrict")
	}

	return strings.Join(parts, " ")
}

// QualifiedType wraps a type with a non-empty qualifier set.  The inner type
// is never itself qualified: qualifier layers merge on construction so the
// qualifiers always attach to the least-qualified wrapper.
type QualifiedType struct {
	typeBase

	Quals Qualifiers
	Inner Type
}

func (qt *QualifiedType) Kind() Kind {
	return KQualified
}

func (qt *QualifiedType) Repr() string {
	return qt.Quals.String() + " " + qt.Inner.Repr()
}

// -----------------------------------------------------------------------------

// QualsOf splits a possibly qualified type into its qualifiers and its
// unqualified part.
func QualsOf(t Type) (Qualifiers, Type) {
	if qt, ok := t.(*QualifiedType); ok {
		return qt.Quals, qt.Inner
	}

	return 0, t
}

// Unqualified returns the type without its outermost qualifiers.
func Unqualified(t Type) Type {
	_, inner := QualsOf(t)
	return inner
}

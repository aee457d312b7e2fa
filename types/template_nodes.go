package types

import (
	"strconv"
	"strings"
)

// TemplateParamType is a reference to a template type parameter.  Parameters
// are canonically identified by their depth and index; the name is sugar.
type TemplateParamType struct {
	typeBase

	// The nesting depth of the owning template parameter list and the
	// parameter's index within it.
	Depth, Index int

	// The declared name of the parameter, if any.
	Name string

	// Whether the parameter is a parameter pack.
	Pack bool
}

func (tpt *TemplateParamType) Kind() Kind {
	return KTemplateParam
}

func (tpt *TemplateParamType) Repr() string {
	if tpt.Name != "" {
		return tpt.Name
	}

	return "type-parameter-" + strconv.Itoa(tpt.Depth) + "-" + strconv.Itoa(tpt.Index)
}

// -----------------------------------------------------------------------------

// TemplateArgKind discriminates the kinds of template arguments.
type TemplateArgKind int

// Enumeration of the template argument kinds.
const (
	ArgType TemplateArgKind = iota
	ArgInt
	ArgTemplate
	ArgPack
	ArgExpr
)

// TemplateArg is one template argument.
type TemplateArg struct {
	Kind TemplateArgKind

	// The argument type for ArgType; the integral type for ArgInt.
	Type Type

	// The value for ArgInt.
	Int int64

	// The named template for ArgTemplate.
	Template TemplateName

	// The expanded elements for ArgPack.
	Elems []TemplateArg

	// The dependent expression handle for ArgExpr.  Opaque to the type
	// system.
	Expr interface{}
}

// TypeArg builds a type template argument.
func TypeArg(t Type) TemplateArg {
	return TemplateArg{Kind: ArgType, Type: t}
}

// IntArg builds a non-type integral template argument.
func IntArg(t Type, v int64) TemplateArg {
	return TemplateArg{Kind: ArgInt, Type: t, Int: v}
}

// PackArg builds a pack template argument from expanded elements.
func PackArg(elems ...TemplateArg) TemplateArg {
	return TemplateArg{Kind: ArgPack, Elems: elems}
}

// Dependence returns the dependency flags contributed by the argument.
func (ta TemplateArg) Dependence() Dependence {
	switch ta.Kind {
	case ArgType:
		return ta.Type.Dependence()
	case ArgInt:
		return 0
	case ArgExpr:
		// A dependent expression argument makes the enclosing type
		// value-dependent.
		return DepValue | DepInstantiation
	case ArgPack:
		var d Dependence
		for _, elem := range ta.Elems {
			d |= elem.Dependence()
		}

		return d
	}

	return 0
}

// Repr returns the display form of the argument.
func (ta TemplateArg) Repr() string {
	switch ta.Kind {
	case ArgType:
		return ta.Type.Repr()
	case ArgInt:
		return strconv.FormatInt(ta.Int, 10)
	case ArgTemplate:
		return ta.Template.TemplateName()
	case ArgPack:
		var parts []string
		for _, elem := range ta.Elems {
			parts = append(parts, elem.Repr())
		}

		return strings.Join(parts, ", ")
	default:
		return "<dependent>"
	}
}

// SameArgs returns whether two argument lists are canonically identical.
func SameArgs(a, b []TemplateArg) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !sameArg(a[i], b[i]) {
			return false
		}
	}

	return true
}

func sameArg(a, b TemplateArg) bool {
	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case ArgType:
		return Same(a.Type, b.Type)
	case ArgInt:
		return a.Int == b.Int && Same(a.Type, b.Type)
	case ArgTemplate:
		return a.Template.CanonicalTemplate() == b.Template.CanonicalTemplate()
	case ArgPack:
		return SameArgs(a.Elems, b.Elems)
	case ArgExpr:
		return a.Expr == b.Expr
	}

	return false
}

// -----------------------------------------------------------------------------

// TemplateSpecType is a template-specialization type `T<Args...>`.  When the
// argument list is non-dependent and the specialization has been resolved,
// the node is sugar over the specialization's record type; otherwise it is a
// canonical dependent type.
type TemplateSpecType struct {
	typeBase

	Template TemplateName
	Args     []TemplateArg

	// The resolved specialization type, nil while dependent or unresolved.
	Underlying Type
}

func (tst *TemplateSpecType) Kind() Kind {
	return KTemplateSpec
}

func (tst *TemplateSpecType) Repr() string {
	sb := strings.Builder{}
	sb.WriteString(tst.Template.TemplateName())
	sb.WriteRune('<')

	for i, arg := range tst.Args {
		if i != 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(arg.Repr())
	}

	sb.WriteRune('>')
	return sb.String()
}

// DependentNameType is a qualified name whose meaning depends on a template
// parameter, eg. `typename T::type`.
type DependentNameType struct {
	typeBase

	// The dependent qualifier type.
	Qualifier Type

	// The named member.
	Name string
}

func (dnt *DependentNameType) Kind() Kind {
	return KDependentName
}

func (dnt *DependentNameType) Repr() string {
	return "typename " + dnt.Qualifier.Repr() + "::" + dnt.Name
}

// PackExpansionType is a pack expansion pattern `Pattern...`.
type PackExpansionType struct {
	typeBase

	Pattern Type
}

func (pet *PackExpansionType) Kind() Kind {
	return KPackExpansion
}

func (pet *PackExpansionType) Repr() string {
	return pet.Pattern.Repr() + "..."
}

// AutoType is a placeholder for a deduced type.  Once deduction succeeds the
// node is sugar over the deduced type.
type AutoType struct {
	typeBase

	// The deduced type, nil while undeduced.
	Deduced Type
}

func (at *AutoType) Kind() Kind {
	return KAuto
}

func (at *AutoType) Repr() string {
	if at.Deduced != nil {
		return at.Deduced.Repr()
	}

	return "auto"
}

// -----------------------------------------------------------------------------

// TypedefType is sugar recording that a type was written through a typedef or
// alias name.
type TypedefType struct {
	typeBase

	Decl TypedefName

	// The aliased type.
	Under Type
}

func (tt *TypedefType) Kind() Kind {
	return KTypedef
}

func (tt *TypedefType) Repr() string {
	return tt.Decl.TypedefName()
}

// ElaboratedType is sugar recording an elaborated type keyword, eg.
// `struct S`.
type ElaboratedType struct {
	typeBase

	// The written keyword: "struct", "class", "union", "enum", or "typename".
	Keyword string

	Named Type
}

func (et *ElaboratedType) Kind() Kind {
	return KElaborated
}

func (et *ElaboratedType) Repr() string {
	return et.Keyword + " " + et.Named.Repr()
}

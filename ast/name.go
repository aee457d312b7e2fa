package ast

import "cfront/types"

// NameKind discriminates the kinds of declaration names.
type NameKind int

// Enumeration of the declaration name kinds.
const (
	NIdentifier NameKind = iota
	NOperator
	NConstructor
	NDestructor
	NConversion
	NLiteralOperator
	NAnonymous
)

// OverloadedOperator identifies an overloadable operator.
type OverloadedOperator int

// Enumeration of the overloadable operators.
const (
	OpNone OverloadedOperator = iota
	OpPlus
	OpMinus
	OpStar
	OpSlash
	OpPercent
	OpAmp
	OpPipe
	OpCaret
	OpTilde
	OpExclaim
	OpLess
	OpGreater
	OpLessEqual
	OpGreaterEqual
	OpEqualEqual
	OpExclaimEqual
	OpLessLess
	OpGreaterGreater
	OpAmpAmp
	OpPipePipe
	OpEqual
	OpPlusEqual
	OpMinusEqual
	OpStarEqual
	OpSlashEqual
	OpPlusPlus
	OpMinusMinus
	OpComma
	OpArrow
	OpCall
	OpSubscript
	OpNew
	OpDelete
)

// operatorSpellings maps operators to their source spellings.
var operatorSpellings = map[OverloadedOperator]string{
	OpPlus:           "+",
	OpMinus:          "-",
	OpStar:           "*",
	OpSlash:          "/",
	OpPercent:        "%",
	OpAmp:            "&",
	OpPipe:           "|",
	OpCaret:          "^",
	OpTilde:          "~",
	OpExclaim:        "!",
	OpLess:           "<",
	OpGreater:        ">",
	OpLessEqual:      "<=",
	OpGreaterEqual:   ">=",
	OpEqualEqual:     "==",
	OpExclaimEqual:   "!=",
	OpLessLess:       "<<",
	OpGreaterGreater: ">>",
	OpAmpAmp:         "&&",
	OpPipePipe:       "||",
	OpEqual:          "=",
	OpPlusEqual:      "+=",
	OpMinusEqual:     "-=",
	OpStarEqual:      "*=",
	OpSlashEqual:     "/=",
	OpPlusPlus:       "++",
	OpMinusMinus:     "--",
	OpComma:          ",",
	OpArrow:          "->",
	OpCall:           "()",
	OpSubscript:      "[]",
	OpNew:            "new",
	OpDelete:         "delete",
}

// Spelling returns the source spelling of the operator.
func (op OverloadedOperator) Spelling() string {
	return operatorSpellings[op]
}

// DeclName is the name of a declaration.  Most declarations are named by an
// identifier, but operators, constructors, destructors, conversion functions,
// and literal operators have structured names.
type DeclName struct {
	Kind NameKind

	// The identifier text for NIdentifier, or the suffix for
	// NLiteralOperator.
	Ident string

	// The operator for NOperator.
	Op OverloadedOperator

	// The conversion target type for NConversion.
	ConvType types.Type
}

// Ident builds an identifier name.
func Ident(name string) DeclName {
	return DeclName{Kind: NIdentifier, Ident: name}
}

// OperatorName builds an operator name.
func OperatorName(op OverloadedOperator) DeclName {
	return DeclName{Kind: NOperator, Op: op}
}

// ConstructorName builds a constructor name.
func ConstructorName() DeclName {
	return DeclName{Kind: NConstructor}
}

// DestructorName builds a destructor name.
func DestructorName() DeclName {
	return DeclName{Kind: NDestructor}
}

// ConversionName builds a conversion-function name for the given target.
func ConversionName(target types.Type) DeclName {
	return DeclName{Kind: NConversion, ConvType: target}
}

// AnonymousName builds the name of an unnamed declaration.
func AnonymousName() DeclName {
	return DeclName{Kind: NAnonymous}
}

// Key returns the string under which the name is indexed in a declaration
// context.  Conversion functions of different targets share an index entry
// and are distinguished by their types.
func (n DeclName) Key() string {
	switch n.Kind {
	case NIdentifier:
		return n.Ident
	case NOperator:
		return "operator" + n.Op.Spelling()
	case NConstructor:
		return "$ctor"
	case NDestructor:
		return "$dtor"
	case NConversion:
		return "$conv"
	case NLiteralOperator:
		return `operator""` + n.Ident
	default:
		return "$anon"
	}
}

// String returns the display form of the name.
func (n DeclName) String() string {
	switch n.Kind {
	case NIdentifier:
		return n.Ident
	case NOperator:
		return "operator" + n.Op.Spelling()
	case NConstructor:
		return "<constructor>"
	case NDestructor:
		return "<destructor>"
	case NConversion:
		return "operator " + n.ConvType.Repr()
	case NLiteralOperator:
		return `operator""` + n.Ident
	default:
		return "<anonymous>"
	}
}

// Empty returns whether the name is an empty identifier.
func (n DeclName) Empty() bool {
	return n.Kind == NIdentifier && n.Ident == ""
}

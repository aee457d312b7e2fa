package ast

import (
	"cfront/report"
	"cfront/types"
)

// ValueCategory classifies an expression's value category.
type ValueCategory int

// Enumeration of the value categories.
const (
	PRValue ValueCategory = iota
	LValue
	XValue
)

// IsGLValue returns whether the category denotes an object identity.
func (vc ValueCategory) IsGLValue() bool {
	return vc == LValue || vc == XValue
}

// Expr is a typed expression node.
type Expr interface {
	// Type returns the expression's type.
	Type() types.Type

	// Category returns the expression's value category.
	Category() ValueCategory

	// Loc returns the expression's primary location.
	Loc() report.SourceLoc

	// Range returns the expression's full source range.
	Range() report.SourceRange

	// Invalid returns whether the node is an error-recovery result.
	// Invalidity propagates: acts called with invalid operands return
	// invalid silently.
	Invalid() bool

	// Dependence returns the expression's dependency flags.
	Dependence() types.Dependence

	exprNode()
}

// ExprBase is the state shared by all expression nodes.
type ExprBase struct {
	Ty   types.Type
	VC   ValueCategory
	Span report.SourceRange
	Bad  bool
	Dep  types.Dependence
}

func (eb *ExprBase) Type() types.Type             { return eb.Ty }
func (eb *ExprBase) Category() ValueCategory      { return eb.VC }
func (eb *ExprBase) Loc() report.SourceLoc        { return eb.Span.Begin }
func (eb *ExprBase) Range() report.SourceRange    { return eb.Span }
func (eb *ExprBase) Invalid() bool                { return eb.Bad }
func (eb *ExprBase) Dependence() types.Dependence { return eb.Dep }
func (eb *ExprBase) exprNode()                    {}

// makeBase builds the common base for a freshly typed expression.
func makeBase(ty types.Type, vc ValueCategory, span report.SourceRange) ExprBase {
	var dep types.Dependence
	if ty != nil {
		dep = ty.Dependence()
	}

	return ExprBase{Ty: ty, VC: vc, Span: span, Dep: dep}
}

// AnyInvalid returns whether any of the given expressions is an invalid
// marker.
func AnyInvalid(exprs ...Expr) bool {
	for _, e := range exprs {
		if e != nil && e.Invalid() {
			return true
		}
	}

	return false
}

// AnyDependent returns whether any of the given expressions is type- or
// value-dependent.
func AnyDependent(exprs ...Expr) bool {
	for _, e := range exprs {
		if e == nil {
			continue
		}

		if e.Dependence()&(types.DepType|types.DepValue) != 0 {
			return true
		}
	}

	return false
}

// -----------------------------------------------------------------------------

// RecoveryExpr is the invalid marker: the placeholder produced when an act
// fails.  It carries a best-guess type so dependent acts can continue, and
// its invalid flag suppresses cascaded diagnostics.
type RecoveryExpr struct {
	ExprBase

	// The operands the failed act received, retained for tooling.
	Children []Expr
}

// NewRecoveryExpr creates an invalid marker of the given best-guess type.
func NewRecoveryExpr(ty types.Type, span report.SourceRange, children ...Expr) *RecoveryExpr {
	re := &RecoveryExpr{ExprBase: makeBase(ty, PRValue, span), Children: children}
	re.Bad = true
	return re
}

// -----------------------------------------------------------------------------

// IntegerLiteral is an integer constant.
type IntegerLiteral struct {
	ExprBase

	Value int64
}

// NewIntegerLiteral creates an integer literal of the given type.
func NewIntegerLiteral(value int64, ty types.Type, span report.SourceRange) *IntegerLiteral {
	return &IntegerLiteral{ExprBase: makeBase(ty, PRValue, span), Value: value}
}

// FloatingLiteral is a floating-point constant.
type FloatingLiteral struct {
	ExprBase

	Value float64
}

// NewFloatingLiteral creates a floating literal of the given type.
func NewFloatingLiteral(value float64, ty types.Type, span report.SourceRange) *FloatingLiteral {
	return &FloatingLiteral{ExprBase: makeBase(ty, PRValue, span), Value: value}
}

// BoolLiteral is `true` or `false`.
type BoolLiteral struct {
	ExprBase

	Value bool
}

// NewBoolLiteral creates a boolean literal.
func NewBoolLiteral(value bool, ty types.Type, span report.SourceRange) *BoolLiteral {
	return &BoolLiteral{ExprBase: makeBase(ty, PRValue, span), Value: value}
}

// NullPtrLiteral is `nullptr`.
type NullPtrLiteral struct {
	ExprBase
}

// NewNullPtrLiteral creates a nullptr literal.
func NewNullPtrLiteral(ty types.Type, span report.SourceRange) *NullPtrLiteral {
	return &NullPtrLiteral{ExprBase: makeBase(ty, PRValue, span)}
}

// StringLiteral is a string constant.  String literals are lvalues of
// constant character array type.
type StringLiteral struct {
	ExprBase

	Value string
}

// NewStringLiteral creates a string literal of the given array type.
func NewStringLiteral(value string, ty types.Type, span report.SourceRange) *StringLiteral {
	return &StringLiteral{ExprBase: makeBase(ty, LValue, span), Value: value}
}

// -----------------------------------------------------------------------------

// DeclRefExpr is a reference to a declaration.
type DeclRefExpr struct {
	ExprBase

	Decl Decl
}

// NewDeclRefExpr creates a reference to the given declaration.
func NewDeclRefExpr(d Decl, ty types.Type, vc ValueCategory, span report.SourceRange) *DeclRefExpr {
	return &DeclRefExpr{ExprBase: makeBase(ty, vc, span), Decl: d}
}

// UnresolvedLookupExpr is a reference to an overloaded name whose resolution
// is deferred to the call site.
type UnresolvedLookupExpr struct {
	ExprBase

	Name DeclName

	// The candidate declarations found by lookup.
	Decls []Decl

	// Whether argument-dependent lookup applies at the call site (the name
	// was unqualified).
	WantsADL bool
}

// NewUnresolvedLookupExpr creates an unresolved overload reference.
func NewUnresolvedLookupExpr(name DeclName, decls []Decl, wantsADL bool, ty types.Type, span report.SourceRange) *UnresolvedLookupExpr {
	ule := &UnresolvedLookupExpr{
		ExprBase: makeBase(ty, LValue, span),
		Name:     name,
		Decls:    decls,
		WantsADL: wantsADL,
	}

	// The overload set itself is not dependent even though its placeholder
	// type is: resolution waits on the call arguments, not on template
	// parameters.
	ule.Dep = 0
	return ule
}

// UnresolvedMemberExpr is a member access naming an overloaded member
// function set; the overload resolves against the arguments at the call site.
type UnresolvedMemberExpr struct {
	ExprBase

	Base  Expr
	Arrow bool
	Name  DeclName

	// The member function candidates.
	Decls []Decl
}

// NewUnresolvedMemberExpr creates an unresolved member overload reference.
func NewUnresolvedMemberExpr(base Expr, arrow bool, name DeclName, decls []Decl, ty types.Type, span report.SourceRange) *UnresolvedMemberExpr {
	ume := &UnresolvedMemberExpr{ExprBase: makeBase(ty, LValue, span), Base: base, Arrow: arrow, Name: name, Decls: decls}
	ume.Dep = base.Dependence()
	return ume
}

// DependentNameExpr is a name whose meaning depends on a template parameter;
// it is re-looked-up at instantiation.
type DependentNameExpr struct {
	ExprBase

	Name DeclName

	// The qualifier type for qualified dependent names, nil for unqualified.
	Qualifier types.Type
}

// NewDependentNameExpr creates a dependent name reference.
func NewDependentNameExpr(name DeclName, qualifier types.Type, ty types.Type, span report.SourceRange) *DependentNameExpr {
	dne := &DependentNameExpr{ExprBase: makeBase(ty, LValue, span), Name: name, Qualifier: qualifier}
	dne.Dep |= types.DepType | types.DepValue | types.DepInstantiation
	return dne
}

// ThisExpr is the implicit object pointer inside a member function.
type ThisExpr struct {
	ExprBase
}

// NewThisExpr creates a `this` expression of the given pointer type.
func NewThisExpr(ty types.Type, span report.SourceRange) *ThisExpr {
	return &ThisExpr{ExprBase: makeBase(ty, PRValue, span)}
}

// -----------------------------------------------------------------------------

// UnaryOpKind identifies a built-in unary operator.
type UnaryOpKind int

// Enumeration of the unary operators.
const (
	UnPlus UnaryOpKind = iota
	UnMinus
	UnNot
	UnLNot
	UnDeref
	UnAddrOf
	UnPreInc
	UnPreDec
	UnPostInc
	UnPostDec
)

// UnaryExpr is a built-in unary operator application.
type UnaryExpr struct {
	ExprBase

	Op      UnaryOpKind
	Operand Expr
}

// NewUnaryExpr creates a typed unary operator application.
func NewUnaryExpr(op UnaryOpKind, operand Expr, ty types.Type, vc ValueCategory, span report.SourceRange) *UnaryExpr {
	ue := &UnaryExpr{ExprBase: makeBase(ty, vc, span), Op: op, Operand: operand}
	ue.Dep |= operand.Dependence()
	return ue
}

// BinaryOpKind identifies a built-in binary operator.
type BinaryOpKind int

// Enumeration of the binary operators.
const (
	BinAdd BinaryOpKind = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinAnd
	BinOr
	BinXor
	BinShl
	BinShr
	BinLT
	BinGT
	BinLE
	BinGE
	BinEQ
	BinNE
	BinLAnd
	BinLOr
	BinAssign
	BinComma
)

// binarySpellings maps binary operators to their source spellings.
var binarySpellings = map[BinaryOpKind]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinRem: "%",
	BinAnd: "&", BinOr: "|", BinXor: "^", BinShl: "<<", BinShr: ">>",
	BinLT: "<", BinGT: ">", BinLE: "<=", BinGE: ">=", BinEQ: "==", BinNE: "!=",
	BinLAnd: "&&", BinLOr: "||", BinAssign: "=", BinComma: ",",
}

// Spelling returns the operator's source spelling.
func (op BinaryOpKind) Spelling() string {
	return binarySpellings[op]
}

// IsComparison returns whether the operator is a comparison.
func (op BinaryOpKind) IsComparison() bool {
	return BinLT <= op && op <= BinNE
}

// BinaryExpr is a built-in binary operator application.
type BinaryExpr struct {
	ExprBase

	Op   BinaryOpKind
	LHS  Expr
	RHS  Expr
}

// NewBinaryExpr creates a typed binary operator application.
func NewBinaryExpr(op BinaryOpKind, lhs, rhs Expr, ty types.Type, vc ValueCategory, span report.SourceRange) *BinaryExpr {
	be := &BinaryExpr{ExprBase: makeBase(ty, vc, span), Op: op, LHS: lhs, RHS: rhs}
	be.Dep |= lhs.Dependence() | rhs.Dependence()
	return be
}

// ConditionalExpr is the ternary `?:` operator.
type ConditionalExpr struct {
	ExprBase

	Cond, Then, Else Expr
}

// NewConditionalExpr creates a typed conditional expression.
func NewConditionalExpr(cond, then, els Expr, ty types.Type, vc ValueCategory, span report.SourceRange) *ConditionalExpr {
	ce := &ConditionalExpr{ExprBase: makeBase(ty, vc, span), Cond: cond, Then: then, Else: els}
	ce.Dep |= cond.Dependence() | then.Dependence() | els.Dependence()
	return ce
}

// -----------------------------------------------------------------------------

// CastKind identifies the semantic operation an implicit or explicit cast
// performs.
type CastKind int

// Enumeration of the cast kinds.
const (
	CastNoOp CastKind = iota
	CastLValueToRValue
	CastArrayToPointer
	CastFunctionToPointer
	CastIntegralCast
	CastIntegralPromotion
	CastFloatingCast
	CastFloatingPromotion
	CastIntegralToFloating
	CastFloatingToIntegral
	CastToBoolean
	CastNullToPointer
	CastNullToMemberPointer
	CastDerivedToBase
	CastBaseToDerived
	CastBitCast
	CastPointerToIntegral
	CastIntegralToPointer
	CastUserDefined
	CastConstructorConversion
	CastToVoid
	CastQualification
)

// ImplicitCastExpr is a compiler-introduced conversion step.
type ImplicitCastExpr struct {
	ExprBase

	CK      CastKind
	Operand Expr

	// The conversion function or constructor for user-defined conversions.
	ConvFunc Decl

	// The inheritance path length for derived-to-base casts.
	BasePathLen int
}

// NewImplicitCastExpr creates an implicit conversion node.
func NewImplicitCastExpr(ck CastKind, operand Expr, ty types.Type, vc ValueCategory) *ImplicitCastExpr {
	ice := &ImplicitCastExpr{ExprBase: makeBase(ty, vc, operand.Range()), CK: ck, Operand: operand}
	ice.Dep |= operand.Dependence()
	return ice
}

// ExplicitCastStyle identifies the written form of an explicit cast.
type ExplicitCastStyle int

// Enumeration of the explicit cast styles.
const (
	CastStyleC ExplicitCastStyle = iota
	CastStyleStatic
	CastStyleConst
	CastStyleReinterpret
)

// ExplicitCastExpr is a cast written in the source.
type ExplicitCastExpr struct {
	ExprBase

	Style   ExplicitCastStyle
	CK      CastKind
	Written types.Type
	Operand Expr
}

// NewExplicitCastExpr creates an explicit cast node.
func NewExplicitCastExpr(style ExplicitCastStyle, ck CastKind, written types.Type, operand Expr, vc ValueCategory, span report.SourceRange) *ExplicitCastExpr {
	ece := &ExplicitCastExpr{
		ExprBase: makeBase(written, vc, span),
		Style:    style,
		CK:       ck,
		Written:  written,
		Operand:  operand,
	}
	ece.Dep |= operand.Dependence()
	return ece
}

// -----------------------------------------------------------------------------

// CallExpr is a function call.
type CallExpr struct {
	ExprBase

	// The callee expression as written.
	Callee Expr

	// The resolved function, nil for calls through function pointers and for
	// dependent calls.
	Fn *FunctionDecl

	// The converted arguments, including materialized default arguments.
	Args []Expr
}

// NewCallExpr creates a resolved call expression.
func NewCallExpr(callee Expr, fn *FunctionDecl, args []Expr, ty types.Type, vc ValueCategory, span report.SourceRange) *CallExpr {
	ce := &CallExpr{ExprBase: makeBase(ty, vc, span), Callee: callee, Fn: fn, Args: args}

	ce.Dep |= callee.Dependence()
	for _, a := range args {
		ce.Dep |= a.Dependence()
	}

	return ce
}

// MemberExpr is a member access `e.x` or `e->x`.
type MemberExpr struct {
	ExprBase

	Base   Expr
	Arrow  bool
	Member Decl
}

// NewMemberExpr creates a member access expression.
func NewMemberExpr(base Expr, arrow bool, member Decl, ty types.Type, vc ValueCategory, span report.SourceRange) *MemberExpr {
	me := &MemberExpr{ExprBase: makeBase(ty, vc, span), Base: base, Arrow: arrow, Member: member}
	me.Dep |= base.Dependence()
	return me
}

// SubscriptExpr is an array subscript `e[i]`.
type SubscriptExpr struct {
	ExprBase

	Base, Index Expr
}

// NewSubscriptExpr creates a subscript expression.
func NewSubscriptExpr(base, index Expr, ty types.Type, vc ValueCategory, span report.SourceRange) *SubscriptExpr {
	se := &SubscriptExpr{ExprBase: makeBase(ty, vc, span), Base: base, Index: index}
	se.Dep |= base.Dependence() | index.Dependence()
	return se
}

// ConstructExpr is an implicit or explicit object construction.
type ConstructExpr struct {
	ExprBase

	Ctor *FunctionDecl
	Args []Expr
}

// NewConstructExpr creates a construction expression.
func NewConstructExpr(ctor *FunctionDecl, args []Expr, ty types.Type, span report.SourceRange) *ConstructExpr {
	ce := &ConstructExpr{ExprBase: makeBase(ty, PRValue, span), Ctor: ctor, Args: args}

	for _, a := range args {
		ce.Dep |= a.Dependence()
	}

	return ce
}

// InitListExpr is a braced initializer list.
type InitListExpr struct {
	ExprBase

	Inits []Expr
}

// NewInitListExpr creates an initializer-list expression.
func NewInitListExpr(inits []Expr, ty types.Type, span report.SourceRange) *InitListExpr {
	ile := &InitListExpr{ExprBase: makeBase(ty, PRValue, span), Inits: inits}

	for _, i := range inits {
		ile.Dep |= i.Dependence()
	}

	return ile
}

// SizeofExpr is `sizeof(T)` or `sizeof e`, and `alignof` likewise.
type SizeofExpr struct {
	ExprBase

	// The queried type.
	Queried types.Type

	// Whether this is alignof rather than sizeof.
	Alignof bool

	// The computed result; meaningless while the operand is dependent.
	Result int64
}

// NewSizeofExpr creates a sizeof or alignof expression.
func NewSizeofExpr(queried types.Type, alignof bool, result int64, ty types.Type, span report.SourceRange) *SizeofExpr {
	se := &SizeofExpr{ExprBase: makeBase(ty, PRValue, span), Queried: queried, Alignof: alignof, Result: result}

	if queried.Dependence().IsDependent() {
		se.Dep |= types.DepValue | types.DepInstantiation
	}

	return se
}

// ParenExpr preserves written parentheses.
type ParenExpr struct {
	ExprBase

	Inner Expr
}

// NewParenExpr creates a parenthesized expression.
func NewParenExpr(inner Expr, span report.SourceRange) *ParenExpr {
	pe := &ParenExpr{ExprBase: makeBase(inner.Type(), inner.Category(), span), Inner: inner}
	pe.Dep = inner.Dependence()
	return pe
}

// IgnoreParens strips any parenthesized wrappers.
func IgnoreParens(e Expr) Expr {
	for {
		pe, ok := e.(*ParenExpr)
		if !ok {
			return e
		}

		e = pe.Inner
	}
}

// IgnoreParenCasts strips parentheses and implicit casts.
func IgnoreParenCasts(e Expr) Expr {
	for {
		switch v := e.(type) {
		case *ParenExpr:
			e = v.Inner
		case *ImplicitCastExpr:
			e = v.Operand
		default:
			return e
		}
	}
}

// IsNullPointerConstant returns whether the expression is a null pointer
// constant: the literal 0 or nullptr.
func IsNullPointerConstant(e Expr) bool {
	switch v := IgnoreParenCasts(e).(type) {
	case *IntegerLiteral:
		return v.Value == 0
	case *NullPtrLiteral:
		return true
	}

	return false
}

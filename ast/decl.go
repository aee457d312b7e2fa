package ast

import (
	"cfront/report"
	"cfront/types"
)

// DeclKind is the kind tag of a declaration node.
type DeclKind int

// Enumeration of the declaration kinds.
const (
	DKTranslationUnit DeclKind = iota
	DKNamespace
	DKNamespaceAlias
	DKVar
	DKParam
	DKField
	DKFunction
	DKEnum
	DKEnumConstant
	DKRecord
	DKTypedef
	DKFunctionTemplate
	DKClassTemplate
	DKVarTemplate
	DKAliasTemplate
	DKTemplateTypeParam
	DKNonTypeTemplateParam
	DKTemplateTemplateParam
	DKUsingDirective
	DKUsing
	DKUsingShadow
	DKFriend
	DKBlock
	DKStaticAssert
)

// AccessSpecifier is a member's declared access.
type AccessSpecifier int

// Enumeration of the access specifiers.  ASNone marks declarations outside
// class scope, where access control does not apply.
const (
	ASNone AccessSpecifier = iota
	ASPublic
	ASProtected
	ASPrivate
)

func (as AccessSpecifier) String() string {
	switch as {
	case ASPublic:
		return "public"
	case ASProtected:
		return "protected"
	case ASPrivate:
		return "private"
	default:
		return ""
	}
}

// StorageClass is a declaration's written storage class.
type StorageClass int

// Enumeration of the storage classes.
const (
	SCNone StorageClass = iota
	SCStatic
	SCExtern
	SCAuto
	SCRegister
)

// Linkage classifies how a name can be redeclared across scopes.
type Linkage int

// Enumeration of linkage kinds.
const (
	NoLinkage Linkage = iota
	InternalLinkage
	ExternalLinkage
)

// -----------------------------------------------------------------------------

// Decl is a declaration node.  Declarations are created once by semantic
// acts, live for the whole translation unit, and are never destroyed
// mid-analysis.
type Decl interface {
	// DeclName returns the declaration's name.
	DeclName() DeclName

	// Kind returns the kind tag of the declaration.
	Kind() DeclKind

	// Loc returns the declaration's primary location.
	Loc() report.SourceLoc

	// Range returns the declaration's full source range.
	Range() report.SourceRange

	// Parent returns the declaration context the declaration lives in.
	Parent() *DeclContext

	// Canonical returns the canonical representative of the redeclaration
	// chain: the first declaration.
	Canonical() Decl

	// Previous returns the previous declaration of the chain, or nil.
	Previous() Decl

	// Access returns the member access of the declaration.
	Access() AccessSpecifier

	// Invalid returns whether the declaration was marked invalid during
	// analysis.
	Invalid() bool

	// base returns the shared declaration state.  Restricts implementations
	// to this package.
	base() *DeclBase
}

// DeclBase is the state shared by all declarations.
type DeclBase struct {
	name    DeclName
	loc     report.SourceLoc
	rng     report.SourceRange
	parent  *DeclContext
	prev    Decl
	canon   Decl
	chain   []Decl
	access  AccessSpecifier
	invalid bool
}

// initDecl initializes the shared state of a freshly created declaration.
// Every concrete constructor must call it.
func initDecl(d Decl, name DeclName, loc report.SourceLoc) {
	b := d.base()
	b.name = name
	b.loc = loc
	b.rng = report.SourceRange{Begin: loc, End: loc}
	b.canon = d
}

func (db *DeclBase) DeclName() DeclName          { return db.name }
func (db *DeclBase) Loc() report.SourceLoc       { return db.loc }
func (db *DeclBase) Range() report.SourceRange   { return db.rng }
func (db *DeclBase) Parent() *DeclContext        { return db.parent }
func (db *DeclBase) Canonical() Decl             { return db.canon }
func (db *DeclBase) Previous() Decl              { return db.prev }
func (db *DeclBase) Access() AccessSpecifier     { return db.access }
func (db *DeclBase) Invalid() bool               { return db.invalid }
func (db *DeclBase) base() *DeclBase             { return db }
func (db *DeclBase) SetAccess(a AccessSpecifier) { db.access = a }
func (db *DeclBase) SetRange(r report.SourceRange) {
	db.rng = r
}

// SetInvalid marks the declaration invalid.  Invalidity is sticky.
func (db *DeclBase) SetInvalid() {
	db.invalid = true
}

// LinkRedecl links a newer declaration onto the redeclaration chain of an
// older one.
func LinkRedecl(newer, older Decl) {
	nb := newer.base()
	nb.prev = older
	nb.canon = older.Canonical()

	cb := nb.canon.base()
	cb.chain = append(cb.chain, newer)
}

// RedeclChain returns the full redeclaration chain in declaration order,
// beginning with the canonical declaration.
func RedeclChain(d Decl) []Decl {
	canon := d.Canonical()
	return append([]Decl{canon}, canon.base().chain...)
}

// -----------------------------------------------------------------------------

// VarDecl is a variable declaration, including namespace-scope and local
// variables.
type VarDecl struct {
	DeclBase

	Type    types.Type
	Storage StorageClass

	// The bound initializer, nil if none.
	Init Expr

	Constexpr bool

	// Whether this declaration is a definition.  In C, namespace-scope
	// declarations without initializers are tentative definitions merged at
	// end of translation unit.
	IsDefinition bool
	Tentative    bool

	// The evaluated constant initializer, if the variable is constexpr or
	// const-integral.  Holds an *eval.Value.
	ConstVal interface{}

	// Whether the variable is eligible to be the function's named
	// return-value-optimization candidate.
	NRVOCandidate bool
}

// NewVarDecl creates a variable declaration.
func NewVarDecl(name DeclName, loc report.SourceLoc, ty types.Type, storage StorageClass) *VarDecl {
	vd := &VarDecl{Type: ty, Storage: storage}
	initDecl(vd, name, loc)
	return vd
}

func (vd *VarDecl) Kind() DeclKind { return DKVar }

// Linkage returns the linkage of the variable.
func (vd *VarDecl) Linkage() Linkage {
	if vd.parent != nil && vd.parent.IsNamespaceOrTU() {
		if vd.Storage == SCStatic {
			return InternalLinkage
		}

		return ExternalLinkage
	}

	return NoLinkage
}

// ParamDecl is a function parameter.
type ParamDecl struct {
	VarDecl

	// The parameter's position in the parameter list.
	Index int

	// The default argument, nil if none.
	Default Expr
}

// NewParamDecl creates a function parameter declaration.
func NewParamDecl(name DeclName, loc report.SourceLoc, ty types.Type, index int) *ParamDecl {
	pd := &ParamDecl{Index: index}
	pd.Type = ty
	initDecl(pd, name, loc)
	return pd
}

func (pd *ParamDecl) Kind() DeclKind { return DKParam }

// FieldDecl is a non-static data member.
type FieldDecl struct {
	DeclBase

	Type types.Type

	// The bit-field width expression, nil for ordinary fields.
	BitWidth Expr

	// The evaluated bit-field width.
	BitWidthValue int64

	// Byte offset within the record, assigned at class completion.
	Offset int

	// The default member initializer, nil if none.  Instantiated lazily for
	// class template specializations.
	DefaultInit Expr

	// Whether the field is mutable.
	Mutable bool
}

// NewFieldDecl creates a field declaration.
func NewFieldDecl(name DeclName, loc report.SourceLoc, ty types.Type) *FieldDecl {
	fd := &FieldDecl{Type: ty}
	initDecl(fd, name, loc)
	return fd
}

func (fd *FieldDecl) Kind() DeclKind { return DKField }

// IsBitField returns whether the field is a bit-field.
func (fd *FieldDecl) IsBitField() bool {
	return fd.BitWidth != nil
}

// -----------------------------------------------------------------------------

// FunctionDecl is a function, method, constructor, destructor, or conversion
// function declaration.  A function is a declaration context owning its
// parameters.
type FunctionDecl struct {
	DeclBase
	DeclContext

	Type    types.Type
	Params  []*ParamDecl
	Storage StorageClass

	// The function body, nil for non-definitions and deferred instantiations.
	Body Stmt

	Inline    bool
	Constexpr bool
	Deleted   bool
	Defaulted bool
	Explicit  bool
	Virtual   bool
	Pure      bool

	// Whether a member function is declared static.
	Static bool

	// Method cv-qualifiers for non-static member functions.
	MethodQuals types.Qualifiers

	// Whether the function was injected into its enclosing namespace as a
	// friend of a class template: such declarations are only visible to
	// argument-dependent lookup.
	FriendInjected bool

	// The function this one overrides, nil if none.
	Overrides *FunctionDecl

	// For instantiated declarations: the template pattern and the
	// instantiation arguments.
	InstantiatedFrom Decl
	TemplateArgs     []types.TemplateArg

	// Whether this is a user-written explicit specialization.  Its body is
	// never instantiated from the primary pattern.
	ExplicitSpec bool
}

// NewFunctionDecl creates a function declaration in the given lexical
// context.
func NewFunctionDecl(name DeclName, loc report.SourceLoc, ty types.Type, parent *DeclContext) *FunctionDecl {
	fd := &FunctionDecl{Type: ty}
	initDecl(fd, name, loc)
	fd.DeclContext.init(DCFunction, parent, fd)
	return fd
}

func (fd *FunctionDecl) Kind() DeclKind { return DKFunction }

// FuncType returns the function's type node.
func (fd *FunctionDecl) FuncType() *types.FunctionType {
	return types.AsFunction(fd.Type)
}

// IsDefinition returns whether this declaration provides the function's
// definition.
func (fd *FunctionDecl) IsDefinition() bool {
	return fd.Body != nil || fd.Deleted || fd.Defaulted
}

// IsInstanceMember returns whether the function is a non-static member
// function, ie. whether it carries an implicit object parameter.
func (fd *FunctionDecl) IsInstanceMember() bool {
	return fd.Parent() != nil && fd.Parent().ContextKind() == DCRecord && !fd.Static &&
		fd.name.Kind != NConstructor
}

// IsConstructor returns whether the function is a constructor.
func (fd *FunctionDecl) IsConstructor() bool { return fd.name.Kind == NConstructor }

// IsDestructor returns whether the function is a destructor.
func (fd *FunctionDecl) IsDestructor() bool { return fd.name.Kind == NDestructor }

// IsConversion returns whether the function is a conversion function.
func (fd *FunctionDecl) IsConversion() bool { return fd.name.Kind == NConversion }

// MinRequiredArgs returns the number of arguments a call must supply: the
// parameter count minus trailing defaulted parameters and pack parameters.
func (fd *FunctionDecl) MinRequiredArgs() int {
	n := len(fd.Params)
	for n > 0 {
		p := fd.Params[n-1]
		if p.Default == nil && !isPackParam(p) {
			break
		}

		n--
	}

	return n
}

func isPackParam(p *ParamDecl) bool {
	_, ok := p.Type.Canonical().(*types.PackExpansionType)
	return ok
}

// -----------------------------------------------------------------------------

// TypedefDecl is a typedef or alias declaration.
type TypedefDecl struct {
	DeclBase

	Under types.Type
}

// NewTypedefDecl creates a typedef declaration.
func NewTypedefDecl(name DeclName, loc report.SourceLoc, under types.Type) *TypedefDecl {
	td := &TypedefDecl{Under: under}
	initDecl(td, name, loc)
	return td
}

func (td *TypedefDecl) Kind() DeclKind { return DKTypedef }

// TypedefName implements types.TypedefName.
func (td *TypedefDecl) TypedefName() string { return td.name.Ident }

// EnumConstantDecl is one enumerator.
type EnumConstantDecl struct {
	DeclBase

	Type  types.Type
	Value int64
}

// NewEnumConstantDecl creates an enumerator declaration.
func NewEnumConstantDecl(name DeclName, loc report.SourceLoc, ty types.Type, value int64) *EnumConstantDecl {
	ecd := &EnumConstantDecl{Type: ty, Value: value}
	initDecl(ecd, name, loc)
	return ecd
}

func (ecd *EnumConstantDecl) Kind() DeclKind { return DKEnumConstant }

// -----------------------------------------------------------------------------

// UsingDirectiveDecl is a `using namespace N;` directive.
type UsingDirectiveDecl struct {
	DeclBase

	Nominated *NamespaceDecl
}

// NewUsingDirectiveDecl creates a using-directive.
func NewUsingDirectiveDecl(loc report.SourceLoc, nominated *NamespaceDecl) *UsingDirectiveDecl {
	udd := &UsingDirectiveDecl{Nominated: nominated}
	initDecl(udd, AnonymousName(), loc)
	return udd
}

func (udd *UsingDirectiveDecl) Kind() DeclKind { return DKUsingDirective }

// UsingDecl is a `using N::x;` declaration.
type UsingDecl struct {
	DeclBase

	// The shadow declarations introduced into the current scope.
	Shadows []*UsingShadowDecl
}

// NewUsingDecl creates a using-declaration.
func NewUsingDecl(name DeclName, loc report.SourceLoc) *UsingDecl {
	ud := &UsingDecl{}
	initDecl(ud, name, loc)
	return ud
}

func (ud *UsingDecl) Kind() DeclKind { return DKUsing }

// UsingShadowDecl is the shadow declaration a using-declaration introduces
// for one of its targets.  Lookup is transparent through it: clients resolve
// to the target.
type UsingShadowDecl struct {
	DeclBase

	Introducer *UsingDecl
	Target     Decl
}

// NewUsingShadowDecl creates a shadow declaration for the given target.  The
// introducer is nil for implicit injections, such as unscoped enumerators
// made visible in their enclosing scope.
func NewUsingShadowDecl(introducer *UsingDecl, target Decl) *UsingShadowDecl {
	usd := &UsingShadowDecl{Introducer: introducer, Target: target}

	loc := target.Loc()
	if introducer != nil {
		loc = introducer.Loc()
	}

	initDecl(usd, target.DeclName(), loc)
	return usd
}

func (usd *UsingShadowDecl) Kind() DeclKind { return DKUsingShadow }

// ResolveShadow resolves through using-declaration shadows to the underlying
// declaration.
func ResolveShadow(d Decl) Decl {
	for {
		usd, ok := d.(*UsingShadowDecl)
		if !ok {
			return d
		}

		d = usd.Target
	}
}

// FriendDecl wraps a friend declaration appearing inside a class.
type FriendDecl struct {
	DeclBase

	// The befriended declaration or nil for `friend class X` naming only a
	// type.
	Inner Decl

	// The befriended type for type friends.
	FriendType types.Type
}

// NewFriendDecl creates a friend declaration.
func NewFriendDecl(loc report.SourceLoc, inner Decl) *FriendDecl {
	fd := &FriendDecl{Inner: inner}
	initDecl(fd, AnonymousName(), loc)
	return fd
}

func (fd *FriendDecl) Kind() DeclKind { return DKFriend }

// StaticAssertDecl is a static_assert declaration.  The condition is kept for
// dependent assertions re-checked at instantiation time.
type StaticAssertDecl struct {
	DeclBase

	// The asserted condition.
	Cond Expr

	// The user-supplied message, empty if none.
	Message string
}

// NewStaticAssertDecl creates a static assertion.
func NewStaticAssertDecl(loc report.SourceLoc, cond Expr, message string) *StaticAssertDecl {
	sad := &StaticAssertDecl{Cond: cond, Message: message}
	initDecl(sad, AnonymousName(), loc)
	return sad
}

func (sad *StaticAssertDecl) Kind() DeclKind { return DKStaticAssert }

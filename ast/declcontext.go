package ast

import (
	"cfront/report"
	"cfront/types"
)

// DeclContextKind is the kind tag of a declaration context.
type DeclContextKind int

// Enumeration of the declaration context kinds.
const (
	DCTranslationUnit DeclContextKind = iota
	DCNamespace
	DCRecord
	DCFunction
	DCBlock
	DCEnum
	DCTemplateParams
)

// DeclContext is a declaration-owning scope: the persistent spine of the
// AST.  Scopes on the parser's scope stack are transient; contexts live for
// the whole translation unit.  A context keeps its declarations in insertion
// order and maintains a name-indexed multimap for single-step lookup.
type DeclContext struct {
	kind   DeclContextKind
	parent *DeclContext
	owner  Decl

	decls  []Decl
	byName map[string][]Decl

	// Using-directives declared directly in this context.
	usings []*UsingDirectiveDecl
}

// init initializes an embedded context.  Called by the owning declaration's
// constructor.
func (dc *DeclContext) init(kind DeclContextKind, parent *DeclContext, owner Decl) {
	dc.kind = kind
	dc.parent = parent
	dc.owner = owner
	dc.byName = make(map[string][]Decl)
}

// ContextKind returns the kind of the context.
func (dc *DeclContext) ContextKind() DeclContextKind { return dc.kind }

// Enclosing returns the parent context, or nil for the translation unit.
func (dc *DeclContext) Enclosing() *DeclContext { return dc.parent }

// Owner returns the declaration owning the context, or nil for the
// translation unit.
func (dc *DeclContext) Owner() Decl { return dc.owner }

// AsDeclContext returns the context itself; promoted through embedding so
// any context-owning declaration can be used where a context is needed.
func (dc *DeclContext) AsDeclContext() *DeclContext { return dc }

// Decls returns all declarations of the context in insertion order.
func (dc *DeclContext) Decls() []Decl { return dc.decls }

// UsingDirectives returns the using-directives declared in this context.
func (dc *DeclContext) UsingDirectives() []*UsingDirectiveDecl { return dc.usings }

// IsNamespaceOrTU returns whether the context is a namespace or the
// translation unit.
func (dc *DeclContext) IsNamespaceOrTU() bool {
	return dc.kind == DCNamespace || dc.kind == DCTranslationUnit
}

// Add appends a declaration to the context and indexes it by name.  The
// declaration's lexical parent is set to this context.
func (dc *DeclContext) Add(d Decl) {
	d.base().parent = dc
	dc.decls = append(dc.decls, d)

	if udd, ok := d.(*UsingDirectiveDecl); ok {
		dc.usings = append(dc.usings, udd)
		return
	}

	name := d.DeclName()
	if name.Kind == NAnonymous && name.Ident == "" {
		return
	}

	key := name.Key()
	dc.byName[key] = append(dc.byName[key], d)
}

// Lookup returns all declarations of the given name visible directly in this
// context, in declaration order.  This is the single-step lookup primitive;
// scope walking and base traversal live in the lookup package.
func (dc *DeclContext) Lookup(name DeclName) []Decl {
	return dc.byName[name.Key()]
}

// Namespace returns the nearest enclosing namespace or translation-unit
// context, including the context itself.
func (dc *DeclContext) Namespace() *DeclContext {
	for c := dc; c != nil; c = c.parent {
		if c.IsNamespaceOrTU() {
			return c
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// TranslationUnit is the root declaration context.
type TranslationUnit struct {
	DeclBase
	DeclContext
}

// NewTranslationUnit creates an empty translation unit.
func NewTranslationUnit() *TranslationUnit {
	tu := &TranslationUnit{}
	initDecl(tu, AnonymousName(), 0)
	tu.DeclContext.init(DCTranslationUnit, nil, tu)
	return tu
}

func (tu *TranslationUnit) Kind() DeclKind { return DKTranslationUnit }

// MergeTentativeDefinitions merges C tentative definitions: if a name has
// tentative definitions but no explicit one, the first tentative declaration
// becomes the definition.  Called at end of translation unit.
func (tu *TranslationUnit) MergeTentativeDefinitions() {
	for _, d := range tu.decls {
		vd, ok := d.(*VarDecl)
		if !ok || !vd.Tentative || vd.Canonical() != vd {
			continue
		}

		hasExplicit := false
		var firstTentative *VarDecl

		for _, rd := range RedeclChain(vd) {
			rvd := rd.(*VarDecl)
			if rvd.IsDefinition && !rvd.Tentative {
				hasExplicit = true
				break
			}

			if rvd.Tentative && firstTentative == nil {
				firstTentative = rvd
			}
		}

		if !hasExplicit && firstTentative != nil {
			firstTentative.IsDefinition = true
		}
	}
}

// NamespaceDecl is a namespace declaration.
type NamespaceDecl struct {
	DeclBase
	DeclContext

	// Whether the namespace is declared inline.
	Inline bool
}

// NewNamespaceDecl creates a namespace declaration in the given parent
// context.
func NewNamespaceDecl(name DeclName, loc report.SourceLoc, parent *DeclContext, inline bool) *NamespaceDecl {
	nd := &NamespaceDecl{Inline: inline}
	initDecl(nd, name, loc)
	nd.DeclContext.init(DCNamespace, parent, nd)
	return nd
}

func (nd *NamespaceDecl) Kind() DeclKind { return DKNamespace }

// -----------------------------------------------------------------------------

// TagKind discriminates the record kinds.
type TagKind int

// Enumeration of the record kinds.
const (
	TagStruct TagKind = iota
	TagClass
	TagUnion
)

// ClassState is the completion state of a record.
type ClassState int

// The class completion state machine: forward declaration leaves the class
// incomplete, starting the definition moves it to being-defined, and closing
// the definition completes it.
const (
	ClassIncomplete ClassState = iota
	ClassBeingDefined
	ClassComplete
)

// BaseSpecifier is one base class of a record.
type BaseSpecifier struct {
	Class   *RecordDecl
	Access  AccessSpecifier
	Virtual bool
	Loc     report.SourceLoc
}

// RecordDecl is a class, struct, or union declaration.
type RecordDecl struct {
	DeclBase
	DeclContext

	Tag   TagKind
	State ClassState
	Bases []BaseSpecifier

	// Layout, assigned at completion.
	LayoutSize  int
	LayoutAlign int

	// Triviality and related properties, fixed at the close of the class
	// definition.
	Trivial     bool
	Polymorphic bool
	HasUserCtor bool
	HasUserDtor bool

	// Friendship granted inside the class definition.
	FriendFunctions []*FunctionDecl
	FriendClasses   []*RecordDecl

	// For members of class template specializations: the pattern record and
	// the instantiation arguments.
	InstantiatedFrom Decl
	TemplateArgs     []types.TemplateArg
}

// NewRecordDecl creates a record declaration in the given parent context.
func NewRecordDecl(name DeclName, loc report.SourceLoc, tag TagKind, parent *DeclContext) *RecordDecl {
	rd := &RecordDecl{Tag: tag, Trivial: true}
	initDecl(rd, name, loc)
	rd.DeclContext.init(DCRecord, parent, rd)
	return rd
}

func (rd *RecordDecl) Kind() DeclKind { return DKRecord }

// TagName implements types.TagDecl.
func (rd *RecordDecl) TagName() string { return rd.name.Ident }

// DefinitionComplete implements types.TagDecl.
func (rd *RecordDecl) DefinitionComplete() bool {
	return rd.CanonicalRecord().State == ClassComplete
}

// TagLayout implements types.TagDecl.
func (rd *RecordDecl) TagLayout() (int, int) {
	canon := rd.CanonicalRecord()
	return canon.LayoutSize, canon.LayoutAlign
}

// CanonicalTag implements types.TagDecl.
func (rd *RecordDecl) CanonicalTag() types.TagDecl {
	return rd.CanonicalRecord()
}

// TagBases implements types.TagDecl.
func (rd *RecordDecl) TagBases() []types.TagDecl {
	canon := rd.CanonicalRecord()

	var bases []types.TagDecl
	for _, b := range canon.Bases {
		bases = append(bases, b.Class)
	}

	return bases
}

// CanonicalRecord returns the canonical declaration as a record.
func (rd *RecordDecl) CanonicalRecord() *RecordDecl {
	return rd.Canonical().(*RecordDecl)
}

// Definition returns the redeclaration carrying the definition, or nil.
func (rd *RecordDecl) Definition() *RecordDecl {
	for _, d := range RedeclChain(rd) {
		if drd := d.(*RecordDecl); drd.State != ClassIncomplete {
			return drd
		}
	}

	return nil
}

// Fields returns the record's non-static data members in declaration order.
func (rd *RecordDecl) Fields() []*FieldDecl {
	var fields []*FieldDecl
	for _, d := range rd.decls {
		if fd, ok := d.(*FieldDecl); ok {
			fields = append(fields, fd)
		}
	}

	return fields
}

// Methods returns the record's member functions in declaration order.
func (rd *RecordDecl) Methods() []*FunctionDecl {
	var methods []*FunctionDecl
	for _, d := range rd.decls {
		if fd, ok := d.(*FunctionDecl); ok {
			methods = append(methods, fd)
		}
	}

	return methods
}

// Constructors returns the record's constructors.
func (rd *RecordDecl) Constructors() []*FunctionDecl {
	var ctors []*FunctionDecl
	for _, d := range rd.Lookup(ConstructorName()) {
		if fd, ok := d.(*FunctionDecl); ok {
			ctors = append(ctors, fd)
		}
	}

	return ctors
}

// ConversionFunctions returns the record's conversion functions.
func (rd *RecordDecl) ConversionFunctions() []*FunctionDecl {
	var convs []*FunctionDecl
	for _, d := range rd.Lookup(DeclName{Kind: NConversion}) {
		if fd, ok := d.(*FunctionDecl); ok {
			convs = append(convs, fd)
		}
	}

	return convs
}

// -----------------------------------------------------------------------------

// EnumDecl is an enumeration declaration.
type EnumDecl struct {
	DeclBase
	DeclContext

	// The underlying integral type.
	Under types.Type

	// Whether this is a scoped enumeration (`enum class`).
	Scoped bool

	Complete bool
}

// NewEnumDecl creates an enum declaration in the given parent context.
func NewEnumDecl(name DeclName, loc report.SourceLoc, under types.Type, scoped bool, parent *DeclContext) *EnumDecl {
	ed := &EnumDecl{Under: under, Scoped: scoped}
	initDecl(ed, name, loc)
	ed.DeclContext.init(DCEnum, parent, ed)
	return ed
}

func (ed *EnumDecl) Kind() DeclKind { return DKEnum }

// TagName implements types.TagDecl.
func (ed *EnumDecl) TagName() string { return ed.name.Ident }

// DefinitionComplete implements types.TagDecl.
func (ed *EnumDecl) DefinitionComplete() bool { return ed.Complete }

// TagLayout implements types.TagDecl.  Enums lay out as their underlying
// type; the type context resolves the width, so the layout here is unused.
func (ed *EnumDecl) TagLayout() (int, int) { return 0, 0 }

// CanonicalTag implements types.TagDecl.
func (ed *EnumDecl) CanonicalTag() types.TagDecl { return ed.Canonical().(*EnumDecl) }

// TagBases implements types.TagDecl.
func (ed *EnumDecl) TagBases() []types.TagDecl { return nil }

// BlockDecl is an anonymous declaration context for a braced block.
type BlockDecl struct {
	DeclBase
	DeclContext
}

// NewBlockDecl creates a block context under the given parent.
func NewBlockDecl(loc report.SourceLoc, parent *DeclContext) *BlockDecl {
	bd := &BlockDecl{}
	initDecl(bd, AnonymousName(), loc)
	bd.DeclContext.init(DCBlock, parent, bd)
	return bd
}

func (bd *BlockDecl) Kind() DeclKind { return DKBlock }

// TemplateParamsDecl is the anonymous context holding one template parameter
// list.  Names declared in it are visible to the templated declaration and
// its definition but never leak into the enclosing scope.
type TemplateParamsDecl struct {
	DeclBase
	DeclContext
}

// NewTemplateParamsDecl creates a template parameter list context under the
// given parent.
func NewTemplateParamsDecl(loc report.SourceLoc, parent *DeclContext) *TemplateParamsDecl {
	tpd := &TemplateParamsDecl{}
	initDecl(tpd, AnonymousName(), loc)
	tpd.DeclContext.init(DCTemplateParams, parent, tpd)
	return tpd
}

func (tpd *TemplateParamsDecl) Kind() DeclKind { return DKBlock }

package ast

import (
	"cfront/report"
	"cfront/types"
)

// TemplateTypeParamDecl is a type template parameter.
type TemplateTypeParamDecl struct {
	DeclBase

	Depth, Index int
	Pack         bool

	// The parameter's type node in the type graph.
	Ty types.Type

	// The default argument type, nil if none.
	Default types.Type
}

// NewTemplateTypeParamDecl creates a type template parameter.
func NewTemplateTypeParamDecl(name DeclName, loc report.SourceLoc, ty types.Type, depth, index int, pack bool) *TemplateTypeParamDecl {
	tpd := &TemplateTypeParamDecl{Depth: depth, Index: index, Pack: pack, Ty: ty}
	initDecl(tpd, name, loc)
	return tpd
}

func (tpd *TemplateTypeParamDecl) Kind() DeclKind { return DKTemplateTypeParam }

// NonTypeTemplateParamDecl is a non-type template parameter.
type NonTypeTemplateParamDecl struct {
	DeclBase

	Depth, Index int
	Pack         bool

	// The declared type of the parameter.
	Type types.Type

	// The default argument, nil if none.
	Default Expr
}

// NewNonTypeTemplateParamDecl creates a non-type template parameter.
func NewNonTypeTemplateParamDecl(name DeclName, loc report.SourceLoc, ty types.Type, depth, index int, pack bool) *NonTypeTemplateParamDecl {
	ntpd := &NonTypeTemplateParamDecl{Depth: depth, Index: index, Pack: pack, Type: ty}
	initDecl(ntpd, name, loc)
	return ntpd
}

func (ntpd *NonTypeTemplateParamDecl) Kind() DeclKind { return DKNonTypeTemplateParam }

// TemplateTemplateParamDecl is a template template parameter.
type TemplateTemplateParamDecl struct {
	DeclBase

	Depth, Index int
	Pack         bool

	// The parameter list the argument template must be compatible with.
	Params []Decl
}

// NewTemplateTemplateParamDecl creates a template template parameter.
func NewTemplateTemplateParamDecl(name DeclName, loc report.SourceLoc, params []Decl, depth, index int, pack bool) *TemplateTemplateParamDecl {
	ttpd := &TemplateTemplateParamDecl{Depth: depth, Index: index, Pack: pack, Params: params}
	initDecl(ttpd, name, loc)
	return ttpd
}

func (ttpd *TemplateTemplateParamDecl) Kind() DeclKind { return DKTemplateTemplateParam }

// TemplateName implements types.TemplateName so a template template
// parameter can appear as a template argument.
func (ttpd *TemplateTemplateParamDecl) TemplateName() string { return ttpd.name.Ident }

// CanonicalTemplate implements types.TemplateName.
func (ttpd *TemplateTemplateParamDecl) CanonicalTemplate() types.TemplateName {
	return ttpd.Canonical().(*TemplateTemplateParamDecl)
}

// -----------------------------------------------------------------------------

// FunctionTemplateDecl is a function template.
type FunctionTemplateDecl struct {
	DeclBase

	// The template parameter list.
	Params []Decl

	// The templated function pattern.
	Templated *FunctionDecl
}

// NewFunctionTemplateDecl creates a function template declaration.
func NewFunctionTemplateDecl(name DeclName, loc report.SourceLoc, params []Decl, templated *FunctionDecl) *FunctionTemplateDecl {
	ftd := &FunctionTemplateDecl{Params: params, Templated: templated}
	initDecl(ftd, name, loc)
	return ftd
}

func (ftd *FunctionTemplateDecl) Kind() DeclKind { return DKFunctionTemplate }

// TemplateName implements types.TemplateName.
func (ftd *FunctionTemplateDecl) TemplateName() string { return ftd.name.String() }

// CanonicalTemplate implements types.TemplateName.
func (ftd *FunctionTemplateDecl) CanonicalTemplate() types.TemplateName {
	return ftd.Canonical().(*FunctionTemplateDecl)
}

// ClassTemplateDecl is a class template.
type ClassTemplateDecl struct {
	DeclBase

	Params []Decl

	// The templated record pattern.
	Templated *RecordDecl

	// The partial specializations declared for this template, in declaration
	// order.
	Partials []*PartialSpecDecl
}

// NewClassTemplateDecl creates a class template declaration.
func NewClassTemplateDecl(name DeclName, loc report.SourceLoc, params []Decl, templated *RecordDecl) *ClassTemplateDecl {
	ctd := &ClassTemplateDecl{Params: params, Templated: templated}
	initDecl(ctd, name, loc)
	return ctd
}

func (ctd *ClassTemplateDecl) Kind() DeclKind { return DKClassTemplate }

// TemplateName implements types.TemplateName.
func (ctd *ClassTemplateDecl) TemplateName() string { return ctd.name.Ident }

// CanonicalTemplate implements types.TemplateName.
func (ctd *ClassTemplateDecl) CanonicalTemplate() types.TemplateName {
	return ctd.Canonical().(*ClassTemplateDecl)
}

// PartialSpecDecl is a class template partial specialization: a deducible
// argument pattern plus its own parameter list and record pattern.
type PartialSpecDecl struct {
	DeclBase

	Primary *ClassTemplateDecl
	Params  []Decl

	// The specialization's argument pattern, written in terms of Params.
	Args []types.TemplateArg

	Templated *RecordDecl
}

// NewPartialSpecDecl creates a partial specialization declaration.
func NewPartialSpecDecl(loc report.SourceLoc, primary *ClassTemplateDecl, params []Decl, args []types.TemplateArg, templated *RecordDecl) *PartialSpecDecl {
	psd := &PartialSpecDecl{Primary: primary, Params: params, Args: args, Templated: templated}
	initDecl(psd, primary.DeclName(), loc)
	return psd
}

func (psd *PartialSpecDecl) Kind() DeclKind { return DKClassTemplate }

// VarTemplateDecl is a variable template.
type VarTemplateDecl struct {
	DeclBase

	Params    []Decl
	Templated *VarDecl
}

// NewVarTemplateDecl creates a variable template declaration.
func NewVarTemplateDecl(name DeclName, loc report.SourceLoc, params []Decl, templated *VarDecl) *VarTemplateDecl {
	vtd := &VarTemplateDecl{Params: params, Templated: templated}
	initDecl(vtd, name, loc)
	return vtd
}

func (vtd *VarTemplateDecl) Kind() DeclKind { return DKVarTemplate }

// TemplateName implements types.TemplateName.
func (vtd *VarTemplateDecl) TemplateName() string { return vtd.name.Ident }

// CanonicalTemplate implements types.TemplateName.
func (vtd *VarTemplateDecl) CanonicalTemplate() types.TemplateName {
	return vtd.Canonical().(*VarTemplateDecl)
}

// AliasTemplateDecl is an alias template.
type AliasTemplateDecl struct {
	DeclBase

	Params    []Decl
	Templated *TypedefDecl
}

// NewAliasTemplateDecl creates an alias template declaration.
func NewAliasTemplateDecl(name DeclName, loc report.SourceLoc, params []Decl, templated *TypedefDecl) *AliasTemplateDecl {
	atd := &AliasTemplateDecl{Params: params, Templated: templated}
	initDecl(atd, name, loc)
	return atd
}

func (atd *AliasTemplateDecl) Kind() DeclKind { return DKAliasTemplate }

// TemplateName implements types.TemplateName.
func (atd *AliasTemplateDecl) TemplateName() string { return atd.name.Ident }

// CanonicalTemplate implements types.TemplateName.
func (atd *AliasTemplateDecl) CanonicalTemplate() types.TemplateName {
	return atd.Canonical().(*AliasTemplateDecl)
}

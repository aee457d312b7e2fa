package sema

import (
	"cfront/ast"
	"cfront/common"
	"cfront/eval"
	"cfront/lookup"
	"cfront/overload"
	"cfront/report"
	"cfront/template"
	"cfront/types"
)

// Sema is the semantic analyzer for one translation unit.  It owns the
// declaration spine, the lexical scope stack, and the template machinery,
// and exposes the Act* surface a parser drives.  All state is per-instance:
// two translation units analyzed concurrently never share anything.
type Sema struct {
	Types    *types.Context
	Reporter *report.Engine
	Opts     *common.LangOpts

	TU     *ast.TranslationUnit
	Scopes *lookup.Stack

	Conv *overload.Converter
	Inst *template.Instantiator

	consumers []Consumer

	// The record whose definition is currently open, innermost last.
	classStack []*ast.RecordDecl

	// Member bodies deferred to the end of the enclosing class definition.
	lateParsed []*ast.FunctionDecl

	// Nesting depth of open template parameter lists.  Non-zero means names
	// may legitimately fail to resolve until instantiation.
	templateDepth int
}

// inTemplate returns whether analysis is inside a template definition.
func (s *Sema) inTemplate() bool { return s.templateDepth > 0 }

// New creates a semantic analyzer over the given type context and reporter.
func New(tctx *types.Context, reporter *report.Engine, opts *common.LangOpts) *Sema {
	tu := ast.NewTranslationUnit()

	s := &Sema{
		Types:    tctx,
		Reporter: reporter,
		Opts:     opts,
		TU:       tu,
		Scopes:   lookup.NewStack(tu),
		Conv:     &overload.Converter{Types: tctx},
	}

	s.Inst = template.NewInstantiator(tctx, reporter, report.NewInstantiationStack(opts.InstantiationDepth))
	s.Inst.Hooks = template.Hooks{
		ResolveDependentName:    s.resolveDependentName,
		InstantiateClassBody:    s.instantiateClassBody,
		InstantiateFunctionBody: s.instantiateFunctionBody,
	}

	return s
}

// AddConsumer registers an AST consumer notified as analysis proceeds.
func (s *Sema) AddConsumer(c Consumer) {
	s.consumers = append(s.consumers, c)
}

// CurrentCtx returns the declaration context of the innermost scope.
func (s *Sema) CurrentCtx() *ast.DeclContext {
	return s.Scopes.CurrentCtx()
}

// PushScope opens a lexical scope over the given context.
func (s *Sema) PushScope(kind lookup.ScopeKind, ctx *ast.DeclContext) *lookup.Scope {
	return s.Scopes.Push(kind, ctx)
}

// PopScope closes the innermost lexical scope.
func (s *Sema) PopScope() {
	s.Scopes.Pop()
}

// evaluator creates a fresh constant evaluator, so each evaluation gets the
// full step budget.
func (s *Sema) evaluator() *eval.Evaluator {
	return eval.NewEvaluator(s.Types, s.Opts)
}

// ActOnEndOfTranslationUnit finalizes the translation unit: C tentative
// definitions merge, deferred template bodies instantiate, and consumers are
// handed the finished unit.
func (s *Sema) ActOnEndOfTranslationUnit() {
	if !s.Opts.Dialect.IsCPlusPlus() {
		s.TU.MergeTentativeDefinitions()
	}

	s.Inst.FlushPending()

	for _, c := range s.consumers {
		c.HandleTranslationUnit(s.TU)
	}
}

// errorExpr builds the recovery expression for a failed act.
func (s *Sema) errorExpr(span report.SourceRange, children ...ast.Expr) ast.Expr {
	return ast.NewRecoveryExpr(s.Types.ErrorType(), span, children...)
}

package template

import (
	"fmt"

	"cfront/ast"
	"cfront/report"
	"cfront/types"
)

// Hooks are the callbacks the semantic analyzer supplies so the template
// machinery can re-enter analysis without depending on it.
type Hooks struct {
	// ResolveDependentName resolves `typename Q::name` once the qualifier
	// has become concrete.  Failure is a substitution failure.
	ResolveDependentName func(qualifier types.Type, name string) (types.Type, error)

	// InstantiateClassBody populates an instantiated class specialization
	// from its pattern under the given substitution: bases, fields, and
	// member signatures, with member bodies deferred.
	InstantiateClassBody func(spec, pattern *ast.RecordDecl, sub *Substitution) error

	// InstantiateFunctionBody instantiates the deferred body of a function
	// specialization from its pattern.
	InstantiateFunctionBody func(spec *ast.FunctionDecl)
}

// Instantiator owns template instantiation for one translation unit: the
// specialization tables, the instantiation backtrace, and the queue of
// deferred member bodies.
type Instantiator struct {
	Types    *types.Context
	Reporter *report.Engine
	Stack    *report.InstantiationStack
	Hooks    Hooks

	// Per-class-template specialization tables.
	classSpecs map[ast.Decl]*SpecTable

	// Memoized function template specializations.
	funcSpecs map[string]*ast.FunctionDecl

	// Function specializations whose bodies are pending, in request order.
	pending []*ast.FunctionDecl
	queued  map[*ast.FunctionDecl]bool

	// Counter for synthesized partial-ordering types.
	synthCount int
}

// NewInstantiator creates an instantiator over the given type context and
// reporter.
func NewInstantiator(tctx *types.Context, reporter *report.Engine, stack *report.InstantiationStack) *Instantiator {
	return &Instantiator{
		Types:      tctx,
		Reporter:   reporter,
		Stack:      stack,
		classSpecs: make(map[ast.Decl]*SpecTable),
		funcSpecs:  make(map[string]*ast.FunctionDecl),
		queued:     make(map[*ast.FunctionDecl]bool),
	}
}

// InstFailure wraps an instantiation error together with the activation
// frames that were live when it occurred, so the backtrace can still be
// rendered after the stack unwinds.
type InstFailure struct {
	Err    error
	Frames []report.InstantiationFrame
}

func (f *InstFailure) Error() string { return f.Err.Error() }

func (f *InstFailure) Unwrap() error { return f.Err }

// failure snapshots the live backtrace onto an instantiation error.  Errors
// already carrying a snapshot keep their deeper one.
func (it *Instantiator) failure(err error) error {
	if _, ok := err.(*InstFailure); ok {
		return err
	}

	return &InstFailure{Err: err, Frames: it.Stack.Snapshot()}
}

// pushFrame records an instantiation activation, failing with a diagnostic
// when the depth budget is exhausted.
func (it *Instantiator) pushFrame(kind report.InstantiationKind, entity string, poi report.SourceLoc, rng report.SourceRange) error {
	if !it.Stack.Push(report.InstantiationFrame{Kind: kind, Entity: entity, POI: poi, Range: rng}) {
		d := it.Reporter.Error(poi, "err-inst-depth",
			"recursive template instantiation exceeded maximum depth of %d", it.Stack.Depth())
		it.Stack.AttachNotes(d)
		return fmt.Errorf("instantiation depth exceeded")
	}

	return nil
}

// -----------------------------------------------------------------------------

// RequireInstantiation returns the record declaration for a class template
// specialization, instantiating it at the given point of instantiation if
// this is its first use.  Selection order: an explicit specialization wins,
// then the most specialized matching partial specialization, then the
// primary template.
func (it *Instantiator) RequireInstantiation(ctd *ast.ClassTemplateDecl, args []types.TemplateArg, poi report.SourceLoc) (*ast.RecordDecl, error) {
	canon := ctd.Canonical().(*ast.ClassTemplateDecl)

	table := it.classSpecs[canon]
	if table == nil {
		table = NewSpecTable()
		it.classSpecs[canon] = table
	}

	if entry := table.Find(args); entry != nil {
		if entry.Spec != nil {
			return entry.Spec, nil
		}

		return nil, fmt.Errorf("specialization of %s is already being instantiated", canon.TemplateName())
	}

	pattern, sub, fromPartial, err := it.selectPattern(canon, args, poi)
	if err != nil {
		return nil, err
	}

	entity := specEntityName(canon.TemplateName(), args)
	if err := it.pushFrame(report.InstTemplate, entity, poi, pattern.Range()); err != nil {
		return nil, err
	}
	defer it.Stack.Pop()

	spec := ast.NewRecordDecl(canon.DeclName(), pattern.Loc(), pattern.Tag, canon.Parent())
	spec.InstantiatedFrom = canon
	if fromPartial != nil {
		spec.InstantiatedFrom = fromPartial
	}

	spec.TemplateArgs = args

	// Register before populating so recursive references resolve to the
	// specialization being built.
	entry := table.Insert(args, spec)
	entry.FromPartial = fromPartial

	if it.Hooks.InstantiateClassBody != nil {
		if err := it.Hooks.InstantiateClassBody(spec, pattern, sub); err != nil {
			spec.SetInvalid()
			return spec, it.failure(err)
		}
	}

	return spec, nil
}

// AddExplicitSpecialization registers a user-written explicit
// specialization.  It reports an error if the specialization point comes
// after an implicit instantiation already used the primary template.
func (it *Instantiator) AddExplicitSpecialization(ctd *ast.ClassTemplateDecl, args []types.TemplateArg, spec *ast.RecordDecl, loc report.SourceLoc) {
	canon := ctd.Canonical().(*ast.ClassTemplateDecl)

	table := it.classSpecs[canon]
	if table == nil {
		table = NewSpecTable()
		it.classSpecs[canon] = table
	}

	if prior := table.Find(args); prior != nil {
		it.Reporter.Error(loc, "err-spec-after-inst",
			"explicit specialization of %s after instantiation", specEntityName(canon.TemplateName(), args)).
			WithNote(report.Note(prior.Spec.Loc(), "note-prev-inst", "implicit instantiation first required here"))
		return
	}

	entry := table.Insert(args, spec)
	entry.Explicit = true
}

// AddFunctionSpecialization registers a user-written explicit specialization
// of a function template.  Deductions arriving at the same argument list
// resolve to it instead of specializing the primary pattern.
func (it *Instantiator) AddFunctionSpecialization(ftd *ast.FunctionTemplateDecl, args []types.TemplateArg, spec *ast.FunctionDecl) {
	canon := ftd.Canonical().(*ast.FunctionTemplateDecl)
	key := fmt.Sprintf("%p|", canon) + specKey(canonicalArgs(args))
	it.funcSpecs[key] = spec
}

// selectPattern picks the declaration pattern a specialization instantiates
// from: the best matching partial specialization or the primary template.
func (it *Instantiator) selectPattern(ctd *ast.ClassTemplateDecl, args []types.TemplateArg, poi report.SourceLoc) (*ast.RecordDecl, *Substitution, *ast.PartialSpecDecl, error) {
	type match struct {
		partial *ast.PartialSpecDecl
		sub     *Substitution
	}

	var matches []match
	for _, partial := range ctd.Partials {
		sub, ok := it.matchPartial(partial, args)
		if ok {
			matches = append(matches, match{partial, sub})
		}
	}

	if len(matches) == 0 {
		if ctd.Templated == nil || ctd.Templated.Definition() == nil {
			return nil, nil, nil, fmt.Errorf("template %s has no definition", ctd.TemplateName())
		}

		return ctd.Templated.Definition(), NewSubstitution(args), nil, nil
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if it.morePartialSpecialized(m.partial, best.partial) < 0 {
			best = m
		}
	}

	// The winner must beat every other match.
	for _, m := range matches {
		if m.partial != best.partial && it.morePartialSpecialized(best.partial, m.partial) >= 0 {
			d := it.Reporter.Error(poi, "err-ambiguous-partial",
				"ambiguous partial specializations of %s", specEntityName(ctd.TemplateName(), args))
			for _, amb := range matches {
				d.WithNote(report.Note(amb.partial.Loc(), "note-partial-candidate", "partial specialization matches"))
			}

			return nil, nil, nil, fmt.Errorf("ambiguous partial specialization")
		}
	}

	if best.partial.Templated == nil {
		return nil, nil, nil, fmt.Errorf("partial specialization has no definition")
	}

	return best.partial.Templated, best.sub, best.partial, nil
}

// matchPartial deduces a partial specialization's parameters from the actual
// argument list.
func (it *Instantiator) matchPartial(partial *ast.PartialSpecDecl, args []types.TemplateArg) (*Substitution, bool) {
	if len(partial.Args) != len(args) {
		return nil, false
	}

	ded := newDeduction(0, len(partial.Params))
	for i := range partial.Args {
		if err := it.deduceArg(partial.Args[i], args[i], ded); err != nil {
			return nil, false
		}
	}

	if !ded.complete() {
		return nil, false
	}

	// Verify: substituting the deduced arguments into the pattern must
	// reproduce the actual argument list.
	sub := NewSubstitution(ded.args)
	back, err := it.SubstArgs(partial.Args, sub)
	if err != nil || !types.SameArgs(canonicalArgs(back), canonicalArgs(args)) {
		return nil, false
	}

	return sub, true
}

// -----------------------------------------------------------------------------

// RequireFunctionBody queues a function specialization's body for
// instantiation at the end of the translation unit.
func (it *Instantiator) RequireFunctionBody(spec *ast.FunctionDecl) {
	if spec.InstantiatedFrom == nil || spec.Body != nil || it.queued[spec] {
		return
	}

	it.queued[spec] = true
	it.pending = append(it.pending, spec)
}

// FlushPending instantiates all deferred function bodies.  Instantiating one
// body may queue more; the loop drains until the queue is stable.
func (it *Instantiator) FlushPending() {
	for len(it.pending) > 0 {
		spec := it.pending[0]
		it.pending = it.pending[1:]

		if it.Hooks.InstantiateFunctionBody != nil {
			it.Hooks.InstantiateFunctionBody(spec)
		}
	}
}

// -----------------------------------------------------------------------------

// resolveSpecialization turns a fully concrete template-id into its resolved
// type.
func (it *Instantiator) resolveSpecialization(tmpl types.TemplateName, args []types.TemplateArg) (types.Type, error) {
	switch td := tmpl.CanonicalTemplate().(type) {
	case *ast.ClassTemplateDecl:
		spec, err := it.RequireInstantiation(td, args, 0)
		if err != nil {
			return nil, &SubstFailure{Msg: err.Error()}
		}

		return it.Types.GetTemplateSpec(tmpl, args, it.Types.GetRecord(spec)), nil

	case *ast.AliasTemplateDecl:
		if td.Templated == nil {
			return nil, substFail("alias template %s has no definition", td.TemplateName())
		}

		under, err := it.SubstType(td.Templated.Under, NewSubstitution(args))
		if err != nil {
			return nil, err
		}

		return it.Types.GetTemplateSpec(tmpl, args, under), nil

	default:
		// A template template parameter: stays dependent.
		return it.Types.GetTemplateSpec(tmpl, args, nil), nil
	}
}

// resolveDependentSize resolves a dependent array bound once its referenced
// non-type parameter is bound.
func (it *Instantiator) resolveDependentSize(sizeExpr interface{}, sub *Substitution) (int64, bool) {
	depth, index, ok := nttpRef(sizeExpr)
	if !ok {
		return 0, false
	}

	arg, bound := sub.Lookup(depth, index)
	if !bound || arg.Kind != types.ArgInt {
		return 0, false
	}

	return arg.Int, true
}

// resolveExprArg resolves a dependent expression template argument that is a
// bare reference to a bound non-type parameter.
func (it *Instantiator) resolveExprArg(a types.TemplateArg, sub *Substitution) (types.TemplateArg, bool) {
	depth, index, ok := nttpRef(a.Expr)
	if !ok {
		return a, false
	}

	arg, bound := sub.Lookup(depth, index)
	if !bound || arg.Kind != types.ArgInt {
		return a, false
	}

	return arg, true
}

// nttpRef recognizes an expression handle that is a direct reference to a
// non-type template parameter.
func nttpRef(h interface{}) (depth, index int, ok bool) {
	e, isExpr := h.(ast.Expr)
	if !isExpr {
		return 0, 0, false
	}

	dre, isRef := ast.IgnoreParens(e).(*ast.DeclRefExpr)
	if !isRef {
		return 0, 0, false
	}

	ntp, isNTP := dre.Decl.(*ast.NonTypeTemplateParamDecl)
	if !isNTP {
		return 0, 0, false
	}

	return ntp.Depth, ntp.Index, true
}

// specEntityName renders `name<arg, arg>` for backtrace frames.
func specEntityName(name string, args []types.TemplateArg) string {
	s := name + "<"
	for i, a := range args {
		if i != 0 {
			s += ", "
		}

		s += a.Repr()
	}

	return s + ">"
}

func canonicalArgs(args []types.TemplateArg) []types.TemplateArg {
	out := make([]types.TemplateArg, len(args))
	for i, a := range args {
		out[i] = canonArgLocal(a)
	}

	return out
}

func canonArgLocal(a types.TemplateArg) types.TemplateArg {
	switch a.Kind {
	case types.ArgType:
		return types.TypeArg(a.Type.Canonical())
	case types.ArgInt:
		return types.IntArg(a.Type.Canonical(), a.Int)
	case types.ArgPack:
		return types.PackArg(canonicalArgs(a.Elems)...)
	default:
		return a
	}
}

package sema

import (
	"errors"

	"cfront/ast"
	"cfront/lookup"
	"cfront/report"
	"cfront/template"
	"cfront/types"
)

// ActOnStartTemplateParams opens a template parameter list.  The parameters
// live in their own context, visible to the templated declaration but never
// to the enclosing scope.  Returns the nesting depth of the new list.
func (s *Sema) ActOnStartTemplateParams(loc report.SourceLoc) int {
	depth := s.templateDepth
	s.templateDepth++

	ctx := ast.NewTemplateParamsDecl(loc, s.CurrentCtx())
	s.PushScope(lookup.ScopeTemplateParams, ctx.AsDeclContext())
	return depth
}

// ActOnFinishTemplateParams closes the innermost template parameter list.
func (s *Sema) ActOnFinishTemplateParams() {
	s.PopScope()
	s.templateDepth--
}

// ActOnTemplateTypeParam declares one type template parameter of the open
// parameter list.
func (s *Sema) ActOnTemplateTypeParam(name ast.DeclName, loc report.SourceLoc, index int, pack bool, def types.Type) *ast.TemplateTypeParamDecl {
	depth := s.templateDepth - 1
	ty := s.Types.GetTemplateParam(depth, index, name.Ident, pack)

	tpd := ast.NewTemplateTypeParamDecl(name, loc, ty, depth, index, pack)
	tpd.Default = def
	s.CurrentCtx().Add(tpd)
	return tpd
}

// ActOnNonTypeTemplateParam declares one non-type template parameter of the
// open parameter list.
func (s *Sema) ActOnNonTypeTemplateParam(name ast.DeclName, loc report.SourceLoc, ty types.Type, index int, pack bool, def ast.Expr) *ast.NonTypeTemplateParamDecl {
	depth := s.templateDepth - 1

	if !ty.Dependence().IsDependent() && !types.IsIntegral(ty) && types.AsEnum(ty.Canonical()) == nil &&
		types.AsPointer(ty.Canonical()) == nil {
		s.Reporter.Error(loc, "err-nttp-type",
			"a non-type template parameter cannot have type %s", ty.Repr())
	}

	ntpd := ast.NewNonTypeTemplateParamDecl(name, loc, ty, depth, index, pack)
	ntpd.Default = def
	s.CurrentCtx().Add(ntpd)
	return ntpd
}

// ActOnTemplateTemplateParam declares one template template parameter of the
// open parameter list.
func (s *Sema) ActOnTemplateTemplateParam(name ast.DeclName, loc report.SourceLoc, params []ast.Decl, index int, pack bool) *ast.TemplateTemplateParamDecl {
	depth := s.templateDepth - 1

	ttpd := ast.NewTemplateTemplateParamDecl(name, loc, params, depth, index, pack)
	s.CurrentCtx().Add(ttpd)
	return ttpd
}

// -----------------------------------------------------------------------------

// ActOnClassTemplate declares a class template wrapping the given record
// pattern.  Redeclarations chain onto the first declaration so partial
// specializations accumulate on one canonical template.
func (s *Sema) ActOnClassTemplate(name ast.DeclName, loc report.SourceLoc, params []ast.Decl, templated *ast.RecordDecl) *ast.ClassTemplateDecl {
	ctx := s.templateOwnerCtx()

	ctd := ast.NewClassTemplateDecl(name, loc, params, templated)

	if prev := findPrevious(ctx, name, ast.DKClassTemplate); prev != nil {
		if pctd, ok := prev.(*ast.ClassTemplateDecl); ok {
			if len(pctd.Params) != len(params) {
				s.Reporter.Error(loc, "err-template-param-mismatch",
					"template %s redeclared with a different number of parameters", name.String()).
					WithNote(report.Note(pctd.Loc(), "note-prev-decl", "previous declaration is here"))
				ctd.SetInvalid()
			} else {
				ast.LinkRedecl(ctd, pctd)
			}
		}
	}

	ctx.Add(ctd)
	return ctd
}

// ActOnFunctionTemplate declares a function template wrapping the given
// function pattern.
func (s *Sema) ActOnFunctionTemplate(name ast.DeclName, loc report.SourceLoc, params []ast.Decl, templated *ast.FunctionDecl) *ast.FunctionTemplateDecl {
	ctx := s.templateOwnerCtx()

	ftd := ast.NewFunctionTemplateDecl(name, loc, params, templated)

	if prev := findPrevious(ctx, name, ast.DKFunctionTemplate); prev != nil {
		if pftd, ok := prev.(*ast.FunctionTemplateDecl); ok &&
			pftd.Templated != nil && templated != nil &&
			types.Same(pftd.Templated.Type, templated.Type) {
			ast.LinkRedecl(ftd, pftd)
		}
	}

	ctx.Add(ftd)
	return ftd
}

// ActOnAliasTemplate declares an alias template wrapping the given typedef
// pattern.
func (s *Sema) ActOnAliasTemplate(name ast.DeclName, loc report.SourceLoc, params []ast.Decl, templated *ast.TypedefDecl) *ast.AliasTemplateDecl {
	ctx := s.templateOwnerCtx()

	atd := ast.NewAliasTemplateDecl(name, loc, params, templated)
	ctx.Add(atd)
	return atd
}

// ActOnVarTemplate declares a variable template wrapping the given variable
// pattern.
func (s *Sema) ActOnVarTemplate(name ast.DeclName, loc report.SourceLoc, params []ast.Decl, templated *ast.VarDecl) *ast.VarTemplateDecl {
	ctx := s.templateOwnerCtx()

	vtd := ast.NewVarTemplateDecl(name, loc, params, templated)
	ctx.Add(vtd)
	return vtd
}

// templateOwnerCtx returns the context a templated declaration lands in: the
// context enclosing the open parameter list.
func (s *Sema) templateOwnerCtx() *ast.DeclContext {
	ctx := s.CurrentCtx()
	if ctx.ContextKind() == ast.DCTemplateParams {
		return ctx.Enclosing()
	}

	return ctx
}

// -----------------------------------------------------------------------------

// ActOnPartialSpecialization registers a partial specialization of a class
// template.  The argument pattern must be more specialized than the primary
// template, which a pattern identical to the parameter list is not.
func (s *Sema) ActOnPartialSpecialization(primary *ast.ClassTemplateDecl, params []ast.Decl, args []types.TemplateArg, templated *ast.RecordDecl, loc report.SourceLoc) *ast.PartialSpecDecl {
	canon := primary.Canonical().(*ast.ClassTemplateDecl)

	if len(args) != len(canon.Params) {
		s.Reporter.Error(loc, "err-partial-arity",
			"partial specialization of %s has the wrong number of arguments", canon.TemplateName())
	}

	psd := ast.NewPartialSpecDecl(loc, canon, params, args, templated)

	if allParamsAsWritten(params, args) {
		s.Reporter.Error(loc, "err-partial-not-special",
			"partial specialization of %s does not specialize any template argument", canon.TemplateName())
		psd.SetInvalid()
		return psd
	}

	canon.Partials = append(canon.Partials, psd)
	return psd
}

// allParamsAsWritten reports whether an argument pattern is a bare repetition
// of the specialization's own parameters in order.
func allParamsAsWritten(params []ast.Decl, args []types.TemplateArg) bool {
	if len(params) != len(args) {
		return false
	}

	for i, a := range args {
		if a.Kind != types.ArgType {
			return false
		}

		tp, ok := types.StripSugar(a.Type).(*types.TemplateParamType)
		if !ok || tp.Index != i {
			return false
		}
	}

	return true
}

// ActOnExplicitSpecialization registers a user-written full specialization of
// a class template.  The specialized record replaces the instantiated pattern
// for that argument list.
func (s *Sema) ActOnExplicitSpecialization(primary *ast.ClassTemplateDecl, args []types.TemplateArg, spec *ast.RecordDecl, loc report.SourceLoc) {
	spec.InstantiatedFrom = primary.Canonical()
	spec.TemplateArgs = args
	s.Inst.AddExplicitSpecialization(primary, args, spec, loc)
}

// ActOnExplicitFunctionSpecialization registers `template<> ...` for a
// function template.  Calls whose deduction arrives at the same argument list
// select the specialization instead of instantiating the primary.
func (s *Sema) ActOnExplicitFunctionSpecialization(primary *ast.FunctionTemplateDecl, args []types.TemplateArg, spec *ast.FunctionDecl, loc report.SourceLoc) {
	spec.InstantiatedFrom = primary.Canonical()
	spec.TemplateArgs = args
	spec.ExplicitSpec = true
	s.Inst.AddFunctionSpecialization(primary, args, spec)
}

// -----------------------------------------------------------------------------

// ActOnTemplateId resolves a written template-id `name<args>` to a type.
// Dependent argument lists produce an unresolved specialization type; concrete
// ones instantiate on the spot.
func (s *Sema) ActOnTemplateId(tmpl types.TemplateName, args []types.TemplateArg, loc report.SourceLoc) types.Type {
	switch td := tmpl.CanonicalTemplate().(type) {
	case *ast.ClassTemplateDecl:
		full, ok := s.completeTemplateArgs(td.Params, args, loc)
		if !ok {
			return s.Types.ErrorType()
		}

		if anyArgDependent(full) {
			return s.Types.GetTemplateSpec(tmpl, full, nil)
		}

		spec, err := s.Inst.RequireInstantiation(td, full, loc)
		if err != nil {
			s.diagnoseInstantiationFailure(err, tmpl, loc)
			return s.Types.ErrorType()
		}

		return s.Types.GetTemplateSpec(tmpl, full, s.Types.GetRecord(spec))

	case *ast.AliasTemplateDecl:
		if anyArgDependent(args) || td.Templated == nil {
			return s.Types.GetTemplateSpec(tmpl, args, nil)
		}

		under, err := s.Inst.SubstType(td.Templated.Under, template.NewSubstitution(args))
		if err != nil {
			s.diagnoseInstantiationFailure(err, tmpl, loc)
			return s.Types.ErrorType()
		}

		return s.Types.GetTemplateSpec(tmpl, args, under)

	default:
		// A template template parameter: the specialization stays dependent
		// until the parameter is bound.
		return s.Types.GetTemplateSpec(tmpl, args, nil)
	}
}

// completeTemplateArgs checks a written argument list against the template's
// parameters and materializes trailing default arguments.
func (s *Sema) completeTemplateArgs(params []ast.Decl, args []types.TemplateArg, loc report.SourceLoc) ([]types.TemplateArg, bool) {
	if len(args) > len(params) && !lastParamIsPack(params) {
		s.Reporter.Error(loc, "err-too-many-template-args",
			"too many template arguments: expected at most %d, got %d", len(params), len(args))
		return nil, false
	}

	full := append([]types.TemplateArg(nil), args...)

	for i := len(args); i < len(params); i++ {
		switch p := params[i].(type) {
		case *ast.TemplateTypeParamDecl:
			if p.Pack {
				full = append(full, types.PackArg())
				continue
			}

			if p.Default == nil {
				s.Reporter.Error(loc, "err-too-few-template-args",
					"too few template arguments: missing argument for parameter %s", p.DeclName().String()).
					WithNote(report.Note(p.Loc(), "note-param-here", "template parameter is declared here"))
				return nil, false
			}

			// A default may reference earlier parameters.
			dt, err := s.Inst.SubstType(p.Default, template.NewSubstitution(full))
			if err != nil {
				s.Reporter.Error(loc, "err-default-template-arg",
					"substitution into default template argument failed: %s", err.Error())
				return nil, false
			}

			full = append(full, types.TypeArg(dt))

		case *ast.NonTypeTemplateParamDecl:
			if p.Pack {
				full = append(full, types.PackArg())
				continue
			}

			if p.Default == nil {
				s.Reporter.Error(loc, "err-too-few-template-args",
					"too few template arguments: missing argument for parameter %s", p.DeclName().String()).
					WithNote(report.Note(p.Loc(), "note-param-here", "template parameter is declared here"))
				return nil, false
			}

			v, fail := s.FoldConstant(p.Default)
			if fail != nil {
				s.Reporter.Error(loc, "err-default-template-arg",
					"default template argument is not a constant expression: %s", fail.Msg)
				return nil, false
			}

			full = append(full, types.IntArg(p.Type, v))

		default:
			s.Reporter.Error(loc, "err-too-few-template-args",
				"too few template arguments: missing argument for parameter %s", params[i].DeclName().String())
			return nil, false
		}
	}

	return full, true
}

func lastParamIsPack(params []ast.Decl) bool {
	if len(params) == 0 {
		return false
	}

	switch p := params[len(params)-1].(type) {
	case *ast.TemplateTypeParamDecl:
		return p.Pack
	case *ast.NonTypeTemplateParamDecl:
		return p.Pack
	case *ast.TemplateTemplateParamDecl:
		return p.Pack
	}

	return false
}

func anyArgDependent(args []types.TemplateArg) bool {
	for _, a := range args {
		if a.Dependence().IsDependent() {
			return true
		}
	}

	return false
}

// diagnoseInstantiationFailure reports an instantiation failure with the
// active backtrace.  Depth exhaustion is already diagnosed by the
// instantiator and is not repeated.
func (s *Sema) diagnoseInstantiationFailure(err error, tmpl types.TemplateName, loc report.SourceLoc) {
	if err.Error() == "instantiation depth exceeded" {
		return
	}

	d := s.Reporter.Error(loc, "err-instantiation",
		"cannot instantiate %s: %s", tmpl.TemplateName(), err.Error())

	var inst *template.InstFailure
	if errors.As(err, &inst) {
		report.AttachBacktrace(d, inst.Frames)
	} else {
		s.Inst.Stack.AttachNotes(d)
	}
}

// ActOnTypenameType resolves a written `typename Q::name`.  With a dependent
// qualifier the name stays unresolved; otherwise the member type is looked up
// immediately.
func (s *Sema) ActOnTypenameType(qualifier types.Type, name string, loc report.SourceLoc) types.Type {
	if qualifier.Dependence().IsDependent() {
		return s.Types.GetDependentName(qualifier, name)
	}

	ty, err := s.resolveDependentName(qualifier, name)
	if err != nil {
		s.Reporter.Error(loc, "err-no-member-type",
			"no type named %s in %s", name, qualifier.Repr())
		return s.Types.ErrorType()
	}

	return ty
}

// -----------------------------------------------------------------------------
// Instantiator hooks.

// resolveDependentName resolves `typename Q::name` once the qualifier has
// become a concrete class type.  Failure is a substitution failure so the
// deduction machinery can discard the candidate silently.
func (s *Sema) resolveDependentName(qualifier types.Type, name string) (types.Type, error) {
	rt := types.AsRecord(types.Unqualified(qualifier.Canonical()))
	if rt == nil {
		return nil, &template.SubstFailure{Msg: qualifier.Repr() + " is not a class type"}
	}

	rd, ok := rt.Decl.CanonicalTag().(*ast.RecordDecl)
	if !ok || rd.Definition() == nil {
		return nil, &template.SubstFailure{Msg: qualifier.Repr() + " is incomplete"}
	}

	result := lookup.Member(rd.Definition(), ast.Ident(name), lookup.Ordinary)
	if result.Empty() || result.Ambiguous {
		return nil, &template.SubstFailure{Msg: "no type named " + name + " in " + qualifier.Repr()}
	}

	switch d := ast.ResolveShadow(result.Decls[0]).(type) {
	case *ast.TypedefDecl:
		return s.Types.GetTypedef(d, d.Under), nil
	case *ast.RecordDecl:
		return s.Types.GetRecord(d), nil
	case *ast.EnumDecl:
		return s.Types.GetEnum(d, d.Under), nil
	default:
		return nil, &template.SubstFailure{Msg: name + " in " + qualifier.Repr() + " does not name a type"}
	}
}

// instantiateClassBody populates a class specialization from its pattern:
// bases, fields, member signatures, nested types, and friend injections, with
// member bodies deferred until first use.  On success the specialization
// completes like an ordinary class: overrides link, triviality and layout
// are computed.
func (s *Sema) instantiateClassBody(spec, pattern *ast.RecordDecl, sub *template.Substitution) error {
	spec.State = ast.ClassBeingDefined
	spec.HasUserCtor = pattern.HasUserCtor
	spec.HasUserDtor = pattern.HasUserDtor

	// Base specifiers name concrete records by the time a pattern is
	// selected; the pattern's bases carry over unchanged.
	spec.Bases = append(spec.Bases, pattern.Bases...)

	for _, d := range pattern.AsDeclContext().Decls() {
		switch pd := d.(type) {
		case *ast.FieldDecl:
			ft, err := s.Inst.SubstType(pd.Type, sub)
			if err != nil {
				return err
			}

			nf := ast.NewFieldDecl(pd.DeclName(), pd.Loc(), ft)
			nf.Mutable = pd.Mutable
			nf.DefaultInit = pd.DefaultInit
			nf.SetAccess(pd.Access())
			spec.AsDeclContext().Add(nf)

		case *ast.FunctionDecl:
			nm, err := s.instantiateMethodDecl(spec, pd, sub)
			if err != nil {
				return err
			}

			spec.AsDeclContext().Add(nm)

		case *ast.VarDecl:
			vt, err := s.Inst.SubstType(pd.Type, sub)
			if err != nil {
				return err
			}

			nv := ast.NewVarDecl(pd.DeclName(), pd.Loc(), vt, pd.Storage)
			nv.Constexpr = pd.Constexpr
			nv.Init = pd.Init
			nv.SetAccess(pd.Access())
			spec.AsDeclContext().Add(nv)

		case *ast.TypedefDecl:
			ut, err := s.Inst.SubstType(pd.Under, sub)
			if err != nil {
				return err
			}

			nt := ast.NewTypedefDecl(pd.DeclName(), pd.Loc(), ut)
			nt.SetAccess(pd.Access())
			spec.AsDeclContext().Add(nt)

		case *ast.EnumDecl:
			ne := ast.NewEnumDecl(pd.DeclName(), pd.Loc(), pd.Under, pd.Scoped, spec.AsDeclContext())
			ne.Complete = pd.Complete
			ne.SetAccess(pd.Access())
			spec.AsDeclContext().Add(ne)

			for _, ed := range pd.AsDeclContext().Decls() {
				if ecd, ok := ed.(*ast.EnumConstantDecl); ok {
					nc := ast.NewEnumConstantDecl(ecd.DeclName(), ecd.Loc(), s.Types.GetEnum(ne, ne.Under), ecd.Value)
					ne.AsDeclContext().Add(nc)
				}
			}

		case *ast.FriendDecl:
			s.instantiateFriend(spec, pd, sub)
		}
	}

	spec.State = ast.ClassComplete
	s.linkOverrides(spec)
	s.computeTriviality(spec)
	s.computeLayout(spec)
	return nil
}

// instantiateMethodDecl builds the specialization's declaration of one member
// function, with the body deferred.
func (s *Sema) instantiateMethodDecl(spec *ast.RecordDecl, pattern *ast.FunctionDecl, sub *template.Substitution) (*ast.FunctionDecl, error) {
	ft, err := s.Inst.SubstType(pattern.Type, sub)
	if err != nil {
		return nil, err
	}

	nm := ast.NewFunctionDecl(pattern.DeclName(), pattern.Loc(), ft, spec.AsDeclContext())
	nm.Storage = pattern.Storage
	nm.Inline = pattern.Inline
	nm.Constexpr = pattern.Constexpr
	nm.Deleted = pattern.Deleted
	nm.Defaulted = pattern.Defaulted
	nm.Explicit = pattern.Explicit
	nm.Virtual = pattern.Virtual
	nm.Pure = pattern.Pure
	nm.Static = pattern.Static
	nm.MethodQuals = pattern.MethodQuals
	nm.SetAccess(pattern.Access())

	for i, p := range pattern.Params {
		pt, err := s.Inst.SubstType(p.Type, sub)
		if err != nil {
			return nil, err
		}

		np := ast.NewParamDecl(p.DeclName(), p.Loc(), pt, i)
		np.Default = p.Default
		nm.Params = append(nm.Params, np)
		nm.AsDeclContext().Add(np)
	}

	nm.InstantiatedFrom = pattern
	nm.TemplateArgs = spec.TemplateArgs
	return nm, nil
}

// instantiateFriend re-declares a pattern's friend in the specialization.  A
// friend function defined inside the pattern is injected into the enclosing
// namespace, visible only to argument-dependent lookup.
func (s *Sema) instantiateFriend(spec *ast.RecordDecl, friend *ast.FriendDecl, sub *template.Substitution) {
	switch inner := friend.Inner.(type) {
	case *ast.FunctionDecl:
		ft, err := s.Inst.SubstType(inner.Type, sub)
		if err != nil {
			return
		}

		ns := spec.Parent().Namespace()
		inj := ast.NewFunctionDecl(inner.DeclName(), inner.Loc(), ft, ns)
		inj.Inline = inner.Inline
		inj.FriendInjected = true

		for i, p := range inner.Params {
			pt, perr := s.Inst.SubstType(p.Type, sub)
			if perr != nil {
				return
			}

			np := ast.NewParamDecl(p.DeclName(), p.Loc(), pt, i)
			np.Default = p.Default
			inj.Params = append(inj.Params, np)
			inj.AsDeclContext().Add(np)
		}

		if inner.Body != nil {
			inj.InstantiatedFrom = inner
			inj.TemplateArgs = spec.TemplateArgs
		}

		ns.Add(inj)
		spec.FriendFunctions = append(spec.FriendFunctions, inj)
		spec.AsDeclContext().Add(ast.NewFriendDecl(friend.Loc(), inj))

	case *ast.RecordDecl:
		spec.FriendClasses = append(spec.FriendClasses, inner)
		spec.AsDeclContext().Add(ast.NewFriendDecl(friend.Loc(), inner))
	}
}

// instantiateFunctionBody instantiates the deferred body of a function
// specialization by re-analyzing the pattern's body under the specialization's
// argument bindings.  Dependent names re-resolve, conversions re-apply, and
// diagnostics carry the instantiation backtrace.
func (s *Sema) instantiateFunctionBody(spec *ast.FunctionDecl) {
	if spec.Body != nil || spec.Invalid() {
		return
	}

	// An explicit specialization's body is user-written, never synthesized
	// from the primary pattern.
	if spec.ExplicitSpec {
		return
	}

	pattern := functionPatternOf(spec)
	if pattern == nil {
		return
	}

	def := pattern
	if def.Body == nil {
		if d := definitionOf(pattern); d != nil {
			def = d
		}
	}

	if def.Body == nil {
		// Used but never defined: the pattern may be defined in another
		// translation unit.
		return
	}

	entity := spec.DeclName().String() + templateArgsRepr(spec.TemplateArgs)
	if !s.Inst.Stack.Push(report.InstantiationFrame{
		Kind:   report.InstMemberFunction,
		Entity: entity,
		POI:    spec.Loc(),
		Range:  def.Range(),
	}) {
		d := s.Reporter.Error(spec.Loc(), "err-inst-depth",
			"recursive template instantiation exceeded maximum depth of %d", s.Inst.Stack.Depth())
		s.Inst.Stack.AttachNotes(d)
		spec.SetInvalid()
		return
	}
	defer s.Inst.Stack.Pop()

	// Re-enter the lexical context of the definition: the owning class for
	// members, then the function itself.
	inClass := false
	if rd, ok := spec.Parent().Owner().(*ast.RecordDecl); ok {
		s.classStack = append(s.classStack, rd)
		s.PushScope(lookup.ScopeClass, rd.AsDeclContext())
		inClass = true
	}

	sc := s.PushScope(lookup.ScopeFunction, spec.AsDeclContext())
	sc.Fn = spec

	rb := &bodyRebuilder{
		s:     s,
		sub:   template.NewSubstitution(spec.TemplateArgs),
		decls: make(map[ast.Decl]ast.Decl),
		loc:   spec.Loc(),
	}

	for i, p := range def.Params {
		if i < len(spec.Params) {
			rb.decls[p] = spec.Params[i]
		}
	}

	body := rb.stmt(def.Body)

	s.PopScope()
	if inClass {
		s.PopScope()
		s.classStack = s.classStack[:len(s.classStack)-1]
	}

	spec.Body = body
}

// functionPatternOf returns the pattern declaration a function specialization
// was stamped from.
func functionPatternOf(spec *ast.FunctionDecl) *ast.FunctionDecl {
	switch p := spec.InstantiatedFrom.(type) {
	case *ast.FunctionTemplateDecl:
		return p.Templated
	case *ast.FunctionDecl:
		return p
	}

	return nil
}

// templateArgsRepr renders `<arg, arg>` for backtrace frames.
func templateArgsRepr(args []types.TemplateArg) string {
	if len(args) == 0 {
		return ""
	}

	r := "<"
	for i, a := range args {
		if i != 0 {
			r += ", "
		}

		r += a.Repr()
	}

	return r + ">"
}

// -----------------------------------------------------------------------------

// bodyRebuilder re-analyzes a template pattern's body for one specialization.
// It walks the analyzed pattern tree, strips the conversions the first pass
// inserted, substitutes template parameters, and drives the ordinary acts so
// every conversion and every diagnostic is recomputed against the concrete
// types.
type bodyRebuilder struct {
	s   *Sema
	sub *template.Substitution

	// Pattern declarations mapped to their specialization counterparts.
	decls map[ast.Decl]ast.Decl

	// The active switch, for case label re-registration.
	sw *ast.SwitchStmt

	loc report.SourceLoc
}

// ty substitutes one written type, diagnosing failure.
func (rb *bodyRebuilder) ty(t types.Type) types.Type {
	st, err := rb.s.Inst.SubstType(t, rb.sub)
	if err != nil {
		d := rb.s.Reporter.Error(rb.loc, "err-subst", "substitution failure: %s", err.Error())
		rb.s.Inst.Stack.AttachNotes(d)
		return rb.s.Types.ErrorType()
	}

	return st
}

func (rb *bodyRebuilder) stmt(st ast.Stmt) ast.Stmt {
	if st == nil {
		return nil
	}

	s := rb.s

	switch v := st.(type) {
	case *ast.CompoundStmt:
		body := make([]ast.Stmt, 0, len(v.Body))
		for _, inner := range v.Body {
			body = append(body, rb.stmt(inner))
		}

		return s.ActOnCompoundStmt(body, v.Range())

	case *ast.DeclStmt:
		decls := make([]ast.Decl, 0, len(v.Decls))
		for _, d := range v.Decls {
			decls = append(decls, rb.localDecl(d))
		}

		return s.ActOnDeclStmt(decls, v.Range())

	case *ast.ExprStmt:
		return s.ActOnExprStmt(rb.expr(v.E), v.Range())

	case *ast.ReturnStmt:
		return s.ActOnReturn(rb.expr(v.Value), v.Range())

	case *ast.IfStmt:
		return s.ActOnIf(rb.expr(v.Cond), rb.stmt(v.Then), rb.stmt(v.Else), v.Range())

	case *ast.WhileStmt:
		s.ActOnStartWhile()
		cond := rb.expr(v.Cond)
		body := rb.stmt(v.Body)
		return s.ActOnFinishWhile(cond, body, v.Range())

	case *ast.ForStmt:
		s.ActOnStartFor()
		init := rb.stmt(v.Init)
		cond := rb.expr(v.Cond)
		inc := rb.expr(v.Inc)
		body := rb.stmt(v.Body)
		return s.ActOnFinishFor(init, cond, inc, body, v.Range())

	case *ast.SwitchStmt:
		sw := s.ActOnStartSwitch(rb.expr(v.Cond), v.Range())
		prev := rb.sw
		rb.sw = sw
		body := rb.stmt(v.Body)
		rb.sw = prev
		return s.ActOnFinishSwitch(sw, body)

	case *ast.CaseStmt:
		if rb.sw == nil {
			return ast.NewRecoveryStmt(v.Range())
		}

		return s.ActOnCase(rb.sw, rb.expr(v.Value), rb.stmt(v.Body), v.Range())

	case *ast.BreakStmt:
		return s.ActOnBreak(v.Range())

	case *ast.ContinueStmt:
		return s.ActOnContinue(v.Range())

	case *ast.ThrowStmt:
		return s.ActOnThrow(rb.expr(v.Value), v.Range())

	case *ast.TryStmt:
		body, _ := rb.stmt(v.Body).(*ast.CompoundStmt)
		handlers := make([]*ast.CatchStmt, 0, len(v.Handlers))
		for _, h := range v.Handlers {
			handlers = append(handlers, rb.catchStmt(h))
		}

		return s.ActOnTry(body, handlers, v.Range())

	case *ast.NullStmt:
		return ast.NewNullStmt(v.Range())

	default:
		return st
	}
}

func (rb *bodyRebuilder) catchStmt(h *ast.CatchStmt) *ast.CatchStmt {
	s := rb.s

	var exc *ast.VarDecl
	if h.Exception != nil {
		exc = ast.NewVarDecl(h.Exception.DeclName(), h.Exception.Loc(), rb.ty(h.Exception.Type), h.Exception.Storage)
		rb.decls[h.Exception] = exc
	}

	s.ActOnStartCatch(exc)
	handler, _ := rb.stmt(h.Handler).(*ast.CompoundStmt)
	return s.ActOnFinishCatch(exc, handler, h.Range())
}

// localDecl re-declares one pattern local in the specialization's scope.
func (rb *bodyRebuilder) localDecl(d ast.Decl) ast.Decl {
	s := rb.s

	switch v := d.(type) {
	case *ast.VarDecl:
		nv := s.ActOnVariableDecl(v.DeclName(), v.Loc(), rb.ty(v.Type), v.Storage, v.Constexpr)
		rb.decls[v] = nv

		if v.Init != nil {
			s.ActOnVariableInit(nv, rb.expr(v.Init))
		} else {
			s.ActOnFinishVariable(nv)
		}

		return nv

	case *ast.TypedefDecl:
		nt := s.ActOnTypedef(v.DeclName(), v.Loc(), rb.ty(v.Under))
		rb.decls[v] = nt
		return nt

	case *ast.StaticAssertDecl:
		// A dependent assertion deferred at definition time is checked now
		// against the concrete arguments.
		return s.ActOnStaticAssert(rb.expr(v.Cond), v.Message, v.Range())

	default:
		return d
	}
}

func (rb *bodyRebuilder) exprs(es []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, 0, len(es))
	for _, e := range es {
		out = append(out, rb.expr(e))
	}

	return out
}

func (rb *bodyRebuilder) expr(e ast.Expr) ast.Expr {
	if e == nil {
		return nil
	}

	s := rb.s

	switch v := e.(type) {
	case *ast.ImplicitCastExpr:
		// Conversions from the first analysis pass are recomputed.
		return rb.expr(v.Operand)

	case *ast.ParenExpr:
		return s.ActOnParenExpr(rb.expr(v.Inner), v.Range())

	case *ast.IntegerLiteral:
		return ast.NewIntegerLiteral(v.Value, v.Type(), v.Range())

	case *ast.FloatingLiteral:
		return ast.NewFloatingLiteral(v.Value, v.Type(), v.Range())

	case *ast.BoolLiteral:
		return ast.NewBoolLiteral(v.Value, v.Type(), v.Range())

	case *ast.StringLiteral:
		return ast.NewStringLiteral(v.Value, v.Type(), v.Range())

	case *ast.NullPtrLiteral:
		return ast.NewNullPtrLiteral(v.Type(), v.Range())

	case *ast.DeclRefExpr:
		return rb.declRef(v)

	case *ast.DependentNameExpr:
		if v.Qualifier == nil {
			return s.ActOnIdExpr(v.Name, v.Range())
		}

		qual := rb.ty(v.Qualifier)
		if rt := types.AsRecord(types.Unqualified(qual.Canonical())); rt != nil {
			if rd, ok := rt.Decl.CanonicalTag().(*ast.RecordDecl); ok && rd.Definition() != nil {
				return s.ActOnQualifiedIdExpr(rd.Definition().AsDeclContext(), v.Name, v.Range())
			}
		}

		s.Reporter.Error(v.Loc(), "err-no-member",
			"no member named %s in %s", v.Name.String(), qual.Repr())
		return s.errorExpr(v.Range())

	case *ast.UnresolvedLookupExpr:
		return ast.NewUnresolvedLookupExpr(v.Name, v.Decls, v.WantsADL, s.Types.DependentType(), v.Range())

	case *ast.UnresolvedMemberExpr:
		return s.ActOnMemberAccess(rb.expr(v.Base), v.Arrow, v.Name, v.Range())

	case *ast.ThisExpr:
		return s.ActOnThis(v.Range())

	case *ast.UnaryExpr:
		return s.ActOnUnaryOp(v.Op, rb.expr(v.Operand), v.Range())

	case *ast.BinaryExpr:
		return s.ActOnBinaryOp(v.Op, rb.expr(v.LHS), rb.expr(v.RHS), v.Range())

	case *ast.ConditionalExpr:
		return s.ActOnConditional(rb.expr(v.Cond), rb.expr(v.Then), rb.expr(v.Else), v.Range())

	case *ast.CallExpr:
		return s.ActOnCall(rb.expr(v.Callee), rb.exprs(v.Args), v.Range())

	case *ast.MemberExpr:
		return s.ActOnMemberAccess(rb.expr(v.Base), v.Arrow, v.Member.DeclName(), v.Range())

	case *ast.SubscriptExpr:
		return s.ActOnSubscript(rb.expr(v.Base), rb.expr(v.Index), v.Range())

	case *ast.ExplicitCastExpr:
		return s.ActOnExplicitCast(v.Style, rb.ty(v.Written), rb.expr(v.Operand), v.Range())

	case *ast.SizeofExpr:
		return s.ActOnSizeof(rb.ty(v.Queried), v.Alignof, v.Range())

	case *ast.ConstructExpr:
		return ast.NewConstructExpr(v.Ctor, rb.exprs(v.Args), rb.ty(v.Type()), v.Range())

	case *ast.InitListExpr:
		return ast.NewInitListExpr(rb.exprs(v.Inits), rb.ty(v.Type()), v.Range())

	case *ast.RecoveryExpr:
		return s.errorExpr(v.Range())

	default:
		return e
	}
}

// declRef rebuilds a reference: bound non-type parameters become their
// argument values, pattern locals map to their re-declared counterparts, and
// everything else refers to the original declaration.
func (rb *bodyRebuilder) declRef(v *ast.DeclRefExpr) ast.Expr {
	if ntp, ok := v.Decl.(*ast.NonTypeTemplateParamDecl); ok {
		if arg, bound := rb.sub.Lookup(ntp.Depth, ntp.Index); bound && arg.Kind == types.ArgInt {
			return ast.NewIntegerLiteral(arg.Int, arg.Type, v.Range())
		}
	}

	if mapped, ok := rb.decls[v.Decl]; ok {
		switch dd := mapped.(type) {
		case *ast.ParamDecl:
			return ast.NewDeclRefExpr(dd, dd.Type, ast.LValue, v.Range())
		case *ast.VarDecl:
			return ast.NewDeclRefExpr(dd, dd.Type, ast.LValue, v.Range())
		}

		return ast.NewDeclRefExpr(mapped, v.Type(), v.Category(), v.Range())
	}

	return ast.NewDeclRefExpr(v.Decl, v.Type(), v.Category(), v.Range())
}

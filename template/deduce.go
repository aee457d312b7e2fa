package template

import (
	"fmt"

	"cfront/ast"
	"cfront/report"
	"cfront/types"
)

// deduction accumulates the argument bindings for one template parameter
// list.
type deduction struct {
	depth int
	args  []types.TemplateArg
	set   []bool

	// Parameters fixed by explicit template arguments.  Deduction never
	// overrides or conflicts with them; the call argument just has to
	// convert to the substituted parameter type.
	fixed []bool
}

func newDeduction(depth, n int) *deduction {
	return &deduction{
		depth: depth,
		args:  make([]types.TemplateArg, n),
		set:   make([]bool, n),
		fixed: make([]bool, n),
	}
}

// bind records a binding, failing on a conflict with an earlier one.
func (d *deduction) bind(index int, arg types.TemplateArg) error {
	if index < 0 || index >= len(d.args) {
		return substFail("template parameter index %d out of range", index)
	}

	if d.set[index] {
		if d.fixed[index] {
			return nil
		}

		if !types.SameArgs(canonicalArgs([]types.TemplateArg{d.args[index]}), canonicalArgs([]types.TemplateArg{arg})) {
			return substFail("conflicting deductions %s and %s", d.args[index].Repr(), arg.Repr())
		}

		return nil
	}

	d.args[index] = arg
	d.set[index] = true
	return nil
}

func (d *deduction) complete() bool {
	for _, s := range d.set {
		if !s {
			return false
		}
	}

	return true
}

// -----------------------------------------------------------------------------

// deduceType unifies a dependent parameter type P against a concrete
// argument type A, recording bindings for P's template parameters.
func (it *Instantiator) deduceType(p, a types.Type, ded *deduction) error {
	p = types.StripSugar(p)
	a = types.StripSugar(a)

	if !p.Dependence().IsDependent() {
		// A non-dependent parameter just has to match.
		if !types.Same(p, a) {
			return substFail("cannot deduce %s from %s", p.Repr(), a.Repr())
		}

		return nil
	}

	switch pt := p.(type) {
	case *types.TemplateParamType:
		if pt.Depth != ded.depth {
			// A parameter of an enclosing template is a fixed type here.
			return nil
		}

		return ded.bind(pt.Index, types.TypeArg(a))

	case *types.QualifiedType:
		// The parameter's qualifiers are consumed; any extra qualifiers on
		// the argument transfer to the deduced type.
		aq, au := types.QualsOf(a.Canonical())
		rest := it.Types.AddQualifiers(au, aq&^pt.Quals)
		return it.deduceType(pt.Inner, rest, ded)

	case *types.PointerType:
		ap := types.AsPointer(types.Unqualified(a.Canonical()))
		if ap == nil {
			return substFail("cannot deduce %s from %s", p.Repr(), a.Repr())
		}

		return it.deduceType(pt.Pointee, ap.Pointee, ded)

	case *types.ReferenceType:
		ar := types.AsReference(a.Canonical())
		if ar == nil || ar.RValue != pt.RValue {
			return substFail("cannot deduce %s from %s", p.Repr(), a.Repr())
		}

		return it.deduceType(pt.Pointee, ar.Pointee, ded)

	case *types.ArrayType:
		aa := types.AsArray(types.Unqualified(a.Canonical()))
		if aa == nil {
			return substFail("cannot deduce %s from %s", p.Repr(), a.Repr())
		}

		switch pt.AKind {
		case types.ArrayConstant:
			if aa.AKind != types.ArrayConstant || aa.Size != pt.Size {
				return substFail("array bound mismatch deducing %s from %s", p.Repr(), a.Repr())
			}
		case types.ArrayDependent:
			if depth, index, ok := nttpRef(pt.SizeExpr); ok && depth == ded.depth {
				if aa.AKind != types.ArrayConstant {
					return substFail("cannot deduce bound of %s from %s", p.Repr(), a.Repr())
				}

				if err := ded.bind(index, types.IntArg(it.Types.IntType(), aa.Size)); err != nil {
					return err
				}
			}
		}

		return it.deduceType(pt.Elem, aa.Elem, ded)

	case *types.FunctionType:
		af := types.AsFunction(a.Canonical())
		if af == nil || len(af.Params) != len(pt.Params) || af.Variadic != pt.Variadic {
			return substFail("cannot deduce %s from %s", p.Repr(), a.Repr())
		}

		if err := it.deduceType(pt.Return, af.Return, ded); err != nil {
			return err
		}

		for i := range pt.Params {
			if err := it.deduceType(pt.Params[i], af.Params[i], ded); err != nil {
				return err
			}
		}

		return nil

	case *types.MemberPointerType:
		am := types.AsMemberPointer(types.Unqualified(a.Canonical()))
		if am == nil {
			return substFail("cannot deduce %s from %s", p.Repr(), a.Repr())
		}

		if err := it.deduceType(pt.Class, am.Class, ded); err != nil {
			return err
		}

		return it.deduceType(pt.Pointee, am.Pointee, ded)

	case *types.TemplateSpecType:
		return it.deduceFromSpec(pt, a, ded)

	case *types.DependentNameType:
		// Non-deduced context: nothing binds, nothing fails.
		return nil

	case *types.PackExpansionType:
		return it.deduceType(pt.Pattern, a, ded)

	default:
		return substFail("cannot deduce %s from %s", p.Repr(), a.Repr())
	}
}

// deduceFromSpec deduces against a template-id pattern `Tmpl<Args...>`: the
// argument must be a specialization of the same template.
func (it *Instantiator) deduceFromSpec(pt *types.TemplateSpecType, a types.Type, ded *deduction) error {
	var actualArgs []types.TemplateArg

	switch at := types.Unqualified(a.Canonical()).(type) {
	case *types.TemplateSpecType:
		if at.Template.CanonicalTemplate() != pt.Template.CanonicalTemplate() {
			return substFail("cannot deduce %s from %s", pt.Repr(), a.Repr())
		}

		actualArgs = at.Args

	case *types.RecordType:
		rd, ok := at.Decl.CanonicalTag().(*ast.RecordDecl)
		if !ok || rd.InstantiatedFrom == nil {
			return substFail("cannot deduce %s from %s", pt.Repr(), a.Repr())
		}

		primary := primaryTemplate(rd.InstantiatedFrom)
		if primary == nil || primary != pt.Template.CanonicalTemplate() {
			return substFail("cannot deduce %s from %s", pt.Repr(), a.Repr())
		}

		actualArgs = rd.TemplateArgs

	default:
		return substFail("cannot deduce %s from %s", pt.Repr(), a.Repr())
	}

	if len(actualArgs) != len(pt.Args) {
		return substFail("argument count mismatch deducing %s", pt.Repr())
	}

	for i := range pt.Args {
		if err := it.deduceArg(pt.Args[i], actualArgs[i], ded); err != nil {
			return err
		}
	}

	return nil
}

// primaryTemplate resolves an instantiation source to its primary class
// template.
func primaryTemplate(from ast.Decl) types.TemplateName {
	switch d := from.(type) {
	case *ast.ClassTemplateDecl:
		return d.CanonicalTemplate()
	case *ast.PartialSpecDecl:
		return d.Primary.CanonicalTemplate()
	default:
		return nil
	}
}

// deduceArg unifies one template argument pattern against an actual
// argument.
func (it *Instantiator) deduceArg(pattern, actual types.TemplateArg, ded *deduction) error {
	switch pattern.Kind {
	case types.ArgType:
		if actual.Kind != types.ArgType {
			return substFail("kind mismatch deducing template argument")
		}

		return it.deduceType(pattern.Type, actual.Type, ded)

	case types.ArgInt:
		if actual.Kind != types.ArgInt || actual.Int != pattern.Int {
			return substFail("value mismatch deducing template argument")
		}

		return nil

	case types.ArgExpr:
		// A bare reference to a non-type parameter deduces its value.
		if depth, index, ok := nttpRef(pattern.Expr); ok && depth == ded.depth {
			if actual.Kind != types.ArgInt {
				return substFail("cannot deduce non-type parameter from non-integral argument")
			}

			return ded.bind(index, actual)
		}

		return nil

	case types.ArgTemplate:
		if actual.Kind != types.ArgTemplate || actual.Template.CanonicalTemplate() != pattern.Template.CanonicalTemplate() {
			return substFail("template mismatch deducing template argument")
		}

		return nil

	case types.ArgPack:
		if actual.Kind != types.ArgPack || len(actual.Elems) != len(pattern.Elems) {
			return substFail("pack mismatch deducing template argument")
		}

		for i := range pattern.Elems {
			if err := it.deduceArg(pattern.Elems[i], actual.Elems[i], ded); err != nil {
				return err
			}
		}

		return nil
	}

	return nil
}

// -----------------------------------------------------------------------------

// DeduceForCall deduces a function template's arguments from a call and
// returns the resulting specialization declaration, signature only.  Any
// failure, including a substitution failure in the signature, is a deduction
// failure: the template simply contributes no candidate.
func (it *Instantiator) DeduceForCall(ftd *ast.FunctionTemplateDecl, explicit []types.TemplateArg, args []ast.Expr) (*ast.FunctionDecl, []types.TemplateArg, error) {
	canon := ftd.Canonical().(*ast.FunctionTemplateDecl)
	fn := canon.Templated
	if fn == nil {
		return nil, nil, substFail("function template %s has no pattern", canon.TemplateName())
	}

	if len(explicit) > len(canon.Params) {
		return nil, nil, substFail("too many explicit template arguments for %s", canon.TemplateName())
	}

	ded := newDeduction(0, len(canon.Params))
	for i, ea := range explicit {
		if err := ded.bind(i, ea); err != nil {
			return nil, nil, err
		}

		ded.fixed[i] = true
	}

	// Deduce from each parameter/argument pair.  Trailing parameters with no
	// matching argument rely on defaults; trailing pack parameters absorb
	// the remaining arguments.
	nFixed := len(fn.Params)
	packParam := -1
	for i, p := range fn.Params {
		if _, ok := p.Type.Canonical().(*types.PackExpansionType); ok {
			packParam = i
			nFixed = i
			break
		}
	}

	for i := 0; i < nFixed && i < len(args); i++ {
		if err := it.deduceFromCallArg(fn.Params[i].Type, args[i], ded); err != nil {
			return nil, nil, err
		}
	}

	if packParam >= 0 {
		pe := fn.Params[packParam].Type.Canonical().(*types.PackExpansionType)
		if depth, index, ok := packPatternParam(pe.Pattern); ok && depth == 0 {
			var elems []types.TemplateArg

			for i := packParam; i < len(args); i++ {
				elemDed := newDeduction(0, len(canon.Params))
				if err := it.deduceFromCallArg(pe.Pattern, args[i], elemDed); err != nil {
					return nil, nil, err
				}

				if !elemDed.set[index] {
					return nil, nil, substFail("cannot deduce pack element from argument %d", i)
				}

				elems = append(elems, elemDed.args[index])
			}

			if err := ded.bind(index, types.PackArg(elems...)); err != nil {
				return nil, nil, err
			}
		}
	}

	// Fill in defaults for parameters deduction left unbound.
	if err := it.applyDefaults(canon, ded); err != nil {
		return nil, nil, err
	}

	if !ded.complete() {
		return nil, nil, substFail("could not deduce all template arguments for %s", canon.TemplateName())
	}

	return it.Specialize(canon, ded.args, args)
}

// deduceFromCallArg applies the call-context adjustments before unifying:
// reference parameters deduce against the argument as written, other
// parameters against the decayed argument type.
func (it *Instantiator) deduceFromCallArg(paramTy types.Type, arg ast.Expr, ded *deduction) error {
	a := arg.Type()

	if ref := types.AsReference(types.StripSugar(paramTy)); ref != nil {
		// A reference parameter suppresses decay and keeps the argument's
		// qualifiers, so g(T&) called on a const int lvalue binds T = const int.
		return it.deduceType(ref.Pointee, a.Canonical(), ded)
	}

	return it.deduceType(paramTy, it.decay(a), ded)
}

// decay applies array-to-pointer and function-to-pointer decay and drops
// top-level qualifiers, which is how arguments present themselves to
// deduction and to by-value parameters.
func (it *Instantiator) decay(t types.Type) types.Type {
	c := types.Unqualified(t.Canonical())

	if at := types.AsArray(c); at != nil {
		return it.Types.GetPointer(at.Elem)
	}

	if types.AsFunction(c) != nil {
		return it.Types.GetPointer(c)
	}

	return c
}

// packPatternParam finds the pack parameter a pack expansion pattern binds.
func packPatternParam(pattern types.Type) (depth, index int, ok bool) {
	return findPackParam(pattern)
}

// applyDefaults substitutes default template arguments for unbound
// parameters, left to right so later defaults may use earlier bindings.
func (it *Instantiator) applyDefaults(ftd *ast.FunctionTemplateDecl, ded *deduction) error {
	for i, pd := range ftd.Params {
		if ded.set[i] {
			continue
		}

		switch p := pd.(type) {
		case *ast.TemplateTypeParamDecl:
			if p.Pack {
				// An undeduced trailing pack deduces to the empty pack.
				if err := ded.bind(i, types.PackArg()); err != nil {
					return err
				}

				continue
			}

			if p.Default == nil {
				continue
			}

			dt, err := it.SubstType(p.Default, NewSubstitution(ded.args))
			if err != nil {
				return err
			}

			if err := ded.bind(i, types.TypeArg(dt)); err != nil {
				return err
			}

		case *ast.NonTypeTemplateParamDecl:
			if p.Default == nil {
				continue
			}

			lit, ok := ast.IgnoreParenCasts(p.Default).(*ast.IntegerLiteral)
			if !ok {
				continue
			}

			if err := ded.bind(i, types.IntArg(p.Type, lit.Value)); err != nil {
				return err
			}
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Specialize builds the function declaration for a fully determined argument
// list, memoized so every call site shares one specialization.
func (it *Instantiator) Specialize(ftd *ast.FunctionTemplateDecl, targs []types.TemplateArg, callArgs []ast.Expr) (*ast.FunctionDecl, []types.TemplateArg, error) {
	canon := ftd.Canonical().(*ast.FunctionTemplateDecl)
	fn := canon.Templated

	key := fmt.Sprintf("%p|", canon) + specKey(canonicalArgs(targs))
	if spec, ok := it.funcSpecs[key]; ok {
		return spec, targs, nil
	}

	sub := NewSubstitution(targs)

	// Substitution failures in the signature are SFINAE, so any diagnostics
	// raised while resolving the signature stay buffered until we know the
	// signature is sound.
	probe := it.Reporter.PushProbe()

	specTy, err := it.SubstType(fn.Type, sub)
	if err != nil {
		probe.Discard()
		return nil, nil, err
	}

	entity := specEntityName(canon.TemplateName(), targs)
	if err := it.pushFrame(report.InstTemplate, entity, callLoc(callArgs), fn.Range()); err != nil {
		probe.Discard()
		return nil, nil, err
	}
	defer it.Stack.Pop()

	spec := ast.NewFunctionDecl(fn.DeclName(), fn.Loc(), specTy, canon.Parent())
	spec.InstantiatedFrom = canon
	spec.TemplateArgs = targs
	spec.Inline = fn.Inline
	spec.Constexpr = fn.Constexpr
	spec.Storage = fn.Storage
	spec.MethodQuals = fn.MethodQuals
	spec.Static = fn.Static

	ft := types.AsFunction(specTy)
	for i, pattern := range fn.Params {
		if i >= len(ft.Params) && !patternIsPack(pattern) {
			break
		}

		if patternIsPack(pattern) {
			// One declaration per expanded element.
			for j := i; j < len(ft.Params); j++ {
				pd := ast.NewParamDecl(pattern.DeclName(), pattern.Loc(), ft.Params[j], j)
				spec.Params = append(spec.Params, pd)
				spec.Add(pd)
			}

			break
		}

		pd := ast.NewParamDecl(pattern.DeclName(), pattern.Loc(), ft.Params[i], i)
		pd.Default = pattern.Default
		spec.Params = append(spec.Params, pd)
		spec.Add(pd)
	}

	probe.Commit()
	it.funcSpecs[key] = spec
	return spec, targs, nil
}

func patternIsPack(p *ast.ParamDecl) bool {
	_, ok := p.Type.Canonical().(*types.PackExpansionType)
	return ok
}

func callLoc(args []ast.Expr) report.SourceLoc {
	if len(args) > 0 {
		return args[0].Loc()
	}

	return 0
}

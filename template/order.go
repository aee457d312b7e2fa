package template

import (
	"cfront/ast"
	"cfront/types"
)

// synthesizeArgs invents a unique concrete stand-in for each parameter of a
// template, used to test whether the other template could deduce against any
// specialization of this one.
func (it *Instantiator) synthesizeArgs(params []ast.Decl) []types.TemplateArg {
	args := make([]types.TemplateArg, len(params))

	for i, pd := range params {
		it.synthCount++

		switch p := pd.(type) {
		case *ast.TemplateTypeParamDecl:
			// Synthetic parameters at a reserved depth act as opaque unique
			// types: deduction can bind them but nothing else matches them.
			synth := it.Types.GetTemplateParam(-1, it.synthCount, "", false)
			if p.Pack {
				args[i] = types.PackArg(types.TypeArg(synth))
			} else {
				args[i] = types.TypeArg(synth)
			}

		case *ast.NonTypeTemplateParamDecl:
			args[i] = types.IntArg(p.Type, int64(1000000+it.synthCount))

		default:
			args[i] = types.TypeArg(it.Types.GetTemplateParam(-1, it.synthCount, "", false))
		}
	}

	return args
}

// atLeastAsSpecializedFn reports whether function template a is at least as
// specialized as b: b's parameters can deduce against a's parameters with
// a's template parameters replaced by unique synthetic types.
func (it *Instantiator) atLeastAsSpecializedFn(a, b *ast.FunctionTemplateDecl) bool {
	if a.Templated == nil || b.Templated == nil {
		return false
	}

	synth := it.synthesizeArgs(a.Params)
	sub := NewSubstitution(synth)

	ded := newDeduction(0, len(b.Params))

	aParams, bParams := a.Templated.Params, b.Templated.Params
	if len(aParams) != len(bParams) {
		// With no pack involved, differing arity never orders.
		if !hasPackDecl(aParams) && !hasPackDecl(bParams) {
			return false
		}
	}

	n := len(bParams)
	if len(aParams) < n {
		n = len(aParams)
	}

	for i := 0; i < n; i++ {
		at, err := it.SubstType(orderingType(aParams[i].Type), sub)
		if err != nil {
			return false
		}

		if err := it.deduceType(orderingType(bParams[i].Type), at, ded); err != nil {
			return false
		}
	}

	return true
}

// orderingType strips the reference wrapper for ordering purposes so `T&`
// and `T` compare on the referenced type.
func orderingType(t types.Type) types.Type {
	if ref := types.AsReference(types.StripSugar(t)); ref != nil {
		return ref.Pointee
	}

	return t
}

func hasPackDecl(params []*ast.ParamDecl) bool {
	for _, p := range params {
		if _, ok := p.Type.Canonical().(*types.PackExpansionType); ok {
			return true
		}
	}

	return false
}

// MoreSpecializedFunction partially orders two function templates: -1 when a
// is more specialized, +1 when b is, 0 when neither.
func (it *Instantiator) MoreSpecializedFunction(a, b *ast.FunctionTemplateDecl) int {
	ca := a.Canonical().(*ast.FunctionTemplateDecl)
	cb := b.Canonical().(*ast.FunctionTemplateDecl)

	aAtLeast := it.atLeastAsSpecializedFn(ca, cb)
	bAtLeast := it.atLeastAsSpecializedFn(cb, ca)

	switch {
	case aAtLeast && !bAtLeast:
		return -1
	case bAtLeast && !aAtLeast:
		return 1
	default:
		return 0
	}
}

// atLeastAsSpecializedPartial reports whether partial specialization a is at
// least as specialized as b: b's argument pattern deduces against a's with
// a's parameters made concrete.
func (it *Instantiator) atLeastAsSpecializedPartial(a, b *ast.PartialSpecDecl) bool {
	if len(a.Args) != len(b.Args) {
		return false
	}

	synth := it.synthesizeArgs(a.Params)
	sub := NewSubstitution(synth)

	aArgs, err := it.SubstArgs(a.Args, sub)
	if err != nil {
		return false
	}

	ded := newDeduction(0, len(b.Params))
	for i := range b.Args {
		if err := it.deduceArg(b.Args[i], aArgs[i], ded); err != nil {
			return false
		}
	}

	return true
}

// morePartialSpecialized partially orders two class template partial
// specializations: -1 when a is more specialized, +1 when b is, 0 when
// neither.
func (it *Instantiator) morePartialSpecialized(a, b *ast.PartialSpecDecl) int {
	aAtLeast := it.atLeastAsSpecializedPartial(a, b)
	bAtLeast := it.atLeastAsSpecializedPartial(b, a)

	switch {
	case aAtLeast && !bAtLeast:
		return -1
	case bAtLeast && !aAtLeast:
		return 1
	default:
		return 0
	}
}

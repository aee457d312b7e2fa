package template

import (
	"fmt"

	"cfront/types"
	"cfront/util"
)

// SubstFailure is a substitution failure.  In a deduction context it is
// swallowed rather than diagnosed, which is what makes SFINAE work.
type SubstFailure struct {
	Msg string
}

func (sf *SubstFailure) Error() string { return sf.Msg }

func substFail(format string, args ...interface{}) error {
	return &SubstFailure{Msg: fmt.Sprintf(format, args...)}
}

// Substitution maps template parameters to their arguments, one argument
// list per parameter-list depth.
type Substitution struct {
	// Levels[depth] holds the arguments for the parameter list at that
	// nesting depth.
	Levels [][]types.TemplateArg
}

// NewSubstitution creates a single-level substitution at depth 0.
func NewSubstitution(args []types.TemplateArg) *Substitution {
	return &Substitution{Levels: [][]types.TemplateArg{args}}
}

// Lookup returns the argument bound to the parameter at (depth, index).
func (s *Substitution) Lookup(depth, index int) (types.TemplateArg, bool) {
	if depth < 0 || depth >= len(s.Levels) || index >= len(s.Levels[depth]) {
		return types.TemplateArg{}, false
	}

	a := s.Levels[depth][index]
	if a.Kind == types.ArgType && a.Type == nil {
		return types.TemplateArg{}, false
	}

	return a, true
}

// SubstType applies a substitution to a type, rebuilding through the type
// context so the result is properly uniqued.  Substitution into a construct
// that does not admit the substituted value fails with a SubstFailure.
func (it *Instantiator) SubstType(t types.Type, sub *Substitution) (types.Type, error) {
	if t == nil {
		return nil, nil
	}

	if !t.Dependence().IsDependent() && t.Dependence()&types.DepInstantiation == 0 {
		return t, nil
	}

	switch tt := t.(type) {
	case *types.TemplateParamType:
		arg, ok := sub.Lookup(tt.Depth, tt.Index)
		if !ok {
			// A parameter from an outer level stays as written.
			return t, nil
		}

		if arg.Kind == types.ArgPack {
			return nil, substFail("parameter pack %s used without expansion", tt.Repr())
		}

		if arg.Kind != types.ArgType {
			return nil, substFail("template parameter %s is not a type", tt.Repr())
		}

		return arg.Type, nil

	case *types.QualifiedType:
		inner, err := it.SubstType(tt.Inner, sub)
		if err != nil {
			return nil, err
		}

		if types.AsReference(inner.Canonical()) != nil || types.AsFunction(inner.Canonical()) != nil {
			return nil, substFail("cannot qualify %s", inner.Repr())
		}

		return it.Types.AddQualifiers(inner, tt.Quals), nil

	case *types.PointerType:
		pointee, err := it.SubstType(tt.Pointee, sub)
		if err != nil {
			return nil, err
		}

		if types.AsReference(pointee.Canonical()) != nil {
			return nil, substFail("cannot form pointer to reference %s", pointee.Repr())
		}

		return it.Types.GetPointer(pointee), nil

	case *types.ReferenceType:
		pointee, err := it.SubstType(tt.Pointee, sub)
		if err != nil {
			return nil, err
		}

		// Reference collapsing: a reference to a reference folds, with an
		// lvalue reference winning.
		if inner := types.AsReference(pointee.Canonical()); inner != nil {
			if !tt.RValue || !inner.RValue {
				return it.Types.GetLValueRef(inner.Pointee), nil
			}

			return it.Types.GetRValueRef(inner.Pointee), nil
		}

		if types.IsVoid(pointee.Canonical()) {
			return nil, substFail("cannot form reference to void")
		}

		if tt.RValue {
			return it.Types.GetRValueRef(pointee), nil
		}

		return it.Types.GetLValueRef(pointee), nil

	case *types.ArrayType:
		elem, err := it.SubstType(tt.Elem, sub)
		if err != nil {
			return nil, err
		}

		if types.IsVoid(elem.Canonical()) || types.AsReference(elem.Canonical()) != nil || types.AsFunction(elem.Canonical()) != nil {
			return nil, substFail("invalid array element type %s", elem.Repr())
		}

		switch tt.AKind {
		case types.ArrayConstant:
			return it.Types.GetConstantArray(elem, tt.Size), nil
		case types.ArrayIncomplete:
			return it.Types.GetIncompleteArray(elem), nil
		case types.ArrayDependent:
			if size, ok := it.resolveDependentSize(tt.SizeExpr, sub); ok {
				if size < 0 {
					return nil, substFail("array bound %d is negative", size)
				}

				return it.Types.GetConstantArray(elem, size), nil
			}

			return it.Types.GetDependentArray(elem, tt.SizeExpr), nil
		default:
			return it.Types.GetVariableArray(elem, tt.SizeExpr), nil
		}

	case *types.FunctionType:
		ret, err := it.SubstType(tt.Return, sub)
		if err != nil {
			return nil, err
		}

		params, err := it.substParamList(tt.Params, sub)
		if err != nil {
			return nil, err
		}

		throws, err := util.MapErr(tt.Throws, func(th types.Type) (types.Type, error) {
			return it.SubstType(th, sub)
		})
		if err != nil {
			return nil, err
		}

		info := types.FunctionInfo{Variadic: tt.Variadic, NoProto: tt.NoProto, Noexcept: tt.Noexcept, Throws: throws}
		return it.Types.GetFunction(ret, params, info), nil

	case *types.MemberPointerType:
		class, err := it.SubstType(tt.Class, sub)
		if err != nil {
			return nil, err
		}

		pointee, err := it.SubstType(tt.Pointee, sub)
		if err != nil {
			return nil, err
		}

		if types.AsRecord(class.Canonical()) == nil && class.Dependence().IsDependent() == false {
			return nil, substFail("member pointer class %s is not a class", class.Repr())
		}

		return it.Types.GetMemberPointer(class, pointee), nil

	case *types.TemplateSpecType:
		args, err := it.SubstArgs(tt.Args, sub)
		if err != nil {
			return nil, err
		}

		if !argsDependent(args) {
			return it.resolveSpecialization(tt.Template, args)
		}

		return it.Types.GetTemplateSpec(tt.Template, args, nil), nil

	case *types.DependentNameType:
		qual, err := it.SubstType(tt.Qualifier, sub)
		if err != nil {
			return nil, err
		}

		if !qual.Dependence().IsDependent() {
			if it.Hooks.ResolveDependentName == nil {
				return nil, substFail("cannot resolve %s::%s", qual.Repr(), tt.Name)
			}

			return it.Hooks.ResolveDependentName(qual, tt.Name)
		}

		return it.Types.GetDependentName(qual, tt.Name), nil

	case *types.PackExpansionType:
		// A pack expansion outside a parameter or argument list position
		// cannot be substituted element-wise here.
		return nil, substFail("unexpanded parameter pack")

	case *types.TypedefType:
		return it.SubstType(tt.Under, sub)

	case *types.ElaboratedType:
		return it.SubstType(tt.Named, sub)

	case *types.AutoType:
		if tt.Deduced != nil {
			return it.SubstType(tt.Deduced, sub)
		}

		return t, nil

	default:
		return t, nil
	}
}

// substParamList substitutes a function parameter list, expanding trailing
// parameter packs element-wise.
func (it *Instantiator) substParamList(params []types.Type, sub *Substitution) ([]types.Type, error) {
	var out []types.Type

	for _, p := range params {
		pe, ok := p.(*types.PackExpansionType)
		if !ok {
			sp, err := it.SubstType(p, sub)
			if err != nil {
				return nil, err
			}

			out = append(out, sp)
			continue
		}

		elems, err := it.expandPack(pe.Pattern, sub)
		if err != nil {
			return nil, err
		}

		out = append(out, elems...)
	}

	return out, nil
}

// expandPack substitutes a pack expansion pattern once per element of the
// bound pack argument.
func (it *Instantiator) expandPack(pattern types.Type, sub *Substitution) ([]types.Type, error) {
	depth, index, ok := findPackParam(pattern)
	if !ok {
		return nil, substFail("pack expansion pattern names no parameter pack")
	}

	arg, bound := sub.Lookup(depth, index)
	if !bound {
		// The pack is still dependent: keep the expansion as written.
		return []types.Type{it.Types.GetPackExpansion(pattern)}, nil
	}

	if arg.Kind != types.ArgPack {
		return nil, substFail("parameter pack bound to a non-pack argument")
	}

	var out []types.Type
	for i, elem := range arg.Elems {
		esub := &Substitution{Levels: append([][]types.TemplateArg(nil), sub.Levels...)}
		esub.Levels[depth] = append([]types.TemplateArg(nil), esub.Levels[depth]...)
		esub.Levels[depth][index] = elem

		st, err := it.SubstType(pattern, esub)
		if err != nil {
			return nil, substFail("element %d of pack expansion: %s", i, err.Error())
		}

		out = append(out, st)
	}

	return out, nil
}

// findPackParam locates the first pack parameter referenced by a pattern.
func findPackParam(t types.Type) (depth, index int, ok bool) {
	switch tt := t.(type) {
	case *types.TemplateParamType:
		if tt.Pack {
			return tt.Depth, tt.Index, true
		}

	case *types.QualifiedType:
		return findPackParam(tt.Inner)
	case *types.PointerType:
		return findPackParam(tt.Pointee)
	case *types.ReferenceType:
		return findPackParam(tt.Pointee)
	case *types.ArrayType:
		return findPackParam(tt.Elem)
	case *types.FunctionType:
		if d, i, ok := findPackParam(tt.Return); ok {
			return d, i, ok
		}

		for _, p := range tt.Params {
			if d, i, ok := findPackParam(p); ok {
				return d, i, ok
			}
		}
	case *types.PackExpansionType:
		return findPackParam(tt.Pattern)
	}

	return 0, 0, false
}

// SubstArgs applies a substitution to a template argument list, flattening
// expanded packs.
func (it *Instantiator) SubstArgs(args []types.TemplateArg, sub *Substitution) ([]types.TemplateArg, error) {
	var out []types.TemplateArg

	for _, a := range args {
		switch a.Kind {
		case types.ArgType:
			if pe, ok := a.Type.(*types.PackExpansionType); ok {
				elems, err := it.expandPack(pe.Pattern, sub)
				if err != nil {
					return nil, err
				}

				for _, e := range elems {
					out = append(out, types.TypeArg(e))
				}

				continue
			}

			st, err := it.SubstType(a.Type, sub)
			if err != nil {
				return nil, err
			}

			out = append(out, types.TypeArg(st))

		case types.ArgInt:
			st, err := it.SubstType(a.Type, sub)
			if err != nil {
				return nil, err
			}

			out = append(out, types.IntArg(st, a.Int))

		case types.ArgExpr:
			if resolved, ok := it.resolveExprArg(a, sub); ok {
				out = append(out, resolved)
				continue
			}

			out = append(out, a)

		case types.ArgPack:
			elems, err := it.SubstArgs(a.Elems, sub)
			if err != nil {
				return nil, err
			}

			out = append(out, types.PackArg(elems...))

		default:
			out = append(out, a)
		}
	}

	return out, nil
}

func argsDependent(args []types.TemplateArg) bool {
	for _, a := range args {
		if a.Dependence().IsDependent() {
			return true
		}
	}

	return false
}

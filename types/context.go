package types

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"cfront/common"
	"cfront/util"
)

// Context owns the process of creating types.  It is the uniquing arena: all
// structurally identical types created through one context share a node, and
// canonical forms are computed eagerly at construction so that canonicality
// is a fixpoint.  A context is single-writer: one translation unit per
// context.
type Context struct {
	// The target the context answers layout queries against.
	Target *common.Target

	// The active language options.
	Opts *common.LangOpts

	// The uniquing table: xxhash of the structural key to the types in that
	// bucket.  Collisions are resolved by comparing stored keys.
	table map[uint64][]Type

	// The next sequential type id, used to build structural keys.
	nextID uint64

	// Cached builtin singletons.
	builtins map[BuiltinKind]*BuiltinType

	// Per-declaration caches for nominal types.
	recordTypes map[TagDecl]*RecordType
	enumTypes   map[TagDecl]*EnumType

	// Counter used to make each variable-length array type distinct.
	vlaCount int
}

// NewContext creates a type context for the given target and options.
func NewContext(target *common.Target, opts *common.LangOpts) *Context {
	return &Context{
		Target:      target,
		Opts:        opts,
		table:       make(map[uint64][]Type),
		builtins:    make(map[BuiltinKind]*BuiltinType),
		recordTypes: make(map[TagDecl]*RecordType),
		enumTypes:   make(map[TagDecl]*EnumType),
	}
}

// intern returns the unique type for the given structural key, building it
// with the supplied constructor on first use.
func (ctx *Context) intern(key string, build func() Type) Type {
	h := xxhash.Sum64String(key)

	for _, t := range ctx.table[h] {
		if t.base().ukey == key {
			return t
		}
	}

	t := build()
	tb := t.base()
	tb.ukey = key
	tb.tid = ctx.nextID
	ctx.nextID++

	ctx.table[h] = append(ctx.table[h], t)
	return t
}

// id returns the uniquing id of a type for key building.
func id(t Type) uint64 {
	return t.base().tid
}

// -----------------------------------------------------------------------------

// GetBuiltin returns the canonical singleton for a builtin kind.
func (ctx *Context) GetBuiltin(bk BuiltinKind) Type {
	if bt, ok := ctx.builtins[bk]; ok {
		return bt
	}

	t := ctx.intern(fmt.Sprintf("B%d", bk), func() Type {
		return &BuiltinType{BK: bk}
	})

	bt := t.(*BuiltinType)
	bt.canon = bt
	ctx.builtins[bk] = bt
	return bt
}

// ErrorType returns the recovery placeholder type.
func (ctx *Context) ErrorType() Type {
	return ctx.GetBuiltin(ErrorTy)
}

// DependentType returns the placeholder type for expressions whose type is
// unknowable before instantiation.
func (ctx *Context) DependentType() Type {
	bt := ctx.GetBuiltin(DependentTy).(*BuiltinType)
	bt.dep = DepType | DepValue | DepInstantiation
	return bt
}

// IntType returns the builtin `int`, the most common recovery guess.
func (ctx *Context) IntType() Type {
	return ctx.GetBuiltin(Int)
}

// GetPointer returns the pointer type to the given pointee.
func (ctx *Context) GetPointer(pointee Type) Type {
	t := ctx.intern(fmt.Sprintf("P%d", id(pointee)), func() Type {
		return &PointerType{Pointee: pointee, typeBase: typeBase{dep: normalizeDep(pointee.Dependence())}}
	})

	pt := t.(*PointerType)
	if pt.canon == nil {
		if IsCanonical(pointee) {
			pt.canon = pt
		} else {
			pt.canon = ctx.GetPointer(pointee.Canonical())
		}
	}

	return pt
}

// GetLValueRef returns the lvalue reference type to the given pointee.
func (ctx *Context) GetLValueRef(pointee Type) Type {
	return ctx.getRef(pointee, false)
}

// GetRValueRef returns the rvalue reference type to the given pointee.
func (ctx *Context) GetRValueRef(pointee Type) Type {
	return ctx.getRef(pointee, true)
}

func (ctx *Context) getRef(pointee Type, rvalue bool) Type {
	t := ctx.intern(fmt.Sprintf("R%v_%d", rvalue, id(pointee)), func() Type {
		return &ReferenceType{Pointee: pointee, RValue: rvalue, typeBase: typeBase{dep: normalizeDep(pointee.Dependence())}}
	})

	rt := t.(*ReferenceType)
	if rt.canon == nil {
		if IsCanonical(pointee) {
			rt.canon = rt
		} else {
			rt.canon = ctx.getRef(pointee.Canonical(), rvalue)
		}
	}

	return rt
}

// GetConstantArray returns the array type of the given element count.
func (ctx *Context) GetConstantArray(elem Type, size int64) Type {
	t := ctx.intern(fmt.Sprintf("A%d_%d", id(elem), size), func() Type {
		return &ArrayType{Elem: elem, AKind: ArrayConstant, Size: size, typeBase: typeBase{dep: normalizeDep(elem.Dependence())}}
	})

	at := t.(*ArrayType)
	if at.canon == nil {
		if IsCanonical(elem) {
			at.canon = at
		} else {
			at.canon = ctx.GetConstantArray(elem.Canonical(), size)
		}
	}

	return at
}

// GetIncompleteArray returns the array type with no stated bound.
func (ctx *Context) GetIncompleteArray(elem Type) Type {
	t := ctx.intern(fmt.Sprintf("AI%d", id(elem)), func() Type {
		return &ArrayType{Elem: elem, AKind: ArrayIncomplete, typeBase: typeBase{dep: normalizeDep(elem.Dependence())}}
	})

	at := t.(*ArrayType)
	if at.canon == nil {
		if IsCanonical(elem) {
			at.canon = at
		} else {
			at.canon = ctx.GetIncompleteArray(elem.Canonical())
		}
	}

	return at
}

// GetVariableArray returns a new variable-length array type.  VLA types are
// never uniqued: each declaration gets its own node.
func (ctx *Context) GetVariableArray(elem Type, sizeExpr interface{}) Type {
	ctx.vlaCount++

	t := ctx.intern(fmt.Sprintf("AV%d_%d", id(elem), ctx.vlaCount), func() Type {
		return &ArrayType{Elem: elem, AKind: ArrayVariable, SizeExpr: sizeExpr, typeBase: typeBase{dep: normalizeDep(elem.Dependence())}}
	})

	at := t.(*ArrayType)
	at.canon = at
	return at
}

// GetDependentArray returns the array type whose bound is the given dependent
// expression.
func (ctx *Context) GetDependentArray(elem Type, sizeExpr interface{}) Type {
	t := ctx.intern(fmt.Sprintf("AD%d_%p", id(elem), sizeExpr), func() Type {
		dep := normalizeDep(elem.Dependence() | DepValue)
		return &ArrayType{Elem: elem, AKind: ArrayDependent, SizeExpr: sizeExpr, typeBase: typeBase{dep: dep}}
	})

	at := t.(*ArrayType)
	if at.canon == nil {
		if IsCanonical(elem) {
			at.canon = at
		} else {
			at.canon = ctx.GetDependentArray(elem.Canonical(), sizeExpr)
		}
	}

	return at
}

// FunctionInfo carries the extra properties of a function type.
type FunctionInfo struct {
	Variadic bool
	NoProto  bool
	Noexcept bool
	Throws   []Type
}

// GetFunction returns the function type with the given signature.  The
// exception specification is normalized to a deterministic order.
func (ctx *Context) GetFunction(ret Type, params []Type, info FunctionInfo) Type {
	throws := append([]Type(nil), info.Throws...)
	sort.Slice(throws, func(i, j int) bool { return id(throws[i]) < id(throws[j]) })

	key := fmt.Sprintf("F%d_%v%v%v", id(ret), info.Variadic, info.NoProto, info.Noexcept)
	for _, p := range params {
		key += fmt.Sprintf("_%d", id(p))
	}

	key += "|"
	for _, th := range throws {
		key += fmt.Sprintf("_%d", id(th))
	}

	t := ctx.intern(key, func() Type {
		dep := ret.Dependence()
		for _, p := range params {
			dep |= p.Dependence()
		}

		for _, th := range throws {
			dep |= th.Dependence() & DepInstantiation
		}

		return &FunctionType{
			Return:   ret,
			Params:   params,
			Variadic: info.Variadic,
			NoProto:  info.NoProto,
			Noexcept: info.Noexcept,
			Throws:   throws,
			typeBase: typeBase{dep: normalizeDep(dep)},
		}
	})

	ft := t.(*FunctionType)
	if ft.canon == nil {
		if IsCanonical(ret) && allCanonical(params) && allCanonical(throws) {
			ft.canon = ft
		} else {
			canonInfo := FunctionInfo{
				Variadic: info.Variadic,
				NoProto:  info.NoProto,
				Noexcept: info.Noexcept,
				Throws:   util.Map(throws, Type.Canonical),
			}

			ft.canon = ctx.GetFunction(ret.Canonical(), util.Map(params, Type.Canonical), canonInfo)
		}
	}

	return ft
}

func allCanonical(ts []Type) bool {
	for _, t := range ts {
		if !IsCanonical(t) {
			return false
		}
	}

	return true
}

// GetRecord returns the type of the given record declaration.  Record types
// are canonical and keyed by the canonical declaration.
func (ctx *Context) GetRecord(decl TagDecl) Type {
	canonDecl := decl.CanonicalTag()
	if rt, ok := ctx.recordTypes[canonDecl]; ok {
		return rt
	}

	rt := &RecordType{Decl: canonDecl}
	rt.canon = rt
	rt.tid = ctx.nextID
	ctx.nextID++

	ctx.recordTypes[canonDecl] = rt
	return rt
}

// GetEnum returns the type of the given enum declaration.
func (ctx *Context) GetEnum(decl TagDecl, under Type) Type {
	canonDecl := decl.CanonicalTag()
	if et, ok := ctx.enumTypes[canonDecl]; ok {
		return et
	}

	et := &EnumType{Decl: canonDecl, Under: under}
	et.canon = et
	et.tid = ctx.nextID
	ctx.nextID++

	ctx.enumTypes[canonDecl] = et
	return et
}

// GetMemberPointer returns the pointer-to-member type `pointee class::*`.
func (ctx *Context) GetMemberPointer(class, pointee Type) Type {
	t := ctx.intern(fmt.Sprintf("M%d_%d", id(class), id(pointee)), func() Type {
		dep := normalizeDep(class.Dependence() | pointee.Dependence())
		return &MemberPointerType{Class: class, Pointee: pointee, typeBase: typeBase{dep: dep}}
	})

	mpt := t.(*MemberPointerType)
	if mpt.canon == nil {
		if IsCanonical(class) && IsCanonical(pointee) {
			mpt.canon = mpt
		} else {
			mpt.canon = ctx.GetMemberPointer(class.Canonical(), pointee.Canonical())
		}
	}

	return mpt
}

// -----------------------------------------------------------------------------

// GetTemplateParam returns the type of a template type parameter.  Canonical
// identity is (depth, index, pack); the name is sugar and the first
// registration's name is retained.
func (ctx *Context) GetTemplateParam(depth, index int, name string, pack bool) Type {
	t := ctx.intern(fmt.Sprintf("TP%d_%d_%v", depth, index, pack), func() Type {
		dep := DepType | DepInstantiation
		if pack {
			dep |= DepUnexpandedPack
		}

		return &TemplateParamType{Depth: depth, Index: index, Name: name, Pack: pack, typeBase: typeBase{dep: dep}}
	})

	tpt := t.(*TemplateParamType)
	tpt.canon = tpt
	return tpt
}

// argKey renders a template argument into the structural key form.
func argKey(a TemplateArg) string {
	switch a.Kind {
	case ArgType:
		return fmt.Sprintf("t%d", id(a.Type))
	case ArgInt:
		return fmt.Sprintf("i%d:%d", id(a.Type), a.Int)
	case ArgTemplate:
		return fmt.Sprintf("m%p", a.Template.CanonicalTemplate())
	case ArgPack:
		key := "p("
		for _, elem := range a.Elems {
			key += argKey(elem) + ","
		}

		return key + ")"
	default:
		return fmt.Sprintf("e%p", a.Expr)
	}
}

// argsCanonical returns whether every argument is already in canonical form.
func argsCanonical(args []TemplateArg) bool {
	for _, a := range args {
		switch a.Kind {
		case ArgType:
			if !IsCanonical(a.Type) {
				return false
			}
		case ArgInt:
			if !IsCanonical(a.Type) {
				return false
			}
		case ArgTemplate:
			if a.Template.CanonicalTemplate() != a.Template {
				return false
			}
		case ArgPack:
			if !argsCanonical(a.Elems) {
				return false
			}
		}
	}

	return true
}

// canonArg returns the canonicalized form of a template argument.
func canonArg(a TemplateArg) TemplateArg {
	switch a.Kind {
	case ArgType:
		return TemplateArg{Kind: ArgType, Type: a.Type.Canonical()}
	case ArgInt:
		return TemplateArg{Kind: ArgInt, Type: a.Type.Canonical(), Int: a.Int}
	case ArgTemplate:
		return TemplateArg{Kind: ArgTemplate, Template: a.Template.CanonicalTemplate()}
	case ArgPack:
		return TemplateArg{Kind: ArgPack, Elems: util.Map(a.Elems, canonArg)}
	default:
		return a
	}
}

// GetTemplateSpec returns the template-specialization type `tmpl<args...>`.
// If underlying is non-nil the node is sugar over the resolved
// specialization's type; otherwise the node is a canonical dependent type.
func (ctx *Context) GetTemplateSpec(tmpl TemplateName, args []TemplateArg, underlying Type) Type {
	key := fmt.Sprintf("TS%p", tmpl.CanonicalTemplate())
	for _, a := range args {
		key += "_" + argKey(a)
	}

	if underlying != nil {
		key += fmt.Sprintf("|u%d", id(underlying))
	}

	t := ctx.intern(key, func() Type {
		var dep Dependence
		for _, a := range args {
			dep |= a.Dependence()
		}

		if underlying == nil {
			// An unresolved specialization behaves as a dependent type even
			// when its arguments happen to be concrete.
			dep |= DepType
		}

		return &TemplateSpecType{Template: tmpl, Args: args, Underlying: underlying, typeBase: typeBase{dep: normalizeDep(dep)}}
	})

	tst := t.(*TemplateSpecType)
	if tst.canon == nil {
		if underlying != nil {
			tst.canon = underlying.Canonical()
		} else if tmpl.CanonicalTemplate() == tmpl && argsCanonical(args) {
			tst.canon = tst
		} else {
			tst.canon = ctx.GetTemplateSpec(tmpl.CanonicalTemplate(), util.Map(args, canonArg), nil)
		}
	}

	return tst
}

// GetDependentName returns the dependent-name type `typename qualifier::name`.
func (ctx *Context) GetDependentName(qualifier Type, name string) Type {
	t := ctx.intern(fmt.Sprintf("DN%d_%s", id(qualifier), name), func() Type {
		dep := normalizeDep(qualifier.Dependence() | DepType)
		return &DependentNameType{Qualifier: qualifier, Name: name, typeBase: typeBase{dep: dep}}
	})

	dnt := t.(*DependentNameType)
	if dnt.canon == nil {
		if IsCanonical(qualifier) {
			dnt.canon = dnt
		} else {
			dnt.canon = ctx.GetDependentName(qualifier.Canonical(), name)
		}
	}

	return dnt
}

// GetPackExpansion returns the pack-expansion type `pattern...`.
func (ctx *Context) GetPackExpansion(pattern Type) Type {
	t := ctx.intern(fmt.Sprintf("PE%d", id(pattern)), func() Type {
		// The expansion consumes the pack: the node itself no longer contains
		// an unexpanded pack.
		dep := normalizeDep(pattern.Dependence() &^ DepUnexpandedPack)
		return &PackExpansionType{Pattern: pattern, typeBase: typeBase{dep: dep}}
	})

	pet := t.(*PackExpansionType)
	if pet.canon == nil {
		if IsCanonical(pattern) {
			pet.canon = pet
		} else {
			pet.canon = ctx.GetPackExpansion(pattern.Canonical())
		}
	}

	return pet
}

// GetAuto returns the undeduced `auto` placeholder.
func (ctx *Context) GetAuto() Type {
	t := ctx.intern("AUTO", func() Type {
		return &AutoType{typeBase: typeBase{dep: DepType | DepInstantiation}}
	})

	at := t.(*AutoType)
	at.canon = at
	return at
}

// GetDeducedAuto returns the `auto` node carrying its deduced type.  The node
// is sugar over the deduced type.
func (ctx *Context) GetDeducedAuto(deduced Type) Type {
	t := ctx.intern(fmt.Sprintf("AUTO%d", id(deduced)), func() Type {
		return &AutoType{Deduced: deduced, typeBase: typeBase{dep: deduced.Dependence()}}
	})

	at := t.(*AutoType)
	at.canon = deduced.Canonical()
	return at
}

// GetTypedef returns the sugar node for a use of a typedef name.
func (ctx *Context) GetTypedef(decl TypedefName, under Type) Type {
	t := ctx.intern(fmt.Sprintf("TY%p_%d", decl, id(under)), func() Type {
		return &TypedefType{Decl: decl, Under: under, typeBase: typeBase{dep: under.Dependence()}}
	})

	tt := t.(*TypedefType)
	tt.canon = under.Canonical()
	return tt
}

// GetElaborated returns the sugar node for an elaborated type keyword.
func (ctx *Context) GetElaborated(keyword string, named Type) Type {
	t := ctx.intern(fmt.Sprintf("EL%s_%d", keyword, id(named)), func() Type {
		return &ElaboratedType{Keyword: keyword, Named: named, typeBase: typeBase{dep: named.Dependence()}}
	})

	et := t.(*ElaboratedType)
	et.canon = named.Canonical()
	return et
}

// -----------------------------------------------------------------------------

// AddQualifiers returns the type with the given qualifiers added.  Qualifier
// layers merge so the result has exactly one qualifier wrapper.
func (ctx *Context) AddQualifiers(t Type, q Qualifiers) Type {
	if q == 0 {
		return t
	}

	inner := t
	if qt, ok := t.(*QualifiedType); ok {
		q |= qt.Quals
		inner = qt.Inner
	}

	qtRaw := ctx.intern(fmt.Sprintf("Q%x_%d", uint32(q), id(inner)), func() Type {
		return &QualifiedType{Quals: q, Inner: inner, typeBase: typeBase{dep: inner.Dependence()}}
	})

	qt := qtRaw.(*QualifiedType)
	if qt.canon == nil {
		if IsCanonical(inner) {
			qt.canon = qt
		} else {
			qt.canon = ctx.AddQualifiers(inner.Canonical(), q)
		}
	}

	return qt
}

// RemoveQualifiers returns the type with the given qualifiers removed from
// its outermost wrapper.
func (ctx *Context) RemoveQualifiers(t Type, q Qualifiers) Type {
	qt, ok := t.(*QualifiedType)
	if !ok {
		return t
	}

	remaining := qt.Quals &^ q
	if remaining == 0 {
		return qt.Inner
	}

	return ctx.AddQualifiers(qt.Inner, remaining)
}

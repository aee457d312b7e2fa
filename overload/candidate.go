package overload

import (
	"cfront/ast"
	"cfront/template"
	"cfront/types"
)

// FailureKind records why a candidate is not viable.
type FailureKind int

// Enumeration of the viability failure kinds.
const (
	FailNone FailureKind = iota
	FailArity
	FailBadConversion
	FailBadObjectConversion
	FailDeduction
	FailDeleted
)

// Candidate is one entry of an overload candidate set.
type Candidate struct {
	// The candidate function, nil for builtin operator candidates.
	Fn *ast.FunctionDecl

	// The primary template this candidate was deduced from, nil for
	// non-template candidates.
	Template *ast.FunctionTemplateDecl

	// The deduced template arguments for template candidates.
	DeducedArgs []types.TemplateArg

	// Builtin operator candidates carry their signature directly.
	Builtin       bool
	BuiltinParams []types.Type
	BuiltinResult types.Type

	// The conversion sequences, one per call argument.
	Conversions []ICS

	// The implicit object argument binding for non-static member functions.
	ObjectICS ICS
	HasObject bool

	Viable  bool
	Failure FailureKind

	// The index of the argument whose conversion failed, -1 otherwise.
	BadArg int
}

// ParamType returns the candidate's i-th parameter type, or nil past the end
// of the parameter list.
func (c *Candidate) ParamType(i int) types.Type {
	if c.Builtin {
		if i < len(c.BuiltinParams) {
			return c.BuiltinParams[i]
		}

		return nil
	}

	if i < len(c.Fn.Params) {
		return c.Fn.Params[i].Type
	}

	return nil
}

// CandidateSet accumulates candidates for one overload resolution.
type CandidateSet struct {
	Conv *Converter
	Inst *template.Instantiator

	Candidates []*Candidate
}

// NewCandidateSet creates an empty candidate set.
func NewCandidateSet(conv *Converter, inst *template.Instantiator) *CandidateSet {
	return &CandidateSet{Conv: conv, Inst: inst}
}

// AddFunction adds a non-template function candidate, computing its argument
// conversions and viability.  The object argument is the implicit object for
// member-function candidates, nil otherwise.
func (cs *CandidateSet) AddFunction(fd *ast.FunctionDecl, args []ast.Expr, object ast.Expr) *Candidate {
	c := &Candidate{Fn: fd, BadArg: -1}
	cs.Candidates = append(cs.Candidates, c)

	ft := fd.FuncType()
	if ft == nil {
		c.Failure = FailBadConversion
		return c
	}

	// Arity check.
	if len(args) < fd.MinRequiredArgs() || (len(args) > len(fd.Params) && !ft.Variadic && !hasPackParam(fd)) {
		c.Failure = FailArity
		return c
	}

	if fd.IsInstanceMember() {
		c.HasObject = true
		c.ObjectICS = cs.tryObjectBinding(fd, object)
		if !c.ObjectICS.Viable() {
			c.Failure = FailBadObjectConversion
			return c
		}
	}

	for i, arg := range args {
		var ics ICS
		if i < len(fd.Params) {
			ics = cs.Conv.TryImplicitConversion(arg, fd.Params[i].Type, true)
		} else {
			ics = EllipsisICS(arg)
		}

		c.Conversions = append(c.Conversions, ics)

		if !ics.Viable() {
			c.Failure = FailBadConversion
			c.BadArg = i
			return c
		}
	}

	if fd.Deleted {
		// Deleted functions participate in resolution; selecting one is the
		// error, so the candidate stays viable here.
		c.Failure = FailDeleted
	}

	c.Viable = true
	return c
}

// AddTemplate deduces template arguments for a function template against the
// call and, on success, adds the specialization as a candidate.
func (cs *CandidateSet) AddTemplate(ftd *ast.FunctionTemplateDecl, explicit []types.TemplateArg, args []ast.Expr, object ast.Expr) *Candidate {
	spec, deduced, err := cs.Inst.DeduceForCall(ftd, explicit, args)
	if err != nil {
		c := &Candidate{Template: ftd, Failure: FailDeduction, BadArg: -1}
		cs.Candidates = append(cs.Candidates, c)
		return c
	}

	c := cs.AddFunction(spec, args, object)
	c.Template = ftd
	c.DeducedArgs = deduced
	return c
}

// AddBuiltin adds a builtin operator candidate with the given signature.
func (cs *CandidateSet) AddBuiltin(params []types.Type, result types.Type, args []ast.Expr) *Candidate {
	c := &Candidate{Builtin: true, BuiltinParams: params, BuiltinResult: result, BadArg: -1}
	cs.Candidates = append(cs.Candidates, c)

	if len(args) != len(params) {
		c.Failure = FailArity
		return c
	}

	for i, arg := range args {
		ics := cs.Conv.TryImplicitConversion(arg, params[i], false)
		c.Conversions = append(c.Conversions, ics)

		if !ics.Viable() {
			c.Failure = FailBadConversion
			c.BadArg = i
			return c
		}
	}

	c.Viable = true
	return c
}

// tryObjectBinding binds the implicit object argument to a member function's
// object parameter: the object's cv-qualification must be a subset of the
// method's, and a member found in a base class accepts a derived object.
func (cs *CandidateSet) tryObjectBinding(fd *ast.FunctionDecl, object ast.Expr) ICS {
	owner, ok := fd.Parent().Owner().(*ast.RecordDecl)
	if !ok {
		return ICS{}
	}

	if object == nil {
		// Unqualified member call inside another member: treated as exact.
		return ICS{Kind: ICSStandard, Std: StandardSeq{Rank: RankExactMatch}}
	}

	oq, objTy := types.QualsOf(object.Type().Canonical())
	orec := types.AsRecord(objTy)
	if orec == nil {
		return ICS{}
	}

	if !fd.MethodQuals.Superset(oq) {
		return ICS{}
	}

	seq := StandardSeq{From: object.Type(), RefBinding: true, DirectBinding: true, Rank: RankExactMatch}

	ord, ok := orec.Decl.CanonicalTag().(*ast.RecordDecl)
	if !ok {
		return ICS{}
	}

	if ord.CanonicalRecord() != owner.CanonicalRecord() {
		path := types.DerivedToBasePath(orec.Decl, owner)
		if path <= 0 {
			return ICS{}
		}

		seq.DerivedToBase = path
		seq.Rank = RankConversion
	}

	return ICS{Kind: ICSStandard, Std: seq}
}

func hasPackParam(fd *ast.FunctionDecl) bool {
	for _, p := range fd.Params {
		if _, ok := p.Type.Canonical().(*types.PackExpansionType); ok {
			return true
		}
	}

	return false
}

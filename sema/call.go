package sema

import (
	"cfront/ast"
	"cfront/lookup"
	"cfront/overload"
	"cfront/report"
	"cfront/types"
	"cfront/util"
)

// ActOnCall analyzes a call expression.  Overloaded callees go through
// overload resolution; calls through function pointers and single
// non-overloaded functions are checked directly.
func (s *Sema) ActOnCall(callee ast.Expr, args []ast.Expr, span report.SourceRange) ast.Expr {
	if callee.Invalid() || ast.AnyInvalid(args...) {
		return s.errorExpr(span, append([]ast.Expr{callee}, args...)...)
	}

	// Dependent calls resolve at instantiation.
	if ast.AnyDependent(args...) || isDependentCallee(callee) {
		return ast.NewCallExpr(callee, nil, args, s.Types.DependentType(), ast.PRValue, span)
	}

	switch cal := ast.IgnoreParens(callee).(type) {
	case *ast.UnresolvedLookupExpr:
		return s.resolveOverloadedCall(cal, callee, args, span)

	case *ast.UnresolvedMemberExpr:
		return s.resolveMemberCall(cal, args, span)

	case *ast.DeclRefExpr:
		if fd, ok := cal.Decl.(*ast.FunctionDecl); ok {
			return s.buildDirectCall(fd, callee, args, span)
		}

	case *ast.MemberExpr:
		if fd, ok := cal.Member.(*ast.FunctionDecl); ok {
			return s.buildDirectCall(fd, callee, args, span)
		}
	}

	return s.buildIndirectCall(callee, args, span)
}

// isDependentCallee returns whether the callee defers resolution to template
// instantiation.
func isDependentCallee(callee ast.Expr) bool {
	switch ast.IgnoreParens(callee).(type) {
	case *ast.DependentNameExpr:
		return true
	}

	return callee.Dependence().IsDependent()
}

// resolveOverloadedCall resolves a call through an unresolved overload set,
// adding argument-dependent candidates for unqualified names.
func (s *Sema) resolveOverloadedCall(ule *ast.UnresolvedLookupExpr, callee ast.Expr, args []ast.Expr, span report.SourceRange) ast.Expr {
	cs := overload.NewCandidateSet(s.Conv, s.Inst)

	seen := make(map[ast.Decl]bool)
	addCandidate := func(d ast.Decl) {
		d = ast.ResolveShadow(d)
		if seen[d.Canonical()] {
			return
		}
		seen[d.Canonical()] = true

		switch fd := d.(type) {
		case *ast.FunctionDecl:
			cs.AddFunction(fd, args, nil)
		case *ast.FunctionTemplateDecl:
			cs.AddTemplate(fd, nil, args, nil)
		}
	}

	for _, d := range ule.Decls {
		addCandidate(d)
	}

	if ule.WantsADL {
		argTypes := util.Map(args, func(a ast.Expr) types.Type { return a.Type() })
		for _, d := range lookup.ArgumentDependent(ule.Name, argTypes) {
			addCandidate(d)
		}
	}

	res := cs.BestViable()
	switch res.Outcome {
	case overload.OutcomeNoViable:
		d := s.Reporter.Error(span.Begin, "err-no-viable-call",
			"no matching function for call to %s", ule.Name.String())
		s.noteNonViable(d, cs.Candidates)
		return s.errorExpr(span, args...)

	case overload.OutcomeAmbiguous:
		d := s.Reporter.Error(span.Begin, "err-ambiguous-call",
			"call to %s is ambiguous", ule.Name.String())
		s.noteCandidates(d, res.Ambiguous)
		return s.errorExpr(span, args...)

	case overload.OutcomeDeleted:
		s.Reporter.Error(span.Begin, "err-deleted-call",
			"call to deleted function %s", ule.Name.String()).
			WithNote(report.Note(res.Best.Fn.Loc(), "note-deleted-here", "declared deleted here"))
		return s.errorExpr(span, args...)
	}

	return s.buildResolvedCall(res.Best, args, span, nil)
}

// noteNonViable explains, per candidate, why it was rejected.
func (s *Sema) noteNonViable(d *report.Diagnostic, cands []*overload.Candidate) {
	for _, c := range cands {
		loc := report.SourceLoc(0)
		switch {
		case c.Fn != nil:
			loc = c.Fn.Loc()
		case c.Template != nil:
			loc = c.Template.Loc()
		}

		switch c.Failure {
		case overload.FailArity:
			d.WithNote(report.Note(loc, "note-cand-arity", "candidate not viable: wrong number of arguments"))
		case overload.FailBadConversion:
			d.WithNote(report.Note(loc, "note-cand-conv",
				"candidate not viable: no conversion for argument %d", c.BadArg+1))
		case overload.FailBadObjectConversion:
			d.WithNote(report.Note(loc, "note-cand-object",
				"candidate not viable: object argument does not bind"))
		case overload.FailDeduction:
			d.WithNote(report.Note(loc, "note-cand-deduction",
				"candidate template ignored: template argument deduction failed"))
		}
	}
}

// buildDirectCall checks a call to a single known function.
func (s *Sema) buildDirectCall(fd *ast.FunctionDecl, callee ast.Expr, args []ast.Expr, span report.SourceRange) ast.Expr {
	ft := fd.FuncType()
	if ft == nil {
		return s.errorExpr(span, args...)
	}

	if len(args) < fd.MinRequiredArgs() || (len(args) > len(fd.Params) && !ft.Variadic) {
		s.Reporter.Error(span.Begin, "err-call-arity",
			"function %s expects %d argument(s), got %d", fd.DeclName().String(), len(fd.Params), len(args)).
			WithNote(report.Note(fd.Loc(), "note-declared-here", "declared here"))
		return s.errorExpr(span, args...)
	}

	if fd.Deleted {
		s.Reporter.Error(span.Begin, "err-deleted-call",
			"call to deleted function %s", fd.DeclName().String()).
			WithNote(report.Note(fd.Loc(), "note-deleted-here", "declared deleted here"))
		return s.errorExpr(span, args...)
	}

	converted := make([]ast.Expr, 0, len(fd.Params))
	for i, a := range args {
		if i < len(fd.Params) {
			conv, ok := s.PerformImplicitConversion(a, fd.Params[i].Type, "function call argument")
			if !ok {
				return s.errorExpr(span, args...)
			}

			converted = append(converted, conv)
		} else {
			// Arguments matched against `...` undergo the default argument
			// promotions.
			converted = append(converted, s.promoted(a))
		}
	}

	for i := len(converted); i < len(fd.Params); i++ {
		if fd.Params[i].Default != nil {
			converted = append(converted, fd.Params[i].Default)
		}
	}

	if fd.InstantiatedFrom != nil {
		s.Inst.RequireFunctionBody(fd)
	}

	retTy, vc := callResultOf(fd)
	return ast.NewCallExpr(callee, fd, converted, retTy, vc, span)
}

// buildIndirectCall checks a call through a function pointer or an object of
// class type with operator().
func (s *Sema) buildIndirectCall(callee ast.Expr, args []ast.Expr, span report.SourceRange) ast.Expr {
	if rec := types.AsRecord(types.Unqualified(callee.Type().Canonical())); rec != nil {
		return s.resolveCallOperator(callee, rec, args, span)
	}

	fnExpr := s.rvalue(callee)
	ft := types.AsFunction(fnExpr.Type().Canonical())
	if pt := types.AsPointer(fnExpr.Type().Canonical()); pt != nil {
		ft = types.AsFunction(pt.Pointee.Canonical())
	}

	if ft == nil {
		s.Reporter.Error(span.Begin, "err-not-callable",
			"called object of type %s is not a function or function pointer", callee.Type().Repr()).
			WithRange(callee.Range())
		return s.errorExpr(span, args...)
	}

	if len(args) != len(ft.Params) && !(ft.Variadic && len(args) > len(ft.Params)) && !ft.NoProto {
		s.Reporter.Error(span.Begin, "err-call-arity",
			"function type %s expects %d argument(s), got %d", ft.Repr(), len(ft.Params), len(args))
		return s.errorExpr(span, args...)
	}

	converted := make([]ast.Expr, 0, len(args))
	for i, a := range args {
		if i < len(ft.Params) {
			conv, ok := s.PerformImplicitConversion(a, ft.Params[i], "function call argument")
			if !ok {
				return s.errorExpr(span, args...)
			}

			converted = append(converted, conv)
		} else {
			converted = append(converted, s.promoted(a))
		}
	}

	ret := ft.Return
	vc := ast.PRValue
	if ref := types.AsReference(ret.Canonical()); ref != nil {
		ret = ref.Pointee
		if ref.RValue {
			vc = ast.XValue
		} else {
			vc = ast.LValue
		}
	}

	return ast.NewCallExpr(fnExpr, nil, converted, ret, vc, span)
}

// resolveCallOperator resolves `obj(args...)` against the class's operator().
func (s *Sema) resolveCallOperator(object ast.Expr, rec *types.RecordType, args []ast.Expr, span report.SourceRange) ast.Expr {
	rd, ok := rec.Decl.CanonicalTag().(*ast.RecordDecl)
	if !ok || !rd.DefinitionComplete() {
		s.Reporter.Error(span.Begin, "err-not-callable",
			"called object of incomplete type %s", object.Type().Repr())
		return s.errorExpr(span, args...)
	}

	callName := ast.OperatorName(ast.OpCall)
	mem := lookup.Member(rd.Definition(), callName, lookup.Ordinary)
	if mem.Empty() {
		s.Reporter.Error(span.Begin, "err-not-callable",
			"type %s does not provide a call operator", object.Type().Repr())
		return s.errorExpr(span, args...)
	}

	cs := overload.NewCandidateSet(s.Conv, s.Inst)
	for _, d := range mem.Decls {
		switch fd := ast.ResolveShadow(d).(type) {
		case *ast.FunctionDecl:
			cs.AddFunction(fd, args, object)
		case *ast.FunctionTemplateDecl:
			cs.AddTemplate(fd, nil, args, object)
		}
	}

	res := cs.BestViable()
	switch res.Outcome {
	case overload.OutcomeNoViable:
		d := s.Reporter.Error(span.Begin, "err-no-viable-call",
			"no matching call operator for object of type %s", object.Type().Repr())
		s.noteNonViable(d, cs.Candidates)
		return s.errorExpr(span, args...)

	case overload.OutcomeAmbiguous:
		d := s.Reporter.Error(span.Begin, "err-ambiguous-call", "call is ambiguous")
		s.noteCandidates(d, res.Ambiguous)
		return s.errorExpr(span, args...)

	case overload.OutcomeDeleted:
		s.Reporter.Error(span.Begin, "err-deleted-call", "call to deleted call operator").
			WithNote(report.Note(res.Best.Fn.Loc(), "note-deleted-here", "declared deleted here"))
		return s.errorExpr(span, args...)
	}

	fn := res.Best.Fn
	converted := make([]ast.Expr, len(args))
	for i, a := range args {
		if i < len(fn.Params) && i < len(res.Best.Conversions) {
			converted[i] = s.applyICS(a, res.Best.Conversions[i], fn.Params[i].Type)
		} else {
			converted[i] = s.promoted(a)
		}
	}

	if fn.InstantiatedFrom != nil {
		s.Inst.RequireFunctionBody(fn)
	}

	retTy, vc := callResultOf(fn)
	callee := ast.NewMemberExpr(object, false, fn, fn.Type, ast.PRValue, span)
	return ast.NewCallExpr(callee, fn, converted, retTy, vc, span)
}

// ActOnSubscript analyzes `base[index]`, considering operator[] for class
// operands.
func (s *Sema) ActOnSubscript(base, index ast.Expr, span report.SourceRange) ast.Expr {
	if base.Invalid() || index.Invalid() {
		return s.errorExpr(span, base, index)
	}

	if ast.AnyDependent(base, index) {
		return ast.NewSubscriptExpr(base, index, s.Types.DependentType(), ast.LValue, span)
	}

	if rec := types.AsRecord(types.Unqualified(base.Type().Canonical())); rec != nil {
		return s.resolveSubscriptOperator(base, rec, index, span)
	}

	b := s.decay(base)
	i := s.rvalue(index)

	pt := types.AsPointer(b.Type().Canonical())
	if pt == nil || !types.IsIntegral(i.Type()) {
		s.Reporter.Error(span.Begin, "err-bad-subscript",
			"cannot subscript value of type %s with index of type %s", base.Type().Repr(), index.Type().Repr())
		return s.errorExpr(span, base, index)
	}

	return ast.NewSubscriptExpr(b, i, pt.Pointee, ast.LValue, span)
}

func (s *Sema) resolveSubscriptOperator(base ast.Expr, rec *types.RecordType, index ast.Expr, span report.SourceRange) ast.Expr {
	rd, ok := rec.Decl.CanonicalTag().(*ast.RecordDecl)
	if !ok || !rd.DefinitionComplete() {
		s.Reporter.Error(span.Begin, "err-bad-subscript",
			"cannot subscript value of incomplete type %s", base.Type().Repr())
		return s.errorExpr(span, base, index)
	}

	subName := ast.OperatorName(ast.OpSubscript)
	mem := lookup.Member(rd.Definition(), subName, lookup.Ordinary)
	if mem.Empty() {
		s.Reporter.Error(span.Begin, "err-bad-subscript",
			"type %s does not provide a subscript operator", base.Type().Repr())
		return s.errorExpr(span, base, index)
	}

	args := []ast.Expr{index}
	cs := overload.NewCandidateSet(s.Conv, s.Inst)
	for _, d := range mem.Decls {
		if fd, ok := ast.ResolveShadow(d).(*ast.FunctionDecl); ok {
			cs.AddFunction(fd, args, base)
		}
	}

	res := cs.BestViable()
	if res.Outcome != overload.OutcomeSuccess {
		s.Reporter.Error(span.Begin, "err-bad-subscript",
			"no viable subscript operator for type %s", base.Type().Repr())
		return s.errorExpr(span, base, index)
	}

	fn := res.Best.Fn
	conv := s.applyICS(index, res.Best.Conversions[0], fn.Params[0].Type)

	retTy, vc := callResultOf(fn)
	callee := ast.NewMemberExpr(base, false, fn, fn.Type, ast.PRValue, span)
	return ast.NewCallExpr(callee, fn, []ast.Expr{conv}, retTy, vc, span)
}

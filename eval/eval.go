package eval

import (
	"fmt"
	"math/big"

	"cfront/ast"
	"cfront/common"
	"cfront/report"
	"cfront/types"
	"cfront/util"
)

// Failure describes why an expression is not a constant.  The trail records
// the active constexpr calls, outermost first, so the diagnostic can show
// how evaluation arrived at the failing operation.
type Failure struct {
	Loc   report.SourceLoc
	Msg   string
	Trail []string
}

func (f *Failure) Error() string { return f.Msg }

// Evaluator is the compile-time expression interpreter.  One evaluator is
// created per evaluation so budgets start fresh.
type Evaluator struct {
	Types *types.Context
	Opts  *common.LangOpts

	steps  int
	frames []*frame
}

// frame is one constexpr call activation.
type frame struct {
	fn       *ast.FunctionDecl
	locals   map[ast.Decl]*Value
	returned bool
	ret      Value
	desc     string

	// Loop and switch control in flight: a break or continue unwinds
	// statement execution until the enclosing construct consumes it.
	broke     bool
	continued bool
}

// NewEvaluator creates an evaluator with the budgets from the given options.
func NewEvaluator(tctx *types.Context, opts *common.LangOpts) *Evaluator {
	return &Evaluator{Types: tctx, Opts: opts}
}

// Evaluate evaluates an expression as a constant.  Whether a failure is
// diagnosed or merely means "not a constant" is the caller's decision.
func (ev *Evaluator) Evaluate(e ast.Expr) (Value, *Failure) {
	return ev.evalExpr(e)
}

// EvaluateAsInt evaluates an expression that must be an integral constant.
func (ev *Evaluator) EvaluateAsInt(e ast.Expr) (int64, *Failure) {
	v, fail := ev.evalExpr(e)
	if fail != nil {
		return 0, fail
	}

	if v.Kind != ValInt {
		return 0, ev.fail(e.Loc(), "expression is not an integral constant")
	}

	return v.AsInt64(), nil
}

// fail builds a failure carrying the current call trail.
func (ev *Evaluator) fail(loc report.SourceLoc, msg string, args ...interface{}) *Failure {
	trail := make([]string, len(ev.frames))
	for i, fr := range ev.frames {
		trail[i] = fr.desc
	}

	return &Failure{Loc: loc, Msg: fmt.Sprintf(msg, args...), Trail: trail}
}

// step charges one unit against the step budget.
func (ev *Evaluator) step(loc report.SourceLoc) *Failure {
	ev.steps++
	if ev.steps > ev.Opts.ConstexprSteps {
		return ev.fail(loc, "constexpr evaluation exceeded step limit of %d", ev.Opts.ConstexprSteps)
	}

	return nil
}

func (ev *Evaluator) current() *frame {
	if len(ev.frames) == 0 {
		return nil
	}

	return ev.frames[len(ev.frames)-1]
}

// -----------------------------------------------------------------------------

func (ev *Evaluator) evalExpr(e ast.Expr) (Value, *Failure) {
	if fail := ev.step(e.Loc()); fail != nil {
		return Value{}, fail
	}

	if e.Invalid() {
		return Value{}, ev.fail(e.Loc(), "invalid subexpression")
	}

	switch x := e.(type) {
	case *ast.IntegerLiteral:
		return IntValue(x.Value, x.Type()), nil

	case *ast.FloatingLiteral:
		return FloatValue(x.Value, x.Type()), nil

	case *ast.BoolLiteral:
		return BoolValue(x.Value, x.Type()), nil

	case *ast.NullPtrLiteral:
		return NullPtrValue(x.Type()), nil

	case *ast.ParenExpr:
		return ev.evalExpr(x.Inner)

	case *ast.DeclRefExpr:
		return ev.evalDeclRef(x)

	case *ast.ImplicitCastExpr:
		return ev.evalCast(x.CK, x.Operand, x.Type())

	case *ast.ExplicitCastExpr:
		return ev.evalCast(x.CK, x.Operand, x.Type())

	case *ast.UnaryExpr:
		return ev.evalUnary(x)

	case *ast.BinaryExpr:
		return ev.evalBinary(x)

	case *ast.ConditionalExpr:
		cond, fail := ev.evalExpr(x.Cond)
		if fail != nil {
			return Value{}, fail
		}

		if cond.Truthy() {
			return ev.evalExpr(x.Then)
		}

		return ev.evalExpr(x.Else)

	case *ast.SizeofExpr:
		return IntValue(x.Result, x.Type()), nil

	case *ast.SubscriptExpr:
		return ev.evalSubscript(x)

	case *ast.MemberExpr:
		return ev.evalMember(x)

	case *ast.CallExpr:
		return ev.evalCall(x)

	case *ast.InitListExpr:
		var elems []Value
		for _, init := range x.Inits {
			v, fail := ev.evalExpr(init)
			if fail != nil {
				return Value{}, fail
			}

			elems = append(elems, v)
		}

		return Value{Kind: ValAggregate, Ty: x.Type(), Elems: elems}, nil

	default:
		return Value{}, ev.fail(e.Loc(), "expression is not a constant expression")
	}
}

func (ev *Evaluator) evalDeclRef(x *ast.DeclRefExpr) (Value, *Failure) {
	switch d := ast.ResolveShadow(x.Decl).(type) {
	case *ast.EnumConstantDecl:
		return IntValue(d.Value, d.Type), nil

	case *ast.ParamDecl:
		if fr := ev.current(); fr != nil {
			if v, ok := fr.locals[d.Canonical()]; ok {
				return *v, nil
			}
		}

		return Value{}, ev.fail(x.Loc(), "read of parameter %s outside its function", d.DeclName().String())

	case *ast.VarDecl:
		if fr := ev.current(); fr != nil {
			if v, ok := fr.locals[d.Canonical()]; ok {
				return *v, nil
			}
		}

		if v, ok := d.ConstVal.(*Value); ok {
			return *v, nil
		}

		// A const integral variable with a constant initializer is usable.
		if d.Init != nil && ev.constReadable(d) {
			return ev.evalExpr(d.Init)
		}

		return Value{}, ev.fail(x.Loc(), "read of non-constexpr variable %s", d.DeclName().String())

	default:
		return Value{}, ev.fail(x.Loc(), "reference to %s is not a constant expression", d.DeclName().String())
	}
}

// constReadable returns whether a variable's value may be read in a constant
// expression: constexpr, or const-qualified of integral or enum type.
func (ev *Evaluator) constReadable(vd *ast.VarDecl) bool {
	if vd.Constexpr {
		return true
	}

	q, inner := types.QualsOf(vd.Type.Canonical())
	return q.HasConst() && (types.IsIntegral(inner) || types.AsEnum(inner) != nil)
}

// -----------------------------------------------------------------------------

func (ev *Evaluator) evalCast(ck ast.CastKind, operand ast.Expr, to types.Type) (Value, *Failure) {
	if ck == ast.CastArrayToPointer {
		// Decay designates the array object itself rather than reading it.
		if dre, ok := ast.IgnoreParens(operand).(*ast.DeclRefExpr); ok {
			return PointerValue(dre.Decl, 0, to), nil
		}

		return Value{}, ev.fail(operand.Loc(), "array decay of a non-object in a constant expression")
	}

	v, fail := ev.evalExpr(operand)
	if fail != nil {
		return Value{}, fail
	}

	switch ck {
	case ast.CastNoOp, ast.CastLValueToRValue, ast.CastQualification:
		v.Ty = to
		return v, nil

	case ast.CastIntegralCast, ast.CastIntegralPromotion:
		if v.Kind != ValInt {
			return Value{}, ev.fail(operand.Loc(), "integral cast of non-integer")
		}

		return BigValue(truncate(ev.Types, v.Int, to), to), nil

	case ast.CastToBoolean:
		return BoolValue(v.Truthy(), to), nil

	case ast.CastIntegralToFloating:
		if v.Kind != ValInt {
			return Value{}, ev.fail(operand.Loc(), "cast of non-integer to floating type")
		}

		f, _ := new(big.Float).SetInt(v.Int).Float64()
		return FloatValue(f, to), nil

	case ast.CastFloatingToIntegral:
		if v.Kind != ValFloat {
			return Value{}, ev.fail(operand.Loc(), "cast of non-float to integral type")
		}

		i, _ := big.NewFloat(v.Float).Int(nil)
		if !fitsIn(ev.Types, i, to) {
			return Value{}, ev.fail(operand.Loc(), "floating value %g is outside the range of %s", v.Float, to.Repr())
		}

		return BigValue(i, to), nil

	case ast.CastFloatingCast, ast.CastFloatingPromotion:
		if v.Kind != ValFloat {
			return Value{}, ev.fail(operand.Loc(), "floating cast of non-float")
		}

		return FloatValue(v.Float, to), nil

	case ast.CastNullToPointer, ast.CastNullToMemberPointer:
		return NullPtrValue(to), nil

	case ast.CastDerivedToBase:
		v.Ty = to
		return v, nil

	default:
		return Value{}, ev.fail(operand.Loc(), "cast is not permitted in a constant expression")
	}
}

func (ev *Evaluator) evalUnary(x *ast.UnaryExpr) (Value, *Failure) {
	switch x.Op {
	case ast.UnAddrOf:
		if dre, ok := ast.IgnoreParens(x.Operand).(*ast.DeclRefExpr); ok {
			return PointerValue(dre.Decl, 0, x.Type()), nil
		}

		return Value{}, ev.fail(x.Loc(), "cannot take this address in a constant expression")

	case ast.UnDeref:
		p, fail := ev.evalExpr(x.Operand)
		if fail != nil {
			return Value{}, fail
		}

		return ev.loadThroughPointer(x.Loc(), p)

	case ast.UnPreInc, ast.UnPreDec, ast.UnPostInc, ast.UnPostDec:
		return ev.evalIncDec(x)
	}

	v, fail := ev.evalExpr(x.Operand)
	if fail != nil {
		return Value{}, fail
	}

	switch x.Op {
	case ast.UnPlus:
		return v, nil

	case ast.UnMinus:
		if v.Kind == ValFloat {
			return FloatValue(-v.Float, x.Type()), nil
		}

		if v.Kind != ValInt {
			return Value{}, ev.fail(x.Loc(), "cannot negate this value")
		}

		return BigValue(truncate(ev.Types, new(big.Int).Neg(v.Int), x.Type()), x.Type()), nil

	case ast.UnNot:
		if v.Kind != ValInt {
			return Value{}, ev.fail(x.Loc(), "bitwise complement of non-integer")
		}

		return BigValue(truncate(ev.Types, new(big.Int).Not(v.Int), x.Type()), x.Type()), nil

	case ast.UnLNot:
		return BoolValue(!v.Truthy(), x.Type()), nil

	default:
		return Value{}, ev.fail(x.Loc(), "operator is not permitted in a constant expression")
	}
}

func (ev *Evaluator) evalIncDec(x *ast.UnaryExpr) (Value, *Failure) {
	slot, fail := ev.resolveLValue(x.Operand)
	if fail != nil {
		return Value{}, fail
	}

	if slot.Kind != ValInt {
		return Value{}, ev.fail(x.Loc(), "increment of non-integer in constant expression")
	}

	old := *slot
	delta := big.NewInt(1)
	if x.Op == ast.UnPreDec || x.Op == ast.UnPostDec {
		delta = big.NewInt(-1)
	}

	slot.Int = truncate(ev.Types, new(big.Int).Add(slot.Int, delta), slot.Ty)

	if x.Op == ast.UnPostInc || x.Op == ast.UnPostDec {
		return old, nil
	}

	return *slot, nil
}

func (ev *Evaluator) evalBinary(x *ast.BinaryExpr) (Value, *Failure) {
	switch x.Op {
	case ast.BinLAnd:
		l, fail := ev.evalExpr(x.LHS)
		if fail != nil {
			return Value{}, fail
		}

		if !l.Truthy() {
			return BoolValue(false, x.Type()), nil
		}

		r, fail := ev.evalExpr(x.RHS)
		if fail != nil {
			return Value{}, fail
		}

		return BoolValue(r.Truthy(), x.Type()), nil

	case ast.BinLOr:
		l, fail := ev.evalExpr(x.LHS)
		if fail != nil {
			return Value{}, fail
		}

		if l.Truthy() {
			return BoolValue(true, x.Type()), nil
		}

		r, fail := ev.evalExpr(x.RHS)
		if fail != nil {
			return Value{}, fail
		}

		return BoolValue(r.Truthy(), x.Type()), nil

	case ast.BinComma:
		if _, fail := ev.evalExpr(x.LHS); fail != nil {
			return Value{}, fail
		}

		return ev.evalExpr(x.RHS)

	case ast.BinAssign:
		slot, fail := ev.resolveLValue(x.LHS)
		if fail != nil {
			return Value{}, fail
		}

		v, fail := ev.evalExpr(x.RHS)
		if fail != nil {
			return Value{}, fail
		}

		*slot = v
		return v, nil
	}

	l, fail := ev.evalExpr(x.LHS)
	if fail != nil {
		return Value{}, fail
	}

	r, fail := ev.evalExpr(x.RHS)
	if fail != nil {
		return Value{}, fail
	}

	if l.Kind == ValFloat || r.Kind == ValFloat {
		return ev.evalFloatBinary(x, l, r)
	}

	if l.Kind != ValInt || r.Kind != ValInt {
		return ev.evalPointerBinary(x, l, r)
	}

	return ev.evalIntBinary(x, l, r)
}

func (ev *Evaluator) evalIntBinary(x *ast.BinaryExpr, l, r Value) (Value, *Failure) {
	out := new(big.Int)

	switch x.Op {
	case ast.BinAdd:
		out.Add(l.Int, r.Int)
	case ast.BinSub:
		out.Sub(l.Int, r.Int)
	case ast.BinMul:
		out.Mul(l.Int, r.Int)

	case ast.BinDiv, ast.BinRem:
		if r.Int.Sign() == 0 {
			return Value{}, ev.fail(x.Loc(), "division by zero")
		}

		if x.Op == ast.BinDiv {
			out.Quo(l.Int, r.Int)
		} else {
			out.Rem(l.Int, r.Int)
		}

	case ast.BinAnd:
		out.And(l.Int, r.Int)
	case ast.BinOr:
		out.Or(l.Int, r.Int)
	case ast.BinXor:
		out.Xor(l.Int, r.Int)

	case ast.BinShl, ast.BinShr:
		if r.Int.Sign() < 0 || !r.Int.IsInt64() {
			return Value{}, ev.fail(x.Loc(), "shift count is negative or too large")
		}

		width := ev.widthOf(l.Ty)
		count := r.Int.Int64()
		if width > 0 && count >= int64(width) {
			return Value{}, ev.fail(x.Loc(), "shift count %d exceeds width of type %s", count, l.Ty.Repr())
		}

		if x.Op == ast.BinShl {
			out.Lsh(l.Int, uint(count))
		} else {
			out.Rsh(l.Int, uint(count))
		}

	case ast.BinLT, ast.BinGT, ast.BinLE, ast.BinGE, ast.BinEQ, ast.BinNE:
		return BoolValue(compareSatisfied(x.Op, l.Int.Cmp(r.Int)), x.Type()), nil

	default:
		return Value{}, ev.fail(x.Loc(), "operator is not permitted in a constant expression")
	}

	return BigValue(truncate(ev.Types, out, x.Type()), x.Type()), nil
}

func (ev *Evaluator) evalFloatBinary(x *ast.BinaryExpr, l, r Value) (Value, *Failure) {
	if l.Kind != ValFloat || r.Kind != ValFloat {
		return Value{}, ev.fail(x.Loc(), "mixed float and non-float operands")
	}

	switch x.Op {
	case ast.BinAdd:
		return FloatValue(l.Float+r.Float, x.Type()), nil
	case ast.BinSub:
		return FloatValue(l.Float-r.Float, x.Type()), nil
	case ast.BinMul:
		return FloatValue(l.Float*r.Float, x.Type()), nil
	case ast.BinDiv:
		if r.Float == 0 {
			return Value{}, ev.fail(x.Loc(), "division by zero")
		}

		return FloatValue(l.Float/r.Float, x.Type()), nil

	case ast.BinLT:
		return BoolValue(l.Float < r.Float, x.Type()), nil
	case ast.BinGT:
		return BoolValue(l.Float > r.Float, x.Type()), nil
	case ast.BinLE:
		return BoolValue(l.Float <= r.Float, x.Type()), nil
	case ast.BinGE:
		return BoolValue(l.Float >= r.Float, x.Type()), nil
	case ast.BinEQ:
		return BoolValue(l.Float == r.Float, x.Type()), nil
	case ast.BinNE:
		return BoolValue(l.Float != r.Float, x.Type()), nil

	default:
		return Value{}, ev.fail(x.Loc(), "operator is not permitted on floating operands here")
	}
}

func (ev *Evaluator) evalPointerBinary(x *ast.BinaryExpr, l, r Value) (Value, *Failure) {
	// A pointer plus or minus an integer moves within the designated array.
	if l.Kind == ValPointer && r.Kind == ValInt && (x.Op == ast.BinAdd || x.Op == ast.BinSub) {
		delta := r.AsInt64()
		if x.Op == ast.BinSub {
			delta = -delta
		}

		return ev.pointerAdd(x.Loc(), l, delta, x.Type())
	}

	if l.Kind == ValInt && r.Kind == ValPointer && x.Op == ast.BinAdd {
		return ev.pointerAdd(x.Loc(), r, l.AsInt64(), x.Type())
	}

	lp := l.Kind == ValPointer || l.Kind == ValNullPtr
	rp := r.Kind == ValPointer || r.Kind == ValNullPtr

	if !lp || !rp {
		return Value{}, ev.fail(x.Loc(), "operation is not permitted in a constant expression")
	}

	switch x.Op {
	case ast.BinSub:
		if l.Kind != ValPointer || r.Kind != ValPointer || l.Base != r.Base {
			return Value{}, ev.fail(x.Loc(), "subtraction of pointers into different objects")
		}

		_, _, size, fail := ev.arrayExtent(x.Loc(), l.Base)
		if fail != nil {
			return Value{}, fail
		}

		return IntValue((l.Offset-r.Offset)/size, x.Type()), nil

	case ast.BinEQ, ast.BinNE:
		var eq bool
		switch {
		case l.Kind == ValNullPtr && r.Kind == ValNullPtr:
			eq = true
		case l.Kind == ValNullPtr || r.Kind == ValNullPtr:
			eq = false
		default:
			eq = l.Base == r.Base && l.Offset == r.Offset
		}

		return BoolValue(eq == (x.Op == ast.BinEQ), x.Type()), nil

	case ast.BinLT, ast.BinGT, ast.BinLE, ast.BinGE:
		if l.Kind != ValPointer || r.Kind != ValPointer || l.Base != r.Base {
			return Value{}, ev.fail(x.Loc(), "ordering of pointers into different objects")
		}

		cmp := 0
		switch {
		case l.Offset < r.Offset:
			cmp = -1
		case l.Offset > r.Offset:
			cmp = 1
		}

		return BoolValue(compareSatisfied(x.Op, cmp), x.Type()), nil

	default:
		return Value{}, ev.fail(x.Loc(), "operation is not permitted in a constant expression")
	}
}

// -----------------------------------------------------------------------------

// evalSubscript reads an element of a constant array, either directly from
// the aggregate or through a pointer into it.
func (ev *Evaluator) evalSubscript(x *ast.SubscriptExpr) (Value, *Failure) {
	idx, fail := ev.evalExpr(x.Index)
	if fail != nil {
		return Value{}, fail
	}

	if idx.Kind != ValInt {
		return Value{}, ev.fail(x.Loc(), "subscript is not an integral constant")
	}

	base, fail := ev.evalExpr(x.Base)
	if fail != nil {
		return Value{}, fail
	}

	switch base.Kind {
	case ValAggregate:
		i := idx.AsInt64()
		if i < 0 || i >= int64(len(base.Elems)) {
			return Value{}, ev.fail(x.Loc(), "array index %d is out of bounds", i)
		}

		return base.Elems[i], nil

	case ValPointer:
		p, fail := ev.pointerAdd(x.Loc(), base, idx.AsInt64(), base.Ty)
		if fail != nil {
			return Value{}, fail
		}

		return ev.loadThroughPointer(x.Loc(), p)

	default:
		return Value{}, ev.fail(x.Loc(), "subscripted value is not a constant array")
	}
}

// evalMember reads a field of a constant aggregate.
func (ev *Evaluator) evalMember(x *ast.MemberExpr) (Value, *Failure) {
	base, fail := ev.evalExpr(x.Base)
	if fail != nil {
		return Value{}, fail
	}

	if x.Arrow {
		base, fail = ev.loadThroughPointer(x.Loc(), base)
		if fail != nil {
			return Value{}, fail
		}
	}

	if base.Kind != ValAggregate {
		return Value{}, ev.fail(x.Loc(), "member access on a non-constant object")
	}

	fd, ok := ast.ResolveShadow(x.Member).(*ast.FieldDecl)
	if !ok {
		return Value{}, ev.fail(x.Loc(), "member %s is not a readable field", x.Member.DeclName().String())
	}

	idx := fieldIndex(fd)
	if idx < 0 || idx >= len(base.Elems) {
		return Value{}, ev.fail(x.Loc(), "field %s has no constant value", fd.DeclName().String())
	}

	return base.Elems[idx], nil
}

// fieldIndex locates a field's position among its record's fields, which is
// the aggregate element order.
func fieldIndex(fd *ast.FieldDecl) int {
	parent := fd.Parent()
	if parent == nil {
		return -1
	}

	rd, ok := parent.Owner().(*ast.RecordDecl)
	if !ok {
		return -1
	}

	def := rd.Definition()
	if def == nil {
		return -1
	}

	return util.IndexOf(def.Fields(), func(f *ast.FieldDecl) bool {
		return f.Canonical() == fd.Canonical()
	})
}

// pointerAdd moves a pointer within the array object it designates.  The
// one-past-the-end position is representable but marked non-dereferenceable.
func (ev *Evaluator) pointerAdd(loc report.SourceLoc, p Value, delta int64, resTy types.Type) (Value, *Failure) {
	_, n, size, fail := ev.arrayExtent(loc, p.Base)
	if fail != nil {
		return Value{}, fail
	}

	idx := p.Offset/size + delta
	if idx < 0 || idx > n {
		return Value{}, ev.fail(loc, "pointer arithmetic leaves the bounds of the array")
	}

	np := PointerValue(p.Base, idx*size, resTy)
	np.PtrValid = idx < n
	return np, nil
}

// arrayExtent describes the constant array object a pointer designates.
func (ev *Evaluator) arrayExtent(loc report.SourceLoc, d ast.Decl) (elem types.Type, n, size int64, fail *Failure) {
	vd, ok := ast.ResolveShadow(d).(*ast.VarDecl)
	if !ok {
		return nil, 0, 0, ev.fail(loc, "pointer arithmetic on a non-array object")
	}

	at := types.AsArray(types.Unqualified(vd.Type.Canonical()))
	if at == nil || at.AKind != types.ArrayConstant {
		return nil, 0, 0, ev.fail(loc, "pointer arithmetic on a non-array object")
	}

	sz, err := ev.Types.SizeOf(at.Elem)
	if err != nil || sz <= 0 {
		return nil, 0, 0, ev.fail(loc, "element size of %s is not known", at.Elem.Repr())
	}

	return at.Elem, at.Size, int64(sz), nil
}

// loadThroughPointer reads the object a pointer designates, applying the
// rule that a one-past-the-end pointer is an address, never a value.
func (ev *Evaluator) loadThroughPointer(loc report.SourceLoc, p Value) (Value, *Failure) {
	if p.Kind != ValPointer || p.Base == nil {
		return Value{}, ev.fail(loc, "dereference of a non-pointer in a constant expression")
	}

	if !p.PtrValid {
		return Value{}, ev.fail(loc, "dereference of a one-past-the-end pointer")
	}

	obj, fail := ev.objectValue(loc, p.Base)
	if fail != nil {
		return Value{}, fail
	}

	if obj.Kind == ValAggregate {
		if vd, ok := ast.ResolveShadow(p.Base).(*ast.VarDecl); ok {
			if at := types.AsArray(types.Unqualified(vd.Type.Canonical())); at != nil {
				sz, err := ev.Types.SizeOf(at.Elem)
				if err != nil || sz <= 0 {
					return Value{}, ev.fail(loc, "element size of %s is not known", at.Elem.Repr())
				}

				idx := p.Offset / int64(sz)
				if idx < 0 || idx >= int64(len(obj.Elems)) {
					return Value{}, ev.fail(loc, "array index %d is out of bounds", idx)
				}

				return obj.Elems[idx], nil
			}
		}
	}

	if p.Offset != 0 {
		return Value{}, ev.fail(loc, "pointer does not designate a readable constant")
	}

	return obj, nil
}

// objectValue reads the constant value of a declared object.
func (ev *Evaluator) objectValue(loc report.SourceLoc, d ast.Decl) (Value, *Failure) {
	vd, ok := ast.ResolveShadow(d).(*ast.VarDecl)
	if !ok {
		return Value{}, ev.fail(loc, "object is not a constant")
	}

	if fr := ev.current(); fr != nil {
		if v, ok := fr.locals[vd.Canonical()]; ok {
			return *v, nil
		}
	}

	if v, ok := vd.ConstVal.(*Value); ok {
		return *v, nil
	}

	if vd.Init != nil && ev.constReadable(vd) {
		return ev.evalExpr(vd.Init)
	}

	return Value{}, ev.fail(loc, "read of non-constexpr variable %s", vd.DeclName().String())
}

func compareSatisfied(op ast.BinaryOpKind, cmp int) bool {
	switch op {
	case ast.BinLT:
		return cmp < 0
	case ast.BinGT:
		return cmp > 0
	case ast.BinLE:
		return cmp <= 0
	case ast.BinGE:
		return cmp >= 0
	case ast.BinEQ:
		return cmp == 0
	default:
		return cmp != 0
	}
}

func (ev *Evaluator) widthOf(t types.Type) int {
	bt := types.AsBuiltin(types.Unqualified(t.Canonical()))
	if bt == nil {
		return 0
	}

	return ev.Types.BuiltinWidth(bt.BK)
}

// resolveLValue resolves an assignable expression to its storage slot.  Only
// locals of the active constexpr call are mutable during evaluation.
func (ev *Evaluator) resolveLValue(e ast.Expr) (*Value, *Failure) {
	dre, ok := ast.IgnoreParenCasts(e).(*ast.DeclRefExpr)
	if !ok {
		return nil, ev.fail(e.Loc(), "expression is not assignable in a constant expression")
	}

	fr := ev.current()
	if fr == nil {
		return nil, ev.fail(e.Loc(), "modification of an object outside constant evaluation")
	}

	if slot, ok := fr.locals[dre.Decl.Canonical()]; ok {
		return slot, nil
	}

	return nil, ev.fail(e.Loc(), "modification of %s is not permitted in a constant expression", dre.Decl.DeclName().String())
}

// -----------------------------------------------------------------------------

func (ev *Evaluator) evalCall(x *ast.CallExpr) (Value, *Failure) {
	fn := x.Fn
	if fn == nil {
		return Value{}, ev.fail(x.Loc(), "call to unresolved function in a constant expression")
	}

	if !fn.Constexpr {
		return Value{}, ev.fail(x.Loc(), "call to non-constexpr function %s", fn.DeclName().String())
	}

	body := constexprBody(fn)
	if body == nil {
		return Value{}, ev.fail(x.Loc(), "constexpr function %s is used before its definition", fn.DeclName().String())
	}

	if len(ev.frames) >= ev.Opts.ConstexprCallDepth {
		return Value{}, ev.fail(x.Loc(), "constexpr call depth exceeded limit of %d", ev.Opts.ConstexprCallDepth)
	}

	fr := &frame{fn: fn, locals: make(map[ast.Decl]*Value)}

	desc := fn.DeclName().String() + "("
	for i, arg := range x.Args {
		v, fail := ev.evalExpr(arg)
		if fail != nil {
			return Value{}, fail
		}

		if i < len(fn.Params) {
			slot := v
			fr.locals[fn.Params[i].Canonical()] = &slot
		}

		if i != 0 {
			desc += ", "
		}

		desc += v.Repr()
	}

	fr.desc = desc + ")"
	ev.frames = append(ev.frames, fr)
	defer func() { ev.frames = ev.frames[:len(ev.frames)-1] }()

	if fail := ev.execStmt(body, fr); fail != nil {
		return Value{}, fail
	}

	if !fr.returned {
		return Value{}, ev.fail(x.Loc(), "constexpr function %s never returns a value", fn.DeclName().String())
	}

	return fr.ret, nil
}

// constexprBody finds the defining redeclaration's body.
func constexprBody(fn *ast.FunctionDecl) ast.Stmt {
	for _, d := range ast.RedeclChain(fn) {
		if fd, ok := d.(*ast.FunctionDecl); ok && fd.Body != nil {
			return fd.Body
		}
	}

	return fn.Body
}

// -----------------------------------------------------------------------------

func (ev *Evaluator) execStmt(s ast.Stmt, fr *frame) *Failure {
	if fr.returned {
		return nil
	}

	if fail := ev.step(s.Loc()); fail != nil {
		return fail
	}

	switch st := s.(type) {
	case *ast.CompoundStmt:
		for _, sub := range st.Body {
			if fail := ev.execStmt(sub, fr); fail != nil {
				return fail
			}

			if fr.returned || fr.broke || fr.continued {
				return nil
			}
		}

		return nil

	case *ast.NullStmt:
		return nil

	case *ast.ExprStmt:
		_, fail := ev.evalExpr(st.E)
		return fail

	case *ast.DeclStmt:
		for _, d := range st.Decls {
			vd, ok := d.(*ast.VarDecl)
			if !ok {
				return ev.fail(s.Loc(), "declaration is not permitted in a constexpr function")
			}

			var init Value
			if vd.Init != nil {
				v, fail := ev.evalExpr(vd.Init)
				if fail != nil {
					return fail
				}

				init = v
			} else {
				init = IntValue(0, vd.Type)
			}

			slot := init
			fr.locals[vd.Canonical()] = &slot
		}

		return nil

	case *ast.ReturnStmt:
		if st.Value != nil {
			v, fail := ev.evalExpr(st.Value)
			if fail != nil {
				return fail
			}

			fr.ret = v
		}

		fr.returned = true
		return nil

	case *ast.IfStmt:
		cond, fail := ev.evalExpr(st.Cond)
		if fail != nil {
			return fail
		}

		if cond.Truthy() {
			return ev.execStmt(st.Then, fr)
		}

		if st.Else != nil {
			return ev.execStmt(st.Else, fr)
		}

		return nil

	case *ast.WhileStmt:
		for {
			cond, fail := ev.evalExpr(st.Cond)
			if fail != nil {
				return fail
			}

			if !cond.Truthy() {
				return nil
			}

			if fail := ev.execStmt(st.Body, fr); fail != nil {
				return fail
			}

			if fr.returned {
				return nil
			}

			fr.continued = false
			if fr.broke {
				fr.broke = false
				return nil
			}

			if fail := ev.step(st.Loc()); fail != nil {
				return fail
			}
		}

	case *ast.ForStmt:
		if st.Init != nil {
			if fail := ev.execStmt(st.Init, fr); fail != nil {
				return fail
			}
		}

		for {
			if st.Cond != nil {
				cond, fail := ev.evalExpr(st.Cond)
				if fail != nil {
					return fail
				}

				if !cond.Truthy() {
					return nil
				}
			}

			if fail := ev.execStmt(st.Body, fr); fail != nil {
				return fail
			}

			if fr.returned {
				return nil
			}

			fr.continued = false
			if fr.broke {
				fr.broke = false
				return nil
			}

			if st.Inc != nil {
				if _, fail := ev.evalExpr(st.Inc); fail != nil {
					return fail
				}
			}

			if fail := ev.step(st.Loc()); fail != nil {
				return fail
			}
		}

	case *ast.BreakStmt:
		fr.broke = true
		return nil

	case *ast.ContinueStmt:
		fr.continued = true
		return nil

	case *ast.SwitchStmt:
		return ev.execSwitch(st, fr)

	case *ast.CaseStmt:
		// Reached by fallthrough from an earlier label.
		if st.Body != nil {
			return ev.execStmt(st.Body, fr)
		}

		return nil

	default:
		return ev.fail(s.Loc(), "statement is not permitted in a constexpr function")
	}
}

// execSwitch selects the matching case label and executes the body from
// there, falling through until a break or the end of the switch.
func (ev *Evaluator) execSwitch(st *ast.SwitchStmt, fr *frame) *Failure {
	cond, fail := ev.evalExpr(st.Cond)
	if fail != nil {
		return fail
	}

	if cond.Kind != ValInt {
		return ev.fail(st.Loc(), "switch condition is not an integral constant")
	}

	sel := cond.AsInt64()
	var match, deflt *ast.CaseStmt
	for _, cs := range st.Cases {
		if cs.Value == nil {
			deflt = cs
			continue
		}

		if cs.ValueInt == sel {
			match = cs
			break
		}
	}

	if match == nil {
		match = deflt
	}

	if match == nil {
		return nil
	}

	var stmts []ast.Stmt
	if cb, ok := st.Body.(*ast.CompoundStmt); ok {
		stmts = cb.Body
	} else if st.Body != nil {
		stmts = []ast.Stmt{st.Body}
	}

	active := false
	for _, sub := range stmts {
		if !active {
			cs, ok := sub.(*ast.CaseStmt)
			if !ok || !caseLeadsTo(cs, match) {
				continue
			}

			active = true
		}

		if fail := ev.execStmt(sub, fr); fail != nil {
			return fail
		}

		if fr.returned || fr.continued {
			return nil
		}

		if fr.broke {
			fr.broke = false
			return nil
		}
	}

	return nil
}

// caseLeadsTo walks a chain of stacked case labels looking for the selected
// one.
func caseLeadsTo(cs, match *ast.CaseStmt) bool {
	for cs != nil {
		if cs == match {
			return true
		}

		next, ok := cs.Body.(*ast.CaseStmt)
		if !ok {
			return false
		}

		cs = next
	}

	return false
}

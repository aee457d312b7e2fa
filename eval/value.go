package eval

import (
	"math/big"
	"strconv"

	"cfront/ast"
	"cfront/types"
)

// ValueKind discriminates the constant value kinds.
type ValueKind int

// Enumeration of the constant value kinds.
const (
	ValInvalid ValueKind = iota
	ValInt
	ValFloat
	ValNullPtr
	ValPointer
	ValAggregate
)

// Value is an evaluated constant.  Integers carry arbitrary precision and
// are truncated to the target width at each typed operation, so intermediate
// overflow is detectable rather than silently wrapped.
type Value struct {
	Kind ValueKind

	// The value's C type.
	Ty types.Type

	Int   *big.Int
	Float float64

	// Pointer values are a designated base plus a byte offset.  A pointer
	// past a one-past-the-end adjustment is marked invalid for dereference
	// but still comparable.
	Base     ast.Decl
	Offset   int64
	PtrValid bool

	// Aggregate element values in field order.
	Elems []Value
}

// IntValue builds an integer constant.
func IntValue(v int64, ty types.Type) Value {
	return Value{Kind: ValInt, Ty: ty, Int: big.NewInt(v)}
}

// BigValue builds an integer constant from an arbitrary-precision value.
func BigValue(v *big.Int, ty types.Type) Value {
	return Value{Kind: ValInt, Ty: ty, Int: new(big.Int).Set(v)}
}

// BoolValue builds a boolean constant.
func BoolValue(b bool, ty types.Type) Value {
	if b {
		return IntValue(1, ty)
	}

	return IntValue(0, ty)
}

// FloatValue builds a floating constant.
func FloatValue(v float64, ty types.Type) Value {
	return Value{Kind: ValFloat, Ty: ty, Float: v}
}

// NullPtrValue builds a null pointer constant of the given pointer type.
func NullPtrValue(ty types.Type) Value {
	return Value{Kind: ValNullPtr, Ty: ty}
}

// PointerValue builds a pointer to the given declaration.
func PointerValue(base ast.Decl, offset int64, ty types.Type) Value {
	return Value{Kind: ValPointer, Ty: ty, Base: base, Offset: offset, PtrValid: true}
}

// IsZero returns whether the value is a zero integer, zero float, or null
// pointer.
func (v Value) IsZero() bool {
	switch v.Kind {
	case ValInt:
		return v.Int.Sign() == 0
	case ValFloat:
		return v.Float == 0
	case ValNullPtr:
		return true
	default:
		return false
	}
}

// Truthy returns the value interpreted as a condition.
func (v Value) Truthy() bool {
	return !v.IsZero() && v.Kind != ValInvalid
}

// AsInt64 returns the integer value clamped into int64 range.
func (v Value) AsInt64() int64 {
	if v.Kind != ValInt || !v.Int.IsInt64() {
		return 0
	}

	return v.Int.Int64()
}

// Repr renders the value for diagnostics.
func (v Value) Repr() string {
	switch v.Kind {
	case ValInt:
		return v.Int.String()
	case ValFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ValNullPtr:
		return "nullptr"
	case ValPointer:
		if v.Base != nil {
			return "&" + v.Base.DeclName().String()
		}

		return "<pointer>"
	case ValAggregate:
		s := "{"
		for i, e := range v.Elems {
			if i != 0 {
				s += ", "
			}

			s += e.Repr()
		}

		return s + "}"
	default:
		return "<invalid>"
	}
}

// truncate wraps an integer into the representable range of its type on the
// given context's target, mirroring what the machine arithmetic would
// produce.
func truncate(ctx *types.Context, v *big.Int, ty types.Type) *big.Int {
	bt := types.AsBuiltin(types.Unqualified(ty.Canonical()))
	if bt == nil || !bt.IsInteger() {
		return v
	}

	width := ctx.BuiltinWidth(bt.BK)
	if width <= 0 {
		return v
	}

	mask := new(big.Int).Lsh(big.NewInt(1), uint(width))
	out := new(big.Int).Mod(v, mask)

	if bt.IsSignedInteger() {
		half := new(big.Int).Lsh(big.NewInt(1), uint(width-1))
		if out.Cmp(half) >= 0 {
			out.Sub(out, mask)
		}
	}

	return out
}

// fitsIn reports whether an integer is representable in the given type
// without truncation.
func fitsIn(ctx *types.Context, v *big.Int, ty types.Type) bool {
	return truncate(ctx, v, ty).Cmp(v) == 0
}

// Representable reports whether a constant converts to the given arithmetic
// type without changing its value, which exempts an otherwise narrowing
// conversion from diagnosis.
func Representable(ctx *types.Context, v Value, to types.Type) bool {
	bt := types.AsBuiltin(types.Unqualified(to.Canonical()))
	if bt == nil {
		return false
	}

	switch v.Kind {
	case ValInt:
		if bt.IsInteger() {
			return fitsIn(ctx, v.Int, to)
		}

		if bt.IsFloating() {
			_, acc := new(big.Float).SetInt(v.Int).Float64()
			return acc == big.Exact
		}

		return false

	case ValFloat:
		if bt.IsFloating() {
			if ctx.BuiltinWidth(bt.BK) >= ctx.BuiltinWidth(types.Double) {
				return true
			}

			return v.Float == float64(float32(v.Float))
		}

		if bt.IsInteger() {
			i, acc := big.NewFloat(v.Float).Int(nil)
			return acc == big.Exact && fitsIn(ctx, i, to)
		}

		return false

	default:
		return false
	}
}

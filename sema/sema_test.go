package sema

import (
	"strconv"
	"testing"

	"cfront/ast"
	"cfront/common"
	"cfront/report"
	"cfront/types"

	"github.com/stretchr/testify/require"
)

// fixture wires a fresh analyzer over a silent diagnostic engine so tests
// can drive the act surface directly, the way a parser would.
type fixture struct {
	t    *testing.T
	s    *Sema
	eng  *report.Engine
	tctx *types.Context
}

func newFixture(t *testing.T) *fixture {
	opts := common.DefaultLangOpts()
	eng := report.NewEngine(report.NewSourceManager(), report.LogLevelSilent)
	tctx := types.NewContext(common.DefaultTarget(), opts)
	return &fixture{t: t, s: New(tctx, eng, opts), eng: eng, tctx: tctx}
}

func span0() report.SourceRange { return report.SourceRange{} }

func (f *fixture) intTy() types.Type  { return f.tctx.GetBuiltin(types.Int) }
func (f *fixture) dblTy() types.Type  { return f.tctx.GetBuiltin(types.Double) }
func (f *fixture) voidTy() types.Type { return f.tctx.GetBuiltin(types.Void) }

func (f *fixture) lit(v int64) ast.Expr { return f.s.ActOnIntegerLiteral(v, span0()) }

// declareFn declares a free function with the given parameter types in the
// current scope.
func (f *fixture) declareFn(name string, ret types.Type, paramTys ...types.Type) *ast.FunctionDecl {
	params := make([]*ast.ParamDecl, len(paramTys))
	for i, pt := range paramTys {
		params[i] = ast.NewParamDecl(ast.Ident("p"+strconv.Itoa(i)), 0, pt, i)
	}

	ty := f.tctx.GetFunction(ret, paramTys, types.FunctionInfo{})
	return f.s.ActOnFunctionDecl(ast.Ident(name), 0, ty, params)
}

// callNamed analyzes a call to the named function, going through the callee
// resolution path a parser would use for a postfix call.
func (f *fixture) callNamed(name string, args ...ast.Expr) ast.Expr {
	callee := f.s.ActOnCalleeId(ast.Ident(name), span0())
	return f.s.ActOnCall(callee, args, span0())
}

func requireCall(t *testing.T, e ast.Expr) *ast.CallExpr {
	t.Helper()
	ce, ok := e.(*ast.CallExpr)
	require.True(t, ok, "expected a resolved call, got %T", e)
	return ce
}

// lastDiagnostic returns the most recent emitted diagnostic with the given
// id, or nil.
func (f *fixture) lastDiagnostic(id string) *report.Diagnostic {
	var found *report.Diagnostic
	for _, d := range f.eng.Emitted() {
		if d.ID == id {
			found = d
		}
	}

	return found
}

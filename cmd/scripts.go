package cmd

import (
	"cfront/ast"
	"cfront/types"
)

// Script is a replayable sequence of analyzer acts paired with the pseudo
// source text the acts correspond to.  The source is registered with the
// source manager so diagnostics render real lines and carets.
type Script struct {
	Name     string
	Synopsis string
	Source   string

	Run func(d *Driver)
}

// scripts is the registry of built-in act scripts, keyed by name.
var scripts = map[string]*Script{
	"basics":      basicsScript,
	"overload":    overloadScript,
	"template":    templateScript,
	"diagnostics": diagnosticsScript,
}

// -----------------------------------------------------------------------------

var basicsScript = &Script{
	Name:     "basics",
	Synopsis: "typedefs, variable initialization, implicit conversions",
	Source: `typedef int size_type;

size_type total = 3 + 4;
bool flag = total;
`,
	Run: func(d *Driver) {
		s := d.S
		intTy := d.Types.GetBuiltin(types.Int)
		boolTy := d.Types.GetBuiltin(types.Bool)

		td := s.ActOnTypedef(ast.Ident("size_type"), d.at("size_type").Begin, intTy)
		sizeTy := d.Types.GetTypedef(td, intTy)

		total := s.ActOnVariableDecl(ast.Ident("total"), d.at("total").Begin, sizeTy, ast.SCNone, false)
		sum := s.ActOnBinaryOp(ast.BinAdd,
			s.ActOnIntegerLiteral(3, d.at("3")),
			s.ActOnIntegerLiteral(4, d.at("4")),
			d.at("3 + 4"))
		s.ActOnVariableInit(total, sum)
		s.ActOnFinishVariable(total)

		flag := s.ActOnVariableDecl(ast.Ident("flag"), d.at("flag").Begin, boolTy, ast.SCNone, false)
		s.ActOnVariableInit(flag, s.ActOnIdExpr(ast.Ident("total"), d.at("total;")))
		s.ActOnFinishVariable(flag)
	},
}

var overloadScript = &Script{
	Name:     "overload",
	Synopsis: "overload resolution between two candidate functions",
	Source: `int scale(int x);
long scale(long x);

int three = scale(3);
`,
	Run: func(d *Driver) {
		s := d.S
		intTy := d.Types.GetBuiltin(types.Int)
		longTy := d.Types.GetBuiltin(types.Long)

		intFn := d.Types.GetFunction(intTy, []types.Type{intTy}, types.FunctionInfo{})
		s.ActOnFunctionDecl(ast.Ident("scale"), d.at("scale").Begin, intFn,
			[]*ast.ParamDecl{ast.NewParamDecl(ast.Ident("x"), d.at("int x").Begin, intTy, 0)})

		longFn := d.Types.GetFunction(longTy, []types.Type{longTy}, types.FunctionInfo{})
		s.ActOnFunctionDecl(ast.Ident("scale"), d.at("long scale").Begin, longFn,
			[]*ast.ParamDecl{ast.NewParamDecl(ast.Ident("x"), d.at("long x").Begin, longTy, 0)})

		three := s.ActOnVariableDecl(ast.Ident("three"), d.at("three").Begin, intTy, ast.SCNone, false)
		call := s.ActOnCall(
			s.ActOnIdExpr(ast.Ident("scale"), d.at("scale(3)")),
			[]ast.Expr{s.ActOnIntegerLiteral(3, d.at("(3)"))},
			d.at("scale(3)"))
		s.ActOnVariableInit(three, call)
		s.ActOnFinishVariable(three)
	},
}

var templateScript = &Script{
	Name:     "template",
	Synopsis: "class template declaration, instantiation, member access",
	Source: `template <typename T>
struct Box {
    T value;
};

Box<int> box;
int first = box.value;
`,
	Run: func(d *Driver) {
		s := d.S
		intTy := d.Types.GetBuiltin(types.Int)

		s.ActOnStartTemplateParams(d.at("template").Begin)
		tp := s.ActOnTemplateTypeParam(ast.Ident("T"), d.at("typename T").Begin, 0, false, nil)

		rd := s.ActOnTagDecl(ast.Ident("Box"), ast.TagStruct, d.at("Box").Begin)
		s.ActOnStartClass(rd)
		s.ActOnField(rd, ast.Ident("value"), d.at("value").Begin, tp.Ty, false)
		s.ActOnFinishClass(rd)

		ctd := s.ActOnClassTemplate(ast.Ident("Box"), d.at("Box").Begin, []ast.Decl{tp}, rd)
		s.ActOnFinishTemplateParams()

		boxInt := s.ActOnTemplateId(ctd, []types.TemplateArg{types.TypeArg(intTy)}, d.at("Box<int>").Begin)
		box := s.ActOnVariableDecl(ast.Ident("box"), d.at("box;").Begin, boxInt, ast.SCNone, false)
		s.ActOnFinishVariable(box)

		first := s.ActOnVariableDecl(ast.Ident("first"), d.at("first").Begin, intTy, ast.SCNone, false)
		member := s.ActOnMemberAccess(
			s.ActOnIdExpr(ast.Ident("box"), d.at("box.value")),
			false, ast.Ident("value"), d.at("box.value"))
		s.ActOnVariableInit(first, member)
		s.ActOnFinishVariable(first)
	},
}

var diagnosticsScript = &Script{
	Name:     "diagnostics",
	Synopsis: "deliberate errors showing rendered diagnostics",
	Source: `void emit() {
    return 5;
}

int twice = missing + 1;
`,
	Run: func(d *Driver) {
		s := d.S
		intTy := d.Types.GetBuiltin(types.Int)
		voidTy := d.Types.GetBuiltin(types.Void)

		emitFn := d.Types.GetFunction(voidTy, nil, types.FunctionInfo{})
		fd := s.ActOnFunctionDecl(ast.Ident("emit"), d.at("emit").Begin, emitFn, nil)
		s.ActOnStartFunctionBody(fd)
		ret := s.ActOnReturn(s.ActOnIntegerLiteral(5, d.at("5")), d.at("return 5;"))
		body := s.ActOnCompoundStmt([]ast.Stmt{ret}, d.at("{"))
		s.ActOnFinishFunctionBody(fd, body)

		twice := s.ActOnVariableDecl(ast.Ident("twice"), d.at("twice").Begin, intTy, ast.SCNone, false)
		sum := s.ActOnBinaryOp(ast.BinAdd,
			s.ActOnIdExpr(ast.Ident("missing"), d.at("missing")),
			s.ActOnIntegerLiteral(1, d.at("+ 1")),
			d.at("missing + 1"))
		s.ActOnVariableInit(twice, sum)
		s.ActOnFinishVariable(twice)
	},
}

package ast

import "cfront/report"

// Stmt is a statement node.
type Stmt interface {
	// Loc returns the statement's primary location.
	Loc() report.SourceLoc

	// Range returns the statement's full source range.
	Range() report.SourceRange

	// Invalid returns whether the node is an error-recovery result.
	Invalid() bool

	stmtNode()
}

// StmtBase is the state shared by all statement nodes.
type StmtBase struct {
	Span report.SourceRange
	Bad  bool
}

func (sb *StmtBase) Loc() report.SourceLoc     { return sb.Span.Begin }
func (sb *StmtBase) Range() report.SourceRange { return sb.Span }
func (sb *StmtBase) Invalid() bool             { return sb.Bad }
func (sb *StmtBase) stmtNode()                 {}

// RecoveryStmt is the invalid statement marker.
type RecoveryStmt struct {
	StmtBase
}

// NewRecoveryStmt creates an invalid statement marker.
func NewRecoveryStmt(span report.SourceRange) *RecoveryStmt {
	rs := &RecoveryStmt{StmtBase{Span: span, Bad: true}}
	return rs
}

// CompoundStmt is a braced statement sequence.
type CompoundStmt struct {
	StmtBase

	Body []Stmt
}

// NewCompoundStmt creates a compound statement.
func NewCompoundStmt(body []Stmt, span report.SourceRange) *CompoundStmt {
	return &CompoundStmt{StmtBase{Span: span}, body}
}

// ExprStmt is an expression evaluated for its effects.
type ExprStmt struct {
	StmtBase

	E Expr
}

// NewExprStmt creates an expression statement.
func NewExprStmt(e Expr, span report.SourceRange) *ExprStmt {
	return &ExprStmt{StmtBase{Span: span}, e}
}

// DeclStmt is a declaration appearing in statement position.
type DeclStmt struct {
	StmtBase

	Decls []Decl
}

// NewDeclStmt creates a declaration statement.
func NewDeclStmt(decls []Decl, span report.SourceRange) *DeclStmt {
	return &DeclStmt{StmtBase{Span: span}, decls}
}

// ReturnStmt is a return statement.
type ReturnStmt struct {
	StmtBase

	// The converted return value, nil for `return;`.
	Value Expr

	// The variable eligible for named return value optimization, if the
	// returned expression names a qualifying local.
	NRVOCandidate *VarDecl
}

// NewReturnStmt creates a return statement.
func NewReturnStmt(value Expr, span report.SourceRange) *ReturnStmt {
	return &ReturnStmt{StmtBase: StmtBase{Span: span}, Value: value}
}

// IfStmt is an if statement.
type IfStmt struct {
	StmtBase

	Cond Expr
	Then Stmt
	Else Stmt
}

// NewIfStmt creates an if statement.
func NewIfStmt(cond Expr, then, els Stmt, span report.SourceRange) *IfStmt {
	return &IfStmt{StmtBase{Span: span}, cond, then, els}
}

// WhileStmt is a while loop.
type WhileStmt struct {
	StmtBase

	Cond Expr
	Body Stmt
}

// NewWhileStmt creates a while statement.
func NewWhileStmt(cond Expr, body Stmt, span report.SourceRange) *WhileStmt {
	return &WhileStmt{StmtBase{Span: span}, cond, body}
}

// ForStmt is a for loop.
type ForStmt struct {
	StmtBase

	Init Stmt
	Cond Expr
	Inc  Expr
	Body Stmt
}

// NewForStmt creates a for statement.
func NewForStmt(init Stmt, cond, inc Expr, body Stmt, span report.SourceRange) *ForStmt {
	return &ForStmt{StmtBase{Span: span}, init, cond, inc, body}
}

// SwitchStmt is a switch statement.
type SwitchStmt struct {
	StmtBase

	Cond Expr
	Body Stmt

	// The case labels collected while the body was analyzed, used for
	// duplicate detection.
	Cases []*CaseStmt
}

// NewSwitchStmt creates a switch statement.
func NewSwitchStmt(cond Expr, span report.SourceRange) *SwitchStmt {
	return &SwitchStmt{StmtBase: StmtBase{Span: span}, Cond: cond}
}

// CaseStmt is a case or default label.
type CaseStmt struct {
	StmtBase

	// The label expression, nil for `default:`.
	Value Expr

	// The evaluated label value.
	ValueInt int64

	Body Stmt
}

// NewCaseStmt creates a case label statement.
func NewCaseStmt(value Expr, valueInt int64, body Stmt, span report.SourceRange) *CaseStmt {
	return &CaseStmt{StmtBase: StmtBase{Span: span}, Value: value, ValueInt: valueInt, Body: body}
}

// BreakStmt is a break statement.
type BreakStmt struct {
	StmtBase
}

// NewBreakStmt creates a break statement.
func NewBreakStmt(span report.SourceRange) *BreakStmt {
	return &BreakStmt{StmtBase{Span: span}}
}

// ContinueStmt is a continue statement.
type ContinueStmt struct {
	StmtBase
}

// NewContinueStmt creates a continue statement.
func NewContinueStmt(span report.SourceRange) *ContinueStmt {
	return &ContinueStmt{StmtBase{Span: span}}
}

// NullStmt is an empty statement.
type NullStmt struct {
	StmtBase
}

// NewNullStmt creates an empty statement.
func NewNullStmt(span report.SourceRange) *NullStmt {
	return &NullStmt{StmtBase{Span: span}}
}

// ThrowStmt is a throw statement (`throw e;` or a rethrow `throw;`).
type ThrowStmt struct {
	StmtBase

	// The thrown value, nil for a rethrow.
	Value Expr
}

// NewThrowStmt creates a throw statement.
func NewThrowStmt(value Expr, span report.SourceRange) *ThrowStmt {
	return &ThrowStmt{StmtBase: StmtBase{Span: span}, Value: value}
}

// CatchStmt is one handler of a try block.
type CatchStmt struct {
	StmtBase

	// The exception declaration, nil for `catch (...)`.
	Exception *VarDecl

	Handler *CompoundStmt
}

// NewCatchStmt creates a catch handler.
func NewCatchStmt(exception *VarDecl, handler *CompoundStmt, span report.SourceRange) *CatchStmt {
	return &CatchStmt{StmtBase: StmtBase{Span: span}, Exception: exception, Handler: handler}
}

// TryStmt is a try block with its handlers.
type TryStmt struct {
	StmtBase

	Body     *CompoundStmt
	Handlers []*CatchStmt
}

// NewTryStmt creates a try statement.
func NewTryStmt(body *CompoundStmt, handlers []*CatchStmt, span report.SourceRange) *TryStmt {
	return &TryStmt{StmtBase: StmtBase{Span: span}, Body: body, Handlers: handlers}
}

package lookup

import "cfront/ast"

// ScopeKind is the kind tag of a lexical scope.
type ScopeKind int

// Enumeration of the lexical scope kinds.
const (
	ScopeFile ScopeKind = iota
	ScopeNamespace
	ScopeClass
	ScopeFunction
	ScopeBlock
	ScopeControl
	ScopeTemplateParams
)

// Scope is one frame of the lexical scope stack.  Scopes are transient: they
// exist only while the analyzer is inside the construct.  The persistent
// declaration spine is the DeclContext chain; a scope points at the context
// declarations in it are added to.
type Scope struct {
	Kind ScopeKind

	// The declaration context names declared in this scope land in.  Block
	// and control scopes may share their enclosing function's context.
	Ctx *ast.DeclContext

	// Flow-control properties of the construct introducing the scope.
	BreakTarget    bool
	ContinueTarget bool
	SwitchScope    bool

	// For function scopes: the function being analyzed.
	Fn *ast.FunctionDecl
}

// Stack is the lexical scope stack.
type Stack struct {
	scopes []*Scope
}

// NewStack creates a scope stack rooted at the translation unit.
func NewStack(tu *ast.TranslationUnit) *Stack {
	return &Stack{scopes: []*Scope{{Kind: ScopeFile, Ctx: tu.AsDeclContext()}}}
}

// Push pushes a new scope frame and returns it.
func (s *Stack) Push(kind ScopeKind, ctx *ast.DeclContext) *Scope {
	sc := &Scope{Kind: kind, Ctx: ctx}
	s.scopes = append(s.scopes, sc)
	return sc
}

// Pop pops the current scope frame.
func (s *Stack) Pop() {
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// Current returns the innermost scope.
func (s *Stack) Current() *Scope {
	return s.scopes[len(s.scopes)-1]
}

// CurrentCtx returns the declaration context of the innermost scope.
func (s *Stack) CurrentCtx() *ast.DeclContext {
	return s.Current().Ctx
}

// Function returns the innermost enclosing function scope, or nil at
// namespace scope.
func (s *Stack) Function() *Scope {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i].Kind == ScopeFunction {
			return s.scopes[i]
		}
	}

	return nil
}

// InBreakable returns whether a break statement is valid here.
func (s *Stack) InBreakable() bool {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		sc := s.scopes[i]
		if sc.BreakTarget {
			return true
		}

		if sc.Kind == ScopeFunction {
			break
		}
	}

	return false
}

// InContinuable returns whether a continue statement is valid here.
func (s *Stack) InContinuable() bool {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		sc := s.scopes[i]
		if sc.ContinueTarget {
			return true
		}

		if sc.Kind == ScopeFunction {
			break
		}
	}

	return false
}

// Switch returns the innermost enclosing switch scope within the current
// function, or nil.
func (s *Stack) Switch() *Scope {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		sc := s.scopes[i]
		if sc.SwitchScope {
			return sc
		}

		if sc.Kind == ScopeFunction {
			break
		}
	}

	return nil
}

package lookup

import (
	"cfront/ast"
	"cfront/types"
)

// adlCollector accumulates the associated namespaces and classes of a call's
// argument types.
type adlCollector struct {
	namespaces []*ast.DeclContext
	classes    []*ast.RecordDecl

	nsSeen    map[*ast.DeclContext]bool
	classSeen map[*ast.RecordDecl]bool
	typeSeen  map[types.Type]bool
}

func newADLCollector() *adlCollector {
	return &adlCollector{
		nsSeen:    make(map[*ast.DeclContext]bool),
		classSeen: make(map[*ast.RecordDecl]bool),
		typeSeen:  make(map[types.Type]bool),
	}
}

// addNamespace records an associated namespace, folding inline namespaces to
// the nearest non-inline enclosing namespace.
func (c *adlCollector) addNamespace(dc *ast.DeclContext) {
	dc = foldInline(dc)
	if dc == nil || c.nsSeen[dc] {
		return
	}

	c.nsSeen[dc] = true
	c.namespaces = append(c.namespaces, dc)
}

// foldInline walks from a context to its nearest enclosing namespace that is
// not declared inline.
func foldInline(dc *ast.DeclContext) *ast.DeclContext {
	for c := dc; c != nil; c = c.Enclosing() {
		if !c.IsNamespaceOrTU() {
			continue
		}

		nd, ok := c.Owner().(*ast.NamespaceDecl)
		if !ok {
			// The translation unit.
			return c
		}

		if !nd.Inline {
			return c
		}
	}

	return nil
}

// addClass records an associated class along with its enclosing namespace
// and, transitively, its bases.
func (c *adlCollector) addClass(rd *ast.RecordDecl) {
	rd = rd.CanonicalRecord()
	if c.classSeen[rd] {
		return
	}
	c.classSeen[rd] = true

	c.classes = append(c.classes, rd)
	c.addNamespace(rd.Enclosing())

	if def := rd.Definition(); def != nil {
		for _, b := range def.Bases {
			if b.Class != nil {
				c.addClass(b.Class)
			}
		}

		// A class template specialization associates the namespaces and
		// classes of its template arguments.
		for _, arg := range def.TemplateArgs {
			if arg.Kind == types.ArgType {
				c.addType(arg.Type)
			}
		}
	}
}

// addType records the associated entities of one argument type.
func (c *adlCollector) addType(t types.Type) {
	if t == nil || c.typeSeen[t.Canonical()] {
		return
	}
	c.typeSeen[t.Canonical()] = true

	canon := types.Unqualified(t.Canonical())

	switch tt := canon.(type) {
	case *types.RecordType:
		if rd, ok := tt.Decl.CanonicalTag().(*ast.RecordDecl); ok {
			c.addClass(rd)
		}

	case *types.EnumType:
		if ed, ok := tt.Decl.CanonicalTag().(*ast.EnumDecl); ok {
			c.addNamespace(ed.Parent())

			// A member enumeration also associates its class.
			if owner, ok := ed.Parent().Owner().(*ast.RecordDecl); ok {
				c.addClass(owner)
			}
		}

	case *types.PointerType:
		c.addType(tt.Pointee)

	case *types.ReferenceType:
		c.addType(tt.Pointee)

	case *types.ArrayType:
		c.addType(tt.Elem)

	case *types.FunctionType:
		c.addType(tt.Return)
		for _, p := range tt.Params {
			c.addType(p)
		}

	case *types.MemberPointerType:
		c.addType(tt.Class)
		c.addType(tt.Pointee)
	}
}

// Associated computes the associated namespaces and classes of a set of
// argument types.
func Associated(argTypes []types.Type) ([]*ast.DeclContext, []*ast.RecordDecl) {
	c := newADLCollector()
	for _, t := range argTypes {
		c.addType(t)
	}

	return c.namespaces, c.classes
}

// ArgumentDependent performs argument-dependent lookup: functions and
// function templates declared directly in the associated namespaces of the
// argument types.  Using-directives and using-declarations in those
// namespaces are ignored; friend functions injected by class templates are
// visible here even though ordinary lookup skips them.
func ArgumentDependent(name ast.DeclName, argTypes []types.Type) []ast.Decl {
	namespaces, _ := Associated(argTypes)

	var found []ast.Decl
	seen := make(map[ast.Decl]bool)

	for _, ns := range namespaces {
		for _, d := range ns.Lookup(name) {
			if d.Kind() == ast.DKUsingShadow {
				continue
			}

			if !isOverloadable(d) {
				continue
			}

			if canon := d.Canonical(); !seen[canon] {
				seen[canon] = true
				found = append(found, d)
			}
		}
	}

	return found
}

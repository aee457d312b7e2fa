package lookup

import "cfront/ast"

// NameClass selects which kind of entity a lookup may find.  C keeps tags in
// a separate name space from ordinary identifiers; C++ lets an ordinary
// declaration hide a tag of the same name, with elaborated type specifiers
// reaching the hidden tag.
type NameClass int

// Enumeration of the lookup name classes.
const (
	// Ordinary finds any entity, with ordinary declarations hiding tags
	// declared in the same scope.
	Ordinary NameClass = iota

	// TagOnly finds only class, struct, union, and enum names.  Used for
	// elaborated type specifiers.
	TagOnly

	// NamespaceOnly finds only namespaces.  Used for using-directives and
	// qualifier resolution.
	NamespaceOnly
)

// Result is the outcome of a name lookup.
type Result struct {
	// The found declarations, shadows resolved.  Multiple declarations are
	// either an overload set or an ambiguity.
	Decls []ast.Decl

	// Whether the lookup found multiple distinct non-overloadable entities.
	Ambiguous bool
}

// Empty returns whether the lookup found nothing.
func (r Result) Empty() bool { return len(r.Decls) == 0 }

// Single returns the unique found declaration, or nil if the result is
// empty, ambiguous, or an overload set.
func (r Result) Single() ast.Decl {
	if r.Ambiguous || len(r.Decls) == 0 {
		return nil
	}

	entity := r.Decls[0].Canonical()
	for _, d := range r.Decls[1:] {
		if d.Canonical() != entity {
			return nil
		}
	}

	return r.Decls[0]
}

// IsOverloadSet returns whether every found declaration is a function or
// function template.
func (r Result) IsOverloadSet() bool {
	if len(r.Decls) == 0 {
		return false
	}

	for _, d := range r.Decls {
		if !isOverloadable(d) {
			return false
		}
	}

	return true
}

// isOverloadable returns whether a declaration may coexist with others of
// the same name as an overload set.
func isOverloadable(d ast.Decl) bool {
	switch d.Kind() {
	case ast.DKFunction, ast.DKFunctionTemplate:
		return true
	default:
		return false
	}
}

// matchesClass returns whether a declaration satisfies a name class.
func matchesClass(d ast.Decl, class NameClass) bool {
	switch class {
	case TagOnly:
		return d.Kind() == ast.DKRecord || d.Kind() == ast.DKEnum || d.Kind() == ast.DKClassTemplate
	case NamespaceOnly:
		return d.Kind() == ast.DKNamespace
	default:
		return true
	}
}

// filterContext performs the single-scope step of lookup: fetch the context's
// declarations for the name, resolve using-declaration shadows, drop
// declarations only argument-dependent lookup may see, and apply tag hiding.
func filterContext(dc *ast.DeclContext, name ast.DeclName, class NameClass) []ast.Decl {
	var found []ast.Decl
	hasOrdinary := false

	for _, d := range dc.Lookup(name) {
		d = ast.ResolveShadow(d)

		if fd, ok := d.(*ast.FunctionDecl); ok && fd.FriendInjected {
			continue
		}

		if !matchesClass(d, class) {
			continue
		}

		if class == Ordinary && !isTagDecl(d) {
			hasOrdinary = true
		}

		found = append(found, d)
	}

	// An ordinary declaration hides a tag declared in the same scope.
	if class == Ordinary && hasOrdinary {
		var kept []ast.Decl
		for _, d := range found {
			if !isTagDecl(d) {
				kept = append(kept, d)
			}
		}

		found = kept
	}

	return found
}

func isTagDecl(d ast.Decl) bool {
	return d.Kind() == ast.DKRecord || d.Kind() == ast.DKEnum
}

// reduce classifies a set of found declarations: a set naming one entity or
// forming an overload set is fine; anything else is ambiguous.
func reduce(decls []ast.Decl) Result {
	if len(decls) <= 1 {
		return Result{Decls: decls}
	}

	allOverloadable := true
	entities := make(map[ast.Decl]bool)

	for _, d := range decls {
		entities[d.Canonical()] = true
		if !isOverloadable(d) {
			allOverloadable = false
		}
	}

	if len(entities) == 1 || allOverloadable {
		return Result{Decls: dedupeByEntity(decls)}
	}

	return Result{Decls: decls, Ambiguous: true}
}

// dedupeByEntity drops redeclarations of an entity already in the set,
// preserving first-seen order.
func dedupeByEntity(decls []ast.Decl) []ast.Decl {
	seen := make(map[ast.Decl]bool)

	var out []ast.Decl
	for _, d := range decls {
		if canon := d.Canonical(); !seen[canon] {
			seen[canon] = true
			out = append(out, d)
		}
	}

	return out
}

// -----------------------------------------------------------------------------

// Unqualified performs unqualified name lookup starting in the given context
// and walking outward.  Lookup stops at the first scope producing a result;
// inner declarations hide outer ones.  Using-directives make the nominated
// namespace's names visible in the nearest namespace enclosing both the
// directive and the nominated namespace.
func Unqualified(from *ast.DeclContext, name ast.DeclName, class NameClass) Result {
	// Namespaces a using-directive attributes to an enclosing context we have
	// not reached yet.
	pending := make(map[*ast.DeclContext][]*ast.NamespaceDecl)

	for dc := from; dc != nil; dc = dc.Enclosing() {
		collectDirectives(dc, dc, pending, make(map[*ast.NamespaceDecl]bool))

		found := filterContext(dc, name, class)

		for _, ns := range pending[dc] {
			found = append(found, filterContext(ns.AsDeclContext(), name, class)...)
		}

		if len(found) > 0 {
			return reduce(found)
		}
	}

	return Result{}
}

// collectDirectives records the namespaces nominated by using-directives of
// dc, attributing each to the nearest context enclosing both the directive
// and the nominated namespace.  Directives inside nominated namespaces apply
// transitively.
func collectDirectives(dc, directiveCtx *ast.DeclContext, pending map[*ast.DeclContext][]*ast.NamespaceDecl, seen map[*ast.NamespaceDecl]bool) {
	for _, udd := range dc.UsingDirectives() {
		nom := udd.Nominated
		if nom == nil || seen[nom] {
			continue
		}
		seen[nom] = true

		at := commonEnclosing(directiveCtx, nom.AsDeclContext())
		pending[at] = append(pending[at], nom)

		collectDirectives(nom.AsDeclContext(), directiveCtx, pending, seen)
	}
}

// commonEnclosing returns the innermost context that encloses both a and b,
// including a itself.
func commonEnclosing(a, b *ast.DeclContext) *ast.DeclContext {
	for ca := a; ca != nil; ca = ca.Enclosing() {
		for cb := b; cb != nil; cb = cb.Enclosing() {
			if ca == cb {
				return ca
			}
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Qualified performs qualified name lookup in the given namespace or class
// context.  For a namespace, members of transitively nominated namespaces
// are searched only when the namespace itself has no member of the name, and
// results from distinct namespaces must agree on the entity or form an
// overload set.  Members of inline namespaces are visible as members of the
// enclosing namespace.
func Qualified(in *ast.DeclContext, name ast.DeclName, class NameClass) Result {
	if in.ContextKind() == ast.DCRecord {
		if rd, ok := in.Owner().(*ast.RecordDecl); ok {
			return Member(rd, name, class).Result
		}
	}

	found := namespaceDirect(in, name, class, make(map[*ast.DeclContext]bool))
	if len(found) > 0 {
		return reduce(found)
	}

	// Not found directly: take the union over nominated namespaces.
	visited := map[*ast.DeclContext]bool{in: true}
	found = qualifiedViaDirectives(in, name, class, visited)

	return reduce(found)
}

// namespaceDirect looks the name up in a namespace and, transitively, its
// inline member namespaces.
func namespaceDirect(in *ast.DeclContext, name ast.DeclName, class NameClass, seen map[*ast.DeclContext]bool) []ast.Decl {
	if seen[in] {
		return nil
	}
	seen[in] = true

	found := filterContext(in, name, class)

	for _, d := range in.Decls() {
		if nd, ok := d.(*ast.NamespaceDecl); ok && nd.Inline {
			found = append(found, namespaceDirect(nd.AsDeclContext(), name, class, seen)...)
		}
	}

	return found
}

func qualifiedViaDirectives(in *ast.DeclContext, name ast.DeclName, class NameClass, visited map[*ast.DeclContext]bool) []ast.Decl {
	var found []ast.Decl

	for _, udd := range in.UsingDirectives() {
		nom := udd.Nominated
		if nom == nil || visited[nom.AsDeclContext()] {
			continue
		}
		visited[nom.AsDeclContext()] = true

		direct := namespaceDirect(nom.AsDeclContext(), name, class, make(map[*ast.DeclContext]bool))
		if len(direct) > 0 {
			found = append(found, direct...)
			continue
		}

		found = append(found, qualifiedViaDirectives(nom.AsDeclContext(), name, class, visited)...)
	}

	return found
}

package lookup

import (
	"strings"

	"cfront/ast"
)

// MemberResult is the outcome of a class member lookup.
type MemberResult struct {
	Result

	// The class the winning declarations were found in.
	FoundIn *ast.RecordDecl

	// The member's access merged with the base-path access: the most
	// restrictive specifier encountered along the inheritance path.
	Access ast.AccessSpecifier

	// The length of the derived-to-base path to FoundIn, 0 when the member
	// was found in the class itself.
	PathLength int
}

// occurrence is one discovery of the name in a distinct base subobject.
type occurrence struct {
	decls  []ast.Decl
	in     *ast.RecordDecl
	token  string
	access ast.AccessSpecifier
	depth  int
}

// Member performs class member lookup: the class itself first, then its
// bases breadth-wise.  A name found in a derived class hides the same name
// in its bases.  A name found in two distinct base subobjects is ambiguous
// unless every found declaration is detached from the subobject (a static
// member, enumerator, or nested type) and all occurrences name the same
// entity, or the subobject is a shared virtual base.
func Member(rd *ast.RecordDecl, name ast.DeclName, class NameClass) MemberResult {
	def := rd.CanonicalRecord().Definition()
	if def == nil {
		return MemberResult{}
	}

	var occs []occurrence
	collectMembers(def, name, class, "", ast.ASPublic, 0, &occs, make(map[string]bool))

	if len(occs) == 0 {
		return MemberResult{}
	}

	best := occs[0]
	for _, occ := range occs[1:] {
		if occ.depth < best.depth {
			best = occ
		}
	}

	if len(occs) > 1 && !sameDetachedEntity(occs) {
		var all []ast.Decl
		for _, occ := range occs {
			all = append(all, occ.decls...)
		}

		return MemberResult{Result: Result{Decls: all, Ambiguous: true}, FoundIn: best.in}
	}

	return MemberResult{
		Result:     reduce(best.decls),
		FoundIn:    best.in,
		Access:     best.access,
		PathLength: best.depth,
	}
}

// collectMembers walks the inheritance lattice collecting occurrences of the
// name.  The token identifies the base subobject: virtual bases reset it so
// paths converging on a shared virtual base produce one occurrence.
func collectMembers(rd *ast.RecordDecl, name ast.DeclName, class NameClass, token string, access ast.AccessSpecifier, depth int, occs *[]occurrence, seen map[string]bool) {
	def := rd.CanonicalRecord().Definition()
	if def == nil {
		return
	}

	if found := filterContext(def.AsDeclContext(), name, class); len(found) > 0 {
		key := token + "#" + def.TagName()
		if seen[key] {
			return
		}
		seen[key] = true

		merged := access
		for _, d := range found {
			merged = restrictAccess(merged, d.Access())
		}

		*occs = append(*occs, occurrence{decls: found, in: def, token: token, access: merged, depth: depth})
		return
	}

	for _, b := range def.Bases {
		if b.Class == nil {
			continue
		}

		btoken := token + "/" + b.Class.TagName()
		if b.Virtual {
			btoken = "v:" + b.Class.CanonicalRecord().TagName()
		}

		collectMembers(b.Class, name, class, btoken, restrictAccess(access, b.Access), depth+1, occs, seen)
	}
}

// sameDetachedEntity reports whether multiple occurrences are permitted to
// coexist: every occurrence names the same entity set and none of the found
// declarations is bound to a particular subobject.
func sameDetachedEntity(occs []occurrence) bool {
	// Occurrences sharing a virtual-base token are the same subobject.
	tokens := make(map[string]bool)
	for _, occ := range occs {
		tokens[occ.token] = true
	}

	if len(tokens) == 1 && strings.HasPrefix(occs[0].token, "v:") {
		return true
	}

	if sameVirtualChain(occs) {
		return true
	}

	first := entitySet(occs[0].decls)
	for _, occ := range occs[1:] {
		if !sameEntitySet(first, entitySet(occ.decls)) {
			return false
		}
	}

	for _, occ := range occs {
		for _, d := range occ.decls {
			if !detachedFromSubobject(d) {
				return false
			}
		}
	}

	return true
}

func entitySet(decls []ast.Decl) map[ast.Decl]bool {
	set := make(map[ast.Decl]bool)
	for _, d := range decls {
		set[d.Canonical()] = true
	}

	return set
}

func sameEntitySet(a, b map[ast.Decl]bool) bool {
	if len(a) != len(b) {
		return false
	}

	for d := range a {
		if !b[d] {
			return false
		}
	}

	return true
}

// sameVirtualChain reports whether every occurrence names one virtual
// function and a single declaration among them overrides, directly or
// transitively, all the others.  Every path then reaches the same final
// overrider, so the occurrences are not ambiguous.
func sameVirtualChain(occs []occurrence) bool {
	var fns []*ast.FunctionDecl
	for _, occ := range occs {
		if len(occ.decls) != 1 {
			return false
		}

		fd, ok := ast.ResolveShadow(occ.decls[0]).(*ast.FunctionDecl)
		if !ok || !fd.Virtual {
			return false
		}

		fns = append(fns, fd)
	}

	for _, cand := range fns {
		if overridesAll(cand, fns) {
			return true
		}
	}

	return false
}

// overridesAll reports whether every function in the set lies on cand's
// override chain.
func overridesAll(cand *ast.FunctionDecl, fns []*ast.FunctionDecl) bool {
	chain := make(map[ast.Decl]bool)
	for fd := cand; fd != nil; fd = fd.Overrides {
		chain[fd.Canonical()] = true
	}

	for _, fd := range fns {
		if !chain[fd.Canonical()] {
			return false
		}
	}

	return true
}

// detachedFromSubobject reports whether a member declaration denotes the same
// entity regardless of which subobject it is reached through.
func detachedFromSubobject(d ast.Decl) bool {
	switch dd := d.(type) {
	case *ast.VarDecl:
		return dd.Storage == ast.SCStatic
	case *ast.FunctionDecl:
		return dd.Static
	case *ast.TypedefDecl, *ast.EnumConstantDecl, *ast.RecordDecl, *ast.EnumDecl:
		return true
	default:
		return false
	}
}

// restrictAccess merges two access specifiers, keeping the more restrictive.
func restrictAccess(a, b ast.AccessSpecifier) ast.AccessSpecifier {
	if b == ast.ASNone {
		return a
	}

	if a == ast.ASNone || b > a {
		return b
	}

	return a
}

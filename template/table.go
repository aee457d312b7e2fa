package template

import (
	"fmt"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"cfront/ast"
	"cfront/types"
)

// SpecEntry is one recorded specialization of a class template.
type SpecEntry struct {
	Args []types.TemplateArg
	Spec *ast.RecordDecl

	// Whether the entry is a user-written explicit specialization.
	Explicit bool

	// The partial specialization the entry instantiated from, nil for the
	// primary template or an explicit specialization.
	FromPartial *ast.PartialSpecDecl
}

// SpecTable records the specializations of one class template, keyed by
// canonical argument list.  Insertion order is preserved so diagnostics and
// the AST dump walk specializations deterministically.
type SpecTable struct {
	entries *linkedhashmap.Map
}

// NewSpecTable creates an empty specialization table.
func NewSpecTable() *SpecTable {
	return &SpecTable{entries: linkedhashmap.New()}
}

// Find returns the entry for an argument list, or nil.
func (st *SpecTable) Find(args []types.TemplateArg) *SpecEntry {
	if v, ok := st.entries.Get(specKey(args)); ok {
		return v.(*SpecEntry)
	}

	return nil
}

// Insert records a specialization for an argument list and returns its
// entry.
func (st *SpecTable) Insert(args []types.TemplateArg, spec *ast.RecordDecl) *SpecEntry {
	entry := &SpecEntry{Args: args, Spec: spec}
	st.entries.Put(specKey(args), entry)
	return entry
}

// Entries returns the table's entries in insertion order.
func (st *SpecTable) Entries() []*SpecEntry {
	var out []*SpecEntry
	for _, v := range st.entries.Values() {
		out = append(out, v.(*SpecEntry))
	}

	return out
}

// specKey renders the canonical identity of an argument list.  Canonical
// types are uniqued, so their pointer identity is a stable key component.
func specKey(args []types.TemplateArg) string {
	key := ""
	for _, a := range args {
		key += argKeyPart(a) + ";"
	}

	return key
}

func argKeyPart(a types.TemplateArg) string {
	switch a.Kind {
	case types.ArgType:
		return fmt.Sprintf("t%p", a.Type.Canonical())
	case types.ArgInt:
		return fmt.Sprintf("i%p:%d", a.Type.Canonical(), a.Int)
	case types.ArgTemplate:
		return fmt.Sprintf("m%p", a.Template.CanonicalTemplate())
	case types.ArgPack:
		return "p(" + specKey(a.Elems) + ")"
	default:
		return fmt.Sprintf("e%p", a.Expr)
	}
}

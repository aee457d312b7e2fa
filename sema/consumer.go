package sema

import (
	"fmt"
	"io"
	"strings"

	"cfront/ast"
	"cfront/types"
)

// Consumer observes the analyzed translation unit.  Consumers are notified
// once, after tentative definitions merge and deferred template bodies
// instantiate.
type Consumer interface {
	HandleTranslationUnit(tu *ast.TranslationUnit)
}

// ASTDumper is a consumer that writes an indented textual rendering of the
// declaration spine, useful for golden tests and compiler debugging.
type ASTDumper struct {
	Out io.Writer
}

// NewASTDumper creates a dumper writing to the given stream.
func NewASTDumper(out io.Writer) *ASTDumper {
	return &ASTDumper{Out: out}
}

// HandleTranslationUnit implements Consumer.
func (ad *ASTDumper) HandleTranslationUnit(tu *ast.TranslationUnit) {
	fmt.Fprintln(ad.Out, "TranslationUnit")
	for _, d := range tu.AsDeclContext().Decls() {
		ad.dumpDecl(d, 1)
	}
}

func (ad *ASTDumper) dumpDecl(d ast.Decl, depth int) {
	ind := strings.Repeat("  ", depth)

	switch dd := d.(type) {
	case *ast.VarDecl:
		fmt.Fprintf(ad.Out, "%sVarDecl %s %s", ind, dd.DeclName().String(), typeRepr(dd.Type))
		if dd.Constexpr {
			fmt.Fprint(ad.Out, " constexpr")
		}
		if dd.Tentative {
			fmt.Fprint(ad.Out, " tentative")
		}
		fmt.Fprintln(ad.Out)

	case *ast.FunctionDecl:
		fmt.Fprintf(ad.Out, "%sFunctionDecl %s %s", ind, dd.DeclName().String(), typeRepr(dd.Type))
		if dd.Virtual {
			fmt.Fprint(ad.Out, " virtual")
		}
		if dd.Deleted {
			fmt.Fprint(ad.Out, " deleted")
		}
		if dd.Body != nil {
			fmt.Fprint(ad.Out, " definition")
		}
		fmt.Fprintln(ad.Out)

	case *ast.RecordDecl:
		fmt.Fprintf(ad.Out, "%sRecordDecl %s", ind, dd.DeclName().String())
		if dd.DefinitionComplete() {
			fmt.Fprintf(ad.Out, " size=%d align=%d", dd.LayoutSize, dd.LayoutAlign)
		}
		fmt.Fprintln(ad.Out)

		if dd.Definition() == dd {
			for _, m := range dd.AsDeclContext().Decls() {
				ad.dumpDecl(m, depth+1)
			}
		}

	case *ast.EnumDecl:
		fmt.Fprintf(ad.Out, "%sEnumDecl %s\n", ind, dd.DeclName().String())
		for _, m := range dd.AsDeclContext().Decls() {
			ad.dumpDecl(m, depth+1)
		}

	case *ast.EnumConstantDecl:
		fmt.Fprintf(ad.Out, "%sEnumConstantDecl %s = %d\n", ind, dd.DeclName().String(), dd.Value)

	case *ast.NamespaceDecl:
		fmt.Fprintf(ad.Out, "%sNamespaceDecl %s\n", ind, dd.DeclName().String())
		for _, m := range dd.AsDeclContext().Decls() {
			ad.dumpDecl(m, depth+1)
		}

	case *ast.TypedefDecl:
		fmt.Fprintf(ad.Out, "%sTypedefDecl %s = %s\n", ind, dd.DeclName().String(), typeRepr(dd.Under))

	case *ast.FieldDecl:
		fmt.Fprintf(ad.Out, "%sFieldDecl %s %s offset=%d\n", ind, dd.DeclName().String(), typeRepr(dd.Type), dd.Offset)

	case *ast.ClassTemplateDecl:
		fmt.Fprintf(ad.Out, "%sClassTemplateDecl %s params=%d partials=%d\n",
			ind, dd.TemplateName(), len(dd.Params), len(dd.Partials))

	case *ast.FunctionTemplateDecl:
		fmt.Fprintf(ad.Out, "%sFunctionTemplateDecl %s params=%d\n", ind, dd.TemplateName(), len(dd.Params))

	default:
		fmt.Fprintf(ad.Out, "%s%T %s\n", ind, d, d.DeclName().String())
	}
}

func typeRepr(t types.Type) string {
	if t == nil {
		return "<nil>"
	}

	return t.Repr()
}

package handler

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every exported gin handler method carries a swag block with a route.
func TestHandlers_HaveRouteAnnotations(t *testing.T) {
	paths, err := filepath.Glob("*.go")
	require.NoError(t, err)

	fset := token.NewFileSet()
	checked := 0
	for _, path := range paths {
		if strings.HasSuffix(path, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		require.NoError(t, err)

		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || !fn.Name.IsExported() || !isGinHandler(fn) || receiverName(fn) == "BaseHandler" {
				continue
			}
			checked++
			doc := ""
			if fn.Doc != nil {
				doc = fn.Doc.Text()
			}
			assert.Contains(t, doc, "@Summary", "%s.%s", receiverName(fn), fn.Name.Name)
			assert.Contains(t, doc, "@Router", "%s.%s", receiverName(fn), fn.Name.Name)
		}
	}
	assert.Greater(t, checked, 20)
}

func receiverName(fn *ast.FuncDecl) string {
	t := fn.Recv.List[0].Type
	if star, ok := t.(*ast.StarExpr); ok {
		t = star.X
	}
	if id, ok := t.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

func isGinHandler(fn *ast.FuncDecl) bool {
	params := fn.Type.Params.List
	if len(params) != 1 || fn.Type.Results != nil {
		return false
	}
	star, ok := params[0].Type.(*ast.StarExpr)
	if !ok {
		return false
	}
	sel, ok := star.X.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	return ok && pkg.Name == "gin" && sel.Sel.Name == "Context"
}

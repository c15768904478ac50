package eval

import (
	"go/ast"
	"go/parser"

	"github.com/pkg/errors"
)

// literalIdents are bare identifiers the grammar treats as literals rather
// than free variables (spec §9, adapted from True/False/None to Go's
// true/false/nil spelling).
var literalIdents = map[string]bool{"true": true, "false": true, "nil": true}

// freeIdentifiers parses expr and returns the set of identifiers that are
// neither literal keywords nor (when builtins is non-nil) native built-in
// function names, per spec §4.3's name-resolution pre-step.
func freeIdentifiers(expr string, builtins map[string]bool) (map[string]bool, error) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "eval: parse %q", expr)
	}

	names := make(map[string]bool)
	ast.Inspect(node, func(n ast.Node) bool {
		ident, ok := n.(*ast.Ident)
		if !ok {
			return true
		}
		if literalIdents[ident.Name] {
			return true
		}
		if builtins != nil && builtins[ident.Name] {
			return true
		}
		names[ident.Name] = true
		return true
	})
	return names, nil
}

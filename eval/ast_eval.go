package eval

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"

	"github.com/pkg/errors"

	"github.com/coldtable/coldtable/internal/xerrors"
)

// evalAST parses expr as a Go expression and evaluates it against env,
// shared by both the native and host backends (spec §4.3 treats the two
// backends as distinct external collaborators; this reference
// implementation gives both the same operator semantics and differs only
// in name-resolution strictness and concurrency, per backend.go).
func evalAST(expr string, env map[string]value) (value, error) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return value{}, errors.Wrapf(err, "eval: parse %q", expr)
	}
	return evalNode(node, env)
}

func evalNode(n ast.Expr, env map[string]value) (value, error) {
	switch e := n.(type) {
	case *ast.ParenExpr:
		return evalNode(e.X, env)

	case *ast.Ident:
		switch e.Name {
		case "true":
			return scalarBool(true), nil
		case "false":
			return scalarBool(false), nil
		}
		v, ok := env[e.Name]
		if !ok {
			return value{}, errors.WithStack(&xerrors.UnknownNameError{Name: e.Name})
		}
		return v, nil

	case *ast.BasicLit:
		switch e.Kind {
		case token.INT:
			x, err := strconv.ParseInt(e.Value, 10, 64)
			if err != nil {
				return value{}, errors.Wrapf(err, "eval: literal %q", e.Value)
			}
			return scalarInt(x), nil
		case token.FLOAT:
			x, err := strconv.ParseFloat(e.Value, 64)
			if err != nil {
				return value{}, errors.Wrapf(err, "eval: literal %q", e.Value)
			}
			return scalarFloat(x), nil
		default:
			return value{}, errors.Errorf("eval: unsupported literal %q", e.Value)
		}

	case *ast.UnaryExpr:
		x, err := evalNode(e.X, env)
		if err != nil {
			return value{}, err
		}
		switch e.Op {
		case token.SUB:
			return negate(x), nil
		case token.NOT:
			return not(x), nil
		case token.ADD:
			return x, nil
		default:
			return value{}, errors.Errorf("eval: unsupported unary operator %s", e.Op)
		}

	case *ast.BinaryExpr:
		l, err := evalNode(e.X, env)
		if err != nil {
			return value{}, err
		}
		r, err := evalNode(e.Y, env)
		if err != nil {
			return value{}, err
		}
		return evalBinary(e.Op, l, r)

	default:
		return value{}, errors.Errorf("eval: unsupported expression node %T", n)
	}
}

func evalBinary(op token.Token, l, r value) (value, error) {
	switch op {
	case token.ADD:
		return arith("+", l, r)
	case token.SUB:
		return arith("-", l, r)
	case token.MUL:
		return arith("*", l, r)
	case token.QUO:
		return arith("/", l, r)
	case token.REM:
		return arith("%", l, r)
	case token.LSS:
		return compare("<", l, r)
	case token.LEQ:
		return compare("<=", l, r)
	case token.GTR:
		return compare(">", l, r)
	case token.GEQ:
		return compare(">=", l, r)
	case token.EQL:
		return compare("==", l, r)
	case token.NEQ:
		return compare("!=", l, r)
	case token.LAND:
		return logical("&&", l, r)
	case token.LOR:
		return logical("||", l, r)
	default:
		return value{}, errors.Errorf("eval: unsupported binary operator %s", op)
	}
}

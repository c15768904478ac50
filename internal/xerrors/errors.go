// Package xerrors defines the typed error kinds coldtable's public
// operations can return (spec §7). Each kind is a small struct satisfying
// the error interface plus an Is<Kind> helper built on errors.As, the same
// shape as restic's checker.PackError / IsOrphanedPack. Use
// github.com/pkg/errors (Wrap, Errorf) to attach context and a stack trace
// when returning one of these from a public operation.
package xerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// OutOfRangeError: index or trim count beyond bounds.
type OutOfRangeError struct {
	Op    string
	Index int
	Len   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s: index %d out of range for length %d", e.Op, e.Index, e.Len)
}

func IsOutOfRange(err error) bool {
	var e *OutOfRangeError
	return errors.As(err, &e)
}

// TypeMismatchError: operand dtype disagrees with the target.
type TypeMismatchError struct {
	Op       string
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: type mismatch: expected %s, got %s", e.Op, e.Expected, e.Got)
}

func IsTypeMismatch(err error) bool {
	var e *TypeMismatchError
	return errors.As(err, &e)
}

// ShapeMismatchError: operand trailing shape disagrees with the target.
type ShapeMismatchError struct {
	Op       string
	Expected int
	Got      int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: shape mismatch: expected item size %d, got %d", e.Op, e.Expected, e.Got)
}

func IsShapeMismatch(err error) bool {
	var e *ShapeMismatchError
	return errors.As(err, &e)
}

// LengthMismatchError: operands of unequal length in an expression or table
// construction.
type LengthMismatchError struct {
	Op   string
	Name string
	Want int
	Got  int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("%s: length mismatch for %q: want %d, got %d", e.Op, e.Name, e.Want, e.Got)
}

func IsLengthMismatch(err error) bool {
	var e *LengthMismatchError
	return errors.As(err, &e)
}

// InvalidKeyError: key is neither a column name nor a boolean-producing
// expression.
type InvalidKeyError struct {
	Key string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid key %q: not a column name or boolean expression", e.Key)
}

func IsInvalidKey(err error) bool {
	var e *InvalidKeyError
	return errors.As(err, &e)
}

// DuplicateColumnError: column name collision.
type DuplicateColumnError struct {
	Name string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("duplicate column %q", e.Name)
}

func IsDuplicateColumn(err error) bool {
	var e *DuplicateColumnError
	return errors.As(err, &e)
}

// UnknownColumnError: column name lookup miss.
type UnknownColumnError struct {
	Name string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Name)
}

func IsUnknownColumn(err error) bool {
	var e *UnknownColumnError
	return errors.As(err, &e)
}

// UnknownNameError: an expression references an unresolvable identifier
// (native backend only).
type UnknownNameError struct {
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("unknown name %q", e.Name)
}

func IsUnknownName(err error) bool {
	var e *UnknownNameError
	return errors.As(err, &e)
}

// UnsupportedTypeError: unsupported dtype in the native backend.
type UnsupportedTypeError struct {
	Name string
	Kind string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported type for %q: %s", e.Name, e.Kind)
}

func IsUnsupportedType(err error) bool {
	var e *UnsupportedTypeError
	return errors.As(err, &e)
}

// UnsupportedOperandError: operand has a length but no dtype.
type UnsupportedOperandError struct {
	Name string
}

func (e *UnsupportedOperandError) Error() string {
	return fmt.Sprintf("unsupported operand %q: has length but no dtype", e.Name)
}

func IsUnsupportedOperand(err error) bool {
	var e *UnsupportedOperandError
	return errors.As(err, &e)
}

// ReductionNotSupportedError: block backend produced a lower-rank result
// than its inputs.
type ReductionNotSupportedError struct {
	Expression string
}

func (e *ReductionNotSupportedError) Error() string {
	return fmt.Sprintf("reduction not supported in expression %q", e.Expression)
}

func IsReductionNotSupported(err error) bool {
	var e *ReductionNotSupportedError
	return errors.As(err, &e)
}

// InvalidConfigError: clevel out of range, bad vm/out_flavor, bad step, ...
type InvalidConfigError struct {
	Field string
	Value interface{}
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s=%v", e.Field, e.Value)
}

func IsInvalidConfig(err error) bool {
	var e *InvalidConfigError
	return errors.As(err, &e)
}

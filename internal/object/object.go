package object

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	VOID_OBJ                = "VOID"
	NUMBER_OBJ              = "NUMBER"
	BOOLEAN_OBJ             = "BOOLEAN"
	STRING_OBJ              = "STRING"
	PATH_OBJ                = "PATH"
	RANGE_OBJ               = "RANGE"
	VEC_OBJ                 = "VEC"
	CLOSURE_OBJ             = "CLOSURE"
	EXECUTE_RESULT_OBJ      = "EXECUTE_RESULT"
	BINARY_OPERATOR_OBJ     = "BINARY_OPERATOR"
	COMPARISON_OPERATOR_OBJ = "COMPARISON_OPERATOR"
	SKIPPED_OBJ             = "SKIPPED"
)

var (
	VOID    = &Void{}
	TRUE    = &Boolean{Value: true}
	FALSE   = &Boolean{Value: false}
	SKIPPED = &Skipped{}
)

type ObjectType string

// Object is a runtime value. The set of implementations is closed.
type Object interface {
	Type() ObjectType
	Inspect() string
}

type Void struct{}

func (v *Void) Type() ObjectType { return VOID_OBJ }
func (v *Void) Inspect() string  { return "void" }

type Number struct {
	Value float64
}

func (n *Number) Type() ObjectType { return NUMBER_OBJ }
func (n *Number) Inspect() string  { return strconv.FormatFloat(n.Value, 'f', -1, 64) }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

type Path struct {
	Value string
}

func (p *Path) Type() ObjectType { return PATH_OBJ }
func (p *Path) Inspect() string  { return p.Value }

// Range is inclusive on both ends.
type Range struct {
	From int
	To   int
}

func (r *Range) Type() ObjectType { return RANGE_OBJ }
func (r *Range) Inspect() string  { return fmt.Sprintf("%d..%d", r.From, r.To) }

// Len is the number of values the range yields.
func (r *Range) Len() int {
	if r.To >= r.From {
		return r.To - r.From + 1
	}
	return r.From - r.To + 1
}

// At returns the i-th value, walking downward when To < From.
func (r *Range) At(i int) int {
	if r.To >= r.From {
		return r.From + i
	}
	return r.From - i
}

type Vec struct {
	Elements []Object
}

func (v *Vec) Type() ObjectType { return VEC_OBJ }
func (v *Vec) Inspect() string {
	parts := make([]string, len(v.Elements))
	for i, el := range v.Elements {
		parts[i] = el.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Closure references a closure body registered in the function store.
type Closure struct {
	Uuid uuid.UUID
}

func (c *Closure) Type() ObjectType { return CLOSURE_OBJ }
func (c *Closure) Inspect() string  { return "closure:" + c.Uuid.String() }

type ExecStatus int

const (
	ExecSuccess ExecStatus = iota
	ExecFailed
	ExecRunError
)

// ExecuteResult is the outcome of spawning an OS process.
type ExecuteResult struct {
	Status  ExecStatus
	Code    int
	Message string
}

func Success() *ExecuteResult            { return &ExecuteResult{Status: ExecSuccess} }
func Failed(code int) *ExecuteResult     { return &ExecuteResult{Status: ExecFailed, Code: code} }
func RunError(msg string) *ExecuteResult { return &ExecuteResult{Status: ExecRunError, Message: msg} }

func (e *ExecuteResult) Type() ObjectType { return EXECUTE_RESULT_OBJ }
func (e *ExecuteResult) IsSuccess() bool  { return e.Status == ExecSuccess }

// Executed reports whether the process was started at all.
func (e *ExecuteResult) Executed() bool { return e.Status != ExecRunError }

func (e *ExecuteResult) Inspect() string {
	switch e.Status {
	case ExecSuccess:
		return "success"
	case ExecFailed:
		return fmt.Sprintf("failed(%d)", e.Code)
	default:
		return fmt.Sprintf("run_error(%s)", e.Message)
	}
}

type BinOp string

const (
	OpAdd BinOp = "+"
	OpSub BinOp = "-"
	OpMul BinOp = "*"
	OpDiv BinOp = "/"
)

// ParseBinOp accepts the arithmetic operator tokens.
func ParseBinOp(s string) (BinOp, bool) {
	switch op := BinOp(s); op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return op, true
	}
	return "", false
}

type BinaryOperator struct {
	Op BinOp
}

func (b *BinaryOperator) Type() ObjectType { return BINARY_OPERATOR_OBJ }
func (b *BinaryOperator) Inspect() string  { return string(b.Op) }

type CmpOp string

const (
	OpEq  CmpOp = "=="
	OpNeq CmpOp = "!="
	OpLt  CmpOp = "<"
	OpGt  CmpOp = ">"
	OpLte CmpOp = "<="
	OpGte CmpOp = ">="
)

// ParseCmpOp accepts the comparison operator tokens.
func ParseCmpOp(s string) (CmpOp, bool) {
	switch op := CmpOp(s); op {
	case OpEq, OpNeq, OpLt, OpGt, OpLte, OpGte:
		return op, true
	}
	return "", false
}

type ComparisonOperator struct {
	Op CmpOp
}

func (c *ComparisonOperator) Type() ObjectType { return COMPARISON_OPERATOR_OBJ }
func (c *ComparisonOperator) Inspect() string  { return string(c.Op) }

// Skipped is what a task yields when a gatekeeper turned it off.
type Skipped struct{}

func (s *Skipped) Type() ObjectType { return SKIPPED_OBJ }
func (s *Skipped) Inspect() string  { return "skipped" }

func NativeBool(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

func Num(v float64) *Number     { return &Number{Value: v} }
func Str(v string) *String      { return &String{Value: v} }
func NewVec(els ...Object) *Vec { return &Vec{Elements: els} }
func NewPath(v string) *Path    { return &Path{Value: v} }

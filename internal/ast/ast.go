package ast

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// SrcLink points back into the script source that produced a node.
type SrcLink struct {
	File string `json:"file,omitempty"`
	From int    `json:"from"`
	To   int    `json:"to"`
}

func (l SrcLink) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d..%d", l.From, l.To)
	}
	return fmt.Sprintf("%s:%d..%d", l.File, l.From, l.To)
}

// Meta is carried by every node: identity, source position and the postfix
// chain (calls and accessors) applied to the node's value.
type Meta struct {
	Uuid uuid.UUID
	Link SrcLink
	Ppm  []Node
}

func (m *Meta) Md() *Meta { return m }

// The base Node interface
type Node interface {
	Md() *Meta
	String() string
}

type Root interface {
	Node
	rootNode()
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

type Value interface {
	Node
	valueNode()
}

type Declaration interface {
	Node
	declarationNode()
}

// Ty is a type annotation produced by the semantic pass. Only a handful of
// them matter at run time.
type Ty string

const (
	TyClosure Ty = "closure"
	TyNum     Ty = "num"
	TyStr     Ty = "str"
	TyBool    Ty = "bool"
	TyPath    Ty = "path"
	TyVec     Ty = "vec"
	TyResult  Ty = "result"
)

// Anchor is the root of a decoded script.
type Anchor struct {
	Meta
	Sources    map[string]string
	Types      map[uuid.UUID]Ty
	Functions  []*FunctionDeclaration
	Components []*Component
}

func (a *Anchor) rootNode() {}
func (a *Anchor) String() string {
	var out bytes.Buffer
	for _, f := range a.Functions {
		out.WriteString(f.String())
		out.WriteString("\n")
	}
	for _, c := range a.Components {
		out.WriteString(c.String())
		out.WriteString("\n")
	}
	return out.String()
}

// Component returns the component with the given name.
func (a *Anchor) Component(name string) (*Component, bool) {
	for _, c := range a.Components {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

type Component struct {
	Meta
	Name  string
	Cwd   string
	Tasks []*Task
}

func (c *Component) rootNode() {}
func (c *Component) String() string {
	var out bytes.Buffer
	out.WriteString("#[" + c.Name)
	if c.Cwd != "" {
		out.WriteString("(" + c.Cwd + ")")
	}
	out.WriteString("]\n")
	for _, t := range c.Tasks {
		out.WriteString(t.String())
		out.WriteString("\n")
	}
	return out.String()
}

func (c *Component) Task(name string) (*Task, bool) {
	for _, t := range c.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

type Task struct {
	Meta
	Name         string
	Public       bool
	Args         []*ArgumentDeclaration
	Gatekeepers  []*Gatekeeper
	Dependencies []*TaskCall
	Block        *Block
}

func (t *Task) rootNode() {}
func (t *Task) String() string {
	var out bytes.Buffer
	for _, g := range t.Gatekeepers {
		out.WriteString(g.String())
		out.WriteString("\n")
	}
	if t.Public {
		out.WriteString("pub ")
	}
	out.WriteString("task " + t.Name + "(" + joinNodes(argNodes(t.Args), ", ") + ")")
	if len(t.Dependencies) > 0 {
		deps := make([]string, 0, len(t.Dependencies))
		for _, d := range t.Dependencies {
			deps = append(deps, d.String())
		}
		out.WriteString(" -> (" + strings.Join(deps, ", ") + ")")
	}
	if t.Block != nil {
		out.WriteString(" " + t.Block.String())
	}
	return out.String()
}

// RefArg is one positional pattern of a gatekeeper task reference. Any
// matches every value.
type RefArg struct {
	Any   bool   `json:"any,omitempty"`
	Value string `json:"value,omitempty"`
}

func (r RefArg) String() string {
	if r.Any {
		return "*"
	}
	return r.Value
}

// TaskRef restricts a gatekeeper to calls whose arguments match Args.
type TaskRef struct {
	Args []RefArg `json:"args"`
}

type Gatekeeper struct {
	Meta
	Predicate *FunctionCall
	Refs      []TaskRef
}

func (g *Gatekeeper) rootNode() {}
func (g *Gatekeeper) String() string {
	var out bytes.Buffer
	out.WriteString("#[")
	if g.Predicate != nil {
		out.WriteString(g.Predicate.String())
	}
	for _, r := range g.Refs {
		parts := make([]string, 0, len(r.Args))
		for _, a := range r.Args {
			parts = append(parts, a.String())
		}
		out.WriteString("; (" + strings.Join(parts, ", ") + ")")
	}
	out.WriteString("]")
	return out.String()
}

// Statements

type Block struct {
	Meta
	Nodes []Node
}

func (b *Block) statementNode() {}
func (b *Block) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, n := range b.Nodes {
		out.WriteString(n.String())
		out.WriteString("; ")
	}
	out.WriteString("}")
	return out.String()
}

// IfCase is a condition and its block. A nil Cond is the else branch.
type IfCase struct {
	Cond  Node
	Block *Block
}

type If struct {
	Meta
	Cases []IfCase
}

func (i *If) statementNode() {}
func (i *If) String() string {
	var out bytes.Buffer
	for n, c := range i.Cases {
		if n > 0 {
			out.WriteString(" else ")
		}
		if c.Cond != nil {
			out.WriteString("if " + c.Cond.String() + " ")
		}
		out.WriteString(c.Block.String())
	}
	return out.String()
}

type For struct {
	Meta
	Element string
	Index   string
	Source  Node
	Block   *Block
}

func (f *For) statementNode() {}
func (f *For) String() string {
	names := f.Element
	if f.Index != "" {
		names = "(" + f.Element + ", " + f.Index + ")"
	}
	return "for " + names + " in " + f.Source.String() + " " + f.Block.String()
}

type While struct {
	Meta
	Cond  Node
	Block *Block
}

func (w *While) statementNode() {}
func (w *While) String() string { return "while " + w.Cond.String() + " " + w.Block.String() }

type Loop struct {
	Meta
	Block *Block
}

func (l *Loop) statementNode() {}
func (l *Loop) String() string { return "loop " + l.Block.String() }

type Return struct {
	Meta
	Value Node
}

func (r *Return) statementNode() {}
func (r *Return) String() string {
	if r.Value == nil {
		return "return"
	}
	return "return " + r.Value.String()
}

// Break targets the innermost loop unless Target names one explicitly.
type Break struct {
	Meta
	Target *uuid.UUID
}

func (b *Break) statementNode() {}
func (b *Break) String() string { return "break" }

type Assignation struct {
	Meta
	Name   string
	Global bool
	Value  Node
}

func (a *Assignation) statementNode() {}
func (a *Assignation) String() string {
	prefix := ""
	if a.Global {
		prefix = "global "
	}
	return prefix + a.Name + " = " + a.Value.String()
}

type Join struct {
	Meta
	Members []Node
}

func (j *Join) statementNode() {}
func (j *Join) String() string { return "join (" + joinNodes(j.Members, ", ") + ")" }

type OneOf struct {
	Meta
	Members []Node
}

func (o *OneOf) statementNode() {}
func (o *OneOf) String() string { return "oneof (" + joinNodes(o.Members, ", ") + ")" }

type Optional struct {
	Meta
	Cond   Node
	Action Node
}

func (o *Optional) statementNode() {}
func (o *Optional) String() string { return o.Cond.String() + " => " + o.Action.String() }

// Expressions

type Variable struct {
	Meta
	Name    string
	Negated bool
}

func (v *Variable) expressionNode() {}
func (v *Variable) String() string {
	if v.Negated {
		return "!" + v.Name
	}
	return v.Name
}

// BinaryExpSeq is a flat operand/operator list folded left to right.
type BinaryExpSeq struct {
	Meta
	Nodes []Node
}

func (b *BinaryExpSeq) expressionNode() {}
func (b *BinaryExpSeq) String() string  { return joinNodes(b.Nodes, " ") }

type BinaryExpGroup struct {
	Meta
	Node Node
}

func (b *BinaryExpGroup) expressionNode() {}
func (b *BinaryExpGroup) String() string  { return "(" + b.Node.String() + ")" }

type BinaryOp struct {
	Meta
	Op string
}

func (b *BinaryOp) expressionNode() {}
func (b *BinaryOp) String() string  { return b.Op }

// ComparisonSeq alternates comparisons and logical operators.
type ComparisonSeq struct {
	Meta
	Nodes []Node
}

func (c *ComparisonSeq) expressionNode() {}
func (c *ComparisonSeq) String() string  { return joinNodes(c.Nodes, " ") }

type ComparisonGroup struct {
	Meta
	Node    Node
	Negated bool
}

func (c *ComparisonGroup) expressionNode() {}
func (c *ComparisonGroup) String() string {
	s := "(" + c.Node.String() + ")"
	if c.Negated {
		return "!" + s
	}
	return s
}

type Comparison struct {
	Meta
	Left  Node
	Op    Node
	Right Node
}

func (c *Comparison) expressionNode() {}
func (c *Comparison) String() string {
	return c.Left.String() + " " + c.Op.String() + " " + c.Right.String()
}

type ComparisonOp struct {
	Meta
	Op string
}

func (c *ComparisonOp) expressionNode() {}
func (c *ComparisonOp) String() string  { return c.Op }

type LogicalOp struct {
	Meta
	Op string // "&&" or "||"
}

func (l *LogicalOp) expressionNode() {}
func (l *LogicalOp) String() string  { return l.Op }

type CompoundAssignment struct {
	Meta
	Name  string
	Op    string // "+=", "-=", "*=", "/="
	Value Node
}

func (c *CompoundAssignment) expressionNode() {}
func (c *CompoundAssignment) String() string {
	return c.Name + " " + c.Op + " " + c.Value.String()
}

type FunctionCall struct {
	Meta
	Name    string
	Args    []Node
	Negated bool
}

func (f *FunctionCall) expressionNode() {}
func (f *FunctionCall) String() string {
	s := f.Name + "(" + joinNodes(f.Args, ", ") + ")"
	if f.Negated {
		return "!" + s
	}
	return s
}

// TaskCall references a task as component:task. An empty Component means
// the caller's own component.
type TaskCall struct {
	Meta
	Component string
	Task      string
	Args      []Node
}

func (t *TaskCall) expressionNode() {}
func (t *TaskCall) String() string {
	return ":" + t.Ref() + "(" + joinNodes(t.Args, ", ") + ")"
}

func (t *TaskCall) Ref() string {
	if t.Component == "" {
		return t.Task
	}
	return t.Component + ":" + t.Task
}

// Command is a shell command whose parts are concatenated before spawning.
type Command struct {
	Meta
	Parts []Node
}

func (c *Command) expressionNode() {}
func (c *Command) String() string {
	var out bytes.Buffer
	out.WriteString("`")
	for _, p := range c.Parts {
		if s, ok := p.(*PrimitiveString); ok {
			out.WriteString(s.Value)
			continue
		}
		out.WriteString("{" + p.String() + "}")
	}
	out.WriteString("`")
	return out.String()
}

type Accessor struct {
	Meta
	Index Node
}

func (a *Accessor) expressionNode() {}
func (a *Accessor) String() string  { return "[" + a.Index.String() + "]" }

type Range struct {
	Meta
	From int
	To   int
}

func (r *Range) expressionNode() {}
func (r *Range) String() string  { return strconv.Itoa(r.From) + ".." + strconv.Itoa(r.To) }

// Values

type Number struct {
	Meta
	Value float64
}

func (n *Number) valueNode()     {}
func (n *Number) String() string { return strconv.FormatFloat(n.Value, 'f', -1, 64) }

type Boolean struct {
	Meta
	Value bool
}

func (b *Boolean) valueNode()     {}
func (b *Boolean) String() string { return strconv.FormatBool(b.Value) }

type PrimitiveString struct {
	Meta
	Value string
}

func (p *PrimitiveString) valueNode()     {}
func (p *PrimitiveString) String() string { return strconv.Quote(p.Value) }

type InterpolatedString struct {
	Meta
	Parts []Node
}

func (i *InterpolatedString) valueNode() {}
func (i *InterpolatedString) String() string {
	var out bytes.Buffer
	out.WriteString("'")
	for _, p := range i.Parts {
		if s, ok := p.(*PrimitiveString); ok {
			out.WriteString(s.Value)
			continue
		}
		out.WriteString("{" + p.String() + "}")
	}
	out.WriteString("'")
	return out.String()
}

type Array struct {
	Meta
	Items []Node
}

func (a *Array) valueNode()     {}
func (a *Array) String() string { return "[" + joinNodes(a.Items, ", ") + "]" }

// Declarations

type VariableDeclaration struct {
	Meta
	Name  string
	Value Node
}

func (v *VariableDeclaration) declarationNode() {}
func (v *VariableDeclaration) String() string {
	if v.Value == nil {
		return "let " + v.Name
	}
	return "let " + v.Name + " = " + v.Value.String()
}

type ArgumentDeclaration struct {
	Meta
	Name string
	Ty   Ty
}

func (a *ArgumentDeclaration) declarationNode() {}
func (a *ArgumentDeclaration) String() string {
	if a.Ty == "" {
		return a.Name
	}
	return a.Name + ": " + string(a.Ty)
}

type FunctionDeclaration struct {
	Meta
	Name  string
	Args  []*ArgumentDeclaration
	Block *Block
}

func (f *FunctionDeclaration) declarationNode() {}
func (f *FunctionDeclaration) String() string {
	return "fn " + f.Name + "(" + joinNodes(argNodes(f.Args), ", ") + ") " + f.Block.String()
}

type ClosureDeclaration struct {
	Meta
	Args  []*ArgumentDeclaration
	Block *Block
}

func (c *ClosureDeclaration) declarationNode() {}
func (c *ClosureDeclaration) String() string {
	return "|" + joinNodes(argNodes(c.Args), ", ") + "| " + c.Block.String()
}

func joinNodes(nodes []Node, sep string) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, n.String())
	}
	return strings.Join(parts, sep)
}

func argNodes(args []*ArgumentDeclaration) []Node {
	nodes := make([]Node, len(args))
	for i, a := range args {
		nodes[i] = a
	}
	return nodes
}

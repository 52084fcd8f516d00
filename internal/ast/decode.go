package ast

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrInvalidDocument = errors.New("invalid script document")
	ErrMalformedNode   = errors.New("malformed node")
)

//go:embed anchor.schema.json
var anchorSchema string

const anchorSchemaURL = "schema://brisk/anchor.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(anchorSchemaURL, strings.NewReader(anchorSchema)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile(anchorSchemaURL)
	})
	return schema, schemaErr
}

// Load reads a script document from disk. Files ending in .cbor are decoded
// as CBOR, everything else as JSON.
func Load(path string) (*Anchor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		return DecodeCBOR(data)
	}
	return Decode(data)
}

// DecodeCBOR converts a CBOR document into its JSON form and decodes it.
func DecodeCBOR(data []byte) (*Anchor, error) {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR decoder: %w", err)
	}
	var doc any
	if err := dm.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	text, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return Decode(text)
}

// Decode validates a JSON script document against the embedded schema and
// builds the node tree.
func Decode(data []byte) (*Anchor, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	sch, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile document schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	var env struct {
		Sources    map[string]string `json:"sources"`
		Types      map[string]Ty     `json:"types"`
		Functions  []json.RawMessage `json:"functions"`
		Components []json.RawMessage `json:"components"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	anchor := &Anchor{
		Meta:    Meta{Uuid: uuid.New()},
		Sources: env.Sources,
		Types:   make(map[uuid.UUID]Ty, len(env.Types)),
	}
	for key, ty := range env.Types {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("%w: type table key %q: %v", ErrInvalidDocument, key, err)
		}
		anchor.Types[id] = ty
	}

	d := &decoder{}
	for _, raw := range env.Functions {
		if fn, ok := typed[*FunctionDeclaration](d, d.decode(raw), "functions"); ok {
			anchor.Functions = append(anchor.Functions, fn)
		}
	}
	for _, raw := range env.Components {
		if c, ok := typed[*Component](d, d.decode(raw), "components"); ok {
			anchor.Components = append(anchor.Components, c)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return anchor, nil
}

// DecodeNode decodes a single node without the document envelope.
func DecodeNode(data []byte) (Node, error) {
	d := &decoder{}
	n := d.decode(data)
	if d.err != nil {
		return nil, d.err
	}
	if n == nil {
		return nil, fmt.Errorf("%w: empty node", ErrMalformedNode)
	}
	return n, nil
}

type rawNode map[string]json.RawMessage

// decoder keeps the first error and turns every later call into a no-op.
type decoder struct {
	err   error
	trail []string
}

func (d *decoder) fail(format string, args ...any) {
	if d.err != nil {
		return
	}
	where := strings.Join(d.trail, " > ")
	d.err = fmt.Errorf("%w: %s: %s", ErrMalformedNode, where, fmt.Sprintf(format, args...))
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func (d *decoder) scalar(r rawNode, key string, dst any) {
	raw, ok := r[key]
	if d.err != nil || !ok || isNull(raw) {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		d.fail("field %q: %v", key, err)
	}
}

func (d *decoder) child(r rawNode, key string) Node {
	if d.err != nil {
		return nil
	}
	return d.decode(r[key])
}

func (d *decoder) required(r rawNode, key string) Node {
	n := d.child(r, key)
	if n == nil {
		d.fail("missing field %q", key)
	}
	return n
}

func (d *decoder) children(r rawNode, key string) []Node {
	raw, ok := r[key]
	if d.err != nil || !ok || isNull(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		d.fail("field %q: %v", key, err)
		return nil
	}
	nodes := make([]Node, 0, len(items))
	for _, item := range items {
		n := d.decode(item)
		if n == nil {
			d.fail("null entry in %q", key)
			return nil
		}
		nodes = append(nodes, n)
	}
	return nodes
}

func typed[T Node](d *decoder, n Node, key string) (T, bool) {
	var zero T
	if d.err != nil || n == nil {
		return zero, false
	}
	t, ok := n.(T)
	if !ok {
		d.fail("field %q: unexpected node %T", key, n)
		return zero, false
	}
	return t, true
}

func typedList[T Node](d *decoder, r rawNode, key string) []T {
	nodes := d.children(r, key)
	out := make([]T, 0, len(nodes))
	for _, n := range nodes {
		t, ok := typed[T](d, n, key)
		if !ok {
			return nil
		}
		out = append(out, t)
	}
	return out
}

func (d *decoder) block(r rawNode, key string) *Block {
	b, _ := typed[*Block](d, d.required(r, key), key)
	return b
}

func (d *decoder) meta(r rawNode) Meta {
	var m Meta
	var id string
	d.scalar(r, "uuid", &id)
	if id == "" {
		m.Uuid = uuid.New()
	} else if parsed, err := uuid.Parse(id); err != nil {
		d.fail("uuid %q: %v", id, err)
	} else {
		m.Uuid = parsed
	}
	d.scalar(r, "link", &m.Link)
	m.Ppm = d.children(r, "ppm")
	for _, p := range m.Ppm {
		switch p.(type) {
		case *FunctionCall, *Accessor:
		default:
			d.fail("ppm entry must be a call or accessor, got %T", p)
		}
	}
	return m
}

func (d *decoder) decode(raw json.RawMessage) Node {
	if d.err != nil || isNull(raw) {
		return nil
	}
	var r rawNode
	if err := json.Unmarshal(raw, &r); err != nil {
		d.fail("%v", err)
		return nil
	}
	var kind string
	d.scalar(r, "type", &kind)
	if d.err != nil {
		return nil
	}
	if kind == "" {
		d.fail("node without type")
		return nil
	}

	d.trail = append(d.trail, kind)
	defer func() { d.trail = d.trail[:len(d.trail)-1] }()

	meta := d.meta(r)
	var n Node
	switch kind {
	case "Component":
		c := &Component{Meta: meta}
		d.scalar(r, "name", &c.Name)
		d.scalar(r, "cwd", &c.Cwd)
		c.Tasks = typedList[*Task](d, r, "tasks")
		n = c
	case "Task":
		t := &Task{Meta: meta}
		d.scalar(r, "name", &t.Name)
		d.scalar(r, "public", &t.Public)
		t.Args = typedList[*ArgumentDeclaration](d, r, "args")
		t.Gatekeepers = typedList[*Gatekeeper](d, r, "gatekeepers")
		t.Dependencies = typedList[*TaskCall](d, r, "dependencies")
		t.Block = d.block(r, "block")
		n = t
	case "Gatekeeper":
		g := &Gatekeeper{Meta: meta}
		g.Predicate, _ = typed[*FunctionCall](d, d.required(r, "predicate"), "predicate")
		d.scalar(r, "refs", &g.Refs)
		n = g
	case "Block":
		n = &Block{Meta: meta, Nodes: d.children(r, "nodes")}
	case "If":
		var cases []struct {
			Cond  json.RawMessage `json:"cond"`
			Block json.RawMessage `json:"block"`
		}
		d.scalar(r, "cases", &cases)
		i := &If{Meta: meta}
		for _, c := range cases {
			b, _ := typed[*Block](d, d.decode(c.Block), "cases.block")
			if b == nil {
				d.fail("if case without block")
			}
			i.Cases = append(i.Cases, IfCase{Cond: d.decode(c.Cond), Block: b})
		}
		n = i
	case "For":
		f := &For{Meta: meta}
		d.scalar(r, "element", &f.Element)
		d.scalar(r, "index", &f.Index)
		f.Source = d.required(r, "source")
		f.Block = d.block(r, "block")
		n = f
	case "While":
		n = &While{Meta: meta, Cond: d.required(r, "cond"), Block: d.block(r, "block")}
	case "Loop":
		n = &Loop{Meta: meta, Block: d.block(r, "block")}
	case "Return":
		n = &Return{Meta: meta, Value: d.child(r, "value")}
	case "Break":
		b := &Break{Meta: meta}
		var target string
		d.scalar(r, "target", &target)
		if target != "" {
			id, err := uuid.Parse(target)
			if err != nil {
				d.fail("break target %q: %v", target, err)
			}
			b.Target = &id
		}
		n = b
	case "Assignation":
		a := &Assignation{Meta: meta}
		d.scalar(r, "name", &a.Name)
		d.scalar(r, "global", &a.Global)
		a.Value = d.required(r, "value")
		n = a
	case "Join":
		n = &Join{Meta: meta, Members: d.children(r, "members")}
	case "OneOf":
		n = &OneOf{Meta: meta, Members: d.children(r, "members")}
	case "Optional":
		n = &Optional{Meta: meta, Cond: d.required(r, "cond"), Action: d.required(r, "action")}
	case "Variable":
		v := &Variable{Meta: meta}
		d.scalar(r, "name", &v.Name)
		d.scalar(r, "negated", &v.Negated)
		n = v
	case "BinaryExpSeq":
		n = &BinaryExpSeq{Meta: meta, Nodes: d.children(r, "nodes")}
	case "BinaryExpGroup":
		n = &BinaryExpGroup{Meta: meta, Node: d.required(r, "node")}
	case "BinaryOp":
		b := &BinaryOp{Meta: meta}
		d.scalar(r, "op", &b.Op)
		n = b
	case "ComparisonSeq":
		n = &ComparisonSeq{Meta: meta, Nodes: d.children(r, "nodes")}
	case "ComparisonGroup":
		c := &ComparisonGroup{Meta: meta, Node: d.required(r, "node")}
		d.scalar(r, "negated", &c.Negated)
		n = c
	case "Comparison":
		n = &Comparison{
			Meta:  meta,
			Left:  d.required(r, "left"),
			Op:    d.required(r, "op"),
			Right: d.required(r, "right"),
		}
	case "ComparisonOp":
		c := &ComparisonOp{Meta: meta}
		d.scalar(r, "op", &c.Op)
		n = c
	case "LogicalOp":
		l := &LogicalOp{Meta: meta}
		d.scalar(r, "op", &l.Op)
		n = l
	case "CompoundAssignment":
		c := &CompoundAssignment{Meta: meta}
		d.scalar(r, "name", &c.Name)
		d.scalar(r, "op", &c.Op)
		c.Value = d.required(r, "value")
		n = c
	case "FunctionCall":
		f := &FunctionCall{Meta: meta}
		d.scalar(r, "name", &f.Name)
		d.scalar(r, "negated", &f.Negated)
		f.Args = d.children(r, "args")
		n = f
	case "TaskCall":
		t := &TaskCall{Meta: meta}
		d.scalar(r, "component", &t.Component)
		d.scalar(r, "task", &t.Task)
		t.Args = d.children(r, "args")
		n = t
	case "Command":
		n = &Command{Meta: meta, Parts: d.children(r, "parts")}
	case "Accessor":
		n = &Accessor{Meta: meta, Index: d.required(r, "index")}
	case "Range":
		rg := &Range{Meta: meta}
		d.scalar(r, "from", &rg.From)
		d.scalar(r, "to", &rg.To)
		n = rg
	case "Number":
		v := &Number{Meta: meta}
		d.scalar(r, "value", &v.Value)
		n = v
	case "Boolean":
		v := &Boolean{Meta: meta}
		d.scalar(r, "value", &v.Value)
		n = v
	case "PrimitiveString":
		v := &PrimitiveString{Meta: meta}
		d.scalar(r, "value", &v.Value)
		n = v
	case "InterpolatedString":
		n = &InterpolatedString{Meta: meta, Parts: d.children(r, "parts")}
	case "Array":
		n = &Array{Meta: meta, Items: d.children(r, "items")}
	case "VariableDeclaration":
		v := &VariableDeclaration{Meta: meta}
		d.scalar(r, "name", &v.Name)
		v.Value = d.child(r, "value")
		n = v
	case "ArgumentDeclaration":
		a := &ArgumentDeclaration{Meta: meta}
		d.scalar(r, "name", &a.Name)
		d.scalar(r, "ty", &a.Ty)
		n = a
	case "FunctionDeclaration":
		f := &FunctionDeclaration{Meta: meta}
		d.scalar(r, "name", &f.Name)
		f.Args = typedList[*ArgumentDeclaration](d, r, "args")
		f.Block = d.block(r, "block")
		n = f
	case "ClosureDeclaration":
		c := &ClosureDeclaration{Meta: meta}
		c.Args = typedList[*ArgumentDeclaration](d, r, "args")
		c.Block = d.block(r, "block")
		n = c
	default:
		d.fail("unknown node type %q", kind)
		return nil
	}
	if d.err != nil {
		return nil
	}
	return n
}

package ast

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
)

const sampleDoc = `{
  "sources": {"build.brisk": "task build() { \"abc\".to_upper().len(); }"},
  "types": {"9b2f3c1e-8f11-4c55-9a53-2a3b4c5d6e7f": "closure"},
  "functions": [
    {"type": "FunctionDeclaration", "name": "double",
     "args": [{"type": "ArgumentDeclaration", "name": "n", "ty": "num"}],
     "block": {"type": "Block", "nodes": [
       {"type": "BinaryExpSeq", "nodes": [
         {"type": "Variable", "name": "n"},
         {"type": "BinaryOp", "op": "*"},
         {"type": "Number", "value": 2}
       ]}
     ]}}
  ],
  "components": [
    {"type": "Component", "name": "app", "cwd": "/tmp",
     "tasks": [
       {"type": "Task", "name": "build", "public": true,
        "uuid": "0b6e5a3c-1111-4c2d-9e8f-000000000001",
        "link": {"file": "build.brisk", "from": 0, "to": 48},
        "gatekeepers": [
          {"type": "Gatekeeper",
           "predicate": {"type": "FunctionCall", "name": "ready", "args": []},
           "refs": [{"args": [{"any": true}, {"value": "prod"}]}]}
        ],
        "dependencies": [{"type": "TaskCall", "task": "prepare"}],
        "block": {"type": "Block", "nodes": [
          {"type": "PrimitiveString", "value": "abc",
           "ppm": [
             {"type": "FunctionCall", "name": "to_upper"},
             {"type": "FunctionCall", "name": "len"}
           ]}
        ]}}
     ]}
  ]
}`

func TestDecodeDocument(t *testing.T) {
	anchor, err := Decode([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(anchor.Functions) != 1 || anchor.Functions[0].Name != "double" {
		t.Fatalf("unexpected functions: %v", anchor.Functions)
	}
	comp, ok := anchor.Component("app")
	if !ok {
		t.Fatal("component app not decoded")
	}
	if comp.Cwd != "/tmp" {
		t.Fatalf("cwd = %q", comp.Cwd)
	}
	task, ok := comp.Task("build")
	if !ok {
		t.Fatal("task build not decoded")
	}
	if task.Uuid.String() != "0b6e5a3c-1111-4c2d-9e8f-000000000001" {
		t.Fatalf("uuid = %s", task.Uuid)
	}
	if diff := cmp.Diff(SrcLink{File: "build.brisk", From: 0, To: 48}, task.Link); diff != "" {
		t.Fatalf("link mismatch (-want +got):\n%s", diff)
	}
	if len(task.Gatekeepers) != 1 || task.Gatekeepers[0].Predicate.Name != "ready" {
		t.Fatalf("unexpected gatekeepers %v", task.Gatekeepers)
	}
	wantRefs := []TaskRef{{Args: []RefArg{{Any: true}, {Value: "prod"}}}}
	if diff := cmp.Diff(wantRefs, task.Gatekeepers[0].Refs); diff != "" {
		t.Fatalf("refs mismatch (-want +got):\n%s", diff)
	}
	if len(task.Dependencies) != 1 || task.Dependencies[0].Ref() != "prepare" {
		t.Fatalf("unexpected dependencies %v", task.Dependencies)
	}

	str, ok := task.Block.Nodes[0].(*PrimitiveString)
	if !ok {
		t.Fatalf("expected string node, got %T", task.Block.Nodes[0])
	}
	if len(str.Ppm) != 2 {
		t.Fatalf("expected 2 ppm nodes, got %d", len(str.Ppm))
	}
	if call := str.Ppm[1].(*FunctionCall); call.Name != "len" {
		t.Fatalf("ppm[1] = %s", call.Name)
	}
	if len(anchor.Types) != 1 {
		t.Fatalf("types table = %v", anchor.Types)
	}
}

func TestDecodeGeneratesMissingUuids(t *testing.T) {
	n, err := DecodeNode([]byte(`{"type": "Block", "nodes": [{"type": "Number", "value": 1}, {"type": "Number", "value": 2}]}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	b := n.(*Block)
	if b.Nodes[0].Md().Uuid == b.Nodes[1].Md().Uuid {
		t.Fatal("generated uuids collide")
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"not json", `{`, ErrInvalidDocument},
		{"missing components", `{"functions": []}`, ErrInvalidDocument},
		{"unknown envelope key", `{"components": [], "extra": 1}`, ErrInvalidDocument},
		{"task without block", `{"components": [{"type": "Component", "name": "a", "tasks": [{"type": "Task", "name": "t"}]}]}`, ErrInvalidDocument},
		{"wrong component type", `{"components": [{"type": "Task", "name": "a"}]}`, ErrInvalidDocument},
		{"unknown node", `{"components": [{"type": "Component", "name": "a", "tasks": [{"type": "Task", "name": "t", "block": {"type": "Block", "nodes": [{"type": "Teleport"}]}}]}]}`, ErrMalformedNode},
		{"bad ppm", `{"components": [{"type": "Component", "name": "a", "tasks": [{"type": "Task", "name": "t", "block": {"type": "Block", "nodes": [{"type": "Number", "value": 1, "ppm": [{"type": "Number", "value": 2}]}]}}]}]}`, ErrMalformedNode},
		{"bad uuid", `{"components": [{"type": "Component", "name": "a", "uuid": "nope"}]}`, ErrMalformedNode},
		{"while without cond", `{"components": [{"type": "Component", "name": "a", "tasks": [{"type": "Task", "name": "t", "block": {"type": "Block", "nodes": [{"type": "While", "block": {"type": "Block"}}]}}]}]}`, ErrMalformedNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDecodeCBOR(t *testing.T) {
	var doc any
	if err := json.Unmarshal([]byte(sampleDoc), &doc); err != nil {
		t.Fatal(err)
	}
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		t.Fatal(err)
	}
	data, err := em.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	anchor, err := DecodeCBOR(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	fromJSON, err := Decode([]byte(sampleDoc))
	if err != nil {
		t.Fatal(err)
	}
	if anchor.String() != fromJSON.String() {
		t.Fatalf("CBOR and JSON documents differ:\n%s\n%s", anchor.String(), fromJSON.String())
	}
}

func TestString(t *testing.T) {
	n, err := DecodeNode([]byte(`{"type": "If", "cases": [
		{"cond": {"type": "Comparison",
			"left": {"type": "Variable", "name": "n"},
			"op": {"type": "ComparisonOp", "op": "=="},
			"right": {"type": "Number", "value": 5}},
		 "block": {"type": "Block", "nodes": [{"type": "Return", "value": {"type": "Number", "value": 5}}]}},
		{"block": {"type": "Block", "nodes": [{"type": "Break"}]}}
	]}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	want := "if n == 5 { return 5; } else { break; }"
	if n.String() != want {
		t.Fatalf("String() = %q, want %q", n.String(), want)
	}
}

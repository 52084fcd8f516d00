package object

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
)

func TestLiteralRoundTrip(t *testing.T) {
	values := []Object{
		Num(0),
		Num(10),
		Num(-3.25),
		Num(1e21),
		Num(math.SmallestNonzeroFloat64),
		TRUE,
		FALSE,
		Str(""),
		Str("hello world"),
		NewPath("/tmp/a/b"),
		NewPath("relative/dir"),
	}
	for _, v := range values {
		t.Run(string(v.Type())+"/"+v.Inspect(), func(t *testing.T) {
			text, ok := AsString(v)
			if !ok {
				t.Fatalf("%s has no string form", v.Type())
			}
			back, err := ParseLiteral(v.Type(), text)
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			eq, err := Equal(v, back)
			if err != nil || !eq {
				t.Fatalf("round trip mismatch: %s -> %q -> %s (%v)", v.Inspect(), text, back.Inspect(), err)
			}
		})
	}
}

func TestParseLiteralRejectsGarbage(t *testing.T) {
	if _, err := ParseLiteral(NUMBER_OBJ, "ten"); !errors.Is(err, ErrInvalidLiteral) {
		t.Fatalf("expected ErrInvalidLiteral, got %v", err)
	}
	if _, err := ParseLiteral(VEC_OBJ, "[]"); !errors.Is(err, ErrInvalidLiteral) {
		t.Fatalf("expected ErrInvalidLiteral for vec, got %v", err)
	}
}

func TestCompareAcrossVariantsIsAnError(t *testing.T) {
	_, err := Compare(Str("1"), OpEq, Num(1))
	if !errors.Is(err, ErrDifferentTypeOfValues) {
		t.Fatalf("expected ErrDifferentTypeOfValues, got %v", err)
	}
	_, err = Compare(TRUE, OpLt, FALSE)
	if !errors.Is(err, ErrNotComparableValue) {
		t.Fatalf("expected ErrNotComparableValue, got %v", err)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a    Object
		op   CmpOp
		b    Object
		want bool
	}{
		{Num(1), OpLt, Num(2), true},
		{Num(2), OpGte, Num(2), true},
		{Num(2), OpNeq, Num(2), false},
		{Str("a"), OpLt, Str("b"), true},
		{NewPath("a/b/"), OpEq, NewPath("a/b"), true},
		{NewVec(Num(1), Str("x")), OpEq, NewVec(Num(1), Str("x")), true},
		{Failed(2), OpEq, Failed(2), true},
		{Failed(2), OpEq, Failed(3), false},
		{SKIPPED, OpEq, SKIPPED, true},
	}
	for _, tt := range tests {
		got, err := Compare(tt.a, tt.op, tt.b)
		if err != nil {
			t.Fatalf("%s %s %s: %v", tt.a.Inspect(), tt.op, tt.b.Inspect(), err)
		}
		if got != tt.want {
			t.Errorf("%s %s %s = %v, want %v", tt.a.Inspect(), tt.op, tt.b.Inspect(), got, tt.want)
		}
	}
}

func TestArith(t *testing.T) {
	v, err := Arith(Num(6), OpDiv, Num(4))
	if err != nil || v.(*Number).Value != 1.5 {
		t.Fatalf("6 / 4 = %v, %v", v, err)
	}
	if _, err := Arith(Num(1), OpDiv, Num(0)); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
	if _, err := Arith(Num(1), OpAdd, Str("1")); !errors.Is(err, ErrDifferentTypeOfValues) {
		t.Fatalf("expected ErrDifferentTypeOfValues, got %v", err)
	}
	s, err := Arith(Str("ab"), OpAdd, Str("cd"))
	if err != nil || s.Inspect() != "abcd" {
		t.Fatalf("concat = %v, %v", s, err)
	}
	p, err := Arith(NewPath("/tmp"), OpAdd, Str("x"))
	if err != nil || p.Inspect() != "/tmp/x" {
		t.Fatalf("path join = %v, %v", p, err)
	}
	if _, err := Arith(Str("a"), OpMul, Str("b")); !errors.Is(err, ErrNotApplicableOperation) {
		t.Fatalf("expected ErrNotApplicableOperation, got %v", err)
	}
}

func TestRangeIteration(t *testing.T) {
	up := &Range{From: 2, To: 4}
	if up.Len() != 3 || up.At(0) != 2 || up.At(2) != 4 {
		t.Fatalf("unexpected upward range %v", up.Inspect())
	}
	down := &Range{From: 3, To: 1}
	if down.Len() != 3 || down.At(2) != 1 {
		t.Fatalf("unexpected downward range %v", down.Inspect())
	}
}

func TestEnvironmentLevels(t *testing.T) {
	global := NewGlobalEnvironment()
	global.Define("g", Num(1))

	outer := NewEnclosedEnvironment(global, uuid.New())
	outer.Define("x", NewVec(Num(1)))
	inner := NewEnclosedEnvironment(outer, uuid.New())
	inner.Define("x", Str("shadow"))

	if v, _ := inner.Get("x"); v.Inspect() != "shadow" {
		t.Fatalf("inner lookup = %v", v.Inspect())
	}
	if v, _ := outer.Get("x"); v.Inspect() != "[1]" {
		t.Fatalf("outer lookup = %v", v.Inspect())
	}
	if v, _ := inner.Get("g"); v.Inspect() != "1" {
		t.Fatalf("global lookup = %v", v.Inspect())
	}
	if _, err := inner.Assign("g", Num(2)); err == nil {
		t.Fatal("expected plain assignment to a global to fail")
	}
	if v, _ := global.Get("g"); v.Inspect() != "1" {
		t.Fatalf("global overwritten: %v", v.Inspect())
	}
	if _, err := outer.Assign("x", Num(2)); err != nil {
		t.Fatalf("assign outer: %v", err)
	}
	if _, err := inner.Assign("missing", Num(1)); err == nil {
		t.Fatal("expected assignment to unknown name to fail")
	}
	if inner.Depth() != 3 {
		t.Fatalf("depth = %d", inner.Depth())
	}

	vec := NewVec(Num(1))
	outer.Define("v", vec)
	vec.Elements[0] = Num(9)
	if v, _ := outer.Get("v"); v.Inspect() != "[1]" {
		t.Fatalf("stored vector aliases caller's vector: %v", v.Inspect())
	}
}

func TestCoded(t *testing.T) {
	err := errors.Join(errors.New("x"), ErrOutOfBounds)
	if Coded(err) != "00081" {
		t.Fatalf("Coded = %q", Coded(err))
	}
	if Coded(errors.New("plain")) != "" {
		t.Fatal("plain errors carry no code")
	}
}

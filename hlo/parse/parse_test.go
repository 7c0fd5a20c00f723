package parse

import (
	"strings"
	"testing"

	"github.com/nickng/gohlo/hlo"
	"github.com/pkg/errors"
)

const whileModule = `
HloModule SimpleLoop

// Adds the first two slots into the third on every iteration.
body {
  param = (s32[], s32[], s32[]) parameter(0)
  gte.0 = s32[] get-tuple-element(param), index=0
  gte.1 = s32[] get-tuple-element(param), index=1
  add.2 = s32[] add(gte.0, gte.1)
  ROOT tuple.3 = (s32[], s32[], s32[]) tuple(gte.0, gte.1, add.2)
}

condition {
  cond_param = (s32[], s32[], s32[]) parameter(0)
  ROOT result = pred[] constant(true)
}

ENTRY SimpleLoop.entry {
  init = (s32[], s32[], s32[]) parameter(0)
  ROOT while.0 = (s32[], s32[], s32[]) while(init), condition=condition, body=body
}
`

func parseString(t *testing.T, src string) *hlo.Module {
	t.Helper()
	p, err := FromReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("cannot read source: %v", err)
	}
	m, err := p.Parse()
	if err != nil {
		t.Fatalf("cannot parse source: %v", err)
	}
	return m
}

func TestParseWhileModule(t *testing.T) {
	m := parseString(t, whileModule)

	if m.Name() != "SimpleLoop" {
		t.Errorf("module name = %q, want %q", m.Name(), "SimpleLoop")
	}
	if len(m.Computations()) != 3 {
		t.Fatalf("parsed %d computations, want 3", len(m.Computations()))
	}
	entry := m.Entry()
	if entry == nil || entry.Name() != "SimpleLoop.entry" {
		t.Fatalf("entry computation not recorded")
	}

	while := entry.Root()
	if while.Opcode() != hlo.While {
		t.Fatalf("entry root is %s, want a while", while.Opcode())
	}
	if while.Condition() != m.Computation("condition") || while.Body() != m.Computation("body") {
		t.Error("while condition/body not resolved")
	}
	if while.Operand(0) != entry.Parameter() {
		t.Error("while init not resolved to the entry parameter")
	}

	body := while.Body()
	root := body.Root()
	if root.Opcode() != hlo.Tuple || root.NumOperands() != 3 {
		t.Fatalf("body root is not a three element tuple: %s", root)
	}
	add := root.Operand(2)
	if add.Opcode() != hlo.Add || add.Name() != "add.2" {
		t.Errorf("body root element 2 is %s, want add.2", add)
	}
	if add.Operand(0).TupleIndex() != 0 || add.Operand(1).TupleIndex() != 1 {
		t.Error("get-tuple-element indices not parsed")
	}

	state := hlo.TupleShape(hlo.ScalarShape(hlo.S32), hlo.ScalarShape(hlo.S32), hlo.ScalarShape(hlo.S32))
	if !while.Shape().Equal(state) {
		t.Errorf("while shape = %s, want %s", while.Shape(), state)
	}
}

func TestParseConstantsAndArrays(t *testing.T) {
	m := parseString(t, `
HloModule Constants
ENTRY entry {
  vec = f32[2]{0} constant({1, 2})
  ROOT wrapped = (f32[2]) tuple(vec)
}
`)
	vec := m.Entry().Root().Operand(0)
	if vec.Opcode() != hlo.Constant {
		t.Fatalf("operand is %s, want a constant", vec.Opcode())
	}
	if vec.Literal() != "{1, 2}" {
		t.Errorf("literal = %q, want %q", vec.Literal(), "{1, 2}")
	}
	if !vec.Shape().Equal(hlo.ArrayShape(hlo.F32, 2)) {
		t.Errorf("shape = %s, want f32[2]", vec.Shape())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"no header", "ENTRY entry {\n}\n", ErrNoModuleHeader},
		{"unmatched close", "HloModule m\n}\n", ErrBadSyntax},
		{"unterminated", "HloModule m\nENTRY entry {\n  c = s32[] constant(1)\n", ErrBadSyntax},
		{"instruction outside computation", "HloModule m\nc = s32[] constant(1)\n", ErrBadSyntax},
		{"undefined operand", "HloModule m\nENTRY entry {\n  ROOT n = s32[] negate(missing)\n}\n", ErrUndefinedName},
		{"undefined body", "HloModule m\nENTRY entry {\n  c = s32[] constant(1)\n  ROOT w = s32[] while(c), condition=nope, body=nope\n}\n", ErrUndefinedName},
		{"shape mismatch", "HloModule m\nENTRY entry {\n  c = s32[] constant(1)\n  ROOT t = (f32[]) tuple(c)\n}\n", ErrShapeMismatch},
		{"bad opcode", "HloModule m\nENTRY entry {\n  ROOT c = s32[] frobnicate()\n}\n", ErrBadSyntax},
		{"index out of bounds", "HloModule m\nENTRY entry {\n  t = (s32[]) parameter(0)\n  ROOT g = s32[] get-tuple-element(t), index=3\n}\n", ErrBadSyntax},
	}
	for _, tt := range tests {
		p, err := FromReader(strings.NewReader(tt.src))
		if err != nil {
			t.Fatalf("%s: cannot read source: %v", tt.name, err)
		}
		_, err = p.Parse()
		if errors.Cause(err) != tt.want {
			t.Errorf("%s: Parse() error = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestPrintParseRoundTrip(t *testing.T) {
	m := parseString(t, whileModule)

	var first strings.Builder
	if _, err := m.WriteTo(&first); err != nil {
		t.Fatalf("cannot print module: %v", err)
	}

	m2 := parseString(t, first.String())
	var second strings.Builder
	if _, err := m2.WriteTo(&second); err != nil {
		t.Fatalf("cannot print reparsed module: %v", err)
	}
	if first.String() != second.String() {
		t.Errorf("round trip not stable:\nfirst:\n%s\nsecond:\n%s", first.String(), second.String())
	}
}

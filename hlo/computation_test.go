package hlo

import "testing"

func TestAddInstructionNames(t *testing.T) {
	b := NewBuilder("naming")
	param := b.AddInstruction(NewParameter(0, ScalarShape(S32), "p"))
	neg := b.AddInstruction(NewUnary(ScalarShape(S32), Negate, param))
	named := b.AddInstruction(NewUnary(ScalarShape(S32), Negate, neg).WithName("custom"))
	c := b.Build()

	if param.Name() != "p" {
		t.Errorf("parameter name = %q, want %q", param.Name(), "p")
	}
	if neg.Name() != "negate.1" {
		t.Errorf("automatic name = %q, want %q", neg.Name(), "negate.1")
	}
	if named.Name() != "custom" {
		t.Errorf("explicit name = %q, want %q", named.Name(), "custom")
	}
	if c.Root() != named {
		t.Errorf("root = %s, want the last added instruction", c.Root().Name())
	}
	if c.Parameter() != param {
		t.Error("parameter not recorded")
	}
}

func TestPostOrder(t *testing.T) {
	state := TupleShape(ScalarShape(S32), ScalarShape(S32))
	b := NewBuilder("order")
	param := b.AddInstruction(NewParameter(0, state, "param"))
	gte0 := b.AddInstruction(NewGetTupleElement(param, 0))
	gte1 := b.AddInstruction(NewGetTupleElement(param, 1))
	add := b.AddInstruction(NewBinary(ScalarShape(S32), Add, gte0, gte1))
	b.AddInstruction(NewTuple(gte0, add))
	c := b.Build()

	pos := make(map[*Instruction]int)
	for n, i := range c.PostOrder() {
		if _, seen := pos[i]; seen {
			t.Fatalf("%s visited twice", i.Name())
		}
		pos[i] = n
	}
	if len(pos) != c.NumInstructions() {
		t.Fatalf("post order visited %d instructions, want %d", len(pos), c.NumInstructions())
	}
	for _, i := range c.Instructions() {
		for _, op := range i.Operands() {
			if pos[op] >= pos[i] {
				t.Errorf("%s ordered before its operand %s", i.Name(), op.Name())
			}
		}
	}
}

func TestReplaceInstructionCascades(t *testing.T) {
	state := TupleShape(ScalarShape(S32), ScalarShape(S32))
	b := NewBuilder("cascade")
	param := b.AddInstruction(NewParameter(0, state, "param"))
	gte0 := b.AddInstruction(NewGetTupleElement(param, 0))
	c := b.AddInstruction(NewConstant(ScalarShape(S32), "7"))
	add := b.AddInstruction(NewBinary(ScalarShape(S32), Add, gte0, c))
	root := b.AddInstruction(NewTuple(add, add))
	comp := b.Build()

	gte1 := comp.AddInstruction(NewGetTupleElement(param, 1))
	if err := comp.ReplaceInstruction(add, gte1); err != nil {
		t.Fatalf("cannot replace add: %v", err)
	}
	if root.Operand(0) != gte1 || root.Operand(1) != gte1 {
		t.Error("uses of the add not redirected")
	}
	// The add and its now-unused operands go away, the parameter stays.
	for _, i := range comp.Instructions() {
		switch i {
		case add, c, gte0:
			t.Errorf("%s not removed", i.Name())
		}
	}
	if comp.Parameter() != param || param.Parent() != comp {
		t.Error("parameter must survive the cascade")
	}
}

func TestReplaceInstructionShapeMismatch(t *testing.T) {
	b := NewBuilder("mismatch")
	param := b.AddInstruction(NewParameter(0, ScalarShape(S32), "param"))
	b.AddInstruction(NewUnary(ScalarShape(S32), Negate, param))
	comp := b.Build()

	wrong := comp.AddInstruction(NewConstant(ScalarShape(F32), "1"))
	if err := comp.ReplaceInstruction(param, wrong); err == nil {
		t.Error("expected a shape mismatch error")
	}
}

func TestReplaceTransfersRoot(t *testing.T) {
	b := NewBuilder("root")
	param := b.AddInstruction(NewParameter(0, ScalarShape(S32), "param"))
	neg := b.AddInstruction(NewUnary(ScalarShape(S32), Negate, param))
	comp := b.Build()

	repl := comp.AddInstruction(NewUnary(ScalarShape(S32), Negate, neg))
	if err := neg.ReplaceAllUsesWith(repl); err != nil {
		t.Fatalf("cannot replace root: %v", err)
	}
	if comp.Root() != repl {
		t.Errorf("root = %s, want the replacement", comp.Root().Name())
	}
}

func TestRemoveInstructionGuards(t *testing.T) {
	b := NewBuilder("guards")
	param := b.AddInstruction(NewParameter(0, ScalarShape(S32), "param"))
	neg := b.AddInstruction(NewUnary(ScalarShape(S32), Negate, param))
	comp := b.Build()

	if err := comp.RemoveInstruction(param); err == nil {
		t.Error("expected an error removing an instruction with users")
	}
	if err := comp.RemoveInstruction(neg); err == nil {
		t.Error("expected an error removing the root")
	}
}

func TestExtractPrefixAndAppendSuffix(t *testing.T) {
	state := TupleShape(ScalarShape(S32), ScalarShape(F32), ScalarShape(Pred))
	b := NewBuilder("tuples")
	param := b.AddInstruction(NewParameter(0, state, "param"))
	comp := b.Build()

	prefix, err := ExtractPrefix(param, 2)
	if err != nil {
		t.Fatalf("cannot extract prefix: %v", err)
	}
	want := TupleShape(ScalarShape(S32), ScalarShape(F32))
	if !prefix.Shape().Equal(want) {
		t.Errorf("prefix shape = %s, want %s", prefix.Shape(), want)
	}
	for n := 0; n < 2; n++ {
		gte := prefix.Operand(n)
		if gte.Opcode() != GetTupleElement || gte.Operand(0) != param || gte.TupleIndex() != n {
			t.Errorf("prefix element %d is not a projection of the source: %s", n, gte)
		}
	}

	extra := comp.AddInstruction(NewConstant(ScalarShape(S32), "42"))
	wide, err := AppendSuffix(prefix, []*Instruction{extra})
	if err != nil {
		t.Fatalf("cannot append suffix: %v", err)
	}
	wantWide := TupleShape(ScalarShape(S32), ScalarShape(F32), ScalarShape(S32))
	if !wide.Shape().Equal(wantWide) {
		t.Errorf("widened shape = %s, want %s", wide.Shape(), wantWide)
	}
	if wide.Operand(2) != extra {
		t.Error("suffix not appended after the original elements")
	}

	if _, err := ExtractPrefix(extra, 1); err == nil {
		t.Error("expected an error extracting from a non tuple")
	}
}

func TestModuleComputationNames(t *testing.T) {
	m := NewModule("mod")
	b1 := NewBuilder("comp")
	b1.AddInstruction(NewConstant(ScalarShape(S32), "1"))
	c1 := m.AddEmbeddedComputation(b1.Build())

	b2 := NewBuilder("comp")
	b2.AddInstruction(NewConstant(ScalarShape(S32), "2"))
	c2 := m.AddEmbeddedComputation(b2.Build())

	if c1.Name() == c2.Name() {
		t.Errorf("computation names must be unique, both are %q", c1.Name())
	}
	if m.Computation(c1.Name()) != c1 || m.Computation(c2.Name()) != c2 {
		t.Error("lookup by name broken")
	}
	if m.Computation("missing") != nil {
		t.Error("lookup of a missing name must return nil")
	}

	b3 := NewBuilder("main")
	b3.AddInstruction(NewConstant(ScalarShape(S32), "3"))
	entry := m.AddEntryComputation(b3.Build())
	if m.Entry() != entry {
		t.Error("entry computation not recorded")
	}
}

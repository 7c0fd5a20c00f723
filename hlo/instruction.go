package hlo

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrShapeMismatch  = errors.New("replacement shape differs from original")
	ErrCrossComp      = errors.New("instructions belong to different computations")
	ErrNotTupleShaped = errors.New("operand is not tuple shaped")
)

// Instruction is a node of the data dependency graph: an opcode, an ordered
// operand list, an output shape, and optional control dependency edges.
// Instructions are created detached with the New* constructors and attached
// to a Computation with AddInstruction.
type Instruction struct {
	name     string
	op       Opcode
	shape    Shape
	operands []*Instruction
	users    []*Instruction

	ctrlPreds []*Instruction
	ctrlSuccs []*Instruction

	paramIndex int    // Parameter only.
	tupleIndex int    // GetTupleElement only.
	literal    string // Constant only, textual form.

	wcnd *Computation // While only: condition computation.
	body *Computation // While only: body computation.

	parent *Computation
}

// NewParameter returns a detached parameter instruction.
func NewParameter(index int, shape Shape, name string) *Instruction {
	return &Instruction{name: name, op: Parameter, shape: shape, paramIndex: index}
}

// NewConstant returns a detached constant with the literal's textual form.
func NewConstant(shape Shape, literal string) *Instruction {
	return &Instruction{op: Constant, shape: shape, literal: literal}
}

// NewUnary returns a detached one-operand instruction.
func NewUnary(shape Shape, op Opcode, x *Instruction) *Instruction {
	if !op.IsUnary() {
		panic(fmt.Sprintf("hlo: %s is not a unary opcode", op))
	}
	i := &Instruction{op: op, shape: shape, operands: []*Instruction{x}}
	x.addUser(i)
	return i
}

// NewBinary returns a detached two-operand instruction.
func NewBinary(shape Shape, op Opcode, x, y *Instruction) *Instruction {
	if !op.IsBinary() {
		panic(fmt.Sprintf("hlo: %s is not a binary opcode", op))
	}
	i := &Instruction{op: op, shape: shape, operands: []*Instruction{x, y}}
	x.addUser(i)
	y.addUser(i)
	return i
}

// NewTuple returns a detached tuple construction over elems.
func NewTuple(elems ...*Instruction) *Instruction {
	shapes := make([]Shape, len(elems))
	for k, e := range elems {
		shapes[k] = e.Shape()
	}
	i := &Instruction{op: Tuple, shape: TupleShape(shapes...), operands: elems}
	for _, e := range elems {
		e.addUser(i)
	}
	return i
}

// NewGetTupleElement returns a detached projection of element index of x.
// The operand must be tuple shaped with index in bounds.
func NewGetTupleElement(x *Instruction, index int) *Instruction {
	if !x.shape.IsTuple() || index < 0 || index >= x.shape.TupleSize() {
		panic(fmt.Sprintf("hlo: get-tuple-element index %d out of bounds for %s", index, x.shape))
	}
	i := &Instruction{
		op:         GetTupleElement,
		shape:      x.shape.TupleElement(index),
		operands:   []*Instruction{x},
		tupleIndex: index,
	}
	x.addUser(i)
	return i
}

// NewWhile returns a detached while instruction looping over init. Its shape
// is the loop-carried state shape, taken from init.
func NewWhile(cond, body *Computation, init *Instruction) *Instruction {
	i := &Instruction{op: While, shape: init.Shape(), operands: []*Instruction{init}, wcnd: cond, body: body}
	init.addUser(i)
	return i
}

// NewOutfeed returns a detached side-effecting outfeed of x. Its result
// carries no data.
func NewOutfeed(x *Instruction) *Instruction {
	i := &Instruction{op: Outfeed, shape: TupleShape(), operands: []*Instruction{x}}
	x.addUser(i)
	return i
}

// WithName overrides the automatic instruction name. Returns i.
func (i *Instruction) WithName(name string) *Instruction {
	i.name = name
	return i
}

func (i *Instruction) Name() string { return i.name }

func (i *Instruction) Opcode() Opcode { return i.op }

func (i *Instruction) Shape() Shape { return i.shape }

func (i *Instruction) Parent() *Computation { return i.parent }

func (i *Instruction) NumOperands() int { return len(i.operands) }

func (i *Instruction) Operand(n int) *Instruction { return i.operands[n] }

// Operands returns a copy of the ordered operand list.
func (i *Instruction) Operands() []*Instruction {
	ops := make([]*Instruction, len(i.operands))
	copy(ops, i.operands)
	return ops
}

// Users returns a copy of the instructions that use i as an operand.
func (i *Instruction) Users() []*Instruction {
	users := make([]*Instruction, len(i.users))
	copy(users, i.users)
	return users
}

// TupleIndex returns the projected element index of a get-tuple-element.
func (i *Instruction) TupleIndex() int { return i.tupleIndex }

// ParameterIndex returns the index of a parameter instruction.
func (i *Instruction) ParameterIndex() int { return i.paramIndex }

// Literal returns the textual literal of a constant.
func (i *Instruction) Literal() string { return i.literal }

// Condition returns the condition computation of a while instruction.
func (i *Instruction) Condition() *Computation { return i.wcnd }

// Body returns the body computation of a while instruction.
func (i *Instruction) Body() *Computation { return i.body }

// HasSideEffect reports whether i is observable outside the data flow graph.
func (i *Instruction) HasSideEffect() bool { return i.op.HasSideEffect() }

// ControlPredecessors returns a copy of the instructions that must execute
// before i.
func (i *Instruction) ControlPredecessors() []*Instruction {
	preds := make([]*Instruction, len(i.ctrlPreds))
	copy(preds, i.ctrlPreds)
	return preds
}

// ControlSuccessors returns a copy of the instructions that must execute
// after i.
func (i *Instruction) ControlSuccessors() []*Instruction {
	succs := make([]*Instruction, len(i.ctrlSuccs))
	copy(succs, i.ctrlSuccs)
	return succs
}

// HasControlDependencies reports whether i has control edges in either
// direction.
func (i *Instruction) HasControlDependencies() bool {
	return len(i.ctrlPreds) > 0 || len(i.ctrlSuccs) > 0
}

// AddControlDependencyTo adds a must-precede edge from i to succ. Both
// instructions must belong to the same computation.
func (i *Instruction) AddControlDependencyTo(succ *Instruction) error {
	if i.parent != succ.parent {
		return errors.Wrapf(ErrCrossComp, "control edge %s -> %s", i.name, succ.name)
	}
	i.ctrlSuccs = append(i.ctrlSuccs, succ)
	succ.ctrlPreds = append(succ.ctrlPreds, i)
	return nil
}

// ReplaceAllUsesWith redirects every use of i to repl, including the root
// designation of i's computation. The shapes must be equal.
func (i *Instruction) ReplaceAllUsesWith(repl *Instruction) error {
	if !i.shape.Equal(repl.shape) {
		return errors.Wrapf(ErrShapeMismatch, "replacing %s (%s) with %s (%s)",
			i.name, i.shape, repl.name, repl.shape)
	}
	for _, user := range i.users {
		for n, op := range user.operands {
			if op == i {
				user.operands[n] = repl
			}
		}
		repl.addUser(user)
	}
	i.users = nil
	if i.parent != nil && i.parent.root == i {
		i.parent.root = repl
	}
	return nil
}

// CloneWithOperands returns a detached copy of i computing the same
// operation over newOperands. Control edges are not cloned.
func (i *Instruction) CloneWithOperands(newOperands ...*Instruction) *Instruction {
	if len(newOperands) != len(i.operands) {
		panic(fmt.Sprintf("hlo: clone of %s wants %d operands, got %d",
			i.name, len(i.operands), len(newOperands)))
	}
	clone := &Instruction{
		op:         i.op,
		shape:      i.shape,
		operands:   newOperands,
		paramIndex: i.paramIndex,
		tupleIndex: i.tupleIndex,
		literal:    i.literal,
		wcnd:       i.wcnd,
		body:       i.body,
	}
	for _, op := range newOperands {
		op.addUser(clone)
	}
	return clone
}

func (i *Instruction) addUser(user *Instruction) {
	for _, u := range i.users {
		if u == user {
			return
		}
	}
	i.users = append(i.users, user)
}

func (i *Instruction) removeUser(user *Instruction) {
	for n, u := range i.users {
		if u == user {
			i.users = append(i.users[:n], i.users[n+1:]...)
			return
		}
	}
}

// detachOperands removes i from the user lists of its operands. Only valid
// when i itself has no remaining uses.
func (i *Instruction) detachOperands() {
	for _, op := range i.operands {
		op.removeUser(i)
	}
}

// String renders i in the textual IR form, e.g.
// "add.3 = s32[] add(get-tuple-element.1, get-tuple-element.2)".
func (i *Instruction) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s = %s %s(", i.name, i.shape, i.op)
	switch i.op {
	case Parameter:
		fmt.Fprintf(&buf, "%d", i.paramIndex)
	case Constant:
		buf.WriteString(i.literal)
	default:
		for n, op := range i.operands {
			if n > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(op.name)
		}
	}
	buf.WriteString(")")
	switch i.op {
	case GetTupleElement:
		fmt.Fprintf(&buf, ", index=%d", i.tupleIndex)
	case While:
		fmt.Fprintf(&buf, ", condition=%s, body=%s", i.wcnd.Name(), i.body.Name())
	}
	return buf.String()
}

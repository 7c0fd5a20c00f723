package hoist

import (
	"github.com/nickng/gohlo/hlo"
	"github.com/pkg/errors"
)

// widener rewrites one while loop: it accumulates copies of hoisted
// instructions in the enclosing computation, then builds the widened body
// and condition and swaps the loop over to them in a single apply step, so
// the rewrite is all-or-nothing.
type widener struct {
	while  *hlo.Instruction
	body   *hlo.Computation
	parent *hlo.Computation

	hoisted map[*hlo.Instruction]*hlo.Instruction // body instruction -> copy before the loop
	roots   []*hlo.Instruction                    // hoisted roots in hoist order, one widened slot each
}

func newWidener(while *hlo.Instruction) *widener {
	return &widener{
		while:   while,
		body:    while.Body(),
		parent:  while.Parent(),
		hoisted: make(map[*hlo.Instruction]*hlo.Instruction),
	}
}

// hoist copies instr and its not-yet-copied invariant operands into the
// enclosing computation, depth first so data dependencies among hoisted
// instructions keep their relative order. The body parameter maps to the
// while's operand: passthrough projections become projections of the
// initial state.
func (w *widener) hoist(instr *hlo.Instruction) {
	type frame struct {
		instr   *hlo.Instruction
		operand int
	}
	param := w.body.Parameter()
	init := w.while.Operand(0)

	stack := []frame{{instr: instr}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.operand == top.instr.NumOperands() {
			ops := make([]*hlo.Instruction, top.instr.NumOperands())
			for n, op := range top.instr.Operands() {
				if op == param {
					ops[n] = init
				} else {
					ops[n] = w.hoisted[op]
				}
			}
			w.hoisted[top.instr] = w.parent.AddInstruction(top.instr.CloneWithOperands(ops...))
			stack = stack[:len(stack)-1]
			continue
		}
		next := top.instr.Operand(top.operand)
		top.operand++
		if next == param {
			continue
		}
		if _, done := w.hoisted[next]; done {
			continue
		}
		stack = append(stack, frame{instr: next})
	}
	w.roots = append(w.roots, instr)
}

// apply builds the widened condition and body, replaces the while
// instruction with one looping over the widened state, and restores the
// original result shape for existing users of the loop.
func (w *widener) apply() (*hlo.Instruction, error) {
	oldShape := w.while.Shape()
	narrow := oldShape.TupleSize()

	wideElems := oldShape.TupleElements()
	for _, root := range w.roots {
		wideElems = append(wideElems, root.Shape())
	}
	wideShape := hlo.TupleShape(wideElems...)

	wideCond, _, err := w.widenComputation(w.while.Condition(), wideShape, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "widening condition of %s", w.while.Name())
	}
	wideBody, bodyClones, err := w.widenComputation(w.body, wideShape, w.liveThrough)
	if err != nil {
		return nil, errors.Wrapf(err, "widening body of %s", w.while.Name())
	}

	// The initial values of the widened slots are the hoisted copies,
	// computed once before the loop.
	suffix := make([]*hlo.Instruction, len(w.roots))
	for n, root := range w.roots {
		suffix[n] = w.hoisted[root]
	}
	newInit, err := hlo.AppendSuffix(w.while.Operand(0), suffix)
	if err != nil {
		return nil, err
	}
	newWhile := w.parent.AddInstruction(hlo.NewWhile(wideCond, wideBody, newInit))

	// Unpack the widened result back to the original shape so existing
	// users observe exactly the pre-rewrite value.
	replacement, err := hlo.ExtractPrefix(newWhile, narrow)
	if err != nil {
		return nil, err
	}
	if err := w.while.ReplaceAllUsesWith(replacement); err != nil {
		return nil, err
	}
	if err := w.parent.RemoveInstruction(w.while); err != nil {
		return nil, err
	}

	// Inside the new body, recomputing a hoisted instruction is replaced by
	// reading its widened slot; the dead clone and its newly unused
	// operands disappear with it.
	wideParam := wideBody.Parameter()
	for n, root := range w.roots {
		slot := wideBody.AddInstruction(hlo.NewGetTupleElement(wideParam, narrow+n))
		if err := wideBody.ReplaceInstruction(bodyClones[root], slot); err != nil {
			return nil, errors.Wrapf(err, "rewiring %s in %s", root.Name(), wideBody.Name())
		}
	}
	return newWhile, nil
}

// widenComputation builds "wide.<name>": a fresh computation taking the
// widened state, rebuilding the narrow state from its leading slots and
// inlining the narrow computation over it. finish, when non-nil, derives
// the root from the inlined narrow root.
func (w *widener) widenComputation(narrowComp *hlo.Computation, wideShape hlo.Shape,
	finish func(wide *hlo.Computation, inlinedRoot *hlo.Instruction) (*hlo.Instruction, error),
) (*hlo.Computation, map[*hlo.Instruction]*hlo.Instruction, error) {
	narrowShape := narrowComp.Parameter().Shape()

	b := hlo.NewBuilder("wide." + narrowComp.Name())
	wideParam := b.AddInstruction(hlo.NewParameter(0, wideShape, "wide."+narrowComp.Parameter().Name()))
	wide := w.parent.Module().AddEmbeddedComputation(b.Build())

	truncated, err := hlo.ExtractPrefix(wideParam, narrowShape.TupleSize())
	if err != nil {
		return nil, nil, err
	}
	clones, inlinedRoot, err := hlo.Inline(wide, narrowComp, truncated)
	if err != nil {
		return nil, nil, err
	}
	root := inlinedRoot
	if finish != nil {
		if root, err = finish(wide, inlinedRoot); err != nil {
			return nil, nil, err
		}
	}
	if err := wide.SetRoot(root); err != nil {
		return nil, nil, err
	}
	return wide, clones, nil
}

// liveThrough closes the widened body: the narrow result keeps the original
// slots and every widened slot passes its parameter value through unchanged,
// keeping the state shape fixed across iterations.
func (w *widener) liveThrough(wide *hlo.Computation, inlinedRoot *hlo.Instruction) (*hlo.Instruction, error) {
	wideParam := wide.Parameter()
	narrow := w.while.Shape().TupleSize()
	passthrough := make([]*hlo.Instruction, len(w.roots))
	for n := range w.roots {
		passthrough[n] = wide.AddInstruction(hlo.NewGetTupleElement(wideParam, narrow+n))
	}
	return hlo.AppendSuffix(inlinedRoot, passthrough)
}

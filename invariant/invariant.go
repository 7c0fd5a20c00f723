package invariant

import (
	"github.com/nickng/gohlo/hlo"
	"github.com/pkg/errors"
)

var (
	ErrNoParameter  = errors.New("body has no parameter")
	ErrNoRoot       = errors.New("body has no root")
	ErrNonTupleRoot = errors.New("body root is not a tuple")
)

// Analysis holds the per-instruction invariance classification of one
// while-loop body. The classification is valid until the body is mutated;
// rewriting passes must re-run the analysis per loop.
type Analysis struct {
	body *hlo.Computation
	inv  map[*hlo.Instruction]bool
}

// New classifies every instruction of body in a single post-order walk.
func New(body *hlo.Computation) (*Analysis, error) {
	param := body.Parameter()
	if param == nil {
		return nil, errors.Wrap(ErrNoParameter, body.Name())
	}
	root := body.Root()
	if root == nil {
		return nil, errors.Wrap(ErrNoRoot, body.Name())
	}
	if !root.Shape().IsTuple() {
		return nil, errors.Wrap(ErrNonTupleRoot, body.Name())
	}

	passthrough := make(map[*hlo.Instruction]bool)
	for _, gte := range PassthroughGTEs(body) {
		passthrough[gte] = true
	}

	a := &Analysis{body: body, inv: make(map[*hlo.Instruction]bool, body.NumInstructions())}
	for _, instr := range body.PostOrder() {
		a.inv[instr] = a.classify(instr, param, passthrough)
	}
	return a, nil
}

func (a *Analysis) classify(instr, param *hlo.Instruction, passthrough map[*hlo.Instruction]bool) bool {
	switch {
	case instr == param:
		return false
	case instr.HasSideEffect():
		return false
	case instr.HasControlDependencies():
		// Relocating the instruction could violate the ordering either way.
		return false
	case instr.Opcode() == hlo.While:
		// Each loop is analysed independently; a nested loop never moves
		// as part of its enclosing loop's hoist.
		return false
	case instr.Opcode() == hlo.Constant:
		// A constant is the same value on every iteration. Whether it is
		// worth hoisting on its own is the eligibility filter's concern.
		return true
	case instr.Opcode() == hlo.GetTupleElement && instr.Operand(0) == param:
		return passthrough[instr]
	}
	for _, op := range instr.Operands() {
		if !a.inv[op] {
			return false
		}
	}
	return true
}

// Invariant reports whether instr computes the same value on every loop
// iteration. Instructions outside the analysed body are loop-varying.
func (a *Analysis) Invariant(instr *hlo.Instruction) bool {
	return a.inv[instr]
}

// Body returns the analysed body computation.
func (a *Analysis) Body() *hlo.Computation { return a.body }

// PassthroughGTEs returns the projections of the body parameter that the
// root tuple passes back unchanged in the matching slot. These seed the
// invariance classification: their slots never change across iterations.
func PassthroughGTEs(body *hlo.Computation) []*hlo.Instruction {
	param, root := body.Parameter(), body.Root()
	if param == nil || root == nil || root.Opcode() != hlo.Tuple {
		return nil
	}
	var gtes []*hlo.Instruction
	for i, op := range root.Operands() {
		if op.Opcode() == hlo.GetTupleElement && op.TupleIndex() == i && op.Operand(0) == param {
			gtes = append(gtes, op)
		}
	}
	return gtes
}

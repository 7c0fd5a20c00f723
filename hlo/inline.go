package hlo

import "github.com/pkg/errors"

var ErrParamShape = errors.New("argument shape differs from parameter shape")

// Inline clones every instruction of src into dst in insertion order,
// substituting src's parameter with arg (an instruction of dst). Control
// edges between cloned instructions are preserved. It returns the mapping
// from src instructions to their clones and the clone of src's root.
//
// While instructions are cloned with references to their original condition
// and body computations; the computations themselves are shared, not cloned.
func Inline(dst, src *Computation, arg *Instruction) (map[*Instruction]*Instruction, *Instruction, error) {
	param := src.Parameter()
	if param == nil || !arg.Shape().Equal(param.Shape()) {
		return nil, nil, errors.Wrapf(ErrParamShape, "inline %s into %s", src.Name(), dst.Name())
	}
	clones := make(map[*Instruction]*Instruction, src.NumInstructions())
	clones[param] = arg
	for _, i := range src.Instructions() {
		if i == param {
			continue
		}
		ops := make([]*Instruction, i.NumOperands())
		for n, op := range i.Operands() {
			clone, ok := clones[op]
			if !ok {
				return nil, nil, errors.Errorf("inline %s: operand %s of %s precedes its definition",
					src.Name(), op.Name(), i.Name())
			}
			ops[n] = clone
		}
		clones[i] = dst.AddInstruction(i.CloneWithOperands(ops...))
	}
	for _, i := range src.Instructions() {
		for _, succ := range i.ControlSuccessors() {
			from, to := clones[i], clones[succ]
			if from == nil || to == nil {
				continue
			}
			if err := from.AddControlDependencyTo(to); err != nil {
				return nil, nil, errors.Wrapf(err, "inline %s", src.Name())
			}
		}
	}
	root := clones[src.Root()]
	return clones, root, nil
}

package hlo

import "github.com/pkg/errors"

// ExtractPrefix adds projections of the first n elements of tup to tup's
// computation and reassembles them into a tuple of the prefix shape.
func ExtractPrefix(tup *Instruction, n int) (*Instruction, error) {
	if !tup.Shape().IsTuple() {
		return nil, errors.Wrapf(ErrNotTupleShaped, "extract prefix of %s", tup.Name())
	}
	c := tup.Parent()
	elems := make([]*Instruction, n)
	for i := 0; i < n; i++ {
		elems[i] = c.AddInstruction(NewGetTupleElement(tup, i))
	}
	return c.AddInstruction(NewTuple(elems...)), nil
}

// AppendSuffix adds projections of every element of tup to tup's computation
// and reassembles them, followed by suffix, into a wider tuple.
func AppendSuffix(tup *Instruction, suffix []*Instruction) (*Instruction, error) {
	if !tup.Shape().IsTuple() {
		return nil, errors.Wrapf(ErrNotTupleShaped, "append suffix to %s", tup.Name())
	}
	c := tup.Parent()
	elems := make([]*Instruction, 0, tup.Shape().TupleSize()+len(suffix))
	for i := 0; i < tup.Shape().TupleSize(); i++ {
		elems = append(elems, c.AddInstruction(NewGetTupleElement(tup, i)))
	}
	elems = append(elems, suffix...)
	return c.AddInstruction(NewTuple(elems...)), nil
}

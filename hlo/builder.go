package hlo

// Builder accumulates instructions for a new Computation. Unless overridden
// with BuildWithRoot, the last instruction added becomes the root.
type Builder struct {
	name   string
	instrs []*Instruction
}

// NewBuilder returns a Builder for a computation called name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// AddInstruction appends a detached instruction and returns it.
func (b *Builder) AddInstruction(i *Instruction) *Instruction {
	b.instrs = append(b.instrs, i)
	return i
}

// Build returns the computation with the last added instruction as root.
func (b *Builder) Build() *Computation {
	var root *Instruction
	if len(b.instrs) > 0 {
		root = b.instrs[len(b.instrs)-1]
	}
	return b.BuildWithRoot(root)
}

// BuildWithRoot returns the computation with an explicit root instruction.
func (b *Builder) BuildWithRoot(root *Instruction) *Computation {
	c := &Computation{name: b.name}
	for _, i := range b.instrs {
		c.AddInstruction(i)
	}
	c.root = root
	return c
}

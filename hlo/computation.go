package hlo

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrHasUsers      = errors.New("instruction still has users")
	ErrIsRoot        = errors.New("instruction is the computation root")
	ErrNotMember     = errors.New("instruction does not belong to this computation")
	ErrMultipleParam = errors.New("computation already has a parameter")
)

// Computation is a named, ordered subgraph of instructions with a single
// parameter and a designated root (result) instruction. Insertion order of
// instructions is observable and stable.
type Computation struct {
	name   string
	module *Module
	param  *Instruction
	root   *Instruction
	instrs []*Instruction
	nextID int
}

func (c *Computation) Name() string { return c.name }

// Module returns the module this computation belongs to, nil if detached.
func (c *Computation) Module() *Module { return c.module }

// Parameter returns the computation's single parameter instruction.
func (c *Computation) Parameter() *Instruction { return c.param }

// Root returns the instruction whose value is the computation's result.
func (c *Computation) Root() *Instruction { return c.root }

// SetRoot designates an instruction of c as the computation's result.
func (c *Computation) SetRoot(i *Instruction) error {
	if i.parent != c {
		return errors.Wrapf(ErrNotMember, "set root %s of %s", i.Name(), c.name)
	}
	c.root = i
	return nil
}

// NumInstructions returns the number of instructions in c.
func (c *Computation) NumInstructions() int { return len(c.instrs) }

// Instructions returns a copy of the instruction list in insertion order.
func (c *Computation) Instructions() []*Instruction {
	instrs := make([]*Instruction, len(c.instrs))
	copy(instrs, c.instrs)
	return instrs
}

// AddInstruction attaches a detached instruction to c and returns it.
// Instructions without a name are named "opcode.N" with N unique within c.
func (c *Computation) AddInstruction(i *Instruction) *Instruction {
	if i.parent != nil {
		panic(fmt.Sprintf("hlo: %s already belongs to %s", i.name, i.parent.name))
	}
	if i.name == "" {
		i.name = fmt.Sprintf("%s.%d", i.op, c.nextID)
	}
	c.nextID++
	i.parent = c
	if i.op == Parameter {
		if c.param != nil {
			panic(ErrMultipleParam.Error())
		}
		c.param = i
	}
	c.instrs = append(c.instrs, i)
	return i
}

// PostOrder returns all instructions of c ordered so that every instruction
// appears after its operands. The graph is acyclic so a single DFS suffices.
func (c *Computation) PostOrder() []*Instruction {
	order := make([]*Instruction, 0, len(c.instrs))
	visited := make(map[*Instruction]bool, len(c.instrs))
	var visit func(i *Instruction)
	visit = func(i *Instruction) {
		if visited[i] {
			return
		}
		visited[i] = true
		for _, op := range i.operands {
			visit(op)
		}
		order = append(order, i)
	}
	for _, i := range c.instrs {
		visit(i)
	}
	return order
}

// ReplaceInstruction redirects all uses of old (including the root
// designation) to repl, then removes old together with operands that became
// unused. The shapes must be equal.
func (c *Computation) ReplaceInstruction(old, repl *Instruction) error {
	if old.parent != c {
		return errors.Wrapf(ErrNotMember, "replace %s in %s", old.Name(), c.name)
	}
	if err := old.ReplaceAllUsesWith(repl); err != nil {
		return errors.Wrapf(err, "replace %s in %s", old.Name(), c.name)
	}
	c.removeUnused(old)
	return nil
}

// RemoveInstruction removes an instruction with no remaining users from c.
func (c *Computation) RemoveInstruction(i *Instruction) error {
	if i.parent != c {
		return errors.Wrapf(ErrNotMember, "remove %s from %s", i.Name(), c.name)
	}
	if len(i.users) > 0 {
		return errors.Wrapf(ErrHasUsers, "remove %s from %s", i.Name(), c.name)
	}
	if i == c.root {
		return errors.Wrapf(ErrIsRoot, "remove %s from %s", i.Name(), c.name)
	}
	c.remove(i)
	return nil
}

// removeUnused removes i and, transitively, operands of i left without any
// user. Parameters, the root and side-effecting instructions stay.
func (c *Computation) removeUnused(i *Instruction) {
	worklist := []*Instruction{i}
	for len(worklist) > 0 {
		next := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if next.parent != c || len(next.users) > 0 ||
			next == c.root || next.op == Parameter || next.HasSideEffect() {
			continue
		}
		worklist = append(worklist, next.operands...)
		c.remove(next)
	}
}

func (c *Computation) remove(i *Instruction) {
	i.detachOperands()
	for n, instr := range c.instrs {
		if instr == i {
			c.instrs = append(c.instrs[:n], c.instrs[n+1:]...)
			break
		}
	}
	i.parent = nil
}

// calledComputations returns the computations referenced by while
// instructions of c, in instruction order.
func (c *Computation) calledComputations() []*Computation {
	var called []*Computation
	for _, i := range c.instrs {
		if i.op == While {
			called = append(called, i.wcnd, i.body)
		}
	}
	return called
}

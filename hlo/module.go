package hlo

import "fmt"

// Module owns the entry computation and all embedded computations (loop
// bodies and conditions).
type Module struct {
	name  string
	entry *Computation
	comps []*Computation // All computations, in add order.
}

// NewModule returns a new, empty Module.
func NewModule(name string) *Module {
	return &Module{name: name}
}

func (m *Module) Name() string { return m.name }

// Entry returns the module's entry computation, nil if not yet added.
func (m *Module) Entry() *Computation { return m.entry }

// AddEntryComputation attaches c to m as the entry computation.
func (m *Module) AddEntryComputation(c *Computation) *Computation {
	m.entry = m.addComputation(c)
	return m.entry
}

// AddEmbeddedComputation attaches c to m as an embedded computation.
func (m *Module) AddEmbeddedComputation(c *Computation) *Computation {
	return m.addComputation(c)
}

func (m *Module) addComputation(c *Computation) *Computation {
	if c.module != nil {
		panic(fmt.Sprintf("hlo: computation %s already belongs to module %s", c.name, c.module.name))
	}
	c.name = m.uniqueName(c.name)
	c.module = m
	m.comps = append(m.comps, c)
	return c
}

// Computations returns a copy of all computations in add order.
func (m *Module) Computations() []*Computation {
	comps := make([]*Computation, len(m.comps))
	copy(comps, m.comps)
	return comps
}

// Computation looks up a computation by name, nil if absent.
func (m *Module) Computation(name string) *Computation {
	for _, c := range m.comps {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (m *Module) uniqueName(name string) string {
	if m.Computation(name) == nil {
		return name
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s.%d", name, n)
		if m.Computation(candidate) == nil {
			return candidate
		}
	}
}

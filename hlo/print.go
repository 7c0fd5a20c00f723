package hlo

import (
	"bytes"
	"fmt"
	"io"
)

// WriteTo writes the module to w in the textual IR form understood by the
// parse subpackage. Computations are ordered callee-first so that every
// while instruction refers only to computations written before it; the entry
// computation is written last with an ENTRY marker.
func (m *Module) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "HloModule %s\n", m.name)
	for _, c := range m.printOrder() {
		buf.WriteString("\n")
		c.writeTo(&buf, c == m.entry)
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// printOrder is a post-order walk of the call graph: callees before callers,
// entry last, remaining computations in add order.
func (m *Module) printOrder() []*Computation {
	order := make([]*Computation, 0, len(m.comps))
	visited := make(map[*Computation]bool, len(m.comps))
	var visit func(c *Computation)
	visit = func(c *Computation) {
		if visited[c] {
			return
		}
		visited[c] = true
		for _, callee := range c.calledComputations() {
			visit(callee)
		}
		order = append(order, c)
	}
	for _, c := range m.comps {
		if c != m.entry {
			visit(c)
		}
	}
	if m.entry != nil {
		visit(m.entry)
	}
	return order
}

func (c *Computation) writeTo(w io.Writer, entry bool) {
	if entry {
		fmt.Fprintf(w, "ENTRY %s {\n", c.name)
	} else {
		fmt.Fprintf(w, "%s {\n", c.name)
	}
	for _, i := range c.instrs {
		if i == c.root {
			fmt.Fprintf(w, "  ROOT %s\n", i)
		} else {
			fmt.Fprintf(w, "  %s\n", i)
		}
	}
	fmt.Fprintf(w, "}\n")
}

// String renders the computation in textual IR form.
func (c *Computation) String() string {
	var buf bytes.Buffer
	c.writeTo(&buf, false)
	return buf.String()
}

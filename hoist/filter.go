package hoist

import (
	"github.com/nickng/gohlo/hlo"
	"github.com/nickng/gohlo/invariant"
)

// notWorthHoistingIndividually reports instructions that gain nothing from
// leaving the loop on their own: pure plumbing (projections, tuple
// construction, bitcasts) and, unless constant hoisting is enabled,
// constants. Such instructions still move when a hoisted instruction pulls
// them along as operands, so a value whose only consumer stays in the body
// stays too.
func (p *Pass) notWorthHoistingIndividually(instr *hlo.Instruction) bool {
	switch instr.Opcode() {
	case hlo.Constant:
		return !p.HoistConstants
	case hlo.Bitcast, hlo.Tuple, hlo.GetTupleElement:
		return true
	}
	return false
}

// hoistRoots selects the invariant instructions worth extracting from body,
// in post order so operands precede their users.
func (p *Pass) hoistRoots(body *hlo.Computation, inv *invariant.Analysis) []*hlo.Instruction {
	var roots []*hlo.Instruction
	for _, instr := range body.PostOrder() {
		if instr == body.Root() || instr.Opcode() == hlo.Parameter {
			continue
		}
		if !inv.Invariant(instr) {
			continue
		}
		if p.notWorthHoistingIndividually(instr) {
			continue
		}
		roots = append(roots, instr)
	}
	return roots
}

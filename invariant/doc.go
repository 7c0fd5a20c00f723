// Package invariant classifies instructions of a while-loop body as
// loop-invariant or loop-varying.
//
// The loop-carried state is a tuple threaded through the body's parameter
// and root. A projection of the parameter is invariant exactly when the
// body's root passes the same projection back through the matching slot
// (structural identity of the root operand, not just shape equality).
// Everything else is invariant when all of its operands are, except that
// side effects and control dependency edges pin an instruction to the body
// regardless of its data flow.
package invariant

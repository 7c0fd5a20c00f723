// Package hoist implements invariant code motion for while loops: loop body
// instructions whose values provably do not change across iterations are
// computed once before the loop, and the loop-carried state is widened to
// thread their results back into the body.
//
// The pass is conservative by construction: side effects, control
// dependency edges, loop-varying operands and non-tuple loop state all
// resolve to "do not hoist" rather than to an error, and a loop is either
// rewritten completely or left exactly as found.
package hoist

import (
	"github.com/nickng/gohlo/hlo"
	"github.com/nickng/gohlo/invariant"
	"github.com/pkg/errors"
)

// Pass is one invocation of while-loop invariant code motion over a module.
// Each while loop is analysed and rewritten independently, once per Run;
// callers wanting saturation re-run the pass until it reports no change.
type Pass struct {
	// HoistConstants permits hoisting a constant on its own. Off by
	// default: materialising literals once per enclosing scope instead of
	// once per loop body duplicates them for little gain, but a constant
	// feeding a hoisted instruction moves with it regardless.
	HoistConstants bool

	*Logger
}

// New returns a new Pass with default options.
func New() *Pass {
	return &Pass{Logger: newLogger()}
}

// SetLogger replaces the pass logger.
func (p *Pass) SetLogger(l *Logger) {
	p.Logger = l
}

// AddLogFiles extends the current Logger and writes additional log to files.
func (p *Pass) AddLogFiles(file ...string) {
	p.Logger = newFileLogger(file...)
}

// Run hoists loop-invariant instructions out of every while loop in m and
// reports whether the module changed.
func (p *Pass) Run(m *hlo.Module) (bool, error) {
	// Sync error ignored. See https://github.com/uber-go/zap/issues/328
	defer p.Logger.Sync()

	// Collect before rewriting: hoisting adds instructions to the
	// enclosing computations while we iterate.
	var whiles []*hlo.Instruction
	for _, comp := range m.Computations() {
		for _, instr := range comp.Instructions() {
			if instr.Opcode() == hlo.While {
				whiles = append(whiles, instr)
			}
		}
	}

	changed := false
	for _, while := range whiles {
		hoisted, err := p.tryHoist(while)
		if err != nil {
			return changed, errors.Wrapf(err, "hoisting out of %s", while.Name())
		}
		changed = changed || hoisted
	}
	return changed, nil
}

// tryHoist rewrites one while loop, reporting whether anything moved.
func (p *Pass) tryHoist(while *hlo.Instruction) (bool, error) {
	body := while.Body()
	if root := body.Root(); root == nil || !root.Shape().IsTuple() {
		// Widening needs a tuple-shaped loop state to extend.
		p.Debugf("skipping %s: body root is not a tuple", while.Name())
		return false, nil
	}

	inv, err := invariant.New(body)
	if err != nil {
		return false, err
	}
	if len(invariant.PassthroughGTEs(body)) == 0 && !p.HoistConstants {
		// No slot of the loop state is invariant and constants stay put:
		// nothing can seed a hoist.
		p.Debugf("skipping %s: no invariant state slots", while.Name())
		return false, nil
	}

	roots := p.hoistRoots(body, inv)
	if len(roots) == 0 {
		p.Debugf("skipping %s: no hoistable instructions", while.Name())
		return false, nil
	}

	w := newWidener(while)
	for _, instr := range roots {
		p.Debugf("hoisting %s out of %s", instr, while.Name())
		w.hoist(instr)
	}
	if _, err := w.apply(); err != nil {
		return false, err
	}
	p.Infow("hoisted invariant instructions",
		"while", while.Name(),
		"body", body.Name(),
		"instructions", len(roots),
	)
	return true, nil
}

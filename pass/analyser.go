// Package pass provides the Analyser interface for module passes.
package pass

import "github.com/nickng/gohlo/hlo"

// Analyser is an interface for module-rewriting passes.
type Analyser interface {
	// Run applies the pass to a module and reports whether it changed.
	// Passes that cannot safely transform an input leave it unchanged and
	// report false rather than returning an error.
	Run(m *hlo.Module) (bool, error)
}

// Fixpoint re-runs a pass until it reports no change, returning whether any
// run changed the module.
func Fixpoint(a Analyser, m *hlo.Module) (bool, error) {
	changed := false
	for {
		c, err := a.Run(m)
		if err != nil {
			return changed, err
		}
		if !c {
			return changed, nil
		}
		changed = true
	}
}

package pass

import (
	"testing"

	"github.com/nickng/gohlo/hlo"
	"github.com/pkg/errors"
)

// countdown reports a change the first n runs.
type countdown struct {
	n    int
	runs int
}

func (c *countdown) Run(m *hlo.Module) (bool, error) {
	c.runs++
	if c.n > 0 {
		c.n--
		return true, nil
	}
	return false, nil
}

func TestFixpoint(t *testing.T) {
	m := hlo.NewModule("fixpoint")

	a := &countdown{n: 3}
	changed, err := Fixpoint(a, m)
	if err != nil {
		t.Fatalf("fixpoint failed: %v", err)
	}
	if !changed {
		t.Error("expected an overall change")
	}
	if a.runs != 4 {
		t.Errorf("ran %d times, want 4 (three changes plus the final stable run)", a.runs)
	}

	b := &countdown{}
	changed, err = Fixpoint(b, m)
	if err != nil {
		t.Fatalf("fixpoint failed: %v", err)
	}
	if changed {
		t.Error("expected no change from a stable analyser")
	}
	if b.runs != 1 {
		t.Errorf("ran %d times, want 1", b.runs)
	}
}

type failing struct{}

var errBroken = errors.New("broken")

func (failing) Run(m *hlo.Module) (bool, error) { return false, errBroken }

func TestFixpointError(t *testing.T) {
	if _, err := Fixpoint(failing{}, hlo.NewModule("err")); errors.Cause(err) != errBroken {
		t.Errorf("Fixpoint error = %v, want %v", err, errBroken)
	}
}

// Command hoistwhile runs while-loop invariant code motion over textual IR
// modules and prints the rewritten modules.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/nickng/gohlo/hlo"
	"github.com/nickng/gohlo/hlo/parse"
	"github.com/nickng/gohlo/hoist"
	"github.com/nickng/gohlo/pass"
)

const (
	Usage = `hoistwhile is a tool for hoisting loop-invariant instructions out of
while loops in textual IR modules.

Usage:

  hoistwhile [options] module.hlo [modules.hlo...]

Options:

`
)

var (
	hoistConst bool
	fixpoint   bool
	logPath    string
)

func init() {
	flag.BoolVar(&hoistConst, "hoistconst", false, "Hoist constants on their own")
	flag.BoolVar(&fixpoint, "fixpoint", false, "Re-run the pass until no further change")
	flag.StringVar(&logPath, "log", "", "Specify pass log file")
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, Usage)
		flag.PrintDefaults()
		os.Exit(0)
	}

	p := hoist.New()
	p.HoistConstants = hoistConst
	if logPath != "" {
		p.AddLogFiles(logPath)
	}

	for _, path := range flag.Args() {
		parser, err := parse.FromFile(path)
		if err != nil {
			log.Fatalf("Cannot read %s: %v", path, err)
		}
		module, err := parser.Parse()
		if err != nil {
			log.Fatalf("Cannot parse %s: %v", path, err)
		}
		changed, err := run(p, module)
		if err != nil {
			log.Fatalf("Pass failed on %s: %v", path, err)
		}
		if !changed {
			fmt.Fprintf(os.Stderr, "%s: no hoistable instructions\n", path)
		}
		if _, err := module.WriteTo(os.Stdout); err != nil {
			log.Fatalf("Cannot write %s: %v", path, err)
		}
	}
}

func run(p *hoist.Pass, module *hlo.Module) (bool, error) {
	if fixpoint {
		return pass.Fixpoint(p, module)
	}
	return p.Run(module)
}

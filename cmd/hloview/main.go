// Command hloview is a textual IR pretty printer.
//
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/nickng/gohlo/hlo/parse"
)

const (
	Usage = `hloview is a tool for printing textual IR modules.

Usage:

  hloview [options] module.hlo [modules.hlo...]

Options:

`
)

var (
	outPath string
	noColor bool

	out io.Writer
)

func init() {
	flag.StringVar(&outPath, "out", "", "Specify output file (default: stdout)")
	flag.BoolVar(&noColor, "nocolor", false, "Disable colored output")
}

var (
	compName = color.New(color.FgCyan, color.Bold)
	rootMark = color.New(color.FgYellow)
	entryTag = color.New(color.FgGreen, color.Bold)
)

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, Usage)
		flag.PrintDefaults()
		os.Exit(0)
	}
	if noColor {
		color.NoColor = true
	}

	switch outPath {
	case "":
		out = os.Stdout
	default:
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("Cannot create output file %s: %v", outPath, err)
		}
		defer f.Close()
		out = f
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
		var pretty strings.Builder
		if _, err := module.WriteTo(&pretty); err != nil {
			log.Fatalf("Cannot write %s: %v", path, err)
		}
		if err := highlight(out, pretty.String()); err != nil {
			log.Fatalf("Cannot write %s: %v", path, err)
		}
	}
}

// highlight rewrites the printed module with computation headers, ENTRY
// markers and ROOT instructions colored.
func highlight(w io.Writer, src string) error {
	bw := bufio.NewWriter(w)
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "ENTRY "):
			entryTag.Fprint(bw, "ENTRY ")
			compName.Fprintln(bw, strings.TrimPrefix(trimmed, "ENTRY "))
		case strings.HasSuffix(trimmed, "{"):
			compName.Fprintln(bw, line)
		case strings.HasPrefix(trimmed, "ROOT "):
			fmt.Fprint(bw, line[:len(line)-len(trimmed)])
			rootMark.Fprint(bw, "ROOT ")
			fmt.Fprintln(bw, strings.TrimPrefix(trimmed, "ROOT "))
		default:
			fmt.Fprintln(bw, line)
		}
	}
	return bw.Flush()
}

// Package parse reads the textual IR form of an hlo.Module.
//
// The format is line oriented, one instruction per line:
//
//	HloModule name
//
//	body {
//	  p = (s32[], s32[]) parameter(0)
//	  gte.1 = s32[] get-tuple-element(p), index=0
//	  ROOT tuple.2 = (s32[], s32[]) tuple(gte.1, gte.1)
//	}
//
//	ENTRY entry {
//	  ...
//	}
//
// Computations referenced by while instructions must be defined before use;
// the printer in package hlo always writes callees first. This package is
// typically used for building test fixtures from string literals.
package parse

import (
	"bufio"
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"strconv"
	"strings"

	"github.com/nickng/gohlo/hlo"
	"github.com/pkg/errors"
)

var (
	ErrBadSyntax      = errors.New("syntax error")
	ErrUndefinedName  = errors.New("reference to undefined name")
	ErrShapeMismatch  = errors.New("declared shape differs from computed shape")
	ErrNoModuleHeader = errors.New("missing HloModule header")
)

// Parser reads one module from a cached source.
type Parser struct {
	src []byte
}

// FromReader returns a Parser for the contents of r.
// This is typically used for testing with string fixtures.
func FromReader(r io.Reader) (*Parser, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read from reader")
	}
	return &Parser{src: b}, nil
}

// FromFile returns a Parser for the contents of the named file.
func FromFile(path string) (*Parser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read from file: %s", path)
	}
	defer f.Close()
	return FromReader(bufio.NewReader(f))
}

// Parse parses the source and returns the module.
func (p *Parser) Parse() (*hlo.Module, error) {
	var (
		module *hlo.Module
		comp   *compState
		lineno int
	)
	scanner := bufio.NewScanner(bytes.NewReader(p.src))
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "//"):
			continue

		case strings.HasPrefix(line, "HloModule "):
			module = hlo.NewModule(strings.TrimSpace(strings.TrimPrefix(line, "HloModule ")))

		case strings.HasSuffix(line, "{"):
			if module == nil {
				return nil, errors.Wrapf(ErrNoModuleHeader, "line %d", lineno)
			}
			if comp != nil {
				return nil, errors.Wrapf(ErrBadSyntax, "line %d: unterminated computation %s", lineno, comp.name)
			}
			name := strings.TrimSpace(strings.TrimSuffix(line, "{"))
			entry := false
			if strings.HasPrefix(name, "ENTRY ") {
				entry = true
				name = strings.TrimSpace(strings.TrimPrefix(name, "ENTRY "))
			}
			comp = newCompState(name, entry, module)

		case line == "}":
			if comp == nil {
				return nil, errors.Wrapf(ErrBadSyntax, "line %d: unmatched }", lineno)
			}
			comp.finish()
			comp = nil

		default:
			if comp == nil {
				return nil, errors.Wrapf(ErrBadSyntax, "line %d: instruction outside computation", lineno)
			}
			if err := comp.parseInstruction(line); err != nil {
				return nil, errors.Wrapf(err, "line %d", lineno)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan source")
	}
	if comp != nil {
		return nil, errors.Wrapf(ErrBadSyntax, "unterminated computation %s", comp.name)
	}
	if module == nil {
		return nil, ErrNoModuleHeader
	}
	return module, nil
}

// compState accumulates one computation while its lines are parsed.
type compState struct {
	name    string
	entry   bool
	module  *hlo.Module
	builder *hlo.Builder
	byName  map[string]*hlo.Instruction
	root    *hlo.Instruction
}

func newCompState(name string, entry bool, module *hlo.Module) *compState {
	return &compState{
		name:    name,
		entry:   entry,
		module:  module,
		builder: hlo.NewBuilder(name),
		byName:  make(map[string]*hlo.Instruction),
	}
}

func (c *compState) finish() {
	var comp *hlo.Computation
	if c.root != nil {
		comp = c.builder.BuildWithRoot(c.root)
	} else {
		comp = c.builder.Build()
	}
	if c.entry {
		c.module.AddEntryComputation(comp)
	} else {
		c.module.AddEmbeddedComputation(comp)
	}
}

// parseInstruction parses "[ROOT] name = shape opcode(args)[, key=value]...".
func (c *compState) parseInstruction(line string) error {
	isRoot := false
	if strings.HasPrefix(line, "ROOT ") {
		isRoot = true
		line = strings.TrimSpace(strings.TrimPrefix(line, "ROOT "))
	}
	eq := strings.Index(line, "=")
	if eq < 0 {
		return errors.Wrapf(ErrBadSyntax, "no '=' in %q", line)
	}
	name := strings.TrimSpace(line[:eq])
	rest := strings.TrimSpace(line[eq+1:])

	shape, rest, err := parseShape(rest)
	if err != nil {
		return err
	}
	rest = strings.TrimSpace(rest)

	open := strings.Index(rest, "(")
	if open < 0 {
		return errors.Wrapf(ErrBadSyntax, "no operand list in %q", line)
	}
	opname := strings.TrimSpace(rest[:open])
	op, ok := hlo.OpcodeByName(opname)
	if !ok {
		return errors.Wrapf(ErrBadSyntax, "unknown opcode %q", opname)
	}
	args, rest, err := splitParens(rest[open:])
	if err != nil {
		return err
	}
	attrs, err := parseAttrs(rest)
	if err != nil {
		return err
	}

	instr, err := c.makeInstruction(op, shape, name, args, attrs)
	if err != nil {
		return err
	}
	if !instr.Shape().Equal(shape) {
		return errors.Wrapf(ErrShapeMismatch, "%s: declared %s, computed %s", name, shape, instr.Shape())
	}
	c.builder.AddInstruction(instr)
	c.byName[name] = instr
	if isRoot {
		c.root = instr
	}
	return nil
}

func (c *compState) makeInstruction(op hlo.Opcode, shape hlo.Shape, name, args string, attrs map[string]string) (*hlo.Instruction, error) {
	switch op {
	case hlo.Parameter:
		index, err := strconv.Atoi(strings.TrimSpace(args))
		if err != nil {
			return nil, errors.Wrapf(ErrBadSyntax, "parameter index %q", args)
		}
		return hlo.NewParameter(index, shape, name), nil

	case hlo.Constant:
		return hlo.NewConstant(shape, strings.TrimSpace(args)).WithName(name), nil

	case hlo.GetTupleElement:
		operands, err := c.operands(args, 1)
		if err != nil {
			return nil, err
		}
		index, err := strconv.Atoi(attrs["index"])
		if err != nil {
			return nil, errors.Wrapf(ErrBadSyntax, "get-tuple-element index %q", attrs["index"])
		}
		tup := operands[0]
		if !tup.Shape().IsTuple() || index < 0 || index >= tup.Shape().TupleSize() {
			return nil, errors.Wrapf(ErrBadSyntax, "index %d out of bounds for %s", index, tup.Shape())
		}
		return hlo.NewGetTupleElement(tup, index).WithName(name), nil

	case hlo.Tuple:
		operands, err := c.operands(args, -1)
		if err != nil {
			return nil, err
		}
		return hlo.NewTuple(operands...).WithName(name), nil

	case hlo.While:
		operands, err := c.operands(args, 1)
		if err != nil {
			return nil, err
		}
		cond := c.module.Computation(attrs["condition"])
		body := c.module.Computation(attrs["body"])
		if cond == nil || body == nil {
			return nil, errors.Wrapf(ErrUndefinedName, "while condition=%q body=%q", attrs["condition"], attrs["body"])
		}
		return hlo.NewWhile(cond, body, operands[0]).WithName(name), nil

	case hlo.Outfeed:
		operands, err := c.operands(args, 1)
		if err != nil {
			return nil, err
		}
		return hlo.NewOutfeed(operands[0]).WithName(name), nil

	default:
		switch {
		case op.IsUnary():
			operands, err := c.operands(args, 1)
			if err != nil {
				return nil, err
			}
			return hlo.NewUnary(shape, op, operands[0]).WithName(name), nil
		case op.IsBinary():
			operands, err := c.operands(args, 2)
			if err != nil {
				return nil, err
			}
			return hlo.NewBinary(shape, op, operands[0], operands[1]).WithName(name), nil
		}
		return nil, errors.Wrapf(ErrBadSyntax, "cannot build %s", op)
	}
}

// operands resolves a comma separated name list. A negative want accepts any
// number of operands.
func (c *compState) operands(args string, want int) ([]*hlo.Instruction, error) {
	var names []string
	if strings.TrimSpace(args) != "" {
		names = strings.Split(args, ",")
	}
	if want >= 0 && len(names) != want {
		return nil, errors.Wrapf(ErrBadSyntax, "want %d operands, got %d in %q", want, len(names), args)
	}
	operands := make([]*hlo.Instruction, len(names))
	for i, n := range names {
		instr, ok := c.byName[strings.TrimSpace(n)]
		if !ok {
			return nil, errors.Wrapf(ErrUndefinedName, "operand %q", strings.TrimSpace(n))
		}
		operands[i] = instr
	}
	return operands, nil
}

// splitParens splits "(inner)rest" at the matching close paren.
func splitParens(s string) (inner, rest string, err error) {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], s[i+1:], nil
			}
		}
	}
	return "", "", errors.Wrapf(ErrBadSyntax, "unbalanced parentheses in %q", s)
}

// parseAttrs parses ", key=value, key=value" after the operand list.
func parseAttrs(s string) (map[string]string, error) {
	attrs := make(map[string]string)
	s = strings.TrimSpace(s)
	if s == "" {
		return attrs, nil
	}
	if !strings.HasPrefix(s, ",") {
		return nil, errors.Wrapf(ErrBadSyntax, "unexpected trailing %q", s)
	}
	for _, kv := range strings.Split(s[1:], ",") {
		parts := strings.SplitN(strings.TrimSpace(kv), "=", 2)
		if len(parts) != 2 {
			return nil, errors.Wrapf(ErrBadSyntax, "bad attribute %q", kv)
		}
		attrs[parts[0]] = strings.TrimSpace(parts[1])
	}
	return attrs, nil
}

// parseShape parses a shape prefix of s, returning the remainder. Layout
// annotations ("{0}" after dimensions) are accepted and ignored.
func parseShape(s string) (hlo.Shape, string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") {
		var elems []hlo.Shape
		rest := s[1:]
		for {
			rest = strings.TrimSpace(rest)
			if strings.HasPrefix(rest, ")") {
				return hlo.TupleShape(elems...), rest[1:], nil
			}
			if strings.HasPrefix(rest, ",") {
				rest = rest[1:]
				continue
			}
			elem, r, err := parseShape(rest)
			if err != nil {
				return hlo.Shape{}, "", err
			}
			elems, rest = append(elems, elem), r
		}
	}
	open := strings.Index(s, "[")
	if open < 0 {
		return hlo.Shape{}, "", errors.Wrapf(ErrBadSyntax, "bad shape %q", s)
	}
	elem, ok := hlo.ElementByName(strings.TrimSpace(s[:open]))
	if !ok {
		return hlo.Shape{}, "", errors.Wrapf(ErrBadSyntax, "unknown element kind %q", s[:open])
	}
	close := strings.Index(s, "]")
	if close < 0 {
		return hlo.Shape{}, "", errors.Wrapf(ErrBadSyntax, "bad shape %q", s)
	}
	var dims []int
	if inner := strings.TrimSpace(s[open+1 : close]); inner != "" {
		for _, d := range strings.Split(inner, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(d))
			if err != nil {
				return hlo.Shape{}, "", errors.Wrapf(ErrBadSyntax, "bad dimension %q", d)
			}
			dims = append(dims, n)
		}
	}
	rest := s[close+1:]
	if strings.HasPrefix(rest, "{") { // layout annotation
		if end := strings.Index(rest, "}"); end >= 0 {
			rest = rest[end+1:]
		}
	}
	return hlo.ArrayShape(elem, dims...), rest, nil
}

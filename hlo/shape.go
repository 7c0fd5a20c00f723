package hlo

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Element is the scalar element kind of an array shape.
type Element int

const (
	InvalidElement Element = iota
	Pred                   // Boolean predicate.
	S32                    // Signed 32-bit integer.
	F32                    // 32-bit float.
)

func (e Element) String() string {
	switch e {
	case Pred:
		return "pred"
	case S32:
		return "s32"
	case F32:
		return "f32"
	}
	return "invalid"
}

// ElementByName returns the Element written as name.
func ElementByName(name string) (Element, bool) {
	switch name {
	case "pred":
		return Pred, true
	case "s32":
		return S32, true
	case "f32":
		return F32, true
	}
	return InvalidElement, false
}

// Shape is the type of an instruction output: either an array of a scalar
// element kind (a scalar is a rank-0 array), or a tuple of shapes.
type Shape struct {
	element Element
	dims    []int
	tuple   []Shape
	isTuple bool
}

// ScalarShape returns the shape of a rank-0 array of e.
func ScalarShape(e Element) Shape {
	return Shape{element: e}
}

// ArrayShape returns the shape of an array of e with the given dimensions.
func ArrayShape(e Element, dims ...int) Shape {
	return Shape{element: e, dims: dims}
}

// TupleShape returns the shape of a tuple with the given element shapes.
func TupleShape(elems ...Shape) Shape {
	return Shape{tuple: elems, isTuple: true}
}

// IsTuple returns true if s is a tuple shape.
func (s Shape) IsTuple() bool { return s.isTuple }

// Element returns the scalar element kind of an array shape.
func (s Shape) Element() Element { return s.element }

// Dimensions returns the array dimensions of an array shape.
func (s Shape) Dimensions() []int { return s.dims }

// TupleSize returns the number of elements of a tuple shape, 0 otherwise.
func (s Shape) TupleSize() int { return len(s.tuple) }

// TupleElement returns the shape of tuple element i.
func (s Shape) TupleElement(i int) Shape { return s.tuple[i] }

// TupleElements returns a copy of the element shapes of a tuple shape.
func (s Shape) TupleElements() []Shape {
	elems := make([]Shape, len(s.tuple))
	copy(elems, s.tuple)
	return elems
}

// Equal is structural shape equality.
func (s Shape) Equal(t Shape) bool {
	if s.isTuple != t.isTuple {
		return false
	}
	if s.isTuple {
		if len(s.tuple) != len(t.tuple) {
			return false
		}
		for i := range s.tuple {
			if !s.tuple[i].Equal(t.tuple[i]) {
				return false
			}
		}
		return true
	}
	if s.element != t.element || len(s.dims) != len(t.dims) {
		return false
	}
	for i := range s.dims {
		if s.dims[i] != t.dims[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	if s.isTuple {
		var buf bytes.Buffer
		buf.WriteString("(")
		for i, e := range s.tuple {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(e.String())
		}
		buf.WriteString(")")
		return buf.String()
	}
	dims := make([]string, len(s.dims))
	for i, d := range s.dims {
		dims[i] = strconv.Itoa(d)
	}
	return fmt.Sprintf("%s[%s]", s.element, strings.Join(dims, ","))
}

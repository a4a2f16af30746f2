package sv

import (
	"fmt"
	"strings"
)

// Body is an ordered list of output lines. A line is either literal text or
// another renderable block, so bodies nest.
type Body struct {
	lines []fmt.Stringer
}

type textLine string

func (t textLine) String() string { return string(t) }

// Add appends a literal line of text.
func (b *Body) Add(line string) {
	b.lines = append(b.lines, textLine(line))
}

// Addf appends a formatted line of text.
func (b *Body) Addf(format string, args ...any) {
	b.lines = append(b.lines, textLine(fmt.Sprintf(format, args...)))
}

// Append nests another renderable block inside this body.
func (b *Body) Append(block fmt.Stringer) {
	b.lines = append(b.lines, block)
}

// Empty reports whether the body has no lines.
func (b *Body) Empty() bool {
	return len(b.lines) == 0
}

func (b *Body) String() string {
	parts := make([]string, len(b.lines))
	for i, l := range b.lines {
		parts[i] = l.String()
	}
	return strings.Join(parts, "\n")
}

const indentStep = "    "

// Indent prefixes every non-blank line of s with one indentation step.
func Indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = indentStep + l
		}
	}
	return strings.Join(lines, "\n")
}

// ForLoopBody renders its contents inside a for loop with a zero-based
// iteration variable. Bound may be a literal count or a parameter name.
type ForLoopBody struct {
	Body
	Typ   string
	Var   string
	Bound string
	Label string
}

// NewForLoop returns a loop body over `for (typ name = 0; name < bound; name++)`.
func NewForLoop(typ, name, bound string) *ForLoopBody {
	return &ForLoopBody{Typ: typ, Var: name, Bound: bound}
}

func (f *ForLoopBody) String() string {
	head := fmt.Sprintf("for (%s %s = 0; %s < %s; %s++) begin", f.Typ, f.Var, f.Var, f.Bound, f.Var)
	if f.Label != "" {
		head += " : " + f.Label
	}
	return head + "\n" + Indent(f.Body.String()) + "\nend"
}

// WhileLoopBody renders its contents inside a while loop.
type WhileLoopBody struct {
	Body
	Cond string
}

func (w *WhileLoopBody) String() string {
	return fmt.Sprintf("while (%s) begin\n%s\nend", w.Cond, Indent(w.Body.String()))
}

// StructBody renders its lines as the fields of a struct typedef.
type StructBody struct {
	Body
	Name   string
	Packed bool
}

// NewStruct returns an empty struct typedef body.
func NewStruct(name string, packed bool) *StructBody {
	return &StructBody{Name: name, Packed: packed}
}

func (s *StructBody) String() string {
	kw := "struct"
	if s.Packed {
		kw = "struct packed"
	}
	return fmt.Sprintf("typedef %s {\n%s\n} %s;", kw, Indent(s.Body.String()), s.Name)
}

// CombinationalBody renders its contents inside an always_comb block.
type CombinationalBody struct {
	Body
}

func (c *CombinationalBody) String() string {
	return fmt.Sprintf("always_comb begin\n%s\nend", Indent(c.Body.String()))
}

// InitialBody renders its contents inside an initial block.
type InitialBody struct {
	Body
}

func (i *InitialBody) String() string {
	return fmt.Sprintf("initial begin\n%s\nend", Indent(i.Body.String()))
}

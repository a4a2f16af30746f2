package sv

import "fmt"

// Op is a comparison operator usable in an immediate assertion.
type Op string

const (
	OpEqual        Op = "=="
	OpNotEqual     Op = "!="
	OpGreaterThan  Op = ">"
	OpLessThan     Op = "<"
	OpGreaterEqual Op = ">="
	OpLessEqual    Op = "<="
)

// Assertion is an immediate assertion with an optional label and $error
// message.
type Assertion struct {
	Left    string
	Right   string
	Op      Op
	Name    string
	Message string
}

func (a Assertion) String() string {
	s := ""
	if a.Name != "" {
		s = a.Name + ": "
	}
	s += fmt.Sprintf("assert (%s %s %s)", a.Left, a.Op, a.Right)
	if a.Message != "" {
		s += fmt.Sprintf("\n\telse $error(%q)", a.Message)
	}
	return s + ";"
}

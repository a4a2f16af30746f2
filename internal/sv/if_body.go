package sv

import (
	"fmt"
	"strings"
)

// Branch is one arm of an if/else-if chain. A branch may carry a concrete
// start address tag, which allows a caller to reorder the chain into a
// binary decision tree while keeping first-match semantics.
type Branch struct {
	Cond   string
	Addr   uint64
	Tagged bool
	body   Body
}

// Body returns the branch's statement body.
func (br *Branch) Body() *Body {
	return &br.body
}

// IfBody is an if/else-if/else chain. Branch order is first-match order.
type IfBody struct {
	branches []*Branch
	elseBody *Body
}

// Branch opens a new conditional arm and returns its body.
func (b *IfBody) Branch(cond string) *Body {
	return b.add(&Branch{Cond: cond})
}

// TaggedBranch opens a new conditional arm annotated with the concrete start
// address of the range the condition covers.
func (b *IfBody) TaggedBranch(cond string, addr uint64) *Body {
	return b.add(&Branch{Cond: cond, Addr: addr, Tagged: true})
}

func (b *IfBody) add(br *Branch) *Body {
	if b.elseBody != nil {
		panic("sv: conditional branch added after terminal else")
	}
	b.branches = append(b.branches, br)
	return &br.body
}

// Else opens the terminal arm and returns its body. No further branches may
// be added afterwards.
func (b *IfBody) Else() *Body {
	if b.elseBody != nil {
		panic("sv: duplicate else branch")
	}
	b.elseBody = &Body{}
	return b.elseBody
}

// Branches exposes the conditional arms in insertion order.
func (b *IfBody) Branches() []*Branch {
	return b.branches
}

// Empty reports whether the chain has no arms at all.
func (b *IfBody) Empty() bool {
	return len(b.branches) == 0 && b.elseBody == nil
}

func (b *IfBody) String() string {
	var sb strings.Builder
	for i, br := range b.branches {
		kw := "if"
		if i > 0 {
			kw = "else if"
		}
		fmt.Fprintf(&sb, "%s (%s) begin\n%s\nend\n", kw, br.Cond, Indent(br.body.String()))
	}
	if b.elseBody != nil {
		if len(b.branches) == 0 {
			// A bare else degenerates to its statements.
			sb.WriteString(b.elseBody.String())
		} else {
			fmt.Fprintf(&sb, "else begin\n%s\nend\n", Indent(b.elseBody.String()))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

package rdl

import (
	"fmt"
	"strings"

	"github.com/rdlgen/busdecoder/internal/sv"
)

// IndexedPath returns the dotted selector path from (and excluding) top down
// to node, with one bracketed iteration variable per open array dimension.
// Variables are numbered outermost-first along the path and prefixed with
// iterPrefix (e.g. "i" for procedural loops, "gi" for generate loops).
// Unrolled instances contribute their concrete indices in the segment name
// instead of brackets.
func IndexedPath(top, node *Component, iterPrefix string) string {
	var chain []*Component
	for n := node; n != nil && n != top; n = n.parent {
		chain = append(chain, n)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	var segs []string
	iter := 0
	for _, n := range chain {
		seg := sv.SafeID(n.InstanceName())
		if n.IsArray() {
			for range n.Dims {
				seg += fmt.Sprintf("[%s%d]", iterPrefix, iter)
				iter++
			}
		}
		segs = append(segs, seg)
	}
	return strings.Join(segs, ".")
}

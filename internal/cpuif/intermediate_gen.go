package cpuif

import (
	"github.com/rdlgen/busdecoder/internal/design"
)

// Intermediates collects the fanin helper arrays and their generate-region
// assignments for every decode target that needs them. Flat protocols and
// unrolled exports produce nothing here.
func Intermediates(ds *design.State, cp Cpuif) (decls, assigns []string) {
	for _, node := range ds.BoundaryNodes() {
		d, a := cp.IntermediateSignals(node)
		decls = append(decls, d...)
		assigns = append(assigns, a...)
	}
	return decls, assigns
}

// Package cpuif implements the bus-protocol family: signal naming, port
// declarations, slave-side adaption and per-child fanout/fanin wiring for
// APB3, APB4, AXI4-Lite and the Taxi APB vendor variant. Each protocol is
// described by an ordered signal table consumed by one shared generic
// implementation; "flat" and "interface-bundled" renditions differ only in
// how names are spelled.
package cpuif

import (
	"fmt"
	"sort"

	"github.com/rdlgen/busdecoder/internal/design"
	"github.com/rdlgen/busdecoder/internal/rdl"
	"github.com/rdlgen/busdecoder/internal/sv"
)

// Cpuif is the capability surface a bus protocol exposes to the exporter.
// All methods are pure text producers over the shared design state.
type Cpuif interface {
	// Name is the registry key, e.g. "apb4" or "axi4-lite-flat".
	Name() string

	// IsInterface reports whether ports are bundled SystemVerilog
	// interface instances rather than flattened individual wires.
	IsInterface() bool

	// PortDeclaration renders the full module port list: the slave port
	// group followed by one master port group per decode target.
	PortDeclaration() string

	// SlaveAdapter renders the continuous assignments that translate the
	// slave port group to and from the internal cpuif_* signals.
	SlaveAdapter() string

	// Signal names one protocol wire. A nil node addresses the top-level
	// slave side. idx is the literal bracket suffix for true-array
	// masters ("[gi0][gi1]"); it must be non-empty for an arrayed,
	// non-unrolled node.
	Signal(name string, node *rdl.Component, idx string) string

	// Fanout renders the assignments driving one master port group.
	// strides are the open array strides enclosing the node, outermost
	// first, including the node's own dimensions.
	Fanout(node *rdl.Component, strides []uint64) string

	// FaninWr and FaninRd render the response-mux statements for one
	// selected master, or the idle defaults when node is nil. With onErr
	// set (nil node only) they render the decode-error response instead.
	FaninWr(node *rdl.Component, onErr bool) string
	FaninRd(node *rdl.Component, onErr bool) string

	// Parameters lists the N_<INST>S element-count parameters for arrayed
	// decode targets.
	Parameters() []sv.Param

	// IntermediateSignals returns the declarations and generate-region
	// assignments needed to read an arrayed interface bundle from
	// procedural code. Both are empty for flat protocols and scalar
	// nodes.
	IntermediateSignals(node *rdl.Component) (decls, assigns []string)
}

// Factory builds a protocol instance bound to one design state.
type Factory func(ds *design.State) Cpuif

var registry = map[string]Factory{
	"apb3":           NewAPB3,
	"apb3-flat":      NewAPB3Flat,
	"apb4":           NewAPB4,
	"apb4-flat":      NewAPB4Flat,
	"axi4-lite-flat": NewAXI4LiteFlat,
	"taxi-apb":       NewTaxiAPB,
}

// Lookup resolves a protocol name to its factory.
func Lookup(name string) (Factory, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown cpu interface %q (have %v)", name, Names())
	}
	return f, nil
}

// Names lists the registered protocol names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

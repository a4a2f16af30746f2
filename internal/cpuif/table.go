package cpuif

import (
	"fmt"

	"github.com/rdlgen/busdecoder/internal/design"
	"github.com/rdlgen/busdecoder/internal/rdl"
)

// WidthKind selects how a signal's bit width is derived from the design.
type WidthKind int

const (
	Width1 WidthKind = iota // single wire
	WidthAddr               // top address width on the slave side, per-child width on masters
	WidthData               // bus data width
	WidthStrb               // one bit per data byte lane
	WidthProt               // 3-bit protection code
	WidthResp               // 2-bit response code; bit 1 flags an error
)

// Direction tells which side drives a signal. Request signals are module
// inputs on the slave group and outputs on master groups; response signals
// are the reverse.
type Direction int

const (
	DirRequest Direction = iota
	DirResponse
)

// FanRole describes what drives a request signal in the per-child fanout.
type FanRole int

const (
	FanNone   FanRole = iota
	FanSelAny         // write-select OR read-select
	FanSelWr          // write-select only
	FanSelRd          // read-select only
	FanAddrAny        // child-relative address (shared address channel)
	FanAddrWr         // child-relative address, write channel
	FanAddrRd         // child-relative address, read channel
	FanWrData         // internal write-data bus
	FanByteEn         // internal write byte-enable bus
	FanMirror         // copy of the same-named slave-side signal
)

// RspRole describes which internal response signal a response wire feeds in
// the fanin mux.
type RspRole int

const (
	RspNone   RspRole = iota
	RspAckAny         // acknowledges both directions
	RspAckWr
	RspAckRd
	RspErrAny // direct error flag, both directions
	RspErrWr  // write error; WidthResp signals contribute bit 1
	RspErrRd
	RspRdData
)

// SignalDef is one row of a protocol's signal table. The table order is the
// emission order for ports and fanout assignments.
type SignalDef struct {
	Name  string
	Width WidthKind
	Dir   Direction
	Fan   FanRole
	Rsp   RspRole
}

// widthDecl renders the packed range prefix for a signal. addrMSB is the
// most-significant-bit expression of the address range that applies to the
// port group being declared (a literal on the slave side, a parameter
// expression on master groups).
func widthDecl(ds *design.State, kind WidthKind, addrMSB string) string {
	switch kind {
	case Width1:
		return ""
	case WidthAddr:
		return fmt.Sprintf("[%s:0] ", addrMSB)
	case WidthData:
		return fmt.Sprintf("[%d:0] ", ds.DataWidth-1)
	case WidthStrb:
		return fmt.Sprintf("[%d:0] ", ds.DataWidthBytes()-1)
	case WidthProt:
		return "[2:0] "
	case WidthResp:
		return "[1:0] "
	}
	panic(fmt.Sprintf("cpuif: unknown width kind %d", kind))
}

// findFan returns the first table row carrying the given fanout role.
func findFan(table []SignalDef, role FanRole) (SignalDef, bool) {
	for _, def := range table {
		if def.Fan == role {
			return def, true
		}
	}
	return SignalDef{}, false
}

// findRsp returns the first table row carrying the given response role.
func findRsp(table []SignalDef, role RspRole) (SignalDef, bool) {
	for _, def := range table {
		if def.Rsp == role {
			return def, true
		}
	}
	return SignalDef{}, false
}

// errBitSuffix returns the bit-select needed to reduce a response signal to
// a single error flag.
func errBitSuffix(def SignalDef) string {
	if def.Width == WidthResp {
		return "[1]"
	}
	return ""
}

// bracketIdx renders the "[p0][p1]..." suffix covering every open array
// dimension between top and node, outermost first. Enclosing arrays and the
// node's own dimensions share one cumulative loop-variable numbering, so the
// suffix lines up with the loops the fanout and fanin generators open.
func bracketIdx(top, node *rdl.Component, prefix string) string {
	idx := ""
	ordinal := 0
	for _, comp := range arrayedChain(top, node) {
		for range comp.Dims {
			idx += fmt.Sprintf("[%s%d]", prefix, ordinal)
			ordinal++
		}
	}
	return idx
}

package cpuif

import (
	"fmt"
	"strings"

	"github.com/rdlgen/busdecoder/internal/design"
	"github.com/rdlgen/busdecoder/internal/rdl"
	"github.com/rdlgen/busdecoder/internal/sv"
)

// base is the shared protocol implementation. A concrete protocol is a base
// plus a signal table, naming configuration, and a slave adapter.
type base struct {
	ds    *design.State
	name  string
	table []SignalDef

	slavePrefix  string // full slave signal prefix ("s_apb_") or instance name ("s_apb")
	masterPrefix string

	// iface is the bundled interface type name; empty selects flat ports.
	iface         string
	slaveModport  string
	masterModport string
}

func (b *base) Name() string      { return b.name }
func (b *base) IsInterface() bool { return b.iface != "" }

// targets are the decode-boundary nodes, one master port group each.
func (b *base) targets() []*rdl.Component {
	return b.ds.BoundaryNodes()
}

// masterID is the flattened instance path used in master port names. Decode
// targets below the top level contribute every path segment.
func (b *base) masterID(node *rdl.Component) string {
	return strings.ReplaceAll(node.Path(b.ds.Top), ".", "_")
}

func (b *base) Signal(name string, node *rdl.Component, idx string) string {
	if node == nil {
		if b.IsInterface() {
			return b.slavePrefix + "." + name
		}
		return b.slavePrefix + name
	}
	if node.IsArray() && idx == "" {
		panic(fmt.Sprintf("cpuif: arrayed node %q addressed without an index", node.InstName))
	}
	id := b.masterPrefix + b.masterID(node)
	if b.IsInterface() {
		return id + idx + "." + name
	}
	return id + "_" + name + idx
}

// paramName names the element-count parameter for one dimension of an
// arrayed decode target.
func (b *base) paramName(node *rdl.Component, dim int) string {
	name := fmt.Sprintf("N_%sS", strings.ToUpper(b.masterID(node)))
	if len(node.Dims) > 1 {
		name = fmt.Sprintf("%s_%d", name, dim)
	}
	return name
}

func (b *base) Parameters() []sv.Param {
	var params []sv.Param
	for _, node := range b.targets() {
		if !node.IsArray() {
			continue
		}
		for i, d := range node.Dims {
			params = append(params, sv.Param{
				Name:  b.paramName(node, i),
				Value: fmt.Sprint(d),
			})
		}
	}
	return params
}

// boundBrackets renders the unpacked-array suffix for a decode target's port
// or intermediate declaration, covering every open dimension along the path.
// The target's own dimensions are bounded by its element-count parameters;
// enclosing arrays are not overridable and use their literal extents, so one
// port element exists per driving generate-loop iteration.
func (b *base) boundBrackets(node *rdl.Component) string {
	s := ""
	for _, comp := range arrayedChain(b.ds.Top, node) {
		for j, d := range comp.Dims {
			if comp == node {
				s += fmt.Sprintf("[%s]", b.paramName(node, j))
			} else {
				s += fmt.Sprintf("[%d]", d)
			}
		}
	}
	return s
}

func (b *base) PortDeclaration() string {
	if b.IsInterface() {
		ports := []string{fmt.Sprintf("%s.%s %s", b.iface, b.slaveModport, b.slavePrefix)}
		for _, node := range b.targets() {
			decl := fmt.Sprintf("%s.%s %s%s", b.iface, b.masterModport, b.masterPrefix, b.masterID(node))
			if suffix := b.boundBrackets(node); suffix != "" {
				decl += " " + suffix
			}
			ports = append(ports, decl)
		}
		return strings.Join(ports, ",\n")
	}

	var ports []string
	topAddr := fmt.Sprint(b.ds.AddrWidth - 1)
	for _, def := range b.table {
		dir := "input"
		if def.Dir == DirResponse {
			dir = "output"
		}
		ports = append(ports, fmt.Sprintf("%s logic %s%s",
			dir, widthDecl(b.ds, def.Width, topAddr), b.Signal(def.Name, nil, "")))
	}
	for _, node := range b.targets() {
		childAddr := ChildAddrWidthParam(b.ds, node) + "-1"
		suffix := b.boundBrackets(node)
		for _, def := range b.table {
			dir := "output"
			if def.Dir == DirResponse {
				dir = "input"
			}
			name := b.masterPrefix + b.masterID(node) + "_" + def.Name
			decl := fmt.Sprintf("%s logic %s%s", dir, widthDecl(b.ds, def.Width, childAddr), name)
			if suffix != "" {
				decl += " " + suffix
			}
			ports = append(ports, decl)
		}
	}
	return strings.Join(ports, ",\n")
}

func (b *base) Fanout(node *rdl.Component, strides []uint64) string {
	idx := bracketIdx(b.ds.Top, node, "gi")
	wrSel := "cpuif_wr_sel." + rdl.IndexedPath(b.ds.Top, node, "gi")
	rdSel := "cpuif_rd_sel." + rdl.IndexedPath(b.ds.Top, node, "gi")

	var lines []string
	for _, def := range b.table {
		if def.Dir != DirRequest {
			continue
		}
		var rhs string
		switch def.Fan {
		case FanSelAny:
			rhs = wrSel + "|" + rdSel
		case FanSelWr:
			rhs = wrSel
		case FanSelRd:
			rhs = rdSel
		case FanAddrAny, FanAddrWr, FanAddrRd:
			rhs = childAddrExpr(b.ds, node, strides, b.Signal(def.Name, nil, ""))
		case FanWrData:
			rhs = "cpuif_wr_data"
		case FanByteEn:
			rhs = "cpuif_wr_byte_en"
		case FanMirror:
			rhs = b.Signal(def.Name, nil, "")
		default:
			continue
		}
		lines = append(lines, fmt.Sprintf("assign %s = %s;", b.Signal(def.Name, node, idx), rhs))
	}
	return strings.Join(lines, "\n")
}

// usesIntermediates reports whether reading the node's responses requires
// the intermediate fanin arrays (arrayed interface bundles cannot be indexed
// with a runtime variable from procedural code). Arrayed enclosing regfiles
// make a scalar target's bundle arrayed all the same.
func (b *base) usesIntermediates(node *rdl.Component) bool {
	return b.IsInterface() && node != nil && len(arrayedChain(b.ds.Top, node)) > 0
}

func (b *base) FaninWr(node *rdl.Component, onErr bool) string {
	if node == nil {
		if onErr {
			return "cpuif_wr_ack = '1;\ncpuif_wr_err = cpuif_wr_sel.cpuif_err;"
		}
		return "cpuif_wr_ack = '0;\ncpuif_wr_err = '0;"
	}
	idx := bracketIdx(b.ds.Top, node, "i")
	if b.usesIntermediates(node) {
		id := b.masterID(node)
		return fmt.Sprintf("cpuif_wr_ack = %s_fanin_ready%s;\ncpuif_wr_err = %s_fanin_err%s;",
			id, idx, id, idx)
	}

	ack, ok := findRsp(b.table, RspAckWr)
	if !ok {
		ack, _ = findRsp(b.table, RspAckAny)
	}
	errs, ok := findRsp(b.table, RspErrWr)
	if !ok {
		errs, _ = findRsp(b.table, RspErrAny)
	}
	return fmt.Sprintf("cpuif_wr_ack = %s;\ncpuif_wr_err = %s%s;",
		b.Signal(ack.Name, node, idx), b.Signal(errs.Name, node, idx), errBitSuffix(errs))
}

func (b *base) FaninRd(node *rdl.Component, onErr bool) string {
	if node == nil {
		if onErr {
			return "cpuif_rd_ack = '1;\ncpuif_rd_err = cpuif_rd_sel.cpuif_err;"
		}
		return "cpuif_rd_ack = '0;\ncpuif_rd_err = '0;\ncpuif_rd_data = '0;"
	}
	idx := bracketIdx(b.ds.Top, node, "i")
	if b.usesIntermediates(node) {
		id := b.masterID(node)
		return fmt.Sprintf("cpuif_rd_ack = %s_fanin_ready%s;\ncpuif_rd_err = %s_fanin_err%s;\ncpuif_rd_data = %s_fanin_data%s;",
			id, idx, id, idx, id, idx)
	}

	ack, ok := findRsp(b.table, RspAckRd)
	if !ok {
		ack, _ = findRsp(b.table, RspAckAny)
	}
	errs, ok := findRsp(b.table, RspErrRd)
	if !ok {
		errs, _ = findRsp(b.table, RspErrAny)
	}
	data, _ := findRsp(b.table, RspRdData)
	return fmt.Sprintf("cpuif_rd_ack = %s;\ncpuif_rd_err = %s%s;\ncpuif_rd_data = %s;",
		b.Signal(ack.Name, node, idx), b.Signal(errs.Name, node, idx), errBitSuffix(errs),
		b.Signal(data.Name, node, idx))
}

func (b *base) IntermediateSignals(node *rdl.Component) (decls, assigns []string) {
	if !b.usesIntermediates(node) {
		return nil, nil
	}
	id := b.masterID(node)
	bounds := b.boundBrackets(node)
	decls = []string{
		fmt.Sprintf("logic %s_fanin_ready %s;", id, bounds),
		fmt.Sprintf("logic %s_fanin_err %s;", id, bounds),
		fmt.Sprintf("logic [%d:0] %s_fanin_data %s;", b.ds.DataWidth-1, id, bounds),
	}

	ack, _ := findRsp(b.table, RspAckAny)
	errs, _ := findRsp(b.table, RspErrAny)
	data, _ := findRsp(b.table, RspRdData)

	idx := bracketIdx(b.ds.Top, node, "gi")
	var loop *sv.ForLoopBody
	var inner *sv.ForLoopBody
	ordinal := 0
	for _, comp := range arrayedChain(b.ds.Top, node) {
		for j, dim := range comp.Dims {
			bound := fmt.Sprint(dim)
			if comp == node {
				bound = b.paramName(node, j)
			}
			fb := sv.NewForLoop("genvar", fmt.Sprintf("gi%d", ordinal), bound)
			fb.Label = fmt.Sprintf("g_%s_fanin_%d", id, ordinal)
			if loop == nil {
				loop = fb
			} else {
				inner.Append(fb)
			}
			inner = fb
			ordinal++
		}
	}
	inner.Addf("assign %s_fanin_ready%s = %s;", id, idx, b.Signal(ack.Name, node, idx))
	inner.Addf("assign %s_fanin_err%s = %s%s;", id, idx, b.Signal(errs.Name, node, idx), errBitSuffix(errs))
	inner.Addf("assign %s_fanin_data%s = %s;", id, idx, b.Signal(data.Name, node, idx))

	return decls, []string{loop.String()}
}

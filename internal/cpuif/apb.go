package cpuif

import (
	"fmt"
	"strings"

	"github.com/rdlgen/busdecoder/internal/design"
)

// apb3Table covers the original AMBA 3 APB signal set. PSELx follows the
// AMBA naming for the per-slave select line.
var apb3Table = []SignalDef{
	{Name: "PSELx", Width: Width1, Dir: DirRequest, Fan: FanSelAny},
	{Name: "PENABLE", Width: Width1, Dir: DirRequest, Fan: FanMirror},
	{Name: "PWRITE", Width: Width1, Dir: DirRequest, Fan: FanSelWr},
	{Name: "PADDR", Width: WidthAddr, Dir: DirRequest, Fan: FanAddrAny},
	{Name: "PWDATA", Width: WidthData, Dir: DirRequest, Fan: FanWrData},
	{Name: "PRDATA", Width: WidthData, Dir: DirResponse, Rsp: RspRdData},
	{Name: "PREADY", Width: Width1, Dir: DirResponse, Rsp: RspAckAny},
	{Name: "PSLVERR", Width: Width1, Dir: DirResponse, Rsp: RspErrAny},
}

// apb4Table adds the APB4 write strobes and protection bits.
var apb4Table = []SignalDef{
	{Name: "PSEL", Width: Width1, Dir: DirRequest, Fan: FanSelAny},
	{Name: "PENABLE", Width: Width1, Dir: DirRequest, Fan: FanMirror},
	{Name: "PWRITE", Width: Width1, Dir: DirRequest, Fan: FanSelWr},
	{Name: "PADDR", Width: WidthAddr, Dir: DirRequest, Fan: FanAddrAny},
	{Name: "PPROT", Width: WidthProt, Dir: DirRequest, Fan: FanMirror},
	{Name: "PWDATA", Width: WidthData, Dir: DirRequest, Fan: FanWrData},
	{Name: "PSTRB", Width: WidthStrb, Dir: DirRequest, Fan: FanByteEn},
	{Name: "PRDATA", Width: WidthData, Dir: DirResponse, Rsp: RspRdData},
	{Name: "PREADY", Width: Width1, Dir: DirResponse, Rsp: RspAckAny},
	{Name: "PSLVERR", Width: Width1, Dir: DirResponse, Rsp: RspErrAny},
}

// taxiAPBTable is the Taxi vendor flavor of APB4: same channel set, all
// lowercase, bundled in the taxi_apb_if interface.
var taxiAPBTable = []SignalDef{
	{Name: "psel", Width: Width1, Dir: DirRequest, Fan: FanSelAny},
	{Name: "penable", Width: Width1, Dir: DirRequest, Fan: FanMirror},
	{Name: "pwrite", Width: Width1, Dir: DirRequest, Fan: FanSelWr},
	{Name: "paddr", Width: WidthAddr, Dir: DirRequest, Fan: FanAddrAny},
	{Name: "pprot", Width: WidthProt, Dir: DirRequest, Fan: FanMirror},
	{Name: "pwdata", Width: WidthData, Dir: DirRequest, Fan: FanWrData},
	{Name: "pstrb", Width: WidthStrb, Dir: DirRequest, Fan: FanByteEn},
	{Name: "prdata", Width: WidthData, Dir: DirResponse, Rsp: RspRdData},
	{Name: "pready", Width: Width1, Dir: DirResponse, Rsp: RspAckAny},
	{Name: "pslverr", Width: Width1, Dir: DirResponse, Rsp: RspErrAny},
}

// apbCpuif covers every APB variant; the table fixes the signal set.
type apbCpuif struct {
	base
}

// NewAPB3 returns the interface-bundled APB3 protocol.
func NewAPB3(ds *design.State) Cpuif {
	return &apbCpuif{base{
		ds: ds, name: "apb3", table: apb3Table,
		slavePrefix: "s_apb", masterPrefix: "m_apb_",
		iface: "apb3_intf", slaveModport: "slave", masterModport: "master",
	}}
}

// NewAPB3Flat returns APB3 with flattened individual ports.
func NewAPB3Flat(ds *design.State) Cpuif {
	return &apbCpuif{base{
		ds: ds, name: "apb3-flat", table: apb3Table,
		slavePrefix: "s_apb_", masterPrefix: "m_apb_",
	}}
}

// NewAPB4 returns the interface-bundled APB4 protocol, the default.
func NewAPB4(ds *design.State) Cpuif {
	return &apbCpuif{base{
		ds: ds, name: "apb4", table: apb4Table,
		slavePrefix: "s_apb", masterPrefix: "m_apb_",
		iface: "apb4_intf", slaveModport: "slave", masterModport: "master",
	}}
}

// NewAPB4Flat returns APB4 with flattened individual ports.
func NewAPB4Flat(ds *design.State) Cpuif {
	return &apbCpuif{base{
		ds: ds, name: "apb4-flat", table: apb4Table,
		slavePrefix: "s_apb_", masterPrefix: "m_apb_",
	}}
}

// NewTaxiAPB returns the Taxi APB vendor variant (taxi_apb_if bundles with
// mst/slv modports).
func NewTaxiAPB(ds *design.State) Cpuif {
	return &apbCpuif{base{
		ds: ds, name: "taxi-apb", table: taxiAPBTable,
		slavePrefix: "s_apb", masterPrefix: "m_apb_",
		iface: "taxi_apb_if", slaveModport: "slv", masterModport: "mst",
	}}
}

// SlaveAdapter translates the shared-address-channel APB slave port into the
// internal request/response signals. APB presents one address for both
// directions; PWRITE steers the response mux.
func (c *apbCpuif) SlaveAdapter() string {
	sel, _ := findFan(c.table, FanSelAny)
	wr, _ := findFan(c.table, FanSelWr)
	addr, _ := findFan(c.table, FanAddrAny)
	wdata, _ := findFan(c.table, FanWrData)
	rdata, _ := findRsp(c.table, RspRdData)
	ready, _ := findRsp(c.table, RspAckAny)
	slverr, _ := findRsp(c.table, RspErrAny)

	s := func(name string) string { return c.Signal(name, nil, "") }

	lines := []string{
		fmt.Sprintf("assign cpuif_wr_req = %s && %s;", s(sel.Name), s(wr.Name)),
		fmt.Sprintf("assign cpuif_rd_req = %s && !%s;", s(sel.Name), s(wr.Name)),
		fmt.Sprintf("assign cpuif_wr_addr = %s;", s(addr.Name)),
		fmt.Sprintf("assign cpuif_rd_addr = %s;", s(addr.Name)),
		fmt.Sprintf("assign cpuif_wr_data = %s;", s(wdata.Name)),
	}
	if strb, ok := findFan(c.table, FanByteEn); ok {
		lines = append(lines, fmt.Sprintf("assign cpuif_wr_byte_en = %s;", s(strb.Name)))
	} else {
		// APB3 has no strobes; all byte lanes are always enabled.
		lines = append(lines, "assign cpuif_wr_byte_en = '1;")
	}
	lines = append(lines,
		fmt.Sprintf("assign %s = cpuif_rd_data;", s(rdata.Name)),
		fmt.Sprintf("assign %s = %s ? cpuif_wr_ack : cpuif_rd_ack;", s(ready.Name), s(wr.Name)),
		fmt.Sprintf("assign %s = %s ? cpuif_wr_err : cpuif_rd_err;", s(slverr.Name), s(wr.Name)),
	)
	return strings.Join(lines, "\n")
}

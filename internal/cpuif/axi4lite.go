package cpuif

import (
	"fmt"
	"strings"

	"github.com/rdlgen/busdecoder/internal/design"
)

// axi4LiteTable declares the five AXI4-Lite channels. The write and read
// address channels carry independent child-relative addresses; error flags
// are bit 1 of the two-bit response codes.
var axi4LiteTable = []SignalDef{
	// Write address channel
	{Name: "AWVALID", Width: Width1, Dir: DirRequest, Fan: FanSelWr},
	{Name: "AWREADY", Width: Width1, Dir: DirResponse},
	{Name: "AWADDR", Width: WidthAddr, Dir: DirRequest, Fan: FanAddrWr},
	{Name: "AWPROT", Width: WidthProt, Dir: DirRequest, Fan: FanMirror},
	// Write data channel
	{Name: "WVALID", Width: Width1, Dir: DirRequest, Fan: FanSelWr},
	{Name: "WREADY", Width: Width1, Dir: DirResponse},
	{Name: "WDATA", Width: WidthData, Dir: DirRequest, Fan: FanWrData},
	{Name: "WSTRB", Width: WidthStrb, Dir: DirRequest, Fan: FanByteEn},
	// Write response channel
	{Name: "BVALID", Width: Width1, Dir: DirResponse, Rsp: RspAckWr},
	{Name: "BREADY", Width: Width1, Dir: DirRequest, Fan: FanMirror},
	{Name: "BRESP", Width: WidthResp, Dir: DirResponse, Rsp: RspErrWr},
	// Read address channel
	{Name: "ARVALID", Width: Width1, Dir: DirRequest, Fan: FanSelRd},
	{Name: "ARREADY", Width: Width1, Dir: DirResponse},
	{Name: "ARADDR", Width: WidthAddr, Dir: DirRequest, Fan: FanAddrRd},
	{Name: "ARPROT", Width: WidthProt, Dir: DirRequest, Fan: FanMirror},
	// Read data channel
	{Name: "RVALID", Width: Width1, Dir: DirResponse, Rsp: RspAckRd},
	{Name: "RREADY", Width: Width1, Dir: DirRequest, Fan: FanMirror},
	{Name: "RDATA", Width: WidthData, Dir: DirResponse, Rsp: RspRdData},
	{Name: "RRESP", Width: WidthResp, Dir: DirResponse, Rsp: RspErrRd},
}

type axi4LiteCpuif struct {
	base
}

// NewAXI4LiteFlat returns AXI4-Lite with flattened individual ports, the
// simulator-friendly rendition.
func NewAXI4LiteFlat(ds *design.State) Cpuif {
	return &axi4LiteCpuif{base{
		ds: ds, name: "axi4-lite-flat", table: axi4LiteTable,
		slavePrefix: "s_axil_", masterPrefix: "m_axil_",
	}}
}

// SlaveAdapter translates the split-channel AXI4-Lite slave port. A write
// request is presented once both the address and data beats are valid; the
// single-cycle combinational decode acknowledges every channel of a
// transaction together.
func (c *axi4LiteCpuif) SlaveAdapter() string {
	s := func(name string) string { return c.Signal(name, nil, "") }

	lines := []string{
		fmt.Sprintf("assign cpuif_wr_req = %s && %s;", s("AWVALID"), s("WVALID")),
		fmt.Sprintf("assign cpuif_rd_req = %s;", s("ARVALID")),
		fmt.Sprintf("assign cpuif_wr_addr = %s;", s("AWADDR")),
		fmt.Sprintf("assign cpuif_rd_addr = %s;", s("ARADDR")),
		fmt.Sprintf("assign cpuif_wr_data = %s;", s("WDATA")),
		fmt.Sprintf("assign cpuif_wr_byte_en = %s;", s("WSTRB")),
		fmt.Sprintf("assign %s = cpuif_wr_ack;", s("AWREADY")),
		fmt.Sprintf("assign %s = cpuif_wr_ack;", s("WREADY")),
		fmt.Sprintf("assign %s = cpuif_wr_ack;", s("BVALID")),
		fmt.Sprintf("assign %s = {cpuif_wr_err, 1'b0};", s("BRESP")),
		fmt.Sprintf("assign %s = cpuif_rd_ack;", s("ARREADY")),
		fmt.Sprintf("assign %s = cpuif_rd_ack;", s("RVALID")),
		fmt.Sprintf("assign %s = cpuif_rd_data;", s("RDATA")),
		fmt.Sprintf("assign %s = {cpuif_rd_err, 1'b0};", s("RRESP")),
	}
	return strings.Join(lines, "\n")
}

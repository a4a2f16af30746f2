package cpuif

import (
	"strings"
	"testing"

	"github.com/rdlgen/busdecoder/internal/design"
	"github.com/rdlgen/busdecoder/internal/rdl"
)

func newReg(name string, addr, size uint64) *rdl.Component {
	return &rdl.Component{Kind: rdl.KindReg, InstName: name, AbsAddr: addr, Size: size, AccessWidth: 32}
}

func newState(t *testing.T, top *rdl.Component, cfg design.Config) *design.State {
	t.Helper()
	ds, err := design.New(top, cfg, nil)
	if err != nil {
		t.Fatalf("design.New: %v", err)
	}
	return ds
}

func TestSignalNamingFlat(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "top", Size: 64}
	scalar := top.AddChild(newReg("ctrl", 0, 4))
	arr := top.AddChild(&rdl.Component{
		Kind: rdl.KindReg, InstName: "regs",
		AbsAddr: 16, Size: 4, Dims: []uint64{4}, Stride: 4, AccessWidth: 32,
	})

	ds := newState(t, top, design.Config{})
	cp := NewAPB4Flat(ds)

	tests := []struct {
		name string
		node *rdl.Component
		idx  string
		want string
	}{
		{"PADDR", nil, "", "s_apb_PADDR"},
		{"PSEL", scalar, "", "m_apb_ctrl_PSEL"},
		{"PRDATA", arr, "[gi0]", "m_apb_regs_PRDATA[gi0]"},
	}
	for _, tt := range tests {
		if got := cp.Signal(tt.name, tt.node, tt.idx); got != tt.want {
			t.Fatalf("Signal(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSignalNamingInterface(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "top", Size: 64}
	scalar := top.AddChild(newReg("ctrl", 0, 4))
	arr := top.AddChild(&rdl.Component{
		Kind: rdl.KindReg, InstName: "regs",
		AbsAddr: 16, Size: 4, Dims: []uint64{4}, Stride: 4, AccessWidth: 32,
	})

	ds := newState(t, top, design.Config{})
	cp := NewAPB4(ds)

	if got, want := cp.Signal("PSEL", nil, ""), "s_apb.PSEL"; got != want {
		t.Fatalf("slave signal = %q, want %q", got, want)
	}
	if got, want := cp.Signal("PSEL", scalar, ""), "m_apb_ctrl.PSEL"; got != want {
		t.Fatalf("scalar master signal = %q, want %q", got, want)
	}
	if got, want := cp.Signal("PREADY", arr, "[i0]"), "m_apb_regs[i0].PREADY"; got != want {
		t.Fatalf("array master signal = %q, want %q", got, want)
	}
}

func TestSignalArrayWithoutIndexPanics(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "top", Size: 64}
	arr := top.AddChild(&rdl.Component{
		Kind: rdl.KindReg, InstName: "regs",
		Size: 4, Dims: []uint64{4}, Stride: 4, AccessWidth: 32,
	})

	ds := newState(t, top, design.Config{})
	cp := NewAPB4Flat(ds)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for arrayed node without index")
		}
	}()
	cp.Signal("PSEL", arr, "")
}

func TestSignalUnrolledInstanceName(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "top", Size: 64}
	top.AddChild(&rdl.Component{
		Kind: rdl.KindReg, InstName: "regs",
		Size: 4, Dims: []uint64{2}, Stride: 4, AccessWidth: 32,
	})

	ds := newState(t, top, design.Config{Unroll: true})
	cp := NewAPB4Flat(ds)

	insts := ds.BoundaryNodes()
	if len(insts) != 2 {
		t.Fatalf("boundary nodes = %d, want 2", len(insts))
	}
	if got, want := cp.Signal("PSEL", insts[1], ""), "m_apb_regs_1_PSEL"; got != want {
		t.Fatalf("unrolled signal = %q, want %q", got, want)
	}
}

func TestPortDeclarationFlat(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 64}
	top.AddChild(newReg("ctrl", 0, 4))

	ds := newState(t, top, design.Config{})
	cp := NewAPB4Flat(ds)
	ports := cp.PortDeclaration()

	for _, frag := range []string{
		"input logic s_apb_PSEL",
		"input logic [5:0] s_apb_PADDR",
		"input logic [31:0] s_apb_PWDATA",
		"input logic [3:0] s_apb_PSTRB",
		"output logic [31:0] s_apb_PRDATA",
		"output logic m_apb_ctrl_PSEL",
		"output logic [DUT_CTRL_ADDR_WIDTH-1:0] m_apb_ctrl_PADDR",
		"input logic m_apb_ctrl_PREADY",
	} {
		if !strings.Contains(ports, frag) {
			t.Fatalf("port declaration missing %q:\n%s", frag, ports)
		}
	}
}

func TestPortDeclarationInterfaceArray(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 64}
	top.AddChild(&rdl.Component{
		Kind: rdl.KindReg, InstName: "regs",
		Size: 4, Dims: []uint64{4}, Stride: 4, AccessWidth: 32,
	})

	ds := newState(t, top, design.Config{})
	cp := NewAPB4(ds)
	ports := cp.PortDeclaration()

	for _, frag := range []string{
		"apb4_intf.slave s_apb",
		"apb4_intf.master m_apb_regs [N_REGSS]",
	} {
		if !strings.Contains(ports, frag) {
			t.Fatalf("port declaration missing %q:\n%s", frag, ports)
		}
	}
}

func TestFanoutTruncatesAlignedAddress(t *testing.T) {
	// Power-of-two element size, aligned base, stride a multiple of the
	// size: the child address is a plain low-bit slice.
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 64}
	arr := top.AddChild(&rdl.Component{
		Kind: rdl.KindReg, InstName: "regs",
		AbsAddr: 0, Size: 4, Dims: []uint64{4}, Stride: 16, AccessWidth: 32,
	})

	ds := newState(t, top, design.Config{})
	cp := NewAPB4Flat(ds)
	out := cp.Fanout(arr, arr.DimStrides())

	if !strings.Contains(out, "assign m_apb_regs_PADDR[gi0] = s_apb_PADDR[DUT_REGS_ADDR_WIDTH-1:0];") {
		t.Fatalf("expected truncated address, got:\n%s", out)
	}
	if strings.Contains(out, " - ") {
		t.Fatalf("truncated fanout must not subtract:\n%s", out)
	}
}

func TestFanoutSubtractsUnalignedAddress(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 64}
	child := top.AddChild(&rdl.Component{
		Kind: rdl.KindAddrmap, InstName: "blk",
		AbsAddr: 4, Size: 8, External: true,
	})

	ds := newState(t, top, design.Config{})
	cp := NewAPB4Flat(ds)
	out := cp.Fanout(child, nil)

	want := "assign m_apb_blk_PADDR = DUT_BLK_ADDR_WIDTH'(s_apb_PADDR - 6'h4);"
	if !strings.Contains(out, want) {
		t.Fatalf("expected %q, got:\n%s", want, out)
	}
}

func TestFanoutSelectExpressions(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 64}
	child := top.AddChild(newReg("ctrl", 0, 4))

	ds := newState(t, top, design.Config{})
	out := NewAPB4Flat(ds).Fanout(child, nil)

	for _, frag := range []string{
		"assign m_apb_ctrl_PSEL = cpuif_wr_sel.ctrl|cpuif_rd_sel.ctrl;",
		"assign m_apb_ctrl_PWRITE = cpuif_wr_sel.ctrl;",
		"assign m_apb_ctrl_PENABLE = s_apb_PENABLE;",
		"assign m_apb_ctrl_PWDATA = cpuif_wr_data;",
		"assign m_apb_ctrl_PSTRB = cpuif_wr_byte_en;",
	} {
		if !strings.Contains(out, frag) {
			t.Fatalf("fanout missing %q:\n%s", frag, out)
		}
	}
}

func TestAXI4LiteFanoutSplitsChannels(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 64}
	child := top.AddChild(newReg("ctrl", 0, 4))

	ds := newState(t, top, design.Config{})
	out := NewAXI4LiteFlat(ds).Fanout(child, nil)

	for _, frag := range []string{
		"assign m_axil_ctrl_AWVALID = cpuif_wr_sel.ctrl;",
		"assign m_axil_ctrl_WVALID = cpuif_wr_sel.ctrl;",
		"assign m_axil_ctrl_ARVALID = cpuif_rd_sel.ctrl;",
		"assign m_axil_ctrl_AWADDR = s_axil_AWADDR[DUT_CTRL_ADDR_WIDTH-1:0];",
		"assign m_axil_ctrl_ARADDR = s_axil_ARADDR[DUT_CTRL_ADDR_WIDTH-1:0];",
		"assign m_axil_ctrl_BREADY = s_axil_BREADY;",
	} {
		if !strings.Contains(out, frag) {
			t.Fatalf("fanout missing %q:\n%s", frag, out)
		}
	}
}

func TestFaninDefaultsAndError(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 64}
	top.AddChild(newReg("ctrl", 0, 4))

	ds := newState(t, top, design.Config{})
	cp := NewAPB4Flat(ds)

	if got, want := cp.FaninWr(nil, false), "cpuif_wr_ack = '0;\ncpuif_wr_err = '0;"; got != want {
		t.Fatalf("idle wr fanin = %q, want %q", got, want)
	}
	if got, want := cp.FaninWr(nil, true), "cpuif_wr_ack = '1;\ncpuif_wr_err = cpuif_wr_sel.cpuif_err;"; got != want {
		t.Fatalf("error wr fanin = %q, want %q", got, want)
	}
	if got := cp.FaninRd(nil, false); !strings.Contains(got, "cpuif_rd_data = '0;") {
		t.Fatalf("idle rd fanin missing data default: %q", got)
	}
}

func TestAXI4LiteFaninUsesResponseBit(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 64}
	child := top.AddChild(newReg("ctrl", 0, 4))

	ds := newState(t, top, design.Config{})
	cp := NewAXI4LiteFlat(ds)

	wr := cp.FaninWr(child, false)
	if !strings.Contains(wr, "cpuif_wr_ack = m_axil_ctrl_BVALID;") ||
		!strings.Contains(wr, "cpuif_wr_err = m_axil_ctrl_BRESP[1];") {
		t.Fatalf("unexpected wr fanin:\n%s", wr)
	}
	rd := cp.FaninRd(child, false)
	if !strings.Contains(rd, "cpuif_rd_ack = m_axil_ctrl_RVALID;") ||
		!strings.Contains(rd, "cpuif_rd_err = m_axil_ctrl_RRESP[1];") ||
		!strings.Contains(rd, "cpuif_rd_data = m_axil_ctrl_RDATA;") {
		t.Fatalf("unexpected rd fanin:\n%s", rd)
	}
}

func TestInterfaceArrayUsesIntermediates(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 64}
	arr := top.AddChild(&rdl.Component{
		Kind: rdl.KindReg, InstName: "regs",
		Size: 4, Dims: []uint64{4}, Stride: 4, AccessWidth: 32,
	})

	ds := newState(t, top, design.Config{})
	cp := NewTaxiAPB(ds)

	rd := cp.FaninRd(arr, false)
	for _, frag := range []string{
		"cpuif_rd_ack = regs_fanin_ready[i0];",
		"cpuif_rd_err = regs_fanin_err[i0];",
		"cpuif_rd_data = regs_fanin_data[i0];",
	} {
		if !strings.Contains(rd, frag) {
			t.Fatalf("fanin missing %q:\n%s", frag, rd)
		}
	}

	decls, assigns := Intermediates(ds, cp)
	if len(decls) != 3 || len(assigns) != 1 {
		t.Fatalf("intermediates = %d decls, %d assigns, want 3 and 1", len(decls), len(assigns))
	}
	if !strings.Contains(assigns[0], "assign regs_fanin_ready[gi0] = m_apb_regs[gi0].pready;") {
		t.Fatalf("unexpected intermediate assigns:\n%s", assigns[0])
	}

	// Flat protocols index ports directly and need none of this.
	flatDecls, flatAssigns := Intermediates(ds, NewAPB4Flat(ds))
	if len(flatDecls) != 0 || len(flatAssigns) != 0 {
		t.Fatalf("flat protocol should have no intermediates: %#v %#v", flatDecls, flatAssigns)
	}
}

func TestParametersPerDimension(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 0x100}
	top.AddChild(&rdl.Component{
		Kind: rdl.KindReg, InstName: "regs",
		Size: 4, Dims: []uint64{2, 3}, Stride: 4, AccessWidth: 32,
	})

	ds := newState(t, top, design.Config{})
	params := NewAPB4Flat(ds).Parameters()

	if len(params) != 2 {
		t.Fatalf("params = %#v, want 2 entries", params)
	}
	if params[0].Name != "N_REGSS_0" || params[0].Value != "2" {
		t.Fatalf("params[0] = %#v", params[0])
	}
	if params[1].Name != "N_REGSS_1" || params[1].Value != "3" {
		t.Fatalf("params[1] = %#v", params[1])
	}
}

func TestUnrolledFanoutHasNoArrayIndexing(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 0x100}
	top.AddChild(&rdl.Component{
		Kind: rdl.KindReg, InstName: "regs",
		Size: 4, Dims: []uint64{2, 3}, Stride: 4, AccessWidth: 32,
	})

	ds := newState(t, top, design.Config{Unroll: true})
	cp := NewAPB4Flat(ds)
	out := NewFanoutGen(ds, cp).Run()

	if strings.Contains(out, "regs[") {
		t.Fatalf("unrolled fanout references the base array:\n%s", out)
	}
	if n := strings.Count(out, "_PSEL ="); n != 6 {
		t.Fatalf("unrolled instance count = %d, want 6:\n%s", n, out)
	}
	if strings.Contains(out, "for (") {
		t.Fatalf("unrolled fanout must not contain loops:\n%s", out)
	}
}

func TestFanoutGenWrapsArraysInGenerateLoops(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 64}
	top.AddChild(&rdl.Component{
		Kind: rdl.KindReg, InstName: "regs",
		Size: 4, Dims: []uint64{4}, Stride: 4, AccessWidth: 32,
	})

	ds := newState(t, top, design.Config{})
	out := NewFanoutGen(ds, NewAPB4Flat(ds)).Run()

	if !strings.Contains(out, "for (genvar gi0 = 0; gi0 < N_REGSS; gi0++) begin : g_regs_0") {
		t.Fatalf("missing generate loop:\n%s", out)
	}
	if !strings.Contains(out, "cpuif_wr_sel.regs[gi0]|cpuif_rd_sel.regs[gi0]") {
		t.Fatalf("missing indexed select:\n%s", out)
	}
}

func TestBoundaryBelowArrayedAncestor(t *testing.T) {
	// Decode targets nested under an arrayed regfile get one port element
	// per enclosing-array iteration, so the generate-loop fanout never
	// drives a single net from multiple loop passes.
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 0x40}
	blk := top.AddChild(&rdl.Component{
		Kind: rdl.KindRegfile, InstName: "blk",
		AbsAddr: 0, Size: 0x10, Dims: []uint64{2}, Stride: 0x10,
	})
	blk.AddChild(newReg("r0", 0, 4))

	ds := newState(t, top, design.Config{DecodeDepth: 2})
	cp := NewAPB4Flat(ds)

	ports := cp.PortDeclaration()
	for _, frag := range []string{
		"output logic m_apb_blk_r0_PSEL [2]",
		"output logic [DUT_BLK_R0_ADDR_WIDTH-1:0] m_apb_blk_r0_PADDR [2]",
		"input logic m_apb_blk_r0_PREADY [2]",
	} {
		if !strings.Contains(ports, frag) {
			t.Fatalf("port declaration missing %q:\n%s", frag, ports)
		}
	}

	fanout := NewFanoutGen(ds, cp).Run()
	for _, frag := range []string{
		"for (genvar gi0 = 0; gi0 < 2; gi0++) begin : g_blk_r0_0",
		"assign m_apb_blk_r0_PSEL[gi0] = cpuif_wr_sel.blk[gi0].r0|cpuif_rd_sel.blk[gi0].r0;",
	} {
		if !strings.Contains(fanout, frag) {
			t.Fatalf("fanout missing %q:\n%s", frag, fanout)
		}
	}

	fanin := NewFaninGen(ds, cp).Run()
	for _, frag := range []string{
		"for (int i0 = 0; i0 < 2; i0++) begin",
		"if (cpuif_wr_sel.blk[i0].r0) begin",
		"cpuif_wr_ack = m_apb_blk_r0_PREADY[i0];",
	} {
		if !strings.Contains(fanin, frag) {
			t.Fatalf("fanin missing %q:\n%s", frag, fanin)
		}
	}

	// Interface bundles arrayed by an ancestor need the fanin
	// intermediates just like arrayed targets do.
	taxi := NewTaxiAPB(ds)
	decls, assigns := Intermediates(ds, taxi)
	if len(decls) != 3 || len(assigns) != 1 {
		t.Fatalf("intermediates = %d decls, %d assigns, want 3 and 1", len(decls), len(assigns))
	}
	if !strings.Contains(decls[0], "logic blk_r0_fanin_ready [2];") {
		t.Fatalf("unexpected intermediate decls: %#v", decls)
	}
	if !strings.Contains(assigns[0], "for (genvar gi0 = 0; gi0 < 2; gi0++) begin : g_blk_r0_fanin_0") ||
		!strings.Contains(assigns[0], "assign blk_r0_fanin_ready[gi0] = m_apb_blk_r0[gi0].pready;") {
		t.Fatalf("unexpected intermediate assigns:\n%s", assigns[0])
	}
}

func TestFaninGenStructure(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 64}
	top.AddChild(newReg("ctrl", 0, 4))
	top.AddChild(&rdl.Component{
		Kind: rdl.KindReg, InstName: "regs",
		AbsAddr: 16, Size: 4, Dims: []uint64{4}, Stride: 4, AccessWidth: 32,
	})

	ds := newState(t, top, design.Config{})
	out := NewFaninGen(ds, NewAPB4Flat(ds)).Run()

	if !strings.HasPrefix(out, "always_comb begin") {
		t.Fatalf("fanin must be an always_comb block:\n%s", out)
	}
	for _, frag := range []string{
		"cpuif_wr_ack = '0;",
		"if (cpuif_wr_sel.ctrl) begin",
		"for (int i0 = 0; i0 < N_REGSS; i0++) begin",
		"if (cpuif_rd_sel.regs[i0]) begin",
		"cpuif_rd_data = m_apb_regs_PRDATA[i0];",
		"if (cpuif_wr_sel.cpuif_err) begin",
		"cpuif_wr_err = cpuif_wr_sel.cpuif_err;",
	} {
		if !strings.Contains(out, frag) {
			t.Fatalf("fanin missing %q:\n%s", frag, out)
		}
	}

	// Error fallbacks come after every per-target group.
	errIdx := strings.Index(out, "if (cpuif_wr_sel.cpuif_err)")
	ctrlIdx := strings.Index(out, "if (cpuif_wr_sel.ctrl)")
	if errIdx < ctrlIdx {
		t.Fatalf("decode-error response must close the block:\n%s", out)
	}
}

func TestLookup(t *testing.T) {
	if _, err := Lookup("apb4"); err != nil {
		t.Fatalf("Lookup(apb4): %v", err)
	}
	if _, err := Lookup("nope"); err == nil {
		t.Fatalf("Lookup(nope) should fail")
	}
}

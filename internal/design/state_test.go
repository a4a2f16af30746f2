package design

import (
	"reflect"
	"testing"

	"github.com/rdlgen/busdecoder/internal/rdl"
)

func newReg(name string, addr uint64, aw uint) *rdl.Component {
	return &rdl.Component{Kind: rdl.KindReg, InstName: name, AbsAddr: addr, Size: uint64(aw / 8), AccessWidth: aw}
}

func TestNewInfersWidths(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 0x40}
	top.AddChild(newReg("a", 0, 32))
	top.AddChild(newReg("b", 8, 64))

	ds, err := New(top, Config{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ds.DataWidth != 64 {
		t.Errorf("data width = %d, want widest access 64", ds.DataWidth)
	}
	// 0x40 bytes need 6 bits; the byte-lane floor (log2(8)+1 = 4) is lower.
	if ds.AddrWidth != 6 {
		t.Errorf("addr width = %d, want 6", ds.AddrWidth)
	}
	if ds.ModuleName != "dut" || ds.PackageName != "dut_pkg" {
		t.Errorf("names = %q/%q", ds.ModuleName, ds.PackageName)
	}
}

func TestNewByteLaneFloor(t *testing.T) {
	// A map smaller than one bus word still needs enough address bits to
	// sit above the byte lanes.
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "tiny", Size: 4}
	top.AddChild(newReg("only", 0, 32))

	ds, err := New(top, Config{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ds.AddrWidth != 3 {
		t.Fatalf("addr width = %d, want 3", ds.AddrWidth)
	}
}

func TestNewAddressWidthOverride(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 0x40}
	top.AddChild(newReg("a", 0, 32))

	ds, err := New(top, Config{AddressWidth: 16}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ds.AddrWidth != 16 {
		t.Errorf("addr width = %d, want 16", ds.AddrWidth)
	}

	if _, err := New(top, Config{AddressWidth: 3}, nil); err == nil {
		t.Fatal("expected below-minimum override to fail")
	}
}

func TestNewExternalOnlyDefaultsWidth(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 0x100}
	top.AddChild(&rdl.Component{
		Kind: rdl.KindAddrmap, InstName: "dma", Size: 0x40, External: true,
	})

	ds, err := New(top, Config{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ds.DataWidth != 32 {
		t.Errorf("data width = %d, want default 32", ds.DataWidth)
	}
	if !ds.HasExternalAddressable || !ds.HasExternalBlock {
		t.Error("external flags not set")
	}
}

func TestNewKeywordModuleName(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "interface", Size: 8}
	top.AddChild(newReg("r", 0, 32))

	ds, err := New(top, Config{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ds.ModuleName != `\interface ` {
		t.Fatalf("module name = %q, want escaped identifier", ds.ModuleName)
	}
}

func TestNewRejectsNegativeDepth(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 8}
	if _, err := New(top, Config{DecodeDepth: -1}, nil); err == nil {
		t.Fatal("expected negative depth to fail")
	}
}

func TestBoundaryNodes(t *testing.T) {
	top := &rdl.Component{Kind: rdl.KindAddrmap, InstName: "dut", Size: 0x100}
	blk := top.AddChild(&rdl.Component{Kind: rdl.KindRegfile, InstName: "blk", Size: 16})
	blk.AddChild(newReg("r0", 0, 32))
	blk.AddChild(newReg("r1", 4, 32))
	top.AddChild(&rdl.Component{
		Kind: rdl.KindAddrmap, InstName: "dma", AbsAddr: 0x40, Size: 0x40, External: true,
	})
	top.AddChild(newReg("ctrl", 0x80, 32))

	paths := func(cfg Config) []string {
		ds, err := New(top, cfg, nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		var out []string
		for _, n := range ds.BoundaryNodes() {
			out = append(out, n.Path(top))
		}
		return out
	}

	if got, want := paths(Config{DecodeDepth: 1}), []string{"blk", "dma", "ctrl"}; !reflect.DeepEqual(got, want) {
		t.Errorf("depth 1 boundaries = %v, want %v", got, want)
	}
	// Leaf decode still stops at the external block.
	if got, want := paths(Config{}), []string{"blk.r0", "blk.r1", "dma", "ctrl"}; !reflect.DeepEqual(got, want) {
		t.Errorf("leaf boundaries = %v, want %v", got, want)
	}
}

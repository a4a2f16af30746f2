package rdl

import (
	"strings"
	"testing"
)

const sampleDesign = `{
	"addrmap": {
		"kind": "addrmap",
		"inst_name": "dut",
		"size": 64,
		"children": [
			{"kind": "reg", "inst_name": "ctrl", "addr_offset": 0, "size": 4, "accesswidth": 32},
			{"kind": "regfile", "inst_name": "blk", "addr_offset": 16, "size": 8,
				"dims": [2], "stride": 8,
				"children": [
					{"kind": "reg", "inst_name": "r0", "addr_offset": 0, "size": 4, "accesswidth": 32}
				]}
		]
	},
	"parameters": [
		{"name": "N_BLKS", "type": "int", "value": 2},
		{"name": "EN_DBG", "type": "bool", "value": 0, "bool_value": true}
	]
}`

func TestLoadDesign(t *testing.T) {
	top, err := LoadDesign(strings.NewReader(sampleDesign))
	if err != nil {
		t.Fatalf("LoadDesign: %v", err)
	}
	if top.InstName != "dut" || top.Kind != KindAddrmap {
		t.Fatalf("top = %q/%v", top.InstName, top.Kind)
	}

	kids := top.Children(false)
	if len(kids) != 2 {
		t.Fatalf("children = %d, want 2", len(kids))
	}
	blk := kids[1]
	if blk.AbsAddr != 16 {
		t.Errorf("blk addr = %d, want 16", blk.AbsAddr)
	}
	// Child offsets are parent-relative in the file, absolute in the tree.
	if r0 := blk.Children(false)[0]; r0.AbsAddr != 16 {
		t.Errorf("r0 addr = %d, want 16", r0.AbsAddr)
	}

	if len(top.Params) != 2 {
		t.Fatalf("params = %d, want 2", len(top.Params))
	}
	if p := top.Params[0]; p.Name != "N_BLKS" || p.Value != 2 || p.IsBool {
		t.Errorf("param 0 = %+v", p)
	}
	if p := top.Params[1]; !p.IsBool || !p.Bool {
		t.Errorf("param 1 = %+v", p)
	}
}

func TestLoadDesignRejectsUnknownField(t *testing.T) {
	_, err := LoadDesign(strings.NewReader(`{"addrmap": {"kind": "addrmap", "inst_name": "d", "siez": 4}}`))
	if err == nil {
		t.Fatal("expected unknown field to fail")
	}
}

func TestLoadDesignRejectsUnknownKind(t *testing.T) {
	_, err := LoadDesign(strings.NewReader(`{"addrmap": {"kind": "field", "inst_name": "d", "size": 4}}`))
	if err == nil || !strings.Contains(err.Error(), "field") {
		t.Fatalf("err = %v, want unknown kind", err)
	}
}

func TestLoadDesignRequiresAddrmapTop(t *testing.T) {
	_, err := LoadDesign(strings.NewReader(`{"addrmap": {"kind": "reg", "inst_name": "r", "size": 4}}`))
	if err == nil || !strings.Contains(err.Error(), "addrmap") {
		t.Fatalf("err = %v, want addrmap requirement", err)
	}

	_, err = LoadDesign(strings.NewReader(`{}`))
	if err == nil {
		t.Fatal("expected missing top to fail")
	}
}

func TestLoadDesignDerivesCompositeSize(t *testing.T) {
	top, err := LoadDesign(strings.NewReader(`{
		"addrmap": {
			"kind": "addrmap", "inst_name": "dut",
			"children": [
				{"kind": "reg", "inst_name": "a", "addr_offset": 0, "size": 4, "accesswidth": 32},
				{"kind": "reg", "inst_name": "b", "addr_offset": 12, "size": 4, "accesswidth": 32}
			]
		}
	}`))
	if err != nil {
		t.Fatalf("LoadDesign: %v", err)
	}
	if top.Size != 16 {
		t.Fatalf("derived size = %d, want 16", top.Size)
	}
}

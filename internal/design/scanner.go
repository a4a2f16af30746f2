package design

import "github.com/rdlgen/busdecoder/internal/rdl"

type scanResult struct {
	maxAccessWidth         uint
	hasExternalAddressable bool
	hasExternalBlock       bool
}

// scanDesign walks the whole tree once, gathering the facts New needs:
// the widest internal register access and whether external components
// exist. External subtrees are opaque and never entered.
func scanDesign(top *rdl.Component) scanResult {
	var res scanResult
	var walk func(c *rdl.Component)
	walk = func(c *rdl.Component) {
		for _, child := range c.Children(false) {
			if child.External {
				res.hasExternalAddressable = true
				if child.Kind != rdl.KindReg {
					res.hasExternalBlock = true
				}
				continue
			}
			if child.Kind == rdl.KindReg && child.AccessWidth > res.maxAccessWidth {
				res.maxAccessWidth = child.AccessWidth
			}
			walk(child)
		}
	}
	walk(top)
	return res
}

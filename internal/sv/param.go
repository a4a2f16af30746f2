package sv

import (
	"fmt"
	"sort"
)

// Param is a module parameter or localparam declaration.
type Param struct {
	Name  string
	Typ   string // optional type, e.g. "int"
	Value string
	Local bool
}

func (p Param) String() string {
	kw := "parameter"
	if p.Local {
		kw = "localparam"
	}
	if p.Typ != "" {
		return fmt.Sprintf("%s %s %s = %s", kw, p.Typ, p.Name, p.Value)
	}
	return fmt.Sprintf("%s %s = %s", kw, p.Name, p.Value)
}

// SortParams orders parameters before localparams, alphabetically within
// each class. The sort is stable so equal names keep insertion order.
func SortParams(params []Param) {
	sort.SliceStable(params, func(i, j int) bool {
		if params[i].Local != params[j].Local {
			return !params[i].Local
		}
		return params[i].Name < params[j].Name
	})
}

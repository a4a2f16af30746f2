package sv

// svKeywords is the IEEE 1800-2017 reserved word list, restricted to the
// words that plausibly collide with user instance names.
var svKeywords = map[string]bool{
	"alias": true, "always": true, "and": true, "assert": true, "assign": true,
	"automatic": true, "begin": true, "bit": true, "break": true, "buf": true,
	"byte": true, "case": true, "cell": true, "class": true, "config": true,
	"const": true, "context": true, "continue": true, "default": true,
	"design": true, "disable": true, "do": true, "edge": true, "else": true,
	"end": true, "enum": true, "event": true, "expect": true, "export": true,
	"extends": true, "extern": true, "final": true, "for": true, "force": true,
	"foreach": true, "forever": true, "fork": true, "function": true,
	"generate": true, "genvar": true, "if": true, "iff": true, "import": true,
	"initial": true, "inout": true, "input": true, "int": true,
	"integer": true, "interface": true, "join": true, "local": true,
	"localparam": true, "logic": true, "longint": true, "matches": true,
	"modport": true, "module": true, "nand": true, "negedge": true, "new": true,
	"nor": true, "not": true, "null": true, "or": true, "output": true,
	"package": true, "packed": true, "parameter": true, "posedge": true,
	"primitive": true, "priority": true, "program": true, "property": true,
	"protected": true, "ref": true, "reg": true, "release": true,
	"repeat": true, "return": true, "sequence": true, "shortint": true,
	"signed": true, "static": true, "string": true, "struct": true,
	"super": true, "table": true, "task": true, "this": true, "time": true,
	"timeunit": true, "type": true, "typedef": true, "union": true,
	"unique": true, "unsigned": true, "var": true, "virtual": true,
	"void": true, "wait": true, "while": true, "wire": true, "with": true,
	"xnor": true, "xor": true,
}

// SafeID rewrites identifiers that collide with a SystemVerilog reserved
// word into the escaped identifier form. Escaped identifiers require a
// trailing space to terminate them.
func SafeID(name string) string {
	if svKeywords[name] {
		return `\` + name + ` `
	}
	return name
}

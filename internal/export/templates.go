package export

import (
	"embed"
	"text/template"
)

//go:embed module.sv.tmpl package.sv.tmpl
var templateFS embed.FS

var outputTemplates = template.Must(template.ParseFS(templateFS, "*.sv.tmpl"))

// moduleContext carries the pre-rendered sections of the decoder module.
// Every field is final text; the template only does layout.
type moduleContext struct {
	ModuleName    string
	PackageName   string
	Params        string
	Ports         string
	Localparams   string
	Assertions    string
	SignalDecls   string
	SlaveAdapter  string
	WriteDecode   string
	ReadDecode    string
	Intermediates string
	Fanout        string
	Fanin         string
}

type packageContext struct {
	PackageName string
	Structs     string
}

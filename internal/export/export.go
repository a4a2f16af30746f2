// Package export orchestrates a full decoder generation run: design-state
// elaboration, the fact/schema/policy gate, every generator, and the final
// template rendering. Output is exactly two SystemVerilog files, written
// only when the whole pipeline succeeds.
package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/rdlgen/busdecoder/internal/cpuif"
	"github.com/rdlgen/busdecoder/internal/design"
	"github.com/rdlgen/busdecoder/internal/facts"
	"github.com/rdlgen/busdecoder/internal/gen"
	"github.com/rdlgen/busdecoder/internal/policy"
	"github.com/rdlgen/busdecoder/internal/rdl"
	"github.com/rdlgen/busdecoder/internal/sv"
	"github.com/rdlgen/busdecoder/internal/validator"
)

// DefaultProtocol is used when Options.Protocol is empty.
const DefaultProtocol = "apb4-flat"

// Options selects the bus protocol and design overrides for one export run.
type Options struct {
	// Protocol is a cpuif registry key, e.g. "apb4-flat" or "axi4-lite-flat".
	Protocol string

	// Design carries the module naming, width, depth and unroll overrides.
	Design design.Config

	// Logger receives phase progress at Debug level. Nil disables logging.
	Logger *zap.Logger
}

// Output is a fully rendered export before any file is written.
type Output struct {
	ModuleName  string
	PackageName string
	Module      string
	Package     string
}

// Export renders the decoder for top and writes <module>.sv and
// <module>_pkg.sv into outputDir. No file is written unless rendering and
// validation succeed; a failed second write removes the first.
func Export(ctx context.Context, top *rdl.Component, outputDir string, opts Options) error {
	out, err := Render(ctx, top, opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	pkgPath := filepath.Join(outputDir, out.PackageName+".sv")
	modPath := filepath.Join(outputDir, out.ModuleName+".sv")

	if err := os.WriteFile(pkgPath, []byte(out.Package), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", pkgPath, err)
	}
	if err := os.WriteFile(modPath, []byte(out.Module), 0o644); err != nil {
		os.Remove(pkgPath)
		return fmt.Errorf("writing %s: %w", modPath, err)
	}
	return nil
}

// Render runs the pipeline up to (but not including) the file writes. The
// result is deterministic: identical inputs produce byte-identical text.
func Render(ctx context.Context, top *rdl.Component, opts Options) (*Output, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	protocol := opts.Protocol
	if protocol == "" {
		protocol = DefaultProtocol
	}
	factory, err := cpuif.Lookup(protocol)
	if err != nil {
		return nil, err
	}

	ds, err := design.New(top, opts.Design, log)
	if err != nil {
		return nil, fmt.Errorf("elaborating design state: %w", err)
	}
	log.Debug("design state built",
		zap.String("module", ds.ModuleName),
		zap.Uint("data_width", ds.DataWidth),
		zap.Uint("addr_width", ds.AddrWidth))

	if err := checkDesign(ctx, ds, log); err != nil {
		return nil, err
	}

	cp := factory(ds)
	log.Debug("protocol selected", zap.String("cpuif", cp.Name()))

	modText, err := renderModule(ds, cp)
	if err != nil {
		return nil, err
	}
	pkgText, err := renderPackage(ds)
	if err != nil {
		return nil, err
	}

	return &Output{
		ModuleName:  ds.ModuleName,
		PackageName: ds.PackageName,
		Module:      modText,
		Package:     pkgText,
	}, nil
}

// checkDesign runs the fact extraction, schema gate and design-rule
// policies. Any violation aborts the export.
func checkDesign(ctx context.Context, ds *design.State, log *zap.Logger) error {
	tables := facts.Extract(ds)
	log.Debug("facts extracted", zap.Int("components", len(tables.Components)))

	v, err := validator.New()
	if err != nil {
		return err
	}
	if err := v.Validate(tables); err != nil {
		return err
	}

	eng, err := policy.New()
	if err != nil {
		return err
	}
	res, err := eng.Evaluate(ctx, tables)
	if err != nil {
		return err
	}
	log.Debug("design rules evaluated", zap.Int("violations", len(res.Violations)))
	return res.Err()
}

func renderModule(ds *design.State, cp cpuif.Cpuif) (string, error) {
	intDecls, intAssigns := cpuif.Intermediates(ds, cp)

	tc := moduleContext{
		ModuleName:    ds.ModuleName,
		PackageName:   ds.PackageName,
		Params:        paramText(ds, cp),
		Ports:         sv.Indent(cp.PortDeclaration()),
		Localparams:   localparamText(ds),
		Assertions:    assertionText(ds, cp),
		SignalDecls:   signalDecls(ds),
		SlaveAdapter:  sv.Indent(cp.SlaveAdapter()),
		WriteDecode:   indentN(gen.NewDecodeGen(ds, gen.FlavorWrite).Run(), 3),
		ReadDecode:    indentN(gen.NewDecodeGen(ds, gen.FlavorRead).Run(), 3),
		Intermediates: intermediateText(intDecls, intAssigns),
		Fanout:        sv.Indent(cpuif.NewFanoutGen(ds, cp).Run()),
		Fanin:         sv.Indent(cpuif.NewFaninGen(ds, cp).Run()),
	}

	var buf bytes.Buffer
	if err := outputTemplates.ExecuteTemplate(&buf, "module.sv.tmpl", tc); err != nil {
		return "", fmt.Errorf("rendering module: %w", err)
	}
	return buf.String(), nil
}

func renderPackage(ds *design.State) (string, error) {
	tc := packageContext{
		PackageName: ds.PackageName,
		Structs:     sv.Indent(gen.NewStructGen(ds).Run()),
	}
	var buf bytes.Buffer
	if err := outputTemplates.ExecuteTemplate(&buf, "package.sv.tmpl", tc); err != nil {
		return "", fmt.Errorf("rendering package: %w", err)
	}
	return buf.String(), nil
}

// paramText renders the parameter block: the protocol's element-count
// parameters plus the design's root-level parameters, parameters before
// localparams, alphabetical within each class.
func paramText(ds *design.State, cp cpuif.Cpuif) string {
	params := cp.Parameters()
	for _, p := range ds.Params {
		params = append(params, sv.Param{
			Name:  p.Name,
			Typ:   p.SVType(),
			Value: p.SVValue(),
		})
	}
	if len(params) == 0 {
		return ""
	}
	sv.SortParams(params)

	lines := make([]string, len(params))
	for i, p := range params {
		lines[i] = sv.Indent(p.String())
	}
	return strings.Join(lines, ",\n")
}

// localparamText declares one address-width localparam per decode target.
// Arrayed targets share one entry; unrolled instances each get their own.
func localparamText(ds *design.State) string {
	seen := map[string]bool{}
	var lines []string
	for _, node := range ds.BoundaryNodes() {
		p := sv.Param{
			Name:  cpuif.ChildAddrWidthParam(ds, node),
			Value: fmt.Sprint(cpuif.ChildAddrWidth(node)),
			Local: true,
		}
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		lines = append(lines, sv.Indent(p.String()+";"))
	}
	return strings.Join(lines, "\n")
}

// assertionText emits one initial block checking the overridable parameters
// against the design's elaborated shape: every element-count parameter stays
// within the selector struct's static extent, and every bounded enable
// parameter stays within its array extent.
func assertionText(ds *design.State, cp cpuif.Cpuif) string {
	body := &sv.InitialBody{}
	for _, p := range cp.Parameters() {
		a := sv.Assertion{
			Name:    "a_" + strings.ToLower(p.Name),
			Left:    p.Name,
			Op:      sv.OpLessEqual,
			Right:   p.Value,
			Message: fmt.Sprintf("%s exceeds the %s-element extent of the selector struct", p.Name, p.Value),
		}
		body.Add(a.String())
	}
	for _, p := range ds.Params {
		if p.Usage != rdl.UsageAddressModifying {
			continue
		}
		for i, e := range p.ArrayEnables {
			a := sv.Assertion{
				Name:    fmt.Sprintf("a_%s_%d", strings.ToLower(p.Name), i),
				Left:    p.Name,
				Op:      sv.OpLessEqual,
				Right:   fmt.Sprint(e.MaxElements),
				Message: fmt.Sprintf("%s exceeds the %d-element extent of %s", p.Name, e.MaxElements, e.NodePath),
			}
			body.Add(a.String())
		}
	}
	if body.Empty() {
		return ""
	}
	return sv.Indent(body.String())
}

func signalDecls(ds *design.State) string {
	aw := ds.AddrWidth - 1
	dw := ds.DataWidth - 1
	be := ds.DataWidthBytes() - 1
	lines := []string{
		"logic cpuif_wr_req;",
		"logic cpuif_rd_req;",
		fmt.Sprintf("logic [%d:0] cpuif_wr_addr;", aw),
		fmt.Sprintf("logic [%d:0] cpuif_rd_addr;", aw),
		fmt.Sprintf("logic [%d:0] cpuif_wr_data;", dw),
		fmt.Sprintf("logic [%d:0] cpuif_wr_byte_en;", be),
		"logic cpuif_wr_ack;",
		"logic cpuif_wr_err;",
		"logic cpuif_rd_ack;",
		"logic cpuif_rd_err;",
		fmt.Sprintf("logic [%d:0] cpuif_rd_data;", dw),
		"cpuif_sel_t cpuif_wr_sel;",
		"cpuif_sel_t cpuif_rd_sel;",
	}
	return sv.Indent(strings.Join(lines, "\n"))
}

func intermediateText(decls, assigns []string) string {
	if len(decls) == 0 {
		return ""
	}
	text := strings.Join(decls, "\n")
	if len(assigns) > 0 {
		text += "\n\n" + strings.Join(assigns, "\n")
	}
	return sv.Indent(text)
}

func indentN(s string, n int) string {
	for i := 0; i < n; i++ {
		s = sv.Indent(s)
	}
	return s
}

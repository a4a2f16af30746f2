// Package policy evaluates the embedded Rego design rules against the
// flattened fact tables. Geometry the decode generators assume (aligned
// addresses, bus-width-multiple strides, internal-register access widths)
// is enforced here, before any generation work begins.
package policy

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/rdlgen/busdecoder/internal/facts"
)

//go:embed buscheck.rego
var policyFS embed.FS

// Violation is one failed design rule.
type Violation struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Path     string `json:"path"`
	Message  string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s: %s (%s)", v.Severity, v.Path, v.Message, v.Rule)
}

// Result contains the evaluation results.
type Result struct {
	Violations []Violation
}

// Err returns a single error summarizing every violation, or nil when the
// design passed.
func (r *Result) Err() error {
	if len(r.Violations) == 0 {
		return nil
	}
	msgs := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		msgs[i] = v.String()
	}
	return fmt.Errorf("design rejected by %d rule violation(s):\n%s",
		len(r.Violations), strings.Join(msgs, "\n"))
}

// Engine evaluates the bus design rules.
type Engine struct {
	query rego.PreparedEvalQuery
}

// New prepares the embedded policy for evaluation.
func New() (*Engine, error) {
	content, err := policyFS.ReadFile("buscheck.rego")
	if err != nil {
		return nil, fmt.Errorf("loading embedded policy: %w", err)
	}

	query, err := rego.New(
		rego.Module("buscheck.rego", string(content)),
		rego.Query("data.rdl.buscheck.violations"),
	).PrepareForEval(context.Background())
	if err != nil {
		return nil, fmt.Errorf("preparing violations query: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate runs the design rules against the fact tables.
func (e *Engine) Evaluate(ctx context.Context, t facts.Tables) (*Result, error) {
	inputMap, err := structToMap(t)
	if err != nil {
		return nil, fmt.Errorf("converting facts: %w", err)
	}

	rs, err := e.query.Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating design rules: %w", err)
	}

	result := &Result{}
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		raw, ok := rs[0].Expressions[0].Value.([]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected violations shape %T", rs[0].Expressions[0].Value)
		}
		for _, item := range raw {
			vmap, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			result.Violations = append(result.Violations, Violation{
				Rule:     getString(vmap, "rule"),
				Severity: getString(vmap, "severity"),
				Path:     getString(vmap, "path"),
				Message:  getString(vmap, "message"),
			})
		}
	}
	return result, nil
}

func structToMap(v any) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	err = json.Unmarshal(data, &out)
	return out, err
}

func getString(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// Package evaluator turns a SARIF log into a gate verdict by evaluating a
// Rego policy against it.
package evaluator

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/chris-regnier/assay/internal/sarif"
	"github.com/chris-regnier/assay/internal/store"
)

//go:embed default.rego
var defaultPolicy string

const decisionQuery = "data.assay.gate.decision"

// Decisions a policy may produce.
const (
	DecisionMerge  = "merge"
	DecisionReview = "review"
	DecisionReject = "reject"
)

type Evaluator struct {
	query rego.PreparedEvalQuery
}

// NewEvaluator creates an evaluator. If policyDir is empty or holds no .rego
// files, the embedded default policy is used. Otherwise every .rego file in
// policyDir is loaded and the default is dropped.
func NewEvaluator(policyDir string) (*Evaluator, error) {
	modules, err := loadPolicies(policyDir)
	if err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		modules = []func(*rego.Rego){rego.Module("default.rego", defaultPolicy)}
	}

	opts := append([]func(*rego.Rego){rego.Query(decisionQuery)}, modules...)
	query, err := rego.New(opts...).PrepareForEval(context.Background())
	if err != nil {
		return nil, fmt.Errorf("preparing rego query: %w", err)
	}
	return &Evaluator{query: query}, nil
}

func loadPolicies(dir string) ([]func(*rego.Rego), error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading policy dir: %w", err)
	}
	var modules []func(*rego.Rego)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".rego") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		modules = append(modules, rego.Module(e.Name(), string(data)))
	}
	return modules, nil
}

func (e *Evaluator) Evaluate(ctx context.Context, log *sarif.Log) (*store.Verdict, error) {
	data, err := json.Marshal(log)
	if err != nil {
		return nil, err
	}
	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("evaluating rego: %w", err)
	}

	decision := DecisionReview
	if len(results) > 0 && len(results[0].Expressions) > 0 {
		if d, ok := results[0].Expressions[0].Value.(string); ok {
			decision = d
		}
	}

	var relevant []sarif.Result
	counts := map[string]int{}
	total := 0
	for _, run := range log.Runs {
		for _, r := range run.Results {
			total++
			counts[r.Level]++
			if decision == DecisionReject && r.Level == "error" {
				relevant = append(relevant, r)
			} else if decision == DecisionReview && (r.Level == "warning" || r.Level == "error") {
				relevant = append(relevant, r)
			}
		}
	}

	return &store.Verdict{
		Decision:         decision,
		Reason:           reason(decision, total, counts),
		RelevantFindings: relevant,
		Metadata:         map[string]interface{}{"levels": counts},
	}, nil
}

func reason(decision string, total int, counts map[string]int) string {
	if total == 0 {
		return fmt.Sprintf("Decision: %s, no findings", decision)
	}
	levels := make([]string, 0, len(counts))
	for l := range counts {
		levels = append(levels, l)
	}
	sort.Strings(levels)
	parts := make([]string, 0, len(levels))
	for _, l := range levels {
		parts = append(parts, fmt.Sprintf("%d %s", counts[l], l))
	}
	return fmt.Sprintf("Decision: %s based on %d findings (%s)", decision, total, strings.Join(parts, ", "))
}

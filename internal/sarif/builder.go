package sarif

import "github.com/chris-regnier/assay/internal/dispatch"

// Assembler provides a builder pattern for constructing SARIF logs.
type Assembler struct {
	version    string
	results    []Result
	rules      []ReportingDescriptor
	inputScope string
	failures   []dispatch.Failure
}

// NewAssembler creates an Assembler for the given tool version.
func NewAssembler(version string) *Assembler {
	return &Assembler{
		version: version,
		results: []Result{},
		rules:   []ReportingDescriptor{},
	}
}

func (a *Assembler) AddResults(results []Result) *Assembler {
	a.results = append(a.results, results...)
	return a
}

func (a *Assembler) AddRules(rules []ReportingDescriptor) *Assembler {
	a.rules = append(a.rules, rules...)
	return a
}

// AddFailures records rule failures as tool execution notifications.
func (a *Assembler) AddFailures(failures []dispatch.Failure) *Assembler {
	a.failures = append(a.failures, failures...)
	return a
}

// WithInputScope sets the input scope for the SARIF log
func (a *Assembler) WithInputScope(scope string) *Assembler {
	a.inputScope = scope
	return a
}

// Build constructs the final SARIF log.
func (a *Assembler) Build() *Log {
	log := Assemble(a.results, a.rules, a.inputScope)
	log.Runs[0].Tool.Driver.Version = a.version

	inv := Invocation{ExecutionSuccessful: true}
	for _, f := range a.failures {
		n := Notification{
			Level:          "error",
			Message:        Message{Text: f.Error()},
			AssociatedRule: &RuleReference{ID: f.RuleKey},
		}
		if f.File != "" {
			n.Locations = []Location{{PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: f.File},
				Region:           Region{StartLine: f.Range.Start.Line, StartColumn: f.Range.Start.Column},
			}}}
		}
		inv.ToolExecutionNotifications = append(inv.ToolExecutionNotifications, n)
	}
	log.Runs[0].Invocations = []Invocation{inv}
	return log
}

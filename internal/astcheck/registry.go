// Package astcheck holds the built-in rules and the registry that instantiates
// them from configuration.
package astcheck

import (
	"fmt"
	"sort"

	"github.com/chris-regnier/assay/internal/config"
	"github.com/chris-regnier/assay/internal/dispatch"
)

// Factory builds a rule from its configured params (may be nil).
type Factory func(params map[string]interface{}) (dispatch.Rule, error)

// Registry holds a set of rule factories keyed by rule key.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under key, replacing any previous one.
func (r *Registry) Register(key string, f Factory) {
	r.factories[key] = f
}

// Get retrieves a factory by key.
func (r *Registry) Get(key string) (Factory, bool) {
	f, ok := r.factories[key]
	return f, ok
}

// Names returns all registered rule keys in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build instantiates every registered rule that settings does not disable,
// in key order. Rules absent from settings are built with default params.
func (r *Registry) Build(settings map[string]config.RuleConfig) ([]dispatch.Rule, error) {
	var rules []dispatch.Rule
	for _, key := range r.Names() {
		var params map[string]interface{}
		if rc, ok := settings[key]; ok {
			if !rc.Enabled {
				continue
			}
			params = rc.Params
		}
		rule, err := r.factories[key](params)
		if err != nil {
			return nil, fmt.Errorf("building rule %s: %w", key, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// positiveParam reads an integer param, falling back to def when absent.
func positiveParam(params map[string]interface{}, name string, def int) (int, error) {
	v, ok := params[name]
	if !ok {
		return def, nil
	}
	n := toInt(v, -1)
	if n <= 0 {
		return 0, fmt.Errorf("param %s must be a positive integer, got %v", name, v)
	}
	return n, nil
}

// toInt converts an interface{} to int, supporting int, float64, and int64.
func toInt(v interface{}, fallback int) int {
	switch val := v.(type) {
	case int:
		return val
	case float64:
		return int(val)
	case int64:
		return int(val)
	default:
		return fallback
	}
}

package astcheck

import "github.com/chris-regnier/assay/internal/dispatch"

// DefaultRegistry returns a Registry pre-loaded with all built-in rules.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(FailInTryCatchKey, func(map[string]interface{}) (dispatch.Rule, error) {
		return NewFailInTryCatch(), nil
	})
	r.Register(EmptyCatchKey, func(map[string]interface{}) (dispatch.Rule, error) {
		return &EmptyCatch{}, nil
	})
	r.Register(MethodLengthKey, func(p map[string]interface{}) (dispatch.Rule, error) {
		limit, err := positiveParam(p, "max_lines", defaultMaxLines)
		if err != nil {
			return nil, err
		}
		return &MethodLength{MaxLines: limit}, nil
	})
	r.Register(ParamCountKey, func(p map[string]interface{}) (dispatch.Rule, error) {
		limit, err := positiveParam(p, "max_params", defaultMaxParams)
		if err != nil {
			return nil, err
		}
		return &ParamCount{MaxParams: limit}, nil
	})
	r.Register(NestingDepthKey, func(p map[string]interface{}) (dispatch.Rule, error) {
		limit, err := positiveParam(p, "max_depth", defaultMaxDepth)
		if err != nil {
			return nil, err
		}
		return &NestingDepth{MaxDepth: limit}, nil
	})
	return r
}

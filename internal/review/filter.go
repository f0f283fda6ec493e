package review

import (
	"sort"

	"github.com/chris-regnier/assay/internal/sarif"
)

func (f Filter) allows(level string) bool {
	switch f {
	case FilterErrors:
		return level == "error"
	case FilterWarnings:
		return level == "error" || level == "warning"
	default:
		return true
	}
}

// visible returns the findings passing the current filter, in file then
// line order.
func (m *Model) visible() []sarif.Result {
	filtered := m.filteredFiles()
	var out []sarif.Result
	for _, file := range sortedKeys(filtered) {
		out = append(out, filtered[file]...)
	}
	// findings without a location trail the located ones
	for _, f := range m.findings {
		if resultURI(f) == "" && m.filter.allows(f.Level) {
			out = append(out, f)
		}
	}
	return out
}

// filteredFiles returns the per-file findings passing the current filter,
// sorted by line. Files left without findings are dropped.
func (m *Model) filteredFiles() map[string][]sarif.Result {
	filtered := make(map[string][]sarif.Result)
	for file, findings := range m.files {
		var kept []sarif.Result
		for _, f := range findings {
			if m.filter.allows(f.Level) {
				kept = append(kept, f)
			}
		}
		if len(kept) == 0 {
			continue
		}
		sort.SliceStable(kept, func(i, j int) bool { return resultLine(kept[i]) < resultLine(kept[j]) })
		filtered[file] = kept
	}
	return filtered
}

// fileList returns the sorted paths of files with visible findings.
func (m *Model) fileList() []string {
	return sortedKeys(m.filteredFiles())
}

func sortedKeys(files map[string][]sarif.Result) []string {
	keys := make([]string, 0, len(files))
	for file := range files {
		keys = append(keys, file)
	}
	sort.Strings(keys)
	return keys
}

// selected returns the current finding, if any.
func (m *Model) selected() (sarif.Result, bool) {
	v := m.visible()
	if m.current < 0 || m.current >= len(v) {
		return sarif.Result{}, false
	}
	return v[m.current], true
}

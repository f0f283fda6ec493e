// Package checktest runs rules over annotated Java fixtures and compares the
// reported issues with the expectations written in the fixture's comments.
//
// A line ending in
//
//	// Noncompliant [[sc=7;ec=11;el=3;secondary=19,21]] {{message}}
//
// expects one issue whose primary location starts on that line. Every
// attribute is optional: sc and ec are the 1-based start and exclusive end
// columns, el the end line, secondary the lines of the secondary locations
// in order, and the text between double braces the exact message. A count
// after the marker ("// Noncompliant 2") expects that many issues on the
// line. Lines without a marker, including those commented "// Compliant",
// must not carry any issue.
package checktest

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/assay/internal/dispatch"
	"github.com/chris-regnier/assay/internal/javafront"
	"github.com/chris-regnier/assay/internal/report"
)

// Expectation is what a Noncompliant comment asserts about one line.
type Expectation struct {
	Line        int
	Count       int
	Message     string
	StartColumn int
	EndColumn   int
	EndLine     int
	Secondaries []int
	// HasSecondaries distinguishes "secondary=" left out from an explicit
	// empty list.
	HasSecondaries bool
}

var noncompliant = regexp.MustCompile(`//\s*Noncompliant(?:\s+(\d+))?\s*(?:\[\[([^\]]*)\]\])?\s*(?:\{\{(.*?)\}\})?`)

// Parse extracts the expectations from fixture source.
func Parse(src []byte) ([]Expectation, error) {
	var out []Expectation
	for i, line := range strings.Split(string(src), "\n") {
		m := noncompliant.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		exp := Expectation{Line: i + 1, Count: 1, Message: m[3]}
		if m[1] != "" {
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 1 {
				return nil, fmt.Errorf("line %d: bad issue count %q", i+1, m[1])
			}
			exp.Count = n
		}
		if m[2] != "" {
			if err := parseAttributes(&exp, m[2]); err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
		}
		out = append(out, exp)
	}
	return out, nil
}

func parseAttributes(exp *Expectation, attrs string) error {
	for _, kv := range strings.Split(attrs, ";") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("malformed attribute %q", kv)
		}
		if key == "secondary" {
			exp.HasSecondaries = true
			for _, s := range strings.Split(value, ",") {
				if s = strings.TrimSpace(s); s == "" {
					continue
				}
				n, err := strconv.Atoi(s)
				if err != nil {
					return fmt.Errorf("secondary line %q: %w", s, err)
				}
				exp.Secondaries = append(exp.Secondaries, n)
			}
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("attribute %s: %w", key, err)
		}
		switch key {
		case "sc":
			exp.StartColumn = n
		case "ec":
			exp.EndColumn = n
		case "el":
			exp.EndLine = n
		default:
			return fmt.Errorf("unknown attribute %q", key)
		}
	}
	return nil
}

// Compare reports every difference between expectations and issues. An empty
// result means they agree.
func Compare(expected []Expectation, issues []report.Issue) []string {
	byLine := make(map[int][]report.Issue)
	for _, is := range issues {
		byLine[is.Primary.StartLine] = append(byLine[is.Primary.StartLine], is)
	}
	for _, list := range byLine {
		report.Sort(list)
	}

	var problems []string
	seen := make(map[int]bool)
	for _, exp := range expected {
		seen[exp.Line] = true
		got := byLine[exp.Line]
		if len(got) != exp.Count {
			problems = append(problems, fmt.Sprintf("line %d: expected %d issue(s), got %d", exp.Line, exp.Count, len(got)))
			continue
		}
		for _, is := range got {
			problems = append(problems, check(exp, is)...)
		}
	}

	lines := make([]int, 0, len(byLine))
	for line := range byLine {
		if !seen[line] {
			lines = append(lines, line)
		}
	}
	sort.Ints(lines)
	for _, line := range lines {
		for _, is := range byLine[line] {
			problems = append(problems, fmt.Sprintf("line %d: unexpected issue %s: %s", line, is.RuleKey, is.Message))
		}
	}
	return problems
}

func check(exp Expectation, is report.Issue) []string {
	var problems []string
	mismatch := func(what string, want, got interface{}) {
		problems = append(problems, fmt.Sprintf("line %d: %s: expected %v, got %v", exp.Line, what, want, got))
	}
	if exp.Message != "" && exp.Message != is.Message {
		mismatch("message", strconv.Quote(exp.Message), strconv.Quote(is.Message))
	}
	if exp.StartColumn != 0 && exp.StartColumn != is.Primary.StartColumn {
		mismatch("start column", exp.StartColumn, is.Primary.StartColumn)
	}
	if exp.EndColumn != 0 && exp.EndColumn != is.Primary.EndColumn {
		mismatch("end column", exp.EndColumn, is.Primary.EndColumn)
	}
	if exp.EndLine != 0 && exp.EndLine != is.Primary.EndLine {
		mismatch("end line", exp.EndLine, is.Primary.EndLine)
	}
	if exp.HasSecondaries {
		got := make([]int, 0, len(is.Secondaries))
		for _, s := range is.Secondaries {
			got = append(got, s.Location.StartLine)
		}
		if !equalInts(exp.Secondaries, got) {
			mismatch("secondary lines", exp.Secondaries, got)
		}
	}
	return problems
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Run parses and resolves the fixture at path, scans it with rules and
// reports every mismatch as a test error. It returns the issues for further
// assertions.
func Run(t testing.TB, path string, rules ...dispatch.Rule) []report.Issue {
	t.Helper()
	src, err := os.ReadFile(path)
	require.NoError(t, err)

	expected, err := Parse(src)
	require.NoError(t, err, "parsing expectations in %s", path)

	file, err := javafront.NewParser(nil).Parse(context.Background(), path, src)
	require.NoError(t, err)
	model := javafront.Resolve(file)

	d, err := dispatch.New(nil, rules...)
	require.NoError(t, err)
	bag := report.NewBag()
	res := d.Scan(file, model, bag)
	for _, f := range res.Failures {
		t.Errorf("%s", f.Error())
	}

	issues := bag.Issues()
	for _, p := range Compare(expected, issues) {
		t.Errorf("%s: %s", path, p)
	}
	return issues
}

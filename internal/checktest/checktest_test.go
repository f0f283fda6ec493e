package checktest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/assay/internal/report"
)

func TestParse(t *testing.T) {
	src := []byte(`class A {
  void m() {
    fail(); // Noncompliant [[sc=5;ec=9;secondary=4]] {{Don't use fail() inside a try-catch catching an AssertionError.}}
    ok(); // Compliant
    twice(); // Noncompliant 2
    bare(); // Noncompliant
    none(); // Noncompliant [[secondary=]]
  }
}
`)
	exps, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, exps, 4)

	assert.Equal(t, Expectation{
		Line:           3,
		Count:          1,
		Message:        "Don't use fail() inside a try-catch catching an AssertionError.",
		StartColumn:    5,
		EndColumn:      9,
		Secondaries:    []int{4},
		HasSecondaries: true,
	}, exps[0])
	assert.Equal(t, 5, exps[1].Line)
	assert.Equal(t, 2, exps[1].Count)
	assert.Equal(t, Expectation{Line: 6, Count: 1}, exps[2])
	assert.True(t, exps[3].HasSecondaries)
	assert.Empty(t, exps[3].Secondaries)
}

func TestParseRejectsMalformedAttributes(t *testing.T) {
	for _, src := range []string{
		"x(); // Noncompliant [[sc]]",
		"x(); // Noncompliant [[sc=a]]",
		"x(); // Noncompliant [[zz=1]]",
		"x(); // Noncompliant [[secondary=1,b]]",
	} {
		_, err := Parse([]byte(src))
		assert.Error(t, err, src)
	}
}

func issueAt(line, sc, ec int, msg string, secondaries ...int) report.Issue {
	is := report.Issue{
		RuleKey: "r",
		Primary: report.Location{File: "A.java", StartLine: line, StartColumn: sc, EndLine: line, EndColumn: ec},
		Message: msg,
	}
	for _, s := range secondaries {
		is.Secondaries = append(is.Secondaries, report.Secondary{Location: report.Location{StartLine: s}})
	}
	return is
}

func TestCompare(t *testing.T) {
	exps := []Expectation{
		{Line: 3, Count: 1, StartColumn: 5, EndColumn: 9, Secondaries: []int{4}, HasSecondaries: true, Message: "m"},
		{Line: 6, Count: 1},
	}

	t.Run("match", func(t *testing.T) {
		got := Compare(exps, []report.Issue{issueAt(3, 5, 9, "m", 4), issueAt(6, 1, 2, "anything")})
		assert.Empty(t, got)
	})

	t.Run("wrong columns and secondary", func(t *testing.T) {
		got := Compare(exps, []report.Issue{issueAt(3, 6, 9, "m", 5), issueAt(6, 1, 2, "x")})
		require.Len(t, got, 2)
		assert.Contains(t, got[0], "start column")
		assert.Contains(t, got[1], "secondary lines")
	})

	t.Run("missing and unexpected", func(t *testing.T) {
		got := Compare(exps, []report.Issue{issueAt(3, 5, 9, "m", 4), issueAt(8, 1, 2, "stray")})
		require.Len(t, got, 2)
		assert.Contains(t, got[0], "line 6: expected 1 issue(s), got 0")
		assert.Contains(t, got[1], "line 8: unexpected issue")
	})

	t.Run("wrong message", func(t *testing.T) {
		got := Compare(exps[:1], []report.Issue{issueAt(3, 5, 9, "other", 4)})
		require.Len(t, got, 1)
		assert.Contains(t, got[0], "message")
	})
}

// Package report records findings. An Issue anchors a message to a primary
// source range and may carry ordered secondary locations.
package report

import (
	"fmt"
	"sort"
	"sync"

	"github.com/chris-regnier/assay/internal/tree"
)

// Location is a file-relative source range. Lines and columns are 1-based and
// EndColumn is exclusive.
type Location struct {
	File        string `json:"file"`
	StartLine   int    `json:"startLine"`
	StartColumn int    `json:"startColumn"`
	EndLine     int    `json:"endLine"`
	EndColumn   int    `json:"endColumn"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d-%d:%d", l.File, l.StartLine, l.StartColumn, l.EndLine, l.EndColumn)
}

// LocationOf converts a node range into a Location in file.
func LocationOf(file string, n *tree.Node) Location {
	r := n.Range()
	return Location{
		File:        file,
		StartLine:   r.Start.Line,
		StartColumn: r.Start.Column,
		EndLine:     r.End.Line,
		EndColumn:   r.End.Column,
	}
}

type Secondary struct {
	Location Location `json:"location"`
	Message  string   `json:"message"`
}

// Issue is immutable once reported.
type Issue struct {
	RuleKey     string      `json:"ruleKey"`
	Primary     Location    `json:"primary"`
	Message     string      `json:"message"`
	Secondaries []Secondary `json:"secondaries"`
}

// Note pairs a supporting node with its explanation.
type Note struct {
	Node    *tree.Node
	Message string
}

// Sink consumes reported issues.
type Sink interface {
	Collect(Issue)
}

// Reporter turns node-anchored findings into Issues for one file.
type Reporter struct {
	file string
	sink Sink
}

func NewReporter(file string, sink Sink) *Reporter {
	return &Reporter{file: file, sink: sink}
}

// Report creates exactly one Issue per call and forwards it to the sink.
// Duplicates are not suppressed. Notes with a nil node are skipped.
func (r *Reporter) Report(ruleKey string, primary *tree.Node, msg string, notes ...Note) Issue {
	issue := Issue{
		RuleKey:     ruleKey,
		Message:     msg,
		Secondaries: make([]Secondary, 0, len(notes)),
	}
	if primary != nil {
		issue.Primary = LocationOf(r.file, primary)
	} else {
		issue.Primary = Location{File: r.file}
	}
	for _, n := range notes {
		if n.Node == nil {
			continue
		}
		issue.Secondaries = append(issue.Secondaries, Secondary{
			Location: LocationOf(r.file, n.Node),
			Message:  n.Message,
		})
	}
	if r.sink != nil {
		r.sink.Collect(issue)
	}
	return issue
}

// Bag is a Sink that keeps issues in arrival order. It is safe for concurrent use.
type Bag struct {
	mu     sync.Mutex
	issues []Issue
}

func NewBag() *Bag {
	return &Bag{}
}

func (b *Bag) Collect(i Issue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.issues = append(b.issues, i)
}

// Issues returns a copy of the collected issues.
func (b *Bag) Issues() []Issue {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Issue, len(b.issues))
	copy(out, b.issues)
	return out
}

func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.issues)
}

// Sort orders issues by file, primary position, rule key and message.
func Sort(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Primary.File != b.Primary.File {
			return a.Primary.File < b.Primary.File
		}
		if a.Primary.StartLine != b.Primary.StartLine {
			return a.Primary.StartLine < b.Primary.StartLine
		}
		if a.Primary.StartColumn != b.Primary.StartColumn {
			return a.Primary.StartColumn < b.Primary.StartColumn
		}
		if a.RuleKey != b.RuleKey {
			return a.RuleKey < b.RuleKey
		}
		return a.Message < b.Message
	})
}

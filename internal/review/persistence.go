package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ReviewState represents persisted review state
type ReviewState struct {
	ResultID   string                   `json:"result_id"`
	ReviewedAt string                   `json:"reviewed_at"`
	Reviewer   string                   `json:"reviewer,omitempty"`
	Findings   map[string]FindingReview `json:"findings"`
}

// FindingReview is the triage of a single finding, keyed by fingerprint.
type FindingReview struct {
	Status Status `json:"status"`
	RuleID string `json:"rule_id"`
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
}

// State snapshots the current triage.
func (m *Model) State() *ReviewState {
	state := &ReviewState{
		ResultID:   m.opts.ResultID,
		ReviewedAt: time.Now().UTC().Format(time.RFC3339),
		Reviewer:   m.opts.Reviewer,
		Findings:   make(map[string]FindingReview),
	}
	for _, f := range m.findings {
		id := findingID(f)
		s, ok := m.status[id]
		if !ok {
			continue
		}
		state.Findings[id] = FindingReview{
			Status: s,
			RuleID: f.RuleID,
			File:   resultURI(f),
			Line:   resultLine(f),
		}
	}
	return state
}

// SaveReviewState writes state as JSON, creating the parent directory.
func SaveReviewState(state *ReviewState, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// LoadReviewState reads state written by SaveReviewState. A missing file
// yields nil state and no error.
func LoadReviewState(path string) (*ReviewState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state ReviewState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing review state %s: %w", path, err)
	}
	return &state, nil
}

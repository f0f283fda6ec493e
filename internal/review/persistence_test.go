package review

import (
	"os"
	"path/filepath"
	"testing"
)

func TestState(t *testing.T) {
	m := testModel(t)
	m.current = 1
	m.mark(StatusRejected)

	state := m.State()
	if state.ResultID != "run-1" || state.Reviewer != "dev" || state.ReviewedAt == "" {
		t.Errorf("unexpected header %+v", state)
	}
	fr, ok := state.Findings[findingID(m.findings[2])]
	if !ok {
		t.Fatalf("expected S5779 in state, got %+v", state.Findings)
	}
	if fr.Status != StatusRejected || fr.RuleID != "S5779" || fr.File != "src/test/java/ATest.java" || fr.Line != 5 {
		t.Errorf("unexpected entry %+v", fr)
	}
}

func TestSaveLoadReviewState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	m := testModel(t)
	m.mark(StatusAccepted)

	if err := SaveReviewState(m.State(), path); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600, got %v", info.Mode().Perm())
	}

	state, err := LoadReviewState(path)
	if err != nil {
		t.Fatal(err)
	}
	fresh := testModel(t)
	fresh.Restore(state)
	if accepted, _ := fresh.Counts(); accepted != 1 {
		t.Error("expected triage to survive a round trip")
	}
}

func TestLoadReviewState_Missing(t *testing.T) {
	state, err := LoadReviewState(filepath.Join(t.TempDir(), "none.json"))
	if err != nil || state != nil {
		t.Errorf("expected nil state and no error, got %v, %v", state, err)
	}
}

func TestLoadReviewState_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{"), 0644)
	if _, err := LoadReviewState(path); err == nil {
		t.Error("expected parse error")
	}
}

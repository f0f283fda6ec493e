package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/assay/internal/review"
	"github.com/chris-regnier/assay/internal/rules"
	"github.com/chris-regnier/assay/internal/store"
)

var (
	flagReviewResult string
	flagReviewOutput string
	flagReviewDB     string
)

func init() {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Browse and triage findings of a stored analysis",
		Long:  `Open an interactive browser over a stored analysis run. Findings can be accepted or rejected; the triage is saved under .assay/review when you quit.`,
		RunE:  runReview,
	}

	reviewCmd.Flags().StringVar(&flagReviewResult, "result", "", "Run ID to review (default: most recent)")
	reviewCmd.Flags().StringVar(&flagReviewOutput, "output", ".assay/results", "Directory containing analysis results")
	reviewCmd.Flags().StringVar(&flagReviewDB, "db", "", "Read results from this SQLite database instead of --output")

	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, closeStore, err := openStore(flagReviewOutput, flagReviewDB)
	if err != nil {
		return err
	}
	defer closeStore()

	model, err := loadReview(ctx, s, projectDir(cmd), flagReviewResult)
	if err != nil {
		return err
	}

	final, err := tea.NewProgram(*model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("running review: %w", err)
	}

	m, ok := final.(review.Model)
	if !ok {
		return nil
	}
	if err := m.SaveErr(); err != nil {
		return fmt.Errorf("saving review: %w", err)
	}
	accepted, rejected := m.Counts()
	newLogger(cmd).Info("review finished", "accepted", accepted, "rejected", rejected)
	return nil
}

// loadReview builds the review model for a stored run, restoring any triage
// saved by an earlier session.
func loadReview(ctx context.Context, s store.Store, project, resultID string) (*review.Model, error) {
	resultID, err := resolveResult(ctx, s, resultID)
	if err != nil {
		return nil, err
	}
	sarifLog, err := s.ReadSARIF(ctx, resultID)
	if err != nil {
		return nil, fmt.Errorf("reading SARIF for %s: %w", resultID, err)
	}
	catalog, err := loadCatalog(project)
	if err != nil {
		return nil, err
	}

	statePath := filepath.Join(project, ".assay", "review", resultID+".json")
	model := review.NewModel(sarifLog, review.Options{
		Rules:     rules.Index(catalog),
		StatePath: statePath,
		ResultID:  resultID,
		Reviewer:  os.Getenv("USER"),
	})

	state, err := review.LoadReviewState(statePath)
	if err != nil {
		return nil, err
	}
	model.Restore(state)
	return model, nil
}

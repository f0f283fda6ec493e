package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chris-regnier/assay/internal/astcheck"
	"github.com/chris-regnier/assay/internal/evaluator"
	"github.com/chris-regnier/assay/internal/store"
)

var (
	flagJudgeResult  string
	flagJudgeOutput  string
	flagJudgeRegoDir string
	flagJudgeDB      string
)

func init() {
	judgeCmd := &cobra.Command{
		Use:   "judge",
		Short: "Re-evaluate a stored analysis with Rego policies",
		Long:  `Evaluate a previously stored SARIF log with the current Rego policies and store the new verdict. By default evaluates the most recent run.`,
		RunE:  runJudge,
	}

	judgeCmd.Flags().StringVar(&flagJudgeResult, "result", "", "Run ID to evaluate (default: most recent)")
	judgeCmd.Flags().StringVar(&flagJudgeOutput, "output", ".assay/results", "Directory containing analysis results")
	judgeCmd.Flags().StringVar(&flagJudgeRegoDir, "rego", ".assay/rego", "Directory containing Rego policies")
	judgeCmd.Flags().StringVar(&flagJudgeDB, "db", "", "Read results from this SQLite database instead of --output")

	rootCmd.AddCommand(judgeCmd)
}

func runJudge(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := newLogger(cmd)
	cfg, err := loadConfig(projectDir(cmd), astcheck.DefaultRegistry().Names())
	if err != nil {
		return err
	}
	stopTelemetry, err := startTelemetry(ctx, cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	defer stopTelemetry()

	s, closeStore, err := openStore(flagJudgeOutput, flagJudgeDB)
	if err != nil {
		return err
	}
	defer closeStore()

	verdict, err := judge(ctx, s, flagJudgeResult, flagJudgeRegoDir)
	if err != nil {
		return err
	}

	out, _ := json.MarshalIndent(verdict, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	if verdict.Decision == evaluator.DecisionReject {
		return errRejected
	}
	return nil
}

// judge re-evaluates the run resultID, or the newest run when it is empty,
// and stores the verdict next to it.
func judge(ctx context.Context, s store.Store, resultID, regoDir string) (*store.Verdict, error) {
	resultID, err := resolveResult(ctx, s, resultID)
	if err != nil {
		return nil, err
	}

	ctx, span := cliTracer.Start(ctx, "judge",
		trace.WithAttributes(
			attribute.String("assay.result_id", resultID),
		),
	)
	defer span.End()

	sarifLog, err := s.ReadSARIF(ctx, resultID)
	if err != nil {
		return nil, spanError(span, fmt.Errorf("reading SARIF for %s: %w", resultID, err))
	}

	eval, err := evaluator.NewEvaluator(regoDir)
	if err != nil {
		return nil, spanError(span, fmt.Errorf("creating evaluator: %w", err))
	}
	verdict, err := eval.Evaluate(ctx, sarifLog)
	if err != nil {
		return nil, spanError(span, fmt.Errorf("evaluating: %w", err))
	}

	if err := s.WriteVerdict(ctx, resultID, verdict); err != nil {
		return nil, spanError(span, fmt.Errorf("storing verdict: %w", err))
	}
	span.SetAttributes(attribute.String("assay.decision", verdict.Decision))
	return verdict, nil
}

// resolveResult returns id, or the newest stored run when id is empty.
func resolveResult(ctx context.Context, s store.Store, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	ids, err := s.List(ctx)
	if err != nil {
		return "", fmt.Errorf("listing results: %w", err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("no analysis results found")
	}
	return ids[0], nil // List returns newest first
}

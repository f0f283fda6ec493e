// Package store persists SARIF logs and gate verdicts, either as JSON files
// under a directory or in a SQLite database.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chris-regnier/assay/internal/sarif"
)

var storeTracer = otel.Tracer("github.com/chris-regnier/assay/internal/store")

// ErrNotFound is returned when a run or its verdict does not exist.
var ErrNotFound = errors.New("not found")

type Verdict struct {
	Decision         string                 `json:"decision"`
	Reason           string                 `json:"reason"`
	RelevantFindings []sarif.Result         `json:"relevant_findings,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// Store keeps analysis runs. IDs sort chronologically; List returns the
// newest first.
type Store interface {
	WriteSARIF(ctx context.Context, doc *sarif.Log) (string, error)
	WriteVerdict(ctx context.Context, sarifID string, verdict *Verdict) error
	ReadSARIF(ctx context.Context, id string) (*sarif.Log, error)
	ReadVerdict(ctx context.Context, sarifID string) (*Verdict, error)
	List(ctx context.Context) ([]string, error)
}

func generateID() string {
	b := make([]byte, 3)
	rand.Read(b)
	ts := time.Now().UTC().Format("2006-01-02T15-04-05Z")
	return fmt.Sprintf("%s-%s", ts, hex.EncodeToString(b))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func resultCount(doc *sarif.Log) int {
	if len(doc.Runs) == 0 {
		return 0
	}
	return len(doc.Runs[0].Results)
}

// Package sentiment scores short text items on a signed scale. It wraps a
// pluggable classifier backend with input hygiene and failure mapping so that
// one bad item or one backend hiccup never halts a monitoring cycle.
package sentiment

import (
	"context"
	"strings"

	"github.com/linnemanlabs/go-core/log"
)

// Label is the classifier's verdict for a piece of text.
type Label string

const (
	LabelPositive Label = "POSITIVE"
	LabelNegative Label = "NEGATIVE"
	LabelNeutral  Label = "NEUTRAL"

	// LabelError is a sentinel for backend failures. It normalizes to 0 so
	// failed classifications never trip the alert threshold.
	LabelError Label = "ERROR"
)

// Result carries the raw classifier confidence and its normalized score.
type Result struct {
	Label      Label   `json:"label"`
	RawScore   float64 `json:"score"`
	Normalized float64 `json:"normalized_score"`
}

// Classifier is the interface for any sentiment model backend.
type Classifier interface {
	ClassifyText(ctx context.Context, text string) (Label, float64, error)
}

// maxClassifyLen bounds the text submitted to the backend, counted in
// characters; hosted models reject inputs past their token limit.
const maxClassifyLen = 500

// Outcomes reported to the Classify observer.
const (
	CallOK      = "ok"
	CallError   = "error"
	CallSkipped = "skipped"
)

// Analyzer adapts a Classifier backend to the triage pipeline's contract.
type Analyzer struct {
	backend Classifier
	logger  log.Logger
	observe func(outcome string)
}

// NewAnalyzer wraps the given backend.
func NewAnalyzer(backend Classifier, logger log.Logger) *Analyzer {
	if logger == nil {
		logger = log.Nop()
	}
	return &Analyzer{backend: backend, logger: logger}
}

// SetObserver registers fn to receive the outcome of every Classify call
// (CallOK, CallError, or CallSkipped). Set before the analyzer is shared
// across goroutines.
func (a *Analyzer) SetObserver(fn func(outcome string)) {
	a.observe = fn
}

func (a *Analyzer) report(outcome string) {
	if a.observe != nil {
		a.observe(outcome)
	}
}

// Classify scores text. It never returns an error: empty input short-circuits
// to a neutral result without touching the backend, and a backend failure maps
// to the LabelError sentinel.
func (a *Analyzer) Classify(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		a.report(CallSkipped)
		return Result{Label: LabelNeutral, RawScore: 0.5, Normalized: 0}
	}

	// Truncate on a rune boundary; a byte slice could split a multi-byte
	// character and hand the backend invalid UTF-8.
	if r := []rune(text); len(r) > maxClassifyLen {
		text = string(r[:maxClassifyLen])
	}

	label, score, err := a.backend.ClassifyText(ctx, text)
	if err != nil {
		a.report(CallError)
		a.logger.Error(ctx, err, "classifier backend failed")
		return Result{Label: LabelError}
	}

	a.report(CallOK)
	return Result{Label: label, RawScore: score, Normalized: Normalize(label, score)}
}

// Normalize maps (label, confidence) onto [-1, 1]: negative verdicts flip the
// confidence sign, neutral and error verdicts pin to 0.
func Normalize(label Label, score float64) float64 {
	switch label {
	case LabelNegative:
		return -score
	case LabelPositive:
		return score
	default:
		return 0
	}
}

package score

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oddmeter/oddmeter/pkg/lm"
)

const (
	// FailureDisplay is the fixed display string on every failed run.
	FailureDisplay = "Perplexity unavailable"

	perplexityDisplayFmt = "Perplexity ≈ %.1f"
)

// Failure kinds carried by [ErrorDetail]. KindEmptyInput is raised at the
// caller boundary, before the scorer is ever invoked.
const (
	KindEmptyInput       = "empty_input"
	KindCredential       = "credential"
	KindProvider         = "provider"
	KindInsufficientData = "insufficient_data"
)

// ErrorDetail describes a failed score run. Message is display-safe; the
// verbatim provider error goes to the log only.
type ErrorDetail struct {
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

// Result is the outcome of one score run.
type Result struct {
	Sentence          string       `json:"sentence" yaml:"sentence"`
	WordCount         int          `json:"word_count" yaml:"wordCount"`
	Weirdness         int          `json:"weirdness" yaml:"weirdness"`
	Perplexity        float64      `json:"perplexity,omitempty" yaml:"perplexity,omitempty"`
	PerplexityDisplay string       `json:"perplexity_display" yaml:"perplexityDisplay"`
	TokenCount        int          `json:"token_count,omitempty" yaml:"tokenCount,omitempty"`
	Err               *ErrorDetail `json:"error,omitempty" yaml:"error,omitempty"`
}

// Scorer runs the scoring pipeline against an injected provider. The
// provider carries its own credential; the pipeline holds no ambient
// state and is safe for concurrent use.
type Scorer struct {
	provider lm.Provider
}

// NewScorer creates a scorer backed by the given provider.
func NewScorer(p lm.Provider) *Scorer {
	return &Scorer{provider: p}
}

// Score runs the full pipeline for one sentence. It is total: every
// failure path returns a valid Result with Weirdness 0 and the error
// descriptor populated, never a panic or an error return.
func (s *Scorer) Score(ctx context.Context, sentence string) *Result {
	res := &Result{
		Sentence:  sentence,
		WordCount: WordCount(sentence),
	}

	probs, err := s.provider.TokenLogProbs(ctx, sentence)
	if err != nil {
		return fallback(res, err)
	}

	pp, err := Perplexity(probs)
	if err != nil {
		return fallback(res, err)
	}

	res.Perplexity = pp
	res.Weirdness = Weirdness(pp)
	res.PerplexityDisplay = fmt.Sprintf(perplexityDisplayFmt, pp)
	res.TokenCount = len(probs)

	return res
}

// fallback converts a pipeline failure into a display-safe Result.
func fallback(res *Result, err error) *Result {
	kind, msg := classify(err)
	slog.Error("score run failed", "kind", kind, "error", err)

	res.Weirdness = 0
	res.PerplexityDisplay = FailureDisplay
	res.Err = &ErrorDetail{Kind: kind, Message: msg}

	return res
}

func classify(err error) (kind, msg string) {
	switch {
	case errors.Is(err, lm.ErrCredential):
		return KindCredential, "provider credential missing or invalid"
	case errors.Is(err, ErrInsufficientData), errors.Is(err, lm.ErrEmptyResponse):
		return KindInsufficientData, "the model returned no tokens for this sentence"
	default:
		return KindProvider, "the language model could not be reached"
	}
}

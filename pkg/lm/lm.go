// Package lm provides the language model provider contract and an
// OpenAI-compatible client implementation. It exposes [Provider],
// [TokenLogProb], and the provider failure sentinels.
package lm

import (
	"context"
	"errors"
)

const (
	// DefaultBaseURL is the provider API root used when none is configured.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the default scoring model. Prompt logprobs require a
	// completions-capable model that supports echo.
	DefaultModel = "davinci-002"
)

var (
	// ErrCredential indicates a missing or rejected API token.
	ErrCredential = errors.New("provider credential missing or rejected")

	// ErrUpstream indicates a transport failure or a non-success provider response.
	ErrUpstream = errors.New("provider request failed")

	// ErrEmptyResponse indicates a successful response with no token logprobs.
	ErrEmptyResponse = errors.New("provider returned no token logprobs")
)

// TokenLogProb is one prompt token with its natural-log probability under
// the model. LogProb is nil when the provider reported no value for the
// token (OpenAI-compatible APIs return null for the first prefill token,
// which has no preceding context).
type TokenLogProb struct {
	Token   string   `json:"token"`
	LogProb *float64 `json:"logprob"`
}

// Provider returns the ordered log-probabilities of a sentence's own
// tokens (a prefill pass, not generated continuation tokens).
type Provider interface {
	TokenLogProbs(ctx context.Context, sentence string) ([]TokenLogProb, error)
}

package lm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oddmeter/oddmeter/pkg/net"
)

const (
	completionsPath = "/completions"
	modelsPath      = "/models"

	// RequestTimeoutDefault bounds a single provider call. One attempt,
	// no retries; a timeout is reported as an upstream failure.
	RequestTimeoutDefault = 30 * time.Second
)

// Client is an OpenAI-compatible provider client. Prompt logprobs come
// from the legacy completions endpoint: echo enabled with zero generated
// tokens returns the logprobs of the prompt itself.
type Client struct {
	baseURL string
	model   string
	token   string
	timeout time.Duration
	client  *http.Client
}

// NewClient creates a provider client with a static bearer credential.
// Empty baseURL, model, or timeout fall back to the package defaults.
func NewClient(baseURL, model, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = RequestTimeoutDefault
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		token:   token,
		timeout: timeout,
		client:  net.GetOAuthClient(context.Background(), token),
	}
}

// Model returns the model name this client scores with.
func (c *Client) Model() string {
	return c.model
}

type completionRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
	Echo      bool   `json:"echo"`
	LogProbs  int    `json:"logprobs"`
}

type completionLogProbs struct {
	Tokens        []string   `json:"tokens"`
	TokenLogProbs []*float64 `json:"token_logprobs"`
}

type completionChoice struct {
	Text     string              `json:"text"`
	LogProbs *completionLogProbs `json:"logprobs"`
}

type completionResponse struct {
	Model   string             `json:"model"`
	Choices []completionChoice `json:"choices"`
}

// TokenLogProbs returns the ordered logprobs of the sentence's own tokens.
// A missing credential fails here, before any network traffic.
func (c *Client) TokenLogProbs(ctx context.Context, sentence string) ([]TokenLogProb, error) {
	if c.token == "" {
		return nil, fmt.Errorf("%w: no API token configured", ErrCredential)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := completionRequest{
		Model:     c.model,
		Prompt:    sentence,
		MaxTokens: 0,
		Echo:      true,
		LogProbs:  0,
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling completion request: %w", err)
	}

	url := c.baseURL + completionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("creating completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling %s: %v", ErrUpstream, url, err)
	}
	defer res.Body.Close()

	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		net.DumpResponse(res)
	}

	if res.StatusCode != http.StatusOK {
		return nil, classifyStatus(res, url)
	}

	var cr completionResponse
	if err := json.NewDecoder(res.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("%w: decoding completion response: %v", ErrUpstream, err)
	}

	if len(cr.Choices) == 0 || cr.Choices[0].LogProbs == nil {
		return nil, fmt.Errorf("%w: model %s", ErrEmptyResponse, c.model)
	}

	lp := cr.Choices[0].LogProbs
	if len(lp.TokenLogProbs) == 0 {
		return nil, fmt.Errorf("%w: model %s", ErrEmptyResponse, c.model)
	}

	probs := make([]TokenLogProb, 0, len(lp.TokenLogProbs))
	for i, p := range lp.TokenLogProbs {
		t := ""
		if i < len(lp.Tokens) {
			t = lp.Tokens[i]
		}
		probs = append(probs, TokenLogProb{Token: t, LogProb: p})
	}

	slog.Debug("token logprobs received", "model", cr.Model, "tokens", len(probs))

	return probs, nil
}

// Model is one entry from the provider's model listing.
type Model struct {
	ID      string `json:"id" yaml:"id"`
	OwnedBy string `json:"owned_by,omitempty" yaml:"ownedBy,omitempty"`
}

type modelsResponse struct {
	Data []Model `json:"data"`
}

// ListModels returns the models the configured provider offers.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	if c.token == "" {
		return nil, fmt.Errorf("%w: no API token configured", ErrCredential)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.baseURL + modelsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating models request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling %s: %v", ErrUpstream, url, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, classifyStatus(res, url)
	}

	var mr modelsResponse
	if err := json.NewDecoder(res.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("%w: decoding models response: %v", ErrUpstream, err)
	}

	return mr.Data, nil
}

// classifyStatus maps a non-success provider response to a failure
// sentinel, keeping status and body detail in the wrapped error for
// diagnostics.
func classifyStatus(res *http.Response, url string) error {
	body := ""
	if b, err := io.ReadAll(res.Body); err == nil {
		body = string(b)
	}

	switch res.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s - %s - %s", ErrCredential, res.Status, url, body)
	default:
		return fmt.Errorf("%w: %s - %s - %s", ErrUpstream, res.Status, url, body)
	}
}

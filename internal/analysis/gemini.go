package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/eday-ledger/internal/domain"
)

// ErrUpstream indicates the model API answered with a non-2xx status.
var ErrUpstream = errors.New("analysis upstream error")

// GeminiConfig configures a GeminiClient.
type GeminiConfig struct {
	APIKey   string
	Model    string
	Endpoint string // e.g. https://generativelanguage.googleapis.com/v1beta
	Timeout  time.Duration
}

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	cfg    GeminiConfig
	http   *http.Client
	logger zerolog.Logger
}

// NewGeminiClient creates a new GeminiClient.
func NewGeminiClient(cfg GeminiConfig, logger zerolog.Logger) *GeminiClient {
	return &GeminiClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "gemini").Logger(),
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateRequest struct {
	SystemInstruction content          `json:"systemInstruction"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Summarize sends the standings prompt and returns the model's text.
// An empty string means the model answered without text.
func (c *GeminiClient) Summarize(ctx context.Context, candidates []domain.Candidate) (string, error) {
	body, err := json.Marshal(generateRequest{
		SystemInstruction: content{Parts: []part{{Text: SystemInstruction}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: BuildPrompt(candidates)}}}},
		GenerationConfig:  generationConfig{Temperature: Temperature},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.Endpoint, "/") + "/models/" + url.PathEscape(c.cfg.Model) + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("generateContent answered")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(out.Candidates) == 0 {
		return "", nil
	}

	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return strings.TrimSpace(text.String()), nil
}

// Ensure GeminiClient implements Summarizer.
var _ Summarizer = (*GeminiClient)(nil)

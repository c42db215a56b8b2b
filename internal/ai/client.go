// Package ai is the client for the external summarization service, an
// OpenAI-compatible chat completions API. The service is a black box: callers
// must treat every failure as a degraded, non-fatal state.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"health-vault-server/internal/config"
)

// ErrUnavailable indicates the summarization service could not produce a
// result. Callers degrade to an "analysis unavailable" state.
var ErrUnavailable = errors.New("analysis service unavailable")

// AnalysisInput carries the record content and the owner's vitals.
type AnalysisInput struct {
	Content    string
	RecordType string
	WeightKg   *float64
	HeightCm   *float64
	BMI        *float64
}

// AnalysisResult is the structured output the model is asked to produce.
type AnalysisResult struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

// Client calls the summarization API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	log        *zap.Logger
}

// NewClient creates a new Client from config.
func NewClient(cfg config.AIConfig, log *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		log:        log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const systemPrompt = `You are an AI health assistant. Analyze the provided health record and respond with JSON of the shape {"summary": string, "recommendations": [string]}. Provide a clear health analysis summary and 3-4 actionable health recommendations. Keep language clear, encouraging, and medically appropriate.`

// Analyze submits the record content plus vitals and parses the structured
// reply. Every failure mode maps onto ErrUnavailable.
func (c *Client) Analyze(ctx context.Context, input AnalysisInput) (*AnalysisResult, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(input)},
		},
	}
	req.ResponseFormat.Type = "json_object"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Warn("summarization request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("summarization service returned non-OK status",
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil || len(chat.Choices) == 0 {
		return nil, fmt.Errorf("%w: malformed response", ErrUnavailable)
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &result); err != nil {
		return nil, fmt.Errorf("%w: malformed analysis payload", ErrUnavailable)
	}
	return &result, nil
}

func buildUserPrompt(input AnalysisInput) string {
	var b strings.Builder

	b.WriteString("Patient Stats:\n")
	if input.WeightKg != nil {
		fmt.Fprintf(&b, "- Weight: %.1f kg\n", *input.WeightKg)
	}
	if input.HeightCm != nil {
		fmt.Fprintf(&b, "- Height: %.1f cm\n", *input.HeightCm)
	}
	if input.BMI != nil {
		fmt.Fprintf(&b, "- BMI: %.2f\n", *input.BMI)
	}

	fmt.Fprintf(&b, "\nRecord Type: %s\n\nDescription:\n%s\n", input.RecordType, input.Content)
	return b.String()
}

package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"readconfirm-backend/internal/shared/telemetry"
	"readconfirm-backend/internal/summarizer"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client implements summarizer.Client using the Gemini generateContent API.
type Client struct {
	model      string
	keys       summarizer.KeySource
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new Gemini client. The API key is resolved per call
// through keys, so a key configured after startup takes effect immediately.
func NewClient(model string, keys summarizer.KeySource) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("SUMMARIZER_MODEL is required for Gemini")
	}
	if keys == nil {
		return nil, fmt.Errorf("key source is required")
	}
	timeout := 60 * time.Second
	if raw := strings.TrimSpace(os.Getenv("SUMMARIZER_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		model:   model,
		keys:    keys,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Summarize sends the fixed summary prompt with the given text and returns
// the generated summary. Exactly one attempt is made; timeouts and provider
// errors are returned to the caller unretried.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	apiKey, err := c.keys.APIKey(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(apiKey) == "" {
		return "", summarizer.ErrNotConfigured
	}

	reqBody := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: summarizer.BuildPrompt(text)}}},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("gemini request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("gemini response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini error: %s (%s)", parsed.Error.Message, parsed.Error.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini status %d", resp.StatusCode)
	}
	if len(parsed.Candidates) == 0 {
		return "", nil
	}

	var out strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		out.WriteString(p.Text)
	}
	logUsage(c.model, &parsed)
	return strings.TrimSpace(out.String()), nil
}

func logUsage(model string, parsed *generateResponse) {
	fields := map[string]any{"model": model}
	if parsed.UsageMetadata != nil {
		fields["prompt_tokens"] = parsed.UsageMetadata.PromptTokenCount
		fields["completion_tokens"] = parsed.UsageMetadata.CandidatesTokenCount
		fields["total_tokens"] = parsed.UsageMetadata.TotalTokenCount
	}
	telemetry.Info("summarizer.response", fields)
}

var _ summarizer.Client = (*Client)(nil)

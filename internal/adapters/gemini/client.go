package gemini

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

	"room-listing-service/internal/contextkeys"
	"room-listing-service/internal/core/port"

	"golang.org/x/time/rate"
)

var ErrMissingAPIKey = errors.New("gemini API key is not configured")

// Client - текстовый сервис поверх Gemini generateContent.
// Ответ модели возвращается как есть; разбор делает пайплайн ингеста.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient: rps <= 0 отключает ограничение частоты
func NewClient(baseURL, model, apiKey string, rps float64, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "GeminiClient",
		"model":     c.model,
	})

	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	logger.Debug("Sending prompt to text service", port.Fields{"prompt_length": len(prompt)})
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("Failed to perform request to text service", err, nil)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		err := fmt.Errorf("text service returned non-success status code %d: %s", resp.StatusCode, errorMessage(bodyBytes))
		logger.Error("Received error response from text service", err, port.Fields{"status_code": resp.StatusCode})
		return "", err
	}

	var decoded generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		logger.Error("Failed to decode response from text service", err, nil)
		return "", fmt.Errorf("failed to decode text service response: %w", err)
	}

	text, err := firstCandidateText(decoded)
	if err != nil {
		logger.Warn("Text service returned no usable candidate", port.Fields{"error": err.Error()})
		return "", err
	}
	logger.Debug("Received text service response", port.Fields{"response_length": len(text)})
	return text, nil
}

func firstCandidateText(resp generateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt was blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", errors.New("response has no candidates")
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("candidate has no text (finish reason %q)", resp.Candidates[0].FinishReason)
	}
	return b.String(), nil
}

func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return string(body)
}

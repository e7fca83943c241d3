// Calls the Anthropic Messages API with a vision payload and classifies
// provider failures into the pipeline's error taxonomy.
package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/tanmald/plant-sis/app/config"
	"github.com/tanmald/plant-sis/app/models"
)

const (
	anthropicVersion = "2023-06-01"
	maxOutputTokens  = 1024
)

// providerOutput is the raw provider reply plus token accounting.
type providerOutput struct {
	Text       string
	TokensUsed int
}

// photoAnalyzer performs one synchronous vision call with a bounded wait.
// Failures come back as *apiError taxonomy members; no retries happen here.
type photoAnalyzer interface {
	AnalyzePhoto(ctx context.Context, model, prompt string, req models.AnalyzeRequest) (providerOutput, error)
}

type anthropicClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func newAnthropicClient(cfg config.AnthropicConfig) *anthropicClient {
	return &anthropicClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: cfg.Timeout},
	}
}

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

type anthropicContentBlock struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// AnalyzePhoto sends one image-plus-prompt message and returns the text
// reply. Use base64 when the caller uploaded bytes, otherwise the remote
// image URL.
func (c *anthropicClient) AnalyzePhoto(ctx context.Context, model, prompt string, req models.AnalyzeRequest) (providerOutput, error) {
	source := &anthropicImageSource{Type: "url", URL: req.ImageURL}
	if req.ImageBase64 != "" && req.MediaType != "" {
		source = &anthropicImageSource{Type: "base64", MediaType: req.MediaType, Data: req.ImageBase64}
	}

	body := anthropicRequest{
		Model:     model,
		MaxTokens: maxOutputTokens,
		Messages: []anthropicMessage{
			{
				Role: "user",
				Content: []anthropicContentBlock{
					{Type: "image", Source: source},
					{Type: "text", Text: prompt},
				},
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return providerOutput{}, fmt.Errorf("marshal anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return providerOutput{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	res, err := c.httpc.Do(httpReq)
	if err != nil {
		log.Printf("anthropic request failed: %v", err)
		return providerOutput{}, errAnalysisFailed()
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		log.Printf("anthropic response read failed: %v", err)
		return providerOutput{}, errAnalysisFailed()
	}

	if res.StatusCode != http.StatusOK {
		return providerOutput{}, classifyProviderError(res.StatusCode, raw)
	}

	var msg anthropicResponse
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("anthropic response unmarshal failed: %v", err)
		return providerOutput{}, errAnalysisFailed()
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	return providerOutput{
		Text:       text,
		TokensUsed: msg.Usage.InputTokens + msg.Usage.OutputTokens,
	}, nil
}

// classifyProviderError maps a provider failure to exactly one taxonomy
// member. Billing or account-level unavailability is distinguished from
// throttling; everything else is a generic analysis failure.
func classifyProviderError(status int, raw []byte) *apiError {
	var parsed anthropicErrorResponse
	_ = json.Unmarshal(raw, &parsed)

	errType := parsed.Error.Type
	message := strings.ToLower(parsed.Error.Message)

	log.Printf("anthropic api error status=%d type=%s", status, errType)

	switch {
	case strings.Contains(message, "credit balance"),
		strings.Contains(message, "billing"),
		strings.Contains(message, "purchase credits"),
		errType == "overloaded_error",
		status == 529:
		return errServiceUnavailable()
	case status == http.StatusTooManyRequests,
		errType == "rate_limit_error",
		strings.Contains(message, "rate limit"):
		return errRateLimited()
	default:
		return errAnalysisFailed()
	}
}

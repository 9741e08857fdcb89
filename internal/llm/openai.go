package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Hopenghu/hopenghucc-sub004/internal/common/config"
	apperrors "github.com/Hopenghu/hopenghucc-sub004/internal/common/errors"
	httpclient "github.com/Hopenghu/hopenghucc-sub004/internal/common/http"
)

// OpenAIProvider calls an OpenAI-compatible chat/completions endpoint.
type OpenAIProvider struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
	client      *httpclient.Client
}

type openaiRequest struct {
	Model          string             `json:"model"`
	Messages       []openaiMessage    `json:"messages"`
	MaxTokens      int                `json:"max_tokens,omitempty"`
	Temperature    float64            `json:"temperature"`
	ResponseFormat *openaiResponseFmt `json:"response_format,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponseFmt struct {
	Type string `json:"type"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func NewOpenAI(cfg config.ProviderConfig, client *httpclient.Client) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      client,
	}
}

func (o *OpenAIProvider) Name() string {
	return NameOpenAI
}

func (o *OpenAIProvider) Complete(ctx context.Context, prompt string, opts CompletionOpts) (string, error) {
	model := o.model
	if opts.Model != "" {
		model = opts.Model
	}

	var messages []openaiMessage
	if opts.System != "" {
		messages = append(messages, openaiMessage{Role: "system", Content: opts.System})
	}
	messages = append(messages, openaiMessage{Role: "user", Content: prompt})

	req := openaiRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	}
	if opts.Temperature != 0 {
		req.Temperature = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if strings.EqualFold(opts.Format, "json") {
		req.ResponseFormat = &openaiResponseFmt{Type: "json_object"}
	}

	resp, err := o.client.PostJSON(ctx, o.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + o.apiKey}, req)
	if err != nil {
		return "", classifyTransportError(ctx, NameOpenAI, err)
	}
	if !resp.OK() {
		return "", apperrors.NewProviderRequestFailedError(NameOpenAI,
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(resp.Body), 200)))
	}

	var oResp openaiResponse
	if err := json.Unmarshal(resp.Body, &oResp); err != nil {
		return "", apperrors.NewProviderRequestFailedError(NameOpenAI, fmt.Errorf("decode envelope: %w", err))
	}
	if oResp.Error != nil {
		return "", apperrors.NewProviderRequestFailedError(NameOpenAI, fmt.Errorf("%s (%s)", oResp.Error.Message, oResp.Error.Type))
	}
	if len(oResp.Choices) == 0 {
		return "", apperrors.NewProviderEmptyResponseError(NameOpenAI)
	}

	text := strings.TrimSpace(oResp.Choices[0].Message.Content)
	if text == "" {
		return "", apperrors.NewProviderEmptyResponseError(NameOpenAI)
	}
	return text, nil
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Hopenghu/hopenghucc-sub004/internal/common/config"
	apperrors "github.com/Hopenghu/hopenghucc-sub004/internal/common/errors"
	httpclient "github.com/Hopenghu/hopenghucc-sub004/internal/common/http"
)

// GeminiProvider calls the Google generateContent REST API.
type GeminiProvider struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
	client      *httpclient.Client
}

type geminiRequest struct {
	Contents          []geminiContent  `json:"contents"`
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func NewGemini(cfg config.ProviderConfig, client *httpclient.Client) *GeminiProvider {
	return &GeminiProvider{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      client,
	}
}

func (g *GeminiProvider) Name() string {
	return NameGemini
}

func (g *GeminiProvider) Complete(ctx context.Context, prompt string, opts CompletionOpts) (string, error) {
	model := g.model
	if opts.Model != "" {
		model = opts.Model
	}

	req := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: prompt}},
			Role:  "user",
		}},
	}
	if opts.System != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: opts.System}}}
	}

	gen := &geminiGenConfig{Temperature: g.temperature, MaxOutputTokens: g.maxTokens}
	if opts.Temperature != 0 {
		gen.Temperature = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		gen.MaxOutputTokens = opts.MaxTokens
	}
	if strings.EqualFold(opts.Format, "json") {
		gen.ResponseMimeType = "application/json"
	}
	req.GenerationConfig = gen

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, model)
	resp, err := g.client.PostJSON(ctx, url, map[string]string{"x-goog-api-key": g.apiKey}, req)
	if err != nil {
		return "", classifyTransportError(ctx, NameGemini, err)
	}
	if !resp.OK() {
		return "", apperrors.NewProviderRequestFailedError(NameGemini,
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(resp.Body), 200)))
	}

	var gResp geminiResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return "", apperrors.NewProviderRequestFailedError(NameGemini, fmt.Errorf("decode envelope: %w", err))
	}
	if gResp.Error != nil {
		return "", apperrors.NewProviderRequestFailedError(NameGemini,
			fmt.Errorf("%s (code %d)", gResp.Error.Message, gResp.Error.Code))
	}
	if len(gResp.Candidates) == 0 || len(gResp.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.NewProviderEmptyResponseError(NameGemini)
	}

	text := strings.TrimSpace(gResp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", apperrors.NewProviderEmptyResponseError(NameGemini)
	}
	return text, nil
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

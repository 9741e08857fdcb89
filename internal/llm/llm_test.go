package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hopenghu/hopenghucc-sub004/internal/common/config"
	apperrors "github.com/Hopenghu/hopenghucc-sub004/internal/common/errors"
	httpclient "github.com/Hopenghu/hopenghucc-sub004/internal/common/http"
)

func TestSelect_Precedence(t *testing.T) {
	client := httpclient.NewClient(time.Second)

	tests := []struct {
		name     string
		cfg      config.ProvidersConfig
		wantName string
		wantErr  bool
	}{
		{
			name: "gemini wins when both configured",
			cfg: config.ProvidersConfig{
				Gemini: config.ProviderConfig{APIKey: "g"},
				OpenAI: config.ProviderConfig{APIKey: "o"},
			},
			wantName: NameGemini,
		},
		{
			name:     "openai when only openai configured",
			cfg:      config.ProvidersConfig{OpenAI: config.ProviderConfig{APIKey: "o"}},
			wantName: NameOpenAI,
		},
		{
			name:    "none configured",
			cfg:     config.ProvidersConfig{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Select(tt.cfg, client)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrCodeProviderNotConfigured, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestGemini_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)

		var req geminiRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "extract this", req.Contents[0].Parts[0].Text)
		if assert.NotNil(t, req.SystemInstruction) {
			assert.Equal(t, "be strict", req.SystemInstruction.Parts[0].Text)
		}
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  {\"emotionalTone\":\"positive\"}  "}]}}]}`))
	}))
	defer server.Close()

	p := NewGemini(config.ProviderConfig{
		APIKey:  "test-key",
		Model:   "gemini-2.5-flash",
		BaseURL: server.URL + "/",
	}, httpclient.NewClient(5*time.Second))

	out, err := p.Complete(context.Background(), "extract this", CompletionOpts{Format: "json", System: "be strict"})
	require.NoError(t, err)
	assert.Equal(t, `{"emotionalTone":"positive"}`, out)
}

func TestGemini_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota"}}`))
	}))
	defer server.Close()

	p := NewGemini(config.ProviderConfig{APIKey: "k", Model: "m", BaseURL: server.URL}, httpclient.NewClient(5*time.Second))
	_, err := p.Complete(context.Background(), "hi", CompletionOpts{})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeProviderRequestFailed, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "429")
}

func TestGemini_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	p := NewGemini(config.ProviderConfig{APIKey: "k", Model: "m", BaseURL: server.URL}, httpclient.NewClient(5*time.Second))
	_, err := p.Complete(context.Background(), "hi", CompletionOpts{})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeProviderEmptyResponse, apperrors.CodeOf(err))
}

func TestGemini_ContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	p := NewGemini(config.ProviderConfig{APIKey: "k", Model: "m", BaseURL: server.URL}, httpclient.NewClient(5*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Complete(ctx, "hi", CompletionOpts{})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeProviderTimeout, apperrors.CodeOf(err))
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestGemini_TransportErrorOmitsKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	p := NewGemini(config.ProviderConfig{APIKey: "SECRET-KEY-123", Model: "m", BaseURL: addr}, httpclient.NewClient(time.Second))
	_, err := p.Complete(context.Background(), "hi", CompletionOpts{})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeProviderRequestFailed, apperrors.CodeOf(err))
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	s := "配額已用完請稍後再試"
	for n := 1; n < len(s); n++ {
		out := truncate(s, n)
		assert.True(t, utf8.ValidString(out), "n=%d", n)
		assert.LessOrEqual(t, len(out), n+len("..."))
	}
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "配...", truncate(s, 4))
}

func TestOpenAI_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openaiRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, "user", req.Messages[1].Role)
		}
		if assert.NotNil(t, req.ResponseFormat) {
			assert.Equal(t, "json_object", req.ResponseFormat.Type)
		}

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"interests\":[]}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	p := NewOpenAI(config.ProviderConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: server.URL}, httpclient.NewClient(5*time.Second))

	out, err := p.Complete(context.Background(), "msg", CompletionOpts{Format: "json", System: "sys"})
	require.NoError(t, err)
	assert.Equal(t, `{"interests":[]}`, out)
}

func TestOpenAI_EnvelopeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	p := NewOpenAI(config.ProviderConfig{APIKey: "sk", Model: "m", BaseURL: server.URL}, httpclient.NewClient(5*time.Second))
	_, err := p.Complete(context.Background(), "msg", CompletionOpts{})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeProviderRequestFailed, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "bad key")
}

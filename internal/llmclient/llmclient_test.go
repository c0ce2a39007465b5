package llmclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hmwatts/tracebench/api/schemas"
	"github.com/hmwatts/tracebench/internal/config"
)

func TestFactorySelectsProvider(t *testing.T) {
	logger := zap.NewNop()

	c, err := NewClient(config.LLMConfig{Provider: config.ProviderGemini, Model: "gemini-2.0-flash", APIKey: "k"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &GeminiClient{}, c)

	c, err = NewClient(config.LLMConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini", APIKey: "k"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	_, err = NewClient(config.LLMConfig{Provider: "oracle"}, logger)
	assert.Error(t, err)
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	_, err := NewClient(config.LLMConfig{Provider: config.ProviderGemini}, zap.NewNop())
	assert.Error(t, err)
	_, err = NewClient(config.LLMConfig{Provider: config.ProviderOpenAI}, zap.NewNop())
	assert.Error(t, err)
}

func TestGeminiGenerate(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"click(\"a17\")"}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	client, err := NewGeminiClient(config.LLMConfig{
		Provider:   config.ProviderGemini,
		Model:      "gemini-2.0-flash",
		APIKey:     "test-key",
		Endpoint:   srv.URL,
		APITimeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), schemas.GenerationRequest{
		SystemPrompt: "you are a browser agent",
		UserPrompt:   "what next?",
		Options:      schemas.GenerationOptions{Temperature: 0, MaxTokens: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, `click("a17")`, out)

	var payload geminiRequestPayload
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, "you are a browser agent", payload.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "what next?", payload.Contents[0].Parts[0].Text)
	assert.Equal(t, 100, payload.GenerationConfig.MaxOutputTokens)
}

func TestGeminiRetriesTransientErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"noop()"}]}}]}`)
	}))
	defer srv.Close()

	client, err := NewGeminiClient(config.LLMConfig{
		APIKey: "k", Endpoint: srv.URL, APITimeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "go"})
	require.NoError(t, err)
	assert.Equal(t, "noop()", out)
	assert.Equal(t, 3, attempts)
}

func TestGeminiPermanentErrorNotRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewGeminiClient(config.LLMConfig{
		APIKey: "k", Endpoint: srv.URL, APITimeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "go"})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"fill(\"a1\", \"Jo\")"}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`)
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(config.LLMConfig{
		Provider: config.ProviderOpenAI,
		Model:    "gpt-4o-mini",
		APIKey:   "k",
		Endpoint: srv.URL,
	}, zap.NewNop())
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), schemas.GenerationRequest{
		SystemPrompt: "sys",
		UserPrompt:   "user",
	})
	require.NoError(t, err)
	assert.Equal(t, `fill("a1", "Jo")`, out)
}

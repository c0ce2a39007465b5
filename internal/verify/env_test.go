package verify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hmwatts/tracebench/internal/config"
)

func envConfig(t *testing.T, gatewayURL string) *config.Config {
	t.Helper()
	return &config.Config{
		LLM: config.LLMConfig{
			Provider: config.ProviderOpenAI,
			Model:    "gpt-4o-mini",
			APIKey:   "test-key",
		},
		Eval:     config.EvalConfig{GatewayURL: gatewayURL},
		Pipeline: config.PipelineConfig{OutputDir: t.TempDir()},
	}
}

func TestEnvironmentAllChecksPass(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := Environment(context.Background(), envConfig(t, srv.URL), false)
	assert.True(t, r.Summary.AllPassed, "failed checks: %+v", r.Checks)
}

func TestEnvironmentQuickSkipsNetwork(t *testing.T) {
	r := Environment(context.Background(), envConfig(t, "http://127.0.0.1:1"), true)
	assert.True(t, r.Summary.AllPassed, "failed checks: %+v", r.Checks)
	assert.NotEmpty(t, r.Warnings)
	for _, c := range r.Checks {
		assert.NotEqual(t, "Benchmark Gateway", c.Name)
	}
}

func TestEnvironmentGatewayUnreachable(t *testing.T) {
	r := Environment(context.Background(), envConfig(t, "http://127.0.0.1:1"), false)
	assert.False(t, checkByName(t, r, "Benchmark Gateway").Passed)
}

func TestEnvironmentUnknownProvider(t *testing.T) {
	cfg := envConfig(t, "")
	cfg.LLM.Provider = "oracle"

	r := Environment(context.Background(), cfg, true)
	assert.False(t, checkByName(t, r, "LLM Provider").Passed)
}

func TestEnvironmentMissingAPIKey(t *testing.T) {
	cfg := envConfig(t, "")
	cfg.LLM.APIKey = ""
	t.Setenv("OPENAI_API_KEY", "")

	r := Environment(context.Background(), cfg, true)
	assert.False(t, checkByName(t, r, "API Key").Passed)
}

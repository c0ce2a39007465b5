package verify

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hmwatts/tracebench/internal/config"
)

// envProbeTimeout bounds each network readiness probe.
const envProbeTimeout = 5 * time.Second

// Environment verifies that an evaluation campaign can actually run: the
// LLM provider is configured, the benchmark gateway answers, and the output
// directory is writable. With quick set, network probes are skipped and only
// local configuration is checked.
func Environment(ctx context.Context, cfg *config.Config, quick bool) Report {
	b := newBattery("environment")

	verifyProviderConfig(b, &cfg.LLM)
	verifyOutputDir(b, cfg.Pipeline.OutputDir)

	if quick {
		b.warnf("quick mode: network probes skipped")
		return b.report()
	}

	verifyGateway(ctx, b, cfg.Eval.GatewayURL)
	return b.report()
}

func verifyProviderConfig(b *battery, llm *config.LLMConfig) {
	known := llm.Provider == config.ProviderGemini || llm.Provider == config.ProviderOpenAI
	b.add("LLM Provider", known,
		checkMsg(known, fmt.Sprintf("provider %q configured", llm.Provider), fmt.Sprintf("unknown provider %q", llm.Provider)),
		map[string]any{"provider": llm.Provider, "model": llm.Model})

	hasKey := llm.APIKey != ""
	if !hasKey {
		// Fall back to the conventional environment variables.
		switch llm.Provider {
		case config.ProviderGemini:
			hasKey = os.Getenv("GEMINI_API_KEY") != ""
		case config.ProviderOpenAI:
			hasKey = os.Getenv("OPENAI_API_KEY") != ""
		}
	}
	b.add("API Key", hasKey,
		checkMsg(hasKey, "API key available", "no API key in config or environment"),
		map[string]any{"provider": llm.Provider})
}

func verifyOutputDir(b *battery, dir string) {
	probe := filepath.Join(dir, ".write-probe-"+uuid.NewString())
	err := os.WriteFile(probe, nil, 0o644)
	if err == nil {
		os.Remove(probe)
	}
	b.add("Output Directory", err == nil,
		checkMsg(err == nil, fmt.Sprintf("output directory %q writable", dir), fmt.Sprintf("cannot write to %q: %v", dir, err)),
		map[string]any{"output_dir": dir})
}

func verifyGateway(ctx context.Context, b *battery, gatewayURL string) {
	ctx, cancel := context.WithTimeout(ctx, envProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gatewayURL+"/health", nil)
	if err != nil {
		b.add("Benchmark Gateway", false, fmt.Sprintf("invalid gateway URL %q: %v", gatewayURL, err), nil)
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		b.add("Benchmark Gateway", false, fmt.Sprintf("gateway unreachable: %v", err), map[string]any{"url": gatewayURL})
		return
	}
	defer resp.Body.Close()

	ok := resp.StatusCode < 500
	b.add("Benchmark Gateway", ok,
		checkMsg(ok, fmt.Sprintf("gateway answered with %d", resp.StatusCode), fmt.Sprintf("gateway returned %d", resp.StatusCode)),
		map[string]any{"url": gatewayURL, "status": resp.StatusCode})
}

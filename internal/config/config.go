package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LLM provider identifiers accepted by the client factory.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	ServiceName string `mapstructure:"service_name"`
	AddSource   bool   `mapstructure:"add_source"`
	LogFile     string `mapstructure:"log_file"`
	MaxSize     int    `mapstructure:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAge      int    `mapstructure:"max_age"`
	Compress    bool   `mapstructure:"compress"`
}

// PipelineConfig tunes trace processing outputs.
type PipelineConfig struct {
	OutputDir   string `mapstructure:"output_dir"`
	IncludeHTML bool   `mapstructure:"include_html"`
	ExtractHTML bool   `mapstructure:"extract_html"`
}

// LLMConfig configures the language-model collaborator.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	Endpoint    string        `mapstructure:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
}

// EvalConfig drives an evaluation campaign.
type EvalConfig struct {
	TaskID          string        `mapstructure:"task_id"`
	GatewayURL      string        `mapstructure:"gateway_url"`
	Seeds           []int         `mapstructure:"seeds"`
	Models          []string      `mapstructure:"models"`
	MaxSteps        int           `mapstructure:"max_steps"`
	RunTimeout      time.Duration `mapstructure:"run_timeout"`
	MaxRepeated     int           `mapstructure:"max_repeated"`
	ParallelWorkers int           `mapstructure:"parallel_workers"`
	AxTreeLimit     int           `mapstructure:"axtree_limit"`
	ICLPromptFile   string        `mapstructure:"icl_prompt_file"`
}

// ServerConfig configures the trace ingestion service.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	DatabasePath    string        `mapstructure:"database_path"`
	MirrorDir       string        `mapstructure:"mirror_dir"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// ReplayConfig configures chromedp-driven replay.
type ReplayConfig struct {
	Headless      bool          `mapstructure:"headless"`
	ActionTimeout time.Duration `mapstructure:"action_timeout"`
	StepDelay     time.Duration `mapstructure:"step_delay"`
}

// Config is the full application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Eval     EvalConfig     `mapstructure:"eval"`
	Server   ServerConfig   `mapstructure:"server"`
	Replay   ReplayConfig   `mapstructure:"replay"`
}

// SetDefaults registers every default on the given viper instance. Flags and
// TRACEBENCH_* environment variables override these.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "tracebench")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)

	v.SetDefault("pipeline.output_dir", ".")

	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.api_timeout", 60*time.Second)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 150)

	v.SetDefault("eval.gateway_url", "http://127.0.0.1:9000")
	v.SetDefault("eval.seeds", []int{55, 276, 91, 789, 419})
	v.SetDefault("eval.models", []string{"gpt-4o", "gpt-4o-mini"})
	v.SetDefault("eval.max_steps", 30)
	v.SetDefault("eval.run_timeout", 120*time.Second)
	v.SetDefault("eval.max_repeated", 5)
	v.SetDefault("eval.parallel_workers", 3)
	v.SetDefault("eval.axtree_limit", 15000)

	v.SetDefault("server.address", "127.0.0.1:8123")
	v.SetDefault("server.database_path", "traces.db")
	v.SetDefault("server.mirror_dir", "intermediate")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.max_body_bytes", int64(64<<20))

	v.SetDefault("replay.headless", true)
	v.SetDefault("replay.action_timeout", 10*time.Second)
	v.SetDefault("replay.step_delay", 250*time.Millisecond)
}

// Load reads the optional config file plus environment and returns the
// decoded configuration. A missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.GetViper()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("TRACEBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

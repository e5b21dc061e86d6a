package config

// Config holds zhanghui configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Classifier ClassifierCfg `mapstructure:"classifier" yaml:"classifier"`
	Analyzer   AnalyzerCfg   `mapstructure:"analyzer" yaml:"analyzer"`
	Batch      BatchCfg      `mapstructure:"batch" yaml:"batch"`
}

// ClassifierCfg configures the semantic classification collaborator. The
// pipeline runs fully heuristic when it is disabled.
type ClassifierCfg struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Model      string  `mapstructure:"model" yaml:"model"`
	APIKey     string  `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	RateLimit  float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per second
	MaxRetries int     `mapstructure:"max_retries" yaml:"max_retries"`
	TimeoutSec int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// AnalyzerCfg configures the per-book pipeline.
type AnalyzerCfg struct {
	MaxIterations int `mapstructure:"max_iterations" yaml:"max_iterations"`
	PassingScore  int `mapstructure:"passing_score" yaml:"passing_score"`
}

// BatchCfg configures batch processing.
type BatchCfg struct {
	Workers    int    `mapstructure:"workers" yaml:"workers"`
	Checkpoint string `mapstructure:"checkpoint" yaml:"checkpoint"` // named checkpoint for resume
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Classifier: ClassifierCfg{
			Enabled:    false,
			Model:      "gpt-4o-mini",
			APIKey:     "${OPENAI_API_KEY}",
			RateLimit:  2.0,
			MaxRetries: 3,
			TimeoutSec: 60,
		},
		Analyzer: AnalyzerCfg{
			MaxIterations: 3,
			PassingScore:  90,
		},
		Batch: BatchCfg{
			Workers:    4,
			Checkpoint: "batch",
		},
	}
}

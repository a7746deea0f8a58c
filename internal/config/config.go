// Package config loads runtime configuration from the environment.
// Credentials and tunables are plain environment variables (a .env file is
// honored by the CLI); defaults cover everything except the credentials.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Environment variable names for the external service credentials. Absence of
// a data-source key degrades that adapter to its neutral result; absence of
// the OpenAI key makes synthesis return an error report instead of calling out.
const (
	EnvGoogleKGAPIKey  = "GOOGLE_KG_API_KEY"
	EnvBuiltWithAPIKey = "BUILTWITH_API_KEY"
	EnvSonarAPIKey     = "SONAR_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
)

// Config carries every knob the pipeline reads. All duration and model
// fields have defaults; only the API keys may legitimately be empty.
type Config struct {
	GoogleKGAPIKey  string
	BuiltWithAPIKey string
	SonarAPIKey     string
	OpenAIAPIKey    string

	LookupTimeout time.Duration `validate:"gt=0"`
	SearchTimeout time.Duration `validate:"gt=0"`
	SynthTimeout  time.Duration `validate:"gt=0"`

	RetryMaxAttempts int           `validate:"gte=1"`
	RetryBaseDelay   time.Duration `validate:"gt=0"`

	SonarModel        string `validate:"required"`
	SonarMaxTokens    int    `validate:"gt=0"`
	SynthPrimaryModel string `validate:"required"`
	SynthSecondModel  string `validate:"required"`
	SynthThirdModel   string `validate:"required"`
	SynthMaxTokens    int    `validate:"gt=0"`

	// OpenAIBaseURL is overridable for tests against a local fake endpoint.
	OpenAIBaseURL string
}

// Load reads configuration from the environment, applies defaults, and
// validates the result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("lookup_timeout", "30s")
	v.SetDefault("search_timeout", "60s")
	v.SetDefault("synth_timeout", "60s")
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay", "400ms")
	v.SetDefault("sonar_model", "llama-3.1-sonar-small-128k-online")
	v.SetDefault("sonar_max_tokens", 600)
	v.SetDefault("synth_primary_model", "o3-mini")
	v.SetDefault("synth_second_model", "gpt-4-turbo")
	v.SetDefault("synth_third_model", "gpt-4o")
	v.SetDefault("synth_max_tokens", 800)

	cfg := &Config{
		GoogleKGAPIKey:  v.GetString("google_kg_api_key"),
		BuiltWithAPIKey: v.GetString("builtwith_api_key"),
		SonarAPIKey:     v.GetString("sonar_api_key"),
		OpenAIAPIKey:    v.GetString("openai_api_key"),

		LookupTimeout: v.GetDuration("lookup_timeout"),
		SearchTimeout: v.GetDuration("search_timeout"),
		SynthTimeout:  v.GetDuration("synth_timeout"),

		RetryMaxAttempts: v.GetInt("retry_max_attempts"),
		RetryBaseDelay:   v.GetDuration("retry_base_delay"),

		SonarModel:        v.GetString("sonar_model"),
		SonarMaxTokens:    v.GetInt("sonar_max_tokens"),
		SynthPrimaryModel: v.GetString("synth_primary_model"),
		SynthSecondModel:  v.GetString("synth_second_model"),
		SynthThirdModel:   v.GetString("synth_third_model"),
		SynthMaxTokens:    v.GetInt("synth_max_tokens"),

		OpenAIBaseURL: v.GetString("openai_base_url"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the tunables; credentials are allowed to be empty because
// each adapter degrades gracefully on its own.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

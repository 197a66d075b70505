package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all the configuration settings for a tubestats run.
type Config struct {
	Env       string          `yaml:"env" validate:"oneof=development staging production testing"`
	API       APIConfig       `yaml:"api"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Retry     RetryConfig     `yaml:"retry"`
	Centre    CentreConfig    `yaml:"centre"`
	Source    SourceConfig    `yaml:"source"`
	Output    OutputConfig    `yaml:"output"`
}

// APIConfig locates the TfL Unified API and the credentials sent with each call.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	AppID   string        `yaml:"app_id"`
	AppKey  string        `yaml:"app_key"`
	Mode    string        `yaml:"mode" validate:"required,alphanum"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// RateLimitConfig caps outbound calls to Calls per Period. A refused call is
// retried every Wait until MaxDelay has elapsed.
type RateLimitConfig struct {
	Calls    int           `yaml:"calls" validate:"gt=0"`
	Period   time.Duration `yaml:"period" validate:"gt=0"`
	Wait     time.Duration `yaml:"wait" validate:"gt=0"`
	MaxDelay time.Duration `yaml:"max_delay" validate:"gtefield=Wait"`
}

// RetryConfig is the exponential backoff applied to transport failures.
type RetryConfig struct {
	Attempts int           `yaml:"attempts" validate:"gte=1"`
	MinWait  time.Duration `yaml:"min_wait" validate:"gt=0"`
	MaxWait  time.Duration `yaml:"max_wait" validate:"gtefield=MinWait"`
}

// CentreConfig is the point stop distances are measured from.
type CentreConfig struct {
	Lat float64 `yaml:"lat" validate:"latitude"`
	Lon float64 `yaml:"lon" validate:"longitude"`
}

// SourceConfig selects where stop points come from: the TfL API or a GTFS
// static bundle (a zip file, a directory of zips, or a URL).
type SourceConfig struct {
	Kind     string   `yaml:"kind" validate:"oneof=tfl gtfs"`
	GTFSPath string   `yaml:"gtfs_path" validate:"required_if=Kind gtfs"`
	Lines    []string `yaml:"lines" validate:"dive,required"`
}

// OutputConfig names the artefacts written at the end of a run. Path "-"
// writes the dataset to stdout; empty PlotPath or MetricsPath skips them.
type OutputConfig struct {
	Path        string `yaml:"path" validate:"required"`
	Format      string `yaml:"format" validate:"oneof=csv json"`
	PlotPath    string `yaml:"plot_path"`
	MetricsPath string `yaml:"metrics_path"`
}

// Default returns the configuration used when no file or flag overrides a
// setting. The limits match the TfL Unified API's 500 requests per minute.
func Default() *Config {
	return &Config{
		Env: "development",
		API: APIConfig{
			BaseURL: "https://api.tfl.gov.uk/",
			Mode:    "tube",
			Timeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Calls:    500,
			Period:   60 * time.Second,
			Wait:     time.Second,
			MaxDelay: 60 * time.Second,
		},
		Retry: RetryConfig{
			Attempts: 3,
			MinWait:  time.Second,
			MaxWait:  60 * time.Second,
		},
		Centre: CentreConfig{
			Lat: 51.509865,
			Lon: -0.118092,
		},
		Source: SourceConfig{
			Kind: "tfl",
		},
		Output: OutputConfig{
			Path:   "-",
			Format: "csv",
		},
	}
}

// ApplyEnv overrides credentials with TFL_APP_ID and TFL_APP_KEY when set.
func (cfg *Config) ApplyEnv() {
	if v := os.Getenv("TFL_APP_ID"); v != "" {
		cfg.API.AppID = v
	}
	if v := os.Getenv("TFL_APP_KEY"); v != "" {
		cfg.API.AppKey = v
	}
}

// Validate checks the configuration against its struct tags.
func (cfg *Config) Validate() error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

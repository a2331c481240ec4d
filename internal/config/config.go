package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Dataset   DatasetConfig   `yaml:"dataset" envconfig:"DATASET"`
	Geocode   GeocodeConfig   `yaml:"geocode" envconfig:"GEOCODE"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// DatasetConfig describes the ratings dataset source
type DatasetConfig struct {
	Path      string `yaml:"path" envconfig:"PATH"`
	ExportDir string `yaml:"export_dir" envconfig:"EXPORT_DIR"`
	// EnrichState controls whether the ZIP-to-state pass runs at load time.
	// It is the dominant load cost (one lookup per distinct ZIP code).
	EnrichState bool `yaml:"enrich_state" envconfig:"ENRICH_STATE"`
	AgeBinSize  int  `yaml:"age_bin_size" envconfig:"AGE_BIN_SIZE"`
}

// GeocodeConfig configures the external ZIP-to-state lookup
type GeocodeConfig struct {
	BaseURL           string        `yaml:"base_url" envconfig:"BASE_URL"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND"`
	Burst             int           `yaml:"burst" envconfig:"BURST"`
	MaxRetries        int           `yaml:"max_retries" envconfig:"MAX_RETRIES"`
}

// AnalyticsConfig holds default thresholds for the aggregate queries
type AnalyticsConfig struct {
	MinGenreRatings int `yaml:"min_genre_ratings" envconfig:"MIN_GENRE_RATINGS"`
	MinYearRatings  int `yaml:"min_year_ratings" envconfig:"MIN_YEAR_RATINGS"`
	MinMovieRatings int `yaml:"min_movie_ratings" envconfig:"MIN_MOVIE_RATINGS"`
	TopN            int `yaml:"top_n" envconfig:"TOP_N"`
	AgeBandWidth    int `yaml:"age_band_width" envconfig:"AGE_BAND_WIDTH"`
	AgeBandMin      int `yaml:"age_band_min" envconfig:"AGE_BAND_MIN"`
	AgeBandMax      int `yaml:"age_band_max" envconfig:"AGE_BAND_MAX"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimitRPS:    100,
			RateLimitBurst:  50,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Dataset: DatasetConfig{
			Path:        "data/movie_ratings.csv",
			ExportDir:   "exports",
			EnrichState: true,
			AgeBinSize:  10,
		},
		Geocode: GeocodeConfig{
			BaseURL:           "https://api.zippopotam.us/us",
			Timeout:           5 * time.Second,
			RequestsPerSecond: 10,
			Burst:             5,
			MaxRetries:        1,
		},
		Analytics: AnalyticsConfig{
			MinGenreRatings: 50,
			MinYearRatings:  5,
			MinMovieRatings: 50,
			TopN:            5,
			AgeBandWidth:    5,
			AgeBandMin:      10,
			AgeBandMax:      100,
		},
	}
}

// Load loads configuration from environment variables and config file.
// Precedence is environment (prefix MLPULSE), then file, then defaults.
func Load() (*Config, error) {
	return LoadFromFile(configFilePath())
}

// LoadFromFile loads configuration from the given YAML file, then applies
// environment overrides and validates the result. A missing file is not an
// error; the defaults stand.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// envconfig only touches fields whose MLPULSE_* variable is set, so
	// file values survive and env wins.
	if err := envconfig.Process("MLPULSE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func configFilePath() string {
	if p := os.Getenv("MLPULSE_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Dataset.Path == "" {
		return fmt.Errorf("dataset path must not be empty")
	}
	if c.Dataset.AgeBinSize <= 0 {
		return fmt.Errorf("age bin size must be positive: %d", c.Dataset.AgeBinSize)
	}
	if c.Analytics.AgeBandWidth <= 0 {
		return fmt.Errorf("age band width must be positive: %d", c.Analytics.AgeBandWidth)
	}
	if c.Analytics.AgeBandMin >= c.Analytics.AgeBandMax {
		return fmt.Errorf("age band range is empty: [%d, %d)", c.Analytics.AgeBandMin, c.Analytics.AgeBandMax)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"FlareCast/pkg/logger"
	"FlareCast/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	App         struct {
		Name    string `yaml:"name" default:"Solar Flare Prediction API"`
		Version string `yaml:"version" default:"2.0.0"`
	} `yaml:"app"`
	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8000"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"1s"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
		MetricsPath     string        `yaml:"metrics_path" default:"/metrics"`
	} `yaml:"server"`
	Logging logger.Config `yaml:"logging"`
	Model   struct {
		Dir             string `yaml:"dir" default:"models"`
		RuntimeLibrary  string `yaml:"runtime_library"`
		Threads         int    `yaml:"threads" default:"1"`
		RequireManifest bool   `yaml:"require_manifest"`
		InputName       string `yaml:"input_name" default:"float_input"`
		ProbOutput      string `yaml:"probability_output" default:"probabilities"`
		ScoreOutput     string `yaml:"score_output" default:"scores"`
	} `yaml:"model"`
	Feeds struct {
		Timeout  time.Duration `yaml:"timeout" default:"10s"`
		CacheTTL time.Duration `yaml:"cache_ttl" default:"30s"`
		Donki    struct {
			URL          string `yaml:"url" default:"https://api.nasa.gov/DONKI/FLR"`
			APIKey       string `yaml:"api_key" default:"DEMO_KEY"`
			LookbackDays int    `yaml:"lookback_days" default:"3"`
			Limit        int    `yaml:"limit" default:"5"`
		} `yaml:"donki"`
		Goes struct {
			URL string `yaml:"url" default:"https://services.swpc.noaa.gov/json/goes/primary/xrays-7-day.json"`
		} `yaml:"goes"`
	} `yaml:"feeds"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr" default:"localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Prefix   string        `yaml:"prefix" default:"flarecast"`
		LocalTTL time.Duration `yaml:"local_ttl" default:"5s"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled          bool     `yaml:"enabled"`
		Brokers          []string `yaml:"brokers"`
		PredictionsTopic string   `yaml:"predictions_topic" default:"flarecast.predictions"`
		FeaturesTopic    string   `yaml:"features_topic" default:"flarecast.features"`
		LogsTopic        string   `yaml:"logs_topic" default:"flarecast.logs"`
		RequiredAcks     int      `yaml:"required_acks" default:"-1"`
		Compression      string   `yaml:"compression" default:"snappy"`
		Producer         struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id" default:"flarecast-scorer"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"flarecast.features.dlq"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host" default:"localhost"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"flarecast"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		UseHTTP     bool          `yaml:"use_http"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
	} `yaml:"clickhouse"`
	RateLimit struct {
		Enabled bool    `yaml:"enabled" default:"true"`
		RPS     float64 `yaml:"rps" default:"5"`
		Burst   int     `yaml:"burst" default:"10"`
	} `yaml:"rate_limit"`
	Tracker struct {
		DSN         string  `yaml:"dsn"`
		SampleRate  float64 `yaml:"sample_rate" default:"1"`
		Environment string  `yaml:"environment"`
	} `yaml:"tracker"`
	Stream struct {
		Enabled  bool          `yaml:"enabled" default:"true"`
		Interval time.Duration `yaml:"interval" default:"30s"`
		Buffer   int           `yaml:"buffer" default:"16"`
	} `yaml:"stream"`
}

// Load reads a YAML file on top of the defaults. An empty path yields pure defaults.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads the YAML file, then a .env file if present, then applies
// environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MODEL_DIR"); v != "" {
		c.Model.Dir = v
	}
	if v := os.Getenv("ONNXRUNTIME_LIB"); v != "" {
		c.Model.RuntimeLibrary = v
	}
	if v := os.Getenv("NASA_API_KEY"); v != "" {
		c.Feeds.Donki.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		c.Tracker.DSN = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = util.SplitList(v)
	}
}

func (c *Config) Validate() error {
	if c.Environment == "" {
		return errors.New("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Model.Dir == "" {
		return errors.New("model.dir is required")
	}
	if c.Feeds.Timeout <= 0 {
		return errors.New("feeds.timeout must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Kafka.Consumer.Enabled && !c.Kafka.Enabled {
		return errors.New("kafka.consumer requires kafka.enabled")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("rate_limit.rps and rate_limit.burst must be positive")
	}
	if c.Stream.Enabled && c.Stream.Interval <= 0 {
		return errors.New("stream.interval must be positive")
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/irfndi/wellcast-go/internal/models"
)

type Config struct {
	Environment     string                `mapstructure:"environment"`
	LogLevel        string                `mapstructure:"log_level"`
	Server          ServerConfig          `mapstructure:"server"`
	Database        DatabaseConfig        `mapstructure:"database"`
	Redis           RedisConfig           `mapstructure:"redis"`
	Kafka           KafkaConfig           `mapstructure:"kafka"`
	Forecast        ForecastSettings      `mapstructure:"forecast"`
	Recommendations RecommendationsConfig `mapstructure:"recommendations"`
	Telemetry       TelemetryConfig       `mapstructure:"telemetry"`
	Security        SecurityConfig        `mapstructure:"security"`
	Cleanup         CleanupConfig         `mapstructure:"cleanup"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	DatabaseURL string `mapstructure:"database_url"`
	MaxConns    int    `mapstructure:"max_conns"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// DSN returns DatabaseURL when set, otherwise a URL built from the parts
func (c DatabaseConfig) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	ForecastTTL time.Duration `mapstructure:"forecast_ttl"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// ForecastSettings mirrors models.ForecastConfig for file and env loading
type ForecastSettings struct {
	AnalysisWindow       int                         `mapstructure:"analysis_window"`
	MinSignalsRequired   int                         `mapstructure:"min_signals_required"`
	ConfidenceThresholds models.ConfidenceThresholds `mapstructure:"confidence_thresholds"`
	RiskThresholds       models.RiskThresholds       `mapstructure:"risk_thresholds"`
	TrendAnalysis        models.TrendAnalysisConfig  `mapstructure:"trend_analysis"`
}

// ToForecastConfig converts the loaded settings into the engine's config
func (s ForecastSettings) ToForecastConfig() models.ForecastConfig {
	return models.ForecastConfig{
		AnalysisWindow:       s.AnalysisWindow,
		MinSignalsRequired:   s.MinSignalsRequired,
		ConfidenceThresholds: s.ConfidenceThresholds,
		RiskThresholds:       s.RiskThresholds,
		TrendAnalysis:        s.TrendAnalysis,
	}
}

type RecommendationsConfig struct {
	Timeout        string               `mapstructure:"timeout"`
	OpenAI         GenerativeBackend    `mapstructure:"openai"`
	HuggingFace    GenerativeBackend    `mapstructure:"huggingface"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// TimeoutDuration returns the parsed generation timeout. Load has already
// validated it.
func (c RecommendationsConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// GenerativeBackend is enabled when APIKey is set
type GenerativeBackend struct {
	APIKey    string `mapstructure:"api_key" json:"-" yaml:"-"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

func (b GenerativeBackend) Enabled() bool {
	return b.APIKey != ""
}

type CircuitBreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	SuccessThreshold int           `mapstructure:"success_threshold"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
}

type TelemetryConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	Exporter       string  `mapstructure:"exporter"`
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	ServiceVersion string  `mapstructure:"service_version"`
	SampleRate     float64 `mapstructure:"sample_rate"`
}

type SecurityConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret" json:"-" yaml:"-"`
	JWTExpiry   string `mapstructure:"jwt_expiry"`
	RequireAuth bool   `mapstructure:"require_auth"`
}

type CleanupConfig struct {
	SignalRetentionDays   int `mapstructure:"signal_retention_days"`
	ForecastRetentionDays int `mapstructure:"forecast_retention_days"`
	IntervalMinutes       int `mapstructure:"interval_minutes"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("security.jwt_secret", "JWT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind JWT_SECRET environment variable: %w", err)
	}
	if err := v.BindEnv("recommendations.openai.api_key", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("recommendations.huggingface.api_key", "HUGGINGFACE_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind HUGGINGFACE_API_KEY environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks cross-field constraints on a loaded config
func (c *Config) Validate() error {
	if c.Security.RequireAuth && c.Environment != "development" && c.Security.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required when auth is enabled outside development")
	}
	if c.Security.JWTExpiry != "" {
		if _, err := time.ParseDuration(c.Security.JWTExpiry); err != nil {
			return fmt.Errorf("invalid JWT expiry duration: %w", err)
		}
	}

	f := c.Forecast
	if f.AnalysisWindow <= 0 {
		return fmt.Errorf("forecast.analysis_window must be positive, got %d", f.AnalysisWindow)
	}
	if f.MinSignalsRequired <= 0 {
		return fmt.Errorf("forecast.min_signals_required must be positive, got %d", f.MinSignalsRequired)
	}
	if f.TrendAnalysis.WindowDays <= 0 || f.TrendAnalysis.MinDataPoints <= 0 {
		return errors.New("forecast.trend_analysis window_days and min_data_points must be positive")
	}

	if _, err := time.ParseDuration(c.Recommendations.Timeout); err != nil {
		return fmt.Errorf("invalid recommendations timeout: %w", err)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required when kafka is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	defaults := models.DefaultForecastConfig()

	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "wellcast")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.database_url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.auto_migrate", true)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.forecast_ttl", "6h")

	// Kafka
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "wellcast.forecasts")

	// Forecast
	v.SetDefault("forecast.analysis_window", defaults.AnalysisWindow)
	v.SetDefault("forecast.min_signals_required", defaults.MinSignalsRequired)
	v.SetDefault("forecast.confidence_thresholds.low", defaults.ConfidenceThresholds.Low)
	v.SetDefault("forecast.confidence_thresholds.moderate", defaults.ConfidenceThresholds.Moderate)
	v.SetDefault("forecast.confidence_thresholds.high", defaults.ConfidenceThresholds.High)
	v.SetDefault("forecast.risk_thresholds.low", defaults.RiskThresholds.Low)
	v.SetDefault("forecast.risk_thresholds.moderate", defaults.RiskThresholds.Moderate)
	v.SetDefault("forecast.risk_thresholds.high", defaults.RiskThresholds.High)
	v.SetDefault("forecast.risk_thresholds.critical", defaults.RiskThresholds.Critical)
	v.SetDefault("forecast.trend_analysis.window_days", defaults.TrendAnalysis.WindowDays)
	v.SetDefault("forecast.trend_analysis.min_data_points", defaults.TrendAnalysis.MinDataPoints)

	// Recommendations
	v.SetDefault("recommendations.timeout", "8s")
	v.SetDefault("recommendations.openai.api_key", "")
	v.SetDefault("recommendations.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("recommendations.openai.model", "gpt-4o-mini")
	v.SetDefault("recommendations.openai.max_tokens", 400)
	v.SetDefault("recommendations.huggingface.api_key", "")
	v.SetDefault("recommendations.huggingface.base_url", "https://api-inference.huggingface.co")
	v.SetDefault("recommendations.huggingface.model", "mistralai/Mistral-7B-Instruct-v0.2")
	v.SetDefault("recommendations.huggingface.max_tokens", 400)
	v.SetDefault("recommendations.circuit_breaker.failure_threshold", 3)
	v.SetDefault("recommendations.circuit_breaker.success_threshold", 1)
	v.SetDefault("recommendations.circuit_breaker.open_timeout", "1m")

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.exporter", "otlp")
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	v.SetDefault("telemetry.service_name", "wellcast")
	v.SetDefault("telemetry.service_version", "1.0.0")
	v.SetDefault("telemetry.sample_rate", 1.0)

	// Security
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.jwt_expiry", "24h")
	v.SetDefault("security.require_auth", false)

	// Cleanup
	v.SetDefault("cleanup.signal_retention_days", 90)
	v.SetDefault("cleanup.forecast_retention_days", 365)
	v.SetDefault("cleanup.interval_minutes", 60)
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	AI         AIConfig         `yaml:"ai"`
	Fallback   FallbackConfig   `yaml:"fallback"`
	JWT        JWTConfig        `yaml:"jwt"`
	Log        LogConfig        `yaml:"log"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Security   SecurityConfig   `yaml:"security"`
	Portal     PortalConfig     `yaml:"portal"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// AIConfig configures the Rafiq AI gateway adapter. Style selects the wire
// dialect once at startup: "legacy" (stateless /analyze) or "session"
// (also accepted as "rafiq": /session/new + /add-knowledge + /chat).
type AIConfig struct {
	Enabled          bool          `yaml:"enabled"`
	BaseURL          string        `yaml:"base_url"`
	Style            string        `yaml:"style"`
	APIKey           string        `yaml:"api_key"`
	Timeout          time.Duration `yaml:"timeout"`
	DefaultKnowledge string        `yaml:"default_knowledge"`
	PayloadMode      string        `yaml:"payload_mode"` // auto, file, json, text
}

type FallbackConfig struct {
	Enabled bool `yaml:"enabled"`
}

type JWTConfig struct {
	Secret    string        `yaml:"secret"`
	ExpiresIn time.Duration `yaml:"expires_in"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json, text
	Output     string `yaml:"output"` // stdout, file, both
	FilePath   string `yaml:"file_path"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxAge     int    `yaml:"max_age"`  // days
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

type MonitoringConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MetricsPath string        `yaml:"metrics_path"`
	Tracing     TracingConfig `yaml:"tracing"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
	ServiceName string  `yaml:"service_name"`
}

type SecurityConfig struct {
	CORS         CORSConfig         `yaml:"cors"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting"`
}

type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

type RateLimitingConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

type PortalConfig struct {
	BrandName     string   `yaml:"brand_name"`
	DefaultLocale string   `yaml:"default_locale"`
	Locales       []string `yaml:"locales"`
	SupportEmail  string   `yaml:"support_email"`
}

func Load() *Config {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(err)
	}
	applyEnvOverrides(&config)
	return &config
}

// applyEnvOverrides maps the RAFIQ_* environment contract onto the AI
// section. RAFIQ_TIMEOUT_MS is in milliseconds per the portal convention.
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("RAFIQ_API_URL")); v != "" {
		cfg.AI.BaseURL = v
		cfg.AI.Enabled = true
	}
	if v := strings.TrimSpace(os.Getenv("RAFIQ_API_STYLE")); v != "" {
		cfg.AI.Style = v
	}
	if v := strings.TrimSpace(os.Getenv("RAFIQ_API_KEY")); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("RAFIQ_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.AI.Timeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("RAFIQ_DEFAULT_KNOWLEDGE"); v != "" {
		cfg.AI.DefaultKnowledge = v
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("RAFIQ_ANALYZE_PAYLOAD"))); v != "" {
		cfg.AI.PayloadMode = v
	}
}

// GetDefaultConfig returns the built-in defaults used when no config file
// is present.
func GetDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "password",
			Name:            "rafiq",
			MaxOpenConns:    100,
			MaxIdleConns:    10,
			ConnMaxLifetime: 3600 * time.Second,
		},
		AI: AIConfig{
			Enabled:          false,
			BaseURL:          "",
			Style:            "legacy",
			Timeout:          5 * time.Second,
			DefaultKnowledge: "Rafiq est un assistant virtuel qui aide les citoyens à comprendre les services publics algériens.",
			PayloadMode:      "text",
		},
		Fallback: FallbackConfig{
			Enabled: true,
		},
		JWT: JWTConfig{
			Secret:    "default-secret-key",
			ExpiresIn: 24 * time.Hour,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			Output:     "both",
			FilePath:   "./logs/rafiq.log",
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
			Compress:   true,
		},
		Monitoring: MonitoringConfig{
			Enabled:     true,
			MetricsPath: "/metrics",
			Tracing: TracingConfig{
				Enabled:     false,
				Endpoint:    "http://localhost:4317",
				Insecure:    true,
				SampleRatio: 0.1,
				ServiceName: "rafiq",
			},
		},
		Security: SecurityConfig{
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
				AllowedHeaders: []string{"*"},
			},
			RateLimiting: RateLimitingConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             10,
			},
		},
		Portal: PortalConfig{
			BrandName:     "Rafiq",
			DefaultLocale: "fr",
			Locales:       []string{"fr", "ar"},
			SupportEmail:  "support@rafiq.dz",
		},
	}
}

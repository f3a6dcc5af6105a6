package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	DB         DBConfig         `mapstructure:"db"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	AssemblyAI AssemblyAIConfig `mapstructure:"assemblyai"`
	Quota      QuotaConfig      `mapstructure:"quota"`
	SendGrid   SendGridConfig   `mapstructure:"sendgrid"`
}

type ServerConfig struct {
	Address        string   `mapstructure:"address"`
	Environment    string   `mapstructure:"environment"`
	LogLevel       string   `mapstructure:"log_level"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DBConfig struct {
	Source string `mapstructure:"source"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type StorageConfig struct {
	Path           string `mapstructure:"path"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

// GeminiConfig holds the server-wide default credential. An empty APIKey
// means no default is configured and users must bring their own key.
type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func (g GeminiConfig) HasDefaultKey() bool {
	return strings.TrimSpace(g.APIKey) != ""
}

type AssemblyAIConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type QuotaConfig struct {
	DailyLimit     int           `mapstructure:"daily_limit"`
	VerifyCacheTTL time.Duration `mapstructure:"verify_cache_ttl"`
}

type SendGridConfig struct {
	APIKey string `mapstructure:"api_key"`
	From   string `mapstructure:"from"`
	To     string `mapstructure:"to"`
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "" || c.Server.Environment == "development"
}

func Load() (*Config, error) {
	return LoadFrom("./configs", "/configs")
}

// LoadFrom reads settings.yml from the first matching path, then lets
// environment variables (db.source -> DB_SOURCE) override any key.
func LoadFrom(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("settings")
	v.SetConfigType("yml")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Quota.DailyLimit <= 0 {
		return nil, errors.New("quota.daily_limit must be positive")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":5001")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:5174"})
	v.SetDefault("db.source", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("storage.path", "./uploads")
	v.SetDefault("storage.max_upload_bytes", 25<<20)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.timeout", 30*time.Second)
	v.SetDefault("assemblyai.api_key", "")
	v.SetDefault("assemblyai.base_url", "https://api.assemblyai.com")
	v.SetDefault("assemblyai.poll_interval", 3*time.Second)
	v.SetDefault("assemblyai.timeout", 5*time.Minute)
	v.SetDefault("quota.daily_limit", 10)
	v.SetDefault("quota.verify_cache_ttl", time.Hour)
	v.SetDefault("sendgrid.api_key", "")
	v.SetDefault("sendgrid.from", "")
	v.SetDefault("sendgrid.to", "")
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	BackendAnthropic = "anthropic"
	BackendOpenAI    = "openai"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		MaxUploadBytes  int64         `yaml:"maxUploadBytes"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
		AllowedOrigins  []string      `yaml:"allowedOrigins"`
		RateLimit       struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refillRate"` // tokens per second
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		Path     string `yaml:"path"` // sqlite only
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Registry struct {
		Endpoint string `yaml:"endpoint"`
		Token    string `yaml:"token"`
		PageSize int    `yaml:"pageSize"`
	} `yaml:"registry"`

	GenAI struct {
		Backend     string `yaml:"backend"`
		Endpoint    string `yaml:"endpoint"`
		APIKey      string `yaml:"apiKey"`
		ModelID     string `yaml:"modelId"`
		MaxTokens   int    `yaml:"maxTokens"`
		GuardrailID string `yaml:"guardrailId"`
	} `yaml:"genai"`

	Auth struct {
		// APIKeys maps an API key to the username it authenticates.
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	Observability struct {
		ServiceName string `yaml:"serviceName"`
		Env         string `yaml:"env"`
		LogLevel    string `yaml:"logLevel"`
		LogFormat   string `yaml:"logFormat"`
	} `yaml:"observability"`
}

// Load baca file config.yaml, lalu override secret dari env
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env string
		dst *string
	}{
		{"WAFR_DB_PASSWORD", &c.Database.Password},
		{"WAFR_MINIO_SECRET_KEY", &c.Minio.SecretKey},
		{"WAFR_GENAI_API_KEY", &c.GenAI.APIKey},
		{"WAFR_REGISTRY_TOKEN", &c.Registry.Token},
		{"WAFR_GUARDRAIL_ID", &c.GenAI.GuardrailID},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok {
			*o.dst = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 20 << 20
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Server.RateLimit.Capacity == 0 {
		c.Server.RateLimit.Capacity = 30
	}
	if c.Server.RateLimit.RefillRate == 0 {
		c.Server.RateLimit.RefillRate = 5
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMySQL
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		c.Database.Path = "wafr.db"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "wafr-accelerator-uploads"
	}
	if c.Registry.PageSize == 0 {
		c.Registry.PageSize = 50
	}
	if c.GenAI.Backend == "" {
		c.GenAI.Backend = BackendAnthropic
	}
	if c.GenAI.ModelID == "" {
		c.GenAI.ModelID = "anthropic.claude-3-5-sonnet-20240620-v1:0"
	}
	if c.GenAI.MaxTokens == 0 {
		c.GenAI.MaxTokens = 1024
	}
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = "wafr-accelerator"
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
	if c.Observability.LogFormat == "" {
		c.Observability.LogFormat = "json"
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	switch c.GenAI.Backend {
	case BackendAnthropic, BackendOpenAI:
	default:
		return fmt.Errorf("config: unknown genai backend %q", c.GenAI.Backend)
	}
	if c.GenAI.Backend == BackendAnthropic && c.GenAI.Endpoint == "" {
		return fmt.Errorf("config: genai.endpoint required for backend %q", BackendAnthropic)
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres (URL form, password di-escape)
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: url.Values{"sslmode": []string{c.Database.SSLMode}}.Encode(),
	}
	return u.String()
}

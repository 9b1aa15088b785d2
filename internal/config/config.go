package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	Port          string        `koanf:"port"`
	MongoURI      string        `koanf:"mongo_uri"`
	MongoDB       string        `koanf:"mongo_db"`
	JWTSecret     string        `koanf:"jwt_secret"`
	JWTTTL        time.Duration `koanf:"jwt_ttl"`
	AdminSetupKey string        `koanf:"admin_setup_key"`

	UploadDir     string `koanf:"upload_dir"`
	PublicBaseURL string `koanf:"public_base_url"`
	FrontendURL   string `koanf:"frontend_url"`
	CORSOrigins   string `koanf:"cors_origins"`

	MinioEndpoint  string `koanf:"minio_endpoint"`
	MinioAccessKey string `koanf:"minio_access_key"`
	MinioSecretKey string `koanf:"minio_secret_key"`
	MinioBucket    string `koanf:"minio_bucket"`
	MinioUseSSL    bool   `koanf:"minio_use_ssl"`

	ResendAPIKey     string `koanf:"resend_api_key"`
	MailFrom         string `koanf:"mail_from"`
	AdminNotifyEmail string `koanf:"admin_notify_email"`
	MailWorkers      int    `koanf:"mail_workers"`

	MPAccessToken string `koanf:"mp_access_token"`
	MPAPIBase     string `koanf:"mp_api_base"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

func defaults() *Config {
	return &Config{
		Port:        "8080",
		MongoURI:    "mongodb://localhost:27017",
		MongoDB:     "storefront",
		JWTTTL:      7 * 24 * time.Hour,
		UploadDir:   "uploads",
		FrontendURL: "http://localhost:5173",
		MinioBucket: "payment-proofs",
		MailFrom:    "Tienda <no-reply@example.com>",
		MailWorkers: 2,
		MPAPIBase:   "https://api.mercadopago.com",
		LogLevel:    "info",
		LogFormat:   "json",
	}
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	return load(nil)
}

func load(environ func() []string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider(".", env.Opt{
		EnvironFunc: environ,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(key), value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config failed")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return errors.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.MailWorkers < 1 {
		c.MailWorkers = 1
	}
	return nil
}

func (c *Config) MinioEnabled() bool {
	return c.MinioEndpoint != "" && c.MinioAccessKey != "" && c.MinioSecretKey != ""
}

func (c *Config) AllowedOrigins() string {
	if strings.TrimSpace(c.CORSOrigins) == "" {
		return "*"
	}
	return c.CORSOrigins
}

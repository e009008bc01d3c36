package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	clovererrors "github.com/Ramsey-B/clover/pkg/errors"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"clover-api"`
	Version                       string   `env:"APP_VERSION" env-default:"dev"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"60"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PATCH,OPTIONS"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// Outbound HTTP client timeout (applies to both the CRM and the form service)
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" env-default:"30s"`

	// Pipedrive API base URL, e.g. https://mycompany.pipedrive.com/api/v1
	PipedriveBaseURLOverride string `env:"PIPEDRIVE_BASE_URL" env-default:""`
	// Pipedrive company domain, used when PIPEDRIVE_BASE_URL is not set
	PipedriveDomain string `env:"PIPEDRIVE_DOMAIN" env-default:""`
	// Pipedrive API token
	PipedriveAPIToken string `env:"PIPEDRIVE_API_TOKEN" env-default:""`
	// Page size used when listing Pipedrive fields
	PipedrivePageLimit int `env:"PIPEDRIVE_PAGE_LIMIT" env-default:"500"`

	// Typeform API base URL
	TypeformBaseURL string `env:"TYPEFORM_BASE_URL" env-default:"https://api.typeform.com"`
	// Typeform personal access token
	TypeformToken string `env:"TYPEFORM_TOKEN" env-default:""`
	// Form used when a request does not name one
	TypeformDefaultFormID string `env:"TYPEFORM_DEFAULT_FORM_ID" env-default:""`

	// Provisioning lock. Off by default: concurrent create-field requests for the
	// same name may both create the field.
	ProvisionLockEnabled bool          `env:"PROVISION_LOCK_ENABLED" env-default:"false"`
	ProvisionLockTTL     time.Duration `env:"PROVISION_LOCK_TTL" env-default:"30s"`
	RedisHost            string        `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort            int           `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword        string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB              int           `env:"REDIS_DB" env-default:"0"`

	// Tracing settings
	// Enable OTLP tracing export (set to true to send traces to collector)
	OTLPEnabled bool `env:"OTLP_ENABLED" env-default:"false"`
	// OTLP collector endpoint
	OTLPEndpoint string `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	// OTLP protocol (grpc or http)
	OTLPProtocol string `env:"OTLP_PROTOCOL" env-default:"grpc"`
	// Disable TLS for OTLP (for local development)
	OTLPInsecure bool `env:"OTLP_INSECURE" env-default:"true"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, nil
}

// PipedriveBaseURL returns the explicit base URL, or one derived from the company domain.
func (c *Config) PipedriveBaseURL() string {
	if c.PipedriveBaseURLOverride != "" {
		return strings.TrimRight(c.PipedriveBaseURLOverride, "/")
	}
	if c.PipedriveDomain != "" {
		return fmt.Sprintf("https://%s.pipedrive.com/api/v1", c.PipedriveDomain)
	}
	return ""
}

// RequirePipedrive is checked per request rather than at startup.
func (c *Config) RequirePipedrive() error {
	if c.PipedriveAPIToken == "" {
		return clovererrors.NewConfigError("PIPEDRIVE_API_TOKEN")
	}
	if c.PipedriveBaseURL() == "" {
		return clovererrors.NewConfigError("PIPEDRIVE_BASE_URL or PIPEDRIVE_DOMAIN")
	}
	return nil
}

func (c *Config) RequireTypeform() error {
	if c.TypeformToken == "" {
		return clovererrors.NewConfigError("TYPEFORM_TOKEN")
	}
	if c.TypeformBaseURL == "" {
		return clovererrors.NewConfigError("TYPEFORM_BASE_URL")
	}
	return nil
}

// ResolveFormID falls back to the configured default form.
func (c *Config) ResolveFormID(formID string) string {
	if formID != "" {
		return formID
	}
	return c.TypeformDefaultFormID
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port     string
	BindAddr string

	LabAddr      string        // Lab Service base URL
	LabTimeout   time.Duration // per-call timeout for inference/orchestration
	ProbeTimeout time.Duration // timeout for upstream health probes

	Models     string // comma-separated allowed model identifiers
	ModelsFile string // optional YAML model catalog, overrides Models

	DatabaseURL string // optional; RAG endpoints are disabled when empty
	UploadDir   string // local fallback for uploaded documents

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3Bucket    string
	S3UseSSL    bool

	HealthTimeout time.Duration // per-component bound for detailed health checks

	AllowedOrigins string
}

func Load() *Config {
	return &Config{
		Port:     envOr("AGENTLAB_PORT", "8900"),
		BindAddr: envOr("AGENTLAB_BIND_ADDR", "127.0.0.1"),

		LabAddr:      envOr("AGENTLAB_LAB_ADDR", "http://127.0.0.1:8001"),
		LabTimeout:   envDuration("AGENTLAB_LAB_TIMEOUT", 300*time.Second),
		ProbeTimeout: envDuration("AGENTLAB_PROBE_TIMEOUT", 5*time.Second),

		Models:     envOr("AGENTLAB_MODELS", "mistral7b"),
		ModelsFile: os.Getenv("AGENTLAB_MODELS_FILE"),

		DatabaseURL: os.Getenv("AGENTLAB_DATABASE_URL"),
		UploadDir:   envOr("AGENTLAB_UPLOAD_DIR", "uploads/rag"),

		S3Endpoint:  os.Getenv("AGENTLAB_S3_ENDPOINT"),
		S3AccessKey: os.Getenv("AGENTLAB_S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("AGENTLAB_S3_SECRET_KEY"),
		S3Region:    envOr("AGENTLAB_S3_REGION", "auto"),
		S3Bucket:    envOr("AGENTLAB_S3_BUCKET", "agentlab-documents"),
		S3UseSSL:    os.Getenv("AGENTLAB_S3_USE_SSL") != "false",

		HealthTimeout: envDuration("AGENTLAB_HEALTH_TIMEOUT", 5*time.Second),

		AllowedOrigins: os.Getenv("AGENTLAB_ALLOWED_ORIGINS"),
	}
}

// AllowedModels splits the configured model list. Used when no catalog
// file is configured.
func (c *Config) AllowedModels() []string {
	var models []string
	for _, m := range strings.Split(c.Models, ",") {
		m = strings.TrimSpace(m)
		if m != "" {
			models = append(models, m)
		}
	}
	return models
}

// Validate reports whether the loaded configuration can safely serve
// traffic. The health aggregator treats a failing Validate as the service
// being unavailable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.LabAddr)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("lab address %q is not a valid URL", c.LabAddr)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("lab address scheme %q must be http or https", u.Scheme)
	}
	if c.LabTimeout <= 0 {
		return fmt.Errorf("lab timeout must be positive, got %s", c.LabTimeout)
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive, got %s", c.ProbeTimeout)
	}
	if c.ModelsFile == "" && len(c.AllowedModels()) == 0 {
		return fmt.Errorf("no allowed models configured")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

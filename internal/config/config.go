// Package config resolves server configuration from flags, .env and the
// environment.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	GitHub   GitHubConfig
	LLM      LLMConfig
	Limits   LimitsConfig
	Store    StoreConfig
	Artifact ArtifactConfig
}

type GitHubConfig struct {
	Token       string
	BaseURL     string
	RPS         float64
	Burst       int
	Concurrency int
	CacheTTL    time.Duration // blob cache lifetime; 0 keeps the client default
}

type LLMConfig struct {
	Model string
	Fake  bool // serve canned responses; no API key needed
	RPS   float64
	Burst int
	RPM   int // provider quota ceilings; 0 disables
	RPD   int
	TPM   int
}

type LimitsConfig struct {
	MaxFiles     int
	MaxTokens    int
	MaxFileBytes int
	MinFiles     int
}

type StoreConfig struct {
	Path string // file-store path; Postgres DSN comes from env in the store
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8080", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port: *port,
		Env:  env,
		GitHub: GitHubConfig{
			Token:       strings.TrimSpace(os.Getenv("GITHUB_TOKEN")),
			BaseURL:     strings.TrimSpace(os.Getenv("GITHUB_BASE_URL")),
			RPS:         envFloat("GITHUB_RPS", 5),
			Burst:       envInt("GITHUB_BURST", 10),
			Concurrency: envInt("GITHUB_CONCURRENCY", 8),
			CacheTTL:    envDuration("GITHUB_CACHE_TTL", 10*time.Minute),
		},
		LLM: LLMConfig{
			Model: firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_MODEL")), "gemini-2.0-flash"),
			Fake:  envBool("LLM_FAKE", false),
			RPS:   envFloat("LLM_RPS", 0),
			Burst: envInt("LLM_BURST", 0),
			RPM:   envInt("LLM_RPM", 0),
			RPD:   envInt("LLM_RPD", 0),
			TPM:   envInt("LLM_TPM", 0),
		},
		Limits: LimitsConfig{
			MaxFiles:     envInt("WALK_MAX_FILES", 0),
			MaxTokens:    envInt("WALK_MAX_TOKENS", 0),
			MaxFileBytes: envInt("WALK_MAX_FILE_BYTES", 0),
			MinFiles:     envInt("WALK_MIN_FILES", 0),
		},
		Store: StoreConfig{
			Path: firstNonEmpty(strings.TrimSpace(os.Getenv("WALKTHROUGH_STORE_PATH")), "data/walkthroughs.json"),
		},
		Artifact: loadArtifactConfig(env),
	}, nil
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(env)
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "codewalk-artifacts"),
		UseSSL:    resolveArtifactUseSSL(env),
	}
}

func resolveArtifactEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

func resolveArtifactUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

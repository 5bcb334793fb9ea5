package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultDeniedTypes are internal source types that are never sourced unless
// explicitly allowed.
var DefaultDeniedTypes = []string{"user", "role", "permission"}

type Config struct {
	Origin   string
	PageSize int

	AllowedTypes []string
	DeniedTypes  []string

	Credentials Credentials

	MaxConcurrency int
	HTTPTimeout    time.Duration
	FailFast       bool

	CacheDir string
	Media    MediaConfig

	PostgresDSN string

	Mode      string
	NodesOut  string
	SchemaOut string
}

type Credentials struct {
	Identifier string
	Password   string
}

func (c Credentials) Empty() bool {
	return strings.TrimSpace(c.Identifier) == "" && strings.TrimSpace(c.Password) == ""
}

type MediaConfig struct {
	Backend string // "fs" or "s3"
	Dir     string
	S3      S3Config
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads .env (best effort), then environment variables, then the given
// command-line arguments. Flags win over env.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Origin:         firstNonEmpty(os.Getenv("CONTENTBRIDGE_ORIGIN"), "http://localhost:1337"),
		PageSize:       envInt("CONTENTBRIDGE_PAGE_SIZE", 100),
		AllowedTypes:   splitList(os.Getenv("CONTENTBRIDGE_ALLOW")),
		DeniedTypes:    deniedFromEnv(),
		MaxConcurrency: envInt("CONTENTBRIDGE_MAX_CONCURRENCY", 8),
		HTTPTimeout:    envDuration("CONTENTBRIDGE_HTTP_TIMEOUT", 30*time.Second),
		FailFast:       envBool("CONTENTBRIDGE_FAIL_FAST", false),
		CacheDir:       firstNonEmpty(os.Getenv("CONTENTBRIDGE_CACHE_DIR"), ".contentbridge-cache"),
		PostgresDSN:    strings.TrimSpace(os.Getenv("CONTENTBRIDGE_PG_DSN")),
		Credentials: Credentials{
			Identifier: strings.TrimSpace(os.Getenv("CONTENTBRIDGE_IDENTIFIER")),
			Password:   os.Getenv("CONTENTBRIDGE_PASSWORD"),
		},
		Media: loadMediaConfig(),
	}

	fs := flag.NewFlagSet("contentbridge", flag.ContinueOnError)
	origin := fs.String("origin", cfg.Origin, "content API origin")
	pageSize := fs.Int("page-size", cfg.PageSize, "collection page size")
	mode := fs.String("mode", "both", "run mode: source, schema or both")
	nodesOut := fs.String("nodes-out", firstNonEmpty(os.Getenv("CONTENTBRIDGE_NODES_OUT"), "nodes.jsonl"), "node output file (ignored when a Postgres DSN is set)")
	schemaOut := fs.String("schema-out", firstNonEmpty(os.Getenv("CONTENTBRIDGE_SCHEMA_OUT"), "schema.graphql"), "schema output file")
	failFast := fs.Bool("fail-fast", cfg.FailFast, "abort the run on the first mapping error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Origin = strings.TrimRight(strings.TrimSpace(*origin), "/")
	cfg.PageSize = *pageSize
	cfg.Mode = strings.TrimSpace(*mode)
	cfg.NodesOut = *nodesOut
	cfg.SchemaOut = *schemaOut
	cfg.FailFast = *failFast

	if cfg.Origin == "" {
		return nil, fmt.Errorf("config: origin is required")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("config: page size must be > 0, got %d", cfg.PageSize)
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	switch cfg.Mode {
	case "source", "schema", "both":
	default:
		return nil, fmt.Errorf("config: unknown mode %q", cfg.Mode)
	}
	return cfg, nil
}

func deniedFromEnv() []string {
	raw, ok := os.LookupEnv("CONTENTBRIDGE_DENY")
	if !ok {
		return append([]string(nil), DefaultDeniedTypes...)
	}
	return splitList(raw)
}

func loadMediaConfig() MediaConfig {
	backend := strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("CONTENTBRIDGE_MEDIA_BACKEND")), "fs"))
	return MediaConfig{
		Backend: backend,
		Dir:     firstNonEmpty(strings.TrimSpace(os.Getenv("CONTENTBRIDGE_MEDIA_DIR")), "media"),
		S3: S3Config{
			Endpoint:  strings.TrimSpace(os.Getenv("CONTENTBRIDGE_S3_ENDPOINT")),
			Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("CONTENTBRIDGE_S3_REGION")), "us-east-1"),
			AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("CONTENTBRIDGE_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
			SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("CONTENTBRIDGE_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
			Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("CONTENTBRIDGE_S3_BUCKET")), "contentbridge-media"),
			UseSSL:    envBool("CONTENTBRIDGE_S3_USE_SSL", true),
		},
	}
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Origin != "http://localhost:1337" {
		t.Fatalf("unexpected origin %q", cfg.Origin)
	}
	if cfg.PageSize != 100 {
		t.Fatalf("unexpected page size %d", cfg.PageSize)
	}
	if cfg.MaxConcurrency != 8 {
		t.Fatalf("unexpected concurrency %d", cfg.MaxConcurrency)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.HTTPTimeout)
	}
	if cfg.Mode != "both" {
		t.Fatalf("unexpected mode %q", cfg.Mode)
	}
	if cfg.FailFast {
		t.Fatalf("fail-fast should default to off")
	}
	if len(cfg.DeniedTypes) != 3 {
		t.Fatalf("expected default deny list, got %v", cfg.DeniedTypes)
	}
	if cfg.Media.Backend != "fs" {
		t.Fatalf("unexpected media backend %q", cfg.Media.Backend)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONTENTBRIDGE_ORIGIN", "http://cms.internal:8080")
	t.Setenv("CONTENTBRIDGE_PAGE_SIZE", "25")
	t.Setenv("CONTENTBRIDGE_ALLOW", "article, page")
	t.Setenv("CONTENTBRIDGE_DENY", "secret")
	t.Setenv("CONTENTBRIDGE_HTTP_TIMEOUT", "90s")
	t.Setenv("CONTENTBRIDGE_FAIL_FAST", "true")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Origin != "http://cms.internal:8080" {
		t.Fatalf("unexpected origin %q", cfg.Origin)
	}
	if cfg.PageSize != 25 {
		t.Fatalf("unexpected page size %d", cfg.PageSize)
	}
	if len(cfg.AllowedTypes) != 2 || cfg.AllowedTypes[0] != "article" || cfg.AllowedTypes[1] != "page" {
		t.Fatalf("unexpected allow list %v", cfg.AllowedTypes)
	}
	if len(cfg.DeniedTypes) != 1 || cfg.DeniedTypes[0] != "secret" {
		t.Fatalf("deny env should replace the default, got %v", cfg.DeniedTypes)
	}
	if cfg.HTTPTimeout != 90*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.HTTPTimeout)
	}
	if !cfg.FailFast {
		t.Fatalf("expected fail-fast from env")
	}
}

func TestLoadFlagsWinOverEnv(t *testing.T) {
	t.Setenv("CONTENTBRIDGE_ORIGIN", "http://env.example.com")
	t.Setenv("CONTENTBRIDGE_PAGE_SIZE", "25")

	cfg, err := Load([]string{"-origin", "http://flag.example.com/", "-page-size", "10", "-mode", "schema"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Origin != "http://flag.example.com" {
		t.Fatalf("unexpected origin %q", cfg.Origin)
	}
	if cfg.PageSize != 10 {
		t.Fatalf("unexpected page size %d", cfg.PageSize)
	}
	if cfg.Mode != "schema" {
		t.Fatalf("unexpected mode %q", cfg.Mode)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	if _, err := Load([]string{"-mode", "bogus"}); err == nil {
		t.Fatalf("expected unknown mode to fail")
	}
	if _, err := Load([]string{"-page-size", "0"}); err == nil {
		t.Fatalf("expected zero page size to fail")
	}
}

func TestCredentialsEmpty(t *testing.T) {
	if !(Credentials{}).Empty() {
		t.Fatalf("zero credentials should be empty")
	}
	if (Credentials{Identifier: "admin"}).Empty() {
		t.Fatalf("credentials with identifier are not empty")
	}
}

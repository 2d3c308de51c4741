package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"SERVER_ADDRESS", "ENVIRONMENT", "DATABASE_PATH", "TEMPLATES_GLOB",
		"BASE_URL", "STATS_DISK_PATH", "SESSION_SECRET", "SESSION_TTL",
		"SESSION_COOKIE_DOMAIN", "SESSION_SECURE_COOKIE",
		"KEYCLOAK_URL", "KEYCLOAK_REALM", "KEYCLOAK_CLIENT_ID",
		"KEYCLOAK_CLIENT_SECRET", "KEYCLOAK_ADMIN_USER", "KEYCLOAK_ADMIN_PASSWORD",
		"KEYCLOAK_ADMIN_REALM", "KEYCLOAK_ISSUER_URL",
		"FEDERATED_ENABLED", "FEDERATED_REGISTRY", "CORS_ALLOWED_ORIGINS",
	}
	for _, v := range vars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerAddress != ":8080" {
		t.Errorf("expected ServerAddress :8080, got %s", cfg.ServerAddress)
	}
	if cfg.DatabasePath != "./data/authdeck.db" {
		t.Errorf("expected default database path, got %s", cfg.DatabasePath)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("expected 24h session TTL, got %v", cfg.Session.TTL)
	}
	if cfg.Session.SecureCookie {
		t.Error("expected insecure cookie by default")
	}
	if cfg.Keycloak.Realm != "authdeck" {
		t.Errorf("expected default realm, got %s", cfg.Keycloak.Realm)
	}
	if cfg.Federated.Enabled {
		t.Error("expected federated sign-in disabled by default")
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "http://localhost:8080" {
		t.Errorf("unexpected CORS origins %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_ADDRESS", ":9090")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("KEYCLOAK_REALM", "staging")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerAddress != ":9090" {
		t.Errorf("expected ServerAddress :9090, got %s", cfg.ServerAddress)
	}
	if cfg.Session.TTL != time.Hour {
		t.Errorf("expected 1h session TTL, got %v", cfg.Session.TTL)
	}
	if cfg.Keycloak.Realm != "staging" {
		t.Errorf("expected staging realm, got %s", cfg.Keycloak.Realm)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Errorf("expected 2 CORS origins, got %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadInvalidTTL(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_TTL", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid SESSION_TTL")
	}
}

func TestLoadFederatedRegistry(t *testing.T) {
	clearEnv(t)

	registry := filepath.Join(t.TempDir(), "providers.yaml")
	content := `providers:
  - name: github
    client_id: gh-client
    client_secret: gh-secret
  - name: google
    client_id: goog-client
    client_secret: goog-secret
`
	if err := os.WriteFile(registry, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write registry: %v", err)
	}

	t.Setenv("FEDERATED_ENABLED", "true")
	t.Setenv("FEDERATED_REGISTRY", registry)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Federated.Providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(cfg.Federated.Providers))
	}
	if cfg.Federated.Providers[0].Name != "github" || cfg.Federated.Providers[0].ClientID != "gh-client" {
		t.Errorf("unexpected first provider %+v", cfg.Federated.Providers[0])
	}
	names := cfg.FederatedProviderNames()
	if len(names) != 2 || names[1] != "google" {
		t.Errorf("unexpected provider names %v", names)
	}
}

func TestLoadFederatedRegistryMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("FEDERATED_ENABLED", "true")
	t.Setenv("FEDERATED_REGISTRY", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Error("expected error when registry file is missing")
	}
}

func TestLoadFederatedRegistryInvalidEntry(t *testing.T) {
	clearEnv(t)

	registry := filepath.Join(t.TempDir(), "providers.yaml")
	content := `providers:
  - client_id: orphan
`
	if err := os.WriteFile(registry, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write registry: %v", err)
	}

	t.Setenv("FEDERATED_ENABLED", "true")
	t.Setenv("FEDERATED_REGISTRY", registry)

	if _, err := Load(); err == nil {
		t.Error("expected error for provider entry without a name")
	}
}

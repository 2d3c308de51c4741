package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	ServerAddress string
	Environment   string
	DatabasePath  string
	TemplatesGlob string
	BaseURL       string
	StatsDiskPath string
	Session       SessionConfig
	Keycloak      KeycloakConfig
	Federated     FederatedConfig
	CORS          CORSConfig
}

// SessionConfig holds local session cookie settings
type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	CookieDomain string
	SecureCookie bool
}

// KeycloakConfig holds the identity provider connection settings
type KeycloakConfig struct {
	BaseURL       string
	Realm         string
	ClientID      string
	ClientSecret  string
	AdminUser     string
	AdminPassword string
	AdminRealm    string
	IssuerURL     string
}

// FederatedConfig holds federated OAuth sign-in settings
type FederatedConfig struct {
	Enabled      bool
	RegistryPath string
	Providers    []FederatedProvider
}

// FederatedProvider is one OAuth provider entry from the registry file
type FederatedProvider struct {
	Name         string `yaml:"name"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// Load loads configuration from environment variables with defaults. The
// federated provider registry is read from a YAML file when one is present.
func Load() (*Config, error) {
	corsOrigins := getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:8080")

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		DatabasePath:  getEnv("DATABASE_PATH", "./data/authdeck.db"),
		TemplatesGlob: getEnv("TEMPLATES_GLOB", "./web/templates/*.html"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:8080"),
		StatsDiskPath: getEnv("STATS_DISK_PATH", "/"),
		Session: SessionConfig{
			Secret:       getEnv("SESSION_SECRET", "change-me-in-production-secret-key"),
			TTL:          ttl,
			CookieDomain: getEnv("SESSION_COOKIE_DOMAIN", "localhost"),
			SecureCookie: getEnv("SESSION_SECURE_COOKIE", "false") == "true",
		},
		Keycloak: KeycloakConfig{
			BaseURL:       getEnv("KEYCLOAK_URL", "http://localhost:8180"),
			Realm:         getEnv("KEYCLOAK_REALM", "authdeck"),
			ClientID:      getEnv("KEYCLOAK_CLIENT_ID", "authdeck-web"),
			ClientSecret:  os.Getenv("KEYCLOAK_CLIENT_SECRET"),
			AdminUser:     os.Getenv("KEYCLOAK_ADMIN_USER"),
			AdminPassword: os.Getenv("KEYCLOAK_ADMIN_PASSWORD"),
			AdminRealm:    getEnv("KEYCLOAK_ADMIN_REALM", "master"),
			IssuerURL:     os.Getenv("KEYCLOAK_ISSUER_URL"),
		},
		Federated: FederatedConfig{
			Enabled:      getEnv("FEDERATED_ENABLED", "false") == "true",
			RegistryPath: getEnv("FEDERATED_REGISTRY", "./providers.yaml"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseCommaSeparatedList(corsOrigins),
		},
	}

	if cfg.Federated.Enabled {
		providers, err := loadFederatedRegistry(cfg.Federated.RegistryPath)
		if err != nil {
			return nil, fmt.Errorf("federated registry: %w", err)
		}
		cfg.Federated.Providers = providers
	}

	return cfg, nil
}

// federatedRegistry is the YAML shape of the provider registry file
type federatedRegistry struct {
	Providers []FederatedProvider `yaml:"providers"`
}

func loadFederatedRegistry(path string) ([]FederatedProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var registry federatedRegistry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, err
	}

	for _, p := range registry.Providers {
		if p.Name == "" || p.ClientID == "" {
			return nil, fmt.Errorf("provider entry missing name or client_id")
		}
	}
	return registry.Providers, nil
}

// FederatedProviderNames returns the configured provider names
func (c *Config) FederatedProviderNames() []string {
	names := make([]string, 0, len(c.Federated.Providers))
	for _, p := range c.Federated.Providers {
		names = append(names, p.Name)
	}
	return names
}

// parseCommaSeparatedList splits a comma-separated string into a slice
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return []string{}
	}

	items := strings.Split(s, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

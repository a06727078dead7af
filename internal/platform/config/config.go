// Package config loads runtime configuration from environment variables,
// with optional .env overrides for local development and Secret Manager
// references for sensitive values.
package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultEnvFile          = ".env"
	defaultPort             = "8080"
	defaultReadTimeout      = 15 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultIdleTimeout      = 120 * time.Second
	defaultAdminTokenTTL    = 30 * time.Minute
	defaultAdminTokenHeader = "X-Admin-Access-Token"
	defaultUserTypeTTL      = 5 * time.Minute
	defaultSnapshotTTL      = 10 * time.Minute
	defaultPricingFallback  = "config/service-pricing.json"

	defaultIdempotencyHeader = "Idempotency-Key"
	defaultIdempotencyTTL    = 24 * time.Hour
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server        ServerConfig
	Firebase      FirebaseConfig
	Firestore     FirestoreConfig
	AdminGate     AdminGateConfig
	Outbound      OutboundConfig
	Pricing       PricingConfig
	Notifications NotificationConfig
	Storage       StorageConfig
	Cache         CacheConfig
	Idempotency   IdempotencyConfig
	Features      FeatureFlags
}

// ServerConfig sets the HTTP listener port and connection timeouts.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirebaseConfig identifies the Firebase project used for token verification.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// FirestoreConfig locates the Firestore database, optionally via emulator.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// AdminGateConfig controls issuance and verification of admin access tokens.
type AdminGateConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	TokenHeader string
}

// OutboundConfig holds parameters for the WhatsApp deep-link channel.
type OutboundConfig struct {
	WhatsAppPhone string
}

// PricingConfig locates the static pricing fallback document.
type PricingConfig struct {
	FallbackFile string
}

// NotificationConfig configures the Pub/Sub event topic. An empty topic disables publishing.
type NotificationConfig struct {
	TopicID string
}

// StorageConfig locates the media bucket and the service account used to sign
// upload URLs. Both fields empty disables the admin uploads endpoint.
type StorageConfig struct {
	MediaBucket   string
	SignerKeyFile string
}

// CacheConfig groups TTLs for the in-process snapshot and user-type caches.
type CacheConfig struct {
	SnapshotTTL time.Duration
	UserTypeTTL time.Duration
}

// IdempotencyConfig controls replay protection for mutating requests that carry a key header.
type IdempotencyConfig struct {
	Header string
	TTL    time.Duration
}

// FeatureFlags toggle optional behaviour without redeploying.
type FeatureFlags struct {
	EnablePromotions bool
}

// SecretResolver resolves references to external secrets (e.g. Secret Manager URIs).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError reports required fields that are missing or invalid.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing or invalid field names.
func (e *ValidationError) Fields() []string {
	return append([]string(nil), e.fields...)
}

// SecretError describes a failed secret reference resolution.
type SecretError struct {
	Ref string
	Err error
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

func (e *SecretError) Unwrap() error { return e.Err }

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option adjusts how Load and EnvironmentValues read the environment.
type Option func(*loader)

type loader struct {
	envFile   string
	explicit  map[string]string
	systemEnv bool
	secrets   SecretResolver
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(l *loader) { l.envFile = path }
}

// WithEnvMap injects explicit key/value pairs. They take precedence over
// system environment variables and the .env file.
func WithEnvMap(values map[string]string) Option {
	return func(l *loader) { l.explicit = values }
}

// WithoutSystemEnv ignores os.Environ, reading only explicit maps and .env files.
func WithoutSystemEnv() Option {
	return func(l *loader) { l.systemEnv = false }
}

// WithSecretResolver sets the resolver used for secret:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(l *loader) { l.secrets = resolver }
}

func newLoader(opts []Option) loader {
	l := loader{envFile: defaultEnvFile, systemEnv: true}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// environment merges all sources into one map. Precedence, lowest first:
// .env file, system environment, explicit map.
func (l loader) environment() (env, error) {
	values, err := parseDotEnv(l.envFile)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = make(map[string]string)
	}
	if l.systemEnv {
		for _, entry := range os.Environ() {
			if key, value, ok := strings.Cut(entry, "="); ok && strings.TrimSpace(key) != "" {
				values[strings.TrimSpace(key)] = value
			}
		}
	}
	for key, value := range l.explicit {
		values[key] = value
	}
	return values, nil
}

// EnvironmentValues returns the merged key/value environment using the same
// precedence as Load. Callers use it to initialise dependencies, such as the
// secret fetcher, before Load runs.
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	return newLoader(opts).environment()
}

// Load assembles the configuration from defaults, the environment, and
// secret references, then validates it.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	l := newLoader(opts)
	values, err := l.environment()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         values.str("API_SERVER_PORT", defaultPort),
			ReadTimeout:  values.dur("API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: values.dur("API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  values.dur("API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Firebase: FirebaseConfig{
			ProjectID:       values.str("API_FIREBASE_PROJECT_ID", ""),
			CredentialsFile: values.str("API_FIREBASE_CREDENTIALS_FILE", ""),
		},
		Firestore: FirestoreConfig{
			ProjectID:    values.str("API_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: values.str("API_FIRESTORE_EMULATOR_HOST", ""),
		},
		AdminGate: AdminGateConfig{
			TokenSecret: values.str("API_ADMIN_TOKEN_SECRET", ""),
			TokenTTL:    values.dur("API_ADMIN_TOKEN_TTL", defaultAdminTokenTTL),
			TokenHeader: values.str("API_ADMIN_TOKEN_HEADER", defaultAdminTokenHeader),
		},
		Outbound: OutboundConfig{
			WhatsAppPhone: values.str("API_OUTBOUND_WHATSAPP_PHONE", ""),
		},
		Pricing: PricingConfig{
			FallbackFile: values.str("API_PRICING_FALLBACK_FILE", defaultPricingFallback),
		},
		Notifications: NotificationConfig{
			TopicID: values.str("API_NOTIFICATIONS_TOPIC", ""),
		},
		Storage: StorageConfig{
			MediaBucket:   values.str("API_STORAGE_MEDIA_BUCKET", ""),
			SignerKeyFile: values.str("API_STORAGE_SIGNER_KEY_FILE", ""),
		},
		Cache: CacheConfig{
			SnapshotTTL: values.dur("API_CACHE_SNAPSHOT_TTL", defaultSnapshotTTL),
			UserTypeTTL: values.dur("API_CACHE_USER_TYPE_TTL", defaultUserTypeTTL),
		},
		Idempotency: IdempotencyConfig{
			Header: values.str("API_IDEMPOTENCY_HEADER", defaultIdempotencyHeader),
			TTL:    values.dur("API_IDEMPOTENCY_TTL", defaultIdempotencyTTL),
		},
		Features: FeatureFlags{
			EnablePromotions: values.flag("API_FEATURE_PROMOTIONS", true),
		},
	}

	// Firestore project defaults to Firebase project when unspecified.
	if cfg.Firestore.ProjectID == "" {
		cfg.Firestore.ProjectID = cfg.Firebase.ProjectID
	}

	cfg.AdminGate.TokenSecret, err = resolveSecretRef(ctx, cfg.AdminGate.TokenSecret, l.secrets)
	if err != nil {
		return Config{}, err
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// resolveSecretRef swaps secret:// and sm:// references for their Secret
// Manager values. Plain values pass through untouched.
func resolveSecretRef(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	ref := strings.TrimSpace(value)
	switch {
	case strings.HasPrefix(ref, "sm://"):
		ref = "secret://" + strings.TrimPrefix(ref, "sm://")
	case strings.HasPrefix(ref, "secret://"):
	default:
		return value, nil
	}

	if resolver == nil {
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	}
	secret, err := resolver.ResolveSecret(ctx, ref)
	if err != nil {
		return "", &SecretError{Ref: ref, Err: err}
	}
	return secret, nil
}

func validate(cfg Config) error {
	var missing []string
	require := func(ok bool, field string) {
		if !ok {
			missing = append(missing, field)
		}
	}

	require(cfg.Server.Port != "", "Server.Port")
	require(cfg.Firebase.ProjectID != "", "Firebase.ProjectID")
	require(cfg.Firestore.ProjectID != "", "Firestore.ProjectID")
	require(strings.TrimSpace(cfg.AdminGate.TokenSecret) != "", "AdminGate.TokenSecret")
	require(cfg.AdminGate.TokenTTL > 0, "AdminGate.TokenTTL")
	require(strings.TrimSpace(cfg.AdminGate.TokenHeader) != "", "AdminGate.TokenHeader")
	require(strings.TrimSpace(cfg.Outbound.WhatsAppPhone) != "", "Outbound.WhatsAppPhone")
	require(cfg.Cache.SnapshotTTL > 0, "Cache.SnapshotTTL")
	require(cfg.Cache.UserTypeTTL > 0, "Cache.UserTypeTTL")

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

// parseDotEnv reads KEY=VALUE lines, skipping comments and blank lines and
// stripping an optional "export " prefix and surrounding quotes. A missing
// file is not an error.
func parseDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		key, value, ok := strings.Cut(line, "=")
		if key = strings.TrimSpace(key); !ok || key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", path, err)
	}
	return values, nil
}

// env is the merged environment with typed accessors.
type env map[string]string

func (e env) str(key, fallback string) string {
	if value := e[key]; value != "" {
		return value
	}
	return fallback
}

func (e env) dur(key string, fallback time.Duration) time.Duration {
	if value := e[key]; value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (e env) flag(key string, fallback bool) bool {
	switch strings.ToLower(e[key]) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	return fallback
}

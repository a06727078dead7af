package secrets

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	refScheme           = "secret://"
	defaultEnvironment  = "local"
	defaultFallbackPath = ".secrets.local"
	latestVersion       = "latest"

	meterName = "github.com/petshop-baronesa/api/internal/platform/secrets"
)

// accessClient is the slice of the Secret Manager client the fetcher needs.
type accessClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

var secretManagerClientFactory = func(ctx context.Context, opts ...option.ClientOption) (*secretmanager.Client, error) {
	return secretmanager.NewClient(ctx, opts...)
}

// Fetcher resolves secret:// references against Google Secret Manager, with an
// in-process cache and an optional local fallback file for development.
type Fetcher struct {
	client     accessClient
	ownsClient bool
	logger     *zap.Logger

	env     string
	project string
	pins    map[string]string

	fallbackPath string
	loadFallback sync.Once
	fallback     map[string]string
	fallbackErr  error

	mu    sync.Mutex
	cache map[string]string
	subs  map[string][]chan struct{}

	resolveTime  metric.Float64Histogram
	resolveHits  metric.Int64Counter
	timeEnabled  bool
	hitsEnabled  bool
}

// Option customises Fetcher construction.
type Option func(*Fetcher, *clientSetup)

type clientSetup struct {
	client     accessClient
	clientOpts []option.ClientOption
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher, _ *clientSetup) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithEnvironment labels resolutions with the deployment environment.
func WithEnvironment(env string) Option {
	return func(f *Fetcher, _ *clientSetup) {
		if v := strings.ToLower(strings.TrimSpace(env)); v != "" {
			f.env = v
		}
	}
}

// WithDefaultProject sets the GCP project secrets are read from.
func WithDefaultProject(projectID string) Option {
	return func(f *Fetcher, _ *clientSetup) {
		f.project = strings.TrimSpace(projectID)
	}
}

// WithFallbackFile points at the local key=value secrets file used when
// Secret Manager is unreachable or unauthenticated.
func WithFallbackFile(path string) Option {
	return func(f *Fetcher, _ *clientSetup) {
		f.fallbackPath = strings.TrimSpace(path)
	}
}

// WithVersionPins pins specific secret references to fixed versions.
func WithVersionPins(pins map[string]string) Option {
	return func(f *Fetcher, _ *clientSetup) {
		for ref, version := range pins {
			if v := strings.TrimSpace(version); v != "" {
				f.pins[normalizeRef(ref)] = v
			}
		}
	}
}

// WithSecretManagerClient injects a preconstructed client, mainly for tests.
func WithSecretManagerClient(client accessClient) Option {
	return func(_ *Fetcher, s *clientSetup) {
		s.client = client
	}
}

// WithClientOptions forwards Cloud client options to the Secret Manager client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(_ *Fetcher, s *clientSetup) {
		s.clientOpts = append(s.clientOpts, opts...)
	}
}

// NewFetcher builds a Fetcher. A missing or unauthenticated Secret Manager
// client is not fatal: the fetcher then serves only the fallback file.
func NewFetcher(ctx context.Context, opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		logger:       zap.NewNop(),
		env:          defaultEnvironment,
		pins:         make(map[string]string),
		fallbackPath: defaultFallbackPath,
		cache:        make(map[string]string),
		subs:         make(map[string][]chan struct{}),
	}

	var setup clientSetup
	for _, opt := range opts {
		opt(f, &setup)
	}

	meter := otel.GetMeterProvider().Meter(meterName)
	var err error
	f.resolveTime, err = meter.Float64Histogram(
		"secrets.resolve.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Time spent resolving a secret reference"),
	)
	f.timeEnabled = err == nil
	f.resolveHits, err = meter.Int64Counter(
		"secrets.resolve.cache_hits",
		metric.WithDescription("Secret resolutions served from the in-process cache"),
	)
	f.hitsEnabled = err == nil

	if setup.client != nil {
		f.client = setup.client
		return f, nil
	}

	client, err := secretManagerClientFactory(ctx, setup.clientOpts...)
	if err != nil {
		f.logger.Warn("secret manager unavailable, serving fallback file only", zap.Error(err))
		return f, nil
	}
	f.client = client
	f.ownsClient = true
	return f, nil
}

// Close drops all subscriptions and releases the client when owned.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	for ref, channels := range f.subs {
		delete(f.subs, ref)
		for _, ch := range channels {
			close(ch)
		}
	}
	f.mu.Unlock()

	if f.ownsClient && f.client != nil {
		return f.client.Close()
	}
	return nil
}

// Resolve returns the secret value for a secret://name reference. Remote
// values are cached until invalidated. Permission and availability failures
// fall through to the local fallback file; a genuinely missing secret does not.
func (f *Fetcher) Resolve(ctx context.Context, ref string) (string, error) {
	started := time.Now()

	name, version, err := f.splitRef(ref)
	if err != nil {
		return "", err
	}
	key := name + "@" + version

	f.mu.Lock()
	value, hit := f.cache[key]
	f.mu.Unlock()
	if hit {
		f.countHit(ctx)
		f.observe(ctx, started, "cache")
		return value, nil
	}

	if f.client != nil && f.project != "" {
		value, err = f.access(ctx, name, version)
		switch {
		case err == nil:
			f.mu.Lock()
			f.cache[key] = value
			f.mu.Unlock()
			f.observe(ctx, started, "remote")
			return value, nil
		case !worthFallingBack(err):
			f.observe(ctx, started, "error")
			return "", fmt.Errorf("secrets: access %s: %w", name, err)
		default:
			f.logger.Debug("secret manager refused, trying fallback file",
				zap.String("secret", name), zap.Error(err))
		}
	}

	value, ok := f.localValue(name)
	if !ok {
		f.observe(ctx, started, "error")
		return "", fmt.Errorf("secrets: no value for %s%s", refScheme, name)
	}
	f.mu.Lock()
	f.cache[key] = value
	f.mu.Unlock()
	f.observe(ctx, started, "fallback")
	return value, nil
}

// Invalidate drops any cached value for the reference and wakes subscribers.
func (f *Fetcher) Invalidate(ref string) {
	name, _, err := f.splitRef(ref)
	if err != nil {
		return
	}

	f.mu.Lock()
	for key := range f.cache {
		if strings.HasPrefix(key, name+"@") {
			delete(f.cache, key)
		}
	}
	channels := append([]chan struct{}(nil), f.subs[name]...)
	f.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe returns a channel signalled whenever the reference is invalidated,
// plus a cancel function that unregisters the subscription.
func (f *Fetcher) Subscribe(ref string) (<-chan struct{}, func()) {
	name, _, err := f.splitRef(ref)
	if err != nil {
		ch := make(chan struct{})
		close(ch)
		return ch, func() {}
	}

	ch := make(chan struct{}, 1)
	f.mu.Lock()
	f.subs[name] = append(f.subs[name], ch)
	f.mu.Unlock()

	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		remaining := f.subs[name][:0]
		for _, sub := range f.subs[name] {
			if sub != ch {
				remaining = append(remaining, sub)
			}
		}
		if len(remaining) == 0 {
			delete(f.subs, name)
		} else {
			f.subs[name] = remaining
		}
	}
}

func (f *Fetcher) access(ctx context.Context, name, version string) (string, error) {
	resource := fmt.Sprintf("projects/%s/secrets/%s/versions/%s", f.project, name, version)
	resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: resource})
	if err != nil {
		return "", err
	}
	if resp.GetPayload() == nil {
		return "", fmt.Errorf("empty payload for %s", resource)
	}
	return string(resp.GetPayload().GetData()), nil
}

// splitRef validates the secret:// scheme and applies version pins.
func (f *Fetcher) splitRef(ref string) (name, version string, err error) {
	normalized := normalizeRef(ref)
	if !strings.HasPrefix(normalized, refScheme) {
		return "", "", fmt.Errorf("secrets: unsupported reference %q", ref)
	}
	rest := strings.Trim(strings.TrimPrefix(normalized, refScheme), "/")
	rest, query, _ := strings.Cut(rest, "?")
	if rest == "" {
		return "", "", fmt.Errorf("secrets: missing secret name in %q", ref)
	}

	version = latestVersion
	if pinned, ok := f.pins[refScheme+rest]; ok {
		version = pinned
	}
	for _, pair := range strings.Split(query, "&") {
		if v, ok := strings.CutPrefix(pair, "version="); ok && strings.TrimSpace(v) != "" {
			version = strings.TrimSpace(v)
		}
	}
	return rest, version, nil
}

func (f *Fetcher) localValue(name string) (string, bool) {
	f.loadFallback.Do(f.readFallbackFile)
	if f.fallbackErr != nil {
		f.logger.Debug("fallback file unreadable", zap.Error(f.fallbackErr))
		return "", false
	}
	value, ok := f.fallback[name]
	return value, ok
}

func (f *Fetcher) readFallbackFile() {
	f.fallback = make(map[string]string)
	if f.fallbackPath == "" {
		return
	}

	file, err := os.Open(f.fallbackPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.fallbackErr = fmt.Errorf("secrets: open %s: %w", f.fallbackPath, err)
		}
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = normalizeRef(strings.TrimSpace(key))
		key = strings.Trim(strings.TrimPrefix(key, refScheme), "/")
		key, _, _ = strings.Cut(key, "?")
		if key != "" {
			f.fallback[key] = strings.TrimSpace(value)
		}
	}
	if err := scanner.Err(); err != nil {
		f.fallbackErr = fmt.Errorf("secrets: read %s: %w", f.fallbackPath, err)
	}
}

func (f *Fetcher) observe(ctx context.Context, started time.Time, source string) {
	if !f.timeEnabled {
		return
	}
	f.resolveTime.Record(ctx, float64(time.Since(started))/float64(time.Millisecond),
		metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("env", f.env),
		))
}

func (f *Fetcher) countHit(ctx context.Context) {
	if f.hitsEnabled {
		f.resolveHits.Add(ctx, 1, metric.WithAttributes(attribute.String("env", f.env)))
	}
}

// worthFallingBack reports whether the remote failure is the kind a local
// development file is meant to paper over. A NotFound stays an error so a
// misspelled secret name is caught instead of silently served from disk.
func worthFallingBack(err error) bool {
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated, codes.Unavailable, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

func normalizeRef(ref string) string {
	trimmed := strings.TrimSpace(ref)
	if rest, ok := strings.CutPrefix(trimmed, "sm://"); ok {
		return refScheme + rest
	}
	return trimmed
}

package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type clientBuilder struct {
	runtimeConfig   Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	transport       TransportAdapter
	signatureMethod SignatureMethod
	methodResolver  SignatureMethodResolver
	tokenStore      TokenStore
	clock           Clock
	nonceSource     NonceSource
	token           *DelegatedToken
}

type Option func(*clientBuilder)

// SignatureMethodResolver maps a configured method name to its implementation.
type SignatureMethodResolver func(name string) (SignatureMethod, error)

func WithLogger(logger Logger) Option {
	return func(b *clientBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *clientBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *clientBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *clientBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *clientBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *clientBuilder) {
		b.optionsResolver = resolver
	}
}

func WithTransport(transport TransportAdapter) Option {
	return func(b *clientBuilder) {
		b.transport = transport
	}
}

func WithSignatureMethod(method SignatureMethod) Option {
	return func(b *clientBuilder) {
		b.signatureMethod = method
	}
}

// WithSignatureMethodResolver resolves the signature method from the merged
// configuration when no explicit method is given.
func WithSignatureMethodResolver(resolver SignatureMethodResolver) Option {
	return func(b *clientBuilder) {
		b.methodResolver = resolver
	}
}

// WithTokenStore sets the store used by Persist and Restore when the caller
// passes a nil store.
func WithTokenStore(store TokenStore) Option {
	return func(b *clientBuilder) {
		b.tokenStore = store
	}
}

func WithClock(clock Clock) Option {
	return func(b *clientBuilder) {
		b.clock = clock
	}
}

func WithNonceSource(source NonceSource) Option {
	return func(b *clientBuilder) {
		b.nonceSource = source
	}
}

// WithToken installs an initial token, e.g. an access token kept by the
// caller in its own storage. Access-stage tokens mark the client authorized.
func WithToken(token DelegatedToken) Option {
	return func(b *clientBuilder) {
		copied := token
		b.token = &copied
	}
}

func defaultClientBuilder(runtime Config) clientBuilder {
	loggerProvider, logger := glog.Resolve("scoopit", nil, nil)
	return clientBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		clock:           defaultClock,
		nonceSource:     DefaultNonceSource,
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return clientErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// NewStaticRawConfigLoader serves a fixed raw configuration map, typically
// decoded by the caller from a file or environment.
func NewStaticRawConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

// Load decodes the raw layer without validation; the merged config is
// validated by the OptionsResolver.
func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	setString := func(target map[string]any, key string, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			target[key] = value
		}
	}
	setString(layer, "name", cfg.Name)
	setString(layer, "consumer_key", cfg.ConsumerKey)
	setString(layer, "consumer_secret", cfg.ConsumerSecret)
	setString(layer, "signature_method", cfg.SignatureMethod)

	endpoints := map[string]any{}
	setString(endpoints, "request_token_url", cfg.Endpoints.RequestTokenURL)
	setString(endpoints, "access_token_url", cfg.Endpoints.AccessTokenURL)
	setString(endpoints, "authorize_url", cfg.Endpoints.AuthorizeURL)
	setString(endpoints, "api_base_url", cfg.Endpoints.APIBaseURL)
	if len(endpoints) > 0 {
		layer["endpoints"] = endpoints
	}

	if includeZero || cfg.Transport.MaxResponseBodyBytes > 0 {
		layer["transport"] = map[string]any{
			"max_response_body_bytes": cfg.Transport.MaxResponseBodyBytes,
		}
	}
	return layer
}

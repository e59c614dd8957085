package scoopit

import (
	"github.com/goliatone/go-scoopit/api"
	"github.com/goliatone/go-scoopit/auth"
	"github.com/goliatone/go-scoopit/core"
	"github.com/goliatone/go-scoopit/transport"
)

type Config = core.Config

type Option = core.Option

type Client = core.Client

type ClientDependencies = core.ClientDependencies
type DelegatedToken = core.DelegatedToken
type TokenRecord = core.TokenRecord
type TokenStage = core.TokenStage
type TokenStore = core.TokenStore
type TokenCodec = core.TokenCodec
type SecretProvider = core.SecretProvider
type TransportAdapter = core.TransportAdapter
type SignatureMethod = core.SignatureMethod
type Params = core.Params

type API = api.Client

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithTransport       = core.WithTransport
	WithSignatureMethod = core.WithSignatureMethod
	WithTokenStore      = core.WithTokenStore
	WithClock           = core.WithClock
	WithNonceSource     = core.WithNonceSource
	WithToken           = core.WithToken
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// New builds a Client that talks HTTP through transport.RESTAdapter and signs
// with the method named by the merged configuration. Options given here
// override both defaults.
func New(cfg Config, opts ...Option) (*Client, error) {
	defaults := []Option{
		core.WithTransport(transport.NewRESTAdapter(nil)),
		core.WithSignatureMethodResolver(resolveSignatureMethod),
	}
	return core.NewClient(cfg, append(defaults, opts...)...)
}

func resolveSignatureMethod(name string) (core.SignatureMethod, error) {
	method, err := auth.ResolveMethod(name)
	if err != nil {
		return nil, err
	}
	return method, nil
}

// NewAPI wraps client with the application endpoints.
func NewAPI(client *Client, opts ...api.Option) (*API, error) {
	return api.New(client, opts...)
}

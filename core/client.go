package core

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

const (
	headerAcceptEncoding = "Accept-Encoding"
	headerAuthorization  = "Authorization"
	headerContentType    = "Content-Type"
	formContentType      = "application/x-www-form-urlencoded"
)

// Client owns the consumer identity and the current delegated token. It runs
// the three step OAuth 1.0 handshake and signs outgoing requests.
//
// Token state is guarded so snapshots are consistent, and every operation
// signs with the token captured when it starts. Ordering handshake steps
// across goroutines is left to the caller.
type Client struct {
	config          Config
	consumer        ConsumerIdentity
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	transport       TransportAdapter
	tokenStore      TokenStore
	signer          requestSigner

	mu         sync.RWMutex
	token      DelegatedToken
	authorized bool
}

type ClientDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	Transport       TransportAdapter
	SignatureMethod SignatureMethod
	TokenStore      TokenStore
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	builder := defaultClientBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("scoopit", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("scoopit"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.clock == nil {
		builder.clock = defaultClock
	}
	if builder.nonceSource == nil {
		builder.nonceSource = DefaultNonceSource
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.transport == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: transport adapter is required"))
	}
	if builder.signatureMethod == nil && builder.methodResolver != nil {
		method, err := builder.methodResolver(finalConfig.SignatureMethod)
		if err != nil {
			return nil, mapBuildError(builder.errorMapper, NewBadInputError(err.Error()))
		}
		builder.signatureMethod = method
	}
	if builder.signatureMethod == nil {
		return nil, mapBuildError(builder.errorMapper, NewBadInputError("core: signature method is required"))
	}
	if !strings.EqualFold(builder.signatureMethod.Name(), finalConfig.SignatureMethod) {
		return nil, mapBuildError(builder.errorMapper, NewBadInputError(fmt.Sprintf(
			"core: signature method mismatch: configured %q, provided %q",
			finalConfig.SignatureMethod,
			builder.signatureMethod.Name(),
		)))
	}

	consumer := finalConfig.Consumer()
	client := &Client{
		config:          finalConfig,
		consumer:        consumer,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		transport:       builder.transport,
		tokenStore:      builder.tokenStore,
		signer: requestSigner{
			consumer: consumer,
			method:   builder.signatureMethod,
			clock:    builder.clock,
			nonce:    builder.nonceSource,
		},
	}
	if builder.token != nil && !builder.token.IsZero() {
		initial := *builder.token
		if !initial.Stage.Valid() {
			initial.Stage = TokenStageUnverified
		}
		client.install(initial, initial.Stage == TokenStageAccess)
	}
	return client, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	if mapped := mapper(err); mapped != nil {
		return mapped
	}
	return err
}

func (c *Client) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.config
}

func (c *Client) Consumer() ConsumerIdentity {
	if c == nil {
		return ConsumerIdentity{}
	}
	return c.consumer
}

func (c *Client) Dependencies() ClientDependencies {
	if c == nil {
		return ClientDependencies{}
	}
	return ClientDependencies{
		Logger:          c.logger,
		LoggerProvider:  c.loggerProvider,
		MetricsRecorder: c.metricsRecorder,
		ErrorMapper:     c.errorMapper,
		ConfigProvider:  c.configProvider,
		OptionsResolver: c.optionsResolver,
		Transport:       c.transport,
		SignatureMethod: c.signer.method,
		TokenStore:      c.tokenStore,
	}
}

// Token returns a copy of the current token. The zero value means no token.
func (c *Client) Token() DelegatedToken {
	if c == nil {
		return DelegatedToken{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Authorized reports whether an access token has been obtained.
func (c *Client) Authorized() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authorized
}

// Reset drops the current token and the authorization flag.
func (c *Client) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.token = DelegatedToken{}
	c.authorized = false
	c.mu.Unlock()
}

func (c *Client) install(token DelegatedToken, authorized bool) {
	token.Verifier = ""
	c.mu.Lock()
	c.token = token
	c.authorized = authorized
	c.mu.Unlock()
}

// AcquireRequestToken fetches a request token, signing with the consumer
// identity only. The current token is replaced only after a 200 response
// with both token fields present.
func (c *Client) AcquireRequestToken(ctx context.Context) (token DelegatedToken, err error) {
	if c == nil {
		return DelegatedToken{}, fmt.Errorf("core: client is nil")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{"endpoint": c.config.Endpoints.RequestTokenURL, "method": http.MethodGet}
	defer func() {
		fields["token_stage"] = string(token.Stage)
		c.observeOperation(ctx, startedAt, "acquire_request_token", err, fields)
	}()

	res, err := c.do(ctx, http.MethodGet, c.config.Endpoints.RequestTokenURL, Params{}, DelegatedToken{})
	if err != nil {
		return DelegatedToken{}, err
	}
	fields["status_code"] = res.StatusCode
	if res.StatusCode != http.StatusOK {
		return DelegatedToken{}, NewRequestFailureError(res.StatusCode,
			statusMessage("core: failed to get request token", res.StatusCode))
	}
	parsed, err := parseTokenResponse(res)
	if err != nil {
		return DelegatedToken{}, err
	}
	parsed.Stage = TokenStageRequest
	c.install(parsed, false)
	return parsed, nil
}

// AuthorizationURL returns the provider page where the user approves the
// current token. Pure: no I/O and no state change.
func (c *Client) AuthorizationURL(callback string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("core: client is nil")
	}
	current := c.Token()
	if current.IsZero() {
		return "", NewTokenMissingError("core: request token is not set")
	}
	parsed, err := url.Parse(c.config.Endpoints.AuthorizeURL)
	if err != nil {
		return "", NewBadInputError(fmt.Sprintf("core: invalid authorize url: %v", err))
	}
	query := parsed.Query()
	query.Set(ParamToken, current.Token)
	if callback = strings.TrimSpace(callback); callback != "" {
		query.Set(ParamCallback, callback)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// ExchangeAccessToken trades the current request token and the verifier the
// user received for an access token. On failure the request token stays
// current.
func (c *Client) ExchangeAccessToken(ctx context.Context, verifier string) (token DelegatedToken, err error) {
	if c == nil {
		return DelegatedToken{}, fmt.Errorf("core: client is nil")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{"endpoint": c.config.Endpoints.AccessTokenURL, "method": http.MethodPost}
	defer func() {
		fields["token_stage"] = string(token.Stage)
		c.observeOperation(ctx, startedAt, "exchange_access_token", err, fields)
	}()

	current := c.Token()
	if current.IsZero() {
		return DelegatedToken{}, NewTokenMissingError("core: request token is not set")
	}
	if current.Stage != TokenStageRequest {
		return DelegatedToken{}, NewTokenMissingError(fmt.Sprintf(
			"core: request token is missing, current token is %q stage", current.Stage))
	}
	if strings.TrimSpace(verifier) == "" {
		return DelegatedToken{}, NewBadInputError("core: token verifier is required")
	}
	verified, err := current.WithVerifier(verifier)
	if err != nil {
		return DelegatedToken{}, NewBadInputError(err.Error())
	}

	res, err := c.do(ctx, http.MethodPost, c.config.Endpoints.AccessTokenURL, Params{}, verified)
	if err != nil {
		return DelegatedToken{}, err
	}
	fields["status_code"] = res.StatusCode
	if res.StatusCode != http.StatusOK {
		return DelegatedToken{}, NewRequestFailureError(res.StatusCode,
			statusMessage("core: failed to get access token", res.StatusCode))
	}
	parsed, err := parseTokenResponse(res)
	if err != nil {
		return DelegatedToken{}, err
	}
	parsed.Stage = TokenStageAccess
	c.install(parsed, true)
	return parsed, nil
}

// Persist writes the current token to store under destination. A nil store
// falls back to the one configured with WithTokenStore.
func (c *Client) Persist(ctx context.Context, store TokenStore, destination string) (err error) {
	if c == nil {
		return fmt.Errorf("core: client is nil")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{"store_key": destination}
	defer func() {
		c.observeOperation(ctx, startedAt, "persist_token", err, fields)
	}()

	current := c.Token()
	if current.IsZero() {
		return NewTokenMissingError("core: token is not set, nothing to persist")
	}
	fields["token_stage"] = string(current.Stage)
	store, err = c.resolveStore(store)
	if err != nil {
		return err
	}
	if strings.TrimSpace(destination) == "" {
		return NewBadInputError("core: token destination is required")
	}
	if err := store.SaveToken(ctx, destination, recordFromToken(current, c.signer.clock())); err != nil {
		return c.mapError(err)
	}
	return nil
}

// Restore installs the token recorded under source. The client is authorized
// only when the record is tagged as an access token; untagged records restore
// as unverified.
func (c *Client) Restore(ctx context.Context, store TokenStore, source string) (token DelegatedToken, err error) {
	if c == nil {
		return DelegatedToken{}, fmt.Errorf("core: client is nil")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{"store_key": source}
	defer func() {
		fields["token_stage"] = string(token.Stage)
		c.observeOperation(ctx, startedAt, "restore_token", err, fields)
	}()

	store, err = c.resolveStore(store)
	if err != nil {
		return DelegatedToken{}, err
	}
	if strings.TrimSpace(source) == "" {
		return DelegatedToken{}, NewBadInputError("core: token source is required")
	}
	record, err := store.LoadToken(ctx, source)
	if err != nil {
		return DelegatedToken{}, c.mapError(err)
	}
	restored := record.DelegatedToken()
	if restored.IsZero() {
		return DelegatedToken{}, NewBadInputError("core: restored token record has no token")
	}
	if restored.Stage == TokenStageUnverified {
		c.logWarn(ctx, "restored token has no stage tag, treating as unverified", map[string]any{"store_key": source})
	}
	c.install(restored, restored.Stage == TokenStageAccess)
	return restored, nil
}

func (c *Client) resolveStore(store TokenStore) (TokenStore, error) {
	if store != nil {
		return store, nil
	}
	if c.tokenStore != nil {
		return c.tokenStore, nil
	}
	return nil, NewBadInputError("core: token store is required")
}

// Sign returns params merged over the protocol parameters plus
// oauth_signature, using the current token. Caller supplied keys win over the
// standard ones. Encode() on the result gives the form body.
func (c *Client) Sign(method string, rawURL string, params Params) (Params, error) {
	if c == nil {
		return Params{}, fmt.Errorf("core: client is nil")
	}
	signed, err := c.signer.sign(strings.ToUpper(strings.TrimSpace(method)), rawURL, params, c.Token())
	if err != nil {
		return Params{}, c.mapError(err)
	}
	return signed, nil
}

// Request executes one signed call. GET keeps params as the query string and
// carries the signature in the Authorization header; caller oauth_* params on
// a GET move into that header and replace the generated values. POST sends
// the signed parameters as a form body. Any other method fails before touching the
// network. The response is returned as is, whatever its status.
func (c *Client) Request(ctx context.Context, rawURL string, params Params, method string) (res TransportResponse, err error) {
	if c == nil {
		return TransportResponse{}, fmt.Errorf("core: client is nil")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{"endpoint": rawURL, "method": strings.ToUpper(strings.TrimSpace(method))}
	defer func() {
		if res.StatusCode != 0 {
			fields["status_code"] = res.StatusCode
		}
		c.observeOperation(ctx, startedAt, "request", err, fields)
	}()
	return c.do(ctx, method, rawURL, params, c.Token())
}

func (c *Client) do(ctx context.Context, method string, rawURL string, params Params, token DelegatedToken) (TransportResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req := TransportRequest{
		URL: strings.TrimSpace(rawURL),
		Headers: map[string]string{
			headerAcceptEncoding: "gzip",
		},
		MaxResponseBodyBytes: c.config.Transport.MaxResponseBodyBytes,
	}

	switch strings.ToUpper(strings.TrimSpace(method)) {
	case http.MethodGet:
		req.Method = http.MethodGet
		query, protocol := splitProtocolParams(params)
		if encoded := query.Encode(); encoded != "" {
			separator := "?"
			if strings.Contains(req.URL, "?") {
				separator = "&"
			}
			req.URL = req.URL + separator + encoded
		}
		signed, err := c.signer.sign(http.MethodGet, req.URL, protocol, token)
		if err != nil {
			return TransportResponse{}, c.mapError(err)
		}
		req.Headers[headerAuthorization] = AuthorizationHeader(signed)
	case http.MethodPost:
		req.Method = http.MethodPost
		signed, err := c.signer.sign(http.MethodPost, req.URL, params, token)
		if err != nil {
			return TransportResponse{}, c.mapError(err)
		}
		req.Body = []byte(signed.Encode())
		req.Headers[headerContentType] = formContentType
	default:
		return TransportResponse{}, NewRequestFailureError(http.StatusMethodNotAllowed,
			"core: method can only be GET or POST")
	}

	res, err := c.transport.Do(ctx, req)
	if err != nil {
		return TransportResponse{}, c.mapError(err)
	}
	return res, nil
}

// splitProtocolParams separates oauth_* keys from the rest, keeping order.
func splitProtocolParams(params Params) (Params, Params) {
	query := Params{}
	protocol := Params{}
	for _, key := range params.keys {
		if strings.HasPrefix(key, "oauth_") {
			protocol.set(key, params.values[key])
			continue
		}
		query.set(key, params.values[key])
	}
	return query, protocol
}

func (c *Client) mapError(err error) error {
	if err == nil {
		return nil
	}
	if c == nil || c.errorMapper == nil {
		return err
	}
	if mapped := c.errorMapper(err); mapped != nil {
		return mapped
	}
	return err
}

func parseTokenResponse(res TransportResponse) (DelegatedToken, error) {
	values, err := ParseParams(strings.TrimSpace(string(res.Body)))
	if err != nil {
		return DelegatedToken{}, NewRequestFailureError(res.StatusCode,
			fmt.Sprintf("core: malformed token response: %v", err))
	}
	token, _ := values.Get(ParamToken)
	secret, _ := values.Get(ParamTokenSecret)
	if strings.TrimSpace(token) == "" || strings.TrimSpace(secret) == "" {
		return DelegatedToken{}, NewRequestFailureError(res.StatusCode,
			"core: malformed token response: oauth_token and oauth_token_secret are required")
	}
	return DelegatedToken{Token: token, Secret: secret}, nil
}

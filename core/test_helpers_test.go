package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-scoopit/auth"
)

const (
	testConsumerKey    = "consumer-key"
	testConsumerSecret = "consumer-secret"
)

var testNow = time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ConsumerKey = testConsumerKey
	cfg.ConsumerSecret = testConsumerSecret
	cfg.Endpoints = EndpointsConfig{
		RequestTokenURL: "https://provider.example/oauth/request",
		AccessTokenURL:  "https://provider.example/oauth/access",
		AuthorizeURL:    "https://provider.example/oauth/authorize",
		APIBaseURL:      "https://provider.example/api/1",
	}
	return cfg
}

func fixedClock() time.Time { return testNow }

func sequenceNonce() NonceSource {
	var mu sync.Mutex
	counter := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		counter++
		return fmt.Sprintf("nonce%d", counter), nil
	}
}

func newTestClient(t *testing.T, transport TransportAdapter, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithTransport(transport),
		WithSignatureMethod(auth.HMACSHA1{}),
		WithClock(fixedClock),
		WithNonceSource(sequenceNonce()),
		WithLogger(stubLogger{}),
		WithLoggerProvider(stubLoggerProvider{logger: stubLogger{}}),
	}
	client, err := NewClient(testConfig(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

type recordingTransport struct {
	mu        sync.Mutex
	requests  []TransportRequest
	responses []TransportResponse
	err       error
}

func (*recordingTransport) Kind() string { return "recording" }

func (r *recordingTransport) Do(_ context.Context, req TransportRequest) (TransportResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if r.err != nil {
		return TransportResponse{}, r.err
	}
	if len(r.responses) == 0 {
		return TransportResponse{StatusCode: 200}, nil
	}
	res := r.responses[0]
	r.responses = r.responses[1:]
	return res, nil
}

func (r *recordingTransport) reply(status int, body string) *recordingTransport {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, TransportResponse{StatusCode: status, Body: []byte(body)})
	return r
}

func (r *recordingTransport) calls() []TransportRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TransportRequest(nil), r.requests...)
}

type testSecretProvider struct{}

func (testSecretProvider) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("test secret provider: plaintext is required")
	}
	return []byte("enc:" + base64.StdEncoding.EncodeToString(plaintext)), nil
}

func (testSecretProvider) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	value := string(ciphertext)
	if !strings.HasPrefix(value, "enc:") {
		return nil, fmt.Errorf("test secret provider: invalid ciphertext")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(value, "enc:"))
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

const (
	SignatureMethodHMACSHA1  = "HMAC-SHA1"
	SignatureMethodPlainText = "PLAINTEXT"
)

// SignatureMethod computes oauth_signature for a signature base string.
type SignatureMethod interface {
	Name() string
	Sign(baseString string, consumerSecret string, tokenSecret string) (string, error)
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Body                 []byte
	MaxResponseBodyBytes int64
	Metadata             map[string]any
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// TokenStore persists token records under a caller chosen key. Implementations
// must replace an existing record atomically.
type TokenStore interface {
	SaveToken(ctx context.Context, key string, record TokenRecord) error
	LoadToken(ctx context.Context, key string) (TokenRecord, error)
}

type TokenCodec interface {
	Format() string
	Encode(record TokenRecord) ([]byte, error)
	Decode(payload []byte) (TokenRecord, error)
}

type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type Clock func() time.Time

type NonceSource func() (string, error)

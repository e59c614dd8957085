// Package auth implements the OAuth 1.0 signature methods. It has no
// dependency on core so core and its tests can import it freely.
package auth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

const (
	MethodHMACSHA1  = "HMAC-SHA1"
	MethodPlainText = "PLAINTEXT"
)

// HMACSHA1 signs the base string with HMAC-SHA1 keyed by
// enc(consumer_secret)&enc(token_secret) and base64 encodes the digest.
type HMACSHA1 struct{}

func (HMACSHA1) Name() string { return MethodHMACSHA1 }

func (HMACSHA1) Sign(baseString string, consumerSecret string, tokenSecret string) (string, error) {
	if baseString == "" {
		return "", fmt.Errorf("auth: signature base string is required")
	}
	mac := hmac.New(sha1.New, []byte(SigningKey(consumerSecret, tokenSecret)))
	if _, err := mac.Write([]byte(baseString)); err != nil {
		return "", fmt.Errorf("auth: hmac write: %w", err)
	}
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// PlainText sends the signing key itself. Only safe over TLS.
type PlainText struct{}

func (PlainText) Name() string { return MethodPlainText }

func (PlainText) Sign(_ string, consumerSecret string, tokenSecret string) (string, error) {
	return SigningKey(consumerSecret, tokenSecret), nil
}

func SigningKey(consumerSecret string, tokenSecret string) string {
	return escape(consumerSecret) + "&" + escape(tokenSecret)
}

// Method is the shape shared by HMACSHA1 and PlainText.
type Method interface {
	Name() string
	Sign(baseString string, consumerSecret string, tokenSecret string) (string, error)
}

// ResolveMethod maps a configured signature method name to its implementation.
// An empty name resolves to HMAC-SHA1.
func ResolveMethod(name string) (Method, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", MethodHMACSHA1:
		return HMACSHA1{}, nil
	case MethodPlainText:
		return PlainText{}, nil
	default:
		return nil, fmt.Errorf("auth: unsupported signature method %q", name)
	}
}

// escape is RFC 3986 percent encoding; url.QueryEscape only differs in
// writing spaces as '+'.
func escape(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

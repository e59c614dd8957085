package core

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ParamVersion         = "oauth_version"
	ParamNonce           = "oauth_nonce"
	ParamTimestamp       = "oauth_timestamp"
	ParamToken           = "oauth_token"
	ParamTokenSecret     = "oauth_token_secret"
	ParamConsumerKey     = "oauth_consumer_key"
	ParamSignatureMethod = "oauth_signature_method"
	ParamSignature       = "oauth_signature"
	ParamVerifier        = "oauth_verifier"
	ParamCallback        = "oauth_callback"

	OAuthVersion = "1.0"
)

// DefaultNonceSource draws a random version 4 UUID, which is backed by
// crypto/rand, and strips the dashes.
func DefaultNonceSource() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("core: nonce generation failed: %w", err)
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}

type requestSigner struct {
	consumer ConsumerIdentity
	method   SignatureMethod
	clock    Clock
	nonce    NonceSource
}

// standardParams builds the protocol parameters for one request. The order is
// fixed so the encoded form is stable across calls.
func (s requestSigner) standardParams(token DelegatedToken) (Params, error) {
	nonce, err := s.nonce()
	if err != nil {
		return Params{}, err
	}
	if strings.TrimSpace(nonce) == "" {
		return Params{}, fmt.Errorf("core: nonce source returned an empty nonce")
	}
	out := NewParams(
		ParamVersion, OAuthVersion,
		ParamNonce, nonce,
		ParamTimestamp, strconv.FormatInt(s.clock().Unix(), 10),
	)
	if !token.IsZero() {
		out.Set(ParamToken, token.Token)
	}
	out.Set(ParamConsumerKey, s.consumer.Key)
	out.Set(ParamSignatureMethod, s.method.Name())
	if token.Verifier != "" {
		out.Set(ParamVerifier, token.Verifier)
	}
	return out, nil
}

// sign merges params on top of the protocol parameters, so a caller supplied
// key replaces the standard value, and appends oauth_signature computed over
// the merged set and the query of rawURL.
func (s requestSigner) sign(method string, rawURL string, params Params, token DelegatedToken) (Params, error) {
	if s.method == nil {
		return Params{}, fmt.Errorf("core: signature method is required")
	}
	standard, err := s.standardParams(token)
	if err != nil {
		return Params{}, err
	}
	merged := standard.Merge(params)
	merged.Delete(ParamSignature)

	base, err := SignatureBaseString(method, rawURL, merged)
	if err != nil {
		return Params{}, err
	}
	signature, err := s.method.Sign(base, s.consumer.Secret, token.Secret)
	if err != nil {
		return Params{}, fmt.Errorf("core: compute signature: %w", err)
	}
	merged.Set(ParamSignature, signature)
	return merged, nil
}

// SignatureBaseString builds METHOD&url&params as described by RFC 5849
// section 3.4.1. Query parameters already present on rawURL take part in the
// normalized parameter string.
func SignatureBaseString(method string, rawURL string, params Params) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("core: invalid request url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("core: request url %q is invalid", rawURL)
	}

	pairs := make([][2]string, 0, params.Len())
	for _, key := range params.Keys() {
		if key == ParamSignature {
			continue
		}
		value, _ := params.Get(key)
		pairs = append(pairs, [2]string{PercentEncode(key), PercentEncode(value)})
	}
	for key, values := range parsed.Query() {
		if key == ParamSignature {
			continue
		}
		for _, value := range values {
			pairs = append(pairs, [2]string{PercentEncode(key), PercentEncode(value)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] == pairs[j][0] {
			return pairs[i][1] < pairs[j][1]
		}
		return pairs[i][0] < pairs[j][0]
	})

	normalized := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		normalized = append(normalized, pair[0]+"="+pair[1])
	}

	return strings.Join([]string{
		strings.ToUpper(strings.TrimSpace(method)),
		PercentEncode(normalizeBaseURL(parsed)),
		PercentEncode(strings.Join(normalized, "&")),
	}, "&"), nil
}

func normalizeBaseURL(parsed *url.URL) string {
	scheme := strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Hostname())
	port := parsed.Port()
	if port != "" && !((scheme == "http" && port == "80") || (scheme == "https" && port == "443")) {
		host = host + ":" + port
	}
	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}

// PercentEncode escapes every byte outside the RFC 3986 unreserved set.
func PercentEncode(value string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	default:
		return false
	}
}

// AuthorizationHeader renders the oauth_* members of params as an
// "Authorization: OAuth ..." header value.
func AuthorizationHeader(params Params) string {
	keys := make([]string, 0, params.Len())
	for _, key := range params.Keys() {
		if strings.HasPrefix(key, "oauth_") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value, _ := params.Get(key)
		parts = append(parts, fmt.Sprintf(`%s="%s"`, PercentEncode(key), PercentEncode(value)))
	}
	return "OAuth " + strings.Join(parts, ", ")
}

func defaultClock() time.Time {
	return time.Now()
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

package core

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	DefaultRequestTokenURL = "https://www.scoop.it/oauth/request"
	DefaultAccessTokenURL  = "https://www.scoop.it/oauth/access"
	DefaultAuthorizeURL    = "https://www.scoop.it/oauth/authorize"
	DefaultAPIBaseURL      = "https://www.scoop.it/api/1"

	DefaultMaxResponseBodyBytes int64 = 10 << 20
)

type EndpointsConfig struct {
	RequestTokenURL string `koanf:"request_token_url" mapstructure:"request_token_url"`
	AccessTokenURL  string `koanf:"access_token_url" mapstructure:"access_token_url"`
	AuthorizeURL    string `koanf:"authorize_url" mapstructure:"authorize_url"`
	APIBaseURL      string `koanf:"api_base_url" mapstructure:"api_base_url"`
}

type TransportConfig struct {
	MaxResponseBodyBytes int64 `koanf:"max_response_body_bytes" mapstructure:"max_response_body_bytes"`
}

type Config struct {
	Name            string          `koanf:"name" mapstructure:"name"`
	ConsumerKey     string          `koanf:"consumer_key" mapstructure:"consumer_key"`
	ConsumerSecret  string          `koanf:"consumer_secret" mapstructure:"consumer_secret"`
	SignatureMethod string          `koanf:"signature_method" mapstructure:"signature_method"`
	Endpoints       EndpointsConfig `koanf:"endpoints" mapstructure:"endpoints"`
	Transport       TransportConfig `koanf:"transport" mapstructure:"transport"`
}

func DefaultConfig() Config {
	return Config{
		Name:            "scoopit",
		SignatureMethod: SignatureMethodHMACSHA1,
		Endpoints: EndpointsConfig{
			RequestTokenURL: DefaultRequestTokenURL,
			AccessTokenURL:  DefaultAccessTokenURL,
			AuthorizeURL:    DefaultAuthorizeURL,
			APIBaseURL:      DefaultAPIBaseURL,
		},
		Transport: TransportConfig{
			MaxResponseBodyBytes: DefaultMaxResponseBodyBytes,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("core: name is required")
	}
	if strings.TrimSpace(c.ConsumerKey) == "" {
		return fmt.Errorf("core: consumer_key is required")
	}
	if strings.TrimSpace(c.ConsumerSecret) == "" {
		return fmt.Errorf("core: consumer_secret is required")
	}
	switch strings.ToUpper(strings.TrimSpace(c.SignatureMethod)) {
	case SignatureMethodHMACSHA1, SignatureMethodPlainText:
	default:
		return fmt.Errorf("core: signature_method %q is invalid", c.SignatureMethod)
	}
	endpoints := map[string]string{
		"request_token_url": c.Endpoints.RequestTokenURL,
		"access_token_url":  c.Endpoints.AccessTokenURL,
		"authorize_url":     c.Endpoints.AuthorizeURL,
		"api_base_url":      c.Endpoints.APIBaseURL,
	}
	for _, name := range []string{"request_token_url", "access_token_url", "authorize_url", "api_base_url"} {
		if err := validateAbsoluteURL(endpoints[name]); err != nil {
			return fmt.Errorf("core: endpoints.%s is invalid: %w", name, err)
		}
	}
	if c.Transport.MaxResponseBodyBytes < 0 {
		return fmt.Errorf("core: transport.max_response_body_bytes must not be negative")
	}
	return nil
}

func (c Config) Consumer() ConsumerIdentity {
	return ConsumerIdentity{
		Key:    strings.TrimSpace(c.ConsumerKey),
		Secret: strings.TrimSpace(c.ConsumerSecret),
	}
}

func validateAbsoluteURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

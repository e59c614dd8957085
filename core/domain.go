package core

import (
	"fmt"
	"strings"
	"time"
)

// ConsumerIdentity identifies the registered application. It is set once when
// the client is built and never mutated.
type ConsumerIdentity struct {
	Key    string
	Secret string
}

type TokenStage string

const (
	TokenStageNone       TokenStage = ""
	TokenStageRequest    TokenStage = "request"
	TokenStageAccess     TokenStage = "access"
	TokenStageUnverified TokenStage = "unverified"
)

func (s TokenStage) Valid() bool {
	switch s {
	case TokenStageRequest, TokenStageAccess, TokenStageUnverified:
		return true
	default:
		return false
	}
}

func ParseTokenStage(raw string) (TokenStage, error) {
	stage := TokenStage(strings.ToLower(strings.TrimSpace(raw)))
	if stage == TokenStageNone {
		return TokenStageUnverified, nil
	}
	if !stage.Valid() {
		return TokenStageNone, fmt.Errorf("core: token stage %q is invalid", raw)
	}
	return stage, nil
}

// DelegatedToken is the request or access token currently used for signing.
type DelegatedToken struct {
	Token    string
	Secret   string
	Verifier string
	Stage    TokenStage
}

func (t DelegatedToken) IsZero() bool {
	return strings.TrimSpace(t.Token) == ""
}

// WithVerifier returns a copy carrying the verifier. Only request-stage tokens
// accept a verifier.
func (t DelegatedToken) WithVerifier(verifier string) (DelegatedToken, error) {
	if t.Stage != TokenStageRequest {
		return DelegatedToken{}, fmt.Errorf("core: verifier can only be attached to a request token, got %q stage", t.Stage)
	}
	verifier = strings.TrimSpace(verifier)
	if verifier == "" {
		return DelegatedToken{}, fmt.Errorf("core: verifier is required")
	}
	out := t
	out.Verifier = verifier
	return out, nil
}

// TokenRecord is the persisted form of a DelegatedToken. The verifier is never
// persisted.
type TokenRecord struct {
	Token       string
	TokenSecret string
	Stage       TokenStage
	SavedAt     time.Time
}

func recordFromToken(token DelegatedToken, now time.Time) TokenRecord {
	return TokenRecord{
		Token:       token.Token,
		TokenSecret: token.Secret,
		Stage:       token.Stage,
		SavedAt:     now.UTC(),
	}
}

func (r TokenRecord) DelegatedToken() DelegatedToken {
	stage := r.Stage
	if !stage.Valid() {
		stage = TokenStageUnverified
	}
	return DelegatedToken{
		Token:  r.Token,
		Secret: r.TokenSecret,
		Stage:  stage,
	}
}

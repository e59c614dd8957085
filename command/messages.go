package command

import (
	"strings"

	"github.com/goliatone/go-scoopit/core"
)

const (
	TypeAcquireRequestToken = "scoopit.command.request_token.acquire"
	TypeExchangeAccessToken = "scoopit.command.access_token.exchange"
	TypePersistToken        = "scoopit.command.token.persist"
	TypeRestoreToken        = "scoopit.command.token.restore"
)

type AcquireRequestTokenMessage struct{}

func (AcquireRequestTokenMessage) Type() string { return TypeAcquireRequestToken }

func (AcquireRequestTokenMessage) Validate() error { return nil }

type ExchangeAccessTokenMessage struct {
	Verifier string
}

func (ExchangeAccessTokenMessage) Type() string { return TypeExchangeAccessToken }

func (m ExchangeAccessTokenMessage) Validate() error {
	if strings.TrimSpace(m.Verifier) == "" {
		return commandValidationError("verifier", "verifier is required")
	}
	return nil
}

// PersistTokenMessage saves the current token under Destination. A nil Store
// falls back to the client's configured store.
type PersistTokenMessage struct {
	Store       core.TokenStore
	Destination string
}

func (PersistTokenMessage) Type() string { return TypePersistToken }

func (m PersistTokenMessage) Validate() error {
	if strings.TrimSpace(m.Destination) == "" {
		return commandValidationError("destination", "destination is required")
	}
	return nil
}

type RestoreTokenMessage struct {
	Store  core.TokenStore
	Source string
}

func (RestoreTokenMessage) Type() string { return TypeRestoreToken }

func (m RestoreTokenMessage) Validate() error {
	if strings.TrimSpace(m.Source) == "" {
		return commandValidationError("source", "source is required")
	}
	return nil
}

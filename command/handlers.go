package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-scoopit/core"
)

// TokenService is the handshake and persistence surface of core.Client.
type TokenService interface {
	AcquireRequestToken(ctx context.Context) (core.DelegatedToken, error)
	ExchangeAccessToken(ctx context.Context, verifier string) (core.DelegatedToken, error)
	Persist(ctx context.Context, store core.TokenStore, destination string) error
	Restore(ctx context.Context, store core.TokenStore, source string) (core.DelegatedToken, error)
}

type AcquireRequestTokenCommand struct {
	service TokenService
}

func NewAcquireRequestTokenCommand(service TokenService) *AcquireRequestTokenCommand {
	return &AcquireRequestTokenCommand{service: service}
}

func (c *AcquireRequestTokenCommand) Execute(ctx context.Context, _ AcquireRequestTokenMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	out, err := c.service.AcquireRequestToken(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ExchangeAccessTokenCommand struct {
	service TokenService
}

func NewExchangeAccessTokenCommand(service TokenService) *ExchangeAccessTokenCommand {
	return &ExchangeAccessTokenCommand{service: service}
}

func (c *ExchangeAccessTokenCommand) Execute(ctx context.Context, msg ExchangeAccessTokenMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.ExchangeAccessToken(ctx, msg.Verifier)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type PersistTokenCommand struct {
	service TokenService
}

func NewPersistTokenCommand(service TokenService) *PersistTokenCommand {
	return &PersistTokenCommand{service: service}
}

func (c *PersistTokenCommand) Execute(ctx context.Context, msg PersistTokenMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.service.Persist(ctx, msg.Store, msg.Destination)
}

type RestoreTokenCommand struct {
	service TokenService
}

func NewRestoreTokenCommand(service TokenService) *RestoreTokenCommand {
	return &RestoreTokenCommand{service: service}
}

func (c *RestoreTokenCommand) Execute(ctx context.Context, msg RestoreTokenMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.Restore(ctx, msg.Store, msg.Source)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}

package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-scoopit/api"
	"github.com/goliatone/go-scoopit/core"
)

var (
	_ gocmd.Commander[AcquireRequestTokenMessage] = (*AcquireRequestTokenCommand)(nil)
	_ gocmd.Commander[ExchangeAccessTokenMessage] = (*ExchangeAccessTokenCommand)(nil)
	_ gocmd.Commander[PersistTokenMessage]        = (*PersistTokenCommand)(nil)
	_ gocmd.Commander[RestoreTokenMessage]        = (*RestoreTokenCommand)(nil)
	_ gocmd.Commander[TopicActionMessage]         = (*TopicActionCommand)(nil)
	_ gocmd.Commander[PostActionMessage]          = (*PostActionCommand)(nil)

	_ TokenService = (*core.Client)(nil)
	_ Actor        = (*api.Client)(nil)
)

package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-scoopit/api"
	"github.com/goliatone/go-scoopit/core"
)

var (
	_ gocmd.Querier[AuthorizationURLMessage, string]          = (*AuthorizationURLQuery)(nil)
	_ gocmd.Querier[ProfileMessage, *api.User]                = (*ProfileQuery)(nil)
	_ gocmd.Querier[TopicMessage, *api.Topic]                 = (*TopicQuery)(nil)
	_ gocmd.Querier[PostMessage, *api.Post]                   = (*PostQuery)(nil)
	_ gocmd.Querier[NotificationsMessage, []api.Notification] = (*NotificationsQuery)(nil)
	_ gocmd.Querier[CompilationMessage, []api.Post]           = (*CompilationQuery)(nil)
	_ gocmd.Querier[ResolveMessage, int64]                    = (*ResolveQuery)(nil)

	_ AuthorizationURLBuilder = (*core.Client)(nil)
	_ Reader                  = (*api.Client)(nil)
)

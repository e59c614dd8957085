package scoopit

import (
	"fmt"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/runner"
	"github.com/goliatone/go-scoopit/adapters/gocommand"
	"github.com/goliatone/go-scoopit/api"
	scoopitcommand "github.com/goliatone/go-scoopit/command"
	scoopitquery "github.com/goliatone/go-scoopit/query"
)

type Commands struct {
	AcquireRequestToken *scoopitcommand.AcquireRequestTokenCommand
	ExchangeAccessToken *scoopitcommand.ExchangeAccessTokenCommand
	PersistToken        *scoopitcommand.PersistTokenCommand
	RestoreToken        *scoopitcommand.RestoreTokenCommand
	TopicAction         *scoopitcommand.TopicActionCommand
	PostAction          *scoopitcommand.PostActionCommand
}

type Queries struct {
	AuthorizationURL *scoopitquery.AuthorizationURLQuery
	Profile          *scoopitquery.ProfileQuery
	Topic            *scoopitquery.TopicQuery
	Post             *scoopitquery.PostQuery
	Notifications    *scoopitquery.NotificationsQuery
	Compilation      *scoopitquery.CompilationQuery
	Resolve          *scoopitquery.ResolveQuery
}

// Facade exposes a Client and its API as go-command handlers.
type Facade struct {
	client   *Client
	api      *API
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	apiOptions []api.Option
}

// WithAPIOptions forwards options to the api.Client built by NewFacade.
func WithAPIOptions(opts ...api.Option) FacadeOption {
	return func(options *facadeOptions) {
		options.apiOptions = append(options.apiOptions, opts...)
	}
}

func NewFacade(client *Client, opts ...FacadeOption) (*Facade, error) {
	if client == nil {
		return nil, fmt.Errorf("scoopit: client is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	apiClient, err := api.New(client, cfg.apiOptions...)
	if err != nil {
		return nil, err
	}

	facade := &Facade{client: client, api: apiClient}
	facade.commands = Commands{
		AcquireRequestToken: scoopitcommand.NewAcquireRequestTokenCommand(client),
		ExchangeAccessToken: scoopitcommand.NewExchangeAccessTokenCommand(client),
		PersistToken:        scoopitcommand.NewPersistTokenCommand(client),
		RestoreToken:        scoopitcommand.NewRestoreTokenCommand(client),
		TopicAction:         scoopitcommand.NewTopicActionCommand(apiClient),
		PostAction:          scoopitcommand.NewPostActionCommand(apiClient),
	}
	facade.queries = Queries{
		AuthorizationURL: scoopitquery.NewAuthorizationURLQuery(client),
		Profile:          scoopitquery.NewProfileQuery(apiClient),
		Topic:            scoopitquery.NewTopicQuery(apiClient),
		Post:             scoopitquery.NewPostQuery(apiClient),
		Notifications:    scoopitquery.NewNotificationsQuery(apiClient),
		Compilation:      scoopitquery.NewCompilationQuery(apiClient),
		Resolve:          scoopitquery.NewResolveQuery(apiClient),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Client() *Client {
	if f == nil {
		return nil
	}
	return f.client
}

func (f *Facade) API() *API {
	if f == nil {
		return nil
	}
	return f.api
}

// Register adds every command to the registry and subscribes commands and
// queries with the dispatcher. On failure the subscriptions made so far are
// dropped.
func (f *Facade) Register(adapter *gocommand.RegistryAdapter, runnerOpts ...runner.Option) (gocommand.Subscriptions, error) {
	if f == nil {
		return nil, fmt.Errorf("scoopit: facade is nil")
	}
	if adapter == nil {
		return nil, fmt.Errorf("scoopit: registry adapter is required")
	}

	subs := gocommand.Subscriptions{}
	c := f.commands
	registrations := []func() error{
		func() error { return registerCommand(adapter, &subs, c.AcquireRequestToken, runnerOpts) },
		func() error { return registerCommand(adapter, &subs, c.ExchangeAccessToken, runnerOpts) },
		func() error { return registerCommand(adapter, &subs, c.PersistToken, runnerOpts) },
		func() error { return registerCommand(adapter, &subs, c.RestoreToken, runnerOpts) },
		func() error { return registerCommand(adapter, &subs, c.TopicAction, runnerOpts) },
		func() error { return registerCommand(adapter, &subs, c.PostAction, runnerOpts) },
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			subs.Unsubscribe()
			return nil, err
		}
	}

	q := f.queries
	subs = append(subs,
		gocommand.SubscribeQuery(q.AuthorizationURL, runnerOpts...),
		gocommand.SubscribeQuery(q.Profile, runnerOpts...),
		gocommand.SubscribeQuery(q.Topic, runnerOpts...),
		gocommand.SubscribeQuery(q.Post, runnerOpts...),
		gocommand.SubscribeQuery(q.Notifications, runnerOpts...),
		gocommand.SubscribeQuery(q.Compilation, runnerOpts...),
		gocommand.SubscribeQuery(q.Resolve, runnerOpts...),
	)
	return subs, nil
}

func registerCommand[T any](
	adapter *gocommand.RegistryAdapter,
	subs *gocommand.Subscriptions,
	cmd gocmd.Commander[T],
	runnerOpts []runner.Option,
) error {
	sub, err := gocommand.RegisterAndSubscribe(adapter, cmd, runnerOpts...)
	if err != nil {
		return err
	}
	*subs = append(*subs, sub)
	return nil
}

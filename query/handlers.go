package query

import (
	"context"

	"github.com/goliatone/go-scoopit/api"
)

type AuthorizationURLBuilder interface {
	AuthorizationURL(callback string) (string, error)
}

// Reader is the read side of api.Client.
type Reader interface {
	Profile(ctx context.Context, opts api.ProfileOptions) (*api.User, error)
	Topic(ctx context.Context, opts api.TopicOptions) (*api.Topic, error)
	Post(ctx context.Context, id int64) (*api.Post, error)
	Notifications(ctx context.Context, since *api.Timestamp) ([]api.Notification, error)
	Compilation(ctx context.Context, since api.Timestamp, count int) ([]api.Post, error)
	Resolve(ctx context.Context, entity string, shortName string) (int64, error)
}

type AuthorizationURLQuery struct {
	builder AuthorizationURLBuilder
}

func NewAuthorizationURLQuery(builder AuthorizationURLBuilder) *AuthorizationURLQuery {
	return &AuthorizationURLQuery{builder: builder}
}

func (q *AuthorizationURLQuery) Query(_ context.Context, msg AuthorizationURLMessage) (string, error) {
	if q == nil || q.builder == nil {
		return "", queryDependencyError("query: authorization url builder is required")
	}
	return q.builder.AuthorizationURL(msg.Callback)
}

type ProfileQuery struct {
	reader Reader
}

func NewProfileQuery(reader Reader) *ProfileQuery {
	return &ProfileQuery{reader: reader}
}

func (q *ProfileQuery) Query(ctx context.Context, msg ProfileMessage) (*api.User, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: api reader is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return q.reader.Profile(ctx, msg.Options)
}

type TopicQuery struct {
	reader Reader
}

func NewTopicQuery(reader Reader) *TopicQuery {
	return &TopicQuery{reader: reader}
}

func (q *TopicQuery) Query(ctx context.Context, msg TopicMessage) (*api.Topic, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: api reader is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return q.reader.Topic(ctx, msg.Options)
}

type PostQuery struct {
	reader Reader
}

func NewPostQuery(reader Reader) *PostQuery {
	return &PostQuery{reader: reader}
}

func (q *PostQuery) Query(ctx context.Context, msg PostMessage) (*api.Post, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: api reader is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return q.reader.Post(ctx, msg.ID)
}

type NotificationsQuery struct {
	reader Reader
}

func NewNotificationsQuery(reader Reader) *NotificationsQuery {
	return &NotificationsQuery{reader: reader}
}

func (q *NotificationsQuery) Query(ctx context.Context, msg NotificationsMessage) ([]api.Notification, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: api reader is required")
	}
	return q.reader.Notifications(ctx, msg.Since)
}

type CompilationQuery struct {
	reader Reader
}

func NewCompilationQuery(reader Reader) *CompilationQuery {
	return &CompilationQuery{reader: reader}
}

func (q *CompilationQuery) Query(ctx context.Context, msg CompilationMessage) ([]api.Post, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: api reader is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return q.reader.Compilation(ctx, msg.Since, msg.Count)
}

type ResolveQuery struct {
	reader Reader
}

func NewResolveQuery(reader Reader) *ResolveQuery {
	return &ResolveQuery{reader: reader}
}

func (q *ResolveQuery) Query(ctx context.Context, msg ResolveMessage) (int64, error) {
	if q == nil || q.reader == nil {
		return 0, queryDependencyError("query: api reader is required")
	}
	if err := msg.Validate(); err != nil {
		return 0, err
	}
	return q.reader.Resolve(ctx, msg.Entity, msg.ShortName)
}

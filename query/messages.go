package query

import (
	"strings"

	"github.com/goliatone/go-scoopit/api"
)

const (
	TypeAuthorizationURL = "scoopit.query.authorization_url"
	TypeProfile          = "scoopit.query.profile"
	TypeTopic            = "scoopit.query.topic"
	TypePost             = "scoopit.query.post"
	TypeNotifications    = "scoopit.query.notifications"
	TypeCompilation      = "scoopit.query.compilation"
	TypeResolve          = "scoopit.query.resolve"
)

// AuthorizationURLMessage builds the browser URL for the current request
// token. An empty Callback leaves oauth_callback out.
type AuthorizationURLMessage struct {
	Callback string
}

func (AuthorizationURLMessage) Type() string { return TypeAuthorizationURL }

func (AuthorizationURLMessage) Validate() error { return nil }

type ProfileMessage struct {
	Options api.ProfileOptions
}

func (ProfileMessage) Type() string { return TypeProfile }

func (m ProfileMessage) Validate() error {
	if m.Options.ID < 0 {
		return queryValidationError("id", "id must be positive")
	}
	if m.Options.ID != 0 && m.Options.Curable != nil {
		return queryValidationError("curable", "curable cannot be combined with id")
	}
	return nil
}

type TopicMessage struct {
	Options api.TopicOptions
}

func (TopicMessage) Type() string { return TypeTopic }

func (m TopicMessage) Validate() error {
	if m.Options.ID <= 0 {
		return queryValidationError("id", "topic id is required")
	}
	return nil
}

type PostMessage struct {
	ID int64
}

func (PostMessage) Type() string { return TypePost }

func (m PostMessage) Validate() error {
	if m.ID <= 0 {
		return queryValidationError("id", "post id is required")
	}
	return nil
}

type NotificationsMessage struct {
	Since *api.Timestamp
}

func (NotificationsMessage) Type() string { return TypeNotifications }

func (NotificationsMessage) Validate() error { return nil }

type CompilationMessage struct {
	Since api.Timestamp
	Count int
}

func (CompilationMessage) Type() string { return TypeCompilation }

func (m CompilationMessage) Validate() error {
	if m.Count <= 0 {
		return queryValidationError("count", "count must be positive")
	}
	return nil
}

type ResolveMessage struct {
	Entity    string
	ShortName string
}

func (ResolveMessage) Type() string { return TypeResolve }

func (m ResolveMessage) Validate() error {
	switch strings.ToLower(strings.TrimSpace(m.Entity)) {
	case api.ResolveUser, api.ResolveTopic:
	default:
		return queryValidationError("entity", "entity must be user or topic")
	}
	if strings.TrimSpace(m.ShortName) == "" {
		return queryValidationError("short_name", "short name is required")
	}
	return nil
}

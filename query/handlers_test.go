package query

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-scoopit/api"
	"github.com/goliatone/go-scoopit/auth"
	"github.com/goliatone/go-scoopit/core"
	"github.com/goliatone/go-scoopit/devkit"
)

type stubReader struct {
	profileFn       func(context.Context, api.ProfileOptions) (*api.User, error)
	topicFn         func(context.Context, api.TopicOptions) (*api.Topic, error)
	postFn          func(context.Context, int64) (*api.Post, error)
	notificationsFn func(context.Context, *api.Timestamp) ([]api.Notification, error)
	compilationFn   func(context.Context, api.Timestamp, int) ([]api.Post, error)
	resolveFn       func(context.Context, string, string) (int64, error)
}

func (s stubReader) Profile(ctx context.Context, opts api.ProfileOptions) (*api.User, error) {
	return s.profileFn(ctx, opts)
}

func (s stubReader) Topic(ctx context.Context, opts api.TopicOptions) (*api.Topic, error) {
	return s.topicFn(ctx, opts)
}

func (s stubReader) Post(ctx context.Context, id int64) (*api.Post, error) {
	return s.postFn(ctx, id)
}

func (s stubReader) Notifications(ctx context.Context, since *api.Timestamp) ([]api.Notification, error) {
	return s.notificationsFn(ctx, since)
}

func (s stubReader) Compilation(ctx context.Context, since api.Timestamp, count int) ([]api.Post, error) {
	return s.compilationFn(ctx, since, count)
}

func (s stubReader) Resolve(ctx context.Context, entity string, shortName string) (int64, error) {
	return s.resolveFn(ctx, entity, shortName)
}

type stubURLBuilder struct {
	url string
}

func (s stubURLBuilder) AuthorizationURL(callback string) (string, error) {
	return s.url + "&oauth_callback=" + url.QueryEscape(callback), nil
}

func TestAuthorizationURLQuery_QueryDelegates(t *testing.T) {
	qry := NewAuthorizationURLQuery(stubURLBuilder{url: "https://provider.example/authorize?oauth_token=T1"})
	result, err := qry.Query(context.Background(), AuthorizationURLMessage{Callback: "http://cb"})
	if err != nil {
		t.Fatalf("query authorization url: %v", err)
	}
	if result != "https://provider.example/authorize?oauth_token=T1&oauth_callback=http%3A%2F%2Fcb" {
		t.Fatalf("unexpected authorization url: %q", result)
	}
}

func TestProfileQuery_QueryDelegates(t *testing.T) {
	called := false
	reader := stubReader{
		profileFn: func(_ context.Context, opts api.ProfileOptions) (*api.User, error) {
			called = true
			if opts.ID != 7 || opts.Curated == nil || *opts.Curated != 3 {
				t.Fatalf("unexpected profile options: %#v", opts)
			}
			return &api.User{ID: 7, ShortName: "ada"}, nil
		},
	}

	result, err := NewProfileQuery(reader).Query(context.Background(), ProfileMessage{
		Options: api.ProfileOptions{ID: 7, Curated: api.Count(3)},
	})
	if err != nil {
		t.Fatalf("query profile: %v", err)
	}
	if !called {
		t.Fatalf("expected profile reader invocation")
	}
	if result.ShortName != "ada" {
		t.Fatalf("unexpected profile result: %#v", result)
	}
}

func TestTopicAndPostQueries_QueryDelegates(t *testing.T) {
	reader := stubReader{
		topicFn: func(_ context.Context, opts api.TopicOptions) (*api.Topic, error) {
			if opts.ID != 9 || opts.Order != api.TopicOrderUser {
				t.Fatalf("unexpected topic options: %#v", opts)
			}
			return &api.Topic{ID: 9}, nil
		},
		postFn: func(_ context.Context, id int64) (*api.Post, error) {
			return &api.Post{ID: id}, nil
		},
	}

	topic, err := NewTopicQuery(reader).Query(context.Background(), TopicMessage{
		Options: api.TopicOptions{ID: 9, Order: api.TopicOrderUser},
	})
	if err != nil {
		t.Fatalf("query topic: %v", err)
	}
	if topic.ID != 9 {
		t.Fatalf("unexpected topic result: %#v", topic)
	}

	post, err := NewPostQuery(reader).Query(context.Background(), PostMessage{ID: 12})
	if err != nil {
		t.Fatalf("query post: %v", err)
	}
	if post.ID != 12 {
		t.Fatalf("unexpected post result: %#v", post)
	}
}

func TestNotificationsCompilationResolveQueries(t *testing.T) {
	since := api.Timestamp(1700000000)
	reader := stubReader{
		notificationsFn: func(_ context.Context, got *api.Timestamp) ([]api.Notification, error) {
			if got == nil || *got != since {
				t.Fatalf("unexpected since: %v", got)
			}
			return []api.Notification{{ID: 1}, {ID: 2}}, nil
		},
		compilationFn: func(_ context.Context, got api.Timestamp, count int) ([]api.Post, error) {
			if got != since || count != 5 {
				t.Fatalf("unexpected compilation args: %d %d", got, count)
			}
			return []api.Post{{ID: 3}}, nil
		},
		resolveFn: func(_ context.Context, entity string, shortName string) (int64, error) {
			if entity != "Topic" || shortName != "golang" {
				t.Fatalf("unexpected resolve args: %q %q", entity, shortName)
			}
			return 42, nil
		},
	}

	notifications, err := NewNotificationsQuery(reader).Query(context.Background(), NotificationsMessage{Since: &since})
	if err != nil {
		t.Fatalf("query notifications: %v", err)
	}
	if len(notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notifications))
	}

	posts, err := NewCompilationQuery(reader).Query(context.Background(), CompilationMessage{Since: since, Count: 5})
	if err != nil {
		t.Fatalf("query compilation: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != 3 {
		t.Fatalf("unexpected compilation result: %#v", posts)
	}

	id, err := NewResolveQuery(reader).Query(context.Background(), ResolveMessage{Entity: "Topic", ShortName: "golang"})
	if err != nil {
		t.Fatalf("query resolve: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}
}

func TestResolveMessage_ValidateReturnsRichError(t *testing.T) {
	err := (ResolveMessage{Entity: "post", ShortName: "x"}).Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.TextCode != core.ErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.ErrorBadInput, rich.TextCode)
	}
	if rich.Code != http.StatusBadRequest {
		t.Fatalf("expected %d code, got %d", http.StatusBadRequest, rich.Code)
	}
	validation := rich.AllValidationErrors()
	if len(validation) == 0 {
		t.Fatalf("expected validation errors in envelope")
	}
	if validation[0].Field != "entity" {
		t.Fatalf("expected entity validation field, got %q", validation[0].Field)
	}
}

func TestQueries_RejectInvalidMessagesBeforeReader(t *testing.T) {
	reader := stubReader{}
	if _, err := NewPostQuery(reader).Query(context.Background(), PostMessage{}); err == nil {
		t.Fatalf("expected missing post id to fail")
	}
	if _, err := NewTopicQuery(reader).Query(context.Background(), TopicMessage{}); err == nil {
		t.Fatalf("expected missing topic id to fail")
	}
	if _, err := NewCompilationQuery(reader).Query(context.Background(), CompilationMessage{}); err == nil {
		t.Fatalf("expected non-positive count to fail")
	}
	if _, err := NewProfileQuery(reader).Query(context.Background(), ProfileMessage{
		Options: api.ProfileOptions{ID: 1, Curable: api.Count(1)},
	}); err == nil {
		t.Fatalf("expected exclusive profile options to fail")
	}
	if _, err := NewResolveQuery(reader).Query(context.Background(), ResolveMessage{Entity: "user"}); err == nil {
		t.Fatalf("expected missing short name to fail")
	}
}

func TestQueries_NilReaderReturnsRichError(t *testing.T) {
	var q *ProfileQuery
	_, err := q.Query(context.Background(), ProfileMessage{})
	if err == nil {
		t.Fatalf("expected dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
	if rich.TextCode != core.ErrorInternal {
		t.Fatalf("expected %q text code, got %q", core.ErrorInternal, rich.TextCode)
	}
	if _, err := NewAuthorizationURLQuery(nil).Query(context.Background(), AuthorizationURLMessage{}); err == nil {
		t.Fatalf("expected nil builder to fail")
	}
}

func TestResolveQuery_OverAPIClient(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.ConsumerKey = "consumer-key"
	cfg.ConsumerSecret = "consumer-secret"
	transport := devkit.NewFakeTransport(devkit.JSONReply(http.StatusOK, `{"success":true,"id":"77"}`))
	oauth, err := core.NewClient(cfg,
		core.WithTransport(transport),
		core.WithSignatureMethod(auth.HMACSHA1{}),
		core.WithToken(core.DelegatedToken{Token: "A1", Secret: "AS1", Stage: core.TokenStageAccess}),
	)
	if err != nil {
		t.Fatalf("new oauth client: %v", err)
	}
	client, err := api.New(oauth)
	if err != nil {
		t.Fatalf("new api client: %v", err)
	}

	id, err := NewResolveQuery(client).Query(context.Background(), ResolveMessage{Entity: "user", ShortName: "ada"})
	if err != nil {
		t.Fatalf("query resolve: %v", err)
	}
	if id != 77 {
		t.Fatalf("expected id 77, got %d", id)
	}
	req, ok := transport.LastRequest()
	if !ok {
		t.Fatalf("expected a request")
	}
	params, err := devkit.RequestParams(req)
	if err != nil {
		t.Fatalf("request params: %v", err)
	}
	if params.Get("shortName") != "ada" || params.Get("type") != "user" {
		t.Fatalf("unexpected request params: %v", params)
	}
	if !strings.Contains(req.Headers["Authorization"], `oauth_token="A1"`) {
		t.Fatalf("expected signed authorization header, got %q", req.Headers["Authorization"])
	}
}

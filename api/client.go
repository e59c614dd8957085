// Package api exposes the Scoop.it application endpoints on top of a signed
// core.Client. Each call decodes the JSON envelope and turns success=false
// into a business error.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-scoopit/core"
)

const (
	TopicOrderTag          = "tag"
	TopicOrderCurationDate = "curationDate"
	TopicOrderUser         = "user"

	ResolveUser  = "user"
	ResolveTopic = "topic"
)

type Option func(*Client)

// WithBaseURL overrides the API base URL taken from the client config.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

type Client struct {
	oauth   *core.Client
	baseURL string
}

func New(oauth *core.Client, opts ...Option) (*Client, error) {
	if oauth == nil {
		return nil, fmt.Errorf("api: oauth client is required")
	}
	client := &Client{
		oauth:   oauth,
		baseURL: oauth.Config().Endpoints.APIBaseURL,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(client)
	}
	if strings.TrimSpace(client.baseURL) == "" {
		client.baseURL = core.DefaultAPIBaseURL
	}
	return client, nil
}

func (c *Client) OAuth() *core.Client {
	if c == nil {
		return nil
	}
	return c.oauth
}

type ProfileOptions struct {
	// ID selects another user's profile. Zero means the current user.
	ID      int64
	Curated *int
	Curable *int
}

// Profile returns the user's profile. ID and Curable are exclusive.
func (c *Client) Profile(ctx context.Context, opts ProfileOptions) (*User, error) {
	if opts.ID != 0 && opts.Curable != nil {
		return nil, core.NewBadInputError("api: profile id and curable options are exclusive")
	}
	params := core.Params{}
	if opts.ID != 0 {
		params.Set("id", formatID(opts.ID))
	}
	setCount(&params, "curated", opts.Curated)
	setCount(&params, "curable", opts.Curable)

	envelope, err := c.call(ctx, EndpointProfile, params, http.MethodGet)
	if err != nil {
		return nil, err
	}
	raw, err := envelope.field("user")
	if err != nil {
		return nil, err
	}
	return decodeResponse(envelope, raw, DecodeUser)
}

type TopicOptions struct {
	ID      int64
	Curated *int
	Curable *int
	Order   string
	Tag     string
	Since   *Timestamp
}

func (o TopicOptions) validate() error {
	if o.ID == 0 {
		return core.NewBadInputError("api: topic id is required")
	}
	if o.Curated != nil && o.Curable != nil {
		return core.NewBadInputError("api: curated and curable options are exclusive")
	}
	if o.Since == nil && o.Order == "" {
		return core.NewBadInputError("api: at least order or since must be specified")
	}
	switch o.Order {
	case "", TopicOrderTag, TopicOrderCurationDate, TopicOrderUser:
	default:
		return core.NewBadInputError("api: order can only be 'tag', 'curationDate', or 'user'")
	}
	if o.Order == TopicOrderTag && strings.TrimSpace(o.Tag) == "" {
		return core.NewBadInputError("api: tag must be specified if order is 'tag'")
	}
	return nil
}

// Topic returns a topic with its posts and the stats attached.
func (c *Client) Topic(ctx context.Context, opts TopicOptions) (*Topic, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	params := core.NewParams("id", formatID(opts.ID))
	setCount(&params, "curated", opts.Curated)
	setCount(&params, "curable", opts.Curable)
	if opts.Order != "" {
		params.Set("order", opts.Order)
	}
	if opts.Tag != "" {
		params.Set("tag", opts.Tag)
	}
	if opts.Since != nil {
		params.Set("since", opts.Since.Param())
	}

	envelope, err := c.call(ctx, EndpointTopic, params, http.MethodGet)
	if err != nil {
		return nil, err
	}
	raw, err := envelope.field("topic")
	if err != nil {
		return nil, err
	}
	topic, err := decodeResponse(envelope, raw, DecodeTopic)
	if err != nil {
		return nil, err
	}
	if rawStats, ok := envelope.fields["stats"]; ok && !isNull(rawStats) {
		stats, err := decodeResponse(envelope, rawStats, DecodeTopicStats)
		if err != nil {
			return nil, err
		}
		topic.Stats = stats
	}
	return topic, nil
}

func (c *Client) Post(ctx context.Context, id int64) (*Post, error) {
	if id == 0 {
		return nil, core.NewBadInputError("api: post id is required")
	}
	envelope, err := c.call(ctx, EndpointPost, core.NewParams("id", formatID(id)), http.MethodGet)
	if err != nil {
		return nil, err
	}
	return decodeResponse(envelope, envelope.payload(), DecodePost)
}

// Notifications lists notifications for the current user, newer than since
// when it is set.
func (c *Client) Notifications(ctx context.Context, since *Timestamp) ([]Notification, error) {
	params := core.Params{}
	if since != nil {
		params.Set("since", since.Param())
	}
	envelope, err := c.call(ctx, EndpointNotifications, params, http.MethodGet)
	if err != nil {
		return nil, err
	}
	raw, err := envelope.field("notifications")
	if err != nil {
		return nil, err
	}
	return decodeListResponse(envelope, raw, DecodeNotification)
}

// Compilation returns up to count posts from the topics the user follows,
// ordered by date.
func (c *Client) Compilation(ctx context.Context, since Timestamp, count int) ([]Post, error) {
	if count <= 0 {
		return nil, core.NewBadInputError("api: compilation count must be positive")
	}
	params := core.NewParams("since", since.Param(), "count", strconv.Itoa(count))
	envelope, err := c.call(ctx, EndpointCompilation, params, http.MethodGet)
	if err != nil {
		return nil, err
	}
	raw, err := envelope.field("posts")
	if err != nil {
		return nil, err
	}
	return decodeListResponse(envelope, raw, DecodePost)
}

// Resolve maps a user or topic short name to its id.
func (c *Client) Resolve(ctx context.Context, entity string, shortName string) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(entity)) {
	case ResolveUser, ResolveTopic:
	default:
		return 0, core.NewBadInputError("api: entity value can only be 'User' or 'Topic'")
	}
	if strings.TrimSpace(shortName) == "" {
		return 0, core.NewBadInputError("api: short name is required")
	}
	params := core.NewParams("type", entity, "shortName", shortName)
	envelope, err := c.call(ctx, EndpointResolver, params, http.MethodGet)
	if err != nil {
		return 0, err
	}
	raw, err := envelope.field("id")
	if err != nil {
		return 0, err
	}
	id, err := decodeInt64(raw)
	if err != nil {
		return 0, NewBadResponseError(envelope.status, err)
	}
	return id, nil
}

// Test calls the test endpoint with the current token.
func (c *Client) Test(ctx context.Context) error {
	_, err := c.call(ctx, EndpointTest, core.Params{}, http.MethodGet)
	return err
}

func (c *Client) FollowTopic(ctx context.Context, id int64) error {
	return c.topicAction(ctx, actionFollow, id)
}

func (c *Client) UnfollowTopic(ctx context.Context, id int64) error {
	return c.topicAction(ctx, actionUnfollow, id)
}

func (c *Client) MarkTopicRead(ctx context.Context, id int64) error {
	return c.topicAction(ctx, actionMarkRead, id)
}

func (c *Client) ThankPost(ctx context.Context, id int64) error {
	return c.postAction(ctx, actionThank, id, core.Params{})
}

func (c *Client) CommentPost(ctx context.Context, id int64, text string) error {
	if strings.TrimSpace(text) == "" {
		return core.NewBadInputError("api: comment text is required")
	}
	return c.postAction(ctx, actionComment, id, core.NewParams("commentText", text))
}

func (c *Client) topicAction(ctx context.Context, action string, id int64) error {
	if id == 0 {
		return core.NewBadInputError("api: topic id is required")
	}
	params := core.NewParams("action", action, "id", formatID(id))
	_, err := c.call(ctx, EndpointTopic, params, http.MethodPost)
	return err
}

func (c *Client) postAction(ctx context.Context, action string, id int64, extra core.Params) error {
	if id == 0 {
		return core.NewBadInputError("api: post id is required")
	}
	params := core.NewParams("action", action, "id", formatID(id)).Merge(extra)
	_, err := c.call(ctx, EndpointPost, params, http.MethodPost)
	return err
}

// call issues one signed request and unwraps the envelope.
func (c *Client) call(ctx context.Context, endpoint string, params core.Params, method string) (envelope, error) {
	if c == nil || c.oauth == nil {
		return envelope{}, fmt.Errorf("api: client is not configured")
	}
	token := c.oauth.Token()
	if token.IsZero() {
		return envelope{}, core.NewTokenMissingError("api: an access token is required")
	}
	if token.Stage == core.TokenStageRequest {
		return envelope{}, core.NewTokenMissingError("api: request token must be exchanged before calling the API")
	}

	res, err := c.oauth.Request(ctx, EndpointURL(c.baseURL, endpoint), params, method)
	if err != nil {
		return envelope{}, err
	}
	return parseEnvelope(res)
}

type envelope struct {
	status int
	fields map[string]json.RawMessage
}

func parseEnvelope(res core.TransportResponse) (envelope, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(res.Body, &fields); err != nil {
		return envelope{}, NewBadResponseError(res.StatusCode, err)
	}
	rawSuccess, ok := fields["success"]
	if !ok {
		return envelope{}, NewBadResponseError(res.StatusCode, fmt.Errorf("api: envelope has no success field"))
	}
	var success bool
	if err := json.Unmarshal(rawSuccess, &success); err != nil {
		return envelope{}, NewBadResponseError(res.StatusCode, err)
	}
	if !success {
		var providerError string
		if rawError, ok := fields["error"]; ok {
			if err := json.Unmarshal(rawError, &providerError); err != nil {
				providerError = string(rawError)
			}
		}
		return envelope{}, NewBusinessError(res.StatusCode, providerError)
	}
	return envelope{status: res.StatusCode, fields: fields}, nil
}

func (e envelope) field(name string) (json.RawMessage, error) {
	raw, ok := e.fields[name]
	if !ok || isNull(raw) {
		return nil, NewBadResponseError(e.status, fmt.Errorf("api: envelope has no %q field", name))
	}
	return raw, nil
}

// payload returns the envelope without its success and error keys.
func (e envelope) payload() json.RawMessage {
	rest := make(map[string]json.RawMessage, len(e.fields))
	for key, value := range e.fields {
		if key == "success" || key == "error" {
			continue
		}
		rest[key] = value
	}
	encoded, _ := json.Marshal(rest)
	return encoded
}

func decodeResponse[E any](e envelope, raw json.RawMessage, decode func(json.RawMessage) (*E, error)) (*E, error) {
	out, err := decode(raw)
	if err != nil {
		return nil, NewBadResponseError(e.status, err)
	}
	return out, nil
}

func decodeListResponse[E any](e envelope, raw json.RawMessage, decode func(json.RawMessage) (*E, error)) ([]E, error) {
	out, err := decodeList(raw, decode)
	if err != nil {
		return nil, NewBadResponseError(e.status, err)
	}
	return out, nil
}

func setCount(params *core.Params, key string, value *int) {
	if value == nil {
		return
	}
	params.Set(key, strconv.Itoa(*value))
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Count is a convenience for the optional count fields of the options.
func Count(value int) *int {
	return &value
}

package api

import "encoding/json"

type Kind string

const (
	KindUser             Kind = "user"
	KindSharer           Kind = "sharer"
	KindTopic            Kind = "topic"
	KindTopicTag         Kind = "topic_tag"
	KindTopicStats       Kind = "topic_stats"
	KindPost             Kind = "post"
	KindPostComment      Kind = "post_comment"
	KindSource           Kind = "source"
	KindNotification     Kind = "notification"
	KindNotificationType Kind = "notification_type"
)

// Entity is implemented by every decoded API object.
type Entity interface {
	Kind() Kind
}

type User struct {
	ID              int64
	Name            string
	ShortName       string
	Bio             string
	SmallAvatarURL  string
	MediumAvatarURL string
	LargeAvatarURL  string
	Sharers         []Sharer
	CuratedTopics   []Topic
	FollowedTopics  []Topic
	Extra           map[string]any
}

func (User) Kind() Kind { return KindUser }

// Sharer is an account on a publishing service linked by the user.
type Sharer struct {
	SharerID   string
	SharerName string
	Name       string
	Extra      map[string]any
}

func (Sharer) Kind() Kind { return KindSharer }

type Topic struct {
	ID               int64
	Name             string
	ShortName        string
	Description      string
	ImageURL         string
	URL              string
	Lang             string
	Creator          *User
	PinnedPost       *Post
	CurablePostCount int
	UnreadPostCount  int
	CuratedPostCount int
	CurablePosts     []Post
	CuratedPosts     []Post
	Tags             []TopicTag
	Stats            *TopicStats
	Extra            map[string]any
}

func (Topic) Kind() Kind { return KindTopic }

type TopicTag struct {
	Tag       string
	PostCount int
	Extra     map[string]any
}

func (TopicTag) Kind() Kind { return KindTopicTag }

type TopicStats struct {
	CreatorName string
	UV          int
	UVP         int
	V           int
	VP          int
	Extra       map[string]any
}

func (TopicStats) Kind() Kind { return KindTopicStats }

type Post struct {
	ID              int64
	Title           string
	Content         string
	HTMLContent     string
	URL             string
	ScoopURL        string
	ImageURL        string
	TopicID         int64
	ThanksCount     int
	CommentsCount   int
	Thanked         bool
	PublicationDate Timestamp
	CurationDate    Timestamp
	Source          *Source
	Topic           *Topic
	Comments        []PostComment
	Tags            []string
	Extra           map[string]any
}

func (Post) Kind() Kind { return KindPost }

type PostComment struct {
	Author *User
	Text   string
	Date   Timestamp
	Extra  map[string]any
}

func (PostComment) Kind() Kind { return KindPostComment }

// Source is a feed that suggests content to curate.
type Source struct {
	ID          int64
	Name        string
	Description string
	Type        string
	URL         string
	IconURL     string
	Extra       map[string]any
}

func (Source) Kind() Kind { return KindSource }

type Notification struct {
	ID    int64
	Type  NotificationType
	Date  Timestamp
	User  *User
	Topic *Topic
	Post  *Post
	Extra map[string]any
}

func (Notification) Kind() Kind { return KindNotification }

// NotificationType is sent either as a bare name or as an object.
type NotificationType struct {
	Name  string
	Extra map[string]any
}

func (NotificationType) Kind() Kind { return KindNotificationType }

var (
	userFields             converterTable[User]
	sharerFields           converterTable[Sharer]
	topicFields            converterTable[Topic]
	topicTagFields         converterTable[TopicTag]
	topicStatsFields       converterTable[TopicStats]
	postFields             converterTable[Post]
	postCommentFields      converterTable[PostComment]
	sourceFields           converterTable[Source]
	notificationFields     converterTable[Notification]
	notificationTypeFields converterTable[NotificationType]
)

// The tables refer to each other's decoders, so they are filled in init.
func init() {
	userFields = converterTable[User]{
		"id":              int64Field(func(u *User) *int64 { return &u.ID }),
		"name":            stringField(func(u *User) *string { return &u.Name }),
		"shortName":       stringField(func(u *User) *string { return &u.ShortName }),
		"bio":             stringField(func(u *User) *string { return &u.Bio }),
		"smallAvatarUrl":  stringField(func(u *User) *string { return &u.SmallAvatarURL }),
		"mediumAvatarUrl": stringField(func(u *User) *string { return &u.MediumAvatarURL }),
		"largeAvatarUrl":  stringField(func(u *User) *string { return &u.LargeAvatarURL }),
		"sharers":         entityListField(func(u *User) *[]Sharer { return &u.Sharers }, DecodeSharer),
		"curatedTopics":   entityListField(func(u *User) *[]Topic { return &u.CuratedTopics }, DecodeTopic),
		"followedTopics":  entityListField(func(u *User) *[]Topic { return &u.FollowedTopics }, DecodeTopic),
	}
	sharerFields = converterTable[Sharer]{
		"sharerId":   stringField(func(s *Sharer) *string { return &s.SharerID }),
		"sharerName": stringField(func(s *Sharer) *string { return &s.SharerName }),
		"name":       stringField(func(s *Sharer) *string { return &s.Name }),
	}
	topicFields = converterTable[Topic]{
		"id":               int64Field(func(t *Topic) *int64 { return &t.ID }),
		"name":             stringField(func(t *Topic) *string { return &t.Name }),
		"shortName":        stringField(func(t *Topic) *string { return &t.ShortName }),
		"description":      stringField(func(t *Topic) *string { return &t.Description }),
		"imageUrl":         stringField(func(t *Topic) *string { return &t.ImageURL }),
		"url":              stringField(func(t *Topic) *string { return &t.URL }),
		"lang":             stringField(func(t *Topic) *string { return &t.Lang }),
		"creator":          entityField(func(t *Topic) **User { return &t.Creator }, DecodeUser),
		"pinnedPost":       entityField(func(t *Topic) **Post { return &t.PinnedPost }, DecodePost),
		"curablePostCount": intField(func(t *Topic) *int { return &t.CurablePostCount }),
		"unreadPostCount":  intField(func(t *Topic) *int { return &t.UnreadPostCount }),
		"curatedPostCount": intField(func(t *Topic) *int { return &t.CuratedPostCount }),
		"curablePosts":     entityListField(func(t *Topic) *[]Post { return &t.CurablePosts }, DecodePost),
		"curatedPosts":     entityListField(func(t *Topic) *[]Post { return &t.CuratedPosts }, DecodePost),
		"tags":             entityListField(func(t *Topic) *[]TopicTag { return &t.Tags }, DecodeTopicTag),
		"stats":            entityField(func(t *Topic) **TopicStats { return &t.Stats }, DecodeTopicStats),
	}
	topicTagFields = converterTable[TopicTag]{
		"tag":       stringField(func(t *TopicTag) *string { return &t.Tag }),
		"postCount": intField(func(t *TopicTag) *int { return &t.PostCount }),
	}
	topicStatsFields = converterTable[TopicStats]{
		"creatorName": stringField(func(s *TopicStats) *string { return &s.CreatorName }),
		"uv":          intField(func(s *TopicStats) *int { return &s.UV }),
		"uvp":         intField(func(s *TopicStats) *int { return &s.UVP }),
		"v":           intField(func(s *TopicStats) *int { return &s.V }),
		"vp":          intField(func(s *TopicStats) *int { return &s.VP }),
	}
	postFields = converterTable[Post]{
		"id":              int64Field(func(p *Post) *int64 { return &p.ID }),
		"title":           stringField(func(p *Post) *string { return &p.Title }),
		"content":         stringField(func(p *Post) *string { return &p.Content }),
		"htmlContent":     stringField(func(p *Post) *string { return &p.HTMLContent }),
		"url":             stringField(func(p *Post) *string { return &p.URL }),
		"scoopUrl":        stringField(func(p *Post) *string { return &p.ScoopURL }),
		"imageUrl":        stringField(func(p *Post) *string { return &p.ImageURL }),
		"topicId":         int64Field(func(p *Post) *int64 { return &p.TopicID }),
		"thanksCount":     intField(func(p *Post) *int { return &p.ThanksCount }),
		"commentsCount":   intField(func(p *Post) *int { return &p.CommentsCount }),
		"thanked":         boolField(func(p *Post) *bool { return &p.Thanked }),
		"publicationDate": timestampField(func(p *Post) *Timestamp { return &p.PublicationDate }),
		"curationDate":    timestampField(func(p *Post) *Timestamp { return &p.CurationDate }),
		"source":          entityField(func(p *Post) **Source { return &p.Source }, DecodeSource),
		"topic":           entityField(func(p *Post) **Topic { return &p.Topic }, DecodeTopic),
		"comments":        entityListField(func(p *Post) *[]PostComment { return &p.Comments }, DecodePostComment),
		"tags":            stringListField(func(p *Post) *[]string { return &p.Tags }),
	}
	postCommentFields = converterTable[PostComment]{
		"author": entityField(func(c *PostComment) **User { return &c.Author }, DecodeUser),
		"text":   stringField(func(c *PostComment) *string { return &c.Text }),
		"date":   timestampField(func(c *PostComment) *Timestamp { return &c.Date }),
	}
	sourceFields = converterTable[Source]{
		"id":          int64Field(func(s *Source) *int64 { return &s.ID }),
		"name":        stringField(func(s *Source) *string { return &s.Name }),
		"description": stringField(func(s *Source) *string { return &s.Description }),
		"type":        stringField(func(s *Source) *string { return &s.Type }),
		"url":         stringField(func(s *Source) *string { return &s.URL }),
		"iconUrl":     stringField(func(s *Source) *string { return &s.IconURL }),
	}
	notificationFields = converterTable[Notification]{
		"id":    int64Field(func(n *Notification) *int64 { return &n.ID }),
		"type":  notificationTypeField,
		"date":  timestampField(func(n *Notification) *Timestamp { return &n.Date }),
		"user":  entityField(func(n *Notification) **User { return &n.User }, DecodeUser),
		"topic": entityField(func(n *Notification) **Topic { return &n.Topic }, DecodeTopic),
		"post":  entityField(func(n *Notification) **Post { return &n.Post }, DecodePost),
	}
	notificationTypeFields = converterTable[NotificationType]{
		"name": stringField(func(n *NotificationType) *string { return &n.Name }),
	}
}

func notificationTypeField(n *Notification, raw json.RawMessage) error {
	decoded, err := DecodeNotificationType(raw)
	if err != nil {
		return err
	}
	n.Type = *decoded
	return nil
}

func DecodeUser(raw json.RawMessage) (*User, error) {
	out := &User{}
	extra, err := decodeWith(raw, userFields, out)
	if err != nil {
		return nil, err
	}
	out.Extra = extra
	return out, nil
}

func DecodeSharer(raw json.RawMessage) (*Sharer, error) {
	out := &Sharer{}
	extra, err := decodeWith(raw, sharerFields, out)
	if err != nil {
		return nil, err
	}
	out.Extra = extra
	return out, nil
}

func DecodeTopic(raw json.RawMessage) (*Topic, error) {
	out := &Topic{}
	extra, err := decodeWith(raw, topicFields, out)
	if err != nil {
		return nil, err
	}
	out.Extra = extra
	return out, nil
}

func DecodeTopicTag(raw json.RawMessage) (*TopicTag, error) {
	out := &TopicTag{}
	extra, err := decodeWith(raw, topicTagFields, out)
	if err != nil {
		return nil, err
	}
	out.Extra = extra
	return out, nil
}

func DecodeTopicStats(raw json.RawMessage) (*TopicStats, error) {
	out := &TopicStats{}
	extra, err := decodeWith(raw, topicStatsFields, out)
	if err != nil {
		return nil, err
	}
	out.Extra = extra
	return out, nil
}

func DecodePost(raw json.RawMessage) (*Post, error) {
	out := &Post{}
	extra, err := decodeWith(raw, postFields, out)
	if err != nil {
		return nil, err
	}
	out.Extra = extra
	return out, nil
}

func DecodePostComment(raw json.RawMessage) (*PostComment, error) {
	out := &PostComment{}
	extra, err := decodeWith(raw, postCommentFields, out)
	if err != nil {
		return nil, err
	}
	out.Extra = extra
	return out, nil
}

func DecodeSource(raw json.RawMessage) (*Source, error) {
	out := &Source{}
	extra, err := decodeWith(raw, sourceFields, out)
	if err != nil {
		return nil, err
	}
	out.Extra = extra
	return out, nil
}

func DecodeNotification(raw json.RawMessage) (*Notification, error) {
	out := &Notification{}
	extra, err := decodeWith(raw, notificationFields, out)
	if err != nil {
		return nil, err
	}
	out.Extra = extra
	return out, nil
}

// DecodeNotificationType accepts a JSON string or an object with a name.
func DecodeNotificationType(raw json.RawMessage) (*NotificationType, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return &NotificationType{Name: name}, nil
	}
	out := &NotificationType{}
	extra, err := decodeWith(raw, notificationTypeFields, out)
	if err != nil {
		return nil, err
	}
	out.Extra = extra
	return out, nil
}

var (
	_ Entity = User{}
	_ Entity = Sharer{}
	_ Entity = Topic{}
	_ Entity = TopicTag{}
	_ Entity = TopicStats{}
	_ Entity = Post{}
	_ Entity = PostComment{}
	_ Entity = Source{}
	_ Entity = Notification{}
	_ Entity = NotificationType{}
)

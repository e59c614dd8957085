package command

import (
	"context"
	"strings"
)

const (
	TypeTopicAction = "scoopit.command.topic.action"
	TypePostAction  = "scoopit.command.post.action"
)

const (
	TopicActionFollow   = "follow"
	TopicActionUnfollow = "unfollow"
	TopicActionMarkRead = "markread"

	PostActionThank   = "thank"
	PostActionComment = "comment"
)

// Actor is the mutating side of api.Client.
type Actor interface {
	FollowTopic(ctx context.Context, id int64) error
	UnfollowTopic(ctx context.Context, id int64) error
	MarkTopicRead(ctx context.Context, id int64) error
	ThankPost(ctx context.Context, id int64) error
	CommentPost(ctx context.Context, id int64, text string) error
}

type TopicActionMessage struct {
	TopicID int64
	Action  string
}

func (TopicActionMessage) Type() string { return TypeTopicAction }

func (m TopicActionMessage) Validate() error {
	if m.TopicID <= 0 {
		return commandValidationError("topic_id", "topic id is required")
	}
	switch normalizeAction(m.Action) {
	case TopicActionFollow, TopicActionUnfollow, TopicActionMarkRead:
		return nil
	default:
		return commandValidationError("action", "action must be follow, unfollow or markread")
	}
}

type PostActionMessage struct {
	PostID int64
	Action string
	// Text is the comment body; required for comment.
	Text string
}

func (PostActionMessage) Type() string { return TypePostAction }

func (m PostActionMessage) Validate() error {
	if m.PostID <= 0 {
		return commandValidationError("post_id", "post id is required")
	}
	switch normalizeAction(m.Action) {
	case PostActionThank:
		return nil
	case PostActionComment:
		if strings.TrimSpace(m.Text) == "" {
			return commandValidationError("text", "comment text is required")
		}
		return nil
	default:
		return commandValidationError("action", "action must be thank or comment")
	}
}

type TopicActionCommand struct {
	actor Actor
}

func NewTopicActionCommand(actor Actor) *TopicActionCommand {
	return &TopicActionCommand{actor: actor}
}

func (c *TopicActionCommand) Execute(ctx context.Context, msg TopicActionMessage) error {
	if c == nil || c.actor == nil {
		return commandDependencyError("command: api actor is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	switch normalizeAction(msg.Action) {
	case TopicActionFollow:
		return c.actor.FollowTopic(ctx, msg.TopicID)
	case TopicActionUnfollow:
		return c.actor.UnfollowTopic(ctx, msg.TopicID)
	default:
		return c.actor.MarkTopicRead(ctx, msg.TopicID)
	}
}

type PostActionCommand struct {
	actor Actor
}

func NewPostActionCommand(actor Actor) *PostActionCommand {
	return &PostActionCommand{actor: actor}
}

func (c *PostActionCommand) Execute(ctx context.Context, msg PostActionMessage) error {
	if c == nil || c.actor == nil {
		return commandDependencyError("command: api actor is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	if normalizeAction(msg.Action) == PostActionComment {
		return c.actor.CommentPost(ctx, msg.PostID, msg.Text)
	}
	return c.actor.ThankPost(ctx, msg.PostID)
}

func normalizeAction(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}

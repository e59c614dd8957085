package api

import "strings"

const (
	EndpointProfile       = "profile"
	EndpointTopic         = "topic"
	EndpointPost          = "post"
	EndpointTest          = "test"
	EndpointNotifications = "notifications"
	EndpointCompilation   = "compilation"
	EndpointResolver      = "resolver"
)

const (
	actionFollow   = "follow"
	actionUnfollow = "unfollow"
	actionMarkRead = "markread"
	actionThank    = "thank"
	actionComment  = "comment"
)

// EndpointURL joins an endpoint name onto the API base URL.
func EndpointURL(baseURL string, endpoint string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/" + strings.TrimLeft(endpoint, "/")
}

package sqlstore

import "github.com/goliatone/go-scoopit/core"

var (
	_ core.TokenStore = (*TokenStore)(nil)
	_ core.TokenStore = (*CachedTokenStore)(nil)
)

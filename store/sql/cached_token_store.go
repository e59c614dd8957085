package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-scoopit/core"
)

const tokenRecordCacheKeyPrefix = "go-scoopit::token_record::v1"

// CachedTokenStore serves LoadToken from a read-through cache and drops the
// cached entry whenever the key is saved.
type CachedTokenStore struct {
	base  core.TokenStore
	cache repositorycache.CacheService
}

func NewCachedTokenStore(base core.TokenStore, cacheService repositorycache.CacheService) (*CachedTokenStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base token store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: token cache service is required")
	}
	return &CachedTokenStore{base: base, cache: cacheService}, nil
}

// TokenRecordCacheKey returns go-scoopit::token_record::v1::<key> with the key
// URL-path escaped.
func TokenRecordCacheKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", fmt.Errorf("sqlstore: store key is required")
	}
	return tokenRecordCacheKeyPrefix + "::" + url.PathEscape(trimmed), nil
}

func (s *CachedTokenStore) LoadToken(ctx context.Context, key string) (core.TokenRecord, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.TokenRecord{}, fmt.Errorf("sqlstore: cached token store is not configured")
	}
	cacheKey, err := TokenRecordCacheKey(key)
	if err != nil {
		return core.TokenRecord{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.TokenRecord, error) {
		return s.base.LoadToken(ctx, strings.TrimSpace(key))
	})
}

func (s *CachedTokenStore) SaveToken(ctx context.Context, key string, record core.TokenRecord) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached token store is not configured")
	}
	cacheKey, err := TokenRecordCacheKey(key)
	if err != nil {
		return err
	}
	if err := s.base.SaveToken(ctx, strings.TrimSpace(key), record); err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

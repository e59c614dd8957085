package core

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

const ErrorTokenRecordNotFound = "SCOOPIT_TOKEN_RECORD_NOT_FOUND"

func NewTokenRecordNotFoundError(key string) *goerrors.Error {
	return goerrors.New(fmt.Sprintf("core: token record %q not found", key), goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(ErrorTokenRecordNotFound)
}

func IsTokenRecordNotFound(err error) bool {
	return hasTextCode(err, ErrorTokenRecordNotFound)
}

// MemoryTokenStore keeps encoded token records in process memory.
type MemoryTokenStore struct {
	mu      sync.RWMutex
	codec   TokenCodec
	entries map[string][]byte
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		codec:   JSONTokenCodec{},
		entries: map[string][]byte{},
	}
}

func (s *MemoryTokenStore) SaveToken(_ context.Context, key string, record TokenRecord) error {
	if s == nil {
		return fmt.Errorf("core: memory token store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("core: token store key is required")
	}
	payload, err := s.tokenCodec().Encode(record)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.entries == nil {
		s.entries = map[string][]byte{}
	}
	s.entries[key] = payload
	s.mu.Unlock()
	return nil
}

func (s *MemoryTokenStore) LoadToken(_ context.Context, key string) (TokenRecord, error) {
	if s == nil {
		return TokenRecord{}, fmt.Errorf("core: memory token store is not configured")
	}
	key = strings.TrimSpace(key)

	s.mu.RLock()
	payload, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return TokenRecord{}, NewTokenRecordNotFoundError(key)
	}
	return s.tokenCodec().Decode(payload)
}

// tokenCodec falls back to JSON so the zero value is usable.
func (s *MemoryTokenStore) tokenCodec() TokenCodec {
	if s.codec == nil {
		return JSONTokenCodec{}
	}
	return s.codec
}

// Package filestore keeps token records in files on local disk.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-scoopit/core"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

type Option func(*TokenStore)

// WithBaseDir resolves relative keys against dir.
func WithBaseDir(dir string) Option {
	return func(s *TokenStore) {
		s.baseDir = strings.TrimSpace(dir)
	}
}

func WithSecretProvider(secrets core.SecretProvider) Option {
	return func(s *TokenStore) {
		s.secrets = secrets
	}
}

func WithTokenCodec(codec core.TokenCodec) Option {
	return func(s *TokenStore) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// TokenStore treats each key as a file path. Writes go to a temp file in the
// destination directory and are renamed into place, so a reader never sees a
// partial record.
type TokenStore struct {
	baseDir string
	codec   core.TokenCodec
	secrets core.SecretProvider
}

func NewTokenStore(opts ...Option) *TokenStore {
	store := &TokenStore{codec: core.JSONTokenCodec{}}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(store)
	}
	return store
}

func (s *TokenStore) SaveToken(ctx context.Context, key string, record core.TokenRecord) error {
	if s == nil {
		return fmt.Errorf("filestore: token store is not configured")
	}
	path, err := s.resolvePath(key)
	if err != nil {
		return err
	}
	payload, err := core.SealTokenRecord(ctx, s.codec, s.secrets, record)
	if err != nil {
		return err
	}
	return writeAtomic(path, payload)
}

func (s *TokenStore) LoadToken(ctx context.Context, key string) (core.TokenRecord, error) {
	if s == nil {
		return core.TokenRecord{}, fmt.Errorf("filestore: token store is not configured")
	}
	path, err := s.resolvePath(key)
	if err != nil {
		return core.TokenRecord{}, err
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.TokenRecord{}, core.NewTokenRecordNotFoundError(key)
		}
		return core.TokenRecord{}, fmt.Errorf("filestore: read %s: %w", path, err)
	}
	return core.OpenTokenRecord(ctx, s.codec, s.secrets, payload)
}

func (s *TokenStore) resolvePath(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("filestore: token file path is required")
	}
	if s.baseDir != "" && !filepath.IsAbs(key) {
		key = filepath.Join(s.baseDir, key)
	}
	return filepath.Clean(key), nil
}

func writeAtomic(path string, payload []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("filestore: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("filestore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(payload); err != nil {
		return fmt.Errorf("filestore: write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("filestore: sync temp file: %w", err)
	}
	if err = tmp.Chmod(fileMode); err != nil {
		return fmt.Errorf("filestore: chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("filestore: close temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("filestore: replace %s: %w", path, err)
	}
	return nil
}

var _ core.TokenStore = (*TokenStore)(nil)

// Package sqlstore persists token records in a SQL table through bun and
// go-repository-bun. SQLite and Postgres are supported.
package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-scoopit/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type TokenStoreOption func(*TokenStore)

// WithSecretProvider encrypts payloads before they are written.
func WithSecretProvider(secrets core.SecretProvider) TokenStoreOption {
	return func(s *TokenStore) {
		s.secrets = secrets
	}
}

// WithTokenCodec sets the codec used for new writes. Reads always use the
// codec recorded next to each row.
func WithTokenCodec(codec core.TokenCodec) TokenStoreOption {
	return func(s *TokenStore) {
		if codec != nil {
			s.codec = codec
		}
	}
}

func WithClock(now func() time.Time) TokenStoreOption {
	return func(s *TokenStore) {
		if now != nil {
			s.now = now
		}
	}
}

type TokenStore struct {
	db      *bun.DB
	repo    repository.Repository[*tokenRecordRow]
	codec   core.TokenCodec
	secrets core.SecretProvider
	now     func() time.Time
}

func NewTokenStore(db *bun.DB, opts ...TokenStoreOption) (*TokenStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*tokenRecordRow](db, tokenRecordHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid token repository wiring: %w", err)
		}
	}
	store := &TokenStore{
		db:    db,
		repo:  repo,
		codec: core.JSONTokenCodec{},
		now:   time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(store)
	}
	return store, nil
}

// SaveToken replaces the row for key inside a single transaction, so readers
// see either the previous record or the new one.
func (s *TokenStore) SaveToken(ctx context.Context, key string, record core.TokenRecord) error {
	if s == nil || s.repo == nil || s.db == nil {
		return fmt.Errorf("sqlstore: token store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("sqlstore: store key is required")
	}
	payload, err := core.SealTokenRecord(ctx, s.codec, s.secrets, record)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	savedAt := record.SavedAt.UTC()
	if record.SavedAt.IsZero() {
		savedAt = now
	}
	stage := record.Stage
	if !stage.Valid() {
		stage = core.TokenStageUnverified
	}
	row := &tokenRecordRow{
		ID:            uuid.NewString(),
		StoreKey:      key,
		Payload:       payload,
		PayloadFormat: s.codec.Format(),
		Stage:         string(stage),
		Encrypted:     s.secrets != nil,
		SavedAt:       savedAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*tokenRecordRow)(nil)).
			Where("store_key = ?", key).
			Exec(ctx); err != nil {
			return fmt.Errorf("sqlstore: clear token record %q: %w", key, err)
		}
		if _, err := s.repo.CreateTx(ctx, tx, row); err != nil {
			return fmt.Errorf("sqlstore: insert token record %q: %w", key, err)
		}
		return nil
	})
}

func (s *TokenStore) LoadToken(ctx context.Context, key string) (core.TokenRecord, error) {
	if s == nil || s.repo == nil {
		return core.TokenRecord{}, fmt.Errorf("sqlstore: token store is not configured")
	}
	key = strings.TrimSpace(key)
	rows, _, err := s.repo.List(ctx,
		repository.SelectBy("store_key", "=", key),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.TokenRecord{}, err
	}
	if len(rows) == 0 {
		return core.TokenRecord{}, core.NewTokenRecordNotFoundError(key)
	}
	row := rows[0]

	codec, err := core.ResolveTokenCodec(row.PayloadFormat)
	if err != nil {
		return core.TokenRecord{}, err
	}
	var secrets core.SecretProvider
	if row.Encrypted {
		if s.secrets == nil {
			return core.TokenRecord{}, fmt.Errorf("sqlstore: token record %q is encrypted but no secret provider is configured", key)
		}
		secrets = s.secrets
	}
	return core.OpenTokenRecord(ctx, codec, secrets, row.Payload)
}

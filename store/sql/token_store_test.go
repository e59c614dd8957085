package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-scoopit/core"
	"github.com/goliatone/go-scoopit/security"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-scoopit-tests"
}

var testSavedAt = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func TestTokenStore_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	store, err := NewTokenStoreFromPersistence(client)
	if err != nil {
		t.Fatalf("new token store: %v", err)
	}
	record := core.TokenRecord{Token: "T1", TokenSecret: "S1", Stage: core.TokenStageAccess, SavedAt: testSavedAt}
	if err := store.SaveToken(ctx, "default", record); err != nil {
		t.Fatalf("save token: %v", err)
	}

	loaded, err := store.LoadToken(ctx, " default ")
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	if loaded.Token != "T1" || loaded.TokenSecret != "S1" || loaded.Stage != core.TokenStageAccess {
		t.Fatalf("unexpected loaded record %#v", loaded)
	}
	if !loaded.SavedAt.Equal(testSavedAt) {
		t.Fatalf("expected saved_at %s, got %s", testSavedAt, loaded.SavedAt)
	}
}

func TestTokenStore_SaveReplacesExistingRecord(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	store, err := NewTokenStore(client.DB())
	if err != nil {
		t.Fatalf("new token store: %v", err)
	}
	if err := store.SaveToken(ctx, "default", core.TokenRecord{Token: "T1", TokenSecret: "S1", Stage: core.TokenStageRequest}); err != nil {
		t.Fatalf("save first token: %v", err)
	}
	if err := store.SaveToken(ctx, "default", core.TokenRecord{Token: "T2", TokenSecret: "S2", Stage: core.TokenStageAccess}); err != nil {
		t.Fatalf("save second token: %v", err)
	}

	var count int
	if err := client.DB().NewRaw("SELECT COUNT(*) FROM scoopit_tokens WHERE store_key = ?", "default").Scan(ctx, &count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row per key, got %d", count)
	}
	loaded, err := store.LoadToken(ctx, "default")
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	if loaded.Token != "T2" || loaded.Stage != core.TokenStageAccess {
		t.Fatalf("expected the latest record, got %#v", loaded)
	}
}

func TestTokenStore_MissingKeyReturnsNotFound(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	store, err := NewTokenStoreFromPersistence(client)
	if err != nil {
		t.Fatalf("new token store: %v", err)
	}
	_, err = store.LoadToken(context.Background(), "missing")
	if !core.IsTokenRecordNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if err := store.SaveToken(context.Background(), " ", core.TokenRecord{Token: "T"}); err == nil {
		t.Fatalf("expected empty key to fail")
	}
}

func TestTokenStore_EncryptsPayloadWithSecretProvider(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	secrets, err := security.NewAppKeySecretProviderFromString("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("new secret provider: %v", err)
	}
	store, err := NewTokenStoreFromPersistence(client, WithSecretProvider(secrets))
	if err != nil {
		t.Fatalf("new token store: %v", err)
	}
	if err := store.SaveToken(ctx, "default", core.TokenRecord{Token: "T1", TokenSecret: "very-secret", Stage: core.TokenStageAccess}); err != nil {
		t.Fatalf("save token: %v", err)
	}

	var payload []byte
	if err := client.DB().NewRaw("SELECT payload FROM scoopit_tokens WHERE store_key = ?", "default").Scan(ctx, &payload); err != nil {
		t.Fatalf("read raw payload: %v", err)
	}
	if strings.Contains(string(payload), "very-secret") {
		t.Fatalf("expected encrypted payload, got %s", payload)
	}

	loaded, err := store.LoadToken(ctx, "default")
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	if loaded.TokenSecret != "very-secret" {
		t.Fatalf("unexpected decrypted record %#v", loaded)
	}

	plain, err := NewTokenStoreFromPersistence(client)
	if err != nil {
		t.Fatalf("new plain token store: %v", err)
	}
	if _, err := plain.LoadToken(ctx, "default"); err == nil {
		t.Fatalf("expected encrypted row to require a secret provider")
	}
}

func TestTokenStore_LegacyCodecRestoresUnverified(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	legacy, err := NewTokenStoreFromPersistence(client, WithTokenCodec(core.LegacyTokenCodec{}))
	if err != nil {
		t.Fatalf("new legacy token store: %v", err)
	}
	if err := legacy.SaveToken(ctx, "default", core.TokenRecord{Token: "T1", TokenSecret: "S1", Stage: core.TokenStageAccess}); err != nil {
		t.Fatalf("save token: %v", err)
	}

	store, err := NewTokenStoreFromPersistence(client)
	if err != nil {
		t.Fatalf("new token store: %v", err)
	}
	loaded, err := store.LoadToken(ctx, "default")
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	if loaded.Stage != core.TokenStageUnverified {
		t.Fatalf("expected legacy row to restore unverified, got %q", loaded.Stage)
	}
}

func TestTokenStore_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	store, err := NewTokenStoreFromPersistence(client)
	if err != nil {
		t.Fatalf("new token store: %v", err)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.SaveToken(ctx, "shared", core.TokenRecord{Token: fmt.Sprintf("T%d", i), TokenSecret: "S", Stage: core.TokenStageAccess})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent save: %v", err)
		}
	}
	loaded, err := store.LoadToken(ctx, "shared")
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	if !strings.HasPrefix(loaded.Token, "T") {
		t.Fatalf("expected one complete record, got %#v", loaded)
	}
}

func TestOpenPersistence_EnsureSchema(t *testing.T) {
	ctx := context.Background()
	client, err := OpenPersistence(PersistenceConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:scoopit-ensure-%d?mode=memory&cache=shared", time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("open persistence: %v", err)
	}
	defer func() { _ = client.Close() }()

	if err := EnsureSchema(ctx, client.DB()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := EnsureSchema(ctx, client.DB()); err != nil {
		t.Fatalf("ensure schema twice: %v", err)
	}
	store, err := NewTokenStoreFromPersistence(client)
	if err != nil {
		t.Fatalf("new token store: %v", err)
	}
	if err := store.SaveToken(ctx, "default", core.TokenRecord{Token: "T1", TokenSecret: "S1"}); err != nil {
		t.Fatalf("save token: %v", err)
	}
	loaded, err := store.LoadToken(ctx, "default")
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	if loaded.Token != "T1" {
		t.Fatalf("unexpected record %#v", loaded)
	}
}

func TestOpenPersistence_RejectsUnknownDriver(t *testing.T) {
	if _, err := OpenPersistence(PersistenceConfig{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatalf("expected unsupported driver to fail")
	}
	if _, err := OpenPersistence(PersistenceConfig{Driver: "postgres"}); err == nil {
		t.Fatalf("expected missing dsn to fail")
	}
}

func TestPersistenceConfig_Defaults(t *testing.T) {
	cfg := PersistenceConfig{Driver: "PostgreSQL"}
	if cfg.GetDriver() != DriverPostgres {
		t.Fatalf("expected postgres driver, got %q", cfg.GetDriver())
	}
	if cfg.GetPingTimeout() != 5*time.Second {
		t.Fatalf("unexpected ping timeout %s", cfg.GetPingTimeout())
	}
	if cfg.GetOtelIdentifier() != "go-scoopit" {
		t.Fatalf("unexpected otel identifier %q", cfg.GetOtelIdentifier())
	}
}

func TestResolveBunDB_RejectsUnsupportedTypes(t *testing.T) {
	if _, err := resolveBunDB(nil); err == nil {
		t.Fatalf("expected nil client to fail")
	}
	if _, err := resolveBunDB("db"); err == nil {
		t.Fatalf("expected unsupported type to fail")
	}
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:scoopit-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}
	if err := Migrate(context.Background(), client, DriverSQLite); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}

package core

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
)

func TestAcquireRequestToken_Success(t *testing.T) {
	transport := (&recordingTransport{}).reply(200, "oauth_token=req-token&oauth_token_secret=req-secret&oauth_callback_confirmed=true")
	client := newTestClient(t, transport)

	token, err := client.AcquireRequestToken(context.Background())
	if err != nil {
		t.Fatalf("acquire request token: %v", err)
	}
	if token.Token != "req-token" || token.Secret != "req-secret" || token.Stage != TokenStageRequest {
		t.Fatalf("unexpected token %#v", token)
	}
	if client.Authorized() {
		t.Fatalf("expected request token to leave the client unauthorized")
	}
	if client.Token() != token {
		t.Fatalf("expected request token to become current")
	}

	calls := transport.calls()
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	call := calls[0]
	if call.Method != http.MethodGet || call.URL != testConfig().Endpoints.RequestTokenURL {
		t.Fatalf("unexpected request %s %s", call.Method, call.URL)
	}
	if call.Headers[headerAcceptEncoding] != "gzip" {
		t.Fatalf("expected gzip accept-encoding, got %q", call.Headers[headerAcceptEncoding])
	}
	header := call.Headers[headerAuthorization]
	if !strings.Contains(header, `oauth_consumer_key="consumer-key"`) {
		t.Fatalf("expected consumer key in authorization header, got %q", header)
	}
	if strings.Contains(header, "oauth_token=") {
		t.Fatalf("expected request token call to be signed without a token, got %q", header)
	}
}

func TestAcquireRequestToken_FailureStatus(t *testing.T) {
	client := newTestClient(t, (&recordingTransport{}).reply(401, "oauth_problem=consumer_key_unknown"))

	_, err := client.AcquireRequestToken(context.Background())
	if !IsRequestFailure(err) {
		t.Fatalf("expected request failure, got %v", err)
	}
	if status := RequestFailureStatus(err); status != 401 {
		t.Fatalf("expected status 401, got %d", status)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status in message, got %q", err.Error())
	}
	if !client.Token().IsZero() {
		t.Fatalf("expected no token after failure")
	}
}

func TestAcquireRequestToken_MalformedBody(t *testing.T) {
	client := newTestClient(t, (&recordingTransport{}).reply(200, "<html>maintenance</html>"))

	_, err := client.AcquireRequestToken(context.Background())
	if !IsRequestFailure(err) || RequestFailureStatus(err) != 200 {
		t.Fatalf("expected request failure carrying status 200, got %v", err)
	}
	if !client.Token().IsZero() {
		t.Fatalf("expected state to be unchanged")
	}
}

func TestAcquireRequestToken_TransportError(t *testing.T) {
	client := newTestClient(t, &recordingTransport{err: errors.New("connection refused")})

	if _, err := client.AcquireRequestToken(context.Background()); err == nil {
		t.Fatalf("expected transport error")
	}
	if !client.Token().IsZero() {
		t.Fatalf("expected state to be unchanged")
	}
}

func TestAuthorizationURL(t *testing.T) {
	client := newTestClient(t, &recordingTransport{})
	if _, err := client.AuthorizationURL(""); !IsTokenMissing(err) {
		t.Fatalf("expected token missing, got %v", err)
	}

	client = newTestClient(t, &recordingTransport{},
		WithToken(DelegatedToken{Token: "req token", Secret: "s", Stage: TokenStageRequest}))
	got, err := client.AuthorizationURL("")
	if err != nil {
		t.Fatalf("authorization url: %v", err)
	}
	if got != "https://provider.example/oauth/authorize?oauth_token=req+token" {
		t.Fatalf("unexpected authorization url %q", got)
	}

	got, err = client.AuthorizationURL("https://app.example/cb?x=1")
	if err != nil {
		t.Fatalf("authorization url: %v", err)
	}
	want := "https://provider.example/oauth/authorize?oauth_callback=https%3A%2F%2Fapp.example%2Fcb%3Fx%3D1&oauth_token=req+token"
	if got != want {
		t.Fatalf("unexpected authorization url\n got %s\nwant %s", got, want)
	}
}

func TestExchangeAccessToken_Success(t *testing.T) {
	transport := (&recordingTransport{}).
		reply(200, "oauth_token=req-token&oauth_token_secret=req-secret").
		reply(200, "oauth_token=acc-token&oauth_token_secret=acc-secret")
	client := newTestClient(t, transport)

	if _, err := client.AcquireRequestToken(context.Background()); err != nil {
		t.Fatalf("acquire request token: %v", err)
	}
	token, err := client.ExchangeAccessToken(context.Background(), "verifier-1")
	if err != nil {
		t.Fatalf("exchange access token: %v", err)
	}
	if token.Token != "acc-token" || token.Secret != "acc-secret" || token.Stage != TokenStageAccess {
		t.Fatalf("unexpected token %#v", token)
	}
	if token.Verifier != "" {
		t.Fatalf("expected verifier to be dropped from the access token")
	}
	if !client.Authorized() {
		t.Fatalf("expected client to be authorized")
	}

	call := transport.calls()[1]
	if call.Method != http.MethodPost || call.URL != testConfig().Endpoints.AccessTokenURL {
		t.Fatalf("unexpected request %s %s", call.Method, call.URL)
	}
	body, err := ParseParams(string(call.Body))
	if err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if got, _ := body.Get(ParamVerifier); got != "verifier-1" {
		t.Fatalf("expected verifier in signed body, got %q", got)
	}
	if got, _ := body.Get(ParamToken); got != "req-token" {
		t.Fatalf("expected request token in signed body, got %q", got)
	}
	if !body.Has(ParamSignature) {
		t.Fatalf("expected signature in body")
	}
	if call.Headers[headerContentType] != formContentType {
		t.Fatalf("expected form content type, got %q", call.Headers[headerContentType])
	}
}

func TestExchangeAccessToken_FailureKeepsRequestToken(t *testing.T) {
	transport := (&recordingTransport{}).reply(400, "oauth_problem=verifier_invalid")
	client := newTestClient(t, transport,
		WithToken(DelegatedToken{Token: "req-token", Secret: "req-secret", Stage: TokenStageRequest}))

	_, err := client.ExchangeAccessToken(context.Background(), "bad")
	if !IsRequestFailure(err) || RequestFailureStatus(err) != 400 {
		t.Fatalf("expected request failure with status 400, got %v", err)
	}
	if client.Authorized() {
		t.Fatalf("expected client to stay unauthorized")
	}
	if current := client.Token(); current.Token != "req-token" || current.Stage != TokenStageRequest {
		t.Fatalf("expected request token to stay current, got %#v", current)
	}
}

func TestExchangeAccessToken_RequiresRequestToken(t *testing.T) {
	transport := &recordingTransport{}
	client := newTestClient(t, transport)
	if _, err := client.ExchangeAccessToken(context.Background(), "v"); !IsTokenMissing(err) {
		t.Fatalf("expected token missing, got %v", err)
	}

	client = newTestClient(t, transport,
		WithToken(DelegatedToken{Token: "acc", Secret: "s", Stage: TokenStageAccess}))
	if _, err := client.ExchangeAccessToken(context.Background(), "v"); !IsTokenMissing(err) {
		t.Fatalf("expected token missing for access token, got %v", err)
	}

	client = newTestClient(t, transport,
		WithToken(DelegatedToken{Token: "req", Secret: "s", Stage: TokenStageRequest}))
	if _, err := client.ExchangeAccessToken(context.Background(), "  "); !IsBadInput(err) {
		t.Fatalf("expected bad input for empty verifier, got %v", err)
	}
	if len(transport.calls()) != 0 {
		t.Fatalf("expected no network calls")
	}
}

func TestRequest_GetParams(t *testing.T) {
	transport := &recordingTransport{}
	client := newTestClient(t, transport)
	target := "https://provider.example/api/1/profile"

	if _, err := client.Request(context.Background(), target, Params{}, "GET"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := client.Request(context.Background(), target, NewParams("a", "b"), "get"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := client.Request(context.Background(), target+"?x=1", NewParams("a", "b c"), "Get"); err != nil {
		t.Fatalf("request: %v", err)
	}

	calls := transport.calls()
	if calls[0].URL != target {
		t.Fatalf("expected url unchanged for empty params, got %q", calls[0].URL)
	}
	if calls[1].URL != target+"?a=b" {
		t.Fatalf("expected ?a=b, got %q", calls[1].URL)
	}
	if calls[2].URL != target+"?x=1&a=b+c" {
		t.Fatalf("expected params appended to existing query, got %q", calls[2].URL)
	}
	for _, call := range calls {
		if call.Method != http.MethodGet || len(call.Body) != 0 {
			t.Fatalf("expected bodiless GET, got %s with %d bytes", call.Method, len(call.Body))
		}
		if call.Headers[headerAcceptEncoding] != "gzip" {
			t.Fatalf("expected gzip accept-encoding")
		}
	}
}

func TestRequest_GetMovesProtocolParamsIntoHeader(t *testing.T) {
	transport := &recordingTransport{}
	client := newTestClient(t, transport)
	target := "https://provider.example/api/1/profile"

	params := NewParams("id", "7", ParamNonce, "custom-nonce")
	if _, err := client.Request(context.Background(), target, params, http.MethodGet); err != nil {
		t.Fatalf("request: %v", err)
	}

	call := transport.calls()[0]
	if call.URL != target+"?id=7" {
		t.Fatalf("expected only non-protocol params in the query, got %q", call.URL)
	}
	header := call.Headers[headerAuthorization]
	if strings.Count(header, ParamNonce+"=") != 1 {
		t.Fatalf("expected exactly one nonce in header, got %q", header)
	}
	if !strings.Contains(header, ParamNonce+`="custom-nonce"`) {
		t.Fatalf("expected caller nonce to win in header, got %q", header)
	}
	if strings.Contains(header, `id="7"`) {
		t.Fatalf("expected query params to stay out of the header, got %q", header)
	}
}

func TestRequest_PostSendsSignedBody(t *testing.T) {
	transport := (&recordingTransport{}).reply(201, `{"ok":true}`)
	client := newTestClient(t, transport,
		WithToken(DelegatedToken{Token: "acc", Secret: "acc-secret", Stage: TokenStageAccess}))

	res, err := client.Request(context.Background(), "https://provider.example/api/1/topic", NewParams("action", "follow", "id", "42"), "post")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if res.StatusCode != 201 || string(res.Body) != `{"ok":true}` {
		t.Fatalf("expected raw response to be returned, got %d %q", res.StatusCode, res.Body)
	}

	call := transport.calls()[0]
	body, err := ParseParams(string(call.Body))
	if err != nil {
		t.Fatalf("parse body: %v", err)
	}
	for key, want := range map[string]string{"action": "follow", "id": "42", ParamToken: "acc", ParamConsumerKey: testConsumerKey} {
		if got, _ := body.Get(key); got != want {
			t.Fatalf("expected %s=%q in body, got %q", key, want, got)
		}
	}
	if _, ok := call.Headers[headerAuthorization]; ok {
		t.Fatalf("expected POST to carry oauth params in the body only")
	}
}

func TestRequest_RejectsOtherMethods(t *testing.T) {
	transport := &recordingTransport{}
	client := newTestClient(t, transport)

	for _, method := range []string{"PUT", "DELETE", ""} {
		_, err := client.Request(context.Background(), "https://provider.example/api/1/topic", Params{}, method)
		if !IsRequestFailure(err) || RequestFailureStatus(err) != http.StatusMethodNotAllowed {
			t.Fatalf("expected method rejection for %q, got %v", method, err)
		}
		if !strings.Contains(err.Error(), "GET or POST") {
			t.Fatalf("unexpected message %q", err.Error())
		}
	}
	if len(transport.calls()) != 0 {
		t.Fatalf("expected no network calls")
	}
}

func TestPersistRestore_RoundTrip(t *testing.T) {
	store := NewMemoryTokenStore()
	source := newTestClient(t, &recordingTransport{},
		WithToken(DelegatedToken{Token: "acc", Secret: "acc-secret", Stage: TokenStageAccess}))
	if err := source.Persist(context.Background(), store, "user-1"); err != nil {
		t.Fatalf("persist: %v", err)
	}

	target := newTestClient(t, &recordingTransport{})
	restored, err := target.Restore(context.Background(), store, "user-1")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Token != "acc" || restored.Secret != "acc-secret" {
		t.Fatalf("unexpected restored token %#v", restored)
	}
	if !target.Authorized() {
		t.Fatalf("expected restored access token to authorize the client")
	}

	record, err := store.LoadToken(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	if !record.SavedAt.Equal(testNow) {
		t.Fatalf("expected saved_at from client clock, got %s", record.SavedAt)
	}
}

func TestPersist_Overwrites(t *testing.T) {
	store := NewMemoryTokenStore()
	client := newTestClient(t, &recordingTransport{},
		WithToken(DelegatedToken{Token: "first", Secret: "s1", Stage: TokenStageRequest}))
	if err := client.Persist(context.Background(), store, "k"); err != nil {
		t.Fatalf("persist: %v", err)
	}
	client = newTestClient(t, &recordingTransport{},
		WithToken(DelegatedToken{Token: "second", Secret: "s2", Stage: TokenStageAccess}))
	if err := client.Persist(context.Background(), store, "k"); err != nil {
		t.Fatalf("persist: %v", err)
	}
	record, err := store.LoadToken(context.Background(), "k")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if record.Token != "second" || record.Stage != TokenStageAccess {
		t.Fatalf("expected latest record, got %#v", record)
	}
}

func TestPersist_RequiresToken(t *testing.T) {
	client := newTestClient(t, &recordingTransport{})
	if err := client.Persist(context.Background(), NewMemoryTokenStore(), "k"); !IsTokenMissing(err) {
		t.Fatalf("expected token missing, got %v", err)
	}
}

func TestPersistRestore_UsesConfiguredStore(t *testing.T) {
	store := NewMemoryTokenStore()
	client := newTestClient(t, &recordingTransport{}, WithTokenStore(store),
		WithToken(DelegatedToken{Token: "req", Secret: "s", Stage: TokenStageRequest}))
	if err := client.Persist(context.Background(), nil, "k"); err != nil {
		t.Fatalf("persist: %v", err)
	}
	client.Reset()
	if !client.Token().IsZero() || client.Authorized() {
		t.Fatalf("expected reset to clear state")
	}
	restored, err := client.Restore(context.Background(), nil, "k")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Stage != TokenStageRequest || client.Authorized() {
		t.Fatalf("expected request token restored without authorization, got %#v", restored)
	}

	bare := newTestClient(t, &recordingTransport{})
	if _, err := bare.Restore(context.Background(), nil, "k"); !IsBadInput(err) {
		t.Fatalf("expected bad input without any store, got %v", err)
	}
}

type legacyStore struct{}

func (legacyStore) SaveToken(context.Context, string, TokenRecord) error { return nil }

func (legacyStore) LoadToken(context.Context, string) (TokenRecord, error) {
	return LegacyTokenCodec{}.Decode([]byte(`{"token":"old","token_secret":"old-secret"}`))
}

func TestRestore_UntaggedRecordIsUnverified(t *testing.T) {
	client := newTestClient(t, &recordingTransport{})
	restored, err := client.Restore(context.Background(), legacyStore{}, "legacy")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Stage != TokenStageUnverified {
		t.Fatalf("expected unverified stage, got %q", restored.Stage)
	}
	if client.Authorized() {
		t.Fatalf("expected untagged token to leave the client unauthorized")
	}
}

func TestRestore_MissingRecord(t *testing.T) {
	client := newTestClient(t, &recordingTransport{})
	if _, err := client.Restore(context.Background(), NewMemoryTokenStore(), "absent"); !IsTokenRecordNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClient_ConcurrentSnapshots(t *testing.T) {
	client := newTestClient(t, &recordingTransport{},
		WithToken(DelegatedToken{Token: "acc", Secret: "s", Stage: TokenStageAccess}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := client.Request(context.Background(), "https://provider.example/api/1/profile", Params{}, "GET"); err != nil {
					t.Errorf("request: %v", err)
					return
				}
				_ = client.Token()
				_ = client.Authorized()
			}
		}()
	}
	wg.Wait()
}

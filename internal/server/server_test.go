package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/scribehub/scribe/internal/model"
	"github.com/scribehub/scribe/internal/stats"
	"github.com/scribehub/scribe/internal/store"
)

// testEnv holds the shared state for the HTTP integration tests.
type testEnv struct {
	server *Server
	store  *store.Store
	redis  *redis.Client
}

// newTestEnv wires a full Server against an in-memory SQLite store and a
// miniredis instance.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.New("")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	statsStore := stats.NewWithClient(client)
	t.Cleanup(func() { statsStore.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := DefaultConfig()
	cfg.RateLimit = 0 // don't throttle the test suite

	return &testEnv{
		server: New(cfg, st, statsStore, logger),
		store:  st,
		redis:  client,
	}
}

// seedAdminKey issues an admin key directly against the store, the same way
// the bootstrap CLI path does.
func (e *testEnv) seedAdminKey(t *testing.T, key string) {
	t.Helper()
	rec := &model.APIKey{Key: key, Name: "Root", IsAdmin: true, AuthedBy: "bootstrap"}
	if err := e.store.IssueKey(context.Background(), rec); err != nil {
		t.Fatalf("seedAdminKey: %v", err)
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)
	return rr
}

// decodeEnvelope parses the uniform response body and checks the invariant
// fields every response must carry.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	result, ok := body["result"].(float64)
	if !ok {
		t.Fatalf("response missing numeric result: %v", body)
	}
	if int(result) != rr.Code {
		t.Errorf("envelope result %d != HTTP status %d", int(result), rr.Code)
	}
	if _, ok := body["server_time"].(string); !ok {
		t.Errorf("response missing server_time: %v", body)
	}
	return body
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("got status %d, want %d (body: %s)", rr.Code, want, rr.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Stats and users
// ---------------------------------------------------------------------------

func TestStatsIndex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.redis.Set(ctx, "total_completed", "100", 0)
	env.redis.Set(ctx, "total_posted", "400", 0)
	env.redis.SAdd(ctx, "accepted_CoC", "spez", "Dopey")

	rr := env.do(t, "GET", "/", nil)
	assertStatus(t, rr, http.StatusOK)
	body := decodeEnvelope(t, rr)

	if body["transcription_count"].(float64) != 100 {
		t.Errorf("got transcription_count %v, want 100", body["transcription_count"])
	}
	if body["transcription_percentage"].(float64) != 0.25 {
		t.Errorf("got transcription_percentage %v, want 0.25", body["transcription_percentage"])
	}
	if body["volunteer_count"].(float64) != 2 {
		t.Errorf("got volunteer_count %v, want 2", body["volunteer_count"])
	}
}

func TestUserLookup(t *testing.T) {
	env := newTestEnv(t)
	env.redis.HSet(context.Background(), "volunteer:spez", "username", "spez", "transcriptions", "42")

	rr := env.do(t, "GET", "/user/spez", nil)
	assertStatus(t, rr, http.StatusOK)
	body := decodeEnvelope(t, rr)
	user := body["user"].(map[string]any)
	if user["transcriptions"] != "42" {
		t.Errorf("got user %v", user)
	}

	rr = env.do(t, "GET", "/user/nobody", nil)
	assertStatus(t, rr, http.StatusNotFound)
	decodeEnvelope(t, rr)
}

// ---------------------------------------------------------------------------
// Workflow endpoints
// ---------------------------------------------------------------------------

func TestClaimMissingFieldsEnumerated(t *testing.T) {
	env := newTestEnv(t)

	// No body at all: every required field is listed in one response.
	rr := env.do(t, "POST", "/claim", nil)
	assertStatus(t, rr, http.StatusBadRequest)
	body := decodeEnvelope(t, rr)
	missing := body["missing_fields"].([]any)
	if len(missing) != 2 || missing[0] != "api_key" || missing[1] != "post_id" {
		t.Errorf("got missing_fields %v, want [api_key post_id]", missing)
	}

	// Partial body: only the absent field is listed.
	rr = env.do(t, "POST", "/claim", map[string]any{"api_key": "whatever"})
	assertStatus(t, rr, http.StatusBadRequest)
	body = decodeEnvelope(t, rr)
	missing = body["missing_fields"].([]any)
	if len(missing) != 1 || missing[0] != "post_id" {
		t.Errorf("got missing_fields %v, want [post_id]", missing)
	}
}

func TestClaimRequiresValidKey(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdminKey(t, "admin-key")

	rr := env.do(t, "POST", "/claim", map[string]any{"api_key": "bogus", "post_id": "t3_abc"})
	assertStatus(t, rr, http.StatusUnauthorized)
	decodeEnvelope(t, rr)

	rr = env.do(t, "POST", "/done", map[string]any{"api_key": "admin-key", "post_id": "t3_abc"})
	assertStatus(t, rr, http.StatusOK)
	body := decodeEnvelope(t, rr)
	data := body["data"].(map[string]any)
	if data["post_id"] != "t3_abc" {
		t.Errorf("got echoed data %v", data)
	}

	// The authorized request, and only it, landed in the access log.
	entries, err := env.store.ListLogByKey(context.Background(), "admin-key")
	if err != nil {
		t.Fatalf("ListLogByKey: %v", err)
	}
	if len(entries) != 1 || entries[0].Endpoint != "/done" {
		t.Errorf("got log entries %+v, want one /done entry", entries)
	}
	if rejected, _ := env.store.ListLogByKey(context.Background(), "bogus"); len(rejected) != 0 {
		t.Errorf("rejected request was audit-logged: %+v", rejected)
	}
}

// ---------------------------------------------------------------------------
// Key administration over HTTP
// ---------------------------------------------------------------------------

func TestKeyLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdminKey(t, "key-a")
	ctx := context.Background()

	// A (admin) mints B (non-admin, "Sleepy").
	rr := env.do(t, "POST", "/keys/create", map[string]any{
		"api_key": "key-a", "name": "Sleepy",
	})
	assertStatus(t, rr, http.StatusOK)
	body := decodeEnvelope(t, rr)
	created := body["key"].(map[string]any)
	keyB := created["api_key"].(string)
	if keyB == "" || created["username"] != "Sleepy" || created["is_admin"] != false {
		t.Fatalf("got created key %v", created)
	}
	if created["authorized_by"] != "key-a" {
		t.Errorf("got authorized_by %v, want key-a", created["authorized_by"])
	}

	// B asks who it is.
	rr = env.do(t, "POST", "/keys/me", map[string]any{"api_key": keyB})
	assertStatus(t, rr, http.StatusOK)
	body = decodeEnvelope(t, rr)
	me := body["key"].(map[string]any)
	if me["username"] != "Sleepy" {
		t.Errorf("got me %v", me)
	}

	// B (non-admin) tries to revoke A: forbidden, nothing changes.
	rr = env.do(t, "POST", "/keys/revoke", map[string]any{
		"api_key": keyB, "target_key": "key-a",
	})
	assertStatus(t, rr, http.StatusForbidden)
	decodeEnvelope(t, rr)
	if _, err := env.store.FindKey(ctx, "key-a"); err != nil {
		t.Fatalf("key-a disappeared after rejected revoke: %v", err)
	}

	// A revokes B.
	rr = env.do(t, "POST", "/keys/revoke", map[string]any{
		"api_key": "key-a", "target_key": keyB,
	})
	assertStatus(t, rr, http.StatusOK)
	decodeEnvelope(t, rr)

	// B's key no longer authenticates.
	rr = env.do(t, "POST", "/keys/me", map[string]any{"api_key": keyB})
	assertStatus(t, rr, http.StatusUnauthorized)
	decodeEnvelope(t, rr)

	// Revoking B again is still a success (idempotent).
	rr = env.do(t, "POST", "/keys/revoke", map[string]any{
		"api_key": "key-a", "target_key": keyB,
	})
	assertStatus(t, rr, http.StatusOK)
}

func TestKeyCreateMissingName(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdminKey(t, "key-a")
	ctx := context.Background()

	before, _ := env.store.CountKeys(ctx)

	rr := env.do(t, "POST", "/keys/create", map[string]any{"api_key": "key-a"})
	assertStatus(t, rr, http.StatusBadRequest)
	body := decodeEnvelope(t, rr)
	missing := body["missing_fields"].([]any)
	if len(missing) != 1 || missing[0] != "name" {
		t.Errorf("got missing_fields %v, want [name]", missing)
	}

	after, _ := env.store.CountKeys(ctx)
	if after != before {
		t.Errorf("key count changed from %d to %d on invalid request", before, after)
	}
}

func TestKeyCreateForbiddenForNonAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdminKey(t, "key-a")
	ctx := context.Background()

	rr := env.do(t, "POST", "/keys/create", map[string]any{
		"api_key": "key-a", "name": "Sleepy",
	})
	assertStatus(t, rr, http.StatusOK)
	body := decodeEnvelope(t, rr)
	keyB := body["key"].(map[string]any)["api_key"].(string)

	before, _ := env.store.CountKeys(ctx)
	logBefore, _ := env.store.CountLog(ctx)

	rr = env.do(t, "POST", "/keys/create", map[string]any{
		"api_key": keyB, "name": "Grumpy",
	})
	assertStatus(t, rr, http.StatusForbidden)
	decodeEnvelope(t, rr)

	after, _ := env.store.CountKeys(ctx)
	if after != before {
		t.Errorf("key count changed from %d to %d on forbidden issuance", before, after)
	}
	logAfter, _ := env.store.CountLog(ctx)
	if logAfter != logBefore {
		t.Errorf("rejected issuance was audit-logged (%d -> %d entries)", logBefore, logAfter)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/healthz", nil)
	assertStatus(t, rr, http.StatusOK)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appErrors "github.com/fatali-fataliyev/bank_ledger/customErrors"
	"github.com/fatali-fataliyev/bank_ledger/internal/auth"
	"github.com/fatali-fataliyev/bank_ledger/internal/ledger"
	"github.com/fatali-fataliyev/bank_ledger/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mocks
type MockLimiter struct {
	allowed bool
	err     error
	scopes  []string
}

func (m *MockLimiter) Allow(ctx context.Context, scope string, id string) (bool, error) {
	m.scopes = append(m.scopes, scope)
	return m.allowed, m.err
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return errors.New("connection refused") }

type testServer struct {
	handler http.Handler
	api     *Api
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := storage.NewInMemoryStorage()
	authenticator := auth.NewAuthenticator(store, "test-secret", 0)
	service := ledger.NewService(store, authenticator, nil)
	a := NewApi(authenticator, service, store, nil)

	mux := http.NewServeMux()
	a.Register(mux)
	return &testServer{handler: WithRequestLogging(mux), api: a}
}

func (s *testServer) do(t *testing.T, method string, path string, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) signupAndLogin(t *testing.T, username string, password string) string {
	t.Helper()
	creds := CredentialsRequest{Username: username, Password: password}

	rec := s.do(t, http.MethodPost, "/signup", "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[LoginResponse](t, rec)
	require.Equal(t, "bearer", resp.TokenType)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestHttpStatusFromError(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{appErrors.ErrInvalidCredentials, 401},
		{appErrors.ErrInvalidToken, 401},
		{appErrors.ErrUsernameTaken, 400},
		{appErrors.ErrInvalidInput, 400},
		{appErrors.ErrUnknownUser, 404},
		{appErrors.ErrRecordNotFound, 404},
		{appErrors.ErrInvalidDate, 422},
		{appErrors.ErrInvalidPayload, 422},
		{appErrors.ErrRateLimited, 429},
		{appErrors.ErrInternal, 500},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, httpStatusFromError(appErrors.New(tt.code, "x")))
		})
	}
	assert.Equal(t, 500, httpStatusFromError(errors.New("driver exploded")))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"  Bearer   abc  ", "abc"},
		{"abc.def.ghi", "abc.def.ghi"},
		{"Bearer ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, bearerToken(tt.header))
		})
	}
}

func TestSignupAndLogin(t *testing.T) {
	s := newTestServer(t)
	creds := CredentialsRequest{Username: "alice", Password: "pw1"}

	rec := s.do(t, http.MethodPost, "/signup", "", creds)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User registered successfully", decode[MessageResponse](t, rec).Message)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))

	rec = s.do(t, http.MethodPost, "/signup/", "", creds)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrUsernameTaken, decode[appErrors.ErrorResponse](t, rec).Code)

	rec = s.do(t, http.MethodPost, "/signup", "", CredentialsRequest{Username: "", Password: "pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrInvalidInput, decode[appErrors.ErrorResponse](t, rec).Code)

	rec = s.do(t, http.MethodPost, "/signup", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tests := []struct {
		name     string
		creds    CredentialsRequest
		wantCode int
	}{
		{"valid", CredentialsRequest{Username: "alice", Password: "pw1"}, http.StatusOK},
		{"wrong password", CredentialsRequest{Username: "alice", Password: "pw2"}, http.StatusUnauthorized},
		{"unknown user", CredentialsRequest{Username: "mallory", Password: "pw1"}, http.StatusUnauthorized},
		{"username is case sensitive", CredentialsRequest{Username: "Alice", Password: "pw1"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/login", "", tt.creds)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusUnauthorized {
				assert.Equal(t, appErrors.ErrInvalidCredentials, decode[appErrors.ErrorResponse](t, rec).Code)
			}
		})
	}
}

func TestLoginReturnsExpiry(t *testing.T) {
	s := newTestServer(t)
	creds := CredentialsRequest{Username: "alice", Password: "pw1"}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/signup", "", creds).Code)

	before := time.Now()
	rec := s.do(t, http.MethodPost, "/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	expiresAt, err := time.Parse(time.RFC3339, raw["expires_at"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(auth.DefaultTokenTTL), expiresAt, 5*time.Second)
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "alice", "pw1")

	rec := s.do(t, http.MethodPost, "/transactions", token, map[string]any{
		"date":    "2024-01-15",
		"details": "Salary",
		"credit":  1000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ref := decode[CreateTransactionResponse](t, rec).ReferenceNo
	require.NotEmpty(t, ref)

	rec = s.do(t, http.MethodGet, "/transactions/"+ref, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, TransactionItem{ReferenceNo: ref, Date: "2024-01-15", Details: "Salary", Debit: 0, Credit: 1000}, decode[TransactionItem](t, rec))

	rec = s.do(t, http.MethodPut, "/transactions/"+ref, token, map[string]any{"date": "2024-01-16", "debit": 25.5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Transaction "+ref+" updated successfully", decode[MessageResponse](t, rec).Message)

	rec = s.do(t, http.MethodGet, "/transactions/"+ref, token, nil)
	assert.Equal(t, TransactionItem{ReferenceNo: ref, Date: "2024-01-16", Details: "None", Debit: 25.5, Credit: 0}, decode[TransactionItem](t, rec))

	rec = s.do(t, http.MethodDelete, "/transactions/"+ref, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Transaction "+ref+" deleted successfully", decode[MessageResponse](t, rec).Message)

	rec = s.do(t, http.MethodGet, "/transactions/"+ref, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, appErrors.ErrRecordNotFound, decode[appErrors.ErrorResponse](t, rec).Code)
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	s := newTestServer(t)
	alice := s.signupAndLogin(t, "alice", "pw1")
	bob := s.signupAndLogin(t, "bob", "pw2")

	rec := s.do(t, http.MethodPost, "/transactions", bob, map[string]any{"date": "2024-02-01", "debit": 10})
	require.Equal(t, http.StatusCreated, rec.Code)
	bobRef := decode[CreateTransactionResponse](t, rec).ReferenceNo

	// alice never wrote anything, so she has no table yet
	rec = s.do(t, http.MethodGet, "/transactions/"+bobRef, alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, appErrors.ErrUnknownUser, decode[appErrors.ErrorResponse](t, rec).Code)

	rec = s.do(t, http.MethodPost, "/transactions", alice, map[string]any{"date": "2024-02-02"})
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec = s.do(t, method, "/transactions/"+bobRef, alice, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, method)
		assert.Equal(t, appErrors.ErrRecordNotFound, decode[appErrors.ErrorResponse](t, rec).Code)
	}
	rec = s.do(t, http.MethodPut, "/transactions/"+bobRef, alice, map[string]any{"date": "2024-02-03"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/transactions/"+bobRef, bob, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthorizationFailures(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "alice", "pw1")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
	}{
		{"create without token", http.MethodPost, "/transactions", "", map[string]any{"date": "2024-01-01"}},
		{"create with garbage", http.MethodPost, "/transactions", "garbage", map[string]any{"date": "2024-01-01"}},
		{"bad body without token", http.MethodPost, "/transactions", "", "{"},
		{"bad body with garbage token", http.MethodPut, "/transactions/abc", "garbage", "{"},
		{"read without token", http.MethodGet, "/transactions/abc", "", nil},
		{"list with tampered token", http.MethodGet, "/transactions", token + "x", nil},
		{"summary without token", http.MethodGet, "/transactions/summary", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, appErrors.ErrInvalidToken, decode[appErrors.ErrorResponse](t, rec).Code)
		})
	}
}

func TestBareTokenIsAccepted(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "alice", "pw1")

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInvalidPayloads(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "alice", "pw1")

	tests := []struct {
		name     string
		body     any
		wantCode string
	}{
		{"wrong date format", map[string]any{"date": "15/01/2024"}, appErrors.ErrInvalidDate},
		{"missing date", map[string]any{"debit": 10}, appErrors.ErrInvalidDate},
		{"debit as text", `{"date":"2024-01-01","debit":"ten"}`, appErrors.ErrInvalidPayload},
		{"not json", "{", appErrors.ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/transactions", token, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, tt.wantCode, decode[appErrors.ErrorResponse](t, rec).Code)
		})
	}

	// none of the rejected creates made a table
	rec := s.do(t, http.MethodGet, "/transactions/anything", token, nil)
	assert.Equal(t, appErrors.ErrUnknownUser, decode[appErrors.ErrorResponse](t, rec).Code)
}

func TestListAndSummary(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "alice", "pw1")

	rec := s.do(t, http.MethodGet, "/transactions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[ListTransactionResponse](t, rec).Transactions)

	for _, body := range []map[string]any{
		{"date": "2024-01-15", "credit": 1000},
		{"date": "2024-01-20", "debit": 200.25},
		{"date": "2024-02-03", "debit": 50},
	} {
		rec := s.do(t, http.MethodPost, "/transactions", token, body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/transactions?from=2024-01-16&to=2024-02-28", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[ListTransactionResponse](t, rec).Transactions
	require.Len(t, listed, 2)
	assert.Equal(t, "2024-01-20", listed[0].Date)
	assert.Equal(t, "2024-02-03", listed[1].Date)

	rec = s.do(t, http.MethodGet, "/transactions?from=bad", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodGet, "/transactions/summary", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	type summaryBody struct {
		GroupBy string `json:"group_by"`
		Groups  []struct {
			Group  string `json:"group"`
			Debit  string `json:"debit"`
			Credit string `json:"credit"`
			Net    string `json:"net"`
			Count  int    `json:"count"`
		} `json:"groups"`
	}

	var summary summaryBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "month", summary.GroupBy)
	require.Len(t, summary.Groups, 2)
	assert.Equal(t, "2024-01", summary.Groups[0].Group)
	assert.Equal(t, "200.25", summary.Groups[0].Debit)
	assert.Equal(t, "1000", summary.Groups[0].Credit)
	assert.Equal(t, "799.75", summary.Groups[0].Net)
	assert.Equal(t, 2, summary.Groups[0].Count)
	assert.Equal(t, "-50", summary.Groups[1].Net)

	rec = s.do(t, http.MethodGet, "/transactions/summary?group_by=year", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary = summaryBody{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "year", summary.GroupBy)
	require.Len(t, summary.Groups, 1)
	assert.Equal(t, "2024", summary.Groups[0].Group)
	assert.Equal(t, "749.75", summary.Groups[0].Net)
	assert.Equal(t, 3, summary.Groups[0].Count)

	rec = s.do(t, http.MethodGet, "/transactions/summary?group_by=details&from=2024-01-16", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary = summaryBody{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Len(t, summary.Groups, 1)
	assert.Equal(t, ledger.DefaultDetails, summary.Groups[0].Group)
	assert.Equal(t, "250.25", summary.Groups[0].Debit)

	rec = s.do(t, http.MethodGet, "/transactions/summary?group_by=week", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, HealthResponse{Status: "ok", Storage: storage.StorageTypeInMemory}, decode[HealthResponse](t, rec))

	s.api.Storage = failingPinger{}
	rec = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", decode[HealthResponse](t, rec).Status)
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name     string
		limiter  *MockLimiter
		wantCode int
	}{
		{"allowed", &MockLimiter{allowed: true}, http.StatusBadRequest},
		{"limited", &MockLimiter{allowed: false}, http.StatusTooManyRequests},
		{"limiter down fails open", &MockLimiter{err: errors.New("redis down")}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewInMemoryStorage()
			authenticator := auth.NewAuthenticator(store, "test-secret", 0)
			a := NewApi(authenticator, ledger.NewService(store, authenticator, nil), store, tt.limiter)
			mux := http.NewServeMux()
			a.Register(mux)

			// an empty username is rejected after the limiter lets it through
			raw, _ := json.Marshal(CredentialsRequest{})
			req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader(raw))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, []string{"signup"}, tt.limiter.scopes)
			if tt.wantCode == http.StatusTooManyRequests {
				assert.Equal(t, appErrors.ErrRateLimited, decode[appErrors.ErrorResponse](t, rec).Code)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.10"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		realIP     string
		want       string
	}{
		{"direct peer", "198.51.100.4:1234", "", "", "198.51.100.4"},
		{"spoofed forwarded from untrusted peer", "198.51.100.4:1234", "203.0.113.5", "", "198.51.100.4"},
		{"spoofed real ip from untrusted peer", "198.51.100.4:1234", "", "203.0.113.5", "198.51.100.4"},
		{"trusted proxy", "10.1.2.3:443", "203.0.113.5", "", "203.0.113.5"},
		{"client prepends a fake hop", "10.1.2.3:443", "1.2.3.4, 203.0.113.5", "", "203.0.113.5"},
		{"proxy chain", "10.1.2.3:443", "1.2.3.4, 203.0.113.5, 10.9.9.9, 192.0.2.10", "", "203.0.113.5"},
		{"trusted proxy with real ip", "192.0.2.10:443", "", "203.0.113.9", "203.0.113.9"},
		{"trusted proxy without headers", "10.1.2.3:443", "", "", "10.1.2.3"},
		{"all hops trusted", "10.1.2.3:443", "10.4.4.4, 10.5.5.5", "", "10.4.4.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, proxies.clientIP(req))
		})
	}

	// no trusted proxies configured: headers are never read
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:443"
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	assert.Equal(t, "10.1.2.3", TrustedProxies(nil).clientIP(req))
}

func TestParseTrustedProxies(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{" 10.0.0.0/8 ", "", "::1", "192.0.2.10"})
	require.NoError(t, err)
	assert.Len(t, proxies, 3)
	assert.True(t, proxies.contains("10.200.0.1"))
	assert.True(t, proxies.contains("::1"))
	assert.True(t, proxies.contains("::ffff:192.0.2.10"))
	assert.False(t, proxies.contains("192.0.2.11"))
	assert.False(t, proxies.contains("not-an-ip"))

	_, err = ParseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"proxy.local"})
	assert.Error(t, err)
}

// BucketLimiter allows burst requests per id and rejects the rest.
type BucketLimiter struct {
	burst int
	seen  map[string]int
}

func (b *BucketLimiter) Allow(ctx context.Context, scope string, id string) (bool, error) {
	b.seen[scope+":"+id]++
	return b.seen[scope+":"+id] <= b.burst, nil
}

func TestForwardedHeaderCannotBypassLoginLimit(t *testing.T) {
	store := storage.NewInMemoryStorage()
	authenticator := auth.NewAuthenticator(store, "test-secret", 0)
	limiter := &BucketLimiter{burst: 5, seen: make(map[string]int)}
	a := NewApi(authenticator, ledger.NewService(store, authenticator, nil), store, limiter)
	mux := http.NewServeMux()
	a.Register(mux)

	limited := 0
	for i := 0; i < 50; i++ {
		raw, _ := json.Marshal(CredentialsRequest{Username: "alice", Password: "guess"})
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(raw))
		req.RemoteAddr = "198.51.100.4:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.18.0.%d", i))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}

	assert.Equal(t, 45, limited)
	assert.Equal(t, 50, limiter.seen["login:198.51.100.4"])
}

func TestCORSDoesNotAllowCredentials(t *testing.T) {
	handler := NewCORS(nil).Handler(http.NewServeMux())

	preflight := httptest.NewRequest(http.MethodOptions, "/transactions", nil)
	preflight.Header.Set("Origin", "http://evil.example")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	preflight.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, preflight)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRegisterCreateReadDeleteScenario(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "alice", "pw1")

	rec := s.do(t, http.MethodPost, "/transactions", token, map[string]any{
		"date":    "2024-11-12",
		"details": "Debit",
		"debit":   110,
		"credit":  230,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	ref := decode[CreateTransactionResponse](t, rec).ReferenceNo

	rec = s.do(t, http.MethodGet, "/transactions/"+ref, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reference_no":"`+ref+`","date":"2024-11-12","details":"Debit","debit":110,"credit":230}`, rec.Body.String())

	rec = s.do(t, http.MethodDelete, "/transactions/"+ref, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/transactions/"+ref, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fatali-fataliyev/bank_ledger/internal/config"
	"github.com/fatali-fataliyev/bank_ledger/internal/events"
	"github.com/fatali-fataliyev/bank_ledger/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandLayout(t *testing.T) {
	root := NewRootCommand()

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "init-db"}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestOpenStoreInMemory(t *testing.T) {
	cfg := config.Default()
	cfg.App.Storage = config.StorageInMemory

	store, release, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	defer release()
	assert.Equal(t, storage.StorageTypeInMemory, store.GetStorageType())
}

func TestNewPublisher(t *testing.T) {
	assert.IsType(t, events.NoopPublisher{}, newPublisher(config.KafkaConfig{}))

	p := newPublisher(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: events.DefaultTopic})
	assert.IsType(t, &events.KafkaPublisher{}, p)
	assert.NoError(t, p.Close())
}

func TestHandlerWiring(t *testing.T) {
	cfg := config.Default()
	cfg.App.Storage = config.StorageInMemory
	cfg.Auth.JWTSecret = "secret"
	handler, err := newHandler(cfg, storage.NewInMemoryStorage(), events.NoopPublisher{}, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "pw1"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)

	preflight := httptest.NewRequest(http.MethodOptions, "/transactions", nil)
	preflight.Header.Set("Origin", "http://dashboard.local")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	preflight.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, preflight)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestHandlerRejectsBadTrustedProxy(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.JWTSecret = "secret"
	cfg.App.TrustedProxies = []string{"10.0.0.0/40"}
	_, err := newHandler(cfg, storage.NewInMemoryStorage(), events.NoopPublisher{}, nil)
	assert.Error(t, err)
}

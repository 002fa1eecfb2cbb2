package persist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sungrove/voiceboard-go/internal/compile"
)

func TestClient_CreateAgent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/agents", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var cfg compile.AgentConfig
		require.NoError(t, json.NewDecoder(r.Body).Decode(&cfg))
		assert.Equal(t, "Mario's", cfg.BusinessName)

		cfg.ID = "agent-123"
		require.NoError(t, json.NewEncoder(w).Encode(&cfg))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", time.Second)
	created, err := client.CreateAgent(context.Background(), &compile.AgentConfig{
		Name:         "Mario's Assistant",
		BusinessName: "Mario's",
	})
	require.NoError(t, err)
	assert.Equal(t, "agent-123", created.ID)
}

func TestClient_UpdateAgent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v1/agents/agent-123", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"agent-123","name":"Mario's Assistant","business_name":"Mario's"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", time.Second)
	updated, err := client.UpdateAgent(context.Background(), "agent-123", &compile.AgentConfig{
		ID:           "agent-123",
		Name:         "Mario's Assistant",
		BusinessName: "Mario's",
	})
	require.NoError(t, err)
	assert.Equal(t, "agent-123", updated.ID)
}

func TestClient_GetAgent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/agents/agent-9", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": "agent-9",
			"name": "Corner Shop Assistant",
			"business_name": "Corner Shop",
			"tools": [{"type":"reference","id":"business-hours","name":"Store Hours"}]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", time.Second)
	got, err := client.GetAgent(context.Background(), "agent-9")
	require.NoError(t, err)
	assert.Equal(t, "Corner Shop", got.BusinessName)
	require.Len(t, got.Tools, 1)
	ref, ok := got.Tools[0].(compile.ReferenceTool)
	require.True(t, ok, "got %T", got.Tools[0])
	assert.Equal(t, "business-hours", ref.ID)
}

func TestClient_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "agent not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", time.Second)
	_, err := client.GetAgent(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "agent not found")
}

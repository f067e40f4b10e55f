// ABOUTME: Tests for the versioned JSON-POST RPC client
// ABOUTME: Verifies path construction, body round-trips, and error decoding

package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do_PostsToVersionedPath(t *testing.T) {
	var gotPath, gotMethod, gotContentType string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"conversation_id": "conv_1"})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/rpc", nil)
	require.NoError(t, err)

	var resp struct {
		ConversationID string `json:"conversation_id"`
	}
	err = c.Do(context.Background(), "create_conversation", "2025-02-12",
		map[string]string{"idempotency_key": "k1"}, &resp)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/rpc/2025-02-12/create_conversation", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "k1", gotBody["idempotency_key"])
	assert.Equal(t, "conv_1", resp.ConversationID)
}

func TestClient_Do_NilDstIgnoresBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	err = c.Do(context.Background(), "delete_conversations", "2025-02-12",
		map[string][]string{"conversation_ids": {"conv_1"}}, nil)
	assert.NoError(t, err)
}

func TestClient_Do_DecodesErrorRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"model_not_supported","meta":{"model_id":"gpt-2"},"reasons":[{"code":"deprecated"}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	err = c.Do(context.Background(), "create_conversation_message", "2025-02-12", map[string]string{}, nil)
	require.Error(t, err)

	re, ok := AsRemote(err)
	require.True(t, ok)
	assert.Equal(t, "model_not_supported", re.Code())
	assert.Equal(t, http.StatusBadRequest, re.StatusCode)
	require.Len(t, re.Record.Reasons, 1)
	assert.Equal(t, "deprecated", re.Record.Reasons[0].Code)
}

func TestClient_Do_WrappedErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"conversation_not_found"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	err = c.Do(context.Background(), "get_conversation_with_interactions", "2025-02-12", map[string]string{}, nil)
	re, ok := AsRemote(err)
	require.True(t, ok)
	assert.Equal(t, "conversation_not_found", re.Code())
}

func TestClient_Do_UnparseableErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("gateway exploded"))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	err = c.Do(context.Background(), "create_conversation", "2025-02-12", map[string]string{}, nil)
	re, ok := AsRemote(err)
	require.True(t, ok)
	assert.Equal(t, "unknown", re.Code())
	assert.Equal(t, http.StatusInternalServerError, re.StatusCode)
}

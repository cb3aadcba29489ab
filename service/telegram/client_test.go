package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/paperlab/querybot/internal/backoff"
)

func fastRetry() backoff.Policy {
	return backoff.Policy{MaxAttempts: 2, Delay: time.Millisecond, Multiplier: 2, MaxDelay: 5 * time.Millisecond}
}

func TestClient_UpdatesAdvancesOffset(t *testing.T) {
	var requests []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/getUpdates", r.URL.Path)
		var payload map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		requests = append(requests, payload)
		if len(requests) == 1 {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"ok": true,
				"result": []map[string]interface{}{
					{"update_id": 10, "message": map[string]interface{}{"message_id": 1, "text": "hi", "chat": map[string]interface{}{"id": 42}}},
					{"update_id": 11, "message": map[string]interface{}{"message_id": 2, "text": "quantum", "chat": map[string]interface{}{"id": 42}}},
				},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": []interface{}{}})
	}))
	defer server.Close()

	client := New("test-token", WithBaseURL(server.URL), WithPollTimeout(0), WithRetryPolicy(fastRetry()))

	updates, err := client.Updates(context.Background())
	assert.NoError(t, err)
	assert.Len(t, updates, 2)
	assert.Equal(t, "quantum", updates[1].Message.Text)

	_, err = client.Updates(context.Background())
	assert.NoError(t, err)

	// first poll has no offset; second resumes past the last update
	_, hasOffset := requests[0]["offset"]
	assert.False(t, hasOffset)
	assert.Equal(t, float64(12), requests[1]["offset"])
}

func TestClient_Send(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": map[string]interface{}{"message_id": 7}})
	}))
	defer server.Close()

	client := New("test-token", WithBaseURL(server.URL), WithRetryPolicy(fastRetry()))
	assert.NoError(t, client.Send(context.Background(), 42, "<b>Quantum Leap</b>"))
	assert.Equal(t, float64(42), payload["chat_id"])
	assert.Equal(t, "HTML", payload["parse_mode"])
	assert.Equal(t, true, payload["disable_web_page_preview"])
}

func TestClient_SendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "description": "Bad Request: chat not found", "error_code": 400})
	}))
	defer server.Close()

	client := New("test-token", WithBaseURL(server.URL), WithRetryPolicy(fastRetry()))
	err := client.Send(context.Background(), 42, "hello")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestClient_Me(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":     true,
			"result": map[string]interface{}{"id": 1, "username": "paperlab_bot"},
		})
	}))
	defer server.Close()

	client := New("test-token", WithBaseURL(server.URL), WithRetryPolicy(fastRetry()))
	username, err := client.Me(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "paperlab_bot", username)
}

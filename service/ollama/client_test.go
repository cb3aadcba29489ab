package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/paperlab/querybot/internal/backoff"
)

func fastRetry() backoff.Policy {
	return backoff.Policy{MaxAttempts: 3, Delay: time.Millisecond, Multiplier: 2, MaxDelay: 5 * time.Millisecond}
}

func TestClient_Generate(t *testing.T) {
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "  generated text \n"})
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL), WithModel("gemma3:1b"), WithRetryPolicy(fastRetry()))
	output := &GenerateOutput{}
	err := client.Generate(context.Background(), &GenerateInput{Prompt: "hello"}, output)
	assert.NoError(t, err)
	assert.Equal(t, "generated text", output.Text)
	assert.Equal(t, "gemma3:1b", gotPayload["model"])
	assert.Equal(t, false, gotPayload["stream"])
	options, ok := gotPayload["options"].(map[string]interface{})
	if assert.True(t, ok) {
		assert.Equal(t, 0.3, options["temperature"])
	}
}

func TestClient_GenerateRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "ok"})
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL), WithRetryPolicy(fastRetry()))
	output := &GenerateOutput{}
	err := client.Generate(context.Background(), &GenerateInput{Prompt: "hello"}, output)
	assert.NoError(t, err)
	assert.Equal(t, "ok", output.Text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var payload map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "all-minilm", payload["model"])
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"embeddings": [][]float64{{0.1, 0.2, 0.3}}})
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL), WithRetryPolicy(fastRetry()))
	output := &EmbedOutput{}
	err := client.Embed(context.Background(), &EmbedInput{Text: "quantum computing"}, output)
	assert.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, output.Vector)
}

func TestClient_EmbedEmptyText(t *testing.T) {
	client := New(WithRetryPolicy(fastRetry()))
	err := client.Embed(context.Background(), &EmbedInput{}, &EmbedOutput{})
	assert.Error(t, err)
}

func TestClient_Summarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		prompt, _ := payload["prompt"].(string)
		assert.Contains(t, prompt, "Title: Quantum Leap")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"response": "Here's a summary of the research article: The paper explores qubits.",
		})
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL), WithRetryPolicy(fastRetry()))
	output := &SummarizeOutput{}
	err := client.Summarize(context.Background(), &SummarizeInput{
		Title:   "Quantum Leap",
		Content: "A very long body...",
		Link:    "https://example.org/article/1",
	}, output)
	assert.NoError(t, err)
	assert.Equal(t, "The paper explores qubits.", output.Summary)
	assert.Equal(t, "Quantum Leap", output.Title)
	assert.Equal(t, "https://example.org/article/1", output.Link)
	assert.NotEmpty(t, output.Timestamp)
}

func TestClient_SummarizeTruncatesContent(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		prompt, _ = payload["prompt"].(string)
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "short"})
	}))
	defer server.Close()

	// 2-byte runes ensure the byte limit lands mid-rune
	long := strings.Repeat("é", maxContentChars)
	client := New(WithBaseURL(server.URL), WithRetryPolicy(fastRetry()))
	err := client.Summarize(context.Background(), &SummarizeInput{Content: long}, &SummarizeOutput{})
	assert.NoError(t, err)
	assert.Contains(t, prompt, "...")
	assert.True(t, utf8.ValidString(prompt))
	assert.Less(t, len(prompt), maxContentChars+1000)
}

func TestClient_SummarizeNoContent(t *testing.T) {
	client := New(WithRetryPolicy(fastRetry()))
	err := client.Summarize(context.Background(), &SummarizeInput{}, &SummarizeOutput{})
	assert.Error(t, err)
}

func TestClient_EnsureModels(t *testing.T) {
	var pulled []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"models": []map[string]string{{"name": "gemma3:1b"}},
			})
		case "/api/pull":
			var payload map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&payload)
			pulled = append(pulled, payload["name"].(string))
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL), WithRetryPolicy(fastRetry()))
	assert.NoError(t, client.EnsureModels(context.Background()))
	assert.Equal(t, []string{"all-minilm"}, pulled)
}

func TestClient_Method(t *testing.T) {
	client := New()
	for _, name := range []string{"generate", "summarize", "embed"} {
		method, err := client.Method(name)
		assert.NoError(t, err, name)
		assert.NotNil(t, method, name)
	}
	_, err := client.Method("unknown")
	assert.Error(t, err)
}

package vector

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

func testVector(dim int) []float64 {
	ret := make([]float64, dim)
	for i := range ret {
		ret[i] = float64(i) / float64(dim)
	}
	return ret
}

func TestClient_EnsureIndexExisting(t *testing.T) {
	dataServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer dataServer.Close()

	control := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/indexes/research-abstracts", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Api-Key"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"name":      "research-abstracts",
			"dimension": 384,
			"host":      dataServer.URL,
		})
	}))
	defer control.Close()

	client := New("test-key", WithControlPlaneURL(control.URL), WithRetryPolicy(fastRetry()))
	assert.NoError(t, client.EnsureIndex(context.Background()))
	assert.Equal(t, dataServer.URL, client.host)
}

func TestClient_EnsureIndexCreates(t *testing.T) {
	var created map[string]interface{}
	control := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost && r.URL.Path == "/indexes":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"name":      "research-abstracts",
				"dimension": 384,
				"host":      "idx-host.pinecone.io",
			})
		}
	}))
	defer control.Close()

	client := New("test-key", WithControlPlaneURL(control.URL), WithRetryPolicy(fastRetry()))
	assert.NoError(t, client.EnsureIndex(context.Background()))
	assert.Equal(t, "https://idx-host.pinecone.io", client.host)
	assert.Equal(t, "cosine", created["metric"])
	assert.Equal(t, float64(384), created["dimension"])
}

func TestClient_EnsureIndexDimensionMismatch(t *testing.T) {
	control := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"name":      "research-abstracts",
			"dimension": 768,
			"host":      "h",
		})
	}))
	defer control.Close()

	client := New("test-key", WithControlPlaneURL(control.URL), WithRetryPolicy(fastRetry()))
	err := client.EnsureIndex(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")
}

func TestClient_UpsertAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/vectors/upsert":
			var payload struct {
				Vectors []*Point `json:"vectors"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			_ = json.NewEncoder(w).Encode(map[string]int{"upsertedCount": len(payload.Vectors)})
		case "/query":
			var payload map[string]interface{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, float64(1), payload["topK"])
			assert.Equal(t, true, payload["includeMetadata"])
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"matches": []map[string]interface{}{
					{
						"id":    "article_0_deadbeef",
						"score": 0.92,
						"metadata": map[string]string{
							"title":   "Quantum Leap",
							"summary": "The paper explores qubits.",
							"link":    "https://example.org/article/1",
						},
					},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := New("test-key", WithHost(server.URL), WithDimension(8), WithRetryPolicy(fastRetry()))

	upserted := &UpsertOutput{}
	err := client.Upsert(context.Background(), &UpsertInput{
		Points: []*Point{{ID: "article_0_deadbeef", Values: testVector(8), Metadata: map[string]string{"title": "Quantum Leap"}}},
	}, upserted)
	assert.NoError(t, err)
	assert.Equal(t, 1, upserted.Upserted)

	queried := &QueryOutput{}
	err = client.Query(context.Background(), &QueryInput{Vector: testVector(8)}, queried)
	assert.NoError(t, err)
	if assert.Len(t, queried.Matches, 1) {
		assert.Equal(t, "Quantum Leap", queried.Matches[0].Metadata["title"])
		assert.InDelta(t, 0.92, queried.Matches[0].Score, 1e-9)
	}
}

func TestClient_UpsertDimensionMismatch(t *testing.T) {
	client := New("test-key", WithHost("https://h"), WithDimension(384), WithRetryPolicy(fastRetry()))
	err := client.Upsert(context.Background(), &UpsertInput{
		Points: []*Point{{ID: "p", Values: testVector(8)}},
	}, &UpsertOutput{})
	assert.Error(t, err)
}

func TestClient_UpsertWithoutHost(t *testing.T) {
	client := New("test-key", WithDimension(8), WithRetryPolicy(fastRetry()))
	err := client.Upsert(context.Background(), &UpsertInput{
		Points: []*Point{{ID: "p", Values: testVector(8)}},
	}, &UpsertOutput{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "EnsureIndex")
}

func TestClient_Exists(t *testing.T) {
	var gotIDs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vectors/fetch", r.URL.Path)
		gotIDs = r.URL.Query()["ids"]
		vectors := map[string]interface{}{}
		for _, id := range gotIDs {
			if id != "missing" {
				vectors[id] = map[string]interface{}{"id": id}
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"vectors": vectors})
	}))
	defer server.Close()

	client := New("test-key", WithHost(server.URL), WithRetryPolicy(fastRetry()))

	ok, err := client.Exists(context.Background(), "known")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.Exists(context.Background(), "missing")
	assert.NoError(t, err)
	assert.False(t, ok)

	// each id travels as its own repeated ids parameter
	ok, err = client.Exists(context.Background(), "one", "two")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"one", "two"}, gotIDs)

	ok, err = client.Exists(context.Background(), "one", "missing")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestUniqueID(t *testing.T) {
	id := UniqueID(3, "https://example.org/article/42")
	assert.Regexp(t, `^article_3_[0-9a-f]{8}$`, id)
	assert.Equal(t, id, UniqueID(3, "https://example.org/article/42"))
	assert.NotEqual(t, id, UniqueID(3, "https://example.org/article/43"))
}

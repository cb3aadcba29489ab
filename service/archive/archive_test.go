package archive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeObjectStore implements just enough of the S3 API for the client:
// bucket HEAD/PUT, object PUT and the bucket location query.
type fakeObjectStore struct {
	mux     sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	creates int
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

func (f *fakeObjectStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mux.Lock()
	defer f.mux.Unlock()
	if _, ok := r.URL.Query()["location"]; ok {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`))
		return
	}
	parts := strings.SplitN(strings.Trim(r.URL.Path, "/"), "/", 2)
	bucket := parts[0]
	switch {
	case r.Method == http.MethodHead && len(parts) == 1:
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && len(parts) == 1:
		f.buckets[bucket] = true
		f.creates++
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[parts[1]] = body
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newTestService(t *testing.T, store *fakeObjectStore) (*Service, func()) {
	server := httptest.NewServer(store)
	service, err := New(&Config{
		Endpoint:  strings.TrimPrefix(server.URL, "http://"),
		AccessKey: "test-access",
		SecretKey: "test-secret",
		Bucket:    "articles-raw",
	})
	assert.NoError(t, err)
	return service, server.Close
}

func TestService_EnsureBucket(t *testing.T) {
	store := newFakeObjectStore()
	service, closer := newTestService(t, store)
	defer closer()
	ctx := context.Background()

	assert.NoError(t, service.EnsureBucket(ctx))
	assert.True(t, store.buckets["articles-raw"])

	// second call finds the bucket and does not re-create it
	assert.NoError(t, service.EnsureBucket(ctx))
	assert.Equal(t, 1, store.creates)
}

func TestService_Store(t *testing.T) {
	store := newFakeObjectStore()
	service, closer := newTestService(t, store)
	defer closer()
	ctx := context.Background()

	assert.NoError(t, service.EnsureBucket(ctx))
	assert.NoError(t, service.Store(ctx, "article_0_deadbeef.html", []byte("<html/>"), "text/html"))
	assert.Contains(t, store.objects, "article_0_deadbeef.html")
}

func TestNew_RequiresEndpointAndBucket(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)
}

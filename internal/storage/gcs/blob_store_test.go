package gcs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, handler http.Handler) *storage.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := storage.NewClient(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	return client
}

func TestBlobStorePutObject(t *testing.T) {
	t.Parallel()

	objectName := "jobs/run-1/abc.json"
	payload := []byte(`{"id":"abc","title":"Data Engineer"}`)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/upload/storage/v1/b/test-bucket/o")
		assert.Equal(t, objectName, r.URL.Query().Get("name"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Contains(t, string(body), string(payload))
		assert.Contains(t, string(body), "application/json")

		fmt.Fprintln(w, `{ "name": "`+objectName+`", "bucket": "test-bucket" }`)
	})

	store, err := New(newTestClient(t, handler), Config{Bucket: "test-bucket"})
	require.NoError(t, err)

	uri, err := store.PutObject(context.Background(), objectName, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "gs://test-bucket/"+objectName, uri)
}

func TestBlobStorePutObjectError(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	store, err := New(newTestClient(t, handler), Config{Bucket: "test-bucket"})
	require.NoError(t, err)

	_, err = store.PutObject(context.Background(), "jobs/x.json", "application/json", strings.NewReader("{}"))
	require.Error(t, err)

	_, err = store.PutObject(context.Background(), " ", "application/json", strings.NewReader("{}"))
	require.ErrorContains(t, err, "path is required")
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "b"})
	require.Error(t, err)

	client := newTestClient(t, http.NotFoundHandler())
	_, err = New(client, Config{})
	require.ErrorContains(t, err, "bucket name is required")
}

func TestOpenFailsOnMissingBucket(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/b/missing")
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	_, err := Open(context.Background(), Config{Bucket: "missing"},
		option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.Error(t, err)
}

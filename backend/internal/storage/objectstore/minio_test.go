package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/boxforum/boxforum/shared/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers the handful of path-style requests the store issues.
type fakeS3 struct {
	mu           sync.Mutex
	bucketExists bool
	objects      map[string]string // key -> content type
	requests     []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	io.Copy(io.Discard, r.Body)
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	if bucket != "images" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case key == "" && r.Method == http.MethodHead:
		if !f.bucketExists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case key == "" && r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		f.writeListing(w, r.URL.Query().Get("prefix"))
	case key == "" && r.Method == http.MethodPut:
		f.bucketExists = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		f.objects[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) writeListing(w http.ResponseWriter, prefix string) {
	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	fmt.Fprintf(&b, "<Name>images</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>", prefix, len(keys))
	for _, key := range keys {
		fmt.Fprintf(&b, `<Contents><Key>%s</Key><LastModified>2024-01-01T00:00:00.000Z</LastModified><ETag>"d41d8cd98f00b204e9800998ecf8427e"</ETag><Size>1</Size><StorageClass>STANDARD</StorageClass></Contents>`, key)
	}
	b.WriteString(`</ListBucketResult>`)

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, b.String())
}

func newTestStore(t *testing.T, fake *fakeS3, baseURL string) *Storage {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := New(context.Background(), config.Minio{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "images",
		Region:    "us-east-1",
	}, baseURL)
	require.NoError(t, err)
	return store
}

func TestNewCreatesMissingBucket(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{}}
	newTestStore(t, fake, "")

	assert.True(t, fake.bucketExists)
	assert.Contains(t, fake.requests, "PUT /images/")
}

func TestUploadAndDelete(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{bucketExists: true, objects: map[string]string{}}
	store := newTestStore(t, fake, "https://cdn.example/images/")

	require.NoError(t, store.Upload(ctx, "threads/t1/img", []byte("png bytes"), "image/png"))
	assert.Equal(t, "image/png", fake.objects["threads/t1/img"])
	assert.Equal(t, "https://cdn.example/images/threads/t1/img", store.URL("threads/t1/img"))

	require.NoError(t, store.Delete(ctx, "threads/t1/img"))
	assert.NotContains(t, fake.objects, "threads/t1/img")
	assert.NoError(t, store.Ping(ctx))
}

func TestDefaultBaseURL(t *testing.T) {
	fake := &fakeS3{bucketExists: true, objects: map[string]string{}}
	store := newTestStore(t, fake, "")

	assert.True(t, strings.HasPrefix(store.URL("k"), "http://127.0.0.1:"))
	assert.True(t, strings.HasSuffix(store.URL("k"), "/images/k"))
}

func TestListImages(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{bucketExists: true, objects: map[string]string{
		"threads/t1/img":           "image/png",
		"threads/t1/img-thumbnail": "image/jpeg",
		"other/file":               "text/plain",
	}}
	store := newTestStore(t, fake, "")

	images, err := store.ListImages(ctx, "threads/")
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "threads/t1/img", images[0].Key)
	assert.Equal(t, "threads/t1/img-thumbnail", images[1].Key)
	assert.True(t, images[0].ModTime.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

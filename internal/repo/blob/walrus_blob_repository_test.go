package blob_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/blobrelay/internal/domain"
	context_ "github.com/mkrupp/blobrelay/internal/infra/context"

	. "github.com/mkrupp/blobrelay/internal/repo/blob"
)

type recordedRequest struct {
	Method  string
	Path    string
	RawPath string
	Query   string
	Body    []byte
	TraceID string
}

type fakeWalrus struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (f *fakeWalrus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		RawPath: r.URL.EscapedPath(),
		Query:   r.URL.RawQuery,
		Body:    body,
		TraceID: r.Header.Get(TraceIDHeader),
	})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(f.status)
	_, _ = io.WriteString(w, f.body)
}

func (f *fakeWalrus) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]recordedRequest(nil), f.requests...)
}

func setupWalrusTestRepo(t *testing.T, fake *fakeWalrus) *WalrusRepository {
	t.Helper()

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	repo, err := NewWalrusBlobRepository(WalrusBlobRepositoryConfig{
		PublisherURL:  srv.URL,
		AggregatorURL: srv.URL + "/",
		Epochs:        5,
		CallTimeout:   time.Second,
	}, nil)
	require.NoError(t, err)

	return repo
}

func TestWalrusRepository_Store(t *testing.T) {
	t.Parallel()

	fake := &fakeWalrus{
		status: http.StatusOK,
		body:   `{"newlyCreated":{"blobObject":{"blobId":"abc_DEF-123"}}}`,
	}
	repo := setupWalrusTestRepo(t, fake)

	ctx := context_.WithTraceID(context.Background(), "trace-1")
	payload := []byte("migration payload é\x00 with bytes")

	receipt, err := repo.Store(ctx, payload)
	require.NoError(t, err)

	assert.Equal(t, domain.BlobID("abc_DEF-123"), receipt.BlobID)
	assert.Equal(t, []byte(fake.body), receipt.Body)
	assert.Equal(t, "text/plain", receipt.ContentType)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/v1/blobs", reqs[0].Path)
	assert.Equal(t, "epochs=5", reqs[0].Query)
	assert.Equal(t, payload, reqs[0].Body)
	assert.Equal(t, "trace-1", reqs[0].TraceID)
}

func TestWalrusRepository_Fetch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		id          domain.BlobID
		wantPath    string
		wantRawPath string
	}{
		{
			name:        "url safe id",
			id:          "M4hsZGQ1oCktdzegB6HnI6Mi28S2nqOPHxK-W7_4BUk",
			wantPath:    "/v1/blobs/M4hsZGQ1oCktdzegB6HnI6Mi28S2nqOPHxK-W7_4BUk",
			wantRawPath: "/v1/blobs/M4hsZGQ1oCktdzegB6HnI6Mi28S2nqOPHxK-W7_4BUk",
		},
		{
			name:        "id needing escaping keeps its value",
			id:          "a b?c#d",
			wantPath:    "/v1/blobs/a b?c#d",
			wantRawPath: "/v1/blobs/a%20b%3Fc%23d",
		},
		{
			name:        "slash stays inside one segment",
			id:          "a/b",
			wantPath:    "/v1/blobs/a/b",
			wantRawPath: "/v1/blobs/a%2Fb",
		},
		{
			name:        "whitespace id is forwarded",
			id:          " ",
			wantPath:    "/v1/blobs/ ",
			wantRawPath: "/v1/blobs/%20",
		},
		{
			name:        "dot segments are not cleaned",
			id:          "..",
			wantPath:    "/v1/blobs/..",
			wantRawPath: "/v1/blobs/..",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := &fakeWalrus{status: http.StatusOK, body: "blob content"}
			repo := setupWalrusTestRepo(t, fake)

			blob, err := repo.Fetch(context.Background(), tt.id)
			require.NoError(t, err)

			assert.Equal(t, tt.id, blob.ID)
			assert.Equal(t, []byte("blob content"), blob.Body)

			reqs := fake.Requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, http.MethodGet, reqs[0].Method)
			assert.Equal(t, tt.wantPath, reqs[0].Path)
			assert.Equal(t, tt.wantRawPath, reqs[0].RawPath)
			assert.Empty(t, reqs[0].Body)
		})
	}
}

func TestWalrusRepository_UpstreamError(t *testing.T) {
	t.Parallel()

	fake := &fakeWalrus{status: http.StatusNotFound, body: "blob not found"}
	repo := setupWalrusTestRepo(t, fake)

	_, err := repo.Fetch(context.Background(), "unknown")

	var upstreamErr *domain.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusNotFound, upstreamErr.StatusCode)
	assert.Equal(t, []byte("blob not found"), upstreamErr.Body)
	assert.NotErrorIs(t, err, domain.ErrUpstreamUnavailable)

	_, err = repo.Store(context.Background(), []byte("x"))
	require.ErrorAs(t, err, &upstreamErr)
	assert.Len(t, fake.Requests(), 2)
}

func TestWalrusRepository_Unavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	repo, err := NewWalrusBlobRepository(WalrusBlobRepositoryConfig{
		PublisherURL:  srv.URL,
		AggregatorURL: srv.URL,
		Epochs:        5,
		CallTimeout:   time.Second,
	}, nil)
	require.NoError(t, err)

	_, err = repo.Store(context.Background(), []byte("payload"))
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

	_, err = repo.Fetch(context.Background(), "some-id")
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

// The call timeout is not something the relay ever had; it bounds waits on
// a slow network and is exercised here on its own.
func TestWalrusRepository_CallTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	repo, err := NewWalrusBlobRepository(WalrusBlobRepositoryConfig{
		PublisherURL:  srv.URL,
		AggregatorURL: srv.URL,
		Epochs:        5,
		CallTimeout:   50 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	start := time.Now()
	_, err = repo.Fetch(context.Background(), "slow")

	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWalrusRepository_URLs(t *testing.T) {
	t.Parallel()

	repo, err := NewWalrusBlobRepository(WalrusBlobRepositoryConfig{
		PublisherURL:  "https://publisher.example.org/",
		AggregatorURL: "https://aggregator.example.org/prefix",
		Epochs:        7,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://publisher.example.org/v1/blobs?epochs=7", repo.StoreURL())
	assert.Equal(t, "https://aggregator.example.org/prefix/v1/blobs/xyz", repo.FetchURL("xyz"))
	assert.Equal(t, "https://aggregator.example.org/prefix/v1/blobs/x%2Fy%20z", repo.FetchURL("x/y z"))
}

func TestNewWalrusBlobRepository_InvalidURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "publisher.example.org", "ftp://x", "http://"} {
		_, err := NewWalrusBlobRepository(WalrusBlobRepositoryConfig{
			PublisherURL:  raw,
			AggregatorURL: "https://aggregator.example.org",
		}, nil)
		assert.ErrorIs(t, err, ErrInvalidBaseURL, raw)
	}
}

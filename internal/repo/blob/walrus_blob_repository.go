package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mkrupp/blobrelay/internal/domain"
	context_ "github.com/mkrupp/blobrelay/internal/infra/context"
	"github.com/mkrupp/blobrelay/internal/infra/logging"
)

const (
	TraceIDHeader = "X-Request-ID"

	blobsPath = "/v1/blobs"
)

var ErrInvalidBaseURL = errors.New("invalid base url")

// WalrusBlobRepositoryConfig holds the endpoints of the Walrus network.
// Writes go to a publisher, reads to an aggregator.
type WalrusBlobRepositoryConfig struct {
	PublisherURL  string `env:"PUBLISHER_URL" default:"https://publisher.walrus-testnet.walrus.space"`
	AggregatorURL string `env:"AGGREGATOR_URL" default:"https://aggregator.walrus-testnet.walrus.space"`

	// Epochs is the storage duration passed along with every write.
	Epochs uint `env:"EPOCHS" default:"5"`

	// CallTimeout bounds a single round-trip to the network. Zero disables it.
	CallTimeout time.Duration `env:"CALL_TIMEOUT" default:"10s"`
}

// WalrusRepository implements Repository on top of the Walrus HTTP API.
type WalrusRepository struct {
	publisher  *url.URL
	aggregator *url.URL
	httpClient *http.Client
	log        logging.Logger
	cfg        WalrusBlobRepositoryConfig
}

var _ Repository = (*WalrusRepository)(nil)

// NewWalrusBlobRepository validates the configured endpoints and returns a
// repository. If httpClient is nil, a client with cfg.CallTimeout is used.
func NewWalrusBlobRepository(
	cfg WalrusBlobRepositoryConfig,
	httpClient *http.Client,
) (*WalrusRepository, error) {
	publisher, err := parseBaseURL(cfg.PublisherURL)
	if err != nil {
		return nil, fmt.Errorf("publisher: %w", err)
	}

	aggregator, err := parseBaseURL(cfg.AggregatorURL)
	if err != nil {
		return nil, fmt.Errorf("aggregator: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.CallTimeout} //nolint:exhaustruct
	}

	return &WalrusRepository{
		publisher:  publisher,
		aggregator: aggregator,
		httpClient: httpClient,
		log: logging.GetLogger("repo.blob.walrus_repository").With(logging.Group("repo",
			"publisher", publisher.String(),
			"aggregator", aggregator.String(),
		)),
		cfg: cfg,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, raw)
	}

	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""

	return u, nil
}

// StoreURL returns the publisher endpoint a write is sent to.
func (repo *WalrusRepository) StoreURL() string {
	u := *repo.publisher
	u.Path += blobsPath
	u.RawQuery = url.Values{"epochs": {strconv.FormatUint(uint64(repo.cfg.Epochs), 10)}}.Encode()

	return u.String()
}

// FetchURL returns the aggregator endpoint for id. The ID is escaped as a
// single path segment, so a "/" inside it stays part of the ID and the value
// the aggregator decodes is the ID itself.
func (repo *WalrusRepository) FetchURL(id domain.BlobID) string {
	u := *repo.aggregator
	u.RawPath = u.EscapedPath() + blobsPath + "/" + url.PathEscape(id.String())
	u.Path += blobsPath + "/" + id.String()

	return u.String()
}

// Store implements Repository.
func (repo *WalrusRepository) Store(ctx context.Context, body []byte) (*domain.StoreReceipt, error) {
	resp, err := repo.do(ctx, http.MethodPut, repo.StoreURL(), body)
	if err != nil {
		return nil, err
	}

	return domain.NewStoreReceipt(resp.StatusCode, resp.ContentType, resp.Body), nil
}

// Fetch implements Repository.
func (repo *WalrusRepository) Fetch(ctx context.Context, id domain.BlobID) (*domain.Blob, error) {
	resp, err := repo.do(ctx, http.MethodGet, repo.FetchURL(id), nil)
	if err != nil {
		return nil, err
	}

	return domain.NewBlob(id, resp.ContentType, resp.Body), nil
}

type response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

func (repo *WalrusRepository) do(ctx context.Context, method, target string, body []byte) (_ *response, err error) {
	log := repo.log.With(logging.Group("call", "method", method, "url", target))
	start := time.Now()

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "blob store call failed", "error", err, "duration", time.Since(start))
		}
	}()

	if repo.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, repo.cfg.CallTimeout)
		defer cancel()
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		req.Header.Set(TraceIDHeader, traceID)
	}

	httpResp, err := repo.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrUpstreamUnavailable, err)
	}

	log.DebugContext(ctx, "blob store call done",
		"status", httpResp.StatusCode,
		"bytes", len(respBody),
		"duration", time.Since(start),
	)

	resp := &response{
		StatusCode:  httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		Body:        respBody,
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.UpstreamError{
			StatusCode:  resp.StatusCode,
			ContentType: resp.ContentType,
			Body:        resp.Body,
		}
	}

	return resp, nil
}

package relaysvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkrupp/blobrelay/internal/domain"
	"github.com/mkrupp/blobrelay/internal/infra/logging"
	http_ "github.com/mkrupp/blobrelay/internal/infra/transport/http"
)

const (
	BlobIDHeader = "X-Blob-Id"

	defaultContentType = "text/plain; charset=utf-8"
)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig

	// URLBlobIDParam is the route variable holding the blob ID.
	URLBlobIDParam string `env:"URL_BLOB_ID_PARAM" default:"blobId"`

	// MetricsPath serves Prometheus metrics. Empty disables the endpoint.
	MetricsPath string `env:"METRICS_PATH" default:"/metrics"`
}

// HTTPTransport exposes a RelayService over HTTP.
type HTTPTransport struct {
	relaySvc RelayService
	router   *mux.Router
	log      logging.Logger
	cfg      HTTPTransportConfig
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates the transport and its route table:
//   - GET /: health check
//   - POST /migrationdata: upload a blob
//   - GET /migration/{blobId}: retrieve a blob
//   - GET /metrics: Prometheus metrics, unless disabled
func NewHTTPTransport(relaySvc RelayService, cfg HTTPTransportConfig) *HTTPTransport {
	ht := &HTTPTransport{
		relaySvc: relaySvc,
		log:      logging.GetLogger("svc.relaysvc.http_transport"),
		cfg:      cfg,
	}

	// Blob IDs are opaque: match on the escaped path so "%2F" stays inside
	// one segment, and never rewrite dot segments.
	r := mux.NewRouter().UseEncodedPath().SkipClean(true)
	r.HandleFunc("/", ht.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/migrationdata", ht.HandleUpload).Methods(http.MethodPost)
	r.HandleFunc(fmt.Sprintf("/migration/{%s}", cfg.URLBlobIDParam), ht.HandleRetrieve).Methods(http.MethodGet)
	// An empty segment does not match the template above; route it to the
	// same handler so it is rejected as a bad request instead of a 404.
	r.HandleFunc("/migration/", ht.HandleRetrieve).Methods(http.MethodGet)
	r.HandleFunc("/migration", ht.HandleRetrieve).Methods(http.MethodGet)

	if cfg.MetricsPath != "" {
		r.Handle(cfg.MetricsPath, promhttp.Handler()).Methods(http.MethodGet)
	}

	ht.router = r

	return ht
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.router.ServeHTTP(w, r)
}

// HandleHealth always answers 200 with {"data":"Hello World!"}.
func (ht *HTTPTransport) HandleHealth(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(ht.relaySvc.Health(r.Context()))
	if err != nil {
		ht.log.ErrorContext(r.Context(), "encode health response", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// HandleUpload forwards the "data" field of a JSON body to the blob store.
// The store's response is relayed with its blob ID, when known, in the
// X-Blob-Id header.
func (ht *HTTPTransport) HandleUpload(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleUpload(w, r)
}

func (ht *HTTPTransport) handleUpload(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "blob upload failed", "error", err)
		} else {
			log.DebugContext(ctx, "blob upload relayed")
		}
	}(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("read body: %w", err)
	}

	req, err := domain.DecodeUploadRequest(body)
	if err != nil {
		ht.writeError(w, "upload", err)

		return err
	}

	receipt, err := ht.relaySvc.Upload(r.Context(), req)
	if err != nil {
		ht.writeError(w, "upload", err)

		return fmt.Errorf("upload: %w", err)
	}

	if receipt.BlobID != "" {
		w.Header().Set(BlobIDHeader, receipt.BlobID.String())
	}

	writeBody(w, http.StatusOK, receipt.ContentType, receipt.Body)

	return nil
}

// HandleRetrieve relays the blob named by the route variable. The blob
// store's own status and body are passed through, including 404s.
func (ht *HTTPTransport) HandleRetrieve(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRetrieve(w, r)
}

func (ht *HTTPTransport) handleRetrieve(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "blob retrieve failed", "error", err)
		} else {
			log.DebugContext(ctx, "blob retrieved")
		}
	}(r.Context())

	rawID, err := url.PathUnescape(mux.Vars(r)[ht.cfg.URLBlobIDParam])
	if err != nil {
		err = fmt.Errorf("%w: blob id: %w", domain.ErrBadRequest, err)
		ht.writeError(w, "fetch", err)

		return err
	}

	blobID := domain.BlobID(rawID)
	log = log.With(logging.Group("blob", "id", blobID.String()))

	blob, err := ht.relaySvc.Retrieve(r.Context(), blobID)
	if err != nil {
		ht.writeError(w, "fetch", err)

		return fmt.Errorf("retrieve: %w", err)
	}

	writeHeader(w, http.StatusOK, blob.ContentType, blob.Size())

	if _, err := blob.WriteTo(w); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}

	return nil
}

// writeError maps a relay error to a response:
//   - *domain.UpstreamError: the store's status and body, verbatim
//   - domain.ErrBadRequest: 400
//   - domain.ErrUpstreamUnavailable: 502 with the cause
//   - anything else: 500
func (ht *HTTPTransport) writeError(w http.ResponseWriter, op string, err error) {
	var upstreamErr *domain.UpstreamError

	switch {
	case errors.As(err, &upstreamErr):
		writeBody(w, upstreamErr.StatusCode, upstreamErr.ContentType, upstreamErr.Body)
	case errors.Is(err, domain.ErrBadRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		http.Error(w, fmt.Sprintf("failed to %s: %v", op, err), http.StatusBadGateway)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeBody(w http.ResponseWriter, status int, contentType string, body []byte) {
	writeHeader(w, status, contentType, int64(len(body)))
	_, _ = w.Write(body)
}

func writeHeader(w http.ResponseWriter, status int, contentType string, size int64) {
	if contentType == "" {
		contentType = defaultContentType
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(status)
}

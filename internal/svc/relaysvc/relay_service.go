package relaysvc

import (
	"context"

	"github.com/mkrupp/blobrelay/internal/domain"
)

// RelayService forwards blobs between callers and the remote blob store.
// It holds no state of its own; every call is independent.
type RelayService interface {
	// Health returns the fixed health payload.
	Health(ctx context.Context) domain.HealthResponse

	// Upload forwards the request payload, unmodified, to the blob store.
	// Returns the store's receipt, or an error wrapping domain.ErrBadRequest,
	// domain.ErrUpstreamUnavailable, or a *domain.UpstreamError.
	Upload(ctx context.Context, req domain.UploadRequest) (*domain.StoreReceipt, error)

	// Retrieve fetches the blob with the given ID from the blob store.
	// An empty ID fails with domain.ErrBadRequest before any remote call.
	Retrieve(ctx context.Context, id domain.BlobID) (*domain.Blob, error)
}

package blob

import (
	"context"

	"github.com/mkrupp/blobrelay/internal/domain"
)

// Repository is a remote blob store reached over the network. Every call
// performs exactly one round-trip and is never retried.
type Repository interface {
	// Store writes body as a new blob. On success the store's receipt is
	// returned. A non-2xx answer yields *domain.UpstreamError, a transport
	// failure an error wrapping domain.ErrUpstreamUnavailable.
	Store(ctx context.Context, body []byte) (*domain.StoreReceipt, error)

	// Fetch reads the blob with the given ID. Errors follow the same
	// convention as Store.
	Fetch(ctx context.Context, id domain.BlobID) (*domain.Blob, error)
}

package relaysvc

import (
	"context"
	"fmt"
	"time"

	"github.com/mkrupp/blobrelay/internal/domain"
	"github.com/mkrupp/blobrelay/internal/infra/logging"
	"github.com/mkrupp/blobrelay/internal/repo/blob"
)

// BlobRelayService implements RelayService on top of a blob.Repository.
type BlobRelayService struct {
	repo blob.Repository
	log  logging.Logger
}

var _ RelayService = (*BlobRelayService)(nil)

// NewBlobRelayService creates a relay backed by repo.
func NewBlobRelayService(repo blob.Repository) *BlobRelayService {
	return &BlobRelayService{
		repo: repo,
		log:  logging.GetLogger("svc.relaysvc.blob_relay_service"),
	}
}

func (svc *BlobRelayService) Health(_ context.Context) domain.HealthResponse {
	return domain.Health
}

func (svc *BlobRelayService) Upload(ctx context.Context, req domain.UploadRequest) (_ *domain.StoreReceipt, err error) {
	defer func(start time.Time) { observe(operationUpload, start, err) }(time.Now())

	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload := req.Payload()

	receipt, err := svc.repo.Store(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	svc.log.DebugContext(ctx, "blob uploaded", logging.Group("blob",
		"id", receipt.BlobID.String(),
		"size", len(payload),
	))

	return receipt, nil
}

func (svc *BlobRelayService) Retrieve(ctx context.Context, id domain.BlobID) (_ *domain.Blob, err error) {
	defer func(start time.Time) { observe(operationRetrieve, start, err) }(time.Now())

	if id.IsZero() {
		return nil, fmt.Errorf("%w: empty blob id", domain.ErrBadRequest)
	}

	fetched, err := svc.repo.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	svc.log.DebugContext(ctx, "blob retrieved", logging.Group("blob",
		"id", id.String(),
		"size", fetched.Size(),
	))

	return fetched, nil
}

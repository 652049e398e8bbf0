package domain

import "encoding/json"

// StoreReceipt is the remote store's answer to a successful write. Body is
// kept verbatim; BlobID is filled in only when the store reported one.
type StoreReceipt struct {
	BlobID      BlobID
	StatusCode  int
	ContentType string
	Body        []byte
}

// storeResponse covers the two shapes the publisher answers a write with:
// a freshly registered blob object, or a pointer to an already certified blob.
type storeResponse struct {
	NewlyCreated *struct {
		BlobObject struct {
			BlobID string `json:"blobId"`
		} `json:"blobObject"`
	} `json:"newlyCreated"`
	AlreadyCertified *struct {
		BlobID string `json:"blobId"`
	} `json:"alreadyCertified"`
}

// NewStoreReceipt builds a receipt from the raw publisher response. A body
// that is not JSON, or carries no blob ID, leaves BlobID empty.
func NewStoreReceipt(statusCode int, contentType string, body []byte) *StoreReceipt {
	receipt := &StoreReceipt{
		StatusCode:  statusCode,
		ContentType: contentType,
		Body:        body,
	}

	var resp storeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return receipt
	}

	switch {
	case resp.NewlyCreated != nil && resp.NewlyCreated.BlobObject.BlobID != "":
		receipt.BlobID = BlobID(resp.NewlyCreated.BlobObject.BlobID)
	case resp.AlreadyCertified != nil && resp.AlreadyCertified.BlobID != "":
		receipt.BlobID = BlobID(resp.AlreadyCertified.BlobID)
	}

	return receipt
}

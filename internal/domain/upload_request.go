package domain

import (
	"encoding/json"
	"fmt"
)

// UploadRequest is the body accepted by the upload endpoint. Data is a
// pointer so that a missing field can be told apart from an empty string.
type UploadRequest struct {
	Data *string `json:"data"`
}

// NewUploadRequest returns a request carrying data.
func NewUploadRequest(data string) UploadRequest {
	return UploadRequest{Data: &data}
}

// DecodeUploadRequest parses a JSON upload body. Malformed JSON, a
// non-string data field and a missing data field all yield ErrBadRequest.
func DecodeUploadRequest(body []byte) (UploadRequest, error) {
	var req UploadRequest

	if err := json.Unmarshal(body, &req); err != nil {
		return UploadRequest{}, fmt.Errorf("%w: decode body: %w", ErrBadRequest, err)
	}

	if err := req.Validate(); err != nil {
		return UploadRequest{}, err
	}

	return req, nil
}

// Validate checks that the data field was supplied.
func (req UploadRequest) Validate() error {
	if req.Data == nil {
		return fmt.Errorf("%w: missing field %q", ErrBadRequest, "data")
	}

	return nil
}

// Payload returns the bytes forwarded to the remote store.
func (req UploadRequest) Payload() []byte {
	if req.Data == nil {
		return nil
	}

	return []byte(*req.Data)
}

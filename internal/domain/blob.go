package domain

import (
	"fmt"
	"io"
)

// Blob is the content of a blob as returned by the remote store.
type Blob struct {
	ID          BlobID
	ContentType string
	Body        []byte
}

// NewBlob creates a new Blob with the given ID and content.
func NewBlob(id BlobID, contentType string, body []byte) *Blob {
	return &Blob{
		ID:          id,
		ContentType: contentType,
		Body:        body,
	}
}

// Size returns the size of the blob's content in bytes.
func (blob *Blob) Size() int64 {
	return int64(len(blob.Body))
}

// WriteTo writes the blob's content to the given writer.
func (blob *Blob) WriteTo(writer io.Writer) (int64, error) {
	n, err := writer.Write(blob.Body)
	if err != nil {
		return int64(n), fmt.Errorf("write: %w", err)
	}

	return int64(n), nil
}

package domain

// BlobID identifies a blob in the remote store. It is assigned by the store
// and handed back unchanged on retrieval; the relay never interprets it.
type BlobID string

// String returns the string representation of the BlobID.
func (id BlobID) String() string {
	return string(id)
}

// IsZero reports whether the identifier is empty. Any other value,
// whitespace included, is a valid opaque token.
func (id BlobID) IsZero() bool {
	return id == ""
}

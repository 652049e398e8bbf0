package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/blobrelay/internal/domain"
)

func TestDecodeUploadRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "plain string", body: `{"data":"hello"}`, want: "hello"},
		{name: "empty string is valid", body: `{"data":""}`, want: ""},
		{name: "unknown fields are ignored", body: `{"data":"x","extra":1}`, want: "x"},
		{name: "escaped content", body: `{"data":"{\"nested\":true}\n"}`, want: "{\"nested\":true}\n"},
		{name: "missing field", body: `{}`, wantErr: true},
		{name: "null field", body: `{"data":null}`, wantErr: true},
		{name: "number instead of string", body: `{"data":42}`, wantErr: true},
		{name: "malformed json", body: `{"data":`, wantErr: true},
		{name: "empty body", body: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req, err := domain.DecodeUploadRequest([]byte(tt.body))
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrBadRequest)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, []byte(tt.want), req.Payload())
		})
	}
}

func TestBlobID_IsZero(t *testing.T) {
	t.Parallel()

	assert.True(t, domain.BlobID("").IsZero())
	assert.False(t, domain.BlobID(" \t").IsZero())
	assert.False(t, domain.BlobID("M4hsZGQ1oCktdzegB6HnI6Mi28S2nqOPHxK-W7_4BUk").IsZero())
}

package encoding_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkrupp/blobrelay/internal/util/encoding"
)

func TestEncodeCrockfordB32LC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "empty input", input: []byte{}, want: ""},
		{name: "single byte", input: []byte{0xF5}, want: "ym"},
		{name: "two bytes", input: []byte{0xF5, 0x3A}, want: "ymx0"},
		{name: "all zero bytes", input: []byte{0, 0, 0, 0}, want: "0000000"},
		{name: "all ones", input: []byte{255, 255, 255, 255}, want: "zzzzzzr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, encoding.EncodeCrockfordB32LC(tt.input))
		})
	}
}

func TestEncodeCrockfordB32LC_UUIDLength(t *testing.T) {
	t.Parallel()

	got := encoding.EncodeCrockfordB32LC(make([]byte, 16))

	assert.Len(t, got, 26)
	assert.Equal(t, strings.Repeat("0", 26), got)
}

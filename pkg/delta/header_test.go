package delta

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header(flags byte, extra ...[]byte) []byte {
	out := []byte{0xd6, 0xc3, 0xc4, 0x00, flags}
	for _, e := range extra {
		out = append(out, e...)
	}
	return out
}

func withLength(data []byte) []byte {
	return append([]byte{byte(len(data))}, data...)
}

func TestReadHeaderDescription(t *testing.T) {
	desc := "Line one\r\nLine two\rLine three"
	app := []byte("^*" + base64.StdEncoding.EncodeToString([]byte(desc)))

	h, err := ReadHeader(bytes.NewReader(header(flagAppHeader, withLength(app), []byte("window data"))))
	require.NoError(t, err)

	assert.Equal(t, byte(0), h.Version)
	assert.False(t, h.SecondaryCompression)
	assert.Equal(t, len(app), h.DataLength)
	assert.Equal(t, "Line one\nLine two\nLine three", h.Description)
}

func TestReadHeaderPlainAppHeader(t *testing.T) {
	app := []byte("data.win//data.win/")
	h, err := ReadHeader(bytes.NewReader(header(flagAppHeader, withLength(app))))
	require.NoError(t, err)
	assert.Empty(t, h.Description)
	assert.Equal(t, app, h.AppHeader)
}

func TestReadHeaderSkipsOptionalSections(t *testing.T) {
	table := bytes.Repeat([]byte{0xaa}, 130)
	// 130 encodes as 0x81 0x02
	app := []byte("^*" + base64.StdEncoding.EncodeToString([]byte("hi")))
	data := header(flagSecondary|flagCodeTable|flagAppHeader,
		[]byte{0x02},
		[]byte{0x81, 0x02}, table,
		withLength(app))

	h, err := ReadHeader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, h.SecondaryCompression)
	assert.Equal(t, byte(0x02), h.SecondaryID)
	assert.Equal(t, 130, h.CodeTableLength)
	assert.Equal(t, "hi", h.Description)
}

func TestReadHeaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		code errors.ErrorCode
	}{
		{"empty", nil, errors.ErrParse},
		{"bad magic", []byte{0x50, 0x4b, 0x03, 0x04, 0x00}, errors.ErrParse},
		{"bad version", []byte{0xd6, 0xc3, 0xc4, 0x01, 0x04}, errors.ErrParse},
		{"no app header", header(0x00), errors.ErrParse},
		{"short app header", header(flagAppHeader, withLength([]byte("x"))), errors.ErrParse},
		{"truncated app header", header(flagAppHeader, []byte{0x10}, []byte("abc")), errors.ErrParse},
		{"bad base64", header(flagAppHeader, withLength([]byte("^*!!!!"))), errors.ErrParse},
		// 0xc0 0x80 0x01 encodes maxAppHeader+1
		{"oversized app header", header(flagAppHeader, []byte{0xc0, 0x80, 0x01}), errors.ErrParse},
		{"varint overflow", header(flagAppHeader, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x01}), errors.ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadHeader(bytes.NewReader(tt.data))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetErrorCode(err), err.Error())
		})
	}
}

func TestReadVarint(t *testing.T) {
	tests := []struct {
		in   []byte
		want int
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 127},
		{[]byte{0x81, 0x00}, 128},
		{[]byte{0x81, 0x80, 0x00}, 16384},
	}
	for _, tt := range tests {
		got, err := readVarint(bytes.NewReader(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

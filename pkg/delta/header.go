package delta

import (
	"bufio"
	"encoding/base64"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/nirvanamm/nirvanamm/pkg/errors"
)

var magic = [3]byte{0xd6, 0xc3, 0xc4}

// Header indicator bits.
const (
	flagSecondary = 0x01
	flagCodeTable = 0x02
	flagAppHeader = 0x04
)

// descriptionPrefix marks an application header that carries a base64
// encoded description.
const descriptionPrefix = "^*"

// maxAppHeader bounds the application header allocation.
const maxAppHeader = 1 << 20

// PatchHeader is the leading part of a VCDIFF patch.
type PatchHeader struct {
	Version              byte
	SecondaryCompression bool
	SecondaryID          byte
	CodeTableLength      int
	DataLength           int
	AppHeader            []byte
	Description          string
}

// ReadHeader reads a patch header from r. Patches without an application
// header are rejected, since that is where the description lives.
func ReadHeader(r io.Reader) (*PatchHeader, error) {
	br := bufio.NewReader(r)

	var got [3]byte
	if _, err := io.ReadFull(br, got[:]); err != nil {
		return nil, truncated(err)
	}
	if got != magic {
		return nil, errors.Newf(errors.ErrParse,
			"patch file does not start with magic bytes, starts with 0x%X 0x%X 0x%X", got[0], got[1], got[2])
	}

	h := &PatchHeader{}
	b, err := br.ReadByte()
	if err != nil {
		return nil, truncated(err)
	}
	h.Version = b
	if h.Version != 0 {
		return nil, errors.Newf(errors.ErrParse, "unsupported patch version %d", h.Version)
	}

	flags, err := br.ReadByte()
	if err != nil {
		return nil, truncated(err)
	}
	if flags&flagAppHeader == 0 {
		return nil, errors.New(errors.ErrParse, "patch has no application header")
	}

	if flags&flagSecondary != 0 {
		h.SecondaryCompression = true
		if h.SecondaryID, err = br.ReadByte(); err != nil {
			return nil, truncated(err)
		}
	}

	if flags&flagCodeTable != 0 {
		if h.CodeTableLength, err = readVarint(br); err != nil {
			return nil, err
		}
		if _, err := io.CopyN(io.Discard, br, int64(h.CodeTableLength)); err != nil {
			return nil, truncated(err)
		}
	}

	if h.DataLength, err = readVarint(br); err != nil {
		return nil, err
	}
	if h.DataLength < 2 {
		return nil, errors.New(errors.ErrParse, "application header is too short")
	}
	if h.DataLength > maxAppHeader {
		return nil, errors.Newf(errors.ErrParse, "application header of %d bytes exceeds %d", h.DataLength, maxAppHeader).
			WithDetail("length", h.DataLength)
	}

	h.AppHeader = make([]byte, h.DataLength)
	if _, err := io.ReadFull(br, h.AppHeader); err != nil {
		return nil, truncated(err)
	}

	if h.Description, err = decodeDescription(h.AppHeader); err != nil {
		return nil, err
	}
	return h, nil
}

func decodeDescription(app []byte) (string, error) {
	s := string(app)
	if !strings.HasPrefix(s, descriptionPrefix) {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, descriptionPrefix))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrParse, "description is not valid base64")
	}
	if !utf8.Valid(raw) {
		return "", errors.New(errors.ErrParse, "description is not valid UTF-8")
	}
	desc := strings.ReplaceAll(string(raw), "\r\n", "\n")
	return strings.ReplaceAll(desc, "\r", "\n"), nil
}

// readVarint decodes a VCDIFF integer: big-endian base 128 with the high
// bit set on every byte but the last.
func readVarint(br io.ByteReader) (int, error) {
	n := 0
	for i := 0; ; i++ {
		if i == 5 {
			return 0, errors.New(errors.ErrParse, "variable length integer overflows")
		}
		b, err := br.ReadByte()
		if err != nil {
			return 0, truncated(err)
		}
		n = n<<7 | int(b&0x7f)
		if b&0x80 == 0 {
			return n, nil
		}
	}
}

func truncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.New(errors.ErrParse, "patch header is truncated")
	}
	return errors.Wrap(err, errors.ErrIO, "failed to read patch header")
}

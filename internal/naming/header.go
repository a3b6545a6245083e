package naming

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tinylib/msgp/msgp"
)

// HeaderVersion is the current header layout.
const HeaderVersion = 1

const (
	headerMagic      = "SPLN"
	headerPrefixSize = 8 // magic + uint32 payload length
	maxHeaderPayload = 64 * 1024
)

// ErrBadHeader is returned when a first chunk does not start with a valid
// header.
var ErrBadHeader = errors.New("invalid chunk header")

// Header is stored at the start of the first chunk in the Headered scheme.
// Wire format: "SPLN" | uint32 big-endian payload length | msgpack map.
type Header struct {
	Name      string
	Size      int64
	ChunkSize int64
	Chunks    int
	Version   int
}

// AppendHeader appends the encoded header to b.
func AppendHeader(b []byte, h Header) []byte {
	var payload []byte
	payload = msgp.AppendMapHeader(payload, 5)
	payload = msgp.AppendString(payload, "version")
	payload = msgp.AppendInt(payload, h.Version)
	payload = msgp.AppendString(payload, "name")
	payload = msgp.AppendString(payload, h.Name)
	payload = msgp.AppendString(payload, "size")
	payload = msgp.AppendInt64(payload, h.Size)
	payload = msgp.AppendString(payload, "chunks")
	payload = msgp.AppendInt(payload, h.Chunks)
	payload = msgp.AppendString(payload, "chunk_size")
	payload = msgp.AppendInt64(payload, h.ChunkSize)

	b = append(b, headerMagic...)
	b = binary.BigEndian.AppendUint32(b, uint32(len(payload))) //nolint:gosec // G115: payload is a few dozen bytes
	return append(b, payload...)
}

// ReadHeader decodes a header from r and returns it with the number of
// bytes consumed.
func ReadHeader(r io.Reader) (Header, int64, error) {
	var prefix [headerPrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return Header{}, 0, fmt.Errorf("%w: %w", ErrBadHeader, err)
	}
	if string(prefix[:4]) != headerMagic {
		return Header{}, 0, fmt.Errorf("%w: bad magic %q", ErrBadHeader, prefix[:4])
	}
	n := binary.BigEndian.Uint32(prefix[4:])
	if n > maxHeaderPayload {
		return Header{}, 0, fmt.Errorf("%w: payload length %d", ErrBadHeader, n)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Header{}, 0, fmt.Errorf("%w: %w", ErrBadHeader, err)
	}

	h, err := decodeHeader(payload)
	if err != nil {
		return Header{}, 0, fmt.Errorf("%w: %w", ErrBadHeader, err)
	}
	return h, headerPrefixSize + int64(n), nil
}

func decodeHeader(b []byte) (Header, error) {
	var h Header
	fields, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return h, err
	}
	for range fields {
		var key string
		key, b, err = msgp.ReadStringBytes(b)
		if err != nil {
			return h, err
		}
		switch key {
		case "version":
			h.Version, b, err = msgp.ReadIntBytes(b)
		case "name":
			h.Name, b, err = msgp.ReadStringBytes(b)
		case "size":
			h.Size, b, err = msgp.ReadInt64Bytes(b)
		case "chunks":
			h.Chunks, b, err = msgp.ReadIntBytes(b)
		case "chunk_size":
			h.ChunkSize, b, err = msgp.ReadInt64Bytes(b)
		default:
			b, err = msgp.Skip(b)
		}
		if err != nil {
			return h, fmt.Errorf("field %s: %w", key, err)
		}
	}

	switch {
	case h.Version < 1 || h.Version > HeaderVersion:
		return h, fmt.Errorf("unsupported version %d", h.Version)
	case h.Size <= 0 || h.ChunkSize <= 0 || h.Chunks <= 0:
		return h, fmt.Errorf("bad sizes: size=%d chunk_size=%d chunks=%d", h.Size, h.ChunkSize, h.Chunks)
	case ChunkCount(h.Size, h.ChunkSize) != h.Chunks:
		return h, fmt.Errorf("chunk count %d does not match size %d / %d", h.Chunks, h.Size, h.ChunkSize)
	case h.Name == "." || h.Name == ".." || strings.ContainsAny(h.Name, "/"+string(filepath.Separator)):
		return h, fmt.Errorf("unsafe name %q", h.Name)
	}
	return h, nil
}

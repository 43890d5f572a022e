// Package binio provides the seek/read primitives shared by the KEY, BIF and
// ERF decoders: fixed-width little-endian records at absolute offsets,
// NUL-padded names and NUL-terminated strings.
package binio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Endian is the byte order of every format handled here
var Endian = binary.LittleEndian

// ErrShortRead is returned when fewer bytes are available than a record or
// declared size requires.
var ErrShortRead = errors.New("binio: short read")

// Seek positions r at the absolute offset off
func Seek(r io.Seeker, off int64) error {
	if _, err := r.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("seek to offset %d failed: %w", off, err)
	}
	return nil
}

// ReadStruct seeks to off and decodes v, which must be a fixed-size value
// accepted by binary.Read.
func ReadStruct(r io.ReadSeeker, off int64, v any) error {
	if err := Seek(r, off); err != nil {
		return err
	}
	if err := binary.Read(r, Endian, v); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: %d byte record at offset %d", ErrShortRead, binary.Size(v), off)
		}
		return fmt.Errorf("reading %d byte record at offset %d: %w", binary.Size(v), off, err)
	}
	return nil
}

// Size returns the total length of r
func Size(r io.Seeker) (int64, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("determining source size: %w", err)
	}
	return size, nil
}

// CheckSpan verifies that n bytes starting at off lie within r. Counts read
// from a file header are checked this way before anything is sized by them.
func CheckSpan(r io.Seeker, off, n int64) error {
	size, err := Size(r)
	if err != nil {
		return err
	}
	if off < 0 || n < 0 || off > size || n > size-off {
		return fmt.Errorf("%w: %d bytes at offset %d exceed source size %d", ErrShortRead, n, off, size)
	}
	return nil
}

// ReadBytes seeks to off and reads exactly n bytes. The buffer is only
// allocated once the source is known to hold them.
func ReadBytes(r io.ReadSeeker, off int64, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid read size %d at offset %d", n, off)
	}
	size, err := Size(r)
	if err != nil {
		return nil, err
	}
	if available := max(size-off, 0); int64(n) > available {
		return nil, fmt.Errorf("%w: got %d of %d bytes at offset %d", ErrShortRead, available, n, off)
	}
	if err := Seek(r, off); err != nil {
		return nil, err
	}

	buf := make([]byte, n)
	got, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: got %d of %d bytes at offset %d", ErrShortRead, got, n, off)
		}
		return nil, fmt.Errorf("reading %d bytes at offset %d: %w", n, off, err)
	}
	return buf, nil
}

// ReadCString reads a NUL-terminated string starting at off. At most max
// bytes are examined; a string running into end of file is returned as is.
func ReadCString(r io.ReadSeeker, off int64, max int) (string, error) {
	if err := Seek(r, off); err != nil {
		return "", err
	}

	buf := make([]byte, max)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("reading string at offset %d: %w", off, err)
	}
	buf = buf[:n]

	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return string(buf[:i]), nil
	}
	if n == max {
		return "", fmt.Errorf("string at offset %d is not terminated within %d bytes", off, max)
	}
	return string(buf), nil
}

// FixedString decodes a NUL-padded fixed-width name field
func FixedString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// PutFixedString copies s into dst and zero-fills the remainder.
func PutFixedString(dst []byte, s string) error {
	if len(s) > len(dst) {
		return fmt.Errorf("name %q exceeds %d byte field", s, len(dst))
	}
	n := copy(dst, s)
	clear(dst[n:])
	return nil
}

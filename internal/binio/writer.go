package binio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Writer emits little-endian records and keeps a running byte count so
// callers can check their layout arithmetic against what was written.
// The first error is sticky; later calls are no-ops.
type Writer struct {
	w   io.Writer
	n   int64
	err error
}

// NewWriter wraps w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Struct writes v with binary.Write
func (w *Writer) Struct(v any) {
	if w.err != nil {
		return
	}
	if err := binary.Write(w.w, Endian, v); err != nil {
		w.err = fmt.Errorf("writing record at offset %d: %w", w.n, err)
		return
	}
	w.n += int64(binary.Size(v))
}

// Bytes writes p verbatim
func (w *Writer) Bytes(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	if err != nil {
		w.err = fmt.Errorf("writing %d bytes at offset %d: %w", len(p), w.n, err)
	}
}

// FixedString writes s NUL-padded to width bytes
func (w *Writer) FixedString(s string, width int) {
	if w.err != nil {
		return
	}
	buf := make([]byte, width)
	if err := PutFixedString(buf, s); err != nil {
		w.err = err
		return
	}
	w.Bytes(buf)
}

// PadTo writes zero bytes until the count reaches off. Writing backwards is
// an error since it means the computed layout overlaps.
func (w *Writer) PadTo(off int64) {
	if w.err != nil {
		return
	}
	if off < w.n {
		w.err = fmt.Errorf("layout overlap: at offset %d, next block starts at %d", w.n, off)
		return
	}
	if off > w.n {
		w.Bytes(make([]byte, off-w.n))
	}
}

// Offset returns the number of bytes written so far
func (w *Writer) Offset() int64 {
	return w.n
}

// Err returns the first error encountered
func (w *Writer) Err() error {
	return w.err
}

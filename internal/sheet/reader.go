package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxBytes caps an upload when no limit is configured.
const DefaultMaxBytes int64 = 20 << 20

// ErrFileTooLarge is returned once a reader passes its byte limit.
var ErrFileTooLarge = errors.New("file too large")

// countingReader tracks bytes read and fails once more than limit have been read.
type countingReader struct {
	reader    io.Reader
	BytesRead int64
	limit     int64 // 0 means unlimited
}

func newCountingReader(r io.Reader, limit int64) *countingReader {
	return &countingReader{reader: r, limit: limit}
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	if r.limit > 0 && r.BytesRead > r.limit {
		return n, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, r.limit)
	}
	return n, err
}

// readAll reads r fully, enforcing limit.
func readAll(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(newCountingReader(r, limit))
}

// decodeText converts raw CSV bytes to UTF-8.
//
// A byte order mark selects UTF-8 or UTF-16 and is removed. Without one,
// valid UTF-8 passes through and anything else is read as Windows-1252,
// the encoding Excel uses for "CSV (Comma delimited)" on Windows.
func decodeText(b []byte) ([]byte, error) {
	var fallback transform.Transformer = transform.Nop
	if !utf8.Valid(b) {
		fallback = charmap.Windows1252.NewDecoder()
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(fallback), b)
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}
	return out, nil
}

var zipMagic = []byte("PK\x03\x04")

// looksLikeZip reports whether b starts like an XLSX (zip) container.
func looksLikeZip(b []byte) bool {
	return bytes.HasPrefix(b, zipMagic)
}

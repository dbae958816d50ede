package harvest

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"

	"github.com/skoobtools/estante/internal/logger"
)

// ErrUnknownEncoding reports a content-encoding scheme the engine
// cannot reverse.
var ErrUnknownEncoding = errors.New("unsupported content encoding")

// decodeText renders a response body as text. The declared encoding is
// honored first; when it cannot be reversed, or reverses into noise
// while the raw bytes already look like JSON, the declaration was
// wrong and the raw bytes win.
func decodeText(raw []byte, encoding string) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", nil
	}
	if encoding == "" || strings.Contains(encoding, "identity") {
		return string(raw), nil
	}
	out, err := decompress(raw, encoding)
	if err == nil {
		if hasJSONStart(out) || !hasJSONStart(raw) {
			return string(out), nil
		}
		logger.Debug("declared encoding does not match the body, using raw bytes", "encoding", encoding)
		return string(raw), nil
	}
	if hasJSONStart(raw) {
		logger.Debug("declared encoding does not match the body, using raw bytes", "encoding", encoding)
		return string(raw), nil
	}
	return "", err
}

// decompress reverses one declared scheme. Matching is loose so values
// like "x-gzip" or "gzip, br" still resolve.
func decompress(raw []byte, encoding string) ([]byte, error) {
	switch {
	case strings.Contains(encoding, "gzip"):
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return out, nil
	case strings.Contains(encoding, "deflate"):
		// zlib-wrapped first, then the bare stream some origins serve
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			defer zr.Close()
			if out, err := io.ReadAll(zr); err == nil {
				return out, nil
			}
		}
		fr := flate.NewReader(bytes.NewReader(raw))
		defer fr.Close()
		out, err := io.ReadAll(fr)
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		return out, nil
	case strings.Contains(encoding, "zstd"):
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(raw, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return out, nil
	case strings.Contains(encoding, "br"):
		out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(raw)))
		if err != nil {
			return nil, fmt.Errorf("brotli: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
}

// sniffDecompress tries every known scheme against raw and accepts the
// first whose output looks like JSON. Used when the declared encoding
// produced nothing parseable.
func sniffDecompress(raw []byte) ([]byte, bool) {
	for _, scheme := range []string{"gzip", "zstd", "br", "deflate"} {
		out, err := decompress(raw, scheme)
		if err == nil && hasJSONStart(out) {
			logger.Debug("recovered body by sniffing the real encoding", "encoding", scheme)
			return out, true
		}
	}
	return nil, false
}

// hasJSONStart reports whether b begins with a JSON value opener after
// leading whitespace.
func hasJSONStart(b []byte) bool {
	t := bytes.TrimLeft(b, " \t\r\n")
	return len(t) > 0 && (t[0] == '{' || t[0] == '[')
}

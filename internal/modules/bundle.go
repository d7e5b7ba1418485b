package modules

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// EncodingGzipBase64 marks a bundle payload compressed with gzip and
// then base64-encoded for the JSON frame.
const EncodingGzipBase64 = "gzip+base64"

// DecodeBundle recovers raw bundle bytes from a reply payload.
func DecodeBundle(payload, encoding string) ([]byte, error) {
	switch encoding {
	case "":
		return []byte(payload), nil
	case EncodingGzipBase64:
		compressed, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("bundle base64: %w", err)
		}
		zr, err := gzip.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, fmt.Errorf("bundle gzip: %w", err)
		}
		defer zr.Close()
		raw, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("bundle gzip: %w", err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unknown bundle encoding %q", encoding)
	}
}

// EncodeBundle prepares a bundle for the wire, compressing payloads at
// or above threshold bytes. It returns the payload string and the
// encoding tag to send alongside it.
func EncodeBundle(raw []byte, threshold int) (string, string, error) {
	if threshold <= 0 || len(raw) < threshold {
		return string(raw), "", nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return "", "", fmt.Errorf("bundle gzip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", "", fmt.Errorf("bundle gzip: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), EncodingGzipBase64, nil
}

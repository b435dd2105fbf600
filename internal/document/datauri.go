package document

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// EncodeDataURI wraps data as a base64 data URI.
func EncodeDataURI(mime string, data []byte) string {
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a data URI into its mime type and payload. Both
// base64 and percent-encoded payloads are accepted.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: imageData is not a data URI", ErrMalformedDocument)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: data URI has no payload", ErrMalformedDocument)
	}

	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	// Drop parameters such as ;charset=
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if mime == "" {
		mime = "text/plain"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders strip padding
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return "", nil, fmt.Errorf("%w: data URI: %v", ErrMalformedDocument, err)
		}
		return mime, data, nil
	}

	s, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: data URI: %v", ErrMalformedDocument, err)
	}
	return mime, []byte(s), nil
}

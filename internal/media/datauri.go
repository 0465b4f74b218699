package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var ErrNotDataURI = errors.New("not a data URI")

// IsDataURI reports whether ref is an embedded data URI rather than a URL.
func IsDataURI(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

// DetectImage sniffs the MIME type of data and reports whether it is an image.
func DetectImage(data []byte) (string, bool) {
	mt := mimetype.Detect(data)
	mime := mt.String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return mime, strings.HasPrefix(mime, "image/")
}

// EncodeDataURI returns data as a base64 data URI.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI returns the MIME type and payload of a data URI. Both base64
// and percent-encoded payloads are accepted.
func DecodeDataURI(uri string) (string, []byte, error) {
	if !IsDataURI(uri) {
		return "", nil, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI: missing comma")
	}

	params := strings.Split(header, ";")
	mime := params[0]
	if mime == "" {
		mime = "text/plain"
	}
	isBase64 := false
	for _, p := range params[1:] {
		if p == "base64" {
			isBase64 = true
		}
	}

	if !isBase64 {
		text, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, fmt.Errorf("decode data URI payload: %w", err)
		}
		return mime, []byte(text), nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some encoders drop padding
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return "", nil, fmt.Errorf("decode data URI payload: %w", err)
		}
	}
	return mime, data, nil
}

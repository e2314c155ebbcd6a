package fetcher

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

type contentKind int

const (
	contentHTML contentKind = iota
	contentText
)

// readBody reads at most maxBytes of the body, undoing any Content-Encoding.
// Bodies longer than the cap are cut at the cap rather than rejected; capped
// reports whether that happened.
func readBody(body io.Reader, encoding string, maxBytes int64) (data []byte, capped bool, err error) {
	if body == nil {
		return nil, false, nil
	}

	var reader io.Reader = body
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, false, fmt.Errorf("invalid gzip body: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		rc, err := newDeflateReader(body)
		if err != nil {
			return nil, false, fmt.Errorf("invalid deflate body: %w", err)
		}
		defer rc.Close()
		reader = rc
	case "br":
		reader = brotli.NewReader(body)
	default:
		return nil, false, fmt.Errorf("unsupported content encoding %q", encoding)
	}

	data, err = io.ReadAll(io.LimitReader(reader, maxBytes+1))
	if err != nil {
		return nil, false, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return data[:maxBytes], true, nil
	}
	return data, false, nil
}

// newDeflateReader decodes HTTP deflate, which is zlib framed. Servers that
// send a bare RFC 1951 stream instead are still accepted.
func newDeflateReader(body io.Reader) (io.ReadCloser, error) {
	buffered := bufio.NewReader(body)
	header, _ := buffered.Peek(2)
	switch {
	case len(header) == 0:
		return io.NopCloser(buffered), nil
	case isZlibHeader(header):
		return zlib.NewReader(buffered)
	default:
		return flate.NewReader(buffered), nil
	}
}

// isZlibHeader checks CMF/FLG: deflate method and a valid FCHECK.
func isZlibHeader(b []byte) bool {
	return len(b) >= 2 && b[0]&0x0f == 8 && (uint16(b[0])<<8|uint16(b[1]))%31 == 0
}

// classifyContent accepts HTML and plain text; everything else is refused
// before any decoding happens.
func classifyContent(contentType string, body []byte) (contentKind, error) {
	mediaType := ""
	if strings.TrimSpace(contentType) != "" {
		parsed, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			mediaType = strings.ToLower(parsed)
		}
	}
	if mediaType == "" {
		sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(body))
		mediaType = strings.ToLower(sniffed)
	}

	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return contentHTML, nil
	case "text/plain":
		return contentText, nil
	default:
		if mediaType == "" {
			mediaType = "unknown"
		}
		return 0, fmt.Errorf("unsupported content type %q", mediaType)
	}
}

// decodeText converts body to UTF-8 using the declared charset, a BOM, a
// <meta> declaration or sniffing, in that order. Malformed input becomes U+FFFD.
func decodeText(body []byte, contentType string) string {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))

	if enc != nil && name != "utf-8" {
		decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
		if err == nil {
			return strings.ToValidUTF8(string(decoded), string(utf8.RuneError))
		}
	}
	return strings.ToValidUTF8(string(body), string(utf8.RuneError))
}

package source

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// DefaultMaxBase64Len is the default ceiling on the encoded length of an
// inline base64 payload, in characters. 40 million base64 characters
// decode to roughly 30 MB of image data.
const DefaultMaxBase64Len = 40_000_000

// ErrPayloadTooLarge reports an inline base64 payload whose encoded
// length exceeds the resolver's ceiling. It is distinguishable from other
// load failures with errors.Is.
var ErrPayloadTooLarge = errors.New("payload too large")

// Options configures a Resolver.
type Options struct {
	// HTTPClient fetches url sources. If nil, http.DefaultClient is used;
	// callers that want a fetch timeout should pass a client that has one.
	HTTPClient *http.Client

	// MaxBase64Len caps the encoded length of base64 sources. If zero,
	// DefaultMaxBase64Len applies.
	MaxBase64Len int
}

// Resolver turns a Descriptor into the raw image bytes it names.
//
// A Resolver holds only immutable configuration (an HTTP client and the
// base64 ceiling) and is safe for concurrent use.
type Resolver struct {
	client       *http.Client
	maxBase64Len int
}

// NewResolver creates a resolver with the given options.
func NewResolver(opts Options) *Resolver {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	maxLen := opts.MaxBase64Len
	if maxLen == 0 {
		maxLen = DefaultMaxBase64Len
	}
	return &Resolver{client: client, maxBase64Len: maxLen}
}

// Resolve loads the image bytes named by the descriptor.
//
// Parameters:
//   - ctx: Cancels an in-flight URL fetch. File and inline sources do not
//     block on the network and ignore it.
//   - d: The source descriptor. Kind selects the payload field.
//
// Returns:
//   - []byte: The raw image bytes.
//   - error: Non-nil on any failure, always wrapped with a "load image
//     source" prefix. Oversized inline payloads additionally match
//     ErrPayloadTooLarge via errors.Is.
func (r *Resolver) Resolve(ctx context.Context, d Descriptor) ([]byte, error) {
	data, err := r.resolve(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("failed to load image source: %w", err)
	}
	return data, nil
}

func (r *Resolver) resolve(ctx context.Context, d Descriptor) ([]byte, error) {
	switch d.Kind {
	case KindPath:
		if d.Path == "" {
			return nil, fmt.Errorf("source kind %q carries no path", d.Kind)
		}
		return readFile(d.Path)

	case KindURL:
		if d.URL == "" {
			return nil, fmt.Errorf("source kind %q carries no url", d.Kind)
		}
		return r.fetchURL(ctx, d.URL)

	case KindBase64:
		if d.Base64 == "" {
			return nil, fmt.Errorf("source kind %q carries no base64 payload", d.Kind)
		}
		return r.decodeBase64(d.Base64)

	case KindBuffer:
		if d.Buffer == "" {
			return nil, fmt.Errorf("source kind %q carries no buffer payload", d.Kind)
		}
		data, err := base64.StdEncoding.DecodeString(d.Buffer)
		if err != nil {
			return nil, fmt.Errorf("decode buffer: %w", err)
		}
		return data, nil

	default:
		return nil, fmt.Errorf("unknown source kind: %q", d.Kind)
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// fetchURL retrieves a url source. file:// URLs are converted to a local
// path and read from disk; everything else goes through the HTTP client.
func (r *Resolver) fetchURL(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	if u.Scheme == "file" {
		path, err := fileURLToPath(u)
		if err != nil {
			return nil, err
		}
		return readFile(path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	log.WithFields(log.Fields{
		"url":    rawURL,
		"status": resp.StatusCode,
	}).Debug("Fetched image source")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// resp.Status carries both the numeric code and its text,
		// e.g. "404 Not Found".
		return nil, fmt.Errorf("fetch %s: unexpected status %s", rawURL, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return data, nil
}

// decodeBase64 decodes an inline payload, enforcing the encoded-length
// ceiling and stripping a data: URI wrapper if present.
func (r *Resolver) decodeBase64(payload string) ([]byte, error) {
	if len(payload) > r.maxBase64Len {
		return nil, fmt.Errorf("base64 payload is %d chars, limit is %d: %w",
			len(payload), r.maxBase64Len, ErrPayloadTooLarge)
	}

	// A data: URI keeps its media type and parameters before the first
	// comma; the payload is everything after it.
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, fmt.Errorf("data URI has no comma separator")
		}
		payload = payload[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}

// fileURLToPath converts a parsed file:// URL to a filesystem path.
//
// The three shapes that occur in practice:
//   - file:///tmp/a%20b.jpg -> /tmp/a b.jpg (percent-decoding done by url.Parse)
//   - file:///C:/img.jpg    -> C:/img.jpg (Windows drive letter)
//   - file://server/share/x -> \\server\share\x (Windows UNC host)
func fileURLToPath(u *url.URL) (string, error) {
	if u.Path == "" {
		return "", fmt.Errorf("file url %q has no path", u.String())
	}

	if u.Host != "" && u.Host != "localhost" {
		return `\\` + u.Host + filepath.FromSlash(u.Path), nil
	}

	p := u.Path
	if len(p) >= 3 && p[0] == '/' && isDriveLetter(p[1]) && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p), nil
}

func isDriveLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

package source

// Kind selects which Descriptor field carries the payload.
type Kind string

// The recognized source kinds.
const (
	KindPath   Kind = "path"
	KindURL    Kind = "url"
	KindBase64 Kind = "base64"
	KindBuffer Kind = "buffer"
)

// Descriptor names one image byte source.
//
// Kind is the discriminant: it picks exactly one of the payload fields
// and the others are ignored. A descriptor whose selected field is empty
// resolves to a load failure, not a silent empty image.
type Descriptor struct {
	// Kind selects the payload field: "path", "url", "base64" or "buffer".
	Kind Kind `json:"kind"`

	// Path is a filesystem path, used when Kind is "path".
	Path string `json:"path,omitempty"`

	// URL is an http(s):// or file:// URL, used when Kind is "url".
	URL string `json:"url,omitempty"`

	// Base64 is an inline base64 payload, optionally wrapped in a
	// data: URI, used when Kind is "base64".
	Base64 string `json:"base64,omitempty"`

	// Buffer is a raw base64 payload with no data: URI handling,
	// used when Kind is "buffer".
	Buffer string `json:"buffer,omitempty"`
}

// Package source resolves the different ways a caller can hand an image
// to the server into one byte sequence.
//
// A Descriptor names exactly one source: a filesystem path, a URL
// (http, https, or file), an inline base64 string (optionally a data:
// URI), or a raw base64 buffer. The Resolver turns any of them into the
// image bytes, applying a single size-limit guard to inline base64
// payloads so that a hostile or careless caller cannot make the server
// materialize an arbitrarily large decode.
//
// Resolution is deliberately dumb: no retries, no caching, no partial
// reads. Every failure is wrapped with a "load image source" prefix that
// preserves the underlying cause for errors.Is / errors.As inspection.
package source

// Package moddle wraps the document-model bundles with Go-friendly
// parse, serialize, and diff calls. Thin plumbing over the loader: the
// real parsing lives inside the fetched bundles, which stay opaque
// here.
package moddle

// Package env materializes host configuration into the sandboxed
// context.
//
// The snapshot is a one-shot mapping fetched with get_snapshot: loaded
// flips false→true at most once per Env, and snapshot reads (Get,
// Lookup) before that fail with ConfigurationError rather than
// returning anything stale. Point operations (Read, Write, Remove,
// Keys) are independent round trips against host-persisted storage and
// are never served from the snapshot.
package env

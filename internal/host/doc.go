// Package host is the privileged side of the bridge: the responder the
// sandbox talks to over the channel.
//
// It owns the resources the sandbox cannot reach directly:
//   - Store: persisted key/value storage plus the environment snapshot,
//     one atomically written JSON document
//   - Registry: module bundles from local files or remote URLs (the
//     only place the host retries), gzip-compressed on the wire above a
//     size threshold
//   - Responder: transport-agnostic action dispatch
//   - Hub: the websocket face, one goroutine and rate limiter per
//     connection, with Prometheus counters
package host

// Package transport carries bridge frames between the sandboxed context
// and the host context.
//
// The Transport interface is small: fire-and-forget Send,
// a single replaceable inbound handler, and Close. No retries, no
// acknowledgements, no framing beyond the channel's native message
// boundary. Correlation of requests to replies lives one layer up, in
// the bridge package.
//
// Two implementations are provided:
//   - WSConn: a gorilla/websocket connection to a named channel on the
//     bridge host, opened through a Dialer (idempotent per name)
//   - Endpoint: an in-process pair for tests and embedded hosts
package transport

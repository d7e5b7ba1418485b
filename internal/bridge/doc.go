// Package bridge implements the request/response correlation core of
// the sandbox/host channel.
//
// Every outbound request carries a monotonically assigned request id;
// the matching inbound reply resolves exactly one waiting caller.
// Correctness depends only on id matching, never on delivery order.
//
// Guarantees:
//   - A pending entry is registered before its request is sent, so a
//     reply cannot arrive "too fast" to be matched.
//   - Every exit path (reply, remote error, timeout, cancellation,
//     transport failure) removes the pending entry; the pending set
//     cannot grow under sustained timeouts.
//   - Replies with unknown or already-resolved ids are dropped without
//     affecting any caller.
//
// Messages use one fixed tagged schema (Message) validated at the
// boundary in both directions; a reply with action "error" fails the
// caller with a RemoteError carrying the host's text verbatim.
package bridge

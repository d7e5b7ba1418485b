// Package enginebridge connects a sandboxed client to an Operaton
// engine through a bridge host. A Session wraps one duplex channel and
// layers request correlation, remote module loading, environment
// materialization, and a synchronous REST client on top of it.
//
// Typical use:
//
//	sess, err := enginebridge.Dial(enginebridge.Options{})
//	if err != nil { ... }
//	defer sess.Close()
//
//	if err := sess.Init(ctx); err != nil { ... }
//	result, err := sess.BPMN().Parse(ctx, xml)
package enginebridge

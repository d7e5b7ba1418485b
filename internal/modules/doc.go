// Package modules lazily loads remote code bundles over the bridge.
//
// A bundle is fetched at most once per Loader lifetime: the first Ensure
// for a name requests get_bundle:<name> through the correlator, decodes
// the payload (optionally gzip+base64), and hands the raw bytes to the
// host-provided Installer hook. Concurrent callers for the same
// uninstalled module share one in-flight fetch. The loader itself never
// evaluates bundle text; what "install" means is entirely the
// Installer's business (see the jsvm subpackage for the JavaScript one).
//
// Cache states move strictly forward to Installed. A failed fetch or
// install leaves the entry NotLoaded so a later call can retry.
package modules

// Package jsvm is the JavaScript install hook for remote bundles.
//
// Bundles are UMD builds that attach their exports to self. Each
// Installer owns one goja VM with the dangerous globals removed
// (require, process, module, exports) and timers stubbed out. Install
// wraps the bundle in an IIFE and evaluates it; Lookup resolves the
// exported global and wraps it in an opaque Handle the rest of the
// system can construct, invoke, and read fields through without ever
// touching goja types.
package jsvm

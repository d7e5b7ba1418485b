// Package server assembles the bridge host daemon: the websocket
// channel endpoint backed by the persistent store and bundle registry,
// plus health and Prometheus metrics routes.
package server

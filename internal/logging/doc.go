// Package logging provides structured logging built on zap.
//
// Production logs are JSON-encoded; development logs use a colorized
// console encoder. Components obtain tagged child loggers through
// Logger.Component so bridge, loader, and host log lines can be
// filtered by origin.
package logging

// Package config provides 12-factor configuration for the bridge.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Bridge: sandbox-side channel settings (channel name, host URL, timeout)
//   - Host: host daemon settings (port, store path, bundle manifest, limits)
//   - Logging: log level and output format
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Channel %s via %s\n", cfg.Bridge.Channel, cfg.Bridge.HostURL)
//
// Environment Variables:
//   - BRIDGE_CHANNEL, BRIDGE_HOST_URL, BRIDGE_REQUEST_TIMEOUT
//   - PORT, HOST, STORE_PATH, BUNDLE_MANIFEST, BUNDLE_COMPRESS_MIN
//   - LOG_LEVEL, LOG_DEV, RATE_LIMIT_RPS, RATE_LIMIT_BURST
package config

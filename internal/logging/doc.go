// Package logging provides structured logging for printlink.
//
// This package wraps zap with package-level helpers so every component logs
// through one configurable logger. Output is silent by default; set a level
// with the --log-level flag or the PRINTLINK_LOG_LEVEL environment variable.
//
// # Log Levels
//
//   - Debug: individual probe outcomes, routed request timings
//   - Info: campaign lifecycle (started, locked, exhausted), transport changes
//   - Warn: routed request failures, relay disconnects
//   - Error: startup failures
//
// # Specialized Logging
//
//	logging.LogCampaign("locked", zap.String("addr", "192.168.1.42"))
//	logging.LogProbeResult("192.168.1.7", err, elapsed)
//	logging.LogRoutedRequest("lan", "GET", "print-status", 200, elapsed, nil)
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Logs are written to stderr so command output on stdout stays pipeable.
package logging

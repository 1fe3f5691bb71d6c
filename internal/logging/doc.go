// Package logging provides structured logging for the maxcube tools.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the module. Logging is silent by default so the
// CLI output stays clean; set MAXCUBE_LOG_LEVEL to enable it.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (frame dumps, decode traces)
//   - Info: Normal operations (connections, messages, state changes)
//   - Warn: Non-fatal issues (dropped frames, connection drops)
//   - Error: Fatal issues (startup failures, critical errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("cube connected",
//	    zap.String("addr", "192.168.1.100:62910"),
//	    zap.String("serial", "KEQ0523864"),
//	    zap.String("firmware", "0113"),
//	)
//
// # Frame Tracing
//
// Protocol frames can be traced at debug level:
//
//	logging.LogFrame("recv", frame.Type, frame.Payload)
//	logging.LogRawBytes("discovery reply", buf[:n])
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging

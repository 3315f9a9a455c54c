// Package logging provides structured logging for the ambilight server and
// client.
//
// This package wraps a global zap logger with convenience functions so the
// rest of the code base can log without threading a logger through every
// constructor.
//
// # Log Levels
//
//   - Debug: datagram hex dumps, dry-run frames, dropped writes
//   - Info: startup, shutdown, active device changes
//   - Warn: malformed datagrams, failed replies
//   - Error: transmit failures, socket errors
//
// # Structured Logging
//
//	logging.Info("Active device changed",
//	    zap.String("remote_addr", "192.168.1.20:40123"),
//	    zap.Uint8("device", 3),
//	)
//
// # Datagram Logging
//
//	logging.LogDatagram(addr.String(), "received", buf[:n])
//
// Dumps are truncated to the first 64 bytes.
//
// # Configuration
//
// The server initializes logging from its config file or --log-level flag.
// The client stays silent unless AMBILIGHT_LOG_LEVEL is set:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Output goes to stderr in zap's console format so it never mixes with
// command output on stdout.
package logging

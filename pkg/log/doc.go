// Package log provides structured protocol logging for the command stream.
//
// It captures every frame, decoded command and codec failure as an Event.
// It is separate from operational logging (slog): protocol capture is a
// complete machine-readable trace for debugging devices in the field.
//
// # Basic Usage
//
//	// Development: log to console via slog
//	stream := transport.NewStream(conn, transport.WithLogger(log.NewSlogAdapter(slog.Default())))
//
//	// Production: write to a capture file
//	fl, _ := log.NewFileLogger("/var/log/cloudcmd/device.clog")
//
//	// Both
//	logger := log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// # Event Types
//
// Events are captured at three layers:
//   - Transport: length-prefixed frames (FrameEvent)
//   - Wire: encoded or decoded commands (MessageEvent)
//   - Dispatch: handler results (ErrorEventData on failure)
//
// Stream open and close are StateChangeEvents.
//
// # File Format
//
// Capture files are a sequence of CBOR-encoded events with the .clog
// extension. A ".clog.zst" path is written and read as zstd frames.
// "cloudcmd log view" and "cloudcmd log stats" read both forms.
package log

// FileExtension is the conventional extension of capture files.
const FileExtension = ".clog"

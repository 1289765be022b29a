// Package logx configures jobrun's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//
// Operational logging is distinct from per-job output files: job log files
// keep the plain bracketed line format and are written by the controller.
package logx

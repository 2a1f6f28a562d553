// Package logx configures schedd's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - The engine trace channel rate-limited, so per-node recompute events
//     from a hot improvement pass cannot saturate the sinks
package logx

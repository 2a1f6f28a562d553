package storage

// Package storage persists solve run history.
//
// It currently supports:
//   - Appending one record per finished solve job
//   - Reading back the most recent runs for diagnostics

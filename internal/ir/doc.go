// Package ir provides the canonical value types used in jsconform reports.
//
// Assertion records, run summaries and golden snapshots are built from these
// types and serialized with MarshalCanonical so that two runs of the same
// script produce byte-identical output.
//
// Key constraints:
//   - No float type: script values are carried as their description strings
//   - Object keys are ordered by UTF-16 code units (RFC 8785)
//   - All JSON keys use snake_case
//   - Logical sequence numbers only, never wall-clock timestamps
package ir

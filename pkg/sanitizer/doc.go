// Package sanitizer provides input normalization functions for room and
// booking data.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Functions handle invalid input gracefully, typically by returning
// empty strings or empty slices rather than errors.
//
// Normalization includes:
//   - Display text (titles, room names, buildings): collapse whitespace, trim leading/trailing spaces
//   - Equipment keys: lowercase, letters and digits joined by underscores - "Smart Board" becomes "smart_board"
//   - Search queries: display-text rules plus lowercase and a length cap
//   - Slices: Remove duplicates and empty values after normalization
package sanitizer

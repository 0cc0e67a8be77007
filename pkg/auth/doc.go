// Package auth validates the static bearer credential presented by the
// calling agent and carries the resulting grant through request contexts.
//
// Invariants:
//   - A grant is issued only when the presented token equals the configured
//     secret; the comparison runs in constant time.
//   - The empty string never matches.
//   - Grants are request-scoped and never stored.
package auth

// Package shared holds helpers used by more than one package and owned by none.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// log output, and CSV fixtures of every dashboard dataset served over
// httptest so loaders and handlers can be exercised end to end.
package shared

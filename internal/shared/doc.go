// Package shared provides common utilities and test helpers used across
// the codebase. It serves as a central location for functionality that
// doesn't belong to any specific domain or architectural layer.
//
// The testutil subpackage provides log capture and assertion helpers
// for slog-based components. The package must not contain business
// logic, external dependencies beyond the standard library, or
// circular dependencies with other internal packages.
package shared

// Package domain contains the core domain model for the application.
//
// This package defines:
//   - Migration bookkeeping values shared between the runner and the API
//   - Domain Errors: invariant and input violations with errors.Is helpers
//
// Rules for this package:
//   - No external dependencies except the standard library
//   - No infrastructure concerns (database, HTTP, etc.)
package domain

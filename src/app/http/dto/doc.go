// Package dto contains Data Transfer Objects for HTTP responses.
//
// DTOs are separate from domain values so the JSON shape of the API can
// change without touching the core.
//
// Naming convention:
//   - Response types: <Resource>Response (e.g., MigrationStatusResponse)
package dto

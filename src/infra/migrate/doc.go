// Package migrate runs schema migrations and keeps their bookkeeping table.
//
// Migrations are SQL files named like "001-create-users.sql" in a fixed
// directory. Their names, without the extension, are recorded in the
// migrations table once executed; Runner.Init executes the ones missing
// from it in name order at startup.
package migrate

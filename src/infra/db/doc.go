// Package db provides database connection management for PostgreSQL.
//
// This package is responsible for:
//   - Lazy pool initialization, creating the target database when missing
//   - Instrumented connections (debug logging, metrics, release on failure)
//   - Result shaping helpers (ToObject, Single, ToMap)
//   - Mapping driver SQLSTATE codes to semantic conditions
//
// Example usage:
//
//	mgr := db.New(cfg.Database, log, metrics)
//	defer mgr.Close()
//
//	conn, err := mgr.Connect(ctx)
//	if err != nil {
//	    return err
//	}
//	defer conn.Release()
//
//	res, err := conn.Query(ctx, "SELECT id, name FROM users WHERE id = $1", id)
//	if err != nil {
//	    return err
//	}
//	user, err := db.Single(res)
package db

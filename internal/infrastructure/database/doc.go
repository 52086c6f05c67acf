// Package database provides the SQLite connection backing the global
// device registry.
//
// It handles WAL mode, busy timeouts and foreign-key enforcement, and
// applies the embedded schema migrations from the migrations package.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive: new columns must be nullable or carry a
// default, and every .up.sql ships with a .down.sql.
package database

package localstore

import (
	"context"
	"database/sql"
	"fmt"

	"internify/internal/shared/storage/db"
)

// Open connects to the sqlite state file at path, migrates it and returns the store
// together with the underlying handle for closing.
func Open(ctx context.Context, path string) (*SQLStore, *sql.DB, error) {
	conn, err := db.Connect(ctx, path, db.OptionsFromEnv(db.DefaultOptions()))
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("migrate state db: %w", err)
	}
	return NewSQLStore(conn), conn, nil
}

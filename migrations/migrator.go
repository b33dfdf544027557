// Package migrations applies SQL files from a directory in lexical order,
// recording applied ids in a schema_migrations table. A Postgres advisory
// lock keeps concurrent deployments from racing.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const migrationLockID = 581427093

func Run(ctx context.Context, db *sql.DB, dir string) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		id VARCHAR(100) PRIMARY KEY,
		file_name TEXT NOT NULL,
		executed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		duration_ms INTEGER NOT NULL
	)`); err != nil {
		return err
	}

	var gotLock bool
	if err := db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, migrationLockID).Scan(&gotLock); err != nil {
		return err
	}
	if !gotLock {
		return fmt.Errorf("another migration process is running")
	}
	defer db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockID)

	files, err := listSQLFiles(dir)
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := applyOne(ctx, db, dir, file); err != nil {
			return err
		}
	}
	return nil
}

func listSQLFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func applyOne(ctx context.Context, db *sql.DB, dir, file string) error {
	id := strings.TrimSuffix(file, filepath.Ext(file))
	var exists int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE id = $1`, id).Scan(&exists)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}

	sqlBytes, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		return err
	}
	started := time.Now()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		tx.Rollback()
		return fmt.Errorf("migration %s failed: %w", file, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (id, file_name, duration_ms) VALUES ($1,$2,$3)`,
		id, file, time.Since(started).Milliseconds()); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Applies the SQL files under the migrations directory in lexical order,
// tracking applied versions in schema_migrations.
func main() {
	dir := flag.String("dir", "migrations", "directory containing .sql migration files")
	flag.Parse()

	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		fatal("open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fatal("connect database: %v", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		fatal("create schema_migrations: %v", err)
	}

	files, err := migrationFiles(*dir)
	if err != nil {
		fatal("%v", err)
	}

	applied := 0
	for _, file := range files {
		version := strings.TrimSuffix(filepath.Base(file), ".sql")

		var exists bool
		if err := db.QueryRow(`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists); err != nil {
			fatal("check %s: %v", version, err)
		}
		if exists {
			continue
		}

		contents, err := os.ReadFile(file)
		if err != nil {
			fatal("read %s: %v", file, err)
		}

		tx, err := db.Begin()
		if err != nil {
			fatal("begin %s: %v", version, err)
		}
		if _, err := tx.Exec(string(contents)); err != nil {
			_ = tx.Rollback()
			fatal("apply %s: %v", version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			_ = tx.Rollback()
			fatal("record %s: %v", version, err)
		}
		if err := tx.Commit(); err != nil {
			fatal("commit %s: %v", version, err)
		}

		fmt.Printf("applied %s\n", version)
		applied++
	}

	fmt.Printf("done, %d migration(s) applied\n", applied)
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

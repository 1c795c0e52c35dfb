package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"telegram-event-bot/internal/config"
	pg "telegram-event-bot/internal/infra/db/postgres"
)

// Applies deploy/postgres/init.sql to the configured database. The schema is
// written with IF NOT EXISTS throughout, so re-running is safe.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 2)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	path := filepath.Join("deploy", "postgres", "init.sql")
	schema, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}

	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	log.Println("schema applied")
}

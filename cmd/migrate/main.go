package main

import (
	"context"
	"flag"
	"log"

	"reclaim-chat/config"
	"reclaim-chat/pkg/database"
)

func main() {
	dir := flag.String("dir", "migrations", "directory containing .sql migration files")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := database.ApplyRawMigrations(ctx, pool, *dir); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	log.Printf("Migrations applied from %s", *dir)
}

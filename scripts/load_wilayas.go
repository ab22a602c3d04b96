package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"tourguide/internal/config"
	"tourguide/internal/database"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		wilayasPath = flag.String("wilayas", "configs/wilayas.yaml", "path to wilayas.yaml")
		driver      = flag.String("driver", "sqlite", "database driver: sqlite or postgres")
		dbPath      = flag.String("db", "./data/tourguide.db", "path to sqlite db")
		pgHost      = flag.String("pg-host", "localhost", "postgres host")
		pgName      = flag.String("pg-db", "tourguide", "postgres database name")
		pgUser      = flag.String("pg-user", "tourguide", "postgres user")
	)
	flag.Parse()

	wilayas, err := database.LoadWilayasFile(*wilayasPath)
	if err != nil {
		return err
	}
	if len(wilayas) == 0 {
		return fmt.Errorf("no wilayas in yaml")
	}

	db, err := database.Open(config.DatabaseConfig{
		Driver: *driver,
		Path:   *dbPath,
		Postgres: config.PostgresConfig{
			Host:     *pgHost,
			Port:     5432,
			User:     *pgUser,
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   *pgName,
			SSLMode:  "disable",
		},
	}, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, updated, err := db.SyncWilayas(ctx, wilayas)
	if err != nil {
		return err
	}

	fmt.Printf("done: created=%d updated=%d\n", created, updated)
	return nil
}

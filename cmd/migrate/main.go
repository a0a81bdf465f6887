package main

import (
	"errors"
	"flag"
	"log"

	"vidhub/internal/pkg/config"
	"vidhub/pkg/database"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

func main() {
	dir := flag.String("path", "migrations", "migration files directory")
	down := flag.Bool("down", false, "roll back one migration")
	force := flag.Int("force", -1, "force a version after a failed migration")
	flag.Parse()

	_ = godotenv.Load()
	config.LoadConfig()

	m, err := migrate.New("file://"+*dir, database.MigrationDSN(config.GlobalConfig.Database))
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	switch {
	case *force >= 0:
		// 迁移中断后数据库处于 dirty 状态，需要人工确认版本
		if err := m.Force(*force); err != nil {
			log.Fatal("Failed to force version:", err)
		}
		log.Printf("Forced version %d", *force)
		return
	case *down:
		err = m.Steps(-1)
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		var dirty migrate.ErrDirty
		if errors.As(err, &dirty) {
			log.Fatalf("Database is dirty at version %d, fix it and rerun with -force", dirty.Version)
		}
		log.Fatal(err)
	}

	log.Println("Migration successful")
}

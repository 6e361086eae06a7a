package db

import (
	"database/sql"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const (
	maxOpenConns = 50
	maxIdleConns = 10
	connMaxLife  = time.Minute * 15
)

func MustMigrate(db *sql.DB, migrationDir string) {
	driver, err := postgres.WithInstance(db, &postgres.Config{
		DatabaseName: "seabattle",
	})
	if err != nil {
		panic(err)
	}

	migration, err := migrate.NewWithDatabaseInstance(migrationDir, "seabattle", driver)
	if err != nil {
		panic(err)
	}

	if err = migration.Up(); err != nil {
		if err == migrate.ErrNoChange {
			return
		}
		panic(err)
	}
	log.Println("migration successful...")
}

func MustConnectToDb(psqlUrl string) *sql.DB {
	db, err := sql.Open("postgres", psqlUrl)
	if err != nil {
		panic(err)
	}

	if err := db.Ping(); err != nil {
		panic(err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLife)

	// 'SchemeFromURL' splits the migration dir by ':', so db/migration becomes the URL
	MustMigrate(db, "files:db/migration")
	return db
}

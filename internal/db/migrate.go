package db

import (
	"database/sql"
	"embed"

	"github.com/aksaraymalaklisi/greentrail/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies pending migrations using the pgx database/sql driver.
// The pool itself stays on the native pgx interface.
func Migrate(cfg config.Config) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	conn, err := sql.Open("pgx", cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	return goose.Up(conn, "migrations")
}

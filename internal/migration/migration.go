package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/narzo/internal/audit/domain"
	categorydomain "github.com/smallbiznis/narzo/internal/category/domain"
	entitlementdomain "github.com/smallbiznis/narzo/internal/entitlement/domain"
	orderdomain "github.com/smallbiznis/narzo/internal/order/domain"
	postdomain "github.com/smallbiznis/narzo/internal/post/domain"
	productdomain "github.com/smallbiznis/narzo/internal/product/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Apply brings the schema up to date. Postgres runs the versioned SQL
// migrations; other dialects fall back to gorm's AutoMigrate of the models.
func Apply(conn *gorm.DB, dbType string, log *zap.Logger) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if strings.EqualFold(strings.TrimSpace(dbType), "postgres") {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}
		log.Info("schema migrated", zap.String("mode", "sql"))
		return nil
	}

	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("schema migrated", zap.String("mode", "automigrate"), zap.String("db_type", dbType))
	return nil
}

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&categorydomain.Category{},
		&productdomain.Product{},
		&postdomain.Post{},
		&orderdomain.Order{},
		&entitlementdomain.Entitlement{},
		&entitlementdomain.DownloadLog{},
		&auditdomain.AuditLog{},
	}
}

// RunMigrations applies every pending embedded migration to a Postgres database.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	src, err := newSource()
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// migrator.Close would close the shared *sql.DB

	return nil
}

func newSource() (source.Driver, error) {
	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	driver, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}
	return driver, nil
}

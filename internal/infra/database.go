package infra

import (
	"database/sql"
	"embed"
	"fmt"

	"repairpos/internal/model"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// NewDatabase opens the configured store and brings its schema up to date.
// Postgres is migrated with the embedded goose files; sqlite (single-shop
// installs and tests) is AutoMigrated from the models.
func NewDatabase(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case DriverPostgres, "":
		return openPostgres(dsn)
	case DriverSQLite:
		return OpenSQLite(dsn)
	default:
		return nil, fmt.Errorf("database: unknown driver %q", driver)
	}
}

func openPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(sqlDB); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return db, nil
}

// OpenSQLite opens dsn with a single connection: sqlite serialises writers
// anyway and a second connection would block on the first one's transaction.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(model.All()...); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}
	return db, nil
}

// RunMigrations applies the embedded goose migrations to a postgres database.
func RunMigrations(sqlDB *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(sqlDB, "migrations")
}

// TxOptions returns the isolation level checkout and repair transitions run
// at. sqlite has a single writer, so the driver default is used there.
func TxOptions(db *gorm.DB) *sql.TxOptions {
	if db.Dialector.Name() == DriverPostgres {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

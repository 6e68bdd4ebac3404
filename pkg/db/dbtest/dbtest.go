// Package dbtest opens isolated databases for package tests.
package dbtest

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/souqly/storefront-backend/pkg/config"
	"github.com/souqly/storefront-backend/pkg/db"
	"github.com/souqly/storefront-backend/pkg/migrate"
)

// PostgresDSNEnv names the variable that enables postgres-backed tests.
const PostgresDSNEnv = "STOREFRONT_TEST_POSTGRES_DSN"

var logOutput io.Writer = io.Discard

// Open returns a fresh database with every storefront model migrated.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:storefront_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 silentLogger(),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migrate.AutoMigrateModels(context.Background(), conn); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

// Client wraps Open in a db.Client so callers can use WithTx.
func Client(t *testing.T) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.FromConn(conn), conn
}

// Postgres connects to the database named by STOREFRONT_TEST_POSTGRES_DSN and
// applies the goose migrations. The test is skipped when the variable is unset.
// Rows are not cleaned up, so tests must scope assertions to what they create.
func Postgres(t *testing.T) (*db.Client, *gorm.DB) {
	t.Helper()
	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}

	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{
		DSN:          dsn,
		Driver:       config.DriverPostgres,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}, nil)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.DB().DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	if err := migrate.Run(ctx, sqlDB, migrationsDir(), "up"); err != nil {
		t.Fatalf("migrate postgres: %v", err)
	}
	return client, client.DB()
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrate", "migrations")
}

func silentLogger() gormlogger.Interface {
	return gormlogger.New(
		log.New(logOutput, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)
}

package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/pkg/db"
	"github.com/souqly/storefront-backend/pkg/db/models"
	"github.com/souqly/storefront-backend/pkg/enums"
	"github.com/souqly/storefront-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one %s migration, found %d", suffix, len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestMigrationsContainStockAndCartConstraints(t *testing.T) {
	checks := map[string][]string{
		"create_products": {
			"CHECK (quantity >= 0)",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_slug",
		},
		"create_carts": {
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_user_open ON carts (user_id) WHERE status = 'Inprogress'",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_lines_cart_product",
			"DROP TABLE IF EXISTS carts",
		},
		"create_orders": {
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_code",
			"total_with_coupon NUMERIC(12,2) NOT NULL",
			"DROP TABLE IF EXISTS order_lines",
		},
	}
	for suffix, subs := range checks {
		content := readMigration(t, suffix)
		for _, sub := range subs {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing expected statement %q", suffix, sub)
			}
		}
	}
}

func TestAutoMigrateModelsEnforcesOneOpenCart(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.AutoMigrateModels(context.Background(), conn))
	require.NoError(t, migrate.AutoMigrateModels(context.Background(), conn), "must be idempotent")

	user := uuid.New()
	require.NoError(t, conn.Create(&models.Cart{UserID: user}).Error)
	err = conn.Create(&models.Cart{UserID: user}).Error
	require.Error(t, err)
	require.True(t, db.IsUniqueViolation(err, ""), err.Error())

	require.NoError(t, conn.Create(&models.Cart{UserID: user, Status: enums.CartStatusCompleted}).Error)
}

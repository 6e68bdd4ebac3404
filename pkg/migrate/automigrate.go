package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/pkg/db/models"
)

// partialIndexes are the constraints gorm tags cannot express. The SQL
// migrations carry the same definitions for postgres.
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_user_open ON carts (user_id) WHERE status = 'Inprogress'`,
}

// AutoMigrateModels builds the schema from the gorm models. It backs sqlite
// databases, where the postgres migrations do not apply.
func AutoMigrateModels(ctx context.Context, conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db is required")
	}
	db := conn.WithContext(ctx)
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create partial index: %w", err)
		}
	}
	return nil
}

package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"costume-swap/internal/domain"
	gormpersistence "costume-swap/internal/infra/persistence/gorm"
)

// MigrateDB 创建或更新 users、feedbacks、generations 三张表
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	err := db.AutoMigrate(
		&domain.User{},
		&gormpersistence.FeedbackModel{},
		&domain.Generation{},
	)
	if err != nil {
		logrus.Errorf("Failed to auto-migrate tables: %v", err)
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}

	logrus.Info("Database migration completed successfully")
	return nil
}

package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"costume-swap/internal/domain"
	"costume-swap/internal/repository"
)

// GormGenerationRepository 是 GenerationRepository 接口的 GORM 实现
type GormGenerationRepository struct {
	db *gorm.DB
}

var _ repository.GenerationRepository = (*GormGenerationRepository)(nil)

// NewGormGenerationRepository 创建 GormGenerationRepository 实例
func NewGormGenerationRepository(db *gorm.DB) *GormGenerationRepository {
	if db == nil {
		panic("database connection cannot be nil for GormGenerationRepository")
	}
	return &GormGenerationRepository{db: db}
}

// Save 插入生成记录。任务重试导致的重复文件名视为已保存。
func (r *GormGenerationRepository) Save(ctx context.Context, generation *domain.Generation) error {
	err := r.db.WithContext(ctx).Create(generation).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return nil
		}
		return fmt.Errorf("gorm: save generation '%s': %w", generation.Filename, err)
	}
	return nil
}

// ListByUsername 返回用户的生成记录，按创建时间倒序
func (r *GormGenerationRepository) ListByUsername(ctx context.Context, username string, limit int) ([]domain.Generation, error) {
	var generations []domain.Generation
	query := r.db.WithContext(ctx).Where("username = ?", username).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&generations).Error; err != nil {
		return nil, fmt.Errorf("gorm: list generations for '%s': %w", username, err)
	}
	return generations, nil
}

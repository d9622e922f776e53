package gormpersistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"costume-swap/internal/domain"
	"costume-swap/internal/repository"
)

// FeedbackModel 是 feedbacks 表的行结构。
// 客户端提交的完整文档以 JSON 存放在 Document 列，username/timestamp 单独成列便于查询。
type FeedbackModel struct {
	ID        uint      `gorm:"primaryKey"`
	Username  string    `gorm:"type:varchar(191);index;not null"`
	Timestamp string    `gorm:"type:varchar(32);not null"`
	Document  string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName 指定表名
func (FeedbackModel) TableName() string { return "feedbacks" }

// GormFeedbackRepository 是 FeedbackRepository 接口的 GORM 实现
type GormFeedbackRepository struct {
	db *gorm.DB
}

var _ repository.FeedbackRepository = (*GormFeedbackRepository)(nil)

// NewGormFeedbackRepository 创建 GormFeedbackRepository 实例
func NewGormFeedbackRepository(db *gorm.DB) *GormFeedbackRepository {
	if db == nil {
		panic("database connection cannot be nil for GormFeedbackRepository")
	}
	return &GormFeedbackRepository{db: db}
}

// Append 插入一条反馈
func (r *GormFeedbackRepository) Append(ctx context.Context, feedback domain.Feedback) error {
	doc, err := json.Marshal(feedback)
	if err != nil {
		return fmt.Errorf("gorm: encode feedback: %w", err)
	}
	row := FeedbackModel{
		Username:  feedback.Username(),
		Timestamp: feedback.Timestamp(),
		Document:  string(doc),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("gorm: append feedback for '%s': %w", row.Username, err)
	}
	return nil
}

// List 按自增 ID (即提交顺序) 返回全部反馈
func (r *GormFeedbackRepository) List(ctx context.Context) ([]domain.Feedback, error) {
	var rows []FeedbackModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("gorm: list feedbacks: %w", err)
	}
	out := make([]domain.Feedback, 0, len(rows))
	for _, row := range rows {
		fb := domain.Feedback{}
		dec := json.NewDecoder(strings.NewReader(row.Document))
		dec.UseNumber()
		if err := dec.Decode(&fb); err != nil {
			return nil, fmt.Errorf("gorm: decode feedback %d: %w", row.ID, err)
		}
		out = append(out, fb)
	}
	return out, nil
}

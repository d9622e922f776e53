package domain

import "time"

// Generation 记录一次成功的换脸生成，用于用户查看历史结果。
type Generation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(191);index;not null" json:"username"`
	Filename  string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"filename"`
	ImageURL  string    `gorm:"type:varchar(255);not null" json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

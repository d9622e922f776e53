// Package domain 定义了应用程序中使用的核心数据结构。
package domain

import "time"

// RegisterTimeLayout 是账户文件中注册时间的格式。
const RegisterTimeLayout = "2006-01-02 15:04:05"

// User 表示一个注册用户。创建后不再修改，也不会被删除。
type User struct {
	ID        uint      `gorm:"primaryKey"`
	Username  string    `gorm:"type:varchar(191);uniqueIndex:idx_username;not null"`
	Password  string    `gorm:"type:varchar(72);not null"` // bcrypt 摘要，不存明文
	CreatedAt time.Time `gorm:"autoCreateTime"`            // 注册时间
}

// RegisteredAt 返回按账户文件格式渲染的注册时间。
func (u *User) RegisteredAt() string {
	return u.CreatedAt.Format(RegisterTimeLayout)
}

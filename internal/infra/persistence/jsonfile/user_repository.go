package jsonfile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"costume-swap/internal/domain"
	"costume-swap/internal/repository"
)

// userRecord 是账户文件中单个用户的格式：username -> {password, register_time}
type userRecord struct {
	Password     string `json:"password"`
	RegisterTime string `json:"register_time"`
}

// UserRepository 是 repository.UserRepository 的 JSON 文件实现。
type UserRepository struct {
	path  string
	mu    sync.RWMutex
	users map[string]userRecord
}

var _ repository.UserRepository = (*UserRepository)(nil)

// NewUserRepository 打开 (必要时创建) 账户文件并加载到内存。
func NewUserRepository(path string) (*UserRepository, error) {
	if err := ensureFile(path, map[string]userRecord{}); err != nil {
		return nil, err
	}
	r := &UserRepository{path: path}
	users, err := r.load()
	if err != nil {
		return nil, err
	}
	r.users = users
	return r, nil
}

// load 从磁盘读取完整的账户集合。
func (r *UserRepository) load() (map[string]userRecord, error) {
	users := map[string]userRecord{}
	if err := readJSON(r.path, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// save 把完整的账户集合写回磁盘。调用方需持有写锁。
func (r *UserRepository) save(users map[string]userRecord) error {
	return writeJSON(r.path, users)
}

// FindByUsername 实现根据用户名查找用户
func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	rec, ok := r.users[username]
	r.mu.RUnlock()
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return toDomainUser(username, rec), nil
}

// Create 实现注册新用户。检查和写入在同一把锁内完成。
func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Username]; exists {
		return repository.ErrDuplicateEntry
	}
	r.users[user.Username] = userRecord{
		Password:     user.Password,
		RegisterTime: user.RegisteredAt(),
	}
	if err := r.save(r.users); err != nil {
		// 落盘失败时回滚内存中的插入，保持与文件一致
		delete(r.users, user.Username)
		return fmt.Errorf("jsonfile: create user '%s': %w", user.Username, err)
	}
	return nil
}

// Count 返回已注册用户数
func (r *UserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func toDomainUser(username string, rec userRecord) *domain.User {
	created, err := time.ParseInLocation(domain.RegisterTimeLayout, rec.RegisterTime, time.Local)
	if err != nil {
		created = time.Time{}
	}
	return &domain.User{
		Username:  username,
		Password:  rec.Password,
		CreatedAt: created,
	}
}

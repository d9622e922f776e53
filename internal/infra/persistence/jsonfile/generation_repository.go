package jsonfile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"costume-swap/internal/domain"
	"costume-swap/internal/repository"
)

// GenerationRepository 是 repository.GenerationRepository 的 JSON 文件实现。
type GenerationRepository struct {
	path        string
	mu          sync.RWMutex
	generations []domain.Generation
}

var _ repository.GenerationRepository = (*GenerationRepository)(nil)

// NewGenerationRepository 打开 (必要时创建) 生成历史文件。
func NewGenerationRepository(path string) (*GenerationRepository, error) {
	if err := ensureFile(path, []domain.Generation{}); err != nil {
		return nil, err
	}
	generations := []domain.Generation{}
	if err := readJSON(path, &generations); err != nil {
		return nil, err
	}
	return &GenerationRepository{path: path, generations: generations}, nil
}

// Save 追加一条生成记录，文件名已存在时直接返回。
func (r *GenerationRepository) Save(_ context.Context, generation *domain.Generation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var maxID uint
	for _, g := range r.generations {
		if g.Filename == generation.Filename {
			generation.ID = g.ID
			return nil
		}
		if g.ID > maxID {
			maxID = g.ID
		}
	}

	generation.ID = maxID + 1
	if generation.CreatedAt.IsZero() {
		generation.CreatedAt = time.Now()
	}
	r.generations = append(r.generations, *generation)
	if err := writeJSON(r.path, r.generations); err != nil {
		r.generations = r.generations[:len(r.generations)-1]
		return fmt.Errorf("jsonfile: save generation '%s': %w", generation.Filename, err)
	}
	return nil
}

// ListByUsername 返回用户的生成记录，最新的在前。limit <= 0 表示不限制。
func (r *GenerationRepository) ListByUsername(_ context.Context, username string, limit int) ([]domain.Generation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Generation{}
	for i := len(r.generations) - 1; i >= 0; i-- {
		if r.generations[i].Username != username {
			continue
		}
		out = append(out, r.generations[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

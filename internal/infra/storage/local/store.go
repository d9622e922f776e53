// Package local 把生成结果保存在本地目录中。
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"costume-swap/internal/repository"
)

// Store 是 ResultStore 的本地目录实现
type Store struct {
	dir string
}

var _ repository.ResultStore = (*Store)(nil)

// NewStore 创建 Store，目录不存在时自动创建
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("results directory must be set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

// Put 先写临时文件再 rename，读者只会看到完整的图片
func (s *Store) Put(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	dst, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create results dir %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("failed to publish %s: %w", name, err)
	}
	return nil
}

// Open 打开结果文件
func (s *Store) Open(_ context.Context, name string) (io.ReadCloser, *repository.ResultObject, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, nil, repository.ErrNotFound
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, repository.ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, repository.ErrNotFound
	}
	return f, &repository.ResultObject{
		Name:        name,
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
		ModTime:     info.ModTime(),
	}, nil
}

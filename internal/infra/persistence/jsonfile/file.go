// Package jsonfile 实现基于扁平 JSON 文件的存储库。
//
// 每个集合在内存中只有一个持有者，由一把互斥锁保护；每次写入都把整个集合
// 写到临时文件后再 rename 覆盖原文件，读者不会看到写了一半的文件。
package jsonfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// readJSON 把 path 的内容解码到 v。文件不存在或为空时保持 v 不变。
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("jsonfile: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber() // 反馈中的任意数字按原文保留
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("jsonfile: decode %s: %w", path, err)
	}
	return nil
}

// writeJSON 原子地用 v 的 JSON 编码替换 path 的内容。
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("jsonfile: create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("jsonfile: create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	// rename 成功后临时文件已不存在，Remove 只在失败路径上起作用
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("jsonfile: write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("jsonfile: sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("jsonfile: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("jsonfile: replace %s: %w", path, err)
	}
	return nil
}

// ensureFile 在文件不存在时写入初始内容。
func ensureFile(path string, initial any) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("jsonfile: stat %s: %w", path, err)
	}
	return writeJSON(path, initial)
}

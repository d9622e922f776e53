package repository

import (
	"context"
	"io"
	"time"
)

// ResultObject 描述一个已保存的生成结果
type ResultObject struct {
	Name        string
	Size        int64
	ContentType string
	ModTime     time.Time
}

// ResultStore 保存生成的结果图片。
type ResultStore interface {
	// Put 写入一个结果对象。写入完成前对象对读者不可见。
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error

	// Open 打开一个结果对象，不存在时返回 ErrNotFound。调用方负责关闭。
	Open(ctx context.Context, name string) (io.ReadCloser, *ResultObject, error)
}

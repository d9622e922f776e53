package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"costume-swap/internal/domain"
)

// 定义任务类型常量
const (
	TypeGenerationRecord = "generation:record" // 生成历史持久化任务
)

// GenerationRecordPayload 是生成历史任务的数据结构
type GenerationRecordPayload struct {
	Generation domain.Generation `json:"generation"`
}

// NewGenerationRecordTask 创建生成历史持久化任务
func NewGenerationRecordTask(generation domain.Generation) (*asynq.Task, error) {
	payload, err := json.Marshal(GenerationRecordPayload{Generation: generation})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGenerationRecord, payload, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

// Enqueuer 用 asynq 客户端投递任务，实现 service.GenerationEnqueuer
type Enqueuer struct {
	client *asynq.Client
	queue  string
}

// NewEnqueuer 创建 Enqueuer
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	if client == nil {
		panic("asynq client cannot be nil for Enqueuer")
	}
	return &Enqueuer{client: client, queue: "default"}
}

// EnqueueGenerationRecord 投递生成历史任务
func (e *Enqueuer) EnqueueGenerationRecord(ctx context.Context, generation domain.Generation) error {
	task, err := NewGenerationRecordTask(generation)
	if err != nil {
		return fmt.Errorf("failed to build generation record task: %w", err)
	}
	if _, err := e.client.EnqueueContext(ctx, task, asynq.Queue(e.queue)); err != nil {
		return fmt.Errorf("failed to enqueue generation record task: %w", err)
	}
	return nil
}

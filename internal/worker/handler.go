package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"costume-swap/internal/domain"
	"costume-swap/internal/tasks"
)

// GenerationSaver 持久化生成记录
type GenerationSaver interface {
	Save(ctx context.Context, generation *domain.Generation) error
}

// GenerationRecordHandler 处理生成历史持久化任务
type GenerationRecordHandler struct {
	saver GenerationSaver
}

// NewGenerationRecordHandler 创建 Handler 实例
func NewGenerationRecordHandler(saver GenerationSaver) *GenerationRecordHandler {
	return &GenerationRecordHandler{saver: saver}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *GenerationRecordHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	currentRetry, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     currentRetry,
		"max_retry": maxRetry,
	})
	logCtx.Debug("Processing generation record task...")

	var payload tasks.GenerationRecordPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Generation.Filename == "" || payload.Generation.Username == "" {
		return fmt.Errorf("generation record missing filename or username: %w", asynq.SkipRetry)
	}

	generation := payload.Generation
	if err := h.saver.Save(ctx, &generation); err != nil {
		logCtx.WithError(err).Errorf("Failed to save generation %s", generation.Filename)
		return err
	}

	logCtx.WithField("filename", generation.Filename).Info("Generation record task processed successfully")
	return nil
}

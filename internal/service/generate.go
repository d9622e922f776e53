package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"strings"
	"time"

	// 注册上传图片可能使用的格式
	_ "image/gif"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"costume-swap/internal/domain"
	"costume-swap/internal/repository"
)

// ResultURLPrefix 是结果图片对外暴露的路径前缀
const ResultURLPrefix = "/static/results/"

// GenerationRecorder 在生成成功后记录历史
type GenerationRecorder interface {
	RecordGeneration(ctx context.Context, generation domain.Generation) error
}

// GenerateResult 是一次成功生成的结果。
// Filename 形如 result_YYYYMMDD_HHMMSS_<8位十六进制>.jpg，客户端应直接使用
// ImageURL，不要按 result_<时间戳>.jpg 拼接或匹配文件名。
type GenerateResult struct {
	Filename string
	ImageURL string
}

// GenerateConfig 是 GenerateService 的可调参数
type GenerateConfig struct {
	Concurrency int // 同时进行的推理请求上限
	JPEGQuality int
}

// GenerateService 负责换脸的编排：解码、选脸、调用换脸模型、保存结果。
type GenerateService struct {
	detector FaceDetector
	swapper  FaceSwapper
	store    repository.ResultStore
	recorder GenerationRecorder
	slots    *semaphore.Weighted
	quality  int
	now      func() time.Time
	newID    func() string
}

// NewGenerateService 创建 GenerateService 实例。recorder 可以为 nil。
func NewGenerateService(detector FaceDetector, swapper FaceSwapper, store repository.ResultStore, recorder GenerationRecorder, cfg GenerateConfig) *GenerateService {
	if detector == nil || swapper == nil || store == nil {
		panic("detector, swapper and store cannot be nil for GenerateService")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 95
	}
	return &GenerateService{
		detector: detector,
		swapper:  swapper,
		store:    store,
		recorder: recorder,
		slots:    semaphore.NewWeighted(int64(cfg.Concurrency)),
		quality:  cfg.JPEGQuality,
		now:      time.Now,
		newID:    shortID,
	}
}

// Generate 把服饰照片中最大的人脸换到用户照片中最大的人脸上。
// 只有换脸成功后才会写入结果文件。
func (s *GenerateService) Generate(ctx context.Context, username string, userPhoto, costumePhoto []byte) (*GenerateResult, error) {
	logCtx := logrus.WithField("username", username)

	if len(userPhoto) == 0 || len(costumePhoto) == 0 {
		return nil, ErrMissingPhoto
	}

	userImg, err := decodeImage(userPhoto)
	if err != nil {
		logCtx.WithError(err).Warn("Failed to decode user photo")
		return nil, fmt.Errorf("%w: user photo: %v", ErrDecode, err)
	}
	costumeImg, err := decodeImage(costumePhoto)
	if err != nil {
		logCtx.WithError(err).Warn("Failed to decode costume photo")
		return nil, fmt.Errorf("%w: costume photo: %v", ErrDecode, err)
	}

	if err := s.slots.Acquire(ctx, 1); err != nil {
		logCtx.WithError(err).Warn("No inference slot available")
		return nil, ErrBusy
	}
	defer s.slots.Release(1)

	// 服饰照片提供身份 (source)，用户照片中的人脸被替换 (target)
	var source, target *domain.DetectedFace
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		source, err = SelectLargestFace(gctx, s.detector, costumeImg)
		return err
	})
	g.Go(func() error {
		var err error
		target, err = SelectLargestFace(gctx, s.detector, userImg)
		return err
	})
	if err := g.Wait(); err != nil {
		logCtx.WithError(err).Error("Face detection failed")
		return nil, fmt.Errorf("%w: %w", ErrProcessing, err)
	}
	if source == nil || target == nil {
		logCtx.WithFields(logrus.Fields{
			"source_found": source != nil,
			"target_found": target != nil,
		}).Warn("No face detected")
		return nil, ErrNoFaceDetected
	}

	canvas := cloneImage(userImg)
	swapped, err := s.swapper.Swap(ctx, canvas, *target, *source, true)
	if err != nil {
		logCtx.WithError(err).Error("Face swap failed")
		return nil, fmt.Errorf("%w: %w", ErrProcessing, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, swapped, &jpeg.Options{Quality: s.quality}); err != nil {
		return nil, fmt.Errorf("%w: encode result: %w", ErrProcessing, err)
	}

	filename := s.resultFilename()
	if err := s.store.Put(ctx, filename, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "image/jpeg"); err != nil {
		logCtx.WithError(err).Error("Failed to store result image")
		return nil, fmt.Errorf("%w: save result: %w", ErrProcessing, err)
	}

	result := &GenerateResult{
		Filename: filename,
		ImageURL: ResultURLPrefix + filename,
	}
	logCtx.WithField("filename", filename).Info("Image generated successfully")

	if s.recorder != nil {
		err := s.recorder.RecordGeneration(ctx, domain.Generation{
			Username:  username,
			Filename:  result.Filename,
			ImageURL:  result.ImageURL,
			CreatedAt: s.now(),
		})
		if err != nil {
			// 历史记录失败不影响本次生成结果
			logCtx.WithError(err).Warn("Failed to record generation history")
		}
	}
	return result, nil
}

// resultFilename 形如 result_20240102_150405_1a2b3c4d.jpg。
// 时间戳保留秒级可读性，随机后缀避免同一秒内的结果互相覆盖。
func (s *GenerateService) resultFilename() string {
	return fmt.Sprintf("result_%s_%s.jpg", s.now().Format("20060102_150405"), s.newID())
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Empty() {
		return nil, errors.New("empty image")
	}
	return img, nil
}

// cloneImage 复制一份用户照片作为换脸底图
func cloneImage(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

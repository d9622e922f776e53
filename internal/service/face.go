package service

import (
	"context"
	"fmt"
	"image"

	"costume-swap/internal/domain"
)

// FaceDetector 是外部人脸检测能力
type FaceDetector interface {
	Detect(ctx context.Context, img image.Image) ([]domain.DetectedFace, error)
}

// FaceSwapper 是外部换脸能力
type FaceSwapper interface {
	Swap(ctx context.Context, canvas image.Image, target, source domain.DetectedFace, pasteBack bool) (image.Image, error)
}

// SelectLargestFace 返回包围框面积最大的人脸；没有检测到人脸时返回 nil, nil。
// 面积相同时取检测器输出中靠前的那个。
func SelectLargestFace(ctx context.Context, detector FaceDetector, img image.Image) (*domain.DetectedFace, error) {
	faces, err := detector.Detect(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}
	if len(faces) == 0 {
		return nil, nil
	}

	best := 0
	bestArea := faces[0].BBox.Area()
	for i := 1; i < len(faces); i++ {
		if area := faces[i].BBox.Area(); area > bestArea {
			best, bestArea = i, area
		}
	}
	face := faces[best]
	return &face, nil
}

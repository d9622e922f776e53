package domain

import (
	"encoding/json"
	"math"
)

// BoundingBox 是人脸的轴对齐包围框，顺序为 x1, y1, x2, y2。
type BoundingBox [4]float64

// Area 返回包围框面积的绝对值，不要求两个角点有序。
func (b BoundingBox) Area() float64 {
	return math.Abs((b[0] - b[2]) * (b[1] - b[3]))
}

// 检测结果中有固定含义的键
const (
	faceKeyBBox      = "bbox"
	faceKeyScore     = "det_score"
	faceKeyKeypoints = "kps"
	faceKeyEmbedding = "embedding"
)

// DetectedFace 是外部检测器返回的一张人脸。
// 仅在单次请求中使用，不做持久化。
type DetectedFace struct {
	BBox      BoundingBox
	Score     float64
	Keypoints [][2]float64
	Embedding []float32

	// Extra 保存检测器附带的其他顶层属性 (normed_embedding、landmark_2d_106、
	// pose、gender、age 等)，字节不变，序列化时与固定字段平铺在同一层。
	Extra map[string]json.RawMessage
}

// UnmarshalJSON 解析固定字段，其余顶层键收进 Extra。
func (f *DetectedFace) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	out := DetectedFace{}
	known := []struct {
		key string
		dst any
	}{
		{faceKeyBBox, &out.BBox},
		{faceKeyScore, &out.Score},
		{faceKeyKeypoints, &out.Keypoints},
		{faceKeyEmbedding, &out.Embedding},
	}
	for _, k := range known {
		raw, ok := fields[k.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, k.dst); err != nil {
			return err
		}
		delete(fields, k.key)
	}
	if len(fields) > 0 {
		out.Extra = fields
	}
	*f = out
	return nil
}

// MarshalJSON 输出固定字段和 Extra 中的全部属性。
// Extra 中与固定字段同名的键被忽略。
func (f DetectedFace) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(f.Extra)+4)
	for k, v := range f.Extra {
		fields[k] = v
	}
	fields[faceKeyBBox] = f.BBox
	fields[faceKeyScore] = f.Score
	if len(f.Keypoints) > 0 {
		fields[faceKeyKeypoints] = f.Keypoints
	} else {
		delete(fields, faceKeyKeypoints)
	}
	if len(f.Embedding) > 0 {
		fields[faceKeyEmbedding] = f.Embedding
	} else {
		delete(fields, faceKeyEmbedding)
	}
	return json.Marshal(fields)
}

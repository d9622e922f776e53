// Package inference 通过 HTTP 调用托管 insightface 模型的推理服务，
// 提供人脸检测和换脸两种能力。模型权重由推理服务按 model root 加载。
package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	// 注册推理服务可能返回的图片格式
	_ "image/jpeg"

	"github.com/sirupsen/logrus"

	"costume-swap/internal/domain"
)

// Config 是推理服务的连接和模型参数
type Config struct {
	BaseURL       string
	ModelRoot     string
	DetectorModel string        // 例如 buffalo_l
	SwapperModel  string        // 相对 ModelRoot 的路径，例如 models/inswapper_128.onnx
	DetSize       string        // 检测输入尺寸，例如 640x640
	Timeout       time.Duration // 单次调用超时
}

// Client 实现 service.FaceDetector 和 service.FaceSwapper
type Client struct {
	cfg  Config
	http *http.Client
	log  *logrus.Entry
}

// NewClient 创建推理客户端
func NewClient(cfg Config, logger *logrus.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("inference base URL must be set")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger.WithField("component", "inference_client"),
	}, nil
}

type detectResponse struct {
	Faces []domain.DetectedFace `json:"faces"`
}

type swapRequest struct {
	Canvas    string              `json:"canvas"` // base64 编码的 PNG
	Target    domain.DetectedFace `json:"target"`
	Source    domain.DetectedFace `json:"source"`
	PasteBack bool                `json:"paste_back"`
	Model     string              `json:"model"`
	ModelRoot string              `json:"model_root"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Detect 返回图片中检测到的所有人脸，顺序与检测器输出一致
func (c *Client) Detect(ctx context.Context, img image.Image) ([]domain.DetectedFace, error) {
	body, err := encodePNG(img)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/detect", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("inference: build detect request: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("X-Model-Name", c.cfg.DetectorModel)
	req.Header.Set("X-Model-Root", c.cfg.ModelRoot)
	if c.cfg.DetSize != "" {
		req.Header.Set("X-Det-Size", c.cfg.DetSize)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference: detect call failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("inference: detect: %w", err)
	}
	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("inference: decode detect response: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"faces":      len(out.Faces),
		"latency_ms": time.Since(start).Milliseconds(),
	}).Debug("Detect finished")
	return out.Faces, nil
}

// Swap 把 source 的身份渲染到 canvas 中 target 的位置。
// pasteBack 为 true 时返回贴回原图的完整分辨率图片。
func (c *Client) Swap(ctx context.Context, canvas image.Image, target, source domain.DetectedFace, pasteBack bool) (image.Image, error) {
	canvasPNG, err := encodePNG(canvas)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(swapRequest{
		Canvas:    base64.StdEncoding.EncodeToString(canvasPNG),
		Target:    target,
		Source:    source,
		PasteBack: pasteBack,
		Model:     c.cfg.SwapperModel,
		ModelRoot: c.cfg.ModelRoot,
	})
	if err != nil {
		return nil, fmt.Errorf("inference: encode swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/swap", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("inference: build swap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference: swap call failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("inference: swap: %w", err)
	}
	result, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("inference: decode swap result: %w", err)
	}
	c.log.WithField("latency_ms", time.Since(start).Milliseconds()).Debug("Swap finished")
	return result, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("inference: encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// checkStatus 把非 2xx 响应转换为错误，尽量带上服务端的 error 字段
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && er.Error != "" {
		return fmt.Errorf("status %d: %s", resp.StatusCode, er.Error)
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}

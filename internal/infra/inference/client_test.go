package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costume-swap/internal/domain"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestClient_Detect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/detect", r.URL.Path)
		assert.Equal(t, "buffalo_l", r.Header.Get("X-Model-Name"))
		assert.Equal(t, "/models", r.Header.Get("X-Model-Root"))
		assert.Equal(t, "640x640", r.Header.Get("X-Det-Size"))
		_, err := png.Decode(r.Body)
		assert.NoError(t, err, "请求体应为 PNG")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"faces":[{"bbox":[1,2,11,22],"det_score":0.9},{"bbox":[0,0,5,5],"det_score":0.8}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL + "/", ModelRoot: "/models", DetectorModel: "buffalo_l", DetSize: "640x640"}, nil)
	require.NoError(t, err)

	faces, err := client.Detect(context.Background(), solidImage(4, 4, color.White))
	require.NoError(t, err)
	require.Len(t, faces, 2)
	assert.Equal(t, domain.BoundingBox{1, 2, 11, 22}, faces[0].BBox)
	assert.InDelta(t, 0.8, faces[1].Score, 1e-9)
}

func TestClient_DetectServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = client.Detect(context.Background(), solidImage(2, 2, color.Black))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestClient_Swap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/swap", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		var req swapRequest
		if !assert.NoError(t, json.Unmarshal(body, &req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.True(t, req.PasteBack)
		assert.Equal(t, "models/inswapper_128.onnx", req.Model)
		assert.Equal(t, domain.BoundingBox{0, 0, 2, 2}, req.Target.BBox)
		assert.Equal(t, domain.BoundingBox{1, 1, 3, 3}, req.Source.BBox)

		raw, err := base64.StdEncoding.DecodeString(req.Canvas)
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		canvas, err := png.Decode(bytes.NewReader(raw))
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_ = png.Encode(w, canvas)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, SwapperModel: "models/inswapper_128.onnx"}, nil)
	require.NoError(t, err)

	out, err := client.Swap(context.Background(), solidImage(6, 4, color.White),
		domain.DetectedFace{BBox: domain.BoundingBox{0, 0, 2, 2}},
		domain.DetectedFace{BBox: domain.BoundingBox{1, 1, 3, 3}}, true)
	require.NoError(t, err)
	assert.Equal(t, 6, out.Bounds().Dx())
	assert.Equal(t, 4, out.Bounds().Dy())
}

func TestClient_DetectedAttributesReachSwap(t *testing.T) {
	swapBodies := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/detect":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"faces":[{"bbox":[0,0,4,4],"det_score":0.9,"normed_embedding":[0.1,-0.2],"gender":1,"landmark_2d_106":[[1.5,2.5]]}]}`))
		case "/swap":
			body, _ := io.ReadAll(r.Body)
			swapBodies <- body
			w.Header().Set("Content-Type", "image/png")
			_ = png.Encode(w, solidImage(4, 4, color.White))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	faces, err := client.Detect(ctx, solidImage(4, 4, color.White))
	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.Equal(t, `[0.1,-0.2]`, string(faces[0].Extra["normed_embedding"]))

	_, err = client.Swap(ctx, solidImage(4, 4, color.White), faces[0], faces[0], true)
	require.NoError(t, err)

	var req struct {
		Source map[string]json.RawMessage `json:"source"`
		Target map[string]json.RawMessage `json:"target"`
	}
	require.NoError(t, json.Unmarshal(<-swapBodies, &req))
	for _, face := range []map[string]json.RawMessage{req.Source, req.Target} {
		assert.Equal(t, `[0.1,-0.2]`, string(face["normed_embedding"]))
		assert.Equal(t, `1`, string(face["gender"]))
		assert.Equal(t, `[[1.5,2.5]]`, string(face["landmark_2d_106"]))
		assert.Equal(t, `[0,0,4,4]`, string(face["bbox"]))
		assert.NotContains(t, face, "extra")
	}
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	assert.Error(t, err)
}

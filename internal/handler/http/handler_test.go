package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"costume-swap/internal/domain"
	handler "costume-swap/internal/handler/http"
	"costume-swap/internal/infra/persistence/jsonfile"
	"costume-swap/internal/infra/storage/local"
	"costume-swap/internal/middleware"
	"costume-swap/internal/repository/mocks"
	"costume-swap/internal/service"
)

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	tmpl, err := handler.LoadTemplates()
	require.NoError(t, err)
	r.SetHTMLTemplate(tmpl)
	return r
}

// asUser 模拟已经通过会话中间件的请求
func asUser(username string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUsernameKey, username)
		c.Next()
	}
}

func newAuthService(t *testing.T) *service.AuthService {
	t.Helper()
	users, err := jsonfile.NewUserRepository(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)
	svc, err := service.NewAuthService(users, nil, "test-secret", time.Hour, service.WithHashCost(bcrypt.MinCost))
	require.NoError(t, err)
	return svc
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_RegisterLoginLogout(t *testing.T) {
	authService := newAuthService(t)
	h := handler.NewAuthHandler(authService, false)
	r := newEngine(t)
	r.GET("/register", h.RegisterPage)
	r.POST("/register", h.Register)
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.GET("/logout", middleware.LoadSession(authService), h.Logout)

	// 表单页面
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/register", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="confirm_password"`)

	// 密码不一致时在页面内提示
	w = postForm(r, "/register", url.Values{"username": {"alice"}, "password": {"pw1"}, "confirm_password": {"pw2"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "密码不一致")
	assert.Nil(t, sessionCookie(w))

	// 注册成功后直接登录
	w = postForm(r, "/register", url.Values{"username": {"alice"}, "password": {"pw1"}, "confirm_password": {"pw1"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	claims, err := authService.ParseToken(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	// 重复注册
	w = postForm(r, "/register", url.Values{"username": {"alice"}, "password": {"x"}, "confirm_password": {"x"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "用户名已存在")

	// 错误密码
	w = postForm(r, "/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "用户名或密码错误")
	assert.Nil(t, sessionCookie(w))

	// 正确密码
	w = postForm(r, "/login", url.Values{"username": {"alice"}, "password": {"pw1"}})
	assert.Equal(t, http.StatusFound, w.Code)
	require.NotNil(t, sessionCookie(w))

	// 退出登录总是清除 Cookie
	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(sessionCookie(w))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	cleared := sessionCookie(w)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}

func TestIndex_RendersUsername(t *testing.T) {
	r := newEngine(t)
	r.GET("/", asUser("alice"), handler.Index)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
	assert.Contains(t, w.Body.String(), `name="costumePhoto"`)
}

type fakeGenerator struct {
	result *service.GenerateResult
	err    error
	got    [2][]byte
	user   string
}

func (f *fakeGenerator) Generate(_ context.Context, username string, userPhoto, costumePhoto []byte) (*service.GenerateResult, error) {
	f.user = username
	f.got = [2][]byte{userPhoto, costumePhoto}
	return f.result, f.err
}

func multipartRequest(t *testing.T, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, data := range files {
		part, err := mw.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/generate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestGenerateHandler_Success(t *testing.T) {
	gen := &fakeGenerator{result: &service.GenerateResult{Filename: "result_x.jpg", ImageURL: "/static/results/result_x.jpg"}}
	r := newEngine(t)
	r.POST("/generate", asUser("alice"), handler.NewGenerateHandler(gen, 1<<20).Generate)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, map[string][]byte{"userPhoto": []byte("u"), "costumePhoto": []byte("c")}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"imageUrl":"/static/results/result_x.jpg","message":"图像生成成功"}`, w.Body.String())
	assert.Equal(t, "alice", gen.user)
	assert.Equal(t, []byte("u"), gen.got[0])
	assert.Equal(t, []byte("c"), gen.got[1])
}

func TestGenerateHandler_Errors(t *testing.T) {
	cases := []struct {
		name    string
		files   map[string][]byte
		err     error
		code    int
		message string
	}{
		{"missing costume", map[string][]byte{"userPhoto": []byte("u")}, nil, http.StatusBadRequest, service.ErrMissingPhoto.Error()},
		{"decode", nil, fmt.Errorf("%w: user photo: bad", service.ErrDecode), http.StatusBadRequest, "无法读取图像文件"},
		{"no face", nil, service.ErrNoFaceDetected, http.StatusBadRequest, service.ErrNoFaceDetected.Error()},
		{"busy", nil, service.ErrBusy, http.StatusServiceUnavailable, service.ErrBusy.Error()},
		{"processing", nil, fmt.Errorf("%w: %w", service.ErrProcessing, fmt.Errorf("swap: boom")), http.StatusInternalServerError, "处理过程中出现错误: swap: boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{err: tc.err}
			r := newEngine(t)
			r.POST("/generate", asUser("alice"), handler.NewGenerateHandler(gen, 1<<20).Generate)

			files := tc.files
			if files == nil {
				files = map[string][]byte{"userPhoto": []byte("u"), "costumePhoto": []byte("c")}
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, multipartRequest(t, files))

			assert.Equal(t, tc.code, w.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.message, resp["error"])
		})
	}
}

func TestGenerateHandler_NotMultipart(t *testing.T) {
	r := newEngine(t)
	r.POST("/generate", asUser("alice"), handler.NewGenerateHandler(&fakeGenerator{}, 1<<20).Generate)

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResultHandler(t *testing.T) {
	store, err := local.NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "result_a.jpg", strings.NewReader("jpegdata"), 8, "image/jpeg"))

	r := newEngine(t)
	r.GET("/static/results/:filename", handler.NewResultHandler(store).Serve)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/results/result_a.jpg", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpegdata", w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/results/missing.jpg", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedbackHandler(t *testing.T) {
	repo, err := jsonfile.NewFeedbackRepository(filepath.Join(t.TempDir(), "feedback.json"))
	require.NoError(t, err)
	h := handler.NewFeedbackHandler(service.NewFeedbackService(repo))

	r := newEngine(t)
	r.POST("/feedback", asUser("alice"), h.Submit)
	r.GET("/get_feedbacks", asUser("alice"), h.List)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	// 空列表返回 []
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get_feedbacks", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	for _, bad := range []string{`[1,2]`, `"text"`, `null`, `{broken`} {
		w := post(bad)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}

	w = post(`{"rating":5,"message":"好看","username":"mallory"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"反馈提交成功"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get_feedbacks", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0]["username"])
	assert.Equal(t, "好看", list[0]["message"])
	assert.NotEmpty(t, list[0]["timestamp"])
}

func TestHistoryHandler(t *testing.T) {
	repo := new(mocks.GenerationRepository)
	h := handler.NewHistoryHandler(service.NewHistoryService(repo, nil))
	r := newEngine(t)
	r.GET("/history", asUser("alice"), h.List)

	repo.On("ListByUsername", mock.Anything, "alice", 20).
		Return([]domain.Generation{{Username: "alice", Filename: "result_a.jpg", ImageURL: "/static/results/result_a.jpg"}}, nil).Once()
	repo.On("ListByUsername", mock.Anything, "alice", 100).Return(nil, nil).Once()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "result_a.jpg")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history?limit=500", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	repo.AssertExpectations(t)
}

func TestFeedbackHandler_LargeNumbersSurviveReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.json")
	repo, err := jsonfile.NewFeedbackRepository(path)
	require.NoError(t, err)

	r := newEngine(t)
	r.POST("/feedback", asUser("alice"), handler.NewFeedbackHandler(service.NewFeedbackService(repo)).Submit)

	req := httptest.NewRequest(http.MethodPost, "/feedback",
		strings.NewReader(`{"order_id":12345678901234567891,"ratio":0.1,"tags":[1e400]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 重新从磁盘加载后再列出
	reopened, err := jsonfile.NewFeedbackRepository(path)
	require.NoError(t, err)
	r = newEngine(t)
	r.GET("/get_feedbacks", asUser("alice"), handler.NewFeedbackHandler(service.NewFeedbackService(reopened)).List)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get_feedbacks", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"order_id":12345678901234567891`)
	assert.Contains(t, body, `"ratio":0.1`)
	assert.Contains(t, body, `"tags":[1e400]`)
}

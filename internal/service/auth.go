package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"costume-swap/internal/domain"
	"costume-swap/internal/repository"
)

// SessionClaims 是会话令牌中携带的声明。令牌由客户端保存，服务端只做签名校验。
type SessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthService 负责账户注册、认证和会话令牌的签发与校验。
type AuthService struct {
	userRepo   repository.UserRepository
	sessions   repository.SessionStateRepository // 可选，为 nil 时注销只清除 cookie
	secret     []byte
	sessionTTL time.Duration
	hashCost   int
	now        func() time.Time
}

// AuthOption 调整 AuthService 的可选参数
type AuthOption func(*AuthService)

// WithHashCost 设置 bcrypt 代价 (测试中使用 bcrypt.MinCost 加速)
func WithHashCost(cost int) AuthOption {
	return func(s *AuthService) { s.hashCost = cost }
}

// WithClock 替换时间源
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// NewAuthService 创建 AuthService 实例。
// secret 必须来自运行时配置，不能为空。
func NewAuthService(userRepo repository.UserRepository, sessions repository.SessionStateRepository, secret string, sessionTTL time.Duration, opts ...AuthOption) (*AuthService, error) {
	if userRepo == nil {
		panic("UserRepository cannot be nil for AuthService")
	}
	if secret == "" {
		return nil, fmt.Errorf("session secret cannot be empty")
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	s := &AuthService{
		userRepo:   userRepo,
		sessions:   sessions,
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		hashCost:   bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SessionTTL 返回会话有效期
func (s *AuthService) SessionTTL() time.Duration { return s.sessionTTL }

// Register 注册新用户。
func (s *AuthService) Register(ctx context.Context, username, password, confirmPassword string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	logCtx := logrus.WithField("username", username)

	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}
	if password != confirmPassword {
		return nil, ErrPasswordMismatch
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil && existing != nil {
		logCtx.Warn("Registration failed: username already exists")
		return nil, ErrDuplicateUser
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		logCtx.WithError(err).Error("Failed to check username during registration")
		return nil, ErrInternalServer
	}

	digest, err := s.hashPassword(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrInvalidInput
		}
		logCtx.WithError(err).Error("Failed to hash password during registration")
		return nil, ErrInternalServer
	}

	user := &domain.User{
		Username:  username,
		Password:  digest,
		CreatedAt: s.now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// 检查和写入之间被并发注册抢先
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.WithError(err).Warn("Registration failed: duplicate entry on create")
			return nil, ErrDuplicateUser
		}
		logCtx.WithError(err).Error("Store error during user creation")
		return nil, ErrInternalServer
	}

	logCtx.Info("User registered successfully")
	user.Password = ""
	return user, nil
}

// Authenticate 校验用户名和密码，成功时返回用户。
// 用户名与注册时一样去掉首尾空白。
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	logCtx := logrus.WithField("username", username)

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.Warn("Login attempt failed: user not found")
		} else {
			logCtx.WithError(err).Warn("Login attempt failed: error finding user")
		}
		return nil, ErrInvalidCredentials
	}
	if user == nil || !checkPassword(password, user.Password) {
		logCtx.Warn("Login attempt failed: invalid password")
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login 认证成功后签发会话令牌。
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	token, err := s.IssueToken(user.Username)
	if err != nil {
		logrus.WithError(err).WithField("username", username).Error("Failed to sign session token")
		return "", ErrInternalServer
	}
	logrus.WithField("username", username).Info("User logged in successfully")
	return token, nil
}

// IssueToken 为用户签发会话令牌
func (s *AuthService) IssueToken(username string) (string, error) {
	now := s.now()
	claims := SessionClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken 校验令牌签名、有效期和吊销状态。
// 任何校验失败都返回 ErrUnauthenticated。
func (s *AuthService) ParseToken(ctx context.Context, tokenStr string) (*SessionClaims, error) {
	if tokenStr == "" {
		return nil, ErrUnauthenticated
	}

	claims := &SessionClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	// jwt/v4 用包级 TimeFunc 校验 exp，这里按自己的时钟单独检查
	parser.SkipClaimsValidation = true
	token, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		logrus.WithError(err).Debug("Session token rejected")
		return nil, ErrUnauthenticated
	}
	if claims.Username == "" || claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrUnauthenticated
	}

	if s.sessions != nil && claims.ID != "" {
		revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
		if err != nil {
			// 无法确认吊销状态时按未登录处理
			logrus.WithError(err).Error("Failed to check session revocation")
			return nil, ErrUnauthenticated
		}
		if revoked {
			return nil, ErrUnauthenticated
		}
	}
	return claims, nil
}

// Logout 吊销令牌直到其自然过期。没有配置吊销存储时什么也不做。
func (s *AuthService) Logout(ctx context.Context, claims *SessionClaims) error {
	if s.sessions == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if err := s.sessions.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	logrus.WithField("username", claims.Username).Info("User logged out")
	return nil
}

// hashPassword 使用 bcrypt 计算密码摘要
func (s *AuthService) hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to generate hash from password: %w", err)
	}
	return string(bytes), nil
}

// checkPassword 验证密码是否与摘要匹配
func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dushixiang/tradejournal/internal/models"
	"github.com/dushixiang/tradejournal/internal/repo"
	"github.com/dushixiang/tradejournal/internal/xe"
	"github.com/dushixiang/tradejournal/pkg/nostd"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService 认证服务
type AuthService struct {
	logger        *zap.Logger
	userRepo      *repo.UserRepo
	jwtSecret     string
	jwtExpiration time.Duration

	// 已注销的令牌 jti -> 过期时间
	revoked sync.Map
}

// NewAuthService 创建认证服务
func NewAuthService(logger *zap.Logger, db *gorm.DB, jwtSecret string) *AuthService {
	if jwtSecret == "" {
		logger.Warn("jwt secret not configured, tokens will be invalid after restart")
		jwtSecret = uuid.NewString()
	}
	return &AuthService{
		logger:        logger,
		userRepo:      repo.NewUserRepo(db),
		jwtSecret:     jwtSecret,
		jwtExpiration: 24 * time.Hour, // JWT有效期24小时
	}
}

// JWTClaims JWT载荷
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Nickname string `json:"nickname" validate:"max=100"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

// UserInfo 用户信息
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
}

func toUserInfo(user *models.User) UserInfo {
	return UserInfo{
		ID:       user.ID,
		Username: user.Username,
		Nickname: user.Nickname,
	}
}

// Register 注册并直接登录
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, ip string) (*LoginResponse, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, xe.ErrAccountAlreadyUsed
	}

	passwordHash, err := nostd.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	nickname := req.Nickname
	if nickname == "" {
		nickname = req.Username
	}
	user := &models.User{
		ID:           ulid.Make().String(),
		Username:     req.Username,
		PasswordHash: passwordHash,
		Nickname:     nickname,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// 并发注册同名用户时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, xe.ErrAccountAlreadyUsed
		}
		if exists, _ := s.userRepo.ExistsByUsername(ctx, req.Username); exists {
			return nil, xe.ErrAccountAlreadyUsed
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.String("username", user.Username), zap.String("ip", ip))
	return s.issueToken(user)
}

// Login 用户登录
func (s *AuthService) Login(ctx context.Context, req LoginRequest, ip string) (*LoginResponse, error) {
	// 查找用户
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("login failed: user not found",
				zap.String("username", req.Username),
				zap.String("ip", ip))
			return nil, xe.ErrIncorrectPassword
		}
		return nil, err
	}

	// 检查用户是否激活
	if !user.IsActive {
		s.logger.Warn("login failed: user not active",
			zap.String("username", req.Username),
			zap.String("ip", ip))
		return nil, xe.ErrUserDisabled
	}

	// 验证密码
	if !nostd.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Warn("login failed: invalid password",
			zap.String("username", req.Username),
			zap.String("ip", ip))
		return nil, xe.ErrIncorrectPassword
	}

	// 更新最后登录信息
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, ip); err != nil {
		s.logger.Error("failed to update last login", zap.Error(err))
	}

	s.logger.Info("user logged in",
		zap.String("username", user.Username),
		zap.String("ip", ip))
	return s.issueToken(user)
}

func (s *AuthService) issueToken(user *models.User) (*LoginResponse, error) {
	now := time.Now()
	expiresAt := now.Add(s.jwtExpiration)
	claims := JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "tradejournal",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token:     tokenString,
		ExpiresAt: expiresAt,
		User:      toUserInfo(user),
	}, nil
}

// ValidateToken 验证JWT Token，已注销的令牌视为无效
func (s *AuthService) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, xe.ErrInvalidToken
	}
	if _, revoked := s.revoked.Load(claims.ID); revoked {
		return nil, xe.ErrInvalidToken
	}
	return claims, nil
}

// Logout 注销令牌，令牌过期后从注销列表中清除
func (s *AuthService) Logout(claims *JWTClaims) {
	if claims == nil || claims.ID == "" {
		return
	}
	expiresAt := time.Now().Add(s.jwtExpiration)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	s.revoked.Store(claims.ID, expiresAt)
	s.purgeRevoked(time.Now())

	s.logger.Info("user logged out", zap.String("user_id", claims.UserID))
}

func (s *AuthService) purgeRevoked(now time.Time) {
	s.revoked.Range(func(key, value any) bool {
		if expiresAt, ok := value.(time.Time); ok && now.After(expiresAt) {
			s.revoked.Delete(key)
		}
		return true
	})
}

// ChangePassword 修改密码
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return xe.ErrNotFound
		}
		return err
	}

	// 验证旧密码
	if !nostd.CheckPassword(user.PasswordHash, oldPassword) {
		return xe.ErrIncorrectOldPass
	}

	// 加密新密码
	passwordHash, err := nostd.HashPassword(newPassword)
	if err != nil {
		return err
	}

	// 更新密码
	if err := s.userRepo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.String("user_id", userID))
	return nil
}

// GetCurrentUser 获取当前用户信息
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xe.ErrNotFound
		}
		return nil, err
	}

	info := toUserInfo(user)
	return &info, nil
}

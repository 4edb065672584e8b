// Copyright (c) 2024-2025 EchoNotes
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package internal_auth_service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/echonotes/web-backend/config"
	internal_entity "github.com/echonotes/web-backend/internal/entity"
	"github.com/echonotes/web-backend/pkg/commons"
	"github.com/echonotes/web-backend/pkg/connectors"
)

const (
	tokenValidity  = 7 * 24 * time.Hour
	verifyCacheTTL = 15 * time.Minute
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidToken       = errors.New("auth: invalid or expired token")
)

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token string
	User  *internal_entity.User
}

type AuthService interface {
	Signup(ctx context.Context, email, password, name string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// Verify resolves a bearer token to its user. Recently verified tokens
	// are served from the cache without re-parsing.
	Verify(ctx context.Context, token string) (*internal_entity.User, error)
}

type authService struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	postgres connectors.PostgresConnector
	redis    connectors.RedisConnector
}

func NewAuthService(cfg *config.AppConfig, logger commons.Logger,
	postgres connectors.PostgresConnector, redis connectors.RedisConnector) AuthService {
	return &authService{
		cfg:      cfg,
		logger:   logger,
		postgres: postgres,
		redis:    redis,
	}
}

func (s *authService) Signup(ctx context.Context, email, password, name string) (*AuthResult, error) {
	db := s.postgres.DB(ctx)

	var existing internal_entity.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &internal_entity.User{
		Email:    email,
		Password: string(hash),
		Name:     name,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("account created: user=%d email=%s", user.Id, user.Email)
	return &AuthResult{Token: token, User: user}, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var user internal_entity.User
	err := s.postgres.DB(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(&user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: &user}, nil
}

func (s *authService) Verify(ctx context.Context, token string) (*internal_entity.User, error) {
	if userId, ok := s.cachedUserId(ctx, token); ok {
		return s.loadUser(ctx, userId)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, ErrInvalidToken
	}
	userId, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	s.cacheToken(ctx, token, userId)
	return s.loadUser(ctx, userId)
}

func (s *authService) loadUser(ctx context.Context, userId uint64) (*internal_entity.User, error) {
	var user internal_entity.User
	err := s.postgres.DB(ctx).First(&user, userId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &user, nil
}

func (s *authService) issueToken(user *internal_entity.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(user.Id, 10),
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenValidity).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (s *authService) cachedUserId(ctx context.Context, token string) (uint64, bool) {
	if s.redis == nil {
		return 0, false
	}
	val, err := s.redis.Client().Get(ctx, verifyCacheKey(token)).Result()
	if err != nil {
		return 0, false
	}
	userId, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return userId, true
}

func (s *authService) cacheToken(ctx context.Context, token string, userId uint64) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Client().Set(ctx, verifyCacheKey(token),
		strconv.FormatUint(userId, 10), verifyCacheTTL).Err(); err != nil {
		s.logger.Warnf("verify cache write failed: %v", err)
	}
}

func verifyCacheKey(token string) string {
	return "auth:verify:" + token
}

package auth_api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/echonotes/web-backend/config"
	internal_auth_service "github.com/echonotes/web-backend/internal/services/auth"
	"github.com/echonotes/web-backend/pkg/commons"
	"github.com/echonotes/web-backend/pkg/connectors"
	"github.com/echonotes/web-backend/pkg/utils"
)

type authApi struct {
	cfg         *config.AppConfig
	logger      commons.Logger
	authService internal_auth_service.AuthService
}

func New(cfg *config.AppConfig, logger commons.Logger,
	postgres connectors.PostgresConnector, redis connectors.RedisConnector) *authApi {
	return &authApi{
		cfg:         cfg,
		logger:      logger,
		authService: internal_auth_service.NewAuthService(cfg, logger, postgres, redis),
	}
}

// AuthService exposes the underlying service for middleware wiring.
func (api *authApi) AuthService() internal_auth_service.AuthService {
	return api.authService
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (api *authApi) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	result, err := api.authService.Signup(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, internal_auth_service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"message": "email already registered"})
			return
		}
		api.logger.Errorf("signup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "error creating account"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": result.Token, "user": result.User})
}

func (api *authApi) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	result, err := api.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, internal_auth_service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
			return
		}
		api.logger.Errorf("login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "error logging in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": result.Token, "user": result.User})
}

func (api *authApi) Verify(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if utils.IsEmpty(token) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing authorization token"})
		return
	}

	user, err := api.authService.Verify(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

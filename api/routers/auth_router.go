package web_routers

import (
	"github.com/gin-gonic/gin"

	authApi "github.com/echonotes/web-backend/api/auth-api"
	"github.com/echonotes/web-backend/config"
	internal_auth_service "github.com/echonotes/web-backend/internal/services/auth"
	"github.com/echonotes/web-backend/pkg/commons"
	"github.com/echonotes/web-backend/pkg/connectors"
)

// AuthApiRoutes registers the public authentication endpoints and hands the
// verification service back for middleware wiring on the protected groups.
func AuthApiRoutes(
	cfg *config.AppConfig,
	engine *gin.Engine,
	logger commons.Logger,
	postgres connectors.PostgresConnector,
	redis connectors.RedisConnector,
) internal_auth_service.AuthService {
	apiv1 := engine.Group("v1/auth")
	aApi := authApi.New(cfg, logger, postgres, redis)
	{
		apiv1.POST("/signup", aApi.Signup)
		apiv1.POST("/login", aApi.Login)
		apiv1.GET("/verify", aApi.Verify)
	}
	return aApi.AuthService()
}

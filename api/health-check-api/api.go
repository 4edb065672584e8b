package health_check_api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/echonotes/web-backend/config"
	"github.com/echonotes/web-backend/pkg/commons"
	"github.com/echonotes/web-backend/pkg/connectors"
)

type healthCheckApi struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	postgres connectors.PostgresConnector
}

func New(cfg *config.AppConfig, logger commons.Logger, postgres connectors.PostgresConnector) *healthCheckApi {
	return &healthCheckApi{
		cfg:      cfg,
		logger:   logger,
		postgres: postgres,
	}
}

// Healthz reports process liveness only.
func (api *healthCheckApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": api.cfg.Name, "version": api.cfg.Version})
}

// Readiness additionally verifies the database connection.
func (api *healthCheckApi) Readiness(c *gin.Context) {
	db, err := api.postgres.DB(c.Request.Context()).DB()
	if err == nil {
		err = db.PingContext(c.Request.Context())
	}
	if err != nil {
		api.logger.Errorf("readiness check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

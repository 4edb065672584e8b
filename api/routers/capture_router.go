package web_routers

import (
	"github.com/gin-gonic/gin"

	captureApi "github.com/echonotes/web-backend/api/capture-api"
	"github.com/echonotes/web-backend/config"
	notes_client "github.com/echonotes/web-backend/pkg/clients/notes"
	"github.com/echonotes/web-backend/pkg/commons"
)

func CaptureApiRoutes(
	cfg *config.AppConfig,
	engine *gin.Engine,
	logger commons.Logger,
	persistence notes_client.NoteServiceClient,
	authenticated gin.HandlerFunc,
) {
	apiv1 := engine.Group("v1/capture", authenticated)
	cApi := captureApi.New(cfg, logger, persistence)
	{
		apiv1.GET("", cApi.Capture)
	}
}

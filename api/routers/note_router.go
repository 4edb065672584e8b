package web_routers

import (
	"github.com/gin-gonic/gin"

	noteApi "github.com/echonotes/web-backend/api/note-api"
	"github.com/echonotes/web-backend/config"
	"github.com/echonotes/web-backend/pkg/commons"
	"github.com/echonotes/web-backend/pkg/connectors"
	storage_files "github.com/echonotes/web-backend/pkg/storages/file-storage"
)

func NoteApiRoutes(
	cfg *config.AppConfig,
	engine *gin.Engine,
	logger commons.Logger,
	postgres connectors.PostgresConnector,
	storage storage_files.Storage,
	authenticated gin.HandlerFunc,
) {
	apiv1 := engine.Group("v1/notes", authenticated)
	nApi := noteApi.New(cfg, logger, postgres, storage)
	{
		apiv1.GET("", nApi.GetNotes)
		apiv1.POST("", nApi.CreateNote)
		apiv1.PUT("/:id", nApi.UpdateNote)
		apiv1.DELETE("/:id", nApi.DeleteNote)
	}
}

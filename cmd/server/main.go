// Copyright (c) 2024-2025 EchoNotes
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package main

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/echonotes/web-backend/api/middleware"
	web_routers "github.com/echonotes/web-backend/api/routers"
	"github.com/echonotes/web-backend/config"
	internal_entity "github.com/echonotes/web-backend/internal/entity"
	notes_client "github.com/echonotes/web-backend/pkg/clients/notes"
	"github.com/echonotes/web-backend/pkg/commons"
	"github.com/echonotes/web-backend/pkg/connectors"
	storage_files "github.com/echonotes/web-backend/pkg/storages/file-storage"
)

func main() {
	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("unable to initialize config: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("unable to load application config: %v", err)
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Path(cfg.LogPath),
		commons.Level(cfg.LogLevel),
	)
	if err != nil {
		log.Fatalf("unable to initialize logger: %v", err)
	}
	defer logger.Sync()

	postgres, err := connectors.NewPostgresConnector(cfg.PostgresConfig, logger)
	if err != nil {
		logger.Fatalf("postgres connector failed: %v", err)
	}
	defer postgres.Close()
	if err := postgres.Migrate(&internal_entity.User{}, &internal_entity.Note{}); err != nil {
		logger.Fatalf("schema migration failed: %v", err)
	}

	redis, err := connectors.NewRedisConnector(cfg.RedisConfig, logger)
	if err != nil {
		// Auth falls back to full JWT verification without the cache.
		logger.Warnf("redis connector failed, continuing without cache: %v", err)
		redis = nil
	} else {
		defer redis.Close()
	}

	storage, err := storage_files.NewStorage(cfg.AssetStoreConfig, logger)
	if err != nil {
		logger.Fatalf("asset storage failed: %v", err)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.MaxMultipartMemory = 32 << 20
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.CorsOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if strings.EqualFold(cfg.AssetStoreConfig.Provider, "local") || cfg.AssetStoreConfig.Provider == "" {
		engine.Static("/assets", cfg.AssetStoreConfig.LocalPath)
	}
	engine.Static("/previews", cfg.PreviewPath)

	persistence := notes_client.NewNoteServiceClient(cfg, logger)

	web_routers.HealthCheckRoutes(cfg, engine, logger, postgres)
	authService := web_routers.AuthApiRoutes(cfg, engine, logger, postgres, redis)
	authenticated := middleware.Authentication(logger, authService)
	web_routers.NoteApiRoutes(cfg, engine, logger, postgres, storage, authenticated)
	web_routers.CaptureApiRoutes(cfg, engine, logger, persistence, authenticated)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logger.Infof("starting %s v%s on %s", cfg.Name, cfg.Version, addr)
	if err := engine.Run(addr); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}

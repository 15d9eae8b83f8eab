package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/VicegerentPrince/Urban-Eye/config"
	"github.com/VicegerentPrince/Urban-Eye/controllers"
	"github.com/VicegerentPrince/Urban-Eye/routes"
	"github.com/VicegerentPrince/Urban-Eye/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.Environment)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if _, err := config.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	if err := config.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	mediaStore, err := storage.NewStore(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		logger.Fatal("Failed to prepare upload directory", zap.Error(err))
	}

	if err := controllers.Init(cfg, mediaStore); err != nil {
		logger.Fatal("Failed to initialize controllers", zap.Error(err))
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	routes.AuthRoutes(r, cfg)
	routes.IssueRoutes(r, cfg)

	// Stored media is served straight off disk.
	r.Static("/uploads", mediaStore.Dir())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	logger.Info("Starting server", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func newLogger(environment string) *zap.Logger {
	if environment == "production" {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}

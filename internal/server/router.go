package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/KohHuiLyn/spm-project/internal/handlers"
)

type RouterConfig struct {
	InteractionHandler    *handlers.InteractionHandler
	TrainingHandler       *handlers.TrainingHandler
	RecommendationHandler *handlers.RecommendationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/user/style-interaction", cfg.InteractionHandler.Record)
		api.GET("/user/style-interaction/stats", cfg.InteractionHandler.Stats)
		api.POST("/user/style-interaction/train", cfg.TrainingHandler.Train)
		api.GET("/products/recommend/style", cfg.RecommendationHandler.GetStyleRecommendations)
	}

	return router
}

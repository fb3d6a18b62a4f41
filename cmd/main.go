package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/KohHuiLyn/spm-project/internal/db"
	"github.com/KohHuiLyn/spm-project/internal/handlers"
	"github.com/KohHuiLyn/spm-project/internal/logger"
	"github.com/KohHuiLyn/spm-project/internal/registry"
	"github.com/KohHuiLyn/spm-project/internal/repos"
	"github.com/KohHuiLyn/spm-project/internal/server"
	"github.com/KohHuiLyn/spm-project/internal/services"
	"github.com/KohHuiLyn/spm-project/internal/training"
	"github.com/KohHuiLyn/spm-project/internal/utils"
)

func main() {
	logMode := os.Getenv("LOG_MODE")
	appLogger, err := logger.New(logMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	port := utils.GetEnv("PORT", "8080", appLogger)
	pythonBin := utils.GetEnv("PYTHON_BIN", "python3", appLogger)
	recommenderDir := utils.GetEnv("RECOMMENDER_DIR", "recommender", appLogger)
	modelsDir := utils.GetEnv("MODELS_DIR", "models", appLogger)
	retrainThreshold := utils.GetEnvAsInt("RETRAIN_THRESHOLD", services.DefaultRetrainThreshold, appLogger)
	trainTimeout := utils.GetEnvAsDuration("TRAIN_TIMEOUT_SECONDS", training.DefaultTimeout, appLogger)

	pg, err := db.NewPostgresService(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize Postgres", "error", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		appLogger.Fatal("Failed to migrate Postgres tables", "error", err)
	}
	gdb := pg.DB()

	interactionRepo := repos.NewStyleInteractionRepo(gdb, appLogger)
	profileRepo := repos.NewProfileRepo(gdb, appLogger)
	productRepo := repos.NewProductRepo(gdb, appLogger)

	modelRegistry := registry.NewModelRegistry(modelsDir, appLogger)
	if err := modelRegistry.EnsureRoot(); err != nil {
		appLogger.Fatal("Failed to create model directory", "path", modelsDir, "error", err)
	}

	trainScript := filepath.Join(recommenderDir, "retrain_model.py")
	recommendScript := filepath.Join(recommenderDir, "style_recommender.py")

	runner := training.NewRunner(appLogger, modelRegistry, pythonBin, trainScript, trainTimeout)
	scheduler := services.NewRetrainScheduler(gdb, appLogger, interactionRepo, modelRegistry, runner, retrainThreshold)
	interactionService := services.NewInteractionService(gdb, appLogger, interactionRepo, modelRegistry, scheduler)
	recommendationService := services.NewRecommendationService(
		gdb, appLogger, productRepo, profileRepo, modelRegistry, scheduler, pythonBin, recommendScript)

	router := server.NewRouter(server.RouterConfig{
		InteractionHandler:    handlers.NewInteractionHandler(appLogger, interactionService),
		TrainingHandler:       handlers.NewTrainingHandler(appLogger, runner),
		RecommendationHandler: handlers.NewRecommendationHandler(appLogger, recommendationService),
	})

	appLogger.Info("Starting server...", "port", port)
	if err := router.Run(":" + port); err != nil {
		appLogger.Fatal("Server exited", "error", err)
	}
}
